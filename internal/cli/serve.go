package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/shelf/internal/activity"
	"github.com/mesh-intelligence/shelf/internal/httpapi"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalogue over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(cmd); err != nil {
				return err
			}
			defer a.close()

			history, err := openActivityLog(a)
			if err != nil {
				return err
			}
			defer history.Close()

			gin.SetMode(gin.ReleaseMode)
			api := httpapi.NewServer(a.lib, httpapi.PersistFunc(a.save),
				httpapi.WithLogger(a.logger),
				httpapi.WithActivityLog(history),
			)
			srv := &http.Server{
				Addr:              addr,
				Handler:           api.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errc := make(chan error, 1)
			go func() {
				a.logger.Info("listening", "addr", addr)
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if !errors.Is(err, http.ErrServerClosed) {
					return sysError("serve: %s", err)
				}
				return nil
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return sysError("shutdown: %s", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":5000", "listen address")
	return cmd
}

// openActivityLog returns a Redis-backed activity log when redis_addr is
// configured and an in-memory one otherwise.
func openActivityLog(a *app) (activity.Log, error) {
	if a.cfg.RedisAddr == "" {
		return activity.NewMemoryLog(a.cfg.ActivityLimit), nil
	}
	l, err := activity.NewRedisLog(a.cfg.RedisAddr, a.cfg.ActivityLimit)
	if err != nil {
		return nil, sysError("open activity log: %s", err)
	}
	a.logger.Debug("activity log in redis", "addr", a.cfg.RedisAddr)
	return l, nil
}
