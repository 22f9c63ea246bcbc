package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/shelf/internal/catalogue"
	"github.com/mesh-intelligence/shelf/internal/paths"
	"github.com/mesh-intelligence/shelf/internal/snapshot"
	"github.com/mesh-intelligence/shelf/pkg/types"
)

// app is the state shared by subcommands of one root command: the global
// flags and, once opened, the loaded catalogue and its snapshot store.
type app struct {
	flags  rootFlags
	cfg    types.Config
	logger *slog.Logger
	lib    *catalogue.Catalogue
	store  snapshot.Store
}

// open resolves configuration, builds the catalogue, and loads the
// existing snapshot into it. The caller must defer close.
func (a *app) open(cmd *cobra.Command) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError("resolve config dir: %s", err)
	}

	cfg, err := loadConfig(configDir, a.flags.dataDir)
	if err != nil {
		return userError("load config: %s", err)
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.flags.verbose {
		level = "debug"
	}
	a.logger = newLogger(cmd.ErrOrStderr(), level)

	a.lib = catalogue.NewFromConfig(cfg, catalogue.WithLogger(a.logger))
	store, err := snapshot.Open(cfg, snapshot.WithLogger(a.logger))
	if err != nil {
		return sysError("open snapshot: %s", err)
	}
	a.store = store

	stats, err := snapshot.Load(store, a.lib, snapshot.WithLogger(a.logger))
	if err != nil {
		return sysError("load snapshot: %s", err)
	}
	if stats.SkippedBooks > 0 {
		a.logger.Warn("snapshot rows skipped", "books", stats.SkippedBooks)
	}
	a.logger.Debug("snapshot loaded",
		"format", cfg.SnapshotFormat,
		"data_dir", cfg.DataDir,
		"books", stats.Books,
		"skipped_books", stats.SkippedBooks,
		"members", stats.Members,
		"totals_raised", stats.TotalsRaised,
	)
	return nil
}

// save writes a full snapshot of the catalogue.
func (a *app) save() error {
	if err := a.store.Save(a.lib); err != nil {
		a.logger.Error("snapshot save failed", "error", err)
		return sysError("save snapshot: %s", err)
	}
	return nil
}

func (a *app) close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	if err != nil {
		return sysError("close snapshot: %s", err)
	}
	return nil
}

// newLogger returns a text slog logger writing to w at the named level.
// Unknown level names fall back to warn.
func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		l = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

// printJSON writes v as indented JSON to the command's output.
func printJSON(cmd *cobra.Command, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError("marshal output: %s", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(output))
	return nil
}

func formatBook(b types.Book) string {
	return fmt.Sprintf("%s  %s by %s (%d, %s)  %d/%d available",
		b.ISBN, b.Title, b.Author, b.Year, b.Category, b.AvailableCopies, b.TotalCopies)
}
