package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// freeAddr returns a loopback address with a currently unused port.
func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

// startServer runs "shelf serve" in the background and waits until it
// answers /health.
func startServer(t *testing.T, env *TestEnv) string {
	t.Helper()
	addr := freeAddr(t)
	cmd := env.command("serve", "--addr", addr)
	require.NoError(t, cmd.Start())
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
	})

	base := "http://" + addr
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 10*time.Second, 50*time.Millisecond)
	return base
}

func postJSON(t *testing.T, url string, body any) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	resp, err := http.Post(url, "application/json", &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func TestServePersistsMutations(t *testing.T) {
	env := NewTestEnv(t, "sqlite")
	base := startServer(t, env)

	res := postJSON(t, base+"/api/books/add", map[string]any{
		"isbn": "978-0", "title": "Dune", "author": "Frank Herbert",
		"year": 1965, "category": "Fiction", "copies": 1,
	})
	assert.Equal(t, true, res["success"])

	res = postJSON(t, base+"/api/members/add", map[string]any{"member_id": "M001", "name": "Ada"})
	assert.Equal(t, true, res["success"])

	res = postJSON(t, base+"/api/books/borrow", map[string]any{"member_id": "M001", "isbn": "978-0"})
	assert.Equal(t, true, res["success"], fmt.Sprint(res))

	// A separate process sees the saved snapshot.
	b := ParseJSON[Book](t, env.MustRunShelf("--json", "book", "get", "978-0").Stdout)
	assert.Equal(t, 0, b.AvailableCopies)

	resp, err := http.Get(base + "/api/members/M001?member_id=M001")
	require.NoError(t, err)
	defer resp.Body.Close()
	var member struct {
		BorrowedCount int  `json:"borrowed_count"`
		CanBorrow     bool `json:"can_borrow"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&member))
	assert.Equal(t, 1, member.BorrowedCount)
	assert.True(t, member.CanBorrow)

	act, err := http.Get(base + "/api/activity/M001")
	require.NoError(t, err)
	defer act.Body.Close()
	var history []struct {
		Method string `json:"method"`
		Route  string `json:"route"`
	}
	require.NoError(t, json.NewDecoder(act.Body).Decode(&history))
	require.Len(t, history, 1)
	assert.Equal(t, "/api/members/M001", history[0].Route)
}
