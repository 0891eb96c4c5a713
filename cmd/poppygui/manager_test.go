package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poppybuddy/internal/app"
	"poppybuddy/pkg/config"
)

func openRuntime(t *testing.T) *app.Runtime {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Site.OutputDir = filepath.Join(dir, "out")
	cfg.Site.StaticDir = filepath.Join(dir, "public")
	cfg.DB.Path = filepath.Join(dir, "data", "test.db")
	cfg.Player.CacheDir = filepath.Join(dir, "data", "audio")
	cfg.Log.Server.Path = filepath.Join(dir, "logs", "server.log")
	cfg.Log.Requests.Path = filepath.Join(dir, "logs", "requests.log")
	cfg.Log.Events.Path = filepath.Join(dir, "logs", "events.log")

	path := filepath.Join(dir, "configs", "poppybuddy.yaml")
	require.NoError(t, config.GenerateDefault(path))
	require.NoError(t, config.Save(path, cfg))

	rt, err := app.Open(path, app.Options{Database: true})
	require.NoError(t, err)
	t.Cleanup(rt.Close)
	return rt
}

func TestEscapeJS(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", `"plain"`},
		{`quote " here`, `"quote \" here"`},
		{"line\nbreak", `"line\nbreak"`},
		{"</script>", `"\u003c/script\u003e"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeJS(tt.in))
	}
}

func TestNeedsBuild(t *testing.T) {
	rt := openRuntime(t)
	m := &Manager{rt: rt}
	assert.True(t, m.needsBuild())

	out := rt.Config.Site.OutputDir
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "index.html"), []byte("<html></html>"), 0o644))
	assert.False(t, m.needsBuild())
}

func TestManagerServes(t *testing.T) {
	rt := openRuntime(t)
	out := rt.Config.Site.OutputDir
	require.NoError(t, os.MkdirAll(out, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(out, "index.html"), []byte("<html>stories</html>"), 0o644))

	var mu sync.Mutex
	var lines []string
	urls := make(chan string, 1)
	m := NewManager(rt, func(s string) {
		mu.Lock()
		lines = append(lines, s)
		mu.Unlock()
	}, func(u string) { urls <- u }, nil)

	m.Start(context.Background())
	defer m.Stop()

	var url string
	select {
	case url = <-urls:
	case <-time.After(10 * time.Second):
		t.Fatal("server never became ready")
	}
	assert.True(t, strings.HasPrefix(url, "http://127.0.0.1:"))

	resp, err := http.Get(url + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	mu.Lock()
	assert.Contains(t, lines, "> Server ready!")
	assert.NotContains(t, lines, "> Site not built yet. Building...")
	mu.Unlock()
}
