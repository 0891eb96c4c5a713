package app

import (
	"context"
	"io"
	"bytes"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poppybuddy/pkg/catalog"
	"poppybuddy/pkg/config"
)

func writeConfig(t *testing.T) (string, *config.Config) {
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
	return path, cfg
}

func TestOpen(t *testing.T) {
	t.Setenv(config.EnvContentHost, "cdn.example.com")
	path, _ := writeConfig(t)

	rt, err := Open(path, Options{Database: true})
	require.NoError(t, err)
	defer rt.Close()

	assert.Equal(t, "cdn.example.com", rt.Linker.ContentHost)
	assert.Len(t, rt.Catalog.Stories(), 10)
	assert.NotNil(t, rt.DB())
	assert.NotNil(t, rt.Store())
	assert.Same(t, rt.Client(), rt.Client())

	require.NoError(t, rt.Provider.SetVolume(context.Background(), 0.25))
	assert.Equal(t, 0.25, rt.Provider.Volume(context.Background()))
}

func TestOpenWithoutDatabase(t *testing.T) {
	path, _ := writeConfig(t)
	rt, err := Open(path, Options{})
	require.NoError(t, err)
	defer rt.Close()

	assert.Nil(t, rt.DB())
	assert.Nil(t, rt.Store())
}

func TestOpenBadCatalog(t *testing.T) {
	path, cfg := writeConfig(t)
	cfg.Site.CatalogPath = filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, config.Save(path, cfg))

	_, err := Open(path, Options{})
	assert.Error(t, err)
}

func TestOpenRemoteCatalog(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, catalog.Default().Export(&buf, catalog.FormatYAML))

	var hits atomic.Int32
	svr := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write(buf.Bytes())
	}))

	path, cfg := writeConfig(t)
	cfg.Site.CatalogPath = svr.URL + "/catalog.yaml"
	cfg.Request.Retries = 1
	require.NoError(t, config.Save(path, cfg))

	rt, err := Open(path, Options{Database: true})
	require.NoError(t, err)
	assert.Len(t, rt.Catalog.Stories(), 10)
	rt.Close()
	assert.Equal(t, int32(1), hits.Load())

	// The cached copy serves once the host is gone.
	svr.Close()
	rt, err = Open(path, Options{Database: true})
	require.NoError(t, err)
	defer rt.Close()
	assert.Len(t, rt.Catalog.Stories(), 10)

	t.Run("Uncached fetch fails offline", func(t *testing.T) {
		_, err := Open(path, Options{})
		assert.Error(t, err)
	})
}

func TestBuildRecordsManifest(t *testing.T) {
	path, cfg := writeConfig(t)
	rt, err := Open(path, Options{Database: true})
	require.NoError(t, err)
	defer rt.Close()

	b, err := rt.Builder(BuildOptions{Clean: true})
	require.NoError(t, err)
	report, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1960, report.Pages)
	assert.FileExists(t, filepath.Join(cfg.Site.OutputDir, "Art", "Te Reo Maori", "French", "index.html"))

	entries, err := rt.Store().ListManifest(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 1960)
}

func TestServe(t *testing.T) {
	path, _ := writeConfig(t)
	rt, err := Open(path, Options{})
	require.NoError(t, err)
	defer rt.Close()

	srv, err := rt.Server("", nil, nil)
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, srv, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "OK", string(body))

	// The player API is off without a kiosk service.
	resp, err = http.Get("http://" + ln.Addr().String() + "/api/player/status")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
