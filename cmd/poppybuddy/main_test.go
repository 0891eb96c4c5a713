package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ideamans/go-l10n"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poppybuddy/pkg/catalog"
	"poppybuddy/pkg/config"
)

func testConfig(t *testing.T) (string, *config.Config) {
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

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := newApp()
	a.Writer = &out
	a.ErrWriter = &out
	err := a.Run(append([]string{"poppybuddy"}, args...))
	return out.String(), err
}

func TestInitConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "configs", "poppybuddy.yaml")
	catPath := filepath.Join(dir, "catalog.yaml")

	out, err := run(t, "-c", path, "init-config", "--catalog", catPath)
	require.NoError(t, err)
	assert.Contains(t, out, l10n.F("Config file generated: %s", path))
	assert.Contains(t, out, l10n.F("Catalog exported: %s", catPath))

	_, err = os.Stat(path)
	require.NoError(t, err)
	cat, err := catalog.LoadFile(catPath)
	require.NoError(t, err)
	assert.Len(t, cat.Stories(), 10)
}

func TestRoutesJSON(t *testing.T) {
	path, _ := testConfig(t)

	out, err := run(t, "-c", path, "routes", "--story", "Art", "--json")
	require.NoError(t, err)

	var got []routeJSON
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 196)
	for _, r := range got {
		assert.Equal(t, "Art", r.Story)
		assert.NotEqual(t, r.Primary, r.Secondary)
	}
}

func TestRoutesPlain(t *testing.T) {
	path, _ := testConfig(t)

	out, err := run(t, "-c", path, "routes")
	require.NoError(t, err)
	lines := bytes.Count([]byte(out), []byte("\n"))
	assert.Equal(t, 1960, lines)
}

func TestBuildAndCheck(t *testing.T) {
	path, cfg := testConfig(t)

	_, err := run(t, "-c", path, "routes", "--built")
	require.Error(t, err)
	assert.Equal(t, l10n.T("No build recorded yet"), err.Error())

	out, err := run(t, "-c", path, "build")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(cfg.Site.OutputDir, "index.html"))
	assert.FileExists(t, filepath.Join(cfg.Site.OutputDir, "sitemap.xml"))
	assert.NotContains(t, out, l10n.T("Preflight checks failed"))

	out, err = run(t, "-c", path, "routes", "--built", "--story", "Art")
	require.NoError(t, err)
	assert.Equal(t, 196, bytes.Count([]byte(out), []byte("\n")))
	assert.Contains(t, out, "Art/French/Maori\n")

	out, err = run(t, "-c", path, "check")
	require.NoError(t, err)
	assert.Contains(t, out, l10n.F("%d routes (expected %d)", 1960, 1960))
}

func TestPlayNeedsThreeArgs(t *testing.T) {
	path, _ := testConfig(t)

	_, err := run(t, "-c", path, "play", "Art")
	require.Error(t, err)
	assert.Equal(t, l10n.T("expected STORY PRIMARY SECONDARY"), err.Error())
}

func TestPlayWithoutLastRoute(t *testing.T) {
	path, _ := testConfig(t)

	_, err := run(t, "-c", path, "play")
	require.Error(t, err)
	assert.Equal(t, l10n.T("No story to resume"), err.Error())
}
