package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"poppybuddy/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	tempDir := t.TempDir()
	serverLog := filepath.Join(tempDir, "server.log")
	requestLog := filepath.Join(tempDir, "requests.log")
	eventLog := filepath.Join(tempDir, "events.log")

	// A leftover log from a previous run gets rotated.
	require.NoError(t, os.WriteFile(serverLog, []byte("previous run\n"), 0o644))

	cfg := &config.LogConfig{
		Server:   config.LogSettings{Path: serverLog, Level: "DEBUG"},
		Requests: config.LogSettings{Path: requestLog, Level: "INFO"},
		Events:   config.LogSettings{Path: eventLog},
	}

	prev := slog.Default()
	cleanup, err := Init(cfg)
	require.NoError(t, err)
	defer func() {
		cleanup()
		slog.SetDefault(prev)
		SetEventLogPath("")
	}()

	assert.FileExists(t, serverLog)
	assert.FileExists(t, requestLog)
	assert.FileExists(t, serverLog+".old")
	require.NotNil(t, RequestLogger)

	slog.Info("Build finished", "pages", 1960)
	assert.Contains(t, GlobalLogCapture.GetLastLine(), "Build finished")
	assert.Contains(t, GlobalLogCapture.GetLastLine(), "pages=1960")

	content, err := os.ReadFile(serverLog)
	require.NoError(t, err)
	assert.NotContains(t, string(content), "previous run")
	assert.Contains(t, string(content), "Build finished")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"Warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"nonsense", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}

func TestLogEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.log")
	SetEventLogPath(path)
	defer SetEventLogPath("")

	ts := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)
	LogEvent(&PlayerEvent{Timestamp: ts, Type: "open", Route: "Art/en/mi", Detail: "Art_EnglishNZ_Maori.mp3"})
	LogEvent(&PlayerEvent{Timestamp: ts, Type: "close", Route: "Art/en/mi"})

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[2026-05-04 10:30:00] [open] Art/en/mi - Art_EnglishNZ_Maori.mp3", lines[0])
	assert.Equal(t, "[2026-05-04 10:30:00] [close] Art/en/mi", GlobalEventCapture.GetLastLine())
}

func TestTrace(t *testing.T) {
	defer func() { EnableTrace = false }()
	EnableTrace = false
	TraceDefault("hidden")
	EnableTrace = true
	Trace(slog.Default(), "visible")
}
