package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"poppybuddy/pkg/assets"
	"poppybuddy/pkg/catalog"
	"poppybuddy/pkg/config"
	"poppybuddy/pkg/kiosk"
	"poppybuddy/pkg/site"
)

type fakePlayer struct {
	mu      sync.Mutex
	playing bool
	pos     time.Duration
	vol     float64
}

func (p *fakePlayer) Load(string) error { return nil }
func (p *fakePlayer) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = true
	return nil
}
func (p *fakePlayer) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playing = false
	return nil
}
func (p *fakePlayer) Seek(pos time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pos = pos
	return nil
}
func (p *fakePlayer) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos
}
func (p *fakePlayer) Duration() time.Duration { return time.Minute }
func (p *fakePlayer) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vol = v
}
func (p *fakePlayer) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vol
}
func (p *fakePlayer) Close() error { return nil }

type fakeDownloader struct{}

func (fakeDownloader) Download(_ context.Context, _ string, dest string) (int64, error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}
	return 3, os.WriteFile(dest, []byte("mp3"), 0o644)
}

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	cat := catalog.Default()
	linker := assets.NewLinker("content.example.com", "")
	out := t.TempDir()

	builder, err := site.NewBuilder(cat, linker, site.Options{OutputDir: out}, nil, nil)
	require.NoError(t, err)

	cfg := config.DefaultConfig()
	svc := kiosk.NewService(cat, linker, fakeDownloader{}, config.NewProvider(cfg, nil), t.TempDir(), func() kiosk.Player {
		return &fakePlayer{}
	})
	t.Cleanup(func() { _ = svc.Close() })

	srv := NewServer("", NewCatalogHandler(cat, linker, builder), NewPlayerHandler(svc), out, nil)
	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return ts, out
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, body, v any) int {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestMetaEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	var v map[string]string
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/version", &v))
	assert.NotEmpty(t, v["version"])
}

func TestRequestIDIsPropagated(t *testing.T) {
	ts, _ := newTestServer(t)
	req, err := http.NewRequest(http.MethodGet, ts.URL+"/health", http.NoBody)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}

func TestCatalogEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	t.Run("Languages", func(t *testing.T) {
		var langs []catalog.LanguageEntry
		assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/languages", &langs))
		assert.Len(t, langs, 5)
	})

	t.Run("Language by alias", func(t *testing.T) {
		var entry catalog.LanguageEntry
		assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/languages/Simplified_Chinese", &entry))
		assert.Equal(t, "Mandarin", entry.ShortName)
	})

	t.Run("Unknown language", func(t *testing.T) {
		var body map[string]string
		assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/languages/Klingon", &body))
		assert.Equal(t, "error", body["status"])
	})

	t.Run("Stories", func(t *testing.T) {
		var stories []StoryResponse
		assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/stories", &stories))
		require.Len(t, stories, 10)
		assert.Equal(t, "Art", stories[0].Name)
		assert.Equal(t, "/img/cover/CoverArt.png", stories[0].CoverURL)
		assert.Equal(t, 196, stories[0].RouteURLs)
	})

	t.Run("Title", func(t *testing.T) {
		var title TitleResponse
		assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/stories/Art/titles/Te%20Reo%20Maori", &title))
		assert.Equal(t, "Toi", title.Title)
		assert.Equal(t, "Maori", title.Language)

		assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/stories/Nope/titles/French", nil))
	})

	t.Run("Routes", func(t *testing.T) {
		var all RoutesResponse
		assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/routes", &all))
		assert.Equal(t, 1960, all.Count)

		var art RoutesResponse
		assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/routes?story=Art", &art))
		assert.Equal(t, 196, art.Count)
		for _, r := range art.Routes {
			assert.Equal(t, "Art", r.Story)
		}
	})

	t.Run("Page", func(t *testing.T) {
		var page PageResponse
		assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/pages/Art/Simplified-Chinese/French", &page))
		assert.True(t, page.Complete)
		assert.Equal(t, "艺术", page.PrimaryTitle)
		assert.Equal(t, "https://content.example.com/audio/Art_Mandarin_French.mp3", page.AudioURL)

		var partial PageResponse
		assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/pages/Art/Klingon/French", &partial))
		assert.False(t, partial.Complete)
		assert.Empty(t, partial.AudioURL)
		assert.Empty(t, partial.PrimaryTitle)

		assert.Equal(t, http.StatusNotFound, getJSON(t, ts.URL+"/api/pages/Nope/Klingon/Elvish", nil))
	})
}

func TestSiteServing(t *testing.T) {
	ts, out := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(out, "index.html"), []byte("home"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(out, "404.html"), []byte("missing page"), 0o644))
	route := filepath.Join(out, "Art", "Te Reo Maori", "French")
	require.NoError(t, os.MkdirAll(route, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(route, "index.html"), []byte("player"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(out, "empty"), 0o755))

	tests := []struct {
		name   string
		path   string
		status int
		body   string
	}{
		{"Home", "/", http.StatusOK, "home"},
		{"Route with escaped space", "/Art/Te%20Reo%20Maori/French/", http.StatusOK, "player"},
		{"Missing route", "/Art/Klingon/French/", http.StatusNotFound, "missing page"},
		{"Directory without index", "/empty/", http.StatusNotFound, "missing page"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(ts.URL + tt.path)
			require.NoError(t, err)
			defer resp.Body.Close()
			buf := new(bytes.Buffer)
			_, err = buf.ReadFrom(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.body, buf.String())
		})
	}
}

func TestPlayerEndpoints(t *testing.T) {
	ts, _ := newTestServer(t)

	var st StatusResponse
	assert.Equal(t, http.StatusOK, getJSON(t, ts.URL+"/api/player/status", &st))
	assert.False(t, st.Active)

	assert.Equal(t, http.StatusConflict, postJSON(t, ts.URL+"/api/player/control", ControlRequest{Action: "play"}, nil))
	assert.Equal(t, http.StatusNotFound, postJSON(t, ts.URL+"/api/player/open", OpenRequest{Story: "Art", Primary: "Klingon", Secondary: "French"}, nil))

	require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/api/player/open", OpenRequest{Story: "Art", Primary: "English_NZ", Secondary: "Maori"}, &st))
	assert.True(t, st.Active)
	assert.Equal(t, "Art/English_NZ/Maori", st.Route)
	assert.Equal(t, "Toi", st.SecondaryTitle)
	assert.Equal(t, 60.0, st.Duration)

	t.Run("Skip clamps at zero", func(t *testing.T) {
		require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/api/player/control", ControlRequest{Action: "skip", Seconds: -10}, &st))
		assert.Zero(t, st.Position)
	})

	t.Run("Default skip goes forward", func(t *testing.T) {
		require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/api/player/control", ControlRequest{Action: "skip"}, &st))
		assert.Equal(t, 10.0, st.Position)
	})

	t.Run("Scrub", func(t *testing.T) {
		require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/api/player/control", ControlRequest{Action: "scrub_start", Seconds: 20}, &st))
		assert.True(t, st.Scrubbing)
		require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/api/player/control", ControlRequest{Action: "scrub", Seconds: 90}, &st))
		assert.Equal(t, 60.0, st.Position)
		require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/api/player/control", ControlRequest{Action: "scrub_end", Seconds: 30}, &st))
		assert.False(t, st.Scrubbing)
		assert.Equal(t, 30.0, st.Position)
	})

	t.Run("Toggle", func(t *testing.T) {
		require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/api/player/control", ControlRequest{Action: "toggle"}, &st))
		assert.True(t, st.Playing)
		require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/api/player/control", ControlRequest{Action: "pause"}, &st))
		assert.False(t, st.Playing)
	})

	t.Run("Unknown action", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, postJSON(t, ts.URL+"/api/player/control", ControlRequest{Action: "rewind"}, nil))
	})

	t.Run("Volume", func(t *testing.T) {
		var v map[string]any
		require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/api/player/volume", VolumeRequest{Volume: 3}, &v))
		assert.Equal(t, 1.0, v["volume"])
	})

	t.Run("Skip step", func(t *testing.T) {
		var v map[string]any
		require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/api/player/skip-step", SkipStepRequest{Seconds: 0.2}, &v))
		assert.Equal(t, 1.0, v["skip_step"])
	})

	t.Run("Close", func(t *testing.T) {
		require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/api/player/control", ControlRequest{Action: "close"}, &st))
		assert.False(t, st.Active)
		assert.Equal(t, http.StatusConflict, postJSON(t, ts.URL+"/api/player/control", ControlRequest{Action: "close"}, nil))
	})

	t.Run("Bad body", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/api/player/open", "application/json", strings.NewReader("{"))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestPlayerEvents(t *testing.T) {
	ts, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/player/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first StatusResponse
	require.NoError(t, conn.ReadJSON(&first))
	assert.False(t, first.Active)

	require.Equal(t, http.StatusOK, postJSON(t, ts.URL+"/api/player/open", OpenRequest{Story: "Band", Primary: "French", Secondary: "Mandarin"}, nil))

	var ev StatusResponse
	for !ev.Active {
		require.NoError(t, conn.ReadJSON(&ev))
	}
	assert.Equal(t, "Band/French/Mandarin", ev.Route)
	assert.Equal(t, 60.0, ev.Duration)
}
