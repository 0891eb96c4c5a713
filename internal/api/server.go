package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"poppybuddy/pkg/version"
)

// NewServer creates and configures the preview server. player may be nil when
// no audio device is available; siteDir is the build output directory.
func NewServer(addr string, catH *CatalogHandler, playerH *PlayerHandler, siteDir string, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health and meta
	mux.HandleFunc("GET /health", handleHealth)
	mux.HandleFunc("GET /api/version", handleVersion)
	mux.HandleFunc("GET /api/log/latest", handleLatestLog)
	mux.HandleFunc("GET /api/log/events", handleLatestEvent)

	// 2. Catalog and routes
	mux.HandleFunc("GET /api/languages", catH.HandleLanguages)
	mux.HandleFunc("GET /api/languages/{code}", catH.HandleLanguage)
	mux.HandleFunc("GET /api/stories", catH.HandleStories)
	mux.HandleFunc("GET /api/stories/{story}/titles/{lang}", catH.HandleTitle)
	mux.HandleFunc("GET /api/routes", catH.HandleRoutes)
	mux.HandleFunc("GET /api/pages/{story}/{primary}/{secondary}", catH.HandlePage)

	// 3. Kiosk player
	if playerH != nil {
		mux.HandleFunc("POST /api/player/open", playerH.HandleOpen)
		mux.HandleFunc("POST /api/player/control", playerH.HandleControl)
		mux.HandleFunc("GET /api/player/status", playerH.HandleStatus)
		mux.HandleFunc("POST /api/player/volume", playerH.HandleVolume)
		mux.HandleFunc("POST /api/player/skip-step", playerH.HandleSkipStep)
		mux.HandleFunc("GET /api/player/events", playerH.HandleEvents)
	}

	// 4. Shutdown
	if shutdown != nil {
		mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
			slog.Info("Graceful shutdown initiated via API")
			w.WriteHeader(http.StatusOK)
			if _, err := w.Write([]byte("Shutting down...")); err != nil {
				slog.Error("Failed to write shutdown response", "error", err)
			}
			go func() {
				time.Sleep(100 * time.Millisecond)
				shutdown()
			}()
		})
	}

	// 5. Generated site
	mux.Handle("/", NewSiteHandler(siteDir))

	return &http.Server{
		Addr:        addr,
		Handler:     RequestLogging(mux),
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": version.Version})
}

// writeJSON encodes v with the given status, logging encode failures.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"status": "error", "message": msg})
}
