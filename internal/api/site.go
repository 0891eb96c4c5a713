package api

import (
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// SiteHandler serves the build output the way the static host does: directories
// serve their index.html and anything missing gets 404.html with status 404.
type SiteHandler struct {
	dir   string
	files http.Handler
	fsys  fs.FS
}

// NewSiteHandler serves dir.
func NewSiteHandler(dir string) *SiteHandler {
	return &SiteHandler{
		dir:   dir,
		fsys:  os.DirFS(dir),
		files: http.FileServer(http.Dir(dir)),
	}
}

func (h *SiteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimPrefix(path.Clean("/"+r.URL.Path), "/")
	if name == "" {
		name = "."
	}

	info, err := fs.Stat(h.fsys, name)
	switch {
	case err == nil && info.IsDir():
		if _, err := fs.Stat(h.fsys, path.Join(name, "index.html")); err != nil {
			h.notFound(w, r)
			return
		}
	case err != nil:
		h.notFound(w, r)
		return
	}
	h.files.ServeHTTP(w, r)
}

func (h *SiteHandler) notFound(w http.ResponseWriter, r *http.Request) {
	data, err := os.ReadFile(filepath.Join(h.dir, "404.html"))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Warn("Failed to read 404 page", "error", err)
		}
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := w.Write(data); err != nil {
		slog.Error("Failed to write 404 page", "error", err)
	}
}
