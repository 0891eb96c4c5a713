// Package app wires configuration, storage and services for the binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"poppybuddy/internal/api"
	"poppybuddy/pkg/assets"
	"poppybuddy/pkg/audio"
	"poppybuddy/pkg/catalog"
	"poppybuddy/pkg/config"
	"poppybuddy/pkg/db"
	"poppybuddy/pkg/kiosk"
	"poppybuddy/pkg/logging"
	"poppybuddy/pkg/ogimage"
	"poppybuddy/pkg/request"
	"poppybuddy/pkg/site"
	"poppybuddy/pkg/store"
	"poppybuddy/pkg/version"
)

// Options selects which parts of the runtime Open sets up.
type Options struct {
	Logging  bool
	Database bool
}

// Runtime holds everything a command needs. Close releases it.
type Runtime struct {
	Config   *config.Config
	Catalog  *catalog.Catalog
	Linker   assets.Linker
	Provider config.Provider

	db        *db.DB
	store     *store.SQLiteStore
	closeLogs func()
	client    *request.Client
}

// Open loads .env, the config at path and the catalog, then the optional parts.
func Open(path string, opts Options) (*Runtime, error) {
	config.LoadEnv()

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	rt := &Runtime{Config: cfg}

	if opts.Logging {
		cleanup, err := logging.Init(&cfg.Log)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logging: %w", err)
		}
		rt.closeLogs = cleanup
		slog.Info("Poppy and Buddy", "version", version.Version, "config", path)
	}

	var st store.StateStore
	if opts.Database {
		d, err := db.Init(cfg.DB.Path)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		rt.db = d
		rt.store = store.NewSQLiteStore(d)
		st = rt.store
	}

	if rt.Catalog, err = rt.loadCatalog(); err != nil {
		rt.Close()
		return nil, err
	}
	rt.Linker = assets.NewLinker(cfg.Site.ContentHost, cfg.Site.BasePath)
	rt.Provider = config.NewProvider(cfg, st)
	return rt, nil
}

// loadCatalog resolves site.catalog_path. An http(s) URL is fetched through the
// client and cached in the store for assets.cache_ttl.
func (rt *Runtime) loadCatalog() (*catalog.Catalog, error) {
	src := rt.Config.Site.CatalogPath
	if src == "" {
		return catalog.Default(), nil
	}
	if !strings.HasPrefix(src, "http://") && !strings.HasPrefix(src, "https://") {
		return catalog.LoadFile(src)
	}

	u, err := url.Parse(src)
	if err != nil {
		return nil, fmt.Errorf("invalid catalog url: %w", err)
	}
	format, err := catalog.FormatFromPath(u.Path)
	if err != nil {
		return nil, err
	}
	if rt.db != nil {
		n, err := rt.db.PruneCache(rt.Config.Assets.CacheTTL.Std())
		if err != nil {
			slog.Warn("Failed to prune cache", "error", err)
		} else if n > 0 {
			slog.Debug("Pruned cache", "entries", n)
		}
	}
	body, err := rt.Client().Get(context.Background(), src, "catalog:"+src)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	return catalog.Parse(body, format)
}

// Close releases the database and log files.
func (rt *Runtime) Close() {
	if rt.store != nil {
		rt.store.Close()
	}
	if rt.closeLogs != nil {
		rt.closeLogs()
	}
}

// DB returns the database, nil unless opened with Database.
func (rt *Runtime) DB() *db.DB { return rt.db }

// Store returns the store, nil unless opened with Database.
func (rt *Runtime) Store() store.Store {
	if rt.store == nil {
		return nil
	}
	return rt.store
}

// Client returns the shared HTTP client, caching through the store when open.
func (rt *Runtime) Client() *request.Client {
	if rt.client != nil {
		return rt.client
	}
	var cacher request.Cacher
	if rt.store != nil {
		cacher = rt.store
	}
	rc := rt.Config.Request
	rt.client = request.New(cacher, request.Options{
		Timeout:        rc.Timeout.Std(),
		MaxRetries:     rc.Retries,
		BaseDelay:      rc.Backoff.BaseDelay.Std(),
		MaxDelay:       rc.Backoff.MaxDelay.Std(),
		WorkersPerHost: rt.Config.Assets.Concurrency,
	})
	return rt.client
}

// BuildOptions overrides config values for one build.
type BuildOptions struct {
	Clean      bool
	ShareCards bool
}

// Builder returns a site builder for the configured output directory.
func (rt *Runtime) Builder(bo BuildOptions) (*site.Builder, error) {
	sc := rt.Config.Site
	opts := site.Options{
		OutputDir:    sc.OutputDir,
		StaticDir:    sc.StaticDir,
		Origin:       sc.Origin,
		Title:        sc.Title,
		Description:  sc.Description,
		SkipStep:     rt.Config.Player.SkipStep.Std(),
		TickInterval: rt.Config.Player.TickInterval.Std(),
		ShareCards:   sc.ShareCards || bo.ShareCards,
		Clean:        bo.Clean,
	}

	var cards site.CardRenderer
	if opts.ShareCards {
		r, err := ogimage.NewRenderer(sc.FontPath)
		if err != nil {
			return nil, err
		}
		cards = r
	}

	var manifest store.ManifestStore
	if rt.store != nil {
		manifest = rt.store
	}
	return site.NewBuilder(rt.Catalog, rt.Linker, opts, manifest, cards)
}

// Kiosk returns a kiosk service playing through the local audio device.
func (rt *Runtime) Kiosk() *kiosk.Service {
	return kiosk.NewService(rt.Catalog, rt.Linker, rt.Client(), rt.Provider, rt.Config.Player.CacheDir, func() kiosk.Player {
		return audio.New()
	})
}

// Server returns the preview server. svc may be nil to disable the player API.
func (rt *Runtime) Server(addr string, svc *kiosk.Service, shutdown func()) (*http.Server, error) {
	builder, err := rt.Builder(BuildOptions{})
	if err != nil {
		return nil, err
	}
	var playerH *api.PlayerHandler
	if svc != nil {
		playerH = api.NewPlayerHandler(svc)
	}
	catH := api.NewCatalogHandler(rt.Catalog, rt.Linker, builder)
	return api.NewServer(addr, catH, playerH, rt.Config.Site.OutputDir, shutdown), nil
}

// Serve runs srv on ln until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, ln net.Listener) error {
	slog.Info("Starting server", "addr", ln.Addr().String())
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()
	select {
	case <-ctx.Done():
		slog.Info("Shutting down server...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
