// Package kiosk runs story playback on the host: it fetches a route's audio from the
// content host, loads it into a local player and drives it with a playback.Controller.
package kiosk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"poppybuddy/pkg/assets"
	"poppybuddy/pkg/catalog"
	"poppybuddy/pkg/config"
	"poppybuddy/pkg/logging"
	"poppybuddy/pkg/playback"
	"poppybuddy/pkg/routes"
)

var (
	// ErrUnknownRoute is returned when a route does not resolve to a story and two languages.
	ErrUnknownRoute = errors.New("unknown route")
	// ErrNoSession is returned by operations that need an open session.
	ErrNoSession = errors.New("no active session")
)

// Downloader fetches a remote file to a local path.
type Downloader interface {
	Download(ctx context.Context, url, dest string) (int64, error)
}

// Player is a loadable playback.Media with volume control.
type Player interface {
	playback.Media
	Load(path string) error
	SetVolume(vol float64)
	Volume() float64
	Close() error
}

// Session is one opened story.
type Session struct {
	ID         string
	Route      routes.RouteParam
	Resolved   routes.Resolved
	AudioURL   string
	LocalPath  string
	OpenedAt   time.Time
	Controller *playback.Controller

	player      Player
	unsubscribe func()
}

// Event is published on every state change of the active session.
type Event struct {
	SessionID string
	Route     routes.RouteParam
	State     playback.State
	Closed    bool
}

// Service owns at most one Session at a time.
type Service struct {
	cat       *catalog.Catalog
	linker    assets.Linker
	dl        Downloader
	prov      config.Provider
	cacheDir  string
	newPlayer func() Player

	mu      sync.Mutex
	current *Session

	subMu   sync.RWMutex
	subs    map[int]func(Event)
	nextSub int
}

// NewService creates a Service. newPlayer is called once per opened session.
func NewService(cat *catalog.Catalog, linker assets.Linker, dl Downloader, prov config.Provider, cacheDir string, newPlayer func() Player) *Service {
	return &Service{
		cat:       cat,
		linker:    linker,
		dl:        dl,
		prov:      prov,
		cacheDir:  cacheDir,
		newPlayer: newPlayer,
		subs:      make(map[int]func(Event)),
	}
}

// Open resolves the route, fetches its audio (unless cached) and makes it the active
// session. A previously active session is closed first.
func (s *Service) Open(ctx context.Context, r routes.RouteParam) (*Session, error) {
	res, _ := routes.Resolve(s.cat, r.StoryName, r.Primary, r.Secondary)
	if !res.Complete() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoute, r.Path())
	}

	audioURL := s.linker.AudioURL(res.Story.Name, res.Primary.ShortName, res.Secondary.ShortName)
	local := filepath.Join(s.cacheDir, assets.AudioFile(res.Story.Name, res.Primary.ShortName, res.Secondary.ShortName))

	if err := s.ensureLocal(ctx, audioURL, local); err != nil {
		return nil, err
	}

	player := s.newPlayer()
	if err := player.Load(local); err != nil {
		return nil, fmt.Errorf("failed to load audio: %w", err)
	}
	player.SetVolume(s.prov.Volume(ctx))

	sess := &Session{
		ID:         uuid.NewString(),
		Route:      r,
		Resolved:   res,
		AudioURL:   audioURL,
		LocalPath:  local,
		OpenedAt:   time.Now(),
		Controller: playback.New(player, s.prov.TickInterval(ctx)),
		player:     player,
	}
	sess.unsubscribe = sess.Controller.Subscribe(s.forward(sess))

	s.mu.Lock()
	prev := s.current
	s.current = sess
	s.mu.Unlock()

	if prev != nil {
		s.closeSession(prev)
	}

	if err := s.prov.SetLastRoute(ctx, r.Path()); err != nil {
		slog.Warn("Failed to persist last route", "error", err)
	}
	logging.LogEvent(&logging.PlayerEvent{Type: "open", Route: r.Path(), Detail: audioURL})
	slog.Info("Session opened", "id", sess.ID, "route", r.Path(), "duration", sess.Controller.State().Duration)

	s.publish(Event{SessionID: sess.ID, Route: r, State: sess.Controller.State()})
	return sess, nil
}

func (s *Service) ensureLocal(ctx context.Context, url, local string) error {
	if info, err := os.Stat(local); err == nil && info.Size() > 0 {
		slog.Debug("Audio cache hit", "path", local)
		return nil
	}
	n, err := s.dl.Download(ctx, url, local)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", url, err)
	}
	slog.Info("Audio downloaded", "url", url, "bytes", n)
	return nil
}

// forward relays controller updates as Events and logs the end of a story.
func (s *Service) forward(sess *Session) func(playback.State) {
	var (
		mu         sync.Mutex
		wasPlaying bool
	)
	return func(st playback.State) {
		mu.Lock()
		ended := wasPlaying && !st.Playing && st.Duration > 0 && st.Position >= st.Duration
		wasPlaying = st.Playing
		mu.Unlock()
		logging.TraceDefault("Player tick", "session", sess.ID, "position", st.Position, "playing", st.Playing)
		if ended {
			logging.LogEvent(&logging.PlayerEvent{Type: "end", Route: sess.Route.Path()})
			// A finished story starts fresh next time instead of being resumed.
			if err := s.prov.ClearLastRoute(context.Background()); err != nil {
				slog.Warn("Failed to clear last route", "error", err)
			}
		}
		s.publish(Event{SessionID: sess.ID, Route: sess.Route, State: st})
	}
}

// Current returns the active session.
func (s *Service) Current() (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.current != nil
}

// Controller returns the active session's controller or ErrNoSession.
func (s *Service) Controller() (*playback.Controller, error) {
	sess, ok := s.Current()
	if !ok {
		return nil, ErrNoSession
	}
	return sess.Controller, nil
}

// Close ends the active session.
func (s *Service) Close() error {
	s.mu.Lock()
	sess := s.current
	s.current = nil
	s.mu.Unlock()

	if sess == nil {
		return ErrNoSession
	}
	s.closeSession(sess)
	return nil
}

func (s *Service) closeSession(sess *Session) {
	sess.unsubscribe()
	sess.Controller.Close()
	if err := sess.player.Close(); err != nil {
		slog.Warn("Failed to close player", "error", err)
	}
	logging.LogEvent(&logging.PlayerEvent{Type: "close", Route: sess.Route.Path()})
	slog.Info("Session closed", "id", sess.ID)
	s.publish(Event{SessionID: sess.ID, Route: sess.Route, State: sess.Controller.State(), Closed: true})
}

// Skip moves the active session by the configured step in the given direction
// (negative for back).
func (s *Service) Skip(ctx context.Context, direction int) error {
	c, err := s.Controller()
	if err != nil {
		return err
	}
	step := s.prov.SkipStep(ctx)
	if direction < 0 {
		step = -step
	}
	return c.Skip(step)
}

// SetVolume clamps vol to 0..1, applies it to the active player and persists it.
func (s *Service) SetVolume(ctx context.Context, vol float64) (float64, error) {
	if vol < 0 {
		vol = 0
	} else if vol > 1 {
		vol = 1
	}
	if sess, ok := s.Current(); ok {
		sess.player.SetVolume(vol)
	}
	if err := s.prov.SetVolume(ctx, vol); err != nil {
		return vol, fmt.Errorf("failed to persist volume: %w", err)
	}
	return vol, nil
}

// Skip step bounds accepted by SetSkipStep.
const (
	MinSkipStep = time.Second
	MaxSkipStep = time.Minute
)

// SetSkipStep clamps d to [MinSkipStep, MaxSkipStep] and persists it.
func (s *Service) SetSkipStep(ctx context.Context, d time.Duration) (time.Duration, error) {
	d = min(max(d, MinSkipStep), MaxSkipStep)
	if err := s.prov.SetSkipStep(ctx, d); err != nil {
		return d, fmt.Errorf("failed to persist skip step: %w", err)
	}
	return d, nil
}

// SkipStep returns the step used by Skip.
func (s *Service) SkipStep(ctx context.Context) time.Duration {
	return s.prov.SkipStep(ctx)
}

// LastRoute returns the route opened most recently that was not played to the end.
func (s *Service) LastRoute(ctx context.Context) (routes.RouteParam, bool) {
	p := s.prov.LastRoute(ctx)
	if p == "" {
		return routes.RouteParam{}, false
	}
	return routes.ParsePath(p)
}

// Volume returns the persisted volume.
func (s *Service) Volume(ctx context.Context) float64 {
	return s.prov.Volume(ctx)
}

// Subscribe registers fn for session events. The returned func unsubscribes.
func (s *Service) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Service) publish(e Event) {
	s.subMu.RLock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.RUnlock()
	for _, fn := range fns {
		fn(e)
	}
}
