package config

import (
	"context"
	"strconv"
	"time"

	"poppybuddy/pkg/store"
)

// State keys persisted by the player.
const (
	KeyVolume    = "player.volume"
	KeySkipStep  = "player.skip_step"
	KeyLastRoute = "player.last_route"
)

// Provider defines the interface for accessing unified configuration.
type Provider interface {
	// Player
	Volume(ctx context.Context) float64
	SkipStep(ctx context.Context) time.Duration
	TickInterval(ctx context.Context) time.Duration
	LastRoute(ctx context.Context) string

	SetVolume(ctx context.Context, vol float64) error
	SetSkipStep(ctx context.Context, d time.Duration) error
	SetLastRoute(ctx context.Context, route string) error
	ClearLastRoute(ctx context.Context) error
}

// UnifiedProvider implements Provider by bridging static Config and persistent Store.
type UnifiedProvider struct {
	base  *Config
	store store.StateStore
}

// NewProvider creates a new UnifiedProvider. st may be nil.
func NewProvider(base *Config, st store.StateStore) *UnifiedProvider {
	return &UnifiedProvider{
		base:  base,
		store: st,
	}
}

func (p *UnifiedProvider) Volume(ctx context.Context) float64 {
	v := p.getFloat64(ctx, KeyVolume, p.base.Player.Volume)
	if v < 0 || v > 1 {
		return p.base.Player.Volume
	}
	return v
}

func (p *UnifiedProvider) SkipStep(ctx context.Context) time.Duration {
	d := p.getDuration(ctx, KeySkipStep, time.Duration(p.base.Player.SkipStep))
	if d <= 0 {
		return time.Duration(p.base.Player.SkipStep)
	}
	return d
}

// TickInterval is static; changing it needs a restart.
func (p *UnifiedProvider) TickInterval(ctx context.Context) time.Duration {
	return time.Duration(p.base.Player.TickInterval)
}

func (p *UnifiedProvider) LastRoute(ctx context.Context) string {
	return p.getString(ctx, KeyLastRoute, "")
}

func (p *UnifiedProvider) SetVolume(ctx context.Context, vol float64) error {
	return p.set(ctx, KeyVolume, strconv.FormatFloat(vol, 'f', -1, 64))
}

func (p *UnifiedProvider) SetSkipStep(ctx context.Context, d time.Duration) error {
	return p.set(ctx, KeySkipStep, d.String())
}

func (p *UnifiedProvider) SetLastRoute(ctx context.Context, route string) error {
	return p.set(ctx, KeyLastRoute, route)
}

// ClearLastRoute forgets the last route, e.g. once it has been played to the end.
func (p *UnifiedProvider) ClearLastRoute(ctx context.Context) error {
	if p.store == nil {
		return nil
	}
	return p.store.DeleteState(ctx, KeyLastRoute)
}

// --- Helpers ---

func (p *UnifiedProvider) set(ctx context.Context, key, val string) error {
	if p.store == nil {
		return nil
	}
	return p.store.SetState(ctx, key, val)
}

func (p *UnifiedProvider) getString(ctx context.Context, key, fallback string) string {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			return val
		}
	}
	return fallback
}

func (p *UnifiedProvider) getFloat64(ctx context.Context, key string, fallback float64) float64 {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			if f, err := strconv.ParseFloat(val, 64); err == nil {
				return f
			}
		}
	}
	return fallback
}

func (p *UnifiedProvider) getDuration(ctx context.Context, key string, fallback time.Duration) time.Duration {
	if p.store != nil {
		if val, ok := p.store.GetState(ctx, key); ok && val != "" {
			if dur, err := ParseDuration(val); err == nil {
				return dur
			}
		}
	}
	return fallback
}
