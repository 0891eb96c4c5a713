// Package playback implements the transport logic of the story player: play/pause,
// relative skips, and slider scrubbing over an abstract media element.
package playback

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultTickInterval is how often the position is sampled while playing.
const DefaultTickInterval = 100 * time.Millisecond

// DefaultSkip is the step of the skip buttons.
const DefaultSkip = 10 * time.Second

// ErrClosed is returned by operations on a closed Controller.
var ErrClosed = errors.New("playback controller closed")

// Media is the element that actually owns the audio clock.
type Media interface {
	Play() error
	Pause() error
	Seek(pos time.Duration) error
	Position() time.Duration
	Duration() time.Duration
}

// State is a snapshot of the controller.
type State struct {
	Playing   bool
	Position  time.Duration
	Duration  time.Duration
	Scrubbing bool
}

// Controller mirrors a Media element's clock into State. While scrubbing, the live
// media position is never read; the scrub position wins until release.
type Controller struct {
	mu       sync.Mutex
	media    Media
	interval time.Duration
	state    State
	closed   bool

	stop chan struct{} // non-nil while the ticker goroutine runs

	subs    map[int]func(State)
	nextSub int

	// notify is taken before mu is released in publishLocked, so snapshots reach
	// subscribers in the order they were taken.
	notify sync.Mutex
}

// New creates a stopped Controller at position zero.
func New(media Media, interval time.Duration) *Controller {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	c := &Controller{
		media:    media,
		interval: interval,
		subs:     make(map[int]func(State)),
	}
	c.state.Duration = media.Duration()
	return c
}

// State returns the current snapshot.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to receive every state change. The returned func unsubscribes.
// Snapshots are delivered one at a time in the order they were taken. fn must not call
// back into the controller.
func (c *Controller) Subscribe(fn func(State)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Toggle starts playback when stopped and stops it when playing.
func (c *Controller) Toggle() error {
	c.mu.Lock()
	playing := c.state.Playing
	c.mu.Unlock()
	if playing {
		return c.Pause()
	}
	return c.Play()
}

// Play seeks the media to the current position and starts it. A position at the end
// of the track restarts from the beginning.
func (c *Controller) Play() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.state.Playing {
		c.mu.Unlock()
		return nil
	}

	c.refreshDurationLocked()
	start := c.state.Position
	if c.state.Duration > 0 && start >= c.state.Duration {
		start = 0
	}
	if err := c.media.Seek(start); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("failed to seek before play: %w", err)
	}
	if err := c.media.Play(); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("failed to start media: %w", err)
	}
	c.state.Position = start
	c.state.Playing = true
	c.startTimerLocked()
	slog.Debug("Playback started", "position", start)
	c.publishLocked()
	return nil
}

// Pause stops the media and the position timer.
func (c *Controller) Pause() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if !c.state.Playing {
		c.mu.Unlock()
		return nil
	}

	c.stopTimerLocked()
	c.state.Playing = false
	err := c.media.Pause()
	if !c.state.Scrubbing {
		c.state.Position = clamp(c.media.Position(), c.state.Duration)
	}
	slog.Debug("Playback paused", "position", c.state.Position)
	c.publishLocked()
	if err != nil {
		return fmt.Errorf("failed to pause media: %w", err)
	}
	return nil
}

// Skip moves the media position by delta, clamped to [0, duration]. It does not change
// whether the controller is playing.
func (c *Controller) Skip(delta time.Duration) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}

	c.refreshDurationLocked()
	base := c.state.Position
	if c.state.Playing {
		base = c.media.Position()
	}
	target := clamp(base+delta, c.state.Duration)
	if err := c.media.Seek(target); err != nil {
		c.mu.Unlock()
		return fmt.Errorf("failed to skip: %w", err)
	}
	if !c.state.Scrubbing {
		c.state.Position = target
	}
	slog.Debug("Playback skipped", "delta", delta, "position", target)
	c.publishLocked()
	return nil
}

// BeginScrub enters scrubbing at pos. Position updates from the media are suspended.
func (c *Controller) BeginScrub(pos time.Duration) error {
	return c.ScrubTo(pos)
}

// ScrubTo moves the slider without touching the media, entering scrubbing if needed.
func (c *Controller) ScrubTo(pos time.Duration) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.refreshDurationLocked()
	c.state.Scrubbing = true
	c.state.Position = clamp(pos, c.state.Duration)
	c.publishLocked()
	return nil
}

// EndScrub forces the media to pos and leaves scrubbing.
func (c *Controller) EndScrub(pos time.Duration) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.refreshDurationLocked()
	target := clamp(pos, c.state.Duration)
	c.state.Scrubbing = false
	c.state.Position = target
	err := c.media.Seek(target)
	c.publishLocked()
	if err != nil {
		return fmt.Errorf("failed to seek after scrub: %w", err)
	}
	return nil
}

// Tick samples the media clock once. It does nothing unless playing and not scrubbing.
func (c *Controller) Tick() {
	c.mu.Lock()
	c.tickLocked()
}

// Close stops the timer. After Close no further state changes are published.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.stopTimerLocked()
	if c.state.Playing {
		if err := c.media.Pause(); err != nil {
			slog.Warn("Failed to pause media on close", "error", err)
		}
		c.state.Playing = false
	}
	c.closed = true
	c.subs = make(map[int]func(State))
}

// tickLocked must be called with c.mu held; it releases it.
func (c *Controller) tickLocked() {
	if c.closed || !c.state.Playing || c.state.Scrubbing {
		c.mu.Unlock()
		return
	}
	c.refreshDurationLocked()
	pos := c.media.Position()
	if c.state.Duration > 0 && pos >= c.state.Duration {
		// Reached the end: the media element stops on its own, mirror that.
		c.stopTimerLocked()
		c.state.Playing = false
		c.state.Position = c.state.Duration
		if err := c.media.Pause(); err != nil {
			slog.Warn("Failed to pause media at end", "error", err)
		}
		slog.Debug("Playback finished")
		c.publishLocked()
		return
	}
	if pos == c.state.Position {
		c.mu.Unlock()
		return
	}
	c.state.Position = clamp(pos, c.state.Duration)
	c.publishLocked()
}

func (c *Controller) startTimerLocked() {
	if c.stop != nil {
		return
	}
	stop := make(chan struct{})
	c.stop = stop
	go c.run(stop, c.interval)
}

func (c *Controller) stopTimerLocked() {
	if c.stop == nil {
		return
	}
	close(c.stop)
	c.stop = nil
}

func (c *Controller) run(stop chan struct{}, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			c.mu.Lock()
			// A tick that lost the race against stopTimerLocked must not publish.
			if c.stop != stop {
				c.mu.Unlock()
				return
			}
			c.tickLocked()
		}
	}
}

func (c *Controller) refreshDurationLocked() {
	if d := c.media.Duration(); d > 0 {
		c.state.Duration = d
	}
}

// publishLocked must be called with c.mu held; it releases it before notifying.
func (c *Controller) publishLocked() {
	snap := c.state
	fns := make([]func(State), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.notify.Lock()
	c.mu.Unlock()
	defer c.notify.Unlock()
	for _, fn := range fns {
		fn(snap)
	}
}

func clamp(pos, dur time.Duration) time.Duration {
	if pos < 0 {
		return 0
	}
	if dur > 0 && pos > dur {
		return dur
	}
	return pos
}
