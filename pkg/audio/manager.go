// Package audio plays story audio on the local output device. Manager implements
// playback.Media on top of gopxl/beep.
package audio

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/speaker"
)

// ErrNotLoaded is returned by transport calls before Load.
var ErrNotLoaded = errors.New("no audio loaded")

const targetSampleRate = beep.SampleRate(48000)

// Manager owns one loaded track at a time.
type Manager struct {
	mu                 sync.RWMutex
	ctrl               *beep.Ctrl
	streamer           *effects.Volume
	track              beep.StreamSeekCloser
	format             beep.Format
	path               string
	volume             float64
	speakerInitialized bool
}

// New creates a Manager at full volume.
func New() *Manager {
	return &Manager{volume: 1.0}
}

// Load decodes the file and queues it on the speaker in a paused state.
func (m *Manager) Load(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()

	track, format, err := DecodeMedia(path)
	if err != nil {
		return err
	}

	if err := m.ensureSpeakerInitialized(); err != nil {
		track.Close()
		return err
	}

	resampled := beep.Resample(3, format.SampleRate, targetSampleRate, track)
	m.streamer = &effects.Volume{
		Streamer: resampled,
		Base:     2,
		Volume:   volumeToPower(m.volume),
		Silent:   m.volume <= 0.01,
	}
	m.ctrl = &beep.Ctrl{Streamer: m.streamer, Paused: true}
	m.track = track
	m.format = format
	m.path = path
	speaker.Play(sustain{m.ctrl})

	slog.Debug("Audio loaded", "path", path, "duration", format.SampleRate.D(track.Len()))
	return nil
}

// sustain keeps a stream registered with the speaker after its source drains,
// padding with silence, so seeking back from the end is audible again.
type sustain struct {
	beep.Streamer
}

func (s sustain) Stream(samples [][2]float64) (int, bool) {
	n, _ := s.Streamer.Stream(samples)
	for i := n; i < len(samples); i++ {
		samples[i] = [2]float64{}
	}
	return len(samples), true
}

// Play resumes the loaded track.
func (m *Manager) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctrl == nil {
		return ErrNotLoaded
	}
	speaker.Lock()
	m.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

// Pause pauses the loaded track.
func (m *Manager) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ctrl == nil {
		return ErrNotLoaded
	}
	speaker.Lock()
	m.ctrl.Paused = true
	speaker.Unlock()
	return nil
}

// Seek moves the track to pos, clamped to the track bounds.
func (m *Manager) Seek(pos time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.track == nil {
		return ErrNotLoaded
	}

	n := m.format.SampleRate.N(pos)
	if n < 0 {
		n = 0
	}
	if l := m.track.Len(); n > l {
		n = l
	}

	speaker.Lock()
	err := m.track.Seek(n)
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("failed to seek audio: %w", err)
	}
	return nil
}

// Position returns the current playback position.
func (m *Manager) Position() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.track == nil || m.format.SampleRate == 0 {
		return 0
	}
	speaker.Lock()
	p := m.track.Position()
	speaker.Unlock()
	return m.format.SampleRate.D(p)
}

// Duration returns the length of the loaded track.
func (m *Manager) Duration() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.track == nil || m.format.SampleRate == 0 {
		return 0
	}
	return m.format.SampleRate.D(m.track.Len())
}

// Path returns the file currently loaded.
func (m *Manager) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path
}

// SetVolume sets playback volume (0.0 to 1.0).
func (m *Manager) SetVolume(vol float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if vol < 0 {
		vol = 0
	} else if vol > 1 {
		vol = 1
	}
	m.volume = vol

	if m.streamer != nil {
		speaker.Lock()
		m.streamer.Volume = volumeToPower(vol)
		m.streamer.Silent = vol <= 0.01
		speaker.Unlock()
	}
}

// Volume returns the current volume level.
func (m *Manager) Volume() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.volume
}

// Close stops playback and releases the track.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
	return nil
}

func (m *Manager) stopLocked() {
	if m.ctrl != nil {
		speaker.Clear()
		m.ctrl = nil
		m.streamer = nil
	}
	if m.track != nil {
		if err := m.track.Close(); err != nil {
			slog.Warn("Failed to close audio track", "path", m.path, "error", err)
		}
		m.track = nil
	}
	m.path = ""
}

func (m *Manager) ensureSpeakerInitialized() error {
	if m.speakerInitialized {
		return nil
	}
	if err := speaker.Init(targetSampleRate, targetSampleRate.N(time.Second/10)); err != nil {
		slog.Error("Failed to initialize speaker", "error", err)
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}
	m.speakerInitialized = true
	return nil
}
