package audio

import (
	"log/slog"
	"sync"

	"github.com/jmylchreest/hpswitch/internal/config"
	"github.com/jmylchreest/hpswitch/internal/model"
)

// Feedback plays the configured sound whenever a route switch succeeds.
// It implements indicator.Feedback.
type Feedback struct {
	mu     sync.RWMutex
	logger *slog.Logger
	sound  string
	play   func(path string) error
	player *Player
}

// NewFeedback creates a Feedback from the daemon configuration.
func NewFeedback(cfg *config.DaemonConfig, logger *slog.Logger) *Feedback {
	if logger == nil {
		logger = slog.Default()
	}
	player := NewPlayer(logger)
	f := &Feedback{
		logger: logger,
		player: player,
		play:   player.Play,
	}
	f.Configure(cfg)
	return f
}

// Configure applies the [feedback] section, e.g. after a config reload.
func (f *Feedback) Configure(cfg *config.DaemonConfig) {
	if cfg == nil {
		return
	}
	sound := cfg.FeedbackSoundPath()
	f.player.SetVolume(float64(cfg.Feedback.Volume) / 100.0)

	f.mu.Lock()
	previous := f.sound
	f.sound = sound
	f.mu.Unlock()

	if sound == previous {
		return
	}
	if err := f.player.Load(sound); err != nil {
		f.logger.Warn("failed to load feedback sound", "path", sound, "error", err)
	}
}

// Sound returns the configured sound path, empty when disabled.
func (f *Feedback) Sound() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.sound
}

// RouteSwitched implements indicator.Feedback. Playback failures are logged.
func (f *Feedback) RouteSwitched(route model.Route) {
	sound := f.Sound()
	if sound == "" {
		return
	}
	if err := f.play(sound); err != nil {
		f.logger.Warn("failed to play feedback sound", "route", route, "path", sound, "error", err)
	}
}

// Close releases the audio device.
func (f *Feedback) Close() {
	f.player.Close()
}
