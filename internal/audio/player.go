package audio

import (
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/effects"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/speaker"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

type decodeFunc func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

// decoders by lower-case file extension.
var decoders = map[string]decodeFunc{
	".wav": func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) { return wav.Decode(rc) },
	".ogg": vorbis.Decode,
	".mp3": mp3.Decode,
}

// Player holds one decoded clip and plays it on demand. The speaker is
// opened at the rate of the first clip played; later clips are resampled.
type Player struct {
	mu     sync.Mutex
	logger *slog.Logger

	volume float64 // 0.0 to 1.0

	// Speaker rate, zero until the speaker is open
	rate beep.SampleRate

	path string
	clip *beep.Buffer
}

// NewPlayer creates a Player at full volume.
func NewPlayer(logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		logger: logger,
		volume: 1.0,
	}
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (p *Player) SetVolume(volume float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.volume = math.Max(0, math.Min(1, volume))
}

// Volume returns the current volume.
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Load decodes path and makes it the current clip. An empty path drops
// the clip. On error the previous clip is kept.
func (p *Player) Load(path string) error {
	if path == "" {
		p.mu.Lock()
		p.path, p.clip = "", nil
		p.mu.Unlock()
		return nil
	}

	clip, err := decodeFile(path)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.path, p.clip = path, clip
	p.mu.Unlock()

	p.logger.Debug("sound loaded", "path", path, "sample_rate", clip.Format().SampleRate)
	return nil
}

// Play plays path, loading it first unless it is already the current clip.
func (p *Player) Play(path string) error {
	if path == "" {
		return nil
	}

	p.mu.Lock()
	loaded := p.path == path && p.clip != nil
	p.mu.Unlock()
	if !loaded {
		if err := p.Load(path); err != nil {
			return err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	clip := p.clip
	if p.rate == 0 {
		rate := clip.Format().SampleRate
		if err := speaker.Init(rate, rate.N(100*time.Millisecond)); err != nil {
			return fmt.Errorf("failed to initialize speaker: %w", err)
		}
		p.rate = rate
	}

	var s beep.Streamer = clip.Streamer(0, clip.Len())
	if clip.Format().SampleRate != p.rate {
		s = beep.Resample(4, clip.Format().SampleRate, p.rate, s)
	}
	if p.volume < 1.0 {
		s = &effects.Volume{
			Streamer: s,
			Base:     10,
			Volume:   volumeToDecibels(p.volume) / 20,
			Silent:   p.volume == 0,
		}
	}

	speaker.Play(s)
	return nil
}

// Close stops playback and releases the audio device.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.rate != 0 {
		speaker.Close()
		p.rate = 0
	}
	p.path, p.clip = "", nil
}

func decodeFile(path string) (*beep.Buffer, error) {
	ext := strings.ToLower(filepath.Ext(path))
	decode, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported audio format: %q", ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sound file: %w", err)
	}

	// The decoder owns f from here
	streamer, format, err := decode(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to decode sound: %w", err)
	}
	defer func() { _ = streamer.Close() }()

	clip := beep.NewBuffer(format)
	clip.Append(streamer)
	return clip, nil
}

// volumeToDecibels converts a linear volume (0-1) to decibels.
func volumeToDecibels(volume float64) float64 {
	if volume <= 0 {
		return -100
	}
	return 20 * math.Log10(volume)
}
