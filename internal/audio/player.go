// Package audio plays feedback cues and the song track through the system
// speaker.
package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/wav"
)

const sampleRate = beep.SampleRate(44100)

// ErrUnsupportedFormat is returned for song files that are not mp3 or wav.
var ErrUnsupportedFormat = errors.New("audio: unsupported song format")

// Config holds audio settings.
type Config struct {
	Enabled bool
	Volume  float64 // Master volume in [0, 1]
}

// Player mixes cues and the song track. A Player that failed to start, or
// was created disabled, accepts every call and plays nothing.
type Player struct {
	mu          sync.Mutex
	log         logr.Logger
	cfg         Config
	mixer       *beep.Mixer
	volume      *effects.Volume
	song        *beep.Ctrl
	songCloser  beep.StreamSeekCloser
	initialized bool
}

// NewPlayer creates a player. Call Init before playing.
func NewPlayer(cfg Config, log logr.Logger) *Player {
	cfg.Volume = min(max(cfg.Volume, 0), 1)
	p := &Player{
		log:   log.WithName("audio"),
		cfg:   cfg,
		mixer: &beep.Mixer{},
	}
	p.volume = &effects.Volume{
		Streamer: p.mixer,
		Base:     2,
		Volume:   volumeExponent(cfg.Volume),
		Silent:   cfg.Volume == 0,
	}
	return p
}

// volumeExponent converts a linear level to effects.Volume's base-2 exponent.
func volumeExponent(level float64) float64 {
	if level <= 0 {
		return 0
	}
	// -6 is roughly 1/64 of full scale
	return -6 * (1 - level)
}

// Init opens the speaker. Failure is returned so the caller can log it; the
// game keeps running silently.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized || !p.cfg.Enabled {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(50*time.Millisecond)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}
	speaker.Play(p.volume)
	p.initialized = true
	p.log.V(1).Info("speaker ready", "sampleRate", int(sampleRate))
	return nil
}

// Active reports whether sound is being produced.
func (p *Player) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initialized
}

// Play mixes in a feedback cue.
func (p *Player) Play(c Cue) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	s := NewCueStreamer(c, sampleRate)
	if s == nil {
		return
	}
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
}

// PlaySong starts the song file, replacing any song already playing.
func (p *Player) PlaySong(path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return nil
	}

	stream, format, err := Decode(path)
	if err != nil {
		return err
	}

	var s beep.Streamer = stream
	if format.SampleRate != sampleRate {
		s = beep.Resample(4, format.SampleRate, sampleRate, stream)
	}

	speaker.Lock()
	p.stopSongLocked()
	p.song = &beep.Ctrl{Streamer: s}
	p.songCloser = stream
	p.mixer.Add(p.song)
	speaker.Unlock()

	p.log.V(1).Info("song started", "path", path, "sampleRate", int(format.SampleRate))
	return nil
}

// StopSong silences the song track.
func (p *Player) StopSong() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	speaker.Lock()
	p.stopSongLocked()
	speaker.Unlock()
}

// stopSongLocked requires both p.mu and the speaker lock.
func (p *Player) stopSongLocked() {
	if p.song != nil {
		p.song.Paused = true
		p.song.Streamer = nil
		p.song = nil
	}
	if p.songCloser != nil {
		if err := p.songCloser.Close(); err != nil {
			p.log.Error(err, "close song stream")
		}
		p.songCloser = nil
	}
}

// Close stops all sounds and releases the speaker.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	speaker.Lock()
	p.stopSongLocked()
	p.mixer.Clear()
	speaker.Unlock()
	speaker.Close()
	p.initialized = false
}

// Decode opens an mp3 or wav file. The caller closes the stream.
func Decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".mp3" && ext != ".wav" {
		return nil, beep.Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("open song: %w", err)
	}

	var (
		stream beep.StreamSeekCloser
		format beep.Format
	)
	if ext == ".mp3" {
		stream, format, err = mp3.Decode(f)
	} else {
		stream, format, err = wav.Decode(f)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return stream, format, nil
}
