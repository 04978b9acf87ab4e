package audio

import (
	"time"

	"github.com/gopxl/beep"

	"github.com/samdwyer/beatkanji/internal/judge"
)

// Cue is a short feedback sound.
type Cue int

const (
	CueTick Cue = iota // Beat marker while waiting
	CueGood
	CueGreat
	CuePerfect
	CueMiss
	CueBonus    // Life restored
	CueComplete // Symbol finished
	cueCount
)

// String returns the cue name.
func (c Cue) String() string {
	switch c {
	case CueTick:
		return "tick"
	case CueGood:
		return "good"
	case CueGreat:
		return "great"
	case CuePerfect:
		return "perfect"
	case CueMiss:
		return "miss"
	case CueBonus:
		return "bonus"
	case CueComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// HitCue maps a judged quality to its cue.
func HitCue(q judge.Quality) Cue {
	switch q {
	case judge.QualityPerfect:
		return CuePerfect
	case judge.QualityGreat:
		return CueGreat
	case judge.QualityGood:
		return CueGood
	default:
		return CueMiss
	}
}

// cueSpec describes how a cue is synthesized.
type cueSpec struct {
	freq     float64
	duration time.Duration
	wave     WaveType
	gain     float64
}

var cueSpecs = [cueCount]cueSpec{
	CueTick:     {1200, 25 * time.Millisecond, WaveSine, 0.15},
	CueGood:     {660, 60 * time.Millisecond, WaveTriangle, 0.3},
	CueGreat:    {880, 60 * time.Millisecond, WaveTriangle, 0.3},
	CuePerfect:  {1320, 70 * time.Millisecond, WaveSine, 0.35},
	CueMiss:     {110, 150 * time.Millisecond, WaveSquare, 0.2},
	CueBonus:    {1760, 200 * time.Millisecond, WaveSine, 0.3},
	CueComplete: {990, 120 * time.Millisecond, WaveTriangle, 0.3},
}

// NewCueStreamer synthesizes a cue. Unknown cues yield nil.
func NewCueStreamer(c Cue, rate beep.SampleRate) beep.Streamer {
	if c < 0 || c >= cueCount {
		return nil
	}
	cs := cueSpecs[c]
	if c == CueComplete {
		// two rising notes
		return beep.Seq(
			NewTone(cs.freq, cs.duration/2, cs.wave, cs.gain, rate),
			NewTone(cs.freq*4/3, cs.duration/2, cs.wave, cs.gain, rate),
		)
	}
	return NewTone(cs.freq, cs.duration, cs.wave, cs.gain, rate)
}
