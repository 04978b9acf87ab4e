package audio

import (
	"math"
	"time"

	"github.com/gopxl/beep"
)

// WaveType defines oscillator wave shapes.
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveTriangle
)

// tone is a fixed-length oscillator with a short attack and exponential decay.
type tone struct {
	freq     float64
	phase    float64
	gain     float64
	duration int
	attack   int
	position int
	wave     WaveType
	rate     beep.SampleRate
}

// NewTone creates a percussive tone. Output stays within [-gain, gain].
func NewTone(freq float64, duration time.Duration, wave WaveType, gain float64, rate beep.SampleRate) beep.Streamer {
	samples := rate.N(duration)
	return &tone{
		freq:     freq,
		gain:     gain,
		duration: samples,
		attack:   max(1, rate.N(3*time.Millisecond)),
		wave:     wave,
		rate:     rate,
	}
}

func (o *tone) Stream(samples [][2]float64) (n int, ok bool) {
	if o.position >= o.duration {
		return 0, false
	}
	for i := range samples {
		if o.position >= o.duration {
			return i, true
		}

		var val float64
		switch o.wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveSquare:
			if o.phase < 0.5 {
				val = 1.0
			} else {
				val = -1.0
			}
		case WaveTriangle:
			val = 1 - 4*math.Abs(o.phase-0.5)
		}

		val *= o.gain * o.envelope()
		samples[i][0] = val
		samples[i][1] = val

		o.phase += o.freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *tone) envelope() float64 {
	if o.position < o.attack {
		return float64(o.position) / float64(o.attack)
	}
	progress := float64(o.position-o.attack) / float64(max(1, o.duration-o.attack))
	return math.Exp(-5 * progress)
}

func (o *tone) Err() error { return nil }
