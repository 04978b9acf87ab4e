package clock

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

const eps = 1e-9

func TestFirstAdvanceReturnsZero(t *testing.T) {
	c := New(120)

	delta, err := c.Advance(1000.0)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if delta != 0 {
		t.Errorf("first Advance() = %v, want 0", delta)
	}
	if c.GlobalTime() != 0 {
		t.Errorf("GlobalTime() = %v, want 0", c.GlobalTime())
	}

	delta, _ = c.Advance(1000.016)
	if math.Abs(delta-0.016) > eps {
		t.Errorf("second Advance() = %v, want 0.016", delta)
	}
}

func TestAdvanceClampsLargeGaps(t *testing.T) {
	c := New(120)
	c.Advance(0)

	delta, _ := c.Advance(5.0)
	if delta != MaxDelta {
		t.Errorf("Advance() after 5s stall = %v, want %v", delta, MaxDelta)
	}
	if math.Abs(c.GlobalTime()-MaxDelta) > eps {
		t.Errorf("GlobalTime() = %v, want %v", c.GlobalTime(), MaxDelta)
	}
}

func TestAdvanceClampingProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	c := New(90)

	ts := 0.0
	c.Advance(ts)
	for i := 0; i < 500; i++ {
		ts += rng.Float64() * 0.5
		before := c.GlobalTime()
		delta, err := c.Advance(ts)
		if err != nil {
			t.Fatalf("Advance(%v) error = %v", ts, err)
		}
		if delta < 0 || delta > MaxDelta {
			t.Fatalf("Advance(%v) = %v, want within [0, %v]", ts, delta, MaxDelta)
		}
		if got := c.GlobalTime() - before; got > MaxDelta+eps || got < 0 {
			t.Fatalf("GlobalTime grew by %v, want within [0, %v]", got, MaxDelta)
		}
	}
}

func TestPrepareForTransition(t *testing.T) {
	c := New(120)
	c.Advance(10)
	c.Advance(10.05)
	before := c.GlobalTime()

	c.PrepareForTransition()
	delta, err := c.Advance(42)
	if err != nil {
		t.Fatalf("Advance() error = %v", err)
	}
	if delta != 0 {
		t.Errorf("Advance() after transition = %v, want 0", delta)
	}
	if c.GlobalTime() != before {
		t.Errorf("GlobalTime() = %v, want %v (kept across transition)", c.GlobalTime(), before)
	}

	delta, _ = c.Advance(42.02)
	if math.Abs(delta-0.02) > eps {
		t.Errorf("Advance() = %v, want 0.02", delta)
	}
}

func TestAdvanceAnomalies(t *testing.T) {
	tests := []struct {
		name string
		ts   float64
	}{
		{"backwards", 4.0},
		{"nan", math.NaN()},
		{"inf", math.Inf(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(120)
			c.Advance(5.0)
			c.Advance(5.05)
			before := c.GlobalTime()

			delta, err := c.Advance(tt.ts)
			var anomaly *ClockAnomaly
			if !errors.As(err, &anomaly) {
				t.Fatalf("Advance(%v) error = %v, want *ClockAnomaly", tt.ts, err)
			}
			if delta != 0 {
				t.Errorf("Advance(%v) = %v, want 0", tt.ts, delta)
			}
			if c.GlobalTime() != before {
				t.Errorf("GlobalTime() = %v, want %v", c.GlobalTime(), before)
			}

			// recovery: next valid timestamp integrates normally or is a fresh reference
			delta, err = c.Advance(6.0)
			if err != nil {
				t.Errorf("Advance() after anomaly error = %v", err)
			}
			if delta < 0 || delta > MaxDelta {
				t.Errorf("Advance() after anomaly = %v", delta)
			}
		})
	}
}

func TestReset(t *testing.T) {
	c := New(140)
	c.Advance(1)
	c.Advance(1.05)
	c.Reset()

	if c.GlobalTime() != 0 {
		t.Errorf("GlobalTime() after Reset = %v, want 0", c.GlobalTime())
	}
	if c.BPM() != 140 {
		t.Errorf("BPM() after Reset = %v, want 140", c.BPM())
	}
	if delta, _ := c.Advance(100); delta != 0 {
		t.Errorf("first Advance() after Reset = %v, want 0", delta)
	}
}

func TestDerivedTimings(t *testing.T) {
	tests := []struct {
		bpm      float64
		interval float64
		flight   float64
	}{
		{120, 0.5, 2.0},
		{60, 1.0, 4.0},
		{100, 0.6, 2.4},
		{0, 0.6, 2.4}, // falls back to MenuBPM
	}

	for _, tt := range tests {
		c := New(tt.bpm)
		if got := c.SpawnInterval(); math.Abs(got-tt.interval) > eps {
			t.Errorf("New(%v).SpawnInterval() = %v, want %v", tt.bpm, got, tt.interval)
		}
		if got := c.FlightDuration(); math.Abs(got-tt.flight) > eps {
			t.Errorf("New(%v).FlightDuration() = %v, want %v", tt.bpm, got, tt.flight)
		}
	}
}

func TestSetBPMKeepsGlobalTime(t *testing.T) {
	c := New(MenuBPM)
	c.Advance(0)
	c.Advance(0.08)

	c.SetBPM(128)
	if c.BPM() != 128 {
		t.Errorf("BPM() = %v, want 128", c.BPM())
	}
	if math.Abs(c.GlobalTime()-0.08) > eps {
		t.Errorf("GlobalTime() = %v, want 0.08", c.GlobalTime())
	}
}

func TestNextAlignedSpawnTime(t *testing.T) {
	c := New(120)

	tests := []struct {
		after float64
		want  float64
	}{
		{0, 0},
		{0.1, 0.5},
		{0.5, 0.5},
		{0.51, 1.0},
		{3.0, 3.0},
		{3.25, 3.5},
	}

	for _, tt := range tests {
		if got := c.NextAlignedSpawnTime(tt.after); math.Abs(got-tt.want) > eps {
			t.Errorf("NextAlignedSpawnTime(%v) = %v, want %v", tt.after, got, tt.want)
		}
	}
}

func TestNextAlignedSpawnTimeOnGrid(t *testing.T) {
	for _, bpm := range []float64{60, 100, 120, 133, 175, 600} {
		c := New(bpm)
		interval := c.SpawnInterval()
		for k := 0; k < 200; k++ {
			at := float64(k) * interval
			if got := c.NextAlignedSpawnTime(at); got != at {
				t.Fatalf("bpm %v: NextAlignedSpawnTime(%d*interval) = %v, want %v", bpm, k, got, at)
			}
		}
	}
}

func TestNextAlignedSpawnTimeMonotonic(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	c := New(133)

	for i := 0; i < 1000; i++ {
		after := rng.Float64() * 300
		got := c.NextAlignedSpawnTime(after)
		if got < after {
			t.Fatalf("NextAlignedSpawnTime(%v) = %v, want >= after", after, got)
		}
		if got-after > c.SpawnInterval()+eps {
			t.Fatalf("NextAlignedSpawnTime(%v) = %v, more than one interval away", after, got)
		}
	}
}
