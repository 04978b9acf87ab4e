// Package clock provides the beat clock shared by every scene of the game.
//
// A Clock integrates frame timestamps supplied by the host loop into a
// monotonically non-decreasing global time. Per-call deltas are clamped so a
// stall (scene swap, app backgrounding) never shows up as a jump in
// beat-synced motion; the clamped time is dropped, not caught up.
package clock

import (
	"fmt"
	"math"
)

const (
	// MaxDelta is the largest elapsed time, in seconds, integrated per Advance call.
	MaxDelta = 0.1

	// FlightBeats is how many beats a spawned object takes to reach its target.
	FlightBeats = 4

	// MenuBPM is the tempo used outside of songs.
	MenuBPM = 100.0

	gridEpsilon = 1e-9
)

// ClockAnomaly reports a timestamp that could not be integrated: it went
// backwards or was not a finite number. The clock recovers by treating the
// call as a transition boundary.
type ClockAnomaly struct {
	Timestamp float64
	Previous  float64
}

func (e *ClockAnomaly) Error() string {
	return fmt.Sprintf("clock anomaly: timestamp %v after %v", e.Timestamp, e.Previous)
}

// Clock is the beat time reference. It is not safe for concurrent use: only
// the host loop advances it, everything else reads.
type Clock struct {
	bpm        float64
	globalTime float64
	last       float64
	hasLast    bool
}

// New creates a clock at the given tempo. A non-positive bpm falls back to MenuBPM.
func New(bpm float64) *Clock {
	c := &Clock{}
	c.SetBPM(bpm)
	return c
}

// Advance records the current frame timestamp (seconds) and returns the delta
// integrated into the global time.
//
// The first call after New, Reset or PrepareForTransition only records the
// reference and returns 0. A non-finite or backwards timestamp is returned as
// a *ClockAnomaly together with a delta of 0; the timestamp becomes the new
// reference.
func (c *Clock) Advance(timestamp float64) (float64, error) {
	if math.IsNaN(timestamp) || math.IsInf(timestamp, 0) {
		anomaly := &ClockAnomaly{Timestamp: timestamp, Previous: c.last}
		c.PrepareForTransition()
		return 0, anomaly
	}

	if !c.hasLast {
		c.last = timestamp
		c.hasLast = true
		return 0, nil
	}

	if timestamp < c.last {
		anomaly := &ClockAnomaly{Timestamp: timestamp, Previous: c.last}
		c.last = timestamp
		return 0, anomaly
	}

	delta := timestamp - c.last
	c.last = timestamp
	if delta > MaxDelta {
		delta = MaxDelta
	}
	c.globalTime += delta
	return delta, nil
}

// PrepareForTransition forgets the reference timestamp so the next Advance
// integrates nothing. Global time is kept.
func (c *Clock) PrepareForTransition() {
	c.hasLast = false
	c.last = 0
}

// Reset zeroes all state for a new game. The tempo is kept.
func (c *Clock) Reset() {
	c.globalTime = 0
	c.PrepareForTransition()
}

// GlobalTime returns the accumulated time in seconds.
func (c *Clock) GlobalTime() float64 {
	return c.globalTime
}

// BPM returns the current tempo.
func (c *Clock) BPM() float64 {
	return c.bpm
}

// SetBPM swaps the tempo, e.g. when moving from a menu to a song.
// Global time is not affected.
func (c *Clock) SetBPM(bpm float64) {
	if bpm <= 0 || math.IsNaN(bpm) || math.IsInf(bpm, 0) {
		bpm = MenuBPM
	}
	c.bpm = bpm
}

// SpawnInterval is the length of one beat in seconds.
func (c *Clock) SpawnInterval() float64 {
	return 60 / c.bpm
}

// FlightDuration is the lead time before a beat at which its visual has to
// start moving.
func (c *Clock) FlightDuration() float64 {
	return c.SpawnInterval() * FlightBeats
}

// NextAlignedSpawnTime returns the first beat-grid time that is not earlier
// than after. Times already on the grid are returned unchanged.
func (c *Clock) NextAlignedSpawnTime(after float64) float64 {
	interval := c.SpawnInterval()
	q := after / interval
	n := math.Ceil(q)
	// k*interval/interval is not always exactly k
	if r := math.Round(q); math.Abs(q-r) < gridEpsilon {
		n = r
	}
	aligned := n * interval
	if aligned < after {
		aligned += interval
	}
	return aligned
}
