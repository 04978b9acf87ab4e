// Package judge provides stroke verdicts and a timing-based evaluator.
//
// The geometric stroke evaluator lives outside this module; it only has to
// report a Verdict. Evaluator is the stand-in used by input devices that can
// only time a press, such as a keyboard.
package judge

import "math"

// Quality grades a successful stroke.
type Quality int

const (
	QualityNone Quality = iota // Missed or not judged
	QualityGood
	QualityGreat
	QualityPerfect
)

// String returns a human-readable quality name.
func (q Quality) String() string {
	switch q {
	case QualityNone:
		return "none"
	case QualityGood:
		return "good"
	case QualityGreat:
		return "great"
	case QualityPerfect:
		return "perfect"
	default:
		return "unknown"
	}
}

// Verdict is the outcome of one stroke attempt.
type Verdict struct {
	Hit     bool
	Quality Quality
	Offset  float64 // Seconds late (positive) or early (negative) relative to the beat
}

// Miss is the verdict for a failed stroke.
var Miss = Verdict{Hit: false, Quality: QualityNone}

// Window is the largest absolute offset, in seconds, earning a quality.
type Window struct {
	Quality Quality
	Max     float64
}

// DefaultWindows are checked in order; the last window equals the session grace period.
var DefaultWindows = []Window{
	{Quality: QualityPerfect, Max: 0.050},
	{Quality: QualityGreat, Max: 0.120},
	{Quality: QualityGood, Max: 0.300},
}

// Evaluator grades press timing against beat times.
type Evaluator struct {
	windows []Window
}

// NewEvaluator creates an evaluator. Nil windows use DefaultWindows.
func NewEvaluator(windows []Window) *Evaluator {
	if len(windows) == 0 {
		windows = DefaultWindows
	}
	return &Evaluator{windows: windows}
}

// Evaluate grades a press at pressTime for a beat at beatTime.
// Presses earlier than the widest window are not attempts and return ok=false.
// Late presses outside every window are misses.
func (e *Evaluator) Evaluate(beatTime, pressTime float64) (Verdict, bool) {
	offset := pressTime - beatTime
	if offset < -e.Reach() {
		return Verdict{}, false
	}

	abs := math.Abs(offset)
	for _, w := range e.windows {
		if abs <= w.Max {
			return Verdict{Hit: true, Quality: w.Quality, Offset: offset}, true
		}
	}
	return Verdict{Hit: false, Quality: QualityNone, Offset: offset}, true
}

// Reach is the widest window.
func (e *Evaluator) Reach() float64 {
	reach := 0.0
	for _, w := range e.windows {
		reach = math.Max(reach, w.Max)
	}
	return reach
}
