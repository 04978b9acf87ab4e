// Package session provides the gameplay state machine for one song.
//
// A Session walks the beat events of an assign.Plan stroke by stroke. The
// host drives it once per frame with Update, after advancing the beat clock,
// and reports stroke attempts with AdvanceStroke. Both return the outcomes
// they produced instead of calling back, so the machine itself has no side
// effects beyond its own state.
package session

import (
	"errors"
	"fmt"
	"sort"

	"github.com/samdwyer/beatkanji/internal/assign"
	"github.com/samdwyer/beatkanji/internal/judge"
	"github.com/samdwyer/beatkanji/internal/symbol"
)

var (
	// ErrEmptySequence is returned for a plan without stroke events.
	ErrEmptySequence = errors.New("session: empty event sequence")
	// ErrNonMonotonic is returned when event times go backwards.
	ErrNonMonotonic = errors.New("session: event times not in order")
	// ErrInconsistentPlan is returned when events and symbols disagree.
	ErrInconsistentPlan = errors.New("session: events do not match symbols")
)

// Timing is the part of the beat clock a session reads.
type Timing interface {
	FlightDuration() float64
}

// Config holds the rules of a session.
type Config struct {
	MaxLives    int
	GracePeriod float64 // Seconds a stroke may be late before it is missed
}

// DefaultConfig returns the standard rules.
func DefaultConfig() Config {
	return Config{
		MaxLives:    3,
		GracePeriod: 0.3,
	}
}

// Phase is the state of the machine between calls.
type Phase int

const (
	// PhaseAwaitingSymbol - no symbol is loaded; only gap beats remain
	PhaseAwaitingSymbol Phase = iota
	// PhaseAwaitingStroke - waiting for the current stroke of the current symbol
	PhaseAwaitingStroke
	// PhaseSongComplete - every event was consumed with lives left
	PhaseSongComplete
	// PhaseGameOver - lives ran out
	PhaseGameOver
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseAwaitingSymbol:
		return "awaiting_symbol"
	case PhaseAwaitingStroke:
		return "awaiting_stroke"
	case PhaseSongComplete:
		return "song_complete"
	case PhaseGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Terminal reports whether the session has ended.
func (p Phase) Terminal() bool {
	return p == PhaseSongComplete || p == PhaseGameOver
}

// Session is the mutable state of one song being played.
// It is owned by a single song context and is not safe for concurrent use.
type Session struct {
	cfg     Config
	timing  Timing
	symbols []symbol.Symbol
	events  []assign.StrokeBeatEvent
	// firstStroke[j] is the index in events of symbol j's first stroke
	firstStroke []int

	phase       Phase
	score       int
	lives       int
	combo       int
	maxCombo    int
	hits        int
	misses      int
	qualities   [judge.QualityPerfect + 1]int
	symbolPos   int
	strokeIdx   int
	symbolMiss  int
	currentTime float64
	cursor      int
	spawnTimes  []float64
}

// New validates the plan and starts a session on its first symbol.
// The plan must hold at least one stroke, in non-decreasing time order, with
// exactly StrokeCount stroke events per symbol.
func New(plan assign.Plan, timing Timing, cfg Config) (*Session, error) {
	def := DefaultConfig()
	if cfg.MaxLives <= 0 {
		cfg.MaxLives = def.MaxLives
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = def.GracePeriod
	}

	first, err := validate(plan)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:         cfg,
		timing:      timing,
		symbols:     plan.Symbols,
		events:      plan.Events,
		firstStroke: first,
		lives:       cfg.MaxLives,
		symbolPos:   -1,
	}
	s.nextSymbolInSequence()
	return s, nil
}

func validate(plan assign.Plan) ([]int, error) {
	if len(plan.Events) == 0 || len(plan.Symbols) == 0 {
		return nil, ErrEmptySequence
	}

	first := make([]int, len(plan.Symbols))
	seen := make([]int, len(plan.Symbols))
	for i := range first {
		first[i] = -1
	}

	for i, ev := range plan.Events {
		if i > 0 && ev.BeatTime < plan.Events[i-1].BeatTime {
			return nil, fmt.Errorf("%w: event %d at %v after %v", ErrNonMonotonic, i, ev.BeatTime, plan.Events[i-1].BeatTime)
		}
		if ev.IsGap {
			continue
		}
		j := ev.SymbolIndex
		if j < 0 || j >= len(plan.Symbols) {
			return nil, fmt.Errorf("%w: event %d references symbol %d", ErrInconsistentPlan, i, j)
		}
		if ev.StrokeIndex != seen[j] {
			return nil, fmt.Errorf("%w: event %d is stroke %d of symbol %d, want %d", ErrInconsistentPlan, i, ev.StrokeIndex, j, seen[j])
		}
		if j > 0 && seen[j-1] != plan.Symbols[j-1].StrokeCount {
			return nil, fmt.Errorf("%w: symbol %d starts before symbol %d is complete", ErrInconsistentPlan, j, j-1)
		}
		if first[j] < 0 {
			first[j] = i
		}
		seen[j]++
	}

	for j, s := range plan.Symbols {
		if seen[j] != s.StrokeCount {
			return nil, fmt.Errorf("%w: symbol %d (%s) has %d stroke events, want %d", ErrInconsistentPlan, j, s.ID, seen[j], s.StrokeCount)
		}
	}
	return first, nil
}

// Update advances session time by deltaTime and judges every stroke whose
// grace period has run out as a miss. Gap beats pass silently. Terminal
// sessions ignore the call.
func (s *Session) Update(deltaTime float64) []Outcome {
	if s.phase.Terminal() {
		return nil
	}
	s.currentTime += deltaTime

	out := s.expire(nil)
	if s.phase.Terminal() {
		return out
	}
	return s.checkComplete(out)
}

// AdvanceStroke records the evaluator's verdict for the current stroke.
// Strokes whose grace period already ran out are missed first, so only a
// live stroke can be judged. Gap beats ahead of it are skipped. The stroke
// is consumed either way: a failed attempt is a miss and is never retried.
func (s *Session) AdvanceStroke(hit bool, quality judge.Quality) []Outcome {
	if s.phase.Terminal() {
		return nil
	}
	out := s.expire(nil)
	if s.phase.Terminal() {
		return out
	}

	idx, ok := s.activeIndex()
	if !ok {
		return s.checkComplete(out)
	}
	s.cursor = idx

	out = s.consume(out, hit, quality)
	if s.phase.Terminal() {
		return out
	}
	return s.checkComplete(out)
}

// expire passes reached gap beats and misses every stroke more than the
// grace period behind the current time. It stops at game over.
func (s *Session) expire(out []Outcome) []Outcome {
	for s.cursor < len(s.events) {
		ev := s.events[s.cursor]
		if ev.IsGap {
			if s.currentTime < ev.BeatTime {
				break
			}
			s.cursor++
			continue
		}
		if s.currentTime-ev.BeatTime <= s.cfg.GracePeriod {
			break
		}
		out = s.consume(out, false, judge.QualityNone)
		if s.phase.Terminal() {
			break
		}
	}
	return out
}

// consume judges the event at the cursor.
func (s *Session) consume(out []Outcome, hit bool, quality judge.Quality) []Outcome {
	ev := s.events[s.cursor]
	s.cursor++
	id := s.symbols[ev.SymbolIndex].ID

	if hit {
		s.score++
		s.hits++
		s.combo++
		s.maxCombo = max(s.maxCombo, s.combo)
		if quality >= judge.QualityGood && quality <= judge.QualityPerfect {
			s.qualities[quality]++
		}
		out = append(out, Outcome{Kind: OutcomeStrokeHit, Event: ev, SymbolID: id, Quality: quality})

		if ev.IsBonus && quality == judge.QualityPerfect && s.lives < s.cfg.MaxLives {
			s.lives++
			out = append(out, Outcome{Kind: OutcomeLifeRestored, Event: ev, SymbolID: id, Lives: s.lives})
		}
	} else {
		s.misses++
		s.symbolMiss++
		s.combo = 0
		s.lives--
		out = append(out, Outcome{Kind: OutcomeStrokeMiss, Event: ev, SymbolID: id, Lives: s.lives})

		if s.lives <= 0 {
			s.lives = 0
			s.phase = PhaseGameOver
			return append(out, Outcome{Kind: OutcomeGameOver})
		}
	}

	s.strokeIdx++
	if s.strokeIdx >= s.symbols[s.symbolPos].StrokeCount {
		out = append(out, Outcome{Kind: OutcomeSymbolCompleted, SymbolID: id, Misses: s.symbolMiss})
		s.nextSymbolInSequence()
	}
	return out
}

func (s *Session) checkComplete(out []Outcome) []Outcome {
	if s.cursor < len(s.events) {
		return out
	}
	s.phase = PhaseSongComplete
	return append(out, Outcome{Kind: OutcomeSongCompleted})
}

// nextSymbolInSequence loads the following symbol and the spawn times of its
// strokes (beat time minus flight duration).
func (s *Session) nextSymbolInSequence() {
	s.symbolPos++
	s.strokeIdx = 0
	s.symbolMiss = 0
	s.spawnTimes = s.spawnTimes[:0]

	if s.symbolPos >= len(s.symbols) {
		s.phase = PhaseAwaitingSymbol
		return
	}

	flight := s.flightDuration()
	for i := s.firstStroke[s.symbolPos]; i < len(s.events); i++ {
		ev := s.events[i]
		if ev.IsGap {
			continue
		}
		if ev.SymbolIndex != s.symbolPos {
			break
		}
		s.spawnTimes = append(s.spawnTimes, ev.BeatTime-flight)
	}
	s.phase = PhaseAwaitingStroke
}

func (s *Session) flightDuration() float64 {
	if s.timing == nil {
		return 0
	}
	return s.timing.FlightDuration()
}

// activeIndex returns the index of the first unjudged stroke event.
func (s *Session) activeIndex() (int, bool) {
	for i := s.cursor; i < len(s.events); i++ {
		if !s.events[i].IsGap {
			return i, true
		}
	}
	return 0, false
}

// =============================================================================
// Queries
// =============================================================================

// UpcomingEvents returns up to count events at or after afterTime, in time order.
func (s *Session) UpcomingEvents(count int, afterTime float64) []assign.StrokeBeatEvent {
	if count <= 0 {
		return nil
	}
	start := sort.Search(len(s.events), func(i int) bool {
		return s.events[i].BeatTime >= afterTime
	})
	end := min(start+count, len(s.events))
	out := make([]assign.StrokeBeatEvent, end-start)
	copy(out, s.events[start:end])
	return out
}

// HasUpcomingNextSymbolStrokes reports whether a stroke of the symbol after
// the current one is due within withinTime of the current time, so its
// visuals can be spawned before the current symbol is finished.
func (s *Session) HasUpcomingNextSymbolStrokes(withinTime float64) bool {
	next := s.symbolPos + 1
	if next >= len(s.symbols) {
		return false
	}
	return s.events[s.firstStroke[next]].BeatTime <= s.currentTime+withinTime
}

// ActiveEvent returns the stroke event the next AdvanceStroke will judge.
func (s *Session) ActiveEvent() (assign.StrokeBeatEvent, bool) {
	if s.phase.Terminal() {
		return assign.StrokeBeatEvent{}, false
	}
	idx, ok := s.activeIndex()
	if !ok {
		return assign.StrokeBeatEvent{}, false
	}
	return s.events[idx], true
}

// BonusActive reports whether hitting ev perfectly would restore a life.
func (s *Session) BonusActive(ev assign.StrokeBeatEvent) bool {
	return ev.IsBonus && !ev.IsGap && s.lives < s.cfg.MaxLives
}

// CurrentSymbol returns the symbol being written.
func (s *Session) CurrentSymbol() (symbol.Symbol, bool) {
	if s.symbolPos < 0 || s.symbolPos >= len(s.symbols) {
		return symbol.Symbol{}, false
	}
	return s.symbols[s.symbolPos], true
}

// NextSymbol returns the symbol after the current one.
func (s *Session) NextSymbol() (symbol.Symbol, bool) {
	next := s.symbolPos + 1
	if next < 0 || next >= len(s.symbols) {
		return symbol.Symbol{}, false
	}
	return s.symbols[next], true
}

// StrokeSpawnTimes returns when each stroke of the current symbol should
// start its approach.
func (s *Session) StrokeSpawnTimes() []float64 {
	out := make([]float64, len(s.spawnTimes))
	copy(out, s.spawnTimes)
	return out
}

// Symbols returns the planned symbol sequence.
func (s *Session) Symbols() []symbol.Symbol { return s.symbols }

func (s *Session) Phase() Phase             { return s.phase }
func (s *Session) Score() int               { return s.score }
func (s *Session) Lives() int               { return s.lives }
func (s *Session) MaxLives() int            { return s.cfg.MaxLives }
func (s *Session) Combo() int               { return s.combo }
func (s *Session) CurrentTime() float64     { return s.currentTime }
func (s *Session) CurrentStrokeIndex() int  { return s.strokeIdx }
func (s *Session) SymbolPosition() int      { return s.symbolPos }
func (s *Session) EventCursor() int         { return s.cursor }
func (s *Session) GracePeriod() float64     { return s.cfg.GracePeriod }

// Snapshot is a copy of the session counters for presentation and records.
type Snapshot struct {
	Phase          Phase
	Score          int
	Lives          int
	MaxLives       int
	Combo          int
	MaxCombo       int
	Hits           int
	Misses         int
	Perfect        int
	Great          int
	Good           int
	CurrentTime    float64
	SymbolPosition int
	SymbolCount    int
	StrokeIndex    int
	EventCursor    int
	EventCount     int
}

// Snapshot returns the current counters.
func (s *Session) Snapshot() Snapshot {
	return Snapshot{
		Phase:          s.phase,
		Score:          s.score,
		Lives:          s.lives,
		MaxLives:       s.cfg.MaxLives,
		Combo:          s.combo,
		MaxCombo:       s.maxCombo,
		Hits:           s.hits,
		Misses:         s.misses,
		Perfect:        s.qualities[judge.QualityPerfect],
		Great:          s.qualities[judge.QualityGreat],
		Good:           s.qualities[judge.QualityGood],
		CurrentTime:    s.currentTime,
		SymbolPosition: s.symbolPos,
		SymbolCount:    len(s.symbols),
		StrokeIndex:    s.strokeIdx,
		EventCursor:    s.cursor,
		EventCount:     len(s.events),
	}
}
