package session

import (
	"github.com/samdwyer/beatkanji/internal/assign"
	"github.com/samdwyer/beatkanji/internal/judge"
)

// OutcomeKind identifies what happened during a session step.
type OutcomeKind int

const (
	OutcomeStrokeHit OutcomeKind = iota
	OutcomeStrokeMiss
	OutcomeSymbolCompleted
	OutcomeLifeRestored
	OutcomeSongCompleted
	OutcomeGameOver
)

// String returns a human-readable outcome name.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeStrokeHit:
		return "stroke_hit"
	case OutcomeStrokeMiss:
		return "stroke_miss"
	case OutcomeSymbolCompleted:
		return "symbol_completed"
	case OutcomeLifeRestored:
		return "life_restored"
	case OutcomeSongCompleted:
		return "song_completed"
	case OutcomeGameOver:
		return "game_over"
	default:
		return "unknown"
	}
}

// Outcome is one notification produced by Update or AdvanceStroke.
// Fields that do not apply to the kind are zero.
type Outcome struct {
	Kind     OutcomeKind
	Event    assign.StrokeBeatEvent
	SymbolID string
	Quality  judge.Quality
	Lives    int // Lives after a miss or restore
	Misses   int // Strokes missed on a completed symbol
}

// Handler receives session outcomes on the host side.
type Handler interface {
	OnStrokeMiss(ev assign.StrokeBeatEvent)
	OnSymbolCompleted(symbolID string)
	OnSongCompleted()
	OnGameOver()
}

// HitHandler is implemented by handlers that also want hits.
type HitHandler interface {
	OnStrokeHit(ev assign.StrokeBeatEvent, quality judge.Quality)
}

// LifeHandler is implemented by handlers that want bonus life notices.
type LifeHandler interface {
	OnLifeRestored(lives int)
}

// Dispatch delivers outcomes to h in order.
func Dispatch(outcomes []Outcome, h Handler) {
	if h == nil {
		return
	}
	for _, o := range outcomes {
		switch o.Kind {
		case OutcomeStrokeHit:
			if hh, ok := h.(HitHandler); ok {
				hh.OnStrokeHit(o.Event, o.Quality)
			}
		case OutcomeStrokeMiss:
			h.OnStrokeMiss(o.Event)
		case OutcomeSymbolCompleted:
			h.OnSymbolCompleted(o.SymbolID)
		case OutcomeLifeRestored:
			if lh, ok := h.(LifeHandler); ok {
				lh.OnLifeRestored(o.Lives)
			}
		case OutcomeSongCompleted:
			h.OnSongCompleted()
		case OutcomeGameOver:
			h.OnGameOver()
		}
	}
}
