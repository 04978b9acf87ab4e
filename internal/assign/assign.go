// Package assign maps a song's filtered notes onto a sequence of symbols so
// that every note is the beat of exactly one stroke.
//
// Algorithm
// ---------
// Given a stroke budget T (filtered notes minus reserved gap beats) and a pool
// of symbols with positive stroke costs:
//
//  1. Build a reachability table: reachable[r] is true when r strokes can be
//     written as a sum of pool costs. If reachable[T] is false the pool cannot
//     satisfy the song and an *AssignmentError is returned (or, with
//     RemainderPad, T is lowered to the largest reachable value and the
//     leftover notes become gap beats).
//  2. With remaining budget R = T, repeatedly draw a random batch of
//     BatchSize candidates. A candidate is eligible when cost <= R and
//     reachable[R-cost], so a satisfiable budget never strands.
//     The symbol placed last is skipped unless it is the only eligible one.
//  3. When R <= ExactFitFactor * average pool cost, an eligible candidate
//     whose cost equals R is taken first, closing the sequence. Otherwise an
//     eligible candidate is chosen uniformly at random.
//  4. If the batch holds nothing eligible, the whole pool is scanned.
//
// Gap beats are reserved before step 1 (GapBeats per estimated symbol
// boundary) and spread evenly between the generated symbols, so they never
// disturb the stroke-to-note mapping.
package assign

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samdwyer/beatkanji/internal/beatmap"
	"github.com/samdwyer/beatkanji/internal/symbol"
	"github.com/samdwyer/beatkanji/internal/telemetry"
)

// ErrEmptyPool is returned when no candidate symbol has a positive stroke count.
var ErrEmptyPool = errors.New("assign: empty symbol pool")

// AssignmentError reports a stroke budget the pool cannot fill exactly.
type AssignmentError struct {
	Target    int // Strokes requested
	Remainder int // Strokes left unassigned
	PoolSize  int
	Reason    string
}

func (e *AssignmentError) Error() string {
	msg := fmt.Sprintf("assign: cannot fill %d strokes from %d symbols (unsatisfiable remainder=%d)",
		e.Target, e.PoolSize, e.Remainder)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Rand is the random source driving every draw. *rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

// RemainderPolicy decides what happens when the stroke budget is unreachable.
type RemainderPolicy int

const (
	// RemainderFail returns an *AssignmentError.
	RemainderFail RemainderPolicy = iota
	// RemainderPad fills the largest reachable budget and turns the leftover
	// notes into gap beats at the end of the song.
	RemainderPad
)

// String returns the policy name.
func (p RemainderPolicy) String() string {
	switch p {
	case RemainderFail:
		return "fail"
	case RemainderPad:
		return "pad"
	default:
		return "unknown"
	}
}

// Config tunes the generator.
type Config struct {
	BatchSize      int     // Candidates drawn per step
	GapBeats       int     // Idle beats between consecutive symbols
	ExactFitFactor float64 // Exact fits are preferred when R <= factor * average cost
	BonusChance    float64 // Probability that a stroke is a bonus stroke
	MaxSymbols     int     // Upper bound on sequence length, 0 for none
	Remainder      RemainderPolicy
}

// DefaultConfig returns the tuning used by the game.
func DefaultConfig() Config {
	return Config{
		BatchSize:      30,
		GapBeats:       0,
		ExactFitFactor: 1.5,
		BonusChance:    1.0 / 20,
		Remainder:      RemainderFail,
	}
}

// StrokeBeatEvent is one beat of the song with the stroke it asks for.
type StrokeBeatEvent struct {
	BeatTime float64
	// SymbolIndex is the position in Plan.Symbols. For gap beats it is the
	// symbol that follows, which is len(Plan.Symbols) for trailing gaps.
	SymbolIndex int
	StrokeIndex int // -1 for gap beats
	IsGap       bool
	IsBonus     bool
	Source      beatmap.SourceTag // Stem the note was authored from
}

// Plan is the generated symbol sequence and its beat events, in time order.
type Plan struct {
	Symbols []symbol.Symbol
	Events  []StrokeBeatEvent
}

// StrokeCount returns the number of non-gap events.
func (p Plan) StrokeCount() int {
	n := 0
	for _, ev := range p.Events {
		if !ev.IsGap {
			n++
		}
	}
	return n
}

// GapCount returns the number of gap events.
func (p Plan) GapCount() int {
	return len(p.Events) - p.StrokeCount()
}

// Generator assigns symbols to notes. It is deterministic for a given Rand state.
type Generator struct {
	cfg Config
	rng Rand
	log logr.Logger
}

// NewGenerator creates a generator. Non-positive tuning values fall back to DefaultConfig.
func NewGenerator(cfg Config, rng Rand, log logr.Logger) *Generator {
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.ExactFitFactor <= 0 {
		cfg.ExactFitFactor = def.ExactFitFactor
	}
	if cfg.GapBeats < 0 {
		cfg.GapBeats = 0
	}
	if cfg.BonusChance < 0 {
		cfg.BonusChance = 0
	}
	return &Generator{cfg: cfg, rng: rng, log: log.WithName("assign")}
}

// Generate builds the plan for a song from its filtered notes.
// Zero notes give an empty plan.
func (g *Generator) Generate(ctx context.Context, notes []beatmap.Note, candidates []symbol.Symbol) (Plan, error) {
	_, span := telemetry.Tracer("assign").Start(ctx, "assign.generate")
	defer span.End()

	pool := usable(candidates)
	span.SetAttributes(
		attribute.Int("assign.notes", len(notes)),
		attribute.Int("assign.pool", len(pool)),
	)
	if len(notes) == 0 {
		return Plan{}, nil
	}
	if len(pool) == 0 {
		span.SetStatus(codes.Error, "empty pool")
		return Plan{}, ErrEmptyPool
	}

	n := len(notes)
	reserve := g.reserveGaps(n, pool)
	target := n - reserve

	seq, err := g.Sequence(pool, target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "assignment failed")
		return Plan{}, err
	}

	strokes := totalCost(seq)
	pad := target - strokes // non-zero only under RemainderPad
	plan := Plan{
		Symbols: seq,
		Events:  layout(notes, seq, spreadGaps(reserve, len(seq)-1)),
	}
	g.tagBonus(plan.Events)

	span.SetAttributes(
		attribute.Int("assign.symbols", len(seq)),
		attribute.Int("assign.strokes", strokes),
		attribute.Int("assign.gaps", reserve+pad),
	)
	g.log.V(1).Info("assigned symbols", "notes", n, "symbols", len(seq), "strokes", strokes, "gaps", reserve+pad)
	return plan, nil
}

// Sequence returns symbols whose stroke counts sum to exactly target, or to
// the largest reachable value below it under RemainderPad.
func (g *Generator) Sequence(candidates []symbol.Symbol, target int) ([]symbol.Symbol, error) {
	pool := usable(candidates)
	if len(pool) == 0 {
		return nil, ErrEmptyPool
	}
	if target <= 0 {
		return nil, nil
	}

	reachable := reachability(pool, target)
	budget := target
	if !reachable[target] {
		best := target
		for !reachable[best] {
			best--
		}
		if g.cfg.Remainder != RemainderPad {
			return nil, &AssignmentError{Target: target, Remainder: target - best, PoolSize: len(pool)}
		}
		g.log.Info("stroke budget unreachable, padding with gap beats", "target", target, "filled", best)
		budget = best
	}

	threshold := g.cfg.ExactFitFactor * averageCost(pool)
	var (
		seq  []symbol.Symbol
		prev string
	)
	for remaining := budget; remaining > 0; {
		if g.cfg.MaxSymbols > 0 && len(seq) >= g.cfg.MaxSymbols {
			return nil, &AssignmentError{
				Target:    target,
				Remainder: remaining,
				PoolSize:  len(pool),
				Reason:    fmt.Sprintf("exceeds %d symbols", g.cfg.MaxSymbols),
			}
		}

		pick, ok := g.choose(g.drawBatch(pool), remaining, prev, reachable, threshold)
		if !ok {
			pick, ok = g.choose(pool, remaining, prev, reachable, threshold)
		}
		if !ok {
			// unreachable: reachable[remaining] guarantees a fitting pool symbol
			return nil, &AssignmentError{Target: target, Remainder: remaining, PoolSize: len(pool)}
		}

		seq = append(seq, pick)
		remaining -= pick.StrokeCount
		prev = pick.ID
	}
	return seq, nil
}

// Bounds returns the fewest and most symbols a budget of target strokes can
// take with this pool.
func Bounds(candidates []symbol.Symbol, target int) (minSymbols, maxSymbols int) {
	pool := usable(candidates)
	if len(pool) == 0 || target <= 0 {
		return 0, 0
	}
	lo, hi := pool[0].StrokeCount, pool[0].StrokeCount
	for _, s := range pool[1:] {
		lo = min(lo, s.StrokeCount)
		hi = max(hi, s.StrokeCount)
	}
	return (target + hi - 1) / hi, target / lo
}

func (g *Generator) drawBatch(pool []symbol.Symbol) []symbol.Symbol {
	batch := make([]symbol.Symbol, g.cfg.BatchSize)
	for i := range batch {
		batch[i] = pool[g.rng.Intn(len(pool))]
	}
	return batch
}

func (g *Generator) choose(cands []symbol.Symbol, remaining int, prev string, reachable []bool, threshold float64) (symbol.Symbol, bool) {
	var eligible, repeats []symbol.Symbol
	for _, c := range cands {
		if c.StrokeCount > remaining || !reachable[remaining-c.StrokeCount] {
			continue
		}
		if c.ID == prev {
			repeats = append(repeats, c)
		} else {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		eligible = repeats
	}
	if len(eligible) == 0 {
		return symbol.Symbol{}, false
	}

	if float64(remaining) <= threshold {
		for _, c := range eligible {
			if c.StrokeCount == remaining {
				return c, true
			}
		}
	}
	return eligible[g.rng.Intn(len(eligible))], true
}

// reserveGaps estimates the number of symbol boundaries and reserves
// GapBeats beats for each, keeping the reserve out of the stroke budget.
func (g *Generator) reserveGaps(notes int, pool []symbol.Symbol) int {
	if g.cfg.GapBeats == 0 {
		return 0
	}
	perSymbol := averageCost(pool) + float64(g.cfg.GapBeats)
	symbols := int(math.Round(float64(notes) / perSymbol))
	if symbols < 1 {
		symbols = 1
	}
	reserve := g.cfg.GapBeats * (symbols - 1)
	if reserve >= notes {
		return 0
	}

	// shrink the reserve until the remaining budget is writable
	reachable := reachability(pool, notes)
	for r := reserve; r > 0; r-- {
		if reachable[notes-r] {
			return r
		}
	}
	return 0
}

// tagBonus marks strokes as bonus strokes. The first stroke of the song is
// never one.
func (g *Generator) tagBonus(events []StrokeBeatEvent) {
	first := true
	for i := range events {
		if events[i].IsGap {
			continue
		}
		if first {
			first = false
			continue
		}
		events[i].IsBonus = g.rng.Float64() < g.cfg.BonusChance
	}
}

// layout binds strokes and gaps to notes in time order. gaps[j] beats are
// placed between symbol j and j+1; notes left over become trailing gaps.
func layout(notes []beatmap.Note, seq []symbol.Symbol, gaps []int) []StrokeBeatEvent {
	events := make([]StrokeBeatEvent, 0, len(notes))
	idx := 0
	for j, s := range seq {
		if j > 0 {
			for k := 0; k < gaps[j-1]; k++ {
				events = append(events, gapEvent(notes[idx], j))
				idx++
			}
		}
		for k := 0; k < s.StrokeCount; k++ {
			events = append(events, StrokeBeatEvent{
				BeatTime:    notes[idx].Time,
				SymbolIndex: j,
				StrokeIndex: k,
				Source:      notes[idx].Type,
			})
			idx++
		}
	}
	for ; idx < len(notes); idx++ {
		events = append(events, gapEvent(notes[idx], len(seq)))
	}
	return events
}

func gapEvent(n beatmap.Note, next int) StrokeBeatEvent {
	return StrokeBeatEvent{BeatTime: n.Time, SymbolIndex: next, StrokeIndex: -1, IsGap: true, Source: n.Type}
}

// spreadGaps divides reserve beats over boundaries, earlier boundaries
// taking the remainder. With no boundaries the reserve is left for trailing gaps.
func spreadGaps(reserve, boundaries int) []int {
	if boundaries <= 0 {
		return nil
	}
	gaps := make([]int, boundaries)
	base, extra := reserve/boundaries, reserve%boundaries
	for i := range gaps {
		gaps[i] = base
		if i < extra {
			gaps[i]++
		}
	}
	return gaps
}

// reachability returns r -> whether r strokes are a sum of pool costs.
func reachability(pool []symbol.Symbol, limit int) []bool {
	reachable := make([]bool, limit+1)
	reachable[0] = true
	for r := 1; r <= limit; r++ {
		for _, s := range pool {
			if s.StrokeCount <= r && reachable[r-s.StrokeCount] {
				reachable[r] = true
				break
			}
		}
	}
	return reachable
}

func usable(candidates []symbol.Symbol) []symbol.Symbol {
	pool := make([]symbol.Symbol, 0, len(candidates))
	for _, s := range candidates {
		if s.StrokeCount > 0 {
			pool = append(pool, s)
		}
	}
	return pool
}

func averageCost(pool []symbol.Symbol) float64 {
	return float64(totalCost(pool)) / float64(len(pool))
}

func totalCost(seq []symbol.Symbol) int {
	total := 0
	for _, s := range seq {
		total += s.StrokeCount
	}
	return total
}
