package assign

import (
	"context"
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/go-logr/logr"

	"github.com/samdwyer/beatkanji/internal/beatmap"
	"github.com/samdwyer/beatkanji/internal/symbol"
)

// scriptedRand replays fixed draws so a test can pin every decision.
type scriptedRand struct {
	ints   []int
	floats []float64
	t      *testing.T
}

func (r *scriptedRand) Intn(n int) int {
	if len(r.ints) == 0 {
		r.t.Fatalf("scriptedRand: Intn(%d) called with no draws left", n)
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v % n
}

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.99
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func abcPool() []symbol.Symbol {
	return []symbol.Symbol{
		{ID: "A", StrokeCount: 2},
		{ID: "B", StrokeCount: 3},
		{ID: "C", StrokeCount: 5},
	}
}

// easyNotes returns a 120 BPM map whose Easy filter keeps 10 notes at 3.0, 3.5 ... 7.5.
func easyNotes() []beatmap.Note {
	var notes []beatmap.Note
	for i := 0; i < 16; i++ {
		at := float64(i) * 0.5
		notes = append(notes, beatmap.Note{Time: at, Level: 1, Type: beatmap.TagDrum})
		if i%3 == 0 {
			notes = append(notes, beatmap.Note{Time: at + 0.25, Level: 2, Type: beatmap.TagBass})
		}
	}
	b := beatmap.New(beatmap.Meta{Version: beatmap.CurrentVersion, BPM: 120, TotalDuration: 10}, notes)
	return beatmap.Filter(b, beatmap.Easy)
}

func ids(seq []symbol.Symbol) []string {
	out := make([]string, len(seq))
	for i, s := range seq {
		out[i] = s.ID
	}
	return out
}

func TestGenerateEasyScenario(t *testing.T) {
	notes := easyNotes()
	if len(notes) != 10 {
		t.Fatalf("easyNotes() = %d notes, want 10", len(notes))
	}

	// batch draws and picks, step by step:
	//   R=10 batch A,B,C -> random pick A
	//   R=8  batch A,B,C -> A skipped as last placed, random pick B
	//   R=5  batch A,A,B -> B skipped, no exact fit, pick A
	//   R=3  batch B,C,A -> exact fit B
	rng := &scriptedRand{
		t: t,
		ints: []int{
			0, 1, 2, 0,
			0, 1, 2, 0,
			0, 0, 1, 0,
			1, 2, 0,
		},
	}
	cfg := DefaultConfig()
	cfg.BatchSize = 3
	g := NewGenerator(cfg, rng, logr.Discard())

	plan, err := g.Generate(context.Background(), notes, abcPool())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	want := []string{"A", "B", "A", "B"}
	if got := ids(plan.Symbols); !reflect.DeepEqual(got, want) {
		t.Fatalf("Generate() symbols = %v, want %v", got, want)
	}
	if len(rng.ints) != 0 {
		t.Errorf("unused scripted draws: %v", rng.ints)
	}

	wantEvents := []struct {
		at     float64
		symbol int
		stroke int
	}{
		{3.0, 0, 0}, {3.5, 0, 1},
		{4.0, 1, 0}, {4.5, 1, 1}, {5.0, 1, 2},
		{5.5, 2, 0}, {6.0, 2, 1},
		{6.5, 3, 0}, {7.0, 3, 1}, {7.5, 3, 2},
	}
	if len(plan.Events) != len(wantEvents) {
		t.Fatalf("Generate() events = %d, want %d", len(plan.Events), len(wantEvents))
	}
	for i, w := range wantEvents {
		ev := plan.Events[i]
		if ev.BeatTime != w.at || ev.SymbolIndex != w.symbol || ev.StrokeIndex != w.stroke || ev.IsGap {
			t.Errorf("Events[%d] = %+v, want time %v symbol %d stroke %d", i, ev, w.at, w.symbol, w.stroke)
		}
		if ev.IsBonus {
			t.Errorf("Events[%d].IsBonus = true with draws above the bonus chance", i)
		}
	}
}

func TestSequenceTotality(t *testing.T) {
	pool := abcPool()
	for seed := int64(1); seed <= 20; seed++ {
		g := NewGenerator(DefaultConfig(), rand.New(rand.NewSource(seed)), logr.Discard())
		for target := 2; target <= 150; target++ {
			seq, err := g.Sequence(pool, target)
			if err != nil {
				t.Fatalf("seed %d: Sequence(%d) error = %v", seed, target, err)
			}
			if got := totalCost(seq); got != target {
				t.Fatalf("seed %d: Sequence(%d) total = %d", seed, target, got)
			}
		}
	}
}

func TestSequenceNoBackToBackRepeats(t *testing.T) {
	pool := []symbol.Symbol{{ID: "A", StrokeCount: 2}, {ID: "B", StrokeCount: 2}, {ID: "C", StrokeCount: 4}}
	g := NewGenerator(DefaultConfig(), rand.New(rand.NewSource(3)), logr.Discard())

	seq, err := g.Sequence(pool, 60)
	if err != nil {
		t.Fatalf("Sequence() error = %v", err)
	}
	for i := 1; i < len(seq); i++ {
		if seq[i].ID == seq[i-1].ID {
			t.Errorf("Sequence() repeats %s at %d", seq[i].ID, i)
		}
	}
}

func TestSequenceRepeatsWhenOnlyChoice(t *testing.T) {
	g := NewGenerator(DefaultConfig(), rand.New(rand.NewSource(1)), logr.Discard())

	seq, err := g.Sequence([]symbol.Symbol{{ID: "A", StrokeCount: 2}}, 6)
	if err != nil {
		t.Fatalf("Sequence() error = %v", err)
	}
	if got := ids(seq); !reflect.DeepEqual(got, []string{"A", "A", "A"}) {
		t.Errorf("Sequence() = %v, want [A A A]", got)
	}
}

func TestDeterminism(t *testing.T) {
	notes := easyNotes()
	var plans [2]Plan
	for i := range plans {
		g := NewGenerator(DefaultConfig(), rand.New(rand.NewSource(42)), logr.Discard())
		plan, err := g.Generate(context.Background(), notes, abcPool())
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		plans[i] = plan
	}

	if !reflect.DeepEqual(plans[0], plans[1]) {
		t.Errorf("same seed produced different plans:\n%v\n%v", ids(plans[0].Symbols), ids(plans[1].Symbols))
	}
}

func TestSequenceUnsatisfiable(t *testing.T) {
	tests := []struct {
		name      string
		pool      []symbol.Symbol
		target    int
		remainder int
	}{
		{"below min cost", abcPool(), 1, 1},
		{"single five", []symbol.Symbol{{ID: "C", StrokeCount: 5}}, 7, 2},
		{"only evens", []symbol.Symbol{{ID: "A", StrokeCount: 2}, {ID: "D", StrokeCount: 4}}, 9, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(DefaultConfig(), rand.New(rand.NewSource(1)), logr.Discard())
			_, err := g.Sequence(tt.pool, tt.target)

			var aerr *AssignmentError
			if !errors.As(err, &aerr) {
				t.Fatalf("Sequence() error = %v, want *AssignmentError", err)
			}
			if aerr.Remainder != tt.remainder {
				t.Errorf("AssignmentError.Remainder = %d, want %d", aerr.Remainder, tt.remainder)
			}
			if aerr.Target != tt.target {
				t.Errorf("AssignmentError.Target = %d, want %d", aerr.Target, tt.target)
			}
		})
	}
}

func TestEmptyPool(t *testing.T) {
	g := NewGenerator(DefaultConfig(), rand.New(rand.NewSource(1)), logr.Discard())

	_, err := g.Generate(context.Background(), easyNotes(), []symbol.Symbol{{ID: "zero"}})
	if !errors.Is(err, ErrEmptyPool) {
		t.Errorf("Generate() error = %v, want ErrEmptyPool", err)
	}

	plan, err := g.Generate(context.Background(), nil, nil)
	if err != nil || len(plan.Events) != 0 {
		t.Errorf("Generate(no notes) = %+v, %v; want empty plan", plan, err)
	}
}

func TestRemainderPad(t *testing.T) {
	notes := make([]beatmap.Note, 7)
	for i := range notes {
		notes[i] = beatmap.Note{Time: 3 + float64(i)*0.5, Level: 1, Type: beatmap.TagDrum}
	}

	cfg := DefaultConfig()
	cfg.Remainder = RemainderPad
	g := NewGenerator(cfg, rand.New(rand.NewSource(1)), logr.Discard())

	plan, err := g.Generate(context.Background(), notes, []symbol.Symbol{{ID: "C", StrokeCount: 5}})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(plan.Symbols) != 1 {
		t.Fatalf("Generate() symbols = %d, want 1", len(plan.Symbols))
	}
	if plan.StrokeCount() != 5 || plan.GapCount() != 2 {
		t.Errorf("Generate() strokes/gaps = %d/%d, want 5/2", plan.StrokeCount(), plan.GapCount())
	}
	for _, ev := range plan.Events[5:] {
		if !ev.IsGap || ev.SymbolIndex != 1 || ev.StrokeIndex != -1 {
			t.Errorf("trailing event = %+v, want gap after last symbol", ev)
		}
	}
}

func TestGapBeats(t *testing.T) {
	notes := make([]beatmap.Note, 24)
	for i := range notes {
		notes[i] = beatmap.Note{Time: 3 + float64(i)*0.5, Level: 1, Type: beatmap.TagDrum}
	}

	cfg := DefaultConfig()
	cfg.GapBeats = 1
	g := NewGenerator(cfg, rand.New(rand.NewSource(11)), logr.Discard())

	plan, err := g.Generate(context.Background(), notes, abcPool())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(plan.Events) != len(notes) {
		t.Fatalf("Generate() events = %d, want %d", len(plan.Events), len(notes))
	}
	if got, want := plan.StrokeCount(), totalCost(plan.Symbols); got != want {
		t.Errorf("StrokeCount() = %d, want total cost %d", got, want)
	}
	if plan.GapCount() == 0 {
		t.Error("GapCount() = 0, want reserved gap beats")
	}

	// every stroke event points at a valid stroke, in order
	for i, ev := range plan.Events {
		if i > 0 && ev.BeatTime < plan.Events[i-1].BeatTime {
			t.Errorf("Events[%d] out of time order", i)
		}
		if ev.IsGap {
			if ev.IsBonus {
				t.Errorf("Events[%d] is a bonus gap", i)
			}
			continue
		}
		s := plan.Symbols[ev.SymbolIndex]
		if ev.StrokeIndex < 0 || ev.StrokeIndex >= s.StrokeCount {
			t.Errorf("Events[%d].StrokeIndex = %d outside symbol %s (%d strokes)", i, ev.StrokeIndex, s.ID, s.StrokeCount)
		}
	}
}

func TestMaxSymbols(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSymbols = 5
	g := NewGenerator(cfg, rand.New(rand.NewSource(1)), logr.Discard())

	_, err := g.Sequence([]symbol.Symbol{{ID: "A", StrokeCount: 1}, {ID: "B", StrokeCount: 1}}, 10)
	var aerr *AssignmentError
	if !errors.As(err, &aerr) {
		t.Fatalf("Sequence() error = %v, want *AssignmentError", err)
	}
	if aerr.Remainder != 5 {
		t.Errorf("AssignmentError.Remainder = %d, want 5", aerr.Remainder)
	}
}

func TestBonusTagging(t *testing.T) {
	notes := easyNotes()
	tests := []struct {
		chance float64
		want   bool
	}{
		{0, false},
		{1, true},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.BonusChance = tt.chance
		g := NewGenerator(cfg, rand.New(rand.NewSource(5)), logr.Discard())
		plan, err := g.Generate(context.Background(), notes, abcPool())
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		first := true
		for i, ev := range plan.Events {
			if ev.IsGap {
				continue
			}
			want := tt.want && !first
			first = false
			if ev.IsBonus != want {
				t.Errorf("chance %v: Events[%d].IsBonus = %v, want %v", tt.chance, i, ev.IsBonus, want)
			}
		}
	}
}

func TestBounds(t *testing.T) {
	lo, hi := Bounds(abcPool(), 10)
	if lo != 2 || hi != 5 {
		t.Errorf("Bounds(abc, 10) = %d, %d; want 2, 5", lo, hi)
	}
	if lo, hi := Bounds(nil, 10); lo != 0 || hi != 0 {
		t.Errorf("Bounds(nil, 10) = %d, %d; want 0, 0", lo, hi)
	}
}

func TestRemainderPolicyString(t *testing.T) {
	tests := []struct {
		p    RemainderPolicy
		want string
	}{
		{RemainderFail, "fail"},
		{RemainderPad, "pad"},
		{RemainderPolicy(9), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.p.String(); got != tt.want {
			t.Errorf("RemainderPolicy(%d).String() = %q, want %q", tt.p, got, tt.want)
		}
	}
}
