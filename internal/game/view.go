package game

import (
	"github.com/samdwyer/beatkanji/internal/session"
	"github.com/samdwyer/beatkanji/internal/ui"
)

// laneLookahead bounds how many beats are considered for the lane.
const laneLookahead = 32

// view builds the presentation model for the current frame.
func (g *Game) view() ui.View {
	snap := g.session.Snapshot()
	meta := g.song.Beatmap.Meta()
	t := g.session.CurrentTime()
	flight := g.clock.FlightDuration()

	v := ui.View{
		Title:      meta.DisplayTitle(),
		Difficulty: g.cfg.Difficulty.String(),
		Score:      snap.Score,
		Best:       g.best,
		Combo:      snap.Combo,
		Lives:      snap.Lives,
		MaxLives:   snap.MaxLives,
		Time:       t,
		Duration:   meta.TotalDuration,
		Flight:     flight,
		Verdict:    g.verdict,
	}

	if cur, ok := g.session.CurrentSymbol(); ok {
		v.Current = &ui.Glyph{
			Char:    cur.Char,
			Keyword: cur.Keyword,
			Strokes: cur.StrokeCount,
			Done:    g.session.CurrentStrokeIndex(),
		}
	}
	// the next symbol appears once its first stroke is in flight
	if g.session.HasUpcomingNextSymbolStrokes(flight) {
		if next, ok := g.session.NextSymbol(); ok {
			v.Next = &ui.Glyph{Char: next.Char, Keyword: next.Keyword, Strokes: next.StrokeCount}
		}
	}

	active, hasActive := g.session.ActiveEvent()
	for _, ev := range g.session.UpcomingEvents(laneLookahead, t-g.session.GracePeriod()) {
		if hasActive && !ev.IsGap && ev.BeatTime < active.BeatTime {
			// already judged
			continue
		}
		m := ui.Marker{
			Offset: ev.BeatTime - t,
			Tag:    string(ev.Source),
			Gap:    ev.IsGap,
			Bonus:  g.session.BonusActive(ev),
			Active: hasActive && ev == active,
		}
		if m.Active && m.Offset < 0 {
			m.Offset = 0
		}
		if m.Offset < 0 || m.Offset > flight {
			continue
		}
		v.Lane = append(v.Lane, m)
	}

	if g.state == StateFinished {
		v.Banner = ui.BannerComplete
		if snap.Phase == session.PhaseGameOver {
			v.Banner = ui.BannerGameOver
		}
	}
	return v
}
