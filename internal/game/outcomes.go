package game

import (
	"github.com/samdwyer/beatkanji/internal/assign"
	"github.com/samdwyer/beatkanji/internal/audio"
	"github.com/samdwyer/beatkanji/internal/judge"
)

// The Game is the session's outcome handler: it turns outcomes into sound,
// on-screen verdicts and log lines.

func (g *Game) OnStrokeHit(ev assign.StrokeBeatEvent, quality judge.Quality) {
	g.audio.Play(audio.HitCue(quality))
	g.log.V(2).Info("stroke hit", "beat", ev.BeatTime, "stroke", ev.StrokeIndex, "quality", quality.String())
}

func (g *Game) OnStrokeMiss(ev assign.StrokeBeatEvent) {
	g.audio.Play(audio.CueMiss)
	miss := judge.Miss
	g.verdict = &miss
	g.log.V(1).Info("stroke missed", "beat", ev.BeatTime, "stroke", ev.StrokeIndex, "lives", g.session.Lives())
}

func (g *Game) OnSymbolCompleted(symbolID string) {
	g.audio.Play(audio.CueComplete)
	g.log.V(1).Info("symbol completed", "symbol", symbolID, "score", g.session.Score())
}

func (g *Game) OnLifeRestored(lives int) {
	g.audio.Play(audio.CueBonus)
	g.log.V(1).Info("life restored", "lives", lives)
}

func (g *Game) OnSongCompleted() {
	g.log.V(1).Info("song completed", "score", g.session.Score())
}

func (g *Game) OnGameOver() {
	g.log.V(1).Info("game over", "score", g.session.Score())
}
