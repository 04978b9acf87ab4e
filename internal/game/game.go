package game

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samdwyer/beatkanji/internal/audio"
	"github.com/samdwyer/beatkanji/internal/clock"
	"github.com/samdwyer/beatkanji/internal/gamedata"
	"github.com/samdwyer/beatkanji/internal/judge"
	"github.com/samdwyer/beatkanji/internal/record"
	"github.com/samdwyer/beatkanji/internal/session"
	"github.com/samdwyer/beatkanji/internal/telemetry"
	"github.com/samdwyer/beatkanji/internal/ui"
)

const frameInterval = time.Second / 60

// Game holds the entire game state for one song.
type Game struct {
	cfg       Config
	log       logr.Logger
	screen    *ui.Screen
	renderer  *ui.Renderer
	audio     *audio.Player
	records   *record.Store
	song      *Song
	clock     *clock.Clock
	session   *session.Session
	evaluator *judge.Evaluator
	state     State
	running   bool

	sessionID string
	verdict   *judge.Verdict
	best      int
	firstBeat float64
	nextTick  float64
}

// New creates a game on a new terminal screen.
func New(ctx context.Context, cfg Config, log logr.Logger) (*Game, error) {
	screen, err := ui.NewScreen()
	if err != nil {
		return nil, err
	}
	g, err := newGame(ctx, cfg, log, screen)
	if err != nil {
		screen.Close()
		return nil, err
	}
	return g, nil
}

func newGame(ctx context.Context, cfg Config, log logr.Logger, screen *ui.Screen) (*Game, error) {
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}
	log = log.WithName("game")
	log.Info("starting", "seed", cfg.Seed)

	song, err := Prepare(ctx, cfg, rand.New(rand.NewSource(cfg.Seed)), log)
	if err != nil {
		return nil, err
	}

	clk := clock.New(song.Beatmap.Meta().BPM)
	sess, err := session.New(song.Plan, clk, cfg.Session)
	if err != nil {
		return nil, fmt.Errorf("start session for %s: %w", song.Name, err)
	}

	palette, err := gamedata.LoadPalette()
	if err != nil {
		return nil, err
	}

	g := &Game{
		cfg:       cfg,
		log:       log,
		screen:    screen,
		renderer:  ui.NewRenderer(screen, palette),
		audio:     audio.NewPlayer(audio.Config{Enabled: !cfg.Mute, Volume: cfg.Volume}, log),
		song:      song,
		clock:     clk,
		session:   sess,
		evaluator: judge.NewEvaluator(judge.DefaultWindows),
		state:     StateCountdown,
		running:   true,
		firstBeat: song.Plan.Events[0].BeatTime,
	}

	if cfg.RecordPath != "" {
		g.records, err = record.Open(cfg.RecordPath, log)
		if err != nil {
			return nil, err
		}
		best, ok, err := g.records.Best(ctx, song.Chart, cfg.Difficulty.String())
		if err != nil {
			log.Error(err, "load best result")
		} else if ok {
			g.best = best.Score
		}
	}

	if err := g.audio.Init(); err != nil {
		// Non-fatal, the game runs silently
		log.Error(err, "audio unavailable")
	}
	return g, nil
}

// Run executes the main game loop until the player quits or ctx ends.
func (g *Game) Run(ctx context.Context) error {
	defer g.Close()

	events := make(chan tcell.Event, 16)
	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			ev := g.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-done:
				return
			}
		}
	}()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	begin := time.Now()
	g.start(ctx)
	g.render()

	for g.running {
		select {
		case <-ctx.Done():
			g.running = false
		case ev := <-events:
			g.handleEvent(ctx, ev, time.Since(begin).Seconds())
		case <-ticker.C:
			g.tick(ctx, time.Since(begin).Seconds())
			g.render()
		}
	}

	if g.state != StateFinished {
		g.endSpan(ctx, "quit")
	}
	return nil
}

// start begins the song at timestamp 0.
func (g *Game) start(ctx context.Context) {
	g.sessionID = uuid.NewString()
	meta := g.song.Beatmap.Meta()

	_, span := telemetry.Tracer("game").Start(ctx, "song.start")
	span.SetAttributes(
		attribute.String("session.id", g.sessionID),
		attribute.String("song.name", g.song.Name),
		attribute.String("song.title", meta.DisplayTitle()),
		attribute.Float64("song.bpm", meta.BPM),
		attribute.String("difficulty", g.cfg.Difficulty.String()),
		attribute.Int("symbols", len(g.song.Plan.Symbols)),
		attribute.Int("events", len(g.song.Plan.Events)),
		attribute.Int64("seed", g.cfg.Seed),
	)
	span.End()

	g.log.Info("song started",
		"session", g.sessionID,
		"song", meta.DisplayTitle(),
		"difficulty", g.cfg.Difficulty.String(),
		"symbols", len(g.song.Plan.Symbols))

	if g.song.AudioPath != "" {
		if err := g.audio.PlaySong(g.song.AudioPath); err != nil {
			g.log.Error(err, "play song track", "path", g.song.AudioPath)
		}
	}

	g.nextTick = g.clock.NextAlignedSpawnTime(0)
	g.tick(ctx, 0)
}

// tick advances the clock to now, then the session, then handles outcomes.
func (g *Game) tick(ctx context.Context, now float64) {
	dt, err := g.clock.Advance(now)
	if err != nil {
		g.log.V(1).Info("clock anomaly", "err", err.Error())
	}
	t := g.clock.GlobalTime()
	g.metronome(t)

	if g.state == StateFinished {
		return
	}
	if g.state == StateCountdown && t >= g.firstBeat-g.clock.FlightDuration() {
		g.state = StatePlaying
	}

	outcomes := g.session.Update(dt)
	g.log.V(2).Info("frame", "t", t, "dt", dt, "outcomes", len(outcomes))
	g.apply(ctx, outcomes)
}

// metronome ticks on the beat grid until the first beat event.
func (g *Game) metronome(t float64) {
	if t >= g.firstBeat || t < g.nextTick {
		return
	}
	g.audio.Play(audio.CueTick)
	g.nextTick = g.clock.NextAlignedSpawnTime(g.nextTick + g.clock.SpawnInterval()/2)
}

// press judges a stroke attempt made at now.
func (g *Game) press(ctx context.Context, now float64) {
	if g.state == StateFinished {
		return
	}
	g.tick(ctx, now)
	if g.state == StateFinished {
		return
	}

	ev, ok := g.session.ActiveEvent()
	if !ok {
		return
	}
	v, judged := g.evaluator.Evaluate(ev.BeatTime, g.session.CurrentTime())
	if !judged {
		// too early for any window
		return
	}
	g.verdict = &v
	g.apply(ctx, g.session.AdvanceStroke(v.Hit, v.Quality))
}

func (g *Game) apply(ctx context.Context, outcomes []session.Outcome) {
	session.Dispatch(outcomes, g)
	if g.session.Phase().Terminal() && g.state != StateFinished {
		g.finish(ctx)
	}
}

// finish records the result once the session reaches a terminal phase.
func (g *Game) finish(ctx context.Context) {
	g.state = StateFinished
	g.audio.StopSong()

	outcome := "complete"
	if g.session.Phase() == session.PhaseGameOver {
		outcome = "game_over"
	}
	g.endSpan(ctx, outcome)
}

func (g *Game) endSpan(ctx context.Context, outcome string) {
	snap := g.session.Snapshot()
	ctx, span := telemetry.Tracer("game").Start(ctx, "song.end")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", g.sessionID),
		attribute.String("outcome", outcome),
		attribute.Int("score", snap.Score),
		attribute.Int("lives", snap.Lives),
		attribute.Int("max_combo", snap.MaxCombo),
		attribute.Int("misses", snap.Misses),
		attribute.Float64("time", snap.CurrentTime),
	)

	g.log.Info("song ended",
		"session", g.sessionID,
		"outcome", outcome,
		"score", snap.Score,
		"maxCombo", snap.MaxCombo,
		"misses", snap.Misses)

	if g.records == nil || outcome == "quit" {
		return
	}
	r := &record.Result{
		ID:         g.sessionID,
		Song:       g.song.Beatmap.Meta().DisplayTitle(),
		Chart:      g.song.Chart,
		Difficulty: g.cfg.Difficulty.String(),
		Score:      snap.Score,
		MaxCombo:   snap.MaxCombo,
		Hits:       snap.Hits,
		Misses:     snap.Misses,
		Perfect:    snap.Perfect,
		Great:      snap.Great,
		Good:       snap.Good,
		Cleared:    snap.Phase == session.PhaseSongComplete,
	}
	if err := g.records.Save(ctx, r); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "save result")
		g.log.Error(err, "save result")
		return
	}
	g.best = max(g.best, snap.Score)
}

// handleEvent processes a single terminal event.
func (g *Game) handleEvent(ctx context.Context, ev tcell.Event, now float64) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		g.handleKeyEvent(ctx, ev, now)
	case *tcell.EventResize:
		g.screen.Sync()
	}
}

// handleKeyEvent processes keyboard input.
func (g *Game) handleKeyEvent(ctx context.Context, ev *tcell.EventKey, now float64) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		g.running = false

	case tcell.KeyRune:
		switch ev.Rune() {
		case ' ':
			g.press(ctx, now)
		case 'q', 'Q':
			g.running = false
		}
	}
}

func (g *Game) render() {
	g.renderer.Render(g.view())
}

// Close cleans up game resources.
func (g *Game) Close() {
	if g.audio != nil {
		g.audio.Close()
	}
	if g.records != nil {
		if err := g.records.Close(); err != nil {
			g.log.Error(err, "close results store")
		}
		g.records = nil
	}
	if g.screen != nil {
		g.screen.Close()
		g.screen = nil
	}
}
