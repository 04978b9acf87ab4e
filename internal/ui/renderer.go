package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/samdwyer/beatkanji/internal/gamedata"
	"github.com/samdwyer/beatkanji/internal/judge"
)

const (
	laneHitX  = 4 // Column of the hit line
	heartFull = '♥'
	heartLost = '♡'
)

// Renderer handles drawing the game to the screen.
type Renderer struct {
	screen  *Screen
	palette *gamedata.Palette
}

// NewRenderer creates a new renderer for the given screen.
func NewRenderer(screen *Screen, palette *gamedata.Palette) *Renderer {
	return &Renderer{screen: screen, palette: palette}
}

// Render draws one frame.
func (r *Renderer) Render(v View) {
	r.screen.Clear()
	width, height := r.screen.Size()

	r.renderHUD(v, width)
	r.renderSymbols(v, width)
	r.renderLane(v, width, height-5)
	r.renderVerdict(v, height-3)

	switch v.Banner {
	case BannerComplete:
		r.renderBanner("SONG COMPLETE", r.palette.Perfect, width, height)
	case BannerGameOver:
		r.renderBanner("GAME OVER", r.palette.Miss, width, height)
	}

	r.RenderMessage("space: stroke   esc/q: quit", height-1)
	r.screen.Show()
}

func (r *Renderer) renderHUD(v View, width int) {
	hud := tcell.StyleDefault.Foreground(r.palette.HUD)

	title := v.Title
	if v.Difficulty != "" {
		title += " [" + v.Difficulty + "]"
	}
	r.screen.DrawText(1, 0, title, hud.Bold(true))

	stats := fmt.Sprintf("Score %d  Combo %d", v.Score, v.Combo)
	if v.Best > 0 {
		stats += fmt.Sprintf("  Best %d", v.Best)
	}
	r.screen.DrawText(max(1, width-TextWidth(stats)-1), 0, stats, hud)

	x := 1
	for i := 0; i < v.MaxLives; i++ {
		heart, style := heartLost, hud
		if i < v.Lives {
			heart, style = heartFull, tcell.StyleDefault.Foreground(r.palette.Miss)
		}
		r.screen.SetContent(x, 1, heart, style)
		x += 2
	}

	clock := fmt.Sprintf("%s / %s", formatTime(v.Time), formatTime(v.Duration))
	r.screen.DrawText(max(1, width-TextWidth(clock)-1), 1, clock, hud)
}

func (r *Renderer) renderSymbols(v View, width int) {
	if v.Current != nil {
		sym := tcell.StyleDefault.Foreground(r.palette.Symbol).Bold(true)
		x := (width - TextWidth(v.Current.Char)) / 2
		r.screen.DrawText(x, 4, v.Current.Char, sym)
		if v.Current.Keyword != "" {
			r.screen.DrawText((width-TextWidth(v.Current.Keyword))/2, 5, v.Current.Keyword, tcell.StyleDefault.Foreground(r.palette.Preview))
		}

		progress := strokeProgress(v.Current.Done, v.Current.Strokes)
		r.screen.DrawText((width-TextWidth(progress))/2, 7, progress, tcell.StyleDefault.Foreground(r.palette.HUD))
	}

	if v.Next != nil {
		next := fmt.Sprintf("next: %s (%d)", v.Next.Char, v.Next.Strokes)
		r.screen.DrawText(max(1, width-TextWidth(next)-1), 4, next, tcell.StyleDefault.Foreground(r.palette.Preview))
	}
}

// strokeProgress renders done of total strokes as filled and empty dots.
func strokeProgress(done, total int) string {
	done = min(max(done, 0), total)
	return strings.Repeat("●", done) + strings.Repeat("○", total-done) + fmt.Sprintf(" %d/%d", done, total)
}

func (r *Renderer) renderLane(v View, width, y int) {
	if y < 0 {
		return
	}
	edge := tcell.StyleDefault.Foreground(r.palette.Gap)
	for x := 0; x < width; x++ {
		r.screen.SetContent(x, y-1, '─', edge)
		r.screen.SetContent(x, y+1, '─', edge)
	}
	r.screen.SetContent(laneHitX, y, '│', tcell.StyleDefault.Foreground(r.palette.HUD).Bold(true))

	span := width - laneHitX - 2
	for _, m := range v.Lane {
		x, ok := MarkerColumn(m.Offset, v.Flight, span)
		if !ok {
			continue
		}
		glyph, style := r.markerStyle(m)
		r.screen.SetContent(laneHitX+x, y, glyph, style)
	}
}

// MarkerColumn maps a beat offset onto a lane span cells wide. The hit line
// is column 0 and a beat one flight duration away sits at span.
func MarkerColumn(offset, flight float64, span int) (int, bool) {
	if flight <= 0 || span <= 0 || offset < 0 || offset > flight {
		return 0, false
	}
	return int(math.Round(offset / flight * float64(span))), true
}

func (r *Renderer) markerStyle(m Marker) (rune, tcell.Style) {
	switch {
	case m.Gap:
		return '·', tcell.StyleDefault.Foreground(r.palette.Gap)
	case m.Bonus:
		return '✦', tcell.StyleDefault.Foreground(r.palette.Bonus).Bold(true)
	case m.Active:
		return '◆', tcell.StyleDefault.Foreground(r.palette.Lane(m.Tag)).Bold(true)
	default:
		return '◇', tcell.StyleDefault.Foreground(r.palette.Lane(m.Tag))
	}
}

func (r *Renderer) renderVerdict(v View, y int) {
	if v.Verdict == nil || y < 0 {
		return
	}
	text, color := VerdictText(*v.Verdict), r.palette.Miss
	switch v.Verdict.Quality {
	case judge.QualityPerfect:
		color = r.palette.Perfect
	case judge.QualityGreat:
		color = r.palette.Great
	case judge.QualityGood:
		color = r.palette.Good
	}
	r.screen.DrawText(laneHitX, y, text, tcell.StyleDefault.Foreground(color).Bold(true))
}

// VerdictText formats a verdict, e.g. "GREAT +42ms".
func VerdictText(v judge.Verdict) string {
	if !v.Hit {
		return "MISS"
	}
	return fmt.Sprintf("%s %+dms", strings.ToUpper(v.Quality.String()), int(math.Round(v.Offset*1000)))
}

func (r *Renderer) renderBanner(text string, color tcell.Color, width, height int) {
	style := tcell.StyleDefault.Foreground(color).Bold(true)
	y := height / 2
	r.screen.DrawText((width-TextWidth(text))/2, y, text, style)
	hint := "press q to quit"
	r.screen.DrawText((width-TextWidth(hint))/2, y+1, hint, tcell.StyleDefault.Foreground(r.palette.HUD))
}

// RenderMessage displays a message at the bottom of the screen.
func (r *Renderer) RenderMessage(msg string, y int) {
	r.screen.DrawText(1, y, msg, tcell.StyleDefault.Foreground(r.palette.Preview))
}

func formatTime(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	s := int(seconds)
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
