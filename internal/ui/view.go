package ui

import "github.com/samdwyer/beatkanji/internal/judge"

// Glyph is a symbol as shown on screen.
type Glyph struct {
	Char    string
	Keyword string
	Strokes int
	Done    int // Strokes already judged
}

// Marker is one upcoming beat on the lane.
type Marker struct {
	Offset float64 // Seconds until the beat; negative once it has passed
	Tag    string  // Beatmap source tag, used for color
	Gap    bool
	Bonus  bool // Hitting it perfectly would restore a life
	Active bool // The stroke the next press is judged against
}

// Banner is the end-of-song overlay.
type Banner int

const (
	BannerNone Banner = iota
	BannerComplete
	BannerGameOver
)

// View is everything the renderer needs for one frame.
type View struct {
	Title      string
	Difficulty string
	Score      int
	Best       int
	Combo      int
	Lives      int
	MaxLives   int
	Time       float64
	Duration   float64
	Flight     float64 // Seconds a marker takes to cross the lane
	Current    *Glyph
	Next       *Glyph
	Lane       []Marker
	Verdict    *judge.Verdict // Last judged stroke, nil before the first
	Banner     Banner
}
