// Package symbol provides the drawable symbols (kana and kanji) that players
// write, and the catalogs they are drawn from.
package symbol

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a symbol id is not in a catalog.
var ErrNotFound = errors.New("symbol not found")

// Symbol is a multi-stroke drawable unit.
type Symbol struct {
	ID          string   `json:"id"`          // Catalog identifier (e.g., KanjiVG id "04e00")
	Char        string   `json:"char"`        // The character itself (e.g., "一")
	StrokeCount int      `json:"strokeCount"` // Number of strokes required to complete it
	Keyword     string   `json:"keyword,omitempty"`
	Tags        []string `json:"tags,omitempty"` // e.g., "n5", "hiragana"
}

// HasTag reports whether the symbol carries the tag.
func (s Symbol) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Filter narrows a candidate query. Zero values mean "no constraint".
type Filter struct {
	Tags       []string // Symbol must carry at least one of these
	MinStrokes int
	MaxStrokes int
	Limit      int
}

// Match reports whether s satisfies every constraint except Limit.
func (f Filter) Match(s Symbol) bool {
	if s.StrokeCount <= 0 {
		return false
	}
	if f.MinStrokes > 0 && s.StrokeCount < f.MinStrokes {
		return false
	}
	if f.MaxStrokes > 0 && s.StrokeCount > f.MaxStrokes {
		return false
	}
	if len(f.Tags) == 0 {
		return true
	}
	for _, tag := range f.Tags {
		if s.HasTag(tag) {
			return true
		}
	}
	return false
}

// Catalog is a random-access pool of symbols.
type Catalog interface {
	// Candidates returns every symbol matching the filter, in catalog order.
	Candidates(ctx context.Context, f Filter) ([]Symbol, error)
	// Lookup returns the symbol with the given id, or ErrNotFound.
	Lookup(ctx context.Context, id string) (Symbol, error)
}
