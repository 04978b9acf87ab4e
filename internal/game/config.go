package game

import (
	"github.com/samdwyer/beatkanji/internal/assign"
	"github.com/samdwyer/beatkanji/internal/beatmap"
	"github.com/samdwyer/beatkanji/internal/session"
)

// Config holds game configuration options.
type Config struct {
	// Seed for random number generation. Used for reproducible symbol sequences.
	// A seed of 0 means a random seed will be generated.
	Seed int64

	// Song is a bundled song name, or a beatmap file path when it contains a
	// path separator or ends in ".json" and exists on disk. Empty plays the demo.
	Song       string
	Difficulty beatmap.Difficulty

	// CatalogPath is a KanjiVG-derived SQLite database. Empty uses the bundled symbols.
	CatalogPath string
	Tags        []string
	MaxStrokes  int

	// RecordPath is the results database. Empty disables result keeping.
	RecordPath string

	Assign  assign.Config
	Session session.Config

	Mute   bool
	Volume float64
}

// DefaultConfig returns the configuration used when no flags are given.
func DefaultConfig() Config {
	return Config{
		Difficulty: beatmap.Easy,
		Assign:     assign.DefaultConfig(),
		Session:    session.DefaultConfig(),
		Volume:     0.8,
	}
}
