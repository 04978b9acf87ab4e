package beatmap

import (
	"fmt"
	"strings"
)

// PreparationWindow is the lead-in, in seconds, during which no note is played.
const PreparationWindow = 3.0

// Difficulty selects which note levels a player has to perform.
type Difficulty int

const (
	Easy Difficulty = iota + 1
	Medium
	Hard
)

// String returns a human-readable difficulty name.
func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "Easy"
	case Medium:
		return "Medium"
	case Hard:
		return "Hard"
	default:
		return "Unknown"
	}
}

// MaxLevel is the highest note level played at this difficulty.
func (d Difficulty) MaxLevel() int {
	switch d {
	case Easy:
		return 1
	case Medium:
		return 2
	case Hard:
		return 3
	default:
		return 0
	}
}

// ParseDifficulty accepts a name ("easy", "Medium") or a level number ("1".."3").
func ParseDifficulty(s string) (Difficulty, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy", "1":
		return Easy, nil
	case "medium", "2":
		return Medium, nil
	case "hard", "3":
		return Hard, nil
	default:
		return 0, fmt.Errorf("unknown difficulty %q", s)
	}
}

// Filter returns, in original order, the notes played at the given
// difficulty: Easy keeps level 1, Medium levels 1-2, Hard levels 1-3.
// Notes inside the preparation window are dropped. The beatmap is not modified.
func Filter(b *Beatmap, d Difficulty) []Note {
	maxLevel := d.MaxLevel()
	out := make([]Note, 0, len(b.notes))
	for _, n := range b.notes {
		if n.Time < PreparationWindow {
			continue
		}
		if n.Level > maxLevel {
			continue
		}
		out = append(out, n)
	}
	return out
}
