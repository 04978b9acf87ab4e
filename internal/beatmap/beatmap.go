// Package beatmap provides the song note data model and difficulty filtering.
//
// File format (JSON, version "1.1"):
//
//	{
//	  "meta": {
//	    "version": "1.1",
//	    "filename": "song.mp3",
//	    "title": "Optional",
//	    "category": "Optional",
//	    "priority": 0,
//	    "bpm": 120.0,
//	    "total_duration": 95.0
//	  },
//	  "notes": [
//	    {"time": 3.0, "level": 1, "type": "drum"}
//	  ]
//	}
//
// A Beatmap is built once per song and is read-only afterwards.
package beatmap

import (
	"sort"
)

// CurrentVersion is the schema version written by the beatmap editor.
const CurrentVersion = "1.1"

// supportedVersions lists every schema version Load accepts.
var supportedVersions = map[string]bool{
	"1.0": true,
	"1.1": true,
}

// SourceTag names the stem a note was authored from.
type SourceTag string

const (
	TagBase  SourceTag = "base"
	TagDrum  SourceTag = "drum"
	TagBass  SourceTag = "bass"
	TagVocal SourceTag = "vocal"
	TagLead  SourceTag = "lead"
)

// Known reports whether the tag is one of the editor's lanes.
func (t SourceTag) Known() bool {
	switch t {
	case TagBase, TagDrum, TagBass, TagVocal, TagLead:
		return true
	default:
		return false
	}
}

// Decorative reports whether the tag only affects presentation.
// Base notes and tags from newer editors are decorative.
func (t SourceTag) Decorative() bool {
	return t == TagBase || !t.Known()
}

// Note is one rhythmic event on the audio timeline.
type Note struct {
	Time  float64   `json:"time"`  // Seconds from song start
	Level int       `json:"level"` // 1=Easy, 2=Medium, 3=Hard
	Type  SourceTag `json:"type"`
}

// Meta is the song metadata block.
type Meta struct {
	Version       string  `json:"version"`
	Filename      string  `json:"filename"` // Audio file, relative to the beatmap
	Title         string  `json:"title,omitempty"`
	Category      string  `json:"category,omitempty"`
	Priority      int     `json:"priority"`
	BPM           float64 `json:"bpm"`
	TotalDuration float64 `json:"total_duration"`
}

// DisplayTitle returns the title, or the audio filename when no title was authored.
func (m Meta) DisplayTitle() string {
	if m.Title != "" {
		return m.Title
	}
	return m.Filename
}

// Beatmap holds the metadata and time-ordered notes of a song.
type Beatmap struct {
	meta  Meta
	notes []Note
}

// New builds a beatmap from already validated parts. Notes are copied and
// sorted by time; notes at the same time keep their relative order.
func New(meta Meta, notes []Note) *Beatmap {
	sorted := make([]Note, len(notes))
	copy(sorted, notes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time < sorted[j].Time
	})
	return &Beatmap{meta: meta, notes: sorted}
}

// Meta returns the song metadata.
func (b *Beatmap) Meta() Meta {
	return b.meta
}

// Notes returns a copy of all notes in time order.
func (b *Beatmap) Notes() []Note {
	out := make([]Note, len(b.notes))
	copy(out, b.notes)
	return out
}

// Len returns the number of notes.
func (b *Beatmap) Len() int {
	return len(b.notes)
}

// NotesInRange returns notes with start <= time <= end.
func (b *Beatmap) NotesInRange(start, end float64) []Note {
	return b.collect(func(n Note) bool { return n.Time >= start && n.Time <= end })
}

// NotesByType returns notes authored from the given stem.
func (b *Beatmap) NotesByType(tag SourceTag) []Note {
	return b.collect(func(n Note) bool { return n.Type == tag })
}

// NotesByLevel returns notes at exactly the given level.
func (b *Beatmap) NotesByLevel(level int) []Note {
	return b.collect(func(n Note) bool { return n.Level == level })
}

func (b *Beatmap) collect(keep func(Note) bool) []Note {
	var out []Note
	for _, n := range b.notes {
		if keep(n) {
			out = append(out, n)
		}
	}
	return out
}
