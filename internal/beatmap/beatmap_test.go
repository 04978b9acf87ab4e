package beatmap

import (
	"context"
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"
)

const validMap = `{
  "meta": {
    "version": "1.1",
    "filename": "song.mp3",
    "title": "Test Song",
    "category": "pop",
    "priority": 2,
    "bpm": 120.0,
    "total_duration": 30.0
  },
  "notes": [
    {"time": 4.0, "level": 2, "type": "bass"},
    {"time": 1.5, "level": 1, "type": "drum"},
    {"time": 3.0, "level": 1, "type": "drum"},
    {"time": 3.5, "level": 3, "type": "lead"},
    {"time": 5.0, "level": 1, "type": "synth"}
  ]
}`

func TestLoadValid(t *testing.T) {
	b, err := Load([]byte(validMap))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	meta := b.Meta()
	if meta.BPM != 120 {
		t.Errorf("Meta().BPM = %v, want 120", meta.BPM)
	}
	if meta.TotalDuration != 30 {
		t.Errorf("Meta().TotalDuration = %v, want 30", meta.TotalDuration)
	}
	if meta.DisplayTitle() != "Test Song" {
		t.Errorf("Meta().DisplayTitle() = %q, want %q", meta.DisplayTitle(), "Test Song")
	}
	if meta.Priority != 2 {
		t.Errorf("Meta().Priority = %d, want 2", meta.Priority)
	}
	if b.Len() != 5 {
		t.Fatalf("Len() = %d, want 5", b.Len())
	}

	notes := b.Notes()
	for i := 1; i < len(notes); i++ {
		if notes[i].Time < notes[i-1].Time {
			t.Errorf("Notes() not sorted at %d: %v after %v", i, notes[i].Time, notes[i-1].Time)
		}
	}
	if notes[0].Time != 1.5 {
		t.Errorf("Notes()[0].Time = %v, want 1.5", notes[0].Time)
	}
}

func TestLoadKeepsUnknownTags(t *testing.T) {
	b, err := Load([]byte(validMap))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	synth := b.NotesByType("synth")
	if len(synth) != 1 {
		t.Fatalf("NotesByType(synth) = %d notes, want 1", len(synth))
	}
	if synth[0].Type.Known() {
		t.Error("unknown tag reported as Known()")
	}
	if !synth[0].Type.Decorative() {
		t.Error("unknown tag should be Decorative()")
	}
	if !TagBase.Decorative() {
		t.Error("base tag should be Decorative()")
	}
	if TagDrum.Decorative() {
		t.Error("drum tag should not be Decorative()")
	}
}

func TestLoadEmptyNotes(t *testing.T) {
	b, err := Load([]byte(`{"meta":{"version":"1.1","bpm":90,"total_duration":12},"notes":[]}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if b.Len() != 0 {
		t.Errorf("Len() = %d, want 0", b.Len())
	}
	if b.Meta().DisplayTitle() != "" {
		t.Errorf("DisplayTitle() = %q, want empty", b.Meta().DisplayTitle())
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"syntax", `{"meta":`, ""},
		{"trailing data", `{"meta":{"version":"1.1","bpm":120,"total_duration":10},"notes":[]}xyz`, ""},
		{"second value", `{"meta":{"version":"1.1","bpm":120,"total_duration":10},"notes":[]} {}`, ""},
		{"no meta", `{"notes":[]}`, "meta"},
		{"no version", `{"meta":{"bpm":120,"total_duration":10},"notes":[]}`, "meta.version"},
		{"bad version", `{"meta":{"version":"2.0","bpm":120,"total_duration":10},"notes":[]}`, "meta.version"},
		{"no bpm", `{"meta":{"version":"1.1","total_duration":10},"notes":[]}`, "meta.bpm"},
		{"zero bpm", `{"meta":{"version":"1.1","bpm":0,"total_duration":10},"notes":[]}`, "meta.bpm"},
		{"no duration", `{"meta":{"version":"1.1","bpm":120},"notes":[]}`, "meta.total_duration"},
		{"negative duration", `{"meta":{"version":"1.1","bpm":120,"total_duration":-1},"notes":[]}`, "meta.total_duration"},
		{"no notes", `{"meta":{"version":"1.0","bpm":120,"total_duration":10}}`, "notes"},
		{"bad level", `{"meta":{"version":"1.1","bpm":120,"total_duration":10},"notes":[{"time":4,"level":4,"type":"drum"}]}`, "notes[0].level"},
		{"negative time", `{"meta":{"version":"1.1","bpm":120,"total_duration":10},"notes":[{"time":4,"level":1,"type":"drum"},{"time":-1,"level":1,"type":"drum"}]}`, "notes[1].time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.input))
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("Load() error = %v, want *ParseError", err)
			}
			if perr.Field != tt.field {
				t.Errorf("ParseError.Field = %q, want %q", perr.Field, tt.field)
			}
			if perr.Error() == "" {
				t.Error("ParseError.Error() is empty")
			}
		})
	}
}

func TestFilter(t *testing.T) {
	b := New(Meta{Version: CurrentVersion, BPM: 120, TotalDuration: 20}, []Note{
		{Time: 0.5, Level: 1, Type: TagDrum},
		{Time: 2.999, Level: 1, Type: TagDrum},
		{Time: 3.0, Level: 1, Type: TagDrum},
		{Time: 3.5, Level: 2, Type: TagBass},
		{Time: 4.0, Level: 3, Type: TagLead},
		{Time: 4.5, Level: 1, Type: TagVocal},
		{Time: 5.0, Level: 2, Type: TagBase},
	})

	tests := []struct {
		difficulty Difficulty
		want       []float64
	}{
		{Easy, []float64{3.0, 4.5}},
		{Medium, []float64{3.0, 3.5, 4.5, 5.0}},
		{Hard, []float64{3.0, 3.5, 4.0, 4.5, 5.0}},
	}

	for _, tt := range tests {
		got := Filter(b, tt.difficulty)
		if len(got) != len(tt.want) {
			t.Errorf("Filter(%v) = %d notes, want %d", tt.difficulty, len(got), len(tt.want))
			continue
		}
		for i, n := range got {
			if n.Time != tt.want[i] {
				t.Errorf("Filter(%v)[%d].Time = %v, want %v", tt.difficulty, i, n.Time, tt.want[i])
			}
			if n.Level > tt.difficulty.MaxLevel() {
				t.Errorf("Filter(%v)[%d].Level = %d above max %d", tt.difficulty, i, n.Level, tt.difficulty.MaxLevel())
			}
		}
	}

	if b.Len() != 7 {
		t.Errorf("Filter mutated the beatmap: Len() = %d, want 7", b.Len())
	}
}

func TestNotesReturnsCopy(t *testing.T) {
	b := New(Meta{BPM: 100, TotalDuration: 5}, []Note{{Time: 3, Level: 1, Type: TagDrum}})
	notes := b.Notes()
	notes[0].Time = 99

	if b.Notes()[0].Time != 3 {
		t.Error("modifying Notes() result changed the beatmap")
	}
}

func TestQueries(t *testing.T) {
	b, err := Load([]byte(validMap))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := len(b.NotesInRange(3.0, 4.0)); got != 3 {
		t.Errorf("NotesInRange(3, 4) = %d notes, want 3", got)
	}
	if got := len(b.NotesByLevel(1)); got != 3 {
		t.Errorf("NotesByLevel(1) = %d notes, want 3", got)
	}
	if got := len(b.NotesByType(TagDrum)); got != 2 {
		t.Errorf("NotesByType(drum) = %d notes, want 2", got)
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		input string
		want  Difficulty
		valid bool
	}{
		{"easy", Easy, true},
		{"Medium", Medium, true},
		{" HARD ", Hard, true},
		{"2", Medium, true},
		{"expert", 0, false},
	}

	for _, tt := range tests {
		got, err := ParseDifficulty(tt.input)
		if tt.valid && err != nil {
			t.Errorf("ParseDifficulty(%q) error = %v", tt.input, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("ParseDifficulty(%q) should fail", tt.input)
		}
		if got != tt.want {
			t.Errorf("ParseDifficulty(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestDifficultyString(t *testing.T) {
	tests := []struct {
		d    Difficulty
		want string
	}{
		{Easy, "Easy"},
		{Medium, "Medium"},
		{Hard, "Hard"},
		{Difficulty(42), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("Difficulty(%d).String() = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestOpen(t *testing.T) {
	src := FSSource{FS: fstest.MapFS{
		"songs/test.json":   {Data: []byte(validMap)},
		"songs/broken.json": {Data: []byte(`{"meta":{}}`)},
	}}
	ctx := context.Background()

	b, err := Open(ctx, src, "songs/test.json")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if b.Len() != 5 {
		t.Errorf("Open().Len() = %d, want 5", b.Len())
	}

	_, err = Open(ctx, src, "songs/broken.json")
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Errorf("Open(broken) error = %v, want *ParseError", err)
	}

	_, err = Open(ctx, src, "songs/missing.json")
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Open(missing) error = %v, want fs.ErrNotExist", err)
	}
}
