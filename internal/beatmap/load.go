package beatmap

import (
	"encoding/json"
	"fmt"
	"math"
)

// ParseError reports a malformed or incomplete beatmap file.
type ParseError struct {
	Field  string // JSON path of the offending value, empty for syntax errors
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	msg := "beatmap: "
	if e.Field != "" {
		msg += e.Field + ": "
	}
	msg += e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// file mirrors the JSON layout. Pointers distinguish absent from zero.
type file struct {
	Meta  *rawMeta `json:"meta"`
	Notes *[]Note  `json:"notes"`
}

type rawMeta struct {
	Version       *string  `json:"version"`
	Filename      string   `json:"filename"`
	Title         string   `json:"title"`
	Category      string   `json:"category"`
	Priority      int      `json:"priority"`
	BPM           *float64 `json:"bpm"`
	TotalDuration *float64 `json:"total_duration"`
}

// Load parses and validates a beatmap file.
// All failures are returned as *ParseError.
func Load(data []byte) (*Beatmap, error) {
	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &ParseError{Reason: "invalid JSON", Err: err}
	}

	meta, err := validateMeta(f.Meta)
	if err != nil {
		return nil, err
	}

	if f.Notes == nil {
		return nil, &ParseError{Field: "notes", Reason: "missing"}
	}
	for i, n := range *f.Notes {
		if err := validateNote(i, n); err != nil {
			return nil, err
		}
	}

	return New(meta, *f.Notes), nil
}

func validateMeta(raw *rawMeta) (Meta, error) {
	if raw == nil {
		return Meta{}, &ParseError{Field: "meta", Reason: "missing"}
	}
	if raw.Version == nil {
		return Meta{}, &ParseError{Field: "meta.version", Reason: "missing"}
	}
	if !supportedVersions[*raw.Version] {
		return Meta{}, &ParseError{Field: "meta.version", Reason: fmt.Sprintf("unsupported version %q", *raw.Version)}
	}
	if raw.BPM == nil {
		return Meta{}, &ParseError{Field: "meta.bpm", Reason: "missing"}
	}
	if !positive(*raw.BPM) {
		return Meta{}, &ParseError{Field: "meta.bpm", Reason: fmt.Sprintf("must be > 0, got %v", *raw.BPM)}
	}
	if raw.TotalDuration == nil {
		return Meta{}, &ParseError{Field: "meta.total_duration", Reason: "missing"}
	}
	if !positive(*raw.TotalDuration) {
		return Meta{}, &ParseError{Field: "meta.total_duration", Reason: fmt.Sprintf("must be > 0, got %v", *raw.TotalDuration)}
	}

	return Meta{
		Version:       *raw.Version,
		Filename:      raw.Filename,
		Title:         raw.Title,
		Category:      raw.Category,
		Priority:      raw.Priority,
		BPM:           *raw.BPM,
		TotalDuration: *raw.TotalDuration,
	}, nil
}

func validateNote(i int, n Note) error {
	field := fmt.Sprintf("notes[%d]", i)
	if math.IsNaN(n.Time) || math.IsInf(n.Time, 0) || n.Time < 0 {
		return &ParseError{Field: field + ".time", Reason: fmt.Sprintf("must be >= 0, got %v", n.Time)}
	}
	if n.Level < 1 || n.Level > 3 {
		return &ParseError{Field: field + ".level", Reason: fmt.Sprintf("must be 1, 2 or 3, got %d", n.Level)}
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
