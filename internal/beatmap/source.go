package beatmap

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samdwyer/beatkanji/internal/telemetry"
)

// Source supplies the raw bytes of a beatmap by name.
type Source interface {
	ReadBeatmap(name string) ([]byte, error)
}

// FSSource reads beatmaps from a filesystem, e.g. os.DirFS or an embed.FS.
type FSSource struct {
	FS fs.FS
}

// ReadBeatmap reads the named file from the filesystem.
func (s FSSource) ReadBeatmap(name string) ([]byte, error) {
	return fs.ReadFile(s.FS, name)
}

// DirSource returns a Source rooted at dir.
func DirSource(dir string) FSSource {
	return FSSource{FS: os.DirFS(dir)}
}

// Open reads the named beatmap from src and parses it.
// Read failures are wrapped; parse failures are returned as *ParseError.
func Open(ctx context.Context, src Source, name string) (*Beatmap, error) {
	_, span := telemetry.Tracer("beatmap").Start(ctx, "beatmap.load")
	defer span.End()
	span.SetAttributes(attribute.String("beatmap.name", filepath.Base(name)))

	data, err := src.ReadBeatmap(name)
	if err != nil {
		span.SetStatus(codes.Error, "read failed")
		return nil, fmt.Errorf("read beatmap %s: %w", name, err)
	}

	b, err := Load(data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.String("beatmap.version", b.meta.Version),
		attribute.Float64("beatmap.bpm", b.meta.BPM),
		attribute.Int("beatmap.notes", len(b.notes)),
	)
	return b, nil
}
