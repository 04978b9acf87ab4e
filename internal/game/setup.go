package game

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"

	"github.com/samdwyer/beatkanji/internal/assign"
	"github.com/samdwyer/beatkanji/internal/beatmap"
	"github.com/samdwyer/beatkanji/internal/gamedata"
	"github.com/samdwyer/beatkanji/internal/record"
	"github.com/samdwyer/beatkanji/internal/symbol"
)

// Song is a beatmap ready to play: its notes for the chosen difficulty and
// the symbols assigned to them.
type Song struct {
	Name      string
	Beatmap   *beatmap.Beatmap
	Notes     []beatmap.Note
	Plan      assign.Plan
	Chart     string // record.ChartSum of Notes
	AudioPath string // Empty when no playable track was found
}

// Prepare loads the configured song and generates its symbol plan.
func Prepare(ctx context.Context, cfg Config, rng assign.Rand, log logr.Logger) (*Song, error) {
	src, file, dir := resolveSong(cfg.Song)
	bm, err := beatmap.Open(ctx, src, file)
	if err != nil {
		return nil, fmt.Errorf("load song %s: %w", file, err)
	}
	notes := beatmap.Filter(bm, cfg.Difficulty)

	catalog, closeCatalog, err := openCatalog(cfg, log)
	if err != nil {
		return nil, err
	}
	defer closeCatalog()

	candidates, err := catalog.Candidates(ctx, symbol.Filter{Tags: cfg.Tags, MaxStrokes: cfg.MaxStrokes})
	if err != nil {
		return nil, fmt.Errorf("query symbol catalog: %w", err)
	}

	gen := assign.NewGenerator(cfg.Assign, rng, log)
	plan, err := gen.Generate(ctx, notes, candidates)
	if err != nil {
		return nil, fmt.Errorf("assign symbols to %s: %w", file, err)
	}

	song := &Song{
		Name:    file,
		Beatmap: bm,
		Notes:   notes,
		Plan:    plan,
		Chart:   record.ChartSum(notes),
	}
	if dir != "" && bm.Meta().Filename != "" {
		track := filepath.Join(dir, bm.Meta().Filename)
		if _, err := os.Stat(track); err == nil {
			song.AudioPath = track
		} else {
			log.V(1).Info("song track not found, playing silent", "path", track)
		}
	}

	log.V(1).Info("song prepared",
		"song", file,
		"difficulty", cfg.Difficulty.String(),
		"notes", len(notes),
		"symbols", len(plan.Symbols),
		"gaps", plan.GapCount())
	return song, nil
}

// resolveSong picks the source for a song argument. Existing files are read
// from disk; anything else names a bundled song.
func resolveSong(name string) (src beatmap.Source, file, dir string) {
	if name == "" {
		return gamedata.Songs(), gamedata.DefaultSong, ""
	}
	if strings.ContainsRune(name, os.PathSeparator) || strings.HasSuffix(name, ".json") {
		if info, err := os.Stat(name); err == nil && !info.IsDir() {
			dir = filepath.Dir(name)
			return beatmap.DirSource(dir), filepath.Base(name), dir
		}
	}
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	return gamedata.Songs(), name, ""
}

// openCatalog returns the configured symbol catalog and its release func.
func openCatalog(cfg Config, log logr.Logger) (symbol.Catalog, func(), error) {
	if cfg.CatalogPath == "" {
		registry, err := gamedata.LoadSymbolRegistry()
		if err != nil {
			return nil, nil, fmt.Errorf("load bundled symbols: %w", err)
		}
		return registry, func() {}, nil
	}

	db, err := symbol.OpenSQLite(cfg.CatalogPath, log)
	if err != nil {
		return nil, nil, err
	}
	return db, func() {
		if err := db.Close(); err != nil {
			log.Error(err, "close symbol catalog")
		}
	}, nil
}
