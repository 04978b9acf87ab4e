package gamedata

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/samdwyer/beatkanji/internal/beatmap"
)

// DefaultSong is the bundled beatmap played when no song is given.
const DefaultSong = "demo.json"

// SongInfo describes one bundled beatmap.
type SongInfo struct {
	Name string
	Meta beatmap.Meta
}

// Songs returns a beatmap source over the bundled songs directory.
func Songs() beatmap.Source {
	sub, err := fs.Sub(dataFS, "songs")
	if err != nil {
		// songs/ is part of the embed pattern
		panic(err)
	}
	return beatmap.FSSource{FS: sub}
}

// ListSongs loads every bundled beatmap and returns them ordered by
// priority, then title.
func ListSongs(ctx context.Context) ([]SongInfo, error) {
	entries, err := fs.ReadDir(dataFS, "songs")
	if err != nil {
		return nil, fmt.Errorf("failed to list embedded songs: %w", err)
	}

	src := Songs()
	var songs []SongInfo
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		b, err := beatmap.Open(ctx, src, e.Name())
		if err != nil {
			return nil, err
		}
		songs = append(songs, SongInfo{Name: e.Name(), Meta: b.Meta()})
	}

	sort.Slice(songs, func(i, j int) bool {
		if songs[i].Meta.Priority != songs[j].Meta.Priority {
			return songs[i].Meta.Priority < songs[j].Meta.Priority
		}
		return strings.ToLower(songs[i].Meta.DisplayTitle()) < strings.ToLower(songs[j].Meta.DisplayTitle())
	})
	return songs, nil
}
