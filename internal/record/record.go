// Package record keeps finished-song results in a local SQLite database.
package record

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/samdwyer/beatkanji/internal/beatmap"
)

const schema = `
create table if not exists results
  (
	  id text not null primary key,
	  song text not null,
	  chart text not null,
	  difficulty text not null,
	  score integer not null,
	  max_combo integer not null,
	  hits integer not null,
	  misses integer not null,
	  perfect integer not null,
	  great integer not null,
	  good integer not null,
	  cleared integer not null,
	  played_at integer not null
  );
create index if not exists idx_results_chart on results(chart, difficulty);
`

const columns = "id, song, chart, difficulty, score, max_combo, hits, misses, perfect, great, good, cleared, played_at"

// Result is one finished attempt at a song.
type Result struct {
	ID         string
	Song       string // Display title
	Chart      string // ChartSum of the played notes
	Difficulty string
	Score      int
	MaxCombo   int
	Hits       int
	Misses     int
	Perfect    int
	Great      int
	Good       int
	Cleared    bool // Song completed rather than game over
	PlayedAt   time.Time
}

// Store persists results.
type Store struct {
	db  *sql.DB
	log logr.Logger
}

// Open opens or creates the results database at path.
func Open(path string, log logr.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open results db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create results schema: %w", err)
	}
	log.V(1).Info("results store open", "path", path)
	return &Store{db: db, log: log.WithName("record")}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts r, filling in ID and PlayedAt when unset.
func (s *Store) Save(ctx context.Context, r *Result) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.PlayedAt.IsZero() {
		r.PlayedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx,
		"insert into results("+columns+") values(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		r.ID, r.Song, r.Chart, r.Difficulty, r.Score, r.MaxCombo, r.Hits, r.Misses,
		r.Perfect, r.Great, r.Good, r.Cleared, r.PlayedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	s.log.V(1).Info("result saved", "id", r.ID, "song", r.Song, "score", r.Score)
	return nil
}

// Best returns the highest-scoring result for a chart and difficulty.
// ok is false when nothing was recorded yet.
func (s *Store) Best(ctx context.Context, chart, difficulty string) (r Result, ok bool, err error) {
	row := s.db.QueryRowContext(ctx,
		"select "+columns+" from results where chart = ? and difficulty = ? order by score desc, played_at asc limit 1",
		chart, difficulty)
	r, err = scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Result{}, false, nil
	}
	if err != nil {
		return Result{}, false, fmt.Errorf("query best result: %w", err)
	}
	return r, true, nil
}

// Recent returns up to limit results, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Result, error) {
	rows, err := s.db.QueryContext(ctx,
		"select "+columns+" from results order by played_at desc limit ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query recent results: %w", err)
	}
	defer rows.Close()

	var out []Result
	for rows.Next() {
		r, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(row scanner) (Result, error) {
	var (
		r      Result
		played int64
	)
	err := row.Scan(&r.ID, &r.Song, &r.Chart, &r.Difficulty, &r.Score, &r.MaxCombo,
		&r.Hits, &r.Misses, &r.Perfect, &r.Great, &r.Good, &r.Cleared, &played)
	if err != nil {
		return Result{}, err
	}
	r.PlayedAt = time.UnixMilli(played)
	return r, nil
}

// ChartSum fingerprints the notes actually played, so edits to a beatmap
// start a fresh leaderboard.
func ChartSum(notes []beatmap.Note) string {
	h := sha256.New()
	var buf [8]byte
	for _, n := range notes {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(n.Time))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], uint64(n.Level))
		h.Write(buf[:])
		h.Write([]byte(n.Type))
	}
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
