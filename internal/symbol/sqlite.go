package symbol

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteCatalog reads symbols from a kanji database with the layout
//
//	kanji(id TEXT PRIMARY KEY, char TEXT, stroke_count INTEGER, keyword TEXT)
//	kanji_tags(kanji_id TEXT, tag TEXT)
//
// as produced by the KanjiVG import pipeline. Stroke geometry tables are ignored.
type SQLiteCatalog struct {
	db  *sql.DB
	log logr.Logger
}

// OpenSQLite opens the database at path read-only.
func OpenSQLite(path string, log logr.Logger) (*SQLiteCatalog, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open symbol catalog %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open symbol catalog %s: %w", path, err)
	}
	return &SQLiteCatalog{db: db, log: log.WithName("catalog")}, nil
}

// NewSQLiteCatalog wraps an already open database.
func NewSQLiteCatalog(db *sql.DB, log logr.Logger) *SQLiteCatalog {
	return &SQLiteCatalog{db: db, log: log.WithName("catalog")}
}

// Close releases the database.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}

// Candidates queries symbols matching f, ordered by id.
func (c *SQLiteCatalog) Candidates(ctx context.Context, f Filter) ([]Symbol, error) {
	var (
		where []string
		args  []any
	)
	where = append(where, "k.stroke_count > 0")
	if f.MinStrokes > 0 {
		where = append(where, "k.stroke_count >= ?")
		args = append(args, f.MinStrokes)
	}
	if f.MaxStrokes > 0 {
		where = append(where, "k.stroke_count <= ?")
		args = append(args, f.MaxStrokes)
	}
	if len(f.Tags) > 0 {
		marks := strings.TrimSuffix(strings.Repeat("?,", len(f.Tags)), ",")
		where = append(where, "k.id IN (SELECT kanji_id FROM kanji_tags WHERE tag IN ("+marks+"))")
		for _, tag := range f.Tags {
			args = append(args, tag)
		}
	}

	query := "SELECT k.id, k.char, k.stroke_count, COALESCE(k.keyword, '') FROM kanji k WHERE " +
		strings.Join(where, " AND ") + " ORDER BY k.id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}
	defer rows.Close()

	var out []Symbol
	index := make(map[string]int)
	for rows.Next() {
		var s Symbol
		if err := rows.Scan(&s.ID, &s.Char, &s.StrokeCount, &s.Keyword); err != nil {
			return nil, fmt.Errorf("scan symbol: %w", err)
		}
		index[s.ID] = len(out)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query symbols: %w", err)
	}

	if err := c.attachTags(ctx, out, index); err != nil {
		return nil, err
	}

	c.log.V(1).Info("queried candidates", "tags", f.Tags, "count", len(out))
	return out, nil
}

// Lookup returns one symbol by id.
func (c *SQLiteCatalog) Lookup(ctx context.Context, id string) (Symbol, error) {
	var s Symbol
	err := c.db.QueryRowContext(ctx,
		"SELECT id, char, stroke_count, COALESCE(keyword, '') FROM kanji WHERE id = ?", id,
	).Scan(&s.ID, &s.Char, &s.StrokeCount, &s.Keyword)
	if errors.Is(err, sql.ErrNoRows) {
		return Symbol{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Symbol{}, fmt.Errorf("lookup symbol %s: %w", id, err)
	}

	one := []Symbol{s}
	if err := c.attachTags(ctx, one, map[string]int{s.ID: 0}); err != nil {
		return Symbol{}, err
	}
	return one[0], nil
}

func (c *SQLiteCatalog) attachTags(ctx context.Context, symbols []Symbol, index map[string]int) error {
	if len(symbols) == 0 {
		return nil
	}
	rows, err := c.db.QueryContext(ctx, "SELECT kanji_id, tag FROM kanji_tags ORDER BY kanji_id, tag")
	if err != nil {
		return fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, tag string
		if err := rows.Scan(&id, &tag); err != nil {
			return fmt.Errorf("scan tag: %w", err)
		}
		if i, ok := index[id]; ok {
			symbols[i].Tags = append(symbols[i].Tags, tag)
		}
	}
	return rows.Err()
}
