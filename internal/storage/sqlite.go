package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ RenderStore = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS renders (
			id TEXT PRIMARY KEY,
			source_path TEXT,
			model_hash TEXT,
			output TEXT,
			sections JSON,
			updated_at TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_renders_source ON renders(source_path);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) SaveRender(ctx context.Context, r *Render) error {
	if r == nil || r.ID == "" {
		return fmt.Errorf("render id is required")
	}
	sections, err := json.Marshal(r.Sections)
	if err != nil {
		return err
	}
	updated := r.UpdatedAt
	if updated.IsZero() {
		updated = time.Now()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO renders (id, source_path, model_hash, output, sections, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_path=excluded.source_path,
			model_hash=excluded.model_hash,
			output=excluded.output,
			sections=excluded.sections,
			updated_at=excluded.updated_at
	`, r.ID, r.SourcePath, r.ModelHash, r.Output, string(sections), updated.UTC().Format(time.RFC3339Nano))
	return err
}

func (s *SQLiteStore) GetRender(ctx context.Context, id string) (*Render, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, source_path, model_hash, output, sections, updated_at FROM renders WHERE id = ?", id)
	r, err := scanRender(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *SQLiteStore) ListRenders(ctx context.Context) ([]*Render, error) {
	return s.queryRenders(ctx, "SELECT id, source_path, model_hash, output, sections, updated_at FROM renders ORDER BY id")
}

func (s *SQLiteStore) FindRendersBySource(ctx context.Context, sourcePath string) ([]*Render, error) {
	return s.queryRenders(ctx, "SELECT id, source_path, model_hash, output, sections, updated_at FROM renders WHERE source_path = ? ORDER BY id", sourcePath)
}

func (s *SQLiteStore) queryRenders(ctx context.Context, query string, args ...any) ([]*Render, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query renders: %w", err)
	}
	defer rows.Close()

	var out []*Render
	for rows.Next() {
		r, err := scanRender(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan render: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) PruneRenders(ctx context.Context, keep []string) ([]*Render, error) {
	existing, err := s.ListRenders(ctx)
	if err != nil {
		return nil, err
	}
	keepSet := make(map[string]bool, len(keep))
	for _, id := range keep {
		keepSet[id] = true
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "DELETE FROM renders WHERE id = ?")
	if err != nil {
		return nil, err
	}
	defer stmt.Close()

	var removed []*Render
	for _, r := range existing {
		if keepSet[r.ID] {
			continue
		}
		if _, err := stmt.ExecContext(ctx, r.ID); err != nil {
			return nil, err
		}
		removed = append(removed, r)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return removed, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRender(row rowScanner) (*Render, error) {
	var r Render
	var sections []byte
	var updated string
	if err := row.Scan(&r.ID, &r.SourcePath, &r.ModelHash, &r.Output, &sections, &updated); err != nil {
		return nil, err
	}
	if len(sections) > 0 {
		if err := json.Unmarshal(sections, &r.Sections); err != nil {
			return nil, fmt.Errorf("failed to decode sections of %s: %w", r.ID, err)
		}
	}
	if t, err := time.Parse(time.RFC3339Nano, updated); err == nil {
		r.UpdatedAt = t
	}
	return &r, nil
}
