package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/funnelforge/funnelforge"
)

// SQLiteStore persists pages in a single SQLite table keyed by page id.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// NewSQLiteStore opens (creating if needed) the database at dbPath and
// ensures the pages table exists.
func NewSQLiteStore(dbPath, table string) (*SQLiteStore, error) {
	if table == "" {
		return nil, fmt.Errorf("sqlite store: table name is required")
	}
	if !isValidIdentifier(table) {
		return nil, fmt.Errorf("sqlite store: invalid table name %q", table)
	}
	if dbPath == "" {
		dbPath = "./funnelforge.db"
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite store: failed to connect: %w", err)
	}

	s := &SQLiteStore{db: db, table: table}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) ensureSchema() error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		document TEXT NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`, s.table)
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("sqlite store: create table: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, id string) (*funnelforge.Document, error) {
	if !ValidPageID(id) {
		return nil, fmt.Errorf("sqlite store: invalid page id %q", id)
	}
	query := fmt.Sprintf("SELECT document FROM %s WHERE id = ?", s.table)
	var raw string
	err := s.db.QueryRowContext(ctx, query, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite store: load %q: %w", id, err)
	}
	var doc funnelforge.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("sqlite store: parse %q: %w", id, err)
	}
	return &doc, nil
}

func (s *SQLiteStore) Save(ctx context.Context, id string, doc *funnelforge.Document) error {
	if !ValidPageID(id) {
		return fmt.Errorf("sqlite store: invalid page id %q", id)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("sqlite store: encode %q: %w", id, err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, document, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET document = excluded.document, updated_at = CURRENT_TIMESTAMP`, s.table)
	if _, err := s.db.ExecContext(ctx, query, id, string(data)); err != nil {
		return fmt.Errorf("sqlite store: save %q: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if !ValidPageID(id) {
		return fmt.Errorf("sqlite store: invalid page id %q", id)
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", s.table)
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("sqlite store: delete %q: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf("SELECT id FROM %s ORDER BY id", s.table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sqlite store: list: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sqlite store: list: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// isValidIdentifier reports whether name is safe to interpolate as a SQL
// table name.
func isValidIdentifier(name string) bool {
	if name == "" || len(name) > 64 {
		return false
	}
	for i, r := range name {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		if i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return false
	}
	return true
}
