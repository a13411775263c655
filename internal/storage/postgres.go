package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/funnelforge/funnelforge"
)

// PostgresStore persists pages in a PostgreSQL table with a JSONB column.
type PostgresStore struct {
	db    *sql.DB
	table string
}

// NewPostgresStore connects using dsn, falling back to DATABASE_URL when
// dsn is empty.
func NewPostgresStore(dsn, table string) (*PostgresStore, error) {
	if table == "" {
		return nil, fmt.Errorf("postgres store: table name is required")
	}
	if !isValidIdentifier(table) {
		return nil, fmt.Errorf("postgres store: invalid table name %q", table)
	}
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		return nil, fmt.Errorf("postgres store: connection required (set store.dsn or DATABASE_URL env)")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres store: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres store: failed to connect: %w", err)
	}

	s := &PostgresStore{db: db, table: table}
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		document JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, s.table)
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("postgres store: create table: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, id string) (*funnelforge.Document, error) {
	if !ValidPageID(id) {
		return nil, fmt.Errorf("postgres store: invalid page id %q", id)
	}
	query := fmt.Sprintf("SELECT document FROM %s WHERE id = $1", s.table)
	var raw []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres store: load %q: %w", id, err)
	}
	var doc funnelforge.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("postgres store: parse %q: %w", id, err)
	}
	return &doc, nil
}

func (s *PostgresStore) Save(ctx context.Context, id string, doc *funnelforge.Document) error {
	if !ValidPageID(id) {
		return fmt.Errorf("postgres store: invalid page id %q", id)
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("postgres store: encode %q: %w", id, err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (id, document, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document, updated_at = now()`, s.table)
	if _, err := s.db.ExecContext(ctx, query, id, data); err != nil {
		return fmt.Errorf("postgres store: save %q: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if !ValidPageID(id) {
		return fmt.Errorf("postgres store: invalid page id %q", id)
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", s.table)
	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("postgres store: delete %q: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf("SELECT id FROM %s ORDER BY id", s.table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres store: list: %w", err)
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres store: list: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *PostgresStore) Close() error { return s.db.Close() }
