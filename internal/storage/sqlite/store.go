package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tjfontaine/opchain-gateway/internal/storage"
)

// Store is a SQLite implementation of storage.AuditStore.
type Store struct {
	db *sql.DB
}

var _ storage.AuditStore = (*Store)(nil)

// New creates a new SQLite store
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	store := &Store{db: db}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS rewrites (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			chain_type TEXT NOT NULL,
			operations TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rewrites_user ON rewrites(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rewrites_created ON rewrites(created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	return nil
}

func (s *Store) SaveRewrite(ctx context.Context, rec *storage.RewriteRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("rewrite record id required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	ops, err := json.Marshal(rec.Operations)
	if err != nil {
		return fmt.Errorf("failed to marshal operations: %w", err)
	}

	query := `INSERT INTO rewrites (id, user_id, chain_type, operations, created_at)
	          VALUES (?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.ChainType, string(ops), rec.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save rewrite: %w", err)
	}

	return nil
}

func (s *Store) ListRewrites(ctx context.Context, opts storage.ListOptions) ([]*storage.RewriteRecord, error) {
	query := `SELECT id, user_id, chain_type, operations, created_at FROM rewrites`
	var args []any

	if opts.UserID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, opts.UserID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`
	args = append(args, storage.EffectiveLimit(opts), max(opts.Offset, 0))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query rewrites: %w", err)
	}
	defer rows.Close()

	records := []*storage.RewriteRecord{}
	for rows.Next() {
		var rec storage.RewriteRecord
		var opsJSON string
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.ChainType, &opsJSON, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rewrite: %w", err)
		}
		if err := json.Unmarshal([]byte(opsJSON), &rec.Operations); err != nil {
			return nil, fmt.Errorf("failed to unmarshal operations: %w", err)
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
