package projection

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

const memoryDSN = ":memory:"

// PendingStore persists unconfirmed local mutations in SQLite, keyed by resource and entity id.
type PendingStore struct {
	db *sql.DB
}

var _ PendingPersister = (*PendingStore)(nil)

// OpenPendingStore opens or creates the store. Use ":memory:" for a throwaway store.
func OpenPendingStore(path string) (*PendingStore, error) {
	if path != memoryDSN {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create db directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection: SQLite has one writer and ":memory:" is per connection.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS pending_mutations (
			resource TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			body TEXT NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (resource, entity_id)
		)
	`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create pending_mutations table: %w", err)
	}
	return &PendingStore{db: db}, nil
}

func (s *PendingStore) Close() error {
	return s.db.Close()
}

// Save upserts the entity. The preview handle is stripped, it cannot survive a reload.
func (s *PendingStore) Save(ctx context.Context, resource string, e Entity) error {
	e.PreviewURL = ""
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to encode pending mutation: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pending_mutations (resource, entity_id, body, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (resource, entity_id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at
	`, resource, e.ID, string(body), e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save pending mutation: %w", err)
	}
	return nil
}

func (s *PendingStore) Delete(ctx context.Context, resource string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, 0, len(ids)+1)
	args = append(args, resource)
	for _, id := range ids {
		args = append(args, id)
	}
	query := `DELETE FROM pending_mutations WHERE resource = ? AND entity_id IN (?` +
		strings.Repeat(", ?", len(ids)-1) + `)`
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete pending mutations: %w", err)
	}
	return nil
}

func (s *PendingStore) LoadAll(ctx context.Context) (map[string][]Entity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT resource, body FROM pending_mutations ORDER BY resource, updated_at, entity_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending mutations: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]Entity)
	for rows.Next() {
		var resource, body string
		if err := rows.Scan(&resource, &body); err != nil {
			return nil, fmt.Errorf("failed to scan pending mutation: %w", err)
		}
		var e Entity
		if err := json.Unmarshal([]byte(body), &e); err != nil {
			return nil, fmt.Errorf("failed to decode pending mutation: %w", err)
		}
		out[resource] = append(out[resource], e)
	}
	return out, rows.Err()
}
