// Package sqlite implements the relational storage backend for todo
// items over an embedded SQLite database.
//
// It fulfills the same contract as the record store and can be swapped
// in behind storage.Store via configuration. The database runs in WAL
// mode so concurrent readers do not block writes.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apalyukha/listkit/internal/model"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Store wraps the SQLite connection with item persistence operations.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates a new database connection at the specified path.
//
// The database file and schema are created on first use. The caller
// MUST call Close() when done to checkpoint the WAL and release the
// connection.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &Store{conn: conn, path: path}

	// WAL for concurrent reads during writes.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := store.initSchema(); err != nil {
		_ = store.Close()
		return nil, err
	}

	return store, nil
}

// Close checkpoints the WAL and closes the database connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.conn = nil
	return nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		importance TEXT NOT NULL DEFAULT 'basic',
		deadline INTEGER,          -- unix seconds, NULL when unset
		done INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		changed_at INTEGER NOT NULL,
		color TEXT,
		last_updated_by TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_done ON items(done);
	CREATE INDEX IF NOT EXISTS idx_items_deadline ON items(deadline);
	`

	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// GetAll returns every stored item. Rows with an unknown importance
// value are skipped rather than failing the whole read.
func (s *Store) GetAll(ctx context.Context) ([]model.Item, error) {
	query := `
	SELECT id, text, importance, deadline, done, created_at, changed_at, color, last_updated_by
	FROM items
	`

	rows, err := s.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		var (
			item       model.Item
			importance string
			deadline   sql.NullInt64
			done       int
			createdAt  int64
			changedAt  int64
			color      sql.NullString
		)

		if err := rows.Scan(
			&item.ID,
			&item.Text,
			&importance,
			&deadline,
			&done,
			&createdAt,
			&changedAt,
			&color,
			&item.LastUpdatedBy,
		); err != nil {
			return nil, fmt.Errorf("failed to scan item row: %w", err)
		}

		parsed, err := model.ParseImportance(importance)
		if err != nil {
			continue
		}
		item.Importance = parsed
		item.Done = done != 0
		item.CreatedAt = time.Unix(createdAt, 0)
		item.ChangedAt = time.Unix(changedAt, 0)
		if deadline.Valid {
			d := time.Unix(deadline.Int64, 0)
			item.Deadline = &d
		}
		if color.Valid {
			c := color.String
			item.Color = &c
		}

		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate item rows: %w", err)
	}

	return items, nil
}

// Upsert inserts or updates the item's row.
//
// The write runs as select-then-insert-or-update inside a transaction:
// an existing row is updated in place, otherwise a new row is inserted.
// Idempotent on id.
func (s *Store) Upsert(ctx context.Context, item model.Item) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("invalid item: %w", err)
	}

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM items WHERE id = ?`, item.ID).Scan(&exists)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		insert := `
		INSERT INTO items (id, text, importance, deadline, done, created_at, changed_at, color, last_updated_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err = tx.ExecContext(ctx, insert,
			item.ID,
			item.Text,
			string(item.Importance),
			timeToNullInt(item.Deadline),
			boolToInt(item.Done),
			item.CreatedAt.Unix(),
			item.ChangedAt.Unix(),
			nullString(item.Color),
			item.LastUpdatedBy,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item %s: %w", item.ID, err)
		}
	case err != nil:
		return fmt.Errorf("failed to check item %s: %w", item.ID, err)
	default:
		update := `
		UPDATE items
		SET text = ?, importance = ?, deadline = ?, done = ?, created_at = ?, changed_at = ?, color = ?, last_updated_by = ?
		WHERE id = ?
		`
		_, err = tx.ExecContext(ctx, update,
			item.Text,
			string(item.Importance),
			timeToNullInt(item.Deadline),
			boolToInt(item.Done),
			item.CreatedAt.Unix(),
			item.ChangedAt.Unix(),
			nullString(item.Color),
			item.LastUpdatedBy,
			item.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update item %s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit upsert of %s: %w", item.ID, err)
	}
	return nil
}

// Delete removes the item's row. Returns nil if the row doesn't exist
// (idempotent).
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.conn.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item %s: %w", id, err)
	}
	return nil
}

func timeToNullInt(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
