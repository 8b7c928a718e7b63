// Package records implements the structured-record storage backend:
// one JSON file per item in a flat data directory.
//
// This is the default mirror target for the sync cache. The layout is
// deliberately simple - {id}.json per item - so records survive partial
// failures independently and external tools (or another process) can
// edit them.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/apalyukha/listkit/internal/model"
)

// Store persists items as individual JSON files under a directory.
type Store struct {
	dir    string
	logger *log.Logger
}

// Open creates a record store rooted at dir, creating the directory if
// needed. If logger is nil, a default logger writing to stderr is used.
func Open(dir string, logger *log.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create records directory: %w", err)
	}
	if logger == nil {
		logger = log.New(os.Stderr, "[records] ", log.LstdFlags)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the directory backing the store.
func (s *Store) Dir() string {
	return s.dir
}

// GetAll reads every record in the directory. Files that cannot be read
// or decoded are logged and skipped so one corrupt record does not sink
// the whole load.
func (s *Store) GetAll(ctx context.Context) ([]model.Item, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read records directory: %w", err)
	}

	var items []model.Item
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			s.logger.Printf("Skipping unreadable record %s: %v", entry.Name(), err)
			continue
		}

		var item model.Item
		if err := json.Unmarshal(data, &item); err != nil {
			s.logger.Printf("Skipping malformed record %s: %v", entry.Name(), err)
			continue
		}
		items = append(items, item)
	}

	return items, nil
}

// Upsert writes the item's record, replacing any existing file for the
// same id. The write is atomic: data goes to a temp file first, then a
// rename swaps it into place.
func (s *Store) Upsert(ctx context.Context, item model.Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := item.Validate(); err != nil {
		return fmt.Errorf("invalid item: %w", err)
	}

	data, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal item %s: %w", item.ID, err)
	}

	path := s.recordPath(item.ID)
	tmp, err := os.CreateTemp(s.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp record: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write record %s: %w", item.ID, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to flush record %s: %w", item.ID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close record %s: %w", item.ID, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to store record %s: %w", item.ID, err)
	}
	return nil
}

// Delete removes the record for id. Returns nil if the record does not
// exist (idempotent).
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := os.Remove(s.recordPath(id))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	return nil
}

// Close implements storage.Store. The record store holds no open
// resources.
func (s *Store) Close() error {
	return nil
}

func (s *Store) recordPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}
