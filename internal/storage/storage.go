// Package storage defines the durable fallback persistence contract for
// todo items.
//
// Two interchangeable backends implement Store: a structured-record
// store (one JSON record per item, see storage/records) and a relational
// store (SQLite table, see storage/sqlite). Which backend backs the sync
// cache's mirror path is a configuration choice, not a code change.
package storage

import (
	"context"

	"github.com/apalyukha/listkit/internal/model"
)

// Store is durable key-value persistence for the full item collection,
// queryable by item id.
//
// Implementations flush synchronously: when a call returns, the change
// is on disk. Failures are returned as errors for the caller to decide
// policy; nothing in this package aborts the process.
type Store interface {
	// GetAll returns every stored item. Order is not guaranteed.
	// Records that fail to decode are skipped, not fatal.
	GetAll(ctx context.Context) ([]model.Item, error)

	// Upsert writes the item, replacing any existing record with the
	// same id. Idempotent on id.
	Upsert(ctx context.Context, item model.Item) error

	// Delete removes the record with the given id. Deleting an absent
	// id is a no-op.
	Delete(ctx context.Context, id string) error

	// Close releases any resources held by the store.
	Close() error
}
