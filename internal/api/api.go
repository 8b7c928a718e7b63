// Package api provides the typed client for the remote todo backend.
//
// Every response carries a revision number: a server-assigned version
// stamp for the whole list, used by the sync cache as an
// optimistic-concurrency token on subsequent writes.
package api

import (
	"context"

	"github.com/apalyukha/listkit/internal/model"
)

// ListResponse is the body of a full-list fetch.
type ListResponse struct {
	Status   string       `json:"status"`
	List     []model.Item `json:"list"`
	Revision int          `json:"revision"`
}

// ItemResponse is the body of a single-item mutation response.
type ItemResponse struct {
	Status   string     `json:"status"`
	Element  model.Item `json:"element"`
	Revision int        `json:"revision"`
}

// ItemRequest wraps an item for create and update requests.
type ItemRequest struct {
	Element model.Item `json:"element"`
}

// Client is the transport capability consumed by the sync cache.
//
// revision, when non-nil, is sent as the last known revision so the
// server can detect conflicting concurrent writers. All calls honor
// context cancellation; a cancelled call returns ctx.Err() without a
// response.
type Client interface {
	// GetList fetches the full item list.
	GetList(ctx context.Context) (*ListResponse, error)

	// CreateItem sends a create request for the item.
	CreateItem(ctx context.Context, item model.Item, revision *int) (*ItemResponse, error)

	// UpdateItem sends an update request for the item, addressed by its id.
	UpdateItem(ctx context.Context, item model.Item, revision *int) (*ItemResponse, error)

	// DeleteItem sends a delete request for the given id.
	DeleteItem(ctx context.Context, id string, revision *int) (*ItemResponse, error)
}
