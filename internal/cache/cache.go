// Package cache implements the local-first synchronization cache: the
// single source of truth for the todo item collection.
//
// The cache attempts every operation against the remote backend first
// and falls back to optimistic local mutation when the remote call
// fails. Remote is best-effort; the local store is the durability
// guarantee. Transport failures are therefore recovered internally and
// never surfaced to callers - an operation that returns nil only means
// it completed, not that the server accepted it.
//
// Concurrency: mutating operations (Load, Add, Update, Remove) are
// serialized by an internal operation lock, so overlapping calls from
// multiple goroutines execute one at a time in lock-acquisition order.
// Items and Revision are safe to call from any goroutine.
package cache

import (
	"context"
	"log"
	"os"
	"slices"
	"sync"

	"github.com/apalyukha/listkit/internal/api"
	"github.com/apalyukha/listkit/internal/model"
	"github.com/apalyukha/listkit/internal/observers"
	"github.com/apalyukha/listkit/internal/storage"
)

// Observer receives the new collection after every observable change.
//
// Callbacks run on the goroutine that performed the mutation, after the
// change has been mirrored to the local store. Observers must not
// mutate the slice they receive.
type Observer interface {
	ItemsChanged(items []model.Item)
}

// Provider is the cache surface exposed to callers (CLI, dashboard).
type Provider interface {
	// Items returns a snapshot of the current collection.
	Items() []model.Item

	// Revision returns the last server revision and whether one is
	// known. It stays unknown until the first successful remote call.
	Revision() (int, bool)

	// Load fetches the full list from the remote backend, falling back
	// to the local store when the fetch fails.
	Load(ctx context.Context) error

	// Add creates the item remotely, inserting it locally on failure.
	Add(ctx context.Context, item model.Item) error

	// Update replaces the item (matched by id) remotely, replacing it
	// locally on failure.
	Update(ctx context.Context, item model.Item) error

	// Remove deletes the item with the given id remotely, removing it
	// locally on failure.
	Remove(ctx context.Context, id string) error

	AddObserver(o Observer)
	RemoveObserver(o Observer)
}

// Cache is the Provider implementation backed by a remote client and a
// local store.
type Cache struct {
	client api.Client
	store  storage.Store
	logger *log.Logger

	// ops serializes mutating operations end to end, including the
	// remote call. Overlapping writers run one at a time.
	ops sync.Mutex

	// mu guards items and revision for concurrent snapshot reads.
	mu       sync.RWMutex
	items    []model.Item
	revision *int

	observers *observers.Container[Observer]
}

var _ Provider = (*Cache)(nil)

// New creates a cache over the given transport and local store. If
// logger is nil, a default logger writing to stderr is used.
func New(client api.Client, store storage.Store, logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.New(os.Stderr, "[cache] ", log.LstdFlags)
	}
	return &Cache{
		client:    client,
		store:     store,
		logger:    logger,
		observers: observers.NewContainer[Observer](),
	}
}

// Items implements Provider.Items.
func (c *Cache) Items() []model.Item {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.items)
}

// Revision implements Provider.Revision.
func (c *Cache) Revision() (int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.revision == nil {
		return 0, false
	}
	return *c.revision, true
}

// AddObserver registers a change subscriber. Adding the same observer
// twice is a no-op.
func (c *Cache) AddObserver(o Observer) {
	c.observers.Add(o)
}

// RemoveObserver unregisters a change subscriber. Removing an absent
// observer is a no-op.
func (c *Cache) RemoveObserver(o Observer) {
	c.observers.Remove(o)
}

// Load implements Provider.Load.
//
// On remote success the collection is replaced wholesale with the
// server list and the revision is adopted. On remote failure the
// collection is loaded from the local store instead; the failure is
// logged, not returned, so startup is best-effort. Only context
// cancellation aborts the operation.
func (c *Cache) Load(ctx context.Context) error {
	c.ops.Lock()
	defer c.ops.Unlock()

	resp, err := c.client.GetList(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Printf("Remote load failed, falling back to local store: %v", err)

		items, serr := c.store.GetAll(ctx)
		if serr != nil {
			c.logger.Printf("Local load failed as well: %v", serr)
			return nil
		}
		c.setItems(ctx, items)
		return nil
	}

	c.setRevision(resp.Revision)
	c.setItems(ctx, resp.List)
	return nil
}

// Add implements Provider.Add.
//
// On remote success the server-returned element is adopted (it may
// differ from the one sent) and the revision advances. On remote
// failure the client's own item is inserted optimistically and written
// straight to the local store; the revision is left untouched.
func (c *Cache) Add(ctx context.Context, item model.Item) error {
	c.ops.Lock()
	defer c.ops.Unlock()

	resp, err := c.client.CreateItem(ctx, item, c.revisionCopy())
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Printf("Remote create failed, keeping local copy of %s: %v", item.ID, err)

		c.setItems(ctx, insertItem(c.Items(), item))
		if serr := c.store.Upsert(ctx, item); serr != nil {
			c.logger.Printf("Local save of %s failed: %v", item.ID, serr)
		}
		return nil
	}

	c.setRevision(resp.Revision)
	c.setItems(ctx, insertItem(c.Items(), resp.Element))
	return nil
}

// Update implements Provider.Update.
//
// Same contract as Add: adopt the server element on success, replace
// the item in place (matched by id) on failure.
func (c *Cache) Update(ctx context.Context, item model.Item) error {
	c.ops.Lock()
	defer c.ops.Unlock()

	resp, err := c.client.UpdateItem(ctx, item, c.revisionCopy())
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Printf("Remote update failed, keeping local copy of %s: %v", item.ID, err)

		c.setItems(ctx, insertItem(c.Items(), item))
		if serr := c.store.Upsert(ctx, item); serr != nil {
			c.logger.Printf("Local save of %s failed: %v", item.ID, serr)
		}
		return nil
	}

	c.setRevision(resp.Revision)
	c.setItems(ctx, insertItem(c.Items(), resp.Element))
	return nil
}

// Remove implements Provider.Remove.
//
// On success the removal is keyed by the id of the element the server
// echoes back, not the requested one. On failure the requested id is
// removed optimistically and deleted from the local store.
func (c *Cache) Remove(ctx context.Context, id string) error {
	c.ops.Lock()
	defer c.ops.Unlock()

	resp, err := c.client.DeleteItem(ctx, id, c.revisionCopy())
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Printf("Remote delete failed, removing %s locally: %v", id, err)

		c.setItems(ctx, removeItem(c.Items(), id))
		if serr := c.store.Delete(ctx, id); serr != nil {
			c.logger.Printf("Local delete of %s failed: %v", id, serr)
		}
		return nil
	}

	c.setRevision(resp.Revision)
	c.setItems(ctx, removeItem(c.Items(), resp.Element.ID))
	return nil
}

// RefreshFromStore replaces the in-memory collection with the local
// store's contents. Used by the record watcher to fold in edits made by
// another process.
func (c *Cache) RefreshFromStore(ctx context.Context) error {
	c.ops.Lock()
	defer c.ops.Unlock()

	items, err := c.store.GetAll(ctx)
	if err != nil {
		return err
	}
	c.setItems(ctx, items)
	return nil
}

// setItems is the single write path for the collection. When the new
// collection differs from the old one (value equality over every item)
// it first mirrors every item into the local store, then broadcasts the
// new collection to observers - in that order, so observers never see
// state the store doesn't have yet.
func (c *Cache) setItems(ctx context.Context, next []model.Item) {
	c.mu.Lock()
	if model.ItemsEqual(c.items, next) {
		c.mu.Unlock()
		return
	}
	c.items = next
	snapshot := slices.Clone(next)
	c.mu.Unlock()

	for _, item := range snapshot {
		if err := c.store.Upsert(ctx, item); err != nil {
			c.logger.Printf("Mirror write of %s failed: %v", item.ID, err)
		}
	}

	c.observers.Notify(func(o Observer) {
		o.ItemsChanged(snapshot)
	})
}

func (c *Cache) setRevision(revision int) {
	c.mu.Lock()
	c.revision = &revision
	c.mu.Unlock()
}

// revisionCopy returns a copy of the current revision pointer so the
// transport cannot observe later changes.
func (c *Cache) revisionCopy() *int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.revision == nil {
		return nil
	}
	rev := *c.revision
	return &rev
}

// insertItem replaces the item with a matching id in place, or appends
// it when absent. Insertion order is preserved.
func insertItem(items []model.Item, item model.Item) []model.Item {
	for i := range items {
		if items[i].ID == item.ID {
			items[i] = item
			return items
		}
	}
	return append(items, item)
}

// removeItem drops every item with the given id.
func removeItem(items []model.Item, id string) []model.Item {
	return slices.DeleteFunc(items, func(it model.Item) bool {
		return it.ID == id
	})
}
