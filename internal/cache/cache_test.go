package cache

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/apalyukha/listkit/internal/api"
	"github.com/apalyukha/listkit/internal/model"
)

var errNetwork = errors.New("connection refused")

// fakeClient scripts transport behavior per call.
type fakeClient struct {
	getList    func(ctx context.Context) (*api.ListResponse, error)
	createItem func(ctx context.Context, item model.Item, revision *int) (*api.ItemResponse, error)
	updateItem func(ctx context.Context, item model.Item, revision *int) (*api.ItemResponse, error)
	deleteItem func(ctx context.Context, id string, revision *int) (*api.ItemResponse, error)
}

func (f *fakeClient) GetList(ctx context.Context) (*api.ListResponse, error) {
	return f.getList(ctx)
}

func (f *fakeClient) CreateItem(ctx context.Context, item model.Item, revision *int) (*api.ItemResponse, error) {
	return f.createItem(ctx, item, revision)
}

func (f *fakeClient) UpdateItem(ctx context.Context, item model.Item, revision *int) (*api.ItemResponse, error) {
	return f.updateItem(ctx, item, revision)
}

func (f *fakeClient) DeleteItem(ctx context.Context, id string, revision *int) (*api.ItemResponse, error) {
	return f.deleteItem(ctx, id, revision)
}

// memStore is an in-memory storage.Store double.
type memStore struct {
	records map[string]model.Item
	failAll bool
}

func newMemStore() *memStore {
	return &memStore{records: make(map[string]model.Item)}
}

func (m *memStore) GetAll(ctx context.Context) ([]model.Item, error) {
	if m.failAll {
		return nil, errors.New("disk on fire")
	}
	items := make([]model.Item, 0, len(m.records))
	for _, it := range m.records {
		items = append(items, it)
	}
	return items, nil
}

func (m *memStore) Upsert(ctx context.Context, item model.Item) error {
	if m.failAll {
		return errors.New("disk on fire")
	}
	m.records[item.ID] = item
	return nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	if m.failAll {
		return errors.New("disk on fire")
	}
	delete(m.records, id)
	return nil
}

func (m *memStore) Close() error { return nil }

// recordingObserver counts deliveries and keeps the last collection.
type recordingObserver struct {
	notifications int
	last          []model.Item
}

func (r *recordingObserver) ItemsChanged(items []model.Item) {
	r.notifications++
	r.last = items
}

func quietLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func testItem(id, text string) model.Item {
	return model.Item{
		ID:            id,
		Text:          text,
		Importance:    model.ImportanceBasic,
		CreatedAt:     time.Unix(1690000000, 0),
		ChangedAt:     time.Unix(1690000000, 0),
		LastUpdatedBy: "device-1",
	}
}

func okList(items []model.Item, revision int) func(context.Context) (*api.ListResponse, error) {
	return func(context.Context) (*api.ListResponse, error) {
		return &api.ListResponse{Status: "ok", List: items, Revision: revision}, nil
	}
}

func TestLoad_RemoteSuccess(t *testing.T) {
	store := newMemStore()
	client := &fakeClient{getList: okList([]model.Item{testItem("a1", "Buy milk")}, 5)}
	c := New(client, store, quietLogger())

	obs := &recordingObserver{}
	c.AddObserver(obs)

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	items := c.Items()
	if len(items) != 1 || items[0].ID != "a1" {
		t.Errorf("items = %+v, want [a1]", items)
	}
	if rev, ok := c.Revision(); !ok || rev != 5 {
		t.Errorf("revision = %d,%v, want 5,true", rev, ok)
	}
	if obs.notifications != 1 {
		t.Errorf("observer notified %d times, want 1", obs.notifications)
	}
	if _, ok := store.records["a1"]; !ok {
		t.Error("mirror write should have persisted a1 to the store")
	}
}

func TestLoad_RemoteFailureFallsBackToStore(t *testing.T) {
	store := newMemStore()
	store.records["b2"] = testItem("b2", "Feed cat")

	client := &fakeClient{
		getList: func(context.Context) (*api.ListResponse, error) { return nil, errNetwork },
	}
	c := New(client, store, quietLogger())

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load() should swallow transport failures, got %v", err)
	}

	items := c.Items()
	if len(items) != 1 || items[0].ID != "b2" {
		t.Errorf("items = %+v, want fallback [b2]", items)
	}
	if _, ok := c.Revision(); ok {
		t.Error("revision must stay unknown after a failed load")
	}
}

func TestLoad_BothPathsFailing(t *testing.T) {
	store := newMemStore()
	store.failAll = true
	client := &fakeClient{
		getList: func(context.Context) (*api.ListResponse, error) { return nil, errNetwork },
	}
	c := New(client, store, quietLogger())

	if err := c.Load(context.Background()); err != nil {
		t.Errorf("Load() must complete even when both paths fail, got %v", err)
	}
	if len(c.Items()) != 0 {
		t.Errorf("items = %+v, want empty", c.Items())
	}
}

func TestLoad_UnchangedListDoesNotNotify(t *testing.T) {
	list := []model.Item{testItem("a1", "Buy milk")}
	client := &fakeClient{getList: okList(list, 5)}
	c := New(client, newMemStore(), quietLogger())

	obs := &recordingObserver{}
	c.AddObserver(obs)

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("first Load() failed: %v", err)
	}
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("second Load() failed: %v", err)
	}

	if obs.notifications != 1 {
		t.Errorf("observer notified %d times for identical lists, want 1", obs.notifications)
	}
}

func TestAdd_RemoteSuccessAdoptsServerElement(t *testing.T) {
	store := newMemStore()
	var sentRevision *int
	client := &fakeClient{
		getList: okList(nil, 1),
		createItem: func(_ context.Context, item model.Item, revision *int) (*api.ItemResponse, error) {
			sentRevision = revision
			// The server may rewrite the element; here it assigns its own id.
			element := item
			element.ID = "srv-1"
			return &api.ItemResponse{Status: "ok", Element: element, Revision: 2}, nil
		},
	}
	c := New(client, store, quietLogger())

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if err := c.Add(context.Background(), testItem("local-1", "Buy milk")); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	if sentRevision == nil || *sentRevision != 1 {
		t.Errorf("create carried revision %v, want 1", sentRevision)
	}

	items := c.Items()
	if len(items) != 1 || items[0].ID != "srv-1" {
		t.Errorf("items = %+v, want the adopted server element", items)
	}
	if rev, _ := c.Revision(); rev != 2 {
		t.Errorf("revision = %d, want 2", rev)
	}
}

func TestAdd_RemoteFailureKeepsClientItem(t *testing.T) {
	store := newMemStore()
	client := &fakeClient{
		getList: okList(nil, 7),
		createItem: func(context.Context, model.Item, *int) (*api.ItemResponse, error) {
			return nil, errNetwork
		},
	}
	c := New(client, store, quietLogger())

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	item := testItem("local-1", "Buy milk")
	if err := c.Add(context.Background(), item); err != nil {
		t.Fatalf("Add() should swallow transport failures, got %v", err)
	}

	items := c.Items()
	if len(items) != 1 || !items[0].Equal(item) {
		t.Errorf("items = %+v, want the client item verbatim", items)
	}
	stored, ok := store.records["local-1"]
	if !ok || !stored.Equal(item) {
		t.Errorf("store record = %+v,%v, want the client item", stored, ok)
	}
	if rev, _ := c.Revision(); rev != 7 {
		t.Errorf("revision = %d, want unchanged 7", rev)
	}
}

func TestAdd_SameIDReplacesInsteadOfDuplicating(t *testing.T) {
	client := &fakeClient{
		createItem: func(_ context.Context, item model.Item, _ *int) (*api.ItemResponse, error) {
			return &api.ItemResponse{Status: "ok", Element: item, Revision: 1}, nil
		},
	}
	c := New(client, newMemStore(), quietLogger())

	if err := c.Add(context.Background(), testItem("a1", "first")); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if err := c.Add(context.Background(), testItem("a1", "second")); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	items := c.Items()
	if len(items) != 1 {
		t.Fatalf("items = %+v, want exactly one entry per id", items)
	}
	if items[0].Text != "second" {
		t.Errorf("text = %q, want in-place replacement", items[0].Text)
	}
}

func TestUpdate_RemoteFailureReplacesInPlace(t *testing.T) {
	store := newMemStore()
	client := &fakeClient{
		getList: okList([]model.Item{testItem("a1", "one"), testItem("a2", "two")}, 3),
		updateItem: func(context.Context, model.Item, *int) (*api.ItemResponse, error) {
			return nil, errNetwork
		},
	}
	c := New(client, store, quietLogger())

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	edited := testItem("a1", "one, edited")
	if err := c.Update(context.Background(), edited); err != nil {
		t.Fatalf("Update() should swallow transport failures, got %v", err)
	}

	items := c.Items()
	if len(items) != 2 {
		t.Fatalf("items = %+v, want 2 entries", items)
	}
	// Insertion order preserved, replacement in place.
	if items[0].Text != "one, edited" || items[1].ID != "a2" {
		t.Errorf("items = %+v, want a1 edited in place before a2", items)
	}
	if got := store.records["a1"].Text; got != "one, edited" {
		t.Errorf("store text = %q, want the edited copy", got)
	}
	if rev, _ := c.Revision(); rev != 3 {
		t.Errorf("revision = %d, want unchanged 3", rev)
	}
}

func TestRemove_SuccessMatchesServerReturnedID(t *testing.T) {
	client := &fakeClient{
		getList: okList([]model.Item{testItem("a1", "one"), testItem("a2", "two")}, 3),
		deleteItem: func(_ context.Context, id string, _ *int) (*api.ItemResponse, error) {
			// The server echoes a different element than requested.
			return &api.ItemResponse{Status: "ok", Element: testItem("a2", "two"), Revision: 4}, nil
		},
	}
	c := New(client, newMemStore(), quietLogger())

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if err := c.Remove(context.Background(), "a1"); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}

	// Removal is keyed by the server's element id, so a1 survives.
	items := c.Items()
	if len(items) != 1 || items[0].ID != "a1" {
		t.Errorf("items = %+v, want [a1] (server said it removed a2)", items)
	}
	if rev, _ := c.Revision(); rev != 4 {
		t.Errorf("revision = %d, want 4", rev)
	}
}

func TestRemove_RemoteFailureRemovesRequestedID(t *testing.T) {
	store := newMemStore()
	client := &fakeClient{
		getList: okList([]model.Item{testItem("a1", "one")}, 3),
		deleteItem: func(context.Context, string, *int) (*api.ItemResponse, error) {
			return nil, errNetwork
		},
	}
	c := New(client, store, quietLogger())

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if err := c.Remove(context.Background(), "a1"); err != nil {
		t.Fatalf("Remove() should swallow transport failures, got %v", err)
	}

	if len(c.Items()) != 0 {
		t.Errorf("items = %+v, want empty", c.Items())
	}
	if _, ok := store.records["a1"]; ok {
		t.Error("store should no longer contain a1")
	}
}

func TestRemove_AbsentIDIsNoOp(t *testing.T) {
	store := newMemStore()
	client := &fakeClient{
		getList: okList([]model.Item{testItem("a1", "one")}, 3),
		deleteItem: func(context.Context, string, *int) (*api.ItemResponse, error) {
			return nil, errNetwork
		},
	}
	c := New(client, store, quietLogger())

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	obs := &recordingObserver{}
	c.AddObserver(obs)

	if err := c.Remove(context.Background(), "ghost"); err != nil {
		t.Fatalf("Remove() of absent id failed: %v", err)
	}
	if len(c.Items()) != 1 {
		t.Errorf("items = %+v, want unchanged", c.Items())
	}
	if obs.notifications != 0 {
		t.Errorf("observer notified %d times for a no-op removal, want 0", obs.notifications)
	}
}

func TestCancelledOperationAbandonsWithoutFallback(t *testing.T) {
	store := newMemStore()
	client := &fakeClient{
		createItem: func(ctx context.Context, _ model.Item, _ *int) (*api.ItemResponse, error) {
			return nil, ctx.Err()
		},
	}
	c := New(client, store, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Add(ctx, testItem("a1", "Buy milk"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Add() = %v, want context.Canceled", err)
	}
	if len(c.Items()) != 0 {
		t.Error("cancelled operation must not mutate the collection")
	}
	if len(store.records) != 0 {
		t.Error("cancelled operation must not touch the store")
	}
}

func TestObserverLifecycle(t *testing.T) {
	client := &fakeClient{getList: okList([]model.Item{testItem("a1", "one")}, 1)}
	c := New(client, newMemStore(), quietLogger())

	obs := &recordingObserver{}
	c.AddObserver(obs)
	c.AddObserver(obs) // idempotent

	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if obs.notifications != 1 {
		t.Errorf("observer added twice notified %d times, want 1", obs.notifications)
	}
	if len(obs.last) != 1 || obs.last[0].ID != "a1" {
		t.Errorf("observer received %+v, want the new collection", obs.last)
	}

	c.RemoveObserver(obs)
	client.getList = okList(nil, 2)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if obs.notifications != 1 {
		t.Errorf("removed observer notified %d times, want still 1", obs.notifications)
	}
}

func TestRefreshFromStore(t *testing.T) {
	store := newMemStore()
	store.records["x1"] = testItem("x1", "external edit")
	client := &fakeClient{}
	c := New(client, store, quietLogger())

	obs := &recordingObserver{}
	c.AddObserver(obs)

	if err := c.RefreshFromStore(context.Background()); err != nil {
		t.Fatalf("RefreshFromStore() failed: %v", err)
	}
	if len(c.Items()) != 1 || c.Items()[0].ID != "x1" {
		t.Errorf("items = %+v, want [x1]", c.Items())
	}
	if obs.notifications != 1 {
		t.Errorf("observer notified %d times, want 1", obs.notifications)
	}
}

// TestEndToEndScenario walks the full load / add / offline-remove flow.
func TestEndToEndScenario(t *testing.T) {
	store := newMemStore()

	client := &fakeClient{}
	client.getList = okList([]model.Item{}, 1)
	client.createItem = func(_ context.Context, item model.Item, revision *int) (*api.ItemResponse, error) {
		if revision == nil || *revision != 1 {
			t.Errorf("create carried revision %v, want 1", revision)
		}
		element := item
		element.ID = "a1"
		return &api.ItemResponse{Status: "ok", Element: element, Revision: 2}, nil
	}
	client.deleteItem = func(context.Context, string, *int) (*api.ItemResponse, error) {
		return nil, errNetwork // the network goes away before the removal
	}

	c := New(client, store, quietLogger())

	// Startup against an empty server list.
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if len(c.Items()) != 0 {
		t.Fatalf("items = %+v, want empty", c.Items())
	}
	if rev, _ := c.Revision(); rev != 1 {
		t.Fatalf("revision = %d, want 1", rev)
	}

	// Online add; server assigns id a1.
	if err := c.Add(context.Background(), testItem("tmp", "Buy milk")); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	items := c.Items()
	if len(items) != 1 || items[0].ID != "a1" {
		t.Fatalf("items = %+v, want [a1]", items)
	}
	if rev, _ := c.Revision(); rev != 2 {
		t.Fatalf("revision = %d, want 2", rev)
	}

	// Transport failure on remove: local state and store both drop a1,
	// revision stays at 2.
	if err := c.Remove(context.Background(), "a1"); err != nil {
		t.Fatalf("Remove() failed: %v", err)
	}
	if len(c.Items()) != 0 {
		t.Errorf("items = %+v, want empty", c.Items())
	}
	if _, ok := store.records["a1"]; ok {
		t.Error("store should no longer contain a1")
	}
	if rev, _ := c.Revision(); rev != 2 {
		t.Errorf("revision = %d, want 2", rev)
	}
}
