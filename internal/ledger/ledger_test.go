package ledger

import (
	"context"
	"sort"
	"testing"

	"github.com/diister/mongodbee/internal/driver"
)

// fakeDB is a minimal in-memory stand-in for driver.Database, scoped to
// exactly the methods the ledger's own db interface needs.
type fakeDB struct {
	collections map[string]map[interface{}]driver.Document
}

func newFakeDB() *fakeDB {
	return &fakeDB{collections: map[string]map[interface{}]driver.Document{}}
}

func (f *fakeDB) coll(name string) map[interface{}]driver.Document {
	c, ok := f.collections[name]
	if !ok {
		c = map[interface{}]driver.Document{}
		f.collections[name] = c
	}
	return c
}

func (f *fakeDB) ListCollections(ctx context.Context) ([]string, error) {
	names := make([]string, 0, len(f.collections))
	for n := range f.collections {
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

func (f *fakeDB) FindBatch(ctx context.Context, name, sort_ string, afterID interface{}, limit int) ([]driver.Document, error) {
	c := f.coll(name)
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id.(string))
	}
	sort.Strings(ids)
	out := make([]driver.Document, 0, len(ids))
	for _, id := range ids {
		out = append(out, c[id])
	}
	return out, nil
}

func (f *fakeDB) InsertMany(ctx context.Context, name string, docs []driver.Document, ordered bool) error {
	c := f.coll(name)
	for _, d := range docs {
		c[d["_id"]] = d
	}
	return nil
}

func (f *fakeDB) ReplaceOne(ctx context.Context, name string, id interface{}, doc driver.Document) error {
	f.coll(name)[id] = doc
	return nil
}

func (f *fakeDB) DeleteMany(ctx context.Context, name string, ids []interface{}) error {
	c := f.coll(name)
	for _, id := range ids {
		delete(c, id)
	}
	return nil
}

func (f *fakeDB) FindOne(ctx context.Context, name string, filter driver.Document) (driver.Document, error) {
	c := f.coll(name)
	if id, ok := filter["_id"]; ok {
		if d, found := c[id]; found {
			return d, nil
		}
		return nil, nil
	}
	for _, d := range c {
		return d, nil
	}
	return nil, nil
}

func TestMarkApplyingThenAppliedAppearsInList(t *testing.T) {
	l := New(newFakeDB())
	ctx := context.Background()

	if err := l.MarkApplying(ctx, "m1", "checksum1", DirectionUp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := l.MarkApplied(ctx, "m1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ids, err := l.List(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 1 || ids[0] != "m1" {
		t.Fatalf("expected [m1], got %v", ids)
	}

	head, err := l.Head(ctx)
	if err != nil || head != "m1" {
		t.Fatalf("expected head m1, got %q err %v", head, err)
	}
}

func TestMarkApplyingFailsWhenDirtyEntryExists(t *testing.T) {
	l := New(newFakeDB())
	ctx := context.Background()

	if err := l.MarkApplying(ctx, "m1", "c1", DirectionUp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// m1 never marked applied -> still dirty.
	err := l.MarkApplying(ctx, "m2", "c2", DirectionUp)
	if _, ok := err.(*BusyError); !ok {
		t.Fatalf("expected BusyError, got %v (%T)", err, err)
	}
}

func TestRemoveDeletesEntry(t *testing.T) {
	l := New(newFakeDB())
	ctx := context.Background()
	_ = l.MarkApplying(ctx, "m1", "c1", DirectionUp)
	_ = l.MarkApplied(ctx, "m1")

	if err := l.Remove(ctx, "m1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ids, _ := l.List(ctx)
	if len(ids) != 0 {
		t.Fatalf("expected empty ledger after remove, got %v", ids)
	}
}

func TestDiscoverMultiModelInstances(t *testing.T) {
	fake := newFakeDB()
	l := New(fake)
	ctx := context.Background()

	fake.coll("tenant-acme")["_information"] = driver.Document{
		"_id": "_information", "kind": "multi-model-instance", "modelTag": "tenant",
	}
	fake.coll("tenant-beta")["_information"] = driver.Document{
		"_id": "_information", "kind": "multi-model-instance", "modelTag": "tenant",
	}
	fake.coll("user")["_information"] = driver.Document{
		"_id": "_information", "kind": "multi-collection",
	}

	instances, err := l.DiscoverMultiModelInstances(ctx, "tenant")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sort.Strings(instances)
	if len(instances) != 2 || instances[0] != "tenant-acme" || instances[1] != "tenant-beta" {
		t.Fatalf("expected [tenant-acme tenant-beta], got %v", instances)
	}
}

func TestChecksumOfReturnsFalseWhenAbsent(t *testing.T) {
	l := New(newFakeDB())
	_, ok, err := l.ChecksumOf(context.Background(), "missing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false for missing entry")
	}
}
