package lock

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/diister/mongodbee/internal/driver"
)

type fakeDB struct {
	docs map[interface{}]driver.Document
}

func newFakeDB() *fakeDB { return &fakeDB{docs: map[interface{}]driver.Document{}} }

func (f *fakeDB) ListCollections(ctx context.Context) ([]string, error) { return nil, nil }
func (f *fakeDB) CreateCollection(ctx context.Context, name string, v driver.Document, idx []driver.IndexModel) error {
	return nil
}
func (f *fakeDB) DropCollection(ctx context.Context, name string) error { return nil }
func (f *fakeDB) ListIndexes(ctx context.Context, name string) ([]driver.IndexModel, error) {
	return nil, nil
}
func (f *fakeDB) CreateIndex(ctx context.Context, name string, idx driver.IndexModel) error { return nil }
func (f *fakeDB) DropIndex(ctx context.Context, name, indexName string) error               { return nil }
func (f *fakeDB) FindBatch(ctx context.Context, name, sortKey string, afterID interface{}, limit int) ([]driver.Document, error) {
	return nil, nil
}
func (f *fakeDB) InsertMany(ctx context.Context, name string, docs []driver.Document, ordered bool) error {
	for _, d := range docs {
		if _, exists := f.docs[d["_id"]]; exists {
			return fmt.Errorf("duplicate key: %v", d["_id"])
		}
		f.docs[d["_id"]] = d
	}
	return nil
}
func (f *fakeDB) ReplaceOne(ctx context.Context, name string, id interface{}, doc driver.Document) error {
	f.docs[id] = doc
	return nil
}
func (f *fakeDB) DeleteMany(ctx context.Context, name string, ids []interface{}) error {
	for _, id := range ids {
		delete(f.docs, id)
	}
	return nil
}
func (f *fakeDB) FindOne(ctx context.Context, name string, filter driver.Document) (driver.Document, error) {
	if id, ok := filter["_id"]; ok {
		return f.docs[id], nil
	}
	return nil, nil
}
func (f *fakeDB) DeleteMatching(ctx context.Context, name string, filter driver.Document) error { return nil }
func (f *fakeDB) Watch(ctx context.Context, name string, cb func(driver.Document)) (func(), error) {
	return func() {}, nil
}

func TestAcquireThenReleaseAllowsReacquire(t *testing.T) {
	db := newFakeDB()
	ctx := context.Background()

	first := New(db, "owner-a", "")
	if err := first.Acquire(ctx); err != nil {
		t.Fatalf("unexpected error acquiring free lock: %v", err)
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("unexpected error releasing: %v", err)
	}

	second := New(db, "owner-b", "")
	if err := second.Acquire(ctx); err != nil {
		t.Fatalf("expected reacquire to succeed after release, got %v", err)
	}
}

func TestSecondAcquireFailsWithBusy(t *testing.T) {
	db := newFakeDB()
	ctx := context.Background()

	a := New(db, "owner-a", "")
	if err := a.Acquire(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b := New(db, "owner-b", "")
	err := b.Acquire(ctx)
	if _, ok := err.(*BusyError); !ok {
		t.Fatalf("expected BusyError for second concurrent acquire, got %v (%T)", err, err)
	}
}

func TestForceAcquireStealsStaleLock(t *testing.T) {
	db := newFakeDB()
	ctx := context.Background()
	db.docs["singleton"] = driver.Document{"_id": "singleton", "owner": "stale-owner", "acquiredAt": time.Now().Add(-1 * time.Hour)}

	b := New(db, "owner-b", "")
	if err := b.ForceAcquire(ctx); err != nil {
		t.Fatalf("expected force-acquire to succeed on stale lock, got %v", err)
	}
}

func TestIsStale(t *testing.T) {
	if IsStale(time.Now(), DefaultStaleAfter) {
		t.Fatalf("fresh lock should not be stale")
	}
	if !IsStale(time.Now().Add(-1*time.Hour), DefaultStaleAfter) {
		t.Fatalf("hour-old lock should be stale against the 10-minute default")
	}
}
