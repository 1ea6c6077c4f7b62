// Package ledger records which migrations have been applied to a
// database and discovers dynamically created multi-model instances. It
// depends only on internal/driver's Database interface, so it runs
// unchanged against a real MongoDB-family driver or the
// in-memory simulator used by `check`.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/diister/mongodbee/internal/driver"
)

// CollectionName is the reserved collection the ledger lives in.
const CollectionName = "__mongodbee_migrations"

// Direction is the direction a ledger entry was applied in.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Status is a ledger entry's completion state.
type Status string

const (
	StatusApplied Status = "applied"
	StatusDirty   Status = "dirty"
)

// Entry is one ledger record.
type Entry struct {
	MigrationID string
	AppliedAt   time.Time
	Direction   Direction
	Checksum    string
	Status      Status
}

// BusyError reports that markApplying found an existing dirty entry.
type BusyError struct {
	DirtyMigrationID string
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("ledger has a dirty entry for %s; resolve it before starting a new migration", e.DirtyMigrationID)
}

// Ledger wraps one database handle's __mongodbee_migrations collection.
type Ledger struct {
	db db
}

// db is the narrow slice of driver.Database the ledger actually needs;
// declared locally so tests can supply a minimal fake without pulling in
// the full interface surface.
type db interface {
	FindBatch(ctx context.Context, name string, sort string, afterID interface{}, limit int) ([]driver.Document, error)
	InsertMany(ctx context.Context, name string, docs []driver.Document, ordered bool) error
	ReplaceOne(ctx context.Context, name string, id interface{}, doc driver.Document) error
	DeleteMany(ctx context.Context, name string, ids []interface{}) error
	FindOne(ctx context.Context, name string, filter driver.Document) (driver.Document, error)
	ListCollections(ctx context.Context) ([]string, error)
}

// New wraps a database handle. Any driver.Database satisfies the narrowed
// db interface, as do the minimal fakes this package's tests build.
func New(database db) *Ledger {
	return &Ledger{db: database}
}

// List returns applied migration ids in application order.
func (l *Ledger) List(ctx context.Context) ([]string, error) {
	docs, err := l.db.FindBatch(ctx, CollectionName, "appliedAt", nil, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(docs))
	for _, d := range docs {
		if toStatus(d["status"]) == StatusApplied {
			ids = append(ids, toString(d["_id"]))
		}
	}
	return ids, nil
}

// Head returns the most recently applied id, or "" if none.
func (l *Ledger) Head(ctx context.Context) (string, error) {
	ids, err := l.List(ctx)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", nil
	}
	return ids[len(ids)-1], nil
}

// MarkApplying creates a dirty entry for id, failing with BusyError if any
// dirty entry already exists. When id already has an applied entry (a down
// step rolling it back), that entry is overwritten in place as dirty.
func (l *Ledger) MarkApplying(ctx context.Context, id, checksum string, direction Direction) error {
	entries, err := l.db.FindBatch(ctx, CollectionName, "appliedAt", nil, 0)
	if err != nil {
		return err
	}
	exists := false
	for _, e := range entries {
		if toStatus(e["status"]) == StatusDirty {
			return &BusyError{DirtyMigrationID: toString(e["_id"])}
		}
		if toString(e["_id"]) == id {
			exists = true
		}
	}
	doc := driver.Document{
		"_id":       id,
		"appliedAt": time.Now().UTC(),
		"direction": string(direction),
		"checksum":  checksum,
		"status":    string(StatusDirty),
	}
	if exists {
		return l.db.ReplaceOne(ctx, CollectionName, id, doc)
	}
	return l.db.InsertMany(ctx, CollectionName, []driver.Document{doc}, true)
}

// MarkApplied clears the dirty flag for id.
func (l *Ledger) MarkApplied(ctx context.Context, id string) error {
	existing, err := l.db.FindOne(ctx, CollectionName, driver.Document{"_id": id})
	if err != nil {
		return err
	}
	if existing == nil {
		return fmt.Errorf("ledger: no entry for %s to mark applied", id)
	}
	existing["status"] = string(StatusApplied)
	return l.db.ReplaceOne(ctx, CollectionName, id, existing)
}

// Remove deletes the entry for id, called on successful rollback.
func (l *Ledger) Remove(ctx context.Context, id string) error {
	return l.db.DeleteMany(ctx, CollectionName, []interface{}{id})
}

// Entries returns every raw ledger entry, applied or dirty, in apply
// order, for use by status/check reporting.
func (l *Ledger) Entries(ctx context.Context) ([]Entry, error) {
	docs, err := l.db.FindBatch(ctx, CollectionName, "appliedAt", nil, 0)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(docs))
	for _, d := range docs {
		appliedAt, _ := d["appliedAt"].(time.Time)
		out = append(out, Entry{
			MigrationID: toString(d["_id"]),
			AppliedAt:   appliedAt,
			Direction:   Direction(toString(d["direction"])),
			Checksum:    toString(d["checksum"]),
			Status:      toStatus(d["status"]),
		})
	}
	return out, nil
}

// ChecksumOf returns the recorded checksum for id, used to detect
// ChainTampered.
func (l *Ledger) ChecksumOf(ctx context.Context, id string) (string, bool, error) {
	doc, err := l.db.FindOne(ctx, CollectionName, driver.Document{"_id": id})
	if err != nil {
		return "", false, err
	}
	if doc == nil {
		return "", false, nil
	}
	return toString(doc["checksum"]), true, nil
}

// informationMarkerName is the reserved per-collection document recording
// multi-collection/multi-model metadata.
const informationMarkerName = "_information"

// DiscoverMultiModelInstances scans every collection for a reserved
// "_information" document whose modelTag matches, returning the physical
// collection names that are instances of that model.
func (l *Ledger) DiscoverMultiModelInstances(ctx context.Context, modelTag string) ([]string, error) {
	names, err := l.db.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	var instances []string
	for _, name := range names {
		marker, err := l.db.FindOne(ctx, name, driver.Document{"_id": informationMarkerName})
		if err != nil || marker == nil {
			continue
		}
		if toString(marker["kind"]) != "multi-model-instance" {
			continue
		}
		if toString(marker["modelTag"]) == modelTag {
			instances = append(instances, name)
		}
	}
	return instances, nil
}

func toString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func toStatus(v interface{}) Status {
	return Status(toString(v))
}
