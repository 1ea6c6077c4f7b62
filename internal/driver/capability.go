// Package driver defines the narrow capability the migration engine needs
// from a database driver, and a concrete implementation on top
// of internal/driver/mongowrap. The engine's core packages (ledger, lock,
// planner, executor) depend only on the Database interface, never on the
// driver package directly, so a SimulatorExecutor can satisfy the same
// interface in memory for `check`.
package driver

import "context"

// Document is one database document, decoded into a generic map the way
// the schema and builder packages already represent seed/transform
// payloads.
type Document map[string]interface{}

// IndexModel describes one index to create, derived from
// schema.IndexSpec by the planner.
type IndexModel struct {
	Name            string
	Keys            []string // dotted field paths, ascending order
	Unique          bool
	CaseInsensitive bool
	Sparse          bool
	Collation       string
}

// Database is the capability set the migration core depends on. Every
// method is a suspension point and accepts a context for cooperative
// cancellation.
type Database interface {
	ListCollections(ctx context.Context) ([]string, error)
	CreateCollection(ctx context.Context, name string, validator Document, indexes []IndexModel) error
	DropCollection(ctx context.Context, name string) error
	ListIndexes(ctx context.Context, name string) ([]IndexModel, error)
	CreateIndex(ctx context.Context, name string, index IndexModel) error
	DropIndex(ctx context.Context, name, indexName string) error
	FindBatch(ctx context.Context, name string, sort string, afterID interface{}, limit int) ([]Document, error)
	InsertMany(ctx context.Context, name string, docs []Document, ordered bool) error
	ReplaceOne(ctx context.Context, name string, id interface{}, doc Document) error
	DeleteMany(ctx context.Context, name string, ids []interface{}) error
	FindOne(ctx context.Context, name string, filter Document) (Document, error)
	DeleteMatching(ctx context.Context, name string, filter Document) error
	Watch(ctx context.Context, name string, callback func(Document)) (func(), error)
}
