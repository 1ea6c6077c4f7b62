package mongowrap

import "errors"

// ErrNotFound is returned by One and FindOne-style lookups when no document
// matches the filter. internal/driver/adapter.go treats it as "no row" rather
// than a hard error.
var ErrNotFound = errors.New("not found")

// Index describes one index to build, the mongowrap-side counterpart of
// internal/driver.IndexModel. Key entries are field names, prefixed with "-"
// for descending order, matching the mgo convention
// internal/driver/adapter.go's toMgoIndex already produces.
type Index struct {
	Key       []string
	Unique    bool
	Sparse    bool
	Name      string
	Collation *Collation
}

// Collation carries the locale/strength pair adapter.go derives from
// driver.IndexModel.CaseInsensitive, so a case-insensitive unique index (the
// executor's reconcileIndexActions installs one whenever a schema field
// carries that refinement) actually compares case-insensitively server-side
// instead of merely recording the intent.
type Collation struct {
	Locale   string
	Strength int
}

// ChangeInfo reports how many documents a write affected. The bulk result
// equivalent is BulkResult; both are narrower than mgo's originals since the
// migration core only ever inspects the error, not the counts.
type ChangeInfo struct {
	Removed int
}

// BulkResult reports the outcome of a Bulk.Run call.
type BulkResult struct {
	Inserted int
}
