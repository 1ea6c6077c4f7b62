package mongowrap

import (
	"context"
	"time"

	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Bulk queues a batch of writes to send in one round trip. The executor's
// seed step is the only caller, and it only ever inserts, so this carries
// just enough of the mgo bulk-write API for that: Unordered, Insert, Run.
type Bulk struct {
	collection *Collection
	operations []mongodrv.WriteModel
	ordered    bool
}

// Unordered lets the server continue past a failed operation instead of
// aborting the batch, matching the executor's "apply everything collectable,
// report partial failure" seeding strategy.
func (b *Bulk) Unordered() {
	b.ordered = false
}

// Insert queues docs for insertion.
func (b *Bulk) Insert(docs ...interface{}) {
	for _, doc := range docs {
		b.operations = append(b.operations, mongodrv.NewInsertOneModel().SetDocument(doc))
	}
}

// Run sends every queued operation in a single bulk write.
func (b *Bulk) Run() (*BulkResult, error) {
	if len(b.operations) == 0 {
		return &BulkResult{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	opts := options.BulkWrite().SetOrdered(b.ordered)
	result, err := b.collection.mgoColl.BulkWrite(ctx, b.operations, opts)
	if err != nil {
		return nil, err
	}
	return &BulkResult{Inserted: int(result.InsertedCount)}, nil
}
