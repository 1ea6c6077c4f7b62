package mongowrap

import (
	"context"
	"strings"
	"time"

	official "go.mongodb.org/mongo-driver/bson"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Query accumulates sort/limit state for one Find call before it runs.
type Query struct {
	coll   *Collection
	filter interface{}
	sort   interface{}
	limit  int64
}

// Sort orders results by fields, each optionally prefixed with "-" for
// descending order.
func (q *Query) Sort(fields ...string) *Query {
	var sort official.D
	for _, field := range fields {
		order := 1
		if strings.HasPrefix(field, "-") {
			order = -1
			field = field[1:]
		}
		sort = append(sort, official.E{Key: field, Value: order})
	}
	q.sort = sort
	return q
}

// Limit caps the number of documents returned; n <= 0 means unlimited.
func (q *Query) Limit(n int) *Query {
	q.limit = int64(n)
	return q
}

// One decodes the first matching document into result, or returns
// ErrNotFound if nothing matches.
func (q *Query) One(result interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.FindOne()
	if q.sort != nil {
		opts.SetSort(q.sort)
	}

	err := q.coll.mgoColl.FindOne(ctx, q.filter, opts).Decode(result)
	if err == mongodrv.ErrNoDocuments {
		return ErrNotFound
	}
	return err
}

// All decodes every matching document (bounded by Limit) into result, which
// must be a pointer to a slice.
func (q *Query) All(result interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	opts := options.Find()
	if q.sort != nil {
		opts.SetSort(q.sort)
	}
	if q.limit > 0 {
		opts.SetLimit(q.limit)
	}

	cursor, err := q.coll.mgoColl.Find(ctx, q.filter, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, result)
}
