package mongowrap

import (
	"context"
	"strings"
	"time"

	official "go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection wraps one collection. Documents flowing through it are always
// generic maps (driver.Document / bson.M) — the migration core never stores
// typed structs — so, unlike the mgo API this chain is modeled after, no
// struct-tag reflection is involved on either side of a call.
type Collection struct {
	mgoColl *mongodrv.Collection
	name    string
}

// Find starts a query against filter, defaulting to "match everything" when
// filter is nil.
func (c *Collection) Find(filter interface{}) *Query {
	if filter == nil {
		filter = official.M{}
	}
	return &Query{coll: c, filter: filter}
}

// Bulk returns an ordered bulk-write builder; Unordered switches it to
// unordered before any operations are queued.
func (c *Collection) Bulk() *Bulk {
	return &Bulk{collection: c, ordered: true}
}

// ReplaceId overwrites the document with _id == id in full. Unlike an
// update, there is no partial merge: the executor's transform operations
// and the ledger's entry updates always hand back the complete document,
// so a full replace is the only correct write here.
func (c *Collection) ReplaceId(id, doc interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := c.mgoColl.ReplaceOne(ctx, official.M{"_id": id}, doc)
	return err
}

// RemoveAll deletes every document matching selector.
func (c *Collection) RemoveAll(selector interface{}) (*ChangeInfo, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	result, err := c.mgoColl.DeleteMany(ctx, selector)
	if err != nil {
		return nil, err
	}
	return &ChangeInfo{Removed: int(result.DeletedCount)}, nil
}

// DropCollection drops the collection entirely.
func (c *Collection) DropCollection() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.mgoColl.Drop(ctx)
}

// EnsureIndex builds index, blocking until the server confirms it.
func (c *Collection) EnsureIndex(index Index) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var keys official.D
	for _, key := range index.Key {
		order := 1
		field := key
		if strings.HasPrefix(key, "-") {
			order = -1
			field = key[1:]
		}
		keys = append(keys, official.E{Key: field, Value: order})
	}

	opts := options.Index().SetUnique(index.Unique).SetSparse(index.Sparse)
	if index.Name != "" {
		opts.SetName(index.Name)
	}
	if index.Collation != nil {
		opts.SetCollation(&options.Collation{Locale: index.Collation.Locale, Strength: index.Collation.Strength})
	}

	_, err := c.mgoColl.Indexes().CreateOne(ctx, mongodrv.IndexModel{Keys: keys, Options: opts})
	return err
}

// Indexes lists every index currently defined on the collection.
func (c *Collection) Indexes() ([]Index, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := c.mgoColl.Indexes().List(ctx)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var indexes []Index
	for cursor.Next(ctx) {
		var raw primitive.D
		if err := cursor.Decode(&raw); err != nil {
			return nil, err
		}
		fields := raw.Map()

		idx := Index{}
		if name, ok := fields["name"].(string); ok {
			idx.Name = name
		}
		if keyDoc, ok := fields["key"].(primitive.D); ok {
			for _, elem := range keyDoc {
				field := elem.Key
				if v, ok := elem.Value.(int32); ok && v == -1 {
					field = "-" + field
				}
				idx.Key = append(idx.Key, field)
			}
		}
		if unique, ok := fields["unique"].(bool); ok {
			idx.Unique = unique
		}
		if sparse, ok := fields["sparse"].(bool); ok {
			idx.Sparse = sparse
		}
		if coll, ok := fields["collation"].(primitive.D); ok {
			collFields := coll.Map()
			collation := &Collation{}
			if locale, ok := collFields["locale"].(string); ok {
				collation.Locale = locale
			}
			if strength, ok := collFields["strength"].(int32); ok {
				collation.Strength = int(strength)
			}
			idx.Collation = collation
		}

		indexes = append(indexes, idx)
	}
	return indexes, cursor.Err()
}

// DropIndexName drops a single index by its server-assigned or explicit
// name.
func (c *Collection) DropIndexName(name string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_, err := c.mgoColl.Indexes().DropOne(ctx, name)
	return err
}

// Watch opens a change stream against the collection and invokes callback
// for every event until the returned cancel func is called. pipeline, when
// non-nil, must be a mongodrv.Pipeline; a nil pipeline watches all events.
func (c *Collection) Watch(pipeline interface{}, callback func(official.M)) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())

	var pipe mongodrv.Pipeline
	if p, ok := pipeline.(mongodrv.Pipeline); ok {
		pipe = p
	}

	stream, err := c.mgoColl.Watch(ctx, pipe)
	if err != nil {
		cancel()
		return nil, err
	}

	go func() {
		defer stream.Close(context.Background())
		for stream.Next(ctx) {
			var ev official.M
			if err := stream.Decode(&ev); err == nil {
				callback(ev)
			}
		}
	}()

	return cancel, nil
}
