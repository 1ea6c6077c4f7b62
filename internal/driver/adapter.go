package driver

import (
	"context"
	"fmt"

	"github.com/globalsign/mgo/bson"
	official "go.mongodb.org/mongo-driver/bson"

	"github.com/diister/mongodbee/internal/driver/mongowrap"
)

// MongoAdapter implements Database on top of internal/driver/mongowrap,
// the legacy-API-compatible wrapper around the official mongo-driver.
// Every method here is a thin translation layer: no migration logic
// lives here, only the shape conversions the capability interface needs.
type MongoAdapter struct {
	db *mongowrap.ModernDB
}

// NewMongoAdapter returns an adapter bound to one database handle.
func NewMongoAdapter(db *mongowrap.ModernDB) *MongoAdapter {
	return &MongoAdapter{db: db}
}

func (a *MongoAdapter) ListCollections(ctx context.Context) ([]string, error) {
	return a.db.CollectionNames()
}

func (a *MongoAdapter) CreateCollection(ctx context.Context, name string, validator Document, indexes []IndexModel) error {
	if err := a.db.CreateCollectionWithValidator(name, official.M(validator)); err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	coll := a.db.C(name)
	for _, idx := range indexes {
		if err := coll.EnsureIndex(toMgoIndex(idx)); err != nil {
			return fmt.Errorf("create index %s on %s: %w", idx.Name, name, err)
		}
	}
	return nil
}

func (a *MongoAdapter) DropCollection(ctx context.Context, name string) error {
	return a.db.C(name).DropCollection()
}

func (a *MongoAdapter) ListIndexes(ctx context.Context, name string) ([]IndexModel, error) {
	idxs, err := a.db.C(name).Indexes()
	if err != nil {
		return nil, err
	}
	out := make([]IndexModel, 0, len(idxs))
	for _, idx := range idxs {
		out = append(out, fromMgoIndex(idx))
	}
	return out, nil
}

func (a *MongoAdapter) CreateIndex(ctx context.Context, name string, index IndexModel) error {
	return a.db.C(name).EnsureIndex(toMgoIndex(index))
}

func (a *MongoAdapter) DropIndex(ctx context.Context, name, indexName string) error {
	return a.db.C(name).DropIndexName(indexName)
}

func (a *MongoAdapter) FindBatch(ctx context.Context, name string, sort string, afterID interface{}, limit int) ([]Document, error) {
	query := bson.M{}
	if afterID != nil {
		query["_id"] = bson.M{"$gt": afterID}
	}
	q := a.db.C(name).Find(query)
	if sort != "" {
		q = q.Sort(sort)
	} else {
		q = q.Sort("_id")
	}
	q = q.Limit(limit)

	var raw []bson.M
	if err := q.All(&raw); err != nil {
		return nil, err
	}
	docs := make([]Document, len(raw))
	for i, r := range raw {
		docs[i] = Document(r)
	}
	return docs, nil
}

func (a *MongoAdapter) InsertMany(ctx context.Context, name string, docs []Document, ordered bool) error {
	coll := a.db.C(name)
	bulk := coll.Bulk()
	if !ordered {
		bulk.Unordered()
	}
	ifaceDocs := make([]interface{}, len(docs))
	for i, d := range docs {
		ifaceDocs[i] = bson.M(d)
	}
	bulk.Insert(ifaceDocs...)
	_, err := bulk.Run()
	return err
}

func (a *MongoAdapter) ReplaceOne(ctx context.Context, name string, id interface{}, doc Document) error {
	return a.db.C(name).ReplaceId(id, bson.M(doc))
}

func (a *MongoAdapter) DeleteMany(ctx context.Context, name string, ids []interface{}) error {
	_, err := a.db.C(name).RemoveAll(bson.M{"_id": bson.M{"$in": ids}})
	return err
}

func (a *MongoAdapter) DeleteMatching(ctx context.Context, name string, filter Document) error {
	_, err := a.db.C(name).RemoveAll(bson.M(filter))
	return err
}

func (a *MongoAdapter) FindOne(ctx context.Context, name string, filter Document) (Document, error) {
	var result bson.M
	if err := a.db.C(name).Find(bson.M(filter)).One(&result); err != nil {
		if err == mongowrap.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return Document(result), nil
}

func (a *MongoAdapter) Watch(ctx context.Context, name string, callback func(Document)) (func(), error) {
	return a.db.C(name).Watch(nil, func(doc official.M) {
		callback(Document(doc))
	})
}

func toMgoIndex(idx IndexModel) mongowrap.Index {
	out := mongowrap.Index{Key: idx.Keys, Unique: idx.Unique, Sparse: idx.Sparse, Name: idx.Name}
	if idx.CaseInsensitive || idx.Collation != "" {
		locale := idx.Collation
		if locale == "" {
			locale = "en"
		}
		strength := 1
		if idx.CaseInsensitive {
			strength = 2
		}
		out.Collation = &mongowrap.Collation{Locale: locale, Strength: strength}
	}
	return out
}

func fromMgoIndex(idx mongowrap.Index) IndexModel {
	out := IndexModel{Name: idx.Name, Keys: idx.Key, Unique: idx.Unique, Sparse: idx.Sparse}
	if idx.Collation != nil {
		out.Collation = idx.Collation.Locale
		out.CaseInsensitive = idx.Collation.Strength <= 2
	}
	return out
}
