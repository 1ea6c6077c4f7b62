package mongowrap

import (
	"context"
	"time"

	official "go.mongodb.org/mongo-driver/bson"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ModernDB wraps one database, the handle internal/driver.NewMongoAdapter is
// bound to.
type ModernDB struct {
	mgoDB *mongodrv.Database
	name  string
}

// C returns a collection handle within this database.
func (db *ModernDB) C(name string) *Collection {
	return &Collection{mgoColl: db.mgoDB.Collection(name), name: name}
}

// CollectionNames lists every collection currently in the database, backing
// internal/driver.Database.ListCollections. mgo exposed this directly;
// the official driver only exposes ListCollectionNames on *mongo.Database,
// so this method is the reintroduction of that surface rather than a renamed
// copy of anything upstream.
func (db *ModernDB) CollectionNames() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return db.mgoDB.ListCollectionNames(ctx, official.M{})
}

// CreateCollectionWithValidator creates name up front with a $jsonSchema
// validator attached in strict mode, instead of letting the server create it
// implicitly on first write with no validation at all. validatorgen.Generate
// produces the document passed here.
func (db *ModernDB) CreateCollectionWithValidator(name string, validator official.M) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	opts := options.CreateCollection()
	if len(validator) > 0 {
		opts.SetValidator(validator)
		opts.SetValidationLevel("strict")
	}
	return db.mgoDB.CreateCollection(ctx, name, opts)
}

// DropDatabase drops the whole database. Not reachable from any executor
// operation; kept for the package's own integration tests, which create a
// disposable per-run database and must tear it down afterward.
func (db *ModernDB) DropDatabase() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return db.mgoDB.Drop(ctx)
}
