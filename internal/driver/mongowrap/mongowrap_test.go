package mongowrap_test

import (
	"os"
	"testing"
	"time"

	official "go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	. "gopkg.in/check.v1"

	"github.com/diister/mongodbee/internal/driver/mongowrap"
)

func Test(t *testing.T) { TestingT(t) }

// S holds a session against a disposable per-run database, dropped again in
// TearDownTest. Tests are skipped wholesale when no server is reachable.
type S struct {
	session *mongowrap.ModernMGO
	db      *mongowrap.ModernDB
}

var _ = Suite(&S{})

func (s *S) SetUpTest(c *C) {
	mongoURL := os.Getenv("MONGODB_TEST_URL")
	if mongoURL == "" {
		mongoURL = "mongodb://localhost:27018/mongowrap_test"
	}

	session, err := mongowrap.DialModernMGOWithTimeout(mongoURL, 30*time.Second)
	if err != nil {
		c.Skip("no test MongoDB available at " + mongoURL + ": " + err.Error())
		return
	}
	s.session = session
	s.db = session.DB("mongowrap_test_" + primitive.NewObjectID().Hex())
}

func (s *S) TearDownTest(c *C) {
	if s.session == nil {
		return
	}
	if err := s.db.DropDatabase(); err != nil {
		c.Logf("dropping test database: %v", err)
	}
	s.session.Close()
	s.session = nil
	s.db = nil
}

func (s *S) TestCollectionNamesListsCreatedCollections(c *C) {
	err := s.db.CreateCollectionWithValidator("widgets", nil)
	c.Assert(err, IsNil)

	names, err := s.db.CollectionNames()
	c.Assert(err, IsNil)
	c.Assert(names, DeepEquals, []string{"widgets"})
}

func (s *S) TestCreateCollectionWithValidatorRejectsInvalidDocuments(c *C) {
	validator := official.M{"$jsonSchema": official.M{
		"bsonType": "object",
		"required": []interface{}{"name"},
	}}
	err := s.db.CreateCollectionWithValidator("users", validator)
	c.Assert(err, IsNil)

	bulk := s.db.C("users").Bulk()
	bulk.Insert(official.M{"age": 10})
	_, err = bulk.Run()
	c.Assert(err, NotNil, Commentf("expected validator to reject a document missing the required name field"))
}

func (s *S) TestFindSortLimitAndOne(c *C) {
	coll := s.db.C("items")
	bulk := coll.Bulk()
	bulk.Insert(
		official.M{"_id": primitive.NewObjectID(), "rank": 3},
		official.M{"_id": primitive.NewObjectID(), "rank": 1},
		official.M{"_id": primitive.NewObjectID(), "rank": 2},
	)
	_, err := bulk.Run()
	c.Assert(err, IsNil)

	var page []official.M
	err = coll.Find(nil).Sort("rank").Limit(2).All(&page)
	c.Assert(err, IsNil)
	c.Assert(page, HasLen, 2)
	c.Assert(page[0]["rank"], Equals, int32(1))
	c.Assert(page[1]["rank"], Equals, int32(2))

	var one official.M
	err = coll.Find(official.M{"rank": int32(3)}).One(&one)
	c.Assert(err, IsNil)
	c.Assert(one["rank"], Equals, int32(3))

	err = coll.Find(official.M{"rank": int32(99)}).One(&one)
	c.Assert(err, Equals, mongowrap.ErrNotFound)
}

func (s *S) TestReplaceIdAndRemoveAll(c *C) {
	coll := s.db.C("accounts")
	id := primitive.NewObjectID()
	bulk := coll.Bulk()
	bulk.Insert(official.M{"_id": id, "balance": 10})
	_, err := bulk.Run()
	c.Assert(err, IsNil)

	err = coll.ReplaceId(id, official.M{"_id": id, "balance": 20})
	c.Assert(err, IsNil)

	var doc official.M
	err = coll.Find(official.M{"_id": id}).One(&doc)
	c.Assert(err, IsNil)
	c.Assert(doc["balance"], Equals, int32(20))

	info, err := coll.RemoveAll(official.M{})
	c.Assert(err, IsNil)
	c.Assert(info.Removed, Equals, 1)
}

func (s *S) TestEnsureIndexListAndDrop(c *C) {
	coll := s.db.C("sessions")
	err := coll.EnsureIndex(mongowrap.Index{Key: []string{"token"}, Unique: true, Name: "token_unique"})
	c.Assert(err, IsNil)

	indexes, err := coll.Indexes()
	c.Assert(err, IsNil)
	var found *mongowrap.Index
	for i := range indexes {
		if indexes[i].Name == "token_unique" {
			found = &indexes[i]
		}
	}
	c.Assert(found, NotNil)
	c.Assert(found.Unique, Equals, true)

	err = coll.DropIndexName("token_unique")
	c.Assert(err, IsNil)
	indexes, err = coll.Indexes()
	c.Assert(err, IsNil)
	for _, idx := range indexes {
		c.Assert(idx.Name, Not(Equals), "token_unique")
	}
}

func (s *S) TestEnsureIndexAppliesCollation(c *C) {
	coll := s.db.C("tags")
	err := coll.EnsureIndex(mongowrap.Index{
		Key:       []string{"label"},
		Unique:    true,
		Name:      "label_ci",
		Collation: &mongowrap.Collation{Locale: "en", Strength: 2},
	})
	c.Assert(err, IsNil)

	bulk := coll.Bulk()
	bulk.Insert(official.M{"_id": primitive.NewObjectID(), "label": "alpha"})
	_, err = bulk.Run()
	c.Assert(err, IsNil)

	bulk = coll.Bulk()
	bulk.Insert(official.M{"_id": primitive.NewObjectID(), "label": "ALPHA"})
	_, err = bulk.Run()
	c.Assert(err, NotNil, Commentf("case-insensitive unique index should reject ALPHA after alpha"))
}

func (s *S) TestDropCollectionRemovesItFromCollectionNames(c *C) {
	coll := s.db.C("scratch")
	bulk := coll.Bulk()
	bulk.Insert(official.M{"_id": primitive.NewObjectID()})
	_, err := bulk.Run()
	c.Assert(err, IsNil)

	err = coll.DropCollection()
	c.Assert(err, IsNil)

	names, err := s.db.CollectionNames()
	c.Assert(err, IsNil)
	for _, name := range names {
		c.Assert(name, Not(Equals), "scratch")
	}
}
