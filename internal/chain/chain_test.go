package chain

import (
	"testing"

	"github.com/diister/mongodbee/internal/migration"
	"github.com/diister/mongodbee/internal/schema"
)

func userDoc() migration.SchemaDocument {
	doc := migration.NewSchemaDocument()
	doc.Collections["user"] = schema.Canonicalize(schema.Obj(schema.Field{Name: "name", Schema: schema.String()}))
	return doc
}

func TestLoadLinearizesRootFirst(t *testing.T) {
	root := migration.Definition{
		ID: "2026-01-01-00000000000000000000000000-init", Parent: "",
		Schemas: userDoc(),
		Ops:     []migration.Operation{{Kind: migration.OpCreateCollection, Name: "user"}},
	}
	child := migration.Definition{
		ID: "2026-01-02-00000000000000000000000001-update", Parent: root.ID,
		Schemas: userDoc(),
		Ops:     []migration.Operation{{Kind: migration.OpUpdateIndexes, Name: "user"}},
	}

	c, err := Load([]migration.Definition{child, root})
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("expected 2 definitions, got %d", c.Len())
	}
	if c.At(0).ID != root.ID || c.At(1).ID != child.ID {
		t.Fatalf("expected root first, got %s then %s", c.At(0).ID, c.At(1).ID)
	}
	if !c.IsAncestor(root.ID, child.ID) {
		t.Fatalf("expected root to be an ancestor of child")
	}
}

func TestLoadDetectsParentMissing(t *testing.T) {
	orphan := migration.Definition{ID: "2026-01-02-x-orphan", Parent: "does-not-exist", Schemas: userDoc()}
	_, err := Load([]migration.Definition{orphan})
	if _, ok := err.(*ParentMissingError); !ok {
		t.Fatalf("expected ParentMissingError, got %v (%T)", err, err)
	}
}

func TestLoadDetectsRootMissing(t *testing.T) {
	a := migration.Definition{ID: "2026-01-01-a", Parent: "2026-01-02-b", Schemas: userDoc()}
	b := migration.Definition{ID: "2026-01-02-b", Parent: "2026-01-01-a", Schemas: userDoc()}
	_, err := Load([]migration.Definition{a, b})
	if err == nil {
		t.Fatalf("expected an error for a chain with no root")
	}
}

func TestLoadDetectsRootAmbiguous(t *testing.T) {
	a := migration.Definition{ID: "2026-01-01-a", Parent: "", Schemas: userDoc()}
	b := migration.Definition{ID: "2026-01-02-b", Parent: "", Schemas: userDoc()}
	_, err := Load([]migration.Definition{a, b})
	if _, ok := err.(*RootAmbiguousError); !ok {
		t.Fatalf("expected RootAmbiguousError, got %v (%T)", err, err)
	}
}

func TestLoadDetectsBranching(t *testing.T) {
	root := migration.Definition{ID: "2026-01-01-root", Parent: "", Schemas: userDoc()}
	childA := migration.Definition{ID: "2026-01-02-a", Parent: root.ID, Schemas: userDoc()}
	childB := migration.Definition{ID: "2026-01-02-b", Parent: root.ID, Schemas: userDoc()}
	_, err := Load([]migration.Definition{root, childA, childB})
	if _, ok := err.(*CycleDetectedError); !ok {
		t.Fatalf("expected branching to surface as CycleDetectedError, got %v (%T)", err, err)
	}
}

func TestLoadDetectsSchemaDriftUncovered(t *testing.T) {
	root := migration.Definition{
		ID: "2026-01-01-root", Parent: "",
		Schemas: userDoc(),
		Ops:     []migration.Operation{{Kind: migration.OpCreateCollection, Name: "user"}},
	}
	driftedDoc := migration.NewSchemaDocument()
	driftedDoc.Collections["user"] = schema.Canonicalize(schema.Obj(
		schema.Field{Name: "name", Schema: schema.String()},
		schema.Field{Name: "email", Schema: schema.String()}, // added, no covering op
	))
	child := migration.Definition{
		ID: "2026-01-02-child", Parent: root.ID,
		Schemas: driftedDoc,
		Ops:     nil,
	}
	_, err := Load([]migration.Definition{root, child})
	if _, ok := err.(*SchemaDriftUncoveredError); !ok {
		t.Fatalf("expected SchemaDriftUncoveredError, got %v (%T)", err, err)
	}
}

func TestLoadAcceptsRenameCollection(t *testing.T) {
	root := migration.Definition{
		ID: "2026-01-01-root", Parent: "",
		Schemas: userDoc(),
		Ops:     []migration.Operation{{Kind: migration.OpCreateCollection, Name: "user"}},
	}
	renamedDoc := migration.NewSchemaDocument()
	renamedDoc.Collections["member"] = root.Schemas.Collections["user"]
	child := migration.Definition{
		ID: "2026-01-02-rename", Parent: root.ID,
		Schemas: renamedDoc,
		Ops:     []migration.Operation{{Kind: migration.OpRenameCollection, From: "user", To: "member"}},
	}
	if _, err := Load([]migration.Definition{root, child}); err != nil {
		t.Fatalf("expected rename chain to load, got %v", err)
	}
}

func TestLoadAcceptsRenameMultiCollectionType(t *testing.T) {
	eventTypes := func(tag string) map[string]*schema.Node {
		return map[string]*schema.Node{
			tag: schema.Canonicalize(schema.Obj(schema.Field{Name: "at", Schema: schema.Date()})),
		}
	}
	rootDoc := migration.NewSchemaDocument()
	rootDoc.MultiCollections["events"] = eventTypes("registration")
	root := migration.Definition{
		ID: "2026-01-01-root", Parent: "",
		Schemas: rootDoc,
		Ops:     []migration.Operation{{Kind: migration.OpCreateMultiCollection, Name: "events"}},
	}
	renamedDoc := migration.NewSchemaDocument()
	renamedDoc.MultiCollections["events"] = eventTypes("signup")
	child := migration.Definition{
		ID: "2026-01-02-renametype", Parent: root.ID,
		Schemas: renamedDoc,
		Ops: []migration.Operation{
			{Kind: migration.OpRenameMultiCollectionType, Name: "events", From: "registration", To: "signup"},
		},
	}
	if _, err := Load([]migration.Definition{root, child}); err != nil {
		t.Fatalf("expected type-rename chain to load, got %v", err)
	}
}

func TestLoadIsDeterministic(t *testing.T) {
	root := migration.Definition{
		ID: "2026-01-01-root", Parent: "", Schemas: userDoc(),
		Ops: []migration.Operation{{Kind: migration.OpCreateCollection, Name: "user"}},
	}
	c1, err1 := Load([]migration.Definition{root})
	c2, err2 := Load([]migration.Definition{root})
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}
	if c1.Checksums[root.ID] != c2.Checksums[root.ID] {
		t.Fatalf("expected identical checksums across repeated loads")
	}
}

func TestVerifyAgainstLedgerDetectsTamper(t *testing.T) {
	root := migration.Definition{
		ID: "2026-01-01-root", Parent: "", Schemas: userDoc(),
		Ops: []migration.Operation{{Kind: migration.OpCreateCollection, Name: "user"}},
	}
	c, err := Load([]migration.Definition{root})
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if err := c.VerifyAgainstLedger(root.ID, c.Checksums[root.ID]); err != nil {
		t.Fatalf("expected matching checksum to verify cleanly, got %v", err)
	}
	if err := c.VerifyAgainstLedger(root.ID, "stale-checksum"); err == nil {
		t.Fatalf("expected mismatched checksum to raise ChainTampered")
	}
}

func TestRegisterAndRegistered(t *testing.T) {
	resetForTest()
	defer resetForTest()
	Register(migration.Definition{ID: "2026-01-01-root", Parent: "", Schemas: userDoc()})
	got := Registered()
	if len(got) != 1 || got[0].ID != "2026-01-01-root" {
		t.Fatalf("expected one registered definition, got %+v", got)
	}
}
