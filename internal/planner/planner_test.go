package planner

import (
	"testing"

	"github.com/diister/mongodbee/internal/chain"
	"github.com/diister/mongodbee/internal/migration"
	"github.com/diister/mongodbee/internal/schema"
)

func defWithSchema(id, parent string, ops []migration.Operation, coll *schema.Node) migration.Definition {
	docs := migration.NewSchemaDocument()
	if coll != nil {
		docs.Collections["widgets"] = coll
	}
	return migration.Definition{
		ID:      id,
		Name:    id,
		Parent:  parent,
		Schemas: docs,
		Ops:     ops,
		Props:   migration.DerivePropertiesFromOperations(ops),
	}
}

func mustChain(t *testing.T, defs []migration.Definition) *chain.Chain {
	t.Helper()
	c, err := chain.Load(defs)
	if err != nil {
		t.Fatalf("unexpected chain load error: %v", err)
	}
	return c
}

func simpleChain(t *testing.T) *chain.Chain {
	t.Helper()
	n1 := schema.Obj(schema.Field{Name: "name", Schema: schema.String()})
	n2 := schema.Obj(
		schema.Field{Name: "name", Schema: schema.String()},
		schema.Field{Name: "sku", Schema: schema.WithIndex(schema.String(), schema.IndexMetadata{Unique: true})},
	)
	defs := []migration.Definition{
		defWithSchema("20260101000000-root", "", []migration.Operation{
			{Kind: migration.OpCreateCollection, Name: "widgets"},
		}, n1),
		defWithSchema("20260102000000-addsku", "20260101000000-root", []migration.Operation{
			{Kind: migration.OpUpdateIndexes, Name: "widgets"},
		}, n2),
	}
	return mustChain(t, defs)
}

func TestBuildNoneWhenTargetMatchesApplied(t *testing.T) {
	c := simpleChain(t)
	plan, err := Build(c, []string{"20260101000000-root"}, "20260101000000-root")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Direction != DirectionNone {
		t.Fatalf("expected DirectionNone, got %v", plan.Direction)
	}
}

func TestBuildUpToHead(t *testing.T) {
	c := simpleChain(t)
	plan, err := Build(c, []string{"20260101000000-root"}, TargetHead)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Direction != DirectionUp {
		t.Fatalf("expected DirectionUp, got %v", plan.Direction)
	}
	if len(plan.Entries) != 1 || plan.Entries[0].MigrationID != "20260102000000-addsku" {
		t.Fatalf("unexpected entries: %+v", plan.Entries)
	}
	if len(plan.Entries[0].IndexActions) != 1 || plan.Entries[0].IndexActions[0].Kind != schema.IndexAdd {
		t.Fatalf("expected one index-add action, got %+v", plan.Entries[0].IndexActions)
	}
}

func TestBuildUpFromEmpty(t *testing.T) {
	c := simpleChain(t)
	plan, err := Build(c, nil, TargetHead)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan.Entries) != 2 {
		t.Fatalf("expected both migrations in plan, got %d", len(plan.Entries))
	}
}

func TestBuildDownToEmptyBlockedByIrreversibleRoot(t *testing.T) {
	c := simpleChain(t)
	_, err := Build(c, []string{"20260101000000-root", "20260102000000-addsku"}, TargetEmpty)
	if _, ok := err.(*IrreversibleRollbackError); !ok {
		t.Fatalf("expected IrreversibleRollbackError rolling back a create-collection migration, got %v (%T)", err, err)
	}
}

func TestBuildDownOneStep(t *testing.T) {
	c := simpleChain(t)
	plan, err := Build(c, []string{"20260101000000-root", "20260102000000-addsku"}, "20260101000000-root")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Direction != DirectionDown {
		t.Fatalf("expected DirectionDown, got %v", plan.Direction)
	}
	if len(plan.Entries) != 1 || plan.Entries[0].MigrationID != "20260102000000-addsku" {
		t.Fatalf("unexpected entries: %+v", plan.Entries)
	}
	if len(plan.Entries[0].IndexActions) != 1 || plan.Entries[0].IndexActions[0].Kind != schema.IndexDrop {
		t.Fatalf("expected one index-drop action reverting to the parent schema, got %+v", plan.Entries[0].IndexActions)
	}
}

func TestBuildDivergentLedger(t *testing.T) {
	c := simpleChain(t)
	_, err := Build(c, []string{"some-unrelated-id"}, TargetHead)
	if _, ok := err.(*DivergentError); !ok {
		t.Fatalf("expected DivergentError, got %v (%T)", err, err)
	}
}

func TestBuildTargetNotInChain(t *testing.T) {
	c := simpleChain(t)
	_, err := Build(c, nil, "20261231000000-nope")
	if _, ok := err.(*TargetNotInChainError); !ok {
		t.Fatalf("expected TargetNotInChainError, got %v (%T)", err, err)
	}
}

func TestInvertOperationsTransformRoundTrip(t *testing.T) {
	up := func(d map[string]interface{}) (map[string]interface{}, error) { return d, nil }
	down := func(d map[string]interface{}) (map[string]interface{}, error) { return d, nil }
	ops := []migration.Operation{
		{Kind: migration.OpTransformCollection, Name: "widgets", Up: up, Down: down},
	}
	inverted, warnings, err := invertOperations(ops)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("transform inversion should not warn, got %v", warnings)
	}
	if len(inverted) != 1 || inverted[0].Kind != migration.OpTransformCollection {
		t.Fatalf("unexpected inversion: %+v", inverted)
	}
}

func TestInvertOperationsLossyTransformFails(t *testing.T) {
	ops := []migration.Operation{
		{Kind: migration.OpTransformCollection, Name: "widgets", Lossy: true},
	}
	_, _, err := invertOperations(ops)
	if err == nil {
		t.Fatalf("expected error inverting a lossy transform with no down")
	}
}

func TestInvertOperationsSeedWarnsOfDivergence(t *testing.T) {
	ops := []migration.Operation{
		{Kind: migration.OpSeedCollection, Name: "widgets", Docs: []map[string]interface{}{{"_id": "a"}}},
	}
	inverted, warnings, err := invertOperations(ops)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(warnings) != 1 {
		t.Fatalf("expected one divergence warning, got %v", warnings)
	}
	if inverted[0].Kind != migration.OpDeleteSeededDocuments {
		t.Fatalf("expected deleteSeededDocuments, got %v", inverted[0].Kind)
	}
}

func TestInvertOperationsRenameSwapsFromTo(t *testing.T) {
	ops := []migration.Operation{
		{Kind: migration.OpRenameCollection, From: "old", To: "new"},
	}
	inverted, _, err := invertOperations(ops)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inverted[0].From != "new" || inverted[0].To != "old" {
		t.Fatalf("expected swapped from/to, got %+v", inverted[0])
	}
}

func TestInvertOperationsReverseOrder(t *testing.T) {
	ops := []migration.Operation{
		{Kind: migration.OpCreateCollection, Name: "a"},
		{Kind: migration.OpRenameCollection, From: "a", To: "b"},
	}
	inverted, _, err := invertOperations(ops)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inverted[0].Kind != migration.OpRenameCollection || inverted[1].Kind != migration.OpDropCollection {
		t.Fatalf("expected rename-undo before drop, got %+v", inverted)
	}
}

func TestReconcileIndexesAcrossEmptyBoundary(t *testing.T) {
	n := schema.Obj(schema.Field{Name: "sku", Schema: schema.WithIndex(schema.String(), schema.IndexMetadata{Unique: true})})
	def := defWithSchema("20260101000000-root", "", nil, n)
	actions := reconcileIndexes(migration.Definition{}, def)
	if len(actions) != 1 || actions[0].Kind != schema.IndexAdd {
		t.Fatalf("expected single add action from the empty boundary, got %+v", actions)
	}
}
