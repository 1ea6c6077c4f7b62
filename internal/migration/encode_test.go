package migration

import "testing"

func TestCanonicalStringStableAndSensitiveToChanges(t *testing.T) {
	a := []Operation{
		{Kind: OpCreateCollection, Name: "user"},
		{Kind: OpSeedCollection, Name: "user", Docs: []map[string]interface{}{{"name": "Alice"}}},
	}
	b := []Operation{
		{Kind: OpCreateCollection, Name: "user"},
		{Kind: OpSeedCollection, Name: "user", Docs: []map[string]interface{}{{"name": "Alice"}}},
	}
	if CanonicalString(a) != CanonicalString(b) {
		t.Fatalf("expected identical operation lists to encode identically")
	}

	tampered := []Operation{
		{Kind: OpCreateCollection, Name: "user"},
		{Kind: OpSeedCollection, Name: "user", Docs: []map[string]interface{}{{"name": "Mallory"}}},
	}
	if CanonicalString(a) == CanonicalString(tampered) {
		t.Fatalf("expected tampered seed data to change the canonical string")
	}
}
