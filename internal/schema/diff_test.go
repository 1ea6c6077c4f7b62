package schema

import "testing"

func canon(n *Node) *Node { return Canonicalize(n) }

func TestDiffOfIdenticalSchemaIsEmpty(t *testing.T) {
	a := canon(Obj(
		Field{Name: "name", Schema: String()},
		Field{Name: "age", Schema: Optional(Number())},
	))
	edits := Diff(a, a)
	if len(edits) != 0 {
		t.Fatalf("expected no edits diffing a schema against itself, got %+v", edits)
	}
}

func TestDiffDetectsAddedField(t *testing.T) {
	before := canon(Obj(Field{Name: "name", Schema: String()}))
	after := canon(Obj(Field{Name: "name", Schema: String()}, Field{Name: "email", Schema: String()}))

	edits := Diff(before, after)
	if len(edits) != 1 || edits[0].Kind != EditAdded {
		t.Fatalf("expected single added edit, got %+v", edits)
	}
	if edits[0].Path[0] != "email" {
		t.Fatalf("expected added edit path to be email, got %v", edits[0].Path)
	}
}

func TestDiffDetectsRemovedField(t *testing.T) {
	before := canon(Obj(Field{Name: "name", Schema: String()}, Field{Name: "email", Schema: String()}))
	after := canon(Obj(Field{Name: "name", Schema: String()}))

	edits := Diff(before, after)
	if len(edits) != 1 || edits[0].Kind != EditRemoved {
		t.Fatalf("expected single removed edit, got %+v", edits)
	}
}

func TestDiffDetectsOptionalFlip(t *testing.T) {
	before := canon(Obj(Field{Name: "email", Schema: String()}))
	after := canon(Obj(Field{Name: "email", Schema: Optional(String())}))

	edits := Diff(before, after)
	if len(edits) != 1 || !edits[0].OptionalChanged || !edits[0].NewOptional {
		t.Fatalf("expected one optional-flip edit, got %+v", edits)
	}
}

func TestDiffNestedObjectRecursesToShallowestChange(t *testing.T) {
	before := canon(Obj(
		Field{Name: "address", Schema: Obj(
			Field{Name: "city", Schema: String()},
			Field{Name: "zip", Schema: Number()},
		)},
	))
	after := canon(Obj(
		Field{Name: "address", Schema: Obj(
			Field{Name: "city", Schema: String()},
			Field{Name: "zip", Schema: String()},
		)},
	))

	edits := Diff(before, after)
	if len(edits) != 1 || edits[0].Kind != EditModified {
		t.Fatalf("expected single modified edit at nested path, got %+v", edits)
	}
	if len(edits[0].Path) != 2 || edits[0].Path[0] != "address" || edits[0].Path[1] != "zip" {
		t.Fatalf("expected edit path [address zip], got %v", edits[0].Path)
	}
}

func TestDiffTreatsNonObjectKindChangeAsAtomic(t *testing.T) {
	before := canon(Arr(String()))
	after := canon(Arr(Number()))

	edits := Diff(before, after)
	if len(edits) != 1 || edits[0].Kind != EditModified {
		t.Fatalf("expected one atomic modified edit for array element kind change, got %+v", edits)
	}
}

// TestApplyDiffRoundTrip exercises ApplyDiff(A, Diff(A, B)) == B.
func TestApplyDiffRoundTrip(t *testing.T) {
	cases := []struct {
		name   string
		before *Node
		after  *Node
	}{
		{
			name:   "add field",
			before: Obj(Field{Name: "name", Schema: String()}),
			after:  Obj(Field{Name: "name", Schema: String()}, Field{Name: "email", Schema: String()}),
		},
		{
			name:   "remove field",
			before: Obj(Field{Name: "name", Schema: String()}, Field{Name: "email", Schema: String()}),
			after:  Obj(Field{Name: "name", Schema: String()}),
		},
		{
			name:   "optional flip",
			before: Obj(Field{Name: "email", Schema: String()}),
			after:  Obj(Field{Name: "email", Schema: Optional(String())}),
		},
		{
			name: "nested modification",
			before: Obj(Field{Name: "address", Schema: Obj(
				Field{Name: "city", Schema: String()},
				Field{Name: "zip", Schema: Number()},
			)}),
			after: Obj(Field{Name: "address", Schema: Obj(
				Field{Name: "city", Schema: String()},
				Field{Name: "zip", Schema: String()},
			)}),
		},
		{
			name:   "kind change",
			before: Obj(Field{Name: "tags", Schema: Arr(String())}),
			after:  Obj(Field{Name: "tags", Schema: Arr(Number())}),
		},
		{
			name: "multiple simultaneous changes",
			before: Obj(
				Field{Name: "name", Schema: String()},
				Field{Name: "legacy", Schema: String()},
			),
			after: Obj(
				Field{Name: "name", Schema: Optional(String())},
				Field{Name: "email", Schema: String()},
			),
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			before := canon(c.before)
			after := canon(c.after)
			edits := Diff(before, after)
			got := ApplyDiff(before, edits)
			if !Equal(canon(got), after) {
				t.Fatalf("round trip failed: applying diff to before did not reproduce after\nedits: %+v", edits)
			}
		})
	}
}

func TestApplyDiffOfEmptyEditsIsIdentity(t *testing.T) {
	a := canon(Obj(Field{Name: "name", Schema: String()}))
	got := ApplyDiff(a, nil)
	if !Equal(got, a) {
		t.Fatalf("expected ApplyDiff with no edits to return input unchanged")
	}
}
