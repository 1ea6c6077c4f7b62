package schema

import "testing"

func TestEqualIgnoresFieldOrderInsensitivity(t *testing.T) {
	a := Canonicalize(Obj(Field{Name: "a", Schema: String()}, Field{Name: "b", Schema: Number()}))
	b := Canonicalize(Obj(Field{Name: "a", Schema: String()}, Field{Name: "b", Schema: Number()}))
	if !Equal(a, b) {
		t.Fatalf("expected identical object schemas to be equal")
	}
}

func TestEqualDetectsFieldOrderChange(t *testing.T) {
	a := Canonicalize(Obj(Field{Name: "a", Schema: String()}, Field{Name: "b", Schema: Number()}))
	b := Canonicalize(Obj(Field{Name: "b", Schema: Number()}, Field{Name: "a", Schema: String()}))
	if Equal(a, b) {
		t.Fatalf("field order is significant; reordered objects must not be equal")
	}
}

func TestEqualDetectsRefinementDifference(t *testing.T) {
	a := Canonicalize(WithRefinement(String(), Refinement{Kind: RefinementMinLength, Value: 1}))
	b := Canonicalize(WithRefinement(String(), Refinement{Kind: RefinementMinLength, Value: 2}))
	if Equal(a, b) {
		t.Fatalf("expected differing refinement value to break equality")
	}
}

func TestEqualDetectsIndexDifference(t *testing.T) {
	a := Canonicalize(WithIndex(String(), IndexMetadata{Unique: true}))
	b := Canonicalize(WithIndex(String(), IndexMetadata{Unique: false}))
	if Equal(a, b) {
		t.Fatalf("expected differing index metadata to break equality")
	}
}

func TestEqualHandlesNilNodes(t *testing.T) {
	if !Equal(nil, nil) {
		t.Fatalf("two nil nodes should be equal")
	}
	if Equal(nil, String()) || Equal(String(), nil) {
		t.Fatalf("nil should never equal a real node")
	}
}

func TestEqualRecursesThroughUnions(t *testing.T) {
	a := Canonicalize(Union(String(), Number()))
	b := Canonicalize(Union(String(), Number()))
	c := Canonicalize(Union(String(), Boolean()))
	if !Equal(a, b) {
		t.Fatalf("expected identical unions to be equal")
	}
	if Equal(a, c) {
		t.Fatalf("expected differing union alternatives to break equality")
	}
}
