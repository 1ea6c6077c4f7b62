package schema

import "fmt"

// Equal reports whether two canonical nodes are structurally identical:
// same kind, same literal value (if any), same full refinement
// list, and recursively equal children, in order.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	if a.AllowUndefined != b.AllowUndefined || a.AllowNull != b.AllowNull {
		return false
	}
	if !refinementsEqual(a.Refinements, b.Refinements) {
		return false
	}
	if !indexEqual(a.Index, b.Index) {
		return false
	}

	switch a.Kind {
	case KindLiteral:
		return toComparableString(a.Literal) == toComparableString(b.Literal)
	case KindReference:
		return a.ReferenceTag == b.ReferenceTag
	case KindObject:
		if len(a.Fields) != len(b.Fields) {
			return false
		}
		for i := range a.Fields {
			if a.Fields[i].Name != b.Fields[i].Name || a.Fields[i].Optional != b.Fields[i].Optional {
				return false
			}
			if !Equal(a.Fields[i].Schema, b.Fields[i].Schema) {
				return false
			}
		}
		return true
	case KindArray:
		if !intPtrEqual(a.MinItems, b.MinItems) || !intPtrEqual(a.MaxItems, b.MaxItems) {
			return false
		}
		return Equal(a.Element, b.Element)
	case KindRecord:
		return Equal(a.KeySchema, b.KeySchema) && Equal(a.ValueSchema, b.ValueSchema)
	case KindUnion, KindIntersection:
		if len(a.Alternatives) != len(b.Alternatives) {
			return false
		}
		for i := range a.Alternatives {
			if !Equal(a.Alternatives[i], b.Alternatives[i]) {
				return false
			}
		}
		return true
	default:
		// primitives: kind equality (already checked above) is sufficient.
		return true
	}
}

func refinementsEqual(a, b []Refinement) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Kind != b[i].Kind {
			return false
		}
		if toComparableString(a[i].Value) != toComparableString(b[i].Value) {
			return false
		}
		if toComparableString(a[i].Payload) != toComparableString(b[i].Payload) {
			return false
		}
	}
	return true
}

func indexEqual(a, b *IndexMetadata) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func intPtrEqual(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func toComparableString(v interface{}) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%#v", v)
}
