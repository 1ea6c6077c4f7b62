// Package schema implements the canonical schema tree: the nested value
// describing the acceptable shape of a document, its canonical
// (author-syntax-independent) form,
// structural equality, field-granular diffing, and index metadata
// extraction.
package schema

// Kind identifies the shape a Node describes. The set is closed:
// primitives, literal, object, array, record, union,
// intersection, reference, plus the two pre-canonicalization wrapper kinds
// used only by authors (optionalWrapper, nullableWrapper never appear in a
// canonical tree — see Canonicalize).
type Kind string

const (
	KindString       Kind = "string"
	KindNumber       Kind = "number"
	KindBoolean      Kind = "boolean"
	KindDate         Kind = "date"
	KindBinary       Kind = "binary"
	KindNull         Kind = "null"
	KindLiteral      Kind = "literal"
	KindObject       Kind = "object"
	KindArray        Kind = "array"
	KindRecord       Kind = "record"
	KindUnion        Kind = "union"
	KindIntersection Kind = "intersection"
	KindReference    Kind = "reference"

	kindOptionalWrapper Kind = "$optional"
	kindNullableWrapper Kind = "$nullable"
)

// RefinementKind enumerates the canonical refinement vocabulary. Other
// vocabularies are translated at the boundary; anything the canonical form does not
// understand is preserved opaquely under RefinementCustom so that Diff
// never silently drops it.
type RefinementKind string

const (
	RefinementMinLength RefinementKind = "minLength"
	RefinementMaxLength RefinementKind = "maxLength"
	RefinementMinValue  RefinementKind = "minValue"
	RefinementMaxValue  RefinementKind = "maxValue"
	RefinementRegex     RefinementKind = "regex"
	RefinementNonEmpty  RefinementKind = "nonEmpty"
	RefinementEnum      RefinementKind = "enum"
	RefinementCustom    RefinementKind = "custom"
)

// Refinement is one pipe entry attached to a node. Value holds the
// refinement's operand (e.g. the integer for minLength); Payload is used
// only by RefinementCustom to carry an arbitrary opaque value coming from a
// vocabulary this package does not model directly.
type Refinement struct {
	Kind    RefinementKind
	Value   interface{}
	Payload interface{}
}

// IndexMetadata is the index-option bundle a node may carry.
type IndexMetadata struct {
	Unique          bool
	CaseInsensitive bool
	Sparse          bool
	Collation       string
}

// Field is one entry of an object node's ordered field mapping. Field order
// is significant.
type Field struct {
	Name     string
	Optional bool
	Schema   *Node
}

// Node is one node of a schema tree. Only the fields relevant to Kind are
// populated; the zero value of the others is ignored. Node is treated as
// immutable once returned from a constructor or Canonicalize — callers that
// need to mutate must clone first (see shallowClone below).
type Node struct {
	Kind Kind

	// KindLiteral
	Literal interface{}

	// KindObject
	Fields []Field

	// KindArray
	Element  *Node
	MinItems *int
	MaxItems *int

	// KindRecord
	KeySchema   *Node
	ValueSchema *Node

	// KindUnion / KindIntersection
	Alternatives []*Node

	// KindReference
	ReferenceTag string

	Refinements []Refinement
	Index       *IndexMetadata

	// Set only in canonical form; absent (false) on freshly-built nodes
	// until Canonicalize resolves wrapper nesting.
	AllowUndefined bool
	AllowNull      bool

	// Only present pre-canonicalization, on kindOptionalWrapper/kindNullableWrapper.
	wrapped *Node
}

// String builds a primitive string node.
func String() *Node { return &Node{Kind: KindString} }

// Number builds a primitive number node.
func Number() *Node { return &Node{Kind: KindNumber} }

// Boolean builds a primitive boolean node.
func Boolean() *Node { return &Node{Kind: KindBoolean} }

// Date builds a primitive date node.
func Date() *Node { return &Node{Kind: KindDate} }

// Binary builds a primitive binary node.
func Binary() *Node { return &Node{Kind: KindBinary} }

// Null builds the null primitive node.
func Null() *Node { return &Node{Kind: KindNull} }

// Lit builds a literal node fixed to exactly one value.
func Lit(value interface{}) *Node { return &Node{Kind: KindLiteral, Literal: value} }

// Obj builds an object node from an ordered field list.
func Obj(fields ...Field) *Node { return &Node{Kind: KindObject, Fields: fields} }

// Arr builds an array node with the given element schema.
func Arr(element *Node) *Node { return &Node{Kind: KindArray, Element: element} }

// Rec builds a record node: keys constrained by keySchema, values by valueSchema.
func Rec(keySchema, valueSchema *Node) *Node {
	return &Node{Kind: KindRecord, KeySchema: keySchema, ValueSchema: valueSchema}
}

// Union builds a union of alternatives.
func Union(alts ...*Node) *Node { return &Node{Kind: KindUnion, Alternatives: alts} }

// Intersection builds a conjunction of alternatives.
func Intersection(alts ...*Node) *Node { return &Node{Kind: KindIntersection, Alternatives: alts} }

// Ref builds a reference node pointing at a named entity tag, e.g. "user"
// for ids of the form "user:<ulid>".
func Ref(tag string) *Node { return &Node{Kind: KindReference, ReferenceTag: tag} }

// Optional marks n as allowed to be absent. Nesting Optional/Nullable calls
// is permitted at construction time; Canonicalize flattens the nesting.
func Optional(n *Node) *Node { return &Node{Kind: kindOptionalWrapper, wrapped: n} }

// Nullable marks n as allowed to be null.
func Nullable(n *Node) *Node { return &Node{Kind: kindNullableWrapper, wrapped: n} }

// WithRefinement returns a copy of n with the refinement appended.
func WithRefinement(n *Node, r Refinement) *Node {
	c := shallowClone(n)
	c.Refinements = append(append([]Refinement{}, n.Refinements...), r)
	return c
}

// WithIndex returns a copy of n carrying the given index metadata.
func WithIndex(n *Node, idx IndexMetadata) *Node {
	c := shallowClone(n)
	c.Index = &idx
	return c
}

func shallowClone(n *Node) *Node {
	cp := *n
	return &cp
}
