package schema

import "sort"

// Canonicalize reduces an author-facing node to its canonical form:
// refinements deduplicated and sorted by kind, optional/nullable
// wrapper chains collapsed into AllowUndefined/AllowNull flags on the
// innermost real node, and single-branch unions flattened away. The result
// is safe to compare with Equal and to feed into Diff/ExtractIndexes.
func Canonicalize(n *Node) *Node {
	if n == nil {
		return nil
	}

	allowUndefined, allowNull, wrapIdx, wrapRefs, inner := unwrap(n)

	var out *Node
	switch inner.Kind {
	case KindObject:
		fields := make([]Field, len(inner.Fields))
		for i, f := range inner.Fields {
			canon := Canonicalize(f.Schema)
			optional := f.Optional || (canon != nil && canon.AllowUndefined)
			fields[i] = Field{Name: f.Name, Optional: optional, Schema: canon}
		}
		out = &Node{Kind: KindObject, Fields: fields}
	case KindArray:
		out = &Node{Kind: KindArray, Element: Canonicalize(inner.Element), MinItems: inner.MinItems, MaxItems: inner.MaxItems}
	case KindRecord:
		out = &Node{Kind: KindRecord, KeySchema: Canonicalize(inner.KeySchema), ValueSchema: Canonicalize(inner.ValueSchema)}
	case KindUnion:
		alts := canonicalizeAlternatives(inner.Alternatives)
		if len(alts) == 1 {
			out = alts[0]
		} else {
			out = &Node{Kind: KindUnion, Alternatives: alts}
		}
	case KindIntersection:
		alts := canonicalizeAlternatives(inner.Alternatives)
		if len(alts) == 1 {
			out = alts[0]
		} else {
			out = &Node{Kind: KindIntersection, Alternatives: alts}
		}
	default:
		cp := *inner
		out = &cp
	}

	out.Refinements = normalizeRefinements(append(append([]Refinement{}, wrapRefs...), inner.Refinements...))
	out.Index = inner.Index
	if out.Index == nil {
		out.Index = wrapIdx
	}
	out.AllowUndefined = out.AllowUndefined || allowUndefined
	out.AllowNull = out.AllowNull || allowNull
	out.wrapped = nil
	return out
}

// unwrap strips any chain of Optional/Nullable wrappers, accumulating their
// flags, and returns the first non-wrapper node found. Index metadata and
// refinements attached to a wrapper (WithIndex(Optional(...)) and the like)
// are hoisted out so they survive onto the inner node.
func unwrap(n *Node) (allowUndefined, allowNull bool, idx *IndexMetadata, refs []Refinement, inner *Node) {
	cur := n
	for cur != nil && (cur.Kind == kindOptionalWrapper || cur.Kind == kindNullableWrapper) {
		if cur.Kind == kindOptionalWrapper {
			allowUndefined = true
		} else {
			allowNull = true
		}
		if idx == nil {
			idx = cur.Index
		}
		refs = append(refs, cur.Refinements...)
		cur = cur.wrapped
	}
	if cur == nil {
		return allowUndefined, allowNull, idx, refs, &Node{Kind: KindNull}
	}
	return allowUndefined, allowNull, idx, refs, cur
}

func canonicalizeAlternatives(alts []*Node) []*Node {
	out := make([]*Node, len(alts))
	for i, a := range alts {
		out[i] = Canonicalize(a)
	}
	return out
}

// normalizeRefinements dedupes by (kind, value) and sorts by kind name so
// that refinement order never depends on authoring order.
func normalizeRefinements(rs []Refinement) []Refinement {
	if len(rs) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(rs))
	out := make([]Refinement, 0, len(rs))
	for _, r := range rs {
		key := refinementKey(r)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return refinementKey(out[i]) < refinementKey(out[j])
	})
	return out
}

func refinementKey(r Refinement) string {
	return string(r.Kind) + ":" + toComparableString(r.Value) + ":" + toComparableString(r.Payload)
}
