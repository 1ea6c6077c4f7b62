package schema

import "strings"

// IndexSpec is the index metadata recorded at one schema path, plus the
// dotted path itself for convenience when building driver index models.
type IndexSpec struct {
	Path    string
	Options IndexMetadata
}

// ExtractIndexes walks a canonical schema tree and collects every node
// carrying index metadata, keyed by dotted path. The result depends
// only on the final (canonical) schema, never on the surface syntax used to
// build it.
func ExtractIndexes(n *Node) map[string]IndexSpec {
	out := map[string]IndexSpec{}
	walkIndexes(nil, n, out)
	return out
}

func walkIndexes(path []string, n *Node, out map[string]IndexSpec) {
	if n == nil {
		return
	}
	if n.Index != nil && len(path) > 0 {
		out[strings.Join(path, ".")] = IndexSpec{Path: strings.Join(path, "."), Options: *n.Index}
	}

	switch n.Kind {
	case KindObject:
		for _, f := range n.Fields {
			walkIndexes(append(append([]string{}, path...), f.Name), f.Schema, out)
		}
	case KindArray:
		walkIndexes(append(append([]string{}, path...), "[]"), n.Element, out)
	case KindRecord:
		walkIndexes(append(append([]string{}, path...), "*"), n.ValueSchema, out)
	case KindUnion, KindIntersection:
		for _, alt := range n.Alternatives {
			walkIndexes(path, alt, out)
		}
	}
}

// IndexActionKind classifies how an index must change when moving from one
// schema revision to the next.
type IndexActionKind string

const (
	IndexUnchanged IndexActionKind = "unchanged"
	IndexAdd       IndexActionKind = "add"
	IndexDrop      IndexActionKind = "drop"
	IndexRebuild   IndexActionKind = "rebuild"
)

// IndexAction is one entry of a DiffIndexes result.
type IndexAction struct {
	Path   string
	Kind   IndexActionKind
	Before *IndexMetadata
	After  *IndexMetadata
}

// DiffIndexes classifies each indexed path across two extracted index maps.
// A path present in both with identical options is unchanged; present only
// in after is add; present only in before is drop; present in both with any
// differing option is rebuild.
func DiffIndexes(before, after map[string]IndexSpec) []IndexAction {
	paths := make(map[string]bool, len(before)+len(after))
	for p := range before {
		paths[p] = true
	}
	for p := range after {
		paths[p] = true
	}

	actions := make([]IndexAction, 0, len(paths))
	for p := range paths {
		b, hasBefore := before[p]
		a, hasAfter := after[p]
		switch {
		case hasBefore && !hasAfter:
			opt := b.Options
			actions = append(actions, IndexAction{Path: p, Kind: IndexDrop, Before: &opt})
		case !hasBefore && hasAfter:
			opt := a.Options
			actions = append(actions, IndexAction{Path: p, Kind: IndexAdd, After: &opt})
		default:
			bo, ao := b.Options, a.Options
			if bo == ao {
				actions = append(actions, IndexAction{Path: p, Kind: IndexUnchanged, Before: &bo, After: &ao})
			} else {
				actions = append(actions, IndexAction{Path: p, Kind: IndexRebuild, Before: &bo, After: &ao})
			}
		}
	}
	return actions
}
