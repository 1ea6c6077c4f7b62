package schema

// EditKind classifies one diff record.
type EditKind string

const (
	EditAdded    EditKind = "added"
	EditRemoved  EditKind = "removed"
	EditModified EditKind = "modified"
)

// Edit is one record emitted by Diff. Path is the dotted field path from the
// root. Before/After carry the canonical nodes involved: both set for
// modified, only one set for added/removed. FieldOptional records the
// field's optionality for added/removed edits, so that ApplyDiff can
// reconstruct the exact object field.
type Edit struct {
	Path          []string
	Kind          EditKind
	Before        *Node
	After         *Node
	FieldOptional bool

	// OptionalChanged/NewOptional are set only when an object field's
	// optionality flips between before and after without necessarily
	// changing its schema; ApplyDiff uses them to update the field's
	// Optional flag in place.
	OptionalChanged bool
	NewOptional     bool
}

// Diff walks two canonical trees in lockstep and returns the sequence of
// edits required to turn before into after. Diff only recurses through
// Object fields; any other kind of change (array element, record value,
// union shape, primitive refinement, literal value, ...) is reported as a
// single modified edit at the shallowest differing path, never expanded
// further. This keeps the result invertible: ApplyDiff(before, Diff(before,
// after)) == after.
func Diff(before, after *Node) []Edit {
	return diffAt(nil, before, after)
}

func diffAt(path []string, before, after *Node) []Edit {
	switch {
	case before == nil && after == nil:
		return nil
	case before == nil:
		return []Edit{{Path: clonePath(path), Kind: EditAdded, After: after}}
	case after == nil:
		return []Edit{{Path: clonePath(path), Kind: EditRemoved, Before: before}}
	}

	if before.Kind == KindObject && after.Kind == KindObject {
		return diffObjects(path, before, after)
	}

	if Equal(before, after) {
		return nil
	}
	return []Edit{{Path: clonePath(path), Kind: EditModified, Before: before, After: after}}
}

func diffObjects(path []string, before, after *Node) []Edit {
	beforeIdx := make(map[string]int, len(before.Fields))
	for i, f := range before.Fields {
		beforeIdx[f.Name] = i
	}

	var edits []Edit
	seen := make(map[string]bool, len(after.Fields))

	for _, af := range after.Fields {
		seen[af.Name] = true
		childPath := append(append([]string{}, path...), af.Name)
		if bi, ok := beforeIdx[af.Name]; ok {
			bf := before.Fields[bi]
			if bf.Optional != af.Optional {
				edits = append(edits, Edit{
					Path:            clonePath(childPath),
					Kind:            EditModified,
					Before:          bf.Schema,
					After:           af.Schema,
					OptionalChanged: true,
					NewOptional:     af.Optional,
				})
				continue
			}
			edits = append(edits, diffAt(childPath, bf.Schema, af.Schema)...)
		} else {
			edits = append(edits, Edit{
				Path:          clonePath(childPath),
				Kind:          EditAdded,
				After:         af.Schema,
				FieldOptional: af.Optional,
			})
		}
	}

	for _, bf := range before.Fields {
		if seen[bf.Name] {
			continue
		}
		childPath := append(append([]string{}, path...), bf.Name)
		edits = append(edits, Edit{
			Path:          clonePath(childPath),
			Kind:          EditRemoved,
			Before:        bf.Schema,
			FieldOptional: bf.Optional,
		})
	}

	return edits
}

func clonePath(p []string) []string {
	return append([]string{}, p...)
}

// ApplyDiff applies edits produced by Diff to before and returns the
// resulting tree, so ApplyDiff(A, Diff(A, B)) == B for canonical trees.
func ApplyDiff(before *Node, edits []Edit) *Node {
	result := before
	for _, e := range edits {
		result = applyEdit(result, e.Path, e)
	}
	return result
}

func applyEdit(root *Node, path []string, e Edit) *Node {
	if len(path) == 0 {
		switch e.Kind {
		case EditModified:
			return e.After
		case EditRemoved:
			return nil
		case EditAdded:
			return e.After
		}
		return root
	}

	parent := root
	if parent == nil || parent.Kind != KindObject {
		parent = &Node{Kind: KindObject}
	}
	name := path[0]
	rest := path[1:]

	fields := append([]Field{}, parent.Fields...)
	idx := -1
	for i, f := range fields {
		if f.Name == name {
			idx = i
			break
		}
	}

	if len(rest) == 0 {
		switch e.Kind {
		case EditAdded:
			fields = append(fields, Field{Name: name, Optional: e.FieldOptional, Schema: e.After})
		case EditRemoved:
			if idx >= 0 {
				fields = append(fields[:idx], fields[idx+1:]...)
			}
		case EditModified:
			if idx >= 0 {
				fields[idx].Schema = e.After
				if e.OptionalChanged {
					fields[idx].Optional = e.NewOptional
				}
			} else {
				fields = append(fields, Field{Name: name, Schema: e.After, Optional: e.NewOptional})
			}
		}
		return &Node{Kind: KindObject, Fields: fields, Refinements: parent.Refinements, Index: parent.Index}
	}

	if idx < 0 {
		fields = append(fields, Field{Name: name, Schema: &Node{Kind: KindObject}})
		idx = len(fields) - 1
	}
	fields[idx].Schema = applyEdit(fields[idx].Schema, rest, e)
	return &Node{Kind: KindObject, Fields: fields, Refinements: parent.Refinements, Index: parent.Index}
}
