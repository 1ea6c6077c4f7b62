package chain

import (
	"github.com/diister/mongodbee/internal/migration"
	"github.com/diister/mongodbee/internal/schema"
)

// checkSchemaDrift is a coarse coverage check: it verifies that
// every collection referenced by next's operations exists in next's
// declared schema, and that every field-level change between prev and
// next's schema for a given collection is covered by some operation
// touching that collection (create, rename, seed, transform, or index
// update).
func checkSchemaDrift(prev, next migration.Definition) error {
	referenced := referencedNames(next.Ops)
	var uncoveredPaths []string
	for name := range referenced {
		if _, ok := next.Schemas.Collections[name]; ok {
			continue
		}
		if _, ok := next.Schemas.MultiCollections[name]; ok {
			continue
		}
		if _, ok := next.Schemas.MultiModels[name]; ok {
			continue
		}
		uncoveredPaths = append(uncoveredPaths, name+" (referenced but not declared in schema)")
	}

	covered := coveredCollectionNames(next.Ops)
	names := unionCollectionNames(prev.Schemas.Collections, next.Schemas.Collections)
	for _, name := range names {
		before := prev.Schemas.Collections[name]
		after := next.Schemas.Collections[name]
		if before == nil && after == nil {
			continue
		}
		if before == nil || after == nil {
			if !covered[name] {
				uncoveredPaths = append(uncoveredPaths, name)
			}
			continue
		}
		edits := schema.Diff(before, after)
		if len(edits) > 0 && !covered[name] {
			uncoveredPaths = append(uncoveredPaths, name)
		}
	}

	if len(uncoveredPaths) > 0 {
		return &SchemaDriftUncoveredError{MigrationID: next.ID, Paths: uncoveredPaths}
	}
	return nil
}

// referencedNames collects the names an operation list requires to exist
// in the migration's own post-state schema. Rename sources are deliberately
// absent: after RenameCollection(from, to) the schema declares to, not
// from. RenameMultiCollectionType's From/To are type tags within Name, and
// multi-model instance names are dynamic, so neither is required here —
// only the model tag a create-instance op points at.
func referencedNames(ops []migration.Operation) map[string]bool {
	names := map[string]bool{}
	for _, op := range ops {
		switch op.Kind {
		case migration.OpRenameCollection:
			names[op.To] = true
		case migration.OpRenameMultiCollectionType:
			names[op.Name] = true
		case migration.OpCreateMultiModelInstance:
			names[op.ModelTag] = true
		case migration.OpSeedMultiModelInstanceType:
			// The instance's model tag is recorded in its _information
			// marker, not on the operation; nothing to require statically.
		default:
			if op.Name != "" {
				names[op.Name] = true
			}
		}
	}
	return names
}

func coveredCollectionNames(ops []migration.Operation) map[string]bool {
	covered := map[string]bool{}
	for _, op := range ops {
		switch op.Kind {
		case migration.OpCreateCollection, migration.OpTransformCollection, migration.OpUpdateIndexes, migration.OpSeedCollection:
			covered[op.Name] = true
		case migration.OpRenameCollection:
			covered[op.From] = true
			covered[op.To] = true
		}
	}
	return covered
}

func unionCollectionNames(a, b map[string]*schema.Node) []string {
	seen := map[string]bool{}
	var out []string
	for name := range a {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	for name := range b {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}
