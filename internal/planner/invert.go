package planner

import (
	"fmt"

	"github.com/diister/mongodbee/internal/migration"
)

// invertOperations transforms a migration's forward operation list into
// its rollback equivalent, one inversion rule per kind. The caller has
// already rejected migrations flagged irreversible; invertOperations still
// fails per-operation for lossy/absent-down transforms since `lossy` is an
// operation-level flag that may appear without tripping the
// migration-level irreversible flag in hand-constructed test fixtures.
func invertOperations(ops []migration.Operation) ([]migration.Operation, []string, error) {
	inverted := make([]migration.Operation, 0, len(ops))
	var warnings []string

	// Operations invert in reverse application order.
	for i := len(ops) - 1; i >= 0; i-- {
		op := ops[i]
		switch op.Kind {
		case migration.OpCreateCollection:
			inverted = append(inverted, migration.Operation{Kind: migration.OpDropCollection, Name: op.Name})

		case migration.OpCreateMultiCollection:
			inverted = append(inverted, migration.Operation{Kind: migration.OpDropCollection, Name: op.Name})

		case migration.OpCreateMultiModelInstance:
			inverted = append(inverted, migration.Operation{Kind: migration.OpDropCollection, Name: op.InstanceName})

		case migration.OpSeedCollection:
			inverted = append(inverted, migration.Operation{
				Kind: migration.OpDeleteSeededDocuments, Name: op.Name, SeedSnapshot: op.Docs,
			})
			warnings = append(warnings, fmt.Sprintf("rollback of seed on %s: documents that have diverged from the seeded values are left untouched", op.Name))

		case migration.OpSeedMultiCollectionType:
			inverted = append(inverted, migration.Operation{
				Kind: migration.OpDeleteSeededDocuments, Name: op.Name, TypeTag: op.TypeTag, SeedSnapshot: op.Docs,
			})
			warnings = append(warnings, fmt.Sprintf("rollback of seed on %s/%s: documents that have diverged from the seeded values are left untouched", op.Name, op.TypeTag))

		case migration.OpSeedMultiModelInstanceType:
			inverted = append(inverted, migration.Operation{
				Kind: migration.OpDeleteSeededDocuments, InstanceName: op.InstanceName, TypeTag: op.TypeTag, SeedSnapshot: op.Docs,
			})
			warnings = append(warnings, fmt.Sprintf("rollback of seed on %s/%s: documents that have diverged from the seeded values are left untouched", op.InstanceName, op.TypeTag))

		case migration.OpTransformCollection:
			if op.Lossy || op.Down == nil {
				return nil, nil, fmt.Errorf("transform on %s has no inverse (lossy=%v, down present=%v): %w", op.Name, op.Lossy, op.Down != nil, errNoInverse)
			}
			inverted = append(inverted, migration.Operation{Kind: migration.OpTransformCollection, Name: op.Name, Up: op.Down, Down: op.Up})

		case migration.OpTransformMultiCollectionType:
			if op.Lossy || op.Down == nil {
				return nil, nil, fmt.Errorf("transform on %s/%s has no inverse: %w", op.Name, op.TypeTag, errNoInverse)
			}
			inverted = append(inverted, migration.Operation{
				Kind: migration.OpTransformMultiCollectionType, Name: op.Name, TypeTag: op.TypeTag, Up: op.Down, Down: op.Up,
			})

		case migration.OpUpdateIndexes:
			// Index actions against the parent schema are computed
			// separately by reconcileIndexes; the operation itself just
			// marks the collection as needing reconciliation.
			inverted = append(inverted, migration.Operation{Kind: migration.OpUpdateIndexes, Name: op.Name})

		case migration.OpRenameCollection:
			inverted = append(inverted, migration.Operation{Kind: migration.OpRenameCollection, From: op.To, To: op.From})

		case migration.OpRenameMultiCollectionType:
			inverted = append(inverted, migration.Operation{
				Kind: migration.OpRenameMultiCollectionType, Name: op.Name, From: op.To, To: op.From,
			})

		default:
			return nil, nil, fmt.Errorf("planner: no inversion rule for operation kind %s", op.Kind)
		}
	}

	return inverted, warnings, nil
}

var errNoInverse = fmt.Errorf("transform has no usable inverse")
