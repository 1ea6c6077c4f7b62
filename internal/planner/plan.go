// Package planner reconciles (ledger state, chain, target) into an
// ordered Plan of database actions, performing index reconciliation and
// operation inversion for rollback.
package planner

import (
	"github.com/diister/mongodbee/internal/chain"
	"github.com/diister/mongodbee/internal/migration"
	"github.com/diister/mongodbee/internal/schema"
)

// Direction is the direction a plan entry (or the whole plan) moves in.
type Direction string

const (
	DirectionNone Direction = "none"
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// TargetHead is the sentinel meaning "the latest migration in the chain".
const TargetHead = "head"

// TargetEmpty is the sentinel meaning "no migrations applied" — rolling
// back past the root.
const TargetEmpty = ""

// PlanEntry is one migration's contribution to the plan: its operation
// list (inverted, if rolling back) plus the index actions implied by the
// schema change it represents.
type PlanEntry struct {
	MigrationID  string
	Direction    Direction
	Operations   []migration.Operation
	IndexActions []schema.IndexAction

	// Definition is the chain entry this plan entry derives from — the
	// migration whose declared SchemaDocument the executor validates seed
	// documents and resolves create-time schemas against. For a
	// down entry this is still the migration being rolled back, not its
	// parent.
	Definition migration.Definition

	// Checksum is the chain's recomputed checksum for MigrationID, carried
	// so the executor can write it into the ledger entry without importing
	// the chain package directly.
	Checksum string

	// TargetSchemas is the declared schema set a Transform* operation's
	// output must conform to: this migration's own Schemas when rolling
	// forward, the parent's Schemas (zero value at the root) when rolling
	// back.
	TargetSchemas migration.SchemaDocument
}

// Plan is the ordered, ephemeral output of Build.
type Plan struct {
	Direction Direction
	Entries   []PlanEntry
	Warnings  []string
}

// Build resolves target against (c, appliedIDs) and produces the ordered
// Plan. appliedIDs must be in application order, oldest
// first, as returned by ledger.List.
func Build(c *chain.Chain, appliedIDs []string, target string) (*Plan, error) {
	appliedIdx, err := verifyAppliedPrefix(c, appliedIDs)
	if err != nil {
		return nil, err
	}

	targetIdx, err := resolveTargetIndex(c, target)
	if err != nil {
		return nil, err
	}

	switch {
	case targetIdx == appliedIdx:
		return &Plan{Direction: DirectionNone}, nil
	case targetIdx > appliedIdx:
		return buildUp(c, appliedIdx, targetIdx)
	default:
		return buildDown(c, appliedIdx, targetIdx)
	}
}

// verifyAppliedPrefix checks that appliedIDs is exactly the chain's first
// len(appliedIDs) ids, in order, and returns the index of the last applied
// migration (-1 if none applied).
func verifyAppliedPrefix(c *chain.Chain, appliedIDs []string) (int, error) {
	for i, id := range appliedIDs {
		if i >= c.Len() || c.At(i).ID != id {
			return 0, &DivergentError{AppliedIDs: appliedIDs}
		}
	}
	return len(appliedIDs) - 1, nil
}

func resolveTargetIndex(c *chain.Chain, target string) (int, error) {
	switch target {
	case TargetEmpty:
		return -1, nil
	case TargetHead:
		return c.Len() - 1, nil
	default:
		idx := c.IndexOf(target)
		if idx < 0 {
			return 0, &TargetNotInChainError{Target: target}
		}
		return idx, nil
	}
}

func buildUp(c *chain.Chain, appliedIdx, targetIdx int) (*Plan, error) {
	plan := &Plan{Direction: DirectionUp}
	for i := appliedIdx + 1; i <= targetIdx; i++ {
		def := c.At(i)
		entry := PlanEntry{
			MigrationID: def.ID, Direction: DirectionUp, Operations: def.Ops,
			Definition: def, Checksum: c.Checksums[def.ID], TargetSchemas: def.Schemas,
		}
		if i > 0 {
			entry.IndexActions = reconcileIndexes(c.At(i-1), def)
		} else {
			entry.IndexActions = reconcileIndexes(migration.Definition{}, def)
		}
		plan.Entries = append(plan.Entries, entry)
	}
	return plan, nil
}

func buildDown(c *chain.Chain, appliedIdx, targetIdx int) (*Plan, error) {
	plan := &Plan{Direction: DirectionDown}
	for i := appliedIdx; i > targetIdx; i-- {
		def := c.At(i)
		if def.Props.Has(migration.PropertyIrreversible) {
			return nil, &IrreversibleRollbackError{MigrationID: def.ID}
		}
		ops, warnings, err := invertOperations(def.Ops)
		if err != nil {
			return nil, err
		}
		plan.Warnings = append(plan.Warnings, warnings...)

		var parent migration.Definition
		if i > 0 {
			parent = c.At(i - 1)
		}
		entry := PlanEntry{
			MigrationID: def.ID, Direction: DirectionDown, Operations: ops,
			Definition: def, Checksum: c.Checksums[def.ID], TargetSchemas: parent.Schemas,
		}
		entry.IndexActions = reconcileIndexes(def, parent)
		plan.Entries = append(plan.Entries, entry)
	}
	return plan, nil
}
