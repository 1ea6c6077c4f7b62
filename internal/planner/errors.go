package planner

import "fmt"

// DivergentError reports that the ledger's applied ids are not a prefix of
// the chain.
type DivergentError struct {
	AppliedIDs []string
}

func (e *DivergentError) Error() string {
	return fmt.Sprintf("ledger applied ids do not form a prefix of the loaded chain: %v", e.AppliedIDs)
}

// TargetNotInChainError reports a target id that does not appear anywhere
// in the loaded chain.
type TargetNotInChainError struct {
	Target string
}

func (e *TargetNotInChainError) Error() string {
	return fmt.Sprintf("target %q is not part of the loaded chain", e.Target)
}

// IrreversibleRollbackError reports an attempt to roll back a migration
// that contains a create-* operation or a lossy transform.
type IrreversibleRollbackError struct {
	MigrationID string
}

func (e *IrreversibleRollbackError) Error() string {
	return fmt.Sprintf("migration %s is irreversible and cannot be rolled back", e.MigrationID)
}
