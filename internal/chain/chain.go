package chain

import (
	"sort"

	"github.com/diister/mongodbee/internal/migration"
)

// Chain is the totally-ordered, validated sequence of migration
// definitions produced by Load.
type Chain struct {
	Definitions []migration.Definition
	Checksums   map[string]string
	byID        map[string]int
}

// Len returns the number of migrations in the chain.
func (c *Chain) Len() int { return len(c.Definitions) }

// IndexOf returns the position of id in the chain, or -1 if absent.
func (c *Chain) IndexOf(id string) int {
	if i, ok := c.byID[id]; ok {
		return i
	}
	return -1
}

// At returns the definition at position i.
func (c *Chain) At(i int) migration.Definition { return c.Definitions[i] }

// IsAncestor reports whether ancestorID appears at or before descendantID
// in chain order (both inclusive); used by the planner for target
// resolution.
func (c *Chain) IsAncestor(ancestorID, descendantID string) bool {
	ai, di := c.IndexOf(ancestorID), c.IndexOf(descendantID)
	if ai < 0 || di < 0 {
		return false
	}
	return ai <= di
}

// Load validates a set of registered definitions and linearizes them into
// a Chain: parent resolution, root uniqueness, cycle-free linearization,
// schema-drift coverage, then checksums, in that order. Load is
// deterministic: the same definitions always produce the same chain and
// checksums.
func Load(defs []migration.Definition) (*Chain, error) {
	byID := make(map[string]migration.Definition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}

	// Validation 1: every non-root parent must resolve.
	for _, d := range defs {
		if d.IsRoot() {
			continue
		}
		if _, ok := byID[d.Parent]; !ok {
			return nil, &ParentMissingError{MigrationID: d.ID, ParentID: d.Parent}
		}
	}

	// Validation 2: exactly one root.
	var roots []string
	for _, d := range defs {
		if d.IsRoot() {
			roots = append(roots, d.ID)
		}
	}
	if len(roots) == 0 {
		return nil, &RootMissingError{}
	}
	if len(roots) > 1 {
		sort.Strings(roots)
		return nil, &RootAmbiguousError{RootIDs: roots}
	}

	// Validation 3: linearize by following parent->child links from the
	// root; any definition not reached is part of a cycle or a disconnected
	// branch, both forbidden ("no branches, no cycles").
	childOf := make(map[string]string, len(defs)) // parent id -> child id
	for _, d := range defs {
		if !d.IsRoot() {
			if existing, dup := childOf[d.Parent]; dup {
				return nil, &CycleDetectedError{MigrationIDs: []string{existing, d.ID}}
			}
			childOf[d.Parent] = d.ID
		}
	}

	ordered := make([]migration.Definition, 0, len(defs))
	visited := make(map[string]bool, len(defs))
	cur := roots[0]
	for {
		d, ok := byID[cur]
		if !ok || visited[cur] {
			return nil, &CycleDetectedError{MigrationIDs: []string{cur}}
		}
		visited[cur] = true
		ordered = append(ordered, d)
		next, hasChild := childOf[cur]
		if !hasChild {
			break
		}
		cur = next
	}
	if len(ordered) != len(defs) {
		var unreached []string
		for id := range byID {
			if !visited[id] {
				unreached = append(unreached, id)
			}
		}
		sort.Strings(unreached)
		return nil, &CycleDetectedError{MigrationIDs: unreached}
	}

	// Chronological sanity: ids sort lexicographically; chain order must
	// match. A violation here means two definitions
	// were linked out of chronological order, which Load treats the same
	// as a malformed chain.
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].ID >= ordered[i].ID {
			return nil, &CycleDetectedError{MigrationIDs: []string{ordered[i-1].ID, ordered[i].ID}}
		}
	}

	// Validation 4: coarse schema-drift coverage, each pair (prev, next).
	for i := 1; i < len(ordered); i++ {
		if err := checkSchemaDrift(ordered[i-1], ordered[i]); err != nil {
			return nil, err
		}
	}

	// Validation 5: checksums.
	checksums := make(map[string]string, len(ordered))
	for _, d := range ordered {
		checksums[d.ID] = Checksum(d)
	}

	idxByID := make(map[string]int, len(ordered))
	for i, d := range ordered {
		idxByID[d.ID] = i
	}

	return &Chain{Definitions: ordered, Checksums: checksums, byID: idxByID}, nil
}

// VerifyAgainstLedger compares the chain's recomputed checksum for id
// against the checksum a ledger entry recorded at apply time, raising
// ChainTampered on mismatch.
func (c *Chain) VerifyAgainstLedger(id, ledgerChecksum string) error {
	recorded, ok := c.Checksums[id]
	if !ok {
		return nil
	}
	if recorded != ledgerChecksum {
		return &ChainTamperedError{MigrationID: id, ExpectedChecksum: ledgerChecksum, ActualChecksum: recorded}
	}
	return nil
}
