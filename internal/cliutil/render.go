// Package cliutil renders engine reports as colorized terminal output for
// cmd/mongodbee. The engine package only ever returns data; every print
// statement in this module lives here, keeping the "collaborator renders,
// core returns data" boundary intact.
package cliutil

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/diister/mongodbee/internal/engine"
	"github.com/diister/mongodbee/internal/executor"
	"github.com/diister/mongodbee/internal/ledger"
)

var (
	applied = color.New(color.FgGreen)
	pending = color.New(color.FgYellow)
	dirty   = color.New(color.FgRed, color.Bold)
	warn    = color.New(color.FgYellow)
	header  = color.New(color.Bold)
)

// RenderStatus prints a human-readable status report to w: applied
// migrations in green, pending ones in yellow, a dirty entry in bold red,
// and the lock state if held.
func RenderStatus(w io.Writer, r *engine.Report) {
	header.Fprintln(w, "Migrations")
	for _, e := range r.Applied {
		applied.Fprintf(w, "  [applied] %s (%s, %s)\n", e.MigrationID, e.Direction, e.AppliedAt.Format(time.RFC3339))
	}
	for _, id := range r.Pending {
		pending.Fprintf(w, "  [pending] %s\n", id)
	}
	if r.Dirty != nil {
		renderDirty(w, r.Dirty)
	}
	if r.LockHeld {
		renderLock(w, r)
	}
}

func renderDirty(w io.Writer, d *ledger.Entry) {
	dirty.Fprintf(w, "  [dirty]   %s (%s, started %s)\n", d.MigrationID, d.Direction, d.AppliedAt.Format(time.RFC3339))
	warn.Fprintln(w, "  a previous run left this migration incomplete; run `mongodbee rollback --repair` or restore from backup")
}

func renderLock(w io.Writer, r *engine.Report) {
	if r.LockStale {
		warn.Fprintf(w, "lock held by %s since %s (stale; --force-unlock available)\n", r.LockOwner, r.LockAcquired.Format(time.RFC3339))
		return
	}
	fmt.Fprintf(w, "lock held by %s since %s\n", r.LockOwner, r.LockAcquired.Format(time.RFC3339))
}

// RenderPlan prints a plan's direction, the ids of its migrations in order,
// and its warnings; it executes nothing. `check` prints the plan it
// simulated, and `migrate`/`rollback` print the plan after applying it.
func RenderPlan(w io.Writer, direction string, migrationIDs []string, warnings []string) {
	header.Fprintf(w, "Plan (%s): %d migration(s)\n", direction, len(migrationIDs))
	for _, id := range migrationIDs {
		fmt.Fprintf(w, "  %s\n", id)
	}
	for _, warning := range warnings {
		warn.Fprintf(w, "  warning: %s\n", warning)
	}
}

// RenderStatusJSON writes r as JSON, the machine-readable form `status
// --json` uses for CI collaborators.
func RenderStatusJSON(w io.Writer, r *engine.Report) error {
	return json.NewEncoder(w).Encode(r)
}

type planJSON struct {
	Direction    string   `json:"direction"`
	MigrationIDs []string `json:"migrationIds"`
	Warnings     []string `json:"warnings,omitempty"`
}

// RenderPlanJSON writes the same data RenderPlan prints, as JSON.
func RenderPlanJSON(w io.Writer, direction string, migrationIDs []string, warnings []string) error {
	return json.NewEncoder(w).Encode(planJSON{Direction: direction, MigrationIDs: migrationIDs, Warnings: warnings})
}

// RenderError prints err in bold red, the convention every exit path in
// cmd/mongodbee uses before mapping err to an exit code.
func RenderError(w io.Writer, err error) {
	dirty.Fprintf(w, "error: %v\n", err)
}

// RenderProgress prints one line per batch reported on an executor's
// progress channel, used by migrate/rollback to show movement through a
// long seed or transform operation.
func RenderProgress(w io.Writer, p executor.Progress) {
	fmt.Fprintf(w, "  %s: %s %s (%d processed", p.MigrationID, p.Operation, p.CollectionName, p.DocumentsProcessed)
	if p.EstimatedRemaining > 0 {
		fmt.Fprintf(w, ", ~%d remaining", p.EstimatedRemaining)
	}
	fmt.Fprintln(w, ")")
}
