package main

import (
	"errors"

	"github.com/diister/mongodbee/internal/builder"
	"github.com/diister/mongodbee/internal/chain"
	"github.com/diister/mongodbee/internal/config"
	"github.com/diister/mongodbee/internal/executor"
	"github.com/diister/mongodbee/internal/ledger"
	"github.com/diister/mongodbee/internal/lock"
	"github.com/diister/mongodbee/internal/planner"
)

// Exit codes: 0 success, 1 validation failure
// (chain or seed), 2 runtime failure (driver or dirty), 3 lock
// contention, 4 divergent ledger.
const (
	exitSuccess           = 0
	exitValidationFailure = 1
	exitRuntimeFailure    = 2
	exitLockContention    = 3
	exitLedgerDivergent   = 4
)

// exitCodeFor maps the engine's error taxonomy to the CLI exit code
// contract. Errors arrive wrapped (the executor tags every failure with
// its migration id), so matching goes through errors.As rather than a
// bare type switch. Unrecognized errors fall back to exitRuntimeFailure.
func exitCodeFor(err error) int {
	var (
		configInvalid *config.ConfigInvalidError
		parentMissing *chain.ParentMissingError
		rootAmbiguous *chain.RootAmbiguousError
		rootMissing   *chain.RootMissingError
		drift         *chain.SchemaDriftUncoveredError
		tampered      *chain.ChainTamperedError
		cycle         *chain.CycleDetectedError
		builderSeed   *builder.SeedInvalidError
		executorSeed  *executor.SeedInvalidError
		transformBad  *executor.TransformInvalidError
		irreversible  *planner.IrreversibleRollbackError
		badTarget     *planner.TargetNotInChainError
		divergent     *planner.DivergentError
		lockBusy      *lock.BusyError
		ledgerBusy    *ledger.BusyError
		driverFailed  *executor.DriverError
	)

	switch {
	case errors.As(err, &configInvalid),
		errors.As(err, &parentMissing), errors.As(err, &rootAmbiguous),
		errors.As(err, &rootMissing), errors.As(err, &drift),
		errors.As(err, &tampered), errors.As(err, &cycle),
		errors.As(err, &builderSeed), errors.As(err, &executorSeed),
		errors.As(err, &transformBad),
		errors.As(err, &irreversible), errors.As(err, &badTarget):
		return exitValidationFailure
	case errors.As(err, &divergent):
		return exitLedgerDivergent
	case errors.As(err, &lockBusy):
		return exitLockContention
	case errors.As(err, &ledgerBusy), errors.As(err, &driverFailed):
		return exitRuntimeFailure
	default:
		return exitRuntimeFailure
	}
}
