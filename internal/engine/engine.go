// Package engine wires the migration core's collaborators (chain, ledger,
// lock, planner, executor, driver) into the six operations the CLI
// surface calls: init, generate, status, check, migrate, rollback. It is
// the single place that owns a database connection and a
// process lock, the way ptah's Migrator owns a *sql.DB and a migration
// table across its public methods.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/diister/mongodbee/internal/chain"
	"github.com/diister/mongodbee/internal/config"
	"github.com/diister/mongodbee/internal/driver"
	"github.com/diister/mongodbee/internal/driver/mongowrap"
	"github.com/diister/mongodbee/internal/executor"
	"github.com/diister/mongodbee/internal/ledger"
	"github.com/diister/mongodbee/internal/lock"
	"github.com/diister/mongodbee/internal/planner"
	"github.com/diister/mongodbee/internal/validatorgen"
)

// Engine owns one live database connection plus the collaborators that
// operate on it. Callers obtain one via Open and must Close it.
type Engine struct {
	cfg     *config.Config
	session *mongowrap.ModernMGO
	db      driver.Database
	ledger  *ledger.Ledger
	lock    *lock.Lock
	log     *slog.Logger
}

// newLogger builds the package's leveled logger, gated by
// cli.verbose (config.Verbose) the way
// untoldecay-BeadsLog/internal/debug gates its own verbosity: debug-level
// records are discarded entirely unless verbose is set, rather than
// filtered after formatting.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Open dials the configured database and returns a ready Engine. The
// process lock is constructed but not acquired here; each mutating
// operation acquires and releases it around its own work.
func Open(cfg *config.Config) (*Engine, error) {
	log := newLogger(cfg.Verbose)
	log.Debug("dialing database", "uri", cfg.DatabaseURI, "database", cfg.DatabaseName)
	session, err := mongowrap.DialModernMGOWithTimeout(cfg.DatabaseURI, connectTimeout(cfg.DatabaseOptions))
	if err != nil {
		return nil, fmt.Errorf("engine: dial %s: %w", cfg.DatabaseURI, err)
	}
	mdb := session.DB(cfg.DatabaseName)
	adapter := driver.NewMongoAdapter(mdb)

	owner := uuid.NewString()
	lockPath := filepath.Join(os.TempDir(), "mongodbee-"+cfg.DatabaseName+".lock")

	return &Engine{
		cfg:     cfg,
		session: session,
		db:      adapter,
		ledger:  ledger.New(adapter),
		lock:    lock.New(adapter, owner, lockPath),
		log:     log,
	}, nil
}

// Close releases the underlying database session.
func (e *Engine) Close() {
	e.session.Close()
}

func connectTimeout(o config.DatabaseOptions) time.Duration {
	if o.ConnectTimeoutMS <= 0 {
		return 10 * time.Second
	}
	return time.Duration(o.ConnectTimeoutMS) * time.Millisecond
}

// loadChain gathers every migration definition self-registered by the
// project's migration source files (internal/chain's Register/init
// pattern) and linearizes them. A project with no migrations yet (fresh
// `init`) produces a RootMissingError, which callers return unchanged.
func loadChain() (*chain.Chain, error) {
	return chain.Load(chain.Registered())
}

// Report is the data status/check return; cmd/mongodbee's cliutil layer
// renders it, the engine itself never prints.
type Report struct {
	Applied      []ledger.Entry
	Pending      []string
	Dirty        *ledger.Entry
	LockHeld     bool
	LockOwner    string
	LockAcquired time.Time
	LockStale    bool
	Warnings     []string
}

// Status reports the ledger's current state against the chain without
// acquiring the lock or touching any user collection.
func (e *Engine) Status(ctx context.Context) (*Report, error) {
	c, err := loadChain()
	if err != nil {
		return nil, err
	}
	return e.buildReport(ctx, c)
}

func (e *Engine) buildReport(ctx context.Context, c *chain.Chain) (*Report, error) {
	entries, err := e.ledger.Entries(ctx)
	if err != nil {
		return nil, err
	}
	report := &Report{}
	appliedSet := make(map[string]bool, len(entries))
	for _, entry := range entries {
		entry := entry
		if entry.Status == ledger.StatusDirty {
			report.Dirty = &entry
			continue
		}
		if err := c.VerifyAgainstLedger(entry.MigrationID, entry.Checksum); err != nil {
			return nil, err
		}
		appliedSet[entry.MigrationID] = true
		report.Applied = append(report.Applied, entry)
	}
	for i := 0; i < c.Len(); i++ {
		id := c.At(i).ID
		if !appliedSet[id] {
			report.Pending = append(report.Pending, id)
		}
	}

	lockDoc, err := e.db.FindOne(ctx, lock.CollectionName, driver.Document{"_id": "singleton"})
	if err != nil {
		return nil, err
	}
	if lockDoc != nil {
		report.LockHeld = true
		report.LockOwner, _ = lockDoc["owner"].(string)
		report.LockAcquired, _ = lockDoc["acquiredAt"].(time.Time)
		report.LockStale = lock.IsStale(report.LockAcquired, lock.DefaultStaleAfter)
	}
	return report, nil
}

// Check plans a migration to head against the real ledger's applied set,
// then executes that plan against an in-memory Simulator rather than the
// live database. This
// validates every operation's schema conformance, transform function
// behavior, and seed document shapes without mutating anything; it does
// not replay existing collection contents into the simulator, so it
// cannot catch a transform failing against pre-existing documents it
// never sees — only `migrate` does that, against the real data.
func (e *Engine) Check(ctx context.Context) (*planner.Plan, error) {
	c, err := loadChain()
	if err != nil {
		return nil, err
	}
	applied, err := e.ledger.List(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.verifyChecksums(ctx, c); err != nil {
		return nil, err
	}
	plan, err := planner.Build(c, applied, planner.TargetHead)
	if err != nil {
		return nil, err
	}
	sim := executor.NewSimulator()
	simLedger := ledger.New(sim)
	ex := executor.New(sim, simLedger, executor.Options{BatchSize: e.cfg.BatchSize, ValidatorGen: validatorgen.Generate})
	if _, err := ex.Apply(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// Migrate acquires the lock and applies every migration between the
// ledger's current head and target ("head" for the chain's tip) to the
// live database. forceUnlock breaks any existing lock, stale or not,
// before proceeding, the same recovery path rollback's
// --force-unlock flag offers.
func (e *Engine) Migrate(ctx context.Context, target string, progress chan<- executor.Progress, forceUnlock bool) (*planner.Plan, error) {
	return e.apply(ctx, target, progress, forceUnlock)
}

// Rollback acquires the lock and rolls the ledger back by steps
// migrations. repair, when true, ignores steps and rolls back only the
// single dirty migration reported by Status, implementing the
// supplemented --repair recovery path. The lock is forced only when
// forceUnlock is set, in either mode.
func (e *Engine) Rollback(ctx context.Context, steps int, repair bool, forceUnlock bool, progress chan<- executor.Progress) (*planner.Plan, error) {
	if repair {
		return e.repair(ctx, forceUnlock, progress)
	}

	c, err := loadChain()
	if err != nil {
		return nil, err
	}
	applied, err := e.ledger.List(ctx)
	if err != nil {
		return nil, err
	}
	if steps <= 0 {
		steps = 1
	}
	targetIdx := len(applied) - 1 - steps
	target := planner.TargetEmpty
	if targetIdx >= 0 {
		target = applied[targetIdx]
	}
	return e.applyResolved(ctx, c, applied, target, progress, forceUnlock)
}

func (e *Engine) repair(ctx context.Context, forceUnlock bool, progress chan<- executor.Progress) (*planner.Plan, error) {
	entries, err := e.ledger.Entries(ctx)
	if err != nil {
		return nil, err
	}
	var dirty *ledger.Entry
	for _, entry := range entries {
		if entry.Status == ledger.StatusDirty {
			entry := entry
			dirty = &entry
			break
		}
	}
	if dirty == nil {
		return nil, fmt.Errorf("engine: --repair requested but no dirty migration found")
	}

	c, err := loadChain()
	if err != nil {
		return nil, err
	}
	idx := c.IndexOf(dirty.MigrationID)
	if idx < 0 {
		return nil, fmt.Errorf("engine: dirty migration %s no longer present in chain", dirty.MigrationID)
	}
	var parentID string
	if idx > 0 {
		parentID = c.At(idx - 1).ID
	}
	applied := make([]string, 0, idx+1)
	for i := 0; i <= idx; i++ {
		applied = append(applied, c.At(i).ID)
	}
	return e.applyResolved(ctx, c, applied, parentID, progress, forceUnlock)
}

func (e *Engine) apply(ctx context.Context, target string, progress chan<- executor.Progress, forceUnlock bool) (*planner.Plan, error) {
	c, err := loadChain()
	if err != nil {
		return nil, err
	}
	applied, err := e.ledger.List(ctx)
	if err != nil {
		return nil, err
	}
	return e.applyResolved(ctx, c, applied, target, progress, forceUnlock)
}

func (e *Engine) applyResolved(ctx context.Context, c *chain.Chain, applied []string, target string, progress chan<- executor.Progress, forceUnlock bool) (*planner.Plan, error) {
	e.log.Debug("acquiring lock", "forceUnlock", forceUnlock)
	if forceUnlock {
		if err := e.lock.ForceAcquire(ctx); err != nil {
			return nil, err
		}
	} else if err := e.lock.Acquire(ctx); err != nil {
		e.log.Warn("lock contention", "error", err)
		return nil, err
	}
	defer e.lock.Release(ctx)

	if err := e.verifyChecksums(ctx, c); err != nil {
		return nil, err
	}
	plan, err := planner.Build(c, applied, target)
	if err != nil {
		return nil, err
	}
	e.log.Debug("plan built", "direction", string(plan.Direction), "entries", len(plan.Entries), "target", target)
	ex := executor.New(e.db, e.ledger, executor.Options{
		BatchSize:    e.cfg.BatchSize,
		ValidatorGen: validatorgen.Generate,
		ProgressCh:   progress,
	})
	if _, err := ex.Apply(ctx, plan); err != nil {
		e.log.Warn("plan application left a migration dirty", "error", err)
		return nil, err
	}
	e.log.Debug("plan applied", "entries", len(plan.Entries))
	return plan, nil
}

// verifyChecksums compares every applied ledger entry's recorded checksum
// against the chain's recomputed one. A mismatch means a migration's
// source was edited after it was applied; no plan is produced past it.
func (e *Engine) verifyChecksums(ctx context.Context, c *chain.Chain) error {
	entries, err := e.ledger.Entries(ctx)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.Status != ledger.StatusApplied {
			continue
		}
		if err := c.VerifyAgainstLedger(entry.MigrationID, entry.Checksum); err != nil {
			return err
		}
	}
	return nil
}

// ForceUnlock removes the lock document regardless of staleness.
func (e *Engine) ForceUnlock(ctx context.Context) error {
	if err := e.lock.ForceAcquire(ctx); err != nil {
		return err
	}
	return e.lock.Release(ctx)
}

// Init acquires the lock once to create the reserved ledger and lock
// collections eagerly, so the very first `status` call against a brand
// new database does not need to special-case their absence. It releases
// the lock immediately; there is no migration to apply yet.
func (e *Engine) Init(ctx context.Context) error {
	if err := e.lock.Acquire(ctx); err != nil {
		return err
	}
	defer e.lock.Release(ctx)

	names, err := e.db.ListCollections(ctx)
	if err != nil {
		return err
	}
	existing := map[string]bool{}
	for _, n := range names {
		existing[n] = true
	}
	for _, name := range []string{ledger.CollectionName, lock.CollectionName} {
		if existing[name] {
			continue
		}
		if err := e.db.CreateCollection(ctx, name, nil, nil); err != nil {
			return err
		}
	}
	return nil
}
