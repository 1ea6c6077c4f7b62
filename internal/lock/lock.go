// Package lock implements the advisory process-exclusive migration lock:
// a sentinel document inserted into
// __mongodbee_locks, paired with a local companion file lock (gofrs/flock)
// so two processes on the same host fail fast before ever reaching the
// database.
package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/flock"

	"github.com/diister/mongodbee/internal/driver"
)

// CollectionName is the reserved collection the advisory lock document
// lives in.
const CollectionName = "__mongodbee_locks"

const singletonID = "singleton"

// DefaultStaleAfter is the default age past which a lock is considered
// stale and eligible for --force-unlock.
const DefaultStaleAfter = 10 * time.Minute

// BusyError reports that the advisory lock document already exists.
type BusyError struct {
	Owner      string
	AcquiredAt time.Time
}

func (e *BusyError) Error() string {
	return fmt.Sprintf("lock held by %q since %s; use --force-unlock if stale", e.Owner, e.AcquiredAt.Format(time.RFC3339))
}

// Lock coordinates one database handle's advisory lock plus an optional
// local file companion lock.
type Lock struct {
	db         driver.Database
	owner      string
	staleAfter time.Duration
	localPath  string
	localLock  *flock.Flock
}

// New returns a Lock for the given database, identifying this process as
// owner. localPath, if non-empty, is a filesystem path used for a
// companion flock so concurrent invocations on the same host fail before
// ever reaching the network.
func New(database driver.Database, owner string, localPath string) *Lock {
	l := &Lock{db: database, owner: owner, staleAfter: DefaultStaleAfter, localPath: localPath}
	if localPath != "" {
		l.localLock = flock.New(localPath)
	}
	return l
}

// Acquire takes the lock by inserting the sentinel document outright; the
// unique "_id" makes the insert itself the atomic test-and-set, so two
// racing acquirers can never both succeed. A failed insert is translated to
// BusyError carrying the current holder. Even a stale lock surfaces as
// BusyError: a bare Acquire never silently steals a lock, staleness only
// unlocks the --force-unlock path via ForceAcquire.
func (l *Lock) Acquire(ctx context.Context) error {
	if l.localLock != nil {
		ok, err := l.localLock.TryLock()
		if err != nil {
			return fmt.Errorf("lock: local flock failed: %w", err)
		}
		if !ok {
			return &BusyError{Owner: "unknown (local)", AcquiredAt: time.Now()}
		}
	}

	doc := driver.Document{"_id": singletonID, "owner": l.owner, "acquiredAt": time.Now().UTC()}
	if err := l.db.InsertMany(ctx, CollectionName, []driver.Document{doc}, true); err != nil {
		l.releaseLocal()
		// The sentinel has a fixed _id, so a duplicate-key failure means
		// another holder won the race; read the document back for the
		// holder detail. Anything else is a genuine driver failure.
		existing, findErr := l.db.FindOne(ctx, CollectionName, driver.Document{"_id": singletonID})
		if findErr == nil && existing != nil {
			acquiredAt, _ := existing["acquiredAt"].(time.Time)
			owner, _ := existing["owner"].(string)
			return &BusyError{Owner: owner, AcquiredAt: acquiredAt}
		}
		return err
	}
	return nil
}

// ForceAcquire removes any existing lock document regardless of staleness
// and acquires a fresh one, implementing --force-unlock.
func (l *Lock) ForceAcquire(ctx context.Context) error {
	if err := l.db.DeleteMany(ctx, CollectionName, []interface{}{singletonID}); err != nil {
		return err
	}
	if l.localLock != nil {
		_ = l.localLock.Unlock()
	}
	return l.Acquire(ctx)
}

// Release removes the lock document and the local companion lock. It does
// not check the owner: the document is deleted whoever holds it.
func (l *Lock) Release(ctx context.Context) error {
	l.releaseLocal()
	return l.db.DeleteMany(ctx, CollectionName, []interface{}{singletonID})
}

func (l *Lock) releaseLocal() {
	if l.localLock != nil {
		_ = l.localLock.Unlock()
	}
}

// IsStale reports whether a lock document older than staleAfter exists,
// used by status reporting to suggest --force-unlock.
func IsStale(acquiredAt time.Time, staleAfter time.Duration) bool {
	return time.Since(acquiredAt) >= staleAfter
}
