package executor

import (
	"errors"
	"fmt"
)

// ErrCancellationRequested is returned (wrapped) when ctx is cancelled
// between operations. The in-flight batch still runs to completion or
// failure first — cancellation is only observed between operations and
// between plan entries, never inside a Seed*/Transform* batch.
var ErrCancellationRequested = errors.New("cancellation requested")

// DriverError wraps a failure returned by the underlying driver.Database,
// tagging it with the operation and collection it occurred on.
type DriverError struct {
	MigrationID string
	Operation   string
	Collection  string
	Err         error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("driver error during %s on %s (migration %s): %v", e.Operation, e.Collection, e.MigrationID, e.Err)
}

func (e *DriverError) Unwrap() error { return e.Err }

// SeedInvalidError reports that a Seed* operation's authored documents do
// not conform to the migration's own declared schema. check runs the same
// executor against the Simulator, so authoring a bad seed document surfaces here before
// `migrate` ever touches the live database.
type SeedInvalidError struct {
	Collection string
	Index      int
	Violations []string
}

func (e *SeedInvalidError) Error() string {
	return fmt.Sprintf("seed document %d for %q violates its schema: %v", e.Index, e.Collection, e.Violations)
}

// TransformInvalidError reports that a transform's output no longer
// conforms to the schema it is meant to produce.
type TransformInvalidError struct {
	Collection string
	DocumentID interface{}
	Violations []string
}

func (e *TransformInvalidError) Error() string {
	return fmt.Sprintf("transform output for %v in %q violates the target schema: %v", e.DocumentID, e.Collection, e.Violations)
}
