// Package executor applies or rolls back a Plan against a driver.Database.
// The same algorithm drives the live database
// executor and the in-memory Simulator used by `check` — both are only a
// driver.Database implementation, so Executor itself never branches on
// which one it holds.
package executor

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/diister/mongodbee/internal/driver"
	"github.com/diister/mongodbee/internal/ident"
	"github.com/diister/mongodbee/internal/ledger"
	"github.com/diister/mongodbee/internal/migration"
	"github.com/diister/mongodbee/internal/planner"
	"github.com/diister/mongodbee/internal/schema"
)

// DefaultBatchSize is the seed/transform batch size used when Options.BatchSize
// is unset.
const DefaultBatchSize = 500

const informationMarkerName = "_information"

// ValidatorGenerator builds the driver-native validator document installed
// when a collection is created. The migration core depends on
// this function type, not on internal/validatorgen concretely, so the
// schema-validator collaborator stays a pluggable boundary.
type ValidatorGenerator func(*schema.Node) driver.Document

// Progress is one update emitted while a Seed*/Transform* batch runs.
type Progress struct {
	MigrationID        string
	Operation          string
	CollectionName     string
	DocumentsProcessed int
	EstimatedRemaining int
}

// Options configures an Executor.
type Options struct {
	// BatchSize is the seed/transform batch size.
	BatchSize int
	// ValidatorGen builds the validator document for CreateCollection. A
	// nil generator installs no validator.
	ValidatorGen ValidatorGenerator
	// ProgressCh receives Progress updates if non-nil. Sends are
	// non-blocking best-effort: a full channel drops the update rather than
	// stalling the migration.
	ProgressCh chan<- Progress
}

// Executor applies a Plan's entries in order against db, updating l before
// and after each migration.
type Executor struct {
	db     driver.Database
	ledger *ledger.Ledger
	opts   Options
}

// New returns an Executor bound to db and l.
func New(db driver.Database, l *ledger.Ledger, opts Options) *Executor {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.ValidatorGen == nil {
		opts.ValidatorGen = func(*schema.Node) driver.Document { return nil }
	}
	return &Executor{db: db, ledger: l, opts: opts}
}

// Apply runs every entry of plan against the database, one migration at a
// time, in the order the planner produced. It returns the warnings accumulated along the
// way (the planner's own diverged-seed notices plus any the executor adds)
// and fails fast: on any error the failing migration's ledger entry is left
// dirty and Apply returns immediately — no automatic retry, no
// cross-migration rollback.
func (e *Executor) Apply(ctx context.Context, plan *planner.Plan) ([]string, error) {
	warnings := append([]string{}, plan.Warnings...)
	for _, entry := range plan.Entries {
		if err := ctx.Err(); err != nil {
			return warnings, fmt.Errorf("%w: %v", ErrCancellationRequested, err)
		}

		if err := e.ledger.MarkApplying(ctx, entry.MigrationID, entry.Checksum, ledgerDirection(entry.Direction)); err != nil {
			return warnings, err
		}

		entryWarnings, err := e.applyEntry(ctx, entry)
		warnings = append(warnings, entryWarnings...)
		if err != nil {
			return warnings, fmt.Errorf("migration %s left dirty: %w", entry.MigrationID, err)
		}

		if entry.Direction == planner.DirectionDown {
			if err := e.ledger.Remove(ctx, entry.MigrationID); err != nil {
				return warnings, err
			}
		} else {
			if err := e.ledger.MarkApplied(ctx, entry.MigrationID); err != nil {
				return warnings, err
			}
		}
	}
	return warnings, nil
}

func ledgerDirection(d planner.Direction) ledger.Direction {
	if d == planner.DirectionDown {
		return ledger.DirectionDown
	}
	return ledger.DirectionUp
}

func (e *Executor) applyEntry(ctx context.Context, entry planner.PlanEntry) ([]string, error) {
	var warnings []string
	for _, op := range entry.Operations {
		if err := ctx.Err(); err != nil {
			return warnings, fmt.Errorf("%w: %v", ErrCancellationRequested, err)
		}
		w, err := e.applyOperation(ctx, entry, op)
		warnings = append(warnings, w...)
		if err != nil {
			return warnings, err
		}
	}
	// Index reconciliation runs after every operation in the entry,
	// regardless of whether an explicit UpdateIndexes operation is present:
	// the planner already computed the full before/after diff for this
	// migration.
	if err := e.reconcileIndexActions(ctx, entry.MigrationID, entry.IndexActions); err != nil {
		return warnings, err
	}
	return warnings, nil
}

func (e *Executor) applyOperation(ctx context.Context, entry planner.PlanEntry, op migration.Operation) ([]string, error) {
	switch op.Kind {
	case migration.OpCreateCollection:
		return nil, e.createCollection(ctx, entry.MigrationID, op.Name, entry.Definition.Schemas.Collections[op.Name])

	case migration.OpCreateMultiCollection:
		if err := e.createCollection(ctx, entry.MigrationID, op.Name, nil); err != nil {
			return nil, err
		}
		return nil, e.insertOne(ctx, entry.MigrationID, op.Name, driver.Document{
			"_id": informationMarkerName, "kind": "multi-collection",
		})

	case migration.OpCreateMultiModelInstance:
		if err := e.createCollection(ctx, entry.MigrationID, op.InstanceName, nil); err != nil {
			return nil, err
		}
		return nil, e.insertOne(ctx, entry.MigrationID, op.InstanceName, driver.Document{
			"_id": informationMarkerName, "kind": "multi-model-instance", "modelTag": op.ModelTag,
		})

	case migration.OpDropCollection:
		if err := e.db.DropCollection(ctx, op.Name); err != nil {
			return nil, &DriverError{MigrationID: entry.MigrationID, Operation: "dropCollection", Collection: op.Name, Err: err}
		}
		return nil, nil

	case migration.OpSeedCollection:
		target := entry.Definition.Schemas.Collections[op.Name]
		return nil, e.seed(ctx, entry.MigrationID, op.Name, idTagFromSchema(target), target, op.Docs)

	case migration.OpSeedMultiCollectionType:
		target := entry.Definition.Schemas.MultiCollections[op.Name][op.TypeTag]
		idTag := op.TypeTag
		if explicit := idTagFromSchema(target); explicit != "" {
			idTag = explicit
		}
		return nil, e.seed(ctx, entry.MigrationID, op.Name, idTag, target, op.Docs)

	case migration.OpSeedMultiModelInstanceType:
		modelTag, err := e.instanceModelTag(ctx, op.InstanceName)
		if err != nil {
			return nil, err
		}
		target := entry.Definition.Schemas.MultiModels[modelTag][op.TypeTag]
		idTag := op.TypeTag
		if explicit := idTagFromSchema(target); explicit != "" {
			idTag = explicit
		}
		return nil, e.seed(ctx, entry.MigrationID, op.InstanceName, idTag, target, op.Docs)

	case migration.OpDeleteSeededDocuments:
		name := op.Name
		if name == "" {
			name = op.InstanceName
		}
		return e.deleteSeeded(ctx, entry.MigrationID, name, op.SeedSnapshot)

	case migration.OpTransformCollection:
		target := entry.TargetSchemas.Collections[op.Name]
		return nil, e.transform(ctx, entry.MigrationID, op.Name, op.Up, target)

	case migration.OpTransformMultiCollectionType:
		target := entry.TargetSchemas.MultiCollections[op.Name][op.TypeTag]
		return nil, e.transform(ctx, entry.MigrationID, op.Name, op.Up, target)

	case migration.OpUpdateIndexes:
		// No-op marker: the entry's IndexActions (computed once per
		// migration by the planner) cover every index change, explicit
		// trigger or not.
		return nil, nil

	case migration.OpRenameCollection:
		return nil, e.renameCollection(ctx, entry.MigrationID, op.From, op.To)

	case migration.OpRenameMultiCollectionType:
		return nil, e.renameMultiCollectionType(ctx, entry.MigrationID, op.Name, op.From, op.To)

	default:
		return nil, fmt.Errorf("executor: no handler for operation kind %s", op.Kind)
	}
}

func (e *Executor) createCollection(ctx context.Context, migrationID, name string, target *schema.Node) error {
	validator := e.opts.ValidatorGen(target)
	if err := e.db.CreateCollection(ctx, name, validator, nil); err != nil {
		return &DriverError{MigrationID: migrationID, Operation: "createCollection", Collection: name, Err: err}
	}
	return nil
}

func (e *Executor) insertOne(ctx context.Context, migrationID, name string, doc driver.Document) error {
	if err := e.db.InsertMany(ctx, name, []driver.Document{doc}, true); err != nil {
		return &DriverError{MigrationID: migrationID, Operation: "insert", Collection: name, Err: err}
	}
	return nil
}

// instanceModelTag reads the reserved "_information" marker document of a
// multi-model instance collection to recover the modelTag it was created
// with.
func (e *Executor) instanceModelTag(ctx context.Context, instanceName string) (string, error) {
	doc, err := e.db.FindOne(ctx, instanceName, driver.Document{"_id": informationMarkerName})
	if err != nil {
		return "", &DriverError{Operation: "findOne", Collection: instanceName, Err: err}
	}
	if doc == nil {
		return "", fmt.Errorf("executor: %s has no _information marker; was it created by createMultiModelInstance?", instanceName)
	}
	tag, _ := doc["modelTag"].(string)
	return tag, nil
}

// idTagFromSchema reports the tag to mint new ids with for target's
// implicit _id field: "" if the field is unspecified
// (database-native object id) or a literal (no tag to mint with).
func idTagFromSchema(target *schema.Node) string {
	if target == nil || target.Kind != schema.KindObject {
		return ""
	}
	for _, f := range target.Fields {
		if f.Name != "_id" {
			continue
		}
		if f.Schema != nil && f.Schema.Kind == schema.KindReference {
			return f.Schema.ReferenceTag
		}
		return ""
	}
	return ""
}

// seed inserts docs into name in batches of Options.BatchSize, assigning an
// _id to any document missing one.
func (e *Executor) seed(ctx context.Context, migrationID, name, idTag string, target *schema.Node, docs []map[string]interface{}) error {
	prepared := make([]driver.Document, len(docs))
	for i, d := range docs {
		doc := cloneDoc(d)
		if _, has := doc["_id"]; !has {
			if idTag != "" {
				doc["_id"] = ident.NewTaggedId(idTag)
			} else {
				doc["_id"] = primitive.NewObjectID()
			}
		}
		if target != nil {
			if violations := schema.Validate(target, doc); len(violations) > 0 {
				return &SeedInvalidError{Collection: name, Index: i, Violations: violations}
			}
		}
		prepared[i] = driver.Document(doc)
	}

	batchSize := e.opts.BatchSize
	total := len(prepared)
	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}
		if err := e.db.InsertMany(ctx, name, prepared[start:end], false); err != nil {
			return &DriverError{MigrationID: migrationID, Operation: "seed", Collection: name, Err: err}
		}
		e.reportProgress(Progress{MigrationID: migrationID, Operation: "seed", CollectionName: name, DocumentsProcessed: end, EstimatedRemaining: total - end})
	}
	return nil
}

// deleteSeeded removes every document of name that still matches exactly
// one of snapshot's authored values, leaving anything a user has since
// edited untouched — an edited document no longer matches the filter built
// from its original fields, so it is skipped without any extra divergence
// bookkeeping.
func (e *Executor) deleteSeeded(ctx context.Context, migrationID, name string, snapshot []map[string]interface{}) ([]string, error) {
	if len(snapshot) == 0 {
		return nil, nil
	}
	filters := make([]interface{}, 0, len(snapshot))
	for _, d := range snapshot {
		f := cloneDoc(d)
		delete(f, "_id")
		if len(f) == 0 {
			continue
		}
		filters = append(filters, driver.Document(f))
	}
	if len(filters) == 0 {
		return nil, nil
	}
	if err := e.db.DeleteMatching(ctx, name, driver.Document{"$or": filters}); err != nil {
		return nil, &DriverError{MigrationID: migrationID, Operation: "deleteSeededDocuments", Collection: name, Err: err}
	}
	return nil, nil
}

// transform streams every document of name in ascending _id batches,
// applying up to each and writing the result back via replace. A nil
// target skips post-schema validation (used when the migration declares
// no schema for this collection, e.g. a rename target).
func (e *Executor) transform(ctx context.Context, migrationID, name string, up migration.DocTransform, target *schema.Node) error {
	if up == nil {
		return nil
	}
	batchSize := e.opts.BatchSize
	var afterID interface{}
	processed := 0
	for {
		batch, err := e.db.FindBatch(ctx, name, "_id", afterID, batchSize)
		if err != nil {
			return &DriverError{MigrationID: migrationID, Operation: "transform:read", Collection: name, Err: err}
		}
		if len(batch) == 0 {
			break
		}
		for _, doc := range batch {
			next, err := up(map[string]interface{}(doc))
			if err != nil {
				return fmt.Errorf("transform %s: %w", name, err)
			}
			if target != nil {
				if violations := schema.Validate(target, next); len(violations) > 0 {
					return &TransformInvalidError{Collection: name, DocumentID: doc["_id"], Violations: violations}
				}
			}
			if err := e.db.ReplaceOne(ctx, name, doc["_id"], driver.Document(next)); err != nil {
				return &DriverError{MigrationID: migrationID, Operation: "transform:write", Collection: name, Err: err}
			}
			afterID = doc["_id"]
		}
		processed += len(batch)
		e.reportProgress(Progress{MigrationID: migrationID, Operation: "transform", CollectionName: name, DocumentsProcessed: processed})
		if len(batch) < batchSize {
			break
		}
	}
	return nil
}

// renameCollection implements RenameCollection on top of the narrow
// driver capability set, which has no native rename primitive: stream every
// document across to a freshly created destination collection, then drop
// the source.
func (e *Executor) renameCollection(ctx context.Context, migrationID, from, to string) error {
	if err := e.db.CreateCollection(ctx, to, nil, nil); err != nil {
		return &DriverError{MigrationID: migrationID, Operation: "rename:create", Collection: to, Err: err}
	}
	var afterID interface{}
	for {
		batch, err := e.db.FindBatch(ctx, from, "_id", afterID, e.opts.BatchSize)
		if err != nil {
			return &DriverError{MigrationID: migrationID, Operation: "rename:read", Collection: from, Err: err}
		}
		if len(batch) == 0 {
			break
		}
		if err := e.db.InsertMany(ctx, to, batch, false); err != nil {
			return &DriverError{MigrationID: migrationID, Operation: "rename:write", Collection: to, Err: err}
		}
		afterID = batch[len(batch)-1]["_id"]
		if len(batch) < e.opts.BatchSize {
			break
		}
	}
	if err := e.db.DropCollection(ctx, from); err != nil {
		return &DriverError{MigrationID: migrationID, Operation: "rename:drop", Collection: from, Err: err}
	}
	return nil
}

// renameMultiCollectionType relabels every document whose tagged _id
// belongs to typeTag "from", leaving the rest of the physical collection
// untouched — a multi-collection type rename never moves documents between
// collections, only their id tag.
func (e *Executor) renameMultiCollectionType(ctx context.Context, migrationID, name, from, to string) error {
	var afterID interface{}
	for {
		batch, err := e.db.FindBatch(ctx, name, "_id", afterID, e.opts.BatchSize)
		if err != nil {
			return &DriverError{MigrationID: migrationID, Operation: "renameType:read", Collection: name, Err: err}
		}
		if len(batch) == 0 {
			break
		}
		var relabeled []driver.Document
		var oldIDs []interface{}
		for _, doc := range batch {
			id, _ := doc["_id"].(string)
			tag, ulidPart, ok := ident.ParseTaggedId(id)
			if !ok || tag != from {
				continue
			}
			next := cloneDoc(doc)
			next["_id"] = fmt.Sprintf("%s:%s", to, ulidPart)
			relabeled = append(relabeled, driver.Document(next))
			oldIDs = append(oldIDs, id)
		}
		if len(relabeled) > 0 {
			if err := e.db.DeleteMany(ctx, name, oldIDs); err != nil {
				return &DriverError{MigrationID: migrationID, Operation: "renameType:delete", Collection: name, Err: err}
			}
			if err := e.db.InsertMany(ctx, name, relabeled, false); err != nil {
				return &DriverError{MigrationID: migrationID, Operation: "renameType:insert", Collection: name, Err: err}
			}
		}
		afterID = batch[len(batch)-1]["_id"]
		if len(batch) < e.opts.BatchSize {
			break
		}
	}
	return nil
}

// reconcileIndexActions applies the before/after index diff the planner
// already computed for one migration.
// Rebuild drops then creates within the same call, as required ("two
// writes; the interval is within the lock hold").
func (e *Executor) reconcileIndexActions(ctx context.Context, migrationID string, actions []schema.IndexAction) error {
	sorted := append([]schema.IndexAction{}, actions...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	for _, a := range sorted {
		collection, path := splitIndexPath(a.Path)
		switch a.Kind {
		case schema.IndexAdd:
			if err := e.db.CreateIndex(ctx, collection, toIndexModel(path, *a.After)); err != nil {
				return &DriverError{MigrationID: migrationID, Operation: "createIndex", Collection: collection, Err: err}
			}
		case schema.IndexDrop:
			if err := e.db.DropIndex(ctx, collection, indexName(path)); err != nil {
				return &DriverError{MigrationID: migrationID, Operation: "dropIndex", Collection: collection, Err: err}
			}
		case schema.IndexRebuild:
			if err := e.db.DropIndex(ctx, collection, indexName(path)); err != nil {
				return &DriverError{MigrationID: migrationID, Operation: "dropIndex", Collection: collection, Err: err}
			}
			if err := e.db.CreateIndex(ctx, collection, toIndexModel(path, *a.After)); err != nil {
				return &DriverError{MigrationID: migrationID, Operation: "createIndex", Collection: collection, Err: err}
			}
		}
	}
	return nil
}

// splitIndexPath separates reconcileIndexes' "collection.field" (or
// "collection/typeTag.field") path into a physical collection name and the
// field path used for the index key/name.
func splitIndexPath(path string) (collection, field string) {
	dot := -1
	for i, r := range path {
		if r == '.' {
			dot = i
			break
		}
	}
	if dot < 0 {
		return path, path
	}
	return path[:dot], path[dot+1:]
}

func indexName(field string) string {
	return "idx_" + field
}

func toIndexModel(field string, opts schema.IndexMetadata) driver.IndexModel {
	return driver.IndexModel{
		Name:            indexName(field),
		Keys:            []string{field},
		Unique:          opts.Unique,
		CaseInsensitive: opts.CaseInsensitive,
		Sparse:          opts.Sparse,
		Collation:       opts.Collation,
	}
}

func (e *Executor) reportProgress(p Progress) {
	if e.opts.ProgressCh == nil {
		return
	}
	select {
	case e.opts.ProgressCh <- p:
	default:
	}
}

func cloneDoc(d map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}
