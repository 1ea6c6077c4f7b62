// Package migration holds the shared domain vocabulary for one migration
// definition: the closed Operation
// set the builder emits, the Property flags derived from it, and the
// SchemaDocument triple a migration declares as its post-state.
package migration

import "github.com/diister/mongodbee/internal/schema"

// OperationKind identifies one member of the closed Operation set. No
// other kind may be constructed outside this package.
type OperationKind string

const (
	OpCreateCollection             OperationKind = "createCollection"
	OpCreateMultiCollection        OperationKind = "createMultiCollection"
	OpCreateMultiModelInstance     OperationKind = "createMultiModelInstance"
	OpSeedCollection               OperationKind = "seedCollection"
	OpSeedMultiCollectionType      OperationKind = "seedMultiCollectionType"
	OpSeedMultiModelInstanceType   OperationKind = "seedMultiModelInstanceType"
	OpTransformCollection          OperationKind = "transformCollection"
	OpTransformMultiCollectionType OperationKind = "transformMultiCollectionType"
	OpUpdateIndexes                OperationKind = "updateIndexes"
	OpRenameCollection             OperationKind = "renameCollection"
	OpRenameMultiCollectionType    OperationKind = "renameMultiCollectionType"

	// Inverse-only kinds, never emitted by the builder. The planner
	// synthesizes these when expanding a rollback plan.
	OpDropCollection        OperationKind = "dropCollection"
	OpDeleteSeededDocuments OperationKind = "deleteSeededDocuments"
)

// DocTransform rewrites one document. Up/Down are the same shape so a
// TransformCollection can be inverted by swapping them.
type DocTransform func(doc map[string]interface{}) (map[string]interface{}, error)

// Operation is a tagged record; only the fields relevant to Kind are
// populated. Constructed exclusively via the builder (internal/builder) or
// by the planner when inverting a plan for rollback.
type Operation struct {
	Kind OperationKind

	// CreateCollection, CreateMultiCollection, DropCollection,
	// SeedCollection, TransformCollection, UpdateIndexes, the
	// *MultiCollectionType kinds, and DeleteSeededDocuments.
	Name string

	// CreateMultiModelInstance.
	InstanceName string
	ModelTag     string

	// SeedMultiCollectionType, SeedMultiModelInstanceType,
	// TransformMultiCollectionType, DeleteSeededDocuments.
	TypeTag string

	// Seed*.
	Docs []map[string]interface{}

	// DeleteSeededDocuments: the exact seed values being removed, used to
	// detect documents that have since diverged.
	SeedSnapshot []map[string]interface{}

	// Transform*.
	Up    DocTransform
	Down  DocTransform
	Lossy bool

	// RenameCollection / RenameMultiCollectionType.
	From string
	To   string
}

// Property flags decorated on a migration's compiled operation list.
type Property string

const (
	PropertyIrreversible Property = "irreversible"
)

// PropertySet is the small, order-insensitive flag set a compiled migration
// carries.
type PropertySet map[Property]bool

// Has reports whether p is present.
func (s PropertySet) Has(p Property) bool { return s[p] }

// DerivePropertiesFromOperations computes the Property set implied by an
// operation list: irreversible if any create-* operation or any lossy
// transform is present.
func DerivePropertiesFromOperations(ops []Operation) PropertySet {
	props := PropertySet{}
	for _, op := range ops {
		switch op.Kind {
		case OpCreateCollection, OpCreateMultiCollection, OpCreateMultiModelInstance:
			props[PropertyIrreversible] = true
		case OpTransformCollection, OpTransformMultiCollectionType:
			if op.Lossy {
				props[PropertyIrreversible] = true
			}
		}
	}
	return props
}

// SchemaDocument is the triple of mappings a migration declares as its
// post-state.
type SchemaDocument struct {
	Collections      map[string]*schema.Node
	MultiCollections map[string]map[string]*schema.Node
	MultiModels      map[string]map[string]*schema.Node
}

// NewSchemaDocument returns an empty, ready-to-populate SchemaDocument.
func NewSchemaDocument() SchemaDocument {
	return SchemaDocument{
		Collections:      map[string]*schema.Node{},
		MultiCollections: map[string]map[string]*schema.Node{},
		MultiModels:      map[string]map[string]*schema.Node{},
	}
}
