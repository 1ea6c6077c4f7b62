// Package builder implements the fluent, side-effect-free migration
// authoring surface. A Builder accumulates
// an immutable Operation List as its scope methods are called; it never
// touches the database, and Compile() is the only way to extract the
// result.
package builder

import (
	"fmt"

	"github.com/diister/mongodbee/internal/migration"
	"github.com/diister/mongodbee/internal/schema"
)

// Builder accumulates operations for one migration definition. Construct
// with New, chain scope calls, then call Compile.
type Builder struct {
	schemas migration.SchemaDocument
	ops     []migration.Operation
	errs    []error
}

// New returns a Builder that validates seed documents against the given
// post-migration schema document.
func New(schemas migration.SchemaDocument) *Builder {
	return &Builder{schemas: schemas}
}

// SeedInvalidError reports that one or more seed documents failed
// validation against the declared schema.
type SeedInvalidError struct {
	Collection string
	Index      int
	Violations []string
}

func (e *SeedInvalidError) Error() string {
	return fmt.Sprintf("seed document %d for %q is invalid: %v", e.Index, e.Collection, e.Violations)
}

func (b *Builder) fail(err error) { b.errs = append(b.errs, err) }

// CreateCollection emits CreateCollection and sets irreversible.
func (b *Builder) CreateCollection(name string) *CollectionScope {
	b.ops = append(b.ops, migration.Operation{Kind: migration.OpCreateCollection, Name: name})
	return &CollectionScope{builder: b, name: name}
}

// Collection references an existing collection without emitting a create
// operation.
func (b *Builder) Collection(name string) *CollectionScope {
	return &CollectionScope{builder: b, name: name}
}

// CreateMultiCollection emits CreateMultiCollection.
func (b *Builder) CreateMultiCollection(name string) *MultiScope {
	b.ops = append(b.ops, migration.Operation{Kind: migration.OpCreateMultiCollection, Name: name})
	return &MultiScope{builder: b, name: name}
}

// MultiCollection references an existing multi-collection.
func (b *Builder) MultiCollection(name string) *MultiScope {
	return &MultiScope{builder: b, name: name}
}

// CreateMultiModelInstance emits CreateMultiModelInstance.
func (b *Builder) CreateMultiModelInstance(instanceName, modelTag string) *MultiInstanceScope {
	b.ops = append(b.ops, migration.Operation{
		Kind:         migration.OpCreateMultiModelInstance,
		InstanceName: instanceName,
		ModelTag:     modelTag,
	})
	return &MultiInstanceScope{builder: b, instanceName: instanceName, modelTag: modelTag}
}

// UpdateIndexes emits UpdateIndexes for name and returns the builder for
// further chaining.
func (b *Builder) UpdateIndexes(name string) *Builder {
	b.ops = append(b.ops, migration.Operation{Kind: migration.OpUpdateIndexes, Name: name})
	return b
}

// RenameCollection emits RenameCollection.
func (b *Builder) RenameCollection(from, to string) *Builder {
	b.ops = append(b.ops, migration.Operation{Kind: migration.OpRenameCollection, From: from, To: to})
	return b
}

// Compile returns the accumulated Operation List and its derived Property
// set, or the first validation error encountered.
func (b *Builder) Compile() ([]migration.Operation, migration.PropertySet, error) {
	if len(b.errs) > 0 {
		return nil, nil, b.errs[0]
	}
	ops := append([]migration.Operation{}, b.ops...)
	return ops, migration.DerivePropertiesFromOperations(ops), nil
}

// CollectionScope is returned by CreateCollection/Collection.
type CollectionScope struct {
	builder *Builder
	name    string
}

// Seed emits SeedCollection, validating each document against the target
// schema declared for this collection by the migration.
func (s *CollectionScope) Seed(docs ...map[string]interface{}) *CollectionScope {
	target := s.builder.schemas.Collections[s.name]
	if target != nil {
		for i, doc := range docs {
			if violations := schema.Validate(target, doc); len(violations) > 0 {
				s.builder.fail(&SeedInvalidError{Collection: s.name, Index: i, Violations: violations})
			}
		}
	}
	s.builder.ops = append(s.builder.ops, migration.Operation{
		Kind: migration.OpSeedCollection,
		Name: s.name,
		Docs: append([]map[string]interface{}{}, docs...),
	})
	return s
}

// Transform emits TransformCollection. If lossy is set the migration
// becomes irreversible.
func (s *CollectionScope) Transform(up, down migration.DocTransform, lossy bool) *CollectionScope {
	s.builder.ops = append(s.builder.ops, migration.Operation{
		Kind:  migration.OpTransformCollection,
		Name:  s.name,
		Up:    up,
		Down:  down,
		Lossy: lossy,
	})
	return s
}

// End returns the parent builder.
func (s *CollectionScope) End() *Builder { return s.builder }

// MultiScope is returned by CreateMultiCollection/MultiCollection.
type MultiScope struct {
	builder *Builder
	name    string
}

// Type narrows to one tagged type within the multi-collection.
func (s *MultiScope) Type(typeTag string) *MultiTypeScope {
	return &MultiTypeScope{builder: s.builder, name: s.name, typeTag: typeTag}
}

// RenameType emits RenameMultiCollectionType, relabeling every document of
// type tag from to type tag to within this multi-collection.
func (s *MultiScope) RenameType(from, to string) *MultiScope {
	s.builder.ops = append(s.builder.ops, migration.Operation{
		Kind: migration.OpRenameMultiCollectionType,
		Name: s.name,
		From: from,
		To:   to,
	})
	return s
}

// End returns the parent builder.
func (s *MultiScope) End() *Builder { return s.builder }

// MultiTypeScope scopes seed/transform calls to one type tag of a
// multi-collection.
type MultiTypeScope struct {
	builder *Builder
	name    string
	typeTag string
}

// Seed emits SeedMultiCollectionType, validated against the declared
// per-type schema.
func (s *MultiTypeScope) Seed(docs ...map[string]interface{}) *MultiTypeScope {
	if types, ok := s.builder.schemas.MultiCollections[s.name]; ok {
		if target, ok := types[s.typeTag]; ok {
			for i, doc := range docs {
				if violations := schema.Validate(target, doc); len(violations) > 0 {
					s.builder.fail(&SeedInvalidError{Collection: s.name + "/" + s.typeTag, Index: i, Violations: violations})
				}
			}
		}
	}
	s.builder.ops = append(s.builder.ops, migration.Operation{
		Kind:    migration.OpSeedMultiCollectionType,
		Name:    s.name,
		TypeTag: s.typeTag,
		Docs:    append([]map[string]interface{}{}, docs...),
	})
	return s
}

// Transform emits TransformMultiCollectionType.
func (s *MultiTypeScope) Transform(up, down migration.DocTransform, lossy bool) *MultiTypeScope {
	s.builder.ops = append(s.builder.ops, migration.Operation{
		Kind:    migration.OpTransformMultiCollectionType,
		Name:    s.name,
		TypeTag: s.typeTag,
		Up:      up,
		Down:    down,
		Lossy:   lossy,
	})
	return s
}

// End returns to the multi-collection scope.
func (s *MultiTypeScope) End() *MultiScope { return &MultiScope{builder: s.builder, name: s.name} }

// MultiInstanceScope is returned by CreateMultiModelInstance.
type MultiInstanceScope struct {
	builder      *Builder
	instanceName string
	modelTag     string
}

// Type narrows to one tagged type of the model for seed calls.
func (s *MultiInstanceScope) Type(typeTag string) *MultiInstanceTypeScope {
	return &MultiInstanceTypeScope{builder: s.builder, instanceName: s.instanceName, modelTag: s.modelTag, typeTag: typeTag}
}

// End returns the parent builder.
func (s *MultiInstanceScope) End() *Builder { return s.builder }

// MultiInstanceTypeScope scopes seed calls to one tagged type of a
// multi-model instance; it offers no Transform.
type MultiInstanceTypeScope struct {
	builder      *Builder
	instanceName string
	modelTag     string
	typeTag      string
}

// Seed emits SeedMultiModelInstanceType, validated against the model's
// declared per-type schema.
func (s *MultiInstanceTypeScope) Seed(docs ...map[string]interface{}) *MultiInstanceTypeScope {
	if types, ok := s.builder.schemas.MultiModels[s.modelTag]; ok {
		if target, ok := types[s.typeTag]; ok {
			for i, doc := range docs {
				if violations := schema.Validate(target, doc); len(violations) > 0 {
					s.builder.fail(&SeedInvalidError{Collection: s.instanceName + "/" + s.typeTag, Index: i, Violations: violations})
				}
			}
		}
	}
	s.builder.ops = append(s.builder.ops, migration.Operation{
		Kind:         migration.OpSeedMultiModelInstanceType,
		InstanceName: s.instanceName,
		TypeTag:      s.typeTag,
		Docs:         append([]map[string]interface{}{}, docs...),
	})
	return s
}

// End returns to the instance scope.
func (s *MultiInstanceTypeScope) End() *MultiInstanceScope {
	return &MultiInstanceScope{builder: s.builder, instanceName: s.instanceName, modelTag: s.modelTag}
}
