package templates

// Builtin holds the built-in template bodies. Each renders to a
// complete, compilable Go source file: a migration source file registers
// itself into internal/chain's Registry from its own init(), the same
// compiled-in pattern ptah's Migrator.Register expects of its migration
// files, so `generate` writing one of these to paths.migrations and the
// project rebuilding is what makes the new migration loadable.
var Builtin = map[string]string{
	"empty":             emptyTemplate,
	"create-collection": createCollectionTemplate,
	"seed-data":         seedDataTemplate,
	"transform-data":    transformDataTemplate,
	"add-index":         addIndexTemplate,
	"custom":            customTemplate,
}

const fileHeader = `// Code generated by mongodbee generate. Edit the operations below, not
// the registration boilerplate.
package migrations

import (
	"github.com/diister/mongodbee/internal/builder"
	"github.com/diister/mongodbee/internal/chain"
	"github.com/diister/mongodbee/internal/migration"
)

func init() {
	schemas := migration.NewSchemaDocument()
	b := builder.New(schemas)

{{#if variables.body}}{{variables.body}}
{{/if}}
	ops, props, err := b.Compile()
	if err != nil {
		panic(err)
	}

	chain.Register(migration.Definition{
		ID:      "{{migration.id}}",
		Name:    "{{migration.name}}",
		Parent:  "{{migration.parent}}",
		Schemas: schemas,
		Ops:     ops,
		Props:   props,
	})
}
`

const emptyTemplate = fileHeader

const createCollectionTemplate = `// Code generated by mongodbee generate (template: create-collection).
package migrations

import (
	"github.com/diister/mongodbee/internal/builder"
	"github.com/diister/mongodbee/internal/chain"
	"github.com/diister/mongodbee/internal/migration"
	"github.com/diister/mongodbee/internal/schema"
)

func init() {
	schemas := migration.NewSchemaDocument()
	schemas.Collections["{{variables.collection}}"] = schema.Obj(
		schema.Field{Name: "_id", Schema: schema.Ref("{{variables.collection}}")},
	)

	b := builder.New(schemas)
	b.CreateCollection("{{variables.collection}}")

	ops, props, err := b.Compile()
	if err != nil {
		panic(err)
	}

	chain.Register(migration.Definition{
		ID:      "{{migration.id}}",
		Name:    "{{migration.name}}",
		Parent:  "{{migration.parent}}",
		Schemas: schemas,
		Ops:     ops,
		Props:   props,
	})
}
`

const seedDataTemplate = `// Code generated by mongodbee generate (template: seed-data).
package migrations

import (
	"github.com/diister/mongodbee/internal/builder"
	"github.com/diister/mongodbee/internal/chain"
	"github.com/diister/mongodbee/internal/migration"
)

func init() {
	schemas := migration.NewSchemaDocument()
	b := builder.New(schemas)
	b.Collection("{{variables.collection}}").Seed(
	// map[string]interface{}{"field": "value"},
	)

	ops, props, err := b.Compile()
	if err != nil {
		panic(err)
	}

	chain.Register(migration.Definition{
		ID:      "{{migration.id}}",
		Name:    "{{migration.name}}",
		Parent:  "{{migration.parent}}",
		Schemas: schemas,
		Ops:     ops,
		Props:   props,
	})
}
`

const transformDataTemplate = `// Code generated by mongodbee generate (template: transform-data).
package migrations

import (
	"github.com/diister/mongodbee/internal/builder"
	"github.com/diister/mongodbee/internal/chain"
	"github.com/diister/mongodbee/internal/migration"
)

func init() {
	schemas := migration.NewSchemaDocument()
	b := builder.New(schemas)
	b.Collection("{{variables.collection}}").Transform(
		func(doc map[string]interface{}) (map[string]interface{}, error) {
			return doc, nil
		},
		func(doc map[string]interface{}) (map[string]interface{}, error) {
			return doc, nil
		},
		false,
	)

	ops, props, err := b.Compile()
	if err != nil {
		panic(err)
	}

	chain.Register(migration.Definition{
		ID:      "{{migration.id}}",
		Name:    "{{migration.name}}",
		Parent:  "{{migration.parent}}",
		Schemas: schemas,
		Ops:     ops,
		Props:   props,
	})
}
`

const addIndexTemplate = `// Code generated by mongodbee generate (template: add-index).
package migrations

import (
	"github.com/diister/mongodbee/internal/builder"
	"github.com/diister/mongodbee/internal/chain"
	"github.com/diister/mongodbee/internal/migration"
)

func init() {
	schemas := migration.NewSchemaDocument()
	b := builder.New(schemas)
	b.UpdateIndexes("{{variables.collection}}")

	ops, props, err := b.Compile()
	if err != nil {
		panic(err)
	}

	chain.Register(migration.Definition{
		ID:      "{{migration.id}}",
		Name:    "{{migration.name}}",
		Parent:  "{{migration.parent}}",
		Schemas: schemas,
		Ops:     ops,
		Props:   props,
	})
}
`

const customTemplate = fileHeader
