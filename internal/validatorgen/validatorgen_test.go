package validatorgen

import (
	"testing"

	"github.com/diister/mongodbee/internal/schema"
)

func TestGenerateObjectWithRequiredAndOptionalFields(t *testing.T) {
	node := schema.Obj(
		schema.Field{Name: "_id", Schema: schema.Ref("user")},
		schema.Field{Name: "name", Schema: schema.String()},
		schema.Field{Name: "nickname", Optional: true, Schema: schema.String()},
	)

	doc := Generate(node)
	body, ok := doc["$jsonSchema"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected $jsonSchema key, got %#v", doc)
	}
	if body["bsonType"] != "object" {
		t.Fatalf("expected bsonType object, got %v", body["bsonType"])
	}

	required, ok := body["required"].([]interface{})
	if !ok {
		t.Fatalf("expected required list, got %#v", body["required"])
	}
	if len(required) != 2 || required[0] != "_id" || required[1] != "name" {
		t.Fatalf("expected required=[_id,name], got %v", required)
	}

	properties, ok := body["properties"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected properties map, got %#v", body["properties"])
	}
	if len(properties) != 3 {
		t.Fatalf("expected 3 properties, got %d", len(properties))
	}
}

func TestGenerateStringRefinements(t *testing.T) {
	n := schema.WithRefinement(schema.WithRefinement(schema.String(),
		schema.Refinement{Kind: schema.RefinementMinLength, Value: 3}),
		schema.Refinement{Kind: schema.RefinementMaxLength, Value: 30})

	doc := Generate(n)
	body := doc["$jsonSchema"].(map[string]interface{})
	if body["minLength"] != 3 || body["maxLength"] != 30 {
		t.Fatalf("expected minLength/maxLength carried over, got %#v", body)
	}
}

func TestGenerateNumberRefinements(t *testing.T) {
	n := schema.WithRefinement(schema.WithRefinement(schema.Number(),
		schema.Refinement{Kind: schema.RefinementMinValue, Value: 0}),
		schema.Refinement{Kind: schema.RefinementMaxValue, Value: 150})

	doc := Generate(n)
	body := doc["$jsonSchema"].(map[string]interface{})
	if body["minimum"] != 0 || body["maximum"] != 150 {
		t.Fatalf("expected minimum/maximum carried over, got %#v", body)
	}
}

func TestGenerateArrayWithBounds(t *testing.T) {
	one, two := 1, 2
	n := &schema.Node{Kind: schema.KindArray, Element: schema.String(), MinItems: &one, MaxItems: &two}
	doc := Generate(n)
	body := doc["$jsonSchema"].(map[string]interface{})
	if body["bsonType"] != "array" || body["minItems"] != 1 || body["maxItems"] != 2 {
		t.Fatalf("expected array bounds carried over, got %#v", body)
	}
	items, ok := body["items"].(map[string]interface{})
	if !ok || items["bsonType"] != "string" {
		t.Fatalf("expected items.bsonType=string, got %#v", body["items"])
	}
}

func TestGenerateLiteralBecomesEnumOfOne(t *testing.T) {
	doc := Generate(schema.Lit("singleton"))
	body := doc["$jsonSchema"].(map[string]interface{})
	enum, ok := body["enum"].([]interface{})
	if !ok || len(enum) != 1 || enum[0] != "singleton" {
		t.Fatalf("expected enum=[singleton], got %#v", body)
	}
}

func TestGenerateUnionProducesAnyOf(t *testing.T) {
	doc := Generate(schema.Union(schema.String(), schema.Number()))
	body := doc["$jsonSchema"].(map[string]interface{})
	alts, ok := body["anyOf"].([]interface{})
	if !ok || len(alts) != 2 {
		t.Fatalf("expected anyOf with 2 alternatives, got %#v", body)
	}
}

func TestGenerateNilNodeYieldsNoValidator(t *testing.T) {
	if doc := Generate(nil); doc != nil {
		t.Fatalf("expected nil schema to produce no validator document, got %#v", doc)
	}
}
