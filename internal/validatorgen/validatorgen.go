// Package validatorgen translates a canonical schema tree into the
// driver-native validator document the executor installs when creating a
// collection. The full per-document schema validator lives outside the
// migration core; this package is the
// narrow adapter the executor calls through so that collaborator boundary
// is a Go interface (executor.ValidatorGenerator) rather than a concrete
// dependency — Generate is simply the default implementation wired in by
// cmd/mongodbee.
package validatorgen

import (
	"github.com/diister/mongodbee/internal/driver"
	"github.com/diister/mongodbee/internal/schema"
)

// Generate builds a MongoDB $jsonSchema validator document for n.
// Structural shape (object/array/primitive kinds, required fields) is
// translated directly; refinements without a direct jsonSchema keyword
// are carried over where MongoDB's validator vocabulary has one
// (minLength/maxLength/pattern/enum/minimum/maximum) and otherwise left
// unenforced at the driver level — schema.Validate remains the
// authoritative check at seed/transform time regardless of what the
// installed validator catches.
func Generate(n *schema.Node) driver.Document {
	body := generateNode(n)
	if body == nil {
		return nil
	}
	return driver.Document{"$jsonSchema": body}
}

func generateNode(n *schema.Node) map[string]interface{} {
	if n == nil {
		return nil
	}

	switch n.Kind {
	case schema.KindString:
		out := map[string]interface{}{"bsonType": "string"}
		applyStringRefinements(out, n)
		return out
	case schema.KindNumber:
		out := map[string]interface{}{"bsonType": "number"}
		applyNumberRefinements(out, n)
		return out
	case schema.KindBoolean:
		return map[string]interface{}{"bsonType": "bool"}
	case schema.KindDate:
		return map[string]interface{}{"bsonType": "date"}
	case schema.KindBinary:
		return map[string]interface{}{"bsonType": "binData"}
	case schema.KindNull:
		return map[string]interface{}{"bsonType": "null"}
	case schema.KindLiteral:
		return map[string]interface{}{"enum": []interface{}{n.Literal}}
	case schema.KindReference:
		return map[string]interface{}{"bsonType": "string"}
	case schema.KindObject:
		return generateObject(n)
	case schema.KindArray:
		out := map[string]interface{}{"bsonType": "array"}
		if el := generateNode(n.Element); el != nil {
			out["items"] = el
		}
		if n.MinItems != nil {
			out["minItems"] = *n.MinItems
		}
		if n.MaxItems != nil {
			out["maxItems"] = *n.MaxItems
		}
		return out
	case schema.KindRecord:
		// $jsonSchema has no record/map constraint; values are checked by
		// schema.Validate at write time instead.
		return map[string]interface{}{"bsonType": "object"}
	case schema.KindUnion:
		var alts []interface{}
		for _, a := range n.Alternatives {
			if g := generateNode(a); g != nil {
				alts = append(alts, g)
			}
		}
		if len(alts) == 0 {
			return nil
		}
		return map[string]interface{}{"anyOf": alts}
	case schema.KindIntersection:
		var alts []interface{}
		for _, a := range n.Alternatives {
			if g := generateNode(a); g != nil {
				alts = append(alts, g)
			}
		}
		if len(alts) == 0 {
			return nil
		}
		return map[string]interface{}{"allOf": alts}
	default:
		return nil
	}
}

func generateObject(n *schema.Node) map[string]interface{} {
	properties := map[string]interface{}{}
	var required []interface{}
	for _, f := range n.Fields {
		if g := generateNode(f.Schema); g != nil {
			properties[f.Name] = g
		}
		if !f.Optional {
			required = append(required, f.Name)
		}
	}
	out := map[string]interface{}{
		"bsonType":   "object",
		"properties": properties,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

func applyStringRefinements(out map[string]interface{}, n *schema.Node) {
	for _, r := range n.Refinements {
		switch r.Kind {
		case schema.RefinementMinLength:
			out["minLength"] = r.Value
		case schema.RefinementMaxLength:
			out["maxLength"] = r.Value
		case schema.RefinementRegex:
			out["pattern"] = r.Value
		case schema.RefinementEnum:
			out["enum"] = r.Value
		}
	}
}

func applyNumberRefinements(out map[string]interface{}, n *schema.Node) {
	for _, r := range n.Refinements {
		switch r.Kind {
		case schema.RefinementMinValue:
			out["minimum"] = r.Value
		case schema.RefinementMaxValue:
			out["maximum"] = r.Value
		case schema.RefinementEnum:
			out["enum"] = r.Value
		}
	}
}
