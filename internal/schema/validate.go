package schema

import (
	"fmt"
	"regexp"
	"time"
)

// Validate checks value against the canonical schema n and returns one
// message per violation found, with dotted paths matching Diff's Path
// convention. An empty result means value conforms. Used by the migration
// builder to reject seed documents at compile time.
func Validate(n *Node, value interface{}) []string {
	return validateAt(nil, n, value)
}

func validateAt(path []string, n *Node, value interface{}) []string {
	if n == nil {
		return nil
	}

	if value == nil {
		if n.AllowNull || n.AllowUndefined {
			return nil
		}
		return []string{fmt.Sprintf("%s: value is null but schema does not allow null", pathString(path))}
	}

	var errs []string
	switch n.Kind {
	case KindString:
		s, ok := value.(string)
		if !ok {
			return []string{fmt.Sprintf("%s: expected string, got %T", pathString(path), value)}
		}
		errs = append(errs, checkStringRefinements(path, n, s)...)
	case KindNumber:
		if !isNumeric(value) {
			return []string{fmt.Sprintf("%s: expected number, got %T", pathString(path), value)}
		}
		errs = append(errs, checkNumberRefinements(path, n, toFloat(value))...)
	case KindBoolean:
		if _, ok := value.(bool); !ok {
			return []string{fmt.Sprintf("%s: expected boolean, got %T", pathString(path), value)}
		}
	case KindDate:
		if _, ok := value.(time.Time); !ok {
			return []string{fmt.Sprintf("%s: expected date, got %T", pathString(path), value)}
		}
	case KindBinary:
		if _, ok := value.([]byte); !ok {
			return []string{fmt.Sprintf("%s: expected binary, got %T", pathString(path), value)}
		}
	case KindNull:
		if value != nil {
			return []string{fmt.Sprintf("%s: expected null, got %T", pathString(path), value)}
		}
	case KindLiteral:
		if toComparableString(value) != toComparableString(n.Literal) {
			return []string{fmt.Sprintf("%s: expected literal %v, got %v", pathString(path), n.Literal, value)}
		}
	case KindReference:
		if _, ok := value.(string); !ok {
			return []string{fmt.Sprintf("%s: expected reference string, got %T", pathString(path), value)}
		}
	case KindObject:
		obj, ok := value.(map[string]interface{})
		if !ok {
			return []string{fmt.Sprintf("%s: expected object, got %T", pathString(path), value)}
		}
		for _, f := range n.Fields {
			childPath := append(append([]string{}, path...), f.Name)
			v, present := obj[f.Name]
			if !present {
				if !f.Optional && !(f.Schema != nil && f.Schema.AllowUndefined) {
					errs = append(errs, fmt.Sprintf("%s: required field missing", pathString(childPath)))
				}
				continue
			}
			errs = append(errs, validateAt(childPath, f.Schema, v)...)
		}
	case KindArray:
		arr, ok := value.([]interface{})
		if !ok {
			return []string{fmt.Sprintf("%s: expected array, got %T", pathString(path), value)}
		}
		if n.MinItems != nil && len(arr) < *n.MinItems {
			errs = append(errs, fmt.Sprintf("%s: expected at least %d items, got %d", pathString(path), *n.MinItems, len(arr)))
		}
		if n.MaxItems != nil && len(arr) > *n.MaxItems {
			errs = append(errs, fmt.Sprintf("%s: expected at most %d items, got %d", pathString(path), *n.MaxItems, len(arr)))
		}
		for i, el := range arr {
			childPath := append(append([]string{}, path...), fmt.Sprintf("[%d]", i))
			errs = append(errs, validateAt(childPath, n.Element, el)...)
		}
	case KindRecord:
		obj, ok := value.(map[string]interface{})
		if !ok {
			return []string{fmt.Sprintf("%s: expected object (record), got %T", pathString(path), value)}
		}
		for k, v := range obj {
			childPath := append(append([]string{}, path...), k)
			errs = append(errs, validateAt(childPath, n.KeySchema, k)...)
			errs = append(errs, validateAt(childPath, n.ValueSchema, v)...)
		}
	case KindUnion:
		matched := false
		for _, alt := range n.Alternatives {
			if len(validateAt(path, alt, value)) == 0 {
				matched = true
				break
			}
		}
		if !matched {
			errs = append(errs, fmt.Sprintf("%s: value matches none of %d union alternatives", pathString(path), len(n.Alternatives)))
		}
	case KindIntersection:
		for _, alt := range n.Alternatives {
			errs = append(errs, validateAt(path, alt, value)...)
		}
	}
	return errs
}

func checkStringRefinements(path []string, n *Node, s string) []string {
	var errs []string
	for _, r := range n.Refinements {
		switch r.Kind {
		case RefinementMinLength:
			if min, ok := r.Value.(int); ok && len(s) < min {
				errs = append(errs, fmt.Sprintf("%s: length %d below minLength %d", pathString(path), len(s), min))
			}
		case RefinementMaxLength:
			if max, ok := r.Value.(int); ok && len(s) > max {
				errs = append(errs, fmt.Sprintf("%s: length %d above maxLength %d", pathString(path), len(s), max))
			}
		case RefinementNonEmpty:
			if s == "" {
				errs = append(errs, fmt.Sprintf("%s: must be non-empty", pathString(path)))
			}
		case RefinementRegex:
			if pattern, ok := r.Value.(string); ok {
				if re, err := regexp.Compile(pattern); err == nil && !re.MatchString(s) {
					errs = append(errs, fmt.Sprintf("%s: does not match pattern %s", pathString(path), pattern))
				}
			}
		case RefinementEnum:
			if !enumContains(r.Value, s) {
				errs = append(errs, fmt.Sprintf("%s: %q not in enum %v", pathString(path), s, r.Value))
			}
		}
	}
	return errs
}

func checkNumberRefinements(path []string, n *Node, f float64) []string {
	var errs []string
	for _, r := range n.Refinements {
		switch r.Kind {
		case RefinementMinValue:
			if min, ok := toFloatOk(r.Value); ok && f < min {
				errs = append(errs, fmt.Sprintf("%s: %v below minValue %v", pathString(path), f, min))
			}
		case RefinementMaxValue:
			if max, ok := toFloatOk(r.Value); ok && f > max {
				errs = append(errs, fmt.Sprintf("%s: %v above maxValue %v", pathString(path), f, max))
			}
		case RefinementEnum:
			if !enumContains(r.Value, f) {
				errs = append(errs, fmt.Sprintf("%s: %v not in enum %v", pathString(path), f, r.Value))
			}
		}
	}
	return errs
}

func enumContains(enum interface{}, v interface{}) bool {
	values, ok := enum.([]interface{})
	if !ok {
		return true
	}
	needle := toComparableString(v)
	for _, e := range values {
		if toComparableString(e) == needle {
			return true
		}
	}
	return false
}

func isNumeric(v interface{}) bool {
	switch v.(type) {
	case int, int32, int64, float32, float64:
		return true
	default:
		return false
	}
}

func toFloat(v interface{}) float64 {
	f, _ := toFloatOk(v)
	return f
}

func toFloatOk(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func pathString(path []string) string {
	if len(path) == 0 {
		return "$"
	}
	out := "$"
	for _, p := range path {
		out += "." + p
	}
	return out
}
