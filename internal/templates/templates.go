// Package templates renders the migration source files `generate` writes
// to paths.migrations. Go has no
// built-in dynamic-eval of generated source, so generated files are
// themselves compilable Go: a migration source file that self-registers
// via chain.Register in its own init(), the same compiled-in pattern
// internal/chain's Registry uses for loading.
package templates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/diister/mongodbee/internal/ident"
)

// MigrationContext is the migration portion of the generator context.
type MigrationContext struct {
	ID          string
	Name        string
	Description string
	Timestamp   time.Time
	Parent      string
	Author      string
}

// Context is the typed context every built-in template renders against.
type Context struct {
	Migration  MigrationContext
	Variables  map[string]interface{}
	ParentInfo map[string]interface{}
}

// Render expands every `{{path.to.value}}` interpolation and
// `{{#if path}}…{{/if}}` conditional in body against ctx. Values
// are stringified with fmt.Sprint (the engine's "String(x)"); a path that
// resolves to nothing renders empty rather than erroring, so a template
// author can reference an optional field without guarding every use.
func Render(body string, ctx Context) string {
	data := ctx.flatten()
	body = renderConditionals(body, data)
	return renderInterpolations(body, data)
}

var interpPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_.]+)\s*\}\}`)

func renderInterpolations(body string, data map[string]interface{}) string {
	return interpPattern.ReplaceAllStringFunc(body, func(match string) string {
		path := interpPattern.FindStringSubmatch(match)[1]
		v, ok := lookup(data, path)
		if !ok {
			return ""
		}
		return stringify(v)
	})
}

var condPattern = regexp.MustCompile(`(?s)\{\{#if\s+([a-zA-Z0-9_.]+)\s*\}\}(.*?)\{\{/if\}\}`)

func renderConditionals(body string, data map[string]interface{}) string {
	for {
		loc := condPattern.FindStringSubmatchIndex(body)
		if loc == nil {
			return body
		}
		path := body[loc[2]:loc[3]]
		inner := body[loc[4]:loc[5]]
		v, ok := lookup(data, path)
		replacement := ""
		if ok && truthy(v) {
			replacement = renderConditionals(inner, data)
		}
		body = body[:loc[0]] + replacement + body[loc[1]:]
	}
}

func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	default:
		return true
	}
}

// flatten builds the dotted-path lookup table: migration.*, variables.*,
// helpers.*, parentInfo.*. helpers.now and helpers.uuid resolve
// to a pre-computed value, since both are zero-argument by nature; the
// casing/sanitizing helpers take an argument the path-only
// interpolation syntax has no call notation for, so they are exposed as
// the exported functions below for generate's own Go code to apply while
// building Variables, rather than as unreachable entries in this map.
func (c Context) flatten() map[string]interface{} {
	data := map[string]interface{}{
		"migration": map[string]interface{}{
			"id":          c.Migration.ID,
			"name":        c.Migration.Name,
			"description": c.Migration.Description,
			"timestamp":   c.Migration.Timestamp,
			"parent":      c.Migration.Parent,
			"author":      c.Migration.Author,
		},
		"variables": c.Variables,
		"helpers": map[string]interface{}{
			"now":  time.Now().UTC().Format(time.RFC3339),
			"uuid": uuid.NewString(),
		},
	}
	if c.ParentInfo != nil {
		data["parentInfo"] = c.ParentInfo
	}
	return data
}

func lookup(data map[string]interface{}, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	var cur interface{} = data
	for _, p := range parts {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		v, present := m[p]
		if !present {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// CamelCase, PascalCase, SnakeCase, KebabCase, and Sanitize are the
// casing helpers templates may need. generate calls these directly when
// assembling a template's Variables map, e.g. to turn an authored
// migration name into a Go identifier for the generated collection
// constant.
func CamelCase(s string) string {
	words := splitWords(s)
	if len(words) == 0 {
		return ""
	}
	out := strings.ToLower(words[0])
	for _, w := range words[1:] {
		out += strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return out
}

func PascalCase(s string) string {
	words := splitWords(s)
	var out string
	for _, w := range words {
		out += strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return out
}

func SnakeCase(s string) string {
	return strings.ToLower(strings.Join(splitWords(s), "_"))
}

// KebabCase reuses the same word-splitting ident.NewMigrationId relies on
// for turning a migration name into its id suffix.
func KebabCase(s string) string {
	return ident.Kebab(s)
}

func Sanitize(s string) string {
	return ident.Kebab(s)
}

var wordSplit = regexp.MustCompile(`[^a-zA-Z0-9]+`)

func splitWords(s string) []string {
	parts := wordSplit.Split(s, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
