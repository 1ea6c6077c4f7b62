package planner

import (
	"sort"

	"github.com/diister/mongodbee/internal/migration"
	"github.com/diister/mongodbee/internal/schema"
)

// reconcileIndexes computes the index actions needed to move from prev's
// declared schema to next's, across every named collection/type. When
// rolling back, callers pass (def, parent) so indexes reconcile back to
// the parent's shape.
func reconcileIndexes(prev, next migration.Definition) []schema.IndexAction {
	var actions []schema.IndexAction

	names := unionKeys(prev.Schemas.Collections, next.Schemas.Collections)
	for _, name := range names {
		before := schema.ExtractIndexes(prev.Schemas.Collections[name])
		after := schema.ExtractIndexes(next.Schemas.Collections[name])
		for _, a := range schema.DiffIndexes(before, after) {
			if a.Kind != schema.IndexUnchanged {
				a.Path = name + "." + a.Path
				actions = append(actions, a)
			}
		}
	}

	for _, name := range unionNestedKeys(prev.Schemas.MultiCollections, next.Schemas.MultiCollections) {
		for _, typeTag := range unionKeys(prev.Schemas.MultiCollections[name], next.Schemas.MultiCollections[name]) {
			before := schema.ExtractIndexes(prev.Schemas.MultiCollections[name][typeTag])
			after := schema.ExtractIndexes(next.Schemas.MultiCollections[name][typeTag])
			for _, a := range schema.DiffIndexes(before, after) {
				if a.Kind != schema.IndexUnchanged {
					a.Path = name + "/" + typeTag + "." + a.Path
					actions = append(actions, a)
				}
			}
		}
	}

	for _, tag := range unionNestedKeys(prev.Schemas.MultiModels, next.Schemas.MultiModels) {
		for _, typeTag := range unionKeys(prev.Schemas.MultiModels[tag], next.Schemas.MultiModels[tag]) {
			before := schema.ExtractIndexes(prev.Schemas.MultiModels[tag][typeTag])
			after := schema.ExtractIndexes(next.Schemas.MultiModels[tag][typeTag])
			for _, a := range schema.DiffIndexes(before, after) {
				if a.Kind != schema.IndexUnchanged {
					a.Path = tag + "/" + typeTag + "." + a.Path
					actions = append(actions, a)
				}
			}
		}
	}

	sort.Slice(actions, func(i, j int) bool { return actions[i].Path < actions[j].Path })
	return actions
}

func unionKeys(a, b map[string]*schema.Node) []string {
	seen := map[string]bool{}
	var out []string
	for k := range a {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for k := range b {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

func unionNestedKeys(a, b map[string]map[string]*schema.Node) []string {
	seen := map[string]bool{}
	var out []string
	for k := range a {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	for k := range b {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
