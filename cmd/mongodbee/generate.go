package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/diister/mongodbee/internal/chain"
	"github.com/diister/mongodbee/internal/ident"
	"github.com/diister/mongodbee/internal/templates"
)

var (
	generateTemplate string
	generateVars     []string
	generateVarsFile string
	generateParent   string
)

var generateCmd = &cobra.Command{
	Use:   "generate <name>",
	Short: "Write a new migration source file from a built-in template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]

		body, ok := templates.Builtin[generateTemplate]
		if !ok {
			known := make([]string, 0, len(templates.Builtin))
			for k := range templates.Builtin {
				known = append(known, k)
			}
			return fmt.Errorf("generate: unknown template %q (known: %s)", generateTemplate, strings.Join(known, ", "))
		}

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}

		parent := generateParent
		if parent == "" {
			parent = currentHead()
		}

		id := ident.NewMigrationId(time.Now(), name)
		variables, err := loadVarsFile(generateVarsFile)
		if err != nil {
			return err
		}
		inline, err := parseVars(generateVars)
		if err != nil {
			return err
		}
		// Inline --var pairs win over the file, so a shared vars file can
		// still be overridden per invocation.
		for k, v := range inline {
			variables[k] = v
		}

		ctx := templates.Context{
			Migration: templates.MigrationContext{
				ID:        id,
				Name:      name,
				Parent:    parent,
				Timestamp: time.Now().UTC(),
			},
			Variables: variables,
		}
		rendered := templates.Render(body, ctx)

		path := filepath.Join(cfg.MigrationsPath, id+".go")
		if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
			return fmt.Errorf("generate: writing %s: %w", path, err)
		}
		fmt.Printf("wrote %s\n", path)
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateTemplate, "template", "empty", "built-in template to render (empty, create-collection, seed-data, transform-data, add-index, custom)")
	generateCmd.Flags().StringArrayVar(&generateVars, "var", nil, "template variable as key=value, repeatable")
	generateCmd.Flags().StringVar(&generateVarsFile, "vars-file", "", "YAML file of template variables (inline --var pairs override it)")
	generateCmd.Flags().StringVar(&generateParent, "parent", "", "parent migration id (default: the current chain's head)")
	rootCmd.AddCommand(generateCmd)
}

// currentHead resolves the compiled-in chain's tip id, or "" for a
// project with no migrations registered yet. Errors (an unlinked or
// tampered chain) are swallowed here; generate writes the file regardless
// and lets a later `status`/`check` surface the underlying problem.
func currentHead() string {
	c, err := chain.Load(chain.Registered())
	if err != nil || c.Len() == 0 {
		return ""
	}
	return c.At(c.Len() - 1).ID
}

// loadVarsFile reads a YAML mapping of template variables, the bulk
// counterpart to repeated --var flags. Missing flag means an empty map.
func loadVarsFile(path string) (map[string]interface{}, error) {
	if path == "" {
		return map[string]interface{}{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("generate: reading --vars-file: %w", err)
	}
	vars := map[string]interface{}{}
	if err := yaml.Unmarshal(raw, &vars); err != nil {
		return nil, fmt.Errorf("generate: parsing --vars-file %s: %w", path, err)
	}
	return vars, nil
}

func parseVars(pairs []string) (map[string]interface{}, error) {
	vars := make(map[string]interface{}, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("generate: --var %q is not in key=value form", p)
		}
		vars[k] = v
	}
	return vars, nil
}
