// Package chain loads migration definitions into a linear, validated
// chain. Go has no runtime equivalent of
// evaluating a directory of source files, so migration source files
// self-register into a package-level Registry from their own init()
// function — the same pattern ptah's Migrator.Register uses to turn
// compiled-in migration files into a loadable set.
package chain

import (
	"fmt"
	"sync"

	"github.com/diister/mongodbee/internal/migration"
)

var (
	registryMu   sync.Mutex
	registryDefs = map[string]migration.Definition{}
)

// Register adds a migration definition to the package-level registry. Call
// it from a migration source file's init(). Panics on duplicate id, since a
// collision can only come from a build-time authoring mistake.
func Register(def migration.Definition) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registryDefs[def.ID]; exists {
		panic(fmt.Sprintf("chain: duplicate migration id registered: %s", def.ID))
	}
	registryDefs[def.ID] = def
}

// Registered returns every definition registered so far, in no particular
// order; Load sorts and validates them.
func Registered() []migration.Definition {
	registryMu.Lock()
	defer registryMu.Unlock()
	out := make([]migration.Definition, 0, len(registryDefs))
	for _, d := range registryDefs {
		out = append(out, d)
	}
	return out
}

// resetForTest clears the registry; used only by this package's own tests.
func resetForTest() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registryDefs = map[string]migration.Definition{}
}
