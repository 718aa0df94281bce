// Package wasm defines the engine-neutral capability set of a guest instance. Every engine
// gets one adapter implementing Instance; host functions and orchestration only see this.
package wasm

import (
	"context"
	"sort"

	"github.com/CosmWasm/regionvm/internal/runtime/memory"
	"github.com/CosmWasm/regionvm/types"
)

// Import identifies a function the guest imports from the host.
type Import struct {
	Module string
	Name   string
}

// ExportInfo is the static export/import metadata of a guest module.
type ExportInfo interface {
	// ExportedFunctions lists the exported function names, sorted.
	ExportedFunctions() []string
	// ImportedFunctions lists the imported functions, sorted by module and name.
	ImportedFunctions() []Import
	// ExportedMemories lists the exported memory names, sorted.
	ExportedMemories() []string
}

// Instance is the capability set of one running guest instance.
type Instance interface {
	// Module exposes the static metadata of the module this instance was created from.
	Module() ExportInfo
	// Memory returns the accessor for the single exported linear memory.
	Memory() (*memory.Accessor, error)
	// GetRemaining returns the remaining metering points; 0 once exhausted.
	GetRemaining() uint64
	// SetRemaining sets the metering budget for the next call.
	SetRemaining(points uint64)
	// CallFunction invokes an exported function. Traps are classified against the
	// remaining budget, see ClassifyTrap.
	CallFunction(ctx context.Context, name string, args ...uint64) ([]uint64, error)
}

// CheckMemoryExports enforces that a module exports exactly one linear memory.
func CheckMemoryExports(names []string) error {
	if len(names) != 1 {
		return types.MemoryExportError{Count: len(names)}
	}
	return nil
}

// SortImports orders imports by module, then name.
func SortImports(imports []Import) {
	sort.Slice(imports, func(i, j int) bool {
		if imports[i].Module != imports[j].Module {
			return imports[i].Module < imports[j].Module
		}
		return imports[i].Name < imports[j].Name
	})
}
