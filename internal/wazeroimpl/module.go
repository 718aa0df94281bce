package wazeroimpl

import (
	"sort"

	"github.com/tetratelabs/wazero"

	"github.com/CosmWasm/regionvm/internal/runtime/wasm"
	"github.com/CosmWasm/regionvm/types"
)

var _ wasm.ExportInfo = (*Module)(nil)

// Module is a compiled guest module together with its export/import metadata.
type Module struct {
	checksum  types.Checksum
	compiled  wazero.CompiledModule
	functions []string
	imports   []wasm.Import
	memories  []string
}

func newModule(checksum types.Checksum, compiled wazero.CompiledModule) *Module {
	m := &Module{checksum: checksum, compiled: compiled}
	for name := range compiled.ExportedFunctions() {
		m.functions = append(m.functions, name)
	}
	for _, def := range compiled.ImportedFunctions() {
		module, name, _ := def.Import()
		m.imports = append(m.imports, wasm.Import{Module: module, Name: name})
	}
	for name := range compiled.ExportedMemories() {
		m.memories = append(m.memories, name)
	}
	sort.Strings(m.functions)
	sort.Strings(m.memories)
	wasm.SortImports(m.imports)
	return m
}

// Checksum identifies the module code.
func (m *Module) Checksum() types.Checksum { return m.checksum }

func (m *Module) ExportedFunctions() []string      { return m.functions }
func (m *Module) ImportedFunctions() []wasm.Import { return m.imports }
func (m *Module) ExportedMemories() []string       { return m.memories }
