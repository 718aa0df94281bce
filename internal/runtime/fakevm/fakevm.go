// Package fakevm is an in-process engine whose guest exports are Go functions operating on
// an Arena. It implements wasm.Instance, so anything written against the capability set can
// be exercised without compiling wasm.
package fakevm

import (
	"context"
	"sort"

	"github.com/CosmWasm/regionvm/internal/runtime/gas"
	"github.com/CosmWasm/regionvm/internal/runtime/memory"
	"github.com/CosmWasm/regionvm/internal/runtime/wasm"
	"github.com/CosmWasm/regionvm/types"
)

// DefaultMemoryName is the export name of the memory created by New.
const DefaultMemoryName = "memory"

// Func is a guest export implemented in Go. Returning an error traps the call.
type Func func(ctx context.Context, inst *Instance, args []uint64) ([]uint64, error)

var _ wasm.Instance = (*Instance)(nil)

// Instance is a fake guest instance.
type Instance struct {
	memories map[string]*memory.Arena
	funcs    map[string]Func
	imports  []wasm.Import
	meter    *gas.Meter
}

// Option configures an Instance.
type Option func(*Instance)

// WithMemory exports arena under name. Use it twice to build a module that violates the
// single-memory rule.
func WithMemory(name string, arena *memory.Arena) Option {
	return func(i *Instance) {
		i.memories[name] = arena
	}
}

// WithoutMemory removes all exported memories.
func WithoutMemory() Option {
	return func(i *Instance) {
		i.memories = map[string]*memory.Arena{}
	}
}

// WithFunction exports fn under name.
func WithFunction(name string, fn Func) Option {
	return func(i *Instance) {
		i.Export(name, fn)
	}
}

// WithImport records a host import in the module metadata.
func WithImport(module, name string) Option {
	return func(i *Instance) {
		i.imports = append(i.imports, wasm.Import{Module: module, Name: name})
	}
}

// New creates an instance with a one page memory (growable to 16 pages) exported as
// "memory" and an empty budget.
func New(opts ...Option) *Instance {
	i := &Instance{
		memories: map[string]*memory.Arena{DefaultMemoryName: memory.NewArena(1, 16)},
		funcs:    map[string]Func{},
		meter:    gas.NewMeter(0),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Export adds or replaces a guest export after construction.
func (i *Instance) Export(name string, fn Func) {
	i.funcs[name] = fn
}

// Arena returns the exported memory, or nil unless there is exactly one.
func (i *Instance) Arena() *memory.Arena {
	if len(i.memories) != 1 {
		return nil
	}
	for _, arena := range i.memories {
		return arena
	}
	return nil
}

// Charge consumes points the way an engine charges executed instructions.
func (i *Instance) Charge(points uint64) error {
	return i.meter.ConsumeFor(points, "instructions")
}

func (i *Instance) Module() wasm.ExportInfo {
	info := exportInfo{}
	for name := range i.funcs {
		info.functions = append(info.functions, name)
	}
	for name := range i.memories {
		info.memories = append(info.memories, name)
	}
	info.imports = append(info.imports, i.imports...)
	sort.Strings(info.functions)
	sort.Strings(info.memories)
	wasm.SortImports(info.imports)
	return info
}

func (i *Instance) Memory() (*memory.Accessor, error) {
	if err := wasm.CheckMemoryExports(i.Module().ExportedMemories()); err != nil {
		return nil, err
	}
	return memory.NewAccessor(i.Arena()), nil
}

func (i *Instance) GetRemaining() uint64 {
	return i.meter.GetRemaining()
}

func (i *Instance) SetRemaining(points uint64) {
	i.meter.SetRemaining(points)
}

func (i *Instance) CallFunction(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	fn, ok := i.funcs[name]
	if !ok {
		return nil, types.ExportNotFoundError{Name: name}
	}
	results, err := fn(gas.WithMeter(ctx, i.meter), i, args)
	if err != nil {
		return nil, wasm.ClassifyTrap(i.meter, name, err)
	}
	return results, nil
}

type exportInfo struct {
	functions []string
	imports   []wasm.Import
	memories  []string
}

func (e exportInfo) ExportedFunctions() []string      { return e.functions }
func (e exportInfo) ImportedFunctions() []wasm.Import { return e.imports }
func (e exportInfo) ExportedMemories() []string       { return e.memories }
