package wazeroimpl

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/CosmWasm/regionvm/internal/runtime/gas"
	"github.com/CosmWasm/regionvm/internal/runtime/host"
	"github.com/CosmWasm/regionvm/internal/runtime/memory"
	"github.com/CosmWasm/regionvm/internal/runtime/wasm"
	"github.com/CosmWasm/regionvm/types"
)

var _ wasm.Instance = (*Instance)(nil)

// Instance is a wazero module instance with its own meter. Guests are metered through the
// env.gas import, so the budget only moves while guest or host code runs on its behalf.
type Instance struct {
	module *Module
	guest  api.Module
	meter  *gas.Meter
	env    *host.Environment
}

func newInstance(mod *Module, env *host.Environment) *Instance {
	return &Instance{
		module: mod,
		meter:  gas.NewMeter(0),
		env:    env,
	}
}

// callContext carries the meter and host environment into host callbacks.
func (i *Instance) callContext(ctx context.Context) context.Context {
	ctx = gas.WithMeter(ctx, i.meter)
	if i.env != nil {
		ctx = host.WithEnvironment(ctx, i.env)
	}
	return ctx
}

func (i *Instance) Module() wasm.ExportInfo {
	return i.module
}

// Memory re-checks the single memory rule against the live instance before handing out
// an accessor.
func (i *Instance) Memory() (*memory.Accessor, error) {
	defs := i.guest.ExportedMemoryDefinitions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	if err := wasm.CheckMemoryExports(names); err != nil {
		return nil, err
	}
	return memory.NewAccessor(i.guest.ExportedMemory(names[0])), nil
}

func (i *Instance) GetRemaining() uint64 {
	return i.meter.GetRemaining()
}

func (i *Instance) SetRemaining(points uint64) {
	i.meter.SetRemaining(points)
}

func (i *Instance) CallFunction(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	fn := i.guest.ExportedFunction(name)
	if fn == nil {
		return nil, types.ExportNotFoundError{Name: name}
	}
	results, err := fn.Call(i.callContext(ctx), args...)
	if err != nil {
		return nil, wasm.ClassifyTrap(i.meter, name, err)
	}
	return results, nil
}

// Close releases the instance. The compiled module stays cached in the runtime.
func (i *Instance) Close(ctx context.Context) error {
	return i.guest.Close(ctx)
}
