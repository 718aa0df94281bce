// Package regionvm runs untrusted WebAssembly guests behind a Region based memory boundary
// and a deterministic metering gate.
package regionvm

import (
	"context"
	"errors"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/rs/zerolog"

	"github.com/CosmWasm/regionvm/internal/runtime/host"
	"github.com/CosmWasm/regionvm/internal/runtime/memory"
	"github.com/CosmWasm/regionvm/internal/runtime/wasm"
	"github.com/CosmWasm/regionvm/internal/wazeroimpl"
	"github.com/CosmWasm/regionvm/types"
)

// KVStore is the storage a contract reads and writes through its host functions.
type KVStore = dbm.DB

// Instance is the capability set of one running guest, independent of the engine.
type Instance = wasm.Instance

// ExportInfo is the export/import metadata of a compiled module.
type ExportInfo = wasm.ExportInfo

// ValidateRegion checks a Region descriptor read from guest memory.
func ValidateRegion(region types.Region) error {
	return memory.Validate(region)
}

// VM is the main entry point to this library.
// It owns the engine and every module compiled through it.
type VM struct {
	runtime *wazeroimpl.Runtime
	config  types.VMConfig
	logger  zerolog.Logger
}

// NewVM validates config and creates a VM.
func NewVM(ctx context.Context, config types.VMConfig, logger zerolog.Logger) (*VM, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	rt, err := wazeroimpl.NewRuntime(ctx, config, logger)
	if err != nil {
		return nil, err
	}
	return &VM{runtime: rt, config: config, logger: logger}, nil
}

// Config returns the configuration the VM was created with.
func (vm *VM) Config() types.VMConfig {
	return vm.config
}

// Close releases the engine and all instances.
func (vm *VM) Close(ctx context.Context) error {
	return vm.runtime.Close(ctx)
}

// Inspect compiles code and returns its export/import metadata.
func (vm *VM) Inspect(ctx context.Context, code []byte) (ExportInfo, error) {
	mod, err := vm.runtime.Compile(ctx, code)
	if err != nil {
		return nil, err
	}
	return mod, nil
}

// Contract is an instantiated guest bound to its store.
type Contract struct {
	Checksum types.Checksum

	inst *wazeroimpl.Instance
	env  *host.Environment
}

// Instance returns the engine-neutral view of the contract.
func (c *Contract) Instance() Instance {
	return c.inst
}

// Close releases the guest instance.
func (c *Contract) Close(ctx context.Context) error {
	c.env.EndCall()
	return c.inst.Close(ctx)
}

// Instantiate compiles code, checks that it exports exactly one memory and creates an
// instance whose host functions operate on store.
func (vm *VM) Instantiate(ctx context.Context, code []byte, store KVStore) (*Contract, error) {
	mod, err := vm.runtime.Compile(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := wasm.CheckMemoryExports(mod.ExportedMemories()); err != nil {
		return nil, err
	}
	logger := vm.logger.With().Str("contract", mod.Checksum().Short()).Logger()
	env := host.NewEnvironment(store, logger, vm.config.HostLimits)
	inst, err := vm.runtime.Instantiate(ctx, mod, env)
	if err != nil {
		return nil, err
	}
	logger.Debug().Msg("contract instantiated")
	return &Contract{Checksum: mod.Checksum(), inst: inst, env: env}, nil
}

// Execute calls the export name with gasLimit metering points and reports the gas used.
// Iterations opened by the call are forgotten before it returns.
func (vm *VM) Execute(ctx context.Context, c *Contract, name string, gasLimit uint64, args ...uint64) ([]uint64, types.GasReport, error) {
	results, report, err := Call(ctx, c.inst, name, gasLimit, args...)
	c.env.EndCall()
	vm.log(c.Checksum, name, report, err)
	return results, report, err
}

func (vm *VM) log(checksum types.Checksum, name string, report types.GasReport, err error) {
	switch {
	case errors.Is(err, types.ErrGasDepletion):
		vm.logger.Warn().Str("contract", checksum.Short()).Str("export", name).
			Uint64("gas_limit", report.Limit).Msg("contract ran out of gas")
	case err != nil:
		vm.logger.Info().Str("contract", checksum.Short()).Str("export", name).Err(err).Msg("contract call failed")
	default:
		vm.logger.Debug().Str("contract", checksum.Short()).Str("export", name).
			Uint64("gas_used", report.UsedInternally).Msg("contract call succeeded")
	}
}

// Call runs one metered call on any engine: it sets the budget, invokes the export and
// reads the remaining budget back. A depleted call is charged the whole limit.
func Call(ctx context.Context, inst Instance, name string, gasLimit uint64, args ...uint64) ([]uint64, types.GasReport, error) {
	inst.SetRemaining(gasLimit)
	results, err := inst.CallFunction(ctx, name, args...)
	if errors.Is(err, types.ErrExportNotFound) {
		return nil, types.EmptyGasReport(gasLimit), err
	}
	remaining := inst.GetRemaining()
	if errors.Is(err, types.ErrGasDepletion) {
		remaining = 0
	}
	return results, types.NewGasReport(gasLimit, remaining), err
}
