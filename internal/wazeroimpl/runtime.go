// Package wazeroimpl adapts the wazero engine to the engine-neutral instance capability set.
package wazeroimpl

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/CosmWasm/regionvm/internal/runtime/host"
	"github.com/CosmWasm/regionvm/types"
)

// Runtime manages a wazero runtime, the shared host module and compiled modules.
type Runtime struct {
	runtime wazero.Runtime
	logger  zerolog.Logger

	mu      sync.Mutex
	modules map[types.Checksum]*Module
}

// NewRuntime creates a wazero runtime honouring the memory limit and engine choice of
// config, and instantiates the host module every guest links against.
func NewRuntime(ctx context.Context, config types.VMConfig, logger zerolog.Logger) (*Runtime, error) {
	var rc wazero.RuntimeConfig
	switch config.Engine {
	case types.EngineInterpreter:
		rc = wazero.NewRuntimeConfigInterpreter()
	default:
		// compiler where the platform supports it
		rc = wazero.NewRuntimeConfig()
	}
	// execution is bounded by metering only, never by the context
	rc = rc.WithMemoryLimitPages(config.InstanceMemoryLimit.Pages()).WithCloseOnContextDone(false)

	r := &Runtime{
		runtime: wazero.NewRuntimeWithConfig(ctx, rc),
		logger:  logger,
		modules: make(map[types.Checksum]*Module),
	}
	if err := r.registerHost(ctx); err != nil {
		_ = r.runtime.Close(ctx)
		return nil, fmt.Errorf("could not instantiate host module: %w", err)
	}
	logger.Info().
		Str("engine", config.Engine).
		Uint32("memory_limit_pages", config.InstanceMemoryLimit.Pages()).
		Msg("wazero runtime initialized")
	return r, nil
}

// registerHost builds the env module. Host functions trap the guest by panicking with
// their error, which wazero turns into the error returned from the guest call.
func (r *Runtime) registerHost(ctx context.Context) error {
	builder := r.runtime.NewHostModuleBuilder(host.ModuleName)
	for _, fn := range host.Functions() {
		builder.NewFunctionBuilder().
			WithGoModuleFunction(r.hostCall(fn), fn.Params, fn.Results).
			WithName(fn.Name).
			Export(fn.Name)
	}
	_, err := builder.Instantiate(ctx)
	return err
}

// hostCall adapts fn to the wazero stack convention and traces every call at trace level.
func (r *Runtime) hostCall(fn host.Function) api.GoModuleFunc {
	numParams := len(fn.Params)
	return func(ctx context.Context, _ api.Module, stack []uint64) {
		start := time.Now()
		params := append([]uint64(nil), stack[:numParams]...)
		results, err := fn.Call(ctx, params)
		r.logger.Trace().
			Str("import", fn.Name).
			Interface("params", params).
			Interface("results", results).
			Dur("took", time.Since(start)).
			AnErr("error", err).
			Msg("host call")
		if err != nil {
			panic(err)
		}
		copy(stack, results)
	}
}

// Compile validates and compiles code. Compiling the same code twice returns the cached module.
func (r *Runtime) Compile(ctx context.Context, code []byte) (*Module, error) {
	checksum := types.ComputeChecksum(code)

	r.mu.Lock()
	defer r.mu.Unlock()
	if mod, ok := r.modules[checksum]; ok {
		return mod, nil
	}
	compiled, err := r.runtime.CompileModule(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("compiling module: %w", err)
	}
	mod := newModule(checksum, compiled)
	r.modules[checksum] = mod
	r.logger.Debug().Stringer("checksum", checksum).Int("size", len(code)).Msg("module compiled")
	return mod, nil
}

// Instantiate creates an instance of mod bound to env. Every instance is anonymous so the
// same module can be instantiated any number of times. The instance starts with an empty
// budget.
func (r *Runtime) Instantiate(ctx context.Context, mod *Module, env *host.Environment) (*Instance, error) {
	inst := newInstance(mod, env)
	cfg := wazero.NewModuleConfig().WithName("").WithStartFunctions()
	guest, err := r.runtime.InstantiateModule(inst.callContext(ctx), mod.compiled, cfg)
	if err != nil {
		return nil, fmt.Errorf("instantiating module %s: %w", mod.Checksum(), err)
	}
	inst.guest = guest
	if env != nil {
		env.SetInstance(inst)
	}
	return inst, nil
}

// Close releases the runtime together with every module and instance created from it.
func (r *Runtime) Close(ctx context.Context) error {
	r.mu.Lock()
	r.modules = make(map[types.Checksum]*Module)
	r.mu.Unlock()
	return r.runtime.Close(ctx)
}
