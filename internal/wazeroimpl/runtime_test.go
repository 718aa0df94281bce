package wazeroimpl

import (
	"context"
	"fmt"
	"testing"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero/api"

	"github.com/CosmWasm/regionvm/internal/runtime/host"
	"github.com/CosmWasm/regionvm/internal/runtime/wasm"
	"github.com/CosmWasm/regionvm/types"
)

var wasmHeader = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func module(sections ...[]byte) []byte {
	out := append([]byte{}, wasmHeader...)
	for _, s := range sections {
		out = append(out, s...)
	}
	return out
}

// meteredWasm imports env.gas and exports one memory plus:
//
//	loop()            charges 1 point per iteration, forever
//	add(i32,i32) i32  charges 1 point
//	trap()            hits unreachable without charging
//	grow(i32) i32     memory.grow
var meteredWasm = module(
	[]byte{0x01, 0x13, 0x04, 0x60, 0x01, 0x7e, 0x00, 0x60, 0x00, 0x00, 0x60, 0x02, 0x7f, 0x7f, 0x01, 0x7f, 0x60, 0x01, 0x7f, 0x01, 0x7f},
	[]byte{0x02, 0x0b, 0x01, 0x03, 0x65, 0x6e, 0x76, 0x03, 0x67, 0x61, 0x73, 0x00, 0x00},
	[]byte{0x03, 0x05, 0x04, 0x01, 0x02, 0x01, 0x03},
	[]byte{0x05, 0x03, 0x01, 0x00, 0x01},
	[]byte{
		0x07, 0x25, 0x05,
		0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, 0x02, 0x00,
		0x04, 0x6c, 0x6f, 0x6f, 0x70, 0x00, 0x01,
		0x03, 0x61, 0x64, 0x64, 0x00, 0x02,
		0x04, 0x74, 0x72, 0x61, 0x70, 0x00, 0x03,
		0x04, 0x67, 0x72, 0x6f, 0x77, 0x00, 0x04,
	},
	[]byte{
		0x0a, 0x24, 0x04,
		0x0b, 0x00, 0x03, 0x40, 0x42, 0x01, 0x10, 0x00, 0x0c, 0x00, 0x0b, 0x0b,
		0x0b, 0x00, 0x42, 0x01, 0x10, 0x00, 0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b,
		0x03, 0x00, 0x00, 0x0b,
		0x06, 0x00, 0x20, 0x00, 0x40, 0x00, 0x0b,
	},
)

// storageWasm imports env.db_write and env.abort and exports one memory plus:
//
//	store(key_ptr, value_ptr)  calls db_write
//	fail(msg_ptr)              calls abort
var storageWasm = module(
	[]byte{0x01, 0x0a, 0x02, 0x60, 0x02, 0x7f, 0x7f, 0x00, 0x60, 0x01, 0x7f, 0x00},
	[]byte{
		0x02, 0x1c, 0x02,
		0x03, 0x65, 0x6e, 0x76, 0x08, 0x64, 0x62, 0x5f, 0x77, 0x72, 0x69, 0x74, 0x65, 0x00, 0x00,
		0x03, 0x65, 0x6e, 0x76, 0x05, 0x61, 0x62, 0x6f, 0x72, 0x74, 0x00, 0x01,
	},
	[]byte{0x03, 0x03, 0x02, 0x00, 0x01},
	[]byte{0x05, 0x03, 0x01, 0x00, 0x01},
	[]byte{
		0x07, 0x19, 0x03,
		0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, 0x02, 0x00,
		0x05, 0x73, 0x74, 0x6f, 0x72, 0x65, 0x00, 0x02,
		0x04, 0x66, 0x61, 0x69, 0x6c, 0x00, 0x03,
	},
	[]byte{
		0x0a, 0x11, 0x02,
		0x08, 0x00, 0x20, 0x00, 0x20, 0x01, 0x10, 0x00, 0x0b,
		0x06, 0x00, 0x20, 0x00, 0x10, 0x01, 0x0b,
	},
)

// iterWasm imports env.db_scan, env.db_next, env.db_write and env.db_remove and exports one
// memory plus a bump allocate(size) starting at 1024 and one thin wrapper per import:
//
//	scan(start_ptr, end_ptr, order) i32
//	next(iterator_id) i32
//	write(key_ptr, value_ptr)
//	remove(key_ptr)
var iterWasm = module(
	[]byte{0x01, 0x16, 0x04, 0x60, 0x03, 0x7f, 0x7f, 0x7f, 0x01, 0x7f, 0x60, 0x01, 0x7f, 0x01, 0x7f, 0x60, 0x02, 0x7f, 0x7f, 0x00, 0x60, 0x01, 0x7f, 0x00},
	[]byte{0x02, 0x3c, 0x04, 0x03, 0x65, 0x6e, 0x76, 0x07, 0x64, 0x62, 0x5f, 0x73, 0x63, 0x61, 0x6e, 0x00, 0x00, 0x03, 0x65, 0x6e, 0x76, 0x07, 0x64, 0x62, 0x5f, 0x6e, 0x65, 0x78, 0x74, 0x00, 0x01, 0x03, 0x65, 0x6e, 0x76, 0x08, 0x64, 0x62, 0x5f, 0x77, 0x72, 0x69, 0x74, 0x65, 0x00, 0x02, 0x03, 0x65, 0x6e, 0x76, 0x09, 0x64, 0x62, 0x5f, 0x72, 0x65, 0x6d, 0x6f, 0x76, 0x65, 0x00, 0x03},
	[]byte{0x03, 0x06, 0x05, 0x01, 0x00, 0x01, 0x02, 0x03},
	[]byte{0x05, 0x03, 0x01, 0x00, 0x01},
	[]byte{0x06, 0x07, 0x01, 0x7f, 0x01, 0x41, 0x80, 0x08, 0x0b},
	[]byte{0x07, 0x34, 0x06, 0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79, 0x02, 0x00, 0x08, 0x61, 0x6c, 0x6c, 0x6f, 0x63, 0x61, 0x74, 0x65, 0x00, 0x04, 0x04, 0x73, 0x63, 0x61, 0x6e, 0x00, 0x05, 0x04, 0x6e, 0x65, 0x78, 0x74, 0x00, 0x06, 0x05, 0x77, 0x72, 0x69, 0x74, 0x65, 0x00, 0x07, 0x06, 0x72, 0x65, 0x6d, 0x6f, 0x76, 0x65, 0x00, 0x08},
	[]byte{0x0a, 0x4a, 0x05, 0x26, 0x00, 0x23, 0x00, 0x23, 0x00, 0x41, 0x0c, 0x6a, 0x36, 0x02, 0x00, 0x23, 0x00, 0x20, 0x00, 0x36, 0x02, 0x04, 0x23, 0x00, 0x41, 0x00, 0x36, 0x02, 0x08, 0x23, 0x00, 0x23, 0x00, 0x41, 0x0c, 0x6a, 0x20, 0x00, 0x6a, 0x24, 0x00, 0x0b, 0x0a, 0x00, 0x20, 0x00, 0x20, 0x01, 0x20, 0x02, 0x10, 0x00, 0x0b, 0x06, 0x00, 0x20, 0x00, 0x10, 0x01, 0x0b, 0x08, 0x00, 0x20, 0x00, 0x20, 0x01, 0x10, 0x02, 0x0b, 0x06, 0x00, 0x20, 0x00, 0x10, 0x03, 0x0b},
)

// noMemoryWasm exports a single function noop() and no memory.
var noMemoryWasm = module(
	[]byte{0x01, 0x04, 0x01, 0x60, 0x00, 0x00},
	[]byte{0x03, 0x02, 0x01, 0x00},
	[]byte{0x07, 0x08, 0x01, 0x04, 0x6e, 0x6f, 0x6f, 0x70, 0x00, 0x00},
	[]byte{0x0a, 0x04, 0x01, 0x02, 0x00, 0x0b},
)

func newTestRuntime(t *testing.T, engine string) *Runtime {
	t.Helper()
	config := types.DefaultVMConfig()
	config.Engine = engine
	r, err := NewRuntime(context.Background(), config, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close(context.Background()) })
	return r
}

func instantiate(t *testing.T, r *Runtime, code []byte, env *host.Environment) *Instance {
	t.Helper()
	ctx := context.Background()
	mod, err := r.Compile(ctx, code)
	require.NoError(t, err)
	inst, err := r.Instantiate(ctx, mod, env)
	require.NoError(t, err)
	return inst
}

func TestCallFunctionClassification(t *testing.T) {
	for _, engine := range []string{types.EngineInterpreter, types.EngineCompiler} {
		t.Run(engine, func(t *testing.T) {
			ctx := context.Background()
			inst := instantiate(t, newTestRuntime(t, engine), meteredWasm, nil)

			inst.SetRemaining(10)
			res, err := inst.CallFunction(ctx, "add", 2, 3)
			require.NoError(t, err)
			assert.Equal(t, []uint64{5}, res)
			assert.Equal(t, uint64(9), inst.GetRemaining())

			_, err = inst.CallFunction(ctx, "trap")
			require.ErrorIs(t, err, types.ErrRuntime)
			assert.Contains(t, err.Error(), "unreachable")
			assert.Equal(t, uint64(9), inst.GetRemaining())

			inst.SetRemaining(1000)
			_, err = inst.CallFunction(ctx, "loop")
			require.Equal(t, types.GasDepletionError{}, err)
			assert.Zero(t, inst.GetRemaining())

			// the instance stays usable once a new budget is set
			inst.SetRemaining(1)
			res, err = inst.CallFunction(ctx, "add", 40, 2)
			require.NoError(t, err)
			assert.Equal(t, []uint64{42}, res)

			_, err = inst.CallFunction(ctx, "execute")
			require.Equal(t, types.ExportNotFoundError{Name: "execute"}, err)
		})
	}
}

func TestTrapWithEmptyBudgetIsDepletion(t *testing.T) {
	inst := instantiate(t, newTestRuntime(t, types.EngineInterpreter), meteredWasm, nil)
	inst.SetRemaining(0)
	_, err := inst.CallFunction(context.Background(), "trap")
	require.ErrorIs(t, err, types.ErrGasDepletion)
}

func TestModuleInfo(t *testing.T) {
	r := newTestRuntime(t, types.EngineInterpreter)
	ctx := context.Background()
	mod, err := r.Compile(ctx, meteredWasm)
	require.NoError(t, err)

	assert.Equal(t, []string{"add", "grow", "loop", "trap"}, mod.ExportedFunctions())
	assert.Equal(t, []wasm.Import{{Module: "env", Name: "gas"}}, mod.ImportedFunctions())
	assert.Equal(t, []string{"memory"}, mod.ExportedMemories())
	assert.Equal(t, types.ComputeChecksum(meteredWasm), mod.Checksum())

	again, err := r.Compile(ctx, meteredWasm)
	require.NoError(t, err)
	assert.Same(t, mod, again)

	_, err = r.Compile(ctx, []byte("not wasm"))
	require.Error(t, err)
}

func TestMemoryGrowAndRegions(t *testing.T) {
	ctx := context.Background()
	inst := instantiate(t, newTestRuntime(t, types.EngineInterpreter), meteredWasm, nil)
	mem, err := inst.Memory()
	require.NoError(t, err)
	require.Equal(t, uint32(1), mem.Pages())

	ptr := uint32(types.WasmPageSize + 8)
	err = mem.SetRegion(ptr, types.Region{Offset: ptr + types.RegionSize, Capacity: 5})
	var deref types.DerefError
	require.ErrorAs(t, err, &deref)

	res, err := inst.CallFunction(ctx, "grow", 1)
	require.NoError(t, err)
	assert.Equal(t, int32(1), api.DecodeI32(res[0]))
	assert.Equal(t, uint32(2), mem.Pages())

	// same accessor, re-resolved against the grown memory
	require.NoError(t, mem.SetRegion(ptr, types.Region{Offset: ptr + types.RegionSize, Capacity: 5}))
	require.NoError(t, mem.WriteRegion(ptr, []byte("hello")))
	data, err := mem.ReadRegion(ptr, 5)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	// beyond the configured memory limit
	res, err = inst.CallFunction(ctx, "grow", uint64(types.MaxWasmPages))
	require.NoError(t, err)
	assert.Equal(t, int32(-1), api.DecodeI32(res[0]))
}

func TestMemoryExportCheck(t *testing.T) {
	inst := instantiate(t, newTestRuntime(t, types.EngineInterpreter), noMemoryWasm, nil)
	_, err := inst.Memory()
	require.Equal(t, types.MemoryExportError{Count: 0}, err)
}

func TestInstancesAreIndependent(t *testing.T) {
	r := newTestRuntime(t, types.EngineInterpreter)
	a := instantiate(t, r, meteredWasm, nil)
	b := instantiate(t, r, meteredWasm, nil)

	a.SetRemaining(5)
	b.SetRemaining(7)
	_, err := a.CallFunction(context.Background(), "add", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), a.GetRemaining())
	assert.Equal(t, uint64(7), b.GetRemaining())
	require.NoError(t, b.Close(context.Background()))
}

func putRegion(t *testing.T, inst *Instance, ptr uint32, data []byte) {
	t.Helper()
	mem, err := inst.Memory()
	require.NoError(t, err)
	require.NoError(t, mem.SetRegion(ptr, types.Region{Offset: ptr + 64, Capacity: uint32(len(data))}))
	require.NoError(t, mem.WriteRegion(ptr, data))
}

func TestHostFunctions(t *testing.T) {
	ctx := context.Background()
	store := dbm.NewMemDB()
	env := host.NewEnvironment(store, zerolog.Nop(), types.DefaultVMConfig().HostLimits)
	inst := instantiate(t, newTestRuntime(t, types.EngineInterpreter), storageWasm, env)
	require.Same(t, inst, env.Instance())

	putRegion(t, inst, 8, []byte("foo"))
	putRegion(t, inst, 200, []byte("bar"))
	putRegion(t, inst, 400, []byte("giving up"))

	inst.SetRemaining(1000)
	_, err := inst.CallFunction(ctx, "store", 8, 200)
	require.NoError(t, err)
	value, err := store.Get([]byte("foo"))
	require.NoError(t, err)
	assert.Equal(t, []byte("bar"), value)
	assert.Equal(t, uint64(1000-200-6), inst.GetRemaining())

	// invalid region pointer traps with the typed cause
	_, err = inst.CallFunction(ctx, "store", 0, 200)
	require.ErrorIs(t, err, types.ErrRuntime)
	require.ErrorIs(t, err, types.ErrRegionValidation)

	_, err = inst.CallFunction(ctx, "fail", 400)
	var abort types.AbortError
	require.ErrorAs(t, err, &abort)
	assert.Equal(t, "giving up", abort.Msg)

	// host charges count against the same budget
	inst.SetRemaining(100)
	_, err = inst.CallFunction(ctx, "store", 8, 200)
	require.Equal(t, types.GasDepletionError{}, err)
	assert.Zero(t, inst.GetRemaining())
}

func nextEntry(t *testing.T, inst *Instance, id uint64) string {
	t.Helper()
	inst.SetRemaining(1_000_000)
	res, err := inst.CallFunction(context.Background(), "next", id)
	require.NoError(t, err)
	mem, err := inst.Memory()
	require.NoError(t, err)
	data, err := mem.ReadRegion(uint32(res[0]), 1<<10)
	require.NoError(t, err)
	sections, err := host.DecodeSections(data)
	require.NoError(t, err)
	require.Len(t, sections, 2)
	return string(sections[0])
}

func TestScanWhileWriting(t *testing.T) {
	for _, engine := range []string{types.EngineInterpreter, types.EngineCompiler} {
		t.Run(engine, func(t *testing.T) {
			ctx := context.Background()
			store := dbm.NewMemDB()
			var keys []string
			for i := 0; i < 150; i++ {
				keys = append(keys, fmt.Sprintf("k%03d", i))
				require.NoError(t, store.Set([]byte(keys[i]), []byte("v")))
			}
			env := host.NewEnvironment(store, zerolog.Nop(), types.DefaultVMConfig().HostLimits)
			inst := instantiate(t, newTestRuntime(t, engine), iterWasm, env)
			putRegion(t, inst, 8, []byte("k0005"))
			putRegion(t, inst, 200, []byte("new"))
			putRegion(t, inst, 400, []byte("k002"))

			inst.SetRemaining(1_000_000)
			res, err := inst.CallFunction(ctx, "scan", 0, 0, 1)
			require.NoError(t, err)
			id := res[0]
			got := []string{nextEntry(t, inst, id)}

			// the store must stay writable while the scan is open
			inst.SetRemaining(1_000_000)
			_, err = inst.CallFunction(ctx, "write", 8, 200)
			require.NoError(t, err)
			_, err = inst.CallFunction(ctx, "remove", 400)
			require.NoError(t, err)

			for {
				key := nextEntry(t, inst, id)
				if key == "" {
					break
				}
				got = append(got, key)
			}
			exp := append([]string{keys[0], "k0005", keys[1]}, keys[3:]...)
			assert.Equal(t, exp, got)
			value, err := store.Get([]byte("k0005"))
			require.NoError(t, err)
			assert.Equal(t, []byte("new"), value)
			env.EndCall()
		})
	}
}
