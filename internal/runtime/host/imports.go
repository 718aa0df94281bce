package host

import (
	"context"

	"github.com/tetratelabs/wazero/api"
)

// ModuleName is the import module of all host functions.
const ModuleName = "env"

// Function describes one host import in engine terms.
type Function struct {
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
	// Call receives the raw parameters and returns the raw results. An error traps the guest.
	Call func(ctx context.Context, params []uint64) ([]uint64, error)
}

var (
	i32 = api.ValueTypeI32
	i64 = api.ValueTypeI64
)

// Functions lists every import the host provides under ModuleName.
func Functions() []Function {
	return []Function{
		{
			Name:    "db_read",
			Params:  []api.ValueType{i32},
			Results: []api.ValueType{i32},
			Call: func(ctx context.Context, p []uint64) ([]uint64, error) {
				ptr, err := DbRead(ctx, api.DecodeU32(p[0]))
				return []uint64{api.EncodeU32(ptr)}, err
			},
		},
		{
			Name:   "db_write",
			Params: []api.ValueType{i32, i32},
			Call: func(ctx context.Context, p []uint64) ([]uint64, error) {
				return nil, DbWrite(ctx, api.DecodeU32(p[0]), api.DecodeU32(p[1]))
			},
		},
		{
			Name:   "db_remove",
			Params: []api.ValueType{i32},
			Call: func(ctx context.Context, p []uint64) ([]uint64, error) {
				return nil, DbRemove(ctx, api.DecodeU32(p[0]))
			},
		},
		{
			Name:    "db_scan",
			Params:  []api.ValueType{i32, i32, i32},
			Results: []api.ValueType{i32},
			Call: func(ctx context.Context, p []uint64) ([]uint64, error) {
				id, err := DbScan(ctx, api.DecodeU32(p[0]), api.DecodeU32(p[1]), api.DecodeI32(p[2]))
				return []uint64{api.EncodeU32(id)}, err
			},
		},
		{
			Name:    "db_next",
			Params:  []api.ValueType{i32},
			Results: []api.ValueType{i32},
			Call: func(ctx context.Context, p []uint64) ([]uint64, error) {
				ptr, err := DbNext(ctx, api.DecodeU32(p[0]))
				return []uint64{api.EncodeU32(ptr)}, err
			},
		},
		{
			Name:   "debug",
			Params: []api.ValueType{i32},
			Call: func(ctx context.Context, p []uint64) ([]uint64, error) {
				return nil, Debug(ctx, api.DecodeU32(p[0]))
			},
		},
		{
			Name:   "abort",
			Params: []api.ValueType{i32},
			Call: func(ctx context.Context, p []uint64) ([]uint64, error) {
				return nil, Abort(ctx, api.DecodeU32(p[0]))
			},
		},
		{
			Name:   "gas",
			Params: []api.ValueType{i64},
			Call: func(ctx context.Context, p []uint64) ([]uint64, error) {
				return nil, Gas(ctx, p[0])
			},
		},
	}
}
