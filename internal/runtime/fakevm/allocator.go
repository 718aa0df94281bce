package fakevm

import (
	"context"
	"errors"

	"github.com/CosmWasm/regionvm/internal/runtime/memory"
	"github.com/CosmWasm/regionvm/types"
)

var errOutOfMemory = errors.New("bump allocator out of memory")

// WithBumpAllocator exports allocate/deallocate the way a contract's standard library does:
// every allocation writes a Region struct followed by its data, starting at start. Memory
// grows on demand. Deallocation is a no-op.
func WithBumpAllocator(start uint32) Option {
	next := uint64(start)
	allocate := func(_ context.Context, inst *Instance, args []uint64) ([]uint64, error) {
		arena := inst.Arena()
		if arena == nil || len(args) != 1 {
			return nil, errors.New("allocate: bad call")
		}
		capacity := uint64(uint32(args[0]))
		ptr := next
		end := ptr + types.RegionSize + capacity
		for end > uint64(arena.Size()) {
			if _, ok := arena.Grow(1); !ok {
				return nil, errOutOfMemory
			}
		}
		region := types.Region{Offset: uint32(ptr) + types.RegionSize, Capacity: uint32(capacity)}
		if err := memory.NewAccessor(arena).SetRegion(uint32(ptr), region); err != nil {
			return nil, err
		}
		next = end
		return []uint64{ptr}, nil
	}
	deallocate := func(context.Context, *Instance, []uint64) ([]uint64, error) {
		return nil, nil
	}
	return func(i *Instance) {
		i.Export(memory.AllocateExport, allocate)
		i.Export(memory.DeallocateExport, deallocate)
	}
}
