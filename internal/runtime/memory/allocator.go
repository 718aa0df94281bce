package memory

import (
	"context"
	"fmt"
	"math"
)

// Names of the guest exports used to manage Regions.
const (
	AllocateExport   = "allocate"
	DeallocateExport = "deallocate"
)

// Caller invokes an exported guest function.
type Caller interface {
	CallFunction(ctx context.Context, name string, args ...uint64) ([]uint64, error)
}

// Allocator asks the guest to allocate Regions so the host can hand back data whose size is
// only known at call time.
type Allocator struct {
	caller Caller
	mem    *Accessor
}

// NewAllocator creates an allocator that calls into the guest through caller and fills
// Regions through mem.
func NewAllocator(caller Caller, mem *Accessor) *Allocator {
	return &Allocator{
		caller: caller,
		mem:    mem,
	}
}

// Allocate calls the guest's allocate export and returns a pointer to a Region with at least
// the given capacity.
func (a *Allocator) Allocate(ctx context.Context, size uint32) (uint32, error) {
	results, err := a.caller.CallFunction(ctx, AllocateExport, uint64(size))
	if err != nil {
		return 0, err
	}
	if len(results) != 1 {
		return 0, fmt.Errorf("expected 1 result from %q, got %d", AllocateExport, len(results))
	}
	return uint32(results[0]), nil
}

// Deallocate returns a Region obtained from Allocate to the guest.
func (a *Allocator) Deallocate(ctx context.Context, ptr uint32) error {
	_, err := a.caller.CallFunction(ctx, DeallocateExport, uint64(ptr))
	return err
}

// Write allocates a Region exactly large enough for data, copies data into it and returns
// the Region pointer. Ownership of the Region passes to the guest.
func (a *Allocator) Write(ctx context.Context, data []byte) (uint32, error) {
	if uint64(len(data)) > math.MaxUint32 {
		return 0, fmt.Errorf("cannot allocate %d bytes in a 32-bit address space", len(data))
	}
	ptr, err := a.Allocate(ctx, uint32(len(data)))
	if err != nil {
		return 0, err
	}
	if err := a.mem.WriteRegion(ptr, data); err != nil {
		return 0, err
	}
	return ptr, nil
}
