package memory

import (
	"fmt"

	"github.com/CosmWasm/regionvm/types"
)

// Memory is guest linear memory as the host sees it: offset-based, bounds-checked access
// only, never raw addresses. wazero's api.Memory satisfies it.
type Memory interface {
	// Size returns the current size in bytes.
	Size() uint32
	// Read returns a view of byteCount bytes at offset, or false if out of range.
	// The view is only valid until the memory grows.
	Read(offset, byteCount uint32) ([]byte, bool)
	// Write copies v to offset, or returns false if out of range.
	Write(offset uint32, v []byte) bool
}

// Accessor moves bytes between host and guest through Regions. Every call re-resolves the
// Region from guest memory, since the guest may rewrite it or grow memory between calls.
type Accessor struct {
	mem Memory
}

// NewAccessor wraps a guest memory.
func NewAccessor(mem Memory) *Accessor {
	return &Accessor{mem: mem}
}

// Size returns the current memory size in bytes.
func (a *Accessor) Size() uint32 {
	return a.mem.Size()
}

// Pages returns the current memory size in wasm pages.
func (a *Accessor) Pages() uint32 {
	return a.mem.Size() / types.WasmPageSize
}

// GetRegion reads and validates the Region struct located at ptr.
// The returned value is a copy; it does not alias guest memory.
func (a *Accessor) GetRegion(ptr uint32) (types.Region, error) {
	raw, ok := a.mem.Read(ptr, types.RegionSize)
	if !ok {
		return types.Region{}, types.DerefError{Pointer: ptr, Msg: "Could not dereference this pointer to a Region"}
	}
	var region types.Region
	if err := region.UnmarshalBinary(raw); err != nil {
		return types.Region{}, types.DerefError{Pointer: ptr, Msg: err.Error()}
	}
	if err := Validate(region); err != nil {
		return types.Region{}, err
	}
	return region, nil
}

// SetRegion overwrites the Region struct located at ptr.
func (a *Accessor) SetRegion(ptr uint32, region types.Region) error {
	bz, err := region.MarshalBinary()
	if err != nil {
		return err
	}
	if !a.mem.Write(ptr, bz) {
		return types.DerefError{Pointer: ptr, Msg: "Could not dereference this pointer to a Region"}
	}
	return nil
}

// ReadRegion reads the data the Region at ptr points to into a new host-owned buffer.
// maxLength bounds the allocation a guest can make the host perform.
func (a *Accessor) ReadRegion(ptr uint32, maxLength int) ([]byte, error) {
	region, err := a.GetRegion(ptr)
	if err != nil {
		return nil, err
	}
	if int64(region.Length) > int64(maxLength) {
		return nil, types.RegionTooBigError{Actual: int(region.Length), Max: maxLength}
	}

	view, ok := a.mem.Read(region.Offset, region.Length)
	if !ok {
		return nil, a.regionDerefError(region)
	}
	result := make([]byte, len(view))
	copy(result, view)
	return result, nil
}

// MaybeReadRegion is like ReadRegion but treats the null pointer as an absent optional
// argument, returning ok == false.
func (a *Accessor) MaybeReadRegion(ptr uint32, maxLength int) (data []byte, ok bool, err error) {
	if ptr == 0 {
		return nil, false, nil
	}
	data, err = a.ReadRegion(ptr, maxLength)
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// WriteRegion copies data into the Region at ptr and updates its length to len(data).
func (a *Accessor) WriteRegion(ptr uint32, data []byte) error {
	region, err := a.GetRegion(ptr)
	if err != nil {
		return err
	}
	if uint64(len(data)) > uint64(region.Capacity) {
		return types.RegionTooSmallError{Capacity: int(region.Capacity), Requested: len(data)}
	}

	// the whole capacity must be addressable, not only the bytes we write
	if _, ok := a.mem.Read(region.Offset, region.Capacity); !ok {
		return a.regionDerefError(region)
	}
	if !a.mem.Write(region.Offset, data) {
		return a.regionDerefError(region)
	}

	region.Length = uint32(len(data))
	return a.SetRegion(ptr, region)
}

func (a *Accessor) regionDerefError(region types.Region) error {
	return types.DerefError{
		Pointer: region.Offset,
		Msg: fmt.Sprintf("Tried to access memory of region %s in wasm memory of size %d bytes. "+
			"This typically happens when the given Region pointer does not point to a proper Region struct.",
			region, a.mem.Size()),
	}
}
