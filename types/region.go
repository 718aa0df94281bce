package types

import (
	"encoding/binary"
	"fmt"
)

// RegionSize is the size of an encoded Region in guest memory (3x4 bytes, no padding).
const RegionSize = 12

// Region describes data allocated in the guest's linear memory.
// A pointer to an instance of this is what crosses the host/guest boundary.
//
// This is the same as `cosmwasm_std::memory::Region` on the contract side.
type Region struct {
	// Offset is the beginning of the region expressed as bytes from the beginning of the linear memory
	Offset uint32
	// Capacity is the number of bytes available in this region
	Capacity uint32
	// Length is the number of bytes used in this region
	Length uint32
}

func (r Region) String() string {
	return fmt.Sprintf("Region { offset: %d, capacity: %d, length: %d }", r.Offset, r.Capacity, r.Length)
}

// MarshalBinary encodes the region in the guest wire layout (little-endian u32s).
func (r Region) MarshalBinary() ([]byte, error) {
	return r.AppendBinary(make([]byte, 0, RegionSize))
}

// AppendBinary appends the wire encoding of r to b.
func (r Region) AppendBinary(b []byte) ([]byte, error) {
	b = binary.LittleEndian.AppendUint32(b, r.Offset)
	b = binary.LittleEndian.AppendUint32(b, r.Capacity)
	b = binary.LittleEndian.AppendUint32(b, r.Length)
	return b, nil
}

// UnmarshalBinary decodes a region from exactly RegionSize bytes.
func (r *Region) UnmarshalBinary(data []byte) error {
	if len(data) != RegionSize {
		return fmt.Errorf("region must be %d bytes, got %d", RegionSize, len(data))
	}
	r.Offset = binary.LittleEndian.Uint32(data[0:4])
	r.Capacity = binary.LittleEndian.Uint32(data[4:8])
	r.Length = binary.LittleEndian.Uint32(data[8:12])
	return nil
}
