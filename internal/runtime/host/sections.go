package host

import (
	"encoding/binary"
	"slices"

	errorsmod "cosmossdk.io/errors"

	"github.com/CosmWasm/regionvm/types"
)

// EncodeSections concatenates each section followed by its length as a 4 byte big-endian
// integer. The trailing lengths let the guest decode from the back without a header.
func EncodeSections(sections ...[]byte) []byte {
	size := 0
	for _, s := range sections {
		size += len(s) + 4
	}
	out := make([]byte, 0, size)
	for _, s := range sections {
		out = append(out, s...)
		out = binary.BigEndian.AppendUint32(out, uint32(len(s)))
	}
	return out
}

// DecodeSections is the inverse of EncodeSections.
func DecodeSections(data []byte) ([][]byte, error) {
	var sections [][]byte
	rest := data
	for len(rest) > 0 {
		if len(rest) < 4 {
			return nil, errorsmod.Wrapf(types.ErrCommunication, "truncated section length, %d bytes left", len(rest))
		}
		n := int(binary.BigEndian.Uint32(rest[len(rest)-4:]))
		rest = rest[:len(rest)-4]
		if n > len(rest) {
			return nil, errorsmod.Wrapf(types.ErrCommunication, "section of %d bytes exceeds remaining %d", n, len(rest))
		}
		sections = append(sections, rest[len(rest)-n:])
		rest = rest[:len(rest)-n]
	}
	slices.Reverse(sections)
	return sections, nil
}
