package memory

import (
	"math"

	"github.com/CosmWasm/regionvm/types"
)

// Validate performs plausibility checks on the given Region. Regions are always created by
// the contract, so this detects problems in the contract's standard library as well as
// deliberately malformed descriptors. It never touches memory.
func Validate(region types.Region) error {
	if region.Offset == 0 {
		return types.ZeroOffsetError{}
	}
	if region.Length > region.Capacity {
		return types.LengthExceedsCapacityError{Length: region.Length, Capacity: region.Capacity}
	}
	if region.Capacity > math.MaxUint32-region.Offset {
		return types.OutOfRangeError{Offset: region.Offset, Capacity: region.Capacity}
	}
	return nil
}
