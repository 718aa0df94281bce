package memory

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CosmWasm/regionvm/types"
)

func TestValidatePassesForValidRegion(t *testing.T) {
	valid := []struct {
		name   string
		region types.Region
	}{
		{"empty", types.Region{Offset: 23, Capacity: 500, Length: 0}},
		{"half full", types.Region{Offset: 23, Capacity: 500, Length: 250}},
		{"full", types.Region{Offset: 23, Capacity: 500, Length: 500}},
		{"zero capacity", types.Region{Offset: 23, Capacity: 0, Length: 0}},
		{"at end of linear memory (1)", types.Region{Offset: math.MaxUint32, Capacity: 0, Length: 0}},
		{"at end of linear memory (2)", types.Region{Offset: 1, Capacity: math.MaxUint32 - 1, Length: 0}},
	}
	for _, tc := range valid {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, Validate(tc.region))
		})
	}
}

func TestValidateFailsForZeroOffset(t *testing.T) {
	err := Validate(types.Region{Offset: 0, Capacity: 500, Length: 250})
	require.Equal(t, types.ZeroOffsetError{}, err)
}

func TestValidateFailsForLengthExceedingCapacity(t *testing.T) {
	err := Validate(types.Region{Offset: 23, Capacity: 500, Length: 501})
	require.Equal(t, types.LengthExceedsCapacityError{Length: 501, Capacity: 500}, err)
}

func TestValidateFailsWhenExceedingAddressSpace(t *testing.T) {
	err := Validate(types.Region{Offset: 23, Capacity: math.MaxUint32, Length: 501})
	require.Equal(t, types.OutOfRangeError{Offset: 23, Capacity: math.MaxUint32}, err)

	err = Validate(types.Region{Offset: math.MaxUint32, Capacity: 1, Length: 0})
	require.Equal(t, types.OutOfRangeError{Offset: math.MaxUint32, Capacity: 1}, err)
}

func TestValidateCheckOrder(t *testing.T) {
	// zero offset wins over everything else
	err := Validate(types.Region{Offset: 0, Capacity: 1, Length: 2})
	require.Equal(t, types.ZeroOffsetError{}, err)

	// length is checked before the address space
	err = Validate(types.Region{Offset: math.MaxUint32, Capacity: 1, Length: 2})
	require.Equal(t, types.LengthExceedsCapacityError{Length: 2, Capacity: 1}, err)
}

func TestValidateMatchesDefinition(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	interesting := []uint32{0, 1, 2, 23, 500, 501, math.MaxUint32 - 1, math.MaxUint32}
	pick := func() uint32 {
		if rng.Intn(2) == 0 {
			return interesting[rng.Intn(len(interesting))]
		}
		return rng.Uint32()
	}

	for i := 0; i < 10_000; i++ {
		region := types.Region{Offset: pick(), Capacity: pick(), Length: pick()}
		expectOK := region.Offset != 0 &&
			region.Length <= region.Capacity &&
			uint64(region.Offset)+uint64(region.Capacity) <= math.MaxUint32
		require.Equal(t, expectOK, Validate(region) == nil, "region %s", region)
	}
}
