// Package types provides core types used throughout the regionvm package.
package types

// Gas represents the amount of computational resources consumed during execution.
type Gas = uint64

// GasReport summarizes metering for one contract call. It is what billing reads back after
// the guest returned or trapped.
type GasReport struct {
	Limit          Gas
	Remaining      Gas
	UsedInternally Gas
}

// NewGasReport builds a report from the budget set before the call and what is left after it.
func NewGasReport(limit, remaining Gas) GasReport {
	used := Gas(0)
	if limit > remaining {
		used = limit - remaining
	}
	return GasReport{
		Limit:          limit,
		Remaining:      remaining,
		UsedInternally: used,
	}
}

// EmptyGasReport is the report of a call that consumed nothing.
func EmptyGasReport(limit Gas) GasReport {
	return GasReport{
		Limit:          limit,
		Remaining:      limit,
		UsedInternally: 0,
	}
}
