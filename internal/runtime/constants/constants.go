// Package constants holds the fixed costs and limits host functions apply to guest calls.
package constants

// Gas costs charged by host functions, in metering points.
const (
	// GasPerByte is charged for every byte moved across the boundary by a host function
	GasPerByte uint64 = 1

	// Database operations
	GasCostRead   uint64 = 100
	GasCostWrite  uint64 = 200
	GasCostRemove uint64 = 100

	// Iterator operations
	GasCostIteratorCreate uint64 = 10000 // Base cost for creating an iterator
	GasCostIteratorNext   uint64 = 1000  // Base cost for iterator next operations

	// GasCostDebug is charged for every debug call, on top of the per-byte cost
	GasCostDebug uint64 = 10
)

// Order values accepted by db_scan.
const (
	OrderAscending  int32 = 1
	OrderDescending int32 = 2
)
