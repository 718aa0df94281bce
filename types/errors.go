package types

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
)

// Codespace is the error codespace under which all regionvm errors are registered.
const Codespace = "regionvm"

// Registered error kinds. Every concrete error below unwraps to exactly one of them, so
// callers can branch with errors.Is and the orchestration layer gets stable ABCI codes.
var (
	ErrRegionValidation = errorsmod.Register(Codespace, 2, "region validation error")
	ErrCommunication    = errorsmod.Register(Codespace, 3, "error in guest/host communication")
	ErrGasDepletion     = errorsmod.Register(Codespace, 4, "ran out of gas during contract execution")
	ErrRuntime          = errorsmod.Register(Codespace, 5, "wasm runtime error")
	ErrExportNotFound   = errorsmod.Register(Codespace, 6, "export not found")
	ErrMemoryExport     = errorsmod.Register(Codespace, 7, "contract must export exactly one memory")
	ErrAborted          = errorsmod.Register(Codespace, 8, "contract aborted")
	ErrInvalidConfig    = errorsmod.Register(Codespace, 9, "invalid vm config")
)

var (
	_ error = ZeroOffsetError{}
	_ error = LengthExceedsCapacityError{}
	_ error = OutOfRangeError{}
	_ error = DerefError{}
	_ error = RegionTooBigError{}
	_ error = RegionTooSmallError{}
	_ error = GasDepletionError{}
	_ error = RuntimeError{}
	_ error = ExportNotFoundError{}
	_ error = MemoryExportError{}
	_ error = AbortError{}
)

//-----------------------------------------------------------------------------
// Region validation errors
//-----------------------------------------------------------------------------

// ZeroOffsetError is returned for a Region with offset 0, which is reserved as the
// "absent" sentinel.
type ZeroOffsetError struct{}

func (ZeroOffsetError) Error() string { return "region has zero offset" }
func (ZeroOffsetError) Unwrap() error { return ErrRegionValidation }

// LengthExceedsCapacityError is returned when a Region claims more used bytes than it has.
type LengthExceedsCapacityError struct {
	Length   uint32
	Capacity uint32
}

func (e LengthExceedsCapacityError) Error() string {
	return fmt.Sprintf("region length %d exceeds capacity %d", e.Length, e.Capacity)
}

func (LengthExceedsCapacityError) Unwrap() error { return ErrRegionValidation }

// OutOfRangeError is returned when offset+capacity does not fit the 32-bit address space.
type OutOfRangeError struct {
	Offset   uint32
	Capacity uint32
}

func (e OutOfRangeError) Error() string {
	return fmt.Sprintf("region out of range: offset %d, capacity %d", e.Offset, e.Capacity)
}

func (OutOfRangeError) Unwrap() error { return ErrRegionValidation }

//-----------------------------------------------------------------------------
// Communication errors
//-----------------------------------------------------------------------------

// DerefError means a guest pointer does not resolve to addressable memory.
type DerefError struct {
	Pointer uint32
	Msg     string
}

func (e DerefError) Error() string {
	return fmt.Sprintf("error dereferencing pointer %d: %s", e.Pointer, e.Msg)
}

func (DerefError) Unwrap() error { return ErrCommunication }

// RegionTooBigError is returned when a Region holds more data than the host is willing to read.
type RegionTooBigError struct {
	Actual int
	Max    int
}

func (e RegionTooBigError) Error() string {
	return fmt.Sprintf("region length too big: got %d, limit %d", e.Actual, e.Max)
}

func (RegionTooBigError) Unwrap() error { return ErrCommunication }

// RegionTooSmallError is returned when data does not fit the capacity of the target Region.
type RegionTooSmallError struct {
	Capacity  int
	Requested int
}

func (e RegionTooSmallError) Error() string {
	return fmt.Sprintf("region too small: got %d, required %d", e.Capacity, e.Requested)
}

func (RegionTooSmallError) Unwrap() error { return ErrCommunication }

//-----------------------------------------------------------------------------
// Execution errors
//-----------------------------------------------------------------------------

// GasDepletionError reports that the guest trapped with its metering budget exhausted.
// It is terminal and must never be retried.
type GasDepletionError struct{}

func (GasDepletionError) Error() string { return "ran out of gas during contract execution" }
func (GasDepletionError) Unwrap() error { return ErrGasDepletion }

// RuntimeError wraps any other trap together with the engine's diagnostics.
type RuntimeError struct {
	Msg string
	Err error
}

func (e RuntimeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("wasm runtime error: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("wasm runtime error: %s", e.Msg)
}

func (e RuntimeError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrRuntime}
	}
	return []error{ErrRuntime, e.Err}
}

// ExportNotFoundError is returned when the guest does not export the requested function.
type ExportNotFoundError struct {
	Name string
}

func (e ExportNotFoundError) Error() string {
	return fmt.Sprintf("missing export: %q", e.Name)
}

func (ExportNotFoundError) Unwrap() error { return ErrExportNotFound }

// MemoryExportError is returned when an instance does not export exactly one linear memory.
type MemoryExportError struct {
	Count int
}

func (e MemoryExportError) Error() string {
	return fmt.Sprintf("contract must export exactly one memory, found %d", e.Count)
}

func (MemoryExportError) Unwrap() error { return ErrMemoryExport }

// AbortError is raised when the guest calls the abort import.
type AbortError struct {
	Msg string
}

func (e AbortError) Error() string {
	return fmt.Sprintf("contract aborted: %s", e.Msg)
}

func (AbortError) Unwrap() error { return ErrAborted }
