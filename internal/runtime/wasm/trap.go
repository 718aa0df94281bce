package wasm

import (
	"fmt"

	"github.com/CosmWasm/regionvm/types"
)

// Gate exposes the remaining metering budget of an instance.
type Gate interface {
	GetRemaining() uint64
}

// ClassifyTrap turns the error of a trapped call into the reported error. It must be called
// right after the call returned: an exhausted budget means the engine stopped the guest,
// which is reported as GasDepletionError so billing can charge the full limit. Everything
// else is a RuntimeError carrying the engine diagnostics.
func ClassifyTrap(gate Gate, name string, trap error) error {
	if gate.GetRemaining() == 0 {
		return types.GasDepletionError{}
	}
	return types.RuntimeError{
		Msg: fmt.Sprintf("call to %q trapped", name),
		Err: trap,
	}
}
