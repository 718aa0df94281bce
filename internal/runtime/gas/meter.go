// Package gas implements the metering gate of a guest instance: the remaining points the
// engine charges guest instructions and host calls against.
package gas

import (
	"errors"
	"fmt"
)

// ErrOutOfGas is returned by Consume when the budget cannot cover a charge.
var ErrOutOfGas = errors.New("out of gas")

// Meter tracks the remaining metering points of one guest instance.
// It is owned by a single call at a time and needs no locking.
type Meter struct {
	remaining uint64
}

// NewMeter creates a meter with the given budget.
func NewMeter(limit uint64) *Meter {
	return &Meter{remaining: limit}
}

// GetRemaining returns the points left. It is exactly 0 once the budget is exhausted.
func (m *Meter) GetRemaining() uint64 {
	return m.remaining
}

// SetRemaining resets the budget, typically before invoking guest code.
func (m *Meter) SetRemaining(points uint64) {
	m.remaining = points
}

// Exhausted reports whether the budget reached zero.
func (m *Meter) Exhausted() bool {
	return m.remaining == 0
}

// Consume charges points. A charge larger than the remaining budget clamps the
// budget to zero and fails, so an interrupted call always reads back as exhausted.
func (m *Meter) Consume(points uint64) error {
	if points > m.remaining {
		m.remaining = 0
		return ErrOutOfGas
	}
	m.remaining -= points
	return nil
}

// ConsumeFor is Consume with a description of what is being paid for.
func (m *Meter) ConsumeFor(points uint64, descriptor string) error {
	if err := m.Consume(points); err != nil {
		return fmt.Errorf("%w: %s", err, descriptor)
	}
	return nil
}
