package gas

import (
	"context"
	"fmt"
)

// meterKey is a private type for the context key to avoid collisions
type meterKey struct{}

// WithMeter attaches the meter to the context so host callbacks can charge it.
func WithMeter(ctx context.Context, m *Meter) context.Context {
	return context.WithValue(ctx, meterKey{}, m)
}

// FromContext retrieves the meter from context.
func FromContext(ctx context.Context) (*Meter, bool) {
	m, ok := ctx.Value(meterKey{}).(*Meter)
	return m, ok && m != nil
}

// ConsumeFromContext charges the meter found in ctx.
func ConsumeFromContext(ctx context.Context, points uint64, descriptor string) error {
	m, ok := FromContext(ctx)
	if !ok {
		return fmt.Errorf("gas meter not found in context")
	}
	return m.ConsumeFor(points, descriptor)
}
