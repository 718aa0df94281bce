// Package host implements the functions a guest imports from the host. They only touch
// guest memory through the Region accessor and allocator, and pay for their work through
// the instance's meter.
package host

import (
	"context"
	"fmt"
	"sync"

	dbm "github.com/cometbft/cometbft-db"
	"github.com/rs/zerolog"

	"github.com/CosmWasm/regionvm/internal/runtime/memory"
	"github.com/CosmWasm/regionvm/internal/runtime/wasm"
	"github.com/CosmWasm/regionvm/types"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey struct{}

// Environment is the host state bound to one guest instance.
type Environment struct {
	Store  dbm.DB
	Logger zerolog.Logger
	Limits types.HostLimits

	instance wasm.Instance

	cursorsMutex sync.RWMutex
	cursors      map[uint32]*Cursor
	nextIterID   uint32
}

// NewEnvironment creates an environment backed by store. The instance is attached later
// with SetInstance, once the engine created it.
func NewEnvironment(store dbm.DB, logger zerolog.Logger, limits types.HostLimits) *Environment {
	return &Environment{
		Store:   store,
		Logger:  logger,
		Limits:  limits,
		cursors: make(map[uint32]*Cursor),
	}
}

// SetInstance binds the guest instance whose memory host functions operate on.
func (e *Environment) SetInstance(inst wasm.Instance) {
	e.instance = inst
}

// Instance returns the bound guest instance.
func (e *Environment) Instance() wasm.Instance {
	return e.instance
}

// OpenCursor registers a new iteration over [start, end) and returns its 1-based id.
func (e *Environment) OpenCursor(start, end []byte, order int32) uint32 {
	e.cursorsMutex.Lock()
	defer e.cursorsMutex.Unlock()

	e.nextIterID++
	e.cursors[e.nextIterID] = newCursor(start, end, order)
	return e.nextIterID
}

// Cursor returns the iteration with the given id, or nil.
func (e *Environment) Cursor(id uint32) *Cursor {
	e.cursorsMutex.RLock()
	defer e.cursorsMutex.RUnlock()
	return e.cursors[id]
}

// EndCall forgets all iterations opened during the call. Ids restart at 1 afterwards.
func (e *Environment) EndCall() {
	e.cursorsMutex.Lock()
	defer e.cursorsMutex.Unlock()

	e.cursors = make(map[uint32]*Cursor)
	e.nextIterID = 0
}

func (e *Environment) memory() (*memory.Accessor, error) {
	if e.instance == nil {
		return nil, fmt.Errorf("no instance bound to the host environment")
	}
	return e.instance.Memory()
}

// writeToGuest hands data to the guest in a freshly allocated Region.
func (e *Environment) writeToGuest(ctx context.Context, mem *memory.Accessor, data []byte) (uint32, error) {
	return memory.NewAllocator(e.instance, mem).Write(ctx, data)
}

// WithEnvironment attaches env to ctx for host callbacks.
func WithEnvironment(ctx context.Context, env *Environment) context.Context {
	return context.WithValue(ctx, contextKey{}, env)
}

// FromContext retrieves the environment from ctx.
func FromContext(ctx context.Context) (*Environment, error) {
	env, ok := ctx.Value(contextKey{}).(*Environment)
	if !ok || env == nil {
		return nil, fmt.Errorf("runtime environment not found in context")
	}
	return env, nil
}
