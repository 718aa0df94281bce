package memory

import (
	"github.com/CosmWasm/regionvm/types"
)

// maxArenaPages keeps Size representable as uint32.
const maxArenaPages = types.MaxWasmPages - 1

var _ Memory = (*Arena)(nil)

// Arena is a host-owned, growable linear memory. It behaves like an engine's memory
// (growth may move the backing buffer) and backs the fake engine.
type Arena struct {
	buf      []byte
	maxPages uint32
}

// NewArena creates an arena of the given number of pages which can grow up to maxPages.
func NewArena(pages, maxPages uint32) *Arena {
	if maxPages > maxArenaPages {
		maxPages = maxArenaPages
	}
	if pages > maxPages {
		pages = maxPages
	}
	return &Arena{
		buf:      make([]byte, uint64(pages)*types.WasmPageSize),
		maxPages: maxPages,
	}
}

func (a *Arena) Size() uint32 {
	return uint32(len(a.buf))
}

// Pages returns the current size in wasm pages.
func (a *Arena) Pages() uint32 {
	return a.Size() / types.WasmPageSize
}

func (a *Arena) Read(offset, byteCount uint32) ([]byte, bool) {
	if !a.hasSize(offset, byteCount) {
		return nil, false
	}
	end := offset + byteCount
	return a.buf[offset:end:end], true
}

func (a *Arena) Write(offset uint32, v []byte) bool {
	if uint64(len(v)) > uint64(^uint32(0)) || !a.hasSize(offset, uint32(len(v))) {
		return false
	}
	copy(a.buf[offset:], v)
	return true
}

// Grow adds deltaPages pages and returns the previous size in pages, like memory.grow.
// The backing buffer is replaced, so views returned by Read before the call go stale.
func (a *Arena) Grow(deltaPages uint32) (uint32, bool) {
	previous := a.Pages()
	if uint64(previous)+uint64(deltaPages) > uint64(a.maxPages) {
		return previous, false
	}
	grown := make([]byte, uint64(previous+deltaPages)*types.WasmPageSize)
	copy(grown, a.buf)
	a.buf = grown
	return previous, true
}

func (a *Arena) hasSize(offset, byteCount uint32) bool {
	return uint64(offset)+uint64(byteCount) <= uint64(len(a.buf))
}
