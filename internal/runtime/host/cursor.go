package host

import (
	"bytes"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/CosmWasm/regionvm/internal/runtime/constants"
)

// Cursor is the position of one guest iteration over the store. No backend iterator is
// held between steps: an open MemDB iterator keeps the store read-locked, so a guest that
// scans and then writes would block forever on its own lock.
type Cursor struct {
	start, end []byte
	order      int32
	done       bool
}

func newCursor(start, end []byte, order int32) *Cursor {
	return &Cursor{start: start, end: end, order: order}
}

// Next returns the next entry of the remaining range and moves past it. It returns nil
// key and value once the range is exhausted. Entries written ahead of the cursor after the
// scan was opened are visible, removed ones are not.
func (c *Cursor) Next(store dbm.DB) (key, value []byte, err error) {
	if c.done {
		return nil, nil, nil
	}
	var iter dbm.Iterator
	if c.order == constants.OrderDescending {
		iter, err = store.ReverseIterator(c.start, c.end)
	} else {
		iter, err = store.Iterator(c.start, c.end)
	}
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		if cerr := iter.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if !iter.Valid() {
		c.done = true
		return nil, nil, iter.Error()
	}
	key = bytes.Clone(iter.Key())
	value = bytes.Clone(iter.Value())
	if c.order == constants.OrderDescending {
		// end is exclusive
		c.end = key
	} else {
		// smallest key greater than key
		c.start = append(bytes.Clone(key), 0)
	}
	return key, value, nil
}
