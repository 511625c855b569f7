package cache

import (
	"context"
	"sync"

	"github.com/Keksclan/rawrcache/store"
)

// entry is one cached blob plus its runtime state. It is owned by its index
// slot for the lifetime of the cache; only the fields below mu change.
type entry struct {
	id   int
	size int64

	mu       sync.Mutex
	value    []byte // owned copy, valid only while resident
	resident bool
	uses     int64
	flushed  bool // a copy has been written to the store at least once
}

func newEntry(id int, b []byte) *entry {
	v := make([]byte, len(b))
	copy(v, b)
	return &entry{
		id:       id,
		size:     int64(len(b)),
		value:    v,
		resident: true,
	}
}

// touch records one successful read. Caller holds e.mu.
func (e *entry) touch() {
	e.uses++
}

// demote writes the value to s unless an earlier demotion already did, then
// drops the in-memory copy and reports the freed byte count. On a write
// failure the value stays resident and nothing is freed. Caller holds e.mu.
func (e *entry) demote(ctx context.Context, s store.Store) (int64, error) {
	if !e.flushed {
		if err := s.Write(ctx, store.Key(e.id), e.value); err != nil {
			return 0, &StoreError{Op: "write", Key: store.Key(e.id), Err: err}
		}
		e.flushed = true
	}
	e.value = nil
	e.resident = false
	return e.size, nil
}

// materialize makes b the resident value and reports the byte count to add
// to the accountant. Caller holds e.mu and e is not resident.
func (e *entry) materialize(b []byte) int64 {
	if b == nil {
		b = []byte{}
	}
	e.value = b
	e.resident = true
	return e.size
}

// load reads the demoted value back from s. Caller holds e.mu.
func (e *entry) load(ctx context.Context, s store.Store) ([]byte, error) {
	key := store.Key(e.id)
	b, ok, err := s.Read(ctx, key)
	if err != nil {
		return nil, &StoreError{Op: "read", Key: key, Err: err}
	}
	if !ok {
		return nil, &StoreError{Op: "read", Key: key, Err: ErrBlobMissing}
	}
	return b, nil
}

// snapshot is the (usage, id) pair an eviction pass orders candidates by.
type snapshot struct {
	e    *entry
	uses int64
}
