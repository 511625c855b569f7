package cache

import "sync"

// index is the append-only entry collection; an entry's id is its position.
// mu guards the slice structure and the resident-bytes accountant. Entry
// interiors are guarded by each entry's own lock.
//
// Lock order is entry.mu before index.mu. Nothing takes an entry lock while
// holding index.mu.
type index struct {
	mu       sync.RWMutex
	entries  []*entry
	resident int64
}

func newIndex(capacity int) *index {
	return &index{entries: make([]*entry, 0, capacity)}
}

// admit appends a new entry holding a copy of b unless that would take
// resident memory above high. It returns the resident total afterwards.
func (x *index) admit(b []byte, high int64) (*entry, int64, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.resident+int64(len(b)) > high {
		return nil, x.resident, false
	}
	e := newEntry(len(x.entries), b)
	x.entries = append(x.entries, e)
	x.resident += e.size
	return e, x.resident, true
}

// get resolves id to its entry. Out-of-range ids report false.
func (x *index) get(id int) (*entry, bool) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if id < 0 || id >= len(x.entries) {
		return nil, false
	}
	return x.entries[id], true
}

// scan returns the current membership. Entries appended afterwards are not
// included; the entries themselves must be inspected under their own locks.
func (x *index) scan() []*entry {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.entries[:len(x.entries):len(x.entries)]
}

// grow accounts n bytes becoming resident unless that would exceed high.
// It returns the resident total afterwards.
func (x *index) grow(n, high int64) (int64, bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.resident+n > high {
		return x.resident, false
	}
	x.resident += n
	return x.resident, true
}

// release accounts n bytes leaving memory and returns the new total.
func (x *index) release(n int64) int64 {
	x.mu.Lock()
	defer x.mu.Unlock()

	x.resident -= n
	return x.resident
}

func (x *index) residentBytes() int64 {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.resident
}

func (x *index) len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return len(x.entries)
}
