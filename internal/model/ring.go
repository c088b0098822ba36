package model

import "sync"

// Ring is a bounded, arrival-ordered buffer of LogRecords. Appending a batch
// that overflows the capacity evicts exactly the overflow from the oldest
// end, so the buffer never holds more than its capacity.
type Ring struct {
	mu      sync.RWMutex
	buf     []LogRecord
	cap     int
	start   int
	size    int
	total   uint64 // total appended
	evicted uint64
	version uint64 // bumped on every mutation
}

func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring{cap: capacity, buf: make([]LogRecord, capacity)}
}

// Append adds recs in order and returns how many older records were evicted.
func (r *Ring) Append(recs []LogRecord) int {
	if len(recs) == 0 {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.total += uint64(len(recs))
	r.version++

	// Only the newest cap records of an oversized batch can survive.
	if len(recs) >= r.cap {
		dropped := r.size + len(recs) - r.cap
		copy(r.buf, recs[len(recs)-r.cap:])
		r.start = 0
		r.size = r.cap
		r.evicted += uint64(dropped)
		return dropped
	}

	dropped := 0
	if over := r.size + len(recs) - r.cap; over > 0 {
		r.start = (r.start + over) % r.cap
		r.size -= over
		dropped = over
		r.evicted += uint64(over)
	}
	for _, rec := range recs {
		r.buf[(r.start+r.size)%r.cap] = rec
		r.size++
	}
	return dropped
}

// Snapshot returns a copy of the buffer, oldest first.
func (r *Ring) Snapshot() []LogRecord {
	out, _ := r.SnapshotVersion()
	return out
}

// SnapshotVersion returns a copy of the buffer together with the version it
// was taken at.
func (r *Ring) SnapshotVersion() ([]LogRecord, uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]LogRecord, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.start+i)%r.cap]
	}
	return out, r.version
}

// Clear empties the buffer. Counters are kept.
func (r *Ring) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.buf)
	r.size = 0
	r.start = 0
	r.version++
}

func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

func (r *Ring) Cap() int { return r.cap }

func (r *Ring) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// Stats returns the number of records ever appended and ever evicted.
func (r *Ring) Stats() (total, evicted uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total, r.evicted
}
