// Package dedup holds the set of record identities already admitted to the
// buffer, so that re-delivered lines are dropped.
package dedup

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"logtrail/internal/model"
)

// Window tracks admitted identities. With a zero limit it remembers every
// identity until Reset; with a positive limit it keeps only the most
// recently admitted limit identities.
type Window struct {
	seen    map[model.Key]struct{}
	bounded *lru.Cache[model.Key, struct{}]
	dropped uint64
}

func New(limit int) *Window {
	w := &Window{}
	if limit > 0 {
		// lru.New only fails for non-positive sizes.
		w.bounded, _ = lru.New[model.Key, struct{}](limit)
	} else {
		w.seen = make(map[model.Key]struct{})
	}
	return w
}

// Admit returns the records of batch whose identity has not been seen, in
// their original order, and records them as seen. Duplicates inside the
// batch are dropped too. The returned slice never aliases batch.
func (w *Window) Admit(batch []model.LogRecord) []model.LogRecord {
	out := make([]model.LogRecord, 0, len(batch))
	for _, r := range batch {
		k := r.Key()
		if w.contains(k) {
			w.dropped++
			continue
		}
		w.add(k)
		out = append(out, r)
	}
	return out
}

func (w *Window) Contains(r model.LogRecord) bool { return w.contains(r.Key()) }

// Reset forgets every identity so previously seen records are admitted again.
func (w *Window) Reset() {
	if w.bounded != nil {
		w.bounded.Purge()
		return
	}
	clear(w.seen)
}

func (w *Window) Len() int {
	if w.bounded != nil {
		return w.bounded.Len()
	}
	return len(w.seen)
}

// Dropped counts duplicates rejected since creation.
func (w *Window) Dropped() uint64 { return w.dropped }

func (w *Window) contains(k model.Key) bool {
	if w.bounded != nil {
		// Contains does not refresh recency, so eviction follows admission order.
		return w.bounded.Contains(k)
	}
	_, ok := w.seen[k]
	return ok
}

func (w *Window) add(k model.Key) {
	if w.bounded != nil {
		w.bounded.Add(k, struct{}{})
		return
	}
	w.seen[k] = struct{}{}
}
