// Package query derives read-only views of the log buffer: level counts and
// filtered, sorted record lists. Results are cached per buffer version.
package query

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"logtrail/internal/filter"
	"logtrail/internal/model"
)

type SortField int

const (
	SortArrival SortField = iota
	SortTimestamp
	SortLevel
	SortMessage
)

func (f SortField) String() string {
	switch f {
	case SortTimestamp:
		return "timestamp"
	case SortLevel:
		return "level"
	case SortMessage:
		return "message"
	}
	return "arrival"
}

func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "arrival", "none":
		return SortArrival, nil
	case "timestamp", "ts", "time":
		return SortTimestamp, nil
	case "level", "lvl":
		return SortLevel, nil
	case "message", "msg":
		return SortMessage, nil
	}
	return SortArrival, fmt.Errorf("unknown sort field %q", s)
}

// View describes a filtered, sorted listing.
type View struct {
	Levels     []string
	Search     string // substring, or /regex/
	Field      string
	Expr       string
	Sort       SortField
	Descending bool
	Limit      int // when > 0, keep the Limit results that sort last in ascending order
}

func (v View) criteria() filter.Criteria {
	q, re := filter.ParseQuery(v.Search)
	return filter.Criteria{Query: q, UseRegex: re, Levels: filter.Levels(v.Levels...), Expr: v.Expr, Field: v.Field}
}

// Source is what a Surface reads from; model.Ring satisfies it.
type Source interface {
	Version() uint64
	SnapshotVersion() ([]model.LogRecord, uint64)
}

type Surface struct {
	src Source

	mu      sync.Mutex
	version uint64
	loaded  bool
	snap    []model.LogRecord
	counts  map[string]int
}

func NewSurface(src Source) *Surface { return &Surface{src: src} }

func (s *Surface) refresh() {
	if s.loaded && s.src.Version() == s.version {
		return
	}
	s.snap, s.version = s.src.SnapshotVersion()
	s.loaded = true
	s.counts = nil
}

// LevelCounts tallies buffered records by normalized level.
func (s *Surface) LevelCounts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh()
	if s.counts == nil {
		s.counts = CountLevels(s.snap)
	}
	out := make(map[string]int, len(s.counts))
	for k, v := range s.counts {
		out[k] = v
	}
	return out
}

// Records returns the records selected by v. The result is a fresh slice.
func (s *Surface) Records(v View) ([]model.LogRecord, error) {
	ev, err := filter.NewEvaluator(v.criteria())
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.refresh()
	snap := s.snap
	s.mu.Unlock()

	// snap is never mutated after refresh; a newer refresh replaces it.
	out := make([]model.LogRecord, 0, len(snap))
	for _, r := range snap {
		if ev.Match(r) {
			out = append(out, r)
		}
	}
	Sort(out, v.Sort, v.Descending)
	if v.Limit > 0 && len(out) > v.Limit {
		if v.Descending {
			out = out[:v.Limit]
		} else {
			out = out[len(out)-v.Limit:]
		}
	}
	return out, nil
}

func CountLevels(recs []model.LogRecord) map[string]int {
	counts := make(map[string]int, len(model.Levels))
	for _, r := range recs {
		counts[model.NormalizeLevel(r.Level)]++
	}
	return counts
}

// Sort orders recs in place. Ties keep arrival order in both directions.
func Sort(recs []model.LogRecord, field SortField, desc bool) {
	if field == SortArrival {
		if desc {
			for i, j := 0, len(recs)-1; i < j; i, j = i+1, j-1 {
				recs[i], recs[j] = recs[j], recs[i]
			}
		}
		return
	}
	key := func(r model.LogRecord) string {
		switch field {
		case SortTimestamp:
			return r.Timestamp
		case SortLevel:
			return model.NormalizeLevel(r.Level)
		}
		return r.Message
	}
	sort.SliceStable(recs, func(i, j int) bool {
		c := strings.Compare(key(recs[i]), key(recs[j]))
		if desc {
			return c > 0
		}
		return c < 0
	})
}
