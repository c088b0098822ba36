package model

import (
	"fmt"
	"testing"
)

func records(prefix string, n int) []LogRecord {
	out := make([]LogRecord, n)
	for i := range out {
		out[i] = LogRecord{Timestamp: "2024-01-01 00:00:00", Level: "INFO", Message: fmt.Sprintf("%s-%d", prefix, i)}
	}
	return out
}

func TestRingAppendKeepsOrder(t *testing.T) {
	r := NewRing(10)
	r.Append(records("a", 3))
	r.Append(records("b", 2))
	got := r.Snapshot()
	want := []string{"a-0", "a-1", "a-2", "b-0", "b-1"}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Message != w {
			t.Fatalf("got[%d] = %q, want %q", i, got[i].Message, w)
		}
	}
}

func TestRingBlockEviction(t *testing.T) {
	r := NewRing(MaxEntries)
	if n := r.Append(records("old", 99_999)); n != 0 {
		t.Fatalf("unexpected eviction %d", n)
	}
	if n := r.Append(records("new", 5)); n != 4 {
		t.Fatalf("evicted = %d, want 4", n)
	}
	got := r.Snapshot()
	if len(got) != MaxEntries {
		t.Fatalf("len = %d, want %d", len(got), MaxEntries)
	}
	if got[0].Message != "old-4" {
		t.Fatalf("oldest = %q, want old-4", got[0].Message)
	}
	for i := 0; i < 5; i++ {
		if got[MaxEntries-5+i].Message != fmt.Sprintf("new-%d", i) {
			t.Fatalf("tail[%d] = %q", i, got[MaxEntries-5+i].Message)
		}
	}
	if _, ev := r.Stats(); ev != 4 {
		t.Fatalf("evicted counter = %d", ev)
	}
}

func TestRingOversizedBatch(t *testing.T) {
	r := NewRing(3)
	r.Append(records("a", 2))
	if n := r.Append(records("b", 5)); n != 4 {
		t.Fatalf("evicted = %d, want 4", n)
	}
	got := r.Snapshot()
	want := []string{"b-2", "b-3", "b-4"}
	for i, w := range want {
		if got[i].Message != w {
			t.Fatalf("got[%d] = %q, want %q", i, got[i].Message, w)
		}
	}
}

func TestRingWrapAround(t *testing.T) {
	r := NewRing(4)
	for i := 0; i < 5; i++ {
		r.Append(records(fmt.Sprintf("r%d", i), 3))
		if r.Len() > r.Cap() {
			t.Fatalf("len %d exceeds cap %d", r.Len(), r.Cap())
		}
	}
	got := r.Snapshot()
	want := []string{"r3-2", "r4-0", "r4-1", "r4-2"}
	for i, w := range want {
		if got[i].Message != w {
			t.Fatalf("got[%d] = %q, want %q", i, got[i].Message, w)
		}
	}
}

func TestRingClearBumpsVersion(t *testing.T) {
	r := NewRing(4)
	r.Append(records("a", 2))
	v := r.Version()
	r.Clear()
	if r.Len() != 0 {
		t.Fatalf("len after clear = %d", r.Len())
	}
	if r.Version() == v {
		t.Fatalf("version not bumped")
	}
	if total, _ := r.Stats(); total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
	r.Append(records("b", 1))
	if got := r.Snapshot(); len(got) != 1 || got[0].Message != "b-0" {
		t.Fatalf("unexpected snapshot %+v", got)
	}
}

func TestNormalizeLevel(t *testing.T) {
	cases := map[string]string{
		"warn":     "WARNING",
		"WARNING":  "WARNING",
		"error404": "ERROR",
		"Info":     "INFO",
		"trace_1":  "TRACE",
		"debug":    "DEBUG",
		"fatal":    "FATAL",
	}
	for in, want := range cases {
		if got := NormalizeLevel(in); got != want {
			t.Errorf("NormalizeLevel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRecordValid(t *testing.T) {
	if (LogRecord{Timestamp: "t", Level: "INFO"}).Valid() {
		t.Fatalf("record without message reported valid")
	}
	if !(LogRecord{Timestamp: "t", Level: "INFO", Message: "m"}).Valid() {
		t.Fatalf("complete record reported invalid")
	}
}
