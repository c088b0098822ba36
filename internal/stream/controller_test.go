package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"logtrail/internal/backend"
	"logtrail/internal/backend/backendtest"
	"logtrail/internal/model"
)

type harness struct {
	t    *testing.T
	ctx  context.Context
	c    *Controller
	fake *backendtest.Fake

	mu      sync.Mutex
	notices []Update
}

func newHarness(t *testing.T, opts Options) *harness {
	t.Helper()
	fake := backendtest.New()
	c := New(fake, opts)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	errc := make(chan error, 1)
	go func() { errc <- c.Run(ctx) }()
	h := &harness{t: t, ctx: ctx, c: c, fake: fake}
	c.Subscribe(func(u Update) {
		if u.Kind == UpdateNotice {
			h.mu.Lock()
			h.notices = append(h.notices, u)
			h.mu.Unlock()
		}
	})
	t.Cleanup(func() {
		cancel()
		<-errc
	})
	h.sync()
	return h
}

func (h *harness) sync() {
	h.t.Helper()
	if err := h.c.Sync(h.ctx); err != nil {
		h.t.Fatalf("sync: %v", err)
	}
}

// emit delivers ev and waits until the controller has handled it.
func (h *harness) emit(evs ...backend.Event) {
	h.t.Helper()
	for _, ev := range evs {
		h.fake.Emit(ev)
	}
	h.sync()
}

func (h *harness) state() model.StreamState { return h.c.State() }

func (h *harness) noticeCount(level NoticeLevel) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, u := range h.notices {
		if u.Level == level {
			n++
		}
	}
	return n
}

func (h *harness) toLoading(path string) {
	h.t.Helper()
	if err := h.c.SelectFile(h.ctx, path); err != nil {
		h.t.Fatalf("SelectFile: %v", err)
	}
	if st := h.state(); st.Phase != model.PhaseLoading {
		h.t.Fatalf("phase = %s, want loading", st.Phase)
	}
}

func (h *harness) toMonitoring(path string) {
	h.t.Helper()
	h.toLoading(path)
	h.emit(backend.LoadingSuccess(path))
	if st := h.state(); st.Phase != model.PhaseMonitoring {
		h.t.Fatalf("phase = %s, want monitoring", st.Phase)
	}
}

func (h *harness) toIdle(path string) {
	h.t.Helper()
	h.toMonitoring(path)
	if err := h.c.StopMonitoring(h.ctx); err != nil {
		h.t.Fatalf("StopMonitoring: %v", err)
	}
}

func recs(prefix string, n int) []model.LogRecord {
	out := make([]model.LogRecord, n)
	for i := range out {
		out[i] = model.LogRecord{Timestamp: "2024-05-01 12:00:00", Level: "INFO", Message: fmt.Sprintf("%s %d", prefix, i)}
	}
	return out
}

func equalOps(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestStartLoadWhileBackendBusy(t *testing.T) {
	h := newHarness(t, Options{})
	h.fake.SetLoading(true)

	err := h.c.SelectFile(h.ctx, "/var/log/a.log")
	if !errors.Is(err, ErrAlreadyLoading) {
		t.Fatalf("err = %v, want ErrAlreadyLoading", err)
	}
	if st := h.state(); st != model.Idle("/var/log/a.log") {
		t.Fatalf("state = %+v", st)
	}
	if err := h.c.StartLoad(h.ctx, false); !errors.Is(err, ErrAlreadyLoading) {
		t.Fatalf("StartLoad err = %v", err)
	}
	for _, call := range h.fake.Calls() {
		if call.Op == backendtest.OpStartLoad {
			t.Fatalf("start_load issued while backend busy")
		}
	}
	h.sync()
	if h.noticeCount(NoticeInfo) == 0 {
		t.Fatalf("no notice published")
	}
}

func TestLoadThenMonitor(t *testing.T) {
	h := newHarness(t, Options{})
	h.toLoading("a.log")

	want := []string{backendtest.OpSetActiveFile, backendtest.OpIsLoading, backendtest.OpStartLoad}
	if ops := h.fake.Ops(); !equalOps(ops, want) {
		t.Fatalf("ops = %v, want %v", ops, want)
	}
	calls := h.fake.Calls()
	if !calls[2].ReloadAll || calls[2].Path != "a.log" {
		t.Fatalf("start_load call = %+v", calls[2])
	}
	if st := h.state(); st != model.Loading("a.log", true) {
		t.Fatalf("state = %+v", st)
	}

	h.emit(backend.LoadProgress("a.log", 50, 100), backend.NewLogsBatch("a.log", recs("line", 3)))
	st := h.state()
	if st.LoadedLines != 50 || st.TotalLines != 100 {
		t.Fatalf("progress = %d/%d", st.LoadedLines, st.TotalLines)
	}
	if got := len(h.c.Snapshot()); got != 3 {
		t.Fatalf("buffered = %d, want 3", got)
	}

	h.emit(backend.LoadingSuccess("a.log"))
	if st := h.state(); st.Phase != model.PhaseMonitoring || st.ActiveFile != "a.log" {
		t.Fatalf("state = %+v", st)
	}
	if h.fake.Monitoring() != "a.log" {
		t.Fatalf("backend not monitoring a.log")
	}
}

func TestCapacityEvictsOldestBlock(t *testing.T) {
	h := newHarness(t, Options{})
	h.emit(backend.NewLogsBatch("", recs("old", 99_999)))
	h.emit(backend.NewLogsBatch("", recs("new", 5)))

	snap := h.c.Snapshot()
	if len(snap) != model.MaxEntries {
		t.Fatalf("len = %d, want %d", len(snap), model.MaxEntries)
	}
	if snap[0].Message != "old 4" {
		t.Fatalf("oldest = %q, want %q", snap[0].Message, "old 4")
	}
	if snap[len(snap)-1].Message != "new 4" {
		t.Fatalf("newest = %q", snap[len(snap)-1].Message)
	}
	if st := h.c.Stats(); st.Evicted != 4 || st.Buffered != model.MaxEntries {
		t.Fatalf("stats = %+v", st)
	}
}

func TestSwitchFileWhileMonitoring(t *testing.T) {
	h := newHarness(t, Options{})
	h.toMonitoring("a.log")
	h.emit(backend.NewLogsBatch("a.log", recs("a", 4)))
	h.fake.ResetCalls()

	if err := h.c.SelectFile(h.ctx, "b.log"); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}
	want := []string{backendtest.OpStopMonitoring, backendtest.OpSetActiveFile, backendtest.OpIsLoading, backendtest.OpStartLoad}
	if ops := h.fake.Ops(); !equalOps(ops, want) {
		t.Fatalf("ops = %v, want %v", ops, want)
	}
	if n := len(h.c.Snapshot()); n != 0 {
		t.Fatalf("buffer not cleared: %d", n)
	}
	if st := h.state(); st != model.Loading("b.log", true) {
		t.Fatalf("state = %+v", st)
	}

	// Lines from the previous file arriving late are not admitted.
	h.emit(backend.NewLogsBatch("a.log", recs("late", 2)))
	if n := len(h.c.Snapshot()); n != 0 {
		t.Fatalf("stale batch admitted: %d", n)
	}
	if h.c.Stats().Stale == 0 {
		t.Fatalf("stale event not counted")
	}
}

func TestSwitchFileWhileLoading(t *testing.T) {
	h := newHarness(t, Options{})
	h.toLoading("a.log")
	h.fake.ResetCalls()
	if err := h.c.SelectFile(h.ctx, "b.log"); err != nil {
		t.Fatalf("SelectFile: %v", err)
	}
	want := []string{backendtest.OpCancelLoad, backendtest.OpSetActiveFile, backendtest.OpIsLoading, backendtest.OpStartLoad}
	if ops := h.fake.Ops(); !equalOps(ops, want) {
		t.Fatalf("ops = %v, want %v", ops, want)
	}
	h.emit(backend.LoadingCancelled("a.log"))
	if st := h.state(); st.Phase != model.PhaseLoading || st.ActiveFile != "b.log" {
		t.Fatalf("cancellation of previous file changed state: %+v", st)
	}
}

func TestDuplicateBatchesAdmittedOnce(t *testing.T) {
	h := newHarness(t, Options{})
	h.toMonitoring("a.log")
	batch := recs("dup", 10)
	h.emit(backend.NewLogsBatch("a.log", batch), backend.NewLogsBatch("a.log", batch))
	if n := len(h.c.Snapshot()); n != 10 {
		t.Fatalf("buffered = %d, want 10", n)
	}
	if h.c.Stats().Duplicates != 10 {
		t.Fatalf("duplicates = %d", h.c.Stats().Duplicates)
	}

	if err := h.c.ClearLogs(h.ctx); err != nil {
		t.Fatalf("ClearLogs: %v", err)
	}
	h.emit(backend.NewLogsBatch("a.log", batch))
	if n := len(h.c.Snapshot()); n != 10 {
		t.Fatalf("records not re-admitted after clear: %d", n)
	}
}

func TestTruncationWhileMonitoring(t *testing.T) {
	for _, ev := range []backend.Event{backend.FileTruncated("a.log"), backend.FileCleared("a.log")} {
		t.Run(ev.Kind.String(), func(t *testing.T) {
			h := newHarness(t, Options{})
			h.toMonitoring("a.log")
			batch := recs("x", 3)
			h.emit(backend.NewLogsBatch("a.log", batch))
			h.fake.ResetCalls()

			h.emit(ev)
			if n := len(h.c.Snapshot()); n != 0 {
				t.Fatalf("buffer not cleared: %d", n)
			}
			if ops := h.fake.Ops(); !equalOps(ops, []string{backendtest.OpSetActiveFile}) {
				t.Fatalf("ops = %v", ops)
			}
			if st := h.state(); st.Phase != model.PhaseMonitoring {
				t.Fatalf("phase = %s", st.Phase)
			}
			h.emit(backend.NewLogsBatch("a.log", batch))
			if n := len(h.c.Snapshot()); n != 3 {
				t.Fatalf("records not re-admitted: %d", n)
			}
		})
	}
}

func TestLoadingCancelled(t *testing.T) {
	h := newHarness(t, Options{})
	h.toLoading("a.log")
	h.emit(backend.LoadProgress("a.log", 10, 20), backend.NewLogsBatch("a.log", recs("x", 2)))
	h.fake.ResetCalls()

	h.emit(backend.LoadingCancelled("a.log"))
	if ops := h.fake.Ops(); !equalOps(ops, []string{backendtest.OpStopMonitoring}) {
		t.Fatalf("ops = %v", ops)
	}
	if st := h.state(); st != model.Idle("a.log") {
		t.Fatalf("state = %+v", st)
	}
	if n := len(h.c.Snapshot()); n != 0 {
		t.Fatalf("buffer not cleared")
	}
}

func TestLoadingErrorClearsAndNotifies(t *testing.T) {
	h := newHarness(t, Options{})
	h.toLoading("a.log")
	h.emit(backend.NewLogsBatch("a.log", recs("x", 2)), backend.LoadingError("a.log", "permission denied"))
	if st := h.state(); st != model.Idle("a.log") {
		t.Fatalf("state = %+v", st)
	}
	if n := len(h.c.Snapshot()); n != 0 {
		t.Fatalf("buffer not cleared")
	}
	if h.noticeCount(NoticeError) != 1 {
		t.Fatalf("error notices = %d, want 1", h.noticeCount(NoticeError))
	}
}

func TestStopMonitoringFailureKeepsMonitoring(t *testing.T) {
	h := newHarness(t, Options{})
	h.toMonitoring("a.log")
	h.fake.Fail(backendtest.OpStopMonitoring, errors.New("boom"))

	err := h.c.StopMonitoring(h.ctx)
	var cerr *CommandError
	if !errors.As(err, &cerr) || cerr.Op != opStopMonitoring {
		t.Fatalf("err = %v, want CommandError(%s)", err, opStopMonitoring)
	}
	if st := h.state(); st.Phase != model.PhaseMonitoring {
		t.Fatalf("phase = %s", st.Phase)
	}
	h.sync()
	if h.noticeCount(NoticeError) == 0 {
		t.Fatalf("failure not published")
	}
}

func TestStartLoadFailureStaysIdle(t *testing.T) {
	h := newHarness(t, Options{})
	h.fake.Fail(backendtest.OpStartLoad, errors.New("no such file"))
	err := h.c.SelectFile(h.ctx, "a.log")
	var cerr *CommandError
	if !errors.As(err, &cerr) || cerr.Op != opStartLoading {
		t.Fatalf("err = %v", err)
	}
	if st := h.state(); st != model.Idle("a.log") {
		t.Fatalf("state = %+v", st)
	}
}

func TestToggleMonitoring(t *testing.T) {
	h := newHarness(t, Options{})
	if err := h.c.ToggleMonitoring(h.ctx); !errors.Is(err, ErrNoActiveFile) {
		t.Fatalf("err = %v, want ErrNoActiveFile", err)
	}

	h.toLoading("a.log")
	if err := h.c.ToggleMonitoring(h.ctx); !errors.Is(err, ErrAlreadyLoading) {
		t.Fatalf("err = %v, want ErrAlreadyLoading", err)
	}

	// A partial load followed by monitoring leaves loaded != total, so the
	// next load continues instead of starting over.
	h.emit(backend.LoadProgress("a.log", 40, 100), backend.LoadingSuccess("a.log"))
	if err := h.c.ToggleMonitoring(h.ctx); err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	if st := h.state(); st.Phase != model.PhaseIdle || st.LoadedLines != 40 {
		t.Fatalf("state = %+v", st)
	}
	h.fake.ResetCalls()
	if err := h.c.ToggleMonitoring(h.ctx); err != nil {
		t.Fatalf("toggle on: %v", err)
	}
	calls := h.fake.Calls()
	last := calls[len(calls)-1]
	if last.Op != backendtest.OpStartLoad || last.ReloadAll {
		t.Fatalf("last call = %+v, want continuation load", last)
	}
	if st := h.state(); st.Phase != model.PhaseLoading {
		t.Fatalf("phase = %s", st.Phase)
	}
}

func TestStopMonitoringWhenIdle(t *testing.T) {
	h := newHarness(t, Options{})
	if err := h.c.StopMonitoring(h.ctx); !errors.Is(err, ErrNotMonitoring) {
		t.Fatalf("err = %v", err)
	}
}

func TestClearLogsWhileLoading(t *testing.T) {
	h := newHarness(t, Options{})
	h.toLoading("a.log")
	h.emit(backend.NewLogsBatch("a.log", recs("x", 5)))
	h.fake.ResetCalls()

	if err := h.c.ClearLogs(h.ctx); err != nil {
		t.Fatalf("ClearLogs: %v", err)
	}
	if n := len(h.c.Snapshot()); n != 0 {
		t.Fatalf("buffer not cleared")
	}
	if ops := h.fake.Ops(); !equalOps(ops, []string{backendtest.OpCancelLoad}) {
		t.Fatalf("ops = %v", ops)
	}
	h.emit(backend.LoadingCancelled("a.log"))
	if st := h.state(); st != model.Idle("a.log") {
		t.Fatalf("state = %+v", st)
	}
}

func TestClearLogsForcesFullReload(t *testing.T) {
	h := newHarness(t, Options{})
	h.toLoading("a.log")
	h.emit(backend.LoadProgress("a.log", 40, 100), backend.LoadingSuccess("a.log"))
	if err := h.c.StopMonitoring(h.ctx); err != nil {
		t.Fatal(err)
	}
	h.fake.ResetCalls()
	if err := h.c.ClearLogs(h.ctx); err != nil {
		t.Fatalf("ClearLogs: %v", err)
	}
	if ops := h.fake.Ops(); !equalOps(ops, []string{backendtest.OpSetActiveFile}) {
		t.Fatalf("ops = %v", ops)
	}
	if err := h.c.StartLoad(h.ctx, false); err != nil {
		t.Fatalf("StartLoad: %v", err)
	}
	calls := h.fake.Calls()
	if last := calls[len(calls)-1]; !last.ReloadAll {
		t.Fatalf("load after clear was not a full reload: %+v", last)
	}
}

func TestCancelLoading(t *testing.T) {
	h := newHarness(t, Options{})
	if err := h.c.CancelLoading(h.ctx); err != nil {
		t.Fatalf("CancelLoading idle: %v", err)
	}
	if ops := h.fake.Ops(); !equalOps(ops, []string{backendtest.OpIsLoading}) {
		t.Fatalf("ops = %v", ops)
	}
	h.toLoading("a.log")
	h.fake.ResetCalls()
	if err := h.c.CancelLoading(h.ctx); err != nil {
		t.Fatalf("CancelLoading: %v", err)
	}
	if ops := h.fake.Ops(); !equalOps(ops, []string{backendtest.OpIsLoading, backendtest.OpCancelLoad}) {
		t.Fatalf("ops = %v", ops)
	}
}

func TestMalformedRecordsDropped(t *testing.T) {
	h := newHarness(t, Options{})
	batch := []model.LogRecord{
		{Timestamp: "t", Level: "INFO", Message: "ok"},
		{Timestamp: "", Level: "INFO", Message: "no time"},
		{Timestamp: "t", Level: "INFO", Message: "  "},
	}
	h.emit(backend.NewLogsBatch("", batch))
	if n := len(h.c.Snapshot()); n != 1 {
		t.Fatalf("buffered = %d, want 1", n)
	}
	if h.c.Stats().Malformed != 2 {
		t.Fatalf("malformed = %d", h.c.Stats().Malformed)
	}
}

func TestStaleLifecycleEventsIgnored(t *testing.T) {
	h := newHarness(t, Options{})
	h.toIdle("a.log")
	before := h.state()
	h.emit(
		backend.LoadProgress("a.log", 1, 2),
		backend.LoadingSuccess("a.log"),
		backend.LoadingCancelled("a.log"),
		backend.LoadingError("a.log", "late"),
	)
	if st := h.state(); st != before {
		t.Fatalf("state changed from %+v to %+v", before, st)
	}
	if h.c.Stats().Stale != 4 {
		t.Fatalf("stale = %d, want 4", h.c.Stats().Stale)
	}
}

func TestEventOrderIndependence(t *testing.T) {
	batch := backend.NewLogsBatch("a.log", recs("x", 3))
	progress := backend.LoadProgress("a.log", 3, 3)

	run := func(evs ...backend.Event) (model.StreamState, []model.LogRecord) {
		h := newHarness(t, Options{})
		h.toLoading("a.log")
		h.emit(evs...)
		return h.state(), h.c.Snapshot()
	}
	s1, b1 := run(batch, progress)
	s2, b2 := run(progress, batch)
	if s1 != s2 {
		t.Fatalf("states differ: %+v vs %+v", s1, s2)
	}
	if len(b1) != len(b2) {
		t.Fatalf("buffers differ: %d vs %d", len(b1), len(b2))
	}
	for i := range b1 {
		if b1[i] != b2[i] {
			t.Fatalf("record %d differs", i)
		}
	}
}

func TestEveryEventHandledInEveryPhase(t *testing.T) {
	events := []backend.Event{
		backend.NewLogsBatch("a.log", recs("x", 1)),
		backend.LoadProgress("a.log", 1, 1),
		backend.LoadingSuccess("a.log"),
		backend.LoadingCancelled("a.log"),
		backend.LoadingError("a.log", "e"),
		backend.FileTruncated("a.log"),
		backend.FileCleared("a.log"),
		backend.AlreadyLoaded("a.log"),
		backend.MonitoringError("a.log", "e"),
	}
	loadingNext := map[backend.EventKind]model.Phase{
		backend.EventLoadingSuccess:   model.PhaseMonitoring,
		backend.EventLoadingCancelled: model.PhaseIdle,
		backend.EventLoadingError:     model.PhaseIdle,
	}
	phases := []struct {
		name  string
		setup func(h *harness)
		phase model.Phase
	}{
		{"idle", func(h *harness) { h.toIdle("a.log") }, model.PhaseIdle},
		{"loading", func(h *harness) { h.toLoading("a.log") }, model.PhaseLoading},
		{"monitoring", func(h *harness) { h.toMonitoring("a.log") }, model.PhaseMonitoring},
	}
	for _, p := range phases {
		for _, ev := range events {
			t.Run(p.name+"/"+ev.Kind.String(), func(t *testing.T) {
				h := newHarness(t, Options{})
				p.setup(h)
				h.emit(ev)
				want := p.phase
				if p.phase == model.PhaseLoading {
					if next, ok := loadingNext[ev.Kind]; ok {
						want = next
					}
				}
				if got := h.state().Phase; got != want {
					t.Fatalf("phase = %s, want %s", got, want)
				}
				if n := h.c.ring.Len(); n > h.c.ring.Cap() {
					t.Fatalf("buffer over capacity")
				}
			})
		}
	}
}

func TestCommandsAfterStop(t *testing.T) {
	fake := backendtest.New()
	c := New(fake, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- c.Run(ctx) }()
	if err := c.Sync(context.Background()); err != nil {
		t.Fatal(err)
	}
	cancel()
	if err := <-errc; err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if err := c.ClearLogs(context.Background()); !errors.Is(err, ErrStopped) {
		t.Fatalf("err = %v, want ErrStopped", err)
	}
	if fake.Subscribers() != 0 {
		t.Fatalf("backend subscription leaked")
	}
	if err := c.Run(context.Background()); err == nil {
		t.Fatalf("second Run should fail")
	}
}

func TestBoundedDedupWindow(t *testing.T) {
	h := newHarness(t, Options{DedupWindow: 2})
	a, b, c := recs("a", 1), recs("b", 1), recs("c", 1)
	h.emit(
		backend.NewLogsBatch("", a),
		backend.NewLogsBatch("", b),
		backend.NewLogsBatch("", c),
		backend.NewLogsBatch("", a),
	)
	if n := len(h.c.Snapshot()); n != 4 {
		t.Fatalf("buffered = %d, want 4 (a forgotten by bounded window)", n)
	}
}
