// Package backendtest provides a scripted backend.Link for tests.
package backendtest

import (
	"context"
	"sync"

	"logtrail/internal/backend"
	"logtrail/internal/pubsub"
)

// Operation names recorded by Fake.
const (
	OpSetActiveFile   = "set_active_file"
	OpActiveFile      = "active_file"
	OpStartLoad       = "start_load"
	OpCancelLoad      = "cancel_load"
	OpIsLoading       = "is_loading"
	OpStartMonitoring = "start_monitoring"
	OpStopMonitoring  = "stop_monitoring"
)

type Call struct {
	Op        string
	Path      string
	ReloadAll bool
}

// Fake records every command, answers from a small amount of state, and lets
// tests inject events and per-operation failures.
type Fake struct {
	mu         sync.Mutex
	calls      []Call
	errs       map[string]error
	active     string
	loading    bool
	monitoring string
	hub        *pubsub.Hub[backend.Event]
}

func New() *Fake {
	return &Fake{errs: map[string]error{}, hub: pubsub.NewHub[backend.Event]()}
}

// Fail makes op return err until cleared with a nil err.
func (f *Fake) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.errs, op)
		return
	}
	f.errs[op] = err
}

func (f *Fake) SetLoading(v bool) {
	f.mu.Lock()
	f.loading = v
	f.mu.Unlock()
}

func (f *Fake) Monitoring() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.monitoring
}

func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Ops returns the recorded operation names in order.
func (f *Fake) Ops() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.Op
	}
	return out
}

func (f *Fake) ResetCalls() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

// Emit publishes ev to subscribers. Terminal load events clear the loading
// flag the way a real backend would.
func (f *Fake) Emit(ev backend.Event) {
	switch ev.Kind {
	case backend.EventLoadingSuccess, backend.EventLoadingCancelled,
		backend.EventLoadingError, backend.EventAlreadyLoaded:
		f.SetLoading(false)
	}
	f.hub.Publish(ev)
}

func (f *Fake) record(c Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.errs[c.Op]
}

func (f *Fake) SetActiveFile(_ context.Context, path string) error {
	if err := f.record(Call{Op: OpSetActiveFile, Path: path}); err != nil {
		return err
	}
	f.mu.Lock()
	f.active = path
	f.mu.Unlock()
	return nil
}

func (f *Fake) ActiveFile(context.Context) (string, error) {
	if err := f.record(Call{Op: OpActiveFile}); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active, nil
}

func (f *Fake) StartLoad(_ context.Context, path string, reloadAll bool) error {
	if err := f.record(Call{Op: OpStartLoad, Path: path, ReloadAll: reloadAll}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loading {
		return backend.ErrLoadInProgress
	}
	f.loading = true
	return nil
}

func (f *Fake) CancelLoad(context.Context) error {
	if err := f.record(Call{Op: OpCancelLoad}); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.loading {
		return backend.ErrNotLoading
	}
	f.loading = false
	return nil
}

func (f *Fake) IsLoading(context.Context) (bool, error) {
	if err := f.record(Call{Op: OpIsLoading}); err != nil {
		return false, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading, nil
}

func (f *Fake) StartMonitoring(_ context.Context, path string) error {
	if err := f.record(Call{Op: OpStartMonitoring, Path: path}); err != nil {
		return err
	}
	f.mu.Lock()
	f.monitoring = path
	f.mu.Unlock()
	return nil
}

func (f *Fake) StopMonitoring(context.Context) error {
	if err := f.record(Call{Op: OpStopMonitoring}); err != nil {
		return err
	}
	f.mu.Lock()
	f.monitoring = ""
	f.mu.Unlock()
	return nil
}

func (f *Fake) Subscribe(fn func(backend.Event)) pubsub.Token { return f.hub.Subscribe(fn) }

func (f *Fake) Unsubscribe(tok pubsub.Token) { f.hub.Unsubscribe(tok) }

// Subscribers reports how many handlers are attached.
func (f *Fake) Subscribers() int { return f.hub.Len() }
