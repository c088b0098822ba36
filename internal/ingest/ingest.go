// Package ingest is the local, in-process implementation of backend.Link.
// It reads log files in batches, follows them with nxadm/tail and reports
// truncation, using an offset for continuation and a head fingerprint to
// notice rewrites.
package ingest

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"logtrail/internal/backend"
	"logtrail/internal/pubsub"
	"logtrail/internal/util/logx"
)

// BatchSize is the default number of records per NewLogsBatch event.
const BatchSize = 568

type Options struct {
	BatchSize    int
	PollInterval time.Duration // how often tailed lines are flushed and the size re-checked
	HeadBytes    int           // bytes covered by the head fingerprint
	Now          func() time.Time
}

func (o Options) withDefaults() Options {
	if o.BatchSize <= 0 {
		o.BatchSize = BatchSize
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 200 * time.Millisecond
	}
	if o.HeadBytes <= 0 {
		o.HeadBytes = 1024
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type Backend struct {
	opts Options
	ctx  context.Context
	stop context.CancelFunc
	hub  *pubsub.Hub[backend.Event]
	wg   sync.WaitGroup

	// gen changes whenever the active file changes; activity started under
	// an older generation is stale and its events are dropped.
	gen atomic.Uint64

	mu         sync.Mutex
	current    string
	offset     int64
	head       fingerprint
	hasHead    bool
	loadID     uint64
	loading    bool
	cancelLoad context.CancelFunc
	monitoring bool
	monPath    string
	cancelMon  context.CancelFunc
}

var _ backend.Link = (*Backend)(nil)

func New(opts Options) *Backend {
	ctx, stop := context.WithCancel(context.Background())
	return &Backend{opts: opts.withDefaults(), ctx: ctx, stop: stop, hub: pubsub.NewHub[backend.Event]()}
}

// Close stops all loads and monitors and waits for them to exit.
func (b *Backend) Close() error {
	b.stop()
	b.wg.Wait()
	return nil
}

func (b *Backend) Subscribe(fn func(backend.Event)) pubsub.Token { return b.hub.Subscribe(fn) }

func (b *Backend) Unsubscribe(tok pubsub.Token) { b.hub.Unsubscribe(tok) }

func (b *Backend) emit(gen uint64, ev backend.Event) {
	if b.gen.Load() != gen {
		logx.Debugf("ingest: dropping stale %s", ev)
		return
	}
	b.hub.Publish(ev)
}

// switchLocked makes path current. Moving to a different file abandons the
// running load and the monitor of the previous file.
func (b *Backend) switchLocked(path string) {
	if path == b.current {
		return
	}
	b.gen.Add(1)
	if b.cancelLoad != nil {
		b.cancelLoad()
		b.cancelLoad = nil
	}
	b.loading = false
	b.stopMonitorLocked()
	b.current = path
	b.offset = 0
	b.hasHead = false
}

func (b *Backend) stopMonitorLocked() {
	if !b.monitoring {
		return
	}
	b.cancelMon()
	b.cancelMon = nil
	b.monitoring = false
	b.monPath = ""
}

func (b *Backend) SetActiveFile(_ context.Context, path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.switchLocked(path)
	b.offset = 0
	b.hasHead = false
	logx.Debugf("ingest: active file %s", path)
	return nil
}

func (b *Backend) ActiveFile(context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current, nil
}

func (b *Backend) StartLoad(_ context.Context, path string, reloadAll bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loading {
		return backend.ErrLoadInProgress
	}
	b.switchLocked(path)
	if reloadAll {
		b.offset = 0
	}
	b.loadID++
	b.loading = true
	ctx, cancel := context.WithCancel(b.ctx)
	b.cancelLoad = cancel
	job := loadJob{id: b.loadID, gen: b.gen.Load(), path: path, start: b.offset, reloadAll: reloadAll}
	logx.Infof("ingest: loading %s from offset %d (reload all: %v)", path, job.start, reloadAll)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.load(ctx, job)
	}()
	return nil
}

func (b *Backend) CancelLoad(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.loading {
		return backend.ErrNotLoading
	}
	b.cancelLoad()
	b.cancelLoad = nil
	b.loading = false
	logx.Infof("ingest: load of %s cancelled", b.current)
	return nil
}

func (b *Backend) IsLoading(context.Context) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.loading, nil
}

func (b *Backend) StartMonitoring(_ context.Context, path string) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.monitoring && b.monPath == path {
		return nil
	}
	b.stopMonitorLocked()
	if path != b.current {
		b.switchLocked(path)
		b.offset = st.Size()
	}
	ctx, cancel := context.WithCancel(b.ctx)
	b.monitoring = true
	b.monPath = path
	b.cancelMon = cancel
	gen, offset := b.gen.Load(), b.offset
	logx.Infof("ingest: monitoring %s from offset %d", path, offset)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		b.monitor(ctx, gen, path, offset)
	}()
	return nil
}

func (b *Backend) StopMonitoring(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.monitoring {
		logx.Infof("ingest: stopped monitoring %s", b.monPath)
	}
	b.stopMonitorLocked()
	return nil
}

// Offset reports the continuation offset of the active file.
func (b *Backend) Offset() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.offset
}

func (b *Backend) setOffset(gen uint64, path string, off int64) {
	b.mu.Lock()
	if b.gen.Load() == gen && b.current == path {
		b.offset = off
	}
	b.mu.Unlock()
}

func (b *Backend) finishLoad(id uint64) {
	b.mu.Lock()
	if b.loadID == id && b.loading {
		b.loading = false
		b.cancelLoad = nil
	}
	b.mu.Unlock()
}

func (b *Backend) monitorExited(gen uint64, path string) {
	b.mu.Lock()
	if b.gen.Load() == gen && b.monitoring && b.monPath == path {
		b.stopMonitorLocked()
	}
	b.mu.Unlock()
}
