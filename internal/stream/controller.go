// Package stream implements the log stream controller: the single owner of
// the log buffer, the dedup window and the loading/monitoring lifecycle.
//
// Backend events and user commands are funnelled into one FIFO inbox and
// handled one at a time by Run. Backend commands are issued from inside
// those handlers, so their outcome is applied before the next input is
// looked at. Readers get copies and never block the loop for long.
package stream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"logtrail/internal/backend"
	"logtrail/internal/dedup"
	"logtrail/internal/model"
	"logtrail/internal/pubsub"
	"logtrail/internal/query"
	"logtrail/internal/util/logx"
)

// Backend command names, used in CommandError.Op and logs.
const (
	opSetCurrentFile  = "set_current_file"
	opStartLoading    = "start_file_loading"
	opCancelLoading   = "cancel_file_loading"
	opIsLoading       = "is_file_loading"
	opStartMonitoring = "start_file_monitoring"
	opStopMonitoring  = "stop_file_monitoring"
)

type Options struct {
	MaxEntries     int
	DedupWindow    int // 0 keeps every identity until the next clear
	CommandTimeout time.Duration
	InboxSize      int
}

func (o Options) withDefaults() Options {
	if o.MaxEntries <= 0 {
		o.MaxEntries = model.MaxEntries
	}
	if o.CommandTimeout <= 0 {
		o.CommandTimeout = 10 * time.Second
	}
	if o.InboxSize <= 0 {
		o.InboxSize = 1024
	}
	return o
}

// Stats are counters describing what happened to incoming records.
type Stats struct {
	Buffered   int    `json:"buffered"`
	Capacity   int    `json:"capacity"`
	Appended   uint64 `json:"appended"`
	Evicted    uint64 `json:"evicted"`
	Duplicates uint64 `json:"duplicates"`
	Malformed  uint64 `json:"malformed"`
	Stale      uint64 `json:"stale_events"`
	WindowSize int    `json:"dedup_window"`
}

type input struct {
	ev    *backend.Event
	fn    func(context.Context) error
	reply chan error
}

type Controller struct {
	link   backend.Link
	opts   Options
	ring   *model.Ring
	view   *query.Surface
	window *dedup.Window // loop-owned

	updates *pubsub.Hub[Update]
	inbox   chan input
	done    chan struct{}
	running atomic.Bool

	forceReload bool // loop-owned; next load must start from the beginning

	mu    sync.RWMutex
	state model.StreamState
	stats Stats
}

func New(link backend.Link, opts Options) *Controller {
	opts = opts.withDefaults()
	ring := model.NewRing(opts.MaxEntries)
	return &Controller{
		link:    link,
		opts:    opts,
		ring:    ring,
		view:    query.NewSurface(ring),
		window:  dedup.New(opts.DedupWindow),
		updates: pubsub.NewHub[Update](),
		inbox:   make(chan input, opts.InboxSize),
		done:    make(chan struct{}),
		stats:   Stats{Capacity: opts.MaxEntries},
	}
}

// Run subscribes to the backend and processes the inbox until ctx is done.
// It may only be called once.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("stream: controller already running")
	}
	tok := c.link.Subscribe(c.enqueue)
	defer c.link.Unsubscribe(tok)
	defer close(c.done)
	logx.Infof("stream: controller started (capacity %d, dedup window %d)", c.opts.MaxEntries, c.opts.DedupWindow)
	for {
		select {
		case <-ctx.Done():
			logx.Infof("stream: controller stopped")
			return nil
		case in := <-c.inbox:
			c.process(ctx, in)
		}
	}
}

func (c *Controller) enqueue(ev backend.Event) {
	select {
	case c.inbox <- input{ev: &ev}:
	case <-c.done:
	}
}

func (c *Controller) process(ctx context.Context, in input) {
	if in.ev != nil {
		c.handleEvent(ctx, *in.ev)
		return
	}
	err := in.fn(ctx)
	if err != nil && IsConflict(err) {
		c.notify(NoticeInfo, err.Error(), err)
	}
	in.reply <- err
}

// do queues fn behind everything already in the inbox and waits for it.
func (c *Controller) do(ctx context.Context, fn func(context.Context) error) error {
	in := input{fn: fn, reply: make(chan error, 1)}
	select {
	case c.inbox <- in:
	case <-c.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-in.reply:
		return err
	case <-c.done:
		select {
		case err := <-in.reply:
			return err
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// call runs a backend command with the command timeout. Failures are logged,
// published as notices and returned as *CommandError, except for errors
// listed in tolerated, which count as success.
func (c *Controller) call(ctx context.Context, op string, fn func(context.Context) error, tolerated ...error) error {
	cctx, cancel := context.WithTimeout(ctx, c.opts.CommandTimeout)
	defer cancel()
	err := fn(cctx)
	if err == nil {
		return nil
	}
	for _, t := range tolerated {
		if errors.Is(err, t) {
			logx.Debugf("stream: %s: %v (ignored)", op, err)
			return nil
		}
	}
	cerr := &CommandError{Op: op, Err: err}
	logx.Warnf("stream: %v", cerr)
	c.notify(NoticeError, cerr.Error(), cerr)
	return cerr
}

func (c *Controller) setState(st model.StreamState) {
	c.mu.Lock()
	old := c.state
	c.state = st
	c.mu.Unlock()
	if old == st {
		return
	}
	if old.Phase != st.Phase || old.ActiveFile != st.ActiveFile {
		logx.Infof("stream: %s -> %s", old, st)
	} else {
		logx.Debugf("stream: %s", st)
	}
	c.updates.Publish(Update{Kind: UpdateState, State: st})
}

func (c *Controller) clearBuffer(reason string) {
	c.ring.Clear()
	c.window.Reset()
	c.refreshStats()
	logx.Debugf("stream: buffer cleared (%s)", reason)
	c.updates.Publish(Update{Kind: UpdateLogs, Version: c.ring.Version()})
}

func (c *Controller) refreshStats() {
	total, evicted := c.ring.Stats()
	c.mu.Lock()
	c.stats.Buffered = c.ring.Len()
	c.stats.Appended = total
	c.stats.Evicted = evicted
	c.stats.Duplicates = c.window.Dropped()
	c.stats.WindowSize = c.window.Len()
	c.mu.Unlock()
}

func (c *Controller) countStale(ev backend.Event) {
	logx.Debugf("stream: ignoring stale %s", ev)
	c.mu.Lock()
	c.stats.Stale++
	c.mu.Unlock()
}

func (c *Controller) notify(level NoticeLevel, text string, err error) {
	c.updates.Publish(Update{Kind: UpdateNotice, Level: level, Text: text, Err: err})
}

// Read side.

func (c *Controller) State() model.StreamState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *Controller) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Snapshot returns a copy of the buffered records, oldest first.
func (c *Controller) Snapshot() []model.LogRecord { return c.ring.Snapshot() }

func (c *Controller) SnapshotVersion() ([]model.LogRecord, uint64) { return c.ring.SnapshotVersion() }

// Version changes whenever the buffer changes.
func (c *Controller) Version() uint64 { return c.ring.Version() }

func (c *Controller) LevelCounts() map[string]int { return c.view.LevelCounts() }

func (c *Controller) Records(v query.View) ([]model.LogRecord, error) { return c.view.Records(v) }

// Subscribe registers fn for state, log and notice updates. fn runs on the
// controller loop and must not call controller commands synchronously.
func (c *Controller) Subscribe(fn func(Update)) pubsub.Token { return c.updates.Subscribe(fn) }

func (c *Controller) Unsubscribe(tok pubsub.Token) { c.updates.Unsubscribe(tok) }
