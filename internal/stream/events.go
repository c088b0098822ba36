package stream

import (
	"context"

	"logtrail/internal/backend"
	"logtrail/internal/model"
	"logtrail/internal/util/logx"
)

func (c *Controller) handleEvent(ctx context.Context, ev backend.Event) {
	switch ev.Kind {
	case backend.EventNewLogsBatch:
		c.onBatch(ev)
	case backend.EventLoadProgress:
		c.onProgress(ev)
	case backend.EventLoadingSuccess:
		c.onLoadingSuccess(ctx, ev)
	case backend.EventLoadingCancelled:
		c.onLoadingCancelled(ctx, ev)
	case backend.EventLoadingError:
		c.onLoadingError(ctx, ev)
	case backend.EventFileTruncated, backend.EventFileCleared:
		c.onFileReset(ctx, ev)
	case backend.EventAlreadyLoaded:
		if c.concerns(ev) {
			c.notify(NoticeInfo, "no new lines since the last load", nil)
		}
	case backend.EventMonitoringError:
		if c.concerns(ev) {
			logx.Warnf("stream: monitoring %s: %s", ev.Path, ev.Message)
			c.notify(NoticeError, "monitoring: "+ev.Message, nil)
		}
	default:
		logx.Warnf("stream: unknown event %s", ev)
	}
}

// concerns reports whether ev is about the active file. Events without a
// path are taken to be.
func (c *Controller) concerns(ev backend.Event) bool {
	if ev.Path == "" || ev.Path == c.State().ActiveFile {
		return true
	}
	c.countStale(ev)
	return false
}

// inLoad reports whether ev belongs to the load currently in progress.
func (c *Controller) inLoad(ev backend.Event) (model.StreamState, bool) {
	st := c.State()
	if st.Phase != model.PhaseLoading || (ev.Path != "" && ev.Path != st.ActiveFile) {
		c.countStale(ev)
		return st, false
	}
	return st, true
}

// onBatch admits a batch regardless of phase: malformed records are dropped,
// the rest go through the dedup window and into the buffer.
func (c *Controller) onBatch(ev backend.Event) {
	if !c.concerns(ev) {
		return
	}
	valid := make([]model.LogRecord, 0, len(ev.Records))
	var malformed uint64
	for _, r := range ev.Records {
		if !r.Valid() {
			malformed++
			continue
		}
		valid = append(valid, r)
	}
	if malformed > 0 {
		logx.Debugf("stream: dropped %d malformed records", malformed)
		c.mu.Lock()
		c.stats.Malformed += malformed
		c.mu.Unlock()
	}
	admitted := c.window.Admit(valid)
	if dup := len(valid) - len(admitted); dup > 0 {
		logx.Debugf("stream: dropped %d duplicate records", dup)
	}
	if evicted := c.ring.Append(admitted); evicted > 0 {
		logx.Debugf("stream: evicted %d records at capacity %d", evicted, c.ring.Cap())
	}
	c.refreshStats()
	if len(admitted) > 0 {
		c.updates.Publish(Update{Kind: UpdateLogs, Version: c.ring.Version()})
	}
}

func (c *Controller) onProgress(ev backend.Event) {
	st, ok := c.inLoad(ev)
	if !ok {
		return
	}
	st.LoadedLines, st.TotalLines = ev.Current, ev.Total
	c.setState(st)
}

func (c *Controller) onLoadingSuccess(ctx context.Context, ev backend.Event) {
	st, ok := c.inLoad(ev)
	if !ok {
		return
	}
	path := st.ActiveFile
	next := st
	next.ReloadAll = false
	if err := c.call(ctx, opStartMonitoring, func(ctx context.Context) error {
		return c.link.StartMonitoring(ctx, path)
	}); err != nil {
		next.Phase = model.PhaseIdle
		c.setState(next)
		return
	}
	next.Phase = model.PhaseMonitoring
	c.setState(next)
}

func (c *Controller) onLoadingCancelled(ctx context.Context, ev backend.Event) {
	st, ok := c.inLoad(ev)
	if !ok {
		return
	}
	_ = c.call(ctx, opStopMonitoring, c.link.StopMonitoring)
	c.clearBuffer("loading cancelled")
	c.forceReload = true
	c.setState(model.Idle(st.ActiveFile))
}

func (c *Controller) onLoadingError(ctx context.Context, ev backend.Event) {
	st, ok := c.inLoad(ev)
	if !ok {
		return
	}
	logx.Errorf("stream: loading %s failed: %s", st.ActiveFile, ev.Message)
	_ = c.call(ctx, opStopMonitoring, c.link.StopMonitoring)
	c.clearBuffer("loading failed")
	c.forceReload = true
	c.setState(model.Idle(st.ActiveFile))
	c.notify(NoticeError, "loading failed: "+ev.Message, nil)
}

// onFileReset handles truncation and clearing of the active file. The buffer
// always starts over; while monitoring, the backend is told to restart its
// offset bookkeeping for the file.
func (c *Controller) onFileReset(ctx context.Context, ev backend.Event) {
	if !c.concerns(ev) {
		return
	}
	st := c.State()
	logx.Infof("stream: %s reported for %s", ev.Kind, st.ActiveFile)
	c.clearBuffer(ev.Kind.String())
	c.forceReload = true
	if st.Phase == model.PhaseMonitoring {
		_ = c.call(ctx, opSetCurrentFile, func(ctx context.Context) error {
			return c.link.SetActiveFile(ctx, st.ActiveFile)
		})
	}
}
