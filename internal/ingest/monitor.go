package ingest

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/nxadm/tail"

	"logtrail/internal/backend"
	"logtrail/internal/model"
	"logtrail/internal/parse"
	"logtrail/internal/util/logx"
)

// monitor follows path from offset. Lines are batched and flushed on every
// poll tick or when a batch fills. A line offset going backwards, or the file
// shrinking below what was consumed, means the file was cleared: the pending
// batch is flushed and FileCleared is emitted before any newer line.
func (b *Backend) monitor(ctx context.Context, gen uint64, path string, offset int64) {
	t, err := tail.TailFile(path, tail.Config{
		Follow:    true,
		ReOpen:    false,
		MustExist: true,
		Logger:    tail.DiscardingLogger,
		Poll:      true,
		Location:  &tail.SeekInfo{Offset: offset, Whence: io.SeekStart},
	})
	if err != nil {
		b.monitorExited(gen, path)
		b.emit(gen, backend.MonitoringError(path, err.Error()))
		return
	}
	defer t.Cleanup()

	ticker := time.NewTicker(b.opts.PollInterval)
	defer ticker.Stop()

	consumed := offset
	var batch []model.LogRecord
	flush := func() {
		if len(batch) > 0 {
			b.emit(gen, backend.NewLogsBatch(path, batch))
			batch = nil
		}
	}
	cleared := func() {
		flush()
		logx.Infof("ingest: %s was cleared", path)
		b.setOffset(gen, path, 0)
		b.emit(gen, backend.FileCleared(path))
	}

	for {
		select {
		case <-ctx.Done():
			// Stop waits for the tail goroutine, which may be blocked
			// handing us a line.
			go func() {
				for range t.Lines {
				}
			}()
			_ = t.Stop()
			flush()
			return
		case l, ok := <-t.Lines:
			if !ok {
				flush()
				b.monitorExited(gen, path)
				msg := "file is no longer available"
				if err := t.Err(); err != nil {
					msg = err.Error()
				}
				logx.Warnf("ingest: monitoring %s ended: %s", path, msg)
				b.emit(gen, backend.MonitoringError(path, msg))
				return
			}
			if l.Err != nil {
				logx.Warnf("ingest: tail %s: %v", path, l.Err)
				b.emit(gen, backend.MonitoringError(path, l.Err.Error()))
				continue
			}
			// An offset of zero means tail could not tell where it is.
			if off := l.SeekInfo.Offset; off > 0 {
				if off < consumed {
					cleared()
				}
				consumed = off
				b.setOffset(gen, path, off)
			}
			if rec, ok := parse.Bytes([]byte(l.Text), b.opts.Now()); ok {
				batch = append(batch, rec)
				if len(batch) >= b.opts.BatchSize {
					flush()
				}
			}
		case <-ticker.C:
			if st, err := os.Stat(path); err == nil && st.Size() < consumed {
				cleared()
				consumed = 0
			}
			flush()
		}
	}
}
