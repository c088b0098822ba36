package ingest

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"logtrail/internal/backend"
	"logtrail/internal/model"
	"logtrail/internal/parse"
	"logtrail/internal/util/logx"
)

type loadJob struct {
	id        uint64
	gen       uint64
	path      string
	start     int64
	reloadAll bool
}

var errEmptyFile = errors.New("file is empty or unreadable")

func (b *Backend) load(ctx context.Context, job loadJob) {
	n, err := b.read(ctx, job)
	switch {
	case errors.Is(err, context.Canceled):
		// CancelLoad already cleared the loading flag. If another load has
		// started since, the event is dropped.
		logx.Debugf("ingest: load of %s stopped after %d lines", job.path, n)
		b.emitLoad(job, backend.LoadingCancelled(job.path))
	case err != nil:
		b.finishLoad(job.id)
		logx.Errorf("ingest: load of %s failed: %v", job.path, err)
		b.emitLoad(job, backend.LoadingError(job.path, err.Error()))
	default:
		b.finishLoad(job.id)
		logx.Infof("ingest: loaded %d lines from %s", n, job.path)
		if n == 0 && job.start > 0 {
			b.emitLoad(job, backend.AlreadyLoaded(job.path))
		}
		b.emitLoad(job, backend.LoadingSuccess(job.path))
	}
}

// read streams job.path from its start offset and returns the number of
// lines consumed.
func (b *Backend) read(ctx context.Context, job loadJob) (uint64, error) {
	f, err := os.Open(job.path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return 0, err
	}
	size := st.Size()
	if size == 0 {
		return 0, errEmptyFile
	}

	start, rewritten, err := b.checkHead(job, f, size)
	if err != nil {
		return 0, fmt.Errorf("fingerprint: %w", err)
	}
	if rewritten {
		logx.Infof("ingest: %s was truncated or rewritten, reading from the start", job.path)
		b.emitLoad(job, backend.FileTruncated(job.path))
	}

	var (
		bs     = b.opts.BatchSize
		total  uint64
		count  uint64
		offset int64
		batch  = make([]model.LogRecord, 0, bs)
		r      *bufio.Reader
	)
	restart := func(from int64) error {
		total = 0
		if from == 0 {
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				return err
			}
			if total, err = countLines(f); err != nil {
				return fmt.Errorf("count lines: %w", err)
			}
		}
		if _, err := f.Seek(from, io.SeekStart); err != nil {
			return err
		}
		if r == nil {
			r = bufio.NewReaderSize(f, 64<<10)
		} else {
			r.Reset(f)
		}
		count, offset = 0, from
		b.emitLoad(job, backend.LoadProgress(job.path, 0, total))
		return nil
	}
	if err := restart(start); err != nil {
		return 0, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		raw, rerr := r.ReadBytes('\n')
		if len(raw) > 0 {
			count++
			offset += int64(len(raw))
			b.setLoadOffset(job, offset)
			if count%uint64(bs) == 0 || count == total {
				b.emitLoad(job, backend.LoadProgress(job.path, count, total))
			}
			if rec, ok := parse.Bytes(raw, b.opts.Now()); ok {
				batch = append(batch, rec)
			}
			if len(batch) >= bs {
				b.emitLoad(job, backend.NewLogsBatch(job.path, batch))
				batch = make([]model.LogRecord, 0, bs)
				if !b.headIntact(f) {
					logx.Infof("ingest: %s changed during load, restarting", job.path)
					b.emitLoad(job, backend.FileTruncated(job.path))
					b.setLoadOffset(job, 0)
					if err := b.retakeHead(job, f); err != nil {
						return count, fmt.Errorf("fingerprint: %w", err)
					}
					if err := restart(0); err != nil {
						return count, err
					}
				}
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return count, rerr
		}
	}
	if len(batch) > 0 {
		b.emitLoad(job, backend.NewLogsBatch(job.path, batch))
	}
	return count, nil
}

// checkHead compares the file against the fingerprint of the previous load.
// A continuation is abandoned when the head no longer matches or the file is
// now shorter than the offset.
func (b *Backend) checkHead(job loadJob, f *os.File, size int64) (start int64, rewritten bool, err error) {
	fp, err := headPrint(f, size, b.opts.HeadBytes)
	if err != nil {
		return 0, false, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	start = job.start
	if start > 0 && (start > size || (b.hasHead && !b.head.matches(f, size))) {
		start = 0
		rewritten = true
		if b.gen.Load() == job.gen {
			b.offset = 0
		}
	}
	if b.gen.Load() == job.gen {
		b.head, b.hasHead = fp, true
	}
	return start, rewritten, nil
}

func (b *Backend) headIntact(f *os.File) bool {
	st, err := f.Stat()
	if err != nil {
		return false
	}
	b.mu.Lock()
	fp, ok := b.head, b.hasHead
	b.mu.Unlock()
	return !ok || fp.matches(f, st.Size())
}

func (b *Backend) retakeHead(job loadJob, f *os.File) error {
	st, err := f.Stat()
	if err != nil {
		return err
	}
	fp, err := headPrint(f, st.Size(), b.opts.HeadBytes)
	if err != nil {
		return err
	}
	b.mu.Lock()
	if b.gen.Load() == job.gen {
		b.head, b.hasHead = fp, true
	}
	b.mu.Unlock()
	return nil
}

// isCurrent reports whether job is still the most recent load of the active
// file. Events and offsets of superseded loads are discarded.
func (b *Backend) isCurrent(job loadJob) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.gen.Load() == job.gen && b.loadID == job.id
}

func (b *Backend) emitLoad(job loadJob, ev backend.Event) {
	if !b.isCurrent(job) {
		logx.Debugf("ingest: dropping %s from superseded load", ev)
		return
	}
	b.hub.Publish(ev)
}

func (b *Backend) setLoadOffset(job loadJob, off int64) {
	b.mu.Lock()
	if b.gen.Load() == job.gen && b.loadID == job.id && b.current == job.path {
		b.offset = off
	}
	b.mu.Unlock()
}
