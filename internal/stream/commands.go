package stream

import (
	"context"
	"strings"

	"logtrail/internal/backend"
	"logtrail/internal/model"
)

// SelectFile switches the active file: any monitoring or load of the
// previous file is stopped, the buffer is cleared and a full load of path
// begins.
func (c *Controller) SelectFile(ctx context.Context, path string) error {
	return c.do(ctx, func(ctx context.Context) error { return c.selectFile(ctx, path) })
}

// StartLoad loads the active file. With force the backend rereads it from the
// beginning; otherwise it may continue where the previous load stopped.
func (c *Controller) StartLoad(ctx context.Context, force bool) error {
	return c.do(ctx, func(ctx context.Context) error { return c.startLoad(ctx, force) })
}

func (c *Controller) StopMonitoring(ctx context.Context) error {
	return c.do(ctx, c.stopMonitoring)
}

// ToggleMonitoring stops monitoring when active, otherwise loads the active
// file, which switches to monitoring once the load completes.
func (c *Controller) ToggleMonitoring(ctx context.Context) error {
	return c.do(ctx, c.toggleMonitoring)
}

// ClearLogs empties the buffer and makes the next load a full reload.
func (c *Controller) ClearLogs(ctx context.Context) error {
	return c.do(ctx, c.clearLogs)
}

// CancelLoading asks the backend to cancel a running load. It is a no-op when
// nothing is loading.
func (c *Controller) CancelLoading(ctx context.Context) error {
	return c.do(ctx, c.cancelLoading)
}

// Sync returns once every input queued before it has been handled.
func (c *Controller) Sync(ctx context.Context) error {
	return c.do(ctx, func(context.Context) error { return nil })
}

func (c *Controller) selectFile(ctx context.Context, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return ErrEmptyPath
	}
	st := c.State()
	switch st.Phase {
	case model.PhaseMonitoring:
		_ = c.call(ctx, opStopMonitoring, c.link.StopMonitoring)
	case model.PhaseLoading:
		_ = c.call(ctx, opCancelLoading, c.link.CancelLoad, backend.ErrNotLoading)
	}
	c.clearBuffer("file switched")
	c.forceReload = true
	if err := c.call(ctx, opSetCurrentFile, func(ctx context.Context) error {
		return c.link.SetActiveFile(ctx, path)
	}); err != nil {
		c.setState(model.Idle(st.ActiveFile))
		return err
	}
	c.setState(model.Idle(path))
	return c.startLoad(ctx, true)
}

func (c *Controller) startLoad(ctx context.Context, force bool) error {
	st := c.State()
	if st.ActiveFile == "" {
		return ErrNoActiveFile
	}
	switch st.Phase {
	case model.PhaseLoading:
		return ErrAlreadyLoading
	case model.PhaseMonitoring:
		return ErrAlreadyMonitoring
	}
	var loading bool
	if err := c.call(ctx, opIsLoading, func(ctx context.Context) error {
		var err error
		loading, err = c.link.IsLoading(ctx)
		return err
	}); err != nil {
		return err
	}
	if loading {
		return ErrAlreadyLoading
	}
	reloadAll := force || c.forceReload || st.LoadedLines == st.TotalLines
	if err := c.call(ctx, opStartLoading, func(ctx context.Context) error {
		return c.link.StartLoad(ctx, st.ActiveFile, reloadAll)
	}); err != nil {
		return err
	}
	c.forceReload = false
	c.setState(model.Loading(st.ActiveFile, reloadAll))
	return nil
}

func (c *Controller) stopMonitoring(ctx context.Context) error {
	st := c.State()
	if st.Phase != model.PhaseMonitoring {
		return ErrNotMonitoring
	}
	if err := c.call(ctx, opStopMonitoring, c.link.StopMonitoring); err != nil {
		return err
	}
	st.Phase = model.PhaseIdle
	c.setState(st)
	return nil
}

func (c *Controller) toggleMonitoring(ctx context.Context) error {
	st := c.State()
	if st.ActiveFile == "" {
		return ErrNoActiveFile
	}
	switch st.Phase {
	case model.PhaseMonitoring:
		return c.stopMonitoring(ctx)
	case model.PhaseLoading:
		return ErrAlreadyLoading
	}
	return c.startLoad(ctx, false)
}

func (c *Controller) clearLogs(ctx context.Context) error {
	st := c.State()
	c.clearBuffer("clear requested")
	c.forceReload = true
	st.LoadedLines, st.TotalLines = 0, 0
	c.setState(st)
	if st.Phase == model.PhaseLoading {
		return c.call(ctx, opCancelLoading, c.link.CancelLoad, backend.ErrNotLoading)
	}
	if st.ActiveFile == "" {
		return nil
	}
	return c.call(ctx, opSetCurrentFile, func(ctx context.Context) error {
		return c.link.SetActiveFile(ctx, st.ActiveFile)
	})
}

func (c *Controller) cancelLoading(ctx context.Context) error {
	var loading bool
	if err := c.call(ctx, opIsLoading, func(ctx context.Context) error {
		var err error
		loading, err = c.link.IsLoading(ctx)
		return err
	}); err != nil {
		return err
	}
	if !loading {
		return nil
	}
	return c.call(ctx, opCancelLoading, c.link.CancelLoad, backend.ErrNotLoading)
}
