package stream

import (
	"errors"
	"fmt"
)

var (
	ErrNoActiveFile      = errors.New("no active file")
	ErrAlreadyLoading    = errors.New("a load is already in progress")
	ErrNotMonitoring     = errors.New("not monitoring")
	ErrAlreadyMonitoring = errors.New("already monitoring")
	ErrEmptyPath         = errors.New("empty file path")
	ErrStopped           = errors.New("controller stopped")
)

// CommandError reports a failed backend command. Op is the backend command
// name (set_current_file, start_file_loading, ...).
type CommandError struct {
	Op  string
	Err error
}

func (e *CommandError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *CommandError) Unwrap() error { return e.Err }

// IsConflict reports whether err means the command was refused because of
// the current state rather than because the backend failed.
func IsConflict(err error) bool {
	return errors.Is(err, ErrNoActiveFile) ||
		errors.Is(err, ErrAlreadyLoading) ||
		errors.Is(err, ErrNotMonitoring) ||
		errors.Is(err, ErrAlreadyMonitoring)
}
