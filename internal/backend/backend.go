// Package backend defines the contract between the stream controller and
// whatever actually reads log files: the commands the controller may issue
// and the events the backend pushes back.
package backend

import (
	"context"
	"errors"

	"logtrail/internal/pubsub"
)

var (
	// ErrLoadInProgress is returned by StartLoad while another load runs.
	ErrLoadInProgress = errors.New("backend: load already in progress")
	// ErrNotLoading is returned by CancelLoad when nothing is loading.
	ErrNotLoading = errors.New("backend: no load in progress")
)

// Link is the command and event surface of a backend. Commands are request
// and response; events arrive asynchronously on subscriber callbacks and may
// interleave with command responses.
type Link interface {
	// SetActiveFile makes path current and resets the backend's continuation
	// offset and fingerprint.
	SetActiveFile(ctx context.Context, path string) error
	ActiveFile(ctx context.Context) (string, error)
	// StartLoad begins an asynchronous batched read of path. With reloadAll
	// the read starts at offset zero; otherwise it continues from the last
	// consumed offset when that is still valid.
	StartLoad(ctx context.Context, path string, reloadAll bool) error
	CancelLoad(ctx context.Context) error
	IsLoading(ctx context.Context) (bool, error)
	// StartMonitoring tails path for appended lines. It is a no-op when path
	// is already being monitored.
	StartMonitoring(ctx context.Context, path string) error
	StopMonitoring(ctx context.Context) error

	Subscribe(fn func(Event)) pubsub.Token
	Unsubscribe(tok pubsub.Token)
}
