package backend

import (
	"fmt"

	"logtrail/internal/model"
)

type EventKind int

const (
	EventNewLogsBatch EventKind = iota
	EventLoadProgress
	EventLoadingSuccess
	EventLoadingCancelled
	EventLoadingError
	EventFileTruncated
	EventFileCleared
	EventAlreadyLoaded
	EventMonitoringError
)

var kindNames = [...]string{
	EventNewLogsBatch:     "new_logs_batch",
	EventLoadProgress:     "load_progress",
	EventLoadingSuccess:   "loading_success",
	EventLoadingCancelled: "loading_cancelled",
	EventLoadingError:     "loading_error",
	EventFileTruncated:    "file_truncated",
	EventFileCleared:      "file_cleared",
	EventAlreadyLoaded:    "loading_already_loaded",
	EventMonitoringError:  "monitoring_error",
}

func (k EventKind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("event(%d)", int(k))
}

// Event is one asynchronous notification from the backend. Path names the
// file the event concerns; an empty Path is treated as the active file.
type Event struct {
	Kind    EventKind
	Path    string
	Records []model.LogRecord // NewLogsBatch
	Current uint64            // LoadProgress
	Total   uint64            // LoadProgress
	Message string            // LoadingError, MonitoringError
}

func NewLogsBatch(path string, recs []model.LogRecord) Event {
	return Event{Kind: EventNewLogsBatch, Path: path, Records: recs}
}

func LoadProgress(path string, current, total uint64) Event {
	return Event{Kind: EventLoadProgress, Path: path, Current: current, Total: total}
}

func LoadingSuccess(path string) Event { return Event{Kind: EventLoadingSuccess, Path: path} }

func LoadingCancelled(path string) Event { return Event{Kind: EventLoadingCancelled, Path: path} }

func LoadingError(path, msg string) Event {
	return Event{Kind: EventLoadingError, Path: path, Message: msg}
}

func FileTruncated(path string) Event { return Event{Kind: EventFileTruncated, Path: path} }

func FileCleared(path string) Event { return Event{Kind: EventFileCleared, Path: path} }

func AlreadyLoaded(path string) Event { return Event{Kind: EventAlreadyLoaded, Path: path} }

func MonitoringError(path, msg string) Event {
	return Event{Kind: EventMonitoringError, Path: path, Message: msg}
}

func (e Event) String() string {
	switch e.Kind {
	case EventNewLogsBatch:
		return fmt.Sprintf("%s(%s, %d records)", e.Kind, e.Path, len(e.Records))
	case EventLoadProgress:
		return fmt.Sprintf("%s(%s, %d/%d)", e.Kind, e.Path, e.Current, e.Total)
	case EventLoadingError, EventMonitoringError:
		return fmt.Sprintf("%s(%s: %s)", e.Kind, e.Path, e.Message)
	}
	return fmt.Sprintf("%s(%s)", e.Kind, e.Path)
}
