package stream

import "logtrail/internal/model"

type UpdateKind int

const (
	UpdateState UpdateKind = iota
	UpdateLogs
	UpdateNotice
)

type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeError
)

func (l NoticeLevel) String() string {
	if l == NoticeError {
		return "error"
	}
	return "info"
}

// Update is pushed to presentation subscribers.
type Update struct {
	Kind    UpdateKind
	State   model.StreamState // UpdateState
	Version uint64            // UpdateLogs
	Level   NoticeLevel       // UpdateNotice
	Text    string            // UpdateNotice
	Err     error             // UpdateNotice, when caused by an error
}
