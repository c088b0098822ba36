package model

import "fmt"

// Phase is the controller's lifecycle phase.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseMonitoring
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseMonitoring:
		return "monitoring"
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// StreamState is the controller's observable state. ActiveFile is empty when
// no file is selected. LoadedLines and TotalLines describe the most recent
// load and survive the transition out of loading, since the next load uses
// them to decide between a full reload and a continuation.
type StreamState struct {
	Phase       Phase  `json:"phase"`
	ActiveFile  string `json:"active_file"`
	LoadedLines uint64 `json:"loaded_lines"`
	TotalLines  uint64 `json:"total_lines"`
	ReloadAll   bool   `json:"reload_all"`
}

func Idle(path string) StreamState { return StreamState{Phase: PhaseIdle, ActiveFile: path} }

func Loading(path string, reloadAll bool) StreamState {
	return StreamState{Phase: PhaseLoading, ActiveFile: path, ReloadAll: reloadAll}
}

func Monitoring(path string) StreamState {
	return StreamState{Phase: PhaseMonitoring, ActiveFile: path}
}

// Progress returns loaded/total as a fraction in [0,1]. An unknown total
// reports zero.
func (s StreamState) Progress() float64 {
	if s.TotalLines == 0 {
		return 0
	}
	p := float64(s.LoadedLines) / float64(s.TotalLines)
	if p > 1 {
		return 1
	}
	return p
}

func (s StreamState) String() string {
	switch s.Phase {
	case PhaseLoading:
		return fmt.Sprintf("loading %s (%d/%d)", s.ActiveFile, s.LoadedLines, s.TotalLines)
	case PhaseMonitoring:
		return "monitoring " + s.ActiveFile
	}
	if s.ActiveFile == "" {
		return "idle"
	}
	return "idle " + s.ActiveFile
}
