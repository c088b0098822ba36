package ui

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"logtrail/internal/model"
	"logtrail/internal/pubsub"
	"logtrail/internal/query"
	"logtrail/internal/stream"
)

// Controller is the part of stream.Controller the viewer uses.
type Controller interface {
	State() model.StreamState
	Stats() stream.Stats
	Version() uint64
	LevelCounts() map[string]int
	Records(v query.View) ([]model.LogRecord, error)

	SelectFile(ctx context.Context, path string) error
	ToggleMonitoring(ctx context.Context) error
	ClearLogs(ctx context.Context) error
	CancelLoading(ctx context.Context) error

	Subscribe(fn func(stream.Update)) pubsub.Token
	Unsubscribe(tok pubsub.Token)
}

type tab int

const (
	tabLive tab = iota
	tabSorted
)

func (t tab) String() string {
	if t == tabSorted {
		return "sorted"
	}
	return "live"
}

type inputMode int

const (
	inputNone inputMode = iota
	inputOpen
	inputSearch
	inputConfirm
)

type modalKind int

const (
	modalNone modalKind = iota
	modalHelp
	modalLogs
)

type Model struct {
	ctx     context.Context
	ctrl    Controller
	updates <-chan stream.Update

	// Controller view, refreshed on tick and on updates
	state   model.StreamState
	stats   stream.Stats
	version uint64
	rows    []model.LogRecord
	counts  map[string]int
	dirty   bool

	// Listing
	tab       tab
	levelIdx  int // 0 = all levels, otherwise model.Levels[levelIdx-1]
	search    string
	sortField query.SortField
	sortDesc  bool
	follow    bool

	// UI
	styles   Styles
	dark     bool
	keys     keyMap
	help     help.Model
	tbl      table.Model
	input    textinput.Model
	prog     progress.Model
	modal    modalKind
	modalVP  viewport.Model
	mode     inputMode
	pending  string // path waiting for switch confirmation
	lastFile string
	redact   bool

	lastMsg string
	lastErr bool

	termWidth  int
	termHeight int
}

type tickMsg struct{}

type updateMsg struct{ u stream.Update }

type cmdResultMsg struct {
	op  string
	err error
}
