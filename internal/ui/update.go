package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"logtrail/internal/export"
	"logtrail/internal/model"
	"logtrail/internal/query"
	"logtrail/internal/stream"
	"logtrail/internal/util/logx"
)

const (
	chartHeight = 5
	// title, progress line, table header, footer and help
	chromeHeight = 5
)

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth, m.termHeight = msg.Width, msg.Height
		h := msg.Height - chartHeight - chromeHeight
		if h < 3 {
			h = 3
		}
		m.tbl.SetHeight(h)
		m.tbl.SetWidth(msg.Width)
		m.tbl.SetColumns(columns(msg.Width))
		m.help.Width = msg.Width
		m.modalVP.Width = max(20, msg.Width-8)
		m.modalVP.Height = max(5, msg.Height-8)
		m.dirty = true
		m.refresh()
		return m, nil

	case tickMsg:
		m.refresh()
		return m, tick()

	case updateMsg:
		m.applyUpdate(msg.u)
		return m, waitForUpdate(m.updates)

	case cmdResultMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("%s: %v", msg.op, msg.err))
		} else {
			m.setInfo(msg.op)
		}
		m.dirty = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if m.modal != modalNone {
			return m.updateModal(msg)
		}
		if m.mode != inputNone {
			return m.updateInput(msg)
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m *Model) applyUpdate(u stream.Update) {
	switch u.Kind {
	case stream.UpdateState:
		if u.State.ActiveFile != m.state.ActiveFile {
			m.dirty = true
		}
		m.state = u.State
	case stream.UpdateNotice:
		if u.Level == stream.NoticeError {
			m.setError(u.Text)
		} else {
			m.setInfo(u.Text)
		}
	case stream.UpdateLogs:
		m.dirty = true
	}
}

func (m *Model) updateKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	switch {
	case key.Matches(msg, k.Quit):
		return m, tea.Quit

	case key.Matches(msg, k.Open):
		m.mode = inputOpen
		m.input.Prompt = "open: "
		m.input.Placeholder = "path to log file"
		m.input.SetValue(m.state.ActiveFile)
		m.input.CursorEnd()
		return m, m.input.Focus()

	case key.Matches(msg, k.Search):
		m.mode = inputSearch
		m.input.Prompt = "/"
		m.input.Placeholder = "search... (text or /regex/)"
		m.input.SetValue(m.search)
		m.input.CursorEnd()
		return m, m.input.Focus()

	case key.Matches(msg, k.Monitor):
		return m, m.command("toggle monitoring", m.ctrl.ToggleMonitoring)

	case key.Matches(msg, k.Clear):
		return m, m.command("clear logs", m.ctrl.ClearLogs)

	case key.Matches(msg, k.Cancel):
		return m, m.command("cancel loading", m.ctrl.CancelLoading)

	case key.Matches(msg, k.Level):
		m.levelIdx = (m.levelIdx + 1) % (len(model.Levels) + 1)
		m.setInfo("level filter: " + m.levelLabel())
		m.dirty = true
		m.refresh()
		return m, nil

	case key.Matches(msg, k.Sort):
		m.sortField = nextSortField(m.sortField)
		m.tab = tabSorted
		m.setInfo("sort by " + m.sortField.String())
		m.dirty = true
		m.refresh()
		return m, nil

	case key.Matches(msg, k.Reverse):
		m.sortDesc = !m.sortDesc
		m.dirty = true
		m.refresh()
		return m, nil

	case key.Matches(msg, k.Tab):
		if m.tab == tabLive {
			m.tab = tabSorted
		} else {
			m.tab = tabLive
			m.follow = true
		}
		m.dirty = true
		m.refresh()
		return m, nil

	case key.Matches(msg, k.Copy):
		n, err := copyRecords(m.rows, m.redact)
		if err != nil {
			m.setError("copy failed: " + err.Error())
		} else {
			m.setInfo(fmt.Sprintf("copied %d lines to clipboard", n))
		}
		return m, nil

	case key.Matches(msg, k.Top):
		m.tbl.GotoTop()
		m.follow = false
		return m, nil

	case key.Matches(msg, k.Bottom):
		m.tbl.GotoBottom()
		m.follow = true
		return m, nil

	case key.Matches(msg, k.AppLogs):
		m.openModal(modalLogs, logx.Dump())
		m.modalVP.GotoBottom()
		return m, nil

	case key.Matches(msg, k.Help):
		m.help.ShowAll = true
		m.openModal(modalHelp, m.help.View(m.keys))
		m.help.ShowAll = false
		return m, nil

	case key.Matches(msg, k.Theme):
		m.dark = !m.dark
		m.styles = NewStyles(m.dark)
		m.applyTableStyles()
		return m, nil
	}

	var cmd tea.Cmd
	m.tbl, cmd = m.tbl.Update(msg)
	m.follow = m.atBottom()
	return m, cmd
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.mode == inputConfirm {
		switch {
		case key.Matches(msg, m.keys.Yes):
			path := m.pending
			m.endInput()
			return m, m.selectFile(path)
		case key.Matches(msg, m.keys.No):
			m.endInput()
			m.setInfo("file switch cancelled")
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		m.endInput()
		return m, nil
	case key.Matches(msg, m.keys.Confirm):
		value := strings.TrimSpace(m.input.Value())
		mode := m.mode
		m.endInput()
		switch mode {
		case inputSearch:
			m.search = value
			m.dirty = true
			m.refresh()
		case inputOpen:
			return m, m.requestOpen(value)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// requestOpen switches to path, asking first when a load or monitoring
// session of another file would be interrupted.
func (m *Model) requestOpen(path string) tea.Cmd {
	if path == "" {
		m.setError("no file given")
		return nil
	}
	if m.state.Phase != model.PhaseIdle {
		m.pending = path
		m.mode = inputConfirm
		return nil
	}
	return m.selectFile(path)
}

func (m *Model) selectFile(path string) tea.Cmd {
	m.lastFile = path
	m.follow = true
	return m.command("open "+path, func(ctx context.Context) error {
		return m.ctrl.SelectFile(ctx, path)
	})
}

func (m *Model) endInput() {
	m.mode = inputNone
	m.pending = ""
	m.input.Blur()
	m.input.Reset()
}

func (m *Model) updateModal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Quit),
		m.modal == modalHelp && key.Matches(msg, m.keys.Help),
		m.modal == modalLogs && key.Matches(msg, m.keys.AppLogs):
		m.modal = modalNone
		return m, nil
	}
	var cmd tea.Cmd
	m.modalVP, cmd = m.modalVP.Update(msg)
	return m, cmd
}

func (m *Model) openModal(kind modalKind, body string) {
	m.modal = kind
	m.modalVP.SetContent(body)
	m.modalVP.GotoTop()
}

// command runs fn against the controller off the update loop.
func (m *Model) command(op string, fn func(context.Context) error) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return cmdResultMsg{op: op, err: fn(ctx)}
	}
}

// refresh pulls state from the controller and rebuilds the rows when the
// buffer or the listing changed.
func (m *Model) refresh() {
	m.state = m.ctrl.State()
	m.stats = m.ctrl.Stats()
	v := m.ctrl.Version()
	if !m.dirty && v == m.version {
		return
	}
	rows, err := m.ctrl.Records(m.view())
	if err != nil {
		m.setError("filter: " + err.Error())
		return
	}
	m.rows = rows
	m.counts = m.ctrl.LevelCounts()
	m.version = v
	m.dirty = false
	m.applyRows()
}

func (m *Model) view() query.View {
	v := query.View{Search: m.search}
	if m.levelIdx > 0 {
		v.Levels = []string{model.Levels[m.levelIdx-1]}
	}
	if m.tab == tabSorted {
		v.Sort = m.sortField
		v.Descending = m.sortDesc
	}
	return v
}

func (m *Model) applyRows() {
	rows := make([]table.Row, len(m.rows))
	for i, r := range m.rows {
		rows[i] = table.Row{r.Timestamp, model.NormalizeLevel(r.Level), r.Message}
	}
	cursor := m.tbl.Cursor()
	m.tbl.SetRows(rows)
	switch {
	case len(rows) == 0:
		m.tbl.SetCursor(0)
	case m.tab == tabLive && m.follow:
		m.tbl.GotoBottom()
	case cursor >= len(rows):
		m.tbl.SetCursor(len(rows) - 1)
	}
}

func (m *Model) atBottom() bool {
	return len(m.rows) == 0 || m.tbl.Cursor() >= len(m.rows)-1
}

func (m *Model) levelLabel() string {
	if m.levelIdx == 0 {
		return "all"
	}
	return model.Levels[m.levelIdx-1]
}

func (m *Model) setInfo(s string) {
	m.lastMsg, m.lastErr = s, false
}

func (m *Model) setError(s string) {
	m.lastMsg, m.lastErr = s, true
}

func nextSortField(f query.SortField) query.SortField {
	switch f {
	case query.SortTimestamp:
		return query.SortLevel
	case query.SortLevel:
		return query.SortMessage
	}
	return query.SortTimestamp
}

func columns(width int) []table.Column {
	msg := width - 23 - 8 - 3
	if msg < 20 {
		msg = 20
	}
	return []table.Column{
		{Title: "time", Width: 23},
		{Title: "level", Width: 8},
		{Title: "message", Width: msg},
	}
}

// copyRecords puts recs on the clipboard in the [ts] [level] message form.
func copyRecords(recs []model.LogRecord, redact bool) (int, error) {
	if len(recs) == 0 {
		return 0, nil
	}
	if redact {
		recs = export.RedactRecords(recs)
	}
	if err := copyToClipboard(export.Text(recs)); err != nil {
		return 0, err
	}
	return len(recs), nil
}
