// Package ui is the terminal log viewer. It reads the stream controller's
// buffer and state, and turns key presses into controller commands.
package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"logtrail/internal/config"
	"logtrail/internal/prefs"
	"logtrail/internal/query"
	"logtrail/internal/stream"
	"logtrail/internal/util/logx"
)

const tickInterval = 200 * time.Millisecond

func initialModel(ctx context.Context, cfg *config.Config, ctrl Controller, p prefs.Prefs, updates <-chan stream.Update) *Model {
	theme := p.Theme
	if theme == "" {
		theme = string(cfg.Theme)
	}
	sortField, err := query.ParseSortField(p.SortField)
	if err != nil || sortField == query.SortArrival {
		sortField = query.SortTimestamp
	}
	m := &Model{
		ctx:       ctx,
		ctrl:      ctrl,
		updates:   updates,
		tab:       tabLive,
		sortField: sortField,
		sortDesc:  p.SortDesc,
		follow:    true,
		dark:      theme != string(config.ThemeLight),
		keys:      defaultKeyMap(),
		help:      help.New(),
		input:     textinput.New(),
		prog:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		lastFile:  p.LastFile,
		redact:    cfg.Redact,
		dirty:     true,
	}
	m.styles = NewStyles(m.dark)
	m.input.CharLimit = 1024
	m.modalVP = viewport.New(80, 20)

	m.tbl = table.New(
		table.WithColumns(columns(100)),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	m.applyTableStyles()
	m.refresh()
	return m
}

func (m *Model) applyTableStyles() {
	ts := table.DefaultStyles()
	ts.Header = lipgloss.NewStyle().Bold(true).PaddingRight(1)
	ts.Cell = lipgloss.NewStyle().PaddingRight(1)
	ts.Selected = m.styles.Selected
	m.tbl.SetStyles(ts)
}

// Run shows the viewer until the user quits or ctx is done, and returns the
// preferences to remember for the next run.
func Run(ctx context.Context, cfg *config.Config, ctrl Controller, p prefs.Prefs) (prefs.Prefs, error) {
	updates := make(chan stream.Update, 256)
	tok := ctrl.Subscribe(func(u stream.Update) {
		// Logs updates are picked up by the tick; the rest must not block
		// the controller loop.
		if u.Kind == stream.UpdateLogs {
			return
		}
		select {
		case updates <- u:
		default:
			logx.Debugf("ui: update queue full, dropped %v", u.Kind)
		}
	})
	defer ctrl.Unsubscribe(tok)

	m := initialModel(ctx, cfg, ctrl, p, updates)
	prog := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	_, err := prog.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		err = nil
	}
	return m.Prefs(), err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(tick(), waitForUpdate(m.updates))
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

func waitForUpdate(ch <-chan stream.Update) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		u, ok := <-ch
		if !ok {
			return nil
		}
		return updateMsg{u: u}
	}
}

// Prefs is what the viewer wants remembered.
func (m *Model) Prefs() prefs.Prefs {
	last := m.state.ActiveFile
	if last == "" {
		last = m.lastFile
	}
	theme := string(config.ThemeDark)
	if !m.dark {
		theme = string(config.ThemeLight)
	}
	return prefs.Prefs{
		LastFile:  last,
		Theme:     theme,
		SortField: m.sortField.String(),
		SortDesc:  m.sortDesc,
	}
}
