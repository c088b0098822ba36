package ui

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"

	"logtrail/internal/model"
)

func (m *Model) View() string {
	if m.termWidth == 0 {
		return "starting..."
	}
	base := lipgloss.JoinVertical(lipgloss.Left,
		m.renderTitle(),
		m.renderProgress(),
		m.renderChart(m.termWidth),
		m.tbl.View(),
		m.renderFooter(),
		m.styles.Help.Render(m.help.View(m.keys)),
	)
	if m.modal == modalNone {
		return base
	}
	return overlay(base, m.renderModal())
}

func (m *Model) renderTitle() string {
	phase := m.state.Phase.String()
	file := m.state.ActiveFile
	if file == "" {
		file = "no file (press o to open)"
	}
	tabs := make([]string, 0, 2)
	for _, t := range []tab{tabLive, tabSorted} {
		label := t.String()
		if t == tabSorted {
			dir := "asc"
			if m.sortDesc {
				dir = "desc"
			}
			label = fmt.Sprintf("%s (%s %s)", label, m.sortField, dir)
		}
		if t == m.tab {
			tabs = append(tabs, m.styles.TabActive.Render("["+label+"]"))
		} else {
			tabs = append(tabs, m.styles.TabInactive.Render(" "+label+" "))
		}
	}
	return strings.Join([]string{
		m.styles.Title.Render("logtrail"),
		m.styles.Phase[phase].Render(phase),
		file,
		strings.Join(tabs, " "),
	}, "  ")
}

func (m *Model) renderProgress() string {
	st := m.state
	switch st.Phase {
	case model.PhaseLoading:
		pct := st.Progress()
		return fmt.Sprintf("%s %3.0f%%  %d/%d lines", m.prog.ViewAs(pct), pct*100, st.LoadedLines, st.TotalLines)
	case model.PhaseMonitoring:
		return m.styles.Status.Render(fmt.Sprintf("following new lines  %d/%d buffered", m.stats.Buffered, m.stats.Capacity))
	}
	return m.styles.Status.Render(fmt.Sprintf("%d/%d buffered", m.stats.Buffered, m.stats.Capacity))
}

func (m *Model) renderFooter() string {
	switch m.mode {
	case inputOpen, inputSearch:
		return m.input.View()
	case inputConfirm:
		return m.styles.Prompt.Render(fmt.Sprintf("switch from %s to %s? this stops the current %s (y/n)",
			m.state.ActiveFile, m.pending, m.state.Phase))
	}
	left := fmt.Sprintf("%d shown  level: %s", len(m.rows), m.levelLabel())
	if m.search != "" {
		left += "  search: " + m.search
	}
	if m.stats.Duplicates > 0 || m.stats.Evicted > 0 {
		left += fmt.Sprintf("  dup: %d  evicted: %d", m.stats.Duplicates, m.stats.Evicted)
	}
	left = m.styles.Status.Render(left)
	if m.lastMsg == "" {
		return left
	}
	msg := m.styles.Info.Render(m.lastMsg)
	if m.lastErr {
		msg = m.styles.Error.Render(m.lastMsg)
	}
	return left + "  " + msg
}

func (m *Model) renderModal() string {
	title := "Help"
	if m.modal == modalLogs {
		title = "Application logs"
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.PopupTitle.Render(title),
		m.modalVP.View(),
		m.styles.Help.Render("esc to close"),
	)
	return m.styles.PopupBox.Render(body)
}

func overlay(base, top string) string {
	bLines := strings.Split(base, "\n")
	oLines := strings.Split(top, "\n")
	for len(bLines) < len(oLines) {
		bLines = append(bLines, "")
	}
	for i, l := range oLines {
		// whitespace-only overlay lines are transparent
		if strings.TrimSpace(l) != "" {
			bLines[i] = l
		}
	}
	return strings.Join(bLines, "\n")
}

// copyToClipboard uses the system clipboard and falls back to an OSC52
// escape for terminals without one (ssh sessions, containers).
func copyToClipboard(s string) error {
	if !clipboard.Unsupported {
		if err := clipboard.WriteAll(s); err == nil {
			return nil
		}
	}
	payload := fmt.Sprintf("\x1b]52;c;%s\x07", base64.StdEncoding.EncodeToString([]byte(s)))
	f, err := os.OpenFile("/dev/tty", os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("no clipboard available: %w", err)
	}
	defer f.Close()
	_, err = f.WriteString(payload)
	return err
}
