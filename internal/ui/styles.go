package ui

import "github.com/charmbracelet/lipgloss"

type Styles struct {
	Title       lipgloss.Style
	Status      lipgloss.Style
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	Help        lipgloss.Style
	Info        lipgloss.Style
	Error       lipgloss.Style
	Prompt      lipgloss.Style
	PopupBox    lipgloss.Style
	PopupTitle  lipgloss.Style
	Selected    lipgloss.Style
	Level       map[string]lipgloss.Style
	Phase       map[string]lipgloss.Style
}

func NewStyles(dark bool) Styles {
	s := Styles{}
	if dark {
		s.Title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
		s.Status = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
		s.TabActive = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
		s.TabInactive = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
		s.Help = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
		s.Prompt = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220"))
		s.PopupBox = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("60")).Padding(1, 2)
		s.PopupTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
		s.Selected = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("220"))
	} else {
		s.Title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("27"))
		s.Status = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		s.TabActive = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("27"))
		s.TabInactive = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		s.Help = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
		s.Prompt = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("130"))
		s.PopupBox = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("12")).Padding(1, 2)
		s.PopupTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("27"))
		s.Selected = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("27"))
	}
	s.Info = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	s.Error = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	s.Level = map[string]lipgloss.Style{
		"TRACE":   lipgloss.NewStyle().Foreground(lipgloss.Color("242")),
		"DEBUG":   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		"INFO":    lipgloss.NewStyle().Foreground(lipgloss.Color("45")),
		"WARNING": lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		"ERROR":   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	}
	s.Phase = map[string]lipgloss.Style{
		"idle":       lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		"loading":    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")),
		"monitoring": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
	}
	return s
}

// levelStyle falls back to the status style for levels without a color.
func (s Styles) levelStyle(level string) lipgloss.Style {
	if st, ok := s.Level[level]; ok {
		return st
	}
	return s.Status
}
