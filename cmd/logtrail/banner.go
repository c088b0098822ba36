package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"logtrail/internal/config"
	"logtrail/internal/version"
)

func printStartupBanner(cfg *config.Config, file string) {
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	cyan := lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	bold := lipgloss.NewStyle().Bold(true)

	check := green.Render("●")
	dot := dim.Render("●")

	lines := []string{
		"",
		"    " + cyan.Bold(true).Render("logtrail") + " " + dim.Render(version.String()),
		dim.Render("    ─────────────────────────────────"),
		"",
		bold.Render("    Headless"),
		"",
		fmt.Sprintf("    %s  HTTP API       %s", check, cyan.Render("http://"+cfg.APIAddr+"/api")),
	}
	if file != "" {
		lines = append(lines, fmt.Sprintf("    %s  File           %s", check, cyan.Render(file)))
	} else {
		lines = append(lines, fmt.Sprintf("    %s  File           %s", dot, dim.Render("none (POST /api/select)")))
	}
	lines = append(lines,
		fmt.Sprintf("    %s  Buffer         %s", check, dim.Render(fmt.Sprintf("%d entries", cfg.MaxEntries))),
		"",
		dim.Render("    Ctrl+C to stop"),
		"",
	)
	fmt.Println(strings.Join(lines, "\n"))
}
