package ui

import (
	"fmt"
	"strings"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"

	"logtrail/internal/model"
)

// renderChart draws one bar per level next to a legend with the counts.
func (m *Model) renderChart(width int) string {
	legend := m.renderLegend()
	chartWidth := width - lipgloss.Width(legend) - 2
	if chartWidth < 15 {
		return legend
	}
	if chartWidth > 60 {
		chartWidth = 60
	}
	barWidth := (chartWidth - len(model.Levels)) / len(model.Levels)
	if barWidth < 1 {
		barWidth = 1
	}

	bc := barchart.New(chartWidth, chartHeight,
		barchart.WithBarGap(1),
		barchart.WithBarWidth(barWidth),
		barchart.WithNoAxis(),
	)
	for _, lvl := range model.Levels {
		style := m.styles.levelStyle(lvl)
		bc.Push(barchart.BarData{
			Values: []barchart.BarValue{{
				Name:  lvl,
				Value: float64(m.counts[lvl]),
				Style: style.Background(style.GetForeground()),
			}},
		})
	}
	bc.Draw()
	return lipgloss.JoinHorizontal(lipgloss.Top, bc.View(), "  ", legend)
}

func (m *Model) renderLegend() string {
	total := 0
	for _, n := range m.counts {
		total += n
	}
	lines := make([]string, 0, len(model.Levels))
	for _, lvl := range model.Levels {
		style := m.styles.levelStyle(lvl)
		lines = append(lines, fmt.Sprintf("%s %s", style.Render(fmt.Sprintf("%-7s", lvl)), fmt.Sprint(m.counts[lvl])))
	}
	if other := total - knownCount(m.counts); other > 0 {
		lines[len(lines)-1] += fmt.Sprintf("  other %d", other)
	}
	return strings.Join(lines, "\n")
}

func knownCount(counts map[string]int) int {
	n := 0
	for _, lvl := range model.Levels {
		n += counts[lvl]
	}
	return n
}
