package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"B3Sentinel/internal/model"
)

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#253951")).
			Padding(0, 1).
			MarginRight(1)
	symbolStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5DADE2"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8E8E93"))
	upStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#2ECC71"))
	downStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E74C3C"))
	flatStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#BDC3C7"))
)

func directionStyle(d model.Direction) lipgloss.Style {
	switch d {
	case model.Up:
		return upStyle
	case model.Down:
		return downStyle
	default:
		return flatStyle
	}
}

// RenderCards lays performance cards out in rows of perRow.
func RenderCards(cards []Card, perRow int) string {
	var rows []string
	for _, row := range Rows(cards, perRow) {
		blocks := make([]string, len(row))
		for i, c := range row {
			blocks[i] = cardStyle.Render(strings.Join([]string{
				symbolStyle.Render(c.Symbol),
				c.Name,
				labelStyle.Render("Initial ") + c.Initial,
				labelStyle.Render("Final   ") + c.Final,
				directionStyle(c.Direction).Render(c.Return),
			}, "\n"))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, blocks...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

// RenderRateCards lays the indicator cards out side by side.
func RenderRateCards(cards []RateCard) string {
	blocks := make([]string, len(cards))
	for i, c := range cards {
		blocks[i] = cardStyle.Render(strings.Join([]string{
			symbolStyle.Render(string(c.Indicator)) + labelStyle.Render(" - "+c.DateText()),
			c.ValueText(),
			"",
			strings.TrimRight(c.Expectation, "\n "),
		}, "\n"))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, blocks...)
}

// RenderAssumptions lists the rate assumptions one per line.
func RenderAssumptions(items []Assumption) string {
	lines := make([]string, len(items))
	for i, a := range items {
		lines[i] = labelStyle.Render(a.Label+": ") + fmt.Sprintf("%.1f%% of CDI = ", a.Percent) + a.AnnualText()
	}
	return strings.Join(lines, "\n")
}
