package report

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"B3Sentinel/internal/model"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#253951"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

// RenderComposition lists the index constituents.
func RenderComposition(tickers []model.Ticker) string {
	t := newTable("Symbol", "Name", "Type", "Part. (%)")
	for _, tk := range tickers {
		t.Row(tk.YahooSymbol, tk.Name, tk.Type, formatWeight(tk.Weight))
	}
	return t.String()
}

// RenderPrices lists the last n rows of a price table. n <= 0 lists every row.
func RenderPrices(pt *model.PriceTable, n int) string {
	t := newTable(append([]string{"Date"}, pt.Columns...)...)
	from := 0
	if n > 0 && pt.Len() > n {
		from = pt.Len() - n
	}
	for i := from; i < pt.Len(); i++ {
		row := []string{pt.Dates[i].Format(time.DateOnly)}
		for _, c := range pt.Columns {
			v := pt.Values[c][i]
			if model.Missing(v) {
				row = append(row, "-")
				continue
			}
			row = append(row, fmt.Sprintf("%.2f", v))
		}
		t.Row(row...)
	}
	return t.String()
}

func formatWeight(v float64) string {
	return fmt.Sprintf("%.3f", v)
}
