package components

import (
	"fmt"

	"nathanbeddoewebdev/devsweep/internal/tui/styles"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
)

// CountBar is one labelled bar in a distribution chart.
type CountBar struct {
	Label string
	Count float64
	Style lipgloss.Style
}

// DistributionChart renders a labelled bar chart of counts with a header
// and a totals line. Returns a muted placeholder if there is no data.
func DistributionChart(label string, bars []CountBar, width, height int) string {
	if len(bars) == 0 {
		return styles.MutedText.Render(label + ": no data")
	}
	if width < 10 {
		width = 10
	}
	if height < 3 {
		height = 3
	}

	bc := barchart.New(width, height)
	data := make([]barchart.BarData, 0, len(bars))
	total := 0.0
	for _, b := range bars {
		total += b.Count
		data = append(data, barchart.BarData{
			Label: b.Label,
			Values: []barchart.BarValue{
				{Name: b.Label, Value: b.Count, Style: b.Style},
			},
		})
	}
	bc.PushAll(data)
	bc.Draw()

	header := styles.Label.Render(label)
	legend := renderLegend(bars, total)
	return lipgloss.JoinVertical(lipgloss.Left, header, bc.View(), legend)
}

// renderLegend lists each bar's label and count below the chart, since
// narrow bars truncate their own labels.
func renderLegend(bars []CountBar, total float64) string {
	out := ""
	for i, b := range bars {
		if i > 0 {
			out += styles.KeySepStyle.Render("  ")
		}
		out += b.Style.Render("■") + " " + styles.MutedText.Render(fmt.Sprintf("%s %d", b.Label, int(b.Count)))
	}
	out += styles.KeySepStyle.Render("  ") + styles.MutedText.Render(fmt.Sprintf("total %d", int(total)))
	return out
}
