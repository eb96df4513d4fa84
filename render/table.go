package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/warp/quota-tracker/generic"
	"github.com/warp/quota-tracker/tracker"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#CCE5FF")).
			Align(lipgloss.Center)
	cellStyle = lipgloss.NewStyle().Align(lipgloss.Center)
	boxStyle  = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#808080"))
	alertStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#D62728"))
)

var summaryHeaders = []string{"Monthly Quota", "Delivered", "%D", "Forecast", "%F"}

// SummaryTable renders the monthly KPI record as a boxed terminal table.
func SummaryTable(d *tracker.Dashboard) string {
	values := []string{
		d.Display.MonthlyQuota,
		d.Display.Delivered,
		d.Display.PercentDelivered,
		d.Display.Forecast,
		d.Display.PercentForecast,
	}
	cols := make([]string, len(values))
	for i, v := range values {
		w := max(len(summaryHeaders[i]), len(v)) + 2
		cols[i] = lipgloss.JoinVertical(lipgloss.Center,
			headerStyle.Width(w).Render(summaryHeaders[i]),
			cellStyle.Width(w).Render(v),
		)
	}

	latest := "n/a"
	if d.LatestDay != nil {
		latest = d.LatestDay.Format(generic.DateLayout)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		fmt.Sprintf("Latest Day Considered: %s", titleStyle.Render(latest)),
		titleStyle.Render("Monthly KPI Summary"),
		boxStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, cols...)),
	)
}

// ChartTable lists a chart's series as text rows: label, prior, current, required.
func ChartTable(c generic.ChartSpec) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(c.Title))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%-8s %10s %10s %12s\n", "Period", fmt.Sprint(c.PriorYear), fmt.Sprint(c.CurrentYear), "Required")
	required := c.RequiredSeries()
	for i, l := range c.Labels {
		prior := mutedStyle.Render(fmt.Sprintf("%10s", cell(c.Prior[i])))
		current := fmt.Sprintf("%10s", cell(c.Current[i]))
		req := ""
		if required[i] != nil {
			req = alertStyle.Render(fmt.Sprintf("%12s", tracker.FormatCount(c.Required)))
		}
		fmt.Fprintf(&b, "%-8s %s %s %s\n", l, prior, current, req)
	}
	return b.String()
}

func cell(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}
