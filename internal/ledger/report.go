package ledger

import (
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var tokenPrinter = message.NewPrinter(language.English)

// FormatTokens renders a token count with thousands separators.
func FormatTokens(n int64) string {
	return tokenPrinter.Sprintf("%d", n)
}

// FormatCost renders a dollar amount the way cost summaries print it.
func FormatCost(usd float64) string {
	return fmt.Sprintf("$%.4f", usd)
}

// FormatElapsed renders a duration with sub-second precision.
func FormatElapsed(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// Report renders the per-stage usage table with aggregate footer.
func (l *Ledger) Report() string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Stage", "Calls", "Input", "Output", "API Time", "Cost"})

	for _, stage := range l.Stages() {
		tw.AppendRow(table.Row{
			stage.Stage,
			stage.Calls,
			FormatTokens(stage.InputTokens),
			FormatTokens(stage.OutputTokens),
			FormatElapsed(stage.Elapsed),
			FormatCost(l.pricing.Cost(stage.InputTokens, stage.OutputTokens)),
		})
	}

	totals := l.Totals()
	tw.AppendFooter(table.Row{
		"total",
		totals.Calls,
		FormatTokens(totals.InputTokens),
		FormatTokens(totals.OutputTokens),
		FormatElapsed(totals.Elapsed),
		FormatCost(l.TotalCost()),
	})

	configs := make([]table.ColumnConfig, 0, 6)
	for i := 2; i <= 6; i++ {
		configs = append(configs, table.ColumnConfig{
			Number:      i,
			Align:       text.AlignRight,
			AlignFooter: text.AlignRight,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}
