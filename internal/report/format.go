package report

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"EarningsChart/internal/model"
	"EarningsChart/internal/recorder"
)

var (
	bold  = color.New(color.Bold).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
	up    = color.New(color.FgGreen).SprintfFunc()
	down  = color.New(color.FgRed).SprintfFunc()
)

// signedPct colors a percentage by its sign.
func signedPct(v float64) string {
	if v < 0 {
		return down("%+.2f%%", v)
	}
	return up("%+.2f%%", v)
}

// FormatReport renders a chart report as a short terminal summary.
func FormatReport(r *model.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s | earnings %s", bold(r.Ticker), r.EarningsDate))
	if r.RequestedDate != r.EarningsDate {
		b.WriteString(faint(fmt.Sprintf(" (requested %s)", r.RequestedDate)))
	}
	b.WriteString("\n\n")

	b.WriteString(fmt.Sprintf("Earnings close: %.2f\n", r.EarningsPrice))
	b.WriteString(fmt.Sprintf("Latest close:   %.2f (%s)\n", r.LatestPrice, r.LatestDate))
	b.WriteString(fmt.Sprintf("Change:         %s\n", signedPct(r.PriceChangePct)))
	if r.NextDayChangePct != nil {
		b.WriteString(fmt.Sprintf("Next day:       %s\n", signedPct(*r.NextDayChangePct)))
	} else {
		b.WriteString(fmt.Sprintf("Next day:       %s\n", faint("n/a")))
	}
	b.WriteString(fmt.Sprintf("Range:          %.2f - %.2f (%.2f)\n", r.MinPrice, r.MaxPrice, r.PriceRange))
	b.WriteString(faint(fmt.Sprintf("%d trading days from %s", len(r.Data), r.Source)))
	b.WriteString("\n")
	return b.String()
}

// FormatHistory renders recent lookups one per line, newest first.
func FormatHistory(events []recorder.LookupEvent) string {
	if len(events) == 0 {
		return "No lookups recorded.\n"
	}
	var b strings.Builder
	for _, e := range events {
		line := fmt.Sprintf("%s  %-6s %s", e.Timestamp.Local().Format("2006-01-02 15:04"), e.Ticker, e.RequestedDate)
		if e.Outcome != "ok" {
			b.WriteString(fmt.Sprintf("%s  %s\n", line, down("%s", e.Outcome)))
			continue
		}
		b.WriteString(fmt.Sprintf("%s -> %s  %s\n", line, e.ResolvedDate, signedPct(e.PriceChangePct)))
	}
	return b.String()
}
