// Package email renders run summary notifications. Senders live in the
// ses and noop subpackages.
package email

import (
	"fmt"
	"html"
	"strings"
	"time"

	"lawnorm/internal/domain"
)

// Subject is the notification subject line for run.
func Subject(run *domain.ProcessingRun) string {
	return fmt.Sprintf("lawnorm run %s: %d translated, %d failed, %d skipped",
		run.Status, run.Succeeded, run.Failed, run.Skipped)
}

type line struct {
	label string
	value string
}

func lines(run *domain.ProcessingRun) []line {
	out := []line{
		{"Run", run.ID.String()},
		{"Worker", run.WorkerID},
		{"Status", string(run.Status)},
		{"Started", run.StartedAt.UTC().Format(time.RFC3339)},
	}
	if run.FinishedAt != nil {
		out = append(out,
			line{"Finished", run.FinishedAt.UTC().Format(time.RFC3339)},
			line{"Duration", run.FinishedAt.Sub(run.StartedAt).Round(time.Second).String()})
	}
	out = append(out,
		line{"Claimed", fmt.Sprint(run.Claimed)},
		line{"Translated", fmt.Sprint(run.Succeeded)},
		line{"Failed", fmt.Sprint(run.Failed)},
		line{"Permanently failed", fmt.Sprint(run.PermanentlyFailed)},
		line{"Skipped", fmt.Sprint(run.Skipped)},
		line{"LLM calls", fmt.Sprint(run.LLMCalls)},
		line{"Model", run.ModelName},
	)
	if run.Error != nil {
		out = append(out, line{"Error", *run.Error})
	}
	return out
}

// TextBody is the plain-text summary.
func TextBody(run *domain.ProcessingRun) string {
	var b strings.Builder
	for _, l := range lines(run) {
		fmt.Fprintf(&b, "%s: %s\n", l.label, l.value)
	}
	return b.String()
}

// HTMLBody is the same summary as a table.
func HTMLBody(run *domain.ProcessingRun) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Normalization run summary</h2>
  <table style="border-collapse: collapse;">
`)
	for _, l := range lines(run) {
		fmt.Fprintf(&b, "    <tr><td style=\"padding: 4px 12px 4px 0; color: #666;\">%s</td><td>%s</td></tr>\n",
			html.EscapeString(l.label), html.EscapeString(l.value))
	}
	b.WriteString(`  </table>
</body>
</html>`)
	return b.String()
}
