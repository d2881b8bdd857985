// Package ui renders run state for operators: a progress bar while a run
// executes, and text or Markdown summaries afterwards.
package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/bartekus/pipewright/internal/projection"
	"github.com/bartekus/pipewright/internal/runner"
)

// PrintReport writes a plain summary of the last run.
func PrintReport(w io.Writer, last *runner.LastRun, results []runner.StepResult) {
	if last == nil {
		fmt.Fprintln(w, "No run state found.")
		return
	}

	status := color.GreenString(last.Status)
	if !last.Succeeded() {
		status = color.RedString(last.Status)
	}
	fmt.Fprintf(w, "Pipeline: %s\n", orDash(last.Pipeline))
	if last.Event != "" {
		fmt.Fprintf(w, "Trigger:  %s to %s\n", last.Event, last.Branch)
	}
	fmt.Fprintf(w, "Status:   %s (%s)\n", status, last.State)

	for _, res := range results {
		fmt.Fprintf(w, "  %s %-30s %-9s %s\n", symbol(res.Status), res.Step, res.Stage, formatDuration(res.DurationMS))
	}

	if last.FailedStep == "" {
		fmt.Fprintln(w, "All steps passed.")
		return
	}
	fmt.Fprintf(w, "Failed:   %s (%s)\n", last.FailedStep, last.Category)
	for _, res := range results {
		if res.Step == last.FailedStep && res.Note != "" {
			fmt.Fprintln(w, res.Note)
		}
	}
}

// RenderMarkdown renders the last run as a Markdown step summary.
func RenderMarkdown(last *runner.LastRun, results []runner.StepResult) string {
	var b strings.Builder
	if last == nil {
		b.WriteString(projection.RenderHeader(2, "Pipeline"))
		b.WriteString("No run recorded.\n")
		return b.String()
	}

	b.WriteString(projection.RenderHeader(2, fmt.Sprintf("Pipeline %s: %s", orDash(last.Pipeline), last.Status)))

	var facts []string
	if last.Event != "" {
		facts = append(facts, fmt.Sprintf("**Trigger**: %s to `%s`", last.Event, last.Branch))
	}
	facts = append(facts, fmt.Sprintf("**State**: %s", last.State))
	if last.RunID != "" {
		facts = append(facts, fmt.Sprintf("**Run**: `%s`", last.RunID))
	}
	b.WriteString(projection.RenderList(facts))
	b.WriteString("\n")

	rows := make([][]string, 0, len(results))
	for _, res := range results {
		rows = append(rows, []string{
			res.Step,
			string(res.Stage),
			string(res.Status),
			fmt.Sprintf("%d", res.ExitCode),
			formatDuration(res.DurationMS),
		})
	}
	b.WriteString(projection.RenderTable([]string{"Step", "Stage", "Status", "Exit", "Duration"}, rows))

	for _, res := range results {
		if res.Step == last.FailedStep && res.Note != "" {
			b.WriteString("\n")
			b.WriteString(projection.RenderHeader(3, fmt.Sprintf("%s output (%s)", res.Step, last.Category)))
			b.WriteString(projection.RenderCodeBlock(res.Note))
		}
	}
	return b.String()
}

func symbol(s runner.StepStatus) string {
	switch s {
	case runner.StatusPass:
		return color.GreenString("[✓]")
	case runner.StatusFail:
		return color.RedString("[x]")
	case runner.StatusSkip:
		return color.YellowString("[s]")
	}
	return "[?]"
}

func formatDuration(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).Round(time.Millisecond).String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
