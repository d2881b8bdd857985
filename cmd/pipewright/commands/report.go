package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bartekus/pipewright/internal/history"
	"github.com/bartekus/pipewright/internal/projection"
	"github.com/bartekus/pipewright/internal/runner"
	"github.com/bartekus/pipewright/internal/ui"
)

type reportOptions struct {
	json     bool
	markdown bool
	output   string
}

type runReport struct {
	Run   *runner.LastRun     `json:"run"`
	Steps []runner.StepResult `json:"steps"`
}

func newReportCmd(root *rootOptions) *cobra.Command {
	opts := &reportOptions{}
	cmd := &cobra.Command{
		Use:   "report [workspace]",
		Short: "Show the last run's status",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.newSession(cmd, workspaceArg(args))
			if err != nil {
				return err
			}
			last, err := s.store.ReadLastRun()
			if err != nil {
				return err
			}
			var results []runner.StepResult
			if last != nil {
				if results, err = s.store.ReadSteps(last.Steps); err != nil {
					return err
				}
			}
			return opts.write(cmd, last, results)
		},
	}

	cmd.Flags().BoolVar(&opts.json, "json", false, "output the report as JSON")
	cmd.Flags().BoolVar(&opts.markdown, "markdown", false, "output the report as a Markdown step summary")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write the report to a file instead of stdout")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")
	return cmd
}

func (o *reportOptions) write(cmd *cobra.Command, last *runner.LastRun, results []runner.StepResult) error {
	var content string
	switch {
	case o.json:
		data, err := json.MarshalIndent(runReport{Run: last, Steps: results}, "", "  ")
		if err != nil {
			return err
		}
		content = string(data) + "\n"
	case o.markdown:
		content = ui.RenderMarkdown(last, results)
	default:
		if o.output == "" {
			ui.PrintReport(cmd.OutOrStdout(), last, results)
			return nil
		}
		var b bytes.Buffer
		ui.PrintReport(&b, last, results)
		content = b.String()
	}

	if o.output != "" {
		return projection.AtomicWrite(o.output, []byte(content))
	}
	printf(cmd.OutOrStdout(), "%s", content)
	return nil
}

func newResetCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset [workspace]",
		Short: "Clear run state",
		Long:  "Remove the last-run state so the next run starts clean. Run history is kept.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.newSession(cmd, workspaceArg(args))
			if err != nil {
				return err
			}
			if err := s.store.Reset(); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Run state cleared.\n")
			return nil
		},
	}
}

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var limit int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List recorded runs, or show one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.newSession(cmd, ".")
			if err != nil {
				return err
			}
			store, err := history.Open(s.cfg.HistoryDB)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if len(args) == 1 {
				run, results, err := store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return encodeJSON(cmd, runReport{Run: &run, Steps: results})
				}
				ui.PrintReport(out, &run, results)
				return nil
			}

			runs, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return encodeJSON(cmd, runs)
			}
			if len(runs) == 0 {
				printf(out, "No runs recorded.\n")
				return nil
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			_, _ = fmt.Fprintln(tw, "RUN\tSTARTED\tTRIGGER\tSTATUS\tFAILED STEP")
			for _, r := range runs {
				trigger := "-"
				if r.Event != "" {
					trigger = r.Event + ":" + r.Branch
				}
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
					r.RunID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), trigger, r.Status, orDash(r.FailedStep))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to list, 0 for all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func encodeJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
