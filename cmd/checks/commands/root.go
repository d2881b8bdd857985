package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bartekus/pipewright/cmd/internal/clierr"
	"github.com/bartekus/pipewright/internal/check"
)

// NewRootCmd builds the checks command around the default suite.
func NewRootCmd() *cobra.Command {
	return newRootCmd(check.DefaultSuite)
}

func newRootCmd(suite func() *check.Suite) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:           "checks",
		Short:         "Run the hello project's test suite",
		Long:          "Run every registered test case, report each assertion, and exit 1 if any case failed.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			var report check.Report
			if asJSON {
				report = suite().Run(cmd.ErrOrStderr())
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				if err := encoder.Encode(report); err != nil {
					return err
				}
			} else {
				report = suite().Run(out)
			}

			if !report.Passed() {
				return clierr.New(report.ExitCode(), fmt.Sprintf("%d of %d test case(s) failed", report.Failed(), len(report.Cases)))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON; progress goes to stderr")
	return cmd
}
