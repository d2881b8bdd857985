// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Pipewright - a build-and-test pipeline runner.

It installs dependencies, configures, builds and tests a project with the
steps declared in .pipewright.yml, halting at the first failing step and
reporting that step's exit code.

This program is free software licensed under the terms of the GNU AGPL v3 or later.

See https://www.gnu.org/licenses/ for license details.

*/

package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootOptions holds the global flags. Flags that are set override the
// environment configuration.
type rootOptions struct {
	verbose     bool
	stateDir    string
	definition  string
	shell       string
	metricsFile string
	inPlace     bool
	noHistory   bool
	progress    bool
}

// NewRootCmd constructs the pipewright root Cobra command.
func NewRootCmd() *cobra.Command {
	version := os.Getenv("PIPEWRIGHT_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "pipewright",
		Short:         "Pipewright - build-and-test pipeline runner",
		Long:          "Pipewright runs the install, configure, build and test steps of a project, stopping at the first failure.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	pf.StringVar(&opts.stateDir, "state-dir", "", "directory to store run state (default .pipewright/run)")
	pf.StringVarP(&opts.definition, "file", "f", "", "pipeline definition (default .pipewright.yml)")
	pf.StringVar(&opts.shell, "shell", "", "shell that runs step commands (default sh)")
	pf.StringVar(&opts.metricsFile, "metrics-file", "", "write Prometheus metrics to this file after a run")
	pf.BoolVar(&opts.inPlace, "in-place", false, "run in the source tree instead of a temporary copy")
	pf.BoolVar(&opts.noHistory, "no-history", false, "do not record runs in the history database")
	pf.BoolVar(&opts.progress, "progress", false, "show a progress bar on stderr")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of Pipewright",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Pipewright version %s\n", version)
		},
	})

	cmd.AddCommand(newRunCmd(opts))
	cmd.AddCommand(newStageCmds(opts)...)
	cmd.AddCommand(newResumeCmd(opts))
	cmd.AddCommand(newValidateCmd(opts))
	cmd.AddCommand(newListCmd(opts))
	cmd.AddCommand(newInitCmd(opts))
	cmd.AddCommand(newReportCmd(opts))
	cmd.AddCommand(newResetCmd(opts))
	cmd.AddCommand(newHistoryCmd(opts))

	return cmd
}
