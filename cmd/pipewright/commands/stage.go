package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bartekus/pipewright/internal/pipeline"
	"github.com/bartekus/pipewright/internal/runner"
)

var stageShort = map[pipeline.Stage]string{
	pipeline.StageInstall:   "Install the project's dependencies",
	pipeline.StageConfigure: "Configure the build",
	pipeline.StageBuild:     "Compile the project and its tests",
	pipeline.StageTest:      "Run the test suite",
}

// newStageCmds returns one command per stage. Stages run in the workspace
// itself so that a configure is visible to a later build.
func newStageCmds(root *rootOptions) []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(pipeline.Stages))
	for _, stage := range pipeline.Stages {
		cmds = append(cmds, newStageCmd(root, stage))
	}
	return cmds
}

func newStageCmd(root *rootOptions, stage pipeline.Stage) *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("%s <workspace>", stage),
		Short: stageShort[stage],
		Long: fmt.Sprintf(`Run the %s steps of the pipeline in the given workspace. The command
exits 0 when they all pass, and with the failing step's exit code otherwise.`, stage),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.newSession(cmd, args[0])
			if err != nil {
				return err
			}
			def, err := s.definition()
			if err != nil {
				return err
			}

			err = s.execute(cmd, def, s.workspace, func(ctx context.Context, r *runner.Runner) error {
				return r.RunStage(ctx, stage)
			})
			if errors.Is(err, runner.ErrNoSteps) {
				printf(cmd.OutOrStdout(), "Pipeline %q has no %s steps.\n", def.Name, stage)
				return nil
			}
			return err
		},
	}
}
