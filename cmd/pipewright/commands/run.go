package commands

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bartekus/pipewright/cmd/internal/clierr"
	"github.com/bartekus/pipewright/internal/pipeline"
	"github.com/bartekus/pipewright/internal/runner"
	"github.com/bartekus/pipewright/internal/workspace"
)

type runOptions struct {
	event  string
	branch string
	steps  []string
}

func newRunCmd(root *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run [workspace]",
		Short: "Run the whole pipeline for a push or pull request",
		Long: `Run every step of the pipeline in order: install dependencies, configure,
build and test. The run stops at the first step that exits non-zero, and
pipewright exits with that step's code.

Steps run in the given workspace directory. The pipeline definition and run
state are found at the nearest enclosing project root, so a sub-directory
of a repository can be built with the repository's pipeline.

Unless --in-place is set the workspace is copied into a temporary directory
first, so every run starts from the same sources. Run state is kept in
.pipewright/run so that a failed run can be resumed.

--step restricts the run to the named steps, still in pipeline order.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, root, workspaceArg(args))
		},
	}

	cmd.Flags().StringVar(&opts.event, "event", string(pipeline.EventPush), "triggering event: push or pull_request")
	cmd.Flags().StringVar(&opts.branch, "branch", "main", "branch the event targets")
	cmd.Flags().StringArrayVar(&opts.steps, "step", nil, "run only the named step (repeatable)")
	return cmd
}

func (o *runOptions) run(cmd *cobra.Command, root *rootOptions, dir string) error {
	kind, err := pipeline.ParseEventKind(o.event)
	if err != nil {
		return clierr.Usage(err)
	}
	ev := pipeline.Event{Kind: kind, Branch: o.branch}

	s, err := root.newSession(cmd, dir)
	if err != nil {
		return err
	}
	def, err := s.definition()
	if err != nil {
		return err
	}

	if !def.Triggers(ev) {
		printf(cmd.OutOrStdout(), "Pipeline %q is not triggered by %s; skipping.\n", def.Name, ev)
		s.log.Info("trigger did not match", zap.String("event", string(ev.Kind)), zap.String("branch", ev.Branch))
		return nil
	}

	ws, err := workspace.Prepare(cmd.Context(), s.workspace, workspace.Options{InPlace: s.cfg.InPlace})
	if err != nil {
		return err
	}
	defer func() {
		if err := ws.Cleanup(); err != nil {
			s.log.Warn("removing workspace", zap.String("dir", ws.Dir), zap.Error(err))
		}
	}()
	s.log.Debug("workspace ready", zap.String("dir", ws.Dir), zap.Bool("ephemeral", ws.Ephemeral()))

	return s.execute(cmd, def, ws.Dir, func(ctx context.Context, r *runner.Runner) error {
		if len(o.steps) == 0 {
			return r.Run(ctx, ev)
		}
		err := r.RunList(ctx, ev, o.steps)
		if errors.Is(err, runner.ErrUnknownStep) {
			return clierr.Usage(err)
		}
		return err
	})
}

func newResumeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resume [workspace]",
		Short: "Resume the last run from its failed step",
		Long: `Re-run the step that failed the last run and every step after it.
Earlier steps are not repeated, so resume works in the source tree itself
where their outputs were left.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.newSession(cmd, workspaceArg(args))
			if err != nil {
				return err
			}
			def, err := s.definition()
			if err != nil {
				return err
			}

			failed, err := s.store.LoadFailedStep()
			if err != nil {
				return err
			}
			if failed == "" {
				printf(cmd.OutOrStdout(), "Nothing to resume.\n")
				return nil
			}

			return s.execute(cmd, def, s.workspace, func(ctx context.Context, r *runner.Runner) error {
				return r.Resume(ctx)
			})
		},
	}
}
