package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bartekus/pipewright/cmd/internal/clierr"
	"github.com/bartekus/pipewright/internal/config"
	"github.com/bartekus/pipewright/internal/history"
	"github.com/bartekus/pipewright/internal/observability"
	"github.com/bartekus/pipewright/internal/pipeline"
	"github.com/bartekus/pipewright/internal/projectroot"
	"github.com/bartekus/pipewright/internal/runner"
	"github.com/bartekus/pipewright/internal/steps"
	"github.com/bartekus/pipewright/internal/ui"
)

// session is the resolved environment one command works in. Steps run in
// workspace; the definition, run state and history belong to root, the
// nearest enclosing project directory.
type session struct {
	opts      *rootOptions
	cfg       *config.Config
	workspace string
	root      string
	log       *zap.Logger
	store     *runner.StateStore
}

// newSession loads configuration, applies flag overrides and anchors
// project paths at the project root containing dir.
func (o *rootOptions) newSession(cmd *cobra.Command, dir string) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, clierr.Wrap(clierr.ExitUsage, "loading configuration", err)
	}

	flags := cmd.Flags()
	if flags.Changed("state-dir") {
		cfg.StateDir = o.stateDir
	}
	if flags.Changed("file") {
		cfg.Definition = o.definition
	}
	if flags.Changed("shell") {
		cfg.Shell = o.shell
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = o.metricsFile
	}
	if flags.Changed("in-place") {
		cfg.InPlace = o.inPlace
	}
	if flags.Changed("no-history") {
		cfg.NoHistory = o.noHistory
	}
	if o.verbose {
		cfg.LogLevel = "debug"
	}

	ws, err := workspaceDir(dir)
	if err != nil {
		return nil, err
	}
	root, err := projectroot.Find(ws)
	if err != nil {
		return nil, clierr.Wrap(clierr.ExitUsage, "workspace "+dir, err)
	}
	cfg.Resolve(root)

	log, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	log.Debug("session resolved", zap.String("workspace", ws), zap.String("root", root))

	return &session{
		opts:      o,
		cfg:       cfg,
		workspace: ws,
		root:      root,
		log:       log,
		store:     runner.NewStateStore(cfg.StateDir),
	}, nil
}

// workspaceDir returns the absolute form of dir, which must be an existing
// directory.
func workspaceDir(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", clierr.Wrap(clierr.ExitUsage, "workspace "+dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", clierr.Wrap(clierr.ExitUsage, "workspace "+dir, err)
	}
	if !info.IsDir() {
		return "", clierr.New(clierr.ExitUsage, fmt.Sprintf("workspace %s is not a directory", dir))
	}
	return abs, nil
}

// definition loads the pipeline definition. A project without one gets
// the default pipeline.
func (s *session) definition() (*pipeline.Definition, error) {
	def, err := pipeline.Load(s.cfg.Definition)
	if errors.Is(err, os.ErrNotExist) {
		s.log.Warn("no pipeline definition, using the default pipeline", zap.String("path", s.cfg.Definition))
		return pipeline.DefaultDefinition(), nil
	}
	if err != nil {
		return nil, clierr.Usage(err)
	}
	return def, nil
}

// newRunner wires a runner for def that builds in workspaceDir. The
// returned cleanup closes the history database.
func (s *session) newRunner(cmd *cobra.Command, def *pipeline.Definition, workspaceDir string) (*runner.Runner, func(), error) {
	deps := &runner.Deps{
		Workspace: workspaceDir,
		StateDir:  s.cfg.StateDir,
		Shell:     s.cfg.Shell,
		Env:       []string{"CI=true", "PIPEWRIGHT_SOURCE=" + s.workspace},
		Output:    cmd.OutOrStdout(),
	}

	opts := []runner.Option{
		runner.WithLogger(s.log),
		runner.WithPipelineName(def.Name),
	}
	if s.opts.progress {
		errOut := cmd.ErrOrStderr()
		opts = append(opts, runner.WithProgress(func(total int) runner.Progress {
			return ui.NewStepProgress(total, errOut)
		}))
	}

	cleanup := func() { _ = s.log.Sync() }
	if !s.cfg.NoHistory {
		store, err := history.Open(s.cfg.HistoryDB)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, runner.WithRecorder(store))
		cleanup = func() {
			if err := store.Close(); err != nil {
				s.log.Warn("closing history", zap.Error(err))
			}
			_ = s.log.Sync()
		}
	}

	return runner.NewRunner(steps.FromDefinition(def), s.store, deps, opts...), cleanup, nil
}

// finish exports metrics when a metrics file is configured. The run error
// is returned unchanged.
func (s *session) finish(runErr error) error {
	if s.cfg.MetricsFile == "" {
		return runErr
	}
	if err := observability.WriteTextfile(s.cfg.MetricsFile); err != nil {
		s.log.Warn("exporting metrics", zap.Error(err))
	}
	return runErr
}

// execute runs fn with a wired runner and exports metrics afterwards.
func (s *session) execute(cmd *cobra.Command, def *pipeline.Definition, workspaceDir string, fn func(context.Context, *runner.Runner) error) error {
	r, cleanup, err := s.newRunner(cmd, def, workspaceDir)
	if err != nil {
		return err
	}
	defer cleanup()

	return s.finish(fn(cmd.Context(), r))
}

func workspaceArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
