package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bartekus/pipewright/cmd/internal/clierr"
	"github.com/bartekus/pipewright/internal/pipeline"
	"github.com/bartekus/pipewright/internal/projection"
)

func newValidateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate [workspace]",
		Short: "Check the pipeline definition",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.newSession(cmd, workspaceArg(args))
			if err != nil {
				return err
			}
			def, err := pipeline.Load(s.cfg.Definition)
			if err != nil {
				return clierr.Usage(err)
			}
			printf(cmd.OutOrStdout(), "%s: pipeline %q is valid (%d steps)\n", relTo(s.root, s.cfg.Definition), def.Name, len(def.Steps))
			return nil
		},
	}
}

type stepListItem struct {
	Name  string         `json:"name"`
	Stage pipeline.Stage `json:"stage"`
	Run   string         `json:"run"`
}

func newListCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list [workspace]",
		Short: "List the pipeline's steps in execution order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.newSession(cmd, workspaceArg(args))
			if err != nil {
				return err
			}
			def, err := s.definition()
			if err != nil {
				return err
			}

			list := make([]stepListItem, 0, len(def.Steps))
			for _, st := range def.Steps {
				list = append(list, stepListItem{Name: st.Name, Stage: st.Stage, Run: st.Run})
			}

			if asJSON {
				return encodeJSON(cmd, map[string]any{"pipeline": def.Name, "steps": list})
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for _, item := range list {
				_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", item.Stage, item.Name, item.Run)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the steps as JSON")
	return cmd
}

func newInitCmd(root *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [workspace]",
		Short: "Write the default pipeline definition",
		Long: `Write a .pipewright.yml that installs cmake and GoogleTest, configures
with cmake, builds, and runs the tests with ctest on pushes and pull
requests to main.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := root.newSession(cmd, workspaceArg(args))
			if err != nil {
				return err
			}
			path := s.cfg.Definition

			if _, err := os.Stat(path); err == nil && !force {
				return clierr.New(clierr.ExitUsage, fmt.Sprintf("%s already exists; use --force to overwrite", relTo(s.root, path)))
			} else if err != nil && !errors.Is(err, os.ErrNotExist) {
				return err
			}

			data, err := pipeline.DefaultDefinition().Marshal()
			if err != nil {
				return err
			}
			if err := projection.AtomicWrite(path, data); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Wrote %s\n", relTo(s.root, path))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing definition")
	return cmd
}

func relTo(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return rel
	}
	return path
}
