package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/deixis/dotnetrun"
	"github.com/deixis/dotnetrun/internal/config"
	"github.com/deixis/dotnetrun/internal/logging"
	"github.com/deixis/dotnetrun/internal/runner"
	"github.com/deixis/dotnetrun/internal/workflow"
	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	dir     string
	timeout time.Duration
	verbose bool
}

func newRootCmd() *cobra.Command {
	var gf globalFlags

	root := &cobra.Command{
		Use:   "dotnetrun",
		Short: "Run the .NET SDK and report structured results",
		Long: `dotnetrun invokes dotnet build, pack, publish, test, restore and clean with
MSBuild properties composed in order, parses MSBuild diagnostics and test
totals from the output, and exits 1 when dotnet reports errors.

Defaults are read from .dotnetrun (YAML) or .dotnetrun.toml in the
repository root.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&gf.dir, "dir", "C", "", "run in this directory instead of the current one")
	root.PersistentFlags().DurationVar(&gf.timeout, "timeout", 0, "override the configured timeout (e.g. 5m)")
	root.PersistentFlags().BoolVarP(&gf.verbose, "verbose", "v", false, "verbose output and debug logging")

	for _, op := range workflow.Operations {
		root.AddCommand(newOperationCmd(op, &gf))
	}
	root.AddCommand(newInspectCmd(), newMCPCmd(&gf), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), dotnetrun.Version)
		},
	}
}

// env is everything a subcommand needs to run operations.
type env struct {
	engine *workflow.Engine
	runner *runner.Runner
	logger *log.Logger
}

func (gf *globalFlags) newEnv(cmd *cobra.Command) (*env, error) {
	workspace := gf.dir
	if workspace == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("determining workspace: %w", err)
		}
		workspace = wd
	}

	profile := logging.ProfileRuntime
	if gf.verbose {
		profile = logging.ProfileVerbose
	}
	logger := logging.New(cmd.ErrOrStderr(), profile)

	loaded, err := config.Load(workspace)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg := loaded.Config
	logger.Debug("config", "path", loaded.Path, "repo_root", loaded.RepoRoot)

	timeout := cfg.Timeout()
	if gf.timeout > 0 {
		timeout = gf.timeout
	}

	tool := cfg.ToolName()
	if resolved := workflow.ResolveTool(tool); resolved != "" {
		tool = resolved
	}

	r := &runner.Runner{
		Tool:      tool,
		Timeout:   timeout,
		MaxOutput: cfg.MaxOutputBytes(),
		Logger:    logger,
	}
	return &env{
		engine: &workflow.Engine{
			Config:    cfg,
			Runner:    r,
			Workspace: workspace,
		},
		runner: r,
		logger: logger,
	}, nil
}
