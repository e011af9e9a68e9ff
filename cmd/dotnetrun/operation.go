package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/deixis/dotnetrun/internal/command"
	"github.com/deixis/dotnetrun/internal/report"
	"github.com/deixis/dotnetrun/internal/workflow"
	"github.com/spf13/cobra"
)

type operationFlags struct {
	properties    []string
	configuration string
	output        string
	verbosity     string
	version       string
	maxCPU        int
	noRestore     bool
	noBuild       bool
	jsonOut       bool
	save          bool
	dryRun        bool
}

func newOperationCmd(op workflow.Operation, gf *globalFlags) *cobra.Command {
	var of operationFlags

	cmd := &cobra.Command{
		Use:   string(op) + " [project...] [-- dotnet args]",
		Short: "Run dotnet " + string(op),
		Long: fmt.Sprintf(`Run dotnet %[1]s on each project (or on the one dotnet finds) and summarise
the result. Several projects run concurrently. Arguments after -- are passed
to dotnet as they are, one argument each.

  dotnetrun %[1]s -c Release -p Version=1.2.3 src/App/App.csproj -- --nologo`, op),
		RunE: func(cmd *cobra.Command, args []string) error {
			projects, extra := args, []string(nil)
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				projects, extra = args[:dash], args[dash:]
			}
			return runOperation(cmd, gf, &of, op, projects, extra)
		},
	}

	f := cmd.Flags()
	f.StringArrayVarP(&of.properties, "property", "p", nil, "MSBuild property as key=value (repeatable, order kept)")
	f.StringVarP(&of.configuration, "configuration", "c", "", "build configuration, e.g. Release")
	f.StringVarP(&of.output, "output", "o", "", "output directory")
	f.StringVar(&of.verbosity, "verbosity", "", "MSBuild verbosity: q, m, n, d or diag")
	f.StringVar(&of.version, "package-version", "", "set the Version property")
	f.IntVarP(&of.maxCPU, "max-cpu", "m", 0, "cap MSBuild node count")
	f.BoolVar(&of.noRestore, "no-restore", false, "skip the implicit restore")
	f.BoolVar(&of.noBuild, "no-build", false, "skip the implicit build")
	f.BoolVar(&of.jsonOut, "json", false, "print results as JSON")
	f.BoolVar(&of.dryRun, "dry-run", false, "print the commands as shell lines without running them")
	f.BoolVar(&of.save, "save", false, "store results for dotnetrun inspect")
	return cmd
}

// parseProperties turns key=value flags into ordered properties.
func parseProperties(raw []string) (command.Properties, error) {
	var props command.Properties
	for _, kv := range raw {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return command.Properties{}, fmt.Errorf("invalid property %q: want key=value", kv)
		}
		props.Set(key, value)
	}
	return props, nil
}

func runOperation(cmd *cobra.Command, gf *globalFlags, of *operationFlags, op workflow.Operation, projects, extra []string) error {
	props, err := parseProperties(of.properties)
	if err != nil {
		return err
	}

	e, err := gf.newEnv(cmd)
	if err != nil {
		return err
	}

	opts := []command.Option{
		command.WithVersion(of.version),
		command.WithOutput(of.output),
		command.WithVerbosity(of.verbosity),
		command.WithMaxCPU(of.maxCPU),
	}
	if of.noRestore {
		opts = append(opts, command.WithNoRestore())
	}
	if of.noBuild {
		opts = append(opts, command.WithNoBuild())
	}

	if len(projects) == 0 {
		projects = []string{""}
	}
	reqs := make([]workflow.Request, 0, len(projects))
	for _, p := range projects {
		reqs = append(reqs, workflow.Request{
			Operation:     op,
			Project:       p,
			Configuration: of.configuration,
			Properties:    props,
			Args:          extra,
			Options:       opts,
		})
	}

	if of.dryRun {
		return printDryRun(cmd, e, reqs)
	}

	results, err := e.engine.RunAll(cmd.Context(), reqs)
	if err != nil {
		return err
	}

	runs := make([]*report.RunResult, len(results))
	failed := false
	for i, res := range results {
		runs[i] = res.RunResult
		failed = failed || res.RunResult.HasErrors()
	}

	if of.save {
		if err := saveRuns(runs); err != nil {
			return err
		}
		e.logger.Info("runs saved", "count", len(runs))
	}

	out := cmd.OutOrStdout()
	if of.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		var v any = runs
		if len(runs) == 1 {
			v = runs[0]
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	} else {
		for i, rr := range runs {
			if i > 0 {
				fmt.Fprintln(out, "---")
			}
			if rr.Project != "" {
				fmt.Fprintf(out, "Project: %s\n", rr.Project)
			}
			fmt.Fprint(out, workflow.FormatRun(rr, gf.verbose))
		}
	}

	if failed {
		return errFailed
	}
	return nil
}

func saveRuns(runs []*report.RunResult) error {
	dir, err := report.CacheDir()
	if err != nil {
		return err
	}
	store := report.NewDiskStoreAt(dir)
	for _, rr := range runs {
		if err := store.Save(rr); err != nil {
			return fmt.Errorf("saving run %s: %w", rr.ID, err)
		}
	}
	return nil
}

// printDryRun prints each request as the shell line that runs the same argv.
func printDryRun(cmd *cobra.Command, e *env, reqs []workflow.Request) error {
	for _, req := range reqs {
		d, err := e.engine.Descriptor(req)
		if err != nil {
			return err
		}
		line, err := d.ShellLine(e.runner.Tool)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}
