package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"appforge/internal/logging"
	"appforge/internal/pipeline"
	"appforge/internal/ui"
)

// errNoRequirements is returned when no requirements source is given.
var errNoRequirements = errors.New("no requirements given: pass them as an argument, with --requirements-file, or in USER_REQUIREMENTS")

func newGenerateCmd() *cobra.Command {
	var reqFile string

	cmd := &cobra.Command{
		Use:   "generate [requirements]",
		Short: "Run the full generation pipeline",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := resolveRequirements(args, reqFile, os.Getenv)
			if err != nil {
				return err
			}
			return runGenerate(cmd.OutOrStdout(), req)
		},
	}
	cmd.Flags().StringVar(&reqFile, "requirements-file", "", "read requirements from a file")
	return cmd
}

// resolveRequirements picks the requirements text: the argument first,
// then the file, then USER_REQUIREMENTS.
func resolveRequirements(args []string, file string, getenv func(string) string) (pipeline.Requirements, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		return pipeline.Requirements{Text: args[0], Source: "argument"}, nil
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return pipeline.Requirements{}, fmt.Errorf("read requirements: %w", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return pipeline.Requirements{}, fmt.Errorf("requirements file %s is empty", file)
		}
		return pipeline.Requirements{Text: string(data), Source: "file:" + file}, nil
	}
	if v := getenv("USER_REQUIREMENTS"); strings.TrimSpace(v) != "" {
		return pipeline.Requirements{Text: v, Source: "env:USER_REQUIREMENTS"}, nil
	}
	return pipeline.Requirements{}, errNoRequirements
}

func runGenerate(out io.Writer, req pipeline.Requirements) error {
	cfg, paths, err := loadPaths()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var mirror io.Writer
	if verbose {
		mirror = os.Stderr
	}
	logPath, err := logging.EnableFileLogging(logDir(paths), logging.ParseLevel(cfg.Logging.Level), mirror)
	if err != nil {
		return err
	}
	defer logging.Close()

	ctx, stop := signalContext()
	defer stop()

	run, err := pipeline.NewRun(ctx, cfg, req, ui.NewProgress(out, styles))
	if err != nil {
		return err
	}
	defer run.Close()

	fmt.Fprintln(out, styles.Title.Render("appforge")+styles.Dim.Render(fmt.Sprintf(" run %s with %s", run.ID, cfg.ModelName())))
	fmt.Fprintln(out, styles.Dim.Render("log: "+logPath))

	rep, err := run.Execute(ctx)
	if rep != nil {
		fmt.Fprintln(out)
		fmt.Fprintln(out, styles.Summary(rep, pipeline.ReportPath(paths.StateDir, rep.RunID)))
	}
	if errors.Is(err, context.Canceled) {
		return errors.New("run cancelled")
	}
	return err
}
