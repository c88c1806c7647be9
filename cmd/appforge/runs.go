package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"appforge/internal/pipeline"
)

func newRunsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs [run-id]",
		Short: "List completed runs, or show one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, paths, err := loadPaths()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				rep, err := pipeline.ReadReport(paths.StateDir, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, styles.Summary(rep, pipeline.ReportPath(paths.StateDir, rep.RunID)))
				return nil
			}

			ids, err := pipeline.ListRuns(paths.StateDir)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Fprintln(out, styles.Muted.Render("No completed runs"))
				return nil
			}
			if limit > 0 && len(ids) > limit {
				ids = ids[:limit]
			}
			for _, id := range ids {
				rep, err := pipeline.ReadReport(paths.StateDir, id)
				if err != nil {
					fmt.Fprintln(out, styles.Error.Render(id+": "+err.Error()))
					continue
				}
				fmt.Fprintln(out, runLine(rep))
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum runs to list (0 for all)")
	return cmd
}

// runLine summarises a run on one line.
func runLine(rep *pipeline.RunReport) string {
	var b strings.Builder
	b.WriteString(styles.Key.Render(shortID(rep.RunID)))
	b.WriteString(rep.StartedAt.Local().Format("2006-01-02 15:04") + "  ")

	app := rep.AppName
	if app == "" {
		app = "-"
	}
	b.WriteString(fmt.Sprintf("%-20s ", app))

	switch failed := rep.Failed(); {
	case rep.Cancelled:
		b.WriteString(styles.Warning.Render("cancelled"))
	case len(failed) > 0:
		b.WriteString(styles.Error.Render(fmt.Sprintf("%d failed", len(failed))))
	default:
		b.WriteString(styles.Success.Render("ok"))
	}
	b.WriteString(styles.Dim.Render(fmt.Sprintf("  %s  %s", rep.Verdict, rep.FinishedAt.Sub(rep.StartedAt).Round(time.Second))))
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
