package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"appforge/internal/audit"
	"appforge/internal/pipeline"
)

func newAuditCmd() *cobra.Command {
	var (
		tool   string
		phase  string
		failed bool
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "audit [run-id]",
		Short: "Show the tool calls of a run",
		Long:  "Show the audited tool calls of a run. Without a run id the latest completed run is used.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, paths, err := loadPaths()
			if err != nil {
				return err
			}

			var runID string
			if len(args) == 1 {
				runID = args[0]
			} else {
				ids, err := pipeline.ListRuns(paths.StateDir)
				if err != nil {
					return err
				}
				if len(ids) == 0 {
					return errors.New("no completed runs")
				}
				runID = ids[0]
			}

			entries, err := audit.ReadRun(paths.StateDir, runID)
			if err != nil {
				return err
			}
			filter := audit.QueryFilter{ToolName: tool, Phase: phase, Limit: limit}
			if failed {
				f := false
				filter.Success = &f
			}
			matched := audit.Query(entries, filter)

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styles.Dim.Render(fmt.Sprintf("run %s: %d of %d calls", runID, len(matched), len(entries))))
			for _, e := range matched {
				fmt.Fprintln(out, entryLine(e))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&tool, "tool", "", "only calls of this tool")
	cmd.Flags().StringVar(&phase, "phase", "", "only calls made in this phase")
	cmd.Flags().BoolVar(&failed, "failed", false, "only failed calls")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum entries (0 for all)")
	return cmd
}

func entryLine(e *audit.Entry) string {
	mark := styles.Success.Render("✓")
	detail := ""
	if !e.Success {
		mark = styles.Error.Render("✗")
		detail = " " + styles.Error.Render(e.Error)
	}
	return fmt.Sprintf("%s %s %s %s%s",
		mark,
		styles.Dim.Render(e.Timestamp.Local().Format(time.TimeOnly)),
		styles.Phase.Render(e.Phase),
		e.ToolName,
		detail,
	)
}
