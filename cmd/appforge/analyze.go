package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"appforge/internal/report"
	"appforge/internal/ui"
)

func newAnalyzeCmd() *cobra.Command {
	var show bool
	var width int

	cmd := &cobra.Command{
		Use:   "analyze <report.md>",
		Short: "Decide whether a QA report calls for an auto-fix pass",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			res, err := report.AnalyzeFile(args[0])
			if err != nil {
				return err
			}

			if show {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, ui.RenderMarkdown(string(data), width))
			}

			verdict := styles.Success.Render(res.Verdict.String())
			if res.Verdict.NeedsFixes() {
				verdict = styles.Warning.Render(res.Verdict.String())
			}
			fmt.Fprintln(out, styles.FormatField("verdict", verdict))
			fmt.Fprintln(out, styles.FormatField("reason", res.Reason))
			fmt.Fprintln(out, styles.FormatField("needs fixes", fmt.Sprint(res.Verdict.NeedsFixes())))
			return nil
		},
	}
	cmd.Flags().BoolVar(&show, "show", false, "render the report before the verdict")
	cmd.Flags().IntVar(&width, "width", 100, "wrap width for --show (0 disables wrapping)")
	return cmd
}
