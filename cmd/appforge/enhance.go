package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"appforge/internal/enhance"
)

var profiles = []string{enhance.ProfileBaseline, enhance.ProfileUIPolish, enhance.ProfileTesting, enhance.ProfileDemo}

func newEnhanceCmd() *cobra.Command {
	var (
		appDir       string
		goal         string
		profile      string
		budget       int
		allowNewDeps bool
		outPath      string
	)

	cmd := &cobra.Command{
		Use:   "enhance",
		Short: "Write an enhancement prompt for an existing app",
		Long: `Scans a generated app, picks improvement tasks from its package.json and
sources, and writes a prompt that a coding agent can follow.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !validProfile(profile) {
				return fmt.Errorf("unknown profile %q (valid: %s)", profile, strings.Join(profiles, ", "))
			}
			abs, err := filepath.Abs(appDir)
			if err != nil {
				return err
			}
			if _, err := os.Stat(filepath.Join(abs, "package.json")); err != nil {
				return fmt.Errorf("%s does not look like an app: package.json not found", abs)
			}

			snap := enhance.Scan(abs)
			tasks := enhance.PickTasks(snap, goal, profile)
			text, err := enhance.Render(snap, tasks, budget, allowNewDeps)
			if err != nil {
				return err
			}
			written, err := enhance.WritePrompt(abs, outPath, text)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styles.FormatSuccess("Wrote "+written))
			scripts := strings.Join(snap.ScriptNames(), ", ")
			if scripts == "" {
				scripts = "none"
			}
			fmt.Fprintln(out, styles.FormatField("scripts", scripts))
			fmt.Fprintln(out, styles.FormatField("tasks", fmt.Sprint(len(tasks))))
			return nil
		},
	}

	cmd.Flags().StringVar(&appDir, "app", "", "app directory containing package.json")
	cmd.Flags().StringVar(&goal, "goal", "", "free-text goal, e.g. \"add dark mode and a README\"")
	cmd.Flags().StringVarP(&profile, "profile", "p", enhance.ProfileBaseline, "task profile: "+strings.Join(profiles, ", "))
	cmd.Flags().IntVar(&budget, "change-budget", enhance.DefaultChangeBudget, "maximum number of files the agent may change")
	cmd.Flags().BoolVar(&allowNewDeps, "allow-new-deps", false, "allow the agent to add npm dependencies")
	cmd.Flags().StringVar(&outPath, "out", enhance.DefaultOutput, "prompt path, relative to the app")
	_ = cmd.MarkFlagRequired("app")
	return cmd
}

func validProfile(p string) bool {
	for _, v := range profiles {
		if p == v {
			return true
		}
	}
	return false
}
