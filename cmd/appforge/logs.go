package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"appforge/internal/watcher"
)

var errNoLogs = errors.New("no generation logs yet")

func newLogsCmd() *cobra.Command {
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the latest generation log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, paths, err := loadPaths()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			path, err := latestLog(logDir(paths))
			if err != nil {
				return err
			}
			if follow {
				ctx, stop := signalContext()
				defer stop()
				return watcher.Follow(ctx, path, out)
			}

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			_, err = io.Copy(out, f)
			return err
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep printing as the log grows")
	return cmd
}

// latestLog returns the newest generation_log_*.jsonl in dir. Names carry
// a sortable timestamp.
func latestLog(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "generation_log_*.jsonl"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w in %s", errNoLogs, dir)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}
