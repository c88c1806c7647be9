package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"appforge/internal/highlight"
	"appforge/internal/project"
)

func newProjectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "List generated projects",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			names, err := store.ListAll()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintln(out, styles.Muted.Render("No projects in "+store.BaseDir()))
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(out, projectLine(store, name))
			}
			return nil
		},
	}

	var (
		kind        string
		lineNumbers bool
	)
	show := &cobra.Command{
		Use:   "show <name>",
		Short: "Print one artifact of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := fileKind(kind)
			if err != nil {
				return err
			}
			store, err := openStore()
			if err != nil {
				return err
			}
			path, err := store.PathOf(args[0], k)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(path)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("%s has no %s yet (%s)", args[0], k, path)
				}
				return err
			}
			h := highlight.New("")
			out := h.HighlightFile(path, string(data))
			if lineNumbers {
				out = h.HighlightWithLineNumbers(string(data), highlight.DetectLanguage(path), 1)
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
	show.Flags().StringVar(&kind, "kind", string(project.KindSpecDoc), "artifact kind to print")
	show.Flags().BoolVarP(&lineNumbers, "line-numbers", "n", false, "prefix lines with their numbers")
	cmd.AddCommand(show)
	return cmd
}

func openStore() (*project.Store, error) {
	_, paths, err := loadPaths()
	if err != nil {
		return nil, err
	}
	return project.NewStore(paths.BaseDir, paths.Rel(paths.TemplateDir))
}

// directoryKinds name folders, which projects show cannot print.
var directoryKinds = map[project.Kind]bool{
	project.KindRoot:        true,
	project.KindUIOutputDir: true,
	project.KindTemplateDir: true,
}

// fileKind parses a kind that names a single file.
func fileKind(s string) (project.Kind, error) {
	k, err := project.ParseKind(s)
	if err != nil {
		return "", err
	}
	if directoryKinds[k] {
		return "", fmt.Errorf("kind %q is a directory; pick a file kind such as %s or %s", k, project.KindSpecDoc, project.KindQAReport)
	}
	return k, nil
}

// projectLine marks which pipeline artifacts a project already has.
func projectLine(store *project.Store, name string) string {
	marks := ""
	for _, k := range []project.Kind{project.KindRequirementsDoc, project.KindSpecDoc, project.KindUIDesignDoc, project.KindQAReport} {
		path, err := store.PathOf(name, k)
		if err != nil {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			marks += styles.Success.Render("●")
		} else {
			marks += styles.Dim.Render("○")
		}
	}
	return marks + " " + name
}
