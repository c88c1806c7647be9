package tools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"appforge/internal/appspec"
	"appforge/internal/logging"
	"appforge/internal/project"
	"appforge/internal/scaffold"
)

func projectTools(env *Env) []Tool {
	nameParam := stringParam("name", "Project folder name (kebab-case)", true)

	return []Tool{
		&funcTool{
			name:        "set_app_name",
			description: "Creates the project folder for the app and makes it current. Call once, early, with a kebab-case name.",
			params:      []param{stringParam("app_name", "Kebab-case app name, e.g. todo-list", true)},
			run: func(_ context.Context, args map[string]any) (ToolResult, error) {
				name, _ := GetString(args, "app_name")
				msg, err := env.Store.SetAppName(name)
				if err != nil {
					return failed(err)
				}
				return succeed(msg)
			},
		},
		&funcTool{
			name:        "set_current_project",
			description: "Selects a project when none is current. It never replaces an already current project; use switch_project for that.",
			params:      []param{nameParam},
			run: func(_ context.Context, args map[string]any) (ToolResult, error) {
				name, _ := GetString(args, "name")
				msg, err := env.Store.SetCurrent(name)
				if err != nil {
					return failed(err)
				}
				return succeed(msg)
			},
		},
		&funcTool{
			name:        "switch_project",
			description: "Makes another project current.",
			params:      []param{nameParam},
			run: func(_ context.Context, args map[string]any) (ToolResult, error) {
				name, _ := GetString(args, "name")
				msg, err := env.Store.Switch(name)
				if err != nil {
					return failed(err)
				}
				return succeed(msg)
			},
		},
		&funcTool{
			name:        "list_projects",
			description: "Lists every project in the base directory.",
			run: func(_ context.Context, _ map[string]any) (ToolResult, error) {
				names, err := env.Store.ListAll()
				if err != nil {
					return failed(err)
				}
				if len(names) == 0 {
					return succeed("No projects found")
				}
				current, _ := env.Store.Current()
				var sb strings.Builder
				sb.WriteString("Projects:")
				for _, n := range names {
					marker := ""
					if n == current {
						marker = " (current)"
					}
					fmt.Fprintf(&sb, "\n  - %s%s", n, marker)
				}
				return NewSuccessResultWithData(sb.String(), names), nil
			},
		},
		&funcTool{
			name:        "get_current_project",
			description: "Returns the name of the current project.",
			run: func(_ context.Context, _ map[string]any) (ToolResult, error) {
				name, isSet := env.Store.Current()
				if !isSet {
					return failed(project.ErrNoProject)
				}
				return succeed(name)
			},
		},
		&funcTool{
			name:        "get_project_path",
			description: "Returns a path of the current project. Kinds: " + strings.Join(project.Kinds(), ", ") + ".",
			params:      []param{stringParam("kind", "Which path to return", true)},
			run: func(_ context.Context, args map[string]any) (ToolResult, error) {
				raw, _ := GetString(args, "kind")
				kind, err := project.ParseKind(raw)
				if err != nil {
					return failed(err)
				}
				p, err := env.Store.Path(kind)
				if err != nil {
					return failed(err)
				}
				return succeed(p)
			},
		},
		&funcTool{
			name:        "set_memory",
			description: "Stores a note for later phases of the current project.",
			params: []param{
				stringParam("key", "Note name", true),
				stringParam("value", "Note text", true),
			},
			run: func(_ context.Context, args map[string]any) (ToolResult, error) {
				key, _ := GetString(args, "key")
				value, _ := GetString(args, "value")
				if err := env.Store.MemorySet(key, value); err != nil {
					return failed(err)
				}
				return succeed(fmt.Sprintf("Stored memory '%s'", key))
			},
		},
		&funcTool{
			name:        "get_memory",
			description: "Reads a note of the current project.",
			params:      []param{stringParam("key", "Note name", true)},
			run: func(_ context.Context, args map[string]any) (ToolResult, error) {
				key, _ := GetString(args, "key")
				v, err := env.Store.MemoryGet(key)
				if err != nil {
					return failed(err)
				}
				return succeed(v)
			},
		},
		&funcTool{
			name:        "get_all_memory",
			description: "Returns every note of the current project as a JSON object, in the order they were stored.",
			run: func(_ context.Context, _ map[string]any) (ToolResult, error) {
				data, err := env.Store.MemoryJSON()
				if err != nil {
					return failed(err)
				}
				return succeed(string(data))
			},
		},
		&funcTool{
			name:        "copy_template_to_ui",
			description: "Copies the app template into the current project's ui/ directory. When app_spec.json exists, the copy is filled in with the app's name and title.",
			run: func(_ context.Context, _ map[string]any) (ToolResult, error) {
				return copyTemplateToUI(env)
			},
		},
		&funcTool{
			name:        "get_user_requirements",
			description: "Returns the user's original requirements text.",
			run: func(_ context.Context, _ map[string]any) (ToolResult, error) {
				if strings.TrimSpace(env.Requirements) == "" {
					return failed(errors.New("no user requirements were provided"))
				}
				return succeed(env.Requirements)
			},
		},
	}
}

func copyTemplateToUI(env *Env) (ToolResult, error) {
	tmpl, err := env.Store.Path(project.KindTemplateDir)
	if err != nil {
		return failed(err)
	}
	ui, err := env.Store.Path(project.KindUIOutputDir)
	if err != nil {
		return failed(err)
	}

	n, err := env.FS.CopyTree(tmpl, ui)
	if err != nil {
		return failed(err)
	}
	msg := fmt.Sprintf("Copied %d template files from %s to %s", n, tmpl, ui)

	specPath, err := env.path(project.KindSpecDoc)
	if err != nil {
		return failed(err)
	}
	spec, err := appspec.Load(specPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return succeed(msg)
	case err != nil:
		logging.Warn("app spec unusable, template left unparameterized", "path", specPath, "error", err)
		return succeed(msg + fmt.Sprintf("\nWarning: %s is not usable (%v); template left as is", specPath, err))
	}

	absUI, err := env.FS.Resolve(ui)
	if err != nil {
		return failed(err)
	}
	if err := scaffold.Parameterize(absUI, spec); err != nil {
		return failed(err)
	}
	return succeed(msg + fmt.Sprintf("\nApplied app spec '%s' to the copy", spec.AppName))
}
