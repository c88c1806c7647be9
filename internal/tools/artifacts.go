package tools

import (
	"context"

	"google.golang.org/genai"

	"appforge/internal/appspec"
	"appforge/internal/project"
	"appforge/internal/sandbox"
	"appforge/internal/scaffold"
	"appforge/internal/uistructure"
	"appforge/internal/validate"
)

func artifactTools(env *Env) []Tool {
	return []Tool{
		&funcTool{
			name:        "build_app_spec",
			description: "Validates the app description and writes it as app_spec.json of the current project.",
			params: []param{
				stringParam("app_name", "Kebab-case app name", true),
				stringParam("display_name", "Human readable title", true),
				stringParam("description", "One paragraph description", true),
				stringParam("author", "Author name", false),
				stringParam("version", "Semantic version (default 0.1.0)", false),
				stringParam("template_name", "Template directory name (default react-simple-spa)", false),
				stringParam("output_dir", "Directory generated apps are written to (default result)", false),
				stringParam("custom_content", "JSX placed in the main section of App.tsx", false),
				{name: "features", typ: genai.TypeArray, desc: "Feature list", items: &genai.Schema{Type: genai.TypeString}},
			},
			run: func(_ context.Context, args map[string]any) (ToolResult, error) {
				spec := &appspec.AppSpec{
					AppName:       GetStringDefault(args, "app_name", ""),
					DisplayName:   GetStringDefault(args, "display_name", ""),
					Description:   GetStringDefault(args, "description", ""),
					Author:        GetStringDefault(args, "author", ""),
					Version:       GetStringDefault(args, "version", ""),
					TemplateName:  GetStringDefault(args, "template_name", ""),
					OutputDir:     GetStringDefault(args, "output_dir", ""),
					CustomContent: GetStringDefault(args, "custom_content", ""),
					Features:      GetStringSlice(args, "features"),
				}
				p, err := env.Store.Path(project.KindSpecDoc)
				if err != nil {
					return failed(err)
				}
				msg, err := spec.Save(env.FS, p)
				if err != nil {
					return failed(err)
				}
				return succeed(msg)
			},
		},
		&funcTool{
			name:        "generate_app_from_template",
			description: "Instantiates the template named in app_spec.json into <output_dir>/<app_name>, replacing earlier output.",
			run: func(_ context.Context, _ map[string]any) (ToolResult, error) {
				specPath, err := env.path(project.KindSpecDoc)
				if err != nil {
					return failed(err)
				}
				spec, err := appspec.Load(specPath)
				if err != nil {
					return failed(err)
				}
				msg, err := scaffold.Generate(env.FS, spec, env.TemplatesRoot, env.Store.BaseDir())
				if err != nil {
					return failed(err)
				}
				return succeed(msg)
			},
		},
		&funcTool{
			name:        "generate_ui_structure",
			description: "Scans the current project's ui/ sources and writes ui/UI_STRUCTURE.json describing routes, components and styling.",
			run: func(_ context.Context, _ map[string]any) (ToolResult, error) {
				ui, err := env.path(project.KindUIOutputDir)
				if err != nil {
					return failed(err)
				}
				s, err := uistructure.Generate(ui)
				if err != nil {
					return failed(err)
				}
				p, err := uistructure.Write(ui, s)
				if err != nil {
					return failed(err)
				}
				return succeed("Wrote " + p + "\n" + s.Summary())
			},
		},
		&funcTool{
			name:        "read_ui_structure",
			description: "Returns the current project's UI_STRUCTURE.json.",
			run: func(_ context.Context, _ map[string]any) (ToolResult, error) {
				ui, err := env.path(project.KindUIOutputDir)
				if err != nil {
					return failed(err)
				}
				s, err := uistructure.Read(ui)
				if err != nil {
					return failed(err)
				}
				return succeedJSON(s)
			},
		},
		&funcTool{
			name:        "validate_implementation",
			description: "Runs static checks over the current project's ui/ and writes VALIDATION_REPORT.md. Returns the report.",
			run: func(ctx context.Context, _ map[string]any) (ToolResult, error) {
				ui, err := env.path(project.KindUIOutputDir)
				if err != nil {
					return failed(err)
				}
				report, err := validate.Check(ctx, ui, env.Validation)
				if err != nil {
					return failed(err)
				}
				p, err := env.Store.Path(project.KindValidationReport)
				if err != nil {
					return failed(err)
				}
				md := report.Markdown()
				if _, err := env.FS.Write(p, md, sandbox.ModeOverwrite); err != nil {
					return failed(err)
				}
				return NewSuccessResultWithData(md, report.Findings), nil
			},
		},
	}
}
