package tools

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"appforge/internal/project"
	"appforge/internal/sandbox"
)

var patchItem = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"anchor":    {Type: genai.TypeString, Description: "Text identifying the first line to patch"},
		"content":   {Type: genai.TypeString, Description: "Lines to insert or to replace the anchor line with"},
		"operation": {Type: genai.TypeString, Description: "insert_after, insert_before or replace", Enum: []string{"insert_after", "insert_before", "replace"}},
	},
	Required: []string{"anchor", "content", "operation"},
}

func fileTools(env *Env) []Tool {
	return []Tool{
		&funcTool{
			name:        "read_file",
			description: "Reads a text file inside the workspace and returns its content.",
			params:      []param{stringParam("path", "Path of the file to read", true)},
			run: func(_ context.Context, args map[string]any) (ToolResult, error) {
				p, _ := GetString(args, "path")
				content, err := env.FS.Read(p)
				if err != nil {
					return failed(err)
				}
				return succeed(content)
			},
		},
		&funcTool{
			name:        "write_file",
			description: "Writes content to a file, creating parent directories. Mode 'overwrite' (default) replaces the file, 'append' extends it.",
			params: []param{
				stringParam("path", "Path of the file to write", true),
				stringParam("content", "Full text to write", true),
				stringParam("mode", "overwrite or append", false),
			},
			run: func(_ context.Context, args map[string]any) (ToolResult, error) {
				p, _ := GetString(args, "path")
				content, _ := GetString(args, "content")
				mode, err := sandbox.ParseWriteMode(GetStringDefault(args, "mode", ""))
				if err != nil {
					return failed(err)
				}
				msg, err := env.FS.Write(p, content, mode)
				if err != nil {
					return failed(err)
				}
				return succeed(msg)
			},
		},
		&funcTool{
			name:        "list_files",
			description: "Lists files under a directory matching a glob pattern such as '*' or 'src/**/*.tsx'.",
			params: []param{
				stringParam("directory", "Directory to list (default '.')", false),
				stringParam("pattern", "Glob pattern (default '*')", false),
			},
			run: func(_ context.Context, args map[string]any) (ToolResult, error) {
				listing, err := env.FS.List(GetStringDefault(args, "directory", "."), GetStringDefault(args, "pattern", "*"))
				if err != nil {
					return failed(err)
				}
				return NewSuccessResultWithData(listing.String(), listing.Entries), nil
			},
		},
		&funcTool{
			name:        "mkdir",
			description: "Creates a directory. By default creates parent directories and succeeds if it already exists.",
			params: []param{
				stringParam("path", "Directory to create", true),
				boolParam("parents", "Create missing parents (default true)"),
				boolParam("exist_ok", "Succeed when the directory exists (default true)"),
			},
			run: func(_ context.Context, args map[string]any) (ToolResult, error) {
				p, _ := GetString(args, "path")
				msg, err := env.FS.Mkdir(p, sandbox.MkdirOptions{
					Parents: GetBoolDefault(args, "parents", true),
					ExistOK: GetBoolDefault(args, "exist_ok", true),
				})
				if err != nil {
					return failed(err)
				}
				return succeed(msg)
			},
		},
		&funcTool{
			name:        "copy_from_template",
			description: "Copies one file from a template directory to the same relative path under a target directory.",
			params: []param{
				stringParam("template_root", "Template directory", true),
				stringParam("target_root", "Destination directory", true),
				stringParam("file", "File path relative to both roots", true),
			},
			run: func(_ context.Context, args map[string]any) (ToolResult, error) {
				src, _ := GetString(args, "template_root")
				dst, _ := GetString(args, "target_root")
				rel, _ := GetString(args, "file")
				msg, err := env.FS.CopyFromTemplate(src, dst, rel)
				if err != nil {
					return failed(err)
				}
				return succeed(msg)
			},
		},
		&funcTool{
			name:        "apply_patch",
			description: "Applies line patches to a file. Each patch targets the first line containing its anchor. Patches whose anchor is missing are reported; the others still apply.",
			params: []param{
				stringParam("path", "File to patch", true),
				{name: "patches", typ: genai.TypeArray, desc: "Patches applied in order", required: true, items: patchItem},
			},
			run: func(_ context.Context, args map[string]any) (ToolResult, error) {
				p, _ := GetString(args, "path")
				var patches []sandbox.Patch
				if err := decodeArg(args, "patches", &patches); err != nil {
					return failed(err)
				}
				res, err := env.FS.ApplyPatches(p, patches)
				if err != nil {
					return failed(err)
				}
				return NewSuccessResultWithData(res.String(), res), nil
			},
		},
		&funcTool{
			name:        "save_ui_file",
			description: "Saves a file of the current project's UI. The path is relative to the project root and must start with 'ui/'.",
			params: []param{
				stringParam("path", "Path such as ui/src/App.tsx", true),
				stringParam("content", "Full file content", true),
			},
			run: func(_ context.Context, args map[string]any) (ToolResult, error) {
				root, err := env.path(project.KindRoot)
				if err != nil {
					return failed(err)
				}
				projectFS, err := sandbox.New(root)
				if err != nil {
					return failed(fmt.Errorf("open project root: %w", err))
				}
				p, _ := GetString(args, "path")
				content, _ := GetString(args, "content")
				msg, err := sandbox.NewScopedFS(projectFS, project.UIDir).Save(p, content)
				if err != nil {
					return failed(err)
				}
				return succeed(msg)
			},
		},
	}
}
