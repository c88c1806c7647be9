// Package scaffold instantiates an app template and fills in the app's
// identity from its spec.
package scaffold

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"appforge/internal/appspec"
	"appforge/internal/fileutil"
	"appforge/internal/logging"
	"appforge/internal/sandbox"
	"appforge/internal/security"
)

// templatePackageName is the package name shipped in the templates.
const templatePackageName = "react-simple-spa"

var (
	titleRe   = regexp.MustCompile(`<title>[^<]*</title>`)
	mainDivRe = regexp.MustCompile(`(?s)<div className="[^"]*min-h-[^"]*"[^>]*>.*?</div>`)
	descRe    = regexp.MustCompile(`"description":\s*"[^"]*"`)
)

// Generate copies templates/<template_name> into <output_dir>/<app_name>,
// replacing any previous output, and parameterizes the copy. Paths are
// relative to the sandbox root. projectsDirs are base directories holding
// projects: the output may neither contain one nor be one of its project
// roots.
func Generate(fsys *sandbox.FS, spec *appspec.AppSpec, templatesRoot string, projectsDirs ...string) (string, error) {
	spec.ApplyDefaults()
	if err := spec.Validate(); err != nil {
		return "", err
	}

	src := filepath.Join(templatesRoot, spec.TemplateName)
	dst := filepath.Join(spec.OutputDir, spec.AppName)

	absDst, err := fsys.Resolve(dst)
	if err != nil {
		return "", err
	}
	if err := checkOutput(fsys, absDst, templatesRoot, projectsDirs); err != nil {
		return "", err
	}
	if err := os.RemoveAll(absDst); err != nil {
		return "", fmt.Errorf("clear %s: %w", dst, err)
	}

	n, err := fsys.CopyTree(src, dst)
	if err != nil {
		return "", err
	}

	if err := Parameterize(absDst, spec); err != nil {
		return "", err
	}

	logging.Info("app generated from template", "app", spec.AppName, "template", spec.TemplateName, "files", n)
	return fmt.Sprintf("Generated app '%s' in %s (%d files)", spec.AppName, dst, n), nil
}

// checkOutput refuses an output directory whose removal would destroy the
// workspace, the templates or project state.
func checkOutput(fsys *sandbox.FS, absDst, templatesRoot string, projectsDirs []string) error {
	if absDst == fsys.Root() {
		return fmt.Errorf("%w: output resolves to the workspace root", sandbox.ErrInvalidArgument)
	}

	absTemplates, err := fsys.Resolve(templatesRoot)
	if err != nil {
		return err
	}
	if security.Within(absDst, absTemplates) || security.Within(absTemplates, absDst) {
		return fmt.Errorf("%w: output %s overlaps the templates in %s", sandbox.ErrInvalidArgument, absDst, templatesRoot)
	}

	for _, dir := range projectsDirs {
		absDir, err := fsys.Resolve(dir)
		if err != nil {
			return err
		}
		if security.Within(absDst, absDir) {
			return fmt.Errorf("%w: output %s contains the projects in %s", sandbox.ErrInvalidArgument, absDst, dir)
		}
		if filepath.Dir(absDst) == absDir {
			return fmt.Errorf("%w: output %s is a project root", sandbox.ErrInvalidArgument, absDst)
		}
	}
	return nil
}

// Parameterize rewrites package.json, index.html and src/App.tsx inside
// appDir. Missing files are skipped. The rewrites land together or not at all.
func Parameterize(appDir string, spec *appspec.AppSpec) error {
	batch := fileutil.NewBatch()

	if err := stage(batch, filepath.Join(appDir, "package.json"), func(s string) string {
		return packageJSON(s, spec)
	}); err != nil {
		return err
	}
	if err := stage(batch, filepath.Join(appDir, "index.html"), func(s string) string {
		return titleRe.ReplaceAllLiteralString(s, "<title>"+spec.DisplayName+"</title>")
	}); err != nil {
		return err
	}
	if spec.CustomContent != "" {
		if err := stage(batch, filepath.Join(appDir, "src", "App.tsx"), func(s string) string {
			return appContent(s, spec.CustomContent)
		}); err != nil {
			return err
		}
	}

	if batch.Len() == 0 {
		return nil
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("parameterize %s: %w", appDir, err)
	}
	return nil
}

func stage(batch *fileutil.Batch, path string, edit func(string) string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	updated := edit(string(data))
	if updated != string(data) {
		batch.Stage(path, []byte(updated), info.Mode().Perm())
	}
	return nil
}

// packageJSON sets the identity fields while keeping key order. Content
// that does not parse falls back to textual replacement.
func packageJSON(content string, spec *appspec.AppSpec) string {
	pkg := orderedmap.New[string, any]()
	if err := json.Unmarshal([]byte(content), pkg); err == nil {
		pkg.Set("name", spec.AppName)
		pkg.Set("version", spec.Version)
		pkg.Set("description", spec.Description)
		if spec.Author != "" {
			pkg.Set("author", spec.Author)
		}
		if out, err := json.MarshalIndent(pkg, "", "  "); err == nil {
			return string(out) + "\n"
		}
	}

	content = strings.ReplaceAll(content, `"`+templatePackageName+`"`, `"`+spec.AppName+`"`)
	content = strings.ReplaceAll(content, `"0.0.0"`, `"`+spec.Version+`"`)
	desc, _ := json.Marshal(spec.Description)
	if descRe.MatchString(content) {
		return descRe.ReplaceAllLiteralString(content, `"description": `+string(desc))
	}
	return strings.Replace(content, `"version":`, `"description": `+string(desc)+",\n  \"version\":", 1)
}

// appContent replaces the main full-height container of App.tsx.
func appContent(content, custom string) string {
	replacement := "<div className=\"flex min-h-svh flex-col items-center justify-center\">\n      " +
		custom + "\n    </div>"
	loc := mainDivRe.FindStringIndex(content)
	if loc == nil {
		return content
	}
	return content[:loc[0]] + replacement + content[loc[1]:]
}
