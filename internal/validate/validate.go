// Package validate runs static checks over a generated UI project.
package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/net/html"
)

// Severity ranks a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Finding is one check result.
type Finding struct {
	Check    string   `json:"check"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	File     string   `json:"file,omitempty"`
}

// Report collects the findings of one Check call.
type Report struct {
	Dir      string        `json:"dir"`
	Findings []Finding     `json:"findings"`
	Checked  []string      `json:"checked"`
	Duration time.Duration `json:"duration"`
}

// Options configures the optional external commands.
type Options struct {
	TypecheckCommand []string
	LintCommand      []string
	CommandTimeout   time.Duration
}

// Errors returns the error-level findings.
func (r *Report) Errors() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			out = append(out, f)
		}
	}
	return out
}

// Passed reports whether no error-level finding was recorded.
func (r *Report) Passed() bool {
	return len(r.Errors()) == 0
}

func (r *Report) add(check string, sev Severity, file, format string, args ...any) {
	r.Findings = append(r.Findings, Finding{Check: check, Severity: sev, File: file, Message: fmt.Sprintf(format, args...)})
}

var (
	importRe      = regexp.MustCompile(`(?m)(?:^import\s+(?:[^'"]*?\s+from\s+)?|import\(\s*|export\s+[^'"]*?\s+from\s+)["']([^"']+)["']`)
	resolveExts   = []string{"", ".ts", ".tsx", ".js", ".jsx", ".json", ".css", ".svg"}
	indexSuffixes = []string{"/index.ts", "/index.tsx", "/index.js", "/index.jsx"}
)

// Check runs every check against uiDir. Only a missing or unreadable uiDir
// is returned as an error; everything else becomes a finding.
func Check(ctx context.Context, uiDir string, opts Options) (*Report, error) {
	start := time.Now()
	info, err := os.Stat(uiDir)
	if err != nil {
		return nil, fmt.Errorf("ui directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("ui directory: %s is not a directory", uiDir)
	}

	r := &Report{Dir: uiDir, Findings: []Finding{}}
	fsys := os.DirFS(uiDir)

	checkPackageJSON(r, fsys)
	checkIndexHTML(r, fsys)
	checkEntryFiles(r, fsys)
	if err := checkImports(r, fsys); err != nil {
		return nil, err
	}

	if len(opts.TypecheckCommand) > 0 {
		runCommand(ctx, r, "typecheck", uiDir, opts.TypecheckCommand, opts.CommandTimeout)
	}
	if len(opts.LintCommand) > 0 {
		runCommand(ctx, r, "lint", uiDir, opts.LintCommand, opts.CommandTimeout)
	}

	r.Duration = time.Since(start)
	return r, nil
}

func checkPackageJSON(r *Report, fsys fs.FS) {
	const check = "package.json"
	r.Checked = append(r.Checked, check)

	data, err := fs.ReadFile(fsys, "package.json")
	if err != nil {
		r.add(check, SeverityError, "package.json", "package.json is missing")
		return
	}

	var pkg struct {
		Name    string            `json:"name"`
		Scripts map[string]string `json:"scripts"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		r.add(check, SeverityError, "package.json", "package.json is not valid JSON: %v", err)
		return
	}
	if pkg.Name == "" {
		r.add(check, SeverityWarning, "package.json", "package.json has no name")
	}
	for _, script := range []string{"dev", "build"} {
		if _, ok := pkg.Scripts[script]; !ok {
			r.add(check, SeverityError, "package.json", "missing %q script", script)
		}
	}
}

func checkIndexHTML(r *Report, fsys fs.FS) {
	const check = "index.html"
	r.Checked = append(r.Checked, check)

	f, err := fsys.Open("index.html")
	if err != nil {
		r.add(check, SeverityError, "index.html", "index.html is missing")
		return
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		r.add(check, SeverityError, "index.html", "index.html does not parse: %v", err)
		return
	}

	var title string
	var scripts []string
	var hasRoot bool
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if n.FirstChild != nil {
					title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "script":
				if src := attr(n, "src"); src != "" {
					scripts = append(scripts, src)
				}
			default:
				if attr(n, "id") == "root" {
					hasRoot = true
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if title == "" {
		r.add(check, SeverityWarning, "index.html", "index.html has no <title>")
	}
	if !hasRoot {
		r.add(check, SeverityWarning, "index.html", "no element with id=\"root\" to mount the app")
	}
	if len(scripts) == 0 {
		r.add(check, SeverityError, "index.html", "index.html references no entry script")
		return
	}
	for _, src := range scripts {
		if strings.Contains(src, "://") {
			continue
		}
		rel := strings.TrimPrefix(path.Clean("/"+src), "/")
		if _, err := fs.Stat(fsys, rel); err != nil {
			r.add(check, SeverityError, "index.html", "entry script %s does not exist", src)
		}
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func checkEntryFiles(r *Report, fsys fs.FS) {
	const check = "entry files"
	r.Checked = append(r.Checked, check)

	for _, pattern := range []string{"src/main.{ts,tsx,js,jsx}", "src/App.{ts,tsx,js,jsx}"} {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil || len(matches) == 0 {
			r.add(check, SeverityError, "", "no file matches %s", pattern)
		}
	}
}

func checkImports(r *Report, fsys fs.FS) error {
	const check = "imports"
	r.Checked = append(r.Checked, check)

	sources, err := doublestar.Glob(fsys, "src/**/*.{ts,tsx,js,jsx}")
	if err != nil {
		return err
	}
	sort.Strings(sources)

	for _, file := range sources {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return err
		}
		for _, m := range importRe.FindAllStringSubmatch(string(data), -1) {
			spec := m[1]
			var target string
			switch {
			case strings.HasPrefix(spec, "./"), strings.HasPrefix(spec, "../"):
				target = path.Join(path.Dir(file), spec)
			case strings.HasPrefix(spec, "@/"):
				target = path.Join("src", strings.TrimPrefix(spec, "@/"))
			default:
				continue
			}
			if strings.HasPrefix(target, "../") || target == ".." {
				r.add(check, SeverityError, file, "import %q leaves the project", spec)
				continue
			}
			if !resolves(fsys, target) {
				r.add(check, SeverityError, file, "import %q does not resolve", spec)
			}
		}
	}
	return nil
}

func resolves(fsys fs.FS, target string) bool {
	for _, ext := range resolveExts {
		if info, err := fs.Stat(fsys, target+ext); err == nil && !info.IsDir() {
			return true
		}
	}
	for _, idx := range indexSuffixes {
		if _, err := fs.Stat(fsys, target+idx); err == nil {
			return true
		}
	}
	return false
}
