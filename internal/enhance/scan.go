// Package enhance scans a generated app and renders a follow-up
// enhancement prompt from a fixed rule set.
package enhance

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FindingDefaultHero is reported when App still shows starter content.
const FindingDefaultHero = "default_hero_detected"

const heroScanLimit = 3000

var heroRe = regexp.MustCompile(`(?i)\b(Hello|Vite|React|Welcome|Getting Started)\b`)

// Flags records which tooling the app already carries.
type Flags struct {
	HasTypeScript bool `json:"has_typescript"`
	HasTailwind   bool `json:"has_tailwind"`
	HasESLint     bool `json:"has_eslint"`
	HasPrettier   bool `json:"has_prettier"`
	HasVitest     bool `json:"has_vitest"`
	HasTestScript bool `json:"has_test_script"`
	HasRouter     bool `json:"has_router"`
	HasShadcn     bool `json:"has_shadcn"`
	HasReadme     bool `json:"has_readme"`
}

// Snapshot is the set of facts the rules work from.
type Snapshot struct {
	AppPath     string            `json:"app_path"`
	PackageName string            `json:"package_name"`
	Scripts     map[string]string `json:"scripts"`
	Deps        map[string]string `json:"deps"`
	DevDeps     map[string]string `json:"dev_deps"`
	Flags       Flags             `json:"flags"`
	EntryFiles  []string          `json:"entry_files"`
	Findings    []string          `json:"findings"`
}

// ScriptNames returns the npm script names in sorted order.
func (s Snapshot) ScriptNames() []string {
	names := make([]string, 0, len(s.Scripts))
	for name := range s.Scripts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasFinding reports whether the scan recorded name.
func (s Snapshot) HasFinding(name string) bool {
	for _, f := range s.Findings {
		if f == name {
			return true
		}
	}
	return false
}

type packageJSON struct {
	Name            string            `json:"name"`
	Scripts         map[string]string `json:"scripts"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	ESLintConfig    json.RawMessage   `json:"eslintConfig"`
}

// Scan collects a Snapshot of appDir. An unreadable package.json yields
// empty maps rather than an error.
func Scan(appDir string) Snapshot {
	var pkg packageJSON
	if data, err := os.ReadFile(filepath.Join(appDir, "package.json")); err == nil {
		_ = json.Unmarshal(data, &pkg)
	}

	snap := Snapshot{
		AppPath:     appDir,
		PackageName: pkg.Name,
		Scripts:     orEmpty(pkg.Scripts),
		Deps:        orEmpty(pkg.Dependencies),
		DevDeps:     orEmpty(pkg.DevDependencies),
		EntryFiles:  []string{},
		Findings:    []string{},
	}
	if snap.PackageName == "" {
		snap.PackageName = filepath.Base(appDir)
	}

	exists := func(rel string) bool {
		_, err := os.Stat(filepath.Join(appDir, filepath.FromSlash(rel)))
		return err == nil
	}
	anyExists := func(rels ...string) bool {
		for _, rel := range rels {
			if exists(rel) {
				return true
			}
		}
		return false
	}

	_, hasVitestDep := snap.Deps["vitest"]
	if !hasVitestDep {
		_, hasVitestDep = snap.DevDeps["vitest"]
	}
	_, hasTest := snap.Scripts["test"]

	snap.Flags = Flags{
		HasTypeScript: exists("tsconfig.json") || hasTSSources(appDir),
		HasTailwind:   anyExists("tailwind.config.js", "tailwind.config.ts"),
		HasESLint: anyExists(".eslintrc", ".eslintrc.js", ".eslintrc.cjs", ".eslintrc.json",
			"eslint.config.js", "eslint.config.cjs", "eslint.config.mjs", "eslint.config.ts") || len(pkg.ESLintConfig) > 0,
		HasPrettier:   anyExists(".prettierrc", ".prettierrc.json", "prettier.config.js", "prettier.config.cjs"),
		HasVitest:     hasVitestDep,
		HasTestScript: hasTest,
		HasRouter:     snap.Deps["react-router-dom"] != "",
		HasShadcn:     hasShadcn(snap.Deps) || hasShadcn(snap.DevDeps),
		HasReadme:     exists("README.md"),
	}

	for _, rel := range []string{"src/main.tsx", "src/main.jsx", "src/App.tsx", "src/App.jsx", "index.html"} {
		if exists(rel) {
			snap.EntryFiles = append(snap.EntryFiles, rel)
		}
	}

	for _, rel := range []string{"src/App.tsx", "src/App.jsx"} {
		if !exists(rel) {
			continue
		}
		if heroRe.MatchString(readHead(filepath.Join(appDir, filepath.FromSlash(rel)), heroScanLimit)) {
			snap.Findings = append(snap.Findings, FindingDefaultHero)
		}
		break
	}

	return snap
}

func hasTSSources(appDir string) bool {
	matches, err := doublestar.Glob(os.DirFS(appDir), "src/**/*.{ts,tsx}", doublestar.WithFilesOnly())
	return err == nil && len(matches) > 0
}

func hasShadcn(deps map[string]string) bool {
	for name := range deps {
		if strings.Contains(strings.ToLower(name), "shadcn") {
			return true
		}
	}
	return false
}

func readHead(path string, limit int64) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	data, _ := io.ReadAll(io.LimitReader(f, limit))
	return string(data)
}

func orEmpty(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
