// Package uistructure extracts a machine-readable outline of a generated UI
// prototype: routes, components, state handling, styling and assets.
package uistructure

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"appforge/internal/fileutil"
)

// FileName is the artifact written into the UI directory.
const FileName = "UI_STRUCTURE.json"

// Structure is the UI_STRUCTURE.json document.
type Structure struct {
	GeneratedAt     time.Time   `json:"generated_at"`
	Routes          []Route     `json:"routes"`
	Components      []Component `json:"components"`
	StateManagement string      `json:"state_management"`
	StyleSystem     string      `json:"style_system"`
	Assets          []string    `json:"assets"`
	Files           []string    `json:"files"`
}

// Route is one client-side route.
type Route struct {
	Path      string `json:"path"`
	Component string `json:"component,omitempty"`
	File      string `json:"file"`
}

// Component describes one React component file.
type Component struct {
	Name    string   `json:"name"`
	Path    string   `json:"path"`
	Type    string   `json:"type"`
	Props   []string `json:"props"`
	State   []string `json:"state"`
	Events  []string `json:"events"`
	Imports []string `json:"imports"`
}

var (
	routeJSXRe   = regexp.MustCompile(`<Route\s+[^>]*?path=["']([^"']+)["'](?:[^>]*?element=\{\s*<\s*([A-Z][A-Za-z0-9_]*))?`)
	routeObjRe   = regexp.MustCompile(`path:\s*["']([^"']+)["']`)
	componentRe  = regexp.MustCompile(`(?m)^export\s+(?:default\s+)?(?:function|const)\s+([A-Z][A-Za-z0-9_]*)`)
	propsTypeRe  = regexp.MustCompile(`(?s)(?:interface|type)\s+[A-Z][A-Za-z0-9_]*Props\s*=?\s*\{(.*?)\}`)
	propFieldRe  = regexp.MustCompile(`(?m)^\s*(?:readonly\s+)?([a-zA-Z_][A-Za-z0-9_]*)\??\s*:`)
	stateRe      = regexp.MustCompile(`const\s+\[\s*([a-zA-Z_][A-Za-z0-9_]*)\s*,\s*set[A-Za-z0-9_]*\s*\]\s*=\s*(?:React\.)?useState`)
	eventRe      = regexp.MustCompile(`\b(on[A-Z][A-Za-z]*)\s*=`)
	importFromRe = regexp.MustCompile(`(?m)^import\s+.*?from\s+["']([^"']+)["']`)
)

// Generate scans uiDir and builds its structure.
func Generate(uiDir string) (*Structure, error) {
	info, err := os.Stat(uiDir)
	if err != nil {
		return nil, fmt.Errorf("ui directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("ui directory: %s is not a directory", uiDir)
	}

	fsys := os.DirFS(uiDir)
	sources, err := doublestar.Glob(fsys, "src/**/*.{ts,tsx,js,jsx}")
	if err != nil {
		return nil, err
	}
	sort.Strings(sources)

	s := &Structure{
		GeneratedAt: time.Now().UTC(),
		Routes:      []Route{},
		Components:  []Component{},
		Assets:      []string{},
		Files:       sources,
	}

	var all strings.Builder
	for _, rel := range sources {
		data, err := fs.ReadFile(fsys, rel)
		if err != nil {
			return nil, err
		}
		src := string(data)
		all.WriteString(src)
		all.WriteByte('\n')

		s.Routes = append(s.Routes, routes(rel, src)...)
		if c, ok := component(rel, src); ok {
			s.Components = append(s.Components, c)
		}
	}

	s.StateManagement = stateManagement(all.String())
	s.StyleSystem = styleSystem(fsys, all.String())

	for _, pattern := range []string{"public/**/*", "src/assets/**/*"} {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, err
		}
		s.Assets = append(s.Assets, matches...)
	}
	sort.Strings(s.Assets)

	return s, nil
}

func routes(rel, src string) []Route {
	var out []Route
	seen := map[string]bool{}
	for _, m := range routeJSXRe.FindAllStringSubmatch(src, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, Route{Path: m[1], Component: m[2], File: rel})
		}
	}
	for _, m := range routeObjRe.FindAllStringSubmatch(src, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, Route{Path: m[1], File: rel})
		}
	}
	return out
}

func component(rel, src string) (Component, bool) {
	ext := path.Ext(rel)
	if ext != ".tsx" && ext != ".jsx" {
		return Component{}, false
	}

	name := strings.TrimSuffix(path.Base(rel), ext)
	if m := componentRe.FindStringSubmatch(src); m != nil {
		name = m[1]
	} else if !strings.Contains(src, "return") || !strings.Contains(src, "<") {
		return Component{}, false
	}

	c := Component{
		Name:    name,
		Path:    rel,
		Type:    componentType(rel),
		Props:   []string{},
		State:   []string{},
		Events:  []string{},
		Imports: []string{},
	}
	if m := propsTypeRe.FindStringSubmatch(src); m != nil {
		for _, f := range propFieldRe.FindAllStringSubmatch(m[1], -1) {
			c.Props = append(c.Props, f[1])
		}
	}
	for _, m := range stateRe.FindAllStringSubmatch(src, -1) {
		c.State = append(c.State, m[1])
	}
	c.Events = unique(eventRe.FindAllStringSubmatch(src, -1))
	for _, m := range importFromRe.FindAllStringSubmatch(src, -1) {
		c.Imports = append(c.Imports, m[1])
	}
	return c, true
}

// componentType classifies by directory: pages and layouts by name,
// everything else is a component.
func componentType(rel string) string {
	for _, seg := range strings.Split(path.Dir(rel), "/") {
		switch strings.ToLower(seg) {
		case "pages", "views", "routes":
			return "page"
		case "layouts", "layout":
			return "layout"
		}
	}
	return "component"
}

func stateManagement(src string) string {
	switch {
	case strings.Contains(src, "@reduxjs/toolkit") || strings.Contains(src, "react-redux"):
		return "redux"
	case strings.Contains(src, "from 'zustand'") || strings.Contains(src, `from "zustand"`):
		return "zustand"
	case strings.Contains(src, "createContext("):
		return "context"
	default:
		return "local-state"
	}
}

func styleSystem(fsys fs.FS, src string) string {
	switch {
	case hasAny(fsys, "tailwind.config.*"), hasAny(fsys, "src/**/*.css") && cssUsesTailwind(fsys):
		return "tailwind"
	case strings.Contains(src, ".module.css"), hasAny(fsys, "src/**/*.module.css"):
		return "css-modules"
	default:
		return "css"
	}
}

func cssUsesTailwind(fsys fs.FS) bool {
	matches, _ := doublestar.Glob(fsys, "src/**/*.css")
	for _, m := range matches {
		data, err := fs.ReadFile(fsys, m)
		if err == nil && (strings.Contains(string(data), "@tailwind") || strings.Contains(string(data), `@import "tailwindcss"`)) {
			return true
		}
	}
	return false
}

func hasAny(fsys fs.FS, pattern string) bool {
	matches, err := doublestar.Glob(fsys, pattern)
	return err == nil && len(matches) > 0
}

func unique(matches [][]string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, m := range matches {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	sort.Strings(out)
	return out
}

// Write stores the structure as uiDir/UI_STRUCTURE.json.
func Write(uiDir string, s *Structure) (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	p := filepath.Join(uiDir, FileName)
	if err := fileutil.AtomicWrite(p, append(data, '\n'), 0644); err != nil {
		return "", err
	}
	return p, nil
}

// Read loads a previously written structure.
func Read(uiDir string) (*Structure, error) {
	data, err := os.ReadFile(filepath.Join(uiDir, FileName))
	if err != nil {
		return nil, err
	}
	var s Structure
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", FileName, err)
	}
	return &s, nil
}

// Summary renders a short human-readable description.
func (s *Structure) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d files, %d components, %d routes\n", len(s.Files), len(s.Components), len(s.Routes))
	fmt.Fprintf(&b, "State management: %s\nStyle system: %s\n", s.StateManagement, s.StyleSystem)
	for _, r := range s.Routes {
		fmt.Fprintf(&b, "route %s -> %s (%s)\n", r.Path, r.Component, r.File)
	}
	for _, c := range s.Components {
		fmt.Fprintf(&b, "%s %s (%s)\n", c.Type, c.Name, c.Path)
	}
	return b.String()
}
