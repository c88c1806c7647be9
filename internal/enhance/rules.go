package enhance

import "strings"

// Profiles accepted by PickTasks.
const (
	ProfileBaseline = "baseline"
	ProfileUIPolish = "ui_polish"
	ProfileTesting  = "testing"
	ProfileDemo     = "demo"
)

// Task is one unit of enhancement work.
type Task struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Actions  []string `json:"actions"`
	Why      string   `json:"why"`
	Severity string   `json:"severity"`
}

type taskList []Task

func (l *taskList) add(id, title, why, severity string, actions ...string) {
	if severity == "" {
		severity = "info"
	}
	*l = append(*l, Task{ID: id, Title: title, Actions: actions, Why: why, Severity: severity})
}

// PickTasks turns a snapshot plus an optional goal and profile into an
// ordered, de-duplicated task list. It is deterministic.
func PickTasks(snap Snapshot, goal, profile string) []Task {
	f := snap.Flags
	var tasks taskList

	if !f.HasESLint {
		tasks.add("eslint.setup", "Add ESLint (TypeScript + React)",
			"Consistent code quality and fewer future bugs.", "warning",
			"Create .eslintrc.* with recommended React+TS rules",
			"Add npm scripts: lint, lint:fix")
	}
	if !f.HasPrettier {
		tasks.add("prettier.setup", "Add Prettier formatting",
			"Keeps diffs small and readable.", "",
			"Add Prettier config and scripts: format, format:check",
			"Ensure ESLint + Prettier integration")
	}
	if !f.HasVitest {
		tasks.add("vitest.setup", "Add Vitest + a sample test",
			"Guardrail for future changes.", "",
			"Create one example test in src/, wire npm script: test")
	}
	if !f.HasReadme {
		tasks.add("docs.readme", "Create README.md",
			"Every app needs a minimal README.", "",
			"Document scripts (dev, build, preview, lint, test)",
			"Quickstart + tech stack + folder structure")
	}
	if f.HasTailwind {
		tasks.add("tailwind.verify", "Verify Tailwind content globs and base styles",
			"Avoid missing classes and bloated CSS.", "perf",
			"content = ['index.html','src/**/*.{ts,tsx,js,jsx}']",
			"Import base styles in main entry")
	}
	if snap.HasFinding(FindingDefaultHero) {
		tasks.add("ui.polish_hero", "Polish the landing hero",
			"First impressions matter.", "a11y",
			"Replace the placeholder hero with a full-width section: H1, subheading text and a CTA button. Use semantic HTML with accessible contrast.",
			"Accessible headings and contrast; optional dark mode toggle")
	}
	if f.HasRouter {
		tasks.add("router.split", "Route-based code splitting",
			"Improves initial load.", "perf",
			"Use React.lazy/Suspense for heavy routes",
			"Dynamic import large components")
	}

	g := strings.ToLower(goal)
	if strings.Contains(g, "readme") {
		tasks.add("docs.readme_goal", "Enhance README details", "Requested in goal.", "",
			"Add sections: Tech Stack, Scripts, Known Issues")
	}
	if strings.Contains(g, "dark") {
		tasks.add("ui.dark_mode_goal", "Implement dark mode", "Requested in goal.", "",
			"Add theme state + toggle; persist in localStorage")
	}
	if strings.Contains(g, "test") {
		tasks.add("testing.goal", "Add more tests", "Requested in goal.", "",
			"Add at least one unit test and wire CI script")
	}
	for _, k := range []string{"eslint", "format", "prettier"} {
		if strings.Contains(g, k) {
			tasks.add("lint.goal", "Ensure lint/format", "Requested in goal.", "",
				"Run lint + format; fix obvious issues")
			break
		}
	}

	switch strings.ToLower(strings.TrimSpace(profile)) {
	case ProfileUIPolish, ProfileDemo:
		tasks.add("ui.dark_mode_toggle", "Add a dark mode toggle",
			"Better demo experience with minimal changes.", "",
			"Persist theme in localStorage",
			"Toggle 'class' on <html> for Tailwind dark:")
	case ProfileTesting:
		tasks.add("testing.more", "Strengthen test setup",
			"Catches regressions.", "",
			"Add react-testing-library baseline test for <App/>")
	}

	return dedupe(tasks)
}

// dedupe keeps the first task for each id.
func dedupe(tasks []Task) []Task {
	seen := make(map[string]bool, len(tasks))
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		out = append(out, t)
	}
	return out
}
