package enhance

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
}

func starterApp(t *testing.T) string {
	app := t.TempDir()
	write(t, app, "package.json", `{
  "name": "tester-app",
  "scripts": {"dev": "vite", "build": "vite build"},
  "dependencies": {"react": "^18.2.0", "react-router-dom": "^6.0.0"},
  "devDependencies": {"typescript": "^5.0.0"}
}`)
	write(t, app, "index.html", "<html></html>")
	write(t, app, "src/main.tsx", "import App from './App'\n")
	write(t, app, "src/App.tsx", "export default function App() { return <h1>Hello Vite + React</h1> }\n")
	write(t, app, "tailwind.config.js", "module.exports = {}\n")
	return app
}

func taskIDs(tasks []Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

func TestScan(t *testing.T) {
	snap := Scan(starterApp(t))

	assert.Equal(t, "tester-app", snap.PackageName)
	assert.Equal(t, []string{"build", "dev"}, snap.ScriptNames())
	assert.True(t, snap.Flags.HasTypeScript)
	assert.True(t, snap.Flags.HasTailwind)
	assert.True(t, snap.Flags.HasRouter)
	assert.False(t, snap.Flags.HasESLint)
	assert.False(t, snap.Flags.HasVitest)
	assert.False(t, snap.Flags.HasReadme)
	assert.Equal(t, []string{"src/main.tsx", "src/App.tsx", "index.html"}, snap.EntryFiles)
	assert.Equal(t, []string{FindingDefaultHero}, snap.Findings)
}

func TestScanWithoutPackageJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bare-app")
	require.NoError(t, os.MkdirAll(dir, 0755))

	snap := Scan(dir)
	assert.Equal(t, "bare-app", snap.PackageName)
	assert.Empty(t, snap.Scripts)
	assert.Empty(t, snap.Findings)
}

func TestPickTasksOrder(t *testing.T) {
	snap := Scan(starterApp(t))

	tasks := PickTasks(snap, "add dark mode and a README", ProfileBaseline)
	assert.Equal(t, []string{
		"eslint.setup", "prettier.setup", "vitest.setup", "docs.readme",
		"tailwind.verify", "ui.polish_hero", "router.split",
		"docs.readme_goal", "ui.dark_mode_goal",
	}, taskIDs(tasks))
	assert.Equal(t, "warning", tasks[0].Severity)
}

func TestPickTasksProfiles(t *testing.T) {
	snap := Snapshot{Flags: Flags{HasESLint: true, HasPrettier: true, HasVitest: true, HasReadme: true}}

	assert.Empty(t, PickTasks(snap, "", ""))
	assert.Equal(t, []string{"ui.dark_mode_toggle"}, taskIDs(PickTasks(snap, "", "Demo")))
	assert.Equal(t, []string{"testing.goal", "testing.more"}, taskIDs(PickTasks(snap, "more tests", ProfileTesting)))
	assert.Equal(t, []string{"lint.goal"}, taskIDs(PickTasks(snap, "eslint and prettier", "")))
}

func TestDedupeKeepsFirst(t *testing.T) {
	out := dedupe([]Task{
		{ID: "a", Title: "first"},
		{ID: "b"},
		{ID: "a", Title: "second"},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].Title)
}

func TestRender(t *testing.T) {
	snap := Scan(starterApp(t))
	tasks := PickTasks(snap, "", "")

	text, err := Render(snap, tasks, 5, false)
	require.NoError(t, err)

	assert.Contains(t, text, "## Project Snapshot")
	assert.Contains(t, text, "- Package name: tester-app")
	assert.Contains(t, text, "- Max files to change: 5")
	assert.Contains(t, text, "Do NOT add or install new dependencies.")
	assert.Contains(t, text, "### [1] Add ESLint (TypeScript + React) (eslint.setup)")
	assert.Contains(t, text, "  - Add npm scripts: lint, lint:fix")
	assert.Contains(t, text, "## Output Format")
	assert.NotContains(t, text, "light pass")
}

func TestRenderLightPass(t *testing.T) {
	text, err := Render(Snapshot{PackageName: "x"}, nil, 0, true)
	require.NoError(t, err)
	assert.Contains(t, text, "Perform a light pass")
	assert.Contains(t, text, "- Entry files: n/a")
	assert.Contains(t, text, "- Max files to change: 8")
	assert.Contains(t, text, "allowed if truly necessary")
}

func TestWritePrompt(t *testing.T) {
	app := t.TempDir()

	p, err := WritePrompt(app, "", "hello\n")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(app, "prompts", "enhancement_prompt.j2"), p)

	_, err = WritePrompt(app, "../escape.j2", "x")
	require.Error(t, err)
}
