package validate

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
}

func healthyUI(t *testing.T) string {
	ui := t.TempDir()
	write(t, ui, "package.json", `{"name": "todo", "scripts": {"dev": "vite", "build": "vite build"}}`)
	write(t, ui, "index.html", `<!doctype html><html><head><title>Todo</title></head>
<body><div id="root"></div><script type="module" src="/src/main.tsx"></script></body></html>`)
	write(t, ui, "src/main.tsx", "import App from './App'\nimport './index.css'\n")
	write(t, ui, "src/index.css", "body {}\n")
	write(t, ui, "src/App.tsx", "import { Button } from '@/components/ui/button'\nimport List from './pages'\nexport default function App() { return <Button/> }\n")
	write(t, ui, "src/components/ui/button.tsx", "export function Button() { return null }\n")
	write(t, ui, "src/pages/index.tsx", "export default function List() { return null }\n")
	return ui
}

func TestCheckHealthy(t *testing.T) {
	r, err := Check(context.Background(), healthyUI(t), Options{})
	require.NoError(t, err)
	assert.True(t, r.Passed(), "%+v", r.Findings)
	assert.Empty(t, r.Findings)
	assert.Contains(t, r.Markdown(), "**Status:** PASSED")
	assert.Equal(t, []string{"package.json", "index.html", "entry files", "imports"}, r.Checked)
}

func TestCheckFindsProblems(t *testing.T) {
	ui := healthyUI(t)
	write(t, ui, "package.json", `{"name": "todo", "scripts": {"dev": "vite"}}`)
	write(t, ui, "index.html", `<html><head><title>x</title></head><body><div id="root"></div><script type="module" src="/src/entry.tsx"></script></body></html>`)
	write(t, ui, "src/pages/index.tsx", "import { Card } from '../components/Card'\nexport default function List() { return null }\n")
	require.NoError(t, os.Remove(filepath.Join(ui, "src", "App.tsx")))

	r, err := Check(context.Background(), ui, Options{})
	require.NoError(t, err)
	assert.False(t, r.Passed())

	msgs := map[string]bool{}
	for _, f := range r.Errors() {
		msgs[f.Check] = true
	}
	assert.True(t, msgs["package.json"])
	assert.True(t, msgs["index.html"])
	assert.True(t, msgs["entry files"])
	assert.True(t, msgs["imports"])
	assert.Contains(t, r.Markdown(), "**Status:** FAILED")
	assert.Contains(t, r.Markdown(), `import "../components/Card" does not resolve`)
}

func TestCheckRejectsUnsafeCommand(t *testing.T) {
	r, err := Check(context.Background(), healthyUI(t), Options{LintCommand: []string{"bash", "-c", "eslint ."}})
	require.NoError(t, err)
	require.Len(t, r.Errors(), 1)
	assert.Equal(t, "lint", r.Errors()[0].Check)
}

func TestCheckMissingCommandIsSkipped(t *testing.T) {
	r, err := Check(context.Background(), healthyUI(t), Options{
		TypecheckCommand: []string{"appforge-no-such-binary", "--noEmit"},
		CommandTimeout:   time.Second,
	})
	require.NoError(t, err)
	assert.True(t, r.Passed())
	require.Len(t, r.Findings, 1)
	assert.Equal(t, SeverityInfo, r.Findings[0].Severity)
}

func TestCheckMissingDir(t *testing.T) {
	_, err := Check(context.Background(), filepath.Join(t.TempDir(), "ui"), Options{})
	require.Error(t, err)
}
