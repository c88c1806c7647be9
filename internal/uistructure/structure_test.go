package uistructure

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

func sampleUI(t *testing.T) string {
	ui := t.TempDir()
	write(t, ui, "src/main.tsx", `import { createRoot } from "react-dom/client"
import App from "./App"
createRoot(document.getElementById("root")!).render(<App />)
`)
	write(t, ui, "src/App.tsx", `import { BrowserRouter, Routes, Route } from "react-router-dom"
import ListPage from "./pages/ListPage"
import DetailPage from "./pages/DetailPage"

export default function App() {
  return (
    <BrowserRouter>
      <Routes>
        <Route path="/" element={<ListPage />} />
        <Route path="/tasks/:id" element={<DetailPage />} />
      </Routes>
    </BrowserRouter>
  )
}
`)
	write(t, ui, "src/pages/ListPage.tsx", `import { useState } from "react"
import { TaskItem } from "../components/molecules/TaskItem"

export default function ListPage() {
  const [tasks, setTasks] = useState<string[]>([])
  const [filter, setFilter] = useState("all")
  return <div><button onClick={() => setTasks([])}>Clear</button></div>
}
`)
	write(t, ui, "src/components/molecules/TaskItem.tsx", `interface TaskItemProps {
  title: string
  done?: boolean
  onToggle: () => void
}

export const TaskItem = ({ title, done, onToggle }: TaskItemProps) => (
  <input type="checkbox" checked={done} onChange={onToggle} />
)
`)
	write(t, ui, "src/index.css", "@tailwind base;\n")
	write(t, ui, "public/logo.svg", "<svg/>")
	return ui
}

func TestGenerate(t *testing.T) {
	ui := sampleUI(t)

	s, err := Generate(ui)
	require.NoError(t, err)

	require.Len(t, s.Routes, 2)
	assert.Equal(t, "/", s.Routes[0].Path)
	assert.Equal(t, "ListPage", s.Routes[0].Component)
	assert.Equal(t, "/tasks/:id", s.Routes[1].Path)

	byName := map[string]Component{}
	for _, c := range s.Components {
		byName[c.Name] = c
	}
	require.Contains(t, byName, "ListPage")
	assert.Equal(t, "page", byName["ListPage"].Type)
	assert.Equal(t, []string{"tasks", "filter"}, byName["ListPage"].State)
	assert.Equal(t, []string{"onClick"}, byName["ListPage"].Events)

	require.Contains(t, byName, "TaskItem")
	assert.Equal(t, "component", byName["TaskItem"].Type)
	assert.Equal(t, []string{"title", "done", "onToggle"}, byName["TaskItem"].Props)

	assert.Equal(t, "local-state", s.StateManagement)
	assert.Equal(t, "tailwind", s.StyleSystem)
	assert.Equal(t, []string{"public/logo.svg"}, s.Assets)
	assert.Contains(t, s.Files, "src/main.tsx")
}

func TestWriteRead(t *testing.T) {
	ui := sampleUI(t)
	s, err := Generate(ui)
	require.NoError(t, err)

	p, err := Write(ui, s)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(ui, FileName), p)

	back, err := Read(ui)
	require.NoError(t, err)
	assert.Equal(t, len(s.Components), len(back.Components))
	assert.Contains(t, back.Summary(), "2 routes")
}

func TestGenerateMissingDir(t *testing.T) {
	_, err := Generate(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
}
