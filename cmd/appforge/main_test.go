package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appforge/internal/project"
)

func TestResolveRequirements(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "req.txt")
	require.NoError(t, os.WriteFile(file, []byte("a todo app"), 0644))
	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0644))

	env := func(v string) func(string) string {
		return func(string) string { return v }
	}

	tests := []struct {
		name    string
		args    []string
		file    string
		env     string
		want    string
		source  string
		wantErr bool
	}{
		{"argument wins", []string{"a notes app"}, file, "from env", "a notes app", "argument", false},
		{"file before env", nil, file, "from env", "a todo app", "file:" + file, false},
		{"env fallback", nil, "", "from env", "from env", "env:USER_REQUIREMENTS", false},
		{"blank argument falls through", []string{"  "}, "", "from env", "from env", "env:USER_REQUIREMENTS", false},
		{"empty file", nil, empty, "", "", "", true},
		{"missing file", nil, filepath.Join(dir, "nope"), "", "", "", true},
		{"nothing", nil, "", "", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := resolveRequirements(tt.args, tt.file, env(tt.env))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, req.Text)
			assert.Equal(t, tt.source, req.Source)
		})
	}

	_, err := resolveRequirements(nil, "", env(""))
	assert.ErrorIs(t, err, errNoRequirements)
}

func TestAnalyzeCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "QA_TEST_REPORT.md")
	require.NoError(t, os.WriteFile(path, []byte("# QA\n\nCritical issues: 2\n"), 0644))

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"analyze", path})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "fixes_needed")
	assert.Contains(t, out.String(), "2 critical issue(s) reported")
}

func TestAnalyzeCommandMissingReport(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"analyze", filepath.Join(t.TempDir(), "missing.md")})
	assert.Error(t, root.Execute())
}

func TestLatestLog(t *testing.T) {
	dir := t.TempDir()
	_, err := latestLog(dir)
	assert.ErrorIs(t, err, errNoLogs)

	for _, name := range []string{
		"generation_log_20260101_120000.jsonl",
		"generation_log_20260301_080000.jsonl",
		"generation_log_20260201_235959.jsonl",
		"other.jsonl",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0644))
	}
	got, err := latestLog(dir)
	require.NoError(t, err)
	assert.Equal(t, "generation_log_20260301_080000.jsonl", filepath.Base(got))
}

func TestValidProfile(t *testing.T) {
	for _, p := range profiles {
		assert.True(t, validProfile(p), p)
	}
	assert.False(t, validProfile("everything"))
}

func TestFileKind(t *testing.T) {
	k, err := fileKind("qa_report")
	require.NoError(t, err)
	assert.Equal(t, project.KindQAReport, k)

	for _, dir := range []string{"root", "ui_output_dir", "template_dir"} {
		_, err := fileKind(dir)
		assert.ErrorContains(t, err, "is a directory", dir)
	}
	_, err = fileKind("nonsense")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "appforge version "+version+"\n", out.String())
}
