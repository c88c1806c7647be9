package appspec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appforge/internal/sandbox"
)

func validSpec() *AppSpec {
	return &AppSpec{
		AppName:     "task-manager",
		DisplayName: "Task Manager",
		Description: "A modern task management application",
	}
}

func TestApplyDefaults(t *testing.T) {
	s := validSpec()
	s.ApplyDefaults()
	assert.Equal(t, DefaultVersion, s.Version)
	assert.Equal(t, DefaultTemplateName, s.TemplateName)
	assert.Equal(t, DefaultOutputDir, s.OutputDir)
	assert.NotNil(t, s.Features)
	require.NoError(t, s.Validate())
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppSpec)
		want   string
	}{
		{"not kebab", func(s *AppSpec) { s.AppName = "Task Manager" }, "kebab-case"},
		{"trailing dash", func(s *AppSpec) { s.AppName = "task-" }, "kebab-case"},
		{"missing description", func(s *AppSpec) { s.Description = "" }, "description is required"},
		{"bad version", func(s *AppSpec) { s.Version = "one" }, "semantic version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSpec()
			s.ApplyDefaults()
			tt.mutate(s)
			err := s.Validate()
			require.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestSaveAndLoad(t *testing.T) {
	root := t.TempDir()
	fs, err := sandbox.New(root)
	require.NoError(t, err)

	s := validSpec()
	s.Features = []string{"localStorage"}
	msg, err := s.Save(fs, "generated_app/task-manager/app_spec.json")
	require.NoError(t, err)
	assert.Contains(t, msg, "Successfully written")

	loaded, err := Load(filepath.Join(root, "generated_app/task-manager/app_spec.json"))
	require.NoError(t, err)
	assert.Equal(t, "task-manager", loaded.AppName)
	assert.Equal(t, []string{"localStorage"}, loaded.Features)
	assert.Equal(t, DefaultVersion, loaded.Version)
}

func TestParseInvalidJSON(t *testing.T) {
	_, err := Parse([]byte("{not json"))
	require.ErrorIs(t, err, ErrInvalid)

	path := filepath.Join(t.TempDir(), "missing.json")
	_, err = Load(path)
	require.ErrorIs(t, err, os.ErrNotExist)
}
