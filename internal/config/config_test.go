package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  provider: ollama
  model: ${TEST_APPFORGE_MODEL}
pipeline:
  max_retries: 5
  retry_delay: 2s
  max_steps:
    qa: 12
storage:
  base_dir: out
`), 0644))

	t.Setenv("TEST_APPFORGE_MODEL", "llama3")
	t.Setenv("APPFORGE_BASE_DIR", "from-env")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.API.Provider)
	assert.Equal(t, "llama3", cfg.ModelName())
	assert.Equal(t, 5, cfg.Pipeline.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.Pipeline.RetryDelay)
	assert.Equal(t, 12, cfg.StepsFor("qa"))
	assert.Equal(t, DefaultMaxSteps, cfg.StepsFor("requirements"))
	assert.Equal(t, "from-env", cfg.Storage.BaseDir)
	assert.Equal(t, DefaultTemplateDir, cfg.Storage.TemplateDir)
	require.NoError(t, cfg.Validate())
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadDefaultMissingFileIsFine(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxRetries, cfg.Pipeline.MaxRetries)
	assert.Equal(t, DefaultRetryDelay, cfg.Pipeline.RetryDelay)
	assert.True(t, cfg.Pipeline.AutoFixOnAnalysisError)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.ErrorIs(t, cfg.Validate(), ErrMissingAuth)

	cfg.API.GeminiKey = "key"
	require.NoError(t, cfg.Validate())

	cfg.Pipeline.MaxRetries = 0
	require.ErrorIs(t, cfg.Validate(), ErrBadRetries)

	cfg.Pipeline.MaxRetries = 1
	cfg.API.Provider = "openai"
	require.ErrorIs(t, cfg.Validate(), ErrUnknownProvider)
}
