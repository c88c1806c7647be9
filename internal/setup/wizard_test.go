package setup

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"appforge/internal/config"
)

func TestWizardGemini(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	path := filepath.Join(t.TempDir(), "appforge", "config.yaml")
	var out bytes.Buffer

	w := &Wizard{In: strings.NewReader("1\nsecret-key\n\n"), Out: &out, Path: path}
	got, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, path, got)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.API.Provider)
	assert.Equal(t, "secret-key", cfg.API.GeminiKey)
	assert.Equal(t, config.DefaultGeminiModel, cfg.API.Model)
	assert.Equal(t, config.DefaultBaseDir, cfg.Storage.BaseDir)

	_, err = w.Run(context.Background())
	assert.ErrorIs(t, err, ErrExists)
}

func TestWizardGeminiFromEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	path := filepath.Join(t.TempDir(), "config.yaml")

	w := &Wizard{In: strings.NewReader("1\ngemini-2.5-flash\n"), Out: &bytes.Buffer{}, Path: path}
	_, err := w.Run(context.Background())
	require.NoError(t, err)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.API.GeminiKey)
	assert.Equal(t, "gemini-2.5-flash", cfg.API.Model)
}

func TestWizardOllama(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	var out bytes.Buffer
	var asked string

	w := &Wizard{
		In:   strings.NewReader("2\nhttp://gpu-box:11434\n\n"),
		Out:  &out,
		Path: path,
		ListModels: func(_ context.Context, server string) ([]string, error) {
			asked = server
			return []string{"qwen2.5-coder:7b", "llama3.2"}, nil
		},
	}
	_, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:11434", asked)
	assert.Contains(t, out.String(), "Found 2 installed model(s)")

	t.Setenv("OLLAMA_HOST", "")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ollama", cfg.API.Provider)
	assert.Equal(t, "qwen2.5-coder:7b", cfg.API.Model)
	assert.Equal(t, "http://gpu-box:11434", cfg.API.OllamaBaseURL)
}

func TestWizardOllamaUnreachable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	var out bytes.Buffer

	w := &Wizard{
		In:   strings.NewReader("2\n\n\n"),
		Out:  &out,
		Path: path,
		ListModels: func(context.Context, string) ([]string, error) {
			return nil, errors.New("connection refused")
		},
	}
	_, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Could not connect")

	t.Setenv("OLLAMA_HOST", "")
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultOllamaModel, cfg.API.Model)
	assert.Equal(t, config.DefaultOllamaBaseURL, cfg.API.OllamaBaseURL)
}
