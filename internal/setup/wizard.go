// Package setup writes a first configuration file interactively.
package setup

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"gopkg.in/yaml.v3"

	"appforge/internal/config"
)

// ModelLister returns the models installed on an Ollama server.
type ModelLister func(ctx context.Context, serverURL string) ([]string, error)

// Wizard asks for a provider and writes config.yaml.
type Wizard struct {
	In   io.Reader
	Out  io.Writer
	Path string
	// ListModels defaults to querying the Ollama API.
	ListModels ModelLister
	// Force overwrites an existing file.
	Force bool
}

// fileConfig is the subset of config.Config the wizard writes.
type fileConfig struct {
	API struct {
		Provider      string `yaml:"provider"`
		GeminiKey     string `yaml:"gemini_key,omitempty"`
		OllamaBaseURL string `yaml:"ollama_base_url,omitempty"`
		Model         string `yaml:"model"`
	} `yaml:"api"`
	Storage struct {
		BaseDir     string `yaml:"base_dir"`
		TemplateDir string `yaml:"template_dir"`
	} `yaml:"storage"`
}

// ErrExists is returned when the config file exists and Force is unset.
var ErrExists = errors.New("config file already exists")

// Run executes the wizard and returns the written path.
func (w *Wizard) Run(ctx context.Context) (string, error) {
	if w.Path == "" {
		w.Path = config.DefaultPath()
	}
	if w.Path == "" {
		return "", errors.New("cannot determine config path")
	}
	if _, err := os.Stat(w.Path); err == nil && !w.Force {
		return "", fmt.Errorf("%w: %s (use --force to overwrite)", ErrExists, w.Path)
	}
	if w.ListModels == nil {
		w.ListModels = listOllamaModels
	}

	reader := bufio.NewReader(w.In)
	var fc fileConfig
	fc.Storage.BaseDir = config.DefaultBaseDir
	fc.Storage.TemplateDir = config.DefaultTemplateDir

	fmt.Fprintln(w.Out, "Choose a generation backend:")
	fmt.Fprintln(w.Out, "  [1] Gemini (API key)")
	fmt.Fprintln(w.Out, "  [2] Ollama (local server)")
	choice, err := ask(reader, w.Out, "Enter your choice (1 or 2): ")
	if err != nil {
		return "", err
	}

	switch choice {
	case "2":
		if err := w.ollama(ctx, reader, &fc); err != nil {
			return "", err
		}
	default:
		if err := w.gemini(reader, &fc); err != nil {
			return "", err
		}
	}

	data, err := yaml.Marshal(&fc)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(w.Path), 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	// 0600: the file may hold an API key.
	if err := os.WriteFile(w.Path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Fprintf(w.Out, "\n✓ Configured %s (%s)\n  Config: %s\n", fc.API.Provider, fc.API.Model, w.Path)
	return w.Path, nil
}

func (w *Wizard) gemini(reader *bufio.Reader, fc *fileConfig) error {
	fc.API.Provider = "gemini"

	if os.Getenv("GEMINI_API_KEY") != "" {
		fmt.Fprintln(w.Out, "✓ Found GEMINI_API_KEY in environment; the config will reference it.")
		fc.API.GeminiKey = "${GEMINI_API_KEY}"
	} else {
		key, err := ask(reader, w.Out, "Gemini API key (https://aistudio.google.com/apikey): ")
		if err != nil {
			return err
		}
		if key == "" {
			return errors.New("an API key is required for Gemini")
		}
		fc.API.GeminiKey = key
	}

	model, err := ask(reader, w.Out, fmt.Sprintf("Model (Enter for %s): ", config.DefaultGeminiModel))
	if err != nil {
		return err
	}
	fc.API.Model = orDefault(model, config.DefaultGeminiModel)
	return nil
}

func (w *Wizard) ollama(ctx context.Context, reader *bufio.Reader, fc *fileConfig) error {
	fc.API.Provider = "ollama"

	server, err := ask(reader, w.Out, fmt.Sprintf("Ollama server URL (Enter for %s): ", config.DefaultOllamaBaseURL))
	if err != nil {
		return err
	}
	server = orDefault(server, config.DefaultOllamaBaseURL)
	if server != config.DefaultOllamaBaseURL {
		fc.API.OllamaBaseURL = server
	}

	fmt.Fprintln(w.Out, "Checking installed models...")
	models, err := w.ListModels(ctx, server)
	switch {
	case err != nil:
		fmt.Fprintf(w.Out, "  ⚠ Could not connect to Ollama: %v\n  Make sure it is running: ollama serve\n", err)
	case len(models) == 0:
		fmt.Fprintf(w.Out, "  ⚠ No models installed. Run: ollama pull %s\n", config.DefaultOllamaModel)
	default:
		fmt.Fprintf(w.Out, "  ✓ Found %d installed model(s):\n", len(models))
		for i, m := range models {
			if i == 5 {
				fmt.Fprintf(w.Out, "    • ... and %d more\n", len(models)-5)
				break
			}
			fmt.Fprintf(w.Out, "    • %s\n", m)
		}
	}

	def := config.DefaultOllamaModel
	if len(models) > 0 {
		def = models[0]
	}
	model, err := ask(reader, w.Out, fmt.Sprintf("Model (Enter for %s): ", def))
	if err != nil {
		return err
	}
	fc.API.Model = orDefault(model, def)
	return nil
}

func ask(reader *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("error reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// listOllamaModels returns the models installed on serverURL.
func listOllamaModels(ctx context.Context, serverURL string) ([]string, error) {
	baseURL, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := api.NewClient(baseURL, &http.Client{Timeout: 5 * time.Second})
	resp, err := client.List(ctx)
	if err != nil {
		return nil, err
	}

	models := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, m.Name)
	}
	return models, nil
}
