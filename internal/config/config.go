package config

import (
	"fmt"
	"strings"
	"time"

	"appforge/internal/ratelimit"
)

// Config holds the complete application configuration.
type Config struct {
	API            APIConfig            `yaml:"api"`
	Pipeline       PipelineConfig       `yaml:"pipeline"`
	Storage        StorageConfig        `yaml:"storage"`
	RateLimit      ratelimit.Config     `yaml:"rate_limit"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuit_breaker"`
	Validation     ValidationConfig     `yaml:"validation"`
	Logging        LoggingConfig        `yaml:"logging"`
}

// APIConfig selects and configures the generation backend.
type APIConfig struct {
	Provider        string        `yaml:"provider"`
	GeminiKey       string        `yaml:"gemini_key"`
	OllamaBaseURL   string        `yaml:"ollama_base_url"`
	Model           string        `yaml:"model"`
	Temperature     float32       `yaml:"temperature"`
	MaxOutputTokens int32         `yaml:"max_output_tokens"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
}

// PipelineConfig holds the orchestrator policy.
type PipelineConfig struct {
	MaxRetries int           `yaml:"max_retries"`
	RetryDelay time.Duration `yaml:"retry_delay"`
	// MaxSteps bounds the tool-calling turns per phase, keyed by phase name.
	MaxSteps map[string]int `yaml:"max_steps"`
	// AutoFixOnAnalysisError decides what happens when the QA report
	// cannot be read.
	AutoFixOnAnalysisError bool `yaml:"autofix_on_analysis_error"`
}

// StorageConfig holds filesystem locations. Relative paths are resolved
// against the workspace directory.
type StorageConfig struct {
	Workspace   string `yaml:"workspace"`
	BaseDir     string `yaml:"base_dir"`
	TemplateDir string `yaml:"template_dir"`
	StateDir    string `yaml:"state_dir"`
}

// CircuitBreakerConfig configures the breaker in front of the generation client.
type CircuitBreakerConfig struct {
	Threshold    int           `yaml:"threshold"`
	ResetTimeout time.Duration `yaml:"reset_timeout"`
}

// ValidationConfig configures the optional static checks.
type ValidationConfig struct {
	TypecheckCommand []string      `yaml:"typecheck_command"`
	LintCommand      []string      `yaml:"lint_command"`
	CommandTimeout   time.Duration `yaml:"command_timeout"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Provider:        DefaultProvider,
			OllamaBaseURL:   DefaultOllamaBaseURL,
			Temperature:     DefaultTemperature,
			MaxOutputTokens: DefaultMaxOutputTokens,
			RequestTimeout:  DefaultRequestTimeout,
		},
		Pipeline: PipelineConfig{
			MaxRetries: DefaultMaxRetries,
			RetryDelay: DefaultRetryDelay,
			MaxSteps: map[string]int{
				"implementation": DefaultImplementationStep,
				"validation":     DefaultValidationSteps,
			},
			AutoFixOnAnalysisError: true,
		},
		Storage: StorageConfig{
			Workspace:   ".",
			BaseDir:     DefaultBaseDir,
			TemplateDir: DefaultTemplateDir,
			StateDir:    DefaultStateDir,
		},
		RateLimit: ratelimit.Config{
			Enabled:           true,
			RequestsPerMinute: DefaultRequestsPerMinute,
			TokensPerMinute:   DefaultTokensPerMinute,
			BurstSize:         DefaultBurstSize,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Threshold:    DefaultBreakerThreshold,
			ResetTimeout: DefaultBreakerReset,
		},
		Validation: ValidationConfig{
			CommandTimeout: DefaultCommandTimeout,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// ModelName returns the configured model or the provider default.
func (c *Config) ModelName() string {
	if c.API.Model != "" {
		return c.API.Model
	}
	if c.API.Provider == "ollama" {
		return DefaultOllamaModel
	}
	return DefaultGeminiModel
}

// StepsFor returns the tool-calling budget for a phase.
func (c *Config) StepsFor(phase string) int {
	if n, ok := c.Pipeline.MaxSteps[phase]; ok && n > 0 {
		return n
	}
	return DefaultMaxSteps
}

// ConfigError is returned by Validate.
type ConfigError string

func (e ConfigError) Error() string {
	return string(e)
}

const (
	ErrMissingAuth     ConfigError = "no Gemini API key configured (set GEMINI_API_KEY or api.gemini_key)"
	ErrUnknownProvider ConfigError = "unknown provider (expected gemini or ollama)"
	ErrBadRetries      ConfigError = "pipeline.max_retries must be at least 1"
)

// Validate checks the configuration before a run.
func (c *Config) Validate() error {
	switch strings.ToLower(c.API.Provider) {
	case "gemini":
		if c.API.GeminiKey == "" {
			return ErrMissingAuth
		}
	case "ollama":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.API.Provider)
	}

	if c.Pipeline.MaxRetries < 1 {
		return ErrBadRetries
	}
	if c.Pipeline.RetryDelay < 0 {
		return ConfigError("pipeline.retry_delay must not be negative")
	}
	if c.Storage.BaseDir == "" {
		return ConfigError("storage.base_dir must be set")
	}
	return nil
}
