package config

import "time"

// Default configuration values.
const (
	DefaultProvider        = "gemini"
	DefaultGeminiModel     = "gemini-2.5-pro"
	DefaultOllamaModel     = "qwen2.5-coder:14b"
	DefaultOllamaBaseURL   = "http://localhost:11434"
	DefaultTemperature     = 0.3
	DefaultMaxOutputTokens = 8192
	DefaultRequestTimeout  = 5 * time.Minute

	// Pipeline retry policy
	DefaultMaxRetries = 3
	DefaultRetryDelay = 10 * time.Second

	// Per-phase step budgets
	DefaultMaxSteps           = 20
	DefaultImplementationStep = 30
	DefaultValidationSteps    = 10

	// Storage
	DefaultBaseDir     = "generated_app"
	DefaultTemplateDir = "templates/react-simple-spa"
	DefaultStateDir    = ".appforge"

	// Circuit breaker
	DefaultBreakerThreshold = 5
	DefaultBreakerReset     = 30 * time.Second

	// Validation subprocesses
	DefaultCommandTimeout = 60 * time.Second

	// Audit
	DefaultAuditMaxResultLen = 2000

	// Rate limiting
	DefaultRequestsPerMinute = 30
	DefaultTokensPerMinute   = 1000000
	DefaultBurstSize         = 5
)
