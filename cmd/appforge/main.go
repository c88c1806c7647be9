package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"appforge/internal/config"
	"appforge/internal/logging"
	"appforge/internal/pipeline"
	"appforge/internal/ui"
)

var (
	version  = "0.1.0"
	cfgFile  string
	model    string
	provider string
	verbose  bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "appforge",
		Short: "Generate small web apps with a pipeline of LLM agents",
		Long: `appforge turns a natural-language description into a React app.
Phase agents write the requirements, the app spec, the UI design and the
implementation, then validate and review it, and fix what the review found.`,
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/appforge/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "model to use (default depends on the provider)")
	rootCmd.PersistentFlags().StringVar(&provider, "provider", "", "generation backend: gemini or ollama")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging, mirrored to stderr")

	rootCmd.AddCommand(
		newGenerateCmd(),
		newAnalyzeCmd(),
		newEnhanceCmd(),
		newProjectsCmd(),
		newRunsCmd(),
		newLogsCmd(),
		newAuditCmd(),
		newInitCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "appforge version %s\n", version)
			},
		},
	)
	return rootCmd
}

// loadConfig loads configuration and applies the global flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if model != "" {
		cfg.API.Model = model
	}
	if provider != "" {
		cfg.API.Provider = provider
	}
	if verbose {
		cfg.Logging.Level = string(logging.LevelDebug)
	}
	return cfg, nil
}

// loadPaths loads configuration and resolves its storage locations.
func loadPaths() (*config.Config, pipeline.Paths, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, pipeline.Paths{}, err
	}
	paths, err := pipeline.ResolvePaths(cfg)
	if err != nil {
		return nil, pipeline.Paths{}, err
	}
	return cfg, paths, nil
}

func logDir(paths pipeline.Paths) string {
	return filepath.Join(paths.StateDir, "logs")
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

var styles = ui.DefaultStyles()
