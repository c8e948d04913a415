// Package cmd implements the retriva command line interface.
//
// Following the pattern used by kubectl, hugo, and other standard Go CLI
// tools, all application logic is contained in the cmd package, leaving
// main.go as a minimal entry point.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/retriva/retriva/internal/app"
	"github.com/retriva/retriva/internal/config"
	"github.com/retriva/retriva/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "retriva",
	Short: "Retriva - grounded document Q&A over your own files",
	Long: `Retriva indexes a directory of documents into PostgreSQL and answers
questions about them with hybrid (dense + full-text) retrieval. Answers
are grounded: the model only uses retrieved context and cites sources.

Typical workflow:

  retriva ingest ./docs           index documents into a collection
  retriva ask "how does X work?"  one-shot grounded question
  retriva serve                   HTTP API with SSE streaming`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main().
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		return err
	}
	return nil
}

// initLogger initializes the structured logger.
//
// Log level is controlled by the DEBUG environment variable:
//   - DEBUG set (any value): debug level logging
//   - DEBUG not set: info level logging
//
// Logs go to stderr; stdout is reserved for command output.
func initLogger() log.Logger {
	cfg := log.Config{Level: slog.LevelInfo}
	if os.Getenv("DEBUG") != "" {
		cfg.Level = slog.LevelDebug
	}
	return log.New(cfg)
}

// setupApp loads configuration and builds the fully wired application.
// The caller owns the returned App and must Close() it.
func setupApp(ctx context.Context) (*app.App, error) {
	logger := initLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize application: %w", err)
	}
	return a, nil
}
