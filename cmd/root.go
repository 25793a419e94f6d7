// Package cmd implements the secondbrain CLI.
package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/secondbrainhq/secondbrain/internal/app"
	"github.com/secondbrainhq/secondbrain/internal/config"
	"github.com/secondbrainhq/secondbrain/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "secondbrain",
	Short: "Personal knowledge base with cited answers",
	Long: `secondbrain answers questions from your own notes and browser
bookmarks. Documents are chunked, embedded, and stored in PostgreSQL with
pgvector; answers cite the sources they came from.

Running secondbrain without a subcommand starts an interactive chat.`,
	RunE: runChat,
}

var verbose bool

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the CLI logger honoring the --verbose flag.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level})
}

// setupApp loads configuration and initializes the application. Callers
// own the returned App and must Close it.
func setupApp(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	a, err := app.Setup(ctx, cfg, newLogger())
	if err != nil {
		return nil, fmt.Errorf("initializing application: %w", err)
	}
	return a, nil
}
