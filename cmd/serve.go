package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/secondbrainhq/secondbrain/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON HTTP API server",
	Long: `Starts the API server. Run "secondbrain index" first to populate
the knowledge base; the server answers from whatever is already indexed.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	server, err := api.NewServer(api.Config{
		Host:     a.Config.APIHost,
		Port:     a.Config.APIPort,
		MaxTurns: a.Config.MaxTurns,
	}, a.Orchestrator, a.DBPool, a.Logger)
	if err != nil {
		return fmt.Errorf("creating api server: %w", err)
	}

	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("running api server: %w", err)
	}
	return nil
}
