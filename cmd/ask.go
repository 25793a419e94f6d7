package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question against the knowledge base",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return fmt.Errorf("question must not be empty")
	}

	result, err := a.Orchestrator.Ask(ctx, question, nil)
	if err != nil {
		return fmt.Errorf("answering question: %w", err)
	}

	fmt.Println(renderMarkdown(result.Answer))
	if footer := formatSources(result.Sources); footer != "" {
		fmt.Println()
		fmt.Println(footer)
	}
	return nil
}
