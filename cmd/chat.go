package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive chat with conversation memory",
	RunE:  runChat,
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := setupApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	memory := a.NewMemory()

	fmt.Println("secondbrain - ask questions about your notes and bookmarks")
	fmt.Println("Commands: /clear resets the conversation, /exit quits (also: quit, Ctrl+D)")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			// EOF (Ctrl+D)
			fmt.Println("\nGoodbye!")
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch strings.ToLower(input) {
		case "/exit", "/quit", "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return nil
		case "/clear":
			memory.Clear()
			fmt.Println("Conversation cleared.")
			fmt.Println()
			continue
		}

		result, err := a.Orchestrator.Ask(ctx, input, memory.Messages())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
			continue
		}

		fmt.Printf("\nKB: %s\n", renderMarkdown(result.Answer))
		if footer := formatSources(result.Sources); footer != "" {
			fmt.Println()
			fmt.Println(footer)
		}
		fmt.Println()

		memory.AddTurn(input, result.Answer)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	return nil
}
