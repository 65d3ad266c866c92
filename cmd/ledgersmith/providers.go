package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ledgersmith-dev/ledgersmith/internal/llm"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "Show configured generation providers",
	Long: `Show which generation providers are configured.

Providers are detected from credentials, resolved from environment
variables or the [secrets] section of $LEDGERSMITH_HOME/config.toml:
  claude  ANTHROPIC_API_KEY
  gemini  GOOGLE_API_KEY or GEMINI_API_KEY`,
	Run: func(cmd *cobra.Command, args []string) {
		factory, err := llm.NewFactory(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			var aerr *llm.AuthError
			if errors.As(err, &aerr) {
				fmt.Fprintln(os.Stderr, aerr.Suggestion())
			}
			exitWithCode(ExitProvider)
		}
		defer factory.Close()

		provider, err := factory.GetProvider()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitWithCode(ExitProvider)
		}

		fmt.Println("Available providers:")
		for _, name := range factory.AvailableProviders() {
			marker := " "
			if name == provider.Name() {
				marker = "*"
			}
			fmt.Printf("  %s %s\n", marker, name)
		}
		fmt.Println("\n* preferred for the next attempt")
	},
}
