package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ledgersmith-dev/ledgersmith/internal/buildinfo"
	"github.com/ledgersmith-dev/ledgersmith/internal/log"
)

var (
	flagVerbose bool
	flagDebug   bool
	flagQuiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "ledgersmith",
	Short: "Synthesize document parsers from worked examples",
	Long: `ledgersmith turns a task bundle (a document sample, a target schema, and
a known-correct output) into a working parser program.

It asks a generation model for a candidate program, runs it in a sandbox
against the sample, compares the output to the reference, and feeds any
differences back to the model until the output matches or the attempt
budget runs out.`,
	Version: buildinfo.Version(),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		switch {
		case flagDebug:
			level = slog.LevelDebug
		case flagVerbose:
			level = slog.LevelInfo
		case flagQuiet:
			level = slog.LevelError
		}
		log.SetDefault(log.NewText(os.Stderr, level))
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Log attempt progress")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Log state transitions and sandbox detail")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log errors")

	rootCmd.AddCommand(synthCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(providersCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		exitWithCode(ExitUsage)
	}
}
