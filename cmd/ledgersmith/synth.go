package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ledgersmith-dev/ledgersmith/internal/config"
	"github.com/ledgersmith-dev/ledgersmith/internal/llm"
	"github.com/ledgersmith-dev/ledgersmith/internal/log"
	"github.com/ledgersmith-dev/ledgersmith/internal/sandbox"
	"github.com/ledgersmith-dev/ledgersmith/internal/synth"
	"github.com/ledgersmith-dev/ledgersmith/internal/task"
)

var (
	flagMaxAttempts    int
	flagTimeout        time.Duration
	flagProvider       string
	flagKeepWorkspaces bool
)

var synthCmd = &cobra.Command{
	Use:   "synth <task>",
	Short: "Synthesize a parser for a task bundle",
	Long: `Synthesize a parser program for a task bundle.

The task is either a bundle directory or the name of a bundle under
$LEDGERSMITH_HOME/tasks. On success the winning program is installed
under $LEDGERSMITH_HOME/out/<task>/ together with the attempt
transcript.

Examples:
  ledgersmith synth icici
  ledgersmith synth ./tasks/icici --max-attempts 5
  ledgersmith synth icici --provider gemini --timeout 60s`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		runSynth(args[0])
	},
}

func init() {
	synthCmd.Flags().IntVar(&flagMaxAttempts, "max-attempts", 0,
		"Attempt budget (default from LEDGERSMITH_MAX_ATTEMPTS, or 3)")
	synthCmd.Flags().DurationVar(&flagTimeout, "timeout", 0,
		"Candidate execution timeout (default from LEDGERSMITH_EXEC_TIMEOUT, or 30s)")
	synthCmd.Flags().StringVar(&flagProvider, "provider", "",
		"Preferred generation provider (claude, gemini)")
	synthCmd.Flags().BoolVar(&flagKeepWorkspaces, "keep-workspaces", false,
		"Keep the attempt workspace after a successful run")
}

func runSynth(name string) {
	ctx := context.Background()
	logger := log.Default()

	cfg, err := config.DefaultConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitWithCode(ExitConfig)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitWithCode(ExitConfig)
	}

	bundle, err := task.Load(resolveTaskDir(cfg, name))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var cerr *task.ConfigError
		if errors.As(err, &cerr) {
			fmt.Fprintln(os.Stderr, cerr.Suggestion())
		}
		exitWithCode(ExitConfig)
	}

	var factoryOpts []llm.FactoryOption
	if flagProvider != "" {
		factoryOpts = append(factoryOpts, llm.WithPrimaryProvider(flagProvider))
	}
	factory, err := llm.NewFactory(ctx, factoryOpts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var aerr *llm.AuthError
		if errors.As(err, &aerr) {
			fmt.Fprintln(os.Stderr, aerr.Suggestion())
		}
		exitWithCode(ExitProvider)
	}
	defer factory.Close()

	timeout := flagTimeout
	if timeout <= 0 {
		timeout = config.GetExecTimeout()
	}
	executor := sandbox.NewExecutor(
		sandbox.WithTimeout(timeout),
		sandbox.WithLogger(logger),
	)

	attempts := flagMaxAttempts
	if attempts <= 0 {
		attempts = config.GetMaxAttempts()
	}

	runID := time.Now().UTC().Format("20060102-150405")
	workDir := cfg.WorkspaceDir(bundle.Name, runID)

	controller := synth.New(factory, executor,
		synth.WithMaxAttempts(attempts),
		synth.WithLogger(logger),
		synth.WithWorkDir(workDir),
	)

	fmt.Printf("Synthesizing %s (budget: %d attempts, timeout: %s)...\n",
		bundle.Name, attempts, timeout)

	outcome, err := controller.Run(ctx, bundle)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitWithCode(ExitSandbox)
	}

	if !outcome.Success {
		// Keep the workspace: it holds every candidate and its artifact.
		transcriptPath, terr := outcome.WriteTranscript(workDir)
		if terr != nil {
			logger.Warn("failed to write transcript", "error", terr)
		}
		last := outcome.History[outcome.Attempts()-1]
		xerr := &synth.ExhaustedError{
			Task:           bundle.Name,
			Attempts:       outcome.Attempts(),
			LastFailure:    last.Failure,
			TranscriptPath: transcriptPath,
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", xerr)
		fmt.Fprintln(os.Stderr, xerr.Suggestion())
		exitWithCode(ExitSynthesisFailed)
	}

	programPath := cfg.ProgramPath(bundle.Name, bundle.ProgramFile)
	outDir := filepath.Dir(programPath)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to install program: %v\n", err)
		exitWithCode(ExitGeneral)
	}
	if err := os.WriteFile(programPath, []byte(outcome.Program), 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to install program: %v\n", err)
		exitWithCode(ExitGeneral)
	}
	if _, err := outcome.WriteTranscript(outDir); err != nil {
		logger.Warn("failed to write transcript", "error", err)
	}

	if !flagKeepWorkspaces {
		if err := os.RemoveAll(workDir); err != nil {
			logger.Warn("failed to clean workspace", "dir", workDir, "error", err)
		}
	}

	fmt.Println()
	fmt.Printf("✅ Synthesized %s in %d attempt(s)\n", bundle.Name, outcome.Attempts())
	fmt.Printf("Program:  %s\n", programPath)
	fmt.Printf("Run it:   %s %s <input> <output>\n", bundle.Interpreter, programPath)
	fmt.Printf("Provider: %s (%s)\n", outcome.Provider, llm.SummarizeByProvider(outcome.Usage))
}

// resolveTaskDir accepts either a bundle directory path or a task name under
// the configured tasks directory.
func resolveTaskDir(cfg *config.Config, name string) string {
	if info, err := os.Stat(name); err == nil && info.IsDir() {
		return name
	}
	return cfg.TaskDir(name)
}
