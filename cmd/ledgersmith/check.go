package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ledgersmith-dev/ledgersmith/internal/config"
	"github.com/ledgersmith-dev/ledgersmith/internal/task"
)

var checkCmd = &cobra.Command{
	Use:   "check <task>",
	Short: "Validate a task bundle without running synthesis",
	Long: `Load and validate a task bundle, reporting its schema and any
configuration problems. Nothing is generated or executed.

Examples:
  ledgersmith check icici
  ledgersmith check ./tasks/icici`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.DefaultConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitWithCode(ExitConfig)
		}

		bundle, err := task.Load(resolveTaskDir(cfg, args[0]))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			var cerr *task.ConfigError
			if errors.As(err, &cerr) {
				fmt.Fprintln(os.Stderr, cerr.Suggestion())
			}
			exitWithCode(ExitConfig)
		}

		fmt.Printf("Task:        %s\n", bundle.Name)
		if bundle.Description != "" {
			fmt.Printf("Description: %s\n", bundle.Description)
		}
		fmt.Printf("Interpreter: %s\n", bundle.Interpreter)
		fmt.Printf("Program:     %s\n", bundle.ProgramFile)
		fmt.Printf("Input:       %s (%d bytes)\n", bundle.InputPath, len(bundle.InputSample))
		fmt.Printf("Reference:   %d rows\n", len(bundle.Reference.Rows))

		fmt.Println("Schema:")
		for _, col := range bundle.Schema.Columns {
			typ := col.Type
			if typ == "" {
				typ = task.TypeString
			}
			fmt.Printf("  %-20s %s\n", col.Name, typ)
		}
		if bundle.Schema.OrderIndependent {
			fmt.Println("  (row order independent)")
		}
		if len(bundle.Rules) > 0 {
			fmt.Printf("Rules:       %d\n", len(bundle.Rules))
		}

		fmt.Println()
		fmt.Printf("✓ %s is a valid task bundle\n", bundle.Name)
	},
}

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "List task bundles",
	Long:  `List the task bundles under $LEDGERSMITH_HOME/tasks and whether a synthesized program is installed for each.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.DefaultConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitWithCode(ExitConfig)
		}

		entries, err := os.ReadDir(cfg.TasksDir)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Println("No task bundles found.")
				return
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitWithCode(ExitGeneral)
		}

		type row struct {
			Name, Status, Description string
		}
		var rows []row
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			bundle, err := task.Load(cfg.TaskDir(entry.Name()))
			if err != nil {
				rows = append(rows, row{Name: entry.Name(), Status: "invalid", Description: err.Error()})
				continue
			}
			status := "-"
			if _, err := os.Stat(cfg.ProgramPath(bundle.Name, bundle.ProgramFile)); err == nil {
				status = "synthesized"
			}
			rows = append(rows, row{Name: bundle.Name, Status: status, Description: bundle.Description})
		}

		if len(rows) == 0 {
			fmt.Println("No task bundles found.")
			return
		}

		maxName := 4 // "NAME"
		for _, r := range rows {
			if len(r.Name) > maxName {
				maxName = len(r.Name)
			}
		}
		fmt.Printf("%-*s  %-12s  %s\n", maxName, "NAME", "STATUS", "DESCRIPTION")
		for _, r := range rows {
			desc := r.Description
			if len(desc) > 60 {
				desc = desc[:57] + "..."
			}
			fmt.Printf("%-*s  %-12s  %s\n", maxName, r.Name, r.Status, strings.TrimSpace(desc))
		}
	},
}
