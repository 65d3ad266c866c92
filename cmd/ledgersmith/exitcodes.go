package main

import "os"

// Exit codes for different failure classes.
// These enable scripts to distinguish between failure modes.
const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0

	// ExitGeneral indicates a general error
	ExitGeneral = 1

	// ExitUsage indicates invalid arguments or usage error
	ExitUsage = 2

	// ExitConfig indicates an invalid task bundle or environment
	ExitConfig = 3

	// ExitProvider indicates no usable generation provider
	ExitProvider = 4

	// ExitSynthesisFailed indicates the attempt budget was exhausted
	ExitSynthesisFailed = 5

	// ExitSandbox indicates the execution sandbox itself is broken
	ExitSandbox = 6
)

// exitWithCode exits with the specified exit code
func exitWithCode(code int) {
	os.Exit(code)
}
