package cmd

// Exit codes for the dothttp CLI
const (
	// ExitSuccess indicates every request ran and every test passed
	ExitSuccess = 0

	// ExitTestFailure indicates one or more tests failed
	ExitTestFailure = 1

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 2

	// ExitParseError indicates a script parsing error
	ExitParseError = 3

	// ExitRuntimeError indicates an execution error such as a failed
	// connection or a script exception outside a test
	ExitRuntimeError = 4
)
