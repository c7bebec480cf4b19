package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/dothttp/packages/core/parser"
	"github.com/abdul-hamid-achik/dothttp/packages/core/runner"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "dothttp",
	Short: "Text-based scriptable HTTP client",
	Long: `dothttp executes .http files: plain text request scripts with
embedded JavaScript handlers for variables, assertions and chaining
requests together.`,
	SilenceUsage: true,
}

// usageError marks CLI misuse so Execute can map it to its own exit
// code.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func exitCode(err error) int {
	var testsFailed *runner.TestsFailedError
	if errors.As(err, &testsFailed) {
		return ExitTestFailure
	}
	var parseErr *parser.ParseError
	if errors.As(err, &parseErr) {
		return ExitParseError
	}
	var usage *usageError
	if errors.As(err, &usage) || isCobraUsageError(err) {
		return ExitUsageError
	}
	return ExitRuntimeError
}

// isCobraUsageError recognizes the errors cobra itself produces for
// unknown commands and argument validation.
func isCobraUsageError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "accepts ") ||
		strings.HasPrefix(msg, "requires at least")
}

func init() {
	rootCmd.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: fmt.Errorf("%w\nSee '%s --help'", err, cmd.CommandPath())}
	})

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
