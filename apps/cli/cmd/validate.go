package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/dothttp/packages/core/parser"
	"github.com/abdul-hamid-achik/dothttp/packages/core/source"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file|directory>...",
	Short: "Validate .http scripts for syntax errors",
	Long: `Validate .http scripts for syntax errors without executing them.

Examples:
  dothttp validate api.http
  dothttp validate ./requests/`,
	Args: cobra.MinimumNArgs(1),
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	items, err := source.Collect(args)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return &usageError{err: fmt.Errorf("no .http files found")}
	}

	var firstErr error
	for _, item := range items {
		file, err := parser.Parse(item.Text, item.Path)
		if err != nil {
			fmt.Fprintln(cmd.OutOrStderr(), err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d requests\n", item.Path, len(file.Requests))
	}

	return firstErr
}
