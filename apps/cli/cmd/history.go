package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/dothttp/packages/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show previously executed requests",
	Long: `Show requests recorded by earlier runs, newest first.

Examples:
  dothttp history
  dothttp history --limit 50`,
	Args: cobra.NoArgs,
	RunE: historyCommand,
}

var historyLimitFlag int

func init() {
	historyCmd.Flags().IntVar(&historyLimitFlag, "limit", 20, "Maximum number of entries to show")
	historyCmd.Flags().StringVar(&historyFileFlag, "history-file", getEnvString("DOTHTTP_HISTORY", ""), "Path to the history database (env: DOTHTTP_HISTORY)")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	path := historyFileFlag
	if path == "" {
		var err error
		if path, err = history.DefaultPath(); err != nil {
			return err
		}
	}

	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(cmd.Context(), historyLimitFlag)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no recorded requests")
		return nil
	}

	table := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(table, "When\tRequest\tMethod\tTarget\tStatus\tDuration\tTests")
	for _, entry := range entries {
		verdict := "ok"
		if entry.Failed {
			verdict = "failed"
		}
		fmt.Fprintf(table, "%s\t%s / %s\t%s\t%s\t%d\t%s\t%s\n",
			entry.ExecutedAt.Format("2006-01-02 15:04:05"),
			entry.File, entry.Request, entry.Method, entry.Target,
			entry.StatusCode, entry.Duration, verdict)
	}
	return table.Flush()
}
