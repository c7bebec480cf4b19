package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/dothttp/packages/core/config"
	"github.com/abdul-hamid-achik/dothttp/packages/core/env"
	"github.com/abdul-hamid-achik/dothttp/packages/core/parser"
	"github.com/abdul-hamid-achik/dothttp/packages/core/source"
	"github.com/abdul-hamid-achik/dothttp/packages/export/postman"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export scripts or variables for other tools",
}

var exportNameFlag string

var exportCollectionCmd = &cobra.Command{
	Use:   "collection <file|directory>...",
	Short: "Export .http scripts as a Postman collection",
	Long: `Export .http scripts as a Postman v2.1 collection on stdout.
Each source file becomes a folder in the collection.

Examples:
  dothttp export collection api.http > collection.json
  dothttp export collection ./requests/ --name "My API"`,
	Args: cobra.MinimumNArgs(1),
	RunE: exportCollectionCommand,
}

var exportEnvironmentCmd = &cobra.Command{
	Use:   "environment",
	Short: "Export the current variables as a Postman environment",
	Long: `Export the selected environment merged with the snapshot as a
Postman environment on stdout.

Examples:
  dothttp export environment --env staging > staging.json`,
	Args: cobra.NoArgs,
	RunE: exportEnvironmentCommand,
}

func init() {
	exportCmd.PersistentFlags().StringVar(&exportNameFlag, "name", "dothttp", "Name of the exported collection or environment")
	exportCmd.PersistentFlags().StringVarP(&envFlag, "env", "e", getEnvString("DOTHTTP_ENV", ""), "Environment to select from the environment file (env: DOTHTTP_ENV)")
	exportCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", getEnvString("DOTHTTP_ENV_FILE", ""), "Path to the environment file (env: DOTHTTP_ENV_FILE)")
	exportCmd.PersistentFlags().StringVar(&snapshotFlag, "snapshot", getEnvString("DOTHTTP_SNAPSHOT", ""), "Path to the snapshot file (env: DOTHTTP_SNAPSHOT)")
	exportCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("DOTHTTP_CONFIG", ""), "Path to config file (env: DOTHTTP_CONFIG)")

	exportCmd.AddCommand(exportCollectionCmd)
	exportCmd.AddCommand(exportEnvironmentCmd)
}

func exportCollectionCommand(cmd *cobra.Command, args []string) error {
	items, err := source.Collect(args)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		return &usageError{err: fmt.Errorf("no .http files found")}
	}

	var sources []postman.Source
	for _, item := range items {
		file, err := parser.Parse(item.Text, item.Path)
		if err != nil {
			return err
		}
		sources = append(sources, postman.Source{Name: item.Path, File: file})
	}

	return postman.ExportCollection(cmd.OutOrStdout(), exportNameFlag, sources)
}

func exportEnvironmentCommand(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return err
	}

	envName := cfg.Environment
	if envFlag != "" {
		envName = envFlag
	}
	envFile := cfg.EnvFile
	if envFileFlag != "" {
		envFile = envFileFlag
	}
	snapshotFile := cfg.SnapshotFile
	if snapshotFlag != "" {
		snapshotFile = snapshotFlag
	}

	provider := env.NewFileProvider(envName, envFile, snapshotFile)
	snapshot, err := provider.Snapshot()
	if err != nil {
		return err
	}

	return postman.ExportEnvironment(cmd.OutOrStdout(), exportNameFlag, snapshot)
}
