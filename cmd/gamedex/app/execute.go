package app

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gamedex/gamedex/pkg/logging"
)

// Execute runs the gamedex CLI with the given arguments.
func (a *App) Execute(ctx context.Context, args []string) error {
	rootCmd := a.createRootCommand()
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(ctx)
}

// createRootCommand creates the root cobra command with all subcommands.
func (a *App) createRootCommand() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:     "gamedex",
		Short:   "Game metadata aggregation CLI",
		Version: a.version,
		Long: `Gamedex aggregates video game metadata from a catalog provider and a
storefront provider into single enriched records: catalog facts paired
with store prices, matched by title.

Searches take either a structured filter or free text; free text is
interpreted into a filter using pattern extraction plus an optional
text-generation backend.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
				logging.SetDefault(logging.NewConsole().Level(zerolog.DebugLevel))
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		a.newServeCommand(),
		a.newSearchCommand(),
		a.newQueryCommand(),
		a.newVocabCommand(),
	)
	return rootCmd
}
