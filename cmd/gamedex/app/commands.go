package app

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gamedex/gamedex/internal/server"
	"github.com/gamedex/gamedex/pkg/games"
	"github.com/gamedex/gamedex/pkg/logging"
)

// newServeCommand runs the HTTP API server.
func (a *App) newServeCommand() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the gamedex HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.Config()
			if err != nil {
				return err
			}
			g, err := a.Gamedex()
			if err != nil {
				return err
			}
			if err := a.warmVocabulary(cmd.Context(), g); err != nil {
				logging.Warn().Err(err).Msg("Vocabulary unavailable, term resolution degraded")
			}

			serverCfg := server.Config{
				Host:         cfg.Server.Host,
				Port:         cfg.Server.Port,
				PathPrefix:   cfg.Server.PathPrefix,
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
				IdleTimeout:  cfg.Server.IdleTimeout,
			}
			if host != "" {
				serverCfg.Host = host
			}
			if port != 0 {
				serverCfg.Port = port
			}

			return server.New(serverCfg, g).Serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "bind address (overrides config)")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides config)")
	return cmd
}

// newSearchCommand runs the full pipeline from the terminal: free text
// interpreted into a filter, searched, and enriched.
func (a *App) newSearchCommand() *cobra.Command {
	var (
		limit int
		page  int
	)

	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search games with a free-text query",
		Example: `  gamedex search "multiplayer RPG on PC under $20 after 2015"
  gamedex search "free indie games"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.Gamedex()
			if err != nil {
				return err
			}
			if err := a.warmVocabulary(cmd.Context(), g); err != nil {
				logging.Warn().Err(err).Msg("Vocabulary unavailable, term resolution degraded")
			}

			result, err := g.Query(cmd.Context(), strings.Join(args, " "), limit, page)
			if err != nil {
				return err
			}
			return printJSON(result)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", games.DefaultPageLimit, "results per page")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	return cmd
}

// newQueryCommand shows how free text would be interpreted, without
// searching. Debugging aid for the extraction and resolution steps.
func (a *App) newQueryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <text>",
		Short: "Show the parsed filter for a free-text query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := a.Gamedex()
			if err != nil {
				return err
			}
			if err := a.warmVocabulary(cmd.Context(), g); err != nil {
				logging.Warn().Err(err).Msg("Vocabulary unavailable, term resolution degraded")
			}

			filter, unresolved, err := g.Interpret(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printJSON(map[string]any{
				"filter":     filter,
				"unresolved": unresolved,
			})
		},
	}
	return cmd
}

// newVocabCommand manages the vocabulary cache.
func (a *App) newVocabCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vocab",
		Short: "Manage the vocabulary cache",
	}

	var force bool
	refresh := &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the vocabulary from the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := a.Gamedex()
			if err != nil {
				return err
			}
			if err := g.RefreshVocabulary(cmd.Context(), force); err != nil {
				return err
			}
			counts := map[string]int{}
			for _, category := range games.Categories() {
				counts[category.String()] = len(g.VocabularyEntries(category))
			}
			return printJSON(counts)
		},
	}
	refresh.Flags().BoolVar(&force, "force", false, "refresh even when already refreshed this session")
	cmd.AddCommand(refresh)

	cmd.AddCommand(&cobra.Command{
		Use:   "show <category>",
		Short: "Print the cached vocabulary for a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			category, err := games.ParseCategory(args[0])
			if err != nil {
				return err
			}
			g, err := a.Gamedex()
			if err != nil {
				return err
			}
			if err := a.warmVocabulary(cmd.Context(), g); err != nil {
				return err
			}
			return printJSON(g.VocabularyEntries(category))
		},
	})
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
