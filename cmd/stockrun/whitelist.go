package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func whitelistCmd() *cobra.Command {
	var (
		symbols []string
		refresh bool
	)

	cmd := &cobra.Command{
		Use:   "whitelist",
		Short: "Evaluate the fundamentals gate over a symbol universe",
		Long: `Fetches fundamentals for the given symbols (or the configured
universe), scores each against the gate, and prints the passing list plus
per-symbol results as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(configPath, false)
			if err != nil {
				return err
			}

			universe := symbols
			if len(universe) == 0 {
				universe = app.cfg.Realtime.Symbols
			}
			if len(universe) == 0 {
				return fmt.Errorf("no symbols given and none configured under realtime.symbols")
			}

			passed, results := app.manager.BuildWhitelist(cmd.Context(), universe, refresh)

			if app.whitelist != nil {
				now := time.Now()
				for sym, res := range results {
					if err := app.whitelist.Upsert(cmd.Context(), now, sym, res); err != nil {
						log.Warn().Err(err).Str("symbol", sym).Msg("failed to persist gate verdict")
					}
				}
			}

			out := struct {
				Whitelist []string                          `json:"whitelist"`
				Results   map[string]fundamentalsResultView `json:"results"`
			}{Whitelist: passed, Results: make(map[string]fundamentalsResultView, len(results))}
			for sym, res := range results {
				out.Results[sym] = fundamentalsResultView{
					Passes: res.Passes,
					Reason: res.Reason,
					Score:  res.Score,
				}
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringSliceVar(&symbols, "symbols", nil, "symbols to evaluate (default: realtime.symbols from config)")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "bypass the fundamentals cache")
	return cmd
}

type fundamentalsResultView struct {
	Passes bool    `json:"passes"`
	Reason string  `json:"reason"`
	Score  float64 `json:"score"`
}
