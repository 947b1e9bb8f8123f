package main

import (
	"context"

	"github.com/spf13/cobra"
)

var configPath string

// Execute runs the CLI.
func Execute(ctx context.Context) error {
	root := &cobra.Command{
		Use:   "stockrun",
		Short: "Fundamentals-gated technical signal scanner",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config/stockrun.yaml", "path to config file")

	root.AddCommand(whitelistCmd())
	root.AddCommand(signalsCmd())
	root.AddCommand(monitorCmd())
	root.AddCommand(serveCmd())

	return root.ExecuteContext(ctx)
}
