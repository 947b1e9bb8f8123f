package main

import (
	"github.com/spf13/cobra"

	httpapi "github.com/equitylab/stockrun/internal/interfaces/http"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API without the scan loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := buildApp(configPath, false)
			if err != nil {
				return err
			}
			server := httpapi.NewServer(app.cfg.HTTP, app.manager, app.signals, app.registry)
			return server.Start(cmd.Context())
		},
	}
	return cmd
}
