package main

import (
	"github.com/spf13/cobra"

	"github.com/c360studio/anner-rdf/server"
)

func serveCmd(g *globalOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP conversion service",
		Long: `Run the HTTP conversion service.

Endpoints:
  POST /api/v1/resolve          annotation JSON -> resolved JSON
  POST /api/v1/rdf?format=...   annotation JSON -> Turtle or N-Triples
  GET  /healthz                 liveness
  GET  /metrics                 Prometheus metrics`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.setup()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			srv := server.New(server.Config{
				Addr:            cfg.Server.Addr,
				MaxBodyBytes:    cfg.Server.MaxBodyBytes,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
			},
				server.WithExporter(newExporter(cfg, logger)),
				server.WithLogger(logger))

			return srv.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")

	return cmd
}
