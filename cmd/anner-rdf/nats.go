package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/c360studio/semstreams/natsclient"

	"github.com/c360studio/anner-rdf/config"
	"github.com/c360studio/anner-rdf/graph"
)

const defaultNATSURL = "nats://localhost:4222"

// natsURL picks the server URL: NATS_URL wins, then config (which already
// carries ANNER_RDF_NATS_URL), then the local default.
func natsURL(cfg *config.Config) string {
	if envURL := os.Getenv("NATS_URL"); envURL != "" {
		return envURL
	}
	if cfg.NATS.URL != "" {
		return cfg.NATS.URL
	}
	return defaultNATSURL
}

func connectToNATS(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*natsclient.Client, error) {
	url := natsURL(cfg)

	logger.Info("Connecting to NATS", "url", url)

	client, err := natsclient.NewClient(url,
		natsclient.WithName(appName),
		natsclient.WithMaxReconnects(-1),
		natsclient.WithReconnectWait(time.Second),
		natsclient.WithCircuitBreakerThreshold(20),
		natsclient.WithHealthInterval(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("create NATS client: %w", err)
	}

	if err := client.Connect(ctx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := client.WaitForConnection(connCtx); err != nil {
		return nil, wrapNATSError(err, url)
	}

	logger.Info("Connected to NATS", "url", url)
	return client, nil
}

func wrapNATSError(err error, url string) error {
	errStr := err.Error()

	// Check for common connection errors
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no servers available") ||
		strings.Contains(errStr, "timeout") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

To start NATS:
  docker run -d -p 4222:4222 nats:latest -js

Or set NATS_URL (or nats.url in anner-rdf.yaml) to point to your NATS server.`, err, url)
	}

	return fmt.Errorf("NATS connection failed: %w", err)
}

// openPublisher connects to NATS when publishing is requested. The returned
// closer is always safe to call.
func openPublisher(ctx context.Context, enabled bool, cfg *config.Config, logger *slog.Logger) (*graph.DocumentPublisher, func(), error) {
	if !enabled {
		return nil, func() {}, nil
	}

	client, err := connectToNATS(ctx, cfg, logger)
	if err != nil {
		return nil, func() {}, err
	}

	pub := graph.NewDocumentPublisher(client,
		graph.WithSubject(cfg.NATS.Subject),
		graph.WithMetadata(cfg.GraphMetadata()),
		graph.WithLogger(logger))

	closer := func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Close(closeCtx); err != nil {
			logger.Warn("Failed to close NATS connection", "error", err)
		}
	}
	return pub, closer, nil
}
