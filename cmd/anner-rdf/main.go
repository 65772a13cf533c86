// Package main provides the anner-rdf binary entry point.
// anner-rdf resolves identifiers in AnNER and CelloGraph annotation records
// and serializes them as ONNER RDF.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/anner-rdf/annotation"
	"github.com/c360studio/anner-rdf/config"
	"github.com/c360studio/anner-rdf/export"
	"github.com/c360studio/anner-rdf/resolver"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "anner-rdf"
)

// Exit codes by error class.
const (
	exitError      = 1
	exitPanic      = 2
	exitInput      = 3
	exitValidation = 4
	exitParse      = 5
	exitSerialize  = 6
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
}

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(exitPanic)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

func rootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Convert annotation records to ONNER RDF",
		Long: `anner-rdf converts JSON named-entity annotation records into RDF.

It accepts:
- AnNER raw output (no identifiers yet)
- AnNER structured output (identifiers embed the document id)
- CelloGraph RDF-to-JSON converter output

Missing paragraph and entity identifiers are assigned, review versions are
detected, and the document is written as Turtle or N-Triples following the
ONNER ontology.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		convertCmd(opts),
		resolveCmd(opts),
		serveCmd(opts),
		watchCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}

// setup configures logging and loads the layered configuration.
func (o *globalOptions) setup() (*config.Config, *slog.Logger, error) {
	logger := newLogger(o.logLevel)
	slog.SetDefault(logger)

	loader := config.NewLoader(logger, config.WithConfigFile(o.configPath))
	cfg, err := loader.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logger, nil
}

func newLogger(logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func newExporter(cfg *config.Config, logger *slog.Logger) *export.RDFExporter {
	opts := append(cfg.ExporterOptions(), export.WithLogger(logger))
	return export.NewRDFExporter(opts...)
}

// exitCode maps the error taxonomy to process exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, annotation.ErrInputFormat):
		return exitInput
	case errors.Is(err, resolver.ErrValidation):
		return exitValidation
	case errors.Is(err, resolver.ErrParse):
		return exitParse
	case errors.Is(err, export.ErrUnknownLabel),
		errors.Is(err, export.ErrParagraphPosition),
		errors.Is(err, export.ErrUnsupportedFormat):
		return exitSerialize
	default:
		return exitError
	}
}
