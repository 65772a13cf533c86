package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/c360studio/anner-rdf/convert"
	"github.com/c360studio/anner-rdf/watch"
)

type watchOptions struct {
	outDir  string
	format  string
	publish bool
}

func watchCmd(g *globalOptions) *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Convert annotation files as they change",
		Long: `Watch a directory tree and convert every annotation JSON file that is
created or changed. Existing files are converted once at startup. A file whose
content did not change is not converted again; removing a file removes its
output.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.setup()
			if err != nil {
				return err
			}
			format, err := resolveFormat(opts.format, cfg)
			if err != nil {
				return err
			}
			outDir := opts.outDir
			if outDir == "" {
				outDir = cfg.Output.Dir
			}

			ctx := cmd.Context()
			pub, closePub, err := openPublisher(ctx, opts.publish, cfg, logger)
			if err != nil {
				return err
			}
			defer closePub()

			conv := convert.New(
				convert.WithExporter(newExporter(cfg, logger)),
				convert.WithPublisher(pub),
				convert.WithFormat(format),
				convert.WithOutputDir(outDir),
				convert.WithLogger(logger))

			w, err := watch.New(watch.Config{
				Debounce:    cfg.Watch.Debounce,
				ExcludeDirs: cfg.Watch.ExcludeDirs,
			}, args[0], logger)
			if err != nil {
				return err
			}
			defer w.Stop()

			initialPass(ctx, w, conv, logger)

			if err := w.Start(ctx); err != nil {
				return err
			}
			return runWatch(ctx, w, conv, logger)
		},
	}

	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "", "Output directory (default: next to each input)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format: turtle or ntriples (default from config)")
	cmd.Flags().BoolVar(&opts.publish, "publish", false, "Publish resolved entities to the NATS graph ingest stream")

	return cmd
}

// initialPass converts files already present and records their hashes so the
// watcher only reports later changes.
func initialPass(ctx context.Context, w *watch.Watcher, conv *convert.Converter, logger *slog.Logger) {
	matches, err := doublestar.FilepathGlob(filepath.Join(w.Root(), "**", "*"+watch.InputExtension))
	if err != nil {
		logger.Warn("Initial scan failed", "root", w.Root(), "error", err)
		return
	}
	for _, path := range matches {
		if ctx.Err() != nil {
			return
		}
		if !w.Watches(path) {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Failed to read annotation file", "path", path, "error", err)
			continue
		}
		rel, _ := filepath.Rel(w.Root(), path)
		w.SetHash(rel, watch.ContentHash(data))
		if _, err := conv.ConvertFile(ctx, path); err != nil {
			logger.Warn("Conversion failed", "path", path, "error", err)
		}
	}
}

// runWatch converts on every change until the watcher stops. Conversion
// errors are logged and do not stop the watcher.
func runWatch(ctx context.Context, w *watch.Watcher, conv *convert.Converter, logger *slog.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			handleWatchEvent(ctx, ev, conv, logger)
		}
	}
}

func handleWatchEvent(ctx context.Context, ev watch.Event, conv *convert.Converter, logger *slog.Logger) {
	switch ev.Operation {
	case watch.OpDelete:
		out := conv.OutputPath(ev.AbsPath)
		if err := os.Remove(out); err == nil {
			logger.Info("Removed output of deleted file", "path", ev.Path, "output", out)
		} else if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("Failed to remove output", "output", out, "error", err)
		}
	default:
		if _, err := conv.ConvertFile(ctx, ev.AbsPath); err != nil {
			logger.Warn("Conversion failed", "path", ev.Path, "op", ev.Operation, "error", err)
		}
	}
}
