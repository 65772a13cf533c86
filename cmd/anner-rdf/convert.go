package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/c360studio/anner-rdf/annotation"
	"github.com/c360studio/anner-rdf/config"
	"github.com/c360studio/anner-rdf/convert"
	"github.com/c360studio/anner-rdf/export"
)

type convertOptions struct {
	outDir  string
	format  string
	publish bool
}

func convertCmd(g *globalOptions) *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert [inputs...]",
		Short: "Convert annotation files to RDF",
		Long: `Convert annotation JSON files to RDF.

Inputs are file paths or glob patterns (data/**/*.json). With no inputs the
document is read from stdin. A single input without --out is written to
stdout; otherwise each input produces <name>.ttl (or .nt) next to it or in
the output directory. Inputs are processed in order and the first error
stops the run.`,
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

			if len(args) == 0 {
				doc, err := annotation.Decode(cmd.InOrStdin())
				if err != nil {
					return err
				}
				_, err = conv.ConvertTo(ctx, doc, "stdin", cmd.OutOrStdout())
				return err
			}

			inputs, err := convert.ExpandInputs(args)
			if err != nil {
				return err
			}

			if len(inputs) == 1 && outDir == "" {
				doc, err := annotation.Load(inputs[0])
				if err != nil {
					return fmt.Errorf("%s: %w", inputs[0], err)
				}
				_, err = conv.ConvertTo(ctx, doc, inputs[0], cmd.OutOrStdout())
				return err
			}

			results, err := conv.ConvertFiles(ctx, inputs)
			for _, res := range results {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s -> %s (%s)\n", res.Input, res.Output, res.DocumentID)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&opts.outDir, "out", "o", "", "Output directory (default: stdout for a single input)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "Output format: turtle or ntriples (default from config)")
	cmd.Flags().BoolVar(&opts.publish, "publish", false, "Publish resolved entities to the NATS graph ingest stream")

	return cmd
}

func resolveFormat(flag string, cfg *config.Config) (export.Format, error) {
	if flag == "" {
		return cfg.Format(), nil
	}
	return export.ParseFormat(flag)
}

type resolveOptions struct {
	out string
}

func resolveCmd(g *globalOptions) *cobra.Command {
	opts := &resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve <input>",
		Short: "Fill in document, paragraph and entity identifiers",
		Long: `Resolve identifiers in an annotation file and write the resolved JSON.

Use "-" to read from stdin. Output goes to stdout unless --out is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := g.setup()
			if err != nil {
				return err
			}

			var doc *annotation.Document
			if args[0] == "-" {
				doc, err = annotation.Decode(cmd.InOrStdin())
			} else {
				doc, err = annotation.Load(args[0])
			}
			if err != nil {
				return err
			}

			conv := convert.New(convert.WithLogger(logger))
			resolved, err := conv.Resolve(doc)
			if err != nil {
				return err
			}
			logger.Info("Resolved document",
				"document_id", resolved.DocumentID,
				"provenance", resolved.Provenance,
				"review_version", resolved.ReviewVersion,
				"assigned", resolved.Assigned.Total())

			if opts.out == "" {
				return convert.WriteResolved(cmd.OutOrStdout(), resolved)
			}
			f, err := os.Create(opts.out)
			if err != nil {
				return fmt.Errorf("create output file: %w", err)
			}
			if err := convert.WriteResolved(f, resolved); err != nil {
				f.Close()
				return err
			}
			return f.Close()
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", "", "Output file (default: stdout)")

	return cmd
}
