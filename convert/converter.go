// Package convert runs the annotation to RDF pipeline: load, validate,
// resolve identifiers, serialize and optionally publish to the graph.
package convert

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/c360studio/anner-rdf/annotation"
	"github.com/c360studio/anner-rdf/export"
	"github.com/c360studio/anner-rdf/graph"
	"github.com/c360studio/anner-rdf/resolver"
)

// Result describes one converted document.
type Result struct {
	RunID         string
	Input         string
	Output        string
	DocumentID    string
	Provenance    resolver.Provenance
	ReviewVersion int
	Triples       int
	Bytes         int
	Published     int
	Duration      time.Duration
}

// Output is the in-memory outcome of converting a document.
type Output struct {
	Resolved *resolver.Resolved
	Format   export.Format
	RDF      string
	Triples  int
}

// Converter converts annotation documents to RDF.
type Converter struct {
	resolver  *resolver.Resolver
	exporter  *export.RDFExporter
	publisher *graph.DocumentPublisher
	format    export.Format
	outDir    string
	logger    *slog.Logger
	newRunID  func() string
}

// Option configures a Converter.
type Option func(*Converter)

// WithResolver sets the identifier resolver.
func WithResolver(r *resolver.Resolver) Option {
	return func(c *Converter) {
		if r != nil {
			c.resolver = r
		}
	}
}

// WithExporter sets the RDF exporter.
func WithExporter(e *export.RDFExporter) Option {
	return func(c *Converter) {
		if e != nil {
			c.exporter = e
		}
	}
}

// WithPublisher enables graph publishing of every converted document.
func WithPublisher(p *graph.DocumentPublisher) Option {
	return func(c *Converter) { c.publisher = p }
}

// WithFormat sets the output serialization.
func WithFormat(f export.Format) Option {
	return func(c *Converter) {
		if f != "" {
			c.format = f
		}
	}
}

// WithOutputDir writes files into dir instead of next to their inputs.
func WithOutputDir(dir string) Option {
	return func(c *Converter) { c.outDir = dir }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRunID fixes the run id generator.
func WithRunID(fn func() string) Option {
	return func(c *Converter) {
		if fn != nil {
			c.newRunID = fn
		}
	}
}

// New creates a Converter with a system-clock resolver, a default exporter and
// Turtle output.
func New(opts ...Option) *Converter {
	c := &Converter{
		format:   export.FormatTurtle,
		logger:   slog.Default(),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.resolver == nil {
		c.resolver = resolver.New(resolver.WithLogger(c.logger))
	}
	if c.exporter == nil {
		c.exporter = export.NewRDFExporter(export.WithLogger(c.logger))
	}
	return c
}

// Format returns the output serialization.
func (c *Converter) Format() export.Format {
	return c.format
}

// Resolve validates and resolves a document without serializing it.
func (c *Converter) Resolve(doc *annotation.Document) (*resolver.Resolved, error) {
	if doc == nil {
		return nil, &annotation.InputFormatError{Path: "annotations", Reason: "document has no paragraphs"}
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return c.resolver.Resolve(doc)
}

// Convert resolves and serializes a document. Nothing is written or
// published.
func (c *Converter) Convert(doc *annotation.Document) (*Output, error) {
	resolved, err := c.Resolve(doc)
	if err != nil {
		return nil, err
	}

	g, err := c.exporter.Build(resolved.DocumentID, resolved.Document)
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", resolved.DocumentID, err)
	}
	rdf, err := g.Encode(c.format)
	if err != nil {
		return nil, err
	}

	return &Output{
		Resolved: resolved,
		Format:   c.format,
		RDF:      rdf,
		Triples:  g.Triples(),
	}, nil
}

// ConvertTo converts a document, writes the RDF to w and publishes it when a
// publisher is configured. input only labels log lines and the result.
// Graph messages are built before anything is written, so only a stream
// failure can follow a write.
func (c *Converter) ConvertTo(ctx context.Context, doc *annotation.Document, input string, w io.Writer) (*Result, error) {
	start := time.Now()
	runID := c.newRunID()
	logger := c.logger.With("run_id", runID, "path", input)

	out, err := c.Convert(doc)
	if err != nil {
		logger.Error("Conversion failed", "error", err)
		return nil, err
	}

	batch, err := c.publisher.Prepare(out.Resolved.DocumentID, out.Resolved.Document, runID)
	if err != nil {
		logger.Error("Graph publish failed", "document_id", out.Resolved.DocumentID, "error", err)
		return nil, fmt.Errorf("publish %s: %w", out.Resolved.DocumentID, err)
	}

	n, err := io.WriteString(w, out.RDF)
	if err != nil {
		return nil, fmt.Errorf("write RDF: %w", err)
	}

	published, err := batch.Send(ctx)
	if err != nil {
		logger.Error("Graph publish failed", "document_id", out.Resolved.DocumentID, "error", err)
		return nil, fmt.Errorf("publish %s: %w", out.Resolved.DocumentID, err)
	}

	res := &Result{
		RunID:         runID,
		Input:         input,
		DocumentID:    out.Resolved.DocumentID,
		Provenance:    out.Resolved.Provenance,
		ReviewVersion: out.Resolved.ReviewVersion,
		Triples:       out.Triples,
		Bytes:         n,
		Published:     published,
		Duration:      time.Since(start),
	}

	logger.Info("Converted document",
		"document_id", res.DocumentID,
		"provenance", res.Provenance,
		"review_version", res.ReviewVersion,
		"format", c.format,
		"triples", res.Triples,
		"size", humanize.Bytes(uint64(n)),
		"published", published)

	return res, nil
}

// ConvertFile converts one annotation file into OutputPath(input).
func (c *Converter) ConvertFile(ctx context.Context, input string) (*Result, error) {
	doc, err := annotation.Load(input)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", input, err)
	}

	output := c.OutputPath(input)
	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	// Write to a temp file so a failed conversion leaves no partial output
	tmp, err := os.CreateTemp(filepath.Dir(output), "."+filepath.Base(output)+".*")
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	res, err := c.ConvertTo(ctx, doc, input, tmp)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close output file: %w", closeErr)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", input, err)
	}

	if err := os.Rename(tmp.Name(), output); err != nil {
		return nil, fmt.Errorf("write output file: %w", err)
	}
	res.Output = output
	return res, nil
}

// ConvertFiles converts inputs in order and stops at the first error.
func (c *Converter) ConvertFiles(ctx context.Context, inputs []string) ([]*Result, error) {
	results := make([]*Result, 0, len(inputs))
	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := c.ConvertFile(ctx, input)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// OutputPath returns where ConvertFile writes the RDF for input: the input
// name with the format's extension, in the output directory if one is set.
func (c *Converter) OutputPath(input string) string {
	ext := ".ttl"
	if info, ok := export.GetFormatInfo(c.format); ok {
		ext = info.Extension
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ext
	if c.outDir != "" {
		return filepath.Join(c.outDir, base)
	}
	return filepath.Join(filepath.Dir(input), base)
}

// WriteResolved writes the resolved document as indented annotation JSON.
func WriteResolved(w io.Writer, resolved *resolver.Resolved) error {
	data, err := json.MarshalIndent(resolved.Document, "", "  ")
	if err != nil {
		return fmt.Errorf("encode resolved document: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
