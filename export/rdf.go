// Package export serializes resolved annotation documents as ONNER RDF.
package export

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/c360studio/anner-rdf/annotation"
	"github.com/c360studio/anner-rdf/vocabulary/onner"
)

// Format specifies the output serialization format.
type Format string

const (
	// FormatTurtle produces Turtle (.ttl) output.
	FormatTurtle Format = "turtle"

	// FormatNTriples produces N-Triples (.nt) output.
	FormatNTriples Format = "ntriples"
)

// TermKind distinguishes IRIs from literals.
type TermKind uint8

const (
	KindIRI TermKind = iota
	KindLiteral
)

// Term is an RDF object: an IRI, or a lexical value with an XSD datatype.
type Term struct {
	Kind     TermKind
	Value    string
	Datatype string
}

// IRI returns an IRI term.
func IRI(iri string) Term {
	return Term{Kind: KindIRI, Value: iri}
}

// Literal returns a typed literal term.
func Literal(value, datatype string) Term {
	return Term{Kind: KindLiteral, Value: value, Datatype: datatype}
}

// Statement is one predicate of a subject and its objects.
type Statement struct {
	Predicate string
	Objects   []Term
}

// Block groups the statements of one subject, in output order.
type Block struct {
	Subject    string
	Statements []Statement
}

// Add appends a statement. Statements without objects are dropped.
func (b *Block) Add(predicate string, objects ...Term) {
	if len(objects) == 0 {
		return
	}
	b.Statements = append(b.Statements, Statement{Predicate: predicate, Objects: objects})
}

// Graph is an ordered list of subject blocks.
type Graph struct {
	Blocks []Block
}

// Triples returns the number of triples in the graph.
func (g *Graph) Triples() int {
	n := 0
	for _, b := range g.Blocks {
		for _, s := range b.Statements {
			n += len(s.Objects)
		}
	}
	return n
}

// Encode serializes the graph.
func (g *Graph) Encode(format Format) (string, error) {
	switch format {
	case FormatTurtle:
		w := NewTurtleWriter()
		w.WritePrefixes()
		for _, b := range g.Blocks {
			w.WriteBlock(b)
		}
		return w.String(), nil
	case FormatNTriples:
		w := NewNTriplesWriter()
		for _, b := range g.Blocks {
			w.WriteBlock(b)
		}
		return w.String(), nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Publication holds the bibliographic literals of the publication profile.
type Publication struct {
	Title string
	Date  string
	DOI   string
}

// DefaultPublication returns placeholder literals used when no metadata is
// configured.
func DefaultPublication() Publication {
	return Publication{
		Title: "any title??",
		Date:  "current date??",
		DOI:   "No DOI??",
	}
}

// RDFExporter builds ONNER graphs from resolved documents.
type RDFExporter struct {
	publication   Publication
	schema        onner.LabelingSchema
	nerSystem     string
	systemVersion string
	logger        *slog.Logger
}

// Option configures an RDFExporter.
type Option func(*RDFExporter)

// WithPublication sets the publication literals.
func WithPublication(p Publication) Option {
	return func(e *RDFExporter) { e.publication = p }
}

// WithLabelingSchema sets the labeling schema. A schema without labels is
// ignored.
func WithLabelingSchema(s onner.LabelingSchema) Option {
	return func(e *RDFExporter) {
		if len(s.Labels) > 0 {
			e.schema = s
		}
	}
}

// WithNERSystem sets the NER system individual written in the footer.
func WithNERSystem(name, version string) Option {
	return func(e *RDFExporter) {
		if name != "" {
			e.nerSystem = name
		}
		if version != "" {
			e.systemVersion = version
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *RDFExporter) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewRDFExporter creates an exporter with the CelloGraph defaults.
func NewRDFExporter(opts ...Option) *RDFExporter {
	e := &RDFExporter{
		publication:   DefaultPublication(),
		schema:        onner.DefaultLabelingSchema(),
		nerSystem:     onner.DefaultNERSystem,
		systemVersion: onner.DefaultSystemVersion,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.schema.Name == "" {
		e.schema.Name = onner.DefaultSchemaName
	}
	return e
}

// Build turns a resolved document into a graph using the profile selected by
// the document identifier. Every paragraph and entity must have an identifier.
func (e *RDFExporter) Build(documentID string, doc *annotation.Document) (*Graph, error) {
	if err := checkResolved(doc); err != nil {
		return nil, err
	}

	profile := ProfileFor(documentID)
	b := &builder{
		exporter:   e,
		documentID: documentID,
		graph:      &Graph{},
		seenLabel:  make(map[int]bool),
	}

	var err error
	switch profile {
	case ProfilePublication:
		err = b.publication(doc)
	default:
		err = b.paragraphLinks(doc)
	}
	if err != nil {
		return nil, err
	}

	b.labelsAndFooter()

	e.logger.Debug("Built RDF graph",
		"document_id", documentID,
		"profile", profile,
		"blocks", len(b.graph.Blocks),
		"triples", b.graph.Triples())

	return b.graph, nil
}

// Export builds the graph of a resolved document and serializes it.
func (e *RDFExporter) Export(documentID string, doc *annotation.Document, format Format) (string, error) {
	if _, ok := GetFormatInfo(format); !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	g, err := e.Build(documentID, doc)
	if err != nil {
		return "", err
	}
	return g.Encode(format)
}

func checkResolved(doc *annotation.Document) error {
	if doc == nil || len(doc.Annotations) == 0 {
		return fmt.Errorf("%w: document has no paragraphs", ErrUnresolved)
	}
	for i := range doc.Annotations {
		p := &doc.Annotations[i]
		if !p.HasID() {
			return fmt.Errorf("%w: paragraph %d has no id", ErrUnresolved, i+1)
		}
		for j := range p.Entities {
			if !p.Entities[j].HasID() {
				return fmt.Errorf("%w: entity %d of paragraph %s has no id", ErrUnresolved, j+1, *p.ID)
			}
		}
	}
	return nil
}

// escapeTurtle escapes a lexical value for a single-quoted Turtle literal.
func escapeTurtle(s string) string {
	return turtleEscaper.Replace(s)
}

// escapeNTriples escapes a lexical value for a double-quoted N-Triples literal.
func escapeNTriples(s string) string {
	return ntriplesEscaper.Replace(s)
}

var (
	turtleEscaper = strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	)
	ntriplesEscaper = strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	)
)
