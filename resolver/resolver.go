package resolver

import (
	"fmt"
	"log/slog"

	"github.com/c360studio/anner-rdf/annotation"
)

// Resolved is the outcome of resolving one document.
type Resolved struct {
	DocumentID    string
	Provenance    Provenance
	ReviewVersion int

	// Document is a fully identified copy of the input.
	Document *annotation.Document

	// Assigned counts identifiers minted during resolution.
	Assigned Assignment
}

// Resolver resolves document, paragraph and entity identifiers.
type Resolver struct {
	clock  Clock
	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock sets the clock used for synthetic document identifiers.
func WithClock(c Clock) Option {
	return func(r *Resolver) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Resolver. Without options it uses the system clock and the
// default logger.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		clock:  SystemClock{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns a fully identified copy of doc. The input is not modified.
// Any error aborts resolution; there is no partially resolved result.
func (r *Resolver) Resolve(doc *annotation.Document) (*Resolved, error) {
	if doc == nil || len(doc.Annotations) == 0 {
		return nil, &annotation.InputFormatError{Path: "annotations", Reason: "document has no paragraphs"}
	}

	work, err := doc.Clone()
	if err != nil {
		return nil, err
	}

	provenance, documentID, err := Classify(&work.Annotations[0], r.clock)
	if err != nil {
		return nil, err
	}

	version, err := DetectReviewVersion(work)
	if err != nil {
		return nil, fmt.Errorf("detect review version of %s: %w", documentID, err)
	}

	assigned := Assign(work, documentID, version)

	r.logger.Debug("Resolved document identifiers",
		"document_id", documentID,
		"provenance", provenance,
		"review_version", version,
		"assigned_paragraphs", assigned.Paragraphs,
		"assigned_entities", assigned.Entities)

	return &Resolved{
		DocumentID:    documentID,
		Provenance:    provenance,
		ReviewVersion: version,
		Document:      work,
		Assigned:      assigned,
	}, nil
}
