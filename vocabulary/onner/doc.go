// Package onner provides the ONNER ontology terms used to describe annotated
// scholarly text: publications, paragraphs, labeled terms, their statuses and
// the labeling schema the labels come from.
//
// Two kinds of names live here. IRI constants (Class*, Prop*) are the ontology
// terms written to RDF output. Dotted predicates (onner.term.offset, ...) are
// the same properties registered with the semstreams vocabulary so that graph
// consumers can resolve them back to their IRIs.
//
// Import this package to auto-register predicates:
//
//	import _ "github.com/c360studio/anner-rdf/vocabulary/onner"
package onner
