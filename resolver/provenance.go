package resolver

import (
	"fmt"
	"strings"

	"github.com/c360studio/anner-rdf/annotation"
)

// Provenance identifies the upstream tool that produced a document.
type Provenance string

const (
	// ProvenanceRaw is annotation-tool output with no identifiers yet.
	ProvenanceRaw Provenance = "raw"

	// ProvenanceStructured is annotation-tool output whose paragraph
	// identifiers embed the document identifier.
	ProvenanceStructured Provenance = "structured"

	// ProvenanceConverter is RDF-to-JSON converter output whose paragraph
	// identifiers carry a two-character sequence marker.
	ProvenanceConverter Provenance = "converter"
)

// Identifier shape constants. These are assumptions about upstream formats;
// identifiers that are too short to satisfy them are rejected.
const (
	// StructuredPrefix marks identifiers minted by the annotation tool.
	StructuredPrefix = "AnNER"

	// SyntheticPrefix starts every document id minted for raw documents.
	SyntheticPrefix = "AnNER-RDF_"

	// TimestampLayout is the 12-digit yyMMddHHmmss stamp of synthetic ids.
	TimestampLayout = "060102150405"

	// StructuredDocumentIDLength is the width of the document id embedded at
	// the start of structured paragraph identifiers.
	StructuredDocumentIDLength = len(SyntheticPrefix) + len(TimestampLayout)

	// ConverterSuffixLength is the length of the paragraph marker trailing
	// converter paragraph identifiers.
	ConverterSuffixLength = 2
)

// SyntheticDocumentID returns AnNER-RDF_<yyMMddHHmmss> for the clock's current
// time. The clock is read on every call.
func SyntheticDocumentID(clock Clock) string {
	return SyntheticPrefix + clock.Now().Format(TimestampLayout)
}

// Classify determines the provenance and document identifier from the first
// paragraph of a document.
func Classify(first *annotation.Paragraph, clock Clock) (Provenance, string, error) {
	if first.ID == nil {
		if len(first.RawID) > 0 {
			return "", "", &ValidationError{
				Value:   string(first.RawID),
				Message: "first paragraph id must be a string or null",
			}
		}
		return ProvenanceRaw, SyntheticDocumentID(clock), nil
	}

	id := *first.ID
	runes := []rune(id)

	if strings.HasPrefix(id, StructuredPrefix) {
		if len(runes) < StructuredDocumentIDLength {
			return "", "", &ValidationError{
				Value: fmt.Sprintf("%q", id),
				Message: fmt.Sprintf("structured paragraph id must be at least %d characters",
					StructuredDocumentIDLength),
			}
		}
		return ProvenanceStructured, string(runes[:StructuredDocumentIDLength]), nil
	}

	if len(runes) <= ConverterSuffixLength {
		return "", "", &ValidationError{
			Value: fmt.Sprintf("%q", id),
			Message: fmt.Sprintf("converter paragraph id must be longer than its %d-character marker",
				ConverterSuffixLength),
		}
	}
	return ProvenanceConverter, string(runes[:len(runes)-ConverterSuffixLength]), nil
}
