package resolver

import (
	"fmt"

	"github.com/c360studio/anner-rdf/annotation"
)

// Assignment counts the identifiers minted by Assign.
type Assignment struct {
	Paragraphs int
	Entities   int
}

// Total returns the number of identifiers minted.
func (a Assignment) Total() int {
	return a.Paragraphs + a.Entities
}

// ParagraphID formats the identifier of the n-th paragraph (1-based).
func ParagraphID(documentID string, n int) string {
	return fmt.Sprintf("%s_p%d", documentID, n)
}

// EntityID formats the identifier of the m-th entity (1-based) of a paragraph.
func EntityID(paragraphID string, m, reviewVersion int) string {
	return fmt.Sprintf("%s_e%d%s", paragraphID, m, ReviewSuffix(reviewVersion))
}

// Assign fills every missing paragraph and entity identifier of doc in place.
// Numbering follows position: paragraph n and entity m keep their numbers
// whether or not their neighbours already had identifiers. Identifiers that
// are already set are left untouched.
func Assign(doc *annotation.Document, documentID string, reviewVersion int) Assignment {
	var a Assignment

	for i := range doc.Annotations {
		p := &doc.Annotations[i]
		if p.ID == nil {
			p.ID = annotation.StringPtr(ParagraphID(documentID, i+1))
			p.RawID = nil
			a.Paragraphs++
		}

		for j := range p.Entities {
			e := &p.Entities[j]
			if e.ID == nil {
				e.ID = annotation.StringPtr(EntityID(*p.ID, j+1, reviewVersion))
				a.Entities++
			}
		}
	}

	return a
}
