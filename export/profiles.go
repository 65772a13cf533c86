package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/c360studio/anner-rdf/annotation"
	"github.com/c360studio/anner-rdf/resolver"
	"github.com/c360studio/anner-rdf/vocabulary/onner"
)

// Profile determines the shape of the exported graph.
type Profile string

const (
	// ProfilePublication describes an AnNER document as a scholarly
	// publication with ordered paragraphs.
	ProfilePublication Profile = "publication"

	// ProfileParagraphLinks only links existing CelloGraph paragraphs to
	// their labeled terms.
	ProfileParagraphLinks Profile = "paragraph-links"
)

// ProfileConfig contains configuration for an export profile.
type ProfileConfig struct {
	// Name is the profile identifier.
	Name Profile

	// Description describes the profile.
	Description string

	// DescribesPublication includes the publication individual, paragraph
	// types, positions, texts and the end-of-document marker.
	DescribesPublication bool
}

// Profiles contains the configuration for all available export profiles.
var Profiles = map[Profile]ProfileConfig{
	ProfilePublication: {
		Name:                 ProfilePublication,
		Description:          "Publication, ordered paragraphs and labeled terms",
		DescribesPublication: true,
	},
	ProfileParagraphLinks: {
		Name:        ProfileParagraphLinks,
		Description: "Paragraph to labeled term links for existing CelloGraph paragraphs",
	},
}

// GetProfileConfig returns the configuration for a profile.
func GetProfileConfig(profile Profile) ProfileConfig {
	if config, ok := Profiles[profile]; ok {
		return config
	}
	return Profiles[ProfileParagraphLinks]
}

// ProfileFor selects the profile for a document identifier. Identifiers minted
// by the annotation tool get the publication profile.
func ProfileFor(documentID string) Profile {
	if strings.HasPrefix(documentID, resolver.StructuredPrefix) {
		return ProfilePublication
	}
	return ProfileParagraphLinks
}

// ParagraphPosition returns N from the trailing "pN" segment of a paragraph id.
func ParagraphPosition(paragraphID string) (int, error) {
	segment := paragraphID[strings.LastIndex(paragraphID, "_")+1:]
	digits, ok := strings.CutPrefix(segment, "p")
	if !ok || digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return 0, fmt.Errorf("%w: %q", ErrParagraphPosition, paragraphID)
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrParagraphPosition, paragraphID, err)
	}
	return n, nil
}

type labelRef struct {
	number int
	name   string
}

// builder accumulates the blocks of one document.
type builder struct {
	exporter   *RDFExporter
	documentID string
	graph      *Graph
	labels     []labelRef
	seenLabel  map[int]bool
}

func (b *builder) publication(doc *annotation.Document) error {
	paragraphs := make([]Term, len(doc.Annotations))
	for i := range doc.Annotations {
		paragraphs[i] = IRI(onner.DataIRI(*doc.Annotations[i].ID))
	}

	pub := b.exporter.publication
	head := Block{Subject: onner.PublicationIRI(b.documentID)}
	head.Add(onner.RDFType, IRI(onner.ClassScholarlyPublication))
	head.Add(onner.PropPublicationTitle, Literal(pub.Title, onner.XSDString))
	head.Add(onner.PropPublicationDate, Literal(pub.Date, onner.XSDDate))
	head.Add(onner.PropDOI, Literal(pub.DOI, onner.XSDString))
	head.Add(onner.PropDirectlyContainsDocumentPart, paragraphs...)
	b.graph.Blocks = append(b.graph.Blocks, head)

	end := onner.EndOfDocumentIRI(b.documentID)
	for i := range doc.Annotations {
		p := &doc.Annotations[i]
		position, err := ParagraphPosition(*p.ID)
		if err != nil {
			return err
		}

		next := IRI(end)
		if position < len(paragraphs) {
			next = paragraphs[position]
		}

		block := Block{Subject: onner.DataIRI(*p.ID)}
		block.Add(onner.RDFType, IRI(onner.ClassParagraph))
		block.Add(onner.PropPositionInParentDocumentPart,
			Literal(strconv.Itoa(position), onner.XSDNonNegativeInteger))
		block.Add(onner.PropNextDocumentPart, next)
		block.Add(onner.PropParagraphText, Literal(p.Text, onner.XSDString))
		block.Add(onner.PropDirectlyContainsLabeledTerm, termsOf(p)...)
		b.graph.Blocks = append(b.graph.Blocks, block)

		if err := b.entities(p); err != nil {
			return err
		}
	}

	eod := Block{Subject: end}
	eod.Add(onner.RDFType, IRI(onner.ClassEndOfDocument))
	b.graph.Blocks = append(b.graph.Blocks, eod)
	return nil
}

func (b *builder) paragraphLinks(doc *annotation.Document) error {
	for i := range doc.Annotations {
		p := &doc.Annotations[i]
		block := Block{Subject: onner.DataIRI(*p.ID)}
		block.Add(onner.PropDirectlyContainsLabeledTerm, termsOf(p)...)
		b.graph.Blocks = append(b.graph.Blocks, block)

		if err := b.entities(p); err != nil {
			return err
		}
	}
	return nil
}

func termsOf(p *annotation.Paragraph) []Term {
	if len(p.Entities) == 0 {
		return []Term{IRI(onner.NoLabeledTerm)}
	}
	terms := make([]Term, len(p.Entities))
	for i := range p.Entities {
		terms[i] = IRI(onner.DataIRI(*p.Entities[i].ID))
	}
	return terms
}

func (b *builder) entities(p *annotation.Paragraph) error {
	paragraph := IRI(onner.DataIRI(*p.ID))

	for i := range p.Entities {
		e := &p.Entities[i]
		entityID := *e.ID

		statuses := make([]Term, len(e.Statuses))
		for j, rec := range e.Statuses {
			statuses[j] = IRI(onner.StatusIRI(rec.Status, entityID))
		}

		block := Block{Subject: onner.DataIRI(entityID)}
		block.Add(onner.RDFType, IRI(onner.ClassLabeledTerm))
		block.Add(onner.PropLabeledTermText, Literal(e.Span(p.Text), onner.XSDString))
		block.Add(onner.PropOffset, Literal(strconv.Itoa(e.Start), onner.XSDNonNegativeInteger))
		block.Add(onner.PropLength, Literal(strconv.Itoa(e.Length()), onner.XSDNonNegativeInteger))
		block.Add(onner.PropLabeledTermDirectlyContainedBy, paragraph)
		block.Add(onner.PropHasLabeledTermStatus, statuses...)
		b.graph.Blocks = append(b.graph.Blocks, block)

		for _, rec := range e.Statuses {
			n, ok := b.exporter.schema.Number(rec.Label)
			if !ok {
				return fmt.Errorf("%w: %q on entity %s", ErrUnknownLabel, rec.Label, entityID)
			}

			status := Block{Subject: onner.StatusIRI(rec.Status, entityID)}
			status.Add(onner.RDFType, IRI(onner.StatusClass(rec.Status)))
			status.Add(onner.PropStatusAssignmentDate, Literal(rec.Timestamp, onner.XSDDateTime))
			status.Add(onner.PropStatusAssignedBy, Literal(rec.Annotator, onner.XSDString))
			status.Add(onner.PropHasLabeledTermLabel, IRI(onner.LabelIRI(n)))
			b.graph.Blocks = append(b.graph.Blocks, status)

			if !b.seenLabel[n] {
				b.seenLabel[n] = true
				b.labels = append(b.labels, labelRef{number: n, name: rec.Label})
			}
		}
	}
	return nil
}

func (b *builder) labelsAndFooter() {
	if len(b.labels) == 0 {
		b.exporter.logger.Warn("No labels found in document", "document_id", b.documentID)
	}
	for _, l := range b.labels {
		block := Block{Subject: onner.LabelIRI(l.number)}
		block.Add(onner.RDFType, IRI(onner.ClassLabel))
		block.Add(onner.PropFromLabelingSchema, IRI(onner.LabelingSchemaIndividual))
		block.Add(onner.PropLabelText, Literal(l.name, onner.XSDString))
		b.graph.Blocks = append(b.graph.Blocks, block)
	}

	schema := Block{Subject: onner.LabelingSchemaIndividual}
	schema.Add(onner.RDFType, IRI(onner.ClassLabelingSchema))
	schema.Add(onner.PropSchemaName, Literal(b.exporter.schema.Name, onner.XSDString))

	system := Block{Subject: onner.DataIRI(b.exporter.nerSystem)}
	system.Add(onner.RDFType, IRI(onner.ClassNERSystem))
	system.Add(onner.PropSystemVersion, Literal(b.exporter.systemVersion, onner.XSDString))

	b.graph.Blocks = append(b.graph.Blocks, schema, system)
}
