package onner

import "github.com/c360studio/semstreams/vocabulary"

// Entity type predicate shared by every published entity.
const (
	// EntityType identifies the ONNER entity kind.
	// Values: "publication", "paragraph", "term", "label", "system"
	EntityType = "onner.meta.type"

	// DocumentID is the resolved document identifier an entity belongs to.
	DocumentID = "onner.meta.document_id"

	// RunID correlates entities published by one conversion run.
	RunID = "onner.meta.run_id"
)

// Publication predicates.
const (
	PublicationTitle = "onner.publication.title"
	PublicationDate  = "onner.publication.date"
	PublicationDOI   = "onner.publication.doi"

	// PublicationContainsPart links a publication to its paragraphs.
	// Domain: publication entity, Range: paragraph entity
	PublicationContainsPart = "onner.publication.contains_part"
)

// Paragraph predicates.
const (
	// ParagraphPosition is the 1-based position of the paragraph.
	ParagraphPosition = "onner.paragraph.position"
	ParagraphText     = "onner.paragraph.text"

	// ParagraphNext links a paragraph to the next one in document order.
	ParagraphNext = "onner.paragraph.next"

	// ParagraphContainsTerm links a paragraph to its labeled terms.
	// Domain: paragraph entity, Range: term entity
	ParagraphContainsTerm = "onner.paragraph.contains_term"
)

// Labeled term predicates.
const (
	TermText = "onner.term.text"

	// TermOffset is the start offset in code points.
	TermOffset = "onner.term.offset"

	// TermLength is the span length in code points.
	TermLength = "onner.term.length"

	// TermContainedBy links a term to its paragraph.
	TermContainedBy = "onner.term.contained_by"

	// TermStatus is a status assertion in "<status>:<label>" form.
	TermStatus = "onner.term.status"
)

// Status predicates.
const (
	StatusAssignedAt = "onner.status.assigned_at"
	StatusAssignedBy = "onner.status.assigned_by"

	// StatusLabel links a term to the label entity of one of its statuses.
	StatusLabel = "onner.status.label"
)

// Schema predicates.
const (
	LabelText     = "onner.label.text"
	SchemaName    = "onner.schema.name"
	SystemVersion = "onner.system.version"
)

func init() {
	// Register meta predicates
	vocabulary.Register(EntityType,
		vocabulary.WithDescription("ONNER entity kind: publication, paragraph, term, label, system"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(RDFType))

	vocabulary.Register(DocumentID,
		vocabulary.WithDescription("Resolved document identifier"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"documentId"))

	vocabulary.Register(RunID,
		vocabulary.WithDescription("Conversion run that published the entity"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(Namespace+"runId"))

	// Register publication predicates
	vocabulary.Register(PublicationTitle,
		vocabulary.WithDescription("Publication title"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(PropPublicationTitle))

	vocabulary.Register(PublicationDate,
		vocabulary.WithDescription("Publication date"),
		vocabulary.WithDataType("datetime"),
		vocabulary.WithIRI(PropPublicationDate))

	vocabulary.Register(PublicationDOI,
		vocabulary.WithDescription("Publication DOI"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(PropDOI))

	vocabulary.Register(PublicationContainsPart,
		vocabulary.WithDescription("Links publication to its paragraphs"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(PropDirectlyContainsDocumentPart))

	// Register paragraph predicates
	vocabulary.Register(ParagraphPosition,
		vocabulary.WithDescription("1-based paragraph position in the publication"),
		vocabulary.WithDataType("int"),
		vocabulary.WithIRI(PropPositionInParentDocumentPart))

	vocabulary.Register(ParagraphText,
		vocabulary.WithDescription("Full paragraph text"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(PropParagraphText))

	vocabulary.Register(ParagraphNext,
		vocabulary.WithDescription("Links paragraph to the next paragraph"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(PropNextDocumentPart))

	vocabulary.Register(ParagraphContainsTerm,
		vocabulary.WithDescription("Links paragraph to its labeled terms"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(PropDirectlyContainsLabeledTerm))

	// Register term predicates
	vocabulary.Register(TermText,
		vocabulary.WithDescription("Labeled span text"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(PropLabeledTermText))

	vocabulary.Register(TermOffset,
		vocabulary.WithDescription("Span start offset in code points"),
		vocabulary.WithDataType("int"),
		vocabulary.WithIRI(PropOffset))

	vocabulary.Register(TermLength,
		vocabulary.WithDescription("Span length in code points"),
		vocabulary.WithDataType("int"),
		vocabulary.WithIRI(PropLength))

	vocabulary.Register(TermContainedBy,
		vocabulary.WithDescription("Links labeled term to its paragraph"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(PropLabeledTermDirectlyContainedBy))

	vocabulary.Register(TermStatus,
		vocabulary.WithDescription("Status assertion on a labeled term (status:label)"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(PropHasLabeledTermStatus))

	// Register status predicates
	vocabulary.Register(StatusAssignedAt,
		vocabulary.WithDescription("When the status was assigned"),
		vocabulary.WithDataType("datetime"),
		vocabulary.WithIRI(PropStatusAssignmentDate))

	vocabulary.Register(StatusAssignedBy,
		vocabulary.WithDescription("Annotator that assigned the status"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(PropStatusAssignedBy))

	vocabulary.Register(StatusLabel,
		vocabulary.WithDescription("Label entity carried by the status assertion"),
		vocabulary.WithDataType("entity_id"),
		vocabulary.WithIRI(PropHasLabeledTermLabel))

	// Register schema predicates
	vocabulary.Register(LabelText,
		vocabulary.WithDescription("Label name in the labeling schema"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(PropLabelText))

	vocabulary.Register(SchemaName,
		vocabulary.WithDescription("Labeling schema name"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(PropSchemaName))

	vocabulary.Register(SystemVersion,
		vocabulary.WithDescription("NER system version"),
		vocabulary.WithDataType("string"),
		vocabulary.WithIRI(PropSystemVersion))
}
