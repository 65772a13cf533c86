package onner

// Namespace is the base IRI for ONNER ontology terms.
const Namespace = "http://purl.org/spatialai/onner/onner-full#"

// DataNamespace is the base IRI for document, paragraph and term individuals.
const DataNamespace = "http://purl.org/spatialai/onner/onner-full/data#"

// Standard namespaces declared alongside ONNER in every export.
const (
	RDFNamespace  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFSNamespace = "http://www.w3.org/2000/01/rdf-schema#"
	XSDNamespace  = "http://www.w3.org/2001/XMLSchema#"
	OWLNamespace  = "http://www.w3.org/2002/07/owl#"

	// RDFType is rdf:type.
	RDFType = RDFNamespace + "type"
)

// XSD datatype IRIs used for literals.
const (
	XSDString             = XSDNamespace + "string"
	XSDDate               = XSDNamespace + "date"
	XSDDateTime           = XSDNamespace + "dateTime"
	XSDNonNegativeInteger = XSDNamespace + "nonNegativeInteger"
)

// Class IRIs.
const (
	// ClassScholarlyPublication is the document a set of paragraphs belongs to.
	ClassScholarlyPublication = Namespace + "ScholarlyPublication"

	// ClassParagraph is a positioned part of a publication.
	ClassParagraph = Namespace + "Paragraph"

	// ClassEndOfDocument terminates the nextDocumentPart chain.
	ClassEndOfDocument = Namespace + "EndOfDocument"

	// ClassLabeledTerm is an annotated span of paragraph text.
	ClassLabeledTerm = Namespace + "LabeledTerm"

	// ClassCandidateStatus is the status class of machine-proposed labels.
	ClassCandidateStatus = Namespace + "CandidateStatus"

	ClassLabel          = Namespace + "Label"
	ClassLabelingSchema = Namespace + "LabelingSchema"
	ClassNERSystem      = Namespace + "NER_System"
)

// Object property IRIs.
const (
	// PropDirectlyContainsDocumentPart links a publication to its paragraphs.
	// Domain: ClassScholarlyPublication, Range: ClassParagraph
	PropDirectlyContainsDocumentPart = Namespace + "directlyContainsDocumentPart"

	// PropNextDocumentPart links a paragraph to the one after it.
	// Domain: ClassParagraph, Range: ClassParagraph or ClassEndOfDocument
	PropNextDocumentPart = Namespace + "nextDocumentPart"

	// PropDirectlyContainsLabeledTerm links a paragraph to its terms.
	// Domain: ClassParagraph, Range: ClassLabeledTerm
	PropDirectlyContainsLabeledTerm = Namespace + "directlyContainsLabeledTerm"

	// PropLabeledTermDirectlyContainedBy is the inverse of
	// PropDirectlyContainsLabeledTerm.
	PropLabeledTermDirectlyContainedBy = Namespace + "labeledTermDirectlyContainedBy"

	// PropHasLabeledTermStatus links a term to its status assertions.
	PropHasLabeledTermStatus = Namespace + "hasLabeledTermStatus"

	// PropHasLabeledTermLabel links a status assertion to its label.
	PropHasLabeledTermLabel = Namespace + "hasLabeledTermLabel"

	// PropFromLabelingSchema links a label to its schema.
	PropFromLabelingSchema = Namespace + "fromLabelingSchema"
)

// Data property IRIs.
const (
	PropPublicationTitle = Namespace + "publicationTitle"
	PropPublicationDate  = Namespace + "publicationDate"
	PropDOI              = Namespace + "doi"

	// PropPositionInParentDocumentPart is the 1-based paragraph position.
	PropPositionInParentDocumentPart = Namespace + "positionInParentDocumentPart"
	PropParagraphText                = Namespace + "paragraphText"

	PropLabeledTermText = Namespace + "labeledTermText"
	// PropOffset is the term start in code points.
	PropOffset = Namespace + "offset"
	// PropLength is the term length in code points.
	PropLength = Namespace + "length"

	PropStatusAssignmentDate = Namespace + "statusAssignmentDate"
	PropStatusAssignedBy     = Namespace + "statusAssignedBy"

	PropLabelText     = Namespace + "labelText"
	PropSchemaName    = Namespace + "schemaName"
	PropSystemVersion = Namespace + "systemVersion"
)

// Shared individuals.
const (
	// NoLabeledTerm stands in for the terms of a paragraph that has none.
	NoLabeledTerm = DataNamespace + "NoLabeledTerm"

	// LabelingSchemaIndividual is the schema every exported label belongs to.
	LabelingSchemaIndividual = DataNamespace + "Labeling_Schema"
)

// DataIRI returns the data-namespace IRI for a local name.
func DataIRI(local string) string {
	return DataNamespace + local
}

// StatusClass returns the class IRI for an annotation status such as
// "Candidate" or "Suggested".
func StatusClass(status string) string {
	return Namespace + status + "Status"
}

// PublicationIRI returns the publication individual of a document.
func PublicationIRI(documentID string) string {
	return DataIRI("Publication_" + documentID)
}

// EndOfDocumentIRI returns the end-of-document individual of a document.
func EndOfDocumentIRI(documentID string) string {
	return DataIRI(documentID + "_EndOfDocument")
}

// StatusIRI returns the status individual asserted on an entity.
func StatusIRI(status, entityID string) string {
	return DataIRI(status + "_" + entityID)
}
