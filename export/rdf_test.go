package export_test

import (
	"bytes"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/anner-rdf/annotation"
	"github.com/c360studio/anner-rdf/export"
	"github.com/c360studio/anner-rdf/vocabulary/onner"
)

func loadDoc(t *testing.T, input string) *annotation.Document {
	t.Helper()
	doc, err := annotation.Parse([]byte(input))
	require.NoError(t, err)
	return doc
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestExportTurtle_Publication(t *testing.T) {
	doc, err := annotation.Load(filepath.Join("testdata", "publication.json"))
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join("testdata", "publication.ttl"))
	require.NoError(t, err)

	got, err := export.NewRDFExporter().Export("AnNER-RDF_240101000000", doc, export.FormatTurtle)
	require.NoError(t, err)
	assert.Equal(t, string(want), got)
}

const converterDoc = `{"annotations": [
	["someuri_p1", "x ray", {"entities": [
		["someuri_p1_e1_Rv1", 0, 1, [
			["STRUCTURE", "Suggested", "2024-02-02T10:00:00Z", "ner"],
			["PROCESS", "Candidate", "2024-02-03T10:00:00Z", "bob"]
		]]
	]}],
	["someuri_p2", "nothing", {"entities": []}]
]}`

func TestExportTurtle_ParagraphLinks(t *testing.T) {
	got, err := export.NewRDFExporter(export.WithLogger(quietLogger())).
		Export("someuri_", loadDoc(t, converterDoc), export.FormatTurtle)
	require.NoError(t, err)

	assert.Contains(t, got, "data:someuri_p1 onner:directlyContainsLabeledTerm data:someuri_p1_e1_Rv1 .\n\n")
	assert.Contains(t, got, "data:someuri_p2 onner:directlyContainsLabeledTerm data:NoLabeledTerm .\n\n")
	assert.Contains(t, got, "onner:hasLabeledTermStatus data:Suggested_someuri_p1_e1_Rv1, data:Candidate_someuri_p1_e1_Rv1 .")
	assert.Contains(t, got, "data:Suggested_someuri_p1_e1_Rv1 rdf:type onner:SuggestedStatus ;")
	assert.Contains(t, got, "onner:hasLabeledTermLabel data:Label_3 .")
	assert.Contains(t, got, "onner:hasLabeledTermLabel data:Label_6 .")
	assert.Contains(t, got, "onner:statusAssignedBy 'bob'^^xsd:string ;")

	assert.NotContains(t, got, "onner:ScholarlyPublication")
	assert.NotContains(t, got, "onner:Paragraph ;")
	assert.NotContains(t, got, "EndOfDocument")

	// Labels appear in first-seen order, after all terms.
	structure := strings.Index(got, "data:Label_3 rdf:type onner:Label")
	process := strings.Index(got, "data:Label_6 rdf:type onner:Label")
	term := strings.Index(got, "data:someuri_p1_e1_Rv1 rdf:type onner:LabeledTerm")
	require.Positive(t, structure)
	require.Positive(t, process)
	assert.Less(t, term, structure)
	assert.Less(t, structure, process)
	assert.True(t, strings.HasSuffix(got, "data:Cellulosic_NER_Model rdf:type onner:NER_System ;\nonner:systemVersion '1.0'^^xsd:string .\n\n"))
}

func TestExportNTriples(t *testing.T) {
	got, err := export.NewRDFExporter(export.WithLogger(quietLogger())).
		Export("someuri_", loadDoc(t, converterDoc), export.FormatNTriples)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(got), "\n")
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "<"), "line %q", line)
		assert.True(t, strings.HasSuffix(line, " ."), "line %q", line)
		assert.NotContains(t, line, "data:")
		assert.NotContains(t, line, "@prefix")
	}

	assert.Contains(t, lines,
		"<"+onner.DataNamespace+"someuri_p1_e1_Rv1> <"+onner.PropOffset+`> "0"^^<`+onner.XSDNonNegativeInteger+"> .")
	assert.Contains(t, lines,
		"<"+onner.DataNamespace+"someuri_p1_e1_Rv1> <"+onner.RDFType+"> <"+onner.ClassLabeledTerm+"> .")

	g, err := export.NewRDFExporter(export.WithLogger(quietLogger())).Build("someuri_", loadDoc(t, converterDoc))
	require.NoError(t, err)
	assert.Equal(t, g.Triples(), len(lines))
}

func TestExport_Options(t *testing.T) {
	doc := loadDoc(t, `{"annotations": [["AnNER-RDF_240101000000_p1", "Glucose", {"entities": [
		["AnNER-RDF_240101000000_p1_e1", 0, 7, [["SUGAR", "Candidate", "2024-01-01T00:00:00Z", "alice"]]]
	]}]]}`)

	exporter := export.NewRDFExporter(
		export.WithPublication(export.Publication{Title: "Cellulose Review", Date: "2024-05-01", DOI: "10.1000/xyz"}),
		export.WithLabelingSchema(onner.LabelingSchema{Name: "Sugars", Labels: []string{"SUGAR"}}),
		export.WithNERSystem("Sugar_Model", "2.1"),
	)

	got, err := exporter.Export("AnNER-RDF_240101000000", doc, export.FormatTurtle)
	require.NoError(t, err)

	assert.Contains(t, got, "onner:publicationTitle 'Cellulose Review'^^xsd:string ;")
	assert.Contains(t, got, "onner:publicationDate '2024-05-01'^^xsd:date ;")
	assert.Contains(t, got, "onner:doi '10.1000/xyz'^^xsd:string ;")
	assert.Contains(t, got, "onner:hasLabeledTermLabel data:Label_1 .")
	assert.Contains(t, got, "onner:schemaName 'Sugars'^^xsd:string .")
	assert.Contains(t, got, "data:Sugar_Model rdf:type onner:NER_System ;\nonner:systemVersion '2.1'^^xsd:string .")
}

func TestExport_EscapesLiterals(t *testing.T) {
	doc := loadDoc(t, `{"annotations": [["AnNER-RDF_240101000000_p1", "a\\b 'q' \"d\"\nline\ttab\r", {"entities": []}]]}`)

	turtle, err := export.NewRDFExporter(export.WithLogger(quietLogger())).
		Export("AnNER-RDF_240101000000", doc, export.FormatTurtle)
	require.NoError(t, err)
	assert.Contains(t, turtle, `onner:paragraphText 'a\\b \'q\' "d"\nline\ttab\r'^^xsd:string ;`)

	nt, err := export.NewRDFExporter(export.WithLogger(quietLogger())).
		Export("AnNER-RDF_240101000000", doc, export.FormatNTriples)
	require.NoError(t, err)
	assert.Contains(t, nt, `"a\\b 'q' \"d\"\nline\ttab\r"^^<`+onner.XSDString+">")
}

func TestExport_CodePointSpans(t *testing.T) {
	doc := loadDoc(t, `{"annotations": [["AnNER-RDF_240101000000_p1", "Lösung von Zellulose", {"entities": [
		["AnNER-RDF_240101000000_p1_e1", 11, 20, [["MATERIAL", "Candidate", "2024-01-01T00:00:00Z", "alice"]]]
	]}]]}`)

	got, err := export.NewRDFExporter().Export("AnNER-RDF_240101000000", doc, export.FormatTurtle)
	require.NoError(t, err)
	assert.Contains(t, got, "onner:labeledTermText 'Zellulose'^^xsd:string ;")
	assert.Contains(t, got, "onner:length '9'^^xsd:nonNegativeInteger ;")
}

func TestExport_Errors(t *testing.T) {
	tests := []struct {
		name       string
		documentID string
		input      string
		format     export.Format
		target     error
	}{
		{
			name:       "unknown label",
			documentID: "someuri_",
			input:      `{"annotations": [["someuri_p1", "x", {"entities": [["someuri_p1_e1", 0, 1, [["COLOR", "Candidate", "t", "a"]]]]}]]}`,
			format:     export.FormatTurtle,
			target:     export.ErrUnknownLabel,
		},
		{
			name:       "paragraph without position",
			documentID: "AnNER-RDF_240101000000",
			input:      `{"annotations": [["AnNER-RDF_240101000000_intro", "x", {"entities": []}]]}`,
			format:     export.FormatTurtle,
			target:     export.ErrParagraphPosition,
		},
		{
			name:       "unresolved entity",
			documentID: "someuri_",
			input:      `{"annotations": [["someuri_p1", "x", {"entities": [[null, 0, 1, []]]}]]}`,
			format:     export.FormatTurtle,
			target:     export.ErrUnresolved,
		},
		{
			name:       "unresolved paragraph",
			documentID: "someuri_",
			input:      `{"annotations": [[null, "x", {"entities": []}]]}`,
			format:     export.FormatNTriples,
			target:     export.ErrUnresolved,
		},
		{
			name:       "unsupported format",
			documentID: "someuri_",
			input:      `{"annotations": [["someuri_p1", "x", {"entities": []}]]}`,
			format:     "jsonld",
			target:     export.ErrUnsupportedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := export.NewRDFExporter(export.WithLogger(quietLogger())).
				Export(tt.documentID, loadDoc(t, tt.input), tt.format)
			require.Error(t, err)
			assert.Empty(t, out)
			assert.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestExport_WarnsWithoutLabels(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	_, err := export.NewRDFExporter(export.WithLogger(logger)).
		Export("someuri_", loadDoc(t, `{"annotations": [["someuri_p1", "x", {"entities": []}]]}`), export.FormatTurtle)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "document_id=someuri_")
}

func TestParagraphPosition(t *testing.T) {
	tests := []struct {
		id      string
		want    int
		wantErr bool
	}{
		{id: "AnNER-RDF_240101000000_p1", want: 1},
		{id: "doc_p42", want: 42},
		{id: "p7", want: 7},
		{id: "doc_p", wantErr: true},
		{id: "doc_px", wantErr: true},
		{id: "doc_q1", wantErr: true},
		{id: "doc_p1_extra", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, err := export.ParagraphPosition(tt.id)
			if tt.wantErr {
				assert.ErrorIs(t, err, export.ErrParagraphPosition)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProfileFor(t *testing.T) {
	assert.Equal(t, export.ProfilePublication, export.ProfileFor("AnNER-RDF_240101000000"))
	assert.Equal(t, export.ProfilePublication, export.ProfileFor("AnNER20240101000000_ex"))
	assert.Equal(t, export.ProfileParagraphLinks, export.ProfileFor("someuri_"))
	assert.True(t, export.GetProfileConfig(export.ProfilePublication).DescribesPublication)
	assert.Equal(t, export.ProfileParagraphLinks, export.GetProfileConfig("unknown").Name)
}

func TestExport_StatusNodes(t *testing.T) {
	doc := loadDoc(t, `{"annotations": [["AnNER-RDF_240101000000_p1", "Cellulose", {"entities": [
		["AnNER-RDF_240101000000_p1_e1", 0, 9, [
			["MATERIAL", "Accepted", "2024-01-03T00:00:00Z", "carol"],
			["MATERIAL", "Candidate", "2024-01-01T00:00:00Z", "ner"]
		]]
	]}]]}`)

	got, err := export.NewRDFExporter().Export("AnNER-RDF_240101000000", doc, export.FormatTurtle)
	require.NoError(t, err)

	// Each status gets its own node, named and typed after the status.
	assert.Contains(t, got, "onner:hasLabeledTermStatus data:Accepted_AnNER-RDF_240101000000_p1_e1, data:Candidate_AnNER-RDF_240101000000_p1_e1 .")
	assert.Contains(t, got, "data:Accepted_AnNER-RDF_240101000000_p1_e1 rdf:type onner:AcceptedStatus ;\nonner:statusAssignmentDate '2024-01-03T00:00:00Z'^^xsd:dateTime ;\nonner:statusAssignedBy 'carol'^^xsd:string ;\nonner:hasLabeledTermLabel data:Label_2 .\n\n")
	assert.Contains(t, got, "data:Candidate_AnNER-RDF_240101000000_p1_e1 rdf:type onner:CandidateStatus ;")
	assert.Equal(t, 1, strings.Count(got, "data:Label_2 rdf:type onner:Label"))
}

func TestExport_IdentifiersOutsideLocalNames(t *testing.T) {
	doc := loadDoc(t, `{"annotations": [["http://g.org/doc/x_p1", "Cellulose", {"entities": [
		["http://g.org/doc/x_p1_e1", 0, 9, [["MATERIAL", "Needs Review", "2024-01-01T00:00:00Z", "ner"]]]
	]}]]}`)

	got, err := export.NewRDFExporter(export.WithLogger(quietLogger())).
		Export("http://g.org/doc/x_", doc, export.FormatTurtle)
	require.NoError(t, err)

	para := "<" + onner.DataNamespace + "http://g.org/doc/x_p1>"
	term := "<" + onner.DataNamespace + "http://g.org/doc/x_p1_e1>"
	status := "<" + onner.DataNamespace + "Needs%20Review_http://g.org/doc/x_p1_e1>"

	assert.Contains(t, got, para+" onner:directlyContainsLabeledTerm "+term+" .\n\n")
	assert.Contains(t, got, "onner:labeledTermDirectlyContainedBy "+para+" ;")
	assert.Contains(t, got, status+" rdf:type <"+onner.Namespace+"Needs%20ReviewStatus> ;")
	assert.NotContains(t, got, "data:http:")
	assert.NotContains(t, got, "data:Needs Review")
}
