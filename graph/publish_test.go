package graph

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/c360studio/semstreams/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/anner-rdf/annotation"
	"github.com/c360studio/anner-rdf/export"
	"github.com/c360studio/anner-rdf/vocabulary/onner"
)

type recordingPublisher struct {
	subjects []string
	payloads [][]byte
	failAt   int
}

func (r *recordingPublisher) PublishToStream(_ context.Context, subject string, data []byte) error {
	if r.failAt > 0 && len(r.payloads)+1 == r.failAt {
		return errors.New("stream unavailable")
	}
	r.subjects = append(r.subjects, subject)
	r.payloads = append(r.payloads, data)
	return nil
}

const resolvedDoc = `{"annotations": [
	["AnNER-RDF_240101000000_p1", "Cellulose nanofibers", {"entities": [
		["AnNER-RDF_240101000000_p1_e1", 0, 9, [["MATERIAL", "Candidate", "2024-01-01T00:00:00Z", "alice"]]],
		["AnNER-RDF_240101000000_p1_e2_Rv1", 10, 20, [["STRUCTURE", "Suggested", "2024-01-02T00:00:00Z", "ner"]]]
	]}],
	["AnNER-RDF_240101000000_p2", "No terms.", {"entities": []}]
]}`

var fixedNow = time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

func parse(t *testing.T, input string) *annotation.Document {
	t.Helper()
	doc, err := annotation.Parse([]byte(input))
	require.NoError(t, err)
	return doc
}

func objectsOf(msg EntityIngestMessage, predicate string) []any {
	var out []any
	for _, tr := range msg.Triples {
		if tr.Predicate == predicate {
			out = append(out, tr.Object)
		}
	}
	return out
}

func TestBuildMessages(t *testing.T) {
	msgs, err := BuildMessages("AnNER-RDF_240101000000", parse(t, resolvedDoc), DefaultMetadata(), "run-1", fixedNow)
	require.NoError(t, err)
	require.Len(t, msgs, 8)

	ids := make([]string, len(msgs))
	for i, msg := range msgs {
		ids[i] = msg.ID
	}
	assert.Equal(t, []string{
		"anner.local.onner.document.publication.AnNER-RDF_240101000000",
		"anner.local.onner.document.paragraph.AnNER-RDF_240101000000_p1",
		"anner.local.onner.document.term.AnNER-RDF_240101000000_p1_e1",
		"anner.local.onner.document.term.AnNER-RDF_240101000000_p1_e2_Rv1",
		"anner.local.onner.document.paragraph.AnNER-RDF_240101000000_p2",
		"anner.local.onner.schema.label.CelloGraph_2",
		"anner.local.onner.schema.label.CelloGraph_3",
		"anner.local.onner.schema.system.Cellulosic_NER_Model",
	}, ids)

	pub := msgs[0]
	assert.Equal(t, KindPublication, pub.Kind)
	assert.Equal(t, []any{KindPublication}, objectsOf(pub, onner.EntityType))
	assert.Equal(t, []any{"any title??"}, objectsOf(pub, onner.PublicationTitle))
	assert.Equal(t, []any{"current date??"}, objectsOf(pub, onner.PublicationDate))
	assert.Equal(t, []any{"No DOI??"}, objectsOf(pub, onner.PublicationDOI))
	assert.Equal(t, []any{msgs[1].ID, msgs[4].ID}, objectsOf(pub, onner.PublicationContainsPart))

	para := msgs[1]
	assert.Equal(t, KindParagraph, para.Kind)
	assert.Equal(t, "AnNER-RDF_240101000000", para.DocumentID)
	assert.Equal(t, []any{KindParagraph}, objectsOf(para, onner.EntityType))
	assert.Equal(t, []any{"AnNER-RDF_240101000000"}, objectsOf(para, onner.DocumentID))
	assert.Equal(t, []any{"run-1"}, objectsOf(para, onner.RunID))
	assert.Equal(t, []any{1}, objectsOf(para, onner.ParagraphPosition))
	assert.Equal(t, []any{msgs[4].ID}, objectsOf(para, onner.ParagraphNext))
	assert.Equal(t, []any{msgs[2].ID, msgs[3].ID}, objectsOf(para, onner.ParagraphContainsTerm))
	assert.Equal(t, fixedNow, para.UpdatedAt)

	term := msgs[2]
	assert.Equal(t, KindTerm, term.Kind)
	assert.Equal(t, []any{"Cellulose"}, objectsOf(term, onner.TermText))
	assert.Equal(t, []any{0}, objectsOf(term, onner.TermOffset))
	assert.Equal(t, []any{9}, objectsOf(term, onner.TermLength))
	assert.Equal(t, []any{para.ID}, objectsOf(term, onner.TermContainedBy))
	assert.Equal(t, []any{"Candidate:MATERIAL"}, objectsOf(term, onner.TermStatus))
	assert.Equal(t, []any{msgs[5].ID}, objectsOf(term, onner.StatusLabel))
	assert.Equal(t, []any{"alice"}, objectsOf(term, onner.StatusAssignedBy))
	assert.Equal(t, []any{msgs[6].ID}, objectsOf(msgs[3], onner.StatusLabel))

	for _, tr := range term.Triples {
		assert.Equal(t, term.ID, tr.Subject)
		assert.Equal(t, Source, tr.Source)
		assert.Equal(t, 1.0, tr.Confidence)
	}

	last := msgs[4]
	assert.Empty(t, objectsOf(last, onner.ParagraphContainsTerm))
	assert.Empty(t, objectsOf(last, onner.ParagraphNext), "the last paragraph has no successor")

	label := msgs[5]
	assert.Equal(t, KindLabel, label.Kind)
	assert.Empty(t, label.DocumentID)
	assert.Equal(t, []any{"MATERIAL"}, objectsOf(label, onner.LabelText))
	assert.Equal(t, []any{"CelloGraph"}, objectsOf(label, onner.SchemaName))
	assert.Equal(t, []any{"STRUCTURE"}, objectsOf(msgs[6], onner.LabelText))

	system := msgs[7]
	assert.Equal(t, KindSystem, system.Kind)
	assert.Equal(t, []any{"1.0"}, objectsOf(system, onner.SystemVersion))
	assert.Equal(t, []any{"CelloGraph"}, objectsOf(system, onner.SchemaName))
}

func TestBuildMessages_Metadata(t *testing.T) {
	meta := Metadata{
		Publication:   export.Publication{Title: "Cellulose Review", Date: "2024-05-01", DOI: "10.1000/xyz"},
		Schema:        onner.LabelingSchema{Name: "Sugars", Labels: []string{"STRUCTURE", "MATERIAL"}},
		NERSystem:     "Sugar_Model",
		SystemVersion: "2.1",
	}
	msgs, err := BuildMessages("AnNER-RDF_240101000000", parse(t, resolvedDoc), meta, "", fixedNow)
	require.NoError(t, err)
	require.Len(t, msgs, 8)

	assert.Equal(t, []any{"Cellulose Review"}, objectsOf(msgs[0], onner.PublicationTitle))
	assert.Equal(t, []any{"10.1000/xyz"}, objectsOf(msgs[0], onner.PublicationDOI))
	assert.Equal(t, "anner.local.onner.schema.label.Sugars_2", msgs[5].ID, "MATERIAL is second in this schema")
	assert.Equal(t, "anner.local.onner.schema.label.Sugars_1", msgs[6].ID)
	assert.Equal(t, "anner.local.onner.schema.system.Sugar_Model", msgs[7].ID)
	assert.Equal(t, []any{"2.1"}, objectsOf(msgs[7], onner.SystemVersion))
}

func TestBuildMessages_ParagraphLinks(t *testing.T) {
	input := `{"annotations": [
		["someuri_p1", "x ray", {"entities": [["someuri_p1_e1_Rv1", 0, 1, [["STRUCTURE", "Suggested", "t", "ner"]]]]}],
		["someuri_p2", "nothing", {"entities": []}]
	]}`
	msgs, err := BuildMessages("someuri_", parse(t, input), DefaultMetadata(), "", fixedNow)
	require.NoError(t, err)
	require.Len(t, msgs, 5, "paragraphs, term, label and system")

	kinds := make([]string, len(msgs))
	for i, msg := range msgs {
		kinds[i] = msg.Kind
	}
	assert.Equal(t, []string{KindParagraph, KindTerm, KindParagraph, KindLabel, KindSystem}, kinds)
	assert.Equal(t, []any{1}, objectsOf(msgs[0], onner.ParagraphPosition))
	assert.Empty(t, objectsOf(msgs[0], onner.ParagraphNext))
}

func TestBuildMessages_NoRunID(t *testing.T) {
	msgs, err := BuildMessages("d", parse(t, `{"annotations": [["someuri_intro", "x", {"entities": []}]]}`), DefaultMetadata(), "", fixedNow)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Empty(t, objectsOf(msgs[0], onner.RunID))
	assert.Empty(t, objectsOf(msgs[0], onner.ParagraphPosition), "position is omitted when the id has none")
	assert.Equal(t, KindSystem, msgs[1].Kind)
}

func TestBuildMessages_Errors(t *testing.T) {
	tests := []struct {
		name       string
		documentID string
		input      string
		target     error
	}{
		{
			name:       "unresolved entity",
			documentID: "d",
			input:      `{"annotations": [["p_p1", "x", {"entities": [[null, 0, 1, []]]}]]}`,
			target:     export.ErrUnresolved,
		},
		{
			name:       "unresolved paragraph",
			documentID: "d",
			input:      `{"annotations": [[null, "x", {"entities": []}]]}`,
			target:     export.ErrUnresolved,
		},
		{
			name:       "unknown label",
			documentID: "d",
			input:      `{"annotations": [["d_p1", "x", {"entities": [["d_p1_e1", 0, 1, [["COLOR", "Candidate", "t", "a"]]]]}]]}`,
			target:     export.ErrUnknownLabel,
		},
		{
			name:       "publication paragraph without position",
			documentID: "AnNER-RDF_240101000000",
			input:      `{"annotations": [["AnNER-RDF_240101000000_intro", "x", {"entities": []}]]}`,
			target:     export.ErrParagraphPosition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildMessages(tt.documentID, parse(t, tt.input), DefaultMetadata(), "", fixedNow)
			assert.ErrorIs(t, err, tt.target)
		})
	}

	_, err := BuildMessages("d", nil, DefaultMetadata(), "", fixedNow)
	assert.ErrorIs(t, err, export.ErrUnresolved)
}

func TestPublishDocument(t *testing.T) {
	rec := &recordingPublisher{}
	p := NewDocumentPublisher(rec, WithSubject("graph.ingest.onner"), WithNow(func() time.Time { return fixedNow }))

	n, err := p.PublishDocument(context.Background(), "AnNER-RDF_240101000000", parse(t, resolvedDoc), "run-1")
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	require.Len(t, rec.payloads, 8)

	for _, subject := range rec.subjects {
		assert.Equal(t, "graph.ingest.onner", subject)
	}

	var decoded EntityPayload
	require.NoError(t, json.Unmarshal(rec.payloads[2], &decoded))
	assert.Equal(t, "anner.local.onner.document.term.AnNER-RDF_240101000000_p1_e1", decoded.EntityID())
	assert.Equal(t, KindTerm, decoded.Kind)
	assert.Equal(t, "AnNER-RDF_240101000000", decoded.DocumentID)
	assert.NotEmpty(t, decoded.Triples())
	assert.Equal(t, EntityType, decoded.Schema())
	assert.True(t, decoded.UpdatedAt.Equal(fixedNow))
	assert.NoError(t, decoded.Validate())
}

func TestPublishDocument_WithMetadata(t *testing.T) {
	rec := &recordingPublisher{}
	p := NewDocumentPublisher(rec, WithMetadata(Metadata{
		Publication: export.Publication{Title: "Cellulose Review"},
	}))

	_, err := p.PublishDocument(context.Background(), "AnNER-RDF_240101000000", parse(t, resolvedDoc), "")
	require.NoError(t, err)

	var pub EntityPayload
	require.NoError(t, json.Unmarshal(rec.payloads[0], &pub))
	assert.Equal(t, KindPublication, pub.Kind)
	titles := objectsOf(EntityIngestMessage{Triples: pub.Triples()}, onner.PublicationTitle)
	assert.Equal(t, []any{"Cellulose Review"}, titles)

	var system EntityPayload
	require.NoError(t, json.Unmarshal(rec.payloads[len(rec.payloads)-1], &system))
	assert.Equal(t, SystemEntityID(onner.DefaultNERSystem), system.EntityID(), "empty system fields keep the defaults")
}

func TestPrepare_SendsNothingOnError(t *testing.T) {
	rec := &recordingPublisher{}
	p := NewDocumentPublisher(rec, WithMetadata(Metadata{
		Schema: onner.LabelingSchema{Name: "Only", Labels: []string{"MATERIAL"}},
	}))

	// STRUCTURE on the second term is outside the schema
	b, err := p.Prepare("AnNER-RDF_240101000000", parse(t, resolvedDoc), "")
	require.ErrorIs(t, err, export.ErrUnknownLabel)
	assert.Nil(t, b)
	assert.Empty(t, rec.payloads)

	n, err := p.PublishDocument(context.Background(), "AnNER-RDF_240101000000", parse(t, resolvedDoc), "")
	require.ErrorIs(t, err, export.ErrUnknownLabel)
	assert.Zero(t, n)
	assert.Empty(t, rec.payloads)
}

func TestBatchSend(t *testing.T) {
	rec := &recordingPublisher{}
	b, err := NewDocumentPublisher(rec).Prepare("AnNER-RDF_240101000000", parse(t, resolvedDoc), "")
	require.NoError(t, err)
	assert.Equal(t, 8, b.Len())
	assert.Empty(t, rec.payloads, "prepare sends nothing")

	n, err := b.Send(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.Len(t, rec.payloads, 8)
}

func TestPublishDocument_Failure(t *testing.T) {
	rec := &recordingPublisher{failAt: 2}
	p := NewDocumentPublisher(rec)

	n, err := p.PublishDocument(context.Background(), "d", parse(t, resolvedDoc), "")
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Contains(t, err.Error(), "stream unavailable")
}

func TestPublishDocument_NilPublisher(t *testing.T) {
	n, err := NewDocumentPublisher(nil).PublishDocument(context.Background(), "d", parse(t, resolvedDoc), "")
	require.NoError(t, err)
	assert.Zero(t, n)

	var p *DocumentPublisher
	n, err = p.PublishDocument(context.Background(), "d", nil, "")
	require.NoError(t, err)
	assert.Zero(t, n)

	b, err := p.Prepare("d", nil, "")
	require.NoError(t, err)
	assert.Zero(t, b.Len())
	n, err = b.Send(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestEntityIDs(t *testing.T) {
	assert.Equal(t, "anner.local.onner.document.paragraph.http---x-org-doc_p1", ParagraphEntityID("http://x.org/doc_p1"))
	assert.Equal(t, "anner.local.onner.document.term.a-b_e1", TermEntityID("a#b_e1"))
	assert.Equal(t, "anner.local.onner.document.publication.AnNER-RDF_240101000000", PublicationEntityID("AnNER-RDF_240101000000"))
	assert.Equal(t, "anner.local.onner.schema.label.Cello-Graph_4", LabelEntityID("Cello Graph", 4))
	assert.Equal(t, "anner.local.onner.schema.system.NER-v2", SystemEntityID("NER.v2"))
}

func TestEntityPayloadValidate(t *testing.T) {
	triple := func(subject, kind string) message.Triple {
		return message.Triple{Subject: subject, Predicate: onner.EntityType, Object: kind}
	}

	tests := []struct {
		name    string
		payload EntityPayload
		wantErr string
	}{
		{
			name:    "missing id",
			payload: EntityPayload{Kind: KindLabel},
			wantErr: "entity ID is required",
		},
		{
			name:    "unknown kind",
			payload: EntityPayload{EntityID_: "x", Kind: "figure", TripleData: []message.Triple{triple("x", "figure")}},
			wantErr: `unknown entity kind "figure"`,
		},
		{
			name:    "document kind without document",
			payload: EntityPayload{EntityID_: "x", Kind: KindTerm, TripleData: []message.Triple{triple("x", KindTerm)}},
			wantErr: "term entity requires a document ID",
		},
		{
			name:    "no triples",
			payload: EntityPayload{EntityID_: "x", Kind: KindLabel},
			wantErr: "entity has no triples",
		},
		{
			name:    "foreign subject",
			payload: EntityPayload{EntityID_: "x", Kind: KindLabel, TripleData: []message.Triple{triple("y", KindLabel)}},
			wantErr: "describes y",
		},
		{
			name:    "kind mismatch",
			payload: EntityPayload{EntityID_: "x", Kind: KindLabel, TripleData: []message.Triple{triple("x", KindSystem)}},
			wantErr: "does not match",
		},
		{
			name:    "shared kind",
			payload: EntityPayload{EntityID_: "x", Kind: KindLabel, TripleData: []message.Triple{triple("x", KindLabel)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.payload.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	msgs, err := BuildMessages("AnNER-RDF_240101000000", parse(t, resolvedDoc), DefaultMetadata(), "", fixedNow)
	require.NoError(t, err)
	for _, msg := range msgs {
		assert.NoError(t, msg.Payload().Validate(), msg.ID)
	}
}

func TestEntityPayloadUnmarshal_KindFromTriples(t *testing.T) {
	msgs, err := BuildMessages("d", parse(t, `{"annotations": [["d_p1", "x", {"entities": []}]]}`), DefaultMetadata(), "", fixedNow)
	require.NoError(t, err)

	p := msgs[0].Payload()
	p.Kind = ""
	data, err := json.Marshal(p)
	require.NoError(t, err)

	var decoded EntityPayload
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, KindParagraph, decoded.Kind)
	assert.NoError(t, decoded.Validate())
}
