// Package graph publishes resolved annotation documents to the knowledge graph.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/c360studio/semstreams/message"

	"github.com/c360studio/anner-rdf/annotation"
	"github.com/c360studio/anner-rdf/export"
	"github.com/c360studio/anner-rdf/vocabulary/onner"
)

// GraphIngestSubject is the default subject for graph ingestion.
const GraphIngestSubject = "graph.ingest.entity"

// Source tags every published triple.
const Source = "anner-rdf.convert"

// Entity kinds written under onner.meta.type.
const (
	KindPublication = "publication"
	KindParagraph   = "paragraph"
	KindTerm        = "term"
	KindLabel       = "label"
	KindSystem      = "system"
)

// Publisher publishes a payload to a JetStream subject.
// *natsclient.Client satisfies it.
type Publisher interface {
	PublishToStream(ctx context.Context, subject string, data []byte) error
}

// EntityIngestMessage is the message format for graph ingestion.
type EntityIngestMessage struct {
	ID         string           `json:"id"`
	Kind       string           `json:"kind"`
	DocumentID string           `json:"document_id,omitempty"`
	Triples    []message.Triple `json:"triples"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Metadata holds the values published next to every document: the
// publication literals, the labeling schema and the NER system.
type Metadata struct {
	Publication   export.Publication
	Schema        onner.LabelingSchema
	NERSystem     string
	SystemVersion string
}

// DefaultMetadata returns the same defaults export.NewRDFExporter uses.
func DefaultMetadata() Metadata {
	return Metadata{
		Publication:   export.DefaultPublication(),
		Schema:        onner.DefaultLabelingSchema(),
		NERSystem:     onner.DefaultNERSystem,
		SystemVersion: onner.DefaultSystemVersion,
	}
}

// DocumentPublisher turns resolved documents into entity ingest messages.
type DocumentPublisher struct {
	pub     Publisher
	subject string
	meta    Metadata
	logger  *slog.Logger
	now     func() time.Time
}

// PublisherOption configures a DocumentPublisher.
type PublisherOption func(*DocumentPublisher)

// WithSubject overrides the ingest subject.
func WithSubject(subject string) PublisherOption {
	return func(p *DocumentPublisher) {
		if subject != "" {
			p.subject = subject
		}
	}
}

// WithMetadata sets the publication, schema and NER system values. A schema
// without labels and empty system fields keep the defaults.
func WithMetadata(m Metadata) PublisherOption {
	return func(p *DocumentPublisher) {
		p.meta.Publication = m.Publication
		if len(m.Schema.Labels) > 0 {
			p.meta.Schema = m.Schema
		}
		if m.NERSystem != "" {
			p.meta.NERSystem = m.NERSystem
		}
		if m.SystemVersion != "" {
			p.meta.SystemVersion = m.SystemVersion
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) PublisherOption {
	return func(p *DocumentPublisher) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithNow sets the time source for triple timestamps.
func WithNow(now func() time.Time) PublisherOption {
	return func(p *DocumentPublisher) {
		if now != nil {
			p.now = now
		}
	}
}

// NewDocumentPublisher creates a publisher. A nil Publisher yields a
// DocumentPublisher whose PublishDocument does nothing.
func NewDocumentPublisher(pub Publisher, opts ...PublisherOption) *DocumentPublisher {
	p := &DocumentPublisher{
		pub:     pub,
		subject: GraphIngestSubject,
		meta:    DefaultMetadata(),
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.meta.Schema.Name == "" {
		p.meta.Schema.Name = onner.DefaultSchemaName
	}
	return p
}

// Batch is the validated, marshaled message set of one document.
type Batch struct {
	pub        Publisher
	subject    string
	logger     *slog.Logger
	documentID string
	runID      string
	ids        []string
	data       [][]byte
}

// Prepare builds, validates and marshals every message of a document without
// sending anything. It returns a nil Batch when no client is configured.
func (p *DocumentPublisher) Prepare(documentID string, doc *annotation.Document, runID string) (*Batch, error) {
	if p == nil || p.pub == nil {
		return nil, nil // Skip publishing if no NATS client (graceful degradation)
	}

	msgs, err := BuildMessages(documentID, doc, p.meta, runID, p.now())
	if err != nil {
		return nil, err
	}

	b := &Batch{
		pub:        p.pub,
		subject:    p.subject,
		logger:     p.logger,
		documentID: documentID,
		runID:      runID,
		ids:        make([]string, len(msgs)),
		data:       make([][]byte, len(msgs)),
	}
	for i, msg := range msgs {
		if err := msg.Payload().Validate(); err != nil {
			return nil, fmt.Errorf("invalid entity %s: %w", msg.ID, err)
		}
		data, err := json.Marshal(msg)
		if err != nil {
			return nil, fmt.Errorf("marshal entity %s: %w", msg.ID, err)
		}
		b.ids[i] = msg.ID
		b.data[i] = data
	}
	return b, nil
}

// Len returns the number of messages in the batch.
func (b *Batch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.data)
}

// Send publishes the batch in order and returns the number of messages sent.
// Delivery is at least once. A failure leaves the messages before it on the
// stream; they are keyed by entity id, so sending the batch again republishes
// the same entities.
func (b *Batch) Send(ctx context.Context) (int, error) {
	if b == nil {
		return 0, nil
	}
	for i, data := range b.data {
		if err := b.pub.PublishToStream(ctx, b.subject, data); err != nil {
			return i, fmt.Errorf("publish entity %s: %w", b.ids[i], err)
		}
	}

	b.logger.Debug("Published document entities",
		"document_id", b.documentID,
		"run_id", b.runID,
		"subject", b.subject,
		"entities", len(b.data))

	return len(b.data), nil
}

// PublishDocument prepares and sends the entities of a resolved document and
// returns the number of messages sent. runID may be empty.
func (p *DocumentPublisher) PublishDocument(ctx context.Context, documentID string, doc *annotation.Document, runID string) (int, error) {
	b, err := p.Prepare(documentID, doc, runID)
	if err != nil {
		return 0, err
	}
	return b.Send(ctx)
}

// BuildMessages builds the ingest messages of a resolved document in the
// order of the Turtle output: the publication (for documents minted by the
// annotation tool), each paragraph followed by its terms, the labels in
// first-seen order and the NER system.
func BuildMessages(documentID string, doc *annotation.Document, meta Metadata, runID string, now time.Time) ([]EntityIngestMessage, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: nil document", export.ErrUnresolved)
	}

	paragraphs := make([]string, len(doc.Annotations))
	for i := range doc.Annotations {
		para := &doc.Annotations[i]
		if !para.HasID() {
			return nil, fmt.Errorf("%w: paragraph %d has no id", export.ErrUnresolved, i+1)
		}
		paragraphs[i] = ParagraphEntityID(*para.ID)
	}

	describes := export.GetProfileConfig(export.ProfileFor(documentID)).DescribesPublication
	msgs := make([]EntityIngestMessage, 0, len(doc.Annotations)+doc.EntityCount()+3)

	if describes {
		t := tripleBuilder{subject: PublicationEntityID(documentID), now: now}
		t.add(onner.EntityType, KindPublication)
		t.add(onner.DocumentID, documentID)
		if runID != "" {
			t.add(onner.RunID, runID)
		}
		t.add(onner.PublicationTitle, meta.Publication.Title)
		t.add(onner.PublicationDate, meta.Publication.Date)
		t.add(onner.PublicationDOI, meta.Publication.DOI)
		for _, id := range paragraphs {
			t.add(onner.PublicationContainsPart, id)
		}
		msgs = append(msgs, t.message(KindPublication, documentID))
	}

	var labels []labelRef
	seen := make(map[int]bool)

	for i := range doc.Annotations {
		para := &doc.Annotations[i]
		t := tripleBuilder{subject: paragraphs[i], now: now}
		t.add(onner.EntityType, KindParagraph)
		t.add(onner.DocumentID, documentID)
		if runID != "" {
			t.add(onner.RunID, runID)
		}
		t.add(onner.ParagraphText, para.Text)

		pos, err := export.ParagraphPosition(*para.ID)
		switch {
		case err == nil:
			t.add(onner.ParagraphPosition, pos)
			if describes && pos < len(paragraphs) {
				t.add(onner.ParagraphNext, paragraphs[pos])
			}
		case describes:
			return nil, err
		}

		terms := make([]EntityIngestMessage, 0, len(para.Entities))
		for j := range para.Entities {
			ent := &para.Entities[j]
			if !ent.HasID() {
				return nil, fmt.Errorf("%w: entity %d of paragraph %s has no id", export.ErrUnresolved, j+1, *para.ID)
			}

			refs := make([]labelRef, len(ent.Statuses))
			for k, rec := range ent.Statuses {
				n, ok := meta.Schema.Number(rec.Label)
				if !ok {
					return nil, fmt.Errorf("%w: %q on entity %s", export.ErrUnknownLabel, rec.Label, *ent.ID)
				}
				refs[k] = labelRef{number: n, name: rec.Label}
				if !seen[n] {
					seen[n] = true
					labels = append(labels, refs[k])
				}
			}

			termEntity := TermEntityID(*ent.ID)
			t.add(onner.ParagraphContainsTerm, termEntity)
			terms = append(terms, termMessage(termEntity, paragraphs[i], documentID, runID, meta.Schema.Name, para.Text, ent, refs, now))
		}

		msgs = append(msgs, t.message(KindParagraph, documentID))
		msgs = append(msgs, terms...)
	}

	for _, l := range labels {
		t := tripleBuilder{subject: LabelEntityID(meta.Schema.Name, l.number), now: now}
		t.add(onner.EntityType, KindLabel)
		t.add(onner.LabelText, l.name)
		t.add(onner.SchemaName, meta.Schema.Name)
		msgs = append(msgs, t.message(KindLabel, ""))
	}

	sys := tripleBuilder{subject: SystemEntityID(meta.NERSystem), now: now}
	sys.add(onner.EntityType, KindSystem)
	sys.add(onner.SystemVersion, meta.SystemVersion)
	sys.add(onner.SchemaName, meta.Schema.Name)
	msgs = append(msgs, sys.message(KindSystem, ""))

	return msgs, nil
}

type labelRef struct {
	number int
	name   string
}

func termMessage(entityID, paragraphEntity, documentID, runID, schema, text string, ent *annotation.Entity, refs []labelRef, now time.Time) EntityIngestMessage {
	t := tripleBuilder{subject: entityID, now: now}
	t.add(onner.EntityType, KindTerm)
	t.add(onner.DocumentID, documentID)
	if runID != "" {
		t.add(onner.RunID, runID)
	}
	t.add(onner.TermText, ent.Span(text))
	t.add(onner.TermOffset, ent.Start)
	t.add(onner.TermLength, ent.Length())
	t.add(onner.TermContainedBy, paragraphEntity)
	for i, rec := range ent.Statuses {
		t.add(onner.TermStatus, rec.Status+":"+rec.Label)
		t.add(onner.StatusLabel, LabelEntityID(schema, refs[i].number))
		t.add(onner.StatusAssignedAt, rec.Timestamp)
		t.add(onner.StatusAssignedBy, rec.Annotator)
	}
	return t.message(KindTerm, documentID)
}

type tripleBuilder struct {
	subject string
	now     time.Time
	triples []message.Triple
}

func (b *tripleBuilder) add(predicate string, object any) {
	b.triples = append(b.triples, message.Triple{
		Subject:    b.subject,
		Predicate:  predicate,
		Object:     object,
		Source:     Source,
		Timestamp:  b.now,
		Confidence: 1.0,
	})
}

func (b *tripleBuilder) message(kind, documentID string) EntityIngestMessage {
	return EntityIngestMessage{
		ID:         b.subject,
		Kind:       kind,
		DocumentID: documentID,
		Triples:    b.triples,
		UpdatedAt:  b.now,
	}
}

// instanceReplacer keeps identifiers inside a single dotted entity-id segment.
var instanceReplacer = strings.NewReplacer(".", "-", " ", "-", "/", "-", ":", "-", "#", "-")

// PublicationEntityID generates a consistent entity ID for a publication.
// Format: anner.local.onner.document.publication.<document id>
func PublicationEntityID(documentID string) string {
	return fmt.Sprintf("anner.local.onner.document.publication.%s", instanceReplacer.Replace(documentID))
}

// ParagraphEntityID generates a consistent entity ID for a paragraph.
// Format: anner.local.onner.document.paragraph.<paragraph id>
func ParagraphEntityID(paragraphID string) string {
	return fmt.Sprintf("anner.local.onner.document.paragraph.%s", instanceReplacer.Replace(paragraphID))
}

// TermEntityID generates a consistent entity ID for a labeled term.
// Format: anner.local.onner.document.term.<entity id>
func TermEntityID(entityID string) string {
	return fmt.Sprintf("anner.local.onner.document.term.%s", instanceReplacer.Replace(entityID))
}

// LabelEntityID generates a consistent entity ID for a schema label.
// Format: anner.local.onner.schema.label.<schema>_<number>
func LabelEntityID(schema string, n int) string {
	return fmt.Sprintf("anner.local.onner.schema.label.%s_%d", instanceReplacer.Replace(schema), n)
}

// SystemEntityID generates a consistent entity ID for a NER system.
// Format: anner.local.onner.schema.system.<name>
func SystemEntityID(name string) string {
	return fmt.Sprintf("anner.local.onner.schema.system.%s", instanceReplacer.Replace(name))
}
