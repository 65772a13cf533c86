package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/c360studio/semstreams/component"
	"github.com/c360studio/semstreams/message"

	"github.com/c360studio/anner-rdf/vocabulary/onner"
)

func init() {
	err := component.RegisterPayload(&component.PayloadRegistration{
		Domain:      "onner",
		Category:    "entity",
		Version:     "v1",
		Description: "ONNER document or schema entity with triples",
		Factory:     func() any { return &EntityPayload{} },
	})
	if err != nil {
		panic("failed to register EntityPayload: " + err.Error())
	}
}

// EntityType is the message type for ONNER entity payloads.
var EntityType = message.Type{Domain: "onner", Category: "entity", Version: "v1"}

// documentKinds belong to a single document and carry its id. Label and
// system entities are shared by every document of a schema.
var documentKinds = map[string]bool{
	KindPublication: true,
	KindParagraph:   true,
	KindTerm:        true,
	KindLabel:       false,
	KindSystem:      false,
}

// EntityPayload is one ONNER entity as registered with semstreams.
type EntityPayload struct {
	EntityID_  string           `json:"id"`
	Kind       string           `json:"kind"`
	DocumentID string           `json:"document_id,omitempty"`
	TripleData []message.Triple `json:"triples"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// Payload converts the message into its registered payload.
func (m EntityIngestMessage) Payload() *EntityPayload {
	return &EntityPayload{
		EntityID_:  m.ID,
		Kind:       m.Kind,
		DocumentID: m.DocumentID,
		TripleData: m.Triples,
		UpdatedAt:  m.UpdatedAt,
	}
}

func (e *EntityPayload) EntityID() string          { return e.EntityID_ }
func (e *EntityPayload) Triples() []message.Triple { return e.TripleData }
func (e *EntityPayload) Schema() message.Type      { return EntityType }

// Validate checks that the payload is a well-formed entity of a known kind
// whose triples all describe it.
func (e *EntityPayload) Validate() error {
	if e.EntityID_ == "" {
		return errors.New("entity ID is required")
	}
	scoped, known := documentKinds[e.Kind]
	if !known {
		return fmt.Errorf("unknown entity kind %q", e.Kind)
	}
	if scoped && e.DocumentID == "" {
		return fmt.Errorf("%s entity requires a document ID", e.Kind)
	}
	if len(e.TripleData) == 0 {
		return errors.New("entity has no triples")
	}
	for _, t := range e.TripleData {
		if t.Subject != e.EntityID_ {
			return fmt.Errorf("triple %s describes %s", t.Predicate, t.Subject)
		}
	}
	if kind := kindOf(e.TripleData); kind != e.Kind {
		return fmt.Errorf("kind %q does not match %s triple %q", e.Kind, onner.EntityType, kind)
	}
	return nil
}

func (e *EntityPayload) MarshalJSON() ([]byte, error) {
	type Alias EntityPayload
	return json.Marshal((*Alias)(e))
}

// UnmarshalJSON decodes a payload. A payload without a kind field takes its
// kind from the onner.meta.type triple.
func (e *EntityPayload) UnmarshalJSON(data []byte) error {
	type Alias EntityPayload
	if err := json.Unmarshal(data, (*Alias)(e)); err != nil {
		return err
	}
	if e.Kind == "" {
		e.Kind = kindOf(e.TripleData)
	}
	return nil
}

func kindOf(triples []message.Triple) string {
	for _, t := range triples {
		if t.Predicate == onner.EntityType {
			kind, _ := t.Object.(string)
			return kind
		}
	}
	return ""
}
