// Package annotation models AnNER named-entity annotation documents and
// their positional JSON wire format.
//
// A document is an ordered list of paragraphs. On the wire every record is a
// fixed-arity JSON array rather than an object:
//
//	{"annotations": [
//	    [paragraph_id|null, "text", {"entities": [
//	        [entity_id|null, start, end, [[label, status, timestamp, annotator], ...]]
//	    ]}]
//	]}
//
// Identifiers are optional until the resolver assigns them.
package annotation

import "encoding/json"

// Document is one annotated source text split into paragraphs.
type Document struct {
	Annotations []Paragraph

	// Classes is the optional "classes" value written by the annotation
	// tool. It is carried through verbatim and never interpreted.
	Classes json.RawMessage
}

// Paragraph is a single paragraph and the entities annotated inside it.
type Paragraph struct {
	// ID is nil until assigned.
	ID *string

	// RawID holds a first-paragraph identifier that was present but was not
	// a JSON string. Only the first paragraph may carry one; the resolver
	// rejects it.
	RawID json.RawMessage

	Text     string
	Entities []Entity
}

// Entity is a labeled span inside a paragraph. Start and End are offsets in
// code points into the owning paragraph's text.
type Entity struct {
	ID       *string
	Start    int `validate:"gte=0"`
	End      int `validate:"gtefield=Start"`
	Statuses []StatusRecord
}

// StatusRecord is one timestamped label assertion by an annotator.
type StatusRecord struct {
	Label     string
	Status    string
	Timestamp string
	Annotator string
}

// HasID reports whether the paragraph identifier is set.
func (p *Paragraph) HasID() bool {
	return p.ID != nil
}

// IDString returns the paragraph identifier or "" when unset.
func (p *Paragraph) IDString() string {
	if p.ID == nil {
		return ""
	}
	return *p.ID
}

// HasID reports whether the entity identifier is set.
func (e *Entity) HasID() bool {
	return e.ID != nil
}

// IDString returns the entity identifier or "" when unset.
func (e *Entity) IDString() string {
	if e.ID == nil {
		return ""
	}
	return *e.ID
}

// Length returns End - Start.
func (e *Entity) Length() int {
	return e.End - e.Start
}

// Span returns the entity's text slice of the paragraph text, counting code
// points. Offsets outside the text are clamped.
func (e *Entity) Span(text string) string {
	runes := []rune(text)
	start, end := e.Start, e.End
	if start < 0 {
		start = 0
	}
	if end > len(runes) {
		end = len(runes)
	}
	if start >= end {
		return ""
	}
	return string(runes[start:end])
}

// EntityCount returns the number of entities across all paragraphs.
func (d *Document) EntityCount() int {
	n := 0
	for i := range d.Annotations {
		n += len(d.Annotations[i].Entities)
	}
	return n
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
