package annotation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Wire arities of the positional records.
const (
	paragraphArity = 3
	entityArity    = 4
	statusArity    = 4
)

// Load reads and decodes an annotation document from a file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read annotation file: %w", err)
	}
	return Parse(data)
}

// Decode reads a whole annotation document from r.
func Decode(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read annotation input: %w", err)
	}
	return Parse(data)
}

// Parse decodes an annotation document. Every structural problem is reported
// as an *InputFormatError.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		var ife *InputFormatError
		if errors.As(err, &ife) {
			return nil, ife
		}
		return nil, formatErr("", "malformed JSON", err)
	}
	return &doc, nil
}

// UnmarshalJSON decodes the positional wire format.
func (d *Document) UnmarshalJSON(data []byte) error {
	var wire struct {
		Annotations *[]json.RawMessage `json:"annotations"`
		Classes     json.RawMessage    `json:"classes"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return formatErr("", "document must be a JSON object", err)
	}
	if wire.Annotations == nil {
		return formatErr("", `missing "annotations" key`, nil)
	}
	if len(*wire.Annotations) == 0 {
		return formatErr("annotations", "document has no paragraphs", nil)
	}

	paragraphs := make([]Paragraph, 0, len(*wire.Annotations))
	for i, raw := range *wire.Annotations {
		p, err := decodeParagraph(raw, i)
		if err != nil {
			return err
		}
		paragraphs = append(paragraphs, p)
	}

	d.Annotations = paragraphs
	d.Classes = nil
	if len(wire.Classes) > 0 && !isNull(wire.Classes) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, wire.Classes); err != nil {
			return formatErr("classes", "malformed classes value", err)
		}
		d.Classes = json.RawMessage(buf.Bytes())
	}
	return nil
}

func decodeParagraph(raw json.RawMessage, index int) (Paragraph, error) {
	path := fmt.Sprintf("annotations[%d]", index)

	parts, err := decodeTuple(raw, paragraphArity, path, "paragraph")
	if err != nil {
		return Paragraph{}, err
	}

	var p Paragraph
	id, ok := decodeID(parts[0])
	switch {
	case ok:
		p.ID = id
	case index == 0:
		// Left for the resolver, which owns the policy for this case.
		p.RawID = append(json.RawMessage(nil), bytes.TrimSpace(parts[0])...)
	default:
		return Paragraph{}, formatErr(path+"[0]", "paragraph id must be a string or null", nil)
	}

	if err := json.Unmarshal(parts[1], &p.Text); err != nil || isNull(parts[1]) {
		return Paragraph{}, formatErr(path+"[1]", "paragraph text must be a string", nil)
	}

	var container struct {
		Entities *[]json.RawMessage `json:"entities"`
	}
	if err := json.Unmarshal(parts[2], &container); err != nil {
		return Paragraph{}, formatErr(path+"[2]", "entity container must be an object", err)
	}
	if container.Entities == nil {
		return Paragraph{}, formatErr(path+"[2]", `missing "entities" key`, nil)
	}

	p.Entities = make([]Entity, 0, len(*container.Entities))
	for j, rawEntity := range *container.Entities {
		e, err := decodeEntity(rawEntity, fmt.Sprintf("%s[2].entities[%d]", path, j))
		if err != nil {
			return Paragraph{}, err
		}
		p.Entities = append(p.Entities, e)
	}
	return p, nil
}

func decodeEntity(raw json.RawMessage, path string) (Entity, error) {
	parts, err := decodeTuple(raw, entityArity, path, "entity")
	if err != nil {
		return Entity{}, err
	}

	var e Entity
	id, ok := decodeID(parts[0])
	if !ok {
		return Entity{}, formatErr(path+"[0]", "entity id must be a string or null", nil)
	}
	e.ID = id

	if err := json.Unmarshal(parts[1], &e.Start); err != nil || isNull(parts[1]) {
		return Entity{}, formatErr(path+"[1]", "start offset must be an integer", nil)
	}
	if err := json.Unmarshal(parts[2], &e.End); err != nil || isNull(parts[2]) {
		return Entity{}, formatErr(path+"[2]", "end offset must be an integer", nil)
	}

	var rawStatuses []json.RawMessage
	if err := json.Unmarshal(parts[3], &rawStatuses); err != nil || rawStatuses == nil {
		return Entity{}, formatErr(path+"[3]", "status list must be an array", nil)
	}

	e.Statuses = make([]StatusRecord, 0, len(rawStatuses))
	for k, rawStatus := range rawStatuses {
		s, err := decodeStatus(rawStatus, fmt.Sprintf("%s[3][%d]", path, k))
		if err != nil {
			return Entity{}, err
		}
		e.Statuses = append(e.Statuses, s)
	}
	return e, nil
}

func decodeStatus(raw json.RawMessage, path string) (StatusRecord, error) {
	var fields []string
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return StatusRecord{}, formatErr(path, "status record must be an array of strings", nil)
	}
	if len(fields) != statusArity {
		return StatusRecord{}, formatErr(path,
			fmt.Sprintf("status record must have %d elements, got %d", statusArity, len(fields)), nil)
	}
	return StatusRecord{
		Label:     fields[0],
		Status:    fields[1],
		Timestamp: fields[2],
		Annotator: fields[3],
	}, nil
}

func decodeTuple(raw json.RawMessage, arity int, path, what string) ([]json.RawMessage, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil || parts == nil {
		return nil, formatErr(path, what+" must be an array", nil)
	}
	if len(parts) != arity {
		return nil, formatErr(path,
			fmt.Sprintf("%s must have %d elements, got %d", what, arity, len(parts)), nil)
	}
	return parts, nil
}

// decodeID accepts a JSON string or null. ok is false for any other value.
func decodeID(raw json.RawMessage) (id *string, ok bool) {
	if isNull(raw) {
		return nil, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false
	}
	return &s, true
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// MarshalJSON encodes the positional wire format.
func (d Document) MarshalJSON() ([]byte, error) {
	paragraphs := d.Annotations
	if paragraphs == nil {
		paragraphs = []Paragraph{}
	}
	return json.Marshal(struct {
		Annotations []Paragraph     `json:"annotations"`
		Classes     json.RawMessage `json:"classes,omitempty"`
	}{paragraphs, d.Classes})
}

// MarshalJSON encodes the paragraph as [id, text, {"entities": [...]}].
func (p Paragraph) MarshalJSON() ([]byte, error) {
	var id any
	switch {
	case p.ID != nil:
		id = *p.ID
	case len(p.RawID) > 0:
		id = p.RawID
	}
	entities := p.Entities
	if entities == nil {
		entities = []Entity{}
	}
	return json.Marshal([]any{id, p.Text, map[string]any{"entities": entities}})
}

// MarshalJSON encodes the entity as [id, start, end, [status...]].
func (e Entity) MarshalJSON() ([]byte, error) {
	var id any
	if e.ID != nil {
		id = *e.ID
	}
	statuses := e.Statuses
	if statuses == nil {
		statuses = []StatusRecord{}
	}
	return json.Marshal([]any{id, e.Start, e.End, statuses})
}

// MarshalJSON encodes the record as [label, status, timestamp, annotator].
func (s StatusRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal([statusArity]string{s.Label, s.Status, s.Timestamp, s.Annotator})
}
