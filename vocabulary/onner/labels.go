package onner

import "strconv"

// Default labeling schema values.
const (
	DefaultSchemaName    = "CelloGraph"
	DefaultNERSystem     = "Cellulosic_NER_Model"
	DefaultSystemVersion = "1.0"
)

// DefaultLabels is the ordered CelloGraph label set. A label's number is its
// 1-based position in this list.
var DefaultLabels = []string{
	"CHEMICAL",
	"MATERIAL",
	"STRUCTURE",
	"PROPERTY",
	"APPLICATION",
	"PROCESS",
	"EQUIPMENT",
	"MEASUREMENT",
	"ABBREVIATION",
}

// LabelingSchema is a named, ordered list of label names.
type LabelingSchema struct {
	Name   string
	Labels []string
}

// DefaultLabelingSchema returns the CelloGraph schema.
func DefaultLabelingSchema() LabelingSchema {
	labels := make([]string, len(DefaultLabels))
	copy(labels, DefaultLabels)
	return LabelingSchema{Name: DefaultSchemaName, Labels: labels}
}

// Number returns the 1-based position of label in the schema.
func (s LabelingSchema) Number(label string) (int, bool) {
	for i, l := range s.Labels {
		if l == label {
			return i + 1, true
		}
	}
	return 0, false
}

// LabelIRI returns the label individual for a label number.
func LabelIRI(n int) string {
	return DataIRI("Label_" + strconv.Itoa(n))
}
