package annotation

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/copier"
)

var validate = validator.New()

// Validate checks the offset invariant 0 <= start <= end <= len(text) for
// every entity. Lengths count code points.
func (d *Document) Validate() error {
	for i := range d.Annotations {
		p := &d.Annotations[i]
		textLen := utf8.RuneCountInString(p.Text)

		for j := range p.Entities {
			e := &p.Entities[j]
			path := fmt.Sprintf("annotations[%d][2].entities[%d]", i, j)

			if err := validate.Struct(e); err != nil {
				return offsetError(path, e, err)
			}
			if e.End > textLen {
				return formatErr(path, fmt.Sprintf("end offset %d exceeds paragraph length %d", e.End, textLen), nil)
			}
		}
	}
	return nil
}

func offsetError(path string, e *Entity, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return formatErr(path, "invalid entity", err)
	}
	switch verrs[0].Field() {
	case "Start":
		return formatErr(path, fmt.Sprintf("start offset %d is negative", e.Start), nil)
	case "End":
		return formatErr(path, fmt.Sprintf("end offset %d is before start offset %d", e.End, e.Start), nil)
	default:
		return formatErr(path, "invalid entity", err)
	}
}

// Clone returns a deep copy of the document. Mutating the copy never affects
// the original. Nil slices and identifiers stay nil in the copy.
func (d *Document) Clone() (*Document, error) {
	var out Document
	if err := copier.CopyWithOption(&out, d, copier.Option{DeepCopy: true, IgnoreEmpty: true}); err != nil {
		return nil, fmt.Errorf("clone document: %w", err)
	}
	return &out, nil
}
