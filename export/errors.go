package export

import "errors"

var (
	// ErrUnknownLabel is returned when a status label is not in the labeling
	// schema.
	ErrUnknownLabel = errors.New("label not in labeling schema")

	// ErrParagraphPosition is returned when a publication paragraph id does
	// not end in a p<digits> segment.
	ErrParagraphPosition = errors.New("paragraph id has no position segment")

	// ErrUnresolved is returned for documents with missing identifiers.
	ErrUnresolved = errors.New("document has unresolved identifiers")

	// ErrUnsupportedFormat is returned for unknown serialization formats.
	ErrUnsupportedFormat = errors.New("unsupported format")
)
