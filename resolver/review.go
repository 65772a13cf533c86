package resolver

import (
	"strconv"
	"strings"

	"github.com/c360studio/anner-rdf/annotation"
)

// ReviewMarker starts the trailing identifier segment that carries a review
// number, as in "doc_p1_e3_Rv2".
const ReviewMarker = "Rv"

// ReviewSuffix returns the identifier suffix for a review version, or "" for
// version 0.
func ReviewSuffix(version int) string {
	if version <= 0 {
		return ""
	}
	return "_" + ReviewMarker + strconv.Itoa(version)
}

// DetectReviewVersion returns the review version new entity identifiers must
// carry.
//
// It is 0 when the first paragraph has no identifier or when no entity lacks
// one. Otherwise it is one more than the highest review number found on
// existing entity identifiers, or 1 if there is none. Every existing entity
// identifier is inspected, so a malformed review segment fails even when the
// result would be 0.
func DetectReviewVersion(doc *annotation.Document) (int, error) {
	if len(doc.Annotations) == 0 || doc.Annotations[0].ID == nil {
		return 0, nil
	}

	anyNil := false
	highest := 0
	observed := false

	for i := range doc.Annotations {
		for j := range doc.Annotations[i].Entities {
			e := &doc.Annotations[i].Entities[j]
			if e.ID == nil {
				anyNil = true
				continue
			}

			n, ok, err := reviewNumber(*e.ID)
			if err != nil {
				return 0, err
			}
			if ok {
				observed = true
				if n > highest {
					highest = n
				}
			}
		}
	}

	switch {
	case !anyNil:
		return 0, nil
	case observed:
		return highest + 1, nil
	default:
		return 1, nil
	}
}

// reviewNumber extracts N from a trailing "_RvN" segment. ok is false when the
// last segment does not start with the review marker.
func reviewNumber(entityID string) (n int, ok bool, err error) {
	segment := entityID[strings.LastIndex(entityID, "_")+1:]
	if !strings.HasPrefix(segment, ReviewMarker) {
		return 0, false, nil
	}

	digits := segment[len(ReviewMarker):]
	if digits == "" || strings.TrimLeft(digits, "0123456789") != "" {
		return 0, false, &ParseError{EntityID: entityID, Segment: segment}
	}
	n, err = strconv.Atoi(digits)
	if err != nil {
		return 0, false, &ParseError{EntityID: entityID, Segment: segment, Err: err}
	}
	return n, true, nil
}
