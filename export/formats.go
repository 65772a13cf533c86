package export

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/c360studio/anner-rdf/vocabulary/onner"
)

// FormatInfo provides metadata about an export format.
type FormatInfo struct {
	// Name is the format identifier.
	Name Format

	// MIMEType is the standard MIME type.
	MIMEType string

	// Extension is the file extension (with dot).
	Extension string

	// Description describes the format.
	Description string
}

// FormatRegistry contains metadata for all supported formats.
var FormatRegistry = map[Format]FormatInfo{
	FormatTurtle: {
		Name:        FormatTurtle,
		MIMEType:    "text/turtle",
		Extension:   ".ttl",
		Description: "Turtle - Terse RDF Triple Language",
	},
	FormatNTriples: {
		Name:        FormatNTriples,
		MIMEType:    "application/n-triples",
		Extension:   ".nt",
		Description: "N-Triples - Line-based RDF format",
	},
}

// GetFormatInfo returns metadata for a format.
func GetFormatInfo(format Format) (FormatInfo, bool) {
	info, ok := FormatRegistry[format]
	return info, ok
}

// ParseFormat accepts a format name or its file extension ("ttl", ".nt").
// The empty string selects Turtle.
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return FormatTurtle, nil
	}
	if _, ok := FormatRegistry[Format(name)]; ok {
		return Format(name), nil
	}
	ext := "." + strings.TrimPrefix(name, ".")
	for f, info := range FormatRegistry {
		if info.Extension == ext {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedFormat, s, strings.Join(FormatNames(), ", "))
}

// FormatNames returns the supported format names, sorted.
func FormatNames() []string {
	names := make([]string, 0, len(FormatRegistry))
	for f := range FormatRegistry {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}

// Prefix is a namespace prefix declaration.
type Prefix struct {
	Name string
	IRI  string
}

// DefaultPrefixes returns the prefix block of every Turtle export, in
// declaration order.
func DefaultPrefixes() []Prefix {
	return []Prefix{
		{Name: "onner", IRI: onner.Namespace},
		{Name: "data", IRI: onner.DataNamespace},
		{Name: "rdf", IRI: onner.RDFNamespace},
		{Name: "rdfs", IRI: onner.RDFSNamespace},
		{Name: "xsd", IRI: onner.XSDNamespace},
		{Name: "owl", IRI: onner.OWLNamespace},
	}
}

// TurtleWriter writes RDF in Turtle format.
//
// Subjects start a line and each further predicate goes on its own line; the
// object list of a predicate is comma separated. IRIs under a declared
// namespace are written as prefixed names.
type TurtleWriter struct {
	prefixes []Prefix
	sb       strings.Builder
}

// NewTurtleWriter creates a new Turtle writer with default prefixes.
func NewTurtleWriter() *TurtleWriter {
	return &TurtleWriter{
		prefixes: DefaultPrefixes(),
	}
}

// SetPrefix declares or replaces a namespace prefix.
func (w *TurtleWriter) SetPrefix(prefix, iri string) {
	for i := range w.prefixes {
		if w.prefixes[i].Name == prefix {
			w.prefixes[i].IRI = iri
			return
		}
	}
	w.prefixes = append(w.prefixes, Prefix{Name: prefix, IRI: iri})
}

// WritePrefixes writes prefix declarations in declaration order.
func (w *TurtleWriter) WritePrefixes() {
	for _, p := range w.prefixes {
		w.sb.WriteString(fmt.Sprintf("@prefix %s: <%s> .\n", p.Name, p.IRI))
	}
	w.sb.WriteString("\n")
}

// WriteBlock writes one subject and its statements followed by a blank line.
// Blocks without statements are skipped.
func (w *TurtleWriter) WriteBlock(b Block) {
	if len(b.Statements) == 0 {
		return
	}

	w.sb.WriteString(w.compact(b.Subject))
	w.sb.WriteString(" ")
	for i, st := range b.Statements {
		w.sb.WriteString(w.compact(st.Predicate))
		w.sb.WriteString(" ")
		for j, o := range st.Objects {
			if j > 0 {
				w.sb.WriteString(", ")
			}
			w.sb.WriteString(w.term(o))
		}
		if i < len(b.Statements)-1 {
			w.sb.WriteString(" ;\n")
		} else {
			w.sb.WriteString(" .\n\n")
		}
	}
}

// String returns the accumulated Turtle output.
func (w *TurtleWriter) String() string {
	return w.sb.String()
}

func (w *TurtleWriter) term(t Term) string {
	if t.Kind == KindIRI {
		return w.compact(t.Value)
	}
	lit := "'" + escapeTurtle(t.Value) + "'"
	if t.Datatype != "" {
		lit += "^^" + w.compact(t.Datatype)
	}
	return lit
}

// compact rewrites an IRI as a prefixed name when a declared namespace
// matches, longest namespace first.
func (w *TurtleWriter) compact(iri string) string {
	best := -1
	for i, p := range w.prefixes {
		if strings.HasPrefix(iri, p.IRI) && (best < 0 || len(p.IRI) > len(w.prefixes[best].IRI)) {
			best = i
		}
	}
	if best < 0 {
		return "<" + escapeIRI(iri) + ">"
	}
	local := strings.TrimPrefix(iri, w.prefixes[best].IRI)
	if !validLocalName(local) {
		return "<" + escapeIRI(iri) + ">"
	}
	return w.prefixes[best].Name + ":" + local
}

// validLocalName reports whether s can follow a prefix in a Turtle prefixed
// name as written.
func validLocalName(s string) bool {
	for i, r := range s {
		switch {
		case r == '_' || r == ':' || (r >= '0' && r <= '9') || unicode.IsLetter(r):
		case (r == '-' || r == '.') && i > 0:
		default:
			return false
		}
	}
	return !strings.HasSuffix(s, ".")
}

// escapeIRI percent-encodes the characters an IRIREF may not contain.
func escapeIRI(iri string) string {
	if !strings.ContainsFunc(iri, invalidIRIRune) {
		return iri
	}
	var sb strings.Builder
	for _, r := range iri {
		if invalidIRIRune(r) {
			fmt.Fprintf(&sb, "%%%02X", r)
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func invalidIRIRune(r rune) bool {
	return r <= 0x20 || strings.ContainsRune("<>\"{}|^`\\", r)
}

// NTriplesWriter writes RDF in N-Triples format.
type NTriplesWriter struct {
	sb strings.Builder
}

// NewNTriplesWriter creates a new N-Triples writer.
func NewNTriplesWriter() *NTriplesWriter {
	return &NTriplesWriter{}
}

// WriteTriple writes a single triple.
func (w *NTriplesWriter) WriteTriple(subject, predicate string, object Term) {
	w.sb.WriteString(fmt.Sprintf("<%s> <%s> %s .\n", escapeIRI(subject), escapeIRI(predicate), formatNTriplesTerm(object)))
}

// WriteBlock writes every triple of a block, one per line.
func (w *NTriplesWriter) WriteBlock(b Block) {
	for _, st := range b.Statements {
		for _, o := range st.Objects {
			w.WriteTriple(b.Subject, st.Predicate, o)
		}
	}
}

// String returns the accumulated N-Triples output.
func (w *NTriplesWriter) String() string {
	return w.sb.String()
}

func formatNTriplesTerm(t Term) string {
	if t.Kind == KindIRI {
		return "<" + escapeIRI(t.Value) + ">"
	}
	lit := `"` + escapeNTriples(t.Value) + `"`
	if t.Datatype != "" {
		lit += "^^<" + t.Datatype + ">"
	}
	return lit
}
