// Package beios turns tokenized text and its entity spans into BEIOS
// token-per-line format: one "token TAG" pair per line, where TAG is O for
// tokens outside any entity and B-, I-, E- or S- followed by the entity type
// otherwise.
package beios

import (
	"strings"

	"github.com/FocuswithJustin/bsfbeios/core/bsf"
)

// Tag values and prefixes.
const (
	Outside = "O"
	Begin   = "B-"
	Inside  = "I-"
	End     = "E-"
	Single  = "S-"
)

// Encoder converts text and spans to BEIOS. The zero value matches the
// output of the lang-uk conversion scripts, including their trailing
// boundary quirk.
type Encoder struct {
	// FixTrailingBoundary emits a trailing untagged region even when only
	// one character follows the last span. By default that character is
	// dropped.
	FixTrailingBoundary bool
}

// Document is encoded output together with its token and entity counts.
// Tokens counts emitted lines before joining; an entity token containing a
// newline still counts once per space-separated word.
type Document struct {
	Text     string
	Tokens   int
	Entities int
}

// Encode emits BEIOS lines for text using spans, which must be ordered and
// non-overlapping. Offsets are code point positions; out-of-range offsets are
// clamped to the text.
func (e Encoder) Encode(text string, spans []bsf.Span) string {
	return e.EncodeDocument(text, spans).Text
}

// EncodeDocument is Encode with counts.
func (e Encoder) EncodeDocument(text string, spans []bsf.Span) Document {
	data := []rune(text)
	var lines []string

	prev := 0
	for _, s := range spans {
		lines = appendPlain(lines, slice(data, prev, s.Start))
		lines = appendEntity(lines, s)
		prev = s.End
	}

	limit := len(data) - 1
	if e.FixTrailingBoundary {
		limit = len(data)
	}
	if prev < limit {
		lines = appendPlain(lines, slice(data, prev, len(data)))
	}

	return Document{
		Text:     strings.Join(lines, "\n"),
		Tokens:   len(lines),
		Entities: len(spans),
	}
}

// Encode uses the zero Encoder.
func Encode(text string, spans []bsf.Span) string {
	return Encoder{}.Encode(text, spans)
}

// Convert parses annotation and encodes text with the result.
func Convert(text, annotation string) string {
	return Encode(text, bsf.Parse(annotation))
}

// appendPlain tags every whitespace-separated token of chunk as outside.
func appendPlain(lines []string, chunk string) []string {
	for _, tok := range strings.FieldsFunc(chunk, bsf.IsSpace) {
		lines = append(lines, tok+" "+Outside)
	}
	return lines
}

// appendEntity splits on single spaces only: tabs and runs of spaces inside
// an entity are kept as part of, or as empty, words.
func appendEntity(lines []string, s bsf.Span) []string {
	words := strings.Split(s.Token, " ")
	if len(words) == 1 {
		return append(lines, s.Token+" "+Single+s.Tag)
	}
	last := len(words) - 1
	for i, w := range words {
		prefix := Inside
		switch i {
		case 0:
			prefix = Begin
		case last:
			prefix = End
		}
		lines = append(lines, w+" "+prefix+s.Tag)
	}
	return lines
}

// slice mirrors sequence slicing: bounds are clamped and an inverted range
// is empty.
func slice(data []rune, lo, hi int) string {
	lo = max(0, min(lo, len(data)))
	hi = max(0, min(hi, len(data)))
	if hi <= lo {
		return ""
	}
	return string(data[lo:hi])
}
