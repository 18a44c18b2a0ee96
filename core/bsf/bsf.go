// Package bsf parses entity annotations in Brat Standoff Format.
//
// An entry looks like
//
//	T9	PERS 778 783	Карла
//
// where the covered text may continue over several physical lines until the
// next entry header. Parsing is permissive: text that does not look like an
// entry is skipped rather than reported.
package bsf

import (
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Span is one annotated entity. Start and End are code point offsets into
// the tokenized text the annotation belongs to.
type Span struct {
	ID    string `json:"id"`
	Tag   string `json:"tag"`
	Start int    `json:"start"`
	End   int    `json:"end"`
	Token string `json:"token"`
}

// Separators are Unicode whitespace including the \x1c-\x1f information
// separators. Offsets may use any decimal digit script.
const (
	ws   = `[\s\v\p{Z}\x{1c}-\x{1f}\x{85}]`
	word = `[\p{L}\p{N}_]+`
	num  = `\p{Nd}+`
)

var (
	// entryHead matches a full entry header including the separator before
	// the covered text.
	entryHead = regexp.MustCompile(`(T` + num + `)` + ws + `(` + word + `)` + ws + `(` + num + `)` + ws + `(` + num + `)` + ws)

	// boundary marks where the covered text of the preceding entry stops.
	boundary = regexp.MustCompile(`T` + num + ws + word + ws + num + ws + num)
)

// Parse extracts spans from annotation text in their order of appearance.
// Empty or whitespace-only input yields nil.
func Parse(text string) []Span {
	text = strings.TrimFunc(text, IsSpace)
	if text == "" {
		return nil
	}

	var spans []Span
	pos := 0
	for pos < len(text) {
		m := entryHead.FindStringSubmatchIndex(text[pos:])
		if m == nil {
			break
		}
		bodyStart := pos + m[1]
		if bodyStart >= len(text) {
			break
		}

		// The body holds at least one character, so the next header is
		// searched for past it.
		_, size := utf8.DecodeRuneInString(text[bodyStart:])
		bodyEnd := len(text)
		if loc := boundary.FindStringIndex(text[bodyStart+size:]); loc != nil {
			bodyEnd = bodyStart + size + loc[0]
		}

		start, okStart := parseOffset(text[pos+m[6] : pos+m[7]])
		end, okEnd := parseOffset(text[pos+m[8] : pos+m[9]])
		if okStart && okEnd {
			spans = append(spans, Span{
				ID:    text[pos+m[2] : pos+m[3]],
				Tag:   text[pos+m[4] : pos+m[5]],
				Start: start,
				End:   end,
				Token: strings.TrimFunc(text[bodyStart:bodyEnd], IsSpace),
			})
		}
		pos = bodyEnd
	}
	return spans
}

// IsSpace reports whether r separates tokens: Unicode white space plus the
// \x1c-\x1f information separators.
func IsSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= 0x1c && r <= 0x1f)
}

// parseOffset reads a decimal number written in any Nd digit script.
// Overflow reports false.
func parseOffset(s string) (int, bool) {
	n := 0
	for _, r := range s {
		d := digitValue(r)
		if d < 0 || n > (math.MaxInt-d)/10 {
			return 0, false
		}
		n = n*10 + d
	}
	return n, s != ""
}

// digitValue relies on Nd digits being encoded in contiguous runs of ten
// that start at zero.
func digitValue(r rune) int {
	if r >= '0' && r <= '9' {
		return int(r - '0')
	}
	if !unicode.IsDigit(r) {
		return -1
	}
	n := 0
	for unicode.IsDigit(r - rune(n) - 1) {
		n++
	}
	return n % 10
}
