package bsf

import (
	"fmt"

	"github.com/FocuswithJustin/bsfbeios/core/errors"
)

// Validate checks that spans are well formed, in bounds for a text of
// textLen code points, and ordered without overlap. The encoder does not
// call it; callers that need robustness run it first.
func Validate(spans []Span, textLen int) error {
	prevEnd := 0
	for _, s := range spans {
		switch {
		case s.Start < 0 || s.End > textLen:
			return errors.NewValidation(s.ID, fmt.Sprintf("offsets %d..%d outside text of length %d", s.Start, s.End, textLen))
		case s.Start >= s.End:
			return errors.NewValidation(s.ID, fmt.Sprintf("start %d is not before end %d", s.Start, s.End))
		case s.Start < prevEnd:
			return errors.NewValidation(s.ID, fmt.Sprintf("start %d precedes previous end %d", s.Start, prevEnd))
		}
		prevEnd = s.End
	}
	return nil
}
