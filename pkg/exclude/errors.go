package exclude

import (
	"fmt"

	"github.com/woozymasta/pathrules"
)

// ErrInvalidPattern indicates a malformed exclusion pattern. It is the rules
// engine's sentinel, so errors from either layer match it.
var ErrInvalidPattern = pathrules.ErrInvalidPattern

// PatternError reports the pattern that failed to compile.
type PatternError struct {
	Index   int    // Position of the pattern in the input list
	Pattern string // Pattern text as given
	Err     error  // Underlying cause
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("exclusion pattern #%d %q: %v", e.Index, e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrInvalidPattern) hold for every PatternError.
func (e *PatternError) Is(target error) bool { return target == ErrInvalidPattern }
