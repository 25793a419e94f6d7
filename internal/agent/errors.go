package agent

import (
	"errors"
	"fmt"
)

// ErrQueryTooLong reports an input-contract violation: the question exceeds
// the configured maximum length. It is returned to the caller directly,
// never converted into a refusal answer.
var ErrQueryTooLong = errors.New("query exceeds maximum length")

// SynthesisError reports that synthesis could not produce a valid response
// within the attempt budget. The orchestrator recovers it into a fallback
// answer; it never reaches the caller.
type SynthesisError struct {
	Attempts int
	Err      error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }
