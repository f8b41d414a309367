package tally

import (
	"fmt"
	"strings"
)

// InvariantError reports a defect inside the engine. A tally that fails with
// an InvariantError produces no ranking at all.
type InvariantError struct {
	Op         string   // Stage that detected the violation
	Detail     string   // What was expected
	Candidates []string // Candidates involved
	Majorities []string // Pairings involved, as "winner > loser (strength)"
}

func (e *InvariantError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "internal error in %s: %s", e.Op, e.Detail)
	if len(e.Candidates) > 0 {
		fmt.Fprintf(&b, "; candidates: %s", strings.Join(e.Candidates, ", "))
	}
	if len(e.Majorities) > 0 {
		fmt.Fprintf(&b, "; pairings: %s", strings.Join(e.Majorities, ", "))
	}
	return b.String()
}

// invariantf builds an InvariantError with context taken from the state
func (s *state) invariantf(op string, candidates []int, majorities []majority, format string, args ...any) *InvariantError {
	err := &InvariantError{
		Op:     op,
		Detail: fmt.Sprintf(format, args...),
	}
	for _, c := range candidates {
		err.Candidates = append(err.Candidates, s.candidates[c].name)
	}
	for _, m := range majorities {
		err.Majorities = append(err.Majorities, s.describe(m))
	}
	return err
}
