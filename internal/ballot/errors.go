package ballot

import (
	"fmt"
	"strings"
)

// ValidationError lists every problem found in a ballot file.
// Nothing is tallied when parsing returns one.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid ballots: " + e.Problems[0]
	}
	return fmt.Sprintf("invalid ballots (%d problems): %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

// problems collects validation messages while parsing
type problems []string

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	return &ValidationError{Problems: p}
}
