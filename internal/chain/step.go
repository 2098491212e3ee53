package chain

import (
	"fmt"
	"strings"
)

// Outcome records whether a hop changed the text.
type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeFailed
)

func (o Outcome) String() string {
	if o == OutcomeFailed {
		return "failed"
	}
	return "success"
}

const failedSuffix = " - failed"

// Step is one hop of the chain.
type Step struct {
	Target  string
	Name    string
	Outcome Outcome
}

// String renders the step as "code(name)", with a " - failed" suffix for no-op hops.
func (s Step) String() string {
	out := fmt.Sprintf("%s(%s)", s.Target, s.Name)
	if s.Outcome == OutcomeFailed {
		out += failedSuffix
	}
	return out
}

// ParseStep is the inverse of Step.String.
func ParseStep(entry string) (Step, error) {
	s := strings.TrimSpace(entry)
	outcome := OutcomeSuccess
	if strings.HasSuffix(s, failedSuffix) {
		outcome = OutcomeFailed
		s = strings.TrimSpace(strings.TrimSuffix(s, failedSuffix))
	}
	open := strings.Index(s, "(")
	if open <= 0 || !strings.HasSuffix(s, ")") {
		return Step{}, fmt.Errorf("malformed path entry %q", entry)
	}
	return Step{
		Target:  strings.ToLower(s[:open]),
		Name:    s[open+1 : len(s)-1],
		Outcome: outcome,
	}, nil
}

// FormatPath renders steps as path entries.
func FormatPath(steps []Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.String()
	}
	return out
}

// ParsePath parses every entry of a stored path.
func ParsePath(entries []string) ([]Step, error) {
	steps := make([]Step, 0, len(entries))
	for i, entry := range entries {
		s, err := ParseStep(entry)
		if err != nil {
			return nil, fmt.Errorf("path entry %d: %w", i, err)
		}
		steps = append(steps, s)
	}
	return steps, nil
}
