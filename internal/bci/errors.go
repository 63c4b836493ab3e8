package bci

import (
	"fmt"
	"strings"
)

// Reasons attached to a FieldError.
const (
	ReasonMissing    = "missing"
	ReasonNotANumber = "not_a_number"
	ReasonOutOfRange = "out_of_range"
)

// FieldError identifies one invalid weight key.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Message renders a human-readable description of the problem.
func (f FieldError) Message() string {
	switch f.Reason {
	case ReasonMissing:
		return fmt.Sprintf("missing weight key: %s", f.Field)
	case ReasonNotANumber:
		return fmt.Sprintf("invalid value for %s: must be a number", f.Field)
	case ReasonOutOfRange:
		return fmt.Sprintf("invalid value for %s: must be a number %g-%g", f.Field, MinWeight, MaxWeight)
	default:
		return fmt.Sprintf("invalid value for %s", f.Field)
	}
}

// ValidationError is returned when a weight set is rejected. Fields lists
// every offending key.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Message())
	}
	return strings.Join(msgs, "; ")
}
