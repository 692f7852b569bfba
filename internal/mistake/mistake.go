// Package mistake defines the typed mistake records appended to a
// learner's per-concept history. Classification happens once, upstream in
// the step checker; this engine only stores and reports the closed enum.
package mistake

import "time"

// ErrorType classifies a single mistaken transformation step.
type ErrorType string

const (
	TypeArithmetic ErrorType = "arithmetic"
	TypeAlgebraic  ErrorType = "algebraic"
	TypeNotation   ErrorType = "notation"
	TypeConceptual ErrorType = "conceptual"
	TypeUnknown    ErrorType = "unknown"
)

// AllErrorTypes returns every error type in display order.
func AllErrorTypes() []ErrorType {
	return []ErrorType{
		TypeArithmetic,
		TypeAlgebraic,
		TypeNotation,
		TypeConceptual,
		TypeUnknown,
	}
}

// ParseErrorType maps a wire string onto the closed enum. Anything
// unrecognized becomes TypeUnknown; the boundary never rejects a
// submission over an unclassifiable mistake tag.
func ParseErrorType(s string) ErrorType {
	switch ErrorType(s) {
	case TypeArithmetic, TypeAlgebraic, TypeNotation, TypeConceptual:
		return ErrorType(s)
	default:
		return TypeUnknown
	}
}

// Valid reports whether t is a member of the closed enum.
func (t ErrorType) Valid() bool {
	switch t {
	case TypeArithmetic, TypeAlgebraic, TypeNotation, TypeConceptual, TypeUnknown:
		return true
	}
	return false
}

// Record is one mistake made while working a problem. Records are
// append-only: once stored they are never mutated.
type Record struct {
	StepNumber int       `json:"step_number"`
	ErrorType  ErrorType `json:"error_type"`
	Message    string    `json:"message,omitempty"`
	FromExpr   string    `json:"from_expr,omitempty"`
	ToExpr     string    `json:"to_expr,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
