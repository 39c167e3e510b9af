package core

import "fmt"

// ErrorKind classifies an execution failure for the retry policy.
type ErrorKind int

const (
	// ErrOther covers everything the repair passes cannot help with,
	// including a second failure after a retry.
	ErrOther ErrorKind = iota

	// ErrStructural means the query text itself is malformed (unbalanced
	// quotes or parentheses). Surfaced immediately, never auto-repaired.
	ErrStructural

	// ErrPatternOperator is a type mismatch on a pattern-match operator
	// (LIKE/ILIKE). Eligible for one exact tokenized repair pass.
	ErrPatternOperator

	// ErrTypeConversion is a general type-conversion failure. Eligible for
	// one expression-harmonization repair pass.
	ErrTypeConversion
)

// String returns the kind's name.
func (k ErrorKind) String() string {
	switch k {
	case ErrStructural:
		return "structural"
	case ErrPatternOperator:
		return "pattern-operator"
	case ErrTypeConversion:
		return "type-conversion"
	default:
		return "other"
	}
}

// Recoverable reports whether the kind may trigger an escalated retry.
func (k ErrorKind) Recoverable() bool {
	return k == ErrPatternOperator || k == ErrTypeConversion
}

// EngineError is a classified execution failure.
type EngineError struct {
	Kind     ErrorKind
	Message  string
	Fragment string // offending query fragment, when the engine reports one
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Fragment != "" {
		return fmt.Sprintf("%s error: %s (near %q)", e.Kind, e.Message, e.Fragment)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

// Hint returns a short actionable suggestion for unrecoverable failures.
func (e *EngineError) Hint() string {
	switch e.Kind {
	case ErrPatternOperator:
		return "wrap the non-literal side of the pattern comparison in an explicit CAST(... AS VARCHAR)"
	case ErrTypeConversion:
		return "add an explicit TRY_CAST to the mismatched expression"
	case ErrStructural:
		return "check for unbalanced quotes or parentheses"
	default:
		return ""
	}
}
