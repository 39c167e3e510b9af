package engine

import (
	"errors"
	"strings"

	"github.com/bridgeql/bridgeql/pkg/core"
)

// patternMismatchMarkers identify a type error on a pattern-match operator.
// The canonical engine spells LIKE as the ~~ function in binder errors.
var patternMismatchMarkers = []string{
	"~~", "like(", "ilike(", " like ", " ilike ",
}

// conversionMarkers identify a general type-conversion failure. "cast" only
// counts as a word or call, so messages merely containing it (broadcast,
// forecast) stay unrecoverable.
var conversionMarkers = []string{
	"conversion error", "could not convert", "cannot be cast",
	"cannot cast", "invalid input syntax", " cast ", "cast(", "type mismatch",
}

// binderMarkers indicate the engine rejected an expression over operand
// types rather than syntax.
var binderMarkers = []string{
	"binder error", "no function matches",
}

// Classify maps an execution failure onto the repair taxonomy. A pattern
// operator named in a binder/type complaint classifies as a pattern-operator
// mismatch; other conversion complaints classify as type-conversion errors;
// everything else is unrecoverable.
func Classify(err error) *core.EngineError {
	if err == nil {
		return nil
	}
	var ee *core.EngineError
	if errors.As(err, &ee) {
		return ee
	}
	msg := err.Error()
	lower := strings.ToLower(msg)

	typeComplaint := containsAny(lower, binderMarkers) || containsAny(lower, conversionMarkers)
	if typeComplaint && containsAny(lower, patternMismatchMarkers) {
		return &core.EngineError{
			Kind:     core.ErrPatternOperator,
			Message:  msg,
			Fragment: extractFragment(msg),
		}
	}
	if containsAny(lower, conversionMarkers) {
		return &core.EngineError{
			Kind:     core.ErrTypeConversion,
			Message:  msg,
			Fragment: extractFragment(msg),
		}
	}
	return &core.EngineError{Kind: core.ErrOther, Message: msg}
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// extractFragment pulls the first quoted fragment out of an engine message,
// e.g. the operand list from a binder error.
func extractFragment(msg string) string {
	start := strings.IndexByte(msg, '\'')
	if start < 0 {
		return ""
	}
	end := strings.IndexByte(msg[start+1:], '\'')
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}
