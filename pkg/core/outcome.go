package core

import "time"

// ExecutionOutcome is the final result of one process call: either a row set
// summary or a classified failure, plus any rewrite notes accumulated on the
// way. It is per-call and never persisted.
type ExecutionOutcome struct {
	// ID is a unique identifier for this execution, for log correlation.
	ID string

	OK          bool
	Columns     []string
	Rows        [][]any
	RowCount    int
	ColumnCount int
	Elapsed     time.Duration

	// FinalSQL is the canonical-dialect text that was ultimately executed
	// (or last attempted).
	FinalSQL string

	// Err is set when OK is false.
	Err *EngineError

	// Notes collects remarks from rewrite passes, e.g. the ambiguous-date
	// assumption flag.
	Notes []string

	// Retried reports whether the single escalated repair pass ran.
	Retried bool
}
