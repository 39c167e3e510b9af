// Package core defines the shared value objects for the bridgeql rewrite
// pipeline: queries, column profiles, rewrite results, and execution outcomes.
//
// Everything here is a plain value owned by the call that created it. The
// rewrite passes never mutate a Query in place; they return a superseding one.
package core

// SourceDialect identifies the SQL dialect a query was written in.
type SourceDialect string

const (
	DialectMySQL     SourceDialect = "mysql"
	DialectPostgres  SourceDialect = "postgres"
	DialectSQLServer SourceDialect = "sqlserver"
	DialectSQLite    SourceDialect = "sqlite"

	// DialectDuckDB is the canonical dialect: what the execution engine
	// accepts and what every rewrite targets.
	DialectDuckDB SourceDialect = "duckdb"
)

// KnownDialects lists the dialects a Query may be tagged with.
func KnownDialects() []SourceDialect {
	return []SourceDialect{DialectMySQL, DialectPostgres, DialectSQLServer, DialectSQLite, DialectDuckDB}
}

// Query is an immutable query text plus its source dialect tag.
type Query struct {
	Text    string
	Dialect SourceDialect
}

// NewQuery creates a Query for the given text and dialect.
func NewQuery(text string, dialect SourceDialect) Query {
	return Query{Text: text, Dialect: dialect}
}

// WithText returns a new Query carrying the rewritten text. The receiver is
// left untouched; rewritten queries supersede, they never mutate.
func (q Query) WithText(text string) Query {
	return Query{Text: text, Dialect: q.Dialect}
}

// RewriteResult is the outcome of one rewrite pass over a query text.
// Re-applying the pass that produced it to its own Text is a no-op.
type RewriteResult struct {
	Text    string
	Changed bool
	Notes   []string
}

// Unchanged wraps text in a RewriteResult that reports no modification.
func Unchanged(text string) RewriteResult {
	return RewriteResult{Text: text}
}

// Note appends a human-readable remark and returns the updated result.
func (r RewriteResult) Note(msg string) RewriteResult {
	r.Notes = append(r.Notes, msg)
	return r
}

// ValidationResult reports structural validation of a query without
// executing it.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}
