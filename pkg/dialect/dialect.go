// Package dialect rewrites dialect-specific SQL functions and operators into
// their canonical-engine equivalents.
//
// Translation is a pure, table-driven text transform. Each source dialect has
// an ordered rule list; every rule matches function-call syntax only
// ("name(" with word boundaries, outside string literals), so string
// contents are never rewritten. Translation never executes anything.
package dialect

import (
	"github.com/bridgeql/bridgeql/pkg/core"
)

// ruleKind selects how a rule rewrites its match.
type ruleKind int

const (
	// kindRename replaces the function name, keeping the argument list.
	kindRename ruleKind = iota
	// kindTernary rewrites fn(cond, a, b) into CASE WHEN cond THEN a ELSE b END.
	kindTernary
	// kindConvert rewrites fn(type, expr[, style]) into to(expr AS type).
	kindConvert
	// kindBareRename replaces a zero-argument call like GETDATE() with a
	// bare canonical expression.
	kindBareRename
	// kindDateParse rewrites fn(expr, 'template') into to(expr, 'template')
	// with the template tokens (YYYY, MM, DD, ...) converted to strptime
	// specifiers. Calls whose template is not a string literal are left
	// untouched.
	kindDateParse
)

// rule is one ordered (pattern, replacement) entry in a dialect table.
type rule struct {
	kind ruleKind
	from string // function name, matched case-insensitively
	to   string // replacement name or expression
}

// tables holds the per-dialect rule tables, applied in order.
var tables = map[core.SourceDialect][]rule{
	core.DialectMySQL: {
		{kind: kindRename, from: "IFNULL", to: "COALESCE"},
		{kind: kindRename, from: "NVL", to: "COALESCE"},
		{kind: kindTernary, from: "IF"},
		{kind: kindBareRename, from: "CURDATE", to: "current_date"},
		{kind: kindBareRename, from: "CURTIME", to: "current_time"},
		{kind: kindBareRename, from: "UTC_TIMESTAMP", to: "now()"},
		{kind: kindRename, from: "DATE_FORMAT", to: "strftime"},
		{kind: kindRename, from: "LOCATE", to: "instr"},
		{kind: kindRename, from: "RAND", to: "random"},
	},
	core.DialectSQLServer: {
		{kind: kindRename, from: "ISNULL", to: "COALESCE"},
		{kind: kindTernary, from: "IIF"},
		{kind: kindBareRename, from: "GETDATE", to: "now()"},
		{kind: kindBareRename, from: "SYSDATETIME", to: "now()"},
		{kind: kindBareRename, from: "GETUTCDATE", to: "now()"},
		{kind: kindRename, from: "LEN", to: "LENGTH"},
		{kind: kindConvert, from: "CONVERT", to: "CAST"},
		{kind: kindConvert, from: "TRY_CONVERT", to: "TRY_CAST"},
		{kind: kindRename, from: "CHARINDEX", to: "instr"},
	},
	core.DialectSQLite: {
		{kind: kindRename, from: "IFNULL", to: "COALESCE"},
		{kind: kindTernary, from: "IIF"},
		{kind: kindRename, from: "TOTAL", to: "SUM"},
	},
	core.DialectPostgres: {
		// Postgres is close to canonical already; only non-portable
		// conveniences need renaming.
		{kind: kindDateParse, from: "TO_DATE", to: "strptime"},
		{kind: kindDateParse, from: "TO_TIMESTAMP", to: "strptime"},
		{kind: kindRename, from: "NVL", to: "COALESCE"},
	},
	core.DialectDuckDB: nil, // already canonical
}

// Translate rewrites a query from its tagged source dialect into the
// canonical dialect. Unknown dialects translate as canonical (no rules).
// The transform is idempotent: translating its own output changes nothing.
func Translate(q core.Query) core.RewriteResult {
	text := q.Text
	changed := false
	for _, r := range tables[q.Dialect] {
		next, ch := r.apply(text)
		if ch {
			text = next
			changed = true
		}
	}
	return core.RewriteResult{Text: text, Changed: changed}
}
