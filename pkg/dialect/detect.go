package dialect

import (
	"github.com/bridgeql/bridgeql/pkg/core"
	"github.com/bridgeql/bridgeql/pkg/scan"
)

// Detect guesses the source dialect of a query from its syntactic markers.
// It is a convenience for callers that did not tag the query; the guess is a
// scored heuristic, not an oracle, and ties fall back to the canonical
// dialect.
func Detect(sql string) core.SourceDialect {
	scores := map[core.SourceDialect]int{}

	// Quoting style is the strongest signal.
	for i := 0; i < len(sql); i++ {
		switch sql[i] {
		case '\'', '"':
			i = scan.SkipString(sql, i) - 1
		case '`':
			scores[core.DialectMySQL] += 3
			i = scan.SkipString(sql, i) - 1
		case '[':
			scores[core.DialectSQLServer] += 3
			for i < len(sql) && sql[i] != ']' {
				i++
			}
		case ':':
			if i+1 < len(sql) && sql[i+1] == ':' {
				scores[core.DialectPostgres] += 2
				i++
			}
		}
	}

	markers := map[core.SourceDialect][]string{
		core.DialectMySQL:     {"IFNULL", "CURDATE", "DATE_FORMAT", "LOCATE"},
		core.DialectSQLServer: {"GETDATE", "ISNULL", "IIF", "CHARINDEX", "TOP"},
		core.DialectPostgres:  {"ILIKE", "TO_DATE"},
		core.DialectSQLite:    {"TOTAL"},
	}
	for d, kws := range markers {
		for _, kw := range kws {
			if scan.IndexKeyword(sql, kw, 0) >= 0 {
				scores[d] += 2
			}
		}
	}

	best := core.DialectDuckDB
	bestScore := 0
	for _, d := range core.KnownDialects() {
		if s := scores[d]; s > bestScore {
			best, bestScore = d, s
		}
	}
	return best
}
