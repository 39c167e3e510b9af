package harmonize

import (
	"context"
	"strings"

	"github.com/bridgeql/bridgeql/pkg/core"
	"github.com/bridgeql/bridgeql/pkg/scan"
)

// maxUnionBranches bounds how many top-level UNION branches one alignment
// rewrite will touch. Beyond it the query passes through untouched.
const maxUnionBranches = 8

// SchemaProbe learns the projected column names of a subquery without
// materializing rows. A failed probe declines the rewrite, it never fails
// the query.
type SchemaProbe func(ctx context.Context, subquery string) ([]string, error)

// UnionPass aligns the column types of top-level UNION/UNION ALL branches.
// Each branch is probed for its projected columns; when all branch counts
// match, every branch is rewritten to SELECT tolerant-cast columns FROM
// (branch), with the left-most branch's names as the unified schema. On any
// probe failure or count mismatch the query is returned unchanged.
func UnionPass(ctx context.Context, text string, probe SchemaProbe) core.RewriteResult {
	branches, joiners, tail, ok := splitUnionBranches(text)
	if !ok || len(branches) < 2 || len(branches) > maxUnionBranches {
		return core.Unchanged(text)
	}

	// Already-aligned branches are wrapped subselects from a previous pass;
	// re-wrapping would nest indefinitely.
	for _, b := range branches {
		if isAlignedBranch(b) {
			return core.Unchanged(text)
		}
	}

	names := make([][]string, len(branches))
	for i, b := range branches {
		cols, err := probe(ctx, strings.TrimSpace(b))
		if err != nil || len(cols) == 0 {
			return core.Unchanged(text)
		}
		names[i] = cols
	}
	want := len(names[0])
	for _, cols := range names[1:] {
		if len(cols) != want {
			return core.Unchanged(text)
		}
	}

	var b strings.Builder
	for i, branchSQL := range branches {
		if i > 0 {
			b.WriteString(" " + joiners[i-1] + " ")
		}
		b.WriteString(alignBranch(strings.TrimSpace(branchSQL), names[i], names[0], i))
	}
	if tail != "" {
		b.WriteString(" " + tail)
	}
	return core.RewriteResult{Text: b.String(), Changed: true}
}

// alignBranch wraps one branch so its columns carry the unified names and a
// tolerant string type.
func alignBranch(branchSQL string, own, unified []string, idx int) string {
	cols := make([]string, len(own))
	for i, col := range own {
		cols[i] = CastString(quoteIfNeeded(col)) + " AS " + quoteIfNeeded(unified[i])
	}
	alias := "u" + string(byte('0'+idx))
	return "SELECT " + strings.Join(cols, ", ") + " FROM (" + branchSQL + ") AS " + alias
}

func quoteIfNeeded(name string) string {
	for i := 0; i < len(name); i++ {
		if !scan.IsIdentByte(name[i]) {
			return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
		}
	}
	return name
}

// isAlignedBranch recognizes a branch produced by alignBranch.
func isAlignedBranch(branchSQL string) bool {
	s := strings.TrimSpace(branchSQL)
	if !scan.KeywordAt(s, 0, "SELECT") {
		return false
	}
	rest := strings.TrimSpace(s[len("SELECT"):])
	return scan.KeywordAt(rest, 0, "CAST") || scan.KeywordAt(rest, 0, "TRY_CAST")
}

// splitUnionBranches splits the query on top-level UNION/UNION ALL and peels
// a trailing ORDER BY/LIMIT/OFFSET section off the last branch, since that
// section belongs to the union as a whole.
func splitUnionBranches(text string) (branches, joiners []string, tail string, ok bool) {
	from := 0
	start := 0
	for {
		pos := scan.IndexTopLevelKeyword(text, "UNION", from)
		if pos < 0 {
			break
		}
		joiner := "UNION"
		after := pos + len("UNION")
		j := after
		for j < len(text) && (text[j] == ' ' || text[j] == '\t' || text[j] == '\n') {
			j++
		}
		if scan.KeywordAt(text, j, "ALL") {
			joiner = "UNION ALL"
			after = j + len("ALL")
		}
		branches = append(branches, text[start:pos])
		joiners = append(joiners, joiner)
		start = after
		from = after
	}
	if len(branches) == 0 {
		return nil, nil, "", false
	}
	last := text[start:]
	for _, kw := range []string{"ORDER", "LIMIT", "OFFSET"} {
		if p := scan.IndexTopLevelKeyword(last, kw, 0); p >= 0 {
			tail = strings.TrimSpace(last[p:])
			last = last[:p]
			break
		}
	}
	branches = append(branches, last)
	return branches, joiners, tail, true
}
