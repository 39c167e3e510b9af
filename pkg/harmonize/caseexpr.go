package harmonize

import (
	"strings"

	"github.com/bridgeql/bridgeql/pkg/core"
	"github.com/bridgeql/bridgeql/pkg/scan"
)

// maxCasePasses bounds the convergence loop over nested CASE blocks. The
// value is a termination invariant, not a tuning knob: each pass can only
// stabilize one additional level of nesting, and query text deeper than this
// is left as-is rather than risking oscillation.
const maxCasePasses = 5

// CasePass harmonizes mixed-type CASE branches: within each CASE..END block,
// if any THEN/ELSE result at the block's own depth is a string literal, every
// sibling result that is neither a literal nor already cast is wrapped in the
// tolerant string cast. Nested blocks stabilize over a small fixed number of
// passes.
func CasePass(text string) core.RewriteResult {
	changed := false
	for pass := 0; pass < maxCasePasses; pass++ {
		next, ch := caseSinglePass(text)
		text = next
		if !ch {
			break
		}
		changed = true
	}
	return core.RewriteResult{Text: text, Changed: changed}
}

func caseSinglePass(text string) (string, bool) {
	changed := false
	from := 0
	for {
		pos := scan.IndexKeyword(text, "CASE", from)
		if pos < 0 {
			return text, changed
		}
		end, ok := scan.FindBlockEnd(text, "CASE", "END", pos+len("CASE"))
		if !ok {
			return text, changed
		}
		next, ch := harmonizeCaseBlock(text, pos, end)
		if ch {
			changed = true
			text = next
			// The block length changed; rescan it once more is unnecessary
			// within this pass, continue after it.
			from = pos + 1
			continue
		}
		from = pos + len("CASE")
	}
}

// branch is one THEN/ELSE result expression inside a CASE block.
type branch struct {
	start, end int
}

// harmonizeCaseBlock rewrites the results of the CASE block spanning
// text[blockStart:blockEnd]. Only branches at the block's own depth count;
// nested CASE blocks are opaque here and handled by their own iteration.
func harmonizeCaseBlock(text string, blockStart, blockEnd int) (string, bool) {
	inner := text[blockStart+len("CASE") : blockEnd-len("END")]
	branches := collectBranches(inner)
	if len(branches) == 0 {
		return text, false
	}

	hasStringBranch := false
	for _, b := range branches {
		if isStringLiteral(inner[b.start:b.end]) {
			hasStringBranch = true
			break
		}
	}
	if !hasStringBranch {
		return text, false
	}

	changed := false
	// Rewrite right to left so earlier offsets stay valid.
	out := inner
	for i := len(branches) - 1; i >= 0; i-- {
		b := branches[i]
		expr := strings.TrimSpace(out[b.start:b.end])
		if expr == "" || isStringLiteral(expr) || IsCastWrapped(expr) || strings.EqualFold(expr, "NULL") {
			continue
		}
		out = out[:b.start] + " " + CastString(expr) + " " + out[b.end:]
		changed = true
	}
	if !changed {
		return text, false
	}
	return text[:blockStart] + "CASE" + out + "END" + text[blockEnd:], true
}

// collectBranches finds the extents of every THEN/ELSE result at depth zero
// of the block interior, skipping nested CASE blocks and parentheses.
func collectBranches(inner string) []branch {
	var out []branch
	i := 0
	for i < len(inner) {
		c := inner[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			i = scan.SkipString(inner, i)
		case c == '(':
			i = scan.SkipGroup(inner, i)
		case scan.KeywordAt(inner, i, "CASE"):
			end, ok := scan.FindBlockEnd(inner, "CASE", "END", i+len("CASE"))
			if !ok {
				return out
			}
			i = end
		case scan.KeywordAt(inner, i, "THEN") || scan.KeywordAt(inner, i, "ELSE"):
			kwLen := 4
			start := i + kwLen
			end := branchEnd(inner, start)
			out = append(out, branch{start: start, end: end})
			i = end
		default:
			i++
		}
	}
	return out
}

// branchEnd finds where a THEN/ELSE result expression stops: the next WHEN,
// ELSE, or end of the block interior at depth zero, with nested CASE blocks
// skipped whole.
func branchEnd(inner string, start int) int {
	i := start
	for i < len(inner) {
		c := inner[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			i = scan.SkipString(inner, i)
		case c == '(':
			i = scan.SkipGroup(inner, i)
		case scan.KeywordAt(inner, i, "CASE"):
			end, ok := scan.FindBlockEnd(inner, "CASE", "END", i+len("CASE"))
			if !ok {
				return len(inner)
			}
			i = end
		case scan.KeywordAt(inner, i, "WHEN") || scan.KeywordAt(inner, i, "ELSE"):
			return i
		default:
			i++
		}
	}
	return len(inner)
}
