package harmonize

import (
	"strings"

	"github.com/bridgeql/bridgeql/pkg/core"
	"github.com/bridgeql/bridgeql/pkg/scan"
)

// ProfileLookup resolves a column reference to its profile. The column may be
// qualified; implementations match on the final path element.
type ProfileLookup func(column string) (core.ColumnProfile, bool)

// patternOps are the pattern-match operators, longest first so ILIKE is not
// shadowed by LIKE.
var patternOps = []string{"ILIKE", "LIKE"}

// PatternPassFast is the fast syntactic pass over pattern comparisons. It
// only rewrites the generic shapes it can recognize without operand
// scanning: a bare (possibly qualified) identifier or a single function call
// directly against a string literal. Anything else is left for the exact
// pass.
func PatternPassFast(text string) core.RewriteResult {
	return patternPass(text, false)
}

// PatternPassExact is the deterministic repair pass, run after a classified
// pattern-operator type error. It walks every pattern operator left to right
// and uses full operand scanning to wrap the non-literal side (or both sides)
// in the tolerant string cast. Running it on its own output changes nothing,
// which is what makes the single escalated retry safe.
func PatternPassExact(text string) core.RewriteResult {
	return patternPass(text, true)
}

func patternPass(text string, exact bool) core.RewriteResult {
	changed := false
	for _, op := range patternOps {
		from := 0
		for {
			pos := scan.IndexKeyword(text, op, from)
			if pos < 0 {
				break
			}
			// ILIKE has already been handled when scanning for LIKE would
			// land inside it; IndexKeyword's word boundaries exclude that.
			next, resume, ch := rewritePatternAt(text, pos, op, exact)
			text = next
			from = resume
			changed = changed || ch
		}
	}
	res := core.RewriteResult{Text: text, Changed: changed}
	return res
}

// rewritePatternAt rewrites one pattern comparison whose operator starts at
// pos. It returns the new text and the position scanning should resume from.
func rewritePatternAt(text string, pos int, op string, exact bool) (string, int, bool) {
	// A preceding NOT binds to the operator, not the operand.
	leftEdge := pos
	j := pos
	for j > 0 && (text[j-1] == ' ' || text[j-1] == '\t' || text[j-1] == '\n') {
		j--
	}
	if j >= 3 && scan.KeywordAt(text, j-3, "NOT") {
		leftEdge = j - 3
	}

	lStart := scan.LeftOperandStart(text, leftEdge)
	rEnd := scan.RightOperandEnd(text, pos+len(op))

	left := strings.TrimSpace(text[lStart:leftEdge])
	right := strings.TrimSpace(text[pos+len(op) : rEnd])
	if left == "" || right == "" {
		return text, pos + len(op), false
	}

	leftLit := isStringLiteral(left)
	rightLit := isStringLiteral(right)

	wrapLeft := !leftLit && !IsCastWrapped(left)
	wrapRight := !rightLit && !IsCastWrapped(right)
	if leftLit && rightLit {
		return text, pos + len(op), false
	}
	// When one side is the literal, only the other side needs the cast.
	if leftLit {
		wrapLeft = false
	}
	if rightLit {
		wrapRight = false
	}
	if !exact {
		// The fast pass only trusts simple shapes.
		if wrapLeft && !isSimpleShape(left) {
			wrapLeft = false
		}
		if wrapRight && !isSimpleShape(right) {
			wrapRight = false
		}
	}
	if !wrapLeft && !wrapRight {
		return text, pos + len(op), false
	}

	newLeft := left
	if wrapLeft {
		newLeft = CastString(left)
	}
	newRight := right
	if wrapRight {
		newRight = CastString(right)
	}

	mid := text[leftEdge:pos] + op + " "
	rebuilt := text[:lStart] + newLeft + " " + mid
	if leftEdge == pos {
		rebuilt = text[:lStart] + newLeft + " " + op + " "
	}
	resume := len(rebuilt)
	rebuilt += newRight + text[rEnd:]
	return rebuilt, resume, true
}

// isSimpleShape reports whether the expression is a bare (qualified)
// identifier or a single function call, the only shapes the fast pass
// rewrites.
func isSimpleShape(expr string) bool {
	s := strings.TrimSpace(expr)
	if s == "" {
		return false
	}
	i := 0
	for i < len(s) && (scan.IsIdentByte(s[i]) || s[i] == '.') {
		i++
	}
	if i == 0 {
		return false
	}
	if i == len(s) {
		return true
	}
	// Single call: name directly followed by one balanced group.
	return s[i] == '(' && scan.SkipGroup(s, i) == len(s)
}

// comparisonOps in scan order; two-byte operators first so '>' does not
// shadow '>='.
var comparisonOps = []string{"<>", "!=", ">=", "<=", "=", ">", "<"}

// ComparisonPass rewrites comparisons of profiled-textual columns against
// numeric or date literals: the column side gains a tolerant cast, and date
// literals become parse-then-cast expressions with their resolved format.
// BETWEEN is handled when both bounds are literals of the same family.
func ComparisonPass(text string, lookup ProfileLookup) core.RewriteResult {
	res := core.RewriteResult{Text: text}
	res = betweenPass(res, lookup)
	res = binaryComparisonPass(res, lookup)
	return res
}

func binaryComparisonPass(res core.RewriteResult, lookup ProfileLookup) core.RewriteResult {
	text := res.Text
	i := 0
	for i < len(text) {
		c := text[i]
		if c == '\'' || c == '"' || c == '`' {
			i = scan.SkipString(text, i)
			continue
		}
		op := comparisonOpAt(text, i)
		if op == "" {
			i++
			continue
		}
		// Exclude pieces of other operators (::, =>, <=>).
		if c == '=' && i > 0 && (text[i-1] == '<' || text[i-1] == '>' || text[i-1] == '!') {
			i++
			continue
		}

		lStart := scan.LeftOperandStart(text, i)
		rEnd := scan.RightOperandEnd(text, i+len(op))
		left := strings.TrimSpace(text[lStart:i])
		right := strings.TrimSpace(text[i+len(op) : rEnd])

		newLeft, newRight, note, ok := harmonizeComparison(left, right, lookup)
		if !ok {
			i += len(op)
			continue
		}
		rebuilt := text[:lStart] + newLeft + " " + op + " " + newRight
		i = len(rebuilt)
		text = rebuilt + text[rEnd:]
		res.Changed = true
		if note != "" {
			res.Notes = append(res.Notes, note)
		}
	}
	res.Text = text
	return res
}

// comparisonOpAt returns the comparison operator starting at text[i], or "".
func comparisonOpAt(text string, i int) string {
	for _, op := range comparisonOps {
		if strings.HasPrefix(text[i:], op) {
			return op
		}
	}
	return ""
}

// harmonizeComparison decides how to rewrite one comparison. Exactly one
// side must be a bare textual column and the other a numeric or date
// literal; everything else declines.
func harmonizeComparison(left, right string, lookup ProfileLookup) (newLeft, newRight, note string, ok bool) {
	colSide, litSide := left, right
	swapped := false
	if !isColumnRef(colSide) {
		colSide, litSide = right, left
		swapped = true
	}
	if !isColumnRef(colSide) || IsCastWrapped(colSide) {
		return "", "", "", false
	}
	profile, found := lookup(lastPathElement(colSide))
	if !found || profile.Kind != core.KindText {
		return "", "", "", false
	}

	var newCol, newLit string
	switch {
	case isNumericLiteral(litSide):
		newCol = CastNumeric(colSide)
		newLit = litSide
	case isStringLiteral(litSide):
		m, isDate := ResolveDateLiteral(stringLiteralValue(litSide))
		if !isDate {
			return "", "", "", false
		}
		newCol = CastDate(colSide)
		newLit = m.Expr()
		if m.Ambiguous {
			note = "ambiguous date literal " + litSide + ": assuming month/day/year order"
		}
	default:
		return "", "", "", false
	}

	if swapped {
		return newLit, newCol, note, true
	}
	return newCol, newLit, note, true
}

// betweenPass rewrites `col BETWEEN lo AND hi` for textual columns with
// numeric or date bounds. Both bounds must resolve to the same family.
func betweenPass(res core.RewriteResult, lookup ProfileLookup) core.RewriteResult {
	text := res.Text
	from := 0
	for {
		pos := scan.IndexKeyword(text, "BETWEEN", from)
		if pos < 0 {
			break
		}
		lStart := scan.LeftOperandStart(text, pos)
		col := strings.TrimSpace(text[lStart:pos])

		afterOp := pos + len("BETWEEN")
		loEnd := scan.RightOperandEnd(text, afterOp)
		lo := strings.TrimSpace(text[afterOp:loEnd])

		andPos := scan.IndexKeyword(text, "AND", loEnd)
		if andPos < 0 {
			break
		}
		hiEnd := scan.RightOperandEnd(text, andPos+len("AND"))
		hi := strings.TrimSpace(text[andPos+len("AND") : hiEnd])

		newCol, newLo, newHi, note, ok := harmonizeBetween(col, lo, hi, lookup)
		if !ok {
			from = afterOp
			continue
		}
		rebuilt := text[:lStart] + newCol + " BETWEEN " + newLo + " AND " + newHi
		from = len(rebuilt)
		text = rebuilt + text[hiEnd:]
		res.Changed = true
		if note != "" {
			res.Notes = append(res.Notes, note)
		}
	}
	res.Text = text
	return res
}

func harmonizeBetween(col, lo, hi string, lookup ProfileLookup) (newCol, newLo, newHi, note string, ok bool) {
	if !isColumnRef(col) || IsCastWrapped(col) {
		return "", "", "", "", false
	}
	profile, found := lookup(lastPathElement(col))
	if !found || profile.Kind != core.KindText {
		return "", "", "", "", false
	}

	if isNumericLiteral(lo) && isNumericLiteral(hi) {
		return CastNumeric(col), lo, hi, "", true
	}
	if isStringLiteral(lo) && isStringLiteral(hi) {
		mLo, okLo := ResolveDateLiteral(stringLiteralValue(lo))
		mHi, okHi := ResolveDateLiteral(stringLiteralValue(hi))
		if okLo && okHi {
			if mLo.Ambiguous || mHi.Ambiguous {
				note = "ambiguous date literal in BETWEEN: assuming month/day/year order"
			}
			return CastDate(col), mLo.Expr(), mHi.Expr(), note, true
		}
	}
	return "", "", "", "", false
}

// isColumnRef reports whether the expression is a bare, possibly qualified,
// possibly quoted column reference.
func isColumnRef(expr string) bool {
	s := strings.TrimSpace(expr)
	if s == "" {
		return false
	}
	if s[0] == '"' {
		return scan.SkipString(s, 0) == len(s)
	}
	if s[0] >= '0' && s[0] <= '9' {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !scan.IsIdentByte(s[i]) && s[i] != '.' {
			return false
		}
	}
	// A lone keyword (NULL, TRUE) is not a column.
	switch strings.ToUpper(s) {
	case "NULL", "TRUE", "FALSE", "AND", "OR", "NOT":
		return false
	}
	return true
}

// lastPathElement strips a table or alias qualifier and any quoting.
func lastPathElement(ref string) string {
	s := strings.TrimSpace(ref)
	if i := strings.LastIndexByte(s, '.'); i >= 0 {
		s = s[i+1:]
	}
	return strings.Trim(s, `"`)
}

// isNumericLiteral reports whether the expression is a bare numeric literal,
// optionally signed.
func isNumericLiteral(expr string) bool {
	s := strings.TrimSpace(expr)
	if s == "" {
		return false
	}
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	digits, dot := false, false
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			digits = true
		case c == '.' && !dot:
			dot = true
		default:
			return false
		}
	}
	return digits
}

// stringLiteralValue returns the contents of a single-quoted literal with
// doubled quotes unescaped.
func stringLiteralValue(lit string) string {
	s := strings.TrimSpace(lit)
	s = strings.TrimPrefix(s, "'")
	s = strings.TrimSuffix(s, "'")
	return strings.ReplaceAll(s, "''", "'")
}
