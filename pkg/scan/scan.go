// Package scan provides quote- and parenthesis-aware scanning primitives for
// SQL text: clause extents, top-level boolean splits, operand extents around a
// binary operator, and nested block matching.
//
// These are deliberately not a grammar. Each primitive locates a specific
// sub-expression robustly enough to rewrite it and nothing more. "Nothing
// found" is reported through an ok flag, never an error; callers treat it as
// "no rewrite needed".
package scan

import "strings"

// IsIdentByte reports whether c can appear inside a bare SQL identifier.
func IsIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isQuote(c byte) bool {
	return c == '\'' || c == '"' || c == '`'
}

// SkipString returns the index just past the string or quoted identifier
// starting at s[i] (which must be a quote character). Doubled quotes inside
// the literal are treated as escapes. An unterminated literal runs to the end
// of the text.
func SkipString(s string, i int) int {
	q := s[i]
	i++
	for i < len(s) {
		if s[i] == q {
			if i+1 < len(s) && s[i+1] == q {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return len(s)
}

// KeywordAt reports whether the keyword starts at s[i] with word boundaries
// on both sides. The match is case-insensitive; kw must be upper case.
func KeywordAt(s string, i int, kw string) bool {
	if i < 0 || i+len(kw) > len(s) {
		return false
	}
	if i > 0 && IsIdentByte(s[i-1]) {
		return false
	}
	end := i + len(kw)
	if end < len(s) && IsIdentByte(s[end]) {
		return false
	}
	return strings.EqualFold(s[i:end], kw)
}

// IndexKeyword finds the next occurrence of kw at or after from that is not
// inside a string literal or quoted identifier. Parenthesis depth is ignored.
// Returns -1 when there is none.
func IndexKeyword(s, kw string, from int) int {
	for i := from; i < len(s); i++ {
		c := s[i]
		if isQuote(c) {
			i = SkipString(s, i) - 1
			continue
		}
		if KeywordAt(s, i, kw) {
			return i
		}
	}
	return -1
}

// IndexTopLevelKeyword is IndexKeyword restricted to zero parenthesis depth.
func IndexTopLevelKeyword(s, kw string, from int) int {
	depth := 0
	for i := from; i < len(s); i++ {
		switch c := s[i]; {
		case isQuote(c):
			i = SkipString(s, i) - 1
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 && KeywordAt(s, i, kw) {
				return i
			}
		}
	}
	return -1
}

// clauseTerminators are the keywords that end a clause body at top level.
var clauseTerminators = []string{
	"WHERE", "GROUP", "HAVING", "WINDOW", "QUALIFY",
	"ORDER", "LIMIT", "OFFSET", "FETCH",
	"UNION", "EXCEPT", "INTERSECT",
}

// FindClauseBounds locates the first top-level occurrence of a clause keyword
// (e.g. "WHERE") and splits the text into the part before the keyword, the
// clause body, and the remainder starting at the next top-level clause
// keyword. Multi-word introducers like "ORDER BY" are handled by passing the
// full phrase as keyword.
func FindClauseBounds(text, keyword string) (prefix, body, suffix string, ok bool) {
	kw := strings.ToUpper(keyword)
	first := strings.Fields(kw)[0]

	start := IndexTopLevelKeyword(text, first, 0)
	if start < 0 {
		return "", "", "", false
	}
	bodyStart := start + len(first)
	// Consume the remaining words of a multi-word introducer.
	for _, w := range strings.Fields(kw)[1:] {
		for bodyStart < len(text) && isSpace(text[bodyStart]) {
			bodyStart++
		}
		if !KeywordAt(text, bodyStart, w) {
			return "", "", "", false
		}
		bodyStart += len(w)
	}

	end := len(text)
	for _, term := range clauseTerminators {
		if term == first {
			continue
		}
		if p := IndexTopLevelKeyword(text, term, bodyStart); p >= 0 && p < end {
			end = p
		}
	}
	return text[:start], text[bodyStart:end], text[end:], true
}

// Segment is one operand of a top-level boolean expression. Joiner is the
// connective ("AND"/"OR") that preceded the segment; it is empty for the
// first one.
type Segment struct {
	Text   string
	Joiner string
}

// SplitTopLevelBoolean splits a boolean expression on top-level AND/OR only.
// Connectives inside parentheses or string literals do not split.
func SplitTopLevelBoolean(expr string) []Segment {
	var segs []Segment
	depth := 0
	start := 0
	joiner := ""
	for i := 0; i < len(expr); i++ {
		switch c := expr[i]; {
		case isQuote(c):
			i = SkipString(expr, i) - 1
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		default:
			if depth != 0 {
				continue
			}
			var kw string
			switch {
			case KeywordAt(expr, i, "AND"):
				kw = "AND"
			case KeywordAt(expr, i, "OR"):
				kw = "OR"
			default:
				continue
			}
			segs = append(segs, Segment{Text: expr[start:i], Joiner: joiner})
			joiner = kw
			i += len(kw) - 1
			start = i + 1
		}
	}
	segs = append(segs, Segment{Text: expr[start:], Joiner: joiner})
	return segs
}

// stopKeywords end an operand in either direction.
var stopKeywords = []string{
	"AND", "OR", "NOT", "THEN", "ELSE", "END", "WHEN", "CASE",
	"WHERE", "FROM", "SELECT", "ON", "BETWEEN", "IN", "IS",
	"LIKE", "ILIKE", "ASC", "DESC", "NULLS",
}

func keywordHereAny(s string, i int) bool {
	for _, kw := range stopKeywords {
		if KeywordAt(s, i, kw) {
			return true
		}
	}
	return false
}

// RightOperandEnd returns the index just past the operand that starts at or
// after start. The operand may be a literal, an identifier chain, a function
// call, or a parenthesized group, optionally chained with arithmetic or
// concatenation operators. Scanning respects nested parentheses and strings.
func RightOperandEnd(expr string, start int) int {
	i := start
	for {
		for i < len(expr) && isSpace(expr[i]) {
			i++
		}
		// Unary sign.
		if i < len(expr) && (expr[i] == '-' || expr[i] == '+') {
			i++
			for i < len(expr) && isSpace(expr[i]) {
				i++
			}
		}
		i = atomEnd(expr, i)

		// Continue through arithmetic / concatenation chains.
		j := i
		for j < len(expr) && isSpace(expr[j]) {
			j++
		}
		if j < len(expr) {
			switch expr[j] {
			case '+', '-', '*', '/', '%':
				i = j + 1
				continue
			case '|':
				if j+1 < len(expr) && expr[j+1] == '|' {
					i = j + 2
					continue
				}
			}
		}
		return i
	}
}

// atomEnd consumes a single atom starting at i and returns the index past it.
func atomEnd(expr string, i int) int {
	if i >= len(expr) {
		return i
	}
	switch c := expr[i]; {
	case isQuote(c):
		i = SkipString(expr, i)
	case c == '(':
		i = skipGroup(expr, i)
	case c >= '0' && c <= '9' || c == '.':
		for i < len(expr) && (expr[i] >= '0' && expr[i] <= '9' || expr[i] == '.' || expr[i] == 'e' || expr[i] == 'E') {
			i++
		}
	case IsIdentByte(c):
		if keywordHereAny(expr, i) {
			return i
		}
		for i < len(expr) && (IsIdentByte(expr[i]) || expr[i] == '.') {
			i++
		}
		// Function call: opening paren immediately after the name.
		if i < len(expr) && expr[i] == '(' {
			i = skipGroup(expr, i)
		}
	default:
		return i
	}
	// Postgres-style cast suffix binds to the atom.
	for i+1 < len(expr) && expr[i] == ':' && expr[i+1] == ':' {
		i += 2
		for i < len(expr) && IsIdentByte(expr[i]) {
			i++
		}
	}
	return i
}

// SkipGroup returns the index just past the parenthesized group opening at
// expr[i] == '('. An unterminated group runs to the end of the text.
func SkipGroup(expr string, i int) int {
	return skipGroup(expr, i)
}

// SplitTopLevelArgs splits a function-call argument list on top-level commas.
// Commas inside nested parentheses or string literals do not split.
func SplitTopLevelArgs(args string) []string {
	var out []string
	depth := 0
	start := 0
	for i := 0; i < len(args); i++ {
		switch c := args[i]; {
		case isQuote(c):
			i = SkipString(args, i) - 1
		case c == '(':
			depth++
		case c == ')':
			if depth > 0 {
				depth--
			}
		case c == ',' && depth == 0:
			out = append(out, strings.TrimSpace(args[start:i]))
			start = i + 1
		}
	}
	out = append(out, strings.TrimSpace(args[start:]))
	return out
}

// skipGroup returns the index past the parenthesized group opening at
// expr[i] == '('.
func skipGroup(expr string, i int) int {
	depth := 0
	for ; i < len(expr); i++ {
		switch c := expr[i]; {
		case isQuote(c):
			i = SkipString(expr, i) - 1
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return len(expr)
}

// LeftOperandStart returns the start index of the operand that ends just
// before opPos. It walks backwards over an atom chain: parenthesized groups
// (including a preceding function name), string literals, identifier chains,
// and numbers, linked by arithmetic or concatenation operators.
func LeftOperandStart(expr string, opPos int) int {
	i := opPos
	for {
		for i > 0 && isSpace(expr[i-1]) {
			i--
		}
		i = atomStart(expr, i)

		j := i
		for j > 0 && isSpace(expr[j-1]) {
			j--
		}
		if j >= 2 && expr[j-2] == '|' && expr[j-1] == '|' {
			i = j - 2
			continue
		}
		if j > 0 {
			switch expr[j-1] {
			case '+', '-', '*', '/', '%':
				// Only continue when something operand-like precedes the
				// operator, otherwise it is a unary sign.
				k := j - 1
				for k > 0 && isSpace(expr[k-1]) {
					k--
				}
				if k > 0 && (IsIdentByte(expr[k-1]) || expr[k-1] == ')' || isQuote(expr[k-1])) {
					i = j - 1
					continue
				}
			}
		}
		return i
	}
}

// atomStart walks one atom backwards: expr[i] is just past the atom.
func atomStart(expr string, i int) int {
	for {
		if i == 0 {
			return 0
		}
		c := expr[i-1]
		switch {
		case isQuote(c):
			i = stringStartBackward(expr, i-1)
		case c == ')':
			start := groupStartBackward(expr, i-1)
			// A function name directly before the group belongs to the atom.
			j := start
			for j > 0 && (IsIdentByte(expr[j-1]) || expr[j-1] == '.') {
				j--
			}
			if j < start && !keywordHereAny(expr, j) {
				i = j
			} else {
				i = start
			}
		case IsIdentByte(c) || c == '.':
			j := i
			for j > 0 && (IsIdentByte(expr[j-1]) || expr[j-1] == '.') {
				j--
			}
			i = j
		default:
			return i
		}
		// A cast suffix before the atom means the real atom lies further left.
		if i >= 2 && expr[i-1] == ':' && expr[i-2] == ':' {
			i -= 2
			continue
		}
		return i
	}
}

// stringStartBackward finds the opening quote of the literal whose closing
// quote is at expr[end]. Doubled quotes are skipped in pairs.
func stringStartBackward(expr string, end int) int {
	q := expr[end]
	i := end - 1
	for i >= 0 {
		if expr[i] == q {
			if i > 0 && expr[i-1] == q {
				i -= 2
				continue
			}
			return i
		}
		i--
	}
	return 0
}

// groupStartBackward finds the '(' matching the ')' at expr[end]. String
// literals between them are stepped over backwards.
func groupStartBackward(expr string, end int) int {
	depth := 0
	i := end
	for i >= 0 {
		c := expr[i]
		switch {
		case isQuote(c):
			i = stringStartBackward(expr, i)
		case c == ')':
			depth++
		case c == '(':
			depth--
			if depth == 0 {
				return i
			}
		}
		i--
	}
	return 0
}

// FindBlockEnd locates the terminator of a nested begin/end-style block. pos
// must be at or just past the opening keyword occurrence. Nested same-kind
// blocks and string literals are skipped. The returned index is just past the
// closing keyword; ok is false when the block never closes.
func FindBlockEnd(text, openKw, closeKw string, pos int) (int, bool) {
	depth := 1
	i := pos
	for i < len(text) {
		c := text[i]
		if isQuote(c) {
			i = SkipString(text, i)
			continue
		}
		switch {
		case KeywordAt(text, i, openKw):
			depth++
			i += len(openKw)
		case KeywordAt(text, i, closeKw):
			depth--
			if depth == 0 {
				return i + len(closeKw), true
			}
			i += len(closeKw)
		default:
			i++
		}
	}
	return 0, false
}

// Balanced reports whether quotes and parentheses in text are balanced. Used
// by structural validation; string contents do not affect paren depth.
func Balanced(text string) (quotes, parens bool) {
	quotes, parens = true, true
	depth := 0
	for i := 0; i < len(text); i++ {
		switch c := text[i]; {
		case isQuote(c):
			closed := false
			j := i + 1
			for j < len(text) {
				if text[j] == c {
					if j+1 < len(text) && text[j+1] == c {
						j += 2
						continue
					}
					closed = true
					break
				}
				j++
			}
			if !closed {
				quotes = false
			}
			i = j
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth < 0 {
				parens = false
			}
		}
	}
	if depth != 0 {
		parens = false
	}
	return quotes, parens
}
