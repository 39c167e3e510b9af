// Package harmonize rewrites predicates, literals, and expressions so that
// textual columns compare and combine correctly in the canonical dialect.
//
// Every pass in this package is a pure text transform with one shared
// guarantee: applying a pass to its own output is a no-op. The guarantee
// rests on already-cast detection, so no rule ever wraps a cast in another
// cast of the same shape.
package harmonize

import (
	"strings"

	"github.com/bridgeql/bridgeql/pkg/scan"
)

// CastString wraps an expression in the tolerant string cast used to make
// any operand comparable against a pattern or string literal.
func CastString(expr string) string {
	return "CAST((" + expr + ") AS VARCHAR)"
}

// CastNumeric wraps an expression in the tolerant numeric cast: decoration
// characters are stripped first, and failures yield NULL instead of raising.
func CastNumeric(expr string) string {
	return "TRY_CAST(regexp_replace(" + expr + ", '[^0-9.-]', '', 'g') AS DOUBLE)"
}

// CastDate wraps an expression in the tolerant date cast.
func CastDate(expr string) string {
	return "TRY_CAST(" + expr + " AS DATE)"
}

// IsCastWrapped reports whether the expression already begins with a cast
// keyword, optionally behind one or more parentheses. Such expressions are
// never wrapped again.
func IsCastWrapped(expr string) bool {
	s := strings.TrimSpace(expr)
	for strings.HasPrefix(s, "(") {
		s = strings.TrimSpace(s[1:])
	}
	return scan.KeywordAt(s, 0, "CAST") || scan.KeywordAt(s, 0, "TRY_CAST")
}

// isStringLiteral reports whether the trimmed expression is a single quoted
// string literal and nothing else.
func isStringLiteral(expr string) bool {
	s := strings.TrimSpace(expr)
	if len(s) < 2 || s[0] != '\'' {
		return false
	}
	return scan.SkipString(s, 0) == len(s)
}

// CollapseDoubleCasts rewrites a cast whose operand is itself a cast to the
// same target type into the inner cast alone. Repeated harmonization passes
// never produce such nesting themselves, but caller-supplied text might
// already carry one layer.
func CollapseDoubleCasts(text string) (string, bool) {
	changed := false
	for _, kw := range []string{"TRY_CAST", "CAST"} {
		for from := 0; ; {
			pos := scan.IndexKeyword(text, kw, from)
			if pos < 0 {
				break
			}
			open := pos + len(kw)
			if open >= len(text) || text[open] != '(' {
				from = pos + len(kw)
				continue
			}
			end := scan.SkipGroup(text, open)
			inner, typ, ok := splitCastArgs(text[open+1 : end-1])
			if !ok {
				from = pos + len(kw)
				continue
			}
			peeled := strings.TrimSpace(inner)
			for strings.HasPrefix(peeled, "(") && strings.HasSuffix(peeled, ")") && scan.SkipGroup(peeled, 0) == len(peeled) {
				peeled = strings.TrimSpace(peeled[1 : len(peeled)-1])
			}
			_, innerTyp, innerOK := parseCast(peeled)
			if innerOK && strings.EqualFold(strings.TrimSpace(typ), strings.TrimSpace(innerTyp)) {
				text = text[:pos] + peeled + text[end:]
				changed = true
				from = pos
				continue
			}
			from = pos + len(kw)
		}
	}
	return text, changed
}

// splitCastArgs splits the inside of a cast call on its top-level AS.
func splitCastArgs(body string) (expr, typ string, ok bool) {
	p := scan.IndexTopLevelKeyword(body, "AS", 0)
	if p < 0 {
		return "", "", false
	}
	return body[:p], body[p+len("AS"):], true
}

// parseCast recognizes an expression of the form CAST(... AS type) or
// TRY_CAST(... AS type) with nothing around it.
func parseCast(expr string) (inner, typ string, ok bool) {
	var kwLen int
	switch {
	case scan.KeywordAt(expr, 0, "TRY_CAST"):
		kwLen = len("TRY_CAST")
	case scan.KeywordAt(expr, 0, "CAST"):
		kwLen = len("CAST")
	default:
		return "", "", false
	}
	if kwLen >= len(expr) || expr[kwLen] != '(' {
		return "", "", false
	}
	if scan.SkipGroup(expr, kwLen) != len(expr) {
		return "", "", false
	}
	return splitCastArgs(expr[kwLen+1 : len(expr)-1])
}
