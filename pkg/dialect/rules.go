package dialect

import (
	"strings"

	"github.com/bridgeql/bridgeql/pkg/scan"
)

// apply runs one rule over every call-syntax occurrence in the text,
// left to right.
func (r rule) apply(text string) (string, bool) {
	changed := false
	from := 0
	for {
		pos, open := findCall(text, r.from, from)
		if pos < 0 {
			return text, changed
		}
		var replaced string
		var resume int
		switch r.kind {
		case kindRename:
			replaced = text[:pos] + r.to + text[open:]
			resume = pos + len(r.to)
		case kindBareRename:
			end := scan.SkipGroup(text, open)
			args := strings.TrimSpace(text[open+1 : end-1])
			if args != "" {
				// Not the zero-argument form; leave it alone.
				from = end
				continue
			}
			replaced = text[:pos] + r.to + text[end:]
			resume = pos + len(r.to)
		case kindTernary:
			end := scan.SkipGroup(text, open)
			args := scan.SplitTopLevelArgs(text[open+1 : end-1])
			if len(args) != 3 {
				from = end
				continue
			}
			expr := "CASE WHEN " + args[0] + " THEN " + args[1] + " ELSE " + args[2] + " END"
			replaced = text[:pos] + expr + text[end:]
			resume = pos + len(expr)
		case kindDateParse:
			end := scan.SkipGroup(text, open)
			args := scan.SplitTopLevelArgs(text[open+1 : end-1])
			if len(args) != 2 {
				from = end
				continue
			}
			tmpl, ok := translateDateTemplate(strings.TrimSpace(args[1]))
			if !ok {
				// No literal template to translate; leave the call for
				// the engine to reject.
				from = end
				continue
			}
			expr := r.to + "(" + args[0] + ", " + tmpl + ")"
			replaced = text[:pos] + expr + text[end:]
			resume = pos + len(expr)
		case kindConvert:
			end := scan.SkipGroup(text, open)
			args := scan.SplitTopLevelArgs(text[open+1 : end-1])
			if len(args) != 2 && len(args) != 3 {
				from = end
				continue
			}
			// The optional third argument is a display style; the canonical
			// engine has no equivalent, drop it.
			expr := r.to + "(" + args[1] + " AS " + args[0] + ")"
			replaced = text[:pos] + expr + text[end:]
			resume = pos + len(expr)
		default:
			return text, changed
		}
		text = replaced
		from = resume
		changed = true
	}
}

// dateTokens maps datetime template tokens to strptime specifiers.
// Longest token first so HH24 wins over HH and MONTH over MON.
var dateTokens = []struct{ from, to string }{
	{"HH24", "%H"},
	{"HH12", "%I"},
	{"YYYY", "%Y"},
	{"MONTH", "%B"},
	{"MON", "%b"},
	{"YY", "%y"},
	{"MM", "%m"},
	{"DD", "%d"},
	{"HH", "%I"},
	{"MI", "%M"},
	{"SS", "%S"},
	{"AM", "%p"},
	{"PM", "%p"},
}

// translateDateTemplate converts a quoted TO_DATE-style template literal
// into the equivalent strptime template. Reports false when the argument
// is not a plain string literal.
func translateDateTemplate(lit string) (string, bool) {
	if len(lit) < 2 || lit[0] != '\'' || lit[len(lit)-1] != '\'' {
		return "", false
	}
	body := lit[1 : len(lit)-1]
	var b strings.Builder
	for i := 0; i < len(body); {
		matched := false
		for _, t := range dateTokens {
			if i+len(t.from) <= len(body) && strings.EqualFold(body[i:i+len(t.from)], t.from) {
				b.WriteString(t.to)
				i += len(t.from)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(body[i])
			i++
		}
	}
	return "'" + b.String() + "'", true
}

// findCall locates the next occurrence of name used as a function call:
// the name with word boundaries, outside string literals, followed by an
// opening parenthesis (optionally after whitespace). Returns the name
// position and the parenthesis position, or (-1, -1).
func findCall(text, name string, from int) (pos, open int) {
	for {
		p := scan.IndexKeyword(text, name, from)
		if p < 0 {
			return -1, -1
		}
		o := p + len(name)
		for o < len(text) && (text[o] == ' ' || text[o] == '\t') {
			o++
		}
		if o < len(text) && text[o] == '(' {
			return p, o
		}
		from = p + len(name)
	}
}
