// Package ident canonicalizes identifiers for the canonical engine and
// rewrites quoted identifiers in query text through a bijective
// original-to-canonical mapping.
package ident

import "strings"

// digitLedPrefix is prepended to canonical names that would start with a digit.
const digitLedPrefix = "c_"

// emptyPlaceholder stands in for names that canonicalize to nothing.
const emptyPlaceholder = "col"

// Normalize maps an arbitrary column or table name to a canonical identifier.
// Characters outside [A-Za-z0-9_] become underscores, runs collapse to one,
// leading and trailing underscores are trimmed, a digit-led result gains a
// fixed prefix, and an empty result becomes a placeholder. Case is preserved.
// The function is pure: equal inputs always yield equal outputs.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	prevUnderscore := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		ok := c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
		if !ok {
			c = '_'
		}
		if c == '_' {
			if prevUnderscore {
				continue
			}
			prevUnderscore = true
		} else {
			prevUnderscore = false
		}
		b.WriteByte(c)
	}
	out := strings.Trim(b.String(), "_")
	if out == "" {
		return emptyPlaceholder
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = digitLedPrefix + out
	}
	return out
}

// Map is a bijective original-to-canonical identifier dictionary for one
// table.
type Map struct {
	toCanonical map[string]string
	toOriginal  map[string]string
}

// BuildMapping canonicalizes every name and guarantees the result is a
// bijection: when two inputs collide on the same canonical form, later ones
// are disambiguated with a numeric suffix.
func BuildMapping(names []string) *Map {
	m := &Map{
		toCanonical: make(map[string]string, len(names)),
		toOriginal:  make(map[string]string, len(names)),
	}
	for _, name := range names {
		if _, dup := m.toCanonical[name]; dup {
			continue
		}
		canon := Normalize(name)
		if _, taken := m.toOriginal[canon]; taken {
			for n := 2; ; n++ {
				candidate := canon + "_" + itoa(n)
				if _, clash := m.toOriginal[candidate]; !clash {
					canon = candidate
					break
				}
			}
		}
		m.toCanonical[name] = canon
		m.toOriginal[canon] = name
	}
	return m
}

func itoa(n int) string {
	// Collision counts are tiny; avoid strconv for a two-digit int.
	if n < 10 {
		return string(byte('0' + n))
	}
	return itoa(n/10) + string(byte('0'+n%10))
}

// Canonical returns the canonical form of an original name.
func (m *Map) Canonical(original string) (string, bool) {
	c, ok := m.toCanonical[original]
	return c, ok
}

// Original returns the original name behind a canonical one.
func (m *Map) Original(canonical string) (string, bool) {
	o, ok := m.toOriginal[canonical]
	return o, ok
}

// Len returns the number of mapped identifiers.
func (m *Map) Len() int {
	return len(m.toCanonical)
}

// reservedWords are canonical-dialect keywords that force re-quoting even
// when the canonical identifier is otherwise bare-safe.
var reservedWords = map[string]struct{}{
	"all": {}, "and": {}, "as": {}, "asc": {}, "between": {}, "by": {},
	"case": {}, "cast": {}, "column": {}, "create": {}, "cross": {},
	"default": {}, "desc": {}, "distinct": {}, "else": {}, "end": {},
	"except": {}, "exists": {}, "from": {}, "group": {}, "having": {},
	"in": {}, "inner": {}, "intersect": {}, "into": {}, "is": {}, "join": {},
	"left": {}, "like": {}, "limit": {}, "not": {}, "null": {}, "offset": {},
	"on": {}, "or": {}, "order": {}, "outer": {}, "right": {}, "select": {},
	"table": {}, "then": {}, "union": {}, "using": {}, "when": {},
	"where": {}, "window": {}, "with": {},
}

// BareSafe reports whether an identifier can appear unquoted in the
// canonical dialect.
func BareSafe(name string) bool {
	if name == "" {
		return false
	}
	if name[0] >= '0' && name[0] <= '9' {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c != '_' && !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'z') && !(c >= 'A' && c <= 'Z') {
			return false
		}
	}
	_, reserved := reservedWords[strings.ToLower(name)]
	return !reserved
}

// RewriteQuotedIdentifiers replaces every quoted identifier token in the
// query with its canonical form. Double-quoted, backtick-quoted, and
// bracket-quoted identifiers are recognized; single-quoted string literals
// are never touched. Canonical forms that are not bare-safe are re-quoted
// with double quotes.
func RewriteQuotedIdentifiers(query string, m *Map) string {
	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); {
		c := query[i]
		switch c {
		case '\'':
			end := skipQuoted(query, i, '\'')
			b.WriteString(query[i:end])
			i = end
		case '"', '`':
			end := skipQuoted(query, i, c)
			name := unescapeQuoted(query[i+1:end-1], c)
			b.WriteString(canonicalToken(name, m))
			i = end
		case '[':
			end := i + 1
			for end < len(query) && query[end] != ']' {
				end++
			}
			if end >= len(query) {
				b.WriteString(query[i:])
				i = len(query)
				break
			}
			b.WriteString(canonicalToken(query[i+1:end], m))
			i = end + 1
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// canonicalToken renders the canonical replacement for a quoted original
// name, quoting again only when required.
func canonicalToken(original string, m *Map) string {
	canon, ok := m.Canonical(original)
	if !ok {
		canon = Normalize(original)
	}
	if BareSafe(canon) {
		return canon
	}
	return `"` + strings.ReplaceAll(canon, `"`, `""`) + `"`
}

// skipQuoted returns the index just past a quoted token starting at s[i],
// honoring doubled-quote escapes. An unterminated token runs to the end.
func skipQuoted(s string, i int, q byte) int {
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

func unescapeQuoted(s string, q byte) string {
	qq := string([]byte{q, q})
	return strings.ReplaceAll(s, qq, string(q))
}
