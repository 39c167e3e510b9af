package harmonize

import (
	"strconv"
	"strings"
)

// DateLiteralMatch describes a string literal recognized as a date, together
// with the strptime pattern that parses it. It lives only for the duration of
// one harmonization pass.
type DateLiteralMatch struct {
	Literal string // the literal contents, without quotes
	Format  string // human name of the matched family, e.g. "iso", "slashed"
	Pattern string // strptime pattern resolving the literal

	// Ambiguous marks the slashed day/month case that fell back to the
	// month-first default. Callers surface it as a note instead of assuming
	// silently.
	Ambiguous bool
}

var monthNames = map[string]struct{}{
	"jan": {}, "feb": {}, "mar": {}, "apr": {}, "may": {}, "jun": {},
	"jul": {}, "aug": {}, "sep": {}, "oct": {}, "nov": {}, "dec": {},
	"january": {}, "february": {}, "march": {}, "april": {}, "june": {},
	"july": {}, "august": {}, "september": {}, "october": {}, "november": {},
	"december": {},
}

// ResolveDateLiteral matches a bare literal value against the supported date
// shapes, in priority order: ISO, ISO with slashes, ambiguous slashed dates,
// dotted day.month.year, spelled-out month names, compact eight-digit dates.
func ResolveDateLiteral(lit string) (DateLiteralMatch, bool) {
	s := strings.TrimSpace(lit)
	if s == "" {
		return DateLiteralMatch{}, false
	}

	if m, ok := resolveSeparated(s, '-'); ok {
		return m, true
	}
	if m, ok := resolveSlashed(s); ok {
		return m, true
	}
	if m, ok := resolveDotted(s); ok {
		return m, true
	}
	if m, ok := resolveMonthName(s); ok {
		return m, true
	}
	if m, ok := resolveCompact(s); ok {
		return m, true
	}
	return DateLiteralMatch{}, false
}

// resolveSeparated matches YYYY-MM-DD with one- or two-digit month and day.
func resolveSeparated(s string, sep byte) (DateLiteralMatch, bool) {
	parts := strings.Split(s, string(sep))
	if len(parts) != 3 {
		return DateLiteralMatch{}, false
	}
	y, m, d := parts[0], parts[1], parts[2]
	if len(y) != 4 || !allDigits(y) || !partInRange(m, 1, 12) || !partInRange(d, 1, 31) {
		return DateLiteralMatch{}, false
	}
	return DateLiteralMatch{
		Literal: s,
		Format:  "iso",
		Pattern: "%Y" + string(sep) + "%m" + string(sep) + "%d",
	}, true
}

// resolveSlashed handles both YYYY/MM/DD and the ambiguous two-digit-led
// slashed forms. Day versus month is decided by whichever leading component
// exceeds 12; when neither does, month-first wins by default and the match is
// flagged ambiguous.
func resolveSlashed(s string) (DateLiteralMatch, bool) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return DateLiteralMatch{}, false
	}
	a, b, c := parts[0], parts[1], parts[2]

	// Year-led: YYYY/MM/DD.
	if len(a) == 4 && allDigits(a) && partInRange(b, 1, 12) && partInRange(c, 1, 31) {
		return DateLiteralMatch{Literal: s, Format: "iso-slash", Pattern: "%Y/%m/%d"}, true
	}

	if len(c) != 4 || !allDigits(c) || !partInRange(a, 1, 31) || !partInRange(b, 1, 31) {
		return DateLiteralMatch{}, false
	}
	av, _ := strconv.Atoi(a)
	bv, _ := strconv.Atoi(b)
	switch {
	case av > 12 && bv <= 12:
		return DateLiteralMatch{Literal: s, Format: "slashed-day-first", Pattern: "%d/%m/%Y"}, true
	case bv > 12 && av <= 12:
		return DateLiteralMatch{Literal: s, Format: "slashed-month-first", Pattern: "%m/%d/%Y"}, true
	case av <= 12 && bv <= 12:
		return DateLiteralMatch{
			Literal:   s,
			Format:    "slashed-month-first",
			Pattern:   "%m/%d/%Y",
			Ambiguous: true,
		}, true
	default:
		return DateLiteralMatch{}, false
	}
}

// resolveDotted matches D.M.Y with a four-digit year.
func resolveDotted(s string) (DateLiteralMatch, bool) {
	parts := strings.Split(s, ".")
	if len(parts) != 3 {
		return DateLiteralMatch{}, false
	}
	d, m, y := parts[0], parts[1], parts[2]
	if len(y) != 4 || !allDigits(y) || !partInRange(d, 1, 31) || !partInRange(m, 1, 12) {
		return DateLiteralMatch{}, false
	}
	return DateLiteralMatch{Literal: s, Format: "dotted", Pattern: "%d.%m.%Y"}, true
}

// resolveMonthName matches "Mar 5, 2024" and "March 5 2024"; the comma is
// optional and the month may be abbreviated or spelled out.
func resolveMonthName(s string) (DateLiteralMatch, bool) {
	fields := strings.Fields(strings.ReplaceAll(s, ",", " "))
	if len(fields) != 3 {
		return DateLiteralMatch{}, false
	}
	name := strings.ToLower(fields[0])
	if _, ok := monthNames[name]; !ok {
		return DateLiteralMatch{}, false
	}
	if !partInRange(fields[1], 1, 31) || len(fields[2]) != 4 || !allDigits(fields[2]) {
		return DateLiteralMatch{}, false
	}
	monthPct := "%b"
	if len(name) > 3 {
		monthPct = "%B"
	}
	pattern := monthPct + " %d, %Y"
	if !strings.Contains(s, ",") {
		pattern = monthPct + " %d %Y"
	}
	return DateLiteralMatch{Literal: s, Format: "month-name", Pattern: pattern}, true
}

// resolveCompact matches YYYYMMDD.
func resolveCompact(s string) (DateLiteralMatch, bool) {
	if len(s) != 8 || !allDigits(s) {
		return DateLiteralMatch{}, false
	}
	if !partInRange(s[4:6], 1, 12) || !partInRange(s[6:8], 1, 31) {
		return DateLiteralMatch{}, false
	}
	return DateLiteralMatch{Literal: s, Format: "compact", Pattern: "%Y%m%d"}, true
}

// Expr renders the parse-then-cast replacement for the matched literal.
func (m DateLiteralMatch) Expr() string {
	return "TRY_CAST(TRY_STRPTIME('" + strings.ReplaceAll(m.Literal, "'", "''") + "', '" + m.Pattern + "') AS DATE)"
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// partInRange reports whether s is a 1-2 digit number within [lo, hi].
func partInRange(s string, lo, hi int) bool {
	if len(s) == 0 || len(s) > 2 || !allDigits(s) {
		return false
	}
	v, _ := strconv.Atoi(s)
	return v >= lo && v <= hi
}
