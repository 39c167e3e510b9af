package harmonize

import (
	"strings"

	"github.com/bridgeql/bridgeql/pkg/core"
	"github.com/bridgeql/bridgeql/pkg/scan"
)

// strictAggregates only make sense over numbers: any textual column argument
// gets the tolerant numeric cast.
var strictAggregates = []string{"SUM", "AVG"}

// orderedAggregates are legitimate over genuine text (MIN of a name is a
// name); they coerce only when inference says the column is really numeric.
var orderedAggregates = []string{"MIN", "MAX"}

var numericAggregates = append(append([]string{}, strictAggregates...), orderedAggregates...)

// AggregatePass wraps textual column arguments of numeric aggregates in the
// tolerant numeric cast: SUM(amount) becomes SUM(TRY_CAST(...)) when amount
// is profiled textual.
func AggregatePass(text string, lookup ProfileLookup) core.RewriteResult {
	changed := false
	for _, fn := range numericAggregates {
		from := 0
		for {
			pos := scan.IndexKeyword(text, fn, from)
			if pos < 0 {
				break
			}
			open := pos + len(fn)
			if open >= len(text) || text[open] != '(' {
				from = open
				continue
			}
			end := scan.SkipGroup(text, open)
			arg := strings.TrimSpace(text[open+1 : end-1])

			if !isColumnRef(arg) || IsCastWrapped(arg) {
				from = end
				continue
			}
			profile, found := lookup(lastPathElement(arg))
			if !found || profile.Kind != core.KindText {
				from = end
				continue
			}
			if !profile.TreatAsNumeric && !isStrictAggregate(fn) {
				from = end
				continue
			}
			wrapped := CastNumeric(arg)
			text = text[:open+1] + wrapped + text[end-1:]
			from = open + 1 + len(wrapped) + 1
			changed = true
		}
	}
	return core.RewriteResult{Text: text, Changed: changed}
}

func isStrictAggregate(fn string) bool {
	for _, s := range strictAggregates {
		if s == fn {
			return true
		}
	}
	return false
}

// OrderByPass coerces bare textual column references in ORDER BY to the
// tolerant numeric cast so they sort numerically. Only bare references are
// touched; expressions and positional ordinals sort as the engine sees fit.
func OrderByPass(text string, lookup ProfileLookup) core.RewriteResult {
	prefix, body, suffix, ok := scan.FindClauseBounds(text, "ORDER BY")
	if !ok {
		return core.Unchanged(text)
	}

	items := scan.SplitTopLevelArgs(body)
	changed := false
	for i, item := range items {
		ref, trailer := splitOrderSuffix(item)
		if !isColumnRef(ref) || IsCastWrapped(ref) {
			continue
		}
		profile, found := lookup(lastPathElement(ref))
		if !found || profile.Kind != core.KindText || !profile.TreatAsNumeric {
			continue
		}
		items[i] = CastNumeric(ref)
		if trailer != "" {
			items[i] += " " + trailer
		}
		changed = true
	}
	if !changed {
		return core.Unchanged(text)
	}
	return core.RewriteResult{
		Text:    prefix + "ORDER BY " + strings.Join(items, ", ") + suffix,
		Changed: true,
	}
}

// splitOrderSuffix separates a sort item into its expression and the
// trailing ASC/DESC/NULLS FIRST|LAST words.
func splitOrderSuffix(item string) (expr, trailer string) {
	words := strings.Fields(item)
	n := len(words)
	for n > 0 {
		switch strings.ToUpper(words[n-1]) {
		case "ASC", "DESC", "NULLS", "FIRST", "LAST":
			n--
		default:
			return strings.Join(words[:n], " "), strings.Join(words[n:], " ")
		}
	}
	return "", strings.Join(words, " ")
}
