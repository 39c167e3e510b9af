// Package infer decides whether a textual column should be treated as
// numeric, based on sampled values and configurable name heuristics.
//
// The decision is read-only and side-effect-free: the analyzer samples
// through its collaborator, computes a numeric-likeness ratio, and compares
// it against a threshold. Column-name pattern lists shift the threshold;
// they are configuration, not schema-derived facts.
package infer

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Sampler supplies sampled non-null values for one column. The execution
// engine implements it; tests stub it.
type Sampler interface {
	SampleColumn(ctx context.Context, table, column string, limit int) ([]string, error)
}

// Config carries the inference heuristics. Pattern lists are regular
// expressions matched case-insensitively against the bare column name.
type Config struct {
	// SampleLimit is how many values to sample per column.
	SampleLimit int `koanf:"sample_limit"`

	// BaseThreshold is the numeric-likeness ratio required to treat a
	// textual column as numeric.
	BaseThreshold float64 `koanf:"base_threshold"`

	// LoweredThreshold replaces BaseThreshold when the column name matches
	// a numeric-suggestive pattern.
	LoweredThreshold float64 `koanf:"lowered_threshold"`

	// NumericPatterns are name patterns that suggest numeric content
	// (amount, price, qty, ...). A match lowers the threshold.
	NumericPatterns []string `koanf:"numeric_patterns"`

	// IdentifierPatterns are name patterns that suggest identifier-like
	// content (id, code, zip, phone, ...). A match disables inference
	// entirely, regardless of the sampled ratio.
	IdentifierPatterns []string `koanf:"identifier_patterns"`
}

// Analyzer applies the configured heuristics to sampled column data.
type Analyzer struct {
	sampler   Sampler
	cfg       Config
	numericRe []*regexp.Regexp
	identRe   []*regexp.Regexp
}

// New compiles the configured pattern lists into an Analyzer.
func New(sampler Sampler, cfg Config) (*Analyzer, error) {
	a := &Analyzer{sampler: sampler, cfg: cfg}
	for _, p := range cfg.NumericPatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid numeric pattern %q: %w", p, err)
		}
		a.numericRe = append(a.numericRe, re)
	}
	for _, p := range cfg.IdentifierPatterns {
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("invalid identifier pattern %q: %w", p, err)
		}
		a.identRe = append(a.identRe, re)
	}
	return a, nil
}

// ShouldTreatAsNumeric samples the column and reports whether its values are
// numeric-like enough for coercion. Identifier-suggestive names always
// answer false; numeric-suggestive names lower the required ratio.
func (a *Analyzer) ShouldTreatAsNumeric(ctx context.Context, table, column string) (bool, error) {
	for _, re := range a.identRe {
		if re.MatchString(column) {
			return false, nil
		}
	}
	threshold := a.cfg.BaseThreshold
	for _, re := range a.numericRe {
		if re.MatchString(column) {
			threshold = a.cfg.LoweredThreshold
			break
		}
	}

	values, err := a.sampler.SampleColumn(ctx, table, column, a.cfg.SampleLimit)
	if err != nil {
		return false, fmt.Errorf("sampling %s.%s: %w", table, column, err)
	}
	ratio, sampled := NumericRatio(values)
	return sampled && ratio >= threshold, nil
}

// NumericRatio computes the fraction of values that parse as numeric after
// stripping decoration characters. The second return is false when there was
// nothing to sample.
func NumericRatio(values []string) (float64, bool) {
	total := 0
	numeric := 0
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		total++
		if parsesNumeric(v) {
			numeric++
		}
	}
	if total == 0 {
		return 0, false
	}
	return float64(numeric) / float64(total), true
}

// parsesNumeric strips everything but digits, signs, and decimal points,
// then tries a float parse. This mirrors the tolerant numeric cast the
// harmonizer emits, so the inference verdict predicts cast behavior.
func parsesNumeric(v string) bool {
	var b strings.Builder
	for i := 0; i < len(v); i++ {
		c := v[i]
		if c >= '0' && c <= '9' || c == '.' || c == '-' {
			b.WriteByte(c)
		}
	}
	s := b.String()
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
