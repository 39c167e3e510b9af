// Package pipeline is the execution orchestrator: it runs a foreign-dialect
// query through identifier normalization, dialect translation, and type
// harmonization, executes it on the canonical engine, and performs at most
// one escalated repair per classified error class before surfacing a
// diagnostic.
//
// A Processor holds its collaborators explicitly; there is no process-wide
// registry or singleton. Every call is synchronous and self-contained.
package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/bridgeql/bridgeql/pkg/core"
	"github.com/bridgeql/bridgeql/pkg/dialect"
	"github.com/bridgeql/bridgeql/pkg/engine"
	"github.com/bridgeql/bridgeql/pkg/harmonize"
	"github.com/bridgeql/bridgeql/pkg/ident"
	"github.com/bridgeql/bridgeql/pkg/infer"
	"github.com/bridgeql/bridgeql/pkg/scan"
)

// Processor orchestrates the rewrite-and-execute pipeline against one engine
// session. It is safe to reuse across sequential calls; concurrent use of
// one session requires external serialization, as the engine contract says.
type Processor struct {
	eng      engine.Engine
	analyzer *infer.Analyzer // optional; nil disables numeric inference
	logger   *slog.Logger
}

// New creates a Processor. The analyzer and logger may be nil.
func New(eng engine.Engine, analyzer *infer.Analyzer, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Processor{eng: eng, analyzer: analyzer, logger: logger}
}

// allowedVerbs are the statement introducers Validate accepts. The pipeline
// rewrites analytic reads; DDL and DML are out of its contract.
var allowedVerbs = []string{"SELECT", "WITH"}

// Validate performs structural checks only: balanced quotes and parentheses
// and an allowed leading verb. It never executes anything. Dialect markers
// found in the text are reported as warnings, since translation will rewrite
// them.
func (p *Processor) Validate(query string) core.ValidationResult {
	res := core.ValidationResult{Valid: true}

	quotes, parens := scan.Balanced(query)
	if !quotes {
		res.Valid = false
		res.Errors = append(res.Errors, "unbalanced quotes")
	}
	if !parens {
		res.Valid = false
		res.Errors = append(res.Errors, "unbalanced parentheses")
	}

	trimmed := strings.TrimSpace(query)
	verbOK := false
	for _, verb := range allowedVerbs {
		if scan.KeywordAt(trimmed, 0, verb) {
			verbOK = true
			break
		}
	}
	if !verbOK {
		res.Valid = false
		res.Errors = append(res.Errors, "query must begin with SELECT or WITH")
	}

	if res.Valid {
		if d := dialect.Detect(query); d != core.DialectDuckDB {
			res.Warnings = append(res.Warnings,
				"query contains "+string(d)+" constructs; they will be translated")
		}
	}
	return res
}

// Process rewrites the query for the canonical engine and executes it.
// Profiles may be nil when nothing about the table is known; profile-driven
// passes then decline and only syntactic rewrites run.
func (p *Processor) Process(ctx context.Context, q core.Query, profiles *core.ProfileSet) core.ExecutionOutcome {
	outcome := core.ExecutionOutcome{ID: uuid.NewString()}
	log := p.logger.With(slog.String("query_id", outcome.ID))

	if v := p.Validate(q.Text); !v.Valid {
		outcome.Err = &core.EngineError{Kind: core.ErrStructural, Message: strings.Join(v.Errors, "; ")}
		outcome.FinalSQL = q.Text
		return outcome
	}

	lookup := p.buildLookup(ctx, profiles)

	text := p.rewrite(q, profiles, lookup, &outcome)
	outcome.FinalSQL = text

	retriedPattern := false
	retriedConversion := false
	for {
		res, err := p.eng.Execute(ctx, text)
		if err == nil {
			outcome.OK = true
			outcome.Columns = res.Columns
			outcome.Rows = res.Rows
			outcome.RowCount = len(res.Rows)
			outcome.ColumnCount = len(res.Columns)
			outcome.Elapsed = res.Elapsed
			outcome.FinalSQL = text
			log.Debug("query succeeded", slog.Int("rows", outcome.RowCount))
			return outcome
		}

		ee := engine.Classify(err)
		log.Debug("execution failed", slog.String("kind", ee.Kind.String()))

		var repaired core.RewriteResult
		switch {
		case ee.Kind == core.ErrPatternOperator && !retriedPattern:
			retriedPattern = true
			repaired = harmonize.PatternPassExact(text)
			if !repaired.Changed {
				// The exact pass found nothing to fix; asking for a manual
				// cast beats rewriting blindly.
				outcome.Err = ee
				outcome.Notes = append(outcome.Notes, ee.Hint())
				outcome.FinalSQL = text
				return outcome
			}
		case ee.Kind == core.ErrTypeConversion && !retriedConversion:
			retriedConversion = true
			repaired = p.expressionRepair(ctx, text)
			if !repaired.Changed {
				outcome.Err = ee
				outcome.Notes = append(outcome.Notes, ee.Hint())
				outcome.FinalSQL = text
				return outcome
			}
		default:
			// Unrecoverable, or the class already used its one retry.
			outcome.Err = ee
			if hint := ee.Hint(); hint != "" {
				outcome.Notes = append(outcome.Notes, hint)
			}
			outcome.FinalSQL = text
			return outcome
		}

		text = repaired.Text
		outcome.Notes = append(outcome.Notes, repaired.Notes...)
		outcome.Retried = true
		log.Debug("retrying after repair", slog.String("kind", ee.Kind.String()))
	}
}

// rewrite runs the pre-execution passes in pipeline order.
func (p *Processor) rewrite(q core.Query, profiles *core.ProfileSet, lookup harmonize.ProfileLookup, outcome *core.ExecutionOutcome) string {
	text := q.Text

	if profiles != nil {
		names := make([]string, 0, len(profiles.Columns()))
		for _, c := range profiles.Columns() {
			names = append(names, c.Name)
		}
		m := ident.BuildMapping(names)
		text = ident.RewriteQuotedIdentifiers(text, m)
	}

	translated := dialect.Translate(core.NewQuery(text, q.Dialect))
	text = translated.Text

	passes := []func(string) core.RewriteResult{
		harmonize.PatternPassFast,
		func(s string) core.RewriteResult { return harmonize.ComparisonPass(s, lookup) },
		func(s string) core.RewriteResult { return harmonize.AggregatePass(s, lookup) },
		func(s string) core.RewriteResult { return harmonize.OrderByPass(s, lookup) },
		harmonize.CasePass,
	}
	for _, pass := range passes {
		res := pass(text)
		text = res.Text
		outcome.Notes = append(outcome.Notes, res.Notes...)
	}
	if collapsed, changed := harmonize.CollapseDoubleCasts(text); changed {
		text = collapsed
	}
	return text
}

// expressionRepair is the escalated pass for general type-conversion
// failures: CASE branch harmonization plus UNION alignment against the
// engine's schema probe.
func (p *Processor) expressionRepair(ctx context.Context, text string) core.RewriteResult {
	out := harmonize.CasePass(text)
	union := harmonize.UnionPass(ctx, out.Text, p.eng.ProbeSchema)
	out.Text = union.Text
	out.Changed = out.Changed || union.Changed
	out.Notes = append(out.Notes, union.Notes...)
	if collapsed, changed := harmonize.CollapseDoubleCasts(out.Text); changed {
		out.Text = collapsed
		out.Changed = true
	}
	return out
}

// buildLookup overlays the inference verdict on the read-only profiles.
// Profiles themselves are owned by ingestion and never mutated here.
func (p *Processor) buildLookup(ctx context.Context, profiles *core.ProfileSet) harmonize.ProfileLookup {
	if profiles == nil {
		return func(string) (core.ColumnProfile, bool) { return core.ColumnProfile{}, false }
	}

	overlay := make(map[string]core.ColumnProfile, len(profiles.Columns()))
	for _, c := range profiles.Columns() {
		key := c.Canonical
		if key == "" {
			key = c.Name
		}
		if c.Kind == core.KindText && !c.TreatAsNumeric && p.analyzer != nil {
			verdict, err := p.analyzer.ShouldTreatAsNumeric(ctx, profiles.Table, key)
			if err != nil {
				p.logger.Warn("inference failed, leaving column textual",
					slog.String("column", key), slog.String("error", err.Error()))
			} else {
				c.TreatAsNumeric = verdict
			}
		}
		overlay[strings.ToLower(key)] = c
	}
	return func(column string) (core.ColumnProfile, bool) {
		c, ok := overlay[strings.ToLower(column)]
		return c, ok
	}
}
