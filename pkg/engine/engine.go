// Package engine defines the execution-engine contract the rewrite pipeline
// depends on, plus the shared database/sql implementation concrete backends
// embed.
//
// This package contains the public contract; concrete backends live in
// pkg/engines/ subdirectories.
package engine

import (
	"context"
	"time"
)

// Column is one engine-reported column with its declared type.
type Column struct {
	Name         string
	DeclaredType string
}

// Result is a fully materialized query result.
type Result struct {
	Columns []string
	Rows    [][]any
	Elapsed time.Duration
}

// Config holds backend connection settings.
type Config struct {
	// Path is the database location; empty means in-memory.
	Path string

	// Options are backend-specific connection options.
	Options map[string]string
}

// Engine is the canonical execution engine as the pipeline sees it: execute,
// describe, probe, and sample. One Engine value is a single-owner session;
// concurrent use without external serialization is the caller's problem.
type Engine interface {
	// Connect establishes the session.
	Connect(ctx context.Context, cfg Config) error

	// Close releases the session.
	Close() error

	// Execute runs a query and materializes its result. Failures should be
	// classified with Classify before deciding on a repair.
	Execute(ctx context.Context, sql string) (*Result, error)

	// DescribeColumns reports the declared schema of a table.
	DescribeColumns(ctx context.Context, table string) ([]Column, error)

	// ProbeSchema learns a subquery's projected column names without
	// materializing rows.
	ProbeSchema(ctx context.Context, subquery string) ([]string, error)

	// SampleColumn returns up to limit non-null values of a column,
	// rendered as text, for type inference.
	SampleColumn(ctx context.Context, table, column string, limit int) ([]string, error)

	// LoadCSV loads a CSV file into a table, creating it with an inferred
	// schema. Ingestion proper is a collaborator concern; this exists so
	// callers can stage data for ad-hoc runs.
	LoadCSV(ctx context.Context, table, path string) error
}
