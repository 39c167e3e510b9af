// Package duckdb provides the canonical DuckDB execution engine backend.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bridgeql/bridgeql/pkg/engine"
	"github.com/bridgeql/bridgeql/pkg/ident"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Engine implements engine.Engine on an embedded DuckDB database.
type Engine struct {
	engine.BaseSQLEngine
}

// New creates a DuckDB engine. The logger may be nil.
func New(logger *slog.Logger) *Engine {
	e := &Engine{}
	e.Logger = logger
	return e
}

// Connect opens the database. Use an empty path (or ":memory:") for an
// in-memory session.
func (e *Engine) Connect(ctx context.Context, cfg engine.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}
	e.DB = db
	e.Cfg = cfg
	return nil
}

// DescribeColumns reads a table's declared schema from information_schema.
func (e *Engine) DescribeColumns(ctx context.Context, table string) ([]engine.Column, error) {
	if e.DB == nil {
		return nil, fmt.Errorf("engine session not established")
	}
	schema := "main"
	name := table
	if parts := strings.Split(table, "."); len(parts) == 2 {
		schema, name = parts[0], parts[1]
	}

	const q = `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = ? AND table_name = ?
		ORDER BY ordinal_position
	`
	rows, err := e.DB.QueryContext(ctx, q, schema, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cols []engine.Column
	for rows.Next() {
		var c engine.Column
		if err := rows.Scan(&c.Name, &c.DeclaredType); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		cols = append(cols, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	return cols, nil
}

// LoadCSV stages a CSV file as a table using DuckDB's reader, replacing any
// previous table of the same name. Header names are canonicalized so the
// stored schema matches what the rewrite pipeline emits.
func (e *Engine) LoadCSV(ctx context.Context, table, path string) error {
	if e.DB == nil {
		return fmt.Errorf("engine session not established")
	}
	source := fmt.Sprintf(`SELECT * FROM read_csv_auto(%s)`, quoteString(path))
	header, err := e.ProbeSchema(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to read csv header: %w", err)
	}

	m := ident.BuildMapping(header)
	selects := make([]string, len(header))
	for i, h := range header {
		canon, _ := m.Canonical(h)
		selects[i] = quoteIdent(h) + " AS " + quoteIdent(canon)
	}

	q := fmt.Sprintf(`CREATE OR REPLACE TABLE %s AS SELECT %s FROM read_csv_auto(%s)`,
		quoteIdent(table), strings.Join(selects, ", "), quoteString(path))
	if _, err := e.DB.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("failed to load csv into %s: %w", table, err)
	}
	if e.Logger != nil {
		e.Logger.Info("loaded csv", slog.String("table", table), slog.String("path", path))
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
