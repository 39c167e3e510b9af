package engine

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// BaseSQLEngine provides the database/sql plumbing shared by concrete
// backends. Embed it and implement Connect, DescribeColumns, and LoadCSV.
type BaseSQLEngine struct {
	DB     *sql.DB
	Cfg    Config
	Logger *slog.Logger
}

// Close closes the underlying connection.
func (b *BaseSQLEngine) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing engine session")
		}
		return b.DB.Close()
	}
	return nil
}

// Execute runs a query and materializes every row.
func (b *BaseSQLEngine) Execute(ctx context.Context, sqlStr string) (*Result, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("engine session not established")
	}
	start := time.Now()
	rows, err := b.DB.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}

	var out [][]any
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating result: %w", err)
	}

	elapsed := time.Since(start)
	if b.Logger != nil {
		b.Logger.Debug("query executed",
			slog.Int("rows", len(out)),
			slog.Int("columns", len(cols)),
			slog.Duration("elapsed", elapsed))
	}
	return &Result{Columns: cols, Rows: out, Elapsed: elapsed}, nil
}

// ProbeSchema wraps the subquery in a zero-row select and reports the
// projected column names.
func (b *BaseSQLEngine) ProbeSchema(ctx context.Context, subquery string) ([]string, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("engine session not established")
	}
	probe := "SELECT * FROM (" + subquery + ") AS schema_probe WHERE 1=0"
	rows, err := b.DB.QueryContext(ctx, probe)
	if err != nil {
		return nil, fmt.Errorf("schema probe failed: %w", err)
	}
	defer func() { _ = rows.Close() }()
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("schema probe column read failed: %w", err)
	}
	return cols, nil
}

// SampleColumn reads up to limit non-null values of one column as text.
// Identifiers arrive canonicalized, so plain double quoting is safe.
func (b *BaseSQLEngine) SampleColumn(ctx context.Context, table, column string, limit int) ([]string, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("engine session not established")
	}
	q := fmt.Sprintf(`SELECT CAST(%s AS VARCHAR) FROM %s WHERE %s IS NOT NULL LIMIT %d`,
		quoteIdent(column), quoteIdent(table), quoteIdent(column), limit)
	rows, err := b.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to sample %s.%s: %w", table, column, err)
	}
	defer func() { _ = rows.Close() }()

	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan sample value: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sample: %w", err)
	}
	return out, nil
}

// IsConnected reports whether the session is established.
func (b *BaseSQLEngine) IsConnected() bool {
	return b.DB != nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
