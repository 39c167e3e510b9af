// Package sqlite provides a cgo-free execution engine backend for tests and
// constrained environments. It accepts the same canonical-dialect subset the
// rewrite pipeline emits, minus DuckDB-only functions.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/bridgeql/bridgeql/pkg/engine"
	"github.com/bridgeql/bridgeql/pkg/ident"

	_ "modernc.org/sqlite" // sqlite driver
)

// Engine implements engine.Engine on modernc.org/sqlite.
type Engine struct {
	engine.BaseSQLEngine
}

// New creates a SQLite engine. The logger may be nil.
func New(logger *slog.Logger) *Engine {
	e := &Engine{}
	e.Logger = logger
	return e
}

// Connect opens the database. An empty path means in-memory.
func (e *Engine) Connect(ctx context.Context, cfg engine.Config) error {
	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}
	e.DB = db
	e.Cfg = cfg
	return nil
}

// DescribeColumns reads the declared schema via PRAGMA table_info.
func (e *Engine) DescribeColumns(ctx context.Context, table string) ([]engine.Column, error) {
	if e.DB == nil {
		return nil, fmt.Errorf("engine session not established")
	}
	rows, err := e.DB.QueryContext(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to query table info: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cols []engine.Column
	for rows.Next() {
		var (
			cid         int
			name, ctype string
			notnull     int
			dflt        sql.NullString
			pk          int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan table info: %w", err)
		}
		cols = append(cols, engine.Column{Name: name, DeclaredType: ctype})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating table info: %w", err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}
	return cols, nil
}

// LoadCSV loads a CSV file with a header row into a fresh table. Header
// names are canonicalized and all columns are created as TEXT; type
// harmonization is the pipeline's job anyway.
func (e *Engine) LoadCSV(ctx context.Context, table, path string) error {
	if e.DB == nil {
		return fmt.Errorf("engine session not established")
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open csv: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("failed to read csv header: %w", err)
	}

	m := ident.BuildMapping(header)
	quoted := make([]string, len(header))
	for i, h := range header {
		canon, _ := m.Canonical(h)
		quoted[i] = quoteIdent(canon)
	}

	tx, err := e.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin load transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdent(table))); err != nil {
		return fmt.Errorf("failed to drop previous table: %w", err)
	}
	create := fmt.Sprintf(`CREATE TABLE %s (%s TEXT)`, quoteIdent(table), strings.Join(quoted, " TEXT, "))
	if _, err := tx.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create table %s: %w", table, err)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(header)), ", ")
	insert := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteIdent(table), strings.Join(quoted, ", "), placeholders)
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	count := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read csv record: %w", err)
		}
		args := make([]any, len(record))
		for i, v := range record {
			args[i] = v
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("failed to insert csv record: %w", err)
		}
		count++
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit load: %w", err)
	}
	if e.Logger != nil {
		e.Logger.Info("loaded csv", slog.String("table", table), slog.Int("rows", count))
	}
	return nil
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
