package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bridgeql/bridgeql/pkg/core"
	"github.com/bridgeql/bridgeql/pkg/engine"
)

// scriptedEngine returns canned responses per Execute call, in order, and
// records everything it was asked to run.
type scriptedEngine struct {
	executed []string
	results  []*engine.Result
	errs     []error
	probed   map[string][]string
}

func (s *scriptedEngine) Connect(context.Context, engine.Config) error { return nil }
func (s *scriptedEngine) Close() error                                 { return nil }

func (s *scriptedEngine) Execute(_ context.Context, sql string) (*engine.Result, error) {
	i := len(s.executed)
	s.executed = append(s.executed, sql)
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i < len(s.results) {
		return s.results[i], nil
	}
	return &engine.Result{Columns: []string{"ok"}, Rows: [][]any{{int64(1)}}}, nil
}

func (s *scriptedEngine) DescribeColumns(context.Context, string) ([]engine.Column, error) {
	return nil, errors.New("not scripted")
}

func (s *scriptedEngine) ProbeSchema(_ context.Context, subquery string) ([]string, error) {
	if cols, ok := s.probed[subquery]; ok {
		return cols, nil
	}
	return nil, errors.New("not scripted")
}

func (s *scriptedEngine) SampleColumn(context.Context, string, string, int) ([]string, error) {
	return nil, errors.New("not scripted")
}

func (s *scriptedEngine) LoadCSV(context.Context, string, string) error {
	return errors.New("not scripted")
}

func textProfiles() *core.ProfileSet {
	return core.NewProfileSet("orders", []core.ColumnProfile{
		{Name: "amount", Canonical: "amount", Kind: core.KindText, TreatAsNumeric: true},
		{Name: "ref", Canonical: "ref", Kind: core.KindText},
		{Name: "qty", Canonical: "qty", Kind: core.KindNumeric},
	})
}

func TestProcessor_Validate(t *testing.T) {
	p := New(&scriptedEngine{}, nil, nil)

	tests := []struct {
		name   string
		query  string
		valid  bool
		errHas string
	}{
		{name: "plain select", query: "SELECT 1", valid: true},
		{name: "with cte", query: "WITH x AS (SELECT 1) SELECT * FROM x", valid: true},
		{name: "unbalanced quote", query: "SELECT 'abc FROM t", valid: false, errHas: "quotes"},
		{name: "unbalanced paren", query: "SELECT (1 FROM t", valid: false, errHas: "parentheses"},
		{name: "ddl rejected", query: "DROP TABLE t", valid: false, errHas: "begin with"},
		{name: "dml rejected", query: "INSERT INTO t VALUES (1)", valid: false, errHas: "begin with"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := p.Validate(tt.query)
			assert.Equal(t, tt.valid, res.Valid)
			if tt.errHas != "" {
				require.NotEmpty(t, res.Errors)
				assert.Contains(t, strings.Join(res.Errors, "; "), tt.errHas)
			}
		})
	}
}

func TestProcessor_ValidateWarnsOnForeignDialect(t *testing.T) {
	p := New(&scriptedEngine{}, nil, nil)
	res := p.Validate("SELECT `amount` FROM orders")
	require.True(t, res.Valid)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "mysql")
}

func TestProcess_StructuralErrorNeverExecutes(t *testing.T) {
	eng := &scriptedEngine{}
	p := New(eng, nil, nil)

	out := p.Process(context.Background(), core.NewQuery("SELECT 'oops FROM t", core.DialectMySQL), nil)

	assert.False(t, out.OK)
	require.NotNil(t, out.Err)
	assert.Equal(t, core.ErrStructural, out.Err.Kind)
	assert.Empty(t, eng.executed, "structural failures must not reach the engine")
}

func TestProcess_Success(t *testing.T) {
	eng := &scriptedEngine{
		results: []*engine.Result{{Columns: []string{"amount"}, Rows: [][]any{{"12"}, {"7"}}}},
	}
	p := New(eng, nil, nil)

	q := core.NewQuery("SELECT amount FROM orders WHERE qty > 1", core.DialectDuckDB)
	out := p.Process(context.Background(), q, textProfiles())

	require.Nil(t, out.Err)
	assert.True(t, out.OK)
	assert.Equal(t, 2, out.RowCount)
	assert.Equal(t, 1, out.ColumnCount)
	assert.NotEmpty(t, out.ID)
	assert.False(t, out.Retried)
}

func TestProcess_PreExecutionHarmonization(t *testing.T) {
	eng := &scriptedEngine{}
	p := New(eng, nil, nil)

	q := core.NewQuery("SELECT * FROM orders WHERE amount LIKE '1%'", core.DialectDuckDB)
	out := p.Process(context.Background(), q, textProfiles())

	require.True(t, out.OK)
	require.Len(t, eng.executed, 1)
	assert.Equal(t, "SELECT * FROM orders WHERE CAST((amount) AS VARCHAR) LIKE '1%'", eng.executed[0])
	assert.Equal(t, eng.executed[0], out.FinalSQL)
}

func TestProcess_DialectTranslationRuns(t *testing.T) {
	eng := &scriptedEngine{}
	p := New(eng, nil, nil)

	q := core.NewQuery("SELECT IFNULL(qty, 0) FROM orders", core.DialectMySQL)
	out := p.Process(context.Background(), q, textProfiles())

	require.True(t, out.OK)
	require.Len(t, eng.executed, 1)
	assert.Equal(t, "SELECT COALESCE(qty, 0) FROM orders", eng.executed[0])
}

func TestProcess_PatternErrorRetriesOnce(t *testing.T) {
	binderErr := errors.New(`Binder Error: No function matches the given name and argument types '~~(BIGINT, STRING_LITERAL)'`)
	eng := &scriptedEngine{
		errs:    []error{binderErr},
		results: []*engine.Result{nil, {Columns: []string{"qty"}, Rows: [][]any{{int64(10)}}}},
	}
	p := New(eng, nil, nil)

	// An arithmetic operand is not a shape the fast pass rewrites; only the
	// engine's complaint reveals the mismatch, and the exact pass repairs it.
	q := core.NewQuery("SELECT * FROM orders WHERE qty * 2 LIKE '1%'", core.DialectDuckDB)
	out := p.Process(context.Background(), q, textProfiles())

	require.Len(t, eng.executed, 2)
	assert.NotContains(t, eng.executed[0], "CAST")
	assert.Contains(t, eng.executed[1], "CAST((qty * 2) AS VARCHAR) LIKE '1%'")
	assert.True(t, out.OK)
	assert.True(t, out.Retried)
}

func TestProcess_BoundedRetry(t *testing.T) {
	// An engine that fails every attempt with the same class must see exactly
	// one rewrite-and-retry cycle before the pipeline gives up.
	binderErr := errors.New(`Binder Error: No function matches the given name and argument types '~~(BIGINT, STRING_LITERAL)'`)
	eng := &scriptedEngine{errs: []error{binderErr, binderErr, binderErr}}
	p := New(eng, nil, nil)

	q := core.NewQuery("SELECT * FROM orders WHERE qty * 2 LIKE '1%'", core.DialectDuckDB)
	out := p.Process(context.Background(), q, textProfiles())

	assert.Len(t, eng.executed, 2, "exactly one retry per error class")
	assert.False(t, out.OK)
	require.NotNil(t, out.Err)
	assert.Equal(t, core.ErrPatternOperator, out.Err.Kind)
	assert.True(t, out.Retried)
}

func TestProcess_PatternErrorWithNothingToFix(t *testing.T) {
	binderErr := errors.New(`Binder Error: No function matches the given name and argument types '~~(BIGINT, STRING_LITERAL)'`)
	eng := &scriptedEngine{errs: []error{binderErr}}
	p := New(eng, nil, nil)

	// No LIKE anywhere the exact pass could still wrap: it already ran in the
	// fast pass, so the repair is a no-op and the diagnostic carries a hint.
	q := core.NewQuery("SELECT qty FROM orders", core.DialectDuckDB)
	out := p.Process(context.Background(), q, textProfiles())

	assert.Len(t, eng.executed, 1)
	assert.False(t, out.OK)
	require.NotNil(t, out.Err)
	require.NotEmpty(t, out.Notes)
	assert.Contains(t, out.Notes[len(out.Notes)-1], "CAST")
}

func TestProcess_ConversionErrorTriggersUnionRepair(t *testing.T) {
	convErr := errors.New(`Conversion Error: Could not convert string 'abc' to INT64`)
	left := "SELECT ref FROM orders"
	right := "SELECT qty FROM orders"
	eng := &scriptedEngine{
		errs:    []error{convErr},
		results: []*engine.Result{nil, {Columns: []string{"ref"}, Rows: [][]any{{"x"}}}},
		probed: map[string][]string{
			left:  {"ref"},
			right: {"qty"},
		},
	}
	p := New(eng, nil, nil)

	q := core.NewQuery(left+" UNION ALL "+right, core.DialectDuckDB)
	out := p.Process(context.Background(), q, textProfiles())

	require.Len(t, eng.executed, 2)
	assert.Contains(t, eng.executed[1], `CAST((ref) AS VARCHAR) AS ref FROM (SELECT ref FROM orders) AS u0`)
	assert.Contains(t, eng.executed[1], `CAST((qty) AS VARCHAR) AS ref FROM (SELECT qty FROM orders) AS u1`)
	assert.True(t, out.OK)
	assert.True(t, out.Retried)
}

func TestProcess_UnrecoverableErrorSurfacesImmediately(t *testing.T) {
	eng := &scriptedEngine{
		errs: []error{errors.New("Catalog Error: Table with name missing does not exist")},
	}
	p := New(eng, nil, nil)

	out := p.Process(context.Background(), core.NewQuery("SELECT x FROM missing", core.DialectDuckDB), nil)

	assert.Len(t, eng.executed, 1)
	assert.False(t, out.OK)
	require.NotNil(t, out.Err)
	assert.Equal(t, core.ErrOther, out.Err.Kind)
	assert.False(t, out.Retried)
}

func TestProcess_QuotedIdentifiersNormalized(t *testing.T) {
	eng := &scriptedEngine{}
	p := New(eng, nil, nil)

	profiles := core.NewProfileSet("orders", []core.ColumnProfile{
		{Name: "order id", Canonical: "order_id", Kind: core.KindNumeric},
	})
	q := core.NewQuery(`SELECT "order id" FROM orders`, core.DialectDuckDB)
	out := p.Process(context.Background(), q, profiles)

	require.True(t, out.OK)
	require.Len(t, eng.executed, 1)
	assert.Equal(t, "SELECT order_id FROM orders", eng.executed[0])
}
