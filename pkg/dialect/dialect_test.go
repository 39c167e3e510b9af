package dialect

import (
	"testing"

	"github.com/bridgeql/bridgeql/pkg/core"
	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name    string
		dialect core.SourceDialect
		in      string
		want    string
	}{
		{
			name:    "mysql ifnull",
			dialect: core.DialectMySQL,
			in:      "SELECT IFNULL(a, 0) FROM t",
			want:    "SELECT COALESCE(a, 0) FROM t",
		},
		{
			name:    "mysql if to case",
			dialect: core.DialectMySQL,
			in:      "SELECT IF(a > 1, 'big', 'small') FROM t",
			want:    "SELECT CASE WHEN a > 1 THEN 'big' ELSE 'small' END FROM t",
		},
		{
			name:    "mysql curdate",
			dialect: core.DialectMySQL,
			in:      "SELECT * FROM t WHERE d = CURDATE()",
			want:    "SELECT * FROM t WHERE d = current_date",
		},
		{
			name:    "sqlserver getdate and isnull",
			dialect: core.DialectSQLServer,
			in:      "SELECT ISNULL(a, 0), GETDATE() FROM t",
			want:    "SELECT COALESCE(a, 0), now() FROM t",
		},
		{
			name:    "sqlserver convert with style dropped",
			dialect: core.DialectSQLServer,
			in:      "SELECT CONVERT(VARCHAR, a, 120) FROM t",
			want:    "SELECT CAST(a AS VARCHAR) FROM t",
		},
		{
			name:    "sqlserver try_convert",
			dialect: core.DialectSQLServer,
			in:      "SELECT TRY_CONVERT(INT, a) FROM t",
			want:    "SELECT TRY_CAST(a AS INT) FROM t",
		},
		{
			name:    "sqlserver iif nested call argument",
			dialect: core.DialectSQLServer,
			in:      "SELECT IIF(LEN(a) > 1, upper(a), a) FROM t",
			want:    "SELECT CASE WHEN LENGTH(a) > 1 THEN upper(a) ELSE a END FROM t",
		},
		{
			name:    "function name inside string untouched",
			dialect: core.DialectSQLServer,
			in:      "SELECT 'call GETDATE() later' FROM t",
			want:    "SELECT 'call GETDATE() later' FROM t",
		},
		{
			name:    "name without call syntax untouched",
			dialect: core.DialectSQLServer,
			in:      "SELECT len FROM t",
			want:    "SELECT len FROM t",
		},
		{
			name:    "lowercase matches",
			dialect: core.DialectMySQL,
			in:      "select ifnull(a, 0) from t",
			want:    "select COALESCE(a, 0) from t",
		},
		{
			name:    "postgres to_date translates the template",
			dialect: core.DialectPostgres,
			in:      "SELECT TO_DATE(d, 'YYYY-MM-DD') FROM t",
			want:    "SELECT strptime(d, '%Y-%m-%d') FROM t",
		},
		{
			name:    "postgres to_timestamp with time tokens",
			dialect: core.DialectPostgres,
			in:      "SELECT TO_TIMESTAMP(d, 'DD/MM/YYYY HH24:MI:SS') FROM t",
			want:    "SELECT strptime(d, '%d/%m/%Y %H:%M:%S') FROM t",
		},
		{
			name:    "postgres to_date month name token",
			dialect: core.DialectPostgres,
			in:      "SELECT TO_DATE(d, 'DD Mon YYYY') FROM t",
			want:    "SELECT strptime(d, '%d %b %Y') FROM t",
		},
		{
			name:    "postgres to_date without literal template untouched",
			dialect: core.DialectPostgres,
			in:      "SELECT TO_DATE(d, fmt) FROM t",
			want:    "SELECT TO_DATE(d, fmt) FROM t",
		},
		{
			name:    "canonical dialect passes through",
			dialect: core.DialectDuckDB,
			in:      "SELECT COALESCE(a, 0) FROM t",
			want:    "SELECT COALESCE(a, 0) FROM t",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Translate(core.NewQuery(tt.in, tt.dialect))
			assert.Equal(t, tt.want, got.Text)
			assert.Equal(t, tt.in != tt.want, got.Changed)

			again := Translate(core.NewQuery(got.Text, tt.dialect))
			assert.Equal(t, got.Text, again.Text, "must be idempotent")
			assert.False(t, again.Changed)
		})
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		sql  string
		want core.SourceDialect
	}{
		{"SELECT `order total` FROM t", core.DialectMySQL},
		{"SELECT [order total] FROM t WHERE ISNULL(a, 0) = 1", core.DialectSQLServer},
		{"SELECT a::text FROM t", core.DialectPostgres},
		{"SELECT a FROM t WHERE b ILIKE 'x%'", core.DialectPostgres},
		{"SELECT a FROM t", core.DialectDuckDB},
	}

	for _, tt := range tests {
		t.Run(tt.sql, func(t *testing.T) {
			assert.Equal(t, tt.want, Detect(tt.sql))
		})
	}
}
