package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"already clean", "amount", "amount"},
		{"case preserved", "TotalAmount", "TotalAmount"},
		{"spaces become underscores", "order total", "order_total"},
		{"punctuation collapsed", "price ($ / unit)", "price_unit"},
		{"repeats collapse", "a---b", "a_b"},
		{"leading trailing trimmed", "__name__", "name"},
		{"digit led gets prefix", "2024 sales", "c_2024_sales"},
		{"empty becomes placeholder", "???", "col"},
		{"unicode replaced", "prix (€)", "prix"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, Normalize(tt.in), "must be deterministic")
		})
	}
}

func TestBuildMapping_Bijection(t *testing.T) {
	names := []string{"order total", "order-total", "order_total", "Order Total"}
	m := BuildMapping(names)

	require.Equal(t, len(names), m.Len())

	seen := map[string]string{}
	for _, name := range names {
		canon, ok := m.Canonical(name)
		require.True(t, ok, "missing mapping for %q", name)
		prev, dup := seen[canon]
		require.False(t, dup, "canonical %q maps both %q and %q", canon, prev, name)
		seen[canon] = name

		back, ok := m.Original(canon)
		require.True(t, ok)
		assert.Equal(t, name, back)
	}
}

func TestBuildMapping_SuffixesCollisions(t *testing.T) {
	m := BuildMapping([]string{"a b", "a-b"})

	first, _ := m.Canonical("a b")
	second, _ := m.Canonical("a-b")
	assert.Equal(t, "a_b", first)
	assert.Equal(t, "a_b_2", second)
}

func TestRewriteQuotedIdentifiers(t *testing.T) {
	m := BuildMapping([]string{"order total", "from"})

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "double quoted",
			query: `SELECT "order total" FROM t`,
			want:  `SELECT order_total FROM t`,
		},
		{
			name:  "backtick quoted",
			query: "SELECT `order total` FROM t",
			want:  `SELECT order_total FROM t`,
		},
		{
			name:  "bracket quoted",
			query: `SELECT [order total] FROM t`,
			want:  `SELECT order_total FROM t`,
		},
		{
			name:  "reserved word stays quoted",
			query: `SELECT "from" FROM t`,
			want:  `SELECT "from" FROM t`,
		},
		{
			name:  "string literal untouched",
			query: `SELECT "order total" FROM t WHERE note = 'the "order total" note'`,
			want:  `SELECT order_total FROM t WHERE note = 'the "order total" note'`,
		},
		{
			name:  "unmapped identifier still normalized",
			query: `SELECT "unit price" FROM t`,
			want:  `SELECT unit_price FROM t`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RewriteQuotedIdentifiers(tt.query, m)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, RewriteQuotedIdentifiers(got, m), "must be idempotent")
		})
	}
}
