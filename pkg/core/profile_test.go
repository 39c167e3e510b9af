package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindFromDeclaredType(t *testing.T) {
	tests := []struct {
		declared string
		want     StorageKind
	}{
		{declared: "VARCHAR", want: KindText},
		{declared: "varchar(255)", want: KindText},
		{declared: "TEXT", want: KindText},
		{declared: "BIGINT", want: KindNumeric},
		{declared: "DECIMAL(18,3)", want: KindNumeric},
		{declared: "double precision", want: KindNumeric},
		{declared: "BOOLEAN", want: KindBoolean},
		{declared: "TIMESTAMP WITH TIME ZONE", want: KindTemporal},
		{declared: "DATE", want: KindTemporal},
		{declared: "BLOB", want: KindBinary},
		{declared: "GEOMETRY", want: KindUnknown},
		{declared: "", want: KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.declared, func(t *testing.T) {
			assert.Equal(t, tt.want, KindFromDeclaredType(tt.declared))
		})
	}
}

func TestProfileSet_Lookup(t *testing.T) {
	ps := NewProfileSet("orders", []ColumnProfile{
		{Name: "order id", Canonical: "order_id", Kind: KindNumeric},
		{Name: "amount", Kind: KindText},
	})

	p, ok := ps.Lookup("ORDER_ID")
	require.True(t, ok)
	assert.Equal(t, "order id", p.Name)

	// Falls back to the original name when no canonical form was set.
	_, ok = ps.Lookup("amount")
	assert.True(t, ok)

	_, ok = ps.Lookup("missing")
	assert.False(t, ok)

	// A nil set declines everything.
	var nilSet *ProfileSet
	_, ok = nilSet.Lookup("amount")
	assert.False(t, ok)
}
