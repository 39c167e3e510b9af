package core

import "strings"

// StorageKind is the declared storage class of a column.
type StorageKind int

const (
	KindUnknown StorageKind = iota
	KindText
	KindNumeric
	KindBoolean
	KindTemporal
	KindBinary
)

// String returns the lowercase name of the kind.
func (k StorageKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumeric:
		return "numeric"
	case KindBoolean:
		return "boolean"
	case KindTemporal:
		return "temporal"
	case KindBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// KindFromDeclaredType maps an engine-reported type name to a StorageKind.
// Parameterized forms like DECIMAL(18,3) are recognized by prefix.
func KindFromDeclaredType(declared string) StorageKind {
	t := strings.ToUpper(strings.TrimSpace(declared))
	if i := strings.IndexByte(t, '('); i >= 0 {
		t = t[:i]
	}
	switch t {
	case "VARCHAR", "CHAR", "TEXT", "STRING", "CHARACTER VARYING", "NVARCHAR", "NCHAR", "CLOB", "BPCHAR":
		return KindText
	case "TINYINT", "SMALLINT", "INTEGER", "INT", "BIGINT", "HUGEINT",
		"UTINYINT", "USMALLINT", "UINTEGER", "UBIGINT",
		"REAL", "FLOAT", "DOUBLE", "DOUBLE PRECISION", "DECIMAL", "NUMERIC":
		return KindNumeric
	case "BOOLEAN", "BOOL", "BIT":
		return KindBoolean
	case "DATE", "TIME", "TIMESTAMP", "TIMESTAMPTZ", "TIMESTAMP WITH TIME ZONE",
		"TIMESTAMP_S", "TIMESTAMP_MS", "TIMESTAMP_NS", "DATETIME", "INTERVAL":
		return KindTemporal
	case "BLOB", "BYTEA", "VARBINARY", "BINARY":
		return KindBinary
	default:
		return KindUnknown
	}
}

// ColumnProfile describes one column of a loaded table. Profiles are produced
// once per table by the ingestion collaborator and are read-only here.
type ColumnProfile struct {
	Name      string
	Canonical string
	Kind      StorageKind

	// NumericRatio is the fraction of sampled non-null values that parse as
	// numeric after stripping decoration. Meaningful only when Sampled.
	NumericRatio float64
	Sampled      bool

	// TreatAsNumeric is the inference verdict for a textual column: when
	// set, aggregate and ORDER BY coercion treat the column as numeric.
	// The orchestrator fills it in from the inference engine; ingestion
	// leaves it false.
	TreatAsNumeric bool
}

// ProfileSet indexes column profiles by canonical name for one table.
type ProfileSet struct {
	Table   string
	columns map[string]ColumnProfile
}

// NewProfileSet builds a ProfileSet from a profile list.
func NewProfileSet(table string, profiles []ColumnProfile) *ProfileSet {
	ps := &ProfileSet{Table: table, columns: make(map[string]ColumnProfile, len(profiles))}
	for _, p := range profiles {
		key := p.Canonical
		if key == "" {
			key = p.Name
		}
		ps.columns[strings.ToLower(key)] = p
	}
	return ps
}

// Lookup returns the profile for a column by canonical or original name,
// case-insensitively.
func (ps *ProfileSet) Lookup(column string) (ColumnProfile, bool) {
	if ps == nil {
		return ColumnProfile{}, false
	}
	p, ok := ps.columns[strings.ToLower(column)]
	return p, ok
}

// Columns returns all profiles in the set, in no particular order.
func (ps *ProfileSet) Columns() []ColumnProfile {
	if ps == nil {
		return nil
	}
	out := make([]ColumnProfile, 0, len(ps.columns))
	for _, p := range ps.columns {
		out = append(out, p)
	}
	return out
}
