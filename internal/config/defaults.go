package config

// Default configuration values.
const (
	DefaultTargetType    = "duckdb"
	DefaultSchema        = "main"
	DefaultSampleLimit   = 200
	DefaultBaseThreshold = 0.95
	// DefaultLoweredThreshold applies when the column name suggests numeric
	// content; dirty-but-numeric columns rarely clear the base threshold.
	DefaultLoweredThreshold = 0.60
)

// DefaultNumericPatterns are column-name patterns that suggest numeric
// content and lower the inference threshold.
var DefaultNumericPatterns = []string{
	"amount", "price", "cost", "total", "qty", "quantity", "count",
	"balance", "rate", "score",
}

// DefaultIdentifierPatterns are column-name patterns that suggest
// identifier-like content and disable numeric inference outright.
var DefaultIdentifierPatterns = []string{
	"_id$", "^id$", "code", "zip", "postal", "phone", "ssn", "uuid",
}

// defaults is the confmap layer every load starts from; file and environment
// layers override it key by key.
func defaults() map[string]any {
	return map[string]any{
		"target.type":               DefaultTargetType,
		"target.schema":             DefaultSchema,
		"infer.sample_limit":        DefaultSampleLimit,
		"infer.base_threshold":      DefaultBaseThreshold,
		"infer.lowered_threshold":   DefaultLoweredThreshold,
		"infer.numeric_patterns":    DefaultNumericPatterns,
		"infer.identifier_patterns": DefaultIdentifierPatterns,
	}
}

// ApplyDefaults fills zero values on a Config loaded without the koanf
// layering, e.g. one constructed in code.
func ApplyDefaults(c *Config) {
	if c == nil {
		return
	}
	if c.Target == nil {
		c.Target = &TargetConfig{}
	}
	if c.Target.Type == "" {
		c.Target.Type = DefaultTargetType
	}
	if c.Target.Schema == "" {
		c.Target.Schema = DefaultSchema
	}
	if c.Infer.SampleLimit == 0 {
		c.Infer.SampleLimit = DefaultSampleLimit
	}
	if c.Infer.BaseThreshold == 0 {
		c.Infer.BaseThreshold = DefaultBaseThreshold
	}
	if c.Infer.LoweredThreshold == 0 {
		c.Infer.LoweredThreshold = DefaultLoweredThreshold
	}
	if c.Infer.NumericPatterns == nil {
		c.Infer.NumericPatterns = DefaultNumericPatterns
	}
	if c.Infer.IdentifierPatterns == nil {
		c.Infer.IdentifierPatterns = DefaultIdentifierPatterns
	}
}
