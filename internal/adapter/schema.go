package adapter

import "sort"

// Schema is the structural configuration schema for a protocol.
//
// The ~40 per-protocol schema tables are configuration data expressed in
// these types; the generic validation rules (required, type, min/max,
// enum, pattern, format) are applied by the validation package.
type Schema struct {
	// Fields maps configuration keys to their specifications.
	Fields map[string]Field `json:"fields"`

	// Order lists field names in declaration order so validation errors
	// are reported deterministically. Keys absent from Order are checked
	// after the ordered ones, sorted alphabetically.
	Order []string `json:"order,omitempty"`
}

// Field specifies the structural rules for one configuration key.
type Field struct {
	Type        FieldType `json:"type"`
	Required    bool      `json:"required,omitempty"`
	Default     any       `json:"default,omitempty"`
	Description string    `json:"description,omitempty"`

	// Numeric bounds, applied to number and integer fields.
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`

	// Enum restricts the value to a fixed set.
	Enum []any `json:"enum,omitempty"`

	// Pattern is a regular expression applied to string fields. It is
	// compiled once by the validator and cached.
	Pattern string `json:"pattern,omitempty"`

	// Format is a named semantic string check: "host", "url" or "uuid".
	Format string `json:"format,omitempty"`
}

// FieldType is the declared type of a configuration field.
type FieldType string

// FieldType constants.
const (
	FieldString  FieldType = "string"
	FieldNumber  FieldType = "number"
	FieldInteger FieldType = "integer"
	FieldBoolean FieldType = "boolean"
	FieldList    FieldType = "list"
	FieldObject  FieldType = "object"
)

// FieldNames returns all field names in reporting order: the declared
// Order first, then any remaining keys alphabetically.
func (s Schema) FieldNames() []string {
	seen := make(map[string]bool, len(s.Fields))
	names := make([]string, 0, len(s.Fields))
	for _, name := range s.Order {
		if _, ok := s.Fields[name]; ok && !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range s.Fields {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// Defaults collects the declared field defaults into a configuration.
// Adapters derive their default configuration from the schema so the
// two can never drift apart.
func (s Schema) Defaults() Config {
	cfg := make(Config)
	for name, field := range s.Fields {
		if field.Default != nil {
			cfg[name] = field.Default
		}
	}
	return cfg
}

// NumPtr returns a pointer to v, for use in Field Min/Max literals.
func NumPtr(v float64) *float64 {
	return &v
}
