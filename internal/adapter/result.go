package adapter

// ValidationResult is the outcome of configuration validation. It is
// always returned as data; validation never raises errors and never
// mutates shared state.
type ValidationResult struct {
	Valid    bool         `json:"is_valid"`
	Errors   []FieldError `json:"errors,omitempty"`
	Warnings []Warning    `json:"warnings,omitempty"`
}

// FieldError describes one violated validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Warning is a non-fatal validation note.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validation rule codes attached to FieldError.Code.
const (
	CodeRequired = "required"
	CodeType     = "type"
	CodeMin      = "min"
	CodeMax      = "max"
	CodeEnum     = "enum"
	CodePattern  = "pattern"
	CodeFormat   = "format"
	CodeSemantic = "semantic"
)

// OK returns a passing validation result.
func OK() ValidationResult {
	return ValidationResult{Valid: true}
}

// Fail returns a failing validation result with a single field error.
func Fail(field, message, code string) ValidationResult {
	return ValidationResult{
		Valid:  false,
		Errors: []FieldError{{Field: field, Message: message, Code: code}},
	}
}

// Merge combines two results: the merged result is valid only when both
// are, and errors and warnings are concatenated in order.
func Merge(a, b ValidationResult) ValidationResult {
	return ValidationResult{
		Valid:    a.Valid && b.Valid,
		Errors:   append(append([]FieldError{}, a.Errors...), b.Errors...),
		Warnings: append(append([]Warning{}, a.Warnings...), b.Warnings...),
	}
}
