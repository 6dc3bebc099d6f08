package validation

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/nerrad567/fieldlink-core/internal/adapter"
)

// AdapterSource resolves protocol codes to adapters. It is satisfied by
// *registry.Registry and by test fakes.
type AdapterSource interface {
	GetAdapter(code string) (adapter.Adapter, error)
}

// Validator runs the two-phase configuration pipeline on top of
// registry lookups. All methods are safe for concurrent use; validation
// never mutates the input configuration or any shared state.
type Validator struct {
	source AdapterSource

	// compiled caches the structural validator per protocol code.
	compiled map[string]*compiledSchema
	mu       sync.RWMutex
}

// New creates a validator backed by the given adapter source.
func New(source AdapterSource) *Validator {
	return &Validator{
		source:   source,
		compiled: make(map[string]*compiledSchema),
	}
}

// Validate runs both phases, short-circuiting after a phase-one
// failure. The returned error is non-nil only for unknown protocol
// codes; malformed configuration is reported inside the result.
func (v *Validator) Validate(code string, cfg adapter.Config) (adapter.ValidationResult, error) {
	a, err := v.source.GetAdapter(code)
	if err != nil {
		return adapter.ValidationResult{}, err
	}

	cs, err := v.compiledFor(code, a)
	if err != nil {
		return adapter.ValidationResult{}, err
	}

	// Phase 1: structural
	structural := cs.check(cfg)
	if !structural.Valid {
		return structural, nil
	}

	// Phase 2: adapter-specific semantics, on a coerced copy so the
	// adapter sees canonical types.
	semantic := a.ValidateConfig(cs.coerce(cfg))
	return adapter.Merge(structural, semantic), nil
}

// ApplyDefaults merges the schema defaults into cfg non-destructively:
// explicitly provided fields always win. The input map is not modified.
//
// ApplyDefaults(code, {}) equals the adapter's default configuration.
func (v *Validator) ApplyDefaults(code string, cfg adapter.Config) (adapter.Config, error) {
	a, err := v.source.GetAdapter(code)
	if err != nil {
		return nil, err
	}

	out := cfg.Clone()
	if out == nil {
		out = adapter.Config{}
	}
	for name, field := range a.Schema().Fields {
		if _, present := out[name]; present {
			continue
		}
		if field.Default != nil {
			out[name] = field.Default
		}
	}
	return out, nil
}

// Sanitize strips every key absent from the schema's declared fields.
// It is idempotent and does not modify the input map.
func (v *Validator) Sanitize(code string, cfg adapter.Config) (adapter.Config, error) {
	a, err := v.source.GetAdapter(code)
	if err != nil {
		return nil, err
	}

	fields := a.Schema().Fields
	out := make(adapter.Config, len(cfg))
	for k, val := range cfg {
		if _, declared := fields[k]; declared {
			out[k] = val
		}
	}
	return out.Clone(), nil
}

// Invalidate drops the compiled schema for one protocol code.
func (v *Validator) Invalidate(code string) {
	v.mu.Lock()
	delete(v.compiled, code)
	v.mu.Unlock()
}

// InvalidateAll drops every compiled schema.
func (v *Validator) InvalidateAll() {
	v.mu.Lock()
	v.compiled = make(map[string]*compiledSchema)
	v.mu.Unlock()
}

// compiledFor returns the cached compiled schema for code, compiling
// and caching it on first use.
func (v *Validator) compiledFor(code string, a adapter.Adapter) (*compiledSchema, error) {
	v.mu.RLock()
	cs, ok := v.compiled[code]
	v.mu.RUnlock()
	if ok {
		return cs, nil
	}

	cs, err := compileSchema(a.Schema())
	if err != nil {
		return nil, fmt.Errorf("compiling schema for %s: %w", code, err)
	}

	v.mu.Lock()
	// Another goroutine may have compiled meanwhile; either value is
	// equivalent, last writer wins.
	v.compiled[code] = cs
	v.mu.Unlock()
	return cs, nil
}

// compiledField is one field with its expensive pieces precomputed.
type compiledField struct {
	spec    adapter.Field
	pattern *regexp.Regexp
	enum    []any // enum values with numbers normalised to float64
}

// compiledSchema is a structural validator compiled from a Schema.
type compiledSchema struct {
	order  []string
	fields map[string]compiledField
}

func compileSchema(s adapter.Schema) (*compiledSchema, error) {
	cs := &compiledSchema{
		order:  s.FieldNames(),
		fields: make(map[string]compiledField, len(s.Fields)),
	}
	for name, field := range s.Fields {
		cf := compiledField{spec: field}
		if field.Pattern != "" {
			re, err := regexp.Compile(field.Pattern)
			if err != nil {
				return nil, fmt.Errorf("field %s: invalid pattern: %w", name, err)
			}
			cf.pattern = re
		}
		for _, e := range field.Enum {
			cf.enum = append(cf.enum, normalise(e))
		}
		cs.fields[name] = cf
	}
	return cs, nil
}

// check runs the structural rules over cfg and returns ordered
// field-level errors.
func (cs *compiledSchema) check(cfg adapter.Config) adapter.ValidationResult {
	var errs []adapter.FieldError

	for _, name := range cs.order {
		cf := cs.fields[name]

		raw, present := cfg[name]
		if !present || raw == nil {
			if cf.spec.Required && cf.spec.Default == nil {
				errs = append(errs, adapter.FieldError{
					Field:   name,
					Message: fmt.Sprintf("%s is required", name),
					Code:    adapter.CodeRequired,
				})
			}
			continue
		}

		value, ok := coerceValue(raw, cf.spec.Type)
		if !ok {
			errs = append(errs, adapter.FieldError{
				Field:   name,
				Message: fmt.Sprintf("%s must be of type %s", name, cf.spec.Type),
				Code:    adapter.CodeType,
			})
			continue
		}

		errs = append(errs, cf.checkValue(name, value)...)
	}

	return adapter.ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// checkValue applies the rule set to one coerced value.
func (cf compiledField) checkValue(name string, value any) []adapter.FieldError {
	var errs []adapter.FieldError

	if n, isNum := value.(float64); isNum {
		if cf.spec.Min != nil && n < *cf.spec.Min {
			errs = append(errs, adapter.FieldError{
				Field:   name,
				Message: fmt.Sprintf("%s must be at least %v", name, *cf.spec.Min),
				Code:    adapter.CodeMin,
			})
		}
		if cf.spec.Max != nil && n > *cf.spec.Max {
			errs = append(errs, adapter.FieldError{
				Field:   name,
				Message: fmt.Sprintf("%s must be at most %v", name, *cf.spec.Max),
				Code:    adapter.CodeMax,
			})
		}
	}

	if len(cf.enum) > 0 && !enumContains(cf.enum, normalise(value)) {
		errs = append(errs, adapter.FieldError{
			Field:   name,
			Message: fmt.Sprintf("%s must be one of %v", name, cf.spec.Enum),
			Code:    adapter.CodeEnum,
		})
	}

	if s, isStr := value.(string); isStr {
		if cf.pattern != nil && !cf.pattern.MatchString(s) {
			errs = append(errs, adapter.FieldError{
				Field:   name,
				Message: fmt.Sprintf("%s does not match required pattern", name),
				Code:    adapter.CodePattern,
			})
		}
		if cf.spec.Format != "" {
			if msg := checkFormat(cf.spec.Format, s); msg != "" {
				errs = append(errs, adapter.FieldError{
					Field:   name,
					Message: fmt.Sprintf("%s %s", name, msg),
					Code:    adapter.CodeFormat,
				})
			}
		}
	}

	return errs
}

// coerce returns a copy of cfg with every declared field converted to
// its canonical type where possible. Unknown keys pass through
// untouched; Sanitize is a separate, explicit operation.
func (cs *compiledSchema) coerce(cfg adapter.Config) adapter.Config {
	out := cfg.Clone()
	if out == nil {
		return adapter.Config{}
	}
	for name, cf := range cs.fields {
		raw, present := out[name]
		if !present || raw == nil {
			continue
		}
		if v, ok := coerceValue(raw, cf.spec.Type); ok {
			out[name] = v
		}
	}
	return out
}

func enumContains(enum []any, v any) bool {
	for _, e := range enum {
		if e == v {
			return true
		}
	}
	return false
}
