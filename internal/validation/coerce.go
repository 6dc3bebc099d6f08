package validation

import (
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/nerrad567/fieldlink-core/internal/adapter"
)

// coerceValue converts raw to the canonical representation of the
// declared field type. Numbers canonicalise to float64. Numeric strings
// coerce to numbers and numbers to strings; booleans are never coerced.
func coerceValue(raw any, t adapter.FieldType) (any, bool) {
	switch t {
	case adapter.FieldString:
		switch v := raw.(type) {
		case string:
			return v, true
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		case int:
			return strconv.Itoa(v), true
		case int64:
			return strconv.FormatInt(v, 10), true
		}
		return nil, false

	case adapter.FieldNumber:
		return toFloat(raw)

	case adapter.FieldInteger:
		n, ok := toFloat(raw)
		if !ok {
			return nil, false
		}
		f := n.(float64)
		if f != float64(int64(f)) {
			return nil, false
		}
		return f, true

	case adapter.FieldBoolean:
		b, ok := raw.(bool)
		if !ok {
			return nil, false
		}
		return b, true

	case adapter.FieldList:
		switch v := raw.(type) {
		case []any:
			return v, true
		case []string:
			out := make([]any, len(v))
			for i, s := range v {
				out[i] = s
			}
			return out, true
		}
		return nil, false

	case adapter.FieldObject:
		switch v := raw.(type) {
		case map[string]any:
			return v, true
		case adapter.Config:
			return map[string]any(v), true
		}
		return nil, false
	}

	return nil, false
}

func toFloat(raw any) (any, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, false
		}
		return f, true
	}
	return nil, false
}

// normalise canonicalises numeric values to float64 so enum comparison
// works across int/float representations.
func normalise(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case float32:
		return float64(n)
	}
	return v
}

// hostnameLabelRegex matches one RFC 1123 hostname label.
var hostnameLabelRegex = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)

// checkFormat applies a named semantic string check. It returns an
// empty string on success or a short failure message.
func checkFormat(format, s string) string {
	switch format {
	case "host":
		if net.ParseIP(s) != nil {
			return ""
		}
		if len(s) == 0 || len(s) > 253 {
			return "must be a valid hostname or IP address"
		}
		for _, label := range strings.Split(s, ".") {
			if !hostnameLabelRegex.MatchString(label) {
				return "must be a valid hostname or IP address"
			}
		}
		return ""

	case "url":
		u, err := url.Parse(s)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return "must be a valid URL with a scheme"
		}
		return ""

	case "uuid":
		if _, err := uuid.Parse(s); err != nil {
			return "must be a valid UUID"
		}
		return ""
	}

	// Unknown formats are not enforced
	return ""
}
