package adapter

// Config holds protocol configuration as a JSON map.
//
// Examples:
//
//	Modbus TCP: {"host": "10.0.0.5", "port": 502, "unitId": 3,
//	             "registerAddress": 10, "registerCount": 2, "functionCode": 3}
//	MQTT:       {"brokerUrl": "tcp://broker:1883", "topic": "farm/+/telemetry", "qos": 1}
//	SNMP:       {"host": "10.0.0.9", "port": 161, "community": "public",
//	             "oids": [".1.3.6.1.2.1.1.3.0"]}
type Config map[string]any

// Clone returns a deep copy of the configuration. Nested maps and
// slices are recursively copied so modifications to the clone do not
// affect the original.
func (c Config) Clone() Config {
	if c == nil {
		return nil
	}
	cpy := make(Config, len(c))
	for k, v := range c {
		cpy[k] = cloneValue(v)
	}
	return cpy
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		cpy := make(map[string]any, len(val))
		for k, nested := range val {
			cpy[k] = cloneValue(nested)
		}
		return cpy
	case Config:
		return map[string]any(val.Clone())
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = cloneValue(elem)
		}
		return cpy
	default:
		// Primitives are safe to copy by value
		return v
	}
}

// String returns the named value as a string. The second result is
// false when the key is missing or not a string.
func (c Config) String(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}

// Number returns the named value as a float64, accepting the numeric
// types produced by JSON and YAML decoding.
func (c Config) Number(key string) (float64, bool) {
	switch v := c[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// Int returns the named value as an int, truncating floats that carry
// no fractional part.
func (c Config) Int(key string) (int, bool) {
	n, ok := c.Number(key)
	if !ok || n != float64(int(n)) {
		return 0, false
	}
	return int(n), true
}

// Bool returns the named value as a bool.
func (c Config) Bool(key string) (bool, bool) {
	b, ok := c[key].(bool)
	return b, ok
}

// Strings returns the named value as a string slice, accepting both
// []string and []any of strings.
func (c Config) Strings(key string) ([]string, bool) {
	switch v := c[key].(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			s, ok := elem.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
