package rpc

import "encoding/json"

// Typed accessors for Params. Handlers receive parameters that either came
// straight from the interpreter (native Go values) or crossed a JSON
// transport (strings, float64 numbers, []any slices); these helpers accept
// both representations.

// String returns the string value for key, or "" when absent or not a
// string.
func (p Params) String(key string) string {
	if value, ok := p[key].(string); ok {
		return value
	}
	return ""
}

// Bool returns the boolean value for key, or false when absent or not a
// boolean.
func (p Params) Bool(key string) bool {
	if value, ok := p[key].(bool); ok {
		return value
	}
	return false
}

// Int returns the integer value for key, or fallback when the key is
// absent or not numeric.
func (p Params) Int(key string, fallback int) int {
	switch value := p[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	case json.Number:
		if n, err := value.Int64(); err == nil {
			return int(n)
		}
	}
	return fallback
}

// StringSlice returns the string-list value for key. Both []string and the
// []any produced by JSON decoding are accepted; non-string elements are
// dropped.
func (p Params) StringSlice(key string) []string {
	switch value := p[key].(type) {
	case []string:
		return value
	case []any:
		out := make([]string, 0, len(value))
		for _, element := range value {
			if s, ok := element.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Has reports whether key is present at all, regardless of its type.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}
