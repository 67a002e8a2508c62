package graph

import (
	"encoding/json"
	"fmt"
)

// State is an open-ended key/value payload for workflows whose shape is not
// known at compile time, such as graphs assembled over HTTP.
//
// Values decoded from JSON arrive as float64, []any and map[string]any; the
// typed accessors accept the common numeric representations so nodes do not
// have to care whether the state came from Go code or from a request body.
type State map[string]any

// Int returns the integer stored under key, or 0 when the key is missing or
// not numeric.
func (s State) Int(key string) int {
	switch v := s[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case float64:
		return int(v)
	case float32:
		return int(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return 0
			}
			return int(f)
		}
		return int(n)
	default:
		return 0
	}
}

// String returns the string stored under key, or "" when missing.
func (s State) String(key string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return ""
}

// Strings returns the string slice stored under key. Elements of a []any
// that are not strings are skipped.
func (s State) Strings(key string) []string {
	switch v := s[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	default:
		return nil
	}
}

// Has reports whether key is present, even with a nil value.
func (s State) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Clone returns a deep copy of the state. A nil state clones to an empty one.
func (s State) Clone() (State, error) {
	if s == nil {
		return State{}, nil
	}
	copied, err := deepCopy(s)
	if err != nil {
		return nil, err
	}
	if copied == nil {
		copied = State{}
	}
	return copied, nil
}

// deepCopy creates a deep copy of state S using JSON round-trip serialization.
//
// Limitations:
//   - Unexported struct fields are not copied
//   - Channels, functions, and complex types that don't marshal to JSON will fail
//   - Integers inside an any become float64
func deepCopy[S any](state S) (S, error) {
	var zero S

	data, err := json.Marshal(state)
	if err != nil {
		return zero, fmt.Errorf("failed to marshal state: %w", err)
	}

	var copied S
	if err := json.Unmarshal(data, &copied); err != nil {
		return zero, fmt.Errorf("failed to unmarshal state: %w", err)
	}

	return copied, nil
}
