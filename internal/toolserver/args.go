package toolserver

import (
	"encoding/json"
	"fmt"
)

// argString/argInt/argBool read an optional argument, returning the zero
// value and false if absent or the wrong type — callers that require the
// argument report a failInput envelope themselves.
func argString(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func requireString(args map[string]any, key string) (string, error) {
	s, ok := argString(args, key)
	if !ok || s == "" {
		return "", fmt.Errorf("%q is required", key)
	}
	return s, nil
}

func argStringOr(args map[string]any, key, def string) string {
	if s, ok := argString(args, key); ok {
		return s
	}
	return def
}

func argInt(args map[string]any, key string, def int) int {
	v, ok := args[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return def
		}
		return int(i)
	case float64:
		return int(n)
	case int:
		return n
	default:
		return def
	}
}

func argBoolPtr(args map[string]any, key string) *bool {
	v, ok := args[key]
	if !ok || v == nil {
		return nil
	}
	b, ok := v.(bool)
	if !ok {
		return nil
	}
	return &b
}

func argBool(args map[string]any, key string, def bool) bool {
	if b := argBoolPtr(args, key); b != nil {
		return *b
	}
	return def
}

func argStringSlice(args map[string]any, key string) []string {
	v, ok := args[key]
	if !ok || v == nil {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// decodeInto re-marshals a tool-call argument (already decoded as
// map[string]any/[]any/json.Number by pkg/mcp's json.Decoder) back to JSON
// and unmarshals it into dst, reusing dst's own `json:"..."` tags instead of
// hand-rolling a second parse of the same shape.
func decodeInto(v any, dst any) error {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dst)
}
