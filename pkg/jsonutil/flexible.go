// Package jsonutil handles the loose JSON shapes that language models emit.
package jsonutil

import (
	"encoding/json"
	"strconv"
)

// FlexibleString converts a raw JSON value to a string, tolerating models
// that emit numbers or booleans where a string was requested. Null and
// empty values become the empty string.
func FlexibleString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if n == float64(int64(n)) {
			return strconv.FormatInt(int64(n), 10)
		}
		return strconv.FormatFloat(n, 'g', -1, 64)
	}

	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return strconv.FormatBool(b)
	}

	return string(raw)
}

// FlexibleStringMap decodes a JSON object into a map of strings, applying
// FlexibleString to every value. Returns an error only when the input is
// not a JSON object at all.
func FlexibleStringMap(data []byte) (map[string]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		out[k] = FlexibleString(v)
	}
	return out, nil
}
