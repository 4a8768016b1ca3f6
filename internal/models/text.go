package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// CoerceText turns an arbitrary JSON value into text.
// Strings are unquoted, null becomes "", numbers and booleans keep their
// literal form, and objects/arrays are returned in compact JSON.
func CoerceText(raw json.RawMessage) string {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ""
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, trimmed); err != nil {
		return strings.TrimSpace(string(trimmed))
	}
	return buf.String()
}
