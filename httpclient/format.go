package httpclient

import (
	"bytes"
	"encoding/json"
)

// FormatBody pretty-prints body with two-space indentation when it is a JSON document and returns it
// unchanged otherwise. Key order and number formatting are preserved.
func FormatBody(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || !json.Valid(trimmed) {
		return string(body)
	}

	var buf bytes.Buffer
	if err := json.Indent(&buf, trimmed, "", "  "); err != nil {
		return string(body)
	}
	return buf.String()
}
