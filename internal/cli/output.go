package cli

import (
	"encoding/json"
	"io"
)

// render writes v as indented JSON, or calls text for the text format.
func render(w io.Writer, format string, v any, text func(io.Writer) error) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return text(w)
}
