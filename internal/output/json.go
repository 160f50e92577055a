package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter renders values as JSON.
type JSONFormatter struct {
	Indent bool
}

// Format writes v as a single JSON document.
func (f *JSONFormatter) Format(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
