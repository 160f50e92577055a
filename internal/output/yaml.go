package output

import (
	"io"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter renders values as YAML.
type YAMLFormatter struct{}

// Format writes v as a YAML document.
func (f *YAMLFormatter) Format(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
