package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/hargabyte/h2y/internal/normalize"
)

// Render serializes a schema in the given format. YAML output uses
// 2-space indentation; JSON output is indented and ends with a newline
// so both formats are diff-friendly.
func Render(schema *normalize.Schema, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return renderYAML(schema)
	case FormatJSON:
		return renderJSON(schema)
	default:
		return nil, fmt.Errorf("invalid format: %q", format)
	}
}

// Write renders the schema and writes it to w.
func Write(w io.Writer, schema *normalize.Schema, format Format) error {
	data, err := Render(schema, format)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func renderYAML(schema *normalize.Schema) ([]byte, error) {
	if schema.Empty() {
		// An empty schema renders as an empty document, not "{}".
		return []byte{}, nil
	}
	data, err := yaml.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}
	return data, nil
}

func renderJSON(schema *normalize.Schema) ([]byte, error) {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}
	return append(data, '\n'), nil
}
