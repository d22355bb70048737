package output

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/hargabyte/h2y/internal/normalize"
)

func sampleSchema() *normalize.Schema {
	name := "Point"
	tdName := "point_t"
	width := uint(0)
	return &normalize.Schema{
		Structs: []*normalize.Declaration{{
			Name: &name,
			Members: []normalize.Member{
				{Name: "x", Type: &normalize.Type{Kind: normalize.KindInt, Name: "int"}},
				{Type: &normalize.Type{Kind: normalize.KindInt, Name: "int"}, BitWidth: &width},
			},
		}},
		Typedefs: []*normalize.Declaration{{
			Name: &tdName,
			Type: &normalize.Type{Kind: normalize.KindStruct, Name: "Point"},
		}},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"yaml", FormatYAML, false},
		{"YAML", FormatYAML, false},
		{"yml", FormatYAML, false},
		{" json ", FormatJSON, false},
		{"xml", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %t", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderYAML(t *testing.T) {
	data, err := Render(sampleSchema(), FormatYAML)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	out := string(data)
	if !strings.Contains(out, "structs:") || !strings.Contains(out, "typedefs:") {
		t.Fatalf("missing sections:\n%s", out)
	}
	// Empty sections stay out of the document entirely.
	if strings.Contains(out, "functions:") || strings.Contains(out, "enums:") {
		t.Fatalf("empty sections must be omitted:\n%s", out)
	}
	// Zero-width bitfield survives serialization.
	if !strings.Contains(out, "bit_width: 0") {
		t.Fatalf("zero bit_width dropped:\n%s", out)
	}

	var round normalize.Schema
	if err := yaml.Unmarshal(data, &round); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if len(round.Structs) != 1 || len(round.Typedefs) != 1 {
		t.Fatalf("round trip = %+v", round)
	}
}

func TestRenderJSON(t *testing.T) {
	data, err := Render(sampleSchema(), FormatJSON)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	var round normalize.Schema
	if err := json.Unmarshal(data, &round); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if *round.Structs[0].Name != "Point" {
		t.Fatalf("round trip = %+v", round)
	}
	if data[len(data)-1] != '\n' {
		t.Fatal("JSON output must end with a newline")
	}
}

func TestRenderNullNamedDeclaration(t *testing.T) {
	schema := &normalize.Schema{
		Structs: []*normalize.Declaration{{
			Name: nil,
			Members: []normalize.Member{
				{Name: "a", Type: &normalize.Type{Kind: normalize.KindInt, Name: "int"}},
			},
		}},
	}

	data, err := Render(schema, FormatYAML)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(string(data), "name: null") {
		t.Fatalf("anonymous hoist must render an explicit null name:\n%s", data)
	}
}

func TestRenderEmptySchema(t *testing.T) {
	data, err := Render(&normalize.Schema{}, FormatYAML)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(data) != 0 {
		t.Fatalf("empty schema must render empty, got %q", data)
	}
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	if _, err := Render(&normalize.Schema{}, Format("xml")); err == nil {
		t.Fatal("expected error for unknown format")
	}
}
