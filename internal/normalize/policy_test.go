package normalize

import (
	"testing"

	"github.com/hargabyte/h2y/internal/cursor"
)

func TestClassify(t *testing.T) {
	named := &cursor.Cursor{Kind: cursor.Struct, Name: "Point", Definition: true}
	anon := &cursor.Cursor{Kind: cursor.Struct, Definition: true}

	tests := []struct {
		name string
		c    *cursor.Cursor
		ctx  Context
		want Decision
	}{
		{"named tag hoists", named, Context{}, Hoist},
		{"named tag hoists even as typedef target", named, Context{TypedefTarget: true}, Hoist},
		{"named tag hoists at top level", named, Context{TopLevel: true}, Hoist},
		{"anonymous typedef target inlines", anon, Context{TypedefTarget: true}, Inline},
		{"anonymous top-level hoists", anon, Context{TopLevel: true}, Hoist},
		{"anonymous member inlines", anon, Context{}, Inline},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.c, tt.ctx); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}
