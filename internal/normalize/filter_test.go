package normalize

import "testing"

func TestNilFilterIncludesEverything(t *testing.T) {
	var f *Filter
	if !f.Included("anything.h", true) {
		t.Fatal("nil filter must include all origins")
	}
}

func TestDefaultFilter(t *testing.T) {
	f := NewDefaultFilter("api.h", "./extra.h")

	tests := []struct {
		name   string
		file   string
		system bool
		want   bool
	}{
		{"scanned file", "api.h", false, true},
		{"cleaned path matches", "extra.h", false, true},
		{"included header", "vendor/dep.h", false, false},
		{"system header", "api.h", true, false},
		{"unknown origin", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Included(tt.file, tt.system); got != tt.want {
				t.Errorf("Included(%q, %t) = %t, want %t", tt.file, tt.system, got, tt.want)
			}
		})
	}
}

func TestPatternFilter(t *testing.T) {
	f, err := NewPatternFilter(`^api_`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	tests := []struct {
		name   string
		file   string
		system bool
		want   bool
	}{
		{"matching basename", "include/api_core.h", false, true},
		{"non-matching basename", "include/util.h", false, false},
		{"matches basename not path", "api_stuff/util.h", false, false},
		{"system excluded even when matching", "api_core.h", true, false},
		{"unknown origin", "", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f.Included(tt.file, tt.system); got != tt.want {
				t.Errorf("Included(%q, %t) = %t, want %t", tt.file, tt.system, got, tt.want)
			}
		})
	}
}

func TestPatternFilterExcludesStdHeaders(t *testing.T) {
	// A wide-open pattern still never admits standard library names.
	f, err := NewPatternFilter(`.*`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	if f.Included("stddef.h", false) {
		t.Error("stddef.h must stay excluded")
	}
	if f.Included("/usr/include/__stddef_max_align_t.h", false) {
		t.Error("__std-prefixed headers must stay excluded")
	}
	if !f.Included("mylib.h", false) {
		t.Error("non-std headers must pass a matching pattern")
	}
}

func TestPatternFilterRejectsBadRegexp(t *testing.T) {
	if _, err := NewPatternFilter(`(`); err == nil {
		t.Fatal("expected error for invalid regexp")
	}
}

func TestUnrestrictedFilter(t *testing.T) {
	f := NewUnrestrictedFilter()
	if !f.Included("/usr/include/stdio.h", true) {
		t.Fatal("unrestricted filter must include system headers")
	}
	if !f.Included("", false) {
		t.Fatal("unrestricted filter must include unknown origins")
	}
}
