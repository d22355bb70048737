package normalize

import (
	"path/filepath"
	"regexp"
	"strings"
)

// FilterMode selects the header origin inclusion policy.
type FilterMode int

const (
	// ModeDefault includes only cursors whose origin file was directly
	// supplied by the caller. System headers and unknown origins are
	// excluded.
	ModeDefault FilterMode = iota
	// ModePattern includes cursors whose origin basename matches a
	// regexp. System headers and standard library headers stay excluded.
	ModePattern
	// ModeUnrestricted includes everything, system headers included.
	ModeUnrestricted
)

// Filter decides, per cursor origin, whether a declaration belongs to the
// output. A Filter is immutable and safe to share across walks.
type Filter struct {
	mode    FilterMode
	pattern *regexp.Regexp
	files   map[string]bool
}

// NewDefaultFilter builds a default-policy filter over the files the
// caller supplied.
func NewDefaultFilter(files ...string) *Filter {
	set := make(map[string]bool, len(files))
	for _, f := range files {
		set[filepath.Clean(f)] = true
	}
	return &Filter{mode: ModeDefault, files: set}
}

// NewPatternFilter builds a pattern-policy filter. The expression is
// matched against origin basenames, not full paths.
func NewPatternFilter(expr string) (*Filter, error) {
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &Filter{mode: ModePattern, pattern: re}, nil
}

// NewUnrestrictedFilter builds a filter that includes every origin.
func NewUnrestrictedFilter() *Filter {
	return &Filter{mode: ModeUnrestricted}
}

// Included reports whether a declaration from the given origin belongs to
// the output. system marks origins reached through a system include; an
// empty file means the origin is indeterminate.
func (f *Filter) Included(file string, system bool) bool {
	if f == nil {
		return true
	}
	switch f.mode {
	case ModeUnrestricted:
		return true
	case ModeDefault:
		if system || file == "" {
			return false
		}
		return f.files[filepath.Clean(file)]
	case ModePattern:
		if system || file == "" {
			return false
		}
		base := filepath.Base(file)
		if strings.HasPrefix(base, "std") || strings.HasPrefix(base, "__std") {
			return false
		}
		return f.pattern.MatchString(base)
	}
	return false
}
