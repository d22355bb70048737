package normalize

import "github.com/hargabyte/h2y/internal/cursor"

// Decision is the outcome of classifying a tag type: promote it to a
// named top-level entry, or embed its definition at the use site.
type Decision int

const (
	// Hoist promotes the tag to a top-level declaration, referenced
	// elsewhere by name (null-named for anonymous top-level tags).
	Hoist Decision = iota
	// Inline embeds the full definition at the single use site.
	Inline
)

// Context records where a tag was encountered. The walker fills it in;
// the classification itself never inspects anything else.
type Context struct {
	// TypedefTarget is true when the tag is the immediate target of a
	// typedef declarator.
	TypedefTarget bool
	// TopLevel is true when the tag appears as a bare declaration
	// directly at translation-unit scope, with no enclosing field,
	// parameter or declarator.
	TopLevel bool
}

// Classify decides whether a struct/union/enum definition is hoisted or
// inlined. Rules, in priority order:
//
//  1. A tag with a source-level name is hoisted, regardless of nesting.
//  2. An anonymous tag that is the direct target of a typedef is inlined
//     into the typedef entry (one merged declaration; the tag never
//     adopts the typedef's name).
//  3. An anonymous tag standing as a bare top-level statement is hoisted
//     with a null name.
//  4. Any other anonymous tag (member type, parameter type, variable
//     type) is inlined.
func Classify(c *cursor.Cursor, ctx Context) Decision {
	if c.Name != "" {
		return Hoist
	}
	if ctx.TypedefTarget {
		return Inline
	}
	if ctx.TopLevel {
		return Hoist
	}
	return Inline
}
