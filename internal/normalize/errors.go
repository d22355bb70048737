package normalize

import (
	"fmt"

	"github.com/hargabyte/h2y/internal/cursor"
)

// TreeError reports a malformed cursor tree: a cursor missing a field the
// walk requires. It is the only fatal condition; everything else degrades
// locally.
type TreeError struct {
	File    string
	Line    uint32
	Col     uint32
	Message string
}

// Error implements the error interface.
func (e *TreeError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Col, e.Message)
	}
	return e.Message
}

// treeErrorf builds a TreeError located at the given cursor.
func treeErrorf(c *cursor.Cursor, format string, args ...interface{}) *TreeError {
	e := &TreeError{Message: fmt.Sprintf(format, args...)}
	if c != nil {
		e.File = c.File
		e.Line = c.Line
		e.Col = c.Col
	}
	return e
}
