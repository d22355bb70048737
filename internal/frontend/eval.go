package frontend

import (
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hargabyte/h2y/internal/parser"
)

// eval computes the value of a constant integer expression against the
// names seen so far (enum constants and simple #define macros). The
// second result reports whether the expression was evaluable.
func (f *Frontend) eval(node *sitter.Node, src *parser.ParseResult) (int64, bool) {
	if node == nil {
		return 0, false
	}

	switch node.Type() {
	case "number_literal":
		return parseIntLiteral(src.NodeText(node))

	case "char_literal":
		return parseCharLiteral(src.NodeText(node))

	case "identifier":
		v, ok := f.env[src.NodeText(node)]
		return v, ok

	case "parenthesized_expression":
		return f.eval(node.NamedChild(0), src)

	case "unary_expression":
		arg, ok := f.eval(node.ChildByFieldName("argument"), src)
		if !ok {
			return 0, false
		}
		switch operatorText(node, src) {
		case "-":
			return -arg, true
		case "+":
			return arg, true
		case "~":
			return ^arg, true
		case "!":
			if arg == 0 {
				return 1, true
			}
			return 0, true
		}
		return 0, false

	case "binary_expression":
		left, ok := f.eval(node.ChildByFieldName("left"), src)
		if !ok {
			return 0, false
		}
		right, ok := f.eval(node.ChildByFieldName("right"), src)
		if !ok {
			return 0, false
		}
		switch operatorText(node, src) {
		case "+":
			return left + right, true
		case "-":
			return left - right, true
		case "*":
			return left * right, true
		case "/":
			if right == 0 {
				return 0, false
			}
			return left / right, true
		case "%":
			if right == 0 {
				return 0, false
			}
			return left % right, true
		case "<<":
			return left << uint64(right), true
		case ">>":
			return left >> uint64(right), true
		case "|":
			return left | right, true
		case "&":
			return left & right, true
		case "^":
			return left ^ right, true
		}
		return 0, false
	}

	return 0, false
}

// operatorText returns the operator token of a unary or binary
// expression node.
func operatorText(node *sitter.Node, src *parser.ParseResult) string {
	if op := node.ChildByFieldName("operator"); op != nil {
		return src.NodeText(op)
	}
	return ""
}

// parseIntLiteral parses a C integer literal, accepting hex, octal,
// binary and decimal forms with any integer suffix.
func parseIntLiteral(text string) (int64, bool) {
	s := strings.TrimSpace(text)
	s = strings.TrimRight(s, "uUlL")
	if s == "" {
		return 0, false
	}

	neg := false
	if s[0] == '-' {
		neg = true
		s = strings.TrimSpace(s[1:])
	}

	// strconv handles 0x, 0b and leading-zero octal with base 0.
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		// Literals like 0b101 on older strconv-compatible forms or
		// values above int64 as unsigned.
		u, uerr := strconv.ParseUint(s, 0, 64)
		if uerr != nil {
			return 0, false
		}
		v = int64(u)
	}
	if neg {
		v = -v
	}
	return v, true
}

// parseCharLiteral evaluates a character constant to its code point.
func parseCharLiteral(text string) (int64, bool) {
	s := strings.TrimPrefix(text, "'")
	s = strings.TrimSuffix(s, "'")
	if s == "" {
		return 0, false
	}
	if s[0] == '\\' {
		if len(s) < 2 {
			return 0, false
		}
		switch s[1] {
		case 'n':
			return '\n', true
		case 't':
			return '\t', true
		case 'r':
			return '\r', true
		case '0':
			return 0, true
		case '\\':
			return '\\', true
		case '\'':
			return '\'', true
		case 'x':
			v, err := strconv.ParseInt(s[2:], 16, 64)
			return v, err == nil
		}
		return 0, false
	}
	r := []rune(s)
	return int64(r[0]), true
}
