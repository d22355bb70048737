// Package frontend builds cursor trees from tree-sitter C ASTs.
//
// The frontend is the parsing collaborator of the normalization engine:
// it resolves includes, unwinds declarators into structural type
// descriptors, and pre-evaluates enum constant values, so the engine
// downstream never touches C syntax.
package frontend

import (
	"fmt"
	"os"
	"path/filepath"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hargabyte/h2y/internal/cursor"
	"github.com/hargabyte/h2y/internal/parser"
)

// DefaultSystemIncludeDirs are searched for <...> includes when the
// config does not override them.
var DefaultSystemIncludeDirs = []string{"/usr/local/include", "/usr/include"}

// Options configure a Frontend.
type Options struct {
	// IncludeDirs are extra search dirs for includes (-I).
	IncludeDirs []string

	// SystemIncludeDirs are searched for <...> includes; declarations
	// found through them are flagged as system origin. Nil selects
	// DefaultSystemIncludeDirs.
	SystemIncludeDirs []string

	// Diag receives non-fatal diagnostics. Nil discards them.
	Diag func(file string, line, col uint32, msg string)
}

// Frontend turns one C header (plus its includes) into a cursor tree.
// A Frontend holds per-translation-unit state; use one per Load call.
type Frontend struct {
	opts   Options
	parser *parser.Parser

	tu      *cursor.Cursor
	visited map[string]bool

	// files lists every file loaded into the translation unit, root
	// first, in first-visit order. Callers use it for cache
	// invalidation: an edit to any of them changes the output.
	files []string

	// tags maps "struct A" style keys to the canonical cursor for that
	// named tag, so every reference shares one identity.
	tags map[string]*cursor.Cursor

	// env holds enum constant values and simple #define integers seen
	// so far, in source order.
	env map[string]int64

	nextID uint64
}

// New creates a frontend.
func New(opts Options) *Frontend {
	if opts.SystemIncludeDirs == nil {
		opts.SystemIncludeDirs = DefaultSystemIncludeDirs
	}
	return &Frontend{
		opts:    opts,
		parser:  parser.New(),
		visited: make(map[string]bool),
		tags:    make(map[string]*cursor.Cursor),
		env:     make(map[string]int64),
	}
}

// Close releases parser resources.
func (f *Frontend) Close() {
	f.parser.Close()
}

// Files returns every file the last Load call parsed, root first, in
// first-visit order. Empty before Load; in-memory source passed to
// LoadSource is not listed, only the includes it pulled in.
func (f *Frontend) Files() []string {
	return f.files
}

// Load parses the header at path, follows its includes, and returns the
// translation unit cursor.
func (f *Frontend) Load(path string) (*cursor.Cursor, error) {
	f.tu = f.newCursor(cursor.TranslationUnit, "", path, false, nil)
	if err := f.loadFile(path, false, true); err != nil {
		return nil, err
	}
	return f.tu, nil
}

// LoadSource parses in-memory source attributed to the given path. Used
// for stdin input and tests; includes are resolved relative to path.
func (f *Frontend) LoadSource(path string, source []byte) (*cursor.Cursor, error) {
	f.tu = f.newCursor(cursor.TranslationUnit, "", path, false, nil)
	res, err := f.parser.Parse(source)
	if err != nil {
		return nil, err
	}
	defer res.Close()
	res.FilePath = path
	f.visited[cleanAbs(path)] = true
	f.walkUnit(res.Root, res, false)
	return f.tu, nil
}

// loadFile parses one file once per translation unit. Root-file errors
// are fatal; include errors degrade to a diagnostic.
func (f *Frontend) loadFile(path string, system, root bool) error {
	key := cleanAbs(path)
	if f.visited[key] {
		return nil
	}
	f.visited[key] = true
	f.files = append(f.files, path)

	res, err := f.parser.ParseFile(path)
	if err != nil {
		if root {
			return err
		}
		f.diag(path, 0, 0, fmt.Sprintf("skipping unreadable include: %v", err))
		return nil
	}
	defer res.Close()

	if res.HasErrors() {
		f.diag(path, 0, 0, "source contains syntax errors; extracting what parses")
	}
	f.walkUnit(res.Root, res, system)
	return nil
}

// walkUnit dispatches the top-level items of one parsed file, in source
// order. Conditional blocks are descended into (taking the #if branch);
// the tool consumes headers structurally and does not evaluate
// preprocessor conditions.
func (f *Frontend) walkUnit(scope *sitter.Node, src *parser.ParseResult, system bool) {
	for _, node := range parser.NamedChildren(scope) {
		switch node.Type() {
		case parser.NodePreprocInclude:
			f.handleInclude(node, src, system)
		case parser.NodePreprocDef:
			f.handleDefine(node, src)
		case parser.NodePreprocIfdef, parser.NodePreprocIf:
			f.walkUnit(node, src, system)
		case parser.NodeDeclaration:
			f.handleDeclaration(node, src, system)
		case parser.NodeTypeDefinition:
			f.handleTypedef(node, src, system)
		case parser.NodeStructSpecifier, parser.NodeUnionSpecifier, parser.NodeEnumSpecifier:
			// Bare tag declaration at file scope.
			c := f.tagCursor(node, src, system)
			f.tu.Children = append(f.tu.Children, c)
		case parser.NodeFunctionDef:
			f.handleFunctionDefinition(node, src, system)
		}
	}
}

// handleInclude resolves one #include and recurses into the target.
func (f *Frontend) handleInclude(node *sitter.Node, src *parser.ParseResult, system bool) {
	line, col := parser.StartPoint(node)

	var spec string
	var angled bool
	if lit := parser.FindChildByType(node, "string_literal"); lit != nil {
		spec = trimQuotes(src.NodeText(lit))
	} else if lib := parser.FindChildByType(node, "system_lib_string"); lib != nil {
		spec = trimQuotes(src.NodeText(lib))
		angled = true
	}
	if spec == "" {
		return
	}

	path, sys, ok := f.resolveInclude(spec, angled, filepath.Dir(src.FilePath))
	if !ok {
		f.diag(src.FilePath, line, col, fmt.Sprintf("include not found: %s", spec))
		return
	}
	// Anything included from a system header stays system.
	if err := f.loadFile(path, sys || system, false); err != nil {
		f.diag(src.FilePath, line, col, err.Error())
	}
}

// resolveInclude locates an include target. Quoted includes search the
// including file's directory first; both forms fall back to the -I dirs
// and then the system dirs.
func (f *Frontend) resolveInclude(spec string, angled bool, fromDir string) (path string, system bool, ok bool) {
	if !angled {
		candidate := filepath.Join(fromDir, spec)
		if fileExists(candidate) {
			return candidate, false, true
		}
	}
	for _, dir := range f.opts.IncludeDirs {
		candidate := filepath.Join(dir, spec)
		if fileExists(candidate) {
			return candidate, false, true
		}
	}
	for _, dir := range f.opts.SystemIncludeDirs {
		candidate := filepath.Join(dir, spec)
		if fileExists(candidate) {
			return candidate, true, true
		}
	}
	return "", false, false
}

// handleDefine records simple integer object macros so later enum
// constant expressions can reference them. Anything else is ignored.
func (f *Frontend) handleDefine(node *sitter.Node, src *parser.ParseResult) {
	nameNode := parser.FindChildByType(node, "identifier")
	valueNode := parser.FindChildByType(node, "preproc_arg")
	if nameNode == nil || valueNode == nil {
		return
	}
	if v, ok := parseIntLiteral(src.NodeText(valueNode)); ok {
		f.env[src.NodeText(nameNode)] = v
	}
}

// handleFunctionDefinition emits a definition-flagged function cursor.
// The walker diagnoses and skips these; headers describe interfaces.
func (f *Frontend) handleFunctionDefinition(node *sitter.Node, src *parser.ParseResult, system bool) {
	base, _, _ := f.baseType(node, src, system)
	for _, child := range parser.NamedChildren(node) {
		if child.Type() != "function_declarator" && child.Type() != "pointer_declarator" {
			continue
		}
		name, typ := f.buildDeclarator(base, child, src, system)
		if name == "" {
			continue
		}
		c := f.newCursor(cursor.Function, name, src.FilePath, system, node)
		c.Type = typ
		c.Definition = true
		f.tu.Children = append(f.tu.Children, c)
		return
	}
}

// newCursor allocates a cursor with a fresh identity.
func (f *Frontend) newCursor(kind cursor.Kind, name, file string, system bool, node *sitter.Node) *cursor.Cursor {
	f.nextID++
	c := &cursor.Cursor{
		Kind:     kind,
		Name:     name,
		File:     file,
		System:   system,
		BitWidth: -1,
		ID:       f.nextID,
	}
	if node != nil {
		c.Line, c.Col = parser.StartPoint(node)
	}
	return c
}

// diag reports a non-fatal diagnostic.
func (f *Frontend) diag(file string, line, col uint32, msg string) {
	if f.opts.Diag != nil {
		f.opts.Diag(file, line, col, msg)
	}
}

func cleanAbs(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func trimQuotes(s string) string {
	if len(s) >= 2 {
		switch {
		case s[0] == '"' && s[len(s)-1] == '"':
			return s[1 : len(s)-1]
		case s[0] == '<' && s[len(s)-1] == '>':
			return s[1 : len(s)-1]
		}
	}
	return s
}
