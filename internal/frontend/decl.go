package frontend

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hargabyte/h2y/internal/cursor"
	"github.com/hargabyte/h2y/internal/parser"
)

// handleDeclaration turns one file-scope declaration into function and
// variable cursors, one per declarator.
func (f *Frontend) handleDeclaration(node *sitter.Node, src *parser.ParseResult, system bool) {
	base, storage, inlined := f.baseType(node, src, system)

	var emitted bool
	for _, child := range parser.NamedChildren(node) {
		d := child
		var initText string
		if d.Type() == "init_declarator" {
			if value := d.ChildByFieldName("value"); value != nil {
				initText = src.NodeText(value)
			}
			d = d.ChildByFieldName("declarator")
			if d == nil {
				continue
			}
		}
		if !isDeclarator(d) {
			continue
		}

		name, typ := f.buildDeclarator(base, d, src, system)
		if name == "" {
			continue
		}
		emitted = true

		if typ != nil && (typ.Kind == cursor.KindFunctionProto || typ.Kind == cursor.KindFunctionNoProto) {
			c := f.newCursor(cursor.Function, name, src.FilePath, system, node)
			c.Type = typ
			c.Storage = storage
			c.Inline = inlined
			f.tu.Children = append(f.tu.Children, c)
			continue
		}

		c := f.newCursor(cursor.Var, name, src.FilePath, system, node)
		c.Type = typ
		c.Storage = storage
		c.Init = initText
		f.tu.Children = append(f.tu.Children, c)
	}

	// A declaration with no declarators is a bare tag declaration
	// (`struct A { ... };`), which stands on its own at file scope.
	if !emitted && base != nil && base.Decl != nil {
		f.tu.Children = append(f.tu.Children, base.Decl)
	}
}

// handleTypedef emits one Typedef cursor per declarator. The first
// type-shaped child is the underlying type; the rest name new types.
func (f *Frontend) handleTypedef(node *sitter.Node, src *parser.ParseResult, system bool) {
	var base *cursor.Type
	quals := qualifiers(node, src)

	for _, child := range parser.NamedChildren(node) {
		if base == nil && isTypeSpecifier(child) {
			base = f.typeFromSpecifier(child, quals, src, system)
			continue
		}
		if base == nil || !isDeclarator(child) {
			continue
		}
		name, typ := f.buildDeclarator(base, child, src, system)
		if name == "" {
			continue
		}
		c := f.newCursor(cursor.Typedef, name, src.FilePath, system, node)
		c.Type = typ
		c.Definition = true
		f.tu.Children = append(f.tu.Children, c)
	}
}

// baseType extracts the declared type, storage class, and inline
// specifier from a declaration-shaped node.
func (f *Frontend) baseType(node *sitter.Node, src *parser.ParseResult, system bool) (*cursor.Type, cursor.Storage, bool) {
	storage := cursor.StorageNone
	inlined := false
	quals := qualifiers(node, src)
	var base *cursor.Type

	for _, child := range parser.NamedChildren(node) {
		switch child.Type() {
		case "storage_class_specifier":
			switch src.NodeText(child) {
			case "extern":
				storage = cursor.StorageExtern
			case "static":
				storage = cursor.StorageStatic
			case "inline":
				inlined = true
			}
		default:
			if base == nil && isTypeSpecifier(child) {
				base = f.typeFromSpecifier(child, quals, src, system)
			}
		}
	}

	if base == nil {
		// C89 implicit int.
		base = &cursor.Type{Kind: cursor.KindInt, Spelling: "int"}
		applyQualifiers(base, quals)
	}
	return base, storage, inlined
}

type qualifierSet struct {
	constQ, volatileQ, restrictQ bool
}

// qualifiers collects the type qualifiers that are direct children of a
// declaration or declarator node.
func qualifiers(node *sitter.Node, src *parser.ParseResult) qualifierSet {
	var q qualifierSet
	for _, child := range parser.NamedChildren(node) {
		if child.Type() != "type_qualifier" {
			continue
		}
		switch src.NodeText(child) {
		case "const":
			q.constQ = true
		case "volatile":
			q.volatileQ = true
		case "restrict", "__restrict", "__restrict__":
			q.restrictQ = true
		}
	}
	return q
}

func applyQualifiers(t *cursor.Type, q qualifierSet) {
	t.Const = t.Const || q.constQ
	t.Volatile = t.Volatile || q.volatileQ
	t.Restrict = t.Restrict || q.restrictQ
}

// typeFromSpecifier builds the descriptor for one type specifier node.
func (f *Frontend) typeFromSpecifier(node *sitter.Node, quals qualifierSet, src *parser.ParseResult, system bool) *cursor.Type {
	var t *cursor.Type
	switch node.Type() {
	case "primitive_type", "sized_type_specifier":
		spelling := strings.Join(strings.Fields(src.NodeText(node)), " ")
		t = &cursor.Type{Kind: classifyPrimitive(spelling), Spelling: spelling}
	case "type_identifier":
		t = &cursor.Type{Kind: cursor.KindTypedef, Spelling: src.NodeText(node)}
	case parser.NodeStructSpecifier, parser.NodeUnionSpecifier:
		t = &cursor.Type{Kind: cursor.KindRecord, Decl: f.tagCursor(node, src, system)}
	case parser.NodeEnumSpecifier:
		t = &cursor.Type{Kind: cursor.KindEnum, Decl: f.tagCursor(node, src, system)}
	default:
		t = &cursor.Type{Kind: cursor.KindUnknown}
	}
	applyQualifiers(t, quals)
	return t
}

// classifyPrimitive maps a primitive spelling to its category.
func classifyPrimitive(spelling string) cursor.TypeKind {
	switch {
	case spelling == "void":
		return cursor.KindVoid
	case strings.Contains(spelling, "bool") || strings.Contains(spelling, "_Bool"):
		return cursor.KindBool
	case strings.Contains(spelling, "char"):
		return cursor.KindChar
	case strings.Contains(spelling, "float") || strings.Contains(spelling, "double"):
		return cursor.KindFloat
	default:
		return cursor.KindInt
	}
}

// tagCursor returns the cursor for a struct/union/enum specifier,
// populating members when the specifier carries a body. Named tags share
// one canonical cursor per translation unit so every reference resolves
// to the same identity.
func (f *Frontend) tagCursor(node *sitter.Node, src *parser.ParseResult, system bool) *cursor.Cursor {
	var kind cursor.Kind
	switch node.Type() {
	case parser.NodeStructSpecifier:
		kind = cursor.Struct
	case parser.NodeUnionSpecifier:
		kind = cursor.Union
	default:
		kind = cursor.Enum
	}

	name := ""
	if nameNode := parser.FindChildByType(node, "type_identifier"); nameNode != nil {
		name = src.NodeText(nameNode)
	}

	body := parser.FindChildByType(node, "field_declaration_list")
	if body == nil {
		body = parser.FindChildByType(node, "enumerator_list")
	}

	var c *cursor.Cursor
	if name != "" {
		key := kind.String() + " " + name
		c = f.tags[key]
		if c == nil {
			c = f.newCursor(kind, name, src.FilePath, system, node)
			f.tags[key] = c
		}
		// Redefinitions keep the first body.
		if body == nil || c.Definition {
			return c
		}
	} else {
		c = f.newCursor(kind, "", src.FilePath, system, node)
		if body == nil {
			return c
		}
	}

	c.Definition = true
	c.File = src.FilePath
	c.System = system
	c.Line, c.Col = parser.StartPoint(node)

	if kind == cursor.Enum {
		f.populateEnum(c, body, src, system)
	} else {
		f.populateRecord(c, body, src, system)
	}
	return c
}

// populateRecord fills in the field cursors of a struct or union body.
func (f *Frontend) populateRecord(c *cursor.Cursor, body *sitter.Node, src *parser.ParseResult, system bool) {
	for _, decl := range parser.NamedChildren(body) {
		if decl.Type() != "field_declaration" {
			continue
		}
		c.Children = append(c.Children, f.fieldCursors(decl, src, system)...)
	}
}

// fieldCursors turns one field_declaration into member cursors, pairing
// each bitfield clause with the declarator it follows. A clause with no
// preceding declarator is an unnamed bitfield.
func (f *Frontend) fieldCursors(node *sitter.Node, src *parser.ParseResult, system bool) []*cursor.Cursor {
	base, _, _ := f.baseType(node, src, system)

	var fields []*cursor.Cursor
	for _, child := range parser.NamedChildren(node) {
		switch {
		case isDeclarator(child):
			name, typ := f.buildDeclarator(base, child, src, system)
			fc := f.newCursor(cursor.Field, name, src.FilePath, system, child)
			fc.Type = typ
			fields = append(fields, fc)
		case child.Type() == "bitfield_clause":
			width := 0
			if expr := child.NamedChild(0); expr != nil {
				if v, ok := f.eval(expr, src); ok {
					width = int(v)
				}
			}
			if len(fields) > 0 && fields[len(fields)-1].BitWidth < 0 {
				fields[len(fields)-1].BitWidth = width
			} else {
				fc := f.newCursor(cursor.Field, "", src.FilePath, system, child)
				fc.Type = base
				fc.BitWidth = width
				fields = append(fields, fc)
			}
		}
	}

	// No declarator at all: an anonymous struct/union/enum member.
	if len(fields) == 0 && base != nil && base.Decl != nil {
		fc := f.newCursor(cursor.Field, "", src.FilePath, system, node)
		fc.Type = base
		fields = append(fields, fc)
	}
	return fields
}

// populateEnum fills in enumerator cursors with resolved values. Values
// follow C semantics: first constant is 0, each later one is previous+1
// unless an explicit expression overrides it.
func (f *Frontend) populateEnum(c *cursor.Cursor, body *sitter.Node, src *parser.ParseResult, system bool) {
	next := int64(0)
	for _, e := range parser.NamedChildren(body) {
		if e.Type() != "enumerator" {
			continue
		}
		nameNode := e.ChildByFieldName("name")
		if nameNode == nil {
			continue
		}
		name := src.NodeText(nameNode)

		value := next
		if expr := e.ChildByFieldName("value"); expr != nil {
			if v, ok := f.eval(expr, src); ok {
				value = v
			}
		}
		next = value + 1

		// Enum constants share one namespace in C.
		f.env[name] = value

		ec := f.newCursor(cursor.EnumConstant, name, src.FilePath, system, e)
		ec.Value = value
		c.Children = append(c.Children, ec)
	}
}

// buildDeclarator unwinds a declarator chain outside-in, wrapping base
// at each pointer/array/function step, and returns the declared name.
// Abstract declarators (parameter types with no name) return "".
func (f *Frontend) buildDeclarator(base *cursor.Type, node *sitter.Node, src *parser.ParseResult, system bool) (string, *cursor.Type) {
	if node == nil {
		return "", base
	}

	switch node.Type() {
	case "identifier", "field_identifier", "type_identifier":
		return src.NodeText(node), base

	case "pointer_declarator", "abstract_pointer_declarator":
		pt := &cursor.Type{Kind: cursor.KindPointer, Pointee: base}
		applyQualifiers(pt, qualifiers(node, src))
		return f.buildDeclarator(pt, innerDeclarator(node), src, system)

	case "array_declarator", "abstract_array_declarator":
		at := &cursor.Type{Kind: cursor.KindIncompleteArray, Elem: base}
		if size := node.ChildByFieldName("size"); size != nil {
			if v, ok := f.eval(size, src); ok {
				at.Kind = cursor.KindConstantArray
				at.Count = int(v)
			}
		}
		return f.buildDeclarator(at, node.ChildByFieldName("declarator"), src, system)

	case "function_declarator", "abstract_function_declarator":
		params, variadic, proto := f.parameters(node, src, system)
		ft := &cursor.Type{Kind: cursor.KindFunctionNoProto, Result: base}
		if proto {
			ft.Kind = cursor.KindFunctionProto
			ft.Params = params
			ft.Variadic = variadic
		}
		return f.buildDeclarator(ft, node.ChildByFieldName("declarator"), src, system)

	case "parenthesized_declarator", "abstract_parenthesized_declarator":
		return f.buildDeclarator(base, innerDeclarator(node), src, system)

	case "init_declarator":
		return f.buildDeclarator(base, node.ChildByFieldName("declarator"), src, system)
	}

	return "", base
}

// parameters reads a function declarator's parameter list. A bare `()`
// list is a no-proto function; `(void)` is a prototype with zero
// parameters.
func (f *Frontend) parameters(declarator *sitter.Node, src *parser.ParseResult, system bool) (params []cursor.TypeParam, variadic, proto bool) {
	list := declarator.ChildByFieldName("parameters")
	if list == nil {
		list = parser.FindChildByType(declarator, "parameter_list")
	}
	if list == nil {
		return nil, false, false
	}

	children := parser.NamedChildren(list)
	if len(children) == 0 {
		return nil, false, false
	}

	for _, p := range children {
		switch p.Type() {
		case "variadic_parameter":
			variadic = true
		case "parameter_declaration":
			base, _, _ := f.baseType(p, src, system)
			name := ""
			typ := base
			for _, child := range parser.NamedChildren(p) {
				if isDeclarator(child) || isAbstractDeclarator(child) {
					name, typ = f.buildDeclarator(base, child, src, system)
					break
				}
			}
			// `(void)` declares a prototype with no parameters.
			if name == "" && typ == base && base.Kind == cursor.KindVoid && len(children) == 1 {
				return nil, false, true
			}
			params = append(params, cursor.TypeParam{Name: name, Type: typ})
		}
	}
	return params, variadic, true
}

// innerDeclarator finds the nested declarator child of a pointer or
// parenthesized declarator.
func innerDeclarator(node *sitter.Node) *sitter.Node {
	for _, child := range parser.NamedChildren(node) {
		if isDeclarator(child) || isAbstractDeclarator(child) {
			return child
		}
	}
	return nil
}

func isDeclarator(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	switch node.Type() {
	case "identifier", "field_identifier", "type_identifier",
		"pointer_declarator", "array_declarator", "function_declarator",
		"parenthesized_declarator", "init_declarator":
		return true
	}
	return false
}

func isAbstractDeclarator(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	switch node.Type() {
	case "abstract_pointer_declarator", "abstract_array_declarator",
		"abstract_function_declarator", "abstract_parenthesized_declarator":
		return true
	}
	return false
}

func isTypeSpecifier(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	switch node.Type() {
	case "primitive_type", "sized_type_specifier", "type_identifier",
		parser.NodeStructSpecifier, parser.NodeUnionSpecifier, parser.NodeEnumSpecifier:
		return true
	}
	return false
}
