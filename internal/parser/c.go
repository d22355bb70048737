package parser

import sitter "github.com/smacker/go-tree-sitter"

// Tree-sitter node types for the C declarations the frontend consumes.
const (
	NodeTranslationUnit = "translation_unit"
	NodeDeclaration     = "declaration"
	NodeStructSpecifier = "struct_specifier"
	NodeUnionSpecifier  = "union_specifier"
	NodeEnumSpecifier   = "enum_specifier"
	NodeTypeDefinition  = "type_definition"
	NodeFunctionDef     = "function_definition"
	NodePreprocInclude  = "preproc_include"
	NodePreprocDef      = "preproc_def"
	NodePreprocIfdef    = "preproc_ifdef"
	NodePreprocIf       = "preproc_if"
)

// IsTagSpecifier reports whether a node declares a struct, union or enum.
func IsTagSpecifier(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	switch node.Type() {
	case NodeStructSpecifier, NodeUnionSpecifier, NodeEnumSpecifier:
		return true
	}
	return false
}

// IsDeclaratorNode reports whether a node is part of a declarator chain.
func IsDeclaratorNode(node *sitter.Node) bool {
	if node == nil {
		return false
	}
	switch node.Type() {
	case "pointer_declarator", "array_declarator", "function_declarator",
		"parenthesized_declarator", "init_declarator",
		"identifier", "field_identifier", "type_identifier":
		return true
	}
	return false
}

// StartPoint returns the 1-based line and column of a node.
func StartPoint(node *sitter.Node) (line, col uint32) {
	if node == nil {
		return 0, 0
	}
	p := node.StartPoint()
	return p.Row + 1, p.Column + 1
}
