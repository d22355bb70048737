// Package cursor defines the declaration tree handed from a C parsing
// frontend to the normalization engine.
//
// A Cursor is one declaration or definition site; a Type is the declared
// type of a cursor, already resolved by the frontend. The normalization
// engine consumes these trees read-only and never reaches back into the
// parser, so alternative frontends only need to produce this model.
package cursor

// Kind identifies what a cursor declares.
type Kind int

const (
	// TranslationUnit is the root cursor of one parsed header.
	TranslationUnit Kind = iota
	// Struct is a struct declaration or definition.
	Struct
	// Union is a union declaration or definition.
	Union
	// Enum is an enum declaration or definition.
	Enum
	// Typedef is a typedef declaration.
	Typedef
	// Function is a function prototype.
	Function
	// Var is a file-scope variable declaration.
	Var
	// Field is a struct or union member.
	Field
	// EnumConstant is one enumerator with its resolved value.
	EnumConstant
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case TranslationUnit:
		return "translation_unit"
	case Struct:
		return "struct"
	case Union:
		return "union"
	case Enum:
		return "enum"
	case Typedef:
		return "typedef"
	case Function:
		return "function"
	case Var:
		return "var"
	case Field:
		return "field"
	case EnumConstant:
		return "enum_constant"
	}
	return "invalid"
}

// Storage is the storage class of a declaration.
type Storage int

const (
	// StorageNone means no storage class was written.
	StorageNone Storage = iota
	// StorageExtern is the extern storage class.
	StorageExtern
	// StorageStatic is the static storage class.
	StorageStatic
)

// String returns the C spelling of the storage class, or "" for none.
func (s Storage) String() string {
	switch s {
	case StorageExtern:
		return "extern"
	case StorageStatic:
		return "static"
	}
	return ""
}

// Cursor is one node of the declaration tree.
type Cursor struct {
	Kind Kind

	// Name is the source-level spelling. Empty for anonymous tags,
	// unnamed bitfields, and unnamed parameters.
	Name string

	// File is the path of the header this cursor originated from.
	// Empty when the origin is unknown (e.g. builtins).
	File string

	// System reports whether File was reached through a system include.
	System bool

	// Line and Col locate the cursor inside File (1-based).
	Line, Col uint32

	// Type is the declared type. Nil only for TranslationUnit and
	// EnumConstant cursors.
	Type *Type

	// Children holds nested cursors in source order: fields of a tag,
	// enumerators of an enum, parameters of a function.
	Children []*Cursor

	// Definition reports whether this cursor carries a defining body.
	// False for forward declarations and pure references.
	Definition bool

	// Storage is the declared storage class (vars and functions).
	Storage Storage

	// Inline reports the inline specifier on a function.
	Inline bool

	// BitWidth is the declared bitfield width, or -1 when the cursor is
	// not a bitfield. Zero is a meaningful width.
	BitWidth int

	// Value is the pre-evaluated integer value of an EnumConstant.
	Value int64

	// Init is the initializer source text of a Var, if any.
	Init string

	// ID is a stable identity: every cursor referring to the same
	// definition shares one ID, and distinct definitions never collide.
	ID uint64
}

// TypeKind identifies one variant of a type descriptor.
type TypeKind int

const (
	// KindInvalid marks a descriptor the frontend could not build.
	KindInvalid TypeKind = iota
	// KindVoid through KindFloat are primitive categories; Spelling
	// carries the exact source type ("unsigned long", "double", ...).
	KindVoid
	KindBool
	KindChar
	KindInt
	KindFloat
	// KindPointer has a Pointee.
	KindPointer
	// KindConstantArray has Elem and Count.
	KindConstantArray
	// KindIncompleteArray has Elem and no size.
	KindIncompleteArray
	// KindFunctionProto has Result, Params and Variadic.
	KindFunctionProto
	// KindFunctionNoProto has only Result (empty C parameter list).
	KindFunctionNoProto
	// KindRecord is a struct or union; Decl points at the tag cursor.
	KindRecord
	// KindEnum is an enum; Decl points at the tag cursor.
	KindEnum
	// KindTypedef references a typedef by Spelling.
	KindTypedef
	// KindUnknown marks an incomplete or unresolvable type.
	KindUnknown
)

// TypeParam is one parameter of a function type descriptor.
type TypeParam struct {
	// Name is empty for unnamed parameters.
	Name string
	Type *Type
}

// Type is a structural type descriptor built by the frontend.
type Type struct {
	Kind TypeKind

	// Spelling is the primitive spelling or the referenced typedef name.
	Spelling string

	// Pointee is set for KindPointer.
	Pointee *Type

	// Elem and Count describe array types; Count is meaningful only for
	// KindConstantArray.
	Elem  *Type
	Count int

	// Result and Params describe function types.
	Result   *Type
	Params   []TypeParam
	Variadic bool

	// Decl is the declaring cursor for KindRecord and KindEnum.
	Decl *Cursor

	// Qualifiers.
	Const    bool
	Volatile bool
	Restrict bool
}
