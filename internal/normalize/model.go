// Package normalize walks a cursor tree for one translation unit and
// produces a flat, deduplicated six-section declaration schema.
package normalize

// Type kind discriminators as they appear on the wire. Primitive kinds
// carry the full C spelling under name; struct/union/enum nodes are a
// reference when only name is present and an inline definition when
// members or constants are present.
const (
	KindVoid       = "void"
	KindBool       = "bool"
	KindChar       = "char"
	KindInt        = "int"
	KindFloat      = "float"
	KindPointer    = "pointer"
	KindArray      = "array"
	KindFunction   = "function"
	KindStruct     = "struct"
	KindUnion      = "union"
	KindEnum       = "enum"
	KindCustomType = "custom_type"
	KindUnknown    = "unknown"
)

// Type is one node of a normalized type tree. Exactly one variant is
// populated, selected by Kind.
type Type struct {
	Kind string `yaml:"kind" json:"kind"`

	// Name is the primitive spelling, the referenced tag or typedef name.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`

	// Type is the pointee (pointer), element (array) or return type
	// (function).
	Type *Type `yaml:"type,omitempty" json:"type,omitempty"`

	// Length is the constant array size; nil for incomplete arrays.
	Length *int `yaml:"length,omitempty" json:"length,omitempty"`

	// Params and VarArgs describe function types. A no-proto function
	// has a nil Params slice.
	Params  []Param `yaml:"params,omitempty" json:"params,omitempty"`
	VarArgs bool    `yaml:"var_args,omitempty" json:"var_args,omitempty"`

	// Members holds an inline struct/union definition.
	Members []Member `yaml:"members,omitempty" json:"members,omitempty"`

	// Constants holds an inline enum definition.
	Constants []EnumConstant `yaml:"constants,omitempty" json:"constants,omitempty"`

	Const    bool `yaml:"const,omitempty" json:"const,omitempty"`
	Volatile bool `yaml:"volatile,omitempty" json:"volatile,omitempty"`
	Restrict bool `yaml:"restrict,omitempty" json:"restrict,omitempty"`
}

// Param is one function parameter. Name is omitted for unnamed parameters.
type Param struct {
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	Type *Type  `yaml:"type" json:"type"`
}

// Member is one struct or union member. Name is omitted for anonymous
// members, which stay nested in the schema rather than being flattened.
// BitWidth is a pointer so a zero-width bitfield still serializes.
type Member struct {
	Name     string `yaml:"name,omitempty" json:"name,omitempty"`
	Type     *Type  `yaml:"type" json:"type"`
	BitWidth *uint  `yaml:"bit_width,omitempty" json:"bit_width,omitempty"`
}

// EnumConstant is one enumerator with its resolved value. Duplicate values
// across constants of one enum are legal and preserved.
type EnumConstant struct {
	Name  string `yaml:"name" json:"name"`
	Value int64  `yaml:"value" json:"value"`
}

// Declaration is one top-level entry of the schema. Name serializes as
// null for hoisted anonymous tags.
type Declaration struct {
	Name *string `yaml:"name" json:"name"`

	// Type is the resolved type for typedefs and variable declarations,
	// and the return type for functions.
	Type *Type `yaml:"type,omitempty" json:"type,omitempty"`

	// Members holds struct/union members.
	Members []Member `yaml:"members,omitempty" json:"members,omitempty"`

	// Constants holds enum constants.
	Constants []EnumConstant `yaml:"constants,omitempty" json:"constants,omitempty"`

	// Params and VarArgs describe functions. A no-proto function has a
	// nil Params slice.
	Params  []Param `yaml:"params,omitempty" json:"params,omitempty"`
	VarArgs bool    `yaml:"var_args,omitempty" json:"var_args,omitempty"`

	Storage string `yaml:"storage,omitempty" json:"storage,omitempty"`
	Inline  bool   `yaml:"inline,omitempty" json:"inline,omitempty"`

	// Init is the initializer source text of a variable, if any.
	Init string `yaml:"init,omitempty" json:"init,omitempty"`
}

// Schema is the immutable six-section model produced by one walk.
// Section order and insertion order are both stable: entries appear in
// first-encountered order, nested definitions before their enclosing
// declaration.
type Schema struct {
	Structs      []*Declaration `yaml:"structs,omitempty" json:"structs,omitempty"`
	Unions       []*Declaration `yaml:"unions,omitempty" json:"unions,omitempty"`
	Typedefs     []*Declaration `yaml:"typedefs,omitempty" json:"typedefs,omitempty"`
	Declarations []*Declaration `yaml:"declarations,omitempty" json:"declarations,omitempty"`
	Functions    []*Declaration `yaml:"functions,omitempty" json:"functions,omitempty"`
	Enums        []*Declaration `yaml:"enums,omitempty" json:"enums,omitempty"`
}

// Empty reports whether the schema contains no declarations at all.
func (s *Schema) Empty() bool {
	return len(s.Structs) == 0 && len(s.Unions) == 0 && len(s.Typedefs) == 0 &&
		len(s.Declarations) == 0 && len(s.Functions) == 0 && len(s.Enums) == 0
}

// Lookup returns the first declaration with the given name across all
// sections, together with its section name. Null-named entries never match.
func (s *Schema) Lookup(name string) (*Declaration, string) {
	sections := []struct {
		name  string
		decls []*Declaration
	}{
		{"structs", s.Structs},
		{"unions", s.Unions},
		{"typedefs", s.Typedefs},
		{"declarations", s.Declarations},
		{"functions", s.Functions},
		{"enums", s.Enums},
	}
	for _, sec := range sections {
		for _, d := range sec.decls {
			if d.Name != nil && *d.Name == name {
				return d, sec.name
			}
		}
	}
	return nil, ""
}
