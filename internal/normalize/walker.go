package normalize

import (
	"fmt"

	"github.com/hargabyte/h2y/internal/cursor"
)

// Options configure one walk.
type Options struct {
	// Filter gates every cursor by origin. Nil includes everything.
	Filter *Filter

	// Canonical assigns _argN names to unnamed function parameters.
	Canonical bool

	// Diag receives non-fatal diagnostics with the offending cursor's
	// location. Nil discards them.
	Diag func(file string, line, col uint32, msg string)
}

// walker holds the state of one in-flight walk. A walker is created at
// walk start and discarded at walk end; independent walks never share
// state.
type walker struct {
	opts   Options
	schema *Schema

	// index maps tag cursor identity to the hoisted name, registered
	// BEFORE member resolution so references back to an in-progress
	// hoist resolve by name instead of re-entering resolution.
	index map[uint64]string

	// typedefSeen guards against typedef re-declarations resolving to
	// the same definition twice.
	typedefSeen map[string]bool

	// inlinedInto maps an anonymous tag's identity to the name of the
	// typedef its definition was inlined into, so further declarators
	// of the same tag alias the first typedef instead of duplicating
	// the definition.
	inlinedInto map[uint64]string
}

// Walk performs one pass over the direct children of a translation unit
// and returns the six-section schema. The cursor tree is borrowed
// read-only; the returned schema is never mutated afterwards.
func Walk(tu *cursor.Cursor, opts Options) (*Schema, error) {
	if tu == nil || tu.Kind != cursor.TranslationUnit {
		return nil, treeErrorf(tu, "walk root is not a translation unit")
	}

	w := &walker{
		opts:        opts,
		schema:      &Schema{},
		index:       make(map[uint64]string),
		typedefSeen: make(map[string]bool),
		inlinedInto: make(map[uint64]string),
	}

	for _, c := range tu.Children {
		if !opts.Filter.Included(c.File, c.System) {
			continue
		}
		if err := w.walkTopLevel(c); err != nil {
			return nil, err
		}
	}
	return w.schema, nil
}

// walkTopLevel dispatches one direct child of the translation unit.
// The kind set is closed; anything else means the frontend handed us a
// malformed tree.
func (w *walker) walkTopLevel(c *cursor.Cursor) error {
	switch c.Kind {
	case cursor.Struct, cursor.Union, cursor.Enum:
		_, err := w.resolveTag(c, Context{TopLevel: true})
		return err
	case cursor.Typedef:
		return w.walkTypedef(c)
	case cursor.Function:
		return w.walkFunction(c)
	case cursor.Var:
		return w.walkVar(c)
	default:
		return treeErrorf(c, "unexpected %s cursor at translation unit scope", c.Kind)
	}
}

// resolveTag turns a struct/union/enum cursor into a normalized type
// node, hoisting the definition into the schema when the policy says so.
// The returned node is a by-name reference for hoisted tags and a full
// inline definition otherwise.
func (w *walker) resolveTag(c *cursor.Cursor, ctx Context) (*Type, error) {
	kind := tagKind(c.Kind)

	// Already hoisted, or hoist in progress: return the registered
	// reference. This is what keeps self-referential structures finite.
	if name, ok := w.index[c.ID]; ok {
		return &Type{Kind: kind, Name: name}, nil
	}

	// Already inlined into a typedef: alias that typedef rather than
	// embedding the definition a second time.
	if name, ok := w.inlinedInto[c.ID]; ok {
		return &Type{Kind: KindCustomType, Name: name}, nil
	}

	// Forward declaration: reference by name, no entry. The definition
	// hoists when (and if) it is visited.
	if !c.Definition {
		return &Type{Kind: kind, Name: c.Name}, nil
	}

	if Classify(c, ctx) == Inline {
		return w.inlineTag(c, kind)
	}

	// Register before resolving members (register-then-resolve), then
	// append after, so nested definitions land in the schema first.
	w.index[c.ID] = c.Name

	decl := &Declaration{}
	if c.Name != "" {
		name := c.Name
		decl.Name = &name
	}

	switch c.Kind {
	case cursor.Enum:
		// An enum whose constants were all filtered out gets no entry,
		// same as a fully filtered struct below.
		if constants := w.enumConstants(c); len(constants) > 0 {
			decl.Constants = constants
			w.schema.Enums = append(w.schema.Enums, decl)
		}
	default:
		members, err := w.resolveMembers(c)
		if err != nil {
			return nil, err
		}
		// A definition whose members were all filtered out is not
		// worth an entry; references to it stay by-name.
		if len(members) > 0 {
			decl.Members = members
			if c.Kind == cursor.Struct {
				w.schema.Structs = append(w.schema.Structs, decl)
			} else {
				w.schema.Unions = append(w.schema.Unions, decl)
			}
		}
	}

	return &Type{Kind: kind, Name: c.Name}, nil
}

// inlineTag embeds a tag definition at its use site.
func (w *walker) inlineTag(c *cursor.Cursor, kind string) (*Type, error) {
	n := &Type{Kind: kind}
	if c.Name != "" {
		n.Name = c.Name
	}
	if c.Kind == cursor.Enum {
		n.Constants = w.enumConstants(c)
		return n, nil
	}
	members, err := w.resolveMembers(c)
	if err != nil {
		return nil, err
	}
	n.Members = members
	return n, nil
}

// resolveMembers resolves the fields of a struct or union definition in
// declaration order, applying the origin filter per field.
func (w *walker) resolveMembers(c *cursor.Cursor) ([]Member, error) {
	var members []Member
	for _, f := range c.Children {
		if f.Kind != cursor.Field {
			continue
		}
		if !w.opts.Filter.Included(f.File, f.System) {
			continue
		}
		if f.Type == nil {
			return nil, treeErrorf(f, "field %q has no type descriptor", f.Name)
		}
		t, err := w.resolveType(f.Type, Context{})
		if err != nil {
			return nil, err
		}
		m := Member{Name: f.Name, Type: t}
		if f.BitWidth >= 0 {
			width := uint(f.BitWidth)
			m.BitWidth = &width
		}
		members = append(members, m)
	}
	return members, nil
}

// enumConstants collects enumerators in declaration order. Values arrive
// pre-evaluated from the frontend; duplicates are preserved.
func (w *walker) enumConstants(c *cursor.Cursor) []EnumConstant {
	var constants []EnumConstant
	for _, e := range c.Children {
		if e.Kind != cursor.EnumConstant {
			continue
		}
		if !w.opts.Filter.Included(e.File, e.System) {
			continue
		}
		constants = append(constants, EnumConstant{Name: e.Name, Value: e.Value})
	}
	return constants
}

// walkTypedef records one typedef. Re-declarations of an already recorded
// name are no-ops.
func (w *walker) walkTypedef(c *cursor.Cursor) error {
	if w.typedefSeen[c.Name] {
		return nil
	}
	if c.Type == nil {
		return treeErrorf(c, "typedef %q has no underlying type", c.Name)
	}
	t, err := w.resolveType(c.Type, Context{TypedefTarget: true})
	if err != nil {
		return err
	}
	w.typedefSeen[c.Name] = true
	name := c.Name

	// When an anonymous tag definition was just inlined here, record
	// which typedef owns it: `typedef struct { int x; } A_t, *A_p;`
	// shares one tag between declarators, and only the first embeds it.
	if target := c.Type.Decl; target != nil && target.Name == "" && target.Definition {
		if _, ok := w.inlinedInto[target.ID]; !ok {
			w.inlinedInto[target.ID] = name
		}
	}

	w.schema.Typedefs = append(w.schema.Typedefs, &Declaration{Name: &name, Type: t})
	return nil
}

// walkFunction records one function prototype. Definitions are skipped
// with a diagnostic, as header schemas only describe interfaces.
func (w *walker) walkFunction(c *cursor.Cursor) error {
	if c.Definition {
		w.diag(c, fmt.Sprintf("`%s` is a function definition and will be ignored.", c.Name))
		return nil
	}
	t := c.Type
	if t == nil || (t.Kind != cursor.KindFunctionProto && t.Kind != cursor.KindFunctionNoProto) {
		return treeErrorf(c, "function %q has no function type", c.Name)
	}

	ret, err := w.resolveType(t.Result, Context{})
	if err != nil {
		return err
	}
	name := c.Name
	decl := &Declaration{
		Name:    &name,
		Type:    ret,
		Storage: c.Storage.String(),
		Inline:  c.Inline,
	}

	if t.Kind == cursor.KindFunctionNoProto {
		w.diag(c, fmt.Sprintf("`%s` defines a function with no parameters, consider specifying `void`.", c.Name))
	} else {
		params, err := w.resolveParams(t.Params)
		if err != nil {
			return err
		}
		decl.Params = params
		decl.VarArgs = t.Variadic
	}

	w.schema.Functions = append(w.schema.Functions, decl)
	return nil
}

// walkVar records one file-scope variable declaration. Variables of
// pointer-to-function type land in the functions section with the rest
// of the callable surface.
func (w *walker) walkVar(c *cursor.Cursor) error {
	if c.Type == nil {
		return treeErrorf(c, "variable %q has no type descriptor", c.Name)
	}
	// A tentative `a[]` definition will reappear with its size once the
	// array is completed, so the incomplete form is skipped.
	if c.Type.Kind == cursor.KindIncompleteArray {
		return nil
	}
	t, err := w.resolveType(c.Type, Context{})
	if err != nil {
		return err
	}
	name := c.Name
	decl := &Declaration{
		Name:    &name,
		Type:    t,
		Storage: c.Storage.String(),
		Init:    c.Init,
	}
	if isFunctionPointer(c.Type) {
		w.schema.Functions = append(w.schema.Functions, decl)
		return nil
	}
	w.schema.Declarations = append(w.schema.Declarations, decl)
	return nil
}

// isFunctionPointer reports whether a variable's type is a pointer whose
// ultimate pointee is a function type.
func isFunctionPointer(t *cursor.Type) bool {
	if t == nil || t.Kind != cursor.KindPointer {
		return false
	}
	p := t.Pointee
	for p != nil && p.Kind == cursor.KindPointer {
		p = p.Pointee
	}
	return p != nil && (p.Kind == cursor.KindFunctionProto || p.Kind == cursor.KindFunctionNoProto)
}

// resolveParams normalizes a function type's parameter list in
// declaration order.
func (w *walker) resolveParams(params []cursor.TypeParam) ([]Param, error) {
	out := make([]Param, 0, len(params))
	for i, p := range params {
		t, err := w.resolveType(p.Type, Context{})
		if err != nil {
			return nil, err
		}
		name := p.Name
		if name == "" && w.opts.Canonical {
			name = fmt.Sprintf("_arg%d", i)
		}
		out = append(out, Param{Name: name, Type: t})
	}
	return out, nil
}

// diag reports a non-fatal diagnostic at the cursor's location.
func (w *walker) diag(c *cursor.Cursor, msg string) {
	if w.opts.Diag != nil {
		w.opts.Diag(c.File, c.Line, c.Col, msg)
	}
}

// tagKind maps a tag cursor kind to its wire discriminator.
func tagKind(k cursor.Kind) string {
	switch k {
	case cursor.Struct:
		return KindStruct
	case cursor.Union:
		return KindUnion
	default:
		return KindEnum
	}
}
