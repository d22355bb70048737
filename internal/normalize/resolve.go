package normalize

import "github.com/hargabyte/h2y/internal/cursor"

// resolveType normalizes one type descriptor. It recurses structurally
// (pointee, element, return type, parameters); tag types are delegated to
// resolveTag so hoisting and deduplication stay in one place. Incomplete
// or unresolvable descriptors degrade to an unknown node rather than
// failing the walk.
//
// The context applies only to the descriptor itself: a tag reached
// through a pointer or array is no longer the typedef target.
func (w *walker) resolveType(t *cursor.Type, ctx Context) (*Type, error) {
	if t == nil {
		return &Type{Kind: KindUnknown}, nil
	}

	var n *Type
	switch t.Kind {
	case cursor.KindVoid, cursor.KindBool, cursor.KindChar, cursor.KindInt, cursor.KindFloat:
		n = &Type{Kind: primitiveKind(t.Kind), Name: t.Spelling}

	case cursor.KindPointer:
		pointee, err := w.resolveType(t.Pointee, Context{})
		if err != nil {
			return nil, err
		}
		n = &Type{Kind: KindPointer, Type: pointee}

	case cursor.KindConstantArray:
		elem, err := w.resolveType(t.Elem, Context{})
		if err != nil {
			return nil, err
		}
		length := t.Count
		n = &Type{Kind: KindArray, Type: elem, Length: &length}

	case cursor.KindIncompleteArray:
		elem, err := w.resolveType(t.Elem, Context{})
		if err != nil {
			return nil, err
		}
		n = &Type{Kind: KindArray, Type: elem}

	case cursor.KindFunctionProto:
		ret, err := w.resolveType(t.Result, Context{})
		if err != nil {
			return nil, err
		}
		params, err := w.resolveParams(t.Params)
		if err != nil {
			return nil, err
		}
		n = &Type{Kind: KindFunction, Type: ret, Params: params, VarArgs: t.Variadic}

	case cursor.KindFunctionNoProto:
		ret, err := w.resolveType(t.Result, Context{})
		if err != nil {
			return nil, err
		}
		n = &Type{Kind: KindFunction, Type: ret}

	case cursor.KindRecord, cursor.KindEnum:
		if t.Decl == nil {
			n = &Type{Kind: KindUnknown}
			break
		}
		tag, err := w.resolveTag(t.Decl, ctx)
		if err != nil {
			return nil, err
		}
		n = tag

	case cursor.KindTypedef:
		n = &Type{Kind: KindCustomType, Name: t.Spelling}

	default:
		n = &Type{Kind: KindUnknown}
	}

	n.Const = t.Const
	n.Volatile = t.Volatile
	n.Restrict = t.Restrict
	return n, nil
}

// primitiveKind maps a frontend primitive category to its wire kind.
func primitiveKind(k cursor.TypeKind) string {
	switch k {
	case cursor.KindVoid:
		return KindVoid
	case cursor.KindBool:
		return KindBool
	case cursor.KindChar:
		return KindChar
	case cursor.KindFloat:
		return KindFloat
	default:
		return KindInt
	}
}
