package frontend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hargabyte/h2y/internal/cursor"
)

func loadSource(t *testing.T, src string) *cursor.Cursor {
	t.Helper()
	f := New(Options{SystemIncludeDirs: []string{}})
	t.Cleanup(f.Close)

	tu, err := f.LoadSource("test.h", []byte(src))
	if err != nil {
		t.Fatalf("load source: %v", err)
	}
	return tu
}

func findCursor(tu *cursor.Cursor, kind cursor.Kind, name string) *cursor.Cursor {
	for _, c := range tu.Children {
		if c.Kind == kind && c.Name == name {
			return c
		}
	}
	return nil
}

func TestStructDefinition(t *testing.T) {
	tu := loadSource(t, `
struct point {
    int x;
    int y;
};
`)

	s := findCursor(tu, cursor.Struct, "point")
	if s == nil {
		t.Fatal("struct point not found")
	}
	if !s.Definition {
		t.Fatal("struct point not marked as definition")
	}
	if len(s.Children) != 2 {
		t.Fatalf("fields = %d, want 2", len(s.Children))
	}
	x := s.Children[0]
	if x.Name != "x" || x.Type.Kind != cursor.KindInt || x.Type.Spelling != "int" {
		t.Fatalf("field x = %+v", x)
	}
}

func TestNamedTagSharesOneCursor(t *testing.T) {
	tu := loadSource(t, `
struct node;
struct node { struct node *next; };
extern struct node head;
`)

	def := findCursor(tu, cursor.Struct, "node")
	if def == nil {
		t.Fatal("struct node not found")
	}
	if !def.Definition {
		t.Fatal("forward declaration did not pick up the later definition")
	}

	head := findCursor(tu, cursor.Var, "head")
	if head == nil {
		t.Fatal("variable head not found")
	}
	if head.Type.Decl == nil || head.Type.Decl.ID != def.ID {
		t.Fatal("variable and definition must share the canonical tag cursor")
	}

	next := def.Children[0]
	if next.Type.Kind != cursor.KindPointer {
		t.Fatalf("next kind = %v, want pointer", next.Type.Kind)
	}
	if next.Type.Pointee.Decl.ID != def.ID {
		t.Fatal("self-referential field must point at the canonical cursor")
	}
}

func TestTypedefMultipleDeclarators(t *testing.T) {
	tu := loadSource(t, `
typedef struct blob { int size; } blob_t, *blob_ptr;
`)

	td := findCursor(tu, cursor.Typedef, "blob_t")
	if td == nil {
		t.Fatal("typedef blob_t not found")
	}
	if td.Type.Kind != cursor.KindRecord {
		t.Fatalf("blob_t kind = %v, want record", td.Type.Kind)
	}

	ptr := findCursor(tu, cursor.Typedef, "blob_ptr")
	if ptr == nil {
		t.Fatal("typedef blob_ptr not found")
	}
	if ptr.Type.Kind != cursor.KindPointer || ptr.Type.Pointee.Kind != cursor.KindRecord {
		t.Fatalf("blob_ptr type = %+v, want pointer to record", ptr.Type)
	}
	if ptr.Type.Pointee.Decl.ID != td.Type.Decl.ID {
		t.Fatal("both declarators must share one tag cursor")
	}
}

func TestTypedefOfTypedef(t *testing.T) {
	tu := loadSource(t, `
typedef int len_t;
typedef len_t size_alias;
`)

	alias := findCursor(tu, cursor.Typedef, "size_alias")
	if alias == nil {
		t.Fatal("typedef size_alias not found")
	}
	if alias.Type.Kind != cursor.KindTypedef || alias.Type.Spelling != "len_t" {
		t.Fatalf("underlying = %+v, want typedef reference to len_t", alias.Type)
	}
}

func TestEnumEvaluation(t *testing.T) {
	tu := loadSource(t, `
#define MAX_SIZE 100
enum mode {
    MODE_OFF = 1,
    MODE_ON,
    MODE_BIG = MAX_SIZE + 2,
    MODE_FLAG = 1 << 4,
    MODE_CHAR = 'x',
    MODE_ALIAS = MODE_ON
};
`)

	e := findCursor(tu, cursor.Enum, "mode")
	if e == nil {
		t.Fatal("enum mode not found")
	}

	want := map[string]int64{
		"MODE_OFF":   1,
		"MODE_ON":    2,
		"MODE_BIG":   102,
		"MODE_FLAG":  16,
		"MODE_CHAR":  120,
		"MODE_ALIAS": 2,
	}
	if len(e.Children) != len(want) {
		t.Fatalf("constants = %d, want %d", len(e.Children), len(want))
	}
	for _, c := range e.Children {
		if c.Value != want[c.Name] {
			t.Errorf("%s = %d, want %d", c.Name, c.Value, want[c.Name])
		}
	}
}

func TestDefineRedefinitionUsesSourceOrder(t *testing.T) {
	tu := loadSource(t, `
#define LIMIT 100
enum a { FIRST = LIMIT };
#define LIMIT 101
enum b { SECOND = LIMIT };
`)

	a := findCursor(tu, cursor.Enum, "a")
	b := findCursor(tu, cursor.Enum, "b")
	if a.Children[0].Value != 100 {
		t.Errorf("FIRST = %d, want 100", a.Children[0].Value)
	}
	if b.Children[0].Value != 101 {
		t.Errorf("SECOND = %d, want 101", b.Children[0].Value)
	}
}

func TestBitfields(t *testing.T) {
	tu := loadSource(t, `
struct flags {
    unsigned int ready : 1;
    unsigned int : 0;
    unsigned int rest;
};
`)

	s := findCursor(tu, cursor.Struct, "flags")
	if s == nil {
		t.Fatal("struct flags not found")
	}
	if len(s.Children) != 3 {
		t.Fatalf("fields = %d, want 3", len(s.Children))
	}
	if s.Children[0].BitWidth != 1 {
		t.Errorf("ready width = %d, want 1", s.Children[0].BitWidth)
	}
	if s.Children[1].Name != "" || s.Children[1].BitWidth != 0 {
		t.Errorf("padding = %+v, want unnamed zero-width field", s.Children[1])
	}
	if s.Children[2].BitWidth != -1 {
		t.Errorf("rest width = %d, want -1 (not a bitfield)", s.Children[2].BitWidth)
	}
}

func TestDeclaratorUnwinding(t *testing.T) {
	tu := loadSource(t, `
int *arr[3];
int (*parr)[4];
int (*cb)(int, char);
`)

	t.Run("array of pointers", func(t *testing.T) {
		v := findCursor(tu, cursor.Var, "arr")
		if v == nil {
			t.Fatal("arr not found")
		}
		typ := v.Type
		if typ.Kind != cursor.KindConstantArray || typ.Count != 3 {
			t.Fatalf("outer = %+v, want array of 3", typ)
		}
		if typ.Elem.Kind != cursor.KindPointer || typ.Elem.Pointee.Kind != cursor.KindInt {
			t.Fatalf("element = %+v, want pointer to int", typ.Elem)
		}
	})

	t.Run("pointer to array", func(t *testing.T) {
		v := findCursor(tu, cursor.Var, "parr")
		if v == nil {
			t.Fatal("parr not found")
		}
		typ := v.Type
		if typ.Kind != cursor.KindPointer {
			t.Fatalf("outer = %+v, want pointer", typ)
		}
		if typ.Pointee.Kind != cursor.KindConstantArray || typ.Pointee.Count != 4 {
			t.Fatalf("pointee = %+v, want array of 4", typ.Pointee)
		}
	})

	t.Run("pointer to function", func(t *testing.T) {
		v := findCursor(tu, cursor.Var, "cb")
		if v == nil {
			t.Fatal("cb not found")
		}
		typ := v.Type
		if typ.Kind != cursor.KindPointer {
			t.Fatalf("outer = %+v, want pointer", typ)
		}
		fn := typ.Pointee
		if fn.Kind != cursor.KindFunctionProto || len(fn.Params) != 2 {
			t.Fatalf("pointee = %+v, want two-parameter function", fn)
		}
		if fn.Params[1].Type.Kind != cursor.KindChar {
			t.Fatalf("param 1 = %+v, want char", fn.Params[1].Type)
		}
	})
}

func TestFunctionPrototypes(t *testing.T) {
	tu := loadSource(t, `
extern void *alloc(unsigned long size);
int printf_like(const char *fmt, ...);
int takes_nothing(void);
int legacy();
`)

	t.Run("extern with named param", func(t *testing.T) {
		fn := findCursor(tu, cursor.Function, "alloc")
		if fn == nil {
			t.Fatal("alloc not found")
		}
		if fn.Storage != cursor.StorageExtern {
			t.Errorf("storage = %v, want extern", fn.Storage)
		}
		if fn.Type.Kind != cursor.KindFunctionProto {
			t.Fatalf("type = %+v, want prototype", fn.Type)
		}
		if fn.Type.Result.Kind != cursor.KindPointer {
			t.Errorf("result = %+v, want pointer", fn.Type.Result)
		}
		if len(fn.Type.Params) != 1 || fn.Type.Params[0].Name != "size" {
			t.Fatalf("params = %+v", fn.Type.Params)
		}
		if fn.Type.Params[0].Type.Spelling != "unsigned long" {
			t.Errorf("param spelling = %q, want 'unsigned long'", fn.Type.Params[0].Type.Spelling)
		}
	})

	t.Run("variadic", func(t *testing.T) {
		fn := findCursor(tu, cursor.Function, "printf_like")
		if fn == nil {
			t.Fatal("printf_like not found")
		}
		if !fn.Type.Variadic {
			t.Error("variadic flag not set")
		}
		p := fn.Type.Params[0].Type
		if p.Kind != cursor.KindPointer || !p.Pointee.Const {
			t.Errorf("param = %+v, want pointer to const char", p)
		}
	})

	t.Run("void parameter list is a prototype", func(t *testing.T) {
		fn := findCursor(tu, cursor.Function, "takes_nothing")
		if fn == nil {
			t.Fatal("takes_nothing not found")
		}
		if fn.Type.Kind != cursor.KindFunctionProto || len(fn.Type.Params) != 0 {
			t.Fatalf("type = %+v, want zero-parameter prototype", fn.Type)
		}
	})

	t.Run("empty parameter list is no-proto", func(t *testing.T) {
		fn := findCursor(tu, cursor.Function, "legacy")
		if fn == nil {
			t.Fatal("legacy not found")
		}
		if fn.Type.Kind != cursor.KindFunctionNoProto {
			t.Fatalf("type = %+v, want no-proto", fn.Type)
		}
	})
}

func TestFunctionDefinitionFlagged(t *testing.T) {
	tu := loadSource(t, `
static int twice(int x) { return x * 2; }
`)

	fn := findCursor(tu, cursor.Function, "twice")
	if fn == nil {
		t.Fatal("twice not found")
	}
	if !fn.Definition {
		t.Fatal("function definition not flagged")
	}
}

func TestVariableInitializer(t *testing.T) {
	tu := loadSource(t, `
static const int limit = 42;
int tentative[];
`)

	v := findCursor(tu, cursor.Var, "limit")
	if v == nil {
		t.Fatal("limit not found")
	}
	if v.Storage != cursor.StorageStatic {
		t.Errorf("storage = %v, want static", v.Storage)
	}
	if v.Init != "42" {
		t.Errorf("init = %q, want 42", v.Init)
	}
	if !v.Type.Const {
		t.Error("const qualifier lost")
	}

	arr := findCursor(tu, cursor.Var, "tentative")
	if arr == nil {
		t.Fatal("tentative not found")
	}
	if arr.Type.Kind != cursor.KindIncompleteArray {
		t.Errorf("tentative kind = %v, want incomplete array", arr.Type.Kind)
	}
}

func TestAnonymousMember(t *testing.T) {
	tu := loadSource(t, `
struct outer {
    union {
        int i;
        float f;
    } u;
    struct {
        int nested;
    };
};
`)

	s := findCursor(tu, cursor.Struct, "outer")
	if s == nil {
		t.Fatal("struct outer not found")
	}
	if len(s.Children) != 2 {
		t.Fatalf("fields = %d, want 2", len(s.Children))
	}

	u := s.Children[0]
	if u.Name != "u" || u.Type.Kind != cursor.KindRecord || u.Type.Decl.Kind != cursor.Union {
		t.Fatalf("field u = %+v, want named union member", u)
	}
	if u.Type.Decl.Name != "" {
		t.Error("union tag must stay anonymous")
	}

	anon := s.Children[1]
	if anon.Name != "" || anon.Type.Decl == nil || len(anon.Type.Decl.Children) != 1 {
		t.Fatalf("anonymous member = %+v", anon)
	}
}

func TestIncludesFollowed(t *testing.T) {
	dir := t.TempDir()
	sysDir := t.TempDir()

	dep := filepath.Join(dir, "dep.h")
	if err := os.WriteFile(dep, []byte("struct dep { int d; };\n"), 0644); err != nil {
		t.Fatal(err)
	}
	sys := filepath.Join(sysDir, "sys.h")
	if err := os.WriteFile(sys, []byte("typedef int sys_t;\n"), 0644); err != nil {
		t.Fatal(err)
	}
	main := filepath.Join(dir, "main.h")
	src := "#include \"dep.h\"\n#include <sys.h>\nstruct own { struct dep d; };\n"
	if err := os.WriteFile(main, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}

	f := New(Options{SystemIncludeDirs: []string{sysDir}})
	defer f.Close()

	tu, err := f.Load(main)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	depStruct := findCursor(tu, cursor.Struct, "dep")
	if depStruct == nil {
		t.Fatal("struct dep not found through quoted include")
	}
	if depStruct.System {
		t.Error("quoted include must not be flagged system")
	}
	if depStruct.File != dep {
		t.Errorf("dep origin = %q, want %q", depStruct.File, dep)
	}

	sysTd := findCursor(tu, cursor.Typedef, "sys_t")
	if sysTd == nil {
		t.Fatal("sys_t not found through angled include")
	}
	if !sysTd.System {
		t.Error("angled include resolved from system dir must be flagged system")
	}
}

func TestMissingIncludeIsDiagnosedNotFatal(t *testing.T) {
	var diags []string
	f := New(Options{
		SystemIncludeDirs: []string{},
		Diag:              func(file string, line, col uint32, msg string) { diags = append(diags, msg) },
	})
	defer f.Close()

	tu, err := f.LoadSource("test.h", []byte("#include \"nowhere.h\"\nint x;\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if findCursor(tu, cursor.Var, "x") == nil {
		t.Fatal("declaration after bad include was lost")
	}
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %v, want one missing-include warning", diags)
	}
}
