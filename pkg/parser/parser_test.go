package parser

import (
	"testing"

	"github.com/nullc/null/pkg/ast"
	"github.com/nullc/null/pkg/lexer"
)

func parse(t *testing.T, src string) (*ast.Program, *Parser) {
	toks := lexer.Lex(src)
	p := New(toks, src)
	prog := p.Parse()
	return prog, p
}

func TestParseHelloWorld(t *testing.T) {
	src := `@extern "C" do fn puts(s :: ptr<u8>) -> i64 end
fn main() -> i32 do
  puts("Hello, world!")
  ret 0
end
`
	prog, p := parse(t, src)
	if p.HadError() {
		t.Fatalf("unexpected diagnostics: %s", p.Diagnostics().Render(src))
	}
	if len(prog.Decls) != 2 {
		t.Fatalf("expected 2 decls, got %d: %v", len(prog.Decls), prog.Decls)
	}
	ext, ok := prog.Decls[0].(*ast.Extern)
	if !ok {
		t.Fatalf("expected Extern, got %T", prog.Decls[0])
	}
	if ext.ABI != "C" || len(ext.Fns) != 1 || ext.Fns[0].Name != "puts" {
		t.Errorf("unexpected extern decl: %+v", ext)
	}
	main, ok := prog.Decls[1].(*ast.FnDecl)
	if !ok {
		t.Fatalf("expected FnDecl, got %T", prog.Decls[1])
	}
	if main.Name != "main" || len(main.Body.Stmts) != 2 {
		t.Errorf("unexpected main decl: %+v", main)
	}
}

func TestParseStructInitOutOfOrder(t *testing.T) {
	src := `struct Point do x :: i64
y :: i64
end
fn main() -> i32 do
  let p = Point { y = 10, x = 5 }
  ret (p.x - 5) + (p.y - 10)
end
`
	prog, p := parse(t, src)
	if p.HadError() {
		t.Fatalf("unexpected diagnostics: %s", p.Diagnostics().Render(src))
	}
	structDecl, ok := prog.Decls[0].(*ast.StructDecl)
	if !ok || len(structDecl.Fields) != 2 {
		t.Fatalf("unexpected struct decl: %+v", prog.Decls[0])
	}
	mainFn := prog.Decls[1].(*ast.FnDecl)
	varDecl := mainFn.Body.Stmts[0].(*ast.VarDecl)
	init, ok := varDecl.Init.(*ast.StructInit)
	if !ok {
		t.Fatalf("expected StructInit, got %T", varDecl.Init)
	}
	if init.Fields[0].Name != "y" || init.Fields[1].Name != "x" {
		t.Errorf("expected literal field order preserved (y, x), got %+v", init.Fields)
	}
}

func TestParseForRange(t *testing.T) {
	src := `fn main() -> i32 do
  mut s :: i64 = 0
  for i in 0..5 do
    s = s + i
  end
  ret s
end
`
	_, p := parse(t, src)
	if p.HadError() {
		t.Fatalf("unexpected diagnostics: %s", p.Diagnostics().Render(src))
	}
}

func TestParsePrecedenceAndAssociativity(t *testing.T) {
	src := `fn main() -> i32 do
  ret 1 + 2 * 3 - 4 / 2
end
`
	prog, p := parse(t, src)
	if p.HadError() {
		t.Fatalf("unexpected diagnostics: %s", p.Diagnostics().Render(src))
	}
	fn := prog.Decls[0].(*ast.FnDecl)
	ret := fn.Body.Stmts[0].(*ast.Return)
	top, ok := ret.Value.(*ast.Binary)
	if !ok || top.Op != ast.Sub {
		t.Fatalf("expected top-level '-' , got %#v", ret.Value)
	}
}

func TestParseIfElifElse(t *testing.T) {
	src := `fn classify(x :: i64) -> i64 do
  if x < 0 do
    ret 0
  elif x == 0 do
    ret 1
  else
    ret 2
  end
end
`
	prog, p := parse(t, src)
	if p.HadError() {
		t.Fatalf("unexpected diagnostics: %s", p.Diagnostics().Render(src))
	}
	fn := prog.Decls[0].(*ast.FnDecl)
	ifStmt := fn.Body.Stmts[0].(*ast.If)
	if len(ifStmt.ElifClauses) != 1 || ifStmt.Else == nil {
		t.Fatalf("expected one elif and an else, got %+v", ifStmt)
	}
}

func TestParsePipeDesugarsToCall(t *testing.T) {
	src := `fn main() -> i32 do
  ret double(x) |> triple()
end
`
	prog, p := parse(t, src)
	if p.HadError() {
		t.Fatalf("unexpected diagnostics: %s", p.Diagnostics().Render(src))
	}
	fn := prog.Decls[0].(*ast.FnDecl)
	ret := fn.Body.Stmts[0].(*ast.Return)
	call, ok := ret.Value.(*ast.Call)
	if !ok {
		t.Fatalf("expected Call, got %T", ret.Value)
	}
	callee, ok := call.Callee.(*ast.Identifier)
	if !ok || callee.Name != "triple" {
		t.Fatalf("expected callee 'triple', got %+v", call.Callee)
	}
	if len(call.Args) != 1 {
		t.Fatalf("expected pipe to insert one argument, got %d", len(call.Args))
	}
}

func TestParseEnumVariantAccess(t *testing.T) {
	src := `enum Color do Red
Green
Blue
end
fn main() -> i32 do
  let c = Color::Green
  ret 0
end
`
	prog, p := parse(t, src)
	if p.HadError() {
		t.Fatalf("unexpected diagnostics: %s", p.Diagnostics().Render(src))
	}
	enumDecl := prog.Decls[0].(*ast.EnumDecl)
	if len(enumDecl.Variants) != 3 || enumDecl.Variants[2].Value != 2 {
		t.Fatalf("unexpected enum decl: %+v", enumDecl)
	}
	fn := prog.Decls[1].(*ast.FnDecl)
	varDecl := fn.Body.Stmts[0].(*ast.VarDecl)
	ev, ok := varDecl.Init.(*ast.EnumVariant)
	if !ok || ev.EnumName != "Color" || ev.VariantName != "Green" {
		t.Fatalf("expected EnumVariant Color::Green, got %+v", varDecl.Init)
	}
}

func TestParseArrayAndPtrTypes(t *testing.T) {
	src := `fn f(xs :: [i32; 4], p :: ptr<i32>) -> [i32] do
  ret xs
end
`
	_, p := parse(t, src)
	if p.HadError() {
		t.Fatalf("unexpected diagnostics: %s", p.Diagnostics().Render(src))
	}
}

func TestParseNegativeArraySizeIsError(t *testing.T) {
	src := `fn f(xs :: [i32; -1]) -> void do
  ret
end
`
	_, p := parse(t, src)
	if !p.HadError() {
		t.Fatal("expected a parse error for a negative array size")
	}
}

func TestParsePanicModeRecoversAtNextDecl(t *testing.T) {
	src := `fn broken( -> i32 do
  ret 0
end
fn ok() -> i32 do
  ret 1
end
`
	prog, p := parse(t, src)
	if !p.HadError() {
		t.Fatal("expected a diagnostic for the malformed function")
	}
	found := false
	for _, d := range prog.Decls {
		if fn, ok := d.(*ast.FnDecl); ok && fn.Name == "ok" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected parsing to resynchronize and still find 'ok', got decls: %v", prog.Decls)
	}
	if len(p.Diagnostics().Items()) != 1 {
		t.Errorf("expected exactly one diagnostic (panic-mode suppresses the rest), got %d", len(p.Diagnostics().Items()))
	}
}

func TestParseMutabilityStatementShape(t *testing.T) {
	src := `fn main() -> i32 do
  let x :: i64 = 1
  x = 2
  ret 0
end
`
	prog, p := parse(t, src)
	if p.HadError() {
		t.Fatalf("unexpected diagnostics: %s", p.Diagnostics().Render(src))
	}
	fn := prog.Decls[0].(*ast.FnDecl)
	if _, ok := fn.Body.Stmts[1].(*ast.Assign); !ok {
		t.Fatalf("expected an Assign statement, got %T", fn.Body.Stmts[1])
	}
}
