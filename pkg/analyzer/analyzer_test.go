package analyzer

import (
	"testing"

	"github.com/nullc/null/pkg/ast"
	"github.com/nullc/null/pkg/lexer"
	"github.com/nullc/null/pkg/parser"
	"github.com/nullc/null/pkg/types"
)

func analyze(t *testing.T, src string) (*ast.Program, *Analyzer) {
	t.Helper()
	toks := lexer.Lex(src)
	p := parser.New(toks, src)
	prog := p.Parse()
	if p.HadError() {
		t.Fatalf("parse failed: %s", p.Diagnostics().Render(src))
	}
	a := New()
	a.Analyze(prog)
	return prog, a
}

func TestAnalyzeHelloWorld(t *testing.T) {
	src := `@extern "C" do fn puts(s :: ptr<u8>) -> i64 end
fn main() -> i32 do
  puts("Hello, world!")
  ret 0
end
`
	_, a := analyze(t, src)
	if a.HadError() {
		t.Fatalf("unexpected diagnostics: %s", a.Diagnostics().Render(src))
	}
}

func TestAnalyzeOutOfOrderStructInit(t *testing.T) {
	src := `struct Point do x :: i64
y :: i64
end
fn main() -> i32 do
  let p = Point { y = 10, x = 5 }
  ret (p.x - 5) + (p.y - 10)
end
`
	prog, a := analyze(t, src)
	if a.HadError() {
		t.Fatalf("unexpected diagnostics: %s", a.Diagnostics().Render(src))
	}
	mainFn := prog.Decls[1].(*ast.FnDecl)
	varDecl := mainFn.Body.Stmts[0].(*ast.VarDecl)
	if varDecl.ResolvedType().Kind != types.Struct || varDecl.ResolvedType().Name != "Point" {
		t.Errorf("expected Point struct type, got %v", varDecl.ResolvedType())
	}
}

func TestAnalyzeMutabilityError(t *testing.T) {
	src := `fn main() -> i32 do
  let x :: i64 = 1
  x = 2
  ret 0
end
`
	_, a := analyze(t, src)
	if !a.HadError() {
		t.Fatal("expected an immutable-assignment diagnostic")
	}
	found := false
	for _, d := range a.Diagnostics().Items() {
		if d.Message != "" {
			found = found || contains(d.Message, "immutable")
		}
	}
	if !found {
		t.Errorf("expected a diagnostic mentioning 'immutable', got %v", a.Diagnostics().Items())
	}
}

func TestAnalyzeParamAssignmentAllowed(t *testing.T) {
	src := `fn f(x :: i64) -> i64 do
  x = x + 1
  ret x
end
`
	_, a := analyze(t, src)
	if a.HadError() {
		t.Fatalf("assigning to a parameter should not trip the immutability check, got: %s", a.Diagnostics().Render(src))
	}
}

func TestAnalyzeForLoopIteratorType(t *testing.T) {
	src := `fn main() -> i32 do
  mut s :: i64 = 0
  for i in 0..5 do
    s = s + i
  end
  ret s
end
`
	_, a := analyze(t, src)
	if a.HadError() {
		t.Fatalf("unexpected diagnostics: %s", a.Diagnostics().Render(src))
	}
}

func TestAnalyzeForLoopIteratorIsImmutable(t *testing.T) {
	src := `fn main() -> i32 do
  for i in 0..5 do
    i = 9
  end
  ret 0
end
`
	_, a := analyze(t, src)
	if !a.HadError() {
		t.Fatal("expected an error assigning to the for-loop iterator")
	}
}

func TestAnalyzeDuplicateVarInSameScopeIsError(t *testing.T) {
	src := `fn main() -> i32 do
  let x :: i64 = 1
  let x :: i64 = 2
  ret 0
end
`
	_, a := analyze(t, src)
	if !a.HadError() {
		t.Fatal("expected a duplicate-declaration error")
	}
}

func TestAnalyzeShadowingAcrossScopesAllowed(t *testing.T) {
	src := `fn main() -> i32 do
  let x :: i64 = 1
  if true do
    let x :: i64 = 2
    ret x
  end
  ret x
end
`
	_, a := analyze(t, src)
	if a.HadError() {
		t.Fatalf("shadowing in a nested scope should be legal, got: %s", a.Diagnostics().Render(src))
	}
}

func TestAnalyzeBinaryTypeMismatch(t *testing.T) {
	src := `fn main() -> i32 do
  let x = true + 1
  ret 0
end
`
	_, a := analyze(t, src)
	if !a.HadError() {
		t.Fatal("expected a type-mismatch diagnostic for bool + int")
	}
}

func TestAnalyzeLogicalRequiresBooleans(t *testing.T) {
	src := `fn main() -> i32 do
  let x = 1 and 2
  ret 0
end
`
	_, a := analyze(t, src)
	if !a.HadError() {
		t.Fatal("expected a diagnostic: 'and' requires boolean operands")
	}
}

func TestAnalyzeUnknownFunctionCall(t *testing.T) {
	src := `fn main() -> i32 do
  ret nonexistent()
end
`
	_, a := analyze(t, src)
	if !a.HadError() {
		t.Fatal("expected an unknown-function diagnostic")
	}
}

func TestAnalyzeUnknownStructInit(t *testing.T) {
	src := `fn main() -> i32 do
  let p = Nope { x = 1 }
  ret 0
end
`
	_, a := analyze(t, src)
	if !a.HadError() {
		t.Fatal("expected an unknown-struct diagnostic")
	}
}

func TestAnalyzeInferenceRules(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want types.Kind
	}{
		{"int literal", `fn main() -> i32 do let x = 5 ret 0 end`, types.I64},
		{"float literal", `fn main() -> i32 do let x = 5.0 ret 0 end`, types.F64},
		{"bool literal", `fn main() -> i32 do let x = true ret 0 end`, types.Bool},
		{"string literal", `fn main() -> i32 do let x = "hi" ret 0 end`, types.Slice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog, a := analyze(t, tt.src)
			if a.HadError() {
				t.Fatalf("unexpected diagnostics: %s", a.Diagnostics().Render(tt.src))
			}
			fn := prog.Decls[0].(*ast.FnDecl)
			vd := fn.Body.Stmts[0].(*ast.VarDecl)
			if vd.ResolvedType().Kind != tt.want {
				t.Errorf("got %v, want kind %v", vd.ResolvedType(), tt.want)
			}
		})
	}
}

func TestAnalyzeEnumVariantAccess(t *testing.T) {
	src := `enum Color do Red
Green
Blue
end
fn main() -> i32 do
  let c = Color::Green
  ret 0
end
`
	prog, a := analyze(t, src)
	if a.HadError() {
		t.Fatalf("unexpected diagnostics: %s", a.Diagnostics().Render(src))
	}
	fn := prog.Decls[1].(*ast.FnDecl)
	vd := fn.Body.Stmts[0].(*ast.VarDecl)
	if vd.ResolvedType().Kind != types.Enum || vd.ResolvedType().Name != "Color" {
		t.Errorf("expected enum Color, got %v", vd.ResolvedType())
	}
}

func TestAnalyzeDuplicateTopLevelFunction(t *testing.T) {
	src := `fn dup() -> i32 do ret 0 end
fn dup() -> i32 do ret 1 end
`
	_, a := analyze(t, src)
	if !a.HadError() {
		t.Fatal("expected a duplicate top-level function diagnostic")
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
