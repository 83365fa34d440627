package ir

import (
	"strings"
	"testing"

	"github.com/nullc/null/pkg/analyzer"
	"github.com/nullc/null/pkg/ast"
	"github.com/nullc/null/pkg/lexer"
	"github.com/nullc/null/pkg/parser"
)

func build(t *testing.T, src string) (*ast.Program, *analyzer.Analyzer) {
	t.Helper()
	toks := lexer.Lex(src)
	p := parser.New(toks, src)
	prog := p.Parse()
	if p.HadError() {
		t.Fatalf("parse failed: %s", p.Diagnostics().Render(src))
	}
	a := analyzer.New()
	a.Analyze(prog)
	if a.HadError() {
		t.Fatalf("analyze failed: %s", a.Diagnostics().Render(src))
	}
	return prog, a
}

func TestBuildSimpleReturn(t *testing.T) {
	prog, a := build(t, `fn main() -> i32 do
  ret 2 + 3
end
`)
	mod, diags := Build(prog, a)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Items())
	}
	ir := mod.String()
	if !strings.Contains(ir, "define i32 @main()") {
		t.Errorf("missing main definition:\n%s", ir)
	}
	if !strings.Contains(ir, "add") {
		t.Errorf("expected an add instruction:\n%s", ir)
	}
}

func TestBuildIfElseBranches(t *testing.T) {
	prog, a := build(t, `fn main() -> i32 do
  mut x :: i64 = 0
  if x == 0 do
    x = 1
  elif x == 1 do
    x = 2
  else
    x = 3
  end
  ret x
end
`)
	mod, diags := Build(prog, a)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Items())
	}
	ir := mod.String()
	if !strings.Contains(ir, "br i1") {
		t.Errorf("expected a conditional branch:\n%s", ir)
	}
	if strings.Count(ir, "icmp eq") != 2 {
		t.Errorf("expected two eq comparisons (if + elif), got:\n%s", ir)
	}
}

func TestBuildWhileLoop(t *testing.T) {
	prog, a := build(t, `fn main() -> i32 do
  mut i :: i64 = 0
  mut s :: i64 = 0
  while i < 5 do
    s = s + i
    i = i + 1
  end
  ret s
end
`)
	mod, diags := Build(prog, a)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Items())
	}
	ir := mod.String()
	if !strings.Contains(ir, "while.cond") || !strings.Contains(ir, "while.body") {
		t.Errorf("expected while.cond/while.body blocks:\n%s", ir)
	}
}

func TestBuildForLoopRange(t *testing.T) {
	prog, a := build(t, `fn main() -> i32 do
  mut s :: i64 = 0
  for i in 0..10 do
    s = s + i
  end
  ret s
end
`)
	mod, diags := Build(prog, a)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Items())
	}
	ir := mod.String()
	if !strings.Contains(ir, "icmp slt") {
		t.Errorf("expected a signed less-than comparison driving the loop:\n%s", ir)
	}
}

func TestBuildStructFieldAccessOutOfOrder(t *testing.T) {
	prog, a := build(t, `struct Point do x :: i64
y :: i64
end
fn main() -> i32 do
  let p = Point { y = 10, x = 5 }
  ret (p.x - 5) + (p.y - 10)
end
`)
	mod, diags := Build(prog, a)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Items())
	}
	ir := mod.String()
	if !strings.Contains(ir, "getelementptr") {
		t.Errorf("expected field access to lower to getelementptr:\n%s", ir)
	}
}

func TestBuildArrayIndexAssign(t *testing.T) {
	prog, a := build(t, `fn main() -> i32 do
  mut a = [1, 2, 3]
  a[1] = 42
  ret a[1]
end
`)
	mod, diags := Build(prog, a)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Items())
	}
	ir := mod.String()
	if !strings.Contains(ir, "getelementptr") {
		t.Errorf("expected array indexing to lower to getelementptr:\n%s", ir)
	}
}

func TestBuildShortCircuitAndProducesNoEagerCall(t *testing.T) {
	prog, a := build(t, `fn side_effect() -> bool do
  ret true
end
fn main() -> i32 do
  mut ok :: bool = false
  if false and side_effect() do
    ok = true
  end
  ret 0
end
`)
	mod, diags := Build(prog, a)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Items())
	}
	ir := mod.String()
	if !strings.Contains(ir, "logical.rhs") || !strings.Contains(ir, "logical.merge") {
		t.Errorf("expected short-circuit and to lower through logical.rhs/logical.merge blocks:\n%s", ir)
	}
}

func TestBuildSignExtendOnWidenedReturn(t *testing.T) {
	prog, a := build(t, `fn small(x :: i8) -> i64 do
  ret x
end
fn main() -> i32 do
  ret small(5)
end
`)
	mod, diags := Build(prog, a)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Items())
	}
	ir := mod.String()
	if !strings.Contains(ir, "sext") {
		t.Errorf("expected an i8->i64 sign-extend on return:\n%s", ir)
	}
}

func TestBuildStringLiteralDeduplicates(t *testing.T) {
	prog, a := build(t, `@extern "C" do fn puts(s :: ptr<u8>) -> i64 end
fn main() -> i32 do
  puts("hi")
  puts("hi")
  ret 0
end
`)
	mod, diags := Build(prog, a)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Items())
	}
	ir := mod.String()
	if strings.Count(ir, `c"hi\00"`) != 1 {
		t.Errorf("expected the duplicate \"hi\" literal to share one global:\n%s", ir)
	}
}

func TestBuildModuleQualifiedCallMangled(t *testing.T) {
	prog, a := build(t, `struct Counter do n :: i64
end
fn Counter_bump(c :: Counter) -> i64 do
  ret c.n + 1
end
fn main() -> i32 do
  let c = Counter { n = 1 }
  ret Counter.bump(c)
end
`)
	mod, diags := Build(prog, a)
	if diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", diags.Items())
	}
	ir := mod.String()
	if !strings.Contains(ir, "call i64 @Counter_bump") {
		t.Errorf("expected a direct call to the mangled function name:\n%s", ir)
	}
}
