package eval

import (
	"bytes"
	"testing"

	"github.com/nullc/null/pkg/analyzer"
	"github.com/nullc/null/pkg/lexer"
	"github.com/nullc/null/pkg/parser"
)

// runSrc lexes, parses, and analyzes src, then runs it through the
// evaluator with stdout captured, returning the exit code and captured
// output.
func runSrc(t *testing.T, src string) (int, string) {
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

	in := New(&bytes.Buffer{}, nil)
	var out bytes.Buffer
	in.stdout = &out
	in.registerProgram(prog, a)

	entry, ok := in.functions["main"]
	if !ok {
		t.Fatalf("no main function in program")
	}
	result := in.callFunc(nil, entry)
	if in.diags.HasErrors() {
		t.Fatalf("runtime error: %s", in.diags.Render(src))
	}
	code := 0
	if result.Kind == Int {
		code = int(result.IntVal)
	}
	return code, out.String()
}

func TestEvalArithmetic(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{"add", `fn main() -> i32 do ret 2 + 3 end`, 5},
		{"precedence", `fn main() -> i32 do ret 2 + 3 * 4 end`, 14},
		{"mod", `fn main() -> i32 do ret 17 % 5 end`, 2},
		{"shift", `fn main() -> i32 do ret 1 << 4 end`, 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := runSrc(t, tt.src)
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEvalForLoopAccumulates(t *testing.T) {
	src := `fn main() -> i32 do
  mut s :: i64 = 0
  for i in 0..5 do
    s = s + i
  end
  ret s
end
`
	got, _ := runSrc(t, src)
	if got != 10 {
		t.Errorf("got %d, want 10", got)
	}
}

func TestEvalWhileBreakContinue(t *testing.T) {
	src := `fn main() -> i32 do
  mut i :: i64 = 0
  mut s :: i64 = 0
  while i < 10 do
    i = i + 1
    if i == 5 do
      break
    end
    if i % 2 == 0 do
      continue
    end
    s = s + i
  end
  ret s
end
`
	// i runs 1,2,3,4 (stops before 5): odd values 1,3 accumulate (2,4 skipped).
	got, _ := runSrc(t, src)
	if got != 4 {
		t.Errorf("got %d, want 4", got)
	}
}

func TestEvalShortCircuitAnd(t *testing.T) {
	src := `fn side_effect() -> bool do
  ret true
end
fn main() -> i32 do
  if false and side_effect() do
    ret 1
  end
  ret 0
end
`
	got, _ := runSrc(t, src)
	if got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

func TestEvalStructFieldOutOfOrder(t *testing.T) {
	src := `struct Point do x :: i64
y :: i64
end
fn main() -> i32 do
  let p = Point { y = 10, x = 5 }
  ret (p.x - 5) + (p.y - 10)
end
`
	got, _ := runSrc(t, src)
	if got != 0 {
		t.Errorf("got %d, want 0", got)
	}
}

func TestEvalArrayIndexAssign(t *testing.T) {
	src := `fn main() -> i32 do
  mut a = [1, 2, 3]
  a[1] = 42
  ret a[1]
end
`
	got, _ := runSrc(t, src)
	if got != 42 {
		t.Errorf("got %d, want 42", got)
	}
}

func TestEvalStructEquality(t *testing.T) {
	src := `struct Point do x :: i64
y :: i64
end
fn main() -> i32 do
  let a = Point { x = 1, y = 2 }
  let b = Point { x = 1, y = 2 }
  if a == b do
    ret 1
  end
  ret 0
end
`
	got, _ := runSrc(t, src)
	if got != 1 {
		t.Errorf("got %d, want 1", got)
	}
}

func TestEvalBuiltinPuts(t *testing.T) {
	src := `@extern "C" do fn puts(s :: ptr<u8>) -> i64 end
fn main() -> i32 do
  puts("hello")
  ret 0
end
`
	_, out := runSrc(t, src)
	if out != "hello\n" {
		t.Errorf("got %q, want %q", out, "hello\n")
	}
}

func TestEvalRecursiveFunction(t *testing.T) {
	src := `fn fact(n :: i64) -> i64 do
  if n <= 1 do
    ret 1
  end
  ret n * fact(n - 1)
end
fn main() -> i32 do
  ret fact(5)
end
`
	got, _ := runSrc(t, src)
	if got != 120 {
		t.Errorf("got %d, want 120", got)
	}
}
