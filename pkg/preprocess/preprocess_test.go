package preprocess

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPreprocessNoDirectives(t *testing.T) {
	src := "fn main() -> i32 do\n  ret 0\nend\n"
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.null")
	out, err := Preprocess(src, entry)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if out != src {
		t.Errorf("expected verbatim passthrough, got %q", out)
	}
}

func TestPreprocessRelativeUse(t *testing.T) {
	dir := t.TempDir()
	helperPath := filepath.Join(dir, "helper.null")
	helperContent := "fn helper() -> i32 do ret 1 end\n"
	if err := os.WriteFile(helperPath, []byte(helperContent), 0644); err != nil {
		t.Fatalf("write helper: %v", err)
	}

	entry := filepath.Join(dir, "main.null")
	mainContent := `@use "./helper.null"
fn main() -> i32 do ret helper() end
`
	out, err := Preprocess(mainContent, entry)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if !strings.Contains(out, helperContent) {
		t.Errorf("expected spliced helper content, got %q", out)
	}
}

func TestPreprocessCycleIsSkippedNotError(t *testing.T) {
	dir := t.TempDir()
	aPath := filepath.Join(dir, "a.null")
	bPath := filepath.Join(dir, "b.null")

	aContent := `@use "./b.null"
fn a() -> i32 do ret 1 end
`
	bContent := `@use "./a.null"
fn b() -> i32 do ret 2 end
`
	if err := os.WriteFile(aPath, []byte(aContent), 0644); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := os.WriteFile(bPath, []byte(bContent), 0644); err != nil {
		t.Fatalf("write b: %v", err)
	}

	out, err := Preprocess(aContent, aPath)
	if err != nil {
		t.Fatalf("expected cyclic @use to terminate without error, got: %v", err)
	}
	if strings.Count(out, "fn b() -> i32") != 1 || strings.Count(out, "fn a() -> i32") != 1 {
		t.Errorf("expected both module bodies spliced exactly once, got %q", out)
	}
}

func TestPreprocessDiamondSplicedOnce(t *testing.T) {
	dir := t.TempDir()
	leafPath := filepath.Join(dir, "leaf.null")
	leftPath := filepath.Join(dir, "left.null")
	rightPath := filepath.Join(dir, "right.null")

	leafContent := "fn leaf() -> i32 do ret 0 end\n"
	if err := os.WriteFile(leafPath, []byte(leafContent), 0644); err != nil {
		t.Fatalf("write leaf: %v", err)
	}
	if err := os.WriteFile(leftPath, []byte(`@use "./leaf.null"
fn left() -> i32 do ret leaf() end
`), 0644); err != nil {
		t.Fatalf("write left: %v", err)
	}
	if err := os.WriteFile(rightPath, []byte(`@use "./leaf.null"
fn right() -> i32 do ret leaf() end
`), 0644); err != nil {
		t.Fatalf("write right: %v", err)
	}

	entry := filepath.Join(dir, "main.null")
	mainContent := `@use "./left.null"
@use "./right.null"
fn main() -> i32 do ret left() + right() end
`
	out, err := Preprocess(mainContent, entry)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if strings.Count(out, "fn leaf()") != 1 {
		t.Errorf("expected leaf module spliced exactly once, got %q", out)
	}
}

func TestPreprocessUseInsideStringNotADirective(t *testing.T) {
	src := `fn main() -> i32 do
  puts("@use is not a directive inside a string literal")
  ret 0
end
`
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.null")
	out, err := Preprocess(src, entry)
	if err != nil {
		t.Fatalf("Preprocess failed: %v", err)
	}
	if out != src {
		t.Errorf("expected string contents preserved verbatim, got %q", out)
	}
}

func TestPreprocessMalformedUseIsError(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.null")
	_, err := Preprocess(`@use nope
`, entry)
	if err == nil {
		t.Fatal("expected an error for a @use directive without a quoted path")
	}
}

func TestPreprocessMissingFileIsError(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.null")
	_, err := Preprocess(`@use "./nonexistent.null"
`, entry)
	if err == nil {
		t.Fatal("expected an error when the referenced module cannot be read")
	}
}

func TestPreprocessOversizedSourceIsRejected(t *testing.T) {
	dir := t.TempDir()
	entry := filepath.Join(dir, "main.null")
	big := strings.Repeat("a", MaxSourceBytes+1)
	_, err := Preprocess(big, entry)
	if err == nil {
		t.Fatal("expected an error for a source file exceeding the size cap")
	}
}

func TestPreprocessTooManyModulesIsError(t *testing.T) {
	dir := t.TempDir()
	var sb strings.Builder
	for i := 0; i < MaxModules+1; i++ {
		path := filepath.Join(dir, "m"+itoa(i)+".null")
		if err := os.WriteFile(path, []byte("fn noop() -> i32 do ret 0 end\n"), 0644); err != nil {
			t.Fatalf("write module %d: %v", i, err)
		}
		sb.WriteString(`@use "./m` + itoa(i) + `.null"` + "\n")
	}
	entry := filepath.Join(dir, "main.null")
	_, err := Preprocess(sb.String(), entry)
	if err == nil {
		t.Fatal("expected an error when the module count cap is exceeded")
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
