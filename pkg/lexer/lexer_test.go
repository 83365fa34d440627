package lexer

import (
	"testing"

	"github.com/nullc/null/pkg/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestLexKeywordsAndIdents(t *testing.T) {
	toks := Lex("fn add mut x")
	want := []token.Kind{token.FN, token.IDENT, token.MUT, token.IDENT, token.EOF}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %d tokens, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLexNumbers(t *testing.T) {
	toks := Lex("42 3.14 0")
	if toks[0].Kind != token.INT || toks[0].IntValue != 42 {
		t.Errorf("got %v, want INT 42", toks[0])
	}
	if toks[1].Kind != token.FLOAT || toks[1].FloatValue != 3.14 {
		t.Errorf("got %v, want FLOAT 3.14", toks[1])
	}
	if toks[2].Kind != token.INT || toks[2].IntValue != 0 {
		t.Errorf("got %v, want INT 0", toks[2])
	}
}

func TestLexStringEscapes(t *testing.T) {
	toks := Lex(`"hello\nworld\t\"quoted\""`)
	if toks[0].Kind != token.STRING {
		t.Fatalf("got %s, want STRING", toks[0].Kind)
	}
	want := "hello\nworld\t\"quoted\""
	if toks[0].Lexeme != want {
		t.Errorf("got %q, want %q", toks[0].Lexeme, want)
	}
}

func TestLexUnterminatedString(t *testing.T) {
	toks := Lex(`"abc`)
	if toks[0].Kind != token.ERROR {
		t.Fatalf("got %s, want ERROR", toks[0].Kind)
	}
}

func TestLexLineComment(t *testing.T) {
	toks := Lex("let x -- this is a comment\nlet y")
	want := []token.Kind{token.LET, token.IDENT, token.NEWLINE, token.LET, token.IDENT, token.EOF}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLexBlockComment(t *testing.T) {
	toks := Lex("let x\n--- block\nspanning lines ---\nlet y")
	want := []token.Kind{token.LET, token.IDENT, token.NEWLINE, token.NEWLINE, token.LET, token.IDENT, token.EOF}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestLexUnterminatedBlockComment(t *testing.T) {
	toks := Lex("let x\n--- never closed")
	found := false
	for _, tk := range toks {
		if tk.Kind == token.ERROR {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an ERROR token for unterminated block comment, got %v", kinds(toks))
	}
}

func TestLexDirectives(t *testing.T) {
	toks := Lex(`@use "std/io" as io` + "\n@extern\n@bogus")
	if toks[0].Kind != token.DIR_USE {
		t.Errorf("got %s, want DIR_USE", toks[0].Kind)
	}
	var sawExtern, sawError bool
	for _, tk := range toks {
		if tk.Kind == token.DIR_EXTERN {
			sawExtern = true
		}
		if tk.Kind == token.ERROR {
			sawError = true
		}
	}
	if !sawExtern {
		t.Error("expected DIR_EXTERN")
	}
	if !sawError {
		t.Error("expected ERROR token for @bogus")
	}
}

func TestLexOperators(t *testing.T) {
	toks := Lex("<= >= == != -> => |> :: .. << >>")
	want := []token.Kind{
		token.LE, token.GE, token.EQ, token.NE, token.ARROW, token.FATARROW,
		token.PIPEGT, token.COLONCOLON, token.DOTDOT, token.SHL, token.SHR, token.EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s, want %s", i, got[i], want[i])
		}
	}
}

func TestLexBangNotFollowedByEquals(t *testing.T) {
	toks := Lex("!true")
	if toks[0].Kind != token.ERROR {
		t.Fatalf("got %s, want ERROR", toks[0].Kind)
	}
}

func TestLineIndexContainsAndLine(t *testing.T) {
	src := "abc\ndef\nghi"
	li := NewLineIndex(src)
	if li.Line(1) != "abc" || li.Line(2) != "def" || li.Line(3) != "ghi" {
		t.Fatalf("unexpected line contents: %q %q %q", li.Line(1), li.Line(2), li.Line(3))
	}
	if !li.Contains(1, 0) || li.Contains(1, 4) {
		t.Errorf("Contains mismatch for line 1")
	}
	if !li.Contains(2, 4) {
		t.Errorf("Contains mismatch for line 2 offset 4")
	}
}

func TestLexColumnTracking(t *testing.T) {
	toks := Lex("  let")
	if toks[0].Column != 3 {
		t.Errorf("got column %d, want 3", toks[0].Column)
	}
}
