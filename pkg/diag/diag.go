// Package diag renders compiler diagnostics in the caret-annotated format
// used by every stage of the pipeline:
//
//	Error at line L, column C near 'lexeme'
//	  NNNN | <source line>
//	       |      ^~~~~
//	<message>
//	Hint: <hint, when applicable>
package diag

import (
	"fmt"
	"strings"
)

// Diagnostic is a single user-facing compiler error.
type Diagnostic struct {
	Line    int
	Column  int
	Lexeme  string
	Message string
	Hint    string
	Length  int // length of the caret underline; defaults to len(Lexeme) if 0
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", d.Line, d.Column, d.Message)
}

// lineAt returns the 1-indexed source line (without its trailing newline),
// tabs expanded to four spaces so caret alignment is stable.
func lineAt(src string, line int) string {
	lines := strings.Split(src, "\n")
	idx := line - 1
	if idx < 0 || idx >= len(lines) {
		return ""
	}
	return strings.ReplaceAll(lines[idx], "\t", "    ")
}

// expandedColumn re-maps a column computed against raw (un-expanded) source
// text to its position after tabs have been widened to four spaces.
func expandedColumn(rawLine string, col int) int {
	col--
	if col < 0 {
		col = 0
	}
	if col > len(rawLine) {
		col = len(rawLine)
	}
	expanded := 0
	for i := 0; i < col; i++ {
		if rawLine[i] == '\t' {
			expanded += 4
		} else {
			expanded++
		}
	}
	return expanded + 1
}

// Render formats the diagnostic against src using the shared caret-snippet
// format used by every stage of the pipeline.
func (d Diagnostic) Render(src string) string {
	lines := strings.Split(src, "\n")
	var rawLine string
	if d.Line-1 >= 0 && d.Line-1 < len(lines) {
		rawLine = lines[d.Line-1]
	}
	snippet := lineAt(src, d.Line)
	col := expandedColumn(rawLine, d.Column)

	length := d.Length
	if length <= 0 {
		length = len(d.Lexeme)
	}
	if length <= 0 {
		length = 1
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error at line %d, column %d near '%s'\n", d.Line, d.Column, d.Lexeme)
	fmt.Fprintf(&sb, "  %4d | %s\n", d.Line, snippet)
	fmt.Fprintf(&sb, "       | %s%s\n", strings.Repeat(" ", col-1), "^"+strings.Repeat("~", length-1))
	sb.WriteString(d.Message)
	if d.Hint != "" {
		fmt.Fprintf(&sb, "\nHint: %s", d.Hint)
	}
	return sb.String()
}

// Hint inspects a raw error message and returns a context-specific hint,
// keying off message substrings the way the parser's fmtError callers
// decide what follow-up advice to print.
func Hint(message string) string {
	switch {
	case strings.Contains(message, "end"):
		return "did you forget a closing 'end'?"
	case strings.Contains(message, "]") || strings.Contains(message, "bracket"):
		return "did you forget a closing ']'?"
	case strings.Contains(message, ")") || strings.Contains(message, "paren"):
		return "did you forget a closing ')'?"
	case strings.Contains(message, "type"):
		return "expected a type here"
	case strings.Contains(message, "do"):
		return "did you forget 'do'?"
	default:
		return ""
	}
}

// List accumulates diagnostics during a single stage run.
type List struct {
	items []Diagnostic
}

func (l *List) Add(d Diagnostic) { l.items = append(l.items, d) }

func (l *List) HasErrors() bool { return len(l.items) > 0 }

func (l *List) Items() []Diagnostic { return l.items }

// Render renders every accumulated diagnostic against src, separated by
// blank lines.
func (l *List) Render(src string) string {
	parts := make([]string, 0, len(l.items))
	for _, d := range l.items {
		parts = append(parts, d.Render(src))
	}
	return strings.Join(parts, "\n\n")
}
