package eval

import (
	"fmt"
	"io"
	"os"

	"github.com/nullc/null/pkg/analyzer"
	"github.com/nullc/null/pkg/ast"
	"github.com/nullc/null/pkg/diag"
)

// Interp walks a type-checked Program directly, without lowering to IR —
// the path `interp`/`repl` take, as opposed to the IR path of `run` and
// `build`. Control flow (return/break/continue) is threaded as three flags
// checked at the top of every statement dispatch (expression dispatch
// checks only the error and return flags), rather than
// Go panics, mirroring the original interpreter's has_return/has_break/
// has_continue fields exactly.
type Interp struct {
	global  *scope
	current *scope

	functions map[string]*ast.FnDecl
	enums     map[string]*enumDef

	returnValue  Value
	hasReturn    bool
	hasBreak     bool
	hasContinue  bool
	loopDepth    int

	diags diag.List

	stdout      io.Writer
	stdin       io.Reader
	stdinReader byteReader
	exitFunc    func(int)
}

// byteReader is the minimal surface builtinGetchar needs; satisfied by
// *bufio.Reader, kept as an interface so builtins.go's lazy wrap doesn't
// need to reach back into this file's imports.
type byteReader interface {
	ReadByte() (byte, error)
}

// enumDef is the subset of an enum declaration the evaluator needs:
// variant-name to constant-value, to answer `EnumName::Variant` lookups.
type enumDef struct {
	Variants map[string]int64
}

// New creates an Interp that writes to stdout and reads from stdin.
func New(stdout io.Writer, stdin io.Reader) *Interp {
	g := newScope(nil)
	return &Interp{
		global:    g,
		current:   g,
		functions: make(map[string]*ast.FnDecl),
		enums:     make(map[string]*enumDef),
		stdout:    stdout,
		stdin:     stdin,
		exitFunc:  os.Exit,
	}
}

// Diagnostics returns every diagnostic recorded while running.
func (in *Interp) Diagnostics() *diag.List { return &in.diags }

func (in *Interp) errorAt(n interface{ Position() (int, int) }, format string, args ...any) {
	line, col := n.Position()
	in.diags.Add(diag.Diagnostic{Line: line, Column: col, Message: fmt.Sprintf(format, args...)})
}

// Run registers every function and enum from prog, resolves the entry
// point — `main`, falling back to `__repl_main__` for a REPL session's
// synthetic wrapper — and calls it with no arguments. The returned exit
// code is the entry point's int return value, or zero for anything else.
func Run(prog *ast.Program, an *analyzer.Analyzer) (int, *Interp) {
	in := New(os.Stdout, os.Stdin)
	in.registerProgram(prog, an)

	entry, ok := in.functions["main"]
	if !ok {
		entry, ok = in.functions["__repl_main__"]
	}
	if !ok {
		in.diags.Add(diag.Diagnostic{Message: "no main function found"})
		return 1, in
	}

	result := in.callFunc(nil, entry)
	if in.diags.HasErrors() {
		return 1, in
	}
	if result.Kind == Int {
		return int(result.IntVal), in
	}
	return 0, in
}

func (in *Interp) registerProgram(prog *ast.Program, an *analyzer.Analyzer) {
	for _, d := range prog.Decls {
		if fn, ok := d.(*ast.FnDecl); ok && !fn.IsExtern {
			in.functions[fn.Name] = fn
		}
	}
	for name, t := range an.Enums() {
		def := &enumDef{Variants: make(map[string]int64)}
		for _, v := range t.Variants {
			def.Variants[v.Name] = v.Value
		}
		in.enums[name] = def
	}
}

// callFunc runs fn's body with args bound to its parameters in a fresh
// scope rooted at global, and returns its return value (or void for a
// function that falls off the end without a `ret`).
func (in *Interp) callFunc(args []Value, fn *ast.FnDecl) Value {
	prevScope := in.current
	in.current = newScope(in.global)

	for i, p := range fn.Params {
		if i < len(args) {
			in.current.define(p.Name, args[i].clone(), true)
		}
	}

	savedReturn, savedHasReturn := in.returnValue, in.hasReturn
	in.hasReturn = false
	if fn.Body != nil {
		in.execStmt(fn.Body)
	}

	result := VoidValue()
	if in.hasReturn {
		result = in.returnValue
	}
	in.returnValue, in.hasReturn = savedReturn, savedHasReturn

	in.current = prevScope
	return result
}

func (in *Interp) callByExpr(callee ast.Expr, args []Value) Value {
	switch c := callee.(type) {
	case *ast.Identifier:
		if b, ok := builtins[c.Name]; ok {
			return b(in, args)
		}
		fn, ok := in.functions[c.Name]
		if !ok {
			in.errorAt(c, "unknown function: %s", c.Name)
			return VoidValue()
		}
		return in.callFunc(args, fn)
	case *ast.Member:
		if base, ok := c.X.(*ast.Identifier); ok {
			mangled := base.Name + "_" + c.Name
			if fn, ok := in.functions[mangled]; ok {
				return in.callFunc(args, fn)
			}
		}
		in.errorAt(c, "unknown function: %s", c.String())
		return VoidValue()
	default:
		in.errorAt(callee, "invalid function call")
		return VoidValue()
	}
}

func (in *Interp) stopped() bool {
	return in.diags.HasErrors() || in.hasReturn || in.hasBreak || in.hasContinue
}
