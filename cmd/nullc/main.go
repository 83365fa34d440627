// Command nullc is the thin driver that wires preprocessing, lexing,
// parsing, analysis, and the two back ends (IR+clang, or the tree-walking
// evaluator) into the command-line surface described by the source
// language's external interface.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/nullc/null/pkg/analyzer"
	"github.com/nullc/null/pkg/ast"
	"github.com/nullc/null/pkg/eval"
	"github.com/nullc/null/pkg/ir"
	"github.com/nullc/null/pkg/lexer"
	"github.com/nullc/null/pkg/parser"
	"github.com/nullc/null/pkg/preprocess"
)

const appName = "nullc"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "interp":
		os.Exit(cmdInterp(os.Args[2:]))
	case "build":
		os.Exit(cmdBuild(os.Args[2:]))
	case "test":
		os.Exit(cmdTest(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl())
	case "-h", "--help", "help":
		usage()
		os.Exit(0)
	default:
		// Bare `nullc <file>` is shorthand for `nullc run <file>`.
		os.Exit(cmdRun(os.Args[1:]))
	}
}

func usage() {
	fmt.Printf(`%s — a small, explicit, compiled-and-interpretable language

Usage:
  %s <file>              Compile and JIT-execute main; exit with its return value
  %s run <file>           Same as above
  %s interp <file>        Run through the tree-walking evaluator instead
  %s build <file> -o <out>  Link a standalone executable
  %s test <dir>           Build-and-run every *.null file in <dir>
  %s repl                 Interactive evaluator session
  %s --help               This message
`, appName, appName, appName, appName, appName, appName, appName, appName)
}

// frontend runs every stage up to and including the analyzer, printing
// diagnostics to stderr as soon as a stage fails. Returns ok=false if the
// file could not be turned into a type-checked program.
func frontend(path string) (prog *ast.Program, an *analyzer.Analyzer, src string, ok bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: cannot read %s: %v\n", appName, path, err)
		return nil, nil, "", false
	}

	src, err = preprocess.Preprocess(string(raw), path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return nil, nil, "", false
	}

	toks := lexer.Lex(src)
	p := parser.New(toks, src)
	prog = p.Parse()
	if p.HadError() {
		fmt.Fprintln(os.Stderr, p.Diagnostics().Render(src))
		return nil, nil, src, false
	}

	an = analyzer.New()
	an.Analyze(prog)
	if an.HadError() {
		fmt.Fprintln(os.Stderr, an.Diagnostics().Render(src))
		return nil, nil, src, false
	}

	return prog, an, src, true
}

// -----------------------------------------------------------------------
// interp
// -----------------------------------------------------------------------

func cmdInterp(args []string) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s interp <file>\n", appName)
		return 2
	}
	prog, an, src, ok := frontend(args[0])
	if !ok {
		return 1
	}
	code, in := eval.Run(prog, an)
	if in.Diagnostics().HasErrors() {
		fmt.Fprintln(os.Stderr, in.Diagnostics().Render(src))
		return 1
	}
	return code
}

// -----------------------------------------------------------------------
// run / build — both lower to IR and hand off to clang; `run` additionally
// executes the result immediately and removes it afterward. Neither the
// llir/llvm library nor the standard toolchain ship a JIT engine reachable
// from pure Go, so "JIT-execute" here means compile-to-a-temp-binary and
// exec it, same externally observable effect with the tools actually
// available.
// -----------------------------------------------------------------------

func cmdRun(args []string) int {
	if len(args) < 1 {
		fmt.Fprintf(os.Stderr, "usage: %s run <file>\n", appName)
		return 2
	}
	bin, cleanup, ok := compileToTemp(args[0])
	defer cleanup()
	if !ok {
		return 1
	}
	cmd := exec.Command(bin)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	if err := cmd.Run(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}
	return 0
}

func cmdBuild(args []string) int {
	var input, output string
	for i := 0; i < len(args); i++ {
		if args[i] == "-o" && i+1 < len(args) {
			output = args[i+1]
			i++
			continue
		}
		if input == "" {
			input = args[i]
		}
	}
	if input == "" || output == "" {
		fmt.Fprintf(os.Stderr, "usage: %s build <file> -o <out>\n", appName)
		return 2
	}
	if !linkExecutable(input, output) {
		return 1
	}
	return 0
}

// compileToTemp builds file into a temporary executable, returning its
// path and a cleanup func that removes it regardless of outcome — no
// partial artifact is left behind on failure, same rule `build` follows.
func compileToTemp(file string) (path string, cleanup func(), ok bool) {
	tmp, err := os.CreateTemp("", "nullc-run-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return "", func() {}, false
	}
	tmp.Close()
	os.Remove(tmp.Name())
	cleanup = func() { os.Remove(tmp.Name()) }
	return tmp.Name(), cleanup, linkExecutable(file, tmp.Name())
}

// linkExecutable runs the full pipeline, lowers to LLVM IR text, and
// forks+execs clang directly on argv (no shell, so no input from the
// source file can reach a shell) to assemble and link output. The
// intermediate .ll file is always removed afterward.
func linkExecutable(file, output string) bool {
	prog, an, src, ok := frontend(file)
	if !ok {
		return false
	}

	mod, diags := ir.Build(prog, an)
	if diags.HasErrors() {
		fmt.Fprintln(os.Stderr, diags.Render(src))
		return false
	}

	irFile, err := os.CreateTemp("", "nullc-*.ll")
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return false
	}
	defer os.Remove(irFile.Name())

	if _, err := irFile.WriteString(mod.String()); err != nil {
		irFile.Close()
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return false
	}
	irFile.Close()

	cmd := exec.Command("clang", irFile.Name(), "-o", output, "-lm")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: link failed: %v\n", appName, err)
		return false
	}
	return true
}

// -----------------------------------------------------------------------
// test
// -----------------------------------------------------------------------

func cmdTest(args []string) int {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		return 1
	}

	passed, failed := 0, 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".null") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		bin, cleanup, ok := compileToTemp(path)
		if !ok {
			failed++
			cleanup()
			continue
		}
		cmd := exec.Command(bin)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		err := cmd.Run()
		cleanup()
		if err != nil {
			fmt.Printf("FAIL %s: %v\n", e.Name(), err)
			failed++
			continue
		}
		fmt.Printf("ok   %s\n", e.Name())
		passed++
	}

	fmt.Printf("%d passed, %d failed\n", passed, failed)
	if failed > 0 {
		return 1
	}
	return 0
}

// -----------------------------------------------------------------------
// repl
// -----------------------------------------------------------------------

const (
	replPrompt = ">> "
	replCont   = ".. "
)

// cmdRepl keeps bindings alive between lines by re-running the session
// rather than keeping an interpreter alive (each eval.Run call builds a
// fresh Interp): every accepted line is wrapped as the body of a
// synthetic __repl_main__, re-lexed, re-parsed, and re-analyzed against a
// growing source buffer of prior declarations — simplest thing that keeps
// `let`/`mut` scoping correct across lines, at the cost of re-running the
// whole session's statements on every new line.
func cmdRepl() int {
	fmt.Println("null REPL — Ctrl+D to exit")

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	var decls strings.Builder // top-level fn/struct/enum/use/extern lines
	var stmts strings.Builder // statement lines, run inside __repl_main__

	for {
		line, err := ln.Prompt(replPrompt)
		if err != nil {
			fmt.Println()
			break
		}
		ln.AppendHistory(line)

		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if trimmed == ":quit" || trimmed == ":q" {
			break
		}

		var candidate strings.Builder
		candidate.WriteString(decls.String())
		if isTopLevelDecl(trimmed) {
			// A fn/struct/enum/@use/@extern line lives outside the
			// synthetic entry point, alongside every earlier one.
			candidate.WriteString(line)
			candidate.WriteString("\n")
		}
		candidate.WriteString("fn __repl_main__() -> i64 do\n")
		candidate.WriteString(stmts.String())
		if !isTopLevelDecl(trimmed) {
			candidate.WriteString(line)
			candidate.WriteString("\n")
		}
		candidate.WriteString("ret 0\nend\n")

		src := candidate.String()
		toks := lexer.Lex(src)
		p := parser.New(toks, src)
		prog := p.Parse()
		if p.HadError() {
			fmt.Fprintln(os.Stderr, p.Diagnostics().Render(src))
			continue
		}
		an := analyzer.New()
		an.Analyze(prog)
		if an.HadError() {
			fmt.Fprintln(os.Stderr, an.Diagnostics().Render(src))
			continue
		}

		_, in := eval.Run(prog, an)
		if in.Diagnostics().HasErrors() {
			fmt.Fprintln(os.Stderr, in.Diagnostics().Render(src))
			continue
		}

		if isTopLevelDecl(trimmed) {
			decls.WriteString(line)
			decls.WriteString("\n")
		} else {
			stmts.WriteString(line)
			stmts.WriteString("\n")
		}
	}
	return 0
}

func isTopLevelDecl(line string) bool {
	for _, kw := range []string{"fn ", "struct ", "enum ", "@use", "@extern"} {
		if strings.HasPrefix(line, kw) {
			return true
		}
	}
	return false
}
