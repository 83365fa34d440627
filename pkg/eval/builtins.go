package eval

import (
	"bufio"
	"fmt"
)

// builtin is a host function the evaluator resolves before ever consulting
// the user's own function table — call_func in interp.c checks the same
// fixed list, in the same order, ahead of find_func.
type builtin func(in *Interp, args []Value) Value

// builtins is the fixed host-binding table: puts/io_print/print write a
// string followed by a newline, print_raw/printf write one with no
// newline, print_int writes a bare integer, println writes a bare
// newline, putchar/getchar move one byte, and exit terminates the process
// immediately with the given (or zero) status.
var builtins = map[string]builtin{
	"puts":      builtinPuts,
	"io_print":  builtinPuts,
	"print":     builtinPuts,
	"print_raw": builtinPrintRaw,
	"printf":    builtinPrintRaw,
	"print_int": builtinPrintInt,
	"println":   builtinPrintln,
	"putchar":   builtinPutchar,
	"getchar":   builtinGetchar,
	"exit":      builtinExit,
}

func builtinPuts(in *Interp, args []Value) Value {
	if len(args) > 0 && args[0].Kind == String {
		fmt.Fprintln(in.stdout, args[0].StringVal)
	}
	return VoidValue()
}

func builtinPrintRaw(in *Interp, args []Value) Value {
	if len(args) > 0 && args[0].Kind == String {
		fmt.Fprint(in.stdout, args[0].StringVal)
	}
	return VoidValue()
}

func builtinPrintInt(in *Interp, args []Value) Value {
	if len(args) > 0 && args[0].Kind == Int {
		fmt.Fprint(in.stdout, args[0].IntVal)
	}
	return VoidValue()
}

func builtinPrintln(in *Interp, _ []Value) Value {
	fmt.Fprintln(in.stdout)
	return VoidValue()
}

func builtinPutchar(in *Interp, args []Value) Value {
	if len(args) > 0 && args[0].Kind == Int {
		fmt.Fprint(in.stdout, string(rune(args[0].IntVal)))
	}
	return IntValue(0)
}

func builtinGetchar(in *Interp, _ []Value) Value {
	if in.stdin == nil {
		return IntValue(-1)
	}
	if in.stdinReader == nil {
		in.stdinReader = bufio.NewReader(in.stdin)
	}
	b, err := in.stdinReader.ReadByte()
	if err != nil {
		return IntValue(-1)
	}
	return IntValue(int64(b))
}

func builtinExit(in *Interp, args []Value) Value {
	code := 0
	if len(args) > 0 && args[0].Kind == Int {
		code = int(args[0].IntVal)
	}
	in.exitFunc(code)
	return VoidValue()
}
