// Package ir translates a type-checked AST into an SSA module over
// github.com/llir/llvm — the "LLVM-shaped target" the back end emits
// against: functions, basic blocks, typed instructions, and a globals
// table of string constants and named struct types.
package ir

import (
	"fmt"

	llir "github.com/llir/llvm/ir"
	lltypes "github.com/llir/llvm/ir/types"

	"github.com/nullc/null/pkg/analyzer"
	"github.com/nullc/null/pkg/ast"
	"github.com/nullc/null/pkg/diag"
	ntypes "github.com/nullc/null/pkg/types"
)

// Builder walks a typed Program and constructs an *llir.Module. It tracks
// three passes — declare structs, declare functions, emit bodies — the
// same order the original codegen.c runs its single LLVMModuleRef through.
type Builder struct {
	mod *llir.Module

	structs map[string]*lltypes.StructType // declared on demand, keyed by Type.Name
	funcs   map[string]*llir.Func          // keyed by source name ("Module_name" for mangled calls)

	strings    map[string]*llir.Global // string literal dedup, keyed by translated text
	strCounter int

	diags diag.List
}

// New creates a Builder over a fresh, empty module named name.
func New(name string) *Builder {
	mod := llir.NewModule()
	mod.SourceFilename = name
	return &Builder{
		mod:     mod,
		structs: make(map[string]*lltypes.StructType),
		funcs:   make(map[string]*llir.Func),
		strings: make(map[string]*llir.Global),
	}
}

// Diagnostics returns every diagnostic recorded while building.
func (b *Builder) Diagnostics() *diag.List { return &b.diags }

func (b *Builder) errorAt(n interface{ Position() (int, int) }, format string, args ...any) {
	line, col := n.Position()
	b.diags.Add(diag.Diagnostic{Line: line, Column: col, Message: fmt.Sprintf(format, args...)})
}

// Build runs all three passes over prog, using an's resolved struct/enum/
// function tables (pass 1 of the analyzer already built these; the IR
// builder does not re-derive them). Returns the finished module and its
// diagnostics — on any error the driver must refuse to hand the module to
// the JIT/object emitter regardless of what Build returns for mod.
func Build(prog *ast.Program, an *analyzer.Analyzer) (*llir.Module, *diag.List) {
	b := New("main")
	b.declareStructs(prog, an)
	b.declareFunctions(prog, an)
	b.emitBodies(prog)
	return b.mod, &b.diags
}

// Module returns the module under construction; only meaningful mid-Build,
// exposed for tests that want to inspect partial state.
func (b *Builder) Module() *llir.Module { return b.mod }

// ------------------------------------------------------------------- types

// lowerType maps a resolved Type onto its llir/llvm counterpart. Structs
// are declared lazily so a forward reference (a field typed after a
// struct not yet walked by declareStructs) still resolves to the same
// *lltypes.StructType every other reference uses.
func (b *Builder) lowerType(t *ntypes.Type) lltypes.Type {
	if t == nil {
		return lltypes.Void
	}
	switch t.Kind {
	case ntypes.Void:
		return lltypes.Void
	case ntypes.Bool:
		return lltypes.I1
	case ntypes.I8, ntypes.U8:
		return lltypes.I8
	case ntypes.I16, ntypes.U16:
		return lltypes.I16
	case ntypes.I32, ntypes.U32:
		return lltypes.I32
	case ntypes.I64, ntypes.U64:
		return lltypes.I64
	case ntypes.F32:
		return lltypes.Float
	case ntypes.F64:
		return lltypes.Double
	case ntypes.Ptr:
		return lltypes.NewPointer(b.lowerType(t.Elem))
	case ntypes.Array:
		return lltypes.NewArray(uint64(t.ArraySize), b.lowerType(t.Elem))
	case ntypes.Slice:
		// Runtime length is a calling-convention detail this layer doesn't
		// own; a slice lowers to an opaque pointer to its element type, same
		// as a decayed array.
		return lltypes.NewPointer(b.lowerType(t.Elem))
	case ntypes.Struct:
		return b.lowerStruct(t)
	case ntypes.Enum:
		// Enum variants are plain int64 constants at this layer; no
		// separate LLVM type carries variant names at runtime.
		return lltypes.I64
	case ntypes.Function:
		params := make([]lltypes.Type, len(t.Params))
		for i := range t.Params {
			params[i] = b.lowerType(&t.Params[i])
		}
		return lltypes.NewFunc(b.lowerType(&t.Return), params...)
	case ntypes.Unknown:
		return lltypes.I64
	default:
		return lltypes.Void
	}
}

// lowerStruct declares a named struct type on first reference and fills
// its body immediately — fields of a struct type are themselves already
// concrete (the analyzer resolved every nominal field type before the IR
// builder ever runs), so there's no recursive opaque-then-fill step
// needed beyond memoizing the *lltypes.StructType pointer itself, which
// breaks the only cycle that can occur: a struct containing a ptr<Self>.
func (b *Builder) lowerStruct(t *ntypes.Type) *lltypes.StructType {
	if st, ok := b.structs[t.Name]; ok {
		return st
	}
	st := lltypes.NewStruct()
	st.TypeName = t.Name
	b.structs[t.Name] = st
	b.mod.TypeDefs = append(b.mod.TypeDefs, st)
	fields := make([]lltypes.Type, len(t.Fields))
	for i, f := range t.Fields {
		fields[i] = b.lowerType(f.Type)
	}
	st.Fields = fields
	return st
}

// declareStructs walks the program's struct declarations in source order
// (not an's map, which has no defined iteration order) so the module's
// TypeDefs list is deterministic across runs of the same source.
func (b *Builder) declareStructs(prog *ast.Program, an *analyzer.Analyzer) {
	for _, d := range prog.Decls {
		if sd, ok := d.(*ast.StructDecl); ok {
			if t, ok := an.Structs()[sd.Name]; ok {
				b.lowerStruct(t)
			}
		}
	}
}

// declareFunctions creates a function signature — possibly with an empty
// body, for @extern entries — for every fn the analyzer registered,
// including those nested inside an @extern block.
func (b *Builder) declareFunctions(prog *ast.Program, an *analyzer.Analyzer) {
	for _, d := range prog.Decls {
		switch decl := d.(type) {
		case *ast.FnDecl:
			b.declareFunc(decl)
		case *ast.Extern:
			for _, fn := range decl.Fns {
				b.declareFunc(fn)
			}
		}
	}
}

func (b *Builder) declareFunc(fn *ast.FnDecl) {
	retType := b.lowerType(fn.RetType)
	params := make([]*llir.Param, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = llir.NewParam(p.Name, b.lowerType(p.Type))
	}
	f := b.mod.NewFunc(fn.Name, retType, params...)
	b.funcs[fn.Name] = f
}

// emitBodies is pass 3: walk every non-extern function and lower its
// block into instructions.
func (b *Builder) emitBodies(prog *ast.Program) {
	for _, d := range prog.Decls {
		if fn, ok := d.(*ast.FnDecl); ok && fn.Body != nil {
			b.emitFunc(fn)
		}
	}
}

// resolveCallee looks a call's callee up against the module's function
// table: a plain identifier resolves directly by name; a Module.name
// member call is resolved by the mangled "Module_name" the way
// codegen.c's NODE_MEMBER callee handling does.
func (b *Builder) resolveCallee(callee ast.Expr) (*llir.Func, string) {
	switch c := callee.(type) {
	case *ast.Identifier:
		if f, ok := b.funcs[c.Name]; ok {
			return f, c.Name
		}
		return nil, c.Name
	case *ast.Member:
		if base, ok := c.X.(*ast.Identifier); ok {
			mangled := base.Name + "_" + c.Name
			if f, ok := b.funcs[mangled]; ok {
				return f, mangled
			}
			return nil, mangled
		}
	}
	return nil, "<unknown>"
}
