// Package analyzer implements the two-pass name and type resolution pass
// over the AST.
package analyzer

import (
	"fmt"

	"github.com/nullc/null/pkg/ast"
	"github.com/nullc/null/pkg/diag"
	"github.com/nullc/null/pkg/types"
)

// Analyzer walks a Program, decorating every expression node with its
// resolved Type and reporting diagnostics for name/type errors.
type Analyzer struct {
	global  *Scope
	current *Scope
	arena   []*Scope // every Scope ever created; see Scope's doc comment

	structs map[string]*types.Type
	enums   map[string]*types.Type
	funcs   map[string]*types.Type

	diags diag.List

	loopDepth int
}

// New creates an Analyzer ready to run Analyze.
func New() *Analyzer {
	g := newScope(nil)
	a := &Analyzer{
		global:  g,
		current: g,
		structs: make(map[string]*types.Type),
		enums:   make(map[string]*types.Type),
		funcs:   make(map[string]*types.Type),
	}
	a.arena = append(a.arena, g)
	return a
}

// Diagnostics returns every diagnostic recorded by Analyze.
func (a *Analyzer) Diagnostics() *diag.List { return &a.diags }

// Structs, Enums, and Functions expose the global type/signature tables
// built during pass 1 — the contract the IR builder and evaluator consume.
func (a *Analyzer) Structs() map[string]*types.Type   { return a.structs }
func (a *Analyzer) Enums() map[string]*types.Type     { return a.enums }
func (a *Analyzer) Functions() map[string]*types.Type { return a.funcs }

// HadError reports whether analysis recorded any diagnostic.
func (a *Analyzer) HadError() bool { return a.diags.HasErrors() }

func (a *Analyzer) pushScope() {
	s := newScope(a.current)
	a.arena = append(a.arena, s)
	a.current = s
}

// popScope moves the cursor back to the parent without discarding the
// child Scope — see Scope's doc comment for why.
func (a *Analyzer) popScope() {
	a.current = a.current.parent
}

func (a *Analyzer) errorAt(n interface{ Position() (int, int) }, format string, args ...any) {
	line, col := n.Position()
	a.diags.Add(diag.Diagnostic{Line: line, Column: col, Message: fmt.Sprintf(format, args...)})
}

// Analyze runs both passes over prog and returns whether analysis
// completed without error. Analysis always completes (best effort) even
// when diagnostics were recorded.
func (a *Analyzer) Analyze(prog *ast.Program) bool {
	a.pass1RegisterTypes(prog)
	a.pass1RegisterFunctions(prog)
	a.pass2(prog)
	return !a.HadError()
}

// ------------------------------------------------------------------ pass 1

// pass1RegisterTypes registers struct and enum names (with a placeholder
// body) before any field/param type is resolved, so forward and mutually
// recursive references between types and function signatures work
// regardless of declaration order.
func (a *Analyzer) pass1RegisterTypes(prog *ast.Program) {
	for _, d := range prog.Decls {
		switch decl := d.(type) {
		case *ast.StructDecl:
			if _, exists := a.structs[decl.Name]; exists {
				a.errorAt(decl, "duplicate struct declaration %q", decl.Name)
				continue
			}
			a.structs[decl.Name] = types.NewStruct(decl.Name, nil)
		case *ast.EnumDecl:
			if _, exists := a.enums[decl.Name]; exists {
				a.errorAt(decl, "duplicate enum declaration %q", decl.Name)
				continue
			}
			variants := make([]types.Variant, len(decl.Variants))
			for i, v := range decl.Variants {
				variants[i] = types.Variant{Name: v.Name, Value: v.Value}
			}
			a.enums[decl.Name] = types.NewEnum(decl.Name, variants)
		}
	}
	// Second sweep: now that every name exists, fill in struct field types
	// (which may reference other structs/enums).
	for _, d := range prog.Decls {
		if decl, ok := d.(*ast.StructDecl); ok {
			st := a.structs[decl.Name]
			fields := make([]types.Field, len(decl.Fields))
			for i, f := range decl.Fields {
				fields[i] = types.Field{Name: f.Name, Type: a.resolveType(f.Type, decl)}
			}
			st.Fields = fields
		}
	}
}

// pass1RegisterFunctions builds the full function type (return + params)
// for every top-level fn, including those nested inside @extern, and adds
// a function symbol to the global scope.
func (a *Analyzer) pass1RegisterFunctions(prog *ast.Program) {
	for _, d := range prog.Decls {
		switch decl := d.(type) {
		case *ast.FnDecl:
			a.registerFn(decl)
		case *ast.Extern:
			for _, fn := range decl.Fns {
				a.registerFn(fn)
			}
		}
	}
}

func (a *Analyzer) registerFn(fn *ast.FnDecl) {
	params := make([]types.Type, len(fn.Params))
	for i, p := range fn.Params {
		resolved := a.resolveType(p.Type, p)
		p.Type = resolved
		params[i] = *resolved
	}
	retType := a.resolveType(fn.RetType, fn)
	fn.RetType = retType
	fnType := types.NewFunction(*retType, params)
	a.funcs[fn.Name] = fnType
	if !a.global.define(&Symbol{Name: fn.Name, Kind: SymFunction, Type: fnType, Mutable: false}) {
		a.errorAt(fn, "duplicate top-level declaration %q", fn.Name)
	}
}

// resolveType replaces a parser-produced nominal placeholder (bare
// identifier, Kind==Struct with no Fields/Variants) with the concrete
// struct or enum type it names. Ptr/Array/Slice/Function are resolved
// structurally. Concrete primitive/already-resolved types pass through
// unchanged.
func (a *Analyzer) resolveType(t *types.Type, at interface{ Position() (int, int) }) *types.Type {
	if t == nil {
		return types.VoidType
	}
	switch t.Kind {
	case types.Ptr:
		return types.NewPtr(a.resolveType(t.Elem, at))
	case types.Array:
		return types.NewArray(a.resolveType(t.Elem, at), t.ArraySize)
	case types.Slice:
		return types.NewSlice(a.resolveType(t.Elem, at))
	case types.Function:
		params := make([]types.Type, len(t.Params))
		for i := range t.Params {
			params[i] = *a.resolveType(&t.Params[i], at)
		}
		return types.NewFunction(*a.resolveType(&t.Return, at), params)
	case types.Struct:
		if t.Fields != nil || t.Variants != nil {
			return t // already concrete (a registered struct/enum type)
		}
		if concrete, ok := a.structs[t.Name]; ok {
			return concrete
		}
		if concrete, ok := a.enums[t.Name]; ok {
			return concrete
		}
		a.errorAt(at, "unknown type %q", t.Name)
		return types.UnknownType
	default:
		return t
	}
}

// ------------------------------------------------------------------ pass 2

func (a *Analyzer) pass2(prog *ast.Program) {
	for _, d := range prog.Decls {
		switch decl := d.(type) {
		case *ast.FnDecl:
			a.analyzeFnBody(decl)
		case *ast.Extern:
			for _, fn := range decl.Fns {
				a.analyzeFnBody(fn)
			}
		case *ast.VarDecl:
			a.analyzeVarDecl(decl)
		}
	}
}

func (a *Analyzer) analyzeFnBody(fn *ast.FnDecl) {
	if fn.Body == nil {
		return // @extern declaration, no body to analyze
	}
	a.pushScope()
	for _, p := range fn.Params {
		a.current.define(&Symbol{Name: p.Name, Kind: SymParam, Type: p.Type, Mutable: false})
	}
	a.analyzeBlockStmts(fn.Body)
	a.popScope()
}

// analyzeBlockStmts analyzes a block's statements in the *current* scope;
// callers that want a fresh nested scope push one first.
func (a *Analyzer) analyzeBlockStmts(b *ast.Block) {
	for _, s := range b.Stmts {
		a.analyzeStmt(s)
	}
}

func (a *Analyzer) analyzeBlockScoped(b *ast.Block) {
	a.pushScope()
	a.analyzeBlockStmts(b)
	a.popScope()
}

func (a *Analyzer) analyzeStmt(s ast.Stmt) {
	switch stmt := s.(type) {
	case *ast.VarDecl:
		a.analyzeVarDecl(stmt)
	case *ast.Assign:
		a.analyzeAssign(stmt)
	case *ast.ExprStmt:
		a.analyzeExpr(stmt.X)
	case *ast.Return:
		if stmt.Value != nil {
			a.analyzeExpr(stmt.Value)
		}
	case *ast.Break:
		if a.loopDepth == 0 {
			a.errorAt(stmt, "'break' outside a loop")
		}
	case *ast.Continue:
		if a.loopDepth == 0 {
			a.errorAt(stmt, "'continue' outside a loop")
		}
	case *ast.If:
		a.analyzeExpr(stmt.Cond)
		a.analyzeBlockScoped(stmt.Then)
		for _, elif := range stmt.ElifClauses {
			a.analyzeExpr(elif.Cond)
			a.analyzeBlockScoped(elif.Body)
		}
		if stmt.Else != nil {
			a.analyzeBlockScoped(stmt.Else)
		}
	case *ast.While:
		a.analyzeExpr(stmt.Cond)
		a.loopDepth++
		a.analyzeBlockScoped(stmt.Body)
		a.loopDepth--
	case *ast.For:
		a.analyzeExpr(stmt.Start)
		a.analyzeExpr(stmt.End)
		a.pushScope()
		iterType := a.infer(stmt.Start)
		if iterType == nil || iterType == types.UnknownType {
			iterType = types.I64Type
		}
		a.current.define(&Symbol{Name: stmt.VarName, Kind: SymVar, Type: iterType, Mutable: false})
		a.loopDepth++
		a.analyzeBlockStmts(stmt.Body)
		a.loopDepth--
		a.popScope()
	case *ast.Block:
		a.analyzeBlockScoped(stmt)
	}
}

// analyzeVarDecl forbids shadowing in the current scope, analyzes the
// initializer, infers the type when no annotation is present, and installs
// `unknown` on inference failure so later checks don't cascade.
func (a *Analyzer) analyzeVarDecl(v *ast.VarDecl) {
	if v.Init != nil {
		a.analyzeExpr(v.Init)
	}
	declared := v.Declared
	if declared != nil {
		declared = a.resolveType(declared, v)
		v.Declared = declared
	}
	varType := declared
	if varType == nil {
		varType = a.infer(v.Init)
	}
	if varType == nil {
		a.errorAt(v, "cannot infer type for variable %q", v.Name)
		varType = types.UnknownType
	}
	v.SetResolvedType(varType)
	sym := &Symbol{Name: v.Name, Kind: SymVar, Type: varType, Mutable: v.IsMut}
	if !a.current.define(sym) {
		a.errorAt(v, "%q is already declared in this scope", v.Name)
	}
}

// analyzeAssign enforces the mutability rule for assignment targets. The
// immutability check only fires for SymVar symbols — mirroring the
// original semantics, where assigning to a function parameter never
// trips the "immutable" diagnostic even though parameters aren't
// declared mut; only names introduced by let/mut/const/for carry that
// check.
func (a *Analyzer) analyzeAssign(asn *ast.Assign) {
	a.analyzeExpr(asn.Target)
	a.analyzeExpr(asn.Value)

	var baseName string
	switch t := asn.Target.(type) {
	case *ast.Identifier:
		baseName = t.Name
	case *ast.Member:
		if id, ok := t.X.(*ast.Identifier); ok {
			baseName = id.Name
		}
	case *ast.Index:
		if id, ok := t.X.(*ast.Identifier); ok {
			baseName = id.Name
		}
	}
	if baseName == "" {
		return
	}
	if sym, ok := a.current.lookup(baseName); ok && sym.Kind == SymVar && !sym.Mutable {
		a.errorAt(asn, "cannot assign to immutable variable %q", baseName)
	}
}

// --------------------------------------------------------------- expressions

func (a *Analyzer) analyzeExpr(e ast.Expr) {
	if e == nil {
		return
	}
	switch expr := e.(type) {
	case *ast.IntLit:
		expr.SetResolvedType(types.I64Type)
	case *ast.FloatLit:
		expr.SetResolvedType(types.F64Type)
	case *ast.StringLit:
		expr.SetResolvedType(types.NewSlice(types.U8Type))
	case *ast.BoolLit:
		expr.SetResolvedType(types.BoolType)
	case *ast.Identifier:
		if sym, ok := a.current.lookup(expr.Name); ok {
			expr.SetResolvedType(sym.Type)
		} else {
			// May be a module alias used only in a Module.name call; the
			// IR builder resolves those by mangled name, not the analyzer,
			// so an unresolved bare identifier here is only an error once
			// we know it's actually used as a value.
			expr.SetResolvedType(types.UnknownType)
		}
	case *ast.Binary:
		a.analyzeExpr(expr.Left)
		a.analyzeExpr(expr.Right)
		lt, rt := a.infer(expr.Left), a.infer(expr.Right)
		if !binaryCompatible(lt, rt, expr.Op) {
			a.errorAt(expr, "incompatible types for binary operation %q", expr.Op)
		}
		expr.SetResolvedType(resultType(lt, rt, expr.Op))
	case *ast.Logical:
		a.analyzeExpr(expr.Left)
		a.analyzeExpr(expr.Right)
		lt, rt := a.infer(expr.Left), a.infer(expr.Right)
		if !isUnknown(lt) && !isUnknown(rt) && (lt.Kind != types.Bool || rt.Kind != types.Bool) {
			a.errorAt(expr, "'%s' requires two boolean operands", expr.Op)
		}
		expr.SetResolvedType(types.BoolType)
	case *ast.Unary:
		a.analyzeExpr(expr.Right)
		expr.SetResolvedType(a.unaryResultType(expr))
	case *ast.Call:
		a.analyzeExpr(expr.Callee)
		for _, arg := range expr.Args {
			a.analyzeExpr(arg)
		}
		if callee, ok := expr.Callee.(*ast.Identifier); ok {
			sym, found := a.current.lookup(callee.Name)
			if !found {
				a.errorAt(expr, "unknown function %q", callee.Name)
				expr.SetResolvedType(types.UnknownType)
				return
			}
			if sym.Kind != SymFunction {
				a.errorAt(expr, "%q is not callable", callee.Name)
				expr.SetResolvedType(types.UnknownType)
				return
			}
			expr.SetResolvedType(&sym.Type.Return)
			return
		}
		// Module.name calls are resolved by mangled name at the IR level;
		// the analyzer leaves them unresolved here.
		expr.SetResolvedType(types.UnknownType)
	case *ast.Member:
		a.analyzeExpr(expr.X)
		xt := a.infer(expr.X)
		if xt != nil && xt.Kind == types.Struct {
			if idx := xt.FieldIndex(expr.Name); idx >= 0 {
				expr.SetResolvedType(xt.Fields[idx].Type)
				return
			}
			a.errorAt(expr, "struct %q has no field %q", xt.Name, expr.Name)
		}
		expr.SetResolvedType(types.UnknownType)
	case *ast.Index:
		a.analyzeExpr(expr.X)
		a.analyzeExpr(expr.Index)
		xt := a.infer(expr.X)
		if xt != nil && (xt.Kind == types.Array || xt.Kind == types.Slice) {
			expr.SetResolvedType(xt.Elem)
			return
		}
		expr.SetResolvedType(types.UnknownType)
	case *ast.StructInit:
		st, ok := a.structs[expr.StructName]
		if !ok {
			a.errorAt(expr, "unknown struct %q", expr.StructName)
			expr.SetResolvedType(types.UnknownType)
		} else {
			expr.SetResolvedType(st)
		}
		for i := range expr.Fields {
			a.analyzeExpr(expr.Fields[i].Value)
			if ok && st.FieldIndex(expr.Fields[i].Name) < 0 {
				a.errorAt(expr, "struct %q has no field %q", expr.StructName, expr.Fields[i].Name)
			}
		}
	case *ast.ArrayInit:
		var elemType *types.Type
		for i := range expr.Elements {
			a.analyzeExpr(expr.Elements[i])
			if i == 0 {
				elemType = a.infer(expr.Elements[0])
			}
		}
		if elemType == nil {
			elemType = types.UnknownType
		}
		expr.SetResolvedType(types.NewArray(elemType, len(expr.Elements)))
	case *ast.EnumVariant:
		et, ok := a.enums[expr.EnumName]
		if !ok {
			a.errorAt(expr, "unknown enum %q", expr.EnumName)
			expr.SetResolvedType(types.UnknownType)
			return
		}
		if _, ok := et.VariantValue(expr.VariantName); !ok {
			a.errorAt(expr, "enum %q has no variant %q", expr.EnumName, expr.VariantName)
		}
		expr.SetResolvedType(et)
	}
}

func (a *Analyzer) unaryResultType(u *ast.Unary) *types.Type {
	rt := a.infer(u.Right)
	switch u.Op {
	case ast.Not:
		return types.BoolType
	case ast.Addr:
		return types.NewPtr(rt)
	case ast.Deref:
		if rt != nil && rt.Kind == types.Ptr {
			return rt.Elem
		}
		return types.UnknownType
	default:
		return rt
	}
}

// infer mirrors the original's best-effort type inference used wherever a
// var_decl or for-loop needs a type without a full analyze pass: integer
// literals -> i64, float -> f64, bool -> bool, string -> slice(u8),
// identifier -> looked-up symbol's type, call -> function's return type,
// struct-init -> struct(name).
func (a *Analyzer) infer(e ast.Expr) *types.Type {
	if e == nil {
		return nil
	}
	switch expr := e.(type) {
	case *ast.IntLit:
		return types.I64Type
	case *ast.FloatLit:
		return types.F64Type
	case *ast.StringLit:
		return types.NewSlice(types.U8Type)
	case *ast.BoolLit:
		return types.BoolType
	case *ast.Identifier:
		if sym, ok := a.current.lookup(expr.Name); ok {
			return sym.Type
		}
		return nil
	case *ast.Binary:
		return a.infer(expr.Left)
	case *ast.Logical:
		return types.BoolType
	case *ast.Unary:
		return a.unaryResultType(expr)
	case *ast.Call:
		if callee, ok := expr.Callee.(*ast.Identifier); ok {
			if sym, found := a.current.lookup(callee.Name); found && sym.Kind == SymFunction {
				return &sym.Type.Return
			}
		}
		return nil
	case *ast.StructInit:
		if st, ok := a.structs[expr.StructName]; ok {
			return st
		}
		return nil
	case *ast.Member:
		xt := a.infer(expr.X)
		if xt != nil && xt.Kind == types.Struct {
			if idx := xt.FieldIndex(expr.Name); idx >= 0 {
				return xt.Fields[idx].Type
			}
		}
		return nil
	case *ast.Index:
		xt := a.infer(expr.X)
		if xt != nil && (xt.Kind == types.Array || xt.Kind == types.Slice) {
			return xt.Elem
		}
		return nil
	case *ast.EnumVariant:
		if et, ok := a.enums[expr.EnumName]; ok {
			return et
		}
		return nil
	default:
		return expr.ResolvedType()
	}
}

func isUnknown(t *types.Type) bool { return t == nil || t == types.UnknownType }

// binaryCompatible implements the typed compatibility table for binary
// operators. Unknown operand types suppress the check so a single upstream
// error doesn't cascade into a wall of follow-on diagnostics.
func binaryCompatible(l, r *types.Type, op ast.BinaryOp) bool {
	if isUnknown(l) || isUnknown(r) {
		return true
	}
	switch op {
	case ast.Add, ast.Sub, ast.Mul, ast.Div:
		return l.IsNumeric() && r.IsNumeric()
	case ast.Mod:
		return l.IsInteger() && r.IsInteger()
	case ast.Eq, ast.Ne, ast.Lt, ast.Le, ast.Gt, ast.Ge:
		return types.Equal(l, r) || (l.IsNumeric() && r.IsNumeric())
	case ast.BAnd, ast.BOr, ast.BXor, ast.Shl, ast.Shr:
		return l.IsInteger() && r.IsInteger()
	default:
		return true
	}
}

// resultType picks the type a binary expression reports upstream:
// comparisons always yield bool, everything else takes the left operand's
// type (mirroring infer_type's NODE_BINARY case in the original).
func resultType(l, r *types.Type, op ast.BinaryOp) *types.Type {
	switch op {
	case ast.Eq, ast.Ne, ast.Lt, ast.Le, ast.Gt, ast.Ge:
		return types.BoolType
	default:
		if l != nil {
			return l
		}
		return types.UnknownType
	}
}
