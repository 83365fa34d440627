package ir

import (
	"fmt"

	llir "github.com/llir/llvm/ir"
	llconst "github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"
	llvalue "github.com/llir/llvm/ir/value"

	"github.com/nullc/null/pkg/ast"
	ntypes "github.com/nullc/null/pkg/types"
)

// binding is a source identifier's IR value. Every local in this backend
// is pointer-backed — a stack slot rather than a bare SSA value — the
// "void*-style backend-symbol scoping" design note replaced with a typed
// variant: Addr always holds the alloca, ElemType its pointee type, and a
// read always inserts a load.
type binding struct {
	Addr     llvalue.Value
	ElemType lltypes.Type
	Sem      *ntypes.Type // source-level type, needed for sign/float coercion
}

// loopLabels holds the blocks `break`/`continue` currently target, saved
// and restored around a nested loop so the innermost loop always wins.
type loopLabels struct {
	Continue *llir.Block
	Break    *llir.Block
}

// fnBuilder carries the per-function state of pass 3: the current
// function, the insertion cursor, the scope stack of pointer-backed
// bindings, and the loop-label stack.
type fnBuilder struct {
	b    *Builder
	fn   *llir.Func
	cur  *llir.Block
	decl *ast.FnDecl

	scopes    []map[string]*binding
	loopStack []loopLabels

	blockCounter int
}

func (b *Builder) emitFunc(decl *ast.FnDecl) {
	fn := b.funcs[decl.Name]
	fb := &fnBuilder{b: b, fn: fn, decl: decl}
	fb.pushScope()

	entry := fn.NewBlock(fb.blockName("entry"))
	fb.cur = entry

	for i, p := range decl.Params {
		param := fn.Params[i]
		elemType := b.lowerType(p.Type)
		addr := fb.cur.NewAlloca(elemType)
		fb.cur.NewStore(param, addr)
		fb.define(p.Name, &binding{Addr: addr, ElemType: elemType, Sem: p.Type})
	}

	fb.emitBlockStmts(decl.Body)

	if fb.cur.Term == nil {
		if decl.RetType == nil || decl.RetType.Kind == ntypes.Void {
			fb.cur.NewRet(nil)
		} else {
			fb.cur.NewRet(zeroValue(fb.b.lowerType(decl.RetType)))
		}
	}
	fb.popScope()
}

func (fb *fnBuilder) blockName(tag string) string {
	fb.blockCounter++
	return fmt.Sprintf("%s%d", tag, fb.blockCounter)
}

func (fb *fnBuilder) pushScope() { fb.scopes = append(fb.scopes, map[string]*binding{}) }
func (fb *fnBuilder) popScope()  { fb.scopes = fb.scopes[:len(fb.scopes)-1] }

func (fb *fnBuilder) define(name string, bnd *binding) {
	fb.scopes[len(fb.scopes)-1][name] = bnd
}

func (fb *fnBuilder) lookup(name string) (*binding, bool) {
	for i := len(fb.scopes) - 1; i >= 0; i-- {
		if bnd, ok := fb.scopes[i][name]; ok {
			return bnd, true
		}
	}
	return nil, false
}

// zeroValue returns the default value for t — the value an implicit
// `return void`-for-non-void fallthrough produces when a function body
// doesn't terminate every path explicitly.
func zeroValue(t lltypes.Type) llvalue.Value {
	switch tt := t.(type) {
	case *lltypes.IntType:
		return llconst.NewInt(tt, 0)
	case *lltypes.FloatType:
		return llconst.NewFloat(tt, 0)
	case *lltypes.PointerType:
		return llconst.NewNull(tt)
	default:
		return llconst.NewInt(lltypes.I64, 0)
	}
}

// ---------------------------------------------------------------- statements

func (fb *fnBuilder) emitBlockStmts(block *ast.Block) {
	for _, s := range block.Stmts {
		if fb.cur.Term != nil {
			return // a prior return/break/continue already closed this block
		}
		fb.emitStmt(s)
	}
}

func (fb *fnBuilder) emitBlockScoped(block *ast.Block) {
	fb.pushScope()
	fb.emitBlockStmts(block)
	fb.popScope()
}

func (fb *fnBuilder) emitStmt(s ast.Stmt) {
	switch stmt := s.(type) {
	case *ast.VarDecl:
		fb.emitVarDecl(stmt)
	case *ast.Assign:
		fb.emitAssign(stmt)
	case *ast.ExprStmt:
		fb.emitExpr(stmt.X)
	case *ast.Return:
		fb.emitReturn(stmt)
	case *ast.Break:
		top := fb.loopStack[len(fb.loopStack)-1]
		fb.cur.NewBr(top.Break)
	case *ast.Continue:
		top := fb.loopStack[len(fb.loopStack)-1]
		fb.cur.NewBr(top.Continue)
	case *ast.If:
		fb.emitIf(stmt)
	case *ast.While:
		fb.emitWhile(stmt)
	case *ast.For:
		fb.emitFor(stmt)
	case *ast.Block:
		fb.emitBlockScoped(stmt)
	}
}

func (fb *fnBuilder) emitVarDecl(v *ast.VarDecl) {
	sem := v.ResolvedType()
	elemType := fb.b.lowerType(sem)
	addr := fb.cur.NewAlloca(elemType)
	if v.Init != nil {
		val := fb.emitExpr(v.Init)
		val = fb.coerce(val, v.Init.ResolvedType(), sem)
		fb.cur.NewStore(val, addr)
	}
	fb.define(v.Name, &binding{Addr: addr, ElemType: elemType, Sem: sem})
}

func (fb *fnBuilder) emitReturn(r *ast.Return) {
	if r.Value == nil {
		fb.cur.NewRet(nil)
		return
	}
	val := fb.emitExpr(r.Value)
	val = fb.coerce(val, r.Value.ResolvedType(), fb.decl.RetType)
	fb.cur.NewRet(val)
}

func (fb *fnBuilder) emitAssign(asn *ast.Assign) {
	addr, elemType, sem := fb.emitAddress(asn.Target)
	val := fb.emitExpr(asn.Value)
	val = fb.coerce(val, asn.Value.ResolvedType(), sem)
	fb.cur.NewStore(val, addr)
	_ = elemType
}

// emitIf unrolls an elif chain into a cascade of else branches: each arm
// gets its own then/else pair, and only the final else (or fallthrough)
// reaches the outer merge block.
func (fb *fnBuilder) emitIf(s *ast.If) {
	merge := fb.fn.NewBlock(fb.blockName("if.merge"))
	fb.emitIfArm(s.Cond, s.Then, s.ElifClauses, s.Else, merge)
	fb.cur = merge
}

func (fb *fnBuilder) emitIfArm(cond ast.Expr, then *ast.Block, elifs []ast.ElifClause, els *ast.Block, merge *llir.Block) {
	thenBlock := fb.fn.NewBlock(fb.blockName("if.then"))
	elseBlock := fb.fn.NewBlock(fb.blockName("if.else"))

	condVal := fb.emitExpr(cond)
	fb.cur.NewCondBr(condVal, thenBlock, elseBlock)

	fb.cur = thenBlock
	fb.emitBlockScoped(then)
	if fb.cur.Term == nil {
		fb.cur.NewBr(merge)
	}

	fb.cur = elseBlock
	switch {
	case len(elifs) > 0:
		fb.emitIfArm(elifs[0].Cond, elifs[0].Body, elifs[1:], els, merge)
	case els != nil:
		fb.emitBlockScoped(els)
		if fb.cur.Term == nil {
			fb.cur.NewBr(merge)
		}
	default:
		fb.cur.NewBr(merge)
	}
}

func (fb *fnBuilder) emitWhile(w *ast.While) {
	cond := fb.fn.NewBlock(fb.blockName("while.cond"))
	body := fb.fn.NewBlock(fb.blockName("while.body"))
	end := fb.fn.NewBlock(fb.blockName("while.end"))

	fb.cur.NewBr(cond)

	fb.cur = cond
	condVal := fb.emitExpr(w.Cond)
	fb.cur.NewCondBr(condVal, body, end)

	fb.cur = body
	fb.loopStack = append(fb.loopStack, loopLabels{Continue: cond, Break: end})
	fb.emitBlockScoped(w.Body)
	fb.loopStack = fb.loopStack[:len(fb.loopStack)-1]
	if fb.cur.Term == nil {
		fb.cur.NewBr(cond)
	}

	fb.cur = end
}

// emitFor lowers `for i in start..end do ... end`: a half-open range over
// an iterator slot that inc increments by one each trip.
func (fb *fnBuilder) emitFor(f *ast.For) {
	iterType := fb.b.lowerType(startType(f))
	iterSem := startType(f)
	iterAddr := fb.cur.NewAlloca(iterType)
	startVal := fb.emitExpr(f.Start)
	fb.cur.NewStore(fb.coerce(startVal, f.Start.ResolvedType(), iterSem), iterAddr)
	endVal := fb.emitExpr(f.End)
	endVal = fb.coerce(endVal, f.End.ResolvedType(), iterSem)

	cond := fb.fn.NewBlock(fb.blockName("for.cond"))
	body := fb.fn.NewBlock(fb.blockName("for.body"))
	inc := fb.fn.NewBlock(fb.blockName("for.inc"))
	end := fb.fn.NewBlock(fb.blockName("for.end"))

	fb.cur.NewBr(cond)

	fb.cur = cond
	cur := fb.cur.NewLoad(iterType, iterAddr)
	lt := fb.cur.NewICmp(enum.IPredSLT, cur, endVal)
	fb.cur.NewCondBr(lt, body, end)

	fb.cur = body
	fb.pushScope()
	fb.define(f.VarName, &binding{Addr: iterAddr, ElemType: iterType, Sem: iterSem})
	fb.loopStack = append(fb.loopStack, loopLabels{Continue: inc, Break: end})
	fb.emitBlockStmts(f.Body)
	fb.loopStack = fb.loopStack[:len(fb.loopStack)-1]
	if fb.cur.Term == nil {
		fb.cur.NewBr(inc)
	}
	fb.popScope()

	fb.cur = inc
	loaded := fb.cur.NewLoad(iterType, iterAddr)
	one := intConstLike(iterType, 1)
	next := fb.cur.NewAdd(loaded, one)
	fb.cur.NewStore(next, iterAddr)
	fb.cur.NewBr(cond)

	fb.cur = end
}

func startType(f *ast.For) *ntypes.Type {
	if t := f.Start.ResolvedType(); t != nil && t != ntypes.UnknownType {
		return t
	}
	return ntypes.I64Type
}

func intConstLike(t lltypes.Type, v int64) llvalue.Value {
	if it, ok := t.(*lltypes.IntType); ok {
		return llconst.NewInt(it, v)
	}
	return llconst.NewInt(lltypes.I64, v)
}
