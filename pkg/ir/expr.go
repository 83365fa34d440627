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

// emitExpr lowers e to the SSA value it produces. Any identifier bound to
// a stack slot is loaded here; emitAddress is used instead wherever the
// caller wants the slot itself (assignment targets, &-of).
func (fb *fnBuilder) emitExpr(e ast.Expr) llvalue.Value {
	switch expr := e.(type) {
	case *ast.IntLit:
		return llconst.NewInt(lltypes.I64, expr.Value)
	case *ast.FloatLit:
		return llconst.NewFloat(lltypes.Double, expr.Value)
	case *ast.BoolLit:
		if expr.Value {
			return llconst.NewInt(lltypes.I1, 1)
		}
		return llconst.NewInt(lltypes.I1, 0)
	case *ast.StringLit:
		return fb.b.stringPtr(expr.Value)
	case *ast.Identifier:
		if bnd, ok := fb.lookup(expr.Name); ok {
			return fb.cur.NewLoad(bnd.ElemType, bnd.Addr)
		}
		fb.b.errorAt(expr, "unknown identifier %q", expr.Name)
		return llconst.NewInt(lltypes.I64, 0)
	case *ast.Binary:
		return fb.emitBinary(expr)
	case *ast.Logical:
		return fb.emitLogical(expr)
	case *ast.Unary:
		return fb.emitUnary(expr)
	case *ast.Call:
		return fb.emitCall(expr)
	case *ast.Member:
		addr, elemType, _ := fb.emitAddress(expr)
		return fb.cur.NewLoad(elemType, addr)
	case *ast.Index:
		addr, elemType, _ := fb.emitAddress(expr)
		return fb.cur.NewLoad(elemType, addr)
	case *ast.StructInit:
		return fb.emitStructInit(expr)
	case *ast.ArrayInit:
		return fb.emitArrayInit(expr)
	case *ast.EnumVariant:
		return fb.emitEnumVariant(expr)
	case *ast.Assign:
		addr, _, sem := fb.emitAddress(expr.Target)
		val := fb.coerce(fb.emitExpr(expr.Value), expr.Value.ResolvedType(), sem)
		fb.cur.NewStore(val, addr)
		return val
	default:
		fb.b.errorAt(expr, "codegen: unsupported expression %T", expr)
		return llconst.NewInt(lltypes.I64, 0)
	}
}

// emitAddress computes the pointer to an lvalue's storage without loading
// it. Per the AST invariant, Target (and therefore any address-of chain)
// is one of {Identifier, Member, Index}.
func (fb *fnBuilder) emitAddress(e ast.Expr) (addr llvalue.Value, elemType lltypes.Type, sem *ntypes.Type) {
	switch expr := e.(type) {
	case *ast.Identifier:
		if bnd, ok := fb.lookup(expr.Name); ok {
			return bnd.Addr, bnd.ElemType, bnd.Sem
		}
		fb.b.errorAt(expr, "unknown identifier %q", expr.Name)
		return llconst.NewInt(lltypes.I64, 0), lltypes.I64, ntypes.I64Type

	case *ast.Member:
		baseAddr, baseElemType, baseSem := fb.emitAddress(expr.X)
		if baseSem == nil || baseSem.Kind != ntypes.Struct {
			fb.b.errorAt(expr, "member access on non-struct value")
			return baseAddr, baseElemType, ntypes.UnknownType
		}
		idx := baseSem.FieldIndex(expr.Name)
		if idx < 0 {
			fb.b.errorAt(expr, "struct %q has no field %q", baseSem.Name, expr.Name)
			return baseAddr, baseElemType, ntypes.UnknownType
		}
		fieldSem := baseSem.Fields[idx].Type
		fieldType := fb.b.lowerType(fieldSem)
		zero := llconst.NewInt(lltypes.I32, 0)
		gepIdx := llconst.NewInt(lltypes.I32, int64(idx))
		gep := fb.cur.NewGetElementPtr(baseElemType, baseAddr, zero, gepIdx)
		return gep, fieldType, fieldSem

	case *ast.Index:
		xSem := expr.X.ResolvedType()
		if xSem != nil && xSem.Kind == ntypes.Array {
			baseAddr, baseElemType, _ := fb.emitAddress(expr.X)
			idxVal := fb.emitExpr(expr.Index)
			zero := llconst.NewInt(lltypes.I32, 0)
			gep := fb.cur.NewGetElementPtr(baseElemType, baseAddr, zero, idxVal)
			elemSem := xSem.Elem
			return gep, fb.b.lowerType(elemSem), elemSem
		}
		// Slice / ptr: the base is itself an already-decayed pointer value,
		// not a stack slot to GEP through with a leading zero index.
		basePtr := fb.emitExpr(expr.X)
		idxVal := fb.emitExpr(expr.Index)
		var elemSem *ntypes.Type
		if xSem != nil {
			elemSem = xSem.Elem
		}
		elemType := fb.b.lowerType(elemSem)
		gep := fb.cur.NewGetElementPtr(elemType, basePtr, idxVal)
		return gep, elemType, elemSem

	default:
		fb.b.errorAt(e, "codegen: expression is not assignable")
		return llconst.NewInt(lltypes.I64, 0), lltypes.I64, ntypes.UnknownType
	}
}

// ---------------------------------------------------------------- operators

func (fb *fnBuilder) emitBinary(b *ast.Binary) llvalue.Value {
	lhs := fb.emitExpr(b.Left)
	rhs := fb.emitExpr(b.Right)
	lt := b.Left.ResolvedType()

	if lt != nil && lt.IsFloat() {
		return fb.emitFloatBinary(b.Op, lhs, rhs)
	}
	return fb.emitIntBinary(b.Op, lhs, rhs, lt)
}

func (fb *fnBuilder) emitIntBinary(op ast.BinaryOp, x, y llvalue.Value, lt *ntypes.Type) llvalue.Value {
	unsigned := lt != nil && lt.IsUnsigned()
	switch op {
	case ast.Add:
		return fb.cur.NewAdd(x, y)
	case ast.Sub:
		return fb.cur.NewSub(x, y)
	case ast.Mul:
		return fb.cur.NewMul(x, y)
	case ast.Div:
		if unsigned {
			return fb.cur.NewUDiv(x, y)
		}
		return fb.cur.NewSDiv(x, y)
	case ast.Mod:
		if unsigned {
			return fb.cur.NewURem(x, y)
		}
		return fb.cur.NewSRem(x, y)
	case ast.BAnd:
		return fb.cur.NewAnd(x, y)
	case ast.BOr:
		return fb.cur.NewOr(x, y)
	case ast.BXor:
		return fb.cur.NewXor(x, y)
	case ast.Shl:
		return fb.cur.NewShl(x, y)
	case ast.Shr:
		if unsigned {
			return fb.cur.NewLShr(x, y)
		}
		return fb.cur.NewAShr(x, y)
	case ast.Eq:
		return fb.cur.NewICmp(enum.IPredEQ, x, y)
	case ast.Ne:
		return fb.cur.NewICmp(enum.IPredNE, x, y)
	case ast.Lt:
		return fb.cur.NewICmp(signedPred(unsigned, enum.IPredSLT, enum.IPredULT), x, y)
	case ast.Le:
		return fb.cur.NewICmp(signedPred(unsigned, enum.IPredSLE, enum.IPredULE), x, y)
	case ast.Gt:
		return fb.cur.NewICmp(signedPred(unsigned, enum.IPredSGT, enum.IPredUGT), x, y)
	case ast.Ge:
		return fb.cur.NewICmp(signedPred(unsigned, enum.IPredSGE, enum.IPredUGE), x, y)
	default:
		return x
	}
}

func signedPred(unsigned bool, signed, unsignedPred enum.IPred) enum.IPred {
	if unsigned {
		return unsignedPred
	}
	return signed
}

func (fb *fnBuilder) emitFloatBinary(op ast.BinaryOp, x, y llvalue.Value) llvalue.Value {
	switch op {
	case ast.Add:
		return fb.cur.NewFAdd(x, y)
	case ast.Sub:
		return fb.cur.NewFSub(x, y)
	case ast.Mul:
		return fb.cur.NewFMul(x, y)
	case ast.Div:
		return fb.cur.NewFDiv(x, y)
	case ast.Eq:
		return fb.cur.NewFCmp(enum.FPredOEQ, x, y)
	case ast.Ne:
		return fb.cur.NewFCmp(enum.FPredONE, x, y)
	case ast.Lt:
		return fb.cur.NewFCmp(enum.FPredOLT, x, y)
	case ast.Le:
		return fb.cur.NewFCmp(enum.FPredOLE, x, y)
	case ast.Gt:
		return fb.cur.NewFCmp(enum.FPredOGT, x, y)
	case ast.Ge:
		return fb.cur.NewFCmp(enum.FPredOGE, x, y)
	default:
		return x
	}
}

// emitLogical evaluates `and`/`or` with mandatory short-circuit semantics:
// the right operand is emitted in its own block reached only when it can
// affect the result, never unconditionally. A single bitwise and/or
// instruction would evaluate both operands regardless of the left
// result, which breaks `false and crash()`.
func (fb *fnBuilder) emitLogical(l *ast.Logical) llvalue.Value {
	lhs := fb.emitExpr(l.Left)
	fromBlock := fb.cur

	rhsBlock := fb.fn.NewBlock(fb.blockName("logical.rhs"))
	merge := fb.fn.NewBlock(fb.blockName("logical.merge"))

	var shortCircuitVal llvalue.Value
	if l.Op == ast.LAnd {
		shortCircuitVal = llconst.NewInt(lltypes.I1, 0)
		fb.cur.NewCondBr(lhs, rhsBlock, merge)
	} else {
		shortCircuitVal = llconst.NewInt(lltypes.I1, 1)
		fb.cur.NewCondBr(lhs, merge, rhsBlock)
	}

	fb.cur = rhsBlock
	rhs := fb.emitExpr(l.Right)
	rhsEndBlock := fb.cur
	fb.cur.NewBr(merge)

	fb.cur = merge
	phi := fb.cur.NewPhi(
		llir.NewIncoming(shortCircuitVal, fromBlock),
		llir.NewIncoming(rhs, rhsEndBlock),
	)
	return phi
}

func (fb *fnBuilder) emitUnary(u *ast.Unary) llvalue.Value {
	switch u.Op {
	case ast.Addr:
		addr, _, _ := fb.emitAddress(u.Right)
		return addr
	case ast.Deref:
		ptr := fb.emitExpr(u.Right)
		rt := u.Right.ResolvedType()
		var elemSem *ntypes.Type
		if rt != nil {
			elemSem = rt.Elem
		}
		return fb.cur.NewLoad(fb.b.lowerType(elemSem), ptr)
	case ast.Not:
		val := fb.emitExpr(u.Right)
		return fb.cur.NewXor(val, llconst.NewInt(lltypes.I1, 1))
	case ast.Neg:
		val := fb.emitExpr(u.Right)
		rt := u.Right.ResolvedType()
		if rt != nil && rt.IsFloat() {
			return fb.cur.NewFSub(llconst.NewFloat(lltypes.Double, 0), val)
		}
		return fb.cur.NewSub(intConstLike(val.Type(), 0), val)
	case ast.BNot:
		val := fb.emitExpr(u.Right)
		return fb.cur.NewXor(val, intConstLike(val.Type(), -1))
	default:
		return fb.emitExpr(u.Right)
	}
}

// ------------------------------------------------------------------- calls

func (fb *fnBuilder) emitCall(c *ast.Call) llvalue.Value {
	callee, name := fb.b.resolveCallee(c.Callee)
	if callee == nil {
		fb.b.errorAt(c, "unknown function %q", name)
		return llconst.NewInt(lltypes.I64, 0)
	}
	args := make([]llvalue.Value, len(c.Args))
	for i, a := range c.Args {
		args[i] = fb.emitExpr(a)
	}
	return fb.cur.NewCall(callee, args...)
}

// ------------------------------------------------------------- aggregates

// emitStructInit allocates a stack slot, stores each initializer field at
// its *declared* index (not the initializer's ordinal position — this is
// the `Point { y=.., x=.. }` out-of-order guarantee), then loads the
// whole value back out.
func (fb *fnBuilder) emitStructInit(s *ast.StructInit) llvalue.Value {
	sem := s.ResolvedType()
	elemType := fb.b.lowerType(sem)
	addr := fb.cur.NewAlloca(elemType)

	for _, f := range s.Fields {
		idx := sem.FieldIndex(f.Name)
		if idx < 0 {
			fb.b.errorAt(s, "struct %q has no field %q", sem.Name, f.Name)
			continue
		}
		fieldSem := sem.Fields[idx].Type
		val := fb.emitExpr(f.Value)
		val = fb.coerce(val, f.Value.ResolvedType(), fieldSem)
		zero := llconst.NewInt(lltypes.I32, 0)
		gepIdx := llconst.NewInt(lltypes.I32, int64(idx))
		gep := fb.cur.NewGetElementPtr(elemType, addr, zero, gepIdx)
		fb.cur.NewStore(val, gep)
	}
	return fb.cur.NewLoad(elemType, addr)
}

// emitArrayInit allocates a stack slot, stores each element, then loads
// the whole aggregate back out — same shape as emitStructInit, so an
// array-typed expression value is always the aggregate `[N x T]`, never
// the slot pointer. `a[i]` addressing never goes through this: it
// resolves straight to the variable's own binding via emitAddress, which
// still hands out the pointer GEP needs.
func (fb *fnBuilder) emitArrayInit(a *ast.ArrayInit) llvalue.Value {
	sem := a.ResolvedType()
	elemType := fb.b.lowerType(sem)
	addr := fb.cur.NewAlloca(elemType)

	elemSem := sem.Elem
	for i, elem := range a.Elements {
		val := fb.emitExpr(elem)
		val = fb.coerce(val, elem.ResolvedType(), elemSem)
		zero := llconst.NewInt(lltypes.I32, 0)
		idx := llconst.NewInt(lltypes.I32, int64(i))
		gep := fb.cur.NewGetElementPtr(elemType, addr, zero, idx)
		fb.cur.NewStore(val, gep)
	}
	return fb.cur.NewLoad(elemType, addr)
}

func (fb *fnBuilder) emitEnumVariant(e *ast.EnumVariant) llvalue.Value {
	sem := e.ResolvedType()
	v, _ := sem.VariantValue(e.VariantName)
	return llconst.NewInt(lltypes.I64, v)
}

// -------------------------------------------------------------- coercion

// coerce inserts the numeric cast (or none) needed to take a value typed
// from into a context typed to — used at `ret` and at every assignment/
// initializer/field-store site where the two types can legally differ
// only by width or numeric domain. Struct/array/pointer/bool/void never
// need a cast; by the time codegen runs the analyzer has already
// rejected any other mismatch.
func (fb *fnBuilder) coerce(val llvalue.Value, from, to *ntypes.Type) llvalue.Value {
	if from == nil || to == nil || ntypes.Equal(from, to) {
		return val
	}
	toType := fb.b.lowerType(to)

	switch {
	case from.IsInteger() && to.IsInteger():
		fb2, tb := from.BitWidth(), to.BitWidth()
		switch {
		case fb2 == tb:
			return val
		case fb2 < tb:
			if from.IsSigned() {
				return fb.cur.NewSExt(val, toType)
			}
			return fb.cur.NewZExt(val, toType)
		default:
			return fb.cur.NewTrunc(val, toType)
		}
	case from.IsInteger() && to.IsFloat():
		if from.IsSigned() {
			return fb.cur.NewSIToFP(val, toType)
		}
		return fb.cur.NewUIToFP(val, toType)
	case from.IsFloat() && to.IsInteger():
		if to.IsSigned() {
			return fb.cur.NewFPToSI(val, toType)
		}
		return fb.cur.NewFPToUI(val, toType)
	case from.IsFloat() && to.IsFloat():
		if from.BitWidth() < to.BitWidth() {
			return fb.cur.NewFPExt(val, toType)
		}
		if from.BitWidth() > to.BitWidth() {
			return fb.cur.NewFPTrunc(val, toType)
		}
		return val
	default:
		return val
	}
}

// ----------------------------------------------------------- string pool

// stringPtr lowers a string literal to a global null-terminated byte
// array with an auto-incrementing internal name, returning a pointer to
// its first byte; identical literals share one global.
func (b *Builder) stringPtr(s string) llvalue.Value {
	g, ok := b.strings[s]
	if !ok {
		data := append([]byte(s), 0)
		init := llconst.NewCharArrayFromString(string(data))
		name := fmt.Sprintf(".str.%d", b.strCounter)
		b.strCounter++
		g = b.mod.NewGlobalDef(name, init)
		g.Immutable = true
		b.strings[s] = g
	}
	zero := llconst.NewInt(lltypes.I32, 0)
	return llconst.NewGetElementPtr(g.ContentType, g, zero, zero)
}
