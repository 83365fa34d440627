package eval

import "github.com/nullc/null/pkg/ast"

// evalBinary dispatches by the evaluated operands' runtime kind, not the
// static type the analyzer already checked. `==`/`!=` go through
// valuesEqual for every kind; the other operators have an int/int arm and
// a float arm (one side may be promoted from int), and any other operand
// kinds, bool and string included, are a runtime error.
func (in *Interp) evalBinary(b *ast.Binary) Value {
	left := in.evalExpr(b.Left)
	right := in.evalExpr(b.Right)

	if b.Op == ast.Eq || b.Op == ast.Ne {
		eq := valuesEqual(left, right)
		if b.Op == ast.Ne {
			eq = !eq
		}
		return BoolValue(eq)
	}

	if left.Kind == Int && right.Kind == Int {
		return evalIntBinary(b.Op, left.IntVal, right.IntVal)
	}
	if (left.Kind == Int || left.Kind == Float) && (right.Kind == Int || right.Kind == Float) {
		return evalFloatBinary(b.Op, asFloat(left), asFloat(right))
	}
	in.errorAt(b, "invalid operand types for %s", b.Op)
	return VoidValue()
}

func asFloat(v Value) float64 {
	if v.Kind == Float {
		return v.FloatVal
	}
	return float64(v.IntVal)
}

func evalIntBinary(op ast.BinaryOp, l, r int64) Value {
	switch op {
	case ast.Add:
		return IntValue(l + r)
	case ast.Sub:
		return IntValue(l - r)
	case ast.Mul:
		return IntValue(l * r)
	case ast.Div:
		if r == 0 {
			return IntValue(0)
		}
		return IntValue(l / r)
	case ast.Mod:
		if r == 0 {
			return IntValue(0)
		}
		return IntValue(l % r)
	case ast.Lt:
		return BoolValue(l < r)
	case ast.Le:
		return BoolValue(l <= r)
	case ast.Gt:
		return BoolValue(l > r)
	case ast.Ge:
		return BoolValue(l >= r)
	case ast.BAnd:
		return IntValue(l & r)
	case ast.BOr:
		return IntValue(l | r)
	case ast.BXor:
		return IntValue(l ^ r)
	case ast.Shl:
		return IntValue(l << uint(r))
	case ast.Shr:
		return IntValue(l >> uint(r))
	default:
		return VoidValue()
	}
}

func evalFloatBinary(op ast.BinaryOp, l, r float64) Value {
	switch op {
	case ast.Add:
		return FloatValue(l + r)
	case ast.Sub:
		return FloatValue(l - r)
	case ast.Mul:
		return FloatValue(l * r)
	case ast.Div:
		if r == 0 {
			return FloatValue(0)
		}
		return FloatValue(l / r)
	case ast.Lt:
		return BoolValue(l < r)
	case ast.Le:
		return BoolValue(l <= r)
	case ast.Gt:
		return BoolValue(l > r)
	case ast.Ge:
		return BoolValue(l >= r)
	default:
		return VoidValue()
	}
}

// valuesEqual implements == / != across every Value kind, including a
// structural recursion into arrays and structs — a deliberate extension
// beyond the original interpreter's int/float/bool-only equality, since
// the analyzer's binaryCompatible already allows comparing any two
// structurally-equal types.
func valuesEqual(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Void:
		return true
	case Bool:
		return a.BoolVal == b.BoolVal
	case Int:
		return a.IntVal == b.IntVal
	case Float:
		return a.FloatVal == b.FloatVal
	case String:
		return a.StringVal == b.StringVal
	case Array:
		if len(a.Elements) != len(b.Elements) {
			return false
		}
		for i := range a.Elements {
			if !valuesEqual(a.Elements[i], b.Elements[i]) {
				return false
			}
		}
		return true
	case Struct:
		if len(a.FieldNames) != len(b.FieldNames) {
			return false
		}
		for i, name := range a.FieldNames {
			bv, ok := b.field(name)
			if !ok || !valuesEqual(a.FieldValues[i], bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// evalLogical evaluates `and`/`or` with mandatory short-circuit: the right
// operand's expression is never evaluated when the left side already
// determines the result.
func (in *Interp) evalLogical(l *ast.Logical) Value {
	left := in.evalExpr(l.Left)
	if left.Kind != Bool {
		in.errorAt(l, "logical operand must be bool")
		return VoidValue()
	}
	if l.Op == ast.LAnd && !left.BoolVal {
		return BoolValue(false)
	}
	if l.Op == ast.LOr && left.BoolVal {
		return BoolValue(true)
	}
	right := in.evalExpr(l.Right)
	if right.Kind != Bool {
		in.errorAt(l, "logical operand must be bool")
		return VoidValue()
	}
	if l.Op == ast.LAnd {
		return BoolValue(left.BoolVal && right.BoolVal)
	}
	return BoolValue(left.BoolVal || right.BoolVal)
}

// evalUnary covers -, not, and ~. & and * (address-of/deref) have no
// meaningful runtime model in a tree-walking evaluator with no addressable
// memory, so they fall through to void here exactly as they did in the
// original interpreter's unary switch (which never listed UN_ADDR/UN_DEREF
// cases and fell to its default).
func (in *Interp) evalUnary(u *ast.Unary) Value {
	val := in.evalExpr(u.Right)
	switch u.Op {
	case ast.Neg:
		if val.Kind == Int {
			return IntValue(-val.IntVal)
		}
		if val.Kind == Float {
			return FloatValue(-val.FloatVal)
		}
	case ast.Not:
		if val.Kind == Bool {
			return BoolValue(!val.BoolVal)
		}
	case ast.BNot:
		if val.Kind == Int {
			return IntValue(^val.IntVal)
		}
	}
	return VoidValue()
}
