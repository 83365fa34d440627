package eval

import "github.com/nullc/null/pkg/ast"

// evalExpr evaluates e to a Value. Once a diagnostic has been recorded or
// a return is in flight, every branch short-circuits to VoidValue the way
// eval_expr's leading `if (had_error || has_return) return val_void()`
// guard does, so a runtime error doesn't cascade into a second, confusing
// one from code that only ran because the first check was skipped.
func (in *Interp) evalExpr(e ast.Expr) Value {
	if in.diags.HasErrors() || in.hasReturn {
		return VoidValue()
	}

	switch expr := e.(type) {
	case *ast.IntLit:
		return IntValue(expr.Value)
	case *ast.FloatLit:
		return FloatValue(expr.Value)
	case *ast.BoolLit:
		return BoolValue(expr.Value)
	case *ast.StringLit:
		return StringValue(expr.Value)
	case *ast.Identifier:
		b, ok := in.current.lookup(expr.Name)
		if !ok {
			in.errorAt(expr, "undefined variable: %s", expr.Name)
			return VoidValue()
		}
		return b.value.clone()
	case *ast.Binary:
		return in.evalBinary(expr)
	case *ast.Logical:
		return in.evalLogical(expr)
	case *ast.Unary:
		return in.evalUnary(expr)
	case *ast.Call:
		return in.evalCall(expr)
	case *ast.Index:
		return in.evalIndex(expr)
	case *ast.Member:
		return in.evalMember(expr)
	case *ast.ArrayInit:
		return in.evalArrayInit(expr)
	case *ast.StructInit:
		return in.evalStructInit(expr)
	case *ast.EnumVariant:
		return in.evalEnumVariant(expr)
	case *ast.Assign:
		return in.evalAssign(expr)
	default:
		in.errorAt(expr, "unsupported expression")
		return VoidValue()
	}
}

func (in *Interp) evalCall(c *ast.Call) Value {
	args := make([]Value, len(c.Args))
	for i, a := range c.Args {
		args[i] = in.evalExpr(a)
	}
	return in.callByExpr(c.Callee, args)
}

func (in *Interp) evalIndex(idx *ast.Index) Value {
	arr := in.evalExpr(idx.X)
	i := in.evalExpr(idx.Index)
	if arr.Kind != Array || i.Kind != Int {
		in.errorAt(idx, "invalid array index")
		return VoidValue()
	}
	if i.IntVal < 0 || int(i.IntVal) >= len(arr.Elements) {
		in.errorAt(idx, "array index out of range")
		return VoidValue()
	}
	return arr.Elements[i.IntVal].clone()
}

func (in *Interp) evalMember(m *ast.Member) Value {
	obj := in.evalExpr(m.X)
	if obj.Kind != Struct {
		in.errorAt(m, "invalid member access")
		return VoidValue()
	}
	v, ok := obj.field(m.Name)
	if !ok {
		in.errorAt(m, "struct has no field %q", m.Name)
		return VoidValue()
	}
	return v.clone()
}

func (in *Interp) evalArrayInit(a *ast.ArrayInit) Value {
	elems := make([]Value, len(a.Elements))
	for i, e := range a.Elements {
		elems[i] = in.evalExpr(e)
	}
	return Value{Kind: Array, Elements: elems}
}

func (in *Interp) evalStructInit(s *ast.StructInit) Value {
	names := make([]string, len(s.Fields))
	vals := make([]Value, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
		vals[i] = in.evalExpr(f.Value)
	}
	return Value{Kind: Struct, FieldNames: names, FieldValues: vals}
}

func (in *Interp) evalEnumVariant(e *ast.EnumVariant) Value {
	def, ok := in.enums[e.EnumName]
	if !ok {
		in.errorAt(e, "unknown enum: %s", e.EnumName)
		return VoidValue()
	}
	v, ok := def.Variants[e.VariantName]
	if !ok {
		in.errorAt(e, "enum %s has no variant %s", e.EnumName, e.VariantName)
		return VoidValue()
	}
	return IntValue(v)
}

// evalAssign evaluates the right-hand side, stores it at the target, and
// yields the stored value — an assignment is itself an expression, so
// `x = y = 1` and `puts(x = "a")` both work.
func (in *Interp) evalAssign(a *ast.Assign) Value {
	val := in.evalExpr(a.Value)

	switch target := a.Target.(type) {
	case *ast.Identifier:
		b, ok := in.current.lookup(target.Name)
		if !ok {
			in.errorAt(target, "undefined variable: %s", target.Name)
			return val
		}
		b.value = val.clone()
		return val.clone()

	case *ast.Index:
		base, ok := target.X.(*ast.Identifier)
		if !ok {
			in.errorAt(target, "invalid assignment target")
			return val
		}
		b, ok := in.current.lookup(base.Name)
		if !ok || b.value.Kind != Array {
			in.errorAt(target, "undefined array: %s", base.Name)
			return val
		}
		i := in.evalExpr(target.Index)
		if i.Kind != Int || i.IntVal < 0 || int(i.IntVal) >= len(b.value.Elements) {
			in.errorAt(target, "array index out of range")
			return val
		}
		b.value.Elements[i.IntVal] = val.clone()
		return val.clone()

	case *ast.Member:
		base, ok := target.X.(*ast.Identifier)
		if !ok {
			in.errorAt(target, "invalid assignment target")
			return val
		}
		b, ok := in.current.lookup(base.Name)
		if !ok || b.value.Kind != Struct {
			in.errorAt(target, "undefined struct: %s", base.Name)
			return val
		}
		if !b.value.setField(target.Name, val.clone()) {
			in.errorAt(target, "struct has no field %q", target.Name)
		}
		return val.clone()

	default:
		in.errorAt(a, "invalid assignment target")
		return val
	}
}
