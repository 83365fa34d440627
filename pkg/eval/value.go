// Package eval implements a tree-walking evaluator over the typed AST —
// the interpreter path exercised by `interp`/`repl`, as opposed to the SSA
// path pkg/ir produces for `run`/`build`. The two backends implement the
// same language semantics; the eval and ir test suites share several
// source programs, but no test compares the two backends' results.
package eval

import "fmt"

// Kind discriminates the variant a Value holds.
type Kind int

const (
	Void Kind = iota
	Bool
	Int
	Float
	String
	Array
	Struct
)

// Value is the tagged union every expression evaluates to. Only the field
// matching Kind is meaningful; the rest are zero.
type Value struct {
	Kind Kind

	BoolVal   bool
	IntVal    int64
	FloatVal  float64
	StringVal string

	Elements []Value // Array only

	FieldNames  []string // Struct only, parallel to FieldValues
	FieldValues []Value
}

func VoidValue() Value                { return Value{Kind: Void} }
func BoolValue(b bool) Value          { return Value{Kind: Bool, BoolVal: b} }
func IntValue(i int64) Value          { return Value{Kind: Int, IntVal: i} }
func FloatValue(f float64) Value      { return Value{Kind: Float, FloatVal: f} }
func StringValue(s string) Value      { return Value{Kind: String, StringVal: s} }

// clone deep-copies v so aliasing a variable's storage into a new binding
// (parameter passing, `let` from an existing value, array/struct element
// assignment) never lets a later mutation of one leak into the other.
func (v Value) clone() Value {
	switch v.Kind {
	case Array:
		elems := make([]Value, len(v.Elements))
		for i, e := range v.Elements {
			elems[i] = e.clone()
		}
		return Value{Kind: Array, Elements: elems}
	case Struct:
		names := make([]string, len(v.FieldNames))
		copy(names, v.FieldNames)
		vals := make([]Value, len(v.FieldValues))
		for i, f := range v.FieldValues {
			vals[i] = f.clone()
		}
		return Value{Kind: Struct, FieldNames: names, FieldValues: vals}
	default:
		return v
	}
}

// field returns the value of the named struct field and whether it exists.
func (v Value) field(name string) (Value, bool) {
	for i, n := range v.FieldNames {
		if n == name {
			return v.FieldValues[i], true
		}
	}
	return Value{}, false
}

// setField overwrites the named struct field in place; v must be a Struct.
func (v *Value) setField(name string, val Value) bool {
	for i, n := range v.FieldNames {
		if n == name {
			v.FieldValues[i] = val
			return true
		}
	}
	return false
}

func (v Value) String() string {
	switch v.Kind {
	case Void:
		return "void"
	case Bool:
		return fmt.Sprintf("%t", v.BoolVal)
	case Int:
		return fmt.Sprintf("%d", v.IntVal)
	case Float:
		return fmt.Sprintf("%g", v.FloatVal)
	case String:
		return v.StringVal
	case Array:
		return fmt.Sprintf("array(len=%d)", len(v.Elements))
	case Struct:
		return fmt.Sprintf("struct(fields=%d)", len(v.FieldNames))
	default:
		return "?"
	}
}
