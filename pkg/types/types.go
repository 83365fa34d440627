// Package types implements the Type tagged variant shared by the analyzer,
// IR builder, and evaluator.
package types

import (
	"fmt"
	"strings"
)

// Kind discriminates the variant a Type holds.
type Kind int

const (
	Void Kind = iota
	Bool
	I8
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	F32
	F64
	Ptr
	Array
	Slice
	Struct
	Enum
	Function
	Unknown // sentinel used only during error recovery
)

// Field is one member of a struct type, in declaration order.
type Field struct {
	Name string
	Type *Type
}

// Variant is one member of an enum type, in declaration order.
type Variant struct {
	Name  string
	Value int64
}

// Type is a tagged variant over the language's type grammar. Instances are
// created through the constructor functions below and compared with Equal;
// the zero Type is not meaningful.
type Type struct {
	Kind Kind

	Elem *Type // Ptr.inner, Array.elem, Slice.elem

	ArraySize int // Array only; >= 0

	Name     string    // Struct / Enum: the nominal name
	Fields   []Field   // Struct only, ordered
	Variants []Variant // Enum only, ordered

	Return Type   // Function only
	Params []Type // Function only, ordered
}

func NewPtr(inner *Type) *Type  { return &Type{Kind: Ptr, Elem: inner} }
func NewArray(elem *Type, size int) *Type {
	return &Type{Kind: Array, Elem: elem, ArraySize: size}
}
func NewSlice(elem *Type) *Type { return &Type{Kind: Slice, Elem: elem} }
func NewStruct(name string, fields []Field) *Type {
	return &Type{Kind: Struct, Name: name, Fields: fields}
}
func NewEnum(name string, variants []Variant) *Type {
	return &Type{Kind: Enum, Name: name, Variants: variants}
}
func NewFunction(ret Type, params []Type) *Type {
	return &Type{Kind: Function, Return: ret, Params: params}
}

var (
	VoidType    = &Type{Kind: Void}
	BoolType    = &Type{Kind: Bool}
	I8Type      = &Type{Kind: I8}
	I16Type     = &Type{Kind: I16}
	I32Type     = &Type{Kind: I32}
	I64Type     = &Type{Kind: I64}
	U8Type      = &Type{Kind: U8}
	U16Type     = &Type{Kind: U16}
	U32Type     = &Type{Kind: U32}
	U64Type     = &Type{Kind: U64}
	F32Type     = &Type{Kind: F32}
	F64Type     = &Type{Kind: F64}
	UnknownType = &Type{Kind: Unknown}
)

// IsInteger reports whether t is one of the signed/unsigned integer kinds.
func (t *Type) IsInteger() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case I8, I16, I32, I64, U8, U16, U32, U64:
		return true
	}
	return false
}

// IsSigned reports whether t is a signed integer kind.
func (t *Type) IsSigned() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case I8, I16, I32, I64:
		return true
	}
	return false
}

// IsUnsigned reports whether t is an unsigned integer kind.
func (t *Type) IsUnsigned() bool {
	if t == nil {
		return false
	}
	switch t.Kind {
	case U8, U16, U32, U64:
		return true
	}
	return false
}

// IsFloat reports whether t is f32 or f64.
func (t *Type) IsFloat() bool {
	return t != nil && (t.Kind == F32 || t.Kind == F64)
}

// IsNumeric reports whether t is an integer or float kind.
func (t *Type) IsNumeric() bool {
	return t.IsInteger() || t.IsFloat()
}

// BitWidth returns the width in bits of an integer or float kind, or 0.
func (t *Type) BitWidth() int {
	if t == nil {
		return 0
	}
	switch t.Kind {
	case I8, U8:
		return 8
	case I16, U16:
		return 16
	case I32, U32, F32:
		return 32
	case I64, U64, F64:
		return 64
	}
	return 0
}

// Equal implements the structural-except-nominal comparison
// requires: primitives/ptr/array/slice/function compare structurally;
// struct/enum compare by declared Name only.
func Equal(a, b *Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Ptr, Slice:
		return Equal(a.Elem, b.Elem)
	case Array:
		return a.ArraySize == b.ArraySize && Equal(a.Elem, b.Elem)
	case Struct, Enum:
		return a.Name == b.Name
	case Function:
		if !Equal(&a.Return, &b.Return) || len(a.Params) != len(b.Params) {
			return false
		}
		for i := range a.Params {
			if !Equal(&a.Params[i], &b.Params[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// String renders the type the way the language's surface syntax spells it
// (used in diagnostics).
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case Void:
		return "void"
	case Bool:
		return "bool"
	case I8:
		return "i8"
	case I16:
		return "i16"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case U8:
		return "u8"
	case U16:
		return "u16"
	case U32:
		return "u32"
	case U64:
		return "u64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case Ptr:
		return fmt.Sprintf("ptr<%s>", t.Elem)
	case Array:
		return fmt.Sprintf("[%s; %d]", t.Elem, t.ArraySize)
	case Slice:
		return fmt.Sprintf("[%s]", t.Elem)
	case Struct:
		return "struct " + t.Name
	case Enum:
		return "enum " + t.Name
	case Function:
		parts := make([]string, len(t.Params))
		for i, p := range t.Params {
			parts[i] = p.String()
		}
		return fmt.Sprintf("fn(%s) -> %s", strings.Join(parts, ", "), t.Return.String())
	case Unknown:
		return "<unknown>"
	default:
		return "<invalid type>"
	}
}

// FieldIndex returns the declared index of a field name within a struct
// type, or -1. The IR builder uses this (not the initializer's ordinal
// position) to place struct_init values at the correct slot.
func (t *Type) FieldIndex(name string) int {
	if t == nil || t.Kind != Struct {
		return -1
	}
	for i, f := range t.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// VariantValue returns the declared int64 value of an enum variant name.
func (t *Type) VariantValue(name string) (int64, bool) {
	if t == nil || t.Kind != Enum {
		return 0, false
	}
	for _, v := range t.Variants {
		if v.Name == name {
			return v.Value, true
		}
	}
	return 0, false
}
