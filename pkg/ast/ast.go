// Package ast defines the typed AST shared by the parser, analyzer, IR
// builder, and evaluator. The program node transitively
// owns every other node; downstream stages only ever hold borrowed
// references into the tree the parser returns.
package ast

import (
	"fmt"

	"github.com/nullc/null/pkg/types"
)

// Node is embedded by every AST node. It carries source position and the
// type slot the analyzer fills in; everything else lives on the concrete
// node type.
type Node struct {
	Line   int
	Column int
	Typ    *types.Type // filled by the analyzer; nil until then
}

func (n *Node) Position() (line, col int) { return n.Line, n.Column }
func (n *Node) ResolvedType() *types.Type { return n.Typ }
func (n *Node) SetResolvedType(t *types.Type) { n.Typ = t }

// Expr is implemented by every node that produces a value.
type Expr interface {
	exprNode()
	Position() (line, col int)
	ResolvedType() *types.Type
	SetResolvedType(*types.Type)
	String() string
}

// Stmt is implemented by every node that does not itself produce a value.
type Stmt interface {
	stmtNode()
	Position() (line, col int)
	String() string
}

// Decl is implemented by the top-level declaration kinds (fn/struct/enum/
// var/use/extern); every Decl is also a Stmt so a Program's Decls slice can
// be walked uniformly.
type Decl interface {
	Stmt
	declNode()
}

// ---------------------------------------------------------------- Program

// Program is the root of the AST and the sole owner of every other node.
type Program struct {
	Node
	Decls []Decl
}

func (p *Program) stmtNode() {}
func (p *Program) String() string { return fmt.Sprintf("Program(decls=%d)", len(p.Decls)) }

// -------------------------------------------------------------- Top level

// Param is a single function parameter.
type Param struct {
	Node
	Name string
	Type *types.Type // declared type, parsed eagerly; the analyzer replaces it with the resolved type (Typ stays unset)
}

func (p *Param) stmtNode() {}
func (p *Param) String() string { return fmt.Sprintf("%s :: %s", p.Name, p.Type) }

// FnDecl is `fn name(params) -> ret do body end`.
type FnDecl struct {
	Node
	Name     string
	Params   []*Param
	RetType  *types.Type
	Body     *Block // nil for an @extern-declared function
	IsExtern bool
	ExternABI string // e.g. "C"; set when IsExtern
}

func (f *FnDecl) stmtNode() {}
func (f *FnDecl) declNode() {}
func (f *FnDecl) String() string { return fmt.Sprintf("FnDecl(%s)", f.Name) }

// StructDecl is `struct Name do f1 :: T1 \n f2 :: T2 \n ... end`.
type StructDecl struct {
	Node
	Name   string
	Fields []StructFieldDecl
}

type StructFieldDecl struct {
	Name string
	Type *types.Type
}

func (s *StructDecl) stmtNode() {}
func (s *StructDecl) declNode() {}
func (s *StructDecl) String() string { return fmt.Sprintf("StructDecl(%s, fields=%d)", s.Name, len(s.Fields)) }

// EnumDecl is `enum Name do V1 \n V2 = N \n ... end`, N an integer literal.
type EnumDecl struct {
	Node
	Name     string
	Variants []EnumVariantDecl
}

type EnumVariantDecl struct {
	Name  string
	Value int64
}

func (e *EnumDecl) stmtNode() {}
func (e *EnumDecl) declNode() {}
func (e *EnumDecl) String() string { return fmt.Sprintf("EnumDecl(%s, variants=%d)", e.Name, len(e.Variants)) }

// VarDecl is `let|mut|const name [:: Type] = init`.
type VarDecl struct {
	Node
	Name        string
	Declared    *types.Type // explicit annotation; nil if inferred
	Init        Expr
	IsMut       bool
	IsConst     bool
}

func (v *VarDecl) stmtNode() {}
func (v *VarDecl) declNode() {}
func (v *VarDecl) String() string { return fmt.Sprintf("VarDecl(%s, mut=%v)", v.Name, v.IsMut) }

// Use is `@use "path" [as alias]`. Under normal operation the module
// preprocessor (pkg/preprocess) splices the referenced file's contents in
// place of the directive before the lexer ever runs, so a Use node only
// reaches the parser when source is lexed without the preprocessor running
// first (as the REPL driver does with each line); it is otherwise
// vestigial and the analyzer skips it, mirroring original_source/src/analyzer.c.
type Use struct {
	Node
	Path  string
	Alias string // "" if no "as alias" clause
}

func (u *Use) stmtNode() {}
func (u *Use) declNode() {}
func (u *Use) String() string { return fmt.Sprintf("Use(%q)", u.Path) }

// Extern is `@extern "ABI" do fn name(params) -> ret ... end`: the fns have
// no body and no `end` of their own, and one `end` closes the block. Its
// Fns are FnDecl with IsExtern set.
type Extern struct {
	Node
	ABI string
	Fns []*FnDecl
}

func (e *Extern) stmtNode() {}
func (e *Extern) declNode() {}
func (e *Extern) String() string { return fmt.Sprintf("Extern(%q, fns=%d)", e.ABI, len(e.Fns)) }

// ------------------------------------------------------------- Statements

// Block is a `do ... end` statement sequence; introduces a scope.
type Block struct {
	Node
	Stmts []Stmt
}

func (b *Block) stmtNode() {}
func (b *Block) String() string { return fmt.Sprintf("Block(len=%d)", len(b.Stmts)) }

// Return is `ret [expr]`.
type Return struct {
	Node
	Value Expr // nil for a bare `ret` in a void function
}

func (r *Return) stmtNode() {}
func (r *Return) String() string { return fmt.Sprintf("Return(%v)", r.Value) }

// Break is `break`.
type Break struct{ Node }

func (b *Break) stmtNode() {}
func (b *Break) String() string { return "Break" }

// Continue is `continue`.
type Continue struct{ Node }

func (c *Continue) stmtNode() {}
func (c *Continue) String() string { return "Continue" }

// If is `if cond do then elif cond do ... else ... end`. ElifClauses holds
// the elif chain; Else may be nil.
type If struct {
	Node
	Cond        Expr
	Then        *Block
	ElifClauses []ElifClause
	Else        *Block
}

type ElifClause struct {
	Cond Expr
	Body *Block
}

func (i *If) stmtNode() {}
func (i *If) String() string { return fmt.Sprintf("If(%v)", i.Cond) }

// While is `while cond do body end`.
type While struct {
	Node
	Cond Expr
	Body *Block
}

func (w *While) stmtNode() {}
func (w *While) String() string { return fmt.Sprintf("While(%v)", w.Cond) }

// For is `for ident in start..end do body end` (half-open range).
type For struct {
	Node
	VarName string
	Start   Expr
	End     Expr
	Body    *Block
}

func (f *For) stmtNode() {}
func (f *For) String() string { return fmt.Sprintf("For(%s)", f.VarName) }

// ExprStmt is an expression evaluated for its side effects.
type ExprStmt struct {
	Node
	X Expr
}

func (e *ExprStmt) stmtNode() {}
func (e *ExprStmt) String() string { return fmt.Sprintf("ExprStmt(%v)", e.X) }

// Assign is `target = value`; Target is one of {Identifier, Member, Index}.
// It satisfies both Stmt and Expr since `=` is right-associative and can
// nest (`x = y = 1`) or appear as a call argument.
type Assign struct {
	Node
	Target Expr
	Value  Expr
}

func (a *Assign) stmtNode() {}
func (a *Assign) exprNode() {}
func (a *Assign) String() string { return fmt.Sprintf("Assign(%v = %v)", a.Target, a.Value) }

// ------------------------------------------------------------ Expressions

// BinaryOp enumerates the binary operators.
type BinaryOp int

const (
	Add BinaryOp = iota
	Sub
	Mul
	Div
	Mod
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	BAnd
	BOr
	BXor
	Shl
	Shr
)

func (op BinaryOp) String() string {
	names := [...]string{"+", "-", "*", "/", "%", "==", "!=", "<", "<=", ">", ">=", "&", "|", "^", "<<", ">>"}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// LogicalOp enumerates `and`/`or`, kept separate from BinaryOp so the IR
// builder and evaluator can special-case short-circuit evaluation
// without a type switch over every BinaryOp.
type LogicalOp int

const (
	LAnd LogicalOp = iota
	LOr
)

func (op LogicalOp) String() string {
	if op == LAnd {
		return "and"
	}
	return "or"
}

// UnaryOp enumerates the prefix unary operators.
type UnaryOp int

const (
	Neg UnaryOp = iota
	Not
	BNot
	Addr
	Deref
)

func (op UnaryOp) String() string {
	names := [...]string{"-", "not", "~", "&", "*"}
	if int(op) < len(names) {
		return names[op]
	}
	return "?"
}

// IntLit is an integer literal.
type IntLit struct {
	Node
	Value int64
}

func (*IntLit) exprNode() {}
func (l *IntLit) String() string { return fmt.Sprintf("%d", l.Value) }

// FloatLit is a float literal.
type FloatLit struct {
	Node
	Value float64
}

func (*FloatLit) exprNode() {}
func (l *FloatLit) String() string { return fmt.Sprintf("%g", l.Value) }

// StringLit is a string literal; Value has already had escape sequences
// translated.
type StringLit struct {
	Node
	Value string
}

func (*StringLit) exprNode() {}
func (l *StringLit) String() string { return fmt.Sprintf("%q", l.Value) }

// BoolLit is `true` or `false`.
type BoolLit struct {
	Node
	Value bool
}

func (*BoolLit) exprNode() {}
func (l *BoolLit) String() string { return fmt.Sprintf("%v", l.Value) }

// Identifier is a read of a named variable, function, struct, or enum.
type Identifier struct {
	Node
	Name string
}

func (*Identifier) exprNode() {}
func (i *Identifier) String() string { return i.Name }

// Binary is `left op right`.
type Binary struct {
	Node
	Op    BinaryOp
	Left  Expr
	Right Expr
}

func (*Binary) exprNode() {}
func (b *Binary) String() string { return fmt.Sprintf("(%s %s %s)", b.Left, b.Op, b.Right) }

// Logical is `left and right` / `left or right`, evaluated with mandatory
// short-circuit semantics.
type Logical struct {
	Node
	Op    LogicalOp
	Left  Expr
	Right Expr
}

func (*Logical) exprNode() {}
func (l *Logical) String() string { return fmt.Sprintf("(%s %s %s)", l.Left, l.Op, l.Right) }

// Unary is `op right`.
type Unary struct {
	Node
	Op    UnaryOp
	Right Expr
}

func (*Unary) exprNode() {}
func (u *Unary) String() string { return fmt.Sprintf("(%s %s)", u.Op, u.Right) }

// Call is `callee(args)`. Callee is an Identifier (plain function) or a
// Member (`Module.name`, resolved by name-mangling at the IR level).
type Call struct {
	Node
	Callee Expr
	Args   []Expr
}

func (*Call) exprNode() {}
func (c *Call) String() string { return fmt.Sprintf("Call(%s, args=%d)", c.Callee, len(c.Args)) }

// Member is `left.name`.
type Member struct {
	Node
	X    Expr
	Name string
}

func (*Member) exprNode() {}
func (m *Member) String() string { return fmt.Sprintf("(%s.%s)", m.X, m.Name) }

// Index is `left[index]`.
type Index struct {
	Node
	X     Expr
	Index Expr
}

func (*Index) exprNode() {}
func (i *Index) String() string { return fmt.Sprintf("(%s[%s])", i.X, i.Index) }

// StructInitField is one `name = expr` entry in a struct initializer; field
// order in the literal is not significant — the analyzer and
// IR builder match by name.
type StructInitField struct {
	Name  string
	Value Expr
}

// StructInit is `Name { f1 = v1, f2 = v2, ... }`.
type StructInit struct {
	Node
	StructName string
	Fields     []StructInitField
}

func (*StructInit) exprNode() {}
func (s *StructInit) String() string { return fmt.Sprintf("StructInit(%s, fields=%d)", s.StructName, len(s.Fields)) }

// ArrayInit is `[e1, e2, ...]`.
type ArrayInit struct {
	Node
	Elements []Expr
}

func (*ArrayInit) exprNode() {}
func (a *ArrayInit) String() string { return fmt.Sprintf("ArrayInit(len=%d)", len(a.Elements)) }

// EnumVariant is `EnumName::VariantName`.
type EnumVariant struct {
	Node
	EnumName    string
	VariantName string
}

func (*EnumVariant) exprNode() {}
func (e *EnumVariant) String() string { return fmt.Sprintf("%s::%s", e.EnumName, e.VariantName) }
