package analyzer

import "github.com/nullc/null/pkg/types"

// SymbolKind discriminates what a Symbol names.
type SymbolKind int

const (
	SymVar SymbolKind = iota
	SymParam
	SymFunction
	SymStruct
	SymEnum
)

// Symbol is a named, typed entity visible in some Scope.
type Symbol struct {
	Name    string
	Kind    SymbolKind
	Type    *types.Type
	Mutable bool
}

// Scope is one lexical level of name resolution, chained to its parent.
// Every Scope created during analysis is retained for the lifetime of the
// Analyzer: popping a scope only moves the "current" cursor back to its
// parent, it never discards the Scope value itself. AST nodes decorated
// during analysis (and any Symbol they reference) stay valid for as long
// as the Analyzer is alive; freeing scopes at pop time would leave those
// references dangling the moment a sibling block is analyzed next.
type Scope struct {
	parent  *Scope
	symbols map[string]*Symbol
}

func newScope(parent *Scope) *Scope {
	return &Scope{parent: parent, symbols: make(map[string]*Symbol)}
}

// define installs sym in s, returning false if the name already exists in
// this exact scope (shadowing within a scope is forbidden).
func (s *Scope) define(sym *Symbol) bool {
	if _, exists := s.symbols[sym.Name]; exists {
		return false
	}
	s.symbols[sym.Name] = sym
	return true
}

// lookup searches s and its ancestors, innermost first.
func (s *Scope) lookup(name string) (*Symbol, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if sym, ok := sc.symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}
