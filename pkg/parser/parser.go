// Package parser implements a recursive-descent parser with explicit
// operator-precedence climbing.
package parser

import (
	"fmt"

	"github.com/nullc/null/pkg/ast"
	"github.com/nullc/null/pkg/diag"
	"github.com/nullc/null/pkg/lexer"
	"github.com/nullc/null/pkg/token"
	"github.com/nullc/null/pkg/types"
)

// initialListCap is the starting capacity for dynamically grown child
// lists (decl/stmt/param/arg slices). append already grows slices
// geometrically (amortized O(1)); the explicit starting capacity only
// spares the first few reallocations on short lists.
const initialListCap = 8

// Parser consumes a flat token slice and builds the AST. It tracks a
// normal/panic state machine: the first syntax error renders a full
// diagnostic, then further errors are suppressed until the parser
// resynchronizes at the next declaration boundary.
type Parser struct {
	toks []token.Token
	pos  int

	src   string
	lines *lexer.LineIndex

	diags     diag.List
	panicking bool
}

// New creates a Parser over toks, whose source text is src (used only for
// diagnostic rendering).
func New(toks []token.Token, src string) *Parser {
	return &Parser{toks: toks, src: src, lines: lexer.NewLineIndex(src)}
}

// Diagnostics returns every diagnostic recorded during Parse.
func (p *Parser) Diagnostics() *diag.List { return &p.diags }

// HadError reports whether any diagnostic was recorded. The driver checks
// this before proceeding to analysis/codegen.
func (p *Parser) HadError() bool { return p.diags.HasErrors() }

// ---------------------------------------------------------------- token ops

// skipLexErrors drops leading ERROR tokens at the current position,
// reporting each one (subject to the normal panic-mode suppression) so a
// lexer failure surfaces exactly like a syntax error: the parser "reports
// and skips" it rather than ever treating ERROR as an
// ordinary token kind.
func (p *Parser) skipLexErrors() {
	for p.pos < len(p.toks) && p.toks[p.pos].Kind == token.ERROR {
		p.errorAt(p.toks[p.pos], p.toks[p.pos].Lexeme)
		p.pos++
	}
}

func (p *Parser) peek() token.Token {
	p.skipLexErrors()
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekAt(offset int) token.Token {
	p.skipLexErrors()
	idx := p.pos + offset
	if idx >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[idx]
}

func (p *Parser) previous() token.Token {
	if p.pos == 0 {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos-1]
}

func (p *Parser) check(k token.Kind) bool { return p.peek().Kind == k }

func (p *Parser) advance() token.Token {
	t := p.peek()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *Parser) match(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.check(k) {
			p.advance()
			return true
		}
	}
	return false
}

func (p *Parser) expect(k token.Kind, context string) (token.Token, error) {
	if p.check(k) {
		return p.advance(), nil
	}
	t := p.peek()
	return t, fmt.Errorf("expected %s %s, got %s (%q)", k, context, t.Kind, t.Lexeme)
}

// skipNewlines consumes zero or more NEWLINE tokens, which separate
// declarations and statements but carry no grammatical weight themselves.
func (p *Parser) skipNewlines() {
	for p.check(token.NEWLINE) {
		p.advance()
	}
}

// -------------------------------------------------------------- diagnostics

// errorAt records a diagnostic for tok if the parser is not already in
// panic mode, then enters panic mode. Callers are responsible for calling
// synchronize afterward.
func (p *Parser) errorAt(tok token.Token, message string) {
	if p.panicking {
		return
	}
	p.panicking = true
	d := diag.Diagnostic{
		Line:    tok.Line,
		Column:  tok.Column,
		Lexeme:  tok.Lexeme,
		Message: message,
	}
	d.Hint = diag.Hint(message)
	p.diags.Add(d)
}

// declStart is the set of token kinds that begin a new top-level
// declaration — the resynchronization points panic mode looks for.
// Deliberately narrow: a statement-starting keyword like
// `if` or `ret` also occurs deep inside an already-malformed body, so
// resyncing on those would stop too early, inside the wreckage rather than
// past it.
var declStart = map[token.Kind]bool{
	token.FN: true, token.STRUCT: true, token.ENUM: true,
	token.DIR_USE: true, token.DIR_EXTERN: true,
}

// synchronize advances past tokens until it reaches a likely declaration
// boundary (a declStart token at the start of a line, or EOF), then leaves
// panic mode so later errors surface again.
func (p *Parser) synchronize() {
	for !p.check(token.EOF) {
		if declStart[p.peek().Kind] && (p.pos == 0 || p.previous().Kind == token.NEWLINE) {
			break
		}
		p.advance()
	}
	p.panicking = false
}

// ------------------------------------------------------------------- entry

// Parse consumes the whole token stream and returns the Program. Even when
// diagnostics were recorded, a structurally complete (if partly malformed)
// tree is always returned so the analyzer can still run.
func (p *Parser) Parse() *ast.Program {
	prog := &ast.Program{Decls: make([]ast.Decl, 0, initialListCap)}
	p.skipNewlines()
	for !p.check(token.EOF) {
		d := p.parseDecl()
		if d != nil {
			prog.Decls = append(prog.Decls, d)
		}
		p.skipNewlines()
	}
	return prog
}

func (p *Parser) parseDecl() ast.Decl {
	var d ast.Decl
	var err error
	switch p.peek().Kind {
	case token.DIR_USE:
		d, err = p.parseUse()
	case token.DIR_EXTERN:
		d, err = p.parseExtern()
	case token.FN:
		d, err = p.parseFn()
	case token.STRUCT:
		d, err = p.parseStruct()
	case token.ENUM:
		d, err = p.parseEnum()
	case token.LET, token.MUT, token.CONST:
		d, err = p.parseVarDecl()
	default:
		s, serr := p.parseStmt()
		if serr != nil {
			err = serr
		} else if s != nil {
			if decl, ok := s.(ast.Decl); ok {
				d = decl
			} else {
				d = &stmtDecl{s}
			}
		}
	}
	if err != nil {
		p.errorAt(p.peek(), err.Error())
		p.synchronize()
		return nil
	}
	return d
}

// stmtDecl wraps a bare Stmt so it can sit in Program.Decls, which is
// typed []Decl. Top-level expression statements are rare but legal (the
// grammar allows a statement as a top-level item).
type stmtDecl struct{ ast.Stmt }

func (s *stmtDecl) declNode() {}

// -------------------------------------------------------------- top level

func (p *Parser) parseUse() (ast.Decl, error) {
	start := p.advance() // DIR_USE
	pathTok, err := p.expect(token.STRING, "path after @use")
	if err != nil {
		return nil, err
	}
	alias := ""
	if p.check(token.AS) {
		p.advance()
		aliasTok, err := p.expect(token.IDENT, "alias after 'as'")
		if err != nil {
			return nil, err
		}
		alias = aliasTok.Lexeme
	}
	return &ast.Use{Node: ast.Node{Line: start.Line, Column: start.Column}, Path: pathTok.Lexeme, Alias: alias}, nil
}

func (p *Parser) parseExtern() (ast.Decl, error) {
	start := p.advance() // DIR_EXTERN
	abiTok, err := p.expect(token.STRING, "ABI string after @extern")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.DO, "to open @extern block"); err != nil {
		return nil, err
	}
	p.skipNewlines()
	ext := &ast.Extern{Node: ast.Node{Line: start.Line, Column: start.Column}, ABI: abiTok.Lexeme, Fns: make([]*ast.FnDecl, 0, initialListCap)}
	for !p.check(token.END) && !p.check(token.EOF) {
		if !p.check(token.FN) {
			return nil, fmt.Errorf("only 'fn' declarations are allowed inside @extern, got %s", p.peek().Kind)
		}
		fn, err := p.parseFn()
		if err != nil {
			return nil, err
		}
		fnDecl := fn.(*ast.FnDecl)
		fnDecl.IsExtern = true
		fnDecl.ExternABI = ext.ABI
		ext.Fns = append(ext.Fns, fnDecl)
		p.skipNewlines()
	}
	if _, err := p.expect(token.END, "to close @extern block"); err != nil {
		return nil, err
	}
	return ext, nil
}

func (p *Parser) parseFn() (ast.Decl, error) {
	start := p.advance() // FN
	nameTok, err := p.expect(token.IDENT, "function name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN, "to open parameter list"); err != nil {
		return nil, err
	}
	params := make([]*ast.Param, 0, initialListCap)
	for !p.check(token.RPAREN) {
		pNameTok, err := p.expect(token.IDENT, "parameter name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.COLONCOLON, "before parameter type"); err != nil {
			return nil, err
		}
		pType, err := p.parseType()
		if err != nil {
			return nil, err
		}
		params = append(params, &ast.Param{
			Node: ast.Node{Line: pNameTok.Line, Column: pNameTok.Column},
			Name: pNameTok.Lexeme,
			Type: pType,
		})
		if !p.match(token.COMMA) {
			break
		}
	}
	if _, err := p.expect(token.RPAREN, "to close parameter list"); err != nil {
		return nil, err
	}
	retType := types.VoidType
	if p.match(token.ARROW) {
		retType, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}
	isExternDecl := !p.check(token.DO)
	var body *ast.Block
	if !isExternDecl {
		b, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		body = b
	}
	return &ast.FnDecl{
		Node:    ast.Node{Line: start.Line, Column: start.Column},
		Name:    nameTok.Lexeme,
		Params:  params,
		RetType: retType,
		Body:    body,
	}, nil
}

func (p *Parser) parseStruct() (ast.Decl, error) {
	start := p.advance() // STRUCT
	nameTok, err := p.expect(token.IDENT, "struct name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.DO, "to open struct body"); err != nil {
		return nil, err
	}
	p.skipNewlines()
	fields := make([]ast.StructFieldDecl, 0, initialListCap)
	for !p.check(token.END) && !p.check(token.EOF) {
		fNameTok, err := p.expect(token.IDENT, "field name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.COLONCOLON, "before field type"); err != nil {
			return nil, err
		}
		fType, err := p.parseType()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.StructFieldDecl{Name: fNameTok.Lexeme, Type: fType})
		p.skipNewlines()
	}
	if _, err := p.expect(token.END, "to close struct body"); err != nil {
		return nil, err
	}
	return &ast.StructDecl{Node: ast.Node{Line: start.Line, Column: start.Column}, Name: nameTok.Lexeme, Fields: fields}, nil
}

func (p *Parser) parseEnum() (ast.Decl, error) {
	start := p.advance() // ENUM
	nameTok, err := p.expect(token.IDENT, "enum name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.DO, "to open enum body"); err != nil {
		return nil, err
	}
	p.skipNewlines()
	variants := make([]ast.EnumVariantDecl, 0, initialListCap)
	next := int64(0)
	for !p.check(token.END) && !p.check(token.EOF) {
		vNameTok, err := p.expect(token.IDENT, "variant name")
		if err != nil {
			return nil, err
		}
		val := next
		if p.match(token.ASSIGN) {
			litTok, err := p.expect(token.INT, "integer value for enum variant")
			if err != nil {
				return nil, err
			}
			val = litTok.IntValue
		}
		variants = append(variants, ast.EnumVariantDecl{Name: vNameTok.Lexeme, Value: val})
		next = val + 1
		p.skipNewlines()
	}
	if _, err := p.expect(token.END, "to close enum body"); err != nil {
		return nil, err
	}
	return &ast.EnumDecl{Node: ast.Node{Line: start.Line, Column: start.Column}, Name: nameTok.Lexeme, Variants: variants}, nil
}

func (p *Parser) parseVarDecl() (ast.Decl, error) {
	startTok := p.advance() // LET | MUT | CONST
	isMut := startTok.Kind == token.MUT
	isConst := startTok.Kind == token.CONST
	nameTok, err := p.expect(token.IDENT, "variable name")
	if err != nil {
		return nil, err
	}
	var declared *types.Type
	if p.match(token.COLONCOLON) {
		declared, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.ASSIGN, "to initialize the variable"); err != nil {
		return nil, err
	}
	init, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.VarDecl{
		Node:     ast.Node{Line: startTok.Line, Column: startTok.Column},
		Name:     nameTok.Lexeme,
		Declared: declared,
		Init:     init,
		IsMut:    isMut,
		IsConst:  isConst,
	}, nil
}

// --------------------------------------------------------------------- types

// parseType implements the type grammar: keyword
// primitives, ptr<T>, [T; N] (array, N >= 0 and fits int32), [T] (slice),
// and bare identifiers for nominal struct/enum references.
func (p *Parser) parseType() (*types.Type, error) {
	t := p.peek()
	switch t.Kind {
	case token.I8:
		p.advance()
		return types.I8Type, nil
	case token.I16:
		p.advance()
		return types.I16Type, nil
	case token.I32:
		p.advance()
		return types.I32Type, nil
	case token.I64:
		p.advance()
		return types.I64Type, nil
	case token.U8:
		p.advance()
		return types.U8Type, nil
	case token.U16:
		p.advance()
		return types.U16Type, nil
	case token.U32:
		p.advance()
		return types.U32Type, nil
	case token.U64:
		p.advance()
		return types.U64Type, nil
	case token.F32:
		p.advance()
		return types.F32Type, nil
	case token.F64:
		p.advance()
		return types.F64Type, nil
	case token.BOOL:
		p.advance()
		return types.BoolType, nil
	case token.VOID:
		p.advance()
		return types.VoidType, nil
	case token.PTR:
		p.advance()
		if _, err := p.expect(token.LT, "to open ptr<T>"); err != nil {
			return nil, err
		}
		inner, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.GT, "to close ptr<T>"); err != nil {
			return nil, err
		}
		return types.NewPtr(inner), nil
	case token.LBRACKET:
		p.advance()
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if p.match(token.SEMI) {
			sizeTok, err := p.expect(token.INT, "array size")
			if err != nil {
				return nil, err
			}
			// INT32_MAX itself is rejected, not just anything past it.
			if sizeTok.IntValue < 0 || sizeTok.IntValue >= int64(^uint32(0)>>1) {
				return nil, fmt.Errorf("array size %d is out of range for a 32-bit signed int", sizeTok.IntValue)
			}
			if _, err := p.expect(token.RBRACKET, "to close array type"); err != nil {
				return nil, err
			}
			return types.NewArray(elem, int(sizeTok.IntValue)), nil
		}
		if _, err := p.expect(token.RBRACKET, "to close slice type"); err != nil {
			return nil, err
		}
		return types.NewSlice(elem), nil
	case token.IDENT:
		p.advance()
		// Nominal reference; resolved to the declared struct/enum type by
		// the analyzer. Parsed as a Struct-shaped placeholder carrying just
		// the name — the analyzer replaces Fields/Variants on lookup.
		return &types.Type{Kind: types.Struct, Name: t.Lexeme}, nil
	default:
		return nil, fmt.Errorf("expected a type, got %s (%q)", t.Kind, t.Lexeme)
	}
}

// -------------------------------------------------------------------- blocks

func (p *Parser) parseBlock() (*ast.Block, error) {
	startTok, err := p.expect(token.DO, "to open block")
	if err != nil {
		return nil, err
	}
	p.skipNewlines()
	b := &ast.Block{Node: ast.Node{Line: startTok.Line, Column: startTok.Column}, Stmts: make([]ast.Stmt, 0, initialListCap)}
	for !p.check(token.END) && !p.check(token.EOF) {
		s, err := p.parseStmt()
		if err != nil {
			p.errorAt(p.peek(), err.Error())
			p.synchronize()
			if declStart[p.peek().Kind] {
				// Resynchronization jumped out past this block entirely;
				// return the partial block without also complaining about
				// the missing `end` it will now never find.
				return b, nil
			}
			continue
		}
		if s != nil {
			b.Stmts = append(b.Stmts, s)
		}
		p.skipNewlines()
	}
	if _, err := p.expect(token.END, "to close block"); err != nil {
		return nil, err
	}
	return b, nil
}

// --------------------------------------------------------------- statements

func (p *Parser) parseStmt() (ast.Stmt, error) {
	switch p.peek().Kind {
	case token.LET, token.MUT, token.CONST:
		return p.parseVarDecl()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.FOR:
		return p.parseFor()
	case token.RET:
		return p.parseReturn()
	case token.BREAK:
		t := p.advance()
		return &ast.Break{Node: ast.Node{Line: t.Line, Column: t.Column}}, nil
	case token.CONTINUE:
		t := p.advance()
		return &ast.Continue{Node: ast.Node{Line: t.Line, Column: t.Column}}, nil
	case token.DO:
		return p.parseBlock()
	default:
		return p.parseExprOrAssignStmt()
	}
}

func (p *Parser) parseIf() (ast.Stmt, error) {
	start := p.advance() // IF
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseIfBody()
	if err != nil {
		return nil, err
	}
	node := &ast.If{Node: ast.Node{Line: start.Line, Column: start.Column}, Cond: cond, Then: then}
	for p.check(token.ELIF) {
		p.advance()
		elifCond, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		elifBody, err := p.parseIfBody()
		if err != nil {
			return nil, err
		}
		node.ElifClauses = append(node.ElifClauses, ast.ElifClause{Cond: elifCond, Body: elifBody})
	}
	if p.check(token.ELSE) {
		p.advance()
		elseBody, err := p.parseIfBody()
		if err != nil {
			return nil, err
		}
		node.Else = elseBody
	}
	// The last opened body already consumed its own closing keyword
	// (end/elif/else); nothing further to match here.
	return node, nil
}

// parseIfBody parses the body of an if, elif or else arm: a block that
// closes at END, ELIF, or ELSE rather than only END. if and elif bodies
// open with `do`; after `else` the `do` is optional.
func (p *Parser) parseIfBody() (*ast.Block, error) {
	startTok := p.previous()
	if startTok.Kind != token.ELSE || p.check(token.DO) {
		doTok, err := p.expect(token.DO, "to open if/elif/else body")
		if err != nil {
			return nil, err
		}
		startTok = doTok
	}
	p.skipNewlines()
	b := &ast.Block{Node: ast.Node{Line: startTok.Line, Column: startTok.Column}, Stmts: make([]ast.Stmt, 0, initialListCap)}
	for !p.check(token.END) && !p.check(token.ELIF) && !p.check(token.ELSE) && !p.check(token.EOF) {
		s, err := p.parseStmt()
		if err != nil {
			p.errorAt(p.peek(), err.Error())
			p.synchronize()
			if declStart[p.peek().Kind] {
				return b, nil
			}
			continue
		}
		if s != nil {
			b.Stmts = append(b.Stmts, s)
		}
		p.skipNewlines()
	}
	switch p.peek().Kind {
	case token.ELIF, token.ELSE:
		// Leave for the caller to consume; this body's scope ends here.
	default:
		if _, err := p.expect(token.END, "to close if"); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (p *Parser) parseWhile() (ast.Stmt, error) {
	start := p.advance() // WHILE
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.While{Node: ast.Node{Line: start.Line, Column: start.Column}, Cond: cond, Body: body}, nil
}

func (p *Parser) parseFor() (ast.Stmt, error) {
	start := p.advance() // FOR
	nameTok, err := p.expect(token.IDENT, "loop variable name")
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.IN, "after for loop variable"); err != nil {
		return nil, err
	}
	from, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.DOTDOT, "between for-range bounds"); err != nil {
		return nil, err
	}
	to, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.For{Node: ast.Node{Line: start.Line, Column: start.Column}, VarName: nameTok.Lexeme, Start: from, End: to, Body: body}, nil
}

func (p *Parser) parseReturn() (ast.Stmt, error) {
	start := p.advance() // RET
	if p.check(token.NEWLINE) || p.check(token.END) || p.check(token.EOF) || p.check(token.ELIF) || p.check(token.ELSE) {
		return &ast.Return{Node: ast.Node{Line: start.Line, Column: start.Column}}, nil
	}
	val, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.Return{Node: ast.Node{Line: start.Line, Column: start.Column}, Value: val}, nil
}

// parseExprOrAssignStmt parses an expression statement, resolving the
// ambiguity with assignment by parsing the left side as an expression
// first and checking for a following `=` — mirroring how level-1
// assignment sits at the bottom of the precedence-climbing chain.
func (p *Parser) parseExprOrAssignStmt() (ast.Stmt, error) {
	start := p.peek()
	expr, err := p.parseAssignOrExpr()
	if err != nil {
		return nil, err
	}
	if assign, ok := expr.(*ast.Assign); ok {
		return assign, nil
	}
	return &ast.ExprStmt{Node: ast.Node{Line: start.Line, Column: start.Column}, X: expr}, nil
}

// ------------------------------------------------------------- expressions

// parseExpr is the public expression entry point (used by callers that
// are not statement-level, e.g. call arguments, array elements).
func (p *Parser) parseExpr() (ast.Expr, error) { return p.parseAssignOrExpr() }

// parseAssignOrExpr implements precedence level 1: `=` is right-
// associative and binds loosest.
func (p *Parser) parseAssignOrExpr() (ast.Expr, error) {
	left, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.check(token.ASSIGN) {
		eq := p.advance()
		right, err := p.parseAssignOrExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Assign{Node: ast.Node{Line: eq.Line, Column: eq.Column}, Target: left, Value: right}, nil
	}
	return left, nil
}

func (p *Parser) parseOr() (ast.Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.check(token.OR) {
		op := p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.Logical{Node: ast.Node{Line: op.Line, Column: op.Column}, Op: ast.LOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expr, error) {
	left, err := p.parseEquality()
	if err != nil {
		return nil, err
	}
	for p.check(token.AND) {
		op := p.advance()
		right, err := p.parseEquality()
		if err != nil {
			return nil, err
		}
		left = &ast.Logical{Node: ast.Node{Line: op.Line, Column: op.Column}, Op: ast.LAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.check(token.EQ) || p.check(token.NE) {
		op := p.advance()
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		bop := ast.Eq
		if op.Kind == token.NE {
			bop = ast.Ne
		}
		left = &ast.Binary{Node: ast.Node{Line: op.Line, Column: op.Column}, Op: bop, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseRelational() (ast.Expr, error) {
	left, err := p.parseBitOr()
	if err != nil {
		return nil, err
	}
	for p.check(token.LT) || p.check(token.LE) || p.check(token.GT) || p.check(token.GE) {
		op := p.advance()
		right, err := p.parseBitOr()
		if err != nil {
			return nil, err
		}
		var bop ast.BinaryOp
		switch op.Kind {
		case token.LT:
			bop = ast.Lt
		case token.LE:
			bop = ast.Le
		case token.GT:
			bop = ast.Gt
		default:
			bop = ast.Ge
		}
		left = &ast.Binary{Node: ast.Node{Line: op.Line, Column: op.Column}, Op: bop, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseBitOr() (ast.Expr, error) {
	left, err := p.parseBitXor()
	if err != nil {
		return nil, err
	}
	for p.check(token.PIPE) {
		op := p.advance()
		right, err := p.parseBitXor()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Node: ast.Node{Line: op.Line, Column: op.Column}, Op: ast.BOr, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseBitXor() (ast.Expr, error) {
	left, err := p.parseBitAnd()
	if err != nil {
		return nil, err
	}
	for p.check(token.CARET) {
		op := p.advance()
		right, err := p.parseBitAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Node: ast.Node{Line: op.Line, Column: op.Column}, Op: ast.BXor, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseBitAnd() (ast.Expr, error) {
	left, err := p.parseShift()
	if err != nil {
		return nil, err
	}
	for p.check(token.AMP) {
		op := p.advance()
		right, err := p.parseShift()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Node: ast.Node{Line: op.Line, Column: op.Column}, Op: ast.BAnd, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseShift() (ast.Expr, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.check(token.SHL) || p.check(token.SHR) {
		op := p.advance()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		bop := ast.Shl
		if op.Kind == token.SHR {
			bop = ast.Shr
		}
		left = &ast.Binary{Node: ast.Node{Line: op.Line, Column: op.Column}, Op: bop, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.check(token.PLUS) || p.check(token.MINUS) {
		op := p.advance()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		bop := ast.Add
		if op.Kind == token.MINUS {
			bop = ast.Sub
		}
		left = &ast.Binary{Node: ast.Node{Line: op.Line, Column: op.Column}, Op: bop, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.check(token.STAR) || p.check(token.SLASH) || p.check(token.PERCENT) {
		op := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		var bop ast.BinaryOp
		switch op.Kind {
		case token.STAR:
			bop = ast.Mul
		case token.SLASH:
			bop = ast.Div
		default:
			bop = ast.Mod
		}
		left = &ast.Binary{Node: ast.Node{Line: op.Line, Column: op.Column}, Op: bop, Left: left, Right: right}
	}
	return left, nil
}

// parseUnary implements level 12: unary `-`, `not`, `~`, `&` (address-of),
// `*` (deref), right-associative.
func (p *Parser) parseUnary() (ast.Expr, error) {
	switch p.peek().Kind {
	case token.MINUS, token.NOT, token.TILDE, token.AMP, token.STAR:
		op := p.advance()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		var uop ast.UnaryOp
		switch op.Kind {
		case token.MINUS:
			uop = ast.Neg
		case token.NOT:
			uop = ast.Not
		case token.TILDE:
			uop = ast.BNot
		case token.AMP:
			uop = ast.Addr
		default:
			uop = ast.Deref
		}
		return &ast.Unary{Node: ast.Node{Line: op.Line, Column: op.Column}, Op: uop, Right: right}, nil
	default:
		return p.parsePostfix()
	}
}

// parsePostfix implements level 13: call, member, index, and the pipe
// operator, all left-associative. `x |> f` desugars to `f(x)`, inserting
// x as the first argument.
func (p *Parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch p.peek().Kind {
		case token.LPAREN:
			lp := p.advance()
			args, err := p.parseArgList()
			if err != nil {
				return nil, err
			}
			expr = &ast.Call{Node: ast.Node{Line: lp.Line, Column: lp.Column}, Callee: expr, Args: args}
		case token.DOT:
			dot := p.advance()
			nameTok, err := p.expect(token.IDENT, "member name after '.'")
			if err != nil {
				return nil, err
			}
			expr = &ast.Member{Node: ast.Node{Line: dot.Line, Column: dot.Column}, X: expr, Name: nameTok.Lexeme}
		case token.LBRACKET:
			lb := p.advance()
			idx, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if _, err := p.expect(token.RBRACKET, "to close index expression"); err != nil {
				return nil, err
			}
			expr = &ast.Index{Node: ast.Node{Line: lb.Line, Column: lb.Column}, X: expr, Index: idx}
		case token.PIPEGT:
			pg := p.advance()
			callee, err := p.parsePostfix()
			if err != nil {
				return nil, err
			}
			call, ok := callee.(*ast.Call)
			if !ok {
				// Bare function after |>: x becomes its only argument.
				expr = &ast.Call{Node: ast.Node{Line: pg.Line, Column: pg.Column}, Callee: callee, Args: []ast.Expr{expr}}
				continue
			}
			args := append([]ast.Expr{expr}, call.Args...)
			expr = &ast.Call{Node: ast.Node{Line: pg.Line, Column: pg.Column}, Callee: call.Callee, Args: args}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parseArgList() ([]ast.Expr, error) {
	args := make([]ast.Expr, 0, initialListCap)
	for !p.check(token.RPAREN) {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if !p.match(token.COMMA) {
			break
		}
	}
	if _, err := p.expect(token.RPAREN, "to close argument list"); err != nil {
		return nil, err
	}
	return args, nil
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	t := p.peek()
	switch t.Kind {
	case token.INT:
		p.advance()
		return &ast.IntLit{Node: ast.Node{Line: t.Line, Column: t.Column}, Value: t.IntValue}, nil
	case token.FLOAT:
		p.advance()
		return &ast.FloatLit{Node: ast.Node{Line: t.Line, Column: t.Column}, Value: t.FloatValue}, nil
	case token.STRING:
		p.advance()
		return &ast.StringLit{Node: ast.Node{Line: t.Line, Column: t.Column}, Value: t.Lexeme}, nil
	case token.TRUE:
		p.advance()
		return &ast.BoolLit{Node: ast.Node{Line: t.Line, Column: t.Column}, Value: true}, nil
	case token.FALSE:
		p.advance()
		return &ast.BoolLit{Node: ast.Node{Line: t.Line, Column: t.Column}, Value: false}, nil
	case token.LPAREN:
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN, "to close parenthesized expression"); err != nil {
			return nil, err
		}
		return expr, nil
	case token.LBRACKET:
		lb := p.advance()
		elems := make([]ast.Expr, 0, initialListCap)
		for !p.check(token.RBRACKET) {
			el, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			elems = append(elems, el)
			if !p.match(token.COMMA) {
				break
			}
		}
		if _, err := p.expect(token.RBRACKET, "to close array literal"); err != nil {
			return nil, err
		}
		return &ast.ArrayInit{Node: ast.Node{Line: lb.Line, Column: lb.Column}, Elements: elems}, nil
	case token.IDENT:
		p.advance()
		if p.check(token.COLONCOLON) {
			p.advance()
			variantTok, err := p.expect(token.IDENT, "variant name after '::'")
			if err != nil {
				return nil, err
			}
			return &ast.EnumVariant{Node: ast.Node{Line: t.Line, Column: t.Column}, EnumName: t.Lexeme, VariantName: variantTok.Lexeme}, nil
		}
		if p.check(token.LBRACE) {
			return p.parseStructInit(t)
		}
		return &ast.Identifier{Node: ast.Node{Line: t.Line, Column: t.Column}, Name: t.Lexeme}, nil
	default:
		return nil, fmt.Errorf("unexpected token %s (%q) in expression", t.Kind, t.Lexeme)
	}
}

// parseStructInit parses `Name { f1 = v1, f2 = v2, ... }`. Field order in
// the literal carries no meaning; the analyzer/IR builder match by name.
func (p *Parser) parseStructInit(nameTok token.Token) (ast.Expr, error) {
	p.advance() // LBRACE
	p.skipNewlines()
	fields := make([]ast.StructInitField, 0, initialListCap)
	for !p.check(token.RBRACE) {
		fNameTok, err := p.expect(token.IDENT, "field name in struct initializer")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.ASSIGN, "before field value"); err != nil {
			return nil, err
		}
		val, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.StructInitField{Name: fNameTok.Lexeme, Value: val})
		p.skipNewlines()
		if !p.match(token.COMMA) {
			break
		}
		p.skipNewlines()
	}
	p.skipNewlines()
	if _, err := p.expect(token.RBRACE, "to close struct initializer"); err != nil {
		return nil, err
	}
	return &ast.StructInit{Node: ast.Node{Line: nameTok.Line, Column: nameTok.Column}, StructName: nameTok.Lexeme, Fields: fields}, nil
}
