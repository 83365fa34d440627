package eval

import "github.com/nullc/null/pkg/ast"

// execStmt runs one statement. Every branch re-checks stopped() before
// doing further work the way exec_stmt's loop guards do, since a nested
// call may have set hasReturn/hasBreak/hasContinue partway through.
func (in *Interp) execStmt(s ast.Stmt) {
	if in.stopped() {
		return
	}

	switch stmt := s.(type) {
	case *ast.Block:
		in.execBlock(stmt)
	case *ast.VarDecl:
		in.execVarDecl(stmt)
	case *ast.Return:
		in.execReturn(stmt)
	case *ast.Break:
		if in.loopDepth == 0 {
			in.errorAt(stmt, "'break' outside of loop")
			return
		}
		in.hasBreak = true
	case *ast.Continue:
		if in.loopDepth == 0 {
			in.errorAt(stmt, "'continue' outside of loop")
			return
		}
		in.hasContinue = true
	case *ast.If:
		in.execIf(stmt)
	case *ast.While:
		in.execWhile(stmt)
	case *ast.For:
		in.execFor(stmt)
	case *ast.ExprStmt:
		in.evalExpr(stmt.X)
	case *ast.Assign:
		in.evalExpr(stmt)
	}
}

func (in *Interp) execBlock(b *ast.Block) {
	prev := in.current
	in.current = newScope(prev)
	for _, s := range b.Stmts {
		if in.stopped() {
			break
		}
		in.execStmt(s)
	}
	in.current = prev
}

func (in *Interp) execVarDecl(v *ast.VarDecl) {
	val := VoidValue()
	if v.Init != nil {
		val = in.evalExpr(v.Init)
	}
	in.current.define(v.Name, val.clone(), v.IsMut)
}

func (in *Interp) execReturn(r *ast.Return) {
	if r.Value != nil {
		in.returnValue = in.evalExpr(r.Value)
	} else {
		in.returnValue = VoidValue()
	}
	in.hasReturn = true
}

func (in *Interp) execIf(s *ast.If) {
	cond := in.evalExpr(s.Cond)
	if cond.Kind == Bool && cond.BoolVal {
		in.execStmt(s.Then)
		return
	}
	for _, elif := range s.ElifClauses {
		if in.stopped() {
			return
		}
		c := in.evalExpr(elif.Cond)
		if c.Kind == Bool && c.BoolVal {
			in.execStmt(elif.Body)
			return
		}
	}
	if s.Else != nil {
		in.execStmt(s.Else)
	}
}

func (in *Interp) execWhile(w *ast.While) {
	in.loopDepth++
	for !in.stopped() {
		cond := in.evalExpr(w.Cond)
		if cond.Kind != Bool || !cond.BoolVal {
			break
		}
		in.execStmt(w.Body)
		in.hasContinue = false
	}
	in.hasBreak = false
	in.loopDepth--
}

// execFor binds VarName to a mutable iterator slot in its own scope and
// increments it by one each trip over the half-open `start..end` range,
// same as the original's iter->int_val++.
func (in *Interp) execFor(f *ast.For) {
	start := in.evalExpr(f.Start)
	end := in.evalExpr(f.End)
	if start.Kind != Int || end.Kind != Int {
		in.errorAt(f, "for loop bounds must be integers")
		return
	}

	prev := in.current
	in.current = newScope(prev)
	in.current.define(f.VarName, start, true)
	iter, _ := in.current.lookup(f.VarName)

	in.loopDepth++
	for iter.value.IntVal < end.IntVal && !in.stopped() {
		in.execStmt(f.Body)
		in.hasContinue = false
		iter.value.IntVal++
	}
	in.hasBreak = false
	in.loopDepth--

	in.current = prev
}
