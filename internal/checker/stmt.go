package checker

import (
	"fmt"

	"github.com/sunholo/tscore/internal/ast"
	"github.com/sunholo/tscore/internal/diagnostic"
	"github.com/sunholo/tscore/internal/query"
	"github.com/sunholo/tscore/internal/types"
)

// checkStmt dispatches on a statement's Kind and returns the Env visible
// to whatever statement follows it in the same block — most statements
// pass env through unchanged; VariableDeclaration mutates it in place
// (Bind) and an IfStatement replaces narrowed bindings with a join of
// its branches.
func (c *Checker) checkStmt(s ast.Stmt, env Env) Env {
	if s == nil {
		return env
	}
	switch n := s.(type) {
	case *ast.Block:
		return c.checkBlock(n, env)
	case *ast.IfStatement:
		return c.checkIfStatement(n, env)
	case *ast.WhileStatement:
		return c.checkWhileStatement(n, env)
	case *ast.SwitchStatement:
		return c.checkSwitchStatement(n, env)
	case *ast.ForOfStatement:
		return c.checkForOfStatement(n, env)
	case *ast.ReturnStatement:
		return c.checkReturnStatement(n, env)
	case *ast.ExpressionStatement:
		c.inferExpr(n.Expr, env)
		return env
	case *ast.VariableDeclaration:
		return c.checkVariableDeclaration(n, env)
	default:
		return env
	}
}

// checkBlock threads env through its statements in order; block-local
// declarations never escape to the caller — the env returned to the
// caller is the one handed in, not the block's internal running copy
// (ordinary lexical block scoping).
func (c *Checker) checkBlock(b *ast.Block, env Env) Env {
	inner := env.Clone()
	for _, s := range b.Statements {
		inner = c.checkStmt(s, inner)
	}
	return env
}

// narrowFromFlow clones env and applies every antecedent guard recorded
// at the flow point immediately after node: a guard narrows
// one name along one flow edge without mutating sibling edges.
func (c *Checker) narrowFromFlow(node ast.Node, env Env) Env {
	branch := env.Clone()
	if c.binderState == nil {
		return branch
	}
	fn, ok := c.binderState.FlowAt(node)
	if !ok {
		return branch
	}
	for _, edge := range fn.Antecedents {
		if edge.Guard == nil {
			continue
		}
		name, ok := subjectName(edge.Guard.Subject)
		if !ok {
			continue
		}
		cur, ok := branch.Lookup(name)
		if !ok {
			continue
		}
		branch.Bind(name, c.narrower.Apply(cur, edge.Guard))
	}
	return branch
}

func subjectName(e ast.Expr) (string, bool) {
	switch n := e.(type) {
	case *ast.Identifier:
		return n.Name, true
	case *ast.PropertyAccess:
		// the discriminant guard narrows the whole object by its
		// property, but this checker only tracks narrowing per plain
		// identifier binding.
		return subjectName(n.Expr)
	default:
		return "", false
	}
}

func (c *Checker) checkIfStatement(n *ast.IfStatement, env Env) Env {
	c.inferExpr(n.Cond, env)

	thenEnv := c.narrowFromFlow(n.Then, env)
	thenEnv = c.checkStmt(n.Then.(ast.Stmt), thenEnv)

	var elseEnv Env
	if n.Else != nil {
		elseEnv = c.narrowFromFlow(n.Else, env)
		elseEnv = c.checkStmt(n.Else.(ast.Stmt), elseEnv)
	} else {
		elseEnv = env.Clone()
	}

	for name, original := range env {
		tv, tok := thenEnv.Lookup(name)
		ev, eok := elseEnv.Lookup(name)
		switch {
		case tok && eok:
			env.Bind(name, c.narrower.Join(tv, ev))
		case tok:
			env.Bind(name, c.narrower.Join(tv, original))
		case eok:
			env.Bind(name, c.narrower.Join(ev, original))
		}
	}
	return env
}

func (c *Checker) checkWhileStatement(n *ast.WhileStatement, env Env) Env {
	c.inferExpr(n.Cond, env)
	bodyEnv := c.narrowFromFlow(n.Body, env)
	c.checkStmt(n.Body.(ast.Stmt), bodyEnv)
	return env
}

func (c *Checker) checkSwitchStatement(n *ast.SwitchStatement, env Env) Env {
	c.inferExpr(n.Discriminant, env)
	for _, cs := range n.Cases {
		caseEnv := env.Clone()
		if cs.Test != nil {
			c.inferExpr(*cs.Test, caseEnv)
		}
		for _, s := range cs.Body {
			caseEnv = c.checkStmt(s, caseEnv)
		}
	}
	return env
}

// checkForOfStatement resolves the iterated expression through the
// iterable classifier (the checker never inspects type structure
// itself) and binds the loop target to the element type. The `for await`
// form demands the async-iteration protocol (TS2504); the plain form
// rejects both non-iterables and async-only iterables (TS2488).
func (c *Checker) checkForOfStatement(n *ast.ForOfStatement, env Env) Env {
	iterType := c.inferExpr(n.Iterable, env)
	elem := c.interner.AnyID
	if iterType != c.interner.ErrorID {
		cls := c.db.ClassifyIterable(iterType)
		var bad bool
		var code diagnostic.Code
		if n.Await {
			bad = cls.Kind == query.IterableNot
			code = diagnostic.TS2504
		} else {
			bad = cls.Kind == query.IterableNot || cls.Kind == query.IterableAsyncIterable
			code = diagnostic.TS2488
		}
		if bad {
			c.gateway.Emit(diagnostic.Diagnostic{
				Code:     code,
				Severity: diagnostic.DefaultSeverity(code),
				Message:  fmt.Sprintf(diagnostic.Template(code), c.interner.String(iterType)),
				Span:     n.Iterable.Span(),
				Source:   iterType,
			})
			elem = c.interner.ErrorID
		} else if cls.ElementType.Valid() {
			elem = cls.ElementType
		}
	}
	bodyEnv := env.Clone()
	c.bindTarget(n.Target, elem, bodyEnv, n.Span())
	if n.Body != nil {
		c.checkStmt(n.Body.(ast.Stmt), bodyEnv)
	}
	return env
}

func (c *Checker) checkReturnStatement(n *ast.ReturnStatement, env Env) Env {
	returnType := c.interner.VoidID
	if n.Expr != nil {
		returnType = c.inferExpr(n.Expr, env)
	}
	if c.expectedReturn != nil {
		c.gateway.CheckAssignable(returnType, *c.expectedReturn, n.Span(), diagnostic.OriginReturn)
	}
	return env
}

func (c *Checker) checkVariableDeclaration(n *ast.VariableDeclaration, env Env) Env {
	var declared = c.interner.AnyID
	hasDeclared := n.TypeAnn != nil
	if hasDeclared {
		declared = c.ResolveTypeAnn(n.TypeAnn, tparamScope{})
	}

	finalType := declared
	if n.Init == nil && hasDeclared && !n.Declare && n.VarKind != ast.VarConst {
		if nb, ok := n.Target.(ast.NameBinding); ok {
			c.unassigned[nb.Name] = true
		}
	}
	if n.Init != nil {
		if nb, ok := n.Target.(ast.NameBinding); ok {
			delete(c.unassigned, nb.Name)
		}
		initType := c.inferExpr(n.Init, env)
		if hasDeclared {
			ok, _ := c.gateway.CheckAssignable(initType, declared, n.Span(), diagnostic.OriginAssignment)
			if ok {
				c.checkExcessProperties(n.Init, declared, n.Span())
			}
		} else {
			finalType = c.narrower.Widen(initType, n.VarKind == ast.VarConst)
		}
	}

	c.bindTarget(n.Target, finalType, env, n.Span())
	return env
}

// checkExcessProperties runs the excess-property check: only when
// init is syntactically a fresh object literal, after assignability has
// already succeeded.
func (c *Checker) checkExcessProperties(init ast.Expr, target types.TypeId, anchor ast.Span) {
	lit, ok := init.(*ast.ObjectLiteral)
	if !ok || !ast.IsFreshObjectLiteral(init) {
		return
	}
	shape, ok := c.shapeOf(target)
	if !ok {
		return
	}
	allowed := make(map[string]bool, len(shape.Properties))
	for _, p := range shape.Properties {
		allowed[p.Name] = true
	}
	names := make([]string, len(lit.Properties))
	for i, p := range lit.Properties {
		names[i] = p.Name
	}
	hasIndexer := shape.StringIndexer.Valid()
	c.gateway.CheckExcessProperties(names, target, anchor, allowed, hasIndexer)
}

func (c *Checker) bindTarget(target ast.BindingTarget, t types.TypeId, env Env, anchor ast.Span) {
	switch bt := target.(type) {
	case ast.NameBinding:
		if existing, ok := env.Lookup(bt.Name); ok {
			c.gateway.CheckRedeclaration(existing, t, anchor)
		}
		env.Bind(bt.Name, t)
	case ast.ObjectBindingPattern:
		for _, p := range bt.Properties {
			propType, ok := c.db.GetPropertyType(t, p.Key)
			if !ok {
				propType = c.interner.AnyID
			}
			c.bindTarget(p.Target, propType, env, anchor)
		}
	case ast.ArrayBindingPattern:
		elemType := c.arrayElementType(t)
		for _, el := range bt.Elements {
			c.bindTarget(el, elemType, env, anchor)
		}
	}
}
