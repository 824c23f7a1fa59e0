package checker

import (
	"fmt"

	"github.com/sunholo/tscore/internal/ast"
	"github.com/sunholo/tscore/internal/binder"
	"github.com/sunholo/tscore/internal/defstore"
	"github.com/sunholo/tscore/internal/diagnostic"
	"github.com/sunholo/tscore/internal/query"
	"github.com/sunholo/tscore/internal/types"
)

// inferExpr computes e's type bottom-up, consulting Env for
// identifiers and the gateway for every compatibility question, and
// records the result against e in c.annotations — the single point
// every expression's resolved TypeId passes through on its way out, so
// the per-node annotation record stays exhaustive without every call
// site of inferExpr remembering to annotate separately.
func (c *Checker) inferExpr(e ast.Expr, env Env) types.TypeId {
	in := c.interner
	if e == nil {
		return in.AnyID
	}
	t := c.inferExprKind(e, env)
	c.annotations.RecordType(e, t)
	return t
}

func (c *Checker) inferExprKind(e ast.Expr, env Env) types.TypeId {
	in := c.interner
	switch n := e.(type) {
	case *ast.Identifier:
		return c.inferIdentifier(n, env)
	case *ast.NumericLiteral:
		return in.LiteralNumber(n.Value)
	case *ast.StringLiteral:
		return in.LiteralString(n.Value)
	case *ast.BooleanLiteral:
		return in.LiteralBoolean(n.Value)
	case *ast.NullLiteral:
		return in.NullID
	case *ast.UndefinedLiteral:
		return in.UndefinedID
	case *ast.ObjectLiteral:
		return c.inferObjectLiteral(n, env)
	case *ast.ArrayLiteral:
		return c.inferArrayLiteral(n, env)
	case *ast.Parenthesized:
		return c.inferExpr(n.Expr, env)
	case *ast.BinaryExpr:
		return c.inferBinaryExpr(n, env)
	case *ast.CallExpr:
		return c.inferCallExpr(n, env)
	case *ast.NewExpr:
		return c.inferNewExpr(n, env)
	case *ast.PropertyAccess:
		return c.inferPropertyAccess(n, env)
	case *ast.ElementAccess:
		return c.inferElementAccess(n, env)
	case *ast.ConditionalExpr:
		return c.inferConditionalExpr(n, env)
	case *ast.FunctionExpr:
		return c.inferFunctionExpr(n, env)
	case *ast.AsExpr:
		return c.inferAsExpr(n, env)
	case *ast.SatisfiesExpr:
		return c.inferSatisfiesExpr(n, env)
	case *ast.SpreadElement:
		return c.inferExpr(n.Expr, env)
	case *ast.TypeofExpr:
		if t, ok := env.Lookup(n.Name); ok {
			return t
		}
		return in.AnyID
	default:
		return in.AnyID
	}
}

func (c *Checker) inferIdentifier(n *ast.Identifier, env Env) types.TypeId {
	if t, ok := env.Lookup(n.Name); ok {
		if c.unassigned[n.Name] && c.opts.StrictNullChecks {
			c.gateway.Emit(diagnostic.Diagnostic{
				Code:     diagnostic.TS2454,
				Severity: diagnostic.DefaultSeverity(diagnostic.TS2454),
				Message:  fmt.Sprintf(diagnostic.Template(diagnostic.TS2454), n.Name),
				Span:     n.Span(),
			})
		}
		// env already carries the flow-narrowed type at this point
		// (narrowFromFlow hands checkStmt a branch-local Env), so
		// recording it here alongside the resolved-type annotation is
		// exactly the narrowed-type-at-use-site annotation — nothing
		// further needs to compare against the symbol's declared type to
		// decide whether narrowing happened.
		c.annotations.RecordNarrowed(n, t)
		return t
	}
	// Block-scoped names and classes are visible from the whole file
	// (the DefId pre-pass binds classes eagerly), so a use that lexically
	// precedes the declaration resolves — it must be caught by span
	// instead. Uses inside function bodies are exempt: the body runs
	// after the surrounding scope finishes initializing.
	if c.expectedReturn == nil {
		if site, early := c.usedBeforeDeclaration(n.Name, n.Span()); early {
			c.gateway.Emit(diagnostic.Diagnostic{
				Code:     site.code,
				Severity: diagnostic.DefaultSeverity(site.code),
				Message:  fmt.Sprintf(diagnostic.Template(site.code), n.Name),
				Span:     n.Span(),
			})
			return c.interner.ErrorID
		}
	}
	if def, ok := c.defs.Lookup(n.Name); ok {
		switch c.defs.Kind(def) {
		case defstore.DeclInterface, defstore.DeclTypeAlias:
			c.gateway.Emit(diagnostic.Diagnostic{
				Code:     diagnostic.TS2693,
				Severity: diagnostic.DefaultSeverity(diagnostic.TS2693),
				Message:  fmt.Sprintf(diagnostic.Template(diagnostic.TS2693), n.Name),
				Span:     n.Span(),
			})
			return c.interner.ErrorID
		}
		return c.interner.Lazy(def)
	}
	if c.currentScope != nil {
		if _, ok := c.currentScope.Resolve(n.Name); ok {
			return c.interner.AnyID
		}
	}
	c.reportUnresolvedName(n.Name, n.Span())
	return c.interner.ErrorID
}

func (c *Checker) inferObjectLiteral(n *ast.ObjectLiteral, env Env) types.TypeId {
	shape := types.ObjectShape{}
	for _, p := range n.Properties {
		shape.Properties = append(shape.Properties, types.PropertyDef{
			Name: p.Name,
			Type: c.inferExpr(p.Value, env),
		})
	}
	return c.interner.Object(shape)
}

func (c *Checker) inferArrayLiteral(n *ast.ArrayLiteral, env Env) types.TypeId {
	if len(n.Elements) == 0 {
		return c.interner.Array(c.interner.NeverID)
	}
	elemTypes := make([]types.TypeId, len(n.Elements))
	for i, el := range n.Elements {
		elemTypes[i] = c.inferExpr(el, env)
	}
	return c.interner.Array(c.interner.Union(elemTypes...))
}

// inferBinaryExpr covers the operator families the narrowing guards
// also inspect; the checker's own job here is the
// resulting value type plus operand validity for the arithmetic
// operators, not guard extraction (the binder's).
func (c *Checker) inferBinaryExpr(n *ast.BinaryExpr, env Env) types.TypeId {
	in := c.interner
	left := c.inferExpr(n.Left, env)
	right := c.inferExpr(n.Right, env)
	switch n.Op {
	case "===", "!==", "==", "!=", "<", ">", "<=", ">=", "instanceof", "in":
		return in.BooleanID
	case "&&":
		return in.UnionPreserveLiterals(left, right)
	case "||", "??":
		return in.UnionPreserveLiterals(left, right)
	case "+":
		// `+` doubles as string concatenation, so it carries none of the
		// arithmetic operand restrictions below.
		if c.db.ClassifyPrimitive(left) == query.PrimString || c.db.ClassifyPrimitive(right) == query.PrimString {
			return in.StringID
		}
		return in.NumberID
	case "-", "*", "/", "%", "**", "&", "|", "^", "<<", ">>", ">>>":
		c.checkArithmeticOperand(left, n.Left.Span(), diagnostic.TS2362)
		c.checkArithmeticOperand(right, n.Right.Span(), diagnostic.TS2363)
		if c.db.ClassifyPrimitive(left) == query.PrimBigInt && c.db.ClassifyPrimitive(right) == query.PrimBigInt {
			return in.BigIntID
		}
		return in.NumberID
	default:
		return in.NumberID
	}
}

// checkArithmeticOperand enforces that an arithmetic operand is number,
// bigint, or any — a boxed `Number` interface is an object, not the
// primitive, and is rejected here.
func (c *Checker) checkArithmeticOperand(t types.TypeId, span ast.Span, code diagnostic.Code) {
	if t == c.interner.ErrorID || t == c.interner.AnyID {
		return
	}
	switch c.db.ClassifyPrimitive(t) {
	case query.PrimNumber, query.PrimBigInt:
		return
	case query.PrimAnyOrUnknown:
		if c.db.Evaluate(t) == c.interner.AnyID {
			return
		}
	}
	c.gateway.Emit(diagnostic.Diagnostic{
		Code:     code,
		Severity: diagnostic.DefaultSeverity(code),
		Message:  diagnostic.Template(code),
		Span:     span,
		Source:   t,
	})
}

func (c *Checker) inferConditionalExpr(n *ast.ConditionalExpr, env Env) types.TypeId {
	c.inferExpr(n.Cond, env)
	thenEnv := c.narrowFromFlow(n.Then, env)
	elseEnv := c.narrowFromFlow(n.Else, env)
	thenType := c.inferExpr(n.Then, thenEnv)
	elseType := c.inferExpr(n.Else, elseEnv)
	return c.narrower.Join(thenType, elseType)
}

func (c *Checker) inferFunctionExpr(n *ast.FunctionExpr, env Env) types.TypeId {
	scope := tparamScope{}
	tparams, _ := c.resolveTypeParams(n.TypeParams, scope)
	params := c.resolveParams(n.Params, scope)
	returnType := c.interner.AnyID
	if n.ReturnAnn != nil {
		returnType = c.ResolveTypeAnn(n.ReturnAnn, scope)
	}
	bodyEnv := env.Clone()
	for _, p := range params {
		bodyEnv.Bind(p.Name, p.Type)
	}
	c.checkFunctionBody(n.Body, bodyEnv, returnType, n.Span())
	return c.interner.Object(types.ObjectShape{CallSigs: []types.Signature{{
		TypeParams: tparams,
		Params:     params,
		Return:     returnType,
	}}})
}

func (c *Checker) inferAsExpr(n *ast.AsExpr, env Env) types.TypeId {
	c.inferExpr(n.Expr, env)
	return c.ResolveTypeAnn(n.TypeAnn, tparamScope{})
}

func (c *Checker) inferSatisfiesExpr(n *ast.SatisfiesExpr, env Env) types.TypeId {
	exprType := c.inferExpr(n.Expr, env)
	target := c.ResolveTypeAnn(n.TypeAnn, tparamScope{})
	c.gateway.CheckAssignable(exprType, target, n.Span(), diagnostic.OriginSatisfies)
	return exprType // satisfies does not widen or replace the expression's own type
}

func (c *Checker) inferPropertyAccess(n *ast.PropertyAccess, env Env) types.TypeId {
	objType := c.inferExpr(n.Expr, env)
	if objType == c.interner.ErrorID {
		return c.interner.ErrorID
	}
	if c.opts.StrictNullChecks && objType != c.interner.UndefinedID &&
		c.db.IsSubtype(c.interner.UndefinedID, objType) {
		c.gateway.Emit(diagnostic.Diagnostic{
			Code:     diagnostic.TS18048,
			Severity: diagnostic.DefaultSeverity(diagnostic.TS18048),
			Message:  fmt.Sprintf(diagnostic.Template(diagnostic.TS18048), accessText(n.Expr)),
			Span:     n.Span(),
			Source:   objType,
		})
		// Member lookup proceeds against the defined part, so one
		// possibly-undefined access doesn't cascade into TS2339.
		objType = c.narrower.Apply(objType, &binder.Guard{Kind: binder.GuardNonNull})
	}
	propType, ok := c.db.GetPropertyType(objType, n.Name)
	if !ok {
		c.gateway.Emit(diagnostic.Diagnostic{
			Code:     diagnostic.TS2339,
			Severity: diagnostic.DefaultSeverity(diagnostic.TS2339),
			Message:  fmt.Sprintf(diagnostic.Template(diagnostic.TS2339), n.Name, c.interner.String(objType)),
			Span:     n.Span(),
			Target:   objType,
		})
		return c.interner.ErrorID
	}
	return propType
}

// accessText renders the accessed reference for a possibly-undefined
// message ("'x.y' is possibly 'undefined'").
func accessText(e ast.Expr) string {
	switch n := e.(type) {
	case *ast.Identifier:
		return n.Name
	case *ast.PropertyAccess:
		return accessText(n.Expr) + "." + n.Name
	default:
		return "expression"
	}
}

func (c *Checker) inferElementAccess(n *ast.ElementAccess, env Env) types.TypeId {
	objType := c.inferExpr(n.Expr, env)
	indexType := c.inferExpr(n.Index, env)
	if elem := c.arrayElementType(objType); elem.Valid() {
		return elem
	}
	return c.db.GetIndexType(objType, indexType)
}

func (c *Checker) arrayElementType(t types.TypeId) types.TypeId {
	ground := c.eval.Evaluate(t)
	if arr, ok := c.interner.Get(ground).(interface{ Element() types.TypeId }); ok {
		return arr.Element()
	}
	return 0
}

func (c *Checker) shapeOf(t types.TypeId) (types.ObjectShape, bool) {
	ground := c.eval.Evaluate(t)
	shape, ok := c.interner.Get(ground).(interface{ Shape() types.ObjectShape })
	if !ok {
		return types.ObjectShape{}, false
	}
	return shape.Shape(), true
}
