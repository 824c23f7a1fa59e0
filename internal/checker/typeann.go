package checker

import (
	"github.com/sunholo/tscore/internal/ast"
	"github.com/sunholo/tscore/internal/types"
)

// tparamScope maps a generic parameter's surface name to the concrete
// TypeParameter (or Infer) TypeId allocated for it, threaded through
// ResolveTypeAnn so a TypeRefAnn naming an enclosing generic's own
// parameter resolves to that identity rather than a DefId lookup.
// Conditional resolution also uses it to publish `infer R` bindings
// from the Extends position so the True branch's TypeRefAnn("R") sees
// them — mutating the same map in place is deliberate, not a bug: a
// conditional's infer bindings are visible to its own True branch only,
// and a fresh map is handed down from ResolveTypeAnn's entry point for
// every top-level annotation.
type tparamScope map[string]types.TypeId

// ResolveTypeAnn turns a syntactic type annotation into a TypeId, a
// one-time elaboration performed at binding time. A TypeRefAnn's name
// resolves through scope first (a generic parameter) and the
// DefinitionStore second, building a Lazy or Application reference.
func (c *Checker) ResolveTypeAnn(ann ast.TypeAnn, scope tparamScope) types.TypeId {
	in := c.interner
	if ann == nil {
		return in.AnyID
	}
	switch n := ann.(type) {
	case *ast.KeywordTypeAnn:
		return c.resolveKeyword(n.Keyword)
	case *ast.LiteralTypeAnn:
		switch n.LitKind {
		case ast.LiteralString:
			return in.LiteralString(n.Text)
		case ast.LiteralNumber:
			return in.LiteralNumber(n.Num)
		case ast.LiteralBoolean:
			return in.LiteralBoolean(n.Bool)
		default: // LiteralBigint
			return in.LiteralBigInt(n.Text)
		}
	case *ast.TypeRefAnn:
		if id, ok := scope[n.Name]; ok && len(n.TypeArgs) == 0 {
			return id
		}
		def, ok := c.defs.Lookup(n.Name)
		if !ok {
			c.reportUnresolvedName(n.Name, n.Span())
			return in.ErrorID
		}
		if len(n.TypeArgs) == 0 {
			return in.Lazy(def)
		}
		args := make([]types.TypeId, len(n.TypeArgs))
		for i, a := range n.TypeArgs {
			args[i] = c.ResolveTypeAnn(a, scope)
		}
		return in.Application(def, args)
	case *ast.ObjectTypeAnn:
		return c.resolveObjectTypeAnn(n, scope)
	case *ast.ArrayTypeAnn:
		return in.Array(c.ResolveTypeAnn(n.Element, scope))
	case *ast.TupleTypeAnn:
		elems := make([]types.TupleElem, len(n.Elements))
		for i, e := range n.Elements {
			elems[i] = types.TupleElem{
				Type:     c.ResolveTypeAnn(e.TypeAnn, scope),
				Optional: e.Optional,
				Rest:     e.Rest,
				Label:    e.Label,
			}
		}
		return in.Tuple(elems)
	case *ast.UnionTypeAnn:
		members := make([]types.TypeId, len(n.Members))
		for i, m := range n.Members {
			members[i] = c.ResolveTypeAnn(m, scope)
		}
		return in.UnionPreserveLiterals(members...)
	case *ast.IntersectionTypeAnn:
		members := make([]types.TypeId, len(n.Members))
		for i, m := range n.Members {
			members[i] = c.ResolveTypeAnn(m, scope)
		}
		return in.Intersection(members...)
	case *ast.FunctionTypeAnn:
		inner := cloneScope(scope)
		tparams, _ := c.resolveTypeParams(n.TypeParams, inner)
		sig := types.Signature{
			TypeParams: tparams,
			Params:     c.resolveParams(n.Params, inner),
			Return:     c.ResolveTypeAnn(n.Return, inner),
		}
		return in.Object(types.ObjectShape{CallSigs: []types.Signature{sig}})
	case *ast.ConditionalTypeAnn:
		inner := cloneScope(scope)
		check := c.ResolveTypeAnn(n.Check, inner)
		extends := c.ResolveTypeAnn(n.Extends, inner)
		var infers []types.InferBinding
		for name, id := range inner {
			if _, already := scope[name]; !already {
				infers = append(infers, types.InferBinding{Name: name, Id: id})
			}
		}
		trueBranch := c.ResolveTypeAnn(n.True, inner)
		falseBranch := c.ResolveTypeAnn(n.False, scope)
		return in.Conditional(check, extends, trueBranch, falseBranch, infers)
	case *ast.InferTypeAnn:
		id := in.Infer(n.Name)
		scope[n.Name] = id
		return id
	case *ast.MappedTypeAnn:
		inner := cloneScope(scope)
		constraint := c.ResolveTypeAnn(n.Constraint, inner)
		param := in.TypeParameter(types.TypeParamInfo{Name: n.ParamName, Constraint: constraint})
		inner[n.ParamName] = param
		spec := types.MappedSpec{
			ParamName:  n.ParamName,
			Constraint: constraint,
			Value:      c.ResolveTypeAnn(n.Value, inner),
			Optional:   types.MappedModifier(n.Optional),
			ReadonlyM:  types.MappedModifier(n.ReadonlyM),
		}
		if n.AsClause != nil {
			spec.AsClause = c.ResolveTypeAnn(n.AsClause, inner)
		}
		return in.Mapped(spec)
	case *ast.IndexedAccessTypeAnn:
		return in.IndexAccess(c.ResolveTypeAnn(n.Object, scope), c.ResolveTypeAnn(n.Index, scope))
	case *ast.KeyOfTypeAnn:
		return in.KeyOf(c.ResolveTypeAnn(n.Operand, scope))
	case *ast.TemplateLiteralTypeAnn:
		placeholders := make([]types.TypeId, len(n.Placeholders))
		for i, p := range n.Placeholders {
			placeholders[i] = c.ResolveTypeAnn(p, scope)
		}
		return in.TemplateLiteral(n.Fragments, placeholders)
	case *ast.StringIntrinsicTypeAnn:
		return in.StringIntrinsic(types.StringIntrinsicKind(n.IntrinsicKind), c.ResolveTypeAnn(n.Operand, scope))
	case *ast.ReadonlyTypeAnn:
		return in.Readonly(c.ResolveTypeAnn(n.Operand, scope))
	case *ast.TypeQueryAnn:
		return c.resolveTypeQuery(n)
	default:
		return in.AnyID
	}
}

func (c *Checker) resolveKeyword(k ast.KeywordKind) types.TypeId {
	in := c.interner
	switch k {
	case ast.KeywordAny:
		return in.AnyID
	case ast.KeywordUnknown:
		return in.UnknownID
	case ast.KeywordNever:
		return in.NeverID
	case ast.KeywordVoid:
		return in.VoidID
	case ast.KeywordUndefined:
		return in.UndefinedID
	case ast.KeywordNull:
		return in.NullID
	case ast.KeywordString:
		return in.StringID
	case ast.KeywordNumber:
		return in.NumberID
	case ast.KeywordBoolean:
		return in.BooleanID
	case ast.KeywordBigint:
		return in.BigIntID
	case ast.KeywordSymbol:
		return in.SymbolID
	case ast.KeywordObject:
		return in.ObjectID
	default:
		return in.AnyID
	}
}

func (c *Checker) resolveObjectTypeAnn(n *ast.ObjectTypeAnn, scope tparamScope) types.TypeId {
	shape := types.ObjectShape{}
	for _, m := range n.Members {
		switch {
		case m.IsCallSig:
			shape.CallSigs = append(shape.CallSigs, c.resolveMemberSignature(m, scope))
		case m.IsConstructSig:
			shape.ConstructSigs = append(shape.ConstructSigs, c.resolveMemberSignature(m, scope))
		case m.IsIndexSig:
			valueType := c.ResolveTypeAnn(m.TypeAnn, scope)
			if isNumberKeyAnn(m.IndexKeyType) {
				shape.NumberIndexer = valueType
			} else {
				shape.StringIndexer = valueType
			}
		default:
			shape.Properties = append(shape.Properties, types.PropertyDef{
				Name:     m.Name,
				Type:     c.ResolveTypeAnn(m.TypeAnn, scope),
				Optional: m.Optional,
				Readonly: m.Readonly,
			})
		}
	}
	return c.interner.Object(shape)
}

func isNumberKeyAnn(ann ast.TypeAnn) bool {
	kw, ok := ann.(*ast.KeywordTypeAnn)
	return ok && kw.Keyword == ast.KeywordNumber
}

func (c *Checker) resolveMemberSignature(m ast.ObjectTypeMember, scope tparamScope) types.Signature {
	if m.Fn != nil {
		inner := cloneScope(scope)
		tparams, _ := c.resolveTypeParams(m.Fn.TypeParams, inner)
		return types.Signature{
			TypeParams: tparams,
			Params:     c.resolveParams(m.Fn.Params, inner),
			Return:     c.ResolveTypeAnn(m.Fn.Return, inner),
		}
	}
	return types.Signature{Return: c.interner.AnyID}
}

func (c *Checker) resolveParams(params []ast.Param, scope tparamScope) []types.Param {
	out := make([]types.Param, len(params))
	for i, p := range params {
		typ := c.interner.AnyID
		if p.TypeAnn != nil {
			typ = c.ResolveTypeAnn(p.TypeAnn, scope)
		}
		out[i] = types.Param{Name: p.Name, Type: typ, Optional: p.Optional, Rest: p.Rest}
	}
	return out
}

// resolveTypeParams allocates a fresh TypeParameter identity per
// declaration and registers it in scope under its surface name, so
// later annotations in the same declaration (other parameter
// constraints, the return type, the body) resolve references to it.
func (c *Checker) resolveTypeParams(decls []ast.TypeParamDecl, scope tparamScope) ([]types.TypeParamInfo, []types.TypeId) {
	infos := make([]types.TypeParamInfo, len(decls))
	ids := make([]types.TypeId, len(decls))
	for i, d := range decls {
		info := types.TypeParamInfo{Name: d.Name}
		if d.Constraint != nil {
			info.Constraint = c.ResolveTypeAnn(d.Constraint, scope)
		}
		if d.Default != nil {
			info.Default = c.ResolveTypeAnn(d.Default, scope)
		}
		id := c.interner.TypeParameter(info)
		scope[d.Name] = id
		infos[i] = info
		ids[i] = id
	}
	return infos, ids
}

func (c *Checker) resolveTypeQuery(n *ast.TypeQueryAnn) types.TypeId {
	sym, ok := c.currentScope.Resolve(n.ExprName)
	if !ok {
		c.reportUnresolvedName(n.ExprName, n.Span())
		return c.interner.ErrorID
	}
	if t, ok := c.env.Lookup(sym.Name); ok {
		return t
	}
	return c.interner.AnyID
}

func cloneScope(s tparamScope) tparamScope {
	out := make(tparamScope, len(s)+2)
	for k, v := range s {
		out[k] = v
	}
	return out
}
