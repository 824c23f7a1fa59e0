package checker

import (
	"fmt"

	"github.com/sunholo/tscore/internal/ast"
	"github.com/sunholo/tscore/internal/diagnostic"
	"github.com/sunholo/tscore/internal/inference"
	"github.com/sunholo/tscore/internal/types"
	"github.com/sunholo/tscore/internal/visitor"
)

// judgeSubtyper adapts *relation.Judge to inference.Subtyper — the
// Solver needs only IsSubtype, the same narrow interface the Evaluator
// takes (evaluator.Subtyper), kept as two local names because neither
// package may import the other's interface type directly (the
// standalone-per-call-site Solver has no dependency on relation.Judge's
// concrete type beyond this one method).
type judgeSubtyper struct{ c *Checker }

func (j judgeSubtyper) IsSubtype(src, tgt types.TypeId) bool { return j.c.judge.IsSubtype(src, tgt) }

func (c *Checker) inferCallExpr(n *ast.CallExpr, env Env) types.TypeId {
	if n.IsSuper {
		// super(...) resolves against the base class's construct
		// signatures, never call signatures; c.superSigs was populated
		// when the enclosing class's members began checking.
		argTypes := make([]types.TypeId, len(n.Args))
		for i, a := range n.Args {
			argTypes[i] = c.inferExpr(a, env)
		}
		return c.resolveCall(n, c.superSigs, n.Args, argTypes, n.TypeArgs, n.Span(), env)
	}
	calleeType := c.inferExpr(n.Callee, env)
	if calleeType == c.interner.ErrorID {
		return c.interner.ErrorID
	}
	argTypes := make([]types.TypeId, len(n.Args))
	for i, a := range n.Args {
		argTypes[i] = c.inferExpr(a, env)
	}
	sigs := c.db.GetCallSignatures(calleeType)
	return c.resolveCall(n, sigs, n.Args, argTypes, n.TypeArgs, n.Span(), env)
}

func (c *Checker) inferNewExpr(n *ast.NewExpr, env Env) types.TypeId {
	calleeType := c.inferExpr(n.Callee, env)
	if calleeType == c.interner.ErrorID {
		return c.interner.ErrorID
	}
	argTypes := make([]types.TypeId, len(n.Args))
	for i, a := range n.Args {
		argTypes[i] = c.inferExpr(a, env)
	}
	sigs := c.db.GetConstructSignatures(calleeType)
	return c.resolveCall(n, sigs, n.Args, argTypes, n.TypeArgs, n.Span(), env)
}

// resolveCall is the overload-resolution step: try each
// candidate signature in declaration order, pick the first whose
// parameter count reconciles with the supplied arguments, specialize it
// through the Inference Engine when it is generic and the call site
// supplied no explicit type arguments, then route every argument
// through the gateway against the (possibly specialized) parameter
// types. The last candidate tried is the one whose diagnostics survive,
// matching the reference compiler's "report against the best-matching
// overload" behavior without implementing its full scoring pass.
func (c *Checker) resolveCall(site ast.Node, sigs []types.Signature, args []ast.Expr, argTypes []types.TypeId, typeArgs []ast.TypeAnn, anchor ast.Span, env Env) types.TypeId {
	if len(sigs) == 0 {
		return c.interner.AnyID
	}
	var chosen *types.Signature
	for i := range sigs {
		if paramsReconcile(sigs[i], len(argTypes)) {
			chosen = &sigs[i]
			break
		}
	}
	arityOK := chosen != nil
	if chosen == nil {
		chosen = &sigs[len(sigs)-1]
	}

	sig := *chosen
	if len(sig.TypeParams) > 0 {
		var instantiation []types.TypeId
		sig, instantiation = c.specializeSignature(sig, typeArgs, argTypes)
		c.annotations.RecordInstantiation(site, instantiation)
	}

	if !arityOK {
		c.gateway.Emit(diagnostic.Diagnostic{
			Code:     diagnostic.TS2554,
			Severity: diagnostic.DefaultSeverity(diagnostic.TS2554),
			Message:  fmt.Sprintf(diagnostic.Template(diagnostic.TS2554), len(sig.Params), len(argTypes)),
			Span:     anchor,
		})
		return sig.Return
	}

	for i, argType := range argTypes {
		if i >= len(sig.Params) {
			break
		}
		param := sig.Params[i]
		ok, _ := c.gateway.CheckAssignable(argType, param.Type, anchor, diagnostic.OriginArgument)
		if ok && i < len(args) {
			c.checkExcessProperties(args[i], param.Type, anchor)
		}
	}
	return sig.Return
}

func paramsReconcile(sig types.Signature, argCount int) bool {
	required := 0
	for _, p := range sig.Params {
		if !p.Optional && !p.Rest {
			required++
		}
	}
	hasRest := len(sig.Params) > 0 && sig.Params[len(sig.Params)-1].Rest
	if argCount < required {
		return false
	}
	if !hasRest && argCount > len(sig.Params) {
		return false
	}
	return true
}

// specializeSignature runs the inference workflow. sig.Params/Return
// carry the function declaration's own TypeParameter identities
// (allocated once at binding time — a fresh type parameter is,
// definitionally, a new identity) — findDeclaredTypeParams recovers
// them by name so this call-site's Solver can track substitutions
// against a fresh set of its own placeholder identities without
// aliasing a concurrent call's inference session. Explicit type
// arguments short-circuit inference entirely; otherwise each parameter
// position is walked against its matching argument type and the solved
// bindings are substituted through every parameter and the return type.
//
// The second return value is the solved (or explicit) type-argument
// list in sig.TypeParams declaration order — the generic call's solved
// instantiation — for the caller to hand to
// typedast.Annotations.RecordInstantiation.
func (c *Checker) specializeSignature(sig types.Signature, typeArgs []ast.TypeAnn, argTypes []types.TypeId) (types.Signature, []types.TypeId) {
	declared := c.findDeclaredTypeParams(sig)
	bindings := make(map[types.TypeId]types.TypeId, len(sig.TypeParams))

	if len(typeArgs) > 0 {
		for i, tp := range sig.TypeParams {
			origID := declared[tp.Name]
			if !origID.Valid() {
				continue
			}
			if i < len(typeArgs) {
				bindings[origID] = c.ResolveTypeAnn(typeArgs[i], tparamScope{})
			} else {
				bindings[origID] = tp.Default
			}
		}
		return types.Signature{
			Params: substituteParams(c.interner, sig.Params, bindings),
			Return: substituteType(c.interner, sig.Return, bindings),
		}, instantiationOf(sig, declared, bindings)
	}

	solver := inference.New(c.interner, judgeSubtyper{c}, 0)
	placeholderByOrig := make(map[types.TypeId]types.TypeId, len(sig.TypeParams))
	for _, tp := range sig.TypeParams {
		origID := declared[tp.Name]
		if !origID.Valid() {
			continue
		}
		placeholderByOrig[origID] = solver.NewVar(tp.Name, tp.Constraint, tp.Default)
	}
	for i, p := range sig.Params {
		if i >= len(argTypes) {
			break
		}
		solver.Infer(substituteType(c.interner, p.Type, placeholderByOrig), argTypes[i])
	}
	solved := solver.Solve()
	for origID, placeholder := range placeholderByOrig {
		if v, ok := solved[placeholder]; ok {
			bindings[origID] = v
		}
	}
	return types.Signature{
		Params: substituteParams(c.interner, sig.Params, bindings),
		Return: substituteType(c.interner, sig.Return, bindings),
	}, instantiationOf(sig, declared, bindings)
}

// instantiationOf reads the solved bindings back out in sig.TypeParams
// declaration order. When a parameter's original TypeId was never found
// by findDeclaredTypeParams (so bindings has no entry for it), the
// parameter's declared default is used instead (the zero TypeId when it
// has none).
func instantiationOf(sig types.Signature, declared map[string]types.TypeId, bindings map[types.TypeId]types.TypeId) []types.TypeId {
	out := make([]types.TypeId, len(sig.TypeParams))
	for i, tp := range sig.TypeParams {
		origID := declared[tp.Name]
		if v, ok := bindings[origID]; ok {
			out[i] = v
			continue
		}
		out[i] = tp.Default
	}
	return out
}

// findDeclaredTypeParams recovers the actual TypeParameter TypeId for
// each of sig.TypeParams by name, searching every parameter and the
// return type with visitor.CollectTypeParameters — the same structural
// walk the Evaluator's mapped-type reduction uses to find a mapped
// type's own binder (findTypeParamByName).
func (c *Checker) findDeclaredTypeParams(sig types.Signature) map[string]types.TypeId {
	found := make(map[string]types.TypeId, len(sig.TypeParams))
	consider := func(root types.TypeId) {
		for _, id := range visitor.CollectTypeParameters(c.interner, root) {
			info := c.interner.Get(id).(interface{ Info() types.TypeParamInfo }).Info()
			if _, already := found[info.Name]; !already {
				found[info.Name] = id
			}
		}
	}
	for _, p := range sig.Params {
		consider(p.Type)
	}
	consider(sig.Return)
	return found
}

func substituteParams(in *types.Interner, params []types.Param, bindings map[types.TypeId]types.TypeId) []types.Param {
	out := make([]types.Param, len(params))
	for i, p := range params {
		out[i] = types.Param{Name: p.Name, Optional: p.Optional, Rest: p.Rest, Type: substituteType(in, p.Type, bindings)}
	}
	return out
}

// substituteType rebuilds id with every bound TypeParameter replaced by
// its solved TypeId, structurally, one level at a time — the same
// shape-by-shape descent the Inference Engine's own walk uses to match
// patterns, run in reverse to apply the solution.
func substituteType(in *types.Interner, id types.TypeId, bindings map[types.TypeId]types.TypeId) types.TypeId {
	if !id.Valid() || len(bindings) == 0 {
		return id
	}
	if repl, ok := bindings[id]; ok {
		return repl
	}
	key := in.Get(id)
	switch k := key.(type) {
	case interface{ Element() types.TypeId }:
		return in.Array(substituteType(in, k.Element(), bindings))
	case interface{ Elements() []types.TupleElem }:
		elems := k.Elements()
		out := make([]types.TupleElem, len(elems))
		for i, e := range elems {
			out[i] = types.TupleElem{Type: substituteType(in, e.Type, bindings), Optional: e.Optional, Rest: e.Rest, Label: e.Label}
		}
		return in.Tuple(out)
	case interface{ Members() []types.TypeId }:
		members := k.Members()
		out := make([]types.TypeId, len(members))
		for i, m := range members {
			out[i] = substituteType(in, m, bindings)
		}
		if key.VariantKind() == types.KindIntersection {
			return in.Intersection(out...)
		}
		return in.UnionPreserveLiterals(out...)
	case interface{ Shape() types.ObjectShape }:
		shape := k.Shape()
		props := make([]types.PropertyDef, len(shape.Properties))
		for i, p := range shape.Properties {
			props[i] = types.PropertyDef{Name: p.Name, Optional: p.Optional, Readonly: p.Readonly, Type: substituteType(in, p.Type, bindings)}
		}
		callSigs := make([]types.Signature, len(shape.CallSigs))
		for i, s := range shape.CallSigs {
			callSigs[i] = types.Signature{
				Params:          substituteParams(in, s.Params, bindings),
				Return:          substituteType(in, s.Return, bindings),
				MethodShorthand: s.MethodShorthand,
			}
		}
		return in.Object(types.ObjectShape{Properties: props, CallSigs: callSigs, ConstructSigs: shape.ConstructSigs, StringIndexer: shape.StringIndexer, NumberIndexer: shape.NumberIndexer, NominalBrands: shape.NominalBrands})
	default:
		return id
	}
}
