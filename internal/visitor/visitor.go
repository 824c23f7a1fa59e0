// Package visitor implements the structural walk over the type graph.
// The evaluator and the checker call the helpers here; the relation and
// inference engines walk the shapes they compare with their own type
// switches.
package visitor

import (
	"github.com/sunholo/tscore/internal/ast"
	"github.com/sunholo/tscore/internal/types"
)

// Visitor receives a callback per TypeId encountered during a Walk. The
// walk visits every TypeId exactly once (structural cycles in Lazy/
// Application references are not expanded — the visitor walks the type
// graph's own nodes, never DefinitionStore bodies, so it is inherently
// finite and needs no work budget).
type Visitor func(id types.TypeId)

// Children returns id's immediate structural children — the TypeIds one
// step away in the type graph. Callers that need the full reachable set
// use Walk.
func Children(in *types.Interner, id types.TypeId) []types.TypeId {
	if !id.Valid() {
		return nil
	}
	switch key := in.Get(id).(type) {
	case interface{ Element() types.TypeId }: // arrayKey
		return []types.TypeId{key.Element()}
	case interface{ Shape() types.ObjectShape }: // objectKey
		shape := key.Shape()
		var out []types.TypeId
		for _, p := range shape.Properties {
			out = append(out, p.Type)
		}
		for _, s := range shape.CallSigs {
			out = append(out, signatureChildren(s)...)
		}
		for _, s := range shape.ConstructSigs {
			out = append(out, signatureChildren(s)...)
		}
		if shape.StringIndexer.Valid() {
			out = append(out, shape.StringIndexer)
		}
		if shape.NumberIndexer.Valid() {
			out = append(out, shape.NumberIndexer)
		}
		return out
	case interface{ Elements() []types.TupleElem }: // tupleKey
		var out []types.TypeId
		for _, e := range key.Elements() {
			out = append(out, e.Type)
		}
		return out
	case interface{ Members() []types.TypeId }: // unionKey, intersectionKey
		return append([]types.TypeId(nil), key.Members()...)
	case interface{ Args() []types.TypeId }: // applicationKey
		return append([]types.TypeId(nil), key.Args()...)
	case interface {
		Check() types.TypeId
		Extends() types.TypeId
		True() types.TypeId
		False() types.TypeId
		Infers() []types.InferBinding
	}: // conditionalKey
		out := []types.TypeId{key.Check(), key.Extends(), key.True(), key.False()}
		for _, inf := range key.Infers() {
			out = append(out, inf.Id)
		}
		return out
	case interface {
		Constraint() types.TypeId
		Value() types.TypeId
		AsClause() types.TypeId
	}: // mappedKey
		out := []types.TypeId{key.Constraint(), key.Value()}
		if key.AsClause().Valid() {
			out = append(out, key.AsClause())
		}
		return out
	case interface {
		Object() types.TypeId
		Index() types.TypeId
	}: // indexAccessKey
		return []types.TypeId{key.Object(), key.Index()}
	case interface{ Operand() types.TypeId }: // keyOfKey, stringIntrinsicKey, readonlyKey
		return []types.TypeId{key.Operand()}
	case interface{ Placeholders() []types.TypeId }: // templateLiteralKey
		return append([]types.TypeId(nil), key.Placeholders()...)
	case interface{ Info() types.TypeParamInfo }: // typeParameterKey
		info := key.Info()
		var out []types.TypeId
		if info.Constraint.Valid() {
			out = append(out, info.Constraint)
		}
		if info.Default.Valid() {
			out = append(out, info.Default)
		}
		return out
	default:
		// intrinsicKey, literalKey, errorKey, lazyKey, inferKey: leaves with
		// respect to the TypeId graph (lazyKey's DefId is not a TypeId).
		return nil
	}
}

func signatureChildren(s types.Signature) []types.TypeId {
	var out []types.TypeId
	for _, tp := range s.TypeParams {
		if tp.Constraint.Valid() {
			out = append(out, tp.Constraint)
		}
		if tp.Default.Valid() {
			out = append(out, tp.Default)
		}
	}
	for _, p := range s.Params {
		out = append(out, p.Type)
	}
	if s.Return.Valid() {
		out = append(out, s.Return)
	}
	return out
}

// Walk visits root and every TypeId reachable from it exactly once,
// calling visit on each in a deterministic pre-order.
func Walk(in *types.Interner, root types.TypeId, visit Visitor) {
	seen := make(map[types.TypeId]bool)
	var walk func(types.TypeId)
	walk = func(id types.TypeId) {
		if !id.Valid() || seen[id] {
			return
		}
		seen[id] = true
		visit(id)
		for _, child := range Children(in, id) {
			walk(child)
		}
	}
	walk(root)
}

// CollectLazyDefIds returns, in first-encountered order, every DefId
// reachable from root via Lazy or Application variants — the set the
// checker must ensure is materialized in the DefinitionStore before
// relating root to anything.
func CollectLazyDefIds(in *types.Interner, root types.TypeId) []types.DefId {
	var out []types.DefId
	seenDef := make(map[types.DefId]bool)
	Walk(in, root, func(id types.TypeId) {
		switch key := in.Get(id).(type) {
		case interface{ Def() types.DefId }:
			def := key.Def()
			if !seenDef[def] {
				seenDef[def] = true
				out = append(out, def)
			}
		}
	})
	return out
}

// CollectInferBindings returns every `infer R` binding reachable from
// root, in encounter order — the evaluator's Conditional reduction
// consults these to solve infer patterns.
func CollectInferBindings(in *types.Interner, root types.TypeId) []types.InferBinding {
	var out []types.InferBinding
	Walk(in, root, func(id types.TypeId) {
		if key, ok := in.Get(id).(interface{ Infers() []types.InferBinding }); ok {
			out = append(out, key.Infers()...)
		}
	})
	return out
}

// CollectTypeParameters returns every TypeParameter TypeId reachable from
// root, in encounter order.
func CollectTypeParameters(in *types.Interner, root types.TypeId) []types.TypeId {
	var out []types.TypeId
	Walk(in, root, func(id types.TypeId) {
		if in.Get(id).VariantKind() == types.KindTypeParameter {
			out = append(out, id)
		}
	})
	return out
}

// CollectTypeQueries walks an ast.TypeAnn tree (not a TypeId graph — type
// queries are a syntactic construct that the checker resolves into a
// TypeId by looking up the named symbol, so they only exist pre-resolution)
// and returns every TypeQueryAnn node found, in encounter order. This is
// the AST-side counterpart the checker calls before asking the
// DefinitionStore/Interner to materialize anything.
func CollectTypeQueries(root ast.TypeAnn) []*ast.TypeQueryAnn {
	var out []*ast.TypeQueryAnn
	var walk func(ast.TypeAnn)
	walk = func(n ast.TypeAnn) {
		if n == nil {
			return
		}
		switch v := n.(type) {
		case *ast.TypeQueryAnn:
			out = append(out, v)
		case *ast.ArrayTypeAnn:
			walk(v.Element)
		case *ast.TupleTypeAnn:
			for _, e := range v.Elements {
				walk(e.TypeAnn)
			}
		case *ast.UnionTypeAnn:
			for _, m := range v.Members {
				walk(m)
			}
		case *ast.IntersectionTypeAnn:
			for _, m := range v.Members {
				walk(m)
			}
		case *ast.FunctionTypeAnn:
			for _, p := range v.Params {
				walk(p.TypeAnn)
			}
			walk(v.Return)
		case *ast.ConditionalTypeAnn:
			walk(v.Check)
			walk(v.Extends)
			walk(v.True)
			walk(v.False)
		case *ast.InferTypeAnn:
			// leaf: binds a name, nothing nested to descend into
		case *ast.MappedTypeAnn:
			walk(v.Constraint)
			walk(v.Value)
		case *ast.IndexedAccessTypeAnn:
			walk(v.Object)
			walk(v.Index)
		case *ast.KeyOfTypeAnn:
			walk(v.Operand)
		case *ast.TemplateLiteralTypeAnn:
			for _, p := range v.Placeholders {
				walk(p)
			}
		case *ast.StringIntrinsicTypeAnn:
			walk(v.Operand)
		case *ast.ReadonlyTypeAnn:
			walk(v.Operand)
		case *ast.TypeRefAnn:
			for _, a := range v.TypeArgs {
				walk(a)
			}
		case *ast.ObjectTypeAnn:
			for _, m := range v.Members {
				walk(m.TypeAnn)
			}
		}
	}
	walk(root)
	return out
}
