// Package evaluator reduces meta-types — Conditional, Mapped,
// IndexAccess, KeyOf, TemplateLiteral, StringIntrinsic, and generic
// Application — to a ground TypeId the relation engine can compare
// structurally, with per-TypeId memoization and identity recovery on
// cyclic aliases.
package evaluator

import (
	"strconv"
	"strings"

	"github.com/sunholo/tscore/internal/defstore"
	"github.com/sunholo/tscore/internal/types"
	"github.com/sunholo/tscore/internal/visitor"
)

// Subtyper is the one operation the Evaluator needs from the relation
// engine — Conditional reduction tests `T <: U` — without importing
// internal/relation, which itself imports internal/evaluator to call
// Evaluate during structural comparison. Both packages depend on
// a shared interface instead of each other; the checker wires concrete
// instances together once both are constructed.
type Subtyper interface {
	IsSubtype(src, tgt types.TypeId) bool
}

const defaultWorkBudget = 100000

// Evaluator reduces meta-types to ground form. One Evaluator is scoped
// to a single compilation, alongside its Interner and DefinitionStore.
type Evaluator struct {
	interner *types.Interner
	defs     *defstore.Store
	builder  defstore.MemberBuilder
	subtyper Subtyper

	memo       map[types.TypeId]types.TypeId
	inProgress map[types.TypeId]bool

	workBudget int
	workUsed   int
	overflowAt map[types.TypeId]bool
}

// New constructs an Evaluator. builder computes a DefId's members the
// first time they are needed; it may be nil only when every DefId the
// Evaluator will be asked to reduce already has its members in the
// DefinitionStore (the checker passes its own builder). workBudget <= 0
// uses the default.
func New(interner *types.Interner, defs *defstore.Store, builder defstore.MemberBuilder, workBudget int) *Evaluator {
	if workBudget <= 0 {
		workBudget = defaultWorkBudget
	}
	return &Evaluator{
		interner:   interner,
		defs:       defs,
		builder:    builder,
		memo:       make(map[types.TypeId]types.TypeId),
		inProgress: make(map[types.TypeId]bool),
		workBudget: workBudget,
		overflowAt: make(map[types.TypeId]bool),
	}
}

// SetSubtyper wires the relation engine's Judge in after both have been
// constructed, breaking the evaluator/relation construction cycle.
func (e *Evaluator) SetSubtyper(s Subtyper) { e.subtyper = s }

// Overflowed reports whether the work budget ran out while root itself
// was being reduced; an overflow inside a nested reduction is recorded
// against the nested TypeId, not against root.
func (e *Evaluator) Overflowed(root types.TypeId) bool { return e.overflowAt[root] }

func (e *Evaluator) chargeWork() bool {
	e.workUsed++
	return e.workUsed <= e.workBudget
}

// Evaluate reduces id to a ground TypeId. Results are memoized;
// re-entering the same id mid-evaluation (a genuinely cyclic alias with no
// fixpoint) returns id itself, the greatest-fixed-point approximation.
func (e *Evaluator) Evaluate(id types.TypeId) types.TypeId {
	if !id.Valid() {
		return id
	}
	if ground, ok := e.memo[id]; ok {
		return ground
	}
	if e.inProgress[id] {
		return id // coinductive recovery: identity
	}
	if !e.chargeWork() {
		e.overflowAt[id] = true
		return e.interner.ErrorID
	}

	e.inProgress[id] = true
	var result types.TypeId
	switch key := e.interner.Get(id).(type) {
	case interface {
		Check() types.TypeId
		Extends() types.TypeId
		True() types.TypeId
		False() types.TypeId
		Infers() []types.InferBinding
	}:
		result = e.evalConditional(key.Check(), key.Extends(), key.True(), key.False(), key.Infers())
	case interface {
		ParamName() string
		Constraint() types.TypeId
		Value() types.TypeId
		AsClause() types.TypeId
		Optional() types.MappedModifier
		ReadonlyMod() types.MappedModifier
	}:
		result = e.evalMapped(key)
	case interface {
		Object() types.TypeId
		Index() types.TypeId
	}:
		result = e.evalIndexAccess(key.Object(), key.Index())
	case interface {
		Kind() types.StringIntrinsicKind
		Operand() types.TypeId
	}:
		result = e.evalStringIntrinsic(key.Kind(), key.Operand())
	case interface{ Operand() types.TypeId }:
		if e.interner.Get(id).VariantKind() == types.KindKeyOf {
			result = e.evalKeyOf(key.Operand())
		} else {
			result = e.interner.Readonly(e.Evaluate(key.Operand())) // ReadonlyType
		}
	case interface {
		Fragments() []string
		Placeholders() []types.TypeId
	}:
		result = e.evalTemplateLiteral(key.Fragments(), key.Placeholders())
	case interface {
		Def() types.DefId
		Args() []types.TypeId
	}:
		result = e.evalApplication(key.Def(), key.Args())
	case interface{ Def() types.DefId }: // lazyKey: no args, non-generic reference
		result = e.evalApplication(key.Def(), nil)
	default:
		// Intrinsic, Literal, Object, Array, Tuple, Union, Intersection,
		// TypeParameter, Infer, Error: already ground.
		result = id
	}
	delete(e.inProgress, id)
	e.memo[id] = result
	return result
}

func (e *Evaluator) evalConditional(check, extends, trueB, falseB types.TypeId, infers []types.InferBinding) types.TypeId {
	checkGround := e.Evaluate(check)
	if e.interner.Get(checkGround).VariantKind() == types.KindUnion {
		members := e.interner.Get(checkGround).(interface{ Members() []types.TypeId }).Members()
		parts := make([]types.TypeId, len(members))
		for i, m := range members {
			parts[i] = e.evalConditionalBranch(m, extends, trueB, falseB, infers)
		}
		return e.interner.Union(parts...)
	}
	return e.evalConditionalBranch(checkGround, extends, trueB, falseB, infers)
}

func (e *Evaluator) evalConditionalBranch(check, extends, trueB, falseB types.TypeId, infers []types.InferBinding) types.TypeId {
	if !e.chargeWork() {
		e.overflowAt[check] = true
		return e.interner.ErrorID
	}
	bindings := matchInfer(e.interner, check, extends, infers)
	for _, inf := range infers {
		if _, ok := bindings[inf.Id]; !ok {
			bindings[inf.Id] = e.interner.UnknownID
		}
	}
	extendsForTest := substitute(e.interner, extends, inferToAnyMap(e.interner, infers))

	satisfied := false
	if e.subtyper != nil {
		satisfied = e.subtyper.IsSubtype(check, extendsForTest)
	}

	if satisfied {
		return e.Evaluate(substitute(e.interner, trueB, bindings))
	}
	return e.Evaluate(falseB)
}

type mappedAccessor interface {
	ParamName() string
	Constraint() types.TypeId
	Value() types.TypeId
	AsClause() types.TypeId
	Optional() types.MappedModifier
	ReadonlyMod() types.MappedModifier
}

func (e *Evaluator) evalMapped(m mappedAccessor) types.TypeId {
	constraintGround := e.Evaluate(m.Constraint())
	var keys []types.TypeId
	if e.interner.Get(constraintGround).VariantKind() == types.KindUnion {
		keys = e.interner.Get(constraintGround).(interface{ Members() []types.TypeId }).Members()
	} else {
		keys = []types.TypeId{constraintGround}
	}

	placeholder := e.findTypeParamByName(m.Value(), m.ParamName())

	var props []types.PropertyDef
	for _, k := range keys {
		name, ok := e.asStringLiteral(k)
		if !ok {
			continue // only string-literal keys produce properties; other keys are skipped
		}
		bindings := map[types.TypeId]types.TypeId{}
		if placeholder.Valid() {
			bindings[placeholder] = k
		}
		valType := e.Evaluate(substitute(e.interner, m.Value(), bindings))
		if m.AsClause().Valid() {
			renamed := e.Evaluate(substitute(e.interner, m.AsClause(), bindings))
			if rn, ok := e.asStringLiteral(renamed); ok {
				name = rn
			}
		}
		props = append(props, types.PropertyDef{
			Name:     name,
			Type:     valType,
			Optional: m.Optional() == types.ModifierAdd,
			Readonly: m.ReadonlyMod() == types.ModifierAdd,
		})
	}
	return e.interner.Object(types.ObjectShape{Properties: props})
}

func (e *Evaluator) findTypeParamByName(value types.TypeId, name string) types.TypeId {
	for _, tp := range visitor.CollectTypeParameters(e.interner, value) {
		if info, ok := e.interner.Get(tp).(interface{ Info() types.TypeParamInfo }); ok && info.Info().Name == name {
			return tp
		}
	}
	return 0
}

func (e *Evaluator) evalIndexAccess(object, index types.TypeId) types.TypeId {
	objGround := e.Evaluate(object)
	idxGround := e.Evaluate(index)

	if objKey, ok := e.interner.Get(objGround).(interface{ Shape() types.ObjectShape }); ok {
		shape := objKey.Shape()
		if name, ok := e.asStringLiteral(idxGround); ok {
			for _, p := range shape.Properties {
				if p.Name == name {
					return p.Type
				}
			}
			if shape.StringIndexer.Valid() {
				return shape.StringIndexer
			}
			return e.interner.NeverID
		}
		if intr, ok := e.interner.Get(idxGround).(interface{ Kind() types.IntrinsicKind }); ok && intr.Kind() == types.StringKind {
			if shape.StringIndexer.Valid() {
				return shape.StringIndexer
			}
		}
		return e.interner.ErrorID
	}

	if arrKey, ok := e.interner.Get(objGround).(interface{ Element() types.TypeId }); ok {
		return arrKey.Element()
	}

	return e.interner.ErrorID
}

func (e *Evaluator) evalKeyOf(operand types.TypeId) types.TypeId {
	ground := e.Evaluate(operand)
	objKey, ok := e.interner.Get(ground).(interface{ Shape() types.ObjectShape })
	if !ok {
		return e.interner.NeverID
	}
	shape := objKey.Shape()
	var keyLits []types.TypeId
	for _, p := range shape.Properties {
		keyLits = append(keyLits, e.interner.LiteralString(p.Name))
	}
	if shape.StringIndexer.Valid() {
		keyLits = append(keyLits, e.interner.StringID)
	}
	if shape.NumberIndexer.Valid() {
		keyLits = append(keyLits, e.interner.NumberID)
	}
	return e.interner.Union(keyLits...)
}

func (e *Evaluator) evalStringIntrinsic(kind types.StringIntrinsicKind, operand types.TypeId) types.TypeId {
	ground := e.Evaluate(operand)
	s, ok := e.asStringLiteral(ground)
	if !ok {
		return ground // identity on non-literal inputs
	}
	return e.interner.LiteralString(applyCasing(kind, s))
}

func (e *Evaluator) evalTemplateLiteral(fragments []string, placeholders []types.TypeId) types.TypeId {
	groundPh := make([]types.TypeId, len(placeholders))
	allLiteral := true
	for i, p := range placeholders {
		g := e.Evaluate(p)
		groundPh[i] = g
		if _, ok := e.asGroundLiteralText(g); !ok {
			allLiteral = false
		}
	}
	if !allLiteral {
		return e.interner.TemplateLiteral(fragments, groundPh)
	}
	var b strings.Builder
	for i, f := range fragments {
		b.WriteString(f)
		if i < len(groundPh) {
			text, _ := e.asGroundLiteralText(groundPh[i])
			b.WriteString(text)
		}
	}
	return e.interner.LiteralString(b.String())
}

func (e *Evaluator) evalApplication(def types.DefId, args []types.TypeId) types.TypeId {
	body, ok := e.getBody(def)
	if !ok {
		return e.interner.ErrorID
	}
	paramIDs := e.defs.TypeParamIDs(def)
	bindings := make(map[types.TypeId]types.TypeId, len(paramIDs))
	for i, pid := range paramIDs {
		if i < len(args) {
			bindings[pid] = args[i]
		}
	}
	return e.Evaluate(substitute(e.interner, body, bindings))
}

func (e *Evaluator) getBody(def types.DefId) (types.TypeId, bool) {
	if e.defs.Kind(def) == defstore.DeclTypeAlias {
		return e.defs.AliasBody(def)
	}
	if e.builder == nil {
		return e.defs.CachedBody(def)
	}
	body, err := e.defs.GetMembers(def, e.builder)
	if err != nil {
		return 0, false
	}
	return body, true
}

func (e *Evaluator) asStringLiteral(id types.TypeId) (string, bool) {
	lit, ok := e.interner.Get(id).(interface {
		Kind() types.LiteralKind
		StringValue() string
	})
	if !ok || lit.Kind() != types.LitString {
		return "", false
	}
	return lit.StringValue(), true
}

func (e *Evaluator) asGroundLiteralText(id types.TypeId) (string, bool) {
	lit, ok := e.interner.Get(id).(interface {
		Kind() types.LiteralKind
		StringValue() string
		NumberValue() float64
		BoolValue() bool
	})
	if !ok {
		return "", false
	}
	switch lit.Kind() {
	case types.LitString:
		return lit.StringValue(), true
	case types.LitNumber:
		return strconv.FormatFloat(lit.NumberValue(), 'g', -1, 64), true
	case types.LitBoolean:
		return strconv.FormatBool(lit.BoolValue()), true
	}
	return "", false
}
