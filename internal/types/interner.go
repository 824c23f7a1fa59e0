package types

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Interner is the canonicalizing type store: a map from TypeKey to
// TypeId plus the reverse lookup. Construction is closed — every
// exported method here is the single constructor for its variant;
// nothing outside this package builds a TypeKey directly.
//
// The canonicalization map is guarded by a single mutex, the
// writer-unique critical section that keeps two constructors from
// racing to insert the same canonical key. Reads (Get) take the same
// lock; the table is small enough per compilation that a single mutex,
// rather than a read/write split, keeps the invariant obvious.
type Interner struct {
	mu      sync.Mutex
	keys    []TypeKey // index 0 is the unused sentinel; TypeId(i) -> keys[i]
	byKey   map[string]TypeId
	uniqSeq uint64

	// Eagerly allocated constants.
	AnyID       TypeId
	UnknownID   TypeId
	NeverID     TypeId
	VoidID      TypeId
	UndefinedID TypeId
	NullID      TypeId
	StringID    TypeId
	NumberID    TypeId
	BooleanID   TypeId
	BigIntID    TypeId
	SymbolID    TypeId
	ObjectID    TypeId
	ErrorID     TypeId
}

// NewInterner allocates a fresh Interner with every intrinsic and the
// Error bottom pre-interned.
func NewInterner() *Interner {
	in := &Interner{
		keys:  make([]TypeKey, 1, 256), // slot 0 reserved for TypeId(0)
		byKey: make(map[string]TypeId, 256),
	}
	in.AnyID = in.Intrinsic(Any)
	in.UnknownID = in.Intrinsic(Unknown)
	in.NeverID = in.Intrinsic(Never)
	in.VoidID = in.Intrinsic(Void)
	in.UndefinedID = in.Intrinsic(Undefined)
	in.NullID = in.Intrinsic(NullKind)
	in.StringID = in.Intrinsic(StringKind)
	in.NumberID = in.Intrinsic(NumberKind)
	in.BooleanID = in.Intrinsic(BooleanKind)
	in.BigIntID = in.Intrinsic(BigIntKind)
	in.SymbolID = in.Intrinsic(SymbolKind)
	in.ObjectID = in.Intrinsic(ObjectKind)
	in.ErrorID = in.Error()
	return in
}

// Get returns the TypeKey a TypeId denotes. Panics on an invalid handle —
// an out-of-range TypeId is an internal invariant violation that must
// abort the compilation, not a recoverable condition.
func (in *Interner) Get(id TypeId) TypeKey {
	in.mu.Lock()
	defer in.mu.Unlock()
	if int(id) <= 0 || int(id) >= len(in.keys) {
		panic(fmt.Sprintf("types: invalid TypeId %d", id))
	}
	return in.keys[id]
}

// intern finds-or-inserts key, enforcing the single canonical TypeId per
// canonical key invariant.
func (in *Interner) intern(key TypeKey) TypeId {
	in.mu.Lock()
	defer in.mu.Unlock()
	ck := key.canonicalKey()
	if id, ok := in.byKey[ck]; ok {
		return id
	}
	id := TypeId(len(in.keys))
	in.keys = append(in.keys, key)
	in.byKey[ck] = id
	return id
}

// internUniq allocates a TypeId that is never looked up by canonical key —
// used for identity-bearing variants (TypeParameter, Infer) where two
// separate declaration sites must never alias even if their surface
// content (name, constraint) happens to match (the constructors are
// closed but not all of them participate in structural dedup; a fresh
// type parameter is, definitionally, a new identity).
func (in *Interner) internUniq(make func(uniq uint64) TypeKey) TypeId {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.uniqSeq++
	key := make(in.uniqSeq)
	id := TypeId(len(in.keys))
	in.keys = append(in.keys, key)
	in.byKey[key.canonicalKey()] = id
	return id
}

// --- Intrinsic, Literal, Error ---

func (in *Interner) Intrinsic(kind IntrinsicKind) TypeId {
	return in.intern(intrinsicKey{kind: kind})
}

func (in *Interner) LiteralString(v string) TypeId {
	return in.intern(literalKey{kind: LitString, str: v})
}

func (in *Interner) LiteralNumber(v float64) TypeId {
	return in.intern(literalKey{kind: LitNumber, num: v})
}

func (in *Interner) LiteralBoolean(v bool) TypeId {
	return in.intern(literalKey{kind: LitBoolean, boolean: v})
}

func (in *Interner) LiteralBigInt(text string) TypeId {
	return in.intern(literalKey{kind: LitBigInt, str: text})
}

// UniqueSymbol mints a nominal brand keyed by a caller-supplied id (the
// checker allocates one per `unique symbol` declaration).
func (in *Interner) UniqueSymbol(id uint64) TypeId {
	return in.intern(literalKey{kind: LitUniqueSymbol, symID: id})
}

func (in *Interner) Error() TypeId { return in.intern(errorKey{}) }

// --- Object ---

func (in *Interner) Object(shape ObjectShape) TypeId {
	sortedProps := append([]PropertyDef(nil), shape.Properties...)
	sort.Slice(sortedProps, func(i, j int) bool { return sortedProps[i].Name < sortedProps[j].Name })

	var b strings.Builder
	b.WriteString("o:")
	for _, p := range sortedProps {
		fmt.Fprintf(&b, "%s=%d,%v,%v;", p.Name, p.Type, p.Optional, p.Readonly)
	}
	b.WriteString("|call:")
	for _, s := range shape.CallSigs {
		fmt.Fprintf(&b, "%s;", signatureKey(s))
	}
	b.WriteString("|new:")
	for _, s := range shape.ConstructSigs {
		fmt.Fprintf(&b, "%s;", signatureKey(s))
	}
	fmt.Fprintf(&b, "|si:%d|ni:%d|brand:%s", shape.StringIndexer, shape.NumberIndexer, strings.Join(sortedStrings(shape.NominalBrands), ","))

	return in.intern(objectKey{shape: shape, sortedKey: b.String()})
}

func signatureKey(s Signature) string {
	var b strings.Builder
	for _, tp := range s.TypeParams {
		fmt.Fprintf(&b, "<%s:%d=%d>", tp.Name, tp.Constraint, tp.Default)
	}
	b.WriteString("(")
	for _, p := range s.Params {
		fmt.Fprintf(&b, "%d,%v,%v ", p.Type, p.Optional, p.Rest)
	}
	fmt.Fprintf(&b, ")->%d;ms=%v", s.Return, s.MethodShorthand)
	return b.String()
}

func sortedStrings(ss []string) []string {
	out := append([]string(nil), ss...)
	sort.Strings(out)
	return out
}

// --- Array, Tuple ---

func (in *Interner) Array(elem TypeId) TypeId {
	return in.intern(arrayKey{elem: elem})
}

func (in *Interner) Tuple(elems []TupleElem) TypeId {
	var b strings.Builder
	b.WriteString("t:")
	for _, e := range elems {
		fmt.Fprintf(&b, "%d,%v,%v,%s;", e.Type, e.Optional, e.Rest, e.Label)
	}
	return in.intern(tupleKey{elems: elems, key: b.String()})
}

// --- Union, Intersection ---

// Union is the default, non-literal-preserving constructor:
// flattens, drops Never, absorbs Any/Unknown, dedupes, sorts by the total
// TypeId ordering, and collapses a {true, false} pair down to boolean.
func (in *Interner) Union(members ...TypeId) TypeId {
	return in.union(members, true)
}

// UnionPreserveLiterals is the distinct literal-preserving entry point
// for contextual-typing call sites that must keep discriminants alive
// through downward flow (e.g. the narrowing engine's join).
func (in *Interner) UnionPreserveLiterals(members ...TypeId) TypeId {
	return in.union(members, false)
}

func (in *Interner) union(members []TypeId, collapseBooleanLiterals bool) TypeId {
	flat := in.flatten(members, KindUnion)

	set := make(map[TypeId]bool, len(flat))
	for _, m := range flat {
		if m == in.NeverID {
			continue // unions absorb never
		}
		if m == in.AnyID {
			return in.AnyID // any | T = any
		}
		if m == in.UnknownID {
			return in.UnknownID // unknown | T = unknown
		}
		set[m] = true
	}

	if collapseBooleanLiterals {
		trueID := in.LiteralBoolean(true)
		falseID := in.LiteralBoolean(false)
		if set[trueID] && set[falseID] {
			delete(set, trueID)
			delete(set, falseID)
			set[in.BooleanID] = true
		}
	}

	ids := make([]TypeId, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return Less(ids[i], ids[j]) })

	switch len(ids) {
	case 0:
		return in.NeverID
	case 1:
		return ids[0]
	}

	var b strings.Builder
	b.WriteString("u:")
	for _, id := range ids {
		fmt.Fprintf(&b, "%d,", id)
	}
	return in.intern(unionKey{members: ids, key: b.String()})
}

// Intersection is the sole intersection constructor: flattens,
// drops Unknown, reduces to Never on Any-absent disjoint-primitive or
// property-conflict collisions, dedupes, and sorts.
func (in *Interner) Intersection(members ...TypeId) TypeId {
	flat := in.flatten(members, KindIntersection)

	set := make(map[TypeId]bool, len(flat))
	for _, m := range flat {
		if m == in.UnknownID {
			continue // intersections absorb unknown
		}
		if m == in.AnyID {
			return in.AnyID // T & any = any
		}
		if m == in.NeverID {
			return in.NeverID
		}
		set[m] = true
	}

	ids := make([]TypeId, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return Less(ids[i], ids[j]) })

	if in.hasDisjointCollision(ids) {
		return in.NeverID
	}

	switch len(ids) {
	case 0:
		return in.UnknownID
	case 1:
		return ids[0]
	}

	var b strings.Builder
	b.WriteString("n:")
	for _, id := range ids {
		fmt.Fprintf(&b, "%d,", id)
	}
	return in.intern(intersectionKey{members: ids, key: b.String()})
}

func (in *Interner) flatten(members []TypeId, kind VariantKind) []TypeId {
	out := make([]TypeId, 0, len(members))
	var walk func(TypeId)
	walk = func(id TypeId) {
		key := in.Get(id)
		if key.VariantKind() == kind {
			var nested []TypeId
			if kind == KindUnion {
				nested = key.(unionKey).members
			} else {
				nested = key.(intersectionKey).members
			}
			for _, n := range nested {
				walk(n)
			}
			return
		}
		out = append(out, id)
	}
	for _, m := range members {
		walk(m)
	}
	return out
}

// hasDisjointCollision implements the shallow disjointness check that
// reduces an intersection of disjoint primitives or property-conflicting
// objects to never: distinct ground primitive
// intrinsics/literals can never share a value, and two Object members
// that both declare the same property name with value types that are
// themselves primitive-disjoint can never be simultaneously satisfied.
// This is intentionally shallow (it does not recursively intersect
// nested object graphs) — see DESIGN.md.
func (in *Interner) hasDisjointCollision(ids []TypeId) bool {
	var primitiveKinds []IntrinsicKind
	var objects []ObjectShape
	for _, id := range ids {
		switch key := in.Get(id).(type) {
		case intrinsicKey:
			switch key.kind {
			case StringKind, NumberKind, BooleanKind, BigIntKind, SymbolKind, NullKind, Undefined, Void:
				primitiveKinds = append(primitiveKinds, key.kind)
			}
		case literalKey:
			primitiveKinds = append(primitiveKinds, literalGroundKind(key.kind))
		case objectKey:
			objects = append(objects, key.shape)
		}
	}
	for i := 0; i < len(primitiveKinds); i++ {
		for j := i + 1; j < len(primitiveKinds); j++ {
			if primitiveKinds[i] != primitiveKinds[j] {
				return true
			}
		}
	}
	for i := 0; i < len(objects); i++ {
		for j := i + 1; j < len(objects); j++ {
			if in.objectPropertyTypesConflict(objects[i], objects[j]) {
				return true
			}
		}
	}
	return false
}

func literalGroundKind(k LiteralKind) IntrinsicKind {
	switch k {
	case LitString:
		return StringKind
	case LitNumber:
		return NumberKind
	case LitBoolean:
		return BooleanKind
	case LitBigInt:
		return BigIntKind
	default:
		return SymbolKind
	}
}

func (in *Interner) objectPropertyTypesConflict(a, b ObjectShape) bool {
	bByName := make(map[string]TypeId, len(b.Properties))
	for _, p := range b.Properties {
		bByName[p.Name] = p.Type
	}
	for _, pa := range a.Properties {
		pb, ok := bByName[pa.Name]
		if !ok {
			continue
		}
		if in.shallowPrimitiveDisjoint(pa.Type, pb) {
			return true
		}
	}
	return false
}

func (in *Interner) shallowPrimitiveDisjoint(a, b TypeId) bool {
	ka, okA := in.Get(a).(intrinsicKey)
	kb, okB := in.Get(b).(intrinsicKey)
	if okA && okB {
		primitive := func(k IntrinsicKind) bool {
			switch k {
			case StringKind, NumberKind, BooleanKind, BigIntKind, SymbolKind:
				return true
			}
			return false
		}
		return primitive(ka.kind) && primitive(kb.kind) && ka.kind != kb.kind
	}
	return false
}

// --- Lazy, Application ---

func (in *Interner) Lazy(def DefId) TypeId {
	return in.intern(lazyKey{def: def})
}

func (in *Interner) Application(def DefId, args []TypeId) TypeId {
	var b strings.Builder
	fmt.Fprintf(&b, "ap:%d:", def)
	for _, a := range args {
		fmt.Fprintf(&b, "%d,", a)
	}
	return in.intern(applicationKey{def: def, args: args, key: b.String()})
}

// --- Conditional, Mapped, IndexAccess, KeyOf, TemplateLiteral ---

func (in *Interner) Conditional(check, extends, trueBranch, falseBranch TypeId, infers []InferBinding) TypeId {
	var b strings.Builder
	fmt.Fprintf(&b, "c:%d?%d:%d:%d", check, extends, trueBranch, falseBranch)
	for _, inf := range infers {
		fmt.Fprintf(&b, ",%s=%d", inf.Name, inf.Id)
	}
	return in.intern(conditionalKey{check: check, extends: extends, trueBranch: trueBranch, falseBranch: falseBranch, infers: infers, key: b.String()})
}

type MappedSpec struct {
	ParamName  string
	Constraint TypeId
	Value      TypeId
	AsClause   TypeId
	Optional   MappedModifier
	ReadonlyM  MappedModifier
}

func (in *Interner) Mapped(m MappedSpec) TypeId {
	key := fmt.Sprintf("m:%s:%d:%d:%d:%d:%d", m.ParamName, m.Constraint, m.Value, m.AsClause, m.Optional, m.ReadonlyM)
	return in.intern(mappedKey{
		paramName: m.ParamName, constraint: m.Constraint, value: m.Value,
		asClause: m.AsClause, optional: m.Optional, readonlyM: m.ReadonlyM, key: key,
	})
}

func (in *Interner) IndexAccess(object, index TypeId) TypeId {
	return in.intern(indexAccessKey{object: object, index: index})
}

func (in *Interner) KeyOf(operand TypeId) TypeId {
	return in.intern(keyOfKey{operand: operand})
}

func (in *Interner) TemplateLiteral(fragments []string, placeholders []TypeId) TypeId {
	var b strings.Builder
	b.WriteString("tl:")
	for _, f := range fragments {
		fmt.Fprintf(&b, "%q,", f)
	}
	for _, p := range placeholders {
		fmt.Fprintf(&b, "%d,", p)
	}
	return in.intern(templateLiteralKey{fragments: fragments, placeholders: placeholders, key: b.String()})
}

// --- TypeParameter, Infer, StringIntrinsic, Readonly ---

// TypeParameter always allocates a fresh identity: two parameters
// with identical name/constraint/default from different declaration
// sites must never alias.
func (in *Interner) TypeParameter(info TypeParamInfo) TypeId {
	return in.internUniq(func(uniq uint64) TypeKey {
		return typeParameterKey{info: info, uniq: uniq}
	})
}

// Infer allocates a fresh `infer R` binding identity, for the same reason
// as TypeParameter.
func (in *Interner) Infer(name string) TypeId {
	return in.internUniq(func(uniq uint64) TypeKey {
		return inferKey{name: name, uniq: uniq}
	})
}

func (in *Interner) StringIntrinsic(kind StringIntrinsicKind, operand TypeId) TypeId {
	return in.intern(stringIntrinsicKey{kind: kind, operand: operand})
}

func (in *Interner) Readonly(operand TypeId) TypeId {
	return in.intern(readonlyKey{operand: operand})
}
