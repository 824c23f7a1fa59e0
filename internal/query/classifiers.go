package query

import "github.com/sunholo/tscore/internal/types"

// Every classifier returns a closed enum tagging a capability, never a
// TypeKey the checker might be tempted to switch on itself. The
// classifiers are not the checker's only view of type structure: it also
// reads Array elements and Object shapes from the interner directly.

// IterableKind tags how a type can be iterated.
type IterableKind int

const (
	IterableArray IterableKind = iota
	IterableTuple
	IterableString
	IterableIteratorObject
	IterableAsyncIterable
	IterableNot
)

// IterableClassification is ClassifyIterable's result; ElementType is
// valid only for IterableArray, IterableTuple (the union of element
// types), and IterableString (string). For the iterator-protocol kinds it
// is the zero TypeId.
type IterableClassification struct {
	Kind        IterableKind
	ElementType types.TypeId
}

// ClassifyIterable is the memoized `classify_iterable` query.
func (db *DB) ClassifyIterable(t types.TypeId) IterableClassification {
	key := cacheKey{op: "classifyIterable", a: t}
	return memo(db, key, func() IterableClassification { return db.classifyIterable(t) })
}

func (db *DB) classifyIterable(t types.TypeId) IterableClassification {
	in := db.interner
	ground := db.Evaluate(t)
	if ground == in.StringID {
		return IterableClassification{Kind: IterableString, ElementType: in.StringID}
	}
	key := in.Get(ground)
	if lit, ok := key.(interface {
		Kind() types.LiteralKind
	}); ok && lit.Kind() == types.LitString {
		return IterableClassification{Kind: IterableString, ElementType: in.StringID}
	}
	if arr, ok := key.(interface{ Element() types.TypeId }); ok && key.VariantKind() == types.KindArray {
		return IterableClassification{Kind: IterableArray, ElementType: arr.Element()}
	}
	if tup, ok := key.(interface{ Elements() []types.TupleElem }); ok {
		elems := tup.Elements()
		ids := make([]types.TypeId, 0, len(elems))
		for _, e := range elems {
			ids = append(ids, e.Type)
		}
		return IterableClassification{Kind: IterableTuple, ElementType: in.Union(ids...)}
	}
	if shape, ok := key.(interface{ Shape() types.ObjectShape }); ok {
		props := shape.Shape().Properties
		if elemT, ok := iteratorProtocolElement(props, "[Symbol.iterator]"); ok {
			return IterableClassification{Kind: IterableIteratorObject, ElementType: elemT}
		}
		if elemT, ok := iteratorProtocolElement(props, "[Symbol.asyncIterator]"); ok {
			return IterableClassification{Kind: IterableAsyncIterable, ElementType: elemT}
		}
	}
	return IterableClassification{Kind: IterableNot}
}

// iteratorProtocolElement looks for a property conventionally named
// protocolProp (this engine has no distinct symbol-keyed property
// representation — the binder is expected to surface `[Symbol.iterator]`/`[Symbol.asyncIterator]`
// as an ordinary string-named property when it builds the ObjectShape).
// Its presence alone is enough to classify the object as iterable; this
// engine does not additionally chase the signature's nested `next()`
// return shape to extract a precise element type, so ElementType is left
// as the zero (invalid) TypeId for a found protocol method.
func iteratorProtocolElement(props []types.PropertyDef, protocolProp string) (types.TypeId, bool) {
	for _, p := range props {
		if p.Name == protocolProp {
			return 0, true
		}
	}
	return 0, false
}

// CallableClassification is ClassifyCallable's result.
type CallableClassification struct {
	Callable   bool
	Signatures []types.Signature
}

// ClassifyCallable is the memoized `classify_callable` query.
func (db *DB) ClassifyCallable(t types.TypeId) CallableClassification {
	key := cacheKey{op: "classifyCallable", a: t}
	return memo(db, key, func() CallableClassification {
		sigs := db.GetCallSignatures(t)
		return CallableClassification{Callable: len(sigs) > 0, Signatures: sigs}
	})
}

// PrimitiveKind tags a type's ground primitive shape.
type PrimitiveKind int

const (
	PrimString PrimitiveKind = iota
	PrimNumber
	PrimBoolean
	PrimBigInt
	PrimSymbol
	PrimNull
	PrimUndefined
	PrimVoid
	PrimObject
	PrimAnyOrUnknown
	PrimNever
	PrimMixed
)

// ClassifyPrimitive is the memoized `classify_primitive` query.
func (db *DB) ClassifyPrimitive(t types.TypeId) PrimitiveKind {
	key := cacheKey{op: "classifyPrimitive", a: t}
	return memo(db, key, func() PrimitiveKind { return db.classifyPrimitive(t) })
}

func (db *DB) classifyPrimitive(t types.TypeId) PrimitiveKind {
	in := db.interner
	ground := db.Evaluate(t)
	switch ground {
	case in.AnyID, in.UnknownID:
		return PrimAnyOrUnknown
	case in.NeverID:
		return PrimNever
	case in.VoidID:
		return PrimVoid
	case in.UndefinedID:
		return PrimUndefined
	case in.NullID:
		return PrimNull
	case in.StringID:
		return PrimString
	case in.NumberID:
		return PrimNumber
	case in.BooleanID:
		return PrimBoolean
	case in.BigIntID:
		return PrimBigInt
	case in.SymbolID:
		return PrimSymbol
	}
	key := in.Get(ground)
	if lit, ok := key.(interface {
		Kind() types.LiteralKind
	}); ok {
		switch lit.Kind() {
		case types.LitString:
			return PrimString
		case types.LitNumber:
			return PrimNumber
		case types.LitBoolean:
			return PrimBoolean
		case types.LitBigInt:
			return PrimBigInt
		case types.LitUniqueSymbol:
			return PrimSymbol
		}
	}
	if key.VariantKind() == types.KindUnion {
		return PrimMixed
	}
	return PrimObject
}

// TruthinessKind tags whether a type's runtime values are always, never,
// or sometimes truthy.
type TruthinessKind int

const (
	TruthinessAlwaysTruthy TruthinessKind = iota
	TruthinessAlwaysFalsy
	TruthinessMixed
)

// ClassifyTruthiness is the memoized `classify_truthiness` query. Unlike
// internal/narrowing's guard filter (which partitions a union's members
// for flow narrowing), this answers a single yes/no/maybe question about
// one TypeId as a whole, for diagnostics like an always-truthy condition.
func (db *DB) ClassifyTruthiness(t types.TypeId) TruthinessKind {
	key := cacheKey{op: "classifyTruthiness", a: t}
	return memo(db, key, func() TruthinessKind { return db.classifyTruthiness(t) })
}

func (db *DB) classifyTruthiness(t types.TypeId) TruthinessKind {
	in := db.interner
	ground := db.Evaluate(t)
	key := in.Get(ground)

	if key.VariantKind() == types.KindUnion {
		members := key.(interface{ Members() []types.TypeId }).Members()
		sawTruthy, sawFalsy := false, false
		for _, m := range members {
			switch db.classifyTruthiness(m) {
			case TruthinessAlwaysTruthy:
				sawTruthy = true
			case TruthinessAlwaysFalsy:
				sawFalsy = true
			default:
				return TruthinessMixed
			}
		}
		if sawTruthy && sawFalsy {
			return TruthinessMixed
		}
		if sawFalsy {
			return TruthinessAlwaysFalsy
		}
		return TruthinessAlwaysTruthy
	}

	if ground == in.NullID || ground == in.UndefinedID || ground == in.VoidID {
		return TruthinessAlwaysFalsy
	}
	if lit, ok := key.(interface {
		Kind() types.LiteralKind
		StringValue() string
		NumberValue() float64
		BoolValue() bool
	}); ok {
		switch lit.Kind() {
		case types.LitString:
			if lit.StringValue() == "" {
				return TruthinessAlwaysFalsy
			}
			return TruthinessAlwaysTruthy
		case types.LitNumber:
			if lit.NumberValue() == 0 {
				return TruthinessAlwaysFalsy
			}
			return TruthinessAlwaysTruthy
		case types.LitBoolean:
			if !lit.BoolValue() {
				return TruthinessAlwaysFalsy
			}
			return TruthinessAlwaysTruthy
		}
	}
	switch ground {
	case in.StringID, in.NumberID, in.BooleanID, in.BigIntID, in.AnyID, in.UnknownID:
		return TruthinessMixed
	}
	return TruthinessAlwaysTruthy // objects, arrays, functions: always truthy at runtime
}
