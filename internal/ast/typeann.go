package ast

// TypeAnn is the read-only syntax the checker feeds to Evaluator/TypeInterner
// constructors when it first resolves a type-position node to a TypeId. The
// engine never re-derives type structure from a TypeAnn after that first
// resolution — TypeAnn is consumed once, at binding time, exactly like the
// rest of this package.
type TypeAnn interface {
	Node
	typeAnnNode()
}

type typeAnnBase struct{ base }

func (typeAnnBase) typeAnnNode() {}

// KeywordKind names the built-in keyword type annotations.
type KeywordKind int

const (
	KeywordAny KeywordKind = iota
	KeywordUnknown
	KeywordNever
	KeywordVoid
	KeywordUndefined
	KeywordNull
	KeywordString
	KeywordNumber
	KeywordBoolean
	KeywordBigint
	KeywordSymbol
	KeywordObject
)

type KeywordTypeAnn struct {
	typeAnnBase
	Keyword KeywordKind
}

func (*KeywordTypeAnn) Kind() Kind { return KindKeywordTypeAnn }

// LiteralKind names the literal-type annotation's value kind.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralNumber
	LiteralBoolean
	LiteralBigint
)

type LiteralTypeAnn struct {
	typeAnnBase
	LitKind LiteralKind
	Text    string
	Num     float64
	Bool    bool
}

func (*LiteralTypeAnn) Kind() Kind { return KindLiteralTypeAnn }

// TypeRefAnn is a reference to a named declaration, optionally applied to
// type arguments: `Name<Args...>`.
type TypeRefAnn struct {
	typeAnnBase
	Name     string
	TypeArgs []TypeAnn
}

func (*TypeRefAnn) Kind() Kind { return KindTypeRefAnn }

// ObjectTypeMember is one member of an object-type or interface literal.
type ObjectTypeMember struct {
	Name           string
	TypeAnn        TypeAnn
	Optional       bool
	Readonly       bool
	IsCallSig      bool
	IsConstructSig bool
	IsIndexSig     bool
	IndexKeyType   TypeAnn // string or number, for an index signature
	Fn             *FunctionTypeAnn
}

type ObjectTypeAnn struct {
	typeAnnBase
	Members []ObjectTypeMember
}

func (*ObjectTypeAnn) Kind() Kind { return KindObjectTypeAnn }

type ArrayTypeAnn struct {
	typeAnnBase
	Element TypeAnn
}

func (*ArrayTypeAnn) Kind() Kind { return KindArrayTypeAnn }

// TupleElement carries a tuple element's optional/rest/label modifiers.
type TupleElement struct {
	TypeAnn  TypeAnn
	Optional bool
	Rest     bool
	Label    string
}

type TupleTypeAnn struct {
	typeAnnBase
	Elements []TupleElement
}

func (*TupleTypeAnn) Kind() Kind { return KindTupleTypeAnn }

type UnionTypeAnn struct {
	typeAnnBase
	Members []TypeAnn
}

func (*UnionTypeAnn) Kind() Kind { return KindUnionTypeAnn }

type IntersectionTypeAnn struct {
	typeAnnBase
	Members []TypeAnn
}

func (*IntersectionTypeAnn) Kind() Kind { return KindIntersectionTypeAnn }

type FunctionTypeAnn struct {
	typeAnnBase
	TypeParams []TypeParamDecl
	Params     []Param
	Return     TypeAnn
}

func (*FunctionTypeAnn) Kind() Kind { return KindFunctionTypeAnn }

// ConditionalTypeAnn is `Check extends Extends ? True : False`.
type ConditionalTypeAnn struct {
	typeAnnBase
	Check, Extends, True, False TypeAnn
}

func (*ConditionalTypeAnn) Kind() Kind { return KindConditionalTypeAnn }

// InferTypeAnn is an `infer R` binding, legal only inside a Conditional's
// Extends position.
type InferTypeAnn struct {
	typeAnnBase
	Name string
}

func (*InferTypeAnn) Kind() Kind { return KindInferTypeAnn }

// MappedModifier is the add/remove/none modifier on `?` or `readonly` in a
// mapped type.
type MappedModifier int

const (
	ModifierNone MappedModifier = iota
	ModifierAdd
	ModifierRemove
)

// MappedTypeAnn is `{ [K in C]?: V }` with an optional `as` clause.
type MappedTypeAnn struct {
	typeAnnBase
	ParamName  string
	Constraint TypeAnn
	Value      TypeAnn
	AsClause   TypeAnn // nil when there is no renaming clause
	Optional   MappedModifier
	ReadonlyM  MappedModifier
}

func (*MappedTypeAnn) Kind() Kind { return KindMappedTypeAnn }

type IndexedAccessTypeAnn struct {
	typeAnnBase
	Object, Index TypeAnn
}

func (*IndexedAccessTypeAnn) Kind() Kind { return KindIndexedAccessTypeAnn }

type KeyOfTypeAnn struct {
	typeAnnBase
	Operand TypeAnn
}

func (*KeyOfTypeAnn) Kind() Kind { return KindKeyOfTypeAnn }

// TemplateLiteralTypeAnn alternates literal string fragments with
// placeholder type annotations: len(Fragments) == len(Placeholders)+1.
type TemplateLiteralTypeAnn struct {
	typeAnnBase
	Fragments    []string
	Placeholders []TypeAnn
}

func (*TemplateLiteralTypeAnn) Kind() Kind { return KindTemplateLiteralTypeAnn }

// StringIntrinsicKind names the four built-in string-manipulation
// intrinsics.
type StringIntrinsicKind int

const (
	IntrinsicUppercase StringIntrinsicKind = iota
	IntrinsicLowercase
	IntrinsicCapitalize
	IntrinsicUncapitalize
)

type StringIntrinsicTypeAnn struct {
	typeAnnBase
	IntrinsicKind StringIntrinsicKind
	Operand       TypeAnn
}

func (*StringIntrinsicTypeAnn) Kind() Kind { return KindStringIntrinsicTypeAnn }

type ReadonlyTypeAnn struct {
	typeAnnBase
	Operand TypeAnn
}

func (*ReadonlyTypeAnn) Kind() Kind { return KindReadonlyTypeAnn }

// TypeQueryAnn is the type-position `typeof expr`.
type TypeQueryAnn struct {
	typeAnnBase
	ExprName string
}

func (*TypeQueryAnn) Kind() Kind { return KindTypeQueryAnn }
