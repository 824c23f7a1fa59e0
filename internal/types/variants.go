package types

import "fmt"

// VariantKind tags which of the closed set of type shapes a TypeKey holds.
type VariantKind int

const (
	KindIntrinsic VariantKind = iota
	KindLiteral
	KindObject
	KindArray
	KindTuple
	KindUnion
	KindIntersection
	KindLazy
	KindApplication
	KindConditional
	KindMapped
	KindIndexAccess
	KindKeyOf
	KindTemplateLiteral
	KindTypeParameter
	KindInfer
	KindStringIntrinsic
	KindReadonly
	KindError
)

func (k VariantKind) String() string {
	names := [...]string{
		"Intrinsic", "Literal", "Object", "Array", "Tuple", "Union",
		"Intersection", "Lazy", "Application", "Conditional", "Mapped",
		"IndexAccess", "KeyOf", "TemplateLiteral", "TypeParameter",
		"Infer", "StringIntrinsic", "Readonly", "Error",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return fmt.Sprintf("VariantKind(%d)", int(k))
}

// IntrinsicKind enumerates the primitive kinds. The silent error bottom
// is deliberately not one of them: it is its own top-level Error variant
// with its own constructor, not a parameter to Intrinsic — see
// DESIGN.md.
type IntrinsicKind int

const (
	Any IntrinsicKind = iota
	Unknown
	Never
	Void
	Undefined
	NullKind
	StringKind
	NumberKind
	BooleanKind
	BigIntKind
	SymbolKind
	ObjectKind
)

func (k IntrinsicKind) String() string {
	names := [...]string{
		"any", "unknown", "never", "void", "undefined", "null",
		"string", "number", "boolean", "bigint", "symbol", "object",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return fmt.Sprintf("IntrinsicKind(%d)", int(k))
}

// LiteralKind enumerates the literal value kinds a Literal can hold.
type LiteralKind int

const (
	LitString LiteralKind = iota
	LitNumber
	LitBoolean
	LitBigInt
	LitUniqueSymbol
)

// StringIntrinsicKind enumerates the four built-in string-manipulation
// type operators a StringIntrinsic can apply.
type StringIntrinsicKind int

const (
	Uppercase StringIntrinsicKind = iota
	Lowercase
	Capitalize
	Uncapitalize
)

func (k StringIntrinsicKind) String() string {
	names := [...]string{"Uppercase", "Lowercase", "Capitalize", "Uncapitalize"}
	if int(k) < len(names) {
		return names[k]
	}
	return fmt.Sprintf("StringIntrinsicKind(%d)", int(k))
}

// Variance is the declared-site variance hint a TypeParameter may carry.
// The relation engine does not read it: variance is always derived
// structurally.
type Variance int

const (
	VarianceInvariant Variance = iota
	VarianceCovariant
	VarianceContravariant
	VarianceBivariant
)

// PropertyDef is one member of an Object's ordered property list.
type PropertyDef struct {
	Name     string
	Type     TypeId
	Optional bool
	Readonly bool
}

// Param is one parameter of a call/construct Signature.
type Param struct {
	Name     string
	Type     TypeId
	Optional bool
	Rest     bool
}

// Signature is a call or construct signature, possibly generic; TypeParams
// is empty for a non-generic signature. MethodShorthand records whether
// the signature came from a method-shorthand class/interface member
// (`foo(): void`) rather than a property-function (`foo: () => void`) —
// the fact the Lawyer's method-bivariance override keys
// on, carried on the signature because that syntactic distinction is
// otherwise lost once a member is interned into structural form.
type Signature struct {
	TypeParams      []TypeParamInfo
	Params          []Param
	Return          TypeId
	MethodShorthand bool
}

// ObjectShape is the full structural content of an Object variant.
type ObjectShape struct {
	Properties    []PropertyDef
	CallSigs      []Signature
	ConstructSigs []Signature
	StringIndexer TypeId // 0 when absent
	NumberIndexer TypeId // 0 when absent
	NominalBrands []string
}

// TupleElem is one element descriptor of a Tuple: fixed, optional,
// rest, or labeled.
type TupleElem struct {
	Type     TypeId
	Optional bool
	Rest     bool
	Label    string
}

// TypeParamInfo describes a generic parameter: its declared constraint
// (0 when none), default (0 when none), and variance hint.
type TypeParamInfo struct {
	Name       string
	Constraint TypeId
	Default    TypeId
	Variance   Variance
}

// InferBinding is one `infer R` collected from a Conditional's extends
// position.
type InferBinding struct {
	Name string
	Id   TypeId // the Infer variant's own TypeId
}

// MappedModifier is the add/remove/none modifier on `?` or `readonly` in
// a Mapped type.
type MappedModifier int

const (
	ModifierNone MappedModifier = iota
	ModifierAdd
	ModifierRemove
)

// TypeKey is the canonicalized, tagged-variant content the Interner maps
// a TypeId to. Construction is closed: every concrete key type lives in
// this file, and every constructor that builds one lives in interner.go.
type TypeKey interface {
	VariantKind() VariantKind
	canonicalKey() string
}

type intrinsicKey struct{ kind IntrinsicKind }

func (k intrinsicKey) VariantKind() VariantKind { return KindIntrinsic }
func (k intrinsicKey) canonicalKey() string     { return fmt.Sprintf("i:%d", k.kind) }

// Kind exposes the intrinsic kind to the evaluator/relation/classifier
// layers without their needing the unexported struct.
func (k intrinsicKey) Kind() IntrinsicKind { return k.kind }

type literalKey struct {
	kind    LiteralKind
	str     string
	num     float64
	boolean bool
	symID   uint64
}

func (k literalKey) VariantKind() VariantKind { return KindLiteral }
func (k literalKey) canonicalKey() string {
	switch k.kind {
	case LitString:
		return fmt.Sprintf("l:s:%q", k.str)
	case LitNumber:
		return fmt.Sprintf("l:n:%v", k.num)
	case LitBoolean:
		return fmt.Sprintf("l:b:%v", k.boolean)
	case LitBigInt:
		return fmt.Sprintf("l:i:%s", k.str)
	default: // LitUniqueSymbol
		return fmt.Sprintf("l:u:%d", k.symID)
	}
}

func (k literalKey) Kind() LiteralKind    { return k.kind }
func (k literalKey) StringValue() string  { return k.str }
func (k literalKey) NumberValue() float64 { return k.num }
func (k literalKey) BoolValue() bool      { return k.boolean }
func (k literalKey) SymbolID() uint64     { return k.symID }

type objectKey struct {
	shape ObjectShape
	// sortedKey is the dedup key computed once at construction time, from
	// properties sorted by name — declaration order is preserved in
	// shape.Properties for display/iteration, only the dedup key ignores it.
	sortedKey string
}

func (k objectKey) VariantKind() VariantKind { return KindObject }
func (k objectKey) canonicalKey() string     { return k.sortedKey }
func (k objectKey) Shape() ObjectShape       { return k.shape }

type arrayKey struct{ elem TypeId }

func (k arrayKey) VariantKind() VariantKind { return KindArray }
func (k arrayKey) canonicalKey() string     { return fmt.Sprintf("a:%d", k.elem) }
func (k arrayKey) Element() TypeId          { return k.elem }

type tupleKey struct {
	elems []TupleElem
	key   string
}

func (k tupleKey) VariantKind() VariantKind { return KindTuple }
func (k tupleKey) canonicalKey() string     { return k.key }
func (k tupleKey) Elements() []TupleElem    { return k.elems }

type unionKey struct {
	members []TypeId
	key     string
}

func (k unionKey) VariantKind() VariantKind { return KindUnion }
func (k unionKey) canonicalKey() string     { return k.key }
func (k unionKey) Members() []TypeId        { return k.members }

type intersectionKey struct {
	members []TypeId
	key     string
}

func (k intersectionKey) VariantKind() VariantKind { return KindIntersection }
func (k intersectionKey) canonicalKey() string     { return k.key }
func (k intersectionKey) Members() []TypeId        { return k.members }

type lazyKey struct{ def DefId }

func (k lazyKey) VariantKind() VariantKind { return KindLazy }
func (k lazyKey) canonicalKey() string     { return fmt.Sprintf("z:%d", k.def) }
func (k lazyKey) Def() DefId               { return k.def }

type applicationKey struct {
	def  DefId
	args []TypeId
	key  string
}

func (k applicationKey) VariantKind() VariantKind { return KindApplication }
func (k applicationKey) canonicalKey() string     { return k.key }
func (k applicationKey) Def() DefId               { return k.def }
func (k applicationKey) Args() []TypeId           { return k.args }

type conditionalKey struct {
	check, extends, trueBranch, falseBranch TypeId
	infers                                  []InferBinding
	key                                     string
}

func (k conditionalKey) VariantKind() VariantKind { return KindConditional }
func (k conditionalKey) canonicalKey() string     { return k.key }
func (k conditionalKey) Check() TypeId            { return k.check }
func (k conditionalKey) Extends() TypeId          { return k.extends }
func (k conditionalKey) True() TypeId             { return k.trueBranch }
func (k conditionalKey) False() TypeId            { return k.falseBranch }
func (k conditionalKey) Infers() []InferBinding   { return k.infers }

type mappedKey struct {
	paramName  string
	constraint TypeId
	value      TypeId
	asClause   TypeId
	optional   MappedModifier
	readonlyM  MappedModifier
	key        string
}

func (k mappedKey) VariantKind() VariantKind    { return KindMapped }
func (k mappedKey) canonicalKey() string        { return k.key }
func (k mappedKey) ParamName() string           { return k.paramName }
func (k mappedKey) Constraint() TypeId          { return k.constraint }
func (k mappedKey) Value() TypeId               { return k.value }
func (k mappedKey) AsClause() TypeId            { return k.asClause }
func (k mappedKey) Optional() MappedModifier    { return k.optional }
func (k mappedKey) ReadonlyMod() MappedModifier { return k.readonlyM }

type indexAccessKey struct{ object, index TypeId }

func (k indexAccessKey) VariantKind() VariantKind { return KindIndexAccess }
func (k indexAccessKey) canonicalKey() string     { return fmt.Sprintf("x:%d:%d", k.object, k.index) }
func (k indexAccessKey) Object() TypeId           { return k.object }
func (k indexAccessKey) Index() TypeId            { return k.index }

type keyOfKey struct{ operand TypeId }

func (k keyOfKey) VariantKind() VariantKind { return KindKeyOf }
func (k keyOfKey) canonicalKey() string     { return fmt.Sprintf("k:%d", k.operand) }
func (k keyOfKey) Operand() TypeId          { return k.operand }

type templateLiteralKey struct {
	fragments    []string
	placeholders []TypeId
	key          string
}

func (k templateLiteralKey) VariantKind() VariantKind { return KindTemplateLiteral }
func (k templateLiteralKey) canonicalKey() string     { return k.key }
func (k templateLiteralKey) Fragments() []string      { return k.fragments }
func (k templateLiteralKey) Placeholders() []TypeId   { return k.placeholders }

type typeParameterKey struct {
	info TypeParamInfo
	uniq uint64
}

func (k typeParameterKey) VariantKind() VariantKind { return KindTypeParameter }
func (k typeParameterKey) canonicalKey() string     { return fmt.Sprintf("p:%d", k.uniq) }
func (k typeParameterKey) Info() TypeParamInfo      { return k.info }

type inferKey struct {
	name string
	uniq uint64
}

func (k inferKey) VariantKind() VariantKind { return KindInfer }
func (k inferKey) canonicalKey() string     { return fmt.Sprintf("f:%d", k.uniq) }
func (k inferKey) Name() string             { return k.name }

type stringIntrinsicKey struct {
	kind    StringIntrinsicKind
	operand TypeId
}

func (k stringIntrinsicKey) VariantKind() VariantKind  { return KindStringIntrinsic }
func (k stringIntrinsicKey) canonicalKey() string      { return fmt.Sprintf("s:%d:%d", k.kind, k.operand) }
func (k stringIntrinsicKey) Kind() StringIntrinsicKind { return k.kind }
func (k stringIntrinsicKey) Operand() TypeId           { return k.operand }

type readonlyKey struct{ operand TypeId }

func (k readonlyKey) VariantKind() VariantKind { return KindReadonly }
func (k readonlyKey) canonicalKey() string     { return fmt.Sprintf("r:%d", k.operand) }
func (k readonlyKey) Operand() TypeId          { return k.operand }

type errorKey struct{}

func (k errorKey) VariantKind() VariantKind { return KindError }
func (k errorKey) canonicalKey() string     { return "e" }
