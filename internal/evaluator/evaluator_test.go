package evaluator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunholo/tscore/internal/defstore"
	"github.com/sunholo/tscore/internal/types"
)

// fakeSubtyper is a minimal reflexive-plus-any Subtyper, enough to drive
// the Conditional reduction tests without depending on internal/relation
// (which itself depends on this package — see evaluator.go's Subtyper doc).
type fakeSubtyper struct{ in *types.Interner }

func (f fakeSubtyper) IsSubtype(src, tgt types.TypeId) bool {
	if src == tgt || tgt == f.in.AnyID || tgt == f.in.UnknownID {
		return true
	}
	return false
}

func TestEvaluateIdempotent(t *testing.T) {
	in := types.NewInterner()
	defs := defstore.New(in)
	e := New(in, defs, nil, 0)
	e.SetSubtyper(fakeSubtyper{in})

	cond := in.Conditional(in.StringID, in.StringID, in.NumberID, in.BooleanID, nil)
	once := e.Evaluate(cond)
	twice := e.Evaluate(once)
	require.Equal(t, once, twice)
	require.Equal(t, in.NumberID, once, "T extends T ? X : Y = X when check <: extends")
}

func TestKeyOfObject(t *testing.T) {
	in := types.NewInterner()
	defs := defstore.New(in)
	e := New(in, defs, nil, 0)

	obj := in.Object(types.ObjectShape{Properties: []types.PropertyDef{
		{Name: "a", Type: in.StringID},
		{Name: "b", Type: in.NumberID},
	}})
	got := e.Evaluate(in.KeyOf(obj))
	want := in.Union(in.LiteralString("a"), in.LiteralString("b"))
	require.Equal(t, want, got)
}

func TestIndexedAccess(t *testing.T) {
	in := types.NewInterner()
	defs := defstore.New(in)
	e := New(in, defs, nil, 0)

	obj := in.Object(types.ObjectShape{Properties: []types.PropertyDef{{Name: "a", Type: in.StringID}}})
	got := e.Evaluate(in.IndexAccess(obj, in.LiteralString("a")))
	require.Equal(t, in.StringID, got)
}

func TestStringIntrinsicUppercase(t *testing.T) {
	in := types.NewInterner()
	defs := defstore.New(in)
	e := New(in, defs, nil, 0)

	got := e.Evaluate(in.StringIntrinsic(types.Uppercase, in.LiteralString("abc")))
	require.Equal(t, in.LiteralString("ABC"), got)
}

func TestCapitalizeOnlyFirstRune(t *testing.T) {
	in := types.NewInterner()
	defs := defstore.New(in)
	e := New(in, defs, nil, 0)

	got := e.Evaluate(in.StringIntrinsic(types.Capitalize, in.LiteralString("helloWorld")))
	require.Equal(t, in.LiteralString("HelloWorld"), got)
}

func TestTemplateLiteralConcatenatesAllLiteralPlaceholders(t *testing.T) {
	in := types.NewInterner()
	defs := defstore.New(in)
	e := New(in, defs, nil, 0)

	got := e.Evaluate(in.TemplateLiteral([]string{"a-", "-b"}, []types.TypeId{in.LiteralString("X")}))
	require.Equal(t, in.LiteralString("a-X-b"), got)
}

func TestTemplateLiteralStaysSymbolicForNonLiteralPlaceholder(t *testing.T) {
	in := types.NewInterner()
	defs := defstore.New(in)
	e := New(in, defs, nil, 0)

	tl := in.TemplateLiteral([]string{"a-", ""}, []types.TypeId{in.StringID})
	got := e.Evaluate(tl)
	require.Equal(t, tl, got)
}

func TestApplicationSubstitutesTypeAliasBody(t *testing.T) {
	in := types.NewInterner()
	defs := defstore.New(in)
	e := New(in, defs, nil, 0)

	tparam := in.TypeParameter(types.TypeParamInfo{Name: "T"})
	def := defs.Declare("Box", defstore.DeclTypeAlias, nil, []types.TypeParamInfo{{Name: "T"}})
	defs.SetTypeParamIDs(def, []types.TypeId{tparam})
	defs.SetAliasBody(def, in.Object(types.ObjectShape{Properties: []types.PropertyDef{{Name: "value", Type: tparam}}}))

	app := in.Application(def, []types.TypeId{in.StringID})
	got := e.Evaluate(app)
	want := in.Object(types.ObjectShape{Properties: []types.PropertyDef{{Name: "value", Type: in.StringID}}})
	require.Equal(t, want, got)
}

func TestMappedTypeOverLiteralKeys(t *testing.T) {
	in := types.NewInterner()
	defs := defstore.New(in)
	e := New(in, defs, nil, 0)

	constraint := in.Union(in.LiteralString("a"), in.LiteralString("b"))
	tparam := in.TypeParameter(types.TypeParamInfo{Name: "K"})
	mapped := in.Mapped(types.MappedSpec{
		ParamName:  "K",
		Constraint: constraint,
		Value:      tparam, // value itself is the key placeholder: {[K in "a"|"b"]: K}
	})

	got := e.Evaluate(mapped)
	objKey, ok := in.Get(got).(interface{ Shape() types.ObjectShape })
	require.True(t, ok)
	shape := objKey.Shape()
	require.Len(t, shape.Properties, 2)
}
