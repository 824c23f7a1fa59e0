package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunholo/tscore/internal/defstore"
	"github.com/sunholo/tscore/internal/evaluator"
	"github.com/sunholo/tscore/internal/options"
	"github.com/sunholo/tscore/internal/relation"
	"github.com/sunholo/tscore/internal/types"
)

func newFixture() (*types.Interner, *DB) {
	in := types.NewInterner()
	defs := defstore.New(in)
	eval := evaluator.New(in, defs, nil, 0)
	judge := relation.NewJudge(in, eval, 0)
	eval.SetSubtyper(judge)
	lawyer := relation.NewLawyer(judge, in)
	db := New(in, defs, eval, judge, lawyer, options.Default())
	return in, db
}

func TestIsSubtypeIsMemoizedAcrossCalls(t *testing.T) {
	in, db := newFixture()
	require.True(t, db.IsSubtype(in.LiteralString("a"), in.StringID))
	require.True(t, db.IsSubtype(in.LiteralString("a"), in.StringID), "second call hits the cache, not a fresh Judge walk")
}

func TestSetOptionsClearsWholeCache(t *testing.T) {
	in, db := newFixture()
	require.True(t, db.IsSubtype(in.StringID, in.StringID))
	require.Len(t, db.cache, 1)
	db.SetOptions(options.CompilerOptions{StrictNullChecks: true})
	require.Len(t, db.cache, 0)
}

func TestGetPropertyType(t *testing.T) {
	in, db := newFixture()
	obj := in.Object(types.ObjectShape{Properties: []types.PropertyDef{{Name: "x", Type: in.NumberID}}})
	got, ok := db.GetPropertyType(obj, "x")
	require.True(t, ok)
	require.Equal(t, in.NumberID, got)

	_, ok = db.GetPropertyType(obj, "missing")
	require.False(t, ok)
}

func TestGetIndexSignature(t *testing.T) {
	in, db := newFixture()
	obj := in.Object(types.ObjectShape{StringIndexer: in.NumberID})
	got, ok := db.GetIndexSignature(obj, IndexString)
	require.True(t, ok)
	require.Equal(t, in.NumberID, got)

	_, ok = db.GetIndexSignature(obj, IndexNumber)
	require.False(t, ok)
}

func TestClassifyIterableArray(t *testing.T) {
	in, db := newFixture()
	arr := in.Array(in.StringID)
	c := db.ClassifyIterable(arr)
	require.Equal(t, IterableArray, c.Kind)
	require.Equal(t, in.StringID, c.ElementType)
}

func TestClassifyIterableString(t *testing.T) {
	in, db := newFixture()
	c := db.ClassifyIterable(in.StringID)
	require.Equal(t, IterableString, c.Kind)
}

func TestClassifyIterableNot(t *testing.T) {
	_, db := newFixture()
	c := db.ClassifyIterable(db.interner.NumberID)
	require.Equal(t, IterableNot, c.Kind)
}

func TestClassifyCallable(t *testing.T) {
	in, db := newFixture()
	fn := in.Object(types.ObjectShape{CallSigs: []types.Signature{{Return: in.VoidID}}})
	c := db.ClassifyCallable(fn)
	require.True(t, c.Callable)
	require.Len(t, c.Signatures, 1)

	notFn := db.ClassifyCallable(in.StringID)
	require.False(t, notFn.Callable)
}

func TestClassifyPrimitiveWidensLiterals(t *testing.T) {
	in, db := newFixture()
	require.Equal(t, PrimString, db.ClassifyPrimitive(in.LiteralString("x")))
	require.Equal(t, PrimNumber, db.ClassifyPrimitive(in.NumberID))
	require.Equal(t, PrimAnyOrUnknown, db.ClassifyPrimitive(in.AnyID))
}

func TestClassifyPrimitiveObjectAndMixed(t *testing.T) {
	in, db := newFixture()
	obj := in.Object(types.ObjectShape{})
	require.Equal(t, PrimObject, db.ClassifyPrimitive(obj))
	require.Equal(t, PrimMixed, db.ClassifyPrimitive(in.Union(in.StringID, in.NumberID)))
}

func TestClassifyTruthiness(t *testing.T) {
	in, db := newFixture()
	require.Equal(t, TruthinessAlwaysFalsy, db.ClassifyTruthiness(in.NullID))
	require.Equal(t, TruthinessAlwaysFalsy, db.ClassifyTruthiness(in.LiteralBoolean(false)))
	require.Equal(t, TruthinessAlwaysTruthy, db.ClassifyTruthiness(in.LiteralString("x")))
	require.Equal(t, TruthinessMixed, db.ClassifyTruthiness(in.StringID))
	require.Equal(t, TruthinessMixed, db.ClassifyTruthiness(in.Union(in.StringID, in.NullID)))
}

func TestInstantiateSubstitutesTypeAliasBody(t *testing.T) {
	in, db := newFixture()
	tparam := in.TypeParameter(types.TypeParamInfo{Name: "T"})
	def := db.defs.Declare("Box", defstore.DeclTypeAlias, nil, []types.TypeParamInfo{{Name: "T"}})
	db.defs.SetTypeParamIDs(def, []types.TypeId{tparam})
	db.defs.SetAliasBody(def, in.Object(types.ObjectShape{Properties: []types.PropertyDef{{Name: "value", Type: tparam}}}))

	got := db.Instantiate(def, []types.TypeId{in.StringID})
	want := in.Object(types.ObjectShape{Properties: []types.PropertyDef{{Name: "value", Type: in.StringID}}})
	require.Equal(t, want, got)
}
