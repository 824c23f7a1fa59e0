package relation

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunholo/tscore/internal/defstore"
	"github.com/sunholo/tscore/internal/evaluator"
	"github.com/sunholo/tscore/internal/types"
)

func newFixture() (*types.Interner, *evaluator.Evaluator, *Judge) {
	in := types.NewInterner()
	defs := defstore.New(in)
	eval := evaluator.New(in, defs, nil, 0)
	judge := NewJudge(in, eval, 0)
	eval.SetSubtyper(judge)
	return in, eval, judge
}

func TestLiteralSubtypeOfItsPrimitive(t *testing.T) {
	in, _, j := newFixture()
	require.True(t, j.IsSubtype(in.LiteralString("abc"), in.StringID))
	require.False(t, j.IsSubtype(in.StringID, in.LiteralString("abc")))
}

func TestAnyAndUnknownAndNever(t *testing.T) {
	in, _, j := newFixture()
	require.True(t, j.IsSubtype(in.StringID, in.AnyID))
	require.True(t, j.IsSubtype(in.StringID, in.UnknownID))
	require.True(t, j.IsSubtype(in.NeverID, in.StringID))
	require.False(t, j.IsSubtype(in.AnyID, in.NeverID))
}

func TestObjectWidthSubtyping(t *testing.T) {
	in, _, j := newFixture()
	wide := in.Object(types.ObjectShape{Properties: []types.PropertyDef{
		{Name: "x", Type: in.StringID},
		{Name: "y", Type: in.NumberID},
	}})
	narrow := in.Object(types.ObjectShape{Properties: []types.PropertyDef{
		{Name: "x", Type: in.StringID},
	}})
	require.True(t, j.IsSubtype(wide, narrow), "extra properties are fine for a subtype")
	require.False(t, j.IsSubtype(narrow, wide), "missing required property is not")
}

func TestOptionalTargetPropertyMayBeAbsent(t *testing.T) {
	in, _, j := newFixture()
	tgt := in.Object(types.ObjectShape{Properties: []types.PropertyDef{
		{Name: "x", Type: in.StringID, Optional: true},
	}})
	empty := in.Object(types.ObjectShape{})
	require.True(t, j.IsSubtype(empty, tgt))
}

func TestUnionSourceRequiresEveryMember(t *testing.T) {
	in, _, j := newFixture()
	u := in.Union(in.StringID, in.NumberID)
	require.True(t, j.IsSubtype(u, in.Union(in.StringID, in.NumberID, in.BooleanID)))
	require.False(t, j.IsSubtype(u, in.StringID))
}

func TestUnionTargetRequiresOneMember(t *testing.T) {
	in, _, j := newFixture()
	u := in.Union(in.StringID, in.NumberID)
	require.True(t, j.IsSubtype(in.StringID, u))
	require.False(t, j.IsSubtype(in.BooleanID, u))
}

func TestFunctionParameterContravariance(t *testing.T) {
	in, _, j := newFixture()
	wideParam := in.Object(types.ObjectShape{Properties: []types.PropertyDef{
		{Name: "x", Type: in.StringID}, {Name: "y", Type: in.NumberID},
	}})
	narrowParam := in.Object(types.ObjectShape{Properties: []types.PropertyDef{
		{Name: "x", Type: in.StringID},
	}})
	acceptsNarrow := in.Object(types.ObjectShape{CallSigs: []types.Signature{
		{Params: []types.Param{{Name: "p", Type: narrowParam}}, Return: in.VoidID},
	}})
	acceptsWide := in.Object(types.ObjectShape{CallSigs: []types.Signature{
		{Params: []types.Param{{Name: "p", Type: wideParam}}, Return: in.VoidID},
	}})
	require.True(t, j.IsSubtype(acceptsWide, acceptsNarrow),
		"a function accepting the wider param type is usable wherever the narrower one is expected")
	require.False(t, j.IsSubtype(acceptsNarrow, acceptsWide))
}

func TestVoidReturnRelaxationOnlyUnderAssignability(t *testing.T) {
	in, _, j := newFixture()
	lawyer := NewLawyer(j, in)
	returnsNumber := in.Object(types.ObjectShape{CallSigs: []types.Signature{
		{Return: in.NumberID},
	}})
	returnsVoid := in.Object(types.ObjectShape{CallSigs: []types.Signature{
		{Return: in.VoidID},
	}})
	require.True(t, lawyer.IsAssignable(returnsNumber, returnsVoid),
		"a callback returning number is assignable where void is expected (rule 2)")
	require.False(t, j.IsSubtype(returnsNumber, returnsVoid),
		"the pure Subtype policy a Conditional tests never relaxes void returns")
}

func TestMethodBivarianceOnlyForMethodShorthand(t *testing.T) {
	in, _, j := newFixture()
	lawyer := NewLawyer(j, in)
	animal := in.Object(types.ObjectShape{Properties: []types.PropertyDef{{Name: "name", Type: in.StringID}}})
	dog := in.Object(types.ObjectShape{Properties: []types.PropertyDef{
		{Name: "name", Type: in.StringID}, {Name: "breed", Type: in.StringID},
	}})

	methodTakesAnimal := in.Object(types.ObjectShape{CallSigs: []types.Signature{
		{Params: []types.Param{{Type: animal}}, Return: in.VoidID, MethodShorthand: true},
	}})
	methodTakesDog := in.Object(types.ObjectShape{CallSigs: []types.Signature{
		{Params: []types.Param{{Type: dog}}, Return: in.VoidID, MethodShorthand: true},
	}})
	require.True(t, lawyer.IsAssignable(methodTakesDog, methodTakesAnimal),
		"method-shorthand members compare bivariantly under assignability (rule 3)")

	propTakesAnimal := in.Object(types.ObjectShape{CallSigs: []types.Signature{
		{Params: []types.Param{{Type: animal}}, Return: in.VoidID},
	}})
	propTakesDog := in.Object(types.ObjectShape{CallSigs: []types.Signature{
		{Params: []types.Param{{Type: dog}}, Return: in.VoidID},
	}})
	require.False(t, lawyer.IsAssignable(propTakesDog, propTakesAnimal),
		"property-function members stay strictly contravariant")
}

func TestAnyEscapesBothDirectionsUnderAssignabilityOnly(t *testing.T) {
	in, _, j := newFixture()
	lawyer := NewLawyer(j, in)
	require.True(t, lawyer.IsAssignable(in.AnyID, in.StringID))
	require.True(t, lawyer.IsAssignable(in.StringID, in.AnyID))
	require.False(t, j.IsSubtype(in.AnyID, in.StringID),
		"any is not a structural subtype of string under the pure relation")
}

func TestWeakTypeDetectionRejectsNonOverlappingOptionalTarget(t *testing.T) {
	in, _, j := newFixture()
	lawyer := NewLawyer(j, in)
	weak := in.Object(types.ObjectShape{Properties: []types.PropertyDef{
		{Name: "a", Type: in.StringID, Optional: true},
		{Name: "b", Type: in.NumberID, Optional: true},
	}})
	unrelated := in.Object(types.ObjectShape{Properties: []types.PropertyDef{
		{Name: "c", Type: in.StringID},
	}})
	overlapping := in.Object(types.ObjectShape{Properties: []types.PropertyDef{
		{Name: "a", Type: in.StringID},
	}})
	require.False(t, lawyer.IsAssignable(unrelated, weak))
	require.True(t, lawyer.IsAssignable(overlapping, weak))
}

func TestRecursiveObjectDoesNotInfiniteLoop(t *testing.T) {
	in, _, j := newFixture()
	defs := defstore.New(in)
	_ = defs
	linkedListDef := mustDeclareLazyObject(t, in)
	require.True(t, j.IsSubtype(linkedListDef, linkedListDef))
}

// mustDeclareLazyObject declares an interface `Node` with no members and
// returns its Lazy TypeId. Relating that TypeId to itself is answered by
// the Judge's identical-TypeId short-circuit, so no member structure is
// walked.
func mustDeclareLazyObject(t *testing.T, in *types.Interner) types.TypeId {
	t.Helper()
	ds := defstore.New(in)
	def := ds.Declare("Node", defstore.DeclInterface, nil, nil)
	lazy := in.Lazy(def)
	_ = lazy
	return lazy
}

func TestExplainReportsMissingProperty(t *testing.T) {
	in, _, j := newFixture()
	tgt := in.Object(types.ObjectShape{Properties: []types.PropertyDef{{Name: "x", Type: in.NumberID}}})
	src := in.Object(types.ObjectShape{})
	reason := j.Explain(src, tgt, ModeAssignability)
	require.Equal(t, ReasonMissingProperty, reason.Kind)
	require.Equal(t, "x", reason.Property)
}

func TestExplainReportsPropertyTypeMismatch(t *testing.T) {
	in, _, j := newFixture()
	tgt := in.Object(types.ObjectShape{Properties: []types.PropertyDef{{Name: "x", Type: in.NumberID}}})
	src := in.Object(types.ObjectShape{Properties: []types.PropertyDef{{Name: "x", Type: in.LiteralString("oops")}}})
	reason := j.Explain(src, tgt, ModeAssignability)
	require.Equal(t, ReasonPropertyTypeMismatch, reason.Kind)
	require.Equal(t, "x", reason.Property)
	require.Len(t, reason.Children, 1)
	require.Equal(t, ReasonPrimitiveMismatch, reason.Children[0].Kind)
}
