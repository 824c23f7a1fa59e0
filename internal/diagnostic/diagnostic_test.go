package diagnostic

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/sunholo/tscore/internal/ast"
	"github.com/sunholo/tscore/internal/defstore"
	"github.com/sunholo/tscore/internal/evaluator"
	"github.com/sunholo/tscore/internal/relation"
	"github.com/sunholo/tscore/internal/types"
)

func newFixture() (*types.Interner, *Gateway) {
	in := types.NewInterner()
	defs := defstore.New(in)
	eval := evaluator.New(in, defs, nil, 0)
	judge := relation.NewJudge(in, eval, 0)
	eval.SetSubtyper(judge)
	lawyer := relation.NewLawyer(judge, in)
	return in, NewGateway(in, judge, lawyer)
}

func span(line int) ast.Span {
	p := ast.Pos{File: "a.ts", Line: line, Column: 1}
	return ast.Span{Start: p, End: p}
}

func TestCheckAssignableSucceedsSilently(t *testing.T) {
	in, g := newFixture()
	ok, diag := g.CheckAssignable(in.LiteralString("a"), in.StringID, span(1), OriginAssignment)
	require.True(t, ok)
	require.Equal(t, Diagnostic{}, diag)
	require.Empty(t, g.Diagnostics())
}

func TestCheckAssignableReportsTS2322OnPrimitiveMismatch(t *testing.T) {
	in, g := newFixture()
	ok, diag := g.CheckAssignable(in.StringID, in.NumberID, span(1), OriginAssignment)
	require.False(t, ok)
	require.Equal(t, TS2322, diag.Code)
	require.Len(t, g.Diagnostics(), 1)
}

func TestCheckAssignableReportsTS2345ForArgumentOrigin(t *testing.T) {
	in, g := newFixture()
	ok, diag := g.CheckAssignable(in.StringID, in.NumberID, span(1), OriginArgument)
	require.False(t, ok)
	require.Equal(t, TS2345, diag.Code)
}

func TestCheckAssignableReportsTS2339ForSingleMissingProperty(t *testing.T) {
	in, g := newFixture()
	src := in.Object(types.ObjectShape{})
	tgt := in.Object(types.ObjectShape{Properties: []types.PropertyDef{{Name: "x", Type: in.NumberID}}})
	ok, diag := g.CheckAssignable(src, tgt, span(1), OriginAssignment)
	require.False(t, ok)
	require.Equal(t, TS2339, diag.Code)
}

func TestCheckAssignableReportsTS2740ForMultipleMissingProperties(t *testing.T) {
	in, g := newFixture()
	src := in.Object(types.ObjectShape{})
	tgt := in.Object(types.ObjectShape{Properties: []types.PropertyDef{
		{Name: "x", Type: in.NumberID},
		{Name: "y", Type: in.StringID},
	}})
	ok, diag := g.CheckAssignable(src, tgt, span(1), OriginAssignment)
	require.False(t, ok)
	require.Equal(t, TS2740, diag.Code)
}

func TestCheckAssignablePropertyTypeMismatchStaysInAssignabilityFamily(t *testing.T) {
	in, g := newFixture()
	src := in.Object(types.ObjectShape{Properties: []types.PropertyDef{{Name: "x", Type: in.StringID}}})
	tgt := in.Object(types.ObjectShape{Properties: []types.PropertyDef{{Name: "x", Type: in.NumberID}}})
	ok, diag := g.CheckAssignable(src, tgt, span(1), OriginAssignment)
	require.False(t, ok)
	require.Equal(t, TS2322, diag.Code)
}

func TestCheckAssignableSuppressesOnErrorOperand(t *testing.T) {
	in, g := newFixture()
	ok, diag := g.CheckAssignable(in.ErrorID, in.NumberID, span(1), OriginAssignment)
	require.True(t, ok)
	require.Equal(t, Diagnostic{}, diag)
	require.Empty(t, g.Diagnostics())
}

func TestCheckAssignableDedupesSameCodeSpanAndOperands(t *testing.T) {
	in, g := newFixture()
	g.CheckAssignable(in.StringID, in.NumberID, span(1), OriginAssignment)
	g.CheckAssignable(in.StringID, in.NumberID, span(1), OriginAssignment)
	require.Len(t, g.Diagnostics(), 1)
}

func TestCheckAssignableDoesNotDedupeDifferentSpans(t *testing.T) {
	in, g := newFixture()
	g.CheckAssignable(in.StringID, in.NumberID, span(1), OriginAssignment)
	g.CheckAssignable(in.StringID, in.NumberID, span(2), OriginAssignment)
	require.Len(t, g.Diagnostics(), 2)
}

func TestDiagnosticsAreSortedBySpan(t *testing.T) {
	in, g := newFixture()
	g.CheckAssignable(in.StringID, in.NumberID, span(5), OriginAssignment)
	g.CheckAssignable(in.BooleanID, in.NumberID, span(1), OriginAssignment)
	diags := g.Diagnostics()
	require.Len(t, diags, 2)
	require.Equal(t, 1, diags[0].Span.Start.Line)
	require.Equal(t, 5, diags[1].Span.Start.Line)
}

func TestCheckRedeclarationPassesOnIdenticalTypes(t *testing.T) {
	in, g := newFixture()
	ok, diag := g.CheckRedeclaration(in.StringID, in.StringID, span(1))
	require.True(t, ok)
	require.Equal(t, Diagnostic{}, diag)
}

func TestCheckRedeclarationReportsTS2403OnMismatch(t *testing.T) {
	in, g := newFixture()
	ok, diag := g.CheckRedeclaration(in.StringID, in.NumberID, span(1))
	require.False(t, ok)
	require.Equal(t, TS2403, diag.Code)
}

func TestCheckExcessPropertiesReportsUnknownProperty(t *testing.T) {
	in, g := newFixture()
	tgt := in.Object(types.ObjectShape{Properties: []types.PropertyDef{{Name: "x", Type: in.NumberID}}})
	diags := g.CheckExcessProperties([]string{"x", "y"}, tgt, span(1), map[string]bool{"x": true}, false)
	require.Len(t, diags, 1)
	require.Equal(t, TS2353, diags[0].Code)
}

func TestCheckExcessPropertiesAllowsIndexSignatureCoverage(t *testing.T) {
	in, g := newFixture()
	tgt := in.Object(types.ObjectShape{StringIndexer: in.NumberID})
	diags := g.CheckExcessProperties([]string{"anything"}, tgt, span(1), map[string]bool{}, true)
	require.Empty(t, diags)
}

// Structural diff over the whole span-sorted slice, ignoring the
// free-form Message text: this is the shape go-cmp is for — comparing
// everything about two diagnostics except their prose, which a plain
// require.Equal can't express without also pinning exact wording.
func TestDiagnosticsStructuralShapeIgnoringMessage(t *testing.T) {
	in, g := newFixture()
	g.CheckAssignable(in.StringID, in.NumberID, span(5), OriginAssignment)
	g.CheckAssignable(in.BooleanID, in.NumberID, span(1), OriginAssignment)

	want := []Diagnostic{
		{Code: TS2322, Severity: SeverityError, Span: span(1), Source: in.BooleanID, Target: in.NumberID},
		{Code: TS2322, Severity: SeverityError, Span: span(5), Source: in.StringID, Target: in.NumberID},
	}
	got := g.Diagnostics()
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(Diagnostic{}, "Message")); diff != "" {
		t.Errorf("Diagnostics() structural mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckAssignableReportsTS2559WhenNoPropertiesOverlap(t *testing.T) {
	in, g := newFixture()
	src := in.Object(types.ObjectShape{Properties: []types.PropertyDef{{Name: "a", Type: in.StringID}}})
	tgt := in.Object(types.ObjectShape{Properties: []types.PropertyDef{{Name: "b", Type: in.NumberID}}})
	ok, diag := g.CheckAssignable(src, tgt, span(1), OriginAssignment)
	require.False(t, ok)
	require.Equal(t, TS2559, diag.Code)
}
