package typedast

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunholo/tscore/internal/ast"
	"github.com/sunholo/tscore/internal/types"
)

func TestRecordAndReadType(t *testing.T) {
	in := types.NewInterner()
	a := New()
	n := &ast.Identifier{Name: "x"}

	_, ok := a.Type(n)
	require.False(t, ok)

	a.RecordType(n, in.StringID)
	got, ok := a.Type(n)
	require.True(t, ok)
	require.Equal(t, in.StringID, got)
	require.Equal(t, 1, a.Len())
}

func TestRecordTypeIgnoresNilNodeAndInvalidType(t *testing.T) {
	in := types.NewInterner()
	a := New()

	a.RecordType(nil, in.StringID)
	require.Equal(t, 0, a.Len())

	n := &ast.Identifier{Name: "x"}
	a.RecordType(n, types.TypeId(0))
	_, ok := a.Type(n)
	require.False(t, ok)
}

func TestRecordInstantiationCopiesAndOrders(t *testing.T) {
	in := types.NewInterner()
	a := New()
	n := &ast.CallExpr{}

	args := []types.TypeId{in.StringID, in.NumberID}
	a.RecordInstantiation(n, args)
	args[0] = in.BooleanID // mutating the caller's slice must not alias the stored one

	got, ok := a.Instantiation(n)
	require.True(t, ok)
	require.Equal(t, []types.TypeId{in.StringID, in.NumberID}, got)
}

func TestRecordInstantiationSkipsEmpty(t *testing.T) {
	a := New()
	n := &ast.CallExpr{}
	a.RecordInstantiation(n, nil)
	_, ok := a.Instantiation(n)
	require.False(t, ok)
}

func TestRecordNarrowedDistinctFromRecordedType(t *testing.T) {
	in := types.NewInterner()
	a := New()
	n := &ast.Identifier{Name: "x"}

	a.RecordType(n, in.Union(in.StringID, in.NumberID))
	a.RecordNarrowed(n, in.StringID)

	declared, ok := a.Type(n)
	require.True(t, ok)
	require.NotEqual(t, in.StringID, declared)

	narrowed, ok := a.Narrowed(n)
	require.True(t, ok)
	require.Equal(t, in.StringID, narrowed)
}

func TestDistinctNodesDoNotAlias(t *testing.T) {
	in := types.NewInterner()
	a := New()
	x := &ast.Identifier{Name: "x"}
	y := &ast.Identifier{Name: "y"}

	a.RecordType(x, in.StringID)
	a.RecordType(y, in.NumberID)

	gotX, _ := a.Type(x)
	gotY, _ := a.Type(y)
	require.Equal(t, in.StringID, gotX)
	require.Equal(t, in.NumberID, gotY)
}
