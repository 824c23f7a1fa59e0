package defstore

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunholo/tscore/internal/ast"
	"github.com/sunholo/tscore/internal/types"
)

func TestInterfaceMergeLaterOverrides(t *testing.T) {
	in := types.NewInterner()
	s := New(in)

	declA := &ast.InterfaceDeclaration{Name: "Box"}
	declB := &ast.InterfaceDeclaration{Name: "Box"}

	idA := s.Declare("Box", DeclInterface, declA, nil)
	idB := s.Declare("Box", DeclInterface, declB, nil)
	require.Equal(t, idA, idB, "same-name interface declarations merge into one DefId")

	build := func(d ast.Decl) (types.ObjectShape, error) {
		if d == declA {
			return types.ObjectShape{Properties: []types.PropertyDef{{Name: "x", Type: in.StringID}}}, nil
		}
		return types.ObjectShape{Properties: []types.PropertyDef{{Name: "x", Type: in.NumberID}}}, nil
	}

	body, err := s.GetMembers(idA, build)
	require.NoError(t, err)
	require.True(t, s.HasConflict(idA), "same property with incompatible types across merges is a conflict")
	require.Equal(t, "{ x: error }", in.String(body))
}

func TestMemberListCachedAfterFirstComputation(t *testing.T) {
	in := types.NewInterner()
	s := New(in)
	decl := &ast.InterfaceDeclaration{Name: "Point"}
	id := s.Declare("Point", DeclInterface, decl, nil)

	calls := 0
	build := func(ast.Decl) (types.ObjectShape, error) {
		calls++
		return types.ObjectShape{Properties: []types.PropertyDef{{Name: "x", Type: in.NumberID}}}, nil
	}

	first, err := s.GetMembers(id, build)
	require.NoError(t, err)
	second, err := s.GetMembers(id, build)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, calls, "GetMembers memoizes the merged body")
}

func TestLateAugmentationInvalidatesCache(t *testing.T) {
	in := types.NewInterner()
	s := New(in)
	decl1 := &ast.InterfaceDeclaration{Name: "Bag"}
	id := s.Declare("Bag", DeclInterface, decl1, nil)

	build := func(d ast.Decl) (types.ObjectShape, error) {
		if d == decl1 {
			return types.ObjectShape{Properties: []types.PropertyDef{{Name: "a", Type: in.StringID}}}, nil
		}
		return types.ObjectShape{Properties: []types.PropertyDef{{Name: "b", Type: in.NumberID}}}, nil
	}

	first, err := s.GetMembers(id, build)
	require.NoError(t, err)
	require.Equal(t, "{ a: string }", in.String(first))

	decl2 := &ast.InterfaceDeclaration{Name: "Bag"}
	s.Declare("Bag", DeclInterface, decl2, nil)

	second, err := s.GetMembers(id, build)
	require.NoError(t, err)
	require.Equal(t, "{ a: string; b: number }", in.String(second))
}

func TestLookupUnknownName(t *testing.T) {
	s := New(types.NewInterner())
	_, ok := s.Lookup("Nope")
	require.False(t, ok)
}

func TestSetTypeParamsRecordsResolvedInfos(t *testing.T) {
	in := types.NewInterner()
	s := New(in)
	decl := &ast.InterfaceDeclaration{Name: "Box"}
	id := s.Declare("Box", DeclInterface, decl, nil)
	require.Empty(t, s.TypeParams(id))

	tp := types.TypeParamInfo{Name: "T"}
	tpID := in.TypeParameter(tp)
	s.SetTypeParams(id, []types.TypeParamInfo{tp})
	s.SetTypeParamIDs(id, []types.TypeId{tpID})

	require.Len(t, s.TypeParams(id), 1)
	require.Equal(t, "T", s.TypeParams(id)[0].Name)
	require.Equal(t, []types.TypeId{tpID}, s.TypeParamIDs(id))
}
