package checker

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sunholo/tscore/internal/ast"
	"github.com/sunholo/tscore/internal/binder"
	"github.com/sunholo/tscore/internal/diagnostic"
	"github.com/sunholo/tscore/internal/options"
)

func span(line int) ast.Span {
	return ast.Span{Start: ast.Pos{File: "test.ts", Line: line, Column: 1}}
}

// `const a: { x: number } = { x: "s" }` reports exactly one TS2322 at
// the initializer citing the `x` property mismatch.
func TestStructuralMismatchReportsTS2322(t *testing.T) {
	decl := &ast.VariableDeclaration{
		VarKind: ast.VarConst,
		Target:  ast.NameBinding{Name: "a"},
		TypeAnn: &ast.ObjectTypeAnn{Members: []ast.ObjectTypeMember{
			{Name: "x", TypeAnn: &ast.KeywordTypeAnn{Keyword: ast.KeywordNumber}},
		}},
		Init: &ast.ObjectLiteral{Properties: []ast.PropertyAssignment{
			{Name: "x", Value: &ast.StringLiteral{Value: "s"}},
		}},
	}

	c := New(nil, options.Default())
	c.CheckFile(&ast.File{Stmts: []ast.Stmt{decl}})

	diags := c.Diagnostics()
	require.Len(t, diags, 1)
	require.Equal(t, diagnostic.TS2322, diags[0].Code)
}

// Discriminated union narrowing via `if (r.ok === true)` resolves
// `.v`/`.e` to the member-specific property type with zero diagnostics.
func TestDiscriminatedUnionNarrowing(t *testing.T) {
	b := binder.NewBuilder()

	okBranch := &ast.PropertyAccess{Expr: &ast.Identifier{Name: "r"}, Name: "v"}
	elseBranch := &ast.PropertyAccess{Expr: &ast.Identifier{Name: "r"}, Name: "e"}
	thenStmt := &ast.ExpressionStatement{Expr: okBranch}
	elseStmt := &ast.ExpressionStatement{Expr: elseBranch}

	cond := &ast.BinaryExpr{
		Op:    "===",
		Left:  &ast.PropertyAccess{Expr: &ast.Identifier{Name: "r"}, Name: "ok"},
		Right: &ast.BooleanLiteral{Value: true},
	}
	ifStmt := &ast.IfStatement{Cond: cond, Then: thenStmt, Else: elseStmt}

	guard := &binder.Guard{Kind: binder.GuardDiscriminant, Subject: &ast.Identifier{Name: "r"}, PropertyKey: "ok", LiteralText: "true"}
	elseGuard := &binder.Guard{Kind: binder.GuardDiscriminant, Subject: &ast.Identifier{Name: "r"}, PropertyKey: "ok", LiteralText: "true", Negated: true}
	b.RecordFlow(thenStmt, binder.FlowEdge{Guard: guard})
	b.RecordFlow(elseStmt, binder.FlowEdge{Guard: elseGuard})

	union := &ast.UnionTypeAnn{Members: []ast.TypeAnn{
		&ast.ObjectTypeAnn{Members: []ast.ObjectTypeMember{
			{Name: "ok", TypeAnn: litType(true)},
			{Name: "v", TypeAnn: &ast.KeywordTypeAnn{Keyword: ast.KeywordNumber}},
		}},
		&ast.ObjectTypeAnn{Members: []ast.ObjectTypeMember{
			{Name: "ok", TypeAnn: litType(false)},
			{Name: "e", TypeAnn: &ast.KeywordTypeAnn{Keyword: ast.KeywordString}},
		}},
	}}
	rDecl := &ast.VariableDeclaration{
		VarKind: ast.VarConst,
		Target:  ast.NameBinding{Name: "r"},
		TypeAnn: union,
	}

	c := New(b.Build(), options.Default())
	c.CheckFile(&ast.File{Stmts: []ast.Stmt{rDecl, ifStmt}})

	require.Empty(t, c.Diagnostics())

	vType, ok := c.annotations.Type(okBranch)
	require.True(t, ok)
	require.Equal(t, "number", c.interner.String(vType))

	eType, ok := c.annotations.Type(elseBranch)
	require.True(t, ok)
	require.Equal(t, "string", c.interner.String(eType))
}

func litType(b bool) ast.TypeAnn {
	return &ast.LiteralTypeAnn{LitKind: ast.LiteralBoolean, Bool: b}
}

// `const p: {x:number} = {x:1, y:2}` reports the excess property `y`.
func TestExcessPropertyOnFreshLiteral(t *testing.T) {
	decl := &ast.VariableDeclaration{
		VarKind: ast.VarConst,
		Target:  ast.NameBinding{Name: "p"},
		TypeAnn: &ast.ObjectTypeAnn{Members: []ast.ObjectTypeMember{
			{Name: "x", TypeAnn: &ast.KeywordTypeAnn{Keyword: ast.KeywordNumber}},
		}},
		Init: &ast.ObjectLiteral{Properties: []ast.PropertyAssignment{
			{Name: "x", Value: &ast.NumericLiteral{Value: 1}},
			{Name: "y", Value: &ast.NumericLiteral{Value: 2}},
		}},
	}

	c := New(nil, options.Default())
	c.CheckFile(&ast.File{Stmts: []ast.Stmt{decl}})

	diags := c.Diagnostics()
	require.Len(t, diags, 1)
	require.Equal(t, diagnostic.TS2353, diags[0].Code)
}

// Routing a fresh literal through an intermediate variable consumes its
// freshness, so the same excess property is not reported through `obj`.
func TestFreshnessBypassViaIntermediateVariable(t *testing.T) {
	objDecl := &ast.VariableDeclaration{
		VarKind: ast.VarConst,
		Target:  ast.NameBinding{Name: "obj"},
		Init: &ast.ObjectLiteral{Properties: []ast.PropertyAssignment{
			{Name: "x", Value: &ast.NumericLiteral{Value: 1}},
			{Name: "y", Value: &ast.NumericLiteral{Value: 2}},
		}},
	}
	pDecl := &ast.VariableDeclaration{
		VarKind: ast.VarConst,
		Target:  ast.NameBinding{Name: "p"},
		TypeAnn: &ast.ObjectTypeAnn{Members: []ast.ObjectTypeMember{
			{Name: "x", TypeAnn: &ast.KeywordTypeAnn{Keyword: ast.KeywordNumber}},
		}},
		Init: &ast.Identifier{Name: "obj"},
	}

	c := New(nil, options.Default())
	c.CheckFile(&ast.File{Stmts: []ast.Stmt{objDecl, pDecl}})

	require.Empty(t, c.Diagnostics())
}

// `function id<T>(x:T):T { return x }; const n = id(42)` infers
// n: number with zero diagnostics, and records the solved instantiation
// against the call site.
func TestGenericArgumentInferredAsNumber(t *testing.T) {
	fn := &ast.FunctionDeclaration{
		Name:       "id",
		TypeParams: []ast.TypeParamDecl{{Name: "T"}},
		Params:     []ast.Param{{Name: "x", TypeAnn: &ast.TypeRefAnn{Name: "T"}}},
		ReturnAnn:  &ast.TypeRefAnn{Name: "T"},
		Body: &ast.Block{Statements: []ast.Stmt{
			&ast.ReturnStatement{Expr: &ast.Identifier{Name: "x"}},
		}},
	}
	call := &ast.CallExpr{Callee: &ast.Identifier{Name: "id"}, Args: []ast.Expr{&ast.NumericLiteral{Value: 42}}}
	nDecl := &ast.VariableDeclaration{
		VarKind: ast.VarConst,
		Target:  ast.NameBinding{Name: "n"},
		Init:    call,
	}

	c := New(nil, options.Default())
	c.CheckFile(&ast.File{Decls: []ast.Decl{fn}, Stmts: []ast.Stmt{nDecl}})

	require.Empty(t, c.Diagnostics())

	nType, ok := c.env.Lookup("n")
	require.True(t, ok)
	require.Equal(t, "number", c.interner.String(nType))

	args, ok := c.annotations.Instantiation(call)
	require.True(t, ok)
	require.Len(t, args, 1)
	require.Equal(t, "number", c.interner.String(args[0]))
}

// Two `var`/`let` declarations of the same name in the same scope with
// incompatible types report TS2403.
func TestRedeclarationIncompatibleTypesReportsTS2403(t *testing.T) {
	first := &ast.VariableDeclaration{
		VarKind: ast.VarLet,
		Target:  ast.NameBinding{Name: "x"},
		TypeAnn: &ast.KeywordTypeAnn{Keyword: ast.KeywordString},
	}
	second := &ast.VariableDeclaration{
		VarKind: ast.VarLet,
		Target:  ast.NameBinding{Name: "x"},
		TypeAnn: &ast.KeywordTypeAnn{Keyword: ast.KeywordNumber},
	}

	c := New(nil, options.Default())
	c.CheckFile(&ast.File{Stmts: []ast.Stmt{first, second}})

	diags := c.Diagnostics()
	require.Len(t, diags, 1)
	require.Equal(t, diagnostic.TS2403, diags[0].Code)
}

// The destructuring-freshness rule: `let` destructuring retains the
// union while `const` narrows — exercised here indirectly through
// Narrower.Widen's widen-unless-const behavior on a plain declaration
// with no type annotation.
func TestConstDeclarationNarrowsLiteralWidensForLet(t *testing.T) {
	letDecl := &ast.VariableDeclaration{
		VarKind: ast.VarLet,
		Target:  ast.NameBinding{Name: "a"},
		Init:    &ast.StringLiteral{Value: "hi"},
	}
	constDecl := &ast.VariableDeclaration{
		VarKind: ast.VarConst,
		Target:  ast.NameBinding{Name: "b"},
		Init:    &ast.StringLiteral{Value: "hi"},
	}

	c := New(nil, options.Default())
	c.CheckFile(&ast.File{Stmts: []ast.Stmt{letDecl, constDecl}})

	aType, _ := c.env.Lookup("a")
	bType, _ := c.env.Lookup("b")
	require.Equal(t, "string", c.interner.String(aType))
	require.Equal(t, `"hi"`, c.interner.String(bType))
}

// `class B { constructor(x:number, y:number){} } class D extends B
// { constructor(){ super(1) } }` reports TS2554 at the super call —
// construct signatures, not call signatures, are consulted.
func TestSuperArgumentCountReportsTS2554(t *testing.T) {
	num := &ast.KeywordTypeAnn{Keyword: ast.KeywordNumber}
	baseClass := &ast.ClassDeclaration{Name: "B", Members: []ast.ClassMember{{
		Name:          "constructor",
		IsConstructor: true,
		Fn: &ast.FunctionExpr{Params: []ast.Param{
			{Name: "x", TypeAnn: num},
			{Name: "y", TypeAnn: num},
		}},
	}}}
	superCall := &ast.CallExpr{IsSuper: true, Args: []ast.Expr{&ast.NumericLiteral{Value: 1}}}
	derived := &ast.ClassDeclaration{
		Name:    "D",
		Extends: &ast.TypeRefAnn{Name: "B"},
		Members: []ast.ClassMember{{
			Name:          "constructor",
			IsConstructor: true,
			Fn: &ast.FunctionExpr{Body: &ast.Block{Statements: []ast.Stmt{
				&ast.ExpressionStatement{Expr: superCall},
			}}},
		}},
	}

	c := New(nil, options.Default())
	c.CheckFile(&ast.File{Decls: []ast.Decl{baseClass, derived}})

	diags := c.Diagnostics()
	require.Len(t, diags, 1)
	require.Equal(t, diagnostic.TS2554, diags[0].Code)
	require.Equal(t, "Expected 2 arguments, but got 1.", diags[0].Message)
}

// Arithmetic on the boxed `Number` interface reports TS2362/TS2363 —
// the interface is an object type, not the primitive.
func TestArithmeticOnBoxedNumber(t *testing.T) {
	boxed := &ast.InterfaceDeclaration{Name: "Number", Members: []ast.ObjectTypeMember{
		{Name: "toFixed", TypeAnn: &ast.KeywordTypeAnn{Keyword: ast.KeywordString}},
	}}
	declVar := func(name string) *ast.VariableDeclaration {
		return &ast.VariableDeclaration{
			VarKind: ast.VarLet,
			Declare: true,
			Target:  ast.NameBinding{Name: name},
			TypeAnn: &ast.TypeRefAnn{Name: "Number"},
		}
	}
	sub := &ast.ExpressionStatement{Expr: &ast.BinaryExpr{
		Op:    "-",
		Left:  &ast.Identifier{Name: "n"},
		Right: &ast.Identifier{Name: "m"},
	}}

	c := New(nil, options.Default())
	c.CheckFile(&ast.File{
		Decls: []ast.Decl{boxed},
		Stmts: []ast.Stmt{declVar("n"), declVar("m"), sub},
	})

	diags := c.Diagnostics()
	require.Len(t, diags, 2)
	require.Equal(t, diagnostic.TS2362, diags[0].Code)
	require.Equal(t, diagnostic.TS2363, diags[1].Code)
}

// A type-only name in value position reports TS2693; classes, which are
// both, stay usable as values.
func TestInterfaceUsedAsValueReportsTS2693(t *testing.T) {
	iface := &ast.InterfaceDeclaration{Name: "I"}
	use := &ast.ExpressionStatement{Expr: &ast.Identifier{Name: "I"}}

	c := New(nil, options.Default())
	c.CheckFile(&ast.File{Decls: []ast.Decl{iface}, Stmts: []ast.Stmt{use}})

	diags := c.Diagnostics()
	require.Len(t, diags, 1)
	require.Equal(t, diagnostic.TS2693, diags[0].Code)
}

// `class A extends A` reports TS2506 instead of recursing.
func TestClassExtendingItselfReportsTS2506(t *testing.T) {
	cls := &ast.ClassDeclaration{Name: "A", Extends: &ast.TypeRefAnn{Name: "A"}}

	c := New(nil, options.Default())
	c.CheckFile(&ast.File{Decls: []ast.Decl{cls}})

	diags := c.Diagnostics()
	require.Len(t, diags, 1)
	require.Equal(t, diagnostic.TS2506, diags[0].Code)
}

// An indirect cycle (`A extends B`, `B extends A`) is reported at each
// participant.
func TestIndirectBaseClassCycleReportsTS2506(t *testing.T) {
	a := &ast.ClassDeclaration{Name: "A", Extends: &ast.TypeRefAnn{Name: "B"}}
	a.SetSpan(span(1))
	b := &ast.ClassDeclaration{Name: "B", Extends: &ast.TypeRefAnn{Name: "A"}}
	b.SetSpan(span(2))

	c := New(nil, options.Default())
	c.CheckFile(&ast.File{Decls: []ast.Decl{a, b}})

	diags := c.Diagnostics()
	require.Len(t, diags, 2)
	for _, d := range diags {
		require.Equal(t, diagnostic.TS2506, d.Code)
	}
}

// A derived member incompatible with the base's member of the same name
// reports TS2416.
func TestIncompatibleOverrideReportsTS2416(t *testing.T) {
	baseClass := &ast.ClassDeclaration{Name: "Base", Members: []ast.ClassMember{
		{Name: "size", TypeAnn: &ast.KeywordTypeAnn{Keyword: ast.KeywordNumber}},
	}}
	derived := &ast.ClassDeclaration{
		Name:    "Derived",
		Extends: &ast.TypeRefAnn{Name: "Base"},
		Members: []ast.ClassMember{
			{Name: "size", TypeAnn: &ast.KeywordTypeAnn{Keyword: ast.KeywordString}},
		},
	}

	c := New(nil, options.Default())
	c.CheckFile(&ast.File{Decls: []ast.Decl{baseClass, derived}})

	diags := c.Diagnostics()
	require.Len(t, diags, 1)
	require.Equal(t, diagnostic.TS2416, diags[0].Code)
}

// for-of over a non-iterable reports TS2488; over an array, the loop
// variable is bound to the element type with zero diagnostics.
func TestForOfStatementIterableClassification(t *testing.T) {
	xsDecl := &ast.VariableDeclaration{
		VarKind: ast.VarConst,
		Target:  ast.NameBinding{Name: "xs"},
		TypeAnn: &ast.ArrayTypeAnn{Element: &ast.KeywordTypeAnn{Keyword: ast.KeywordString}},
		Declare: true,
	}
	use := &ast.Identifier{Name: "x"}
	good := &ast.ForOfStatement{
		VarKind:  ast.VarConst,
		Target:   ast.NameBinding{Name: "x"},
		Iterable: &ast.Identifier{Name: "xs"},
		Body:     &ast.Block{Statements: []ast.Stmt{&ast.ExpressionStatement{Expr: use}}},
	}
	bad := &ast.ForOfStatement{
		VarKind:  ast.VarConst,
		Target:   ast.NameBinding{Name: "y"},
		Iterable: &ast.NumericLiteral{Value: 42},
		Body:     &ast.Block{},
	}

	c := New(nil, options.Default())
	c.CheckFile(&ast.File{Stmts: []ast.Stmt{xsDecl, good, bad}})

	diags := c.Diagnostics()
	require.Len(t, diags, 1)
	require.Equal(t, diagnostic.TS2488, diags[0].Code)

	xType, ok := c.annotations.Type(use)
	require.True(t, ok)
	require.Equal(t, "string", c.interner.String(xType))
}

// Property access on a possibly-undefined union reports TS18048 under
// strictNullChecks and still resolves the member on the defined part.
func TestPossiblyUndefinedAccessReportsTS18048(t *testing.T) {
	oDecl := &ast.VariableDeclaration{
		VarKind: ast.VarLet,
		Declare: true,
		Target:  ast.NameBinding{Name: "o"},
		TypeAnn: &ast.UnionTypeAnn{Members: []ast.TypeAnn{
			&ast.ObjectTypeAnn{Members: []ast.ObjectTypeMember{
				{Name: "a", TypeAnn: &ast.KeywordTypeAnn{Keyword: ast.KeywordNumber}},
			}},
			&ast.KeywordTypeAnn{Keyword: ast.KeywordUndefined},
		}},
	}
	access := &ast.PropertyAccess{Expr: &ast.Identifier{Name: "o"}, Name: "a"}
	use := &ast.ExpressionStatement{Expr: access}

	opts := options.Default()
	opts.StrictNullChecks = true
	c := New(nil, opts)
	c.CheckFile(&ast.File{Stmts: []ast.Stmt{oDecl, use}})

	diags := c.Diagnostics()
	require.Len(t, diags, 1)
	require.Equal(t, diagnostic.TS18048, diags[0].Code)

	aType, ok := c.annotations.Type(access)
	require.True(t, ok)
	require.Equal(t, "number", c.interner.String(aType))
}

// A read of a declared-but-unassigned `let` reports TS2454 under
// strictNullChecks; ambient declarations are exempt.
func TestUseBeforeAssignmentReportsTS2454(t *testing.T) {
	xDecl := &ast.VariableDeclaration{
		VarKind: ast.VarLet,
		Target:  ast.NameBinding{Name: "x"},
		TypeAnn: &ast.KeywordTypeAnn{Keyword: ast.KeywordNumber},
	}
	use := &ast.ExpressionStatement{Expr: &ast.Identifier{Name: "x"}}

	opts := options.Default()
	opts.StrictNullChecks = true
	c := New(nil, opts)
	c.CheckFile(&ast.File{Stmts: []ast.Stmt{xDecl, use}})

	diags := c.Diagnostics()
	require.Len(t, diags, 1)
	require.Equal(t, diagnostic.TS2454, diags[0].Code)
}

// A block-scoped variable referenced above its declaration reports
// TS2448; a class, TS2449.
func TestUseBeforeDeclarationReportsTS2448AndTS2449(t *testing.T) {
	useX := &ast.Identifier{Name: "x"}
	useX.SetSpan(span(1))
	useC := &ast.Identifier{Name: "C"}
	useC.SetSpan(span(2))

	xDecl := &ast.VariableDeclaration{
		VarKind: ast.VarLet,
		Target:  ast.NameBinding{Name: "x"},
		Init:    &ast.NumericLiteral{Value: 1},
	}
	xDecl.SetSpan(span(5))
	cls := &ast.ClassDeclaration{Name: "C"}
	cls.SetSpan(span(6))

	c := New(nil, options.Default())
	c.CheckFile(&ast.File{
		Decls: []ast.Decl{cls},
		Stmts: []ast.Stmt{
			&ast.ExpressionStatement{Expr: useX},
			&ast.ExpressionStatement{Expr: useC},
			xDecl,
		},
	})

	diags := c.Diagnostics()
	require.Len(t, diags, 2)
	require.Equal(t, diagnostic.TS2448, diags[0].Code)
	require.Equal(t, diagnostic.TS2449, diags[1].Code)
}

// Enum members resolve through property lookup to their literal types,
// auto-incrementing when uninitialized, and count as valid arithmetic
// operands. An enum referenced above its declaration reports TS2450.
func TestEnumMembersAndUseBeforeDeclaration(t *testing.T) {
	enum := &ast.EnumDeclaration{Name: "Color", Members: []ast.EnumMember{
		{Name: "Red"},
		{Name: "Green"},
	}}
	enum.SetSpan(span(4))
	access := &ast.PropertyAccess{Expr: &ast.Identifier{Name: "Color"}, Name: "Green"}
	access.SetSpan(span(6))
	greenExpr := &ast.ExpressionStatement{Expr: access}
	sum := &ast.ExpressionStatement{Expr: &ast.BinaryExpr{
		Op:    "-",
		Left:  &ast.PropertyAccess{Expr: &ast.Identifier{Name: "Color"}, Name: "Red"},
		Right: &ast.NumericLiteral{Value: 1},
	}}
	early := &ast.Identifier{Name: "Color"}
	early.SetSpan(span(1))

	c := New(nil, options.Default())
	c.CheckFile(&ast.File{
		Decls: []ast.Decl{enum},
		Stmts: []ast.Stmt{
			&ast.ExpressionStatement{Expr: early},
			greenExpr,
			sum,
		},
	})

	diags := c.Diagnostics()
	require.Len(t, diags, 1)
	require.Equal(t, diagnostic.TS2450, diags[0].Code)

	gType, ok := c.annotations.Type(access)
	require.True(t, ok)
	require.Equal(t, "1", c.interner.String(gType))
}

// Generic interface bodies resolve their own type parameters: the
// declared infos and identities are recorded on the DefId, so an
// Application instantiates the body correctly.
func TestGenericInterfaceApplicationResolvesTypeParams(t *testing.T) {
	box := &ast.InterfaceDeclaration{
		Name:       "Box",
		TypeParams: []ast.TypeParamDecl{{Name: "T"}},
		Members: []ast.ObjectTypeMember{
			{Name: "value", TypeAnn: &ast.TypeRefAnn{Name: "T"}},
		},
	}
	decl := &ast.VariableDeclaration{
		VarKind: ast.VarConst,
		Target:  ast.NameBinding{Name: "b"},
		TypeAnn: &ast.TypeRefAnn{Name: "Box", TypeArgs: []ast.TypeAnn{
			&ast.KeywordTypeAnn{Keyword: ast.KeywordNumber},
		}},
		Init: &ast.ObjectLiteral{Properties: []ast.PropertyAssignment{
			{Name: "value", Value: &ast.NumericLiteral{Value: 1}},
		}},
	}

	c := New(nil, options.Default())
	c.CheckFile(&ast.File{Decls: []ast.Decl{box}, Stmts: []ast.Stmt{decl}})

	require.Empty(t, c.Diagnostics())

	def, ok := c.defs.Lookup("Box")
	require.True(t, ok)
	require.Len(t, c.defs.TypeParams(def), 1)
	require.Equal(t, "T", c.defs.TypeParams(def)[0].Name)
	require.Len(t, c.defs.TypeParamIDs(def), 1)
}

func TestCheckFileAnnotatesEveryExpressionNode(t *testing.T) {
	decl := &ast.VariableDeclaration{
		VarKind: ast.VarConst,
		Target:  ast.NameBinding{Name: "a"},
		Init:    &ast.NumericLiteral{Value: 1},
	}
	c := New(nil, options.Default())
	c.CheckFile(&ast.File{Stmts: []ast.Stmt{decl}})
	require.Equal(t, 1, c.annotations.Len())
}
