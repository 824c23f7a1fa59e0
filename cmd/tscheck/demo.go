package main

import (
	"github.com/sunholo/tscore/internal/ast"
	"github.com/sunholo/tscore/internal/binder"
)

// demoFile builds the worked example programs by hand from manually
// constructed AST rather than parsed source text: this engine ships no
// parser, so `tscheck check` runs its fixed worked examples instead of
// an arbitrary path on disk.
//
// Returns the file to check and the binder state its flow-sensitive
// narrowing depends on (nil when a program needs none).
func demoFile(name string) (*ast.File, *binder.State, bool) {
	switch name {
	case "structural-mismatch":
		return structuralMismatchDemo(), nil, true
	case "union-narrowing":
		return unionNarrowingDemo()
	case "excess-property":
		return excessPropertyDemo(), nil, true
	case "generic-inference":
		return genericInferenceDemo(), nil, true
	case "super-arity":
		return superArityDemo(), nil, true
	case "boxed-arithmetic":
		return boxedArithmeticDemo(), nil, true
	default:
		return nil, nil, false
	}
}

// structuralMismatchDemo is `const a: { x: number } = { x: "s" }`.
func structuralMismatchDemo() *ast.File {
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
	return &ast.File{Path: "structural-mismatch.ts", Stmts: []ast.Stmt{decl}}
}

// unionNarrowingDemo is a discriminated union narrowed by
// `if (r.ok === true)`.
func unionNarrowingDemo() (*ast.File, *binder.State, bool) {
	b := binder.NewBuilder()

	thenStmt := &ast.ExpressionStatement{Expr: &ast.PropertyAccess{Expr: &ast.Identifier{Name: "r"}, Name: "v"}}
	elseStmt := &ast.ExpressionStatement{Expr: &ast.PropertyAccess{Expr: &ast.Identifier{Name: "r"}, Name: "e"}}
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

	litBool := func(v bool) ast.TypeAnn { return &ast.LiteralTypeAnn{LitKind: ast.LiteralBoolean, Bool: v} }
	union := &ast.UnionTypeAnn{Members: []ast.TypeAnn{
		&ast.ObjectTypeAnn{Members: []ast.ObjectTypeMember{
			{Name: "ok", TypeAnn: litBool(true)},
			{Name: "v", TypeAnn: &ast.KeywordTypeAnn{Keyword: ast.KeywordNumber}},
		}},
		&ast.ObjectTypeAnn{Members: []ast.ObjectTypeMember{
			{Name: "ok", TypeAnn: litBool(false)},
			{Name: "e", TypeAnn: &ast.KeywordTypeAnn{Keyword: ast.KeywordString}},
		}},
	}}
	rDecl := &ast.VariableDeclaration{VarKind: ast.VarConst, Target: ast.NameBinding{Name: "r"}, TypeAnn: union}

	file := &ast.File{Path: "union-narrowing.ts", Stmts: []ast.Stmt{rDecl, ifStmt}}
	return file, b.Build(), true
}

// excessPropertyDemo is `const p: {x:number} = {x:1, y:2}`.
func excessPropertyDemo() *ast.File {
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
	return &ast.File{Path: "excess-property.ts", Stmts: []ast.Stmt{decl}}
}

// genericInferenceDemo is `function id<T>(x:T):T { return x };
// const n = id(42)`.
func genericInferenceDemo() *ast.File {
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
	nDecl := &ast.VariableDeclaration{VarKind: ast.VarConst, Target: ast.NameBinding{Name: "n"}, Init: call}
	return &ast.File{Path: "generic-inference.ts", Decls: []ast.Decl{fn}, Stmts: []ast.Stmt{nDecl}}
}

// superArityDemo is `class B { constructor(x:number, y:number){} }
// class D extends B { constructor(){ super(1) } }`.
func superArityDemo() *ast.File {
	num := &ast.KeywordTypeAnn{Keyword: ast.KeywordNumber}
	baseClass := &ast.ClassDeclaration{Name: "B", Members: []ast.ClassMember{{
		Name:          "constructor",
		IsConstructor: true,
		Fn: &ast.FunctionExpr{Params: []ast.Param{
			{Name: "x", TypeAnn: num},
			{Name: "y", TypeAnn: num},
		}},
	}}}
	derived := &ast.ClassDeclaration{
		Name:    "D",
		Extends: &ast.TypeRefAnn{Name: "B"},
		Members: []ast.ClassMember{{
			Name:          "constructor",
			IsConstructor: true,
			Fn: &ast.FunctionExpr{Body: &ast.Block{Statements: []ast.Stmt{
				&ast.ExpressionStatement{Expr: &ast.CallExpr{
					IsSuper: true,
					Args:    []ast.Expr{&ast.NumericLiteral{Value: 1}},
				}},
			}}},
		}},
	}
	return &ast.File{Path: "super-arity.ts", Decls: []ast.Decl{baseClass, derived}}
}

// boxedArithmeticDemo subtracts two boxed `Number` interface values
// instead of the primitive.
func boxedArithmeticDemo() *ast.File {
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
	return &ast.File{
		Path:  "boxed-arithmetic.ts",
		Decls: []ast.Decl{boxed},
		Stmts: []ast.Stmt{declVar("n"), declVar("m"), sub},
	}
}

// demoNames lists every built-in program `check` accepts, in the order
// `check --list` prints them.
var demoNames = []string{
	"structural-mismatch",
	"union-narrowing",
	"excess-property",
	"generic-inference",
	"super-arity",
	"boxed-arithmetic",
}
