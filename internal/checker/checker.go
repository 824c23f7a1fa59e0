// Package checker implements the orchestration layer: the AST-directed
// walk that resolves identifiers, computes expression types bottom-up,
// narrows along control flow, and routes every compatibility question
// through the single diagnostic gateway rather than comparing types ad
// hoc.
package checker

import (
	"fmt"

	"github.com/sunholo/tscore/internal/ast"
	"github.com/sunholo/tscore/internal/binder"
	"github.com/sunholo/tscore/internal/defstore"
	"github.com/sunholo/tscore/internal/diagnostic"
	"github.com/sunholo/tscore/internal/evaluator"
	"github.com/sunholo/tscore/internal/narrowing"
	"github.com/sunholo/tscore/internal/options"
	"github.com/sunholo/tscore/internal/query"
	"github.com/sunholo/tscore/internal/relation"
	"github.com/sunholo/tscore/internal/typedast"
	"github.com/sunholo/tscore/internal/types"
)

// Checker drives one file's type computation: one Checker per
// compilation unit, sharing nothing with a concurrently-checked unit.
type Checker struct {
	interner *types.Interner
	defs     *defstore.Store
	eval     *evaluator.Evaluator
	judge    *relation.Judge
	lawyer   *relation.Lawyer
	db       *query.DB
	narrower *narrowing.Narrower
	gateway  *diagnostic.Gateway

	// annotations accumulates the emitter-facing output — resolved
	// TypeId, generic instantiation, and narrowed-type annotations keyed
	// by AST node — as the walk below computes each expression's type.
	annotations *typedast.Annotations

	binderState  *binder.State
	currentScope *binder.Scope
	env          Env
	opts         options.CompilerOptions

	// declSites records, per top-level name, the span and flavor of its
	// declaration — the memory behind inferIdentifier's
	// use-before-declaration checks (TS2448 for block-scoped variables,
	// TS2449 for classes).
	declSites map[string]declSite

	// unassigned tracks names declared with a type annotation but no
	// initializer; a read while the name is still in this set reports
	// TS2454 under strictNullChecks. Ambient declarations never enter it.
	unassigned map[string]bool

	// superSigs holds the enclosing class's base-class construct
	// signatures while member bodies are being checked, so a `super(...)`
	// call resolves against construct signatures rather than call
	// signatures. Nil outside a class with an extends clause.
	superSigs []types.Signature

	// expectedReturn is the enclosing function body's declared or
	// inferred return type, set for the duration of checkFunctionBody
	// and restored on exit — nil outside any function body, where a
	// return statement cannot occur in valid syntax.
	expectedReturn *types.TypeId
}

// New wires a fresh Checker from a file's binder state and an already
// loaded options record. It constructs its own Interner/DefinitionStore/
// Evaluator/Judge/Lawyer/QueryDatabase/Narrower/Gateway — each
// compilation unit gets its own instances of all of them.
func New(binderState *binder.State, opts options.CompilerOptions) *Checker {
	in := types.NewInterner()
	defs := defstore.New(in)
	c := &Checker{
		interner:    in,
		defs:        defs,
		binderState: binderState,
		env:         NewEnv(),
		opts:        opts,
		declSites:   make(map[string]declSite),
		unassigned:  make(map[string]bool),
		annotations: typedast.New(),
	}
	if binderState != nil {
		c.currentScope = binderState.Root
	}
	eval := evaluator.New(in, defs, c.buildMembers, 0)
	judge := relation.NewJudge(in, eval, 0)
	eval.SetSubtyper(judge)
	lawyer := relation.NewLawyer(judge, in)
	db := query.New(in, defs, eval, judge, lawyer, opts)
	narrower := narrowing.New(in, defs, eval)
	gateway := diagnostic.NewGateway(in, judge, lawyer)

	c.eval = eval
	c.judge = judge
	c.lawyer = lawyer
	c.db = db
	c.narrower = narrower
	c.gateway = gateway
	return c
}

func (c *Checker) Diagnostics() []diagnostic.Diagnostic { return c.gateway.Diagnostics() }
func (c *Checker) Interner() *types.Interner            { return c.interner }
func (c *Checker) Defs() *defstore.Store                { return c.defs }
func (c *Checker) Annotations() *typedast.Annotations   { return c.annotations }

func (c *Checker) reportUnresolvedName(name string, span ast.Span) {
	c.gateway.Emit(diagnostic.Diagnostic{
		Code:     diagnostic.TS2304,
		Severity: diagnostic.DefaultSeverity(diagnostic.TS2304),
		Message:  fmt.Sprintf(diagnostic.Template(diagnostic.TS2304), name),
		Span:     span,
	})
}

// declSite is one name's declaration location plus the code a
// too-early use of it reports.
type declSite struct {
	span ast.Span
	code diagnostic.Code
}

// CheckFile is the checker's entry point: a binding pre-pass that
// materializes every top-level DefId (so forward references resolve
// without gaps), then a statement/expression walk that emits
// diagnostics through the gateway.
func (c *Checker) CheckFile(file *ast.File) {
	c.bindDecls(file.Decls)
	c.recordDeclSites(file)
	for _, d := range file.Decls {
		c.checkDecl(d)
	}
	for _, s := range file.Stmts {
		c.checkStmt(s, c.env)
	}
}

// recordDeclSites notes where each class and block-scoped variable is
// declared. Classes and interfaces resolve through the eagerly bound
// DefinitionStore, so without this record a class referenced above its
// declaration would silently succeed instead of reporting TS2449.
func (c *Checker) recordDeclSites(file *ast.File) {
	for _, d := range file.Decls {
		switch n := d.(type) {
		case *ast.ClassDeclaration:
			c.declSites[n.Name] = declSite{span: n.Span(), code: diagnostic.TS2449}
		case *ast.EnumDeclaration:
			c.declSites[n.Name] = declSite{span: n.Span(), code: diagnostic.TS2450}
		}
	}
	for _, s := range file.Stmts {
		v, ok := s.(*ast.VariableDeclaration)
		if !ok || v.VarKind == ast.VarVar {
			continue
		}
		if nb, ok := v.Target.(ast.NameBinding); ok {
			c.declSites[nb.Name] = declSite{span: v.Span(), code: diagnostic.TS2448}
		}
	}
}

// usedBeforeDeclaration reports whether a use at useSpan precedes the
// recorded declaration of name in the same file.
func (c *Checker) usedBeforeDeclaration(name string, useSpan ast.Span) (declSite, bool) {
	site, ok := c.declSites[name]
	if !ok || site.span.Start.File != useSpan.Start.File || useSpan.Start.Line == 0 {
		// A zero line means the front-end recorded no position; an
		// unlocated use cannot be ordered against the declaration.
		return declSite{}, false
	}
	if useSpan.Start.Line < site.span.Start.Line ||
		(useSpan.Start.Line == site.span.Start.Line && useSpan.Start.Column < site.span.Start.Column) {
		return site, true
	}
	return declSite{}, false
}

// bindDecls is the eager DefId-allocation pre-pass. Every
// merge-eligible declaration (interface, class, namespace) is declared
// against its name's DefId before any body is resolved, so a forward
// `Lazy(DefId)` reference materializes correctly once evaluated. Type
// aliases are declared and their body resolved immediately after, since
// aliases never participate in declaration merging (a second
// `type T = ...` for an already-declared name is a redeclaration
// error, not a merge — see defstore.SetAliasBody).
func (c *Checker) bindDecls(decls []ast.Decl) {
	for _, d := range decls {
		switch n := d.(type) {
		case *ast.InterfaceDeclaration:
			c.declareMergeable(n.Name, defstore.DeclInterface, d, n.TypeParams)
		case *ast.ClassDeclaration:
			c.declareMergeable(n.Name, defstore.DeclClass, d, n.TypeParams)
		case *ast.EnumDeclaration:
			c.declareMergeable(n.Name, defstore.DeclEnum, d, nil)
		case *ast.NamespaceDeclaration:
			c.declareMergeable(n.Name, defstore.DeclNamespace, d, nil)
			c.bindDecls(n.Members)
		case *ast.ModuleAugmentation:
			c.declareMergeable(n.Target, defstore.DeclNamespace, d, nil)
			c.bindDecls(n.Members)
		}
	}
	for _, d := range decls {
		if alias, ok := d.(*ast.TypeAliasDeclaration); ok {
			c.bindTypeAlias(alias)
		}
	}
}

func (c *Checker) declareMergeable(name string, kind defstore.DeclKind, node ast.Decl, tparams []ast.TypeParamDecl) types.DefId {
	def := c.defs.Declare(name, kind, node, nil)
	if len(c.defs.TypeParamIDs(def)) == 0 && len(tparams) > 0 {
		scope := tparamScope{}
		infos, ids := c.resolveTypeParams(tparams, scope)
		c.defs.SetTypeParams(def, infos)
		c.defs.SetTypeParamIDs(def, ids)
	}
	return def
}

func (c *Checker) bindTypeAlias(n *ast.TypeAliasDeclaration) {
	if _, exists := c.defs.Lookup(n.Name); exists {
		c.gateway.Emit(diagnostic.Diagnostic{
			Code:     diagnostic.TS2403,
			Severity: diagnostic.DefaultSeverity(diagnostic.TS2403),
			Message:  fmt.Sprintf("Duplicate identifier '%s'.", n.Name),
			Span:     n.Span(),
		})
		return
	}
	scope := tparamScope{}
	infos, ids := c.resolveTypeParams(n.TypeParams, scope)
	def := c.defs.Declare(n.Name, defstore.DeclTypeAlias, n, infos)
	c.defs.SetTypeParamIDs(def, ids)
	body := c.ResolveTypeAnn(n.Value, scope)
	c.defs.SetAliasBody(def, body)
}

// buildMembers is the defstore.MemberBuilder the Evaluator invokes
// lazily when a Lazy(DefId)'s shape is first needed (the Store doesn't
// know how to turn an ast.Decl into a TypeId itself — it needs the
// checker's type-annotation resolution).
func (c *Checker) buildMembers(decl ast.Decl) (types.ObjectShape, error) {
	switch n := decl.(type) {
	case *ast.InterfaceDeclaration:
		return c.interfaceShape(n), nil
	case *ast.ClassDeclaration:
		return c.classInstanceShape(n), nil
	case *ast.EnumDeclaration:
		return c.enumShape(n), nil
	case *ast.NamespaceDeclaration:
		return c.namespaceShape(n), nil
	case *ast.ModuleAugmentation:
		return c.namespaceShape(&ast.NamespaceDeclaration{Name: n.Target, Members: n.Members}), nil
	default:
		return types.ObjectShape{}, nil
	}
}

func (c *Checker) defScope(name string) tparamScope {
	def, ok := c.defs.Lookup(name)
	scope := tparamScope{}
	if !ok {
		return scope
	}
	infos := c.defs.TypeParams(def)
	ids := c.defs.TypeParamIDs(def)
	for i, info := range infos {
		if i < len(ids) {
			scope[info.Name] = ids[i]
		}
	}
	return scope
}

func (c *Checker) interfaceShape(n *ast.InterfaceDeclaration) types.ObjectShape {
	scope := c.defScope(n.Name)
	shape := types.ObjectShape{}
	for _, m := range n.Members {
		switch {
		case m.IsCallSig:
			shape.CallSigs = append(shape.CallSigs, c.resolveMemberSignature(m, scope))
		case m.IsConstructSig:
			shape.ConstructSigs = append(shape.ConstructSigs, c.resolveMemberSignature(m, scope))
		case m.IsIndexSig:
			valueType := c.ResolveTypeAnn(m.TypeAnn, scope)
			if isNumberKeyAnn(m.IndexKeyType) {
				shape.NumberIndexer = valueType
			} else {
				shape.StringIndexer = valueType
			}
		default:
			shape.Properties = append(shape.Properties, types.PropertyDef{
				Name:     m.Name,
				Type:     c.ResolveTypeAnn(m.TypeAnn, scope),
				Optional: m.Optional,
				Readonly: m.Readonly,
			})
		}
	}
	for _, ext := range n.Extends {
		if base, ok := c.shapeOfAnn(ext, scope); ok {
			shape = mergeInherited(base, shape)
		}
	}
	return shape
}

// classInstanceShape models a class's instance side: non-static,
// non-constructor members, with the base class's instance members (from
// `extends`) merged in through mergeInherited. `implements` clauses are
// not folded into the shape; the checker verifies them separately as an
// assignability check between the constructed instance shape and each
// implemented interface.
func (c *Checker) classInstanceShape(n *ast.ClassDeclaration) types.ObjectShape {
	scope := c.defScope(n.Name)
	shape := types.ObjectShape{}
	for _, m := range n.Members {
		if m.IsStatic || m.IsConstructor {
			continue
		}
		memberType := c.interner.AnyID
		if m.Fn != nil {
			inner := cloneScope(scope)
			tparams, _ := c.resolveTypeParams(nil, inner)
			sig := types.Signature{
				TypeParams:      tparams,
				Params:          c.resolveParams(m.Fn.Params, inner),
				Return:          c.ResolveTypeAnn(m.Fn.ReturnAnn, inner),
				MethodShorthand: m.IsMethodShorthand,
			}
			memberType = c.interner.Object(types.ObjectShape{CallSigs: []types.Signature{sig}})
		} else if m.TypeAnn != nil {
			memberType = c.ResolveTypeAnn(m.TypeAnn, scope)
		}
		shape.Properties = append(shape.Properties, types.PropertyDef{
			Name:     m.Name,
			Type:     memberType,
			Readonly: m.Readonly,
		})
	}
	if n.Extends != nil {
		if base, ok := c.shapeOfAnn(n.Extends, scope); ok {
			shape = mergeInherited(base, shape)
		}
	}
	return shape
}

// namespaceShape models a namespace's exported members as dot-qualified
// property names is unnecessary here — GetMembers returns one merged
// shape per DefId, and a namespace's own DefId's "members" are simply
// every nested value/type declaration re-expressed as a property so
// `NS.member` resolves through ordinary property lookup.
func (c *Checker) namespaceShape(n *ast.NamespaceDeclaration) types.ObjectShape {
	shape := types.ObjectShape{}
	for _, d := range n.Members {
		switch m := d.(type) {
		case *ast.FunctionDeclaration:
			shape.Properties = append(shape.Properties, types.PropertyDef{
				Name: m.Name,
				Type: c.functionDeclType(m),
			})
		case *ast.InterfaceDeclaration, *ast.ClassDeclaration, *ast.TypeAliasDeclaration:
			// type-only members are not values exposed as namespace
			// properties; they are reached through defs.Lookup by name.
		}
	}
	return shape
}

// enumShape exposes an enum's members as readonly literal-typed
// properties, so `E.A` resolves through ordinary property lookup and an
// enum member is a valid arithmetic operand. Uninitialized members
// auto-increment from the previous numeric value, starting at zero.
func (c *Checker) enumShape(n *ast.EnumDeclaration) types.ObjectShape {
	shape := types.ObjectShape{}
	next := float64(0)
	for _, m := range n.Members {
		var memberType types.TypeId
		switch v := m.Value.(type) {
		case *ast.NumericLiteral:
			memberType = c.interner.LiteralNumber(v.Value)
			next = v.Value + 1
		case *ast.StringLiteral:
			memberType = c.interner.LiteralString(v.Value)
		default:
			memberType = c.interner.LiteralNumber(next)
			next++
		}
		shape.Properties = append(shape.Properties, types.PropertyDef{
			Name:     m.Name,
			Type:     memberType,
			Readonly: true,
		})
	}
	return shape
}

func (c *Checker) shapeOfAnn(ann ast.TypeAnn, scope tparamScope) (types.ObjectShape, bool) {
	id := c.ResolveTypeAnn(ann, scope)
	ground := c.eval.Evaluate(id)
	shape, ok := c.interner.Get(ground).(interface{ Shape() types.ObjectShape })
	if !ok {
		return types.ObjectShape{}, false
	}
	return shape.Shape(), true
}

// mergeInherited prepends base's properties not already named in own,
// so a subtype's own members win by name (the same "later wins" policy
// defstore.GetMembers uses for interface merging).
func mergeInherited(base, own types.ObjectShape) types.ObjectShape {
	ownNames := make(map[string]bool, len(own.Properties))
	for _, p := range own.Properties {
		ownNames[p.Name] = true
	}
	merged := own
	for _, p := range base.Properties {
		if !ownNames[p.Name] {
			merged.Properties = append(merged.Properties, p)
		}
	}
	if merged.StringIndexer == 0 {
		merged.StringIndexer = base.StringIndexer
	}
	if merged.NumberIndexer == 0 {
		merged.NumberIndexer = base.NumberIndexer
	}
	merged.CallSigs = append(append([]types.Signature(nil), base.CallSigs...), own.CallSigs...)
	merged.ConstructSigs = append(append([]types.Signature(nil), base.ConstructSigs...), own.ConstructSigs...)
	return merged
}

func (c *Checker) functionDeclType(n *ast.FunctionDeclaration) types.TypeId {
	scope := tparamScope{}
	tparams, _ := c.resolveTypeParams(n.TypeParams, scope)
	sig := types.Signature{
		TypeParams: tparams,
		Params:     c.resolveParams(n.Params, scope),
		Return:     c.ResolveTypeAnn(n.ReturnAnn, scope),
	}
	return c.interner.Object(types.ObjectShape{CallSigs: []types.Signature{sig}})
}

func (c *Checker) checkDecl(d ast.Decl) {
	switch n := d.(type) {
	case *ast.FunctionDeclaration:
		c.checkFunctionDeclaration(n)
	case *ast.ClassDeclaration:
		c.checkClassDeclaration(n)
	case *ast.InterfaceDeclaration, *ast.TypeAliasDeclaration, *ast.EnumDeclaration, *ast.NamespaceDeclaration, *ast.ModuleAugmentation:
		// declarations with no expression bodies to re-check here beyond
		// what bindDecls/buildMembers already elaborated.
	}
}

func (c *Checker) checkFunctionDeclaration(n *ast.FunctionDeclaration) {
	c.env.Bind(n.Name, c.functionDeclType(n))
	bodyEnv := c.env.Clone()
	scope := tparamScope{}
	c.resolveTypeParams(n.TypeParams, scope)
	for _, p := range n.Params {
		typ := c.interner.AnyID
		if p.TypeAnn != nil {
			typ = c.ResolveTypeAnn(p.TypeAnn, scope)
		}
		bodyEnv.Bind(p.Name, typ)
	}
	returnType := c.interner.AnyID
	if n.ReturnAnn != nil {
		returnType = c.ResolveTypeAnn(n.ReturnAnn, scope)
	}
	c.checkFunctionBody(n.Body, bodyEnv, returnType, n.Span())
}

func (c *Checker) checkClassDeclaration(n *ast.ClassDeclaration) {
	if c.classExtendsItself(n) {
		c.gateway.Emit(diagnostic.Diagnostic{
			Code:     diagnostic.TS2506,
			Severity: diagnostic.DefaultSeverity(diagnostic.TS2506),
			Message:  fmt.Sprintf(diagnostic.Template(diagnostic.TS2506), n.Name),
			Span:     n.Span(),
		})
		return
	}
	instance := c.classInstanceShape(n)
	instanceID := c.interner.Object(instance)
	for _, impl := range n.Implements {
		scope := c.defScope(n.Name)
		target := c.ResolveTypeAnn(impl, scope)
		c.gateway.CheckAssignable(instanceID, target, n.Span(), diagnostic.OriginAssignment)
	}
	c.checkOverriddenMembers(n, instance)

	prevSuper := c.superSigs
	c.superSigs = c.superConstructSigs(n)
	defer func() { c.superSigs = prevSuper }()

	for _, m := range n.Members {
		if m.Fn == nil {
			continue
		}
		scope := c.defScope(n.Name)
		bodyEnv := c.env.Clone()
		bodyEnv.Bind("this", instanceID)
		for _, p := range m.Fn.Params {
			typ := c.interner.AnyID
			if p.TypeAnn != nil {
				typ = c.ResolveTypeAnn(p.TypeAnn, scope)
			}
			bodyEnv.Bind(p.Name, typ)
		}
		returnType := c.interner.AnyID
		if m.Fn.ReturnAnn != nil {
			returnType = c.ResolveTypeAnn(m.Fn.ReturnAnn, scope)
		}
		c.checkFunctionBody(m.Fn.Body, bodyEnv, returnType, m.Fn.Span())
	}
}

// baseClassDecl resolves n's extends clause to the declaring
// ClassDeclaration, when the base is a plain class reference.
func (c *Checker) baseClassDecl(n *ast.ClassDeclaration) (*ast.ClassDeclaration, types.DefId) {
	ref, ok := n.Extends.(*ast.TypeRefAnn)
	if !ok {
		return nil, 0
	}
	def, ok := c.defs.Lookup(ref.Name)
	if !ok || c.defs.Kind(def) != defstore.DeclClass {
		return nil, 0
	}
	for _, p := range c.defs.Participants(def) {
		if cls, ok := p.Node.(*ast.ClassDeclaration); ok {
			return cls, def
		}
	}
	return nil, 0
}

// classExtendsItself walks n's base-class chain looking for n itself —
// directly (`class A extends A`) or through intermediates. The walk is
// bounded by the number of declared classes, so a chain that cycles
// without reaching n still terminates.
func (c *Checker) classExtendsItself(n *ast.ClassDeclaration) bool {
	seen := map[string]bool{n.Name: true}
	cur := n
	for cur.Extends != nil {
		base, _ := c.baseClassDecl(cur)
		if base == nil {
			return false
		}
		if base.Name == n.Name {
			return true
		}
		if seen[base.Name] {
			return false // a cycle not involving n; reported at n's participant
		}
		seen[base.Name] = true
		cur = base
	}
	return false
}

// superConstructSigs builds the construct signatures a `super(...)` call
// inside n's members resolves against — construct signatures, not call
// signatures, are used for super(). A base class
// with no declared constructor contributes the implicit zero-parameter
// default.
func (c *Checker) superConstructSigs(n *ast.ClassDeclaration) []types.Signature {
	base, def := c.baseClassDecl(n)
	if base == nil {
		return nil
	}
	instance := c.interner.Lazy(def)
	scope := c.defScope(base.Name)
	for _, m := range base.Members {
		if m.IsConstructor && m.Fn != nil {
			return []types.Signature{{
				Params: c.resolveParams(m.Fn.Params, scope),
				Return: instance,
			}}
		}
	}
	return []types.Signature{{Return: instance}}
}

// checkOverriddenMembers applies the class-override rule: every own
// member whose name also appears on the base class must be assignable
// to the base's member, reported as TS2416 with both class names.
func (c *Checker) checkOverriddenMembers(n *ast.ClassDeclaration, instance types.ObjectShape) {
	base, _ := c.baseClassDecl(n)
	if base == nil {
		return
	}
	baseShape := c.classInstanceShape(base)
	baseByName := make(map[string]types.PropertyDef, len(baseShape.Properties))
	for _, p := range baseShape.Properties {
		baseByName[p.Name] = p
	}
	ownNames := make(map[string]bool, len(n.Members))
	for _, m := range n.Members {
		if !m.IsStatic && !m.IsConstructor {
			ownNames[m.Name] = true
		}
	}
	for _, p := range instance.Properties {
		bp, overrides := baseByName[p.Name]
		if !overrides || !ownNames[p.Name] {
			continue
		}
		if p.Type == c.interner.ErrorID || bp.Type == c.interner.ErrorID {
			continue
		}
		if !c.lawyer.IsAssignable(p.Type, bp.Type) {
			c.gateway.Emit(diagnostic.Diagnostic{
				Code:     diagnostic.TS2416,
				Severity: diagnostic.DefaultSeverity(diagnostic.TS2416),
				Message:  fmt.Sprintf(diagnostic.Template(diagnostic.TS2416), p.Name, n.Name, base.Name),
				Span:     n.Span(),
				Source:   p.Type,
				Target:   bp.Type,
			})
		}
	}
}

func (c *Checker) checkFunctionBody(body ast.Node, env Env, returnType types.TypeId, anchor ast.Span) {
	if body == nil {
		return
	}
	prevReturn := c.expectedReturn
	c.expectedReturn = &returnType
	defer func() { c.expectedReturn = prevReturn }()
	c.checkStmt(body.(ast.Stmt), env)
}
