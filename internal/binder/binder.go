// Package binder models the read-only binder state the checker consumes:
// the scope/symbol graph and the control-flow graph with its guard
// annotations. The binder's own construction lives outside this
// repository — it is a consumed interface — so this package holds only
// the surface the checker and narrowing engine read, plus a small
// in-memory builder so tests can assemble a binder state without a real
// parser.
package binder

import "github.com/sunholo/tscore/internal/ast"

// SymbolFlags tags what a symbol denotes; a name can be more than one of
// these at once (a class is both a value and a type).
type SymbolFlags uint8

const (
	SymbolValue SymbolFlags = 1 << iota
	SymbolType
	SymbolNamespace
	SymbolAlias
)

// Symbol is a name the binder resolved, with every declaration site that
// contributed to it (declaration merging starts here: multiple
// declaration nodes can share one Symbol).
type Symbol struct {
	Name         string
	Flags        SymbolFlags
	Declarations []ast.Decl
}

// Scope is one lexical scope; Parent is nil at the top of a file.
type Scope struct {
	Parent  *Scope
	Symbols map[string]*Symbol
}

// Resolve walks up the scope chain, the only identifier resolution the
// checker performs — it never re-implements name lookup.
func (s *Scope) Resolve(name string) (*Symbol, bool) {
	for sc := s; sc != nil; sc = sc.Parent {
		if sym, ok := sc.Symbols[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// GuardKind tags the shape of a type guard extracted from a control-flow
// construct.
type GuardKind int

const (
	GuardNonNull GuardKind = iota
	GuardTypeof
	GuardInstanceof
	GuardDiscriminant
	GuardIn
	GuardTruthy
	GuardPredicate
)

// Guard is one flow-sensitive fact attached to an edge of the FlowGraph:
// "along this edge, Subject's type is refined per Kind using the
// accompanying literal/operand data."
type Guard struct {
	Kind        GuardKind
	Subject     ast.Expr // the narrowed reference, e.g. `x` or `x.kind`
	TypeofValue string   // for GuardTypeof: "string", "number", ...
	ClassName   string   // for GuardInstanceof
	PropertyKey string   // for GuardDiscriminant / GuardIn
	LiteralText string   // for GuardDiscriminant: the literal compared against
	Negated     bool     // true on the else-branch edge
	PredicateOf string   // for GuardPredicate: the asserted type's TypeRefAnn name
}

// FlowNode is one point in the control-flow graph; Antecedents are its
// predecessor edges, each optionally carrying the Guard that held along
// that edge.
type FlowNode struct {
	ID          int
	Antecedents []FlowEdge
	Node        ast.Node // the AST node this flow point corresponds to
}

type FlowEdge struct {
	From  *FlowNode
	Guard *Guard // nil for an unconditional edge (e.g. after a `;`)
}

// State is the full read-only binder surface for one file: its root
// scope, and the flow graph indexed by the AST node each FlowNode sits
// after.
type State struct {
	Root      *Scope
	FlowNodes map[ast.Node]*FlowNode
}

// FlowAt returns the flow node recorded immediately after n, if the
// binder tracked one (not every node is a flow point — only ones where a
// narrowable reference could change type).
func (s *State) FlowAt(n ast.Node) (*FlowNode, bool) {
	fn, ok := s.FlowNodes[n]
	return fn, ok
}

// Builder assembles a State programmatically — the binder's real
// implementation is out of scope, but tests need some way to hand the
// checker a scope/flow graph without running a parser.
type Builder struct {
	state   *State
	counter int
}

func NewBuilder() *Builder {
	return &Builder{state: &State{
		Root:      &Scope{Symbols: map[string]*Symbol{}},
		FlowNodes: map[ast.Node]*FlowNode{},
	}}
}

func (b *Builder) Declare(scope *Scope, name string, flags SymbolFlags, decl ast.Decl) *Symbol {
	sym, ok := scope.Symbols[name]
	if !ok {
		sym = &Symbol{Name: name, Flags: flags}
		scope.Symbols[name] = sym
	}
	sym.Flags |= flags
	sym.Declarations = append(sym.Declarations, decl)
	return sym
}

func (b *Builder) NewScope(parent *Scope) *Scope {
	return &Scope{Parent: parent, Symbols: map[string]*Symbol{}}
}

// RecordFlow attaches a FlowNode to n with the given antecedent edges.
func (b *Builder) RecordFlow(n ast.Node, edges ...FlowEdge) *FlowNode {
	b.counter++
	fn := &FlowNode{ID: b.counter, Antecedents: edges, Node: n}
	b.state.FlowNodes[n] = fn
	return fn
}

func (b *Builder) Build() *State { return b.state }
