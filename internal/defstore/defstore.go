// Package defstore implements the DefinitionStore: allocating a DefId
// per named declaration, merging interface/namespace/module
// augmentations into one body per DefId, and surfacing the single
// get_members query the checker and evaluator read through.
package defstore

import (
	"fmt"
	"sort"

	"github.com/sunholo/tscore/internal/ast"
	"github.com/sunholo/tscore/internal/types"
)

// DeclKind is the kind of nominal declaration a DefId denotes.
type DeclKind int

const (
	DeclTypeAlias DeclKind = iota
	DeclInterface
	DeclClass
	DeclEnum
	DeclNamespace
)

// Participant is one declaration node that contributed to a merged DefId.
type Participant struct {
	Node ast.Decl
	Kind DeclKind
}

// entry is the store's internal bookkeeping for one DefId; Body is
// invalidated (set back to 0) whenever a new participant is added, so a
// stale merged view is never read after a late augmentation arrives.
type entry struct {
	name         string
	kind         DeclKind
	typeParams   []types.TypeParamInfo
	typeParamIDs []types.TypeId // the actual TypeParameter TypeIds occurring in body, parallel to typeParams
	participants []Participant
	body         types.TypeId // 0 until computed by Store.Merge
	conflict     bool
}

// Store is the DefinitionStore. One Store (like one Interner) is
// scoped to a single compilation.
type Store struct {
	interner *types.Interner
	byName   map[string]types.DefId
	entries  map[types.DefId]*entry
	nextID   uint32
}

func New(interner *types.Interner) *Store {
	return &Store{
		interner: interner,
		byName:   make(map[string]types.DefId),
		entries:  make(map[types.DefId]*entry),
	}
}

// Declare allocates (or returns the existing) DefId for name, recording
// node as one more participant. Declaration-merging policy is applied
// lazily, the first time GetMembers is asked for this DefId — Declare
// itself never computes a merged body. DefIds are allocated eagerly
// during the binding pre-pass so that Lazy references resolve without
// forward-declaration gaps; the body can still be unresolved at that
// point, only the handle needs to exist.
func (s *Store) Declare(name string, kind DeclKind, node ast.Decl, typeParams []types.TypeParamInfo) types.DefId {
	id, ok := s.byName[name]
	if !ok {
		s.nextID++
		id = types.DefId(s.nextID)
		s.byName[name] = id
		s.entries[id] = &entry{name: name, kind: kind, typeParams: typeParams}
	}
	e := s.entries[id]
	e.participants = append(e.participants, Participant{Node: node, Kind: kind})
	e.body = 0 // invalidate any previously computed merge
	return id
}

// Lookup resolves a previously declared name to its DefId.
func (s *Store) Lookup(name string) (types.DefId, bool) {
	id, ok := s.byName[name]
	return id, ok
}

// Kind returns the declaration kind recorded for id.
func (s *Store) Kind(id types.DefId) DeclKind { return s.entries[id].kind }

// TypeParams returns id's generic parameters with their constraints and
// defaults.
func (s *Store) TypeParams(id types.DefId) []types.TypeParamInfo { return s.entries[id].typeParams }

// SetTypeParams records id's resolved generic-parameter descriptors.
// Declare accepts them up front for callers that already have them, but
// a merge-eligible declaration's constraints and defaults can reference
// the declaration's own name, so the checker resolves them only after
// the DefId exists and records them here.
func (s *Store) SetTypeParams(id types.DefId, infos []types.TypeParamInfo) {
	s.entries[id].typeParams = infos
}

// SetTypeParamIDs records the actual TypeParameter TypeIds (allocated via
// Interner.TypeParameter when the declaration was first bound) that occur
// free in id's body, parallel to TypeParams. The evaluator's Application
// reduction substitutes arguments into the merged body and needs these
// concrete identities, not just the descriptive TypeParamInfo, to know
// what to replace.
func (s *Store) SetTypeParamIDs(id types.DefId, ids []types.TypeId) {
	s.entries[id].typeParamIDs = ids
}

// TypeParamIDs returns the identities recorded by SetTypeParamIDs.
func (s *Store) TypeParamIDs(id types.DefId) []types.TypeId { return s.entries[id].typeParamIDs }

// CachedBody returns id's previously computed body without triggering a
// MemberBuilder call — for callers, like the evaluator, that must not
// invoke a checker callback themselves mid-reduction.
func (s *Store) CachedBody(id types.DefId) (types.TypeId, bool) {
	e := s.entries[id]
	return e.body, e.body.Valid()
}

// Participants returns every declaration node that contributed to id —
// exposed for tooling (go-to-definition-style consumers) but never for
// ordinary type queries: the checker and solver always see the merged
// view, never the participant list.
func (s *Store) Participants(id types.DefId) []Participant {
	return append([]Participant(nil), s.entries[id].participants...)
}

// MemberBuilder computes the member-list TypeId for one participant's
// declaration content. The checker supplies this: DefinitionStore knows
// the merge *policy* but not how to turn a single
// ast.Decl's body into a types.TypeId — that requires the evaluator and
// type-annotation resolution the checker orchestrates.
type MemberBuilder func(ast.Decl) (types.ObjectShape, error)

// GetMembers returns id's fully merged member list, computing and
// caching it on first use. Merge policy:
//   - interface participants: concatenation of property lists, later
//     declarations overriding earlier ones by name;
//   - every participant's properties (class, namespace, interface alike)
//     are merged into one shape by name; a class's static side is not
//     modeled separately;
//   - conflicting member types across merges produce a conflict marker
//     the checker turns into a diagnostic, with the member's type pinned
//     to Error so the conflict never cascades.
func (s *Store) GetMembers(id types.DefId, build MemberBuilder) (types.TypeId, error) {
	e := s.entries[id]
	if e.body.Valid() {
		return e.body, nil
	}

	merged := make(map[string]types.PropertyDef)
	var order []string
	e.conflict = false

	for _, p := range e.participants {
		shape, err := build(p.Node)
		if err != nil {
			return 0, err
		}
		for _, prop := range shape.Properties {
			if existing, ok := merged[prop.Name]; ok && existing.Type != prop.Type {
				e.conflict = true
			}
			if _, seen := merged[prop.Name]; !seen {
				order = append(order, prop.Name)
			}
			merged[prop.Name] = prop // later participant wins
		}
	}

	props := make([]types.PropertyDef, 0, len(order))
	for _, name := range order {
		pd := merged[name]
		if e.conflict {
			pd.Type = s.interner.ErrorID
		}
		props = append(props, pd)
	}
	sort.Slice(props, func(i, j int) bool {
		// preserve first-seen declaration order, not alphabetical —
		// `order` already reflects it, so this is a stable no-op sort
		// guard against accidental future reordering of `order`.
		return indexOf(order, props[i].Name) < indexOf(order, props[j].Name)
	})

	e.body = s.interner.Object(types.ObjectShape{Properties: props})
	return e.body, nil
}

// HasConflict reports whether the last GetMembers computation for id
// found an incompatible merge across participants. The checker uses
// this to decide whether to emit a merge-conflict diagnostic for id.
func (s *Store) HasConflict(id types.DefId) bool { return s.entries[id].conflict }

// SetAliasBody records the resolved right-hand-side TypeId of a type
// alias declaration. Type aliases never merge — unlike interfaces,
// namespaces, and classes, a second `type T = ...`
// for an already-declared name is a redeclaration error the checker
// reports separately, not a merge — so a DefId of kind DeclTypeAlias
// carries a single body rather than a GetMembers-computed merge.
func (s *Store) SetAliasBody(id types.DefId, body types.TypeId) {
	s.entries[id].body = body
}

// AliasBody returns the body previously recorded by SetAliasBody.
func (s *Store) AliasBody(id types.DefId) (types.TypeId, bool) {
	e := s.entries[id]
	return e.body, e.body.Valid()
}

func indexOf(ss []string, s string) int {
	for i, v := range ss {
		if v == s {
			return i
		}
	}
	return -1
}

func (k DeclKind) String() string {
	switch k {
	case DeclTypeAlias:
		return "type alias"
	case DeclInterface:
		return "interface"
	case DeclClass:
		return "class"
	case DeclEnum:
		return "enum"
	case DeclNamespace:
		return "namespace"
	default:
		return fmt.Sprintf("DeclKind(%d)", int(k))
	}
}
