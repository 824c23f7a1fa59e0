package checker

import "github.com/sunholo/tscore/internal/types"

// Env is the type environment: a per-file, per-context map from symbol
// to TypeId, seeded lazily as Lazy(DefId) references are resolved.
// Keyed by symbol name rather than *binder.Symbol directly —
// narrowing produces a new Env for each flow-refined branch, and two
// branches narrowing the same symbol must not alias the same backing
// map, so Clone is a shallow copy the branch can mutate freely.
type Env map[string]types.TypeId

func NewEnv() Env { return Env{} }

func (e Env) Lookup(name string) (types.TypeId, bool) {
	t, ok := e[name]
	return t, ok
}

func (e Env) Bind(name string, t types.TypeId) { e[name] = t }

// Clone returns a shallow copy, the narrowing engine's unit of
// branch-local refinement (a guard narrows one name along one flow
// edge without mutating the type visible on sibling edges).
func (e Env) Clone() Env {
	out := make(Env, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
