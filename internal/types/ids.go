// Package types is the solver's canonicalizing type interner: the
// closed set of type variants, the opaque handles that denote them, and
// the construction invariants every constructor enforces before
// returning. Equality of TypeId implies semantic equality of the
// denoted type; canonicalization guarantees the converse.
package types

import "fmt"

// TypeId is an opaque handle into the Interner. The zero value is
// never allocated to a real type; it is reserved as "no type" for
// optional fields (e.g. a TypeParameter with no constraint).
type TypeId uint32

func (t TypeId) String() string { return fmt.Sprintf("T%d", uint32(t)) }

// Valid reports whether t denotes an allocated type rather than the "no
// type" sentinel.
func (t TypeId) Valid() bool { return t != 0 }

// DefId is an opaque handle into the DefinitionStore, denoting one
// merged nominal declaration. Defined here, alongside TypeId, so that the
// Lazy and Application variants can reference a DefId without this
// package importing defstore — defstore imports types, not the reverse.
type DefId uint32

func (d DefId) String() string { return fmt.Sprintf("D%d", uint32(d)) }

func (d DefId) Valid() bool { return d != 0 }

// Less gives TypeIds a total, stable ordering. Numeric order on the
// allocation-order handle is already stable across runs because
// interning is append-only and single-threaded per compilation.
func Less(a, b TypeId) bool { return a < b }
