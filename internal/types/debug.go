package types

import "github.com/davecgh/go-spew/spew"

// DumpType is a developer-facing recursive dump of a TypeId's TypeKey,
// used from debug tooling and test failure output — never from
// production diagnostic text, which goes through String instead.
func (in *Interner) DumpType(id TypeId) string {
	if !id.Valid() {
		return "<none>"
	}
	return spew.Sdump(in.Get(id))
}
