// Package options implements the compiler-options record: a flat,
// already-resolved set of type-semantics-relevant flags, decoded from
// YAML. This is not tsconfig resolution — extends-chains, path mapping,
// and project references stay out of scope — it is decoding one flat
// record.
package options

import (
	"os"

	"gopkg.in/yaml.v3"
)

// CompilerOptions is the engine's semantic-options input: the Query
// Database's cache key includes whichever subset of these a given query
// actually consults, and the whole cache is invalidated whenever this
// record changes (there is no finer-grained invalidation — see
// query.DB.SetOptions).
type CompilerOptions struct {
	Strict                     bool     `yaml:"strict"`
	StrictNullChecks           bool     `yaml:"strictNullChecks"`
	StrictFunctionTypes        bool     `yaml:"strictFunctionTypes"`
	NoImplicitAny              bool     `yaml:"noImplicitAny"`
	ExactOptionalPropertyTypes bool     `yaml:"exactOptionalPropertyTypes"`
	AlwaysStrict               bool     `yaml:"alwaysStrict"`
	Target                     string   `yaml:"target"`
	Lib                        []string `yaml:"lib"`
	Module                     string   `yaml:"module"`
}

// Default returns the options used when nothing is configured: `strict`
// and every strictness flag off, target ES2022, module ESNext. The
// umbrella effect of `strict: true` is applied by Load, not here. `outDir`, `declaration`,
// and other options unrelated to type semantics simply have no field
// here: the engine never observes them.
func Default() CompilerOptions {
	return CompilerOptions{Target: "ES2022", Module: "ESNext"}
}

// Load decodes a CompilerOptions record from a YAML file at path,
// applying strict's umbrella effect after decoding so a bare
// `strict: true` in the file need not repeat every individual flag.
func Load(path string) (CompilerOptions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return CompilerOptions{}, err
	}
	opts := Default()
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return CompilerOptions{}, err
	}
	return opts.resolveStrict(), nil
}

func (o CompilerOptions) resolveStrict() CompilerOptions {
	if o.Strict {
		o.StrictNullChecks = true
		o.StrictFunctionTypes = true
		o.NoImplicitAny = true
		o.AlwaysStrict = true
	}
	return o
}

// RelationSubset is the subset of options a query cache key includes:
// the three flags that change how the relation engine and
// checker behave, isolated from the rest of the record so two option
// records differing only in, say, `target`, still share a cache.
type RelationSubset struct {
	StrictNullChecks    bool
	StrictFunctionTypes bool
	NoImplicitAny       bool
}

func (o CompilerOptions) RelationSubset() RelationSubset {
	return RelationSubset{
		StrictNullChecks:    o.StrictNullChecks,
		StrictFunctionTypes: o.StrictFunctionTypes,
		NoImplicitAny:       o.NoImplicitAny,
	}
}
