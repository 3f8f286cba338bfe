package schema

import (
	digest "github.com/opencontainers/go-digest"
)

// Compiled is the immutable bundle produced by Compile (C3). Every field
// is safe to share read-only across goroutines once built — nothing on
// this struct is mutated after Compile returns, matching spec.md §5's
// immutability requirement for compiled schemas.
type Compiled struct {
	Attributes     map[string]*Attribute
	FlatMap        []FlatEntry
	ShortKeys      *ShortKeyTable
	Validator      *Validator
	DefinitionHash digest.Digest
	Hooks          *HookSet
}

// Options are the non-attribute parts of a resource definition that also
// feed the definition hash.
type Options struct {
	Behavior   string
	Partitions any
	Hooks      *HookSet
}

// Compile builds a Compiled bundle from a raw attribute tree. Two
// structurally identical trees (regardless of Go map key iteration order)
// always compile to identical FlatMap ordering, ShortKeys, and
// DefinitionHash (spec.md §8 property 6).
func Compile(tree map[string]*Attribute, opts Options) (*Compiled, error) {
	normalized := normalize(tree)
	flat := flatten(normalized, "")
	shortKeys := buildShortKeyTable(flat)
	hash, err := DefinitionHash(normalized, opts.Behavior, opts.Partitions)
	if err != nil {
		return nil, err
	}
	return &Compiled{
		Attributes:     normalized,
		FlatMap:        flat,
		ShortKeys:      shortKeys,
		Validator:      &Validator{entries: flat},
		DefinitionHash: hash,
		Hooks:          opts.Hooks,
	}, nil
}
