package schema

import (
	digest "github.com/opencontainers/go-digest"
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cache memoises Compiled bundles by definition hash in a fixed-size LRU.
// No resource option enables it and the record engine does not consult
// it; the engine keeps its compiled resources in its own maps.
type Cache struct {
	inner *lru.Cache[digest.Digest, *Compiled]
}

// NewCache builds a cache holding up to size compiled bundles.
func NewCache(size int) (*Cache, error) {
	inner, err := lru.New[digest.Digest, *Compiled](size)
	if err != nil {
		return nil, err
	}
	return &Cache{inner: inner}, nil
}

func (c *Cache) Get(hash digest.Digest) (*Compiled, bool) {
	return c.inner.Get(hash)
}

func (c *Cache) Put(compiled *Compiled) {
	c.inner.Add(compiled.DefinitionHash, compiled)
}
