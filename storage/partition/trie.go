package partition

import (
	patricia "github.com/tchap/go-patricia/v2/patricia"
)

// Trie indexes a set of known partition-reference key prefixes for O(1)
// prefix membership/lookup, replacing the teacher's hand-rolled
// partitionTrie (storage/disk/partition.go) with a maintained
// implementation.
type Trie struct {
	t *patricia.Trie
}

func NewTrie() *Trie {
	return &Trie{t: patricia.NewTrie()}
}

func (p *Trie) Insert(key string) {
	p.t.Insert(patricia.Prefix(key), true)
}

func (p *Trie) Delete(key string) {
	p.t.Delete(patricia.Prefix(key))
}

// HasPrefix reports whether any inserted key starts with prefix.
func (p *Trie) HasPrefix(prefix string) bool {
	found := false
	p.t.VisitSubtree(patricia.Prefix(prefix), func(patricia.Prefix, patricia.Item) error {
		found = true
		return nil
	})
	return found
}

// Keys returns every inserted key under prefix.
func (p *Trie) Keys(prefix string) []string {
	var out []string
	p.t.VisitSubtree(patricia.Prefix(prefix), func(k patricia.Prefix, _ patricia.Item) error {
		out = append(out, string(k))
		return nil
	})
	return out
}
