package schema

import (
	"github.com/cespare/xxhash/v2"

	"github.com/s3db-io/s3db/util"
)

// ShortKeyTable is the bidirectional dotted-path <-> short-key mapping,
// built on util.HashMap (kept from the teacher almost verbatim) with
// xxhash as the hash function.
type ShortKeyTable struct {
	toShort   *util.HashMap[string, string]
	fromShort *util.HashMap[string, string]
}

func stringEq(a, b any) bool { return a.(string) == b.(string) }

func stringHash(v any) int {
	return int(xxhash.Sum64String(v.(string)))
}

// buildShortKeyTable assigns each flat-map path a densely numbered base62
// short key, derived deterministically from the sorted list of paths so
// two identical schemas always compile to identical short-key tables
// (spec.md §4.3's hash-stability contract).
func buildShortKeyTable(entries []FlatEntry) *ShortKeyTable {
	t := &ShortKeyTable{
		toShort:   util.NewHashMap[string, string](stringEq, stringHash),
		fromShort: util.NewHashMap[string, string](stringEq, stringHash),
	}
	for i, e := range entries {
		key := util.EncodeBase62(int64(i))
		t.toShort.Put(e.Path, key)
		t.fromShort.Put(key, e.Path)
	}
	return t
}

func (t *ShortKeyTable) ToShort(path string) (string, bool)   { return t.toShort.Get(path) }
func (t *ShortKeyTable) FromShort(key string) (string, bool)  { return t.fromShort.Get(key) }
func (t *ShortKeyTable) Len() int                             { return t.toShort.Len() }
