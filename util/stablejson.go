// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package util

import (
	"encoding/json"
	"sort"
)

// StableJSON marshals v with every object's keys sorted recursively, so
// that two structurally identical values (built from maps, whose key order
// Go does not guarantee) always serialise to byte-identical JSON. This is
// the representation hashed to produce a schema's definition hash, and the
// representation written to the catalog document.
func StableJSON(v any) ([]byte, error) {
	normalized := stableNormalize(v)
	return json.Marshal(normalized)
}

func stableNormalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(orderedMap, 0, len(keys))
		for _, k := range keys {
			out = append(out, orderedPair{k, stableNormalize(t[k])})
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = stableNormalize(e)
		}
		return out
	default:
		return v
	}
}

// orderedMap marshals as a JSON object preserving insertion order, used so
// stableNormalize's sorted key order survives into the final bytes (a plain
// map[string]any would re-shuffle keys through encoding/json's own sort,
// which happens to match here, but orderedMap makes the guarantee explicit
// and doesn't depend on that implementation detail).
type orderedPair struct {
	key string
	val any
}

type orderedMap []orderedPair

func (m orderedMap) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, p := range m {
		if i > 0 {
			buf = append(buf, ',')
		}
		kb, err := json.Marshal(p.key)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(p.val)
		if err != nil {
			return nil, err
		}
		buf = append(buf, kb...)
		buf = append(buf, ':')
		buf = append(buf, vb...)
	}
	buf = append(buf, '}')
	return buf, nil
}
