package record

import (
	"github.com/s3db-io/s3db/errs"
	"github.com/s3db-io/s3db/internal/deepcopy"
	"github.com/s3db-io/s3db/schema"
)

// rejectPartialNestedPatch walks patch looking for dot-notation updates to
// a nested object that would silently drop sibling fields: if patch
// supplies a partial value for a path the schema declares as an object,
// every declared child key must be present. This is the resolution of the
// dot-notation patch ambiguity: PartialObjectPatchRejected rather than the
// silent-loss behavior of the source system.
func rejectPartialNestedPatch(compiled *schema.Compiled, patch map[string]any) error {
	return rejectPartialNestedPatchAt(compiled, "", patch)
}

func rejectPartialNestedPatchAt(compiled *schema.Compiled, prefix string, patch map[string]any) error {
	for key, val := range patch {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		nested, isMap := val.(map[string]any)
		if !isMap {
			continue
		}
		attr := findAttr(compiled.FlatMap, path)
		if attr == nil || attr.Type != "object" || len(attr.Children) == 0 {
			continue
		}
		for child := range attr.Children {
			if _, present := nested[child]; !present {
				return errs.PartialPatchRejectedErr(path)
			}
		}
		if err := rejectPartialNestedPatchAt(compiled, path, nested); err != nil {
			return err
		}
	}
	return nil
}

// deepMergeNew copies base and merges patch into the copy, recursing into
// any key present as a map on both sides (update's merge semantics).
func deepMergeNew(base, patch map[string]any) map[string]any {
	out := deepcopy.Map(base)
	deepMergeInto(out, patch)
	return out
}

func deepMergeInto(dst, src map[string]any) {
	for k, v := range src {
		if sub, ok := v.(map[string]any); ok {
			if existing, ok2 := dst[k].(map[string]any); ok2 {
				deepMergeInto(existing, sub)
				continue
			}
		}
		dst[k] = v
	}
}
