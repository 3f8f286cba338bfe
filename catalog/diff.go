package catalog

import (
	diffmatchpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// DiffText renders a human-readable diff between two catalog documents'
// stable JSON, embedded in resource_definitions_changed events so an
// operator can see exactly what shifted without re-deriving it from the
// hash.
func DiffText(before, after *Document) (string, error) {
	beforeJSON, err := before.Marshal()
	if err != nil {
		return "", err
	}
	afterJSON, err := after.Marshal()
	if err != nil {
		return "", err
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(beforeJSON), string(afterJSON), false)
	return dmp.DiffPrettyText(diffs), nil
}
