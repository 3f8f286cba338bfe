// Package catalog implements the single metadata document (C8) describing
// the database: per-resource versions, definition hashes, behavior,
// partitions, and plugin-owned opaque subtrees. Grounded on the teacher's
// storage/disk/disk.go self-healing metadata bootstrap
// (loadMetadata/setMetadata/validatePartitions).
package catalog

import (
	"encoding/json"
	"time"

	digest "github.com/opencontainers/go-digest"

	"github.com/s3db-io/s3db/errs"
)

const DefaultPath = "s3db.json"
const FormatVersion = "1"
const EngineVersion = "0.1.0"

// ResourceVersion is one entry in a resource's versions map, keyed by its
// definition hash.
type ResourceVersion struct {
	Schema     map[string]any `json:"schema"`
	Behavior   string         `json:"behavior"`
	Partitions any            `json:"partitions"`
	Timestamps bool           `json:"timestamps"`
	Paranoid   bool           `json:"paranoid"`
	CreatedAt  time.Time      `json:"createdAt"`
}

// Resource is the catalog's record for one resource: its current version
// pointer plus every version ever created.
type Resource struct {
	CurrentVersion string                     `json:"currentVersion"`
	Versions       map[string]*ResourceVersion `json:"versions"`
}

// Document is the full catalog document, `<prefix>/s3db.json`.
type Document struct {
	Version      string              `json:"version"`
	EngineVersion string             `json:"engineVersion"`
	Resources    map[string]*Resource `json:"resources"`
	Plugins      map[string]json.RawMessage `json:"plugins"`

	// unknown preserves any top-level keys this version of the engine
	// doesn't recognise, so a rewrite never drops forward-compatible data
	// (spec.md §3's "unknown top-level keys are preserved verbatim").
	unknown map[string]json.RawMessage `json:"-"`
}

func NewDocument() *Document {
	return &Document{
		Version:       FormatVersion,
		EngineVersion: EngineVersion,
		Resources:     map[string]*Resource{},
		Plugins:       map[string]json.RawMessage{},
	}
}

// Validate checks the contract invariants from spec.md §3.
func (d *Document) Validate() error {
	for name, r := range d.Resources {
		if _, ok := r.Versions[r.CurrentVersion]; !ok {
			return errs.CatalogCorruptErr("resource " + name + ": currentVersion not present in versions map")
		}
		for hash, v := range r.Versions {
			recomputed, err := recomputeHash(v)
			if err != nil {
				return errs.CatalogCorruptErr("resource " + name + " version " + hash + ": cannot recompute hash: " + err.Error())
			}
			if recomputed.String() != hash {
				return errs.CatalogCorruptErr("resource " + name + " version " + hash + ": stored hash does not match schema")
			}
		}
	}
	return nil
}

func recomputeHash(v *ResourceVersion) (digest.Digest, error) {
	return hashFor(v.Schema, v.Behavior, v.Partitions)
}

// Marshal serialises the document with recursively sorted keys (the
// "stable-sorted" catalog file format from spec.md §6).
func (d *Document) Marshal() ([]byte, error) {
	payload := map[string]any{
		"version":       d.Version,
		"engineVersion": d.EngineVersion,
		"resources":     d.Resources,
		"plugins":       d.Plugins,
	}
	for k, raw := range d.unknown {
		var v any
		if err := json.Unmarshal(raw, &v); err == nil {
			payload[k] = v
		}
	}
	return stableMarshal(payload)
}

func UnmarshalDocument(data []byte) (*Document, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	d := NewDocument()
	if v, ok := raw["version"]; ok {
		json.Unmarshal(v, &d.Version)
		delete(raw, "version")
	}
	if v, ok := raw["engineVersion"]; ok {
		json.Unmarshal(v, &d.EngineVersion)
		delete(raw, "engineVersion")
	}
	if v, ok := raw["resources"]; ok {
		json.Unmarshal(v, &d.Resources)
		delete(raw, "resources")
	}
	if v, ok := raw["plugins"]; ok {
		json.Unmarshal(v, &d.Plugins)
		delete(raw, "plugins")
	}
	d.unknown = raw
	return d, nil
}
