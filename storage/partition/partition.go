// Package partition implements the declarative partition engine (C6):
// canonical object keys, reference-object lifecycle, and orphan detection.
// Grounded directly on the teacher's storage/disk/paths.go and
// storage/disk/partition.go (pathMapper, partitionTrie,
// buildPartitionTrie), with the hand-rolled trie replaced by
// tchap/go-patricia.
package partition

import (
	"sort"
	"strings"

	"github.com/s3db-io/s3db/errs"
)

// FieldRule is one (field, rule) pair declared for a partition.
type FieldRule struct {
	Field string `json:"field"`
	Rule  string `json:"rule"` // "string", "string|maxlength:N", "date|maxlength:10", "number"
}

// Definition is a named partition: the ordered field/rule list the user
// declared (declaration order is preserved for display; canonical key
// construction always re-sorts by field name).
type Definition struct {
	Name   string      `json:"name"`
	Fields []FieldRule `json:"fields"`
}

// RuleApplier renders a raw field value into a partition segment token.
// record/ wires this to the codec registry for "number" and to plain
// string slicing for "string"/"date".
type RuleApplier func(rule string, value any) (string, error)

// Key builds the canonical reference key for one partition entry of one
// record, or returns ok=false if a required field's value is null/missing
// (meaning the record doesn't participate in this partition entry).
func Key(resource string, def Definition, record map[string]any, id string, apply RuleApplier) (key string, ok bool, err error) {
	segs := make([]FieldRule, len(def.Fields))
	copy(segs, def.Fields)
	sort.Slice(segs, func(i, j int) bool { return segs[i].Field < segs[j].Field })

	tokens := make([]string, 0, len(segs))
	for _, fr := range segs {
		val, present := record[fr.Field]
		if !present || val == nil {
			return "", false, nil
		}
		tok, err := apply(fr.Rule, val)
		if err != nil {
			return "", false, errs.Wrap(errs.PartitionRuleInvalid, err, "applying rule %q to field %q", fr.Rule, fr.Field)
		}
		tokens = append(tokens, fr.Field+"="+tok)
	}

	var b strings.Builder
	b.WriteString("resource=")
	b.WriteString(resource)
	b.WriteString("/partition=")
	b.WriteString(def.Name)
	for _, t := range tokens {
		b.WriteString("/")
		b.WriteString(t)
	}
	b.WriteString("/id=")
	b.WriteString(id)
	return b.String(), true, nil
}

// Prefix returns the key prefix under which every reference for
// (resource, partition name) lives, used for full-partition scans
// (orphan detection).
func Prefix(resource, partitionName string) string {
	return "resource=" + resource + "/partition=" + partitionName + "/"
}

// ValuePrefix builds the key prefix for an exact-match query against def:
// the same sorted field=value segments Key uses, without the trailing
// "/id=" segment. query() lists everything under this prefix and resolves
// each reference to its primary. Returns an error if a required field is
// missing from values — unlike Key, a query's match set must be complete
// (spec.md §4.7: "only accepts exact matches on declared partitions").
func ValuePrefix(resource string, def Definition, values map[string]any, apply RuleApplier) (string, error) {
	segs := make([]FieldRule, len(def.Fields))
	copy(segs, def.Fields)
	sort.Slice(segs, func(i, j int) bool { return segs[i].Field < segs[j].Field })

	var b strings.Builder
	b.WriteString("resource=")
	b.WriteString(resource)
	b.WriteString("/partition=")
	b.WriteString(def.Name)
	for _, fr := range segs {
		val, present := values[fr.Field]
		if !present || val == nil {
			return "", errs.InvalidArgumentErr("query against partition %q missing required field %q", def.Name, fr.Field)
		}
		tok, err := apply(fr.Rule, val)
		if err != nil {
			return "", errs.Wrap(errs.PartitionRuleInvalid, err, "applying rule %q to field %q", fr.Rule, fr.Field)
		}
		b.WriteString("/")
		b.WriteString(fr.Field)
		b.WriteString("=")
		b.WriteString(tok)
	}
	b.WriteString("/")
	return b.String(), nil
}

// PrimaryKey builds the canonical key for a record's primary object.
func PrimaryKey(resource, version, id string) string {
	return "resource=" + resource + "/v=" + version + "/id=" + id
}

// ApplyDefaultRule implements the pure, deterministic rule application for
// the "string"/"string|maxlength:N"/"date|maxlength:10" rule families.
// "number" is handled by record/ via the codec registry so this package
// does not need to import codec.
func ApplyDefaultRule(rule string, value any) (string, error) {
	tag, param := splitRule(rule)
	switch tag {
	case "string":
		s, ok := value.(string)
		if !ok {
			return "", errs.InvalidArgumentErr("expected string for rule %q", rule)
		}
		if n := maxLength(param); n >= 0 {
			return truncateRunes(s, n), nil
		}
		return s, nil
	case "date":
		s, ok := value.(string)
		if !ok {
			return "", errs.InvalidArgumentErr("expected ISO date string for rule %q", rule)
		}
		n := maxLength(param)
		if n < 0 {
			n = 10
		}
		return truncateRunes(s, n), nil
	default:
		return "", errs.PartitionRuleInvalidErr(rule)
	}
}

func splitRule(rule string) (tag, param string) {
	if i := strings.IndexByte(rule, '|'); i >= 0 {
		return rule[:i], rule[i+1:]
	}
	return rule, ""
}

func maxLength(param string) int {
	const prefix = "maxlength:"
	if !strings.HasPrefix(param, prefix) {
		return -1
	}
	n := 0
	for _, r := range param[len(prefix):] {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
