package schema

import (
	"fmt"
	"unicode/utf8"
)

// FieldError describes one validation failure against a compiled schema.
type FieldError struct {
	Path    string
	Message string
}

func (f FieldError) String() string {
	return fmt.Sprintf("%s: %s", f.Path, f.Message)
}

// Validator is the pre-compiled predicate produced by Compile. It walks a
// record against the flat map and produces ordered FieldErrors.
type Validator struct {
	entries []FlatEntry
}

// Validate checks record against every leaf entry's constraints, in flat
// map order (parents before children), returning all violations found.
func (v *Validator) Validate(record map[string]any) []FieldError {
	var errs []FieldError
	for _, e := range v.entries {
		value, present := lookupPath(record, e.Path)
		if e.Attr.Required && !present {
			errs = append(errs, FieldError{Path: e.Path, Message: "required field is missing"})
			continue
		}
		if !present {
			continue
		}
		if e.Attr.Type == "object" {
			continue
		}
		if e.Attr.MaxLength > 0 {
			if s, ok := value.(string); ok && utf8.RuneCountInString(s) > e.Attr.MaxLength {
				errs = append(errs, FieldError{Path: e.Path, Message: fmt.Sprintf("exceeds max length %d", e.Attr.MaxLength)})
			}
		}
	}
	return errs
}

// lookupPath resolves a dotted path against a nested map[string]any tree.
func lookupPath(record map[string]any, path string) (any, bool) {
	cur := any(record)
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '.' {
			seg := path[start:i]
			m, ok := cur.(map[string]any)
			if !ok {
				return nil, false
			}
			v, ok := m[seg]
			if !ok {
				return nil, false
			}
			cur = v
			start = i + 1
		}
	}
	return cur, true
}
