package record

import (
	"github.com/s3db-io/s3db/behavior"
	"github.com/s3db-io/s3db/codec"
	"github.com/s3db-io/s3db/errs"
	"github.com/s3db-io/s3db/schema"
)

// encode runs the record through the compiled schema's validator, then
// every leaf codec, producing a candidate *behavior.Envelope (before the
// behavior variant has touched it).
func encode(compiled *schema.Compiled, registry *codec.Registry, doc map[string]any) (*behavior.Envelope, error) {
	if fieldErrs := compiled.Validator.Validate(doc); len(fieldErrs) > 0 {
		msgs := make([]string, len(fieldErrs))
		for i, fe := range fieldErrs {
			msgs[i] = fe.String()
		}
		return nil, errs.ValidationFailedErr(msgs)
	}

	fields := map[string]string{}
	for _, e := range compiled.FlatMap {
		if e.Attr.Type == "object" {
			continue
		}
		value, present := lookup(doc, e.Path)
		if !present {
			continue
		}
		c, err := registry.Get(codecTag(e.Attr.Type))
		if err != nil {
			return nil, err
		}
		encoded, err := c.Encode(e.Attr.Type, value)
		if err != nil {
			return nil, errs.Wrap(errs.ValidationFailed, err, "encoding field %s", e.Path)
		}
		shortKey, ok := compiled.ShortKeys.ToShort(e.Path)
		if !ok {
			return nil, errs.InvalidArgumentErr("no short key for path %s", e.Path)
		}
		fields[shortKey] = encoded
	}

	return &behavior.Envelope{
		Fields:  fields,
		Headers: map[string]string{"schema-hash": compiled.DefinitionHash.String()},
	}, nil
}

// decode reverses encode: short-keyed fields -> dotted paths -> nested doc.
func decode(compiled *schema.Compiled, registry *codec.Registry, fields map[string]string) (map[string]any, error) {
	doc := map[string]any{}
	for shortKey, encoded := range fields {
		path, ok := compiled.ShortKeys.FromShort(shortKey)
		if !ok {
			continue // unknown short key: tolerate forward/backward schema drift
		}
		attr := findAttr(compiled.FlatMap, path)
		if attr == nil || attr.Type == "object" {
			continue
		}
		c, err := registry.Get(codecTag(attr.Type))
		if err != nil {
			return nil, err
		}
		value, err := c.Decode(attr.Type, encoded)
		if err != nil {
			return nil, errs.Wrap(errs.Internal, err, "decoding field %s", path)
		}
		setPath(doc, path, value)
	}
	return doc, nil
}

func codecTag(descriptor string) string {
	tag, _ := codec.ParseDescriptor(descriptor)
	return tag
}

func findAttr(flat []schema.FlatEntry, path string) *schema.Attribute {
	for _, e := range flat {
		if e.Path == path {
			return e.Attr
		}
	}
	return nil
}

func lookup(doc map[string]any, path string) (any, bool) {
	cur := any(doc)
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

func setPath(doc map[string]any, path string, value any) {
	segs := splitPath(path)
	cur := doc
	for i, seg := range segs {
		if i == len(segs)-1 {
			cur[seg] = value
			return
		}
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[seg] = next
		}
		cur = next
	}
}

func splitPath(path string) []string {
	var segs []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '.' {
			segs = append(segs, path[start:i])
			start = i + 1
		}
	}
	return segs
}
