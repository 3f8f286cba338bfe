package codec

import "strings"

// ArrayCodec encodes each element with an inner codec and joins them with
// '|'; '|' and '\' in an encoded element are escaped with '\'. An empty
// array encodes to the literal token "[]" so it is distinguishable from a
// single-element array whose element happens to encode to "".
type ArrayCodec struct {
	Registry *Registry
}

func (a ArrayCodec) Encode(descriptor string, value any) (string, error) {
	_, elemDescriptor := ParseDescriptor(descriptor)
	elemCodec, err := a.elementCodec(elemDescriptor)
	if err != nil {
		return "", err
	}

	items, ok := value.([]any)
	if !ok {
		return "", invalidType("array", value)
	}
	if len(items) == 0 {
		return "[]", nil
	}

	tokens := make([]string, len(items))
	for i, item := range items {
		enc, err := elemCodec.Encode(elemDescriptor, item)
		if err != nil {
			return "", err
		}
		tokens[i] = escapeArrayToken(enc)
	}
	return strings.Join(tokens, "|"), nil
}

func (a ArrayCodec) Decode(descriptor string, encoded string) (any, error) {
	_, elemDescriptor := ParseDescriptor(descriptor)
	elemCodec, err := a.elementCodec(elemDescriptor)
	if err != nil {
		return nil, err
	}
	if encoded == "[]" {
		return []any{}, nil
	}
	tokens := splitArrayTokens(encoded)
	out := make([]any, len(tokens))
	for i, tok := range tokens {
		dec, err := elemCodec.Decode(elemDescriptor, unescapeArrayToken(tok))
		if err != nil {
			return nil, err
		}
		out[i] = dec
	}
	return out, nil
}

func (a ArrayCodec) elementCodec(elemDescriptor string) (Codec, error) {
	tag, _ := ParseDescriptor(elemDescriptor)
	return a.Registry.Get(tag)
}

func escapeArrayToken(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `|`, `\|`)
	return s
}

func unescapeArrayToken(s string) string {
	var b strings.Builder
	escaped := false
	for _, r := range s {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// splitArrayTokens splits on unescaped '|' characters only.
func splitArrayTokens(s string) []string {
	var tokens []string
	var cur strings.Builder
	escaped := false
	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			cur.WriteRune(r)
			escaped = true
		case r == '|':
			tokens = append(tokens, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	tokens = append(tokens, cur.String())
	return tokens
}
