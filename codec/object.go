package codec

// ObjectCodec marks interior (nested-object) nodes in the flat map. The
// schema compiler handles recursion into an object's children directly
// (each child has its own flat-map entry and short key); this codec only
// covers the degenerate empty-object case, whose marker byte must still
// round-trip so a record with no populated children for that sub-tree is
// distinguishable from one where the sub-tree was never set.
type ObjectCodec struct{}

const emptyObjectMarker = "{}"

func (ObjectCodec) Encode(_ string, value any) (string, error) {
	m, ok := value.(map[string]any)
	if !ok {
		return "", invalidType("object", value)
	}
	if len(m) == 0 {
		return emptyObjectMarker, nil
	}
	return "", nil
}

func (ObjectCodec) Decode(_ string, encoded string) (any, error) {
	if encoded == emptyObjectMarker {
		return map[string]any{}, nil
	}
	return map[string]any{}, nil
}
