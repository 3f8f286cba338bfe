package codec

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// UUIDCodec renders a UUID's 16 raw bytes as base64, grounded on the
// teacher's internal/uuid helper (which builds the same 16-byte layout by
// hand); here google/uuid owns the parsing/formatting.
type UUIDCodec struct{}

func (UUIDCodec) Encode(_ string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", invalidType("uuid", value)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return "", invalidEncoding("uuid", s)
	}
	raw, _ := id.MarshalBinary()
	return base64.StdEncoding.EncodeToString(raw), nil
}

func (UUIDCodec) Decode(_ string, encoded string) (any, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) != 16 {
		return nil, invalidEncoding("uuid", encoded)
	}
	id, err := uuid.FromBytes(raw)
	if err != nil {
		return nil, invalidEncoding("uuid", encoded)
	}
	return id.String(), nil
}
