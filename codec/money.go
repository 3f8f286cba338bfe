package codec

import (
	"math"

	"github.com/s3db-io/s3db/util"
)

// MoneyCodec renders an integer smallest-unit amount ("money:USD") as a
// base62 token with an "m" marker prefix. Currency lives in the field
// descriptor, not in the encoded value, so no precision is lost and no
// currency code needs to round-trip through the metadata bytes.
type MoneyCodec struct{}

func (MoneyCodec) Encode(_ string, value any) (string, error) {
	var smallestUnit int64
	switch v := value.(type) {
	case int64:
		smallestUnit = v
	case int:
		smallestUnit = int64(v)
	case float64:
		smallestUnit = int64(math.Round(v))
	default:
		return "", invalidType("money", value)
	}
	return "m" + util.EncodeBase62(smallestUnit), nil
}

func (MoneyCodec) Decode(_ string, encoded string) (any, error) {
	if len(encoded) == 0 || encoded[0] != 'm' {
		return nil, invalidEncoding("money", encoded)
	}
	n, ok := util.DecodeBase62(encoded[1:])
	if !ok {
		return nil, invalidEncoding("money", encoded)
	}
	return n, nil
}
