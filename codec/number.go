package codec

import (
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/s3db-io/s3db/util"
)

// NumberCodec renders an integer as a base62 token, or a float as a
// fixed-point base62 token with a declared precision
// ("number|precision:2"). Negative values carry their sign as a leading
// '-' before the base62 magnitude. The codec reads no declared range and
// applies no bias to negative values.
type NumberCodec struct{}

func (NumberCodec) Encode(descriptor string, value any) (string, error) {
	_, param := ParseDescriptor(descriptor)
	precision := parsePrecision(param)

	switch v := value.(type) {
	case int:
		return util.EncodeBase62(int64(v)), nil
	case int64:
		return util.EncodeBase62(v), nil
	case float64:
		if precision == 0 && v == math.Trunc(v) {
			return util.EncodeBase62(int64(v)), nil
		}
		scaled := new(big.Float).Mul(big.NewFloat(v), pow10(precision))
		i, _ := scaled.Int(nil)
		return util.EncodeBase62Big(i), nil
	default:
		return "", invalidType("number", value)
	}
}

func (NumberCodec) Decode(descriptor string, encoded string) (any, error) {
	_, param := ParseDescriptor(descriptor)
	precision := parsePrecision(param)

	if precision == 0 {
		n, ok := util.DecodeBase62(encoded)
		if !ok {
			return nil, invalidEncoding("number", encoded)
		}
		return n, nil
	}
	i, ok := util.DecodeBase62Big(encoded)
	if !ok {
		return nil, invalidEncoding("number", encoded)
	}
	f := new(big.Float).SetInt(i)
	f.Quo(f, pow10(precision))
	result, _ := f.Float64()
	return result, nil
}

func parsePrecision(param string) int {
	const prefix = "precision:"
	idx := strings.Index(param, prefix)
	if idx < 0 {
		return 0
	}
	n, err := strconv.Atoi(param[idx+len(prefix):])
	if err != nil {
		return 0
	}
	return n
}

func pow10(n int) *big.Float {
	f := big.NewFloat(1)
	ten := big.NewFloat(10)
	for i := 0; i < n; i++ {
		f.Mul(f, ten)
	}
	return f
}
