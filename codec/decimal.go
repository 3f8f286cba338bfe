package codec

import (
	"strconv"
	"strings"

	"github.com/s3db-io/s3db/util"
)

// DecimalCodec renders round(value * 10^N) as base62, where N is declared
// in the descriptor ("decimal:2"). Lossy beyond the declared precision, by
// design (spec.md's round-trip law excludes decimal:<N> from exactness).
type DecimalCodec struct{}

func (DecimalCodec) Encode(descriptor string, value any) (string, error) {
	_, param := ParseDescriptor(descriptor)
	n := decimalPrecision(param)
	f, ok := asFloat(value)
	if !ok {
		return "", invalidType("decimal", value)
	}
	scaled := f * pow10f(n)
	return util.EncodeBase62(int64(roundHalfAwayFromZero(scaled))), nil
}

func (DecimalCodec) Decode(descriptor string, encoded string) (any, error) {
	_, param := ParseDescriptor(descriptor)
	n := decimalPrecision(param)
	v, ok := util.DecodeBase62(encoded)
	if !ok {
		return nil, invalidEncoding("decimal", encoded)
	}
	return float64(v) / pow10f(n), nil
}

func decimalPrecision(param string) int {
	n, err := strconv.Atoi(strings.TrimSpace(param))
	if err != nil {
		return 0
	}
	return n
}

func pow10f(n int) float64 {
	f := 1.0
	for i := 0; i < n; i++ {
		f *= 10
	}
	return f
}

func roundHalfAwayFromZero(v float64) float64 {
	if v >= 0 {
		return float64(int64(v + 0.5))
	}
	return float64(int64(v - 0.5))
}

func asFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
