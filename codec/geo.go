package codec

import (
	"strconv"
	"strings"

	"github.com/s3db-io/s3db/util"
)

// GeoCodec normalises a latitude or longitude into [0, 2*max] before
// fixed-point base62 encoding, so the result never carries a sign. The
// descriptor is "geo:lat:<N>" or "geo:lon:<N>" where N is the fixed-point
// precision; the axis bound (90 for lat, 180 for lon) is derived from the
// "lat"/"lon" tag.
type GeoCodec struct{}

func (GeoCodec) Encode(descriptor string, value any) (string, error) {
	axis, precision, err := parseGeoDescriptor(descriptor)
	if err != nil {
		return "", err
	}
	f, ok := asFloat(value)
	if !ok {
		return "", invalidType("geo", value)
	}
	max := geoBound(axis)
	if f < -max || f > max {
		return "", invalidEncoding("geo", "out of range")
	}
	normalized := (f + max) * pow10f(precision)
	return util.EncodeBase62(int64(roundHalfAwayFromZero(normalized))), nil
}

func (GeoCodec) Decode(descriptor string, encoded string) (any, error) {
	axis, precision, err := parseGeoDescriptor(descriptor)
	if err != nil {
		return nil, err
	}
	n, ok := util.DecodeBase62(encoded)
	if !ok {
		return nil, invalidEncoding("geo", encoded)
	}
	max := geoBound(axis)
	return float64(n)/pow10f(precision) - max, nil
}

func parseGeoDescriptor(descriptor string) (axis string, precision int, err error) {
	_, param := ParseDescriptor(descriptor)
	parts := strings.SplitN(param, ":", 2)
	if len(parts) != 2 {
		return "", 0, invalidEncoding("geo", descriptor)
	}
	axis = parts[0]
	p, convErr := strconv.Atoi(parts[1])
	if convErr != nil {
		return "", 0, invalidEncoding("geo", descriptor)
	}
	return axis, p, nil
}

func geoBound(axis string) float64 {
	if axis == "lon" {
		return 180
	}
	return 90
}
