package codec

import (
	"time"

	"github.com/s3db-io/s3db/util"
)

// TimestampCodec renders a time as Unix-milliseconds base62. ISO-8601
// strings are accepted on encode as a convenience; decode always yields an
// RFC3339 string in UTC.
type TimestampCodec struct{}

func (TimestampCodec) Encode(_ string, value any) (string, error) {
	var t time.Time
	switch v := value.(type) {
	case time.Time:
		t = v
	case string:
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return "", invalidEncoding("timestamp", v)
		}
		t = parsed
	case int64:
		t = time.UnixMilli(v)
	default:
		return "", invalidType("timestamp", value)
	}
	return util.EncodeBase62(t.UnixMilli()), nil
}

func (TimestampCodec) Decode(_ string, encoded string) (any, error) {
	ms, ok := util.DecodeBase62(encoded)
	if !ok {
		return nil, invalidEncoding("timestamp", encoded)
	}
	return time.UnixMilli(ms).UTC().Format(time.RFC3339), nil
}
