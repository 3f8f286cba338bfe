package codec

import (
	"encoding/base64"
	"encoding/hex"
	"net"
	"strings"
)

// IP4Codec renders an IPv4 address as its 4 raw bytes, base64-encoded
// (always 8 chars with padding).
type IP4Codec struct{}

func (IP4Codec) Encode(_ string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", invalidType("ip4", value)
	}
	ip := net.ParseIP(s)
	v4 := ip.To4()
	if v4 == nil {
		return "", invalidEncoding("ip4", s)
	}
	return base64.StdEncoding.EncodeToString(v4), nil
}

func (IP4Codec) Decode(_ string, encoded string) (any, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(raw) != 4 {
		return nil, invalidEncoding("ip4", encoded)
	}
	return net.IP(raw).String(), nil
}

// IP6Codec renders a fully-expanded IPv6 address as its 16 raw bytes,
// base64-encoded, behind an "e" marker. Compressed forms (containing
// "::") pass through unencoded behind a "p" marker instead, matching the
// spec's "applied only to fully-expanded forms" rule.
//
// net.IP.String() always renders the shortest (compressed, leading-zero
// stripped) form, so decoding through it would silently reformat a
// fully-expanded input and break the byte-for-byte round-trip law
// (§8.1). Decode instead rebuilds the canonical 8-groups-of-4-hex-digits
// expansion straight from the raw bytes, which is exactly the form
// Encode requires on the way in.
type IP6Codec struct{}

func (IP6Codec) Encode(_ string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", invalidType("ip6", value)
	}
	ip := net.ParseIP(s)
	v6 := ip.To16()
	if v6 == nil || ip.To4() != nil {
		return "", invalidEncoding("ip6", s)
	}
	if strings.Contains(s, "::") {
		return "p" + s, nil
	}
	if expandIP6(v6) != strings.ToLower(s) {
		return "", invalidEncoding("ip6", s)
	}
	return "e" + base64.StdEncoding.EncodeToString(v6), nil
}

func (IP6Codec) Decode(_ string, encoded string) (any, error) {
	if len(encoded) == 0 {
		return nil, invalidEncoding("ip6", encoded)
	}
	switch encoded[0] {
	case 'p':
		return encoded[1:], nil
	case 'e':
		raw, err := base64.StdEncoding.DecodeString(encoded[1:])
		if err != nil || len(raw) != 16 {
			return nil, invalidEncoding("ip6", encoded)
		}
		return expandIP6(raw), nil
	default:
		return nil, invalidEncoding("ip6", encoded)
	}
}

// expandIP6 renders 16 raw bytes as the canonical fully-expanded form:
// 8 groups of 4 lowercase hex digits joined by colons, no compression
// and no leading-zero stripping.
func expandIP6(raw []byte) string {
	groups := make([]string, 8)
	for i := 0; i < 8; i++ {
		groups[i] = hex.EncodeToString(raw[i*2 : i*2+2])
	}
	return strings.Join(groups, ":")
}
