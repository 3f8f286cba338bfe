// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package util

import (
	"math/big"
	"strings"
)

const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// EncodeBase62 renders a non-negative integer in base62 using the disjoint
// 0-9A-Za-z alphabet required by the short-key and numeric codecs. Zero
// encodes to "0", never to the empty string.
func EncodeBase62(n int64) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf []byte
	for n > 0 {
		buf = append(buf, base62Alphabet[n%62])
		n /= 62
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	s := string(buf)
	if neg {
		return "-" + s
	}
	return s
}

// DecodeBase62 parses a base62 string produced by EncodeBase62 (or
// EncodeBase62Big) back into an int64.
func DecodeBase62(s string) (int64, bool) {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if s == "" {
		return 0, false
	}
	var n int64
	for i := 0; i < len(s); i++ {
		idx := strings.IndexByte(base62Alphabet, s[i])
		if idx < 0 {
			return 0, false
		}
		n = n*62 + int64(idx)
	}
	if neg {
		n = -n
	}
	return n, true
}

// EncodeBase62Big renders an arbitrary-precision non-negative integer in
// base62. Used by the fixed-point codecs (decimal, money, geo, embedding)
// where the scaled value may exceed int64 range.
func EncodeBase62Big(n *big.Int) string {
	if n.Sign() == 0 {
		return "0"
	}
	neg := n.Sign() < 0
	v := new(big.Int).Abs(n)
	base := big.NewInt(62)
	mod := new(big.Int)
	var buf []byte
	for v.Sign() > 0 {
		v.DivMod(v, base, mod)
		buf = append(buf, base62Alphabet[mod.Int64()])
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	s := string(buf)
	if neg {
		return "-" + s
	}
	return s
}

// DecodeBase62Big parses a base62 string into an arbitrary-precision
// integer.
func DecodeBase62Big(s string) (*big.Int, bool) {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	if s == "" {
		return nil, false
	}
	n := new(big.Int)
	base := big.NewInt(62)
	for i := 0; i < len(s); i++ {
		idx := strings.IndexByte(base62Alphabet, s[i])
		if idx < 0 {
			return nil, false
		}
		n.Mul(n, base)
		n.Add(n, big.NewInt(int64(idx)))
	}
	if neg {
		n.Neg(n)
	}
	return n, true
}
