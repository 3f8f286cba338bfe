// Copyright 2016 The OPA Authors.  All rights reserved.
// Use of this source code is governed by an Apache2
// license that can be found in the LICENSE file.

package util

import (
	"math/rand"
	"time"
)

// DefaultBackoff returns a duration for the given retry count using a
// simple doubling backoff bounded by maxMillis, matching the shape of the
// backoff used for partition reference retries (§4.7).
func DefaultBackoff(baseMillis, maxMillis float64, retries int) time.Duration {
	return Backoff(baseMillis, maxMillis, 0.1, 2.0, retries)
}

// Backoff returns base*factor^retries milliseconds, capped at max, then
// jittered by +/- jitter fraction (so the result can exceed max by up to
// that fraction).
func Backoff(baseMillis, maxMillis, jitter, factor float64, retries int) time.Duration {
	d := baseMillis
	for i := 0; i < retries; i++ {
		d *= factor
		if d >= maxMillis {
			d = maxMillis
			break
		}
	}
	if jitter > 0 {
		delta := d * jitter
		d = d - delta + rand.Float64()*2*delta
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d * float64(time.Millisecond))
}
