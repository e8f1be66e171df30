// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package upkr

import "math/bits"

// decodeUniversal decodes a non-negative integer n >= 1 encoded in the
// interleaved Elias-gamma-like form from spec.md §4.3, reading bits from
// the pair of contexts dedicated to each bit position starting at base.
//
// It panics with ErrCorrupt if the encoded value would need more bit
// positions than maxFieldBits reserves, since that can only happen on
// corrupt input (a well-formed encoder never emits more).
func decodeUniversal(d *bitDecoder, probs *contextTable, base int) int {
	acc := 0
	pos := 0
	for d.decodeBit(probs, base) == 1 {
		if pos >= maxFieldBits-1 {
			panic(ErrCorrupt)
		}
		bit := d.decodeBit(probs, base+1)
		acc |= bit << uint(pos)
		pos++
		base += 2
	}
	return acc | (1 << uint(pos))
}

// encodeUniversal records the bit events for encoding non-negative
// integer n (n must be >= 1) in the same interleaved form decodeUniversal
// reads, starting at context base.
func encodeUniversal(r *eventRecorder, n int, base int) {
	if n < 1 {
		panic(Error("universal coder requires a positive integer"))
	}
	k := bits.Len(uint(n)) - 1 // floor(log2(n))
	if k >= maxFieldBits {
		// k == maxFieldBits would read its stop bit from the context pair
		// immediately beyond this field's reserved 2*maxFieldBits block,
		// colliding with the next field's contexts.
		panic(ErrTooLarge)
	}
	low := n &^ (-1 << uint(k))
	for j := 0; j < k; j++ {
		r.emit(base, 1)
		r.emit(base+1, (low>>uint(j))&1)
		base += 2
	}
	r.emit(base, 0)
}
