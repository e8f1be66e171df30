// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package upkr

// renormThreshold returns L, the lower bound of the coder's normalized
// state range, for the given Variant.
func renormThreshold(v Variant) uint32 {
	if v == VariantBitstream {
		return 32768
	}
	return 4096
}

// bitDecoder holds the decoder-side rANS state: the current coder state,
// a cursor into the compressed byte stream, and (for VariantBitstream) the
// partially consumed input byte. It implements the per-bit decode
// arithmetic from spec.md §4.2, grounded bit-for-bit in the reference
// decoder's upkr_decode_bit.
type bitDecoder struct {
	variant Variant
	state   uint32
	data    []byte
	pos     int // data_ptr

	curByte  uint8
	bitsLeft uint
}

func newBitDecoder(variant Variant, data []byte) *bitDecoder {
	return &bitDecoder{variant: variant, data: data}
}

// nextByte advances data_ptr by one byte for VariantByte renormalization.
// It panics with ErrCorrupt on input underrun: the decoder must never
// consume a byte whose contents it has not yet written back into state,
// and an underrun here means the stream ended before state could
// renormalize.
func (d *bitDecoder) nextByte() uint32 {
	if d.pos >= len(d.data) {
		panic(ErrCorrupt)
	}
	b := d.data[d.pos]
	d.pos++
	return uint32(b)
}

// nextBit advances by one LSB-first bit for VariantBitstream
// renormalization, pulling a fresh byte from the stream whenever the
// current one is exhausted.
func (d *bitDecoder) nextBit() uint32 {
	if d.bitsLeft == 0 {
		if d.pos >= len(d.data) {
			panic(ErrCorrupt)
		}
		d.curByte = d.data[d.pos]
		d.pos++
		d.bitsLeft = 8
	}
	bit := uint32(d.curByte & 1)
	d.curByte >>= 1
	d.bitsLeft--
	return bit
}

// renormalize admits input until state reaches the variant's lower bound.
func (d *bitDecoder) renormalize() {
	threshold := renormThreshold(d.variant)
	if d.variant == VariantBitstream {
		for d.state < threshold {
			d.state = (d.state << 1) | d.nextBit()
		}
	} else {
		for d.state < threshold {
			d.state = (d.state << 8) | d.nextByte()
		}
	}
}

// decodeBit decodes one bit using the probability estimator at context
// ctx in probs, updating that estimator per the observed bit.
func (d *bitDecoder) decodeBit(probs *contextTable, ctx int) int {
	d.renormalize()

	p := uint32(probs.get(ctx))
	low := d.state & 0xFF
	high := d.state >> 8

	var bit int
	if low < p {
		bit = 1
		d.state = p*high + low
	} else {
		bit = 0
		d.state = (256-p)*high + low - p
	}
	probs.update(ctx, bit)
	return bit
}

// bitEvent records a single decode-equivalent step during the encoder's
// forward simulation pass: the context used, the bit observed, and the
// probability in effect immediately before that bit's update. Recording
// the pre-update probability lets the second (reverse) encoding pass run
// the rANS arithmetic without needing a live, order-dependent context
// table of its own.
type bitEvent struct {
	ctx  int
	bit  uint8
	prob uint8
}

// eventRecorder plays the role of the encoder's forward simulation pass:
// it walks the token stream exactly as the decoder would, using one
// shared contextTable, and records each (context, bit, probability)
// triple in decode order. Because it updates the same contextTable the
// decoder will build, the recorder's final table state equals the
// decoder's final table state (the estimator-symmetry property from
// spec.md §8).
type eventRecorder struct {
	probs  *contextTable
	events []bitEvent
}

func newEventRecorder() *eventRecorder {
	return &eventRecorder{probs: newContextTable()}
}

func (r *eventRecorder) emit(ctx int, bit int) {
	p := r.probs.get(ctx)
	r.events = append(r.events, bitEvent{ctx: ctx, bit: uint8(bit), prob: p})
	r.probs.update(ctx, bit)
}

// encodeEvents is the encoder's second (reverse) pass: the actual rANS
// arithmetic. rANS state evolves as a stack, so symbols must be pushed in
// the reverse of the order the decoder will pop them; this function walks
// events backwards, and the units it emits come out in the reverse of
// final stream order, which the caller must flip. See spec.md §4.2's
// Design Notes and DESIGN.md for why this two-pass shape was chosen.
func encodeEvents(variant Variant, events []bitEvent) []byte {
	L := renormThreshold(variant)
	state := L

	var revBytes []byte // VariantByte: units emitted in reverse stream order
	var revBits []uint8 // VariantBitstream: ditto, one bit per entry

	for i := len(events) - 1; i >= 0; i-- {
		e := events[i]
		p := uint32(e.prob)
		var freq, start uint32
		if e.bit == 1 {
			freq, start = p, 0
		} else {
			freq, start = 256-p, p
		}

		if variant == VariantBitstream {
			// The core step below multiplies by 256 regardless of
			// variant (it mirrors the shared decoder's state>>8/state&0xFF
			// split), so the normalized range after it is [L, 256*L) for
			// every variant. The renorm-out condition must shed exactly
			// enough bits/bytes to land back in that range, which compares
			// state/freq against 256 here, not against L.
			for state/freq >= 256 {
				revBits = append(revBits, uint8(state&1))
				state >>= 1
			}
		} else {
			for state/freq >= L {
				revBytes = append(revBytes, byte(state&0xFF))
				state >>= 8
			}
		}

		state = (state/freq)*256 + (state % freq) + start
	}

	if variant == VariantBitstream {
		// Flush the final 16-bit state, MSB-first: exactly the bits a
		// decoder starting at state 0 must admit, one at a time, before
		// it reaches the normalized range and can decode the first bit.
		flush := make([]uint8, 16)
		for k := 0; k < 16; k++ {
			flush[k] = uint8((state >> uint(15-k)) & 1)
		}
		bits := make([]uint8, 0, len(flush)+len(revBits))
		bits = append(bits, flush...)
		for i := len(revBits) - 1; i >= 0; i-- {
			bits = append(bits, revBits[i])
		}
		return packBitsLSBFirst(bits)
	}

	// Byte variant: flush the final 20-bit state as 3 bytes, MSB-first.
	out := []byte{byte(state >> 16), byte(state >> 8), byte(state)}
	for i := len(revBytes) - 1; i >= 0; i-- {
		out = append(out, revBytes[i])
	}
	return out
}

// packBitsLSBFirst packs a slice of 0/1 values into bytes, each byte
// filled starting from its least-significant bit, matching the
// VariantBitstream wire format's bit order.
func packBitsLSBFirst(bits []uint8) []byte {
	out := make([]byte, (len(bits)+7)/8)
	for i, b := range bits {
		if b != 0 {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}
