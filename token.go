// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package upkr

// tokenKind distinguishes the two logical token types spec.md §3 defines
// (a terminating end-of-stream marker is not a distinct kind here; it is
// synthesized by encodeTokens and recognized by decodeTokens as a match
// whose offset field decodes to 0).
type tokenKind uint8

const (
	tokLiteral tokenKind = iota
	tokMatch
)

// token is the logical unit the matcher produces and the token model
// consumes. It is an internal encoder-side type; the wire format has no
// direct representation of it; see spec.md §3 "Token stream".
type token struct {
	kind   tokenKind
	lit    byte
	offset int // match only; >= 1
	length int // match only; >= 1
}

// encodeLiteral records the bit events for one literal byte, walking the
// same binary trie of contexts (1..255) that decodeLiteral reads back.
func encodeLiteral(r *eventRecorder, lit byte) {
	acc := 1
	for i := 7; i >= 0; i-- {
		bit := int((lit >> uint(i)) & 1)
		r.emit(acc, bit)
		acc = (acc << 1) | bit
	}
}

// decodeLiteral is the decode-side counterpart of encodeLiteral.
func decodeLiteral(d *bitDecoder, probs *contextTable) byte {
	acc := 1
	for acc < 256 {
		bit := d.decodeBit(probs, acc)
		acc = (acc << 1) | bit
	}
	return byte(acc)
}

// encodeTokens runs the token-model encode loop from spec.md §4.4 over a
// matcher-produced token stream: forward simulation (building the bit
// event list and advancing one shared contextTable, exactly as the
// decoder will), followed by the reverse rANS pass that turns the event
// list into bytes.
func encodeTokens(variant Variant, tokens []token) []byte {
	r := newEventRecorder()
	prevWasMatch := false
	prevOffset := 0

	emitMatch := func(offset, length int) {
		r.emit(ctxIsMatch, 1)
		newOffset := true
		if !prevWasMatch {
			if offset != 0 && offset == prevOffset {
				r.emit(ctxHasOffset, 0)
				newOffset = false
			} else {
				r.emit(ctxHasOffset, 1)
			}
		}
		if newOffset {
			encodeUniversal(r, offset+1, ctxOffset)
			prevOffset = offset
		}
		encodeUniversal(r, length, ctxLength)
		prevWasMatch = true
	}

	for _, t := range tokens {
		switch t.kind {
		case tokLiteral:
			r.emit(ctxIsMatch, 0)
			encodeLiteral(r, t.lit)
			prevWasMatch = false
		case tokMatch:
			emitMatch(t.offset, t.length)
		}
	}

	// End-of-stream: a match whose offset field decodes to 0. A fresh
	// offset of 0 can never equal a real prevOffset (which is always
	// >= 1), so this never accidentally triggers the reuse path.
	r.emit(ctxIsMatch, 1)
	if !prevWasMatch {
		r.emit(ctxHasOffset, 1)
	}
	encodeUniversal(r, 1, ctxOffset)

	return encodeEvents(variant, r.events)
}

// decodeTokens runs the token-model decode loop, the decoder-side
// state machine from spec.md §4.4 (Start/AwaitToken/LiteralBits/
// MatchOffset/MatchLength/Done), matching the reference decoder's
// upkr_unpack exactly. It panics with ErrCorrupt on any malformed input:
// input underrun (via bitDecoder), a universal-coder field wider than
// maxFieldBits, or a match whose offset would copy from before the start
// of the output.
func decodeTokens(variant Variant, data []byte) []byte {
	d := newBitDecoder(variant, data)
	probs := newContextTable()
	out := make([]byte, 0, len(data)*3+16)

	prevWasMatch := false
	prevOffset := 0
	for {
		if d.decodeBit(probs, ctxIsMatch) == 0 {
			out = append(out, decodeLiteral(d, probs))
			prevWasMatch = false
			continue
		}

		newOffset := prevWasMatch || d.decodeBit(probs, ctxHasOffset) == 1
		if newOffset {
			raw := decodeUniversal(d, probs, ctxOffset)
			offset := raw - 1
			if offset == 0 {
				return out // end of stream
			}
			prevOffset = offset
		}

		length := decodeUniversal(d, probs, ctxLength)
		if prevOffset < 1 || prevOffset > len(out) {
			panic(ErrCorrupt) // would copy from before the start of output
		}
		for ; length > 0; length-- {
			out = append(out, out[len(out)-prevOffset])
		}
		prevWasMatch = true
	}
}
