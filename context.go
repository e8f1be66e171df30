// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package upkr

// maxFieldBits is W from spec.md §3: the number of bits reserved for each
// of the offset and length universal-coder context pairs. It bounds the
// largest representable offset or length at 2^32 - 1 (see DESIGN.md, Open
// Question 1).
const maxFieldBits = 32

// Context id layout. A context names one adaptive one-bit probability
// estimator; the layout below is part of the wire format and must be
// reproduced identically by the encoder and decoder.
const (
	ctxIsMatch   = 0   // is-match bit
	ctxLiteral   = 1   // 1..255: literal-bit contexts, keyed by accumulator
	ctxHasOffset = 256 // has-offset bit
	ctxOffset    = 257 // 257..257+2*maxFieldBits-1: offset universal coder

	ctxLength = ctxOffset + 2*maxFieldBits // length universal coder

	numContexts = ctxLength + 2*maxFieldBits
)

// initialProb is the probability estimate every context starts at: exactly
// equiprobable.
const initialProb = 128

// contextTable is the fixed-size vector of adaptive one-bit probability
// estimators shared, at identical positions in the decode/encode
// sequence, between the encoder and decoder.
type contextTable struct {
	probs [numContexts]uint8
}

// newContextTable returns a contextTable with every estimator reset to
// initialProb.
func newContextTable() *contextTable {
	t := new(contextTable)
	t.reset()
	return t
}

func (t *contextTable) reset() {
	for i := range t.probs {
		t.probs[i] = initialProb
	}
}

func (t *contextTable) get(ctx int) uint8 {
	return t.probs[ctx]
}

// update applies the shift-adaptive estimator law from spec.md §3 after
// observing bit at context ctx. The +8 bias rounds the shift and, as
// asserted by TestProbabilityNeverSaturates, keeps p strictly within
// (0, 256) for every reachable starting value, so p never becomes
// unencodable.
func (t *contextTable) update(ctx int, bit int) {
	p := int(t.probs[ctx])
	if bit == 1 {
		p += (256 - p + 8) >> 4
	} else {
		p -= (p + 8) >> 4
	}
	t.probs[ctx] = uint8(p)
}

// set overwrites a context's probability outright. It exists only for
// tests that need to probe specific estimator values (e.g. saturation
// behavior at the extremes).
func (t *contextTable) set(ctx int, p uint8) {
	t.probs[ctx] = p
}
