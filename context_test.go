// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package upkr

import "testing"

func TestProbabilityNeverSaturates(t *testing.T) {
	// Exhaustively drive every reachable probability value with both bit
	// outcomes and assert the estimator never lands on 0 or 256 (the two
	// values that would make one branch of decodeBit/encodeEvents divide
	// by a freq of zero).
	var tbl contextTable
	for p := 1; p < 256; p++ {
		tbl.set(0, uint8(p))
		tbl.update(0, 1)
		if got := tbl.get(0); got == 0 {
			t.Errorf("update(%d, 1) = 0, want nonzero", p)
		}

		tbl.set(0, uint8(p))
		tbl.update(0, 0)
		if got := tbl.get(0); got == 0 && p != 0 {
			t.Errorf("update(%d, 0) = 0, want nonzero", p)
		}
	}
}

func TestContextTableReset(t *testing.T) {
	tbl := newContextTable()
	tbl.update(5, 1)
	tbl.update(10, 0)
	tbl.reset()
	for ctx := 0; ctx < numContexts; ctx++ {
		if p := tbl.get(ctx); p != initialProb {
			t.Fatalf("get(%d) = %d after reset, want %d", ctx, p, initialProb)
		}
	}
}

func TestContextTableUpdateMonotonic(t *testing.T) {
	tbl := newContextTable()
	p0 := tbl.get(3)
	tbl.update(3, 1)
	if p1 := tbl.get(3); p1 <= p0 {
		t.Errorf("update(_, 1) did not increase probability: %d -> %d", p0, p1)
	}

	tbl.reset()
	p0 = tbl.get(3)
	tbl.update(3, 0)
	if p1 := tbl.get(3); p1 >= p0 {
		t.Errorf("update(_, 0) did not decrease probability: %d -> %d", p0, p1)
	}
}

func TestContextIDLayout(t *testing.T) {
	// The context-id partitioning is part of the wire format; pin its
	// exact shape so an accidental renumbering is caught immediately.
	if ctxIsMatch != 0 {
		t.Errorf("ctxIsMatch = %d, want 0", ctxIsMatch)
	}
	if ctxLiteral != 1 {
		t.Errorf("ctxLiteral = %d, want 1", ctxLiteral)
	}
	if ctxHasOffset != 256 {
		t.Errorf("ctxHasOffset = %d, want 256", ctxHasOffset)
	}
	if ctxOffset != 257 {
		t.Errorf("ctxOffset = %d, want 257", ctxOffset)
	}
	if ctxLength != ctxOffset+2*maxFieldBits {
		t.Errorf("ctxLength = %d, want %d", ctxLength, ctxOffset+2*maxFieldBits)
	}
	if numContexts != ctxLength+2*maxFieldBits {
		t.Errorf("numContexts = %d, want %d", numContexts, ctxLength+2*maxFieldBits)
	}
	if numContexts != 385 {
		t.Errorf("numContexts = %d, want 385", numContexts)
	}
}
