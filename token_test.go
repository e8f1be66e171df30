// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package upkr

import (
	"bytes"
	"testing"

	"github.com/dsnet/upkr/internal/testutil"
)

func decodeTokensErr(variant Variant, data []byte) (out []byte, err error) {
	defer errRecover(&err)
	out = decodeTokens(variant, data)
	return out, nil
}

func TestTokenRoundTrip(t *testing.T) {
	vectors := []struct {
		desc   string
		tokens []token
		want   []byte
	}{
		{
			desc:   "empty",
			tokens: nil,
			want:   nil,
		},
		{
			desc:   "literals only",
			tokens: []token{{kind: tokLiteral, lit: 'h'}, {kind: tokLiteral, lit: 'i'}},
			want:   []byte("hi"),
		},
		{
			desc: "literal then match",
			tokens: []token{
				{kind: tokLiteral, lit: 'a'},
				{kind: tokLiteral, lit: 'b'},
				{kind: tokMatch, offset: 2, length: 4},
			},
			want: []byte("ababab"),
		},
		{
			desc: "distinct offsets separated by a literal",
			tokens: []token{
				{kind: tokLiteral, lit: 'x'},
				{kind: tokMatch, offset: 1, length: 3},
				{kind: tokLiteral, lit: 'y'},
				{kind: tokMatch, offset: 2, length: 2},
			},
			want: []byte("xxxxyxy"),
		},
		{
			desc: "consecutive matches always use a fresh offset field",
			tokens: []token{
				{kind: tokLiteral, lit: 'a'},
				{kind: tokLiteral, lit: 'b'},
				{kind: tokLiteral, lit: 'c'},
				{kind: tokMatch, offset: 3, length: 1}, // copies 'a'
				{kind: tokMatch, offset: 3, length: 1}, // copies 'b' (offset 3 again, but prevWasMatch true)
			},
			want: []byte("abcab"),
		},
	}

	for _, variant := range []Variant{VariantByte, VariantBitstream} {
		for _, v := range vectors {
			t.Run(variantName(variant)+"/"+v.desc, func(t *testing.T) {
				data := encodeTokens(variant, v.tokens)
				got, err := decodeTokensErr(variant, data)
				if err != nil {
					t.Fatalf("decodeTokens: %v", err)
				}
				if !bytes.Equal(got, v.want) {
					t.Fatalf("decodeTokens = %q, want %q", got, v.want)
				}
			})
		}
	}
}

func TestTokenOffsetReuse(t *testing.T) {
	tokens := []token{
		{kind: tokLiteral, lit: 'p'},
		{kind: tokMatch, offset: 1, length: 2},
		{kind: tokLiteral, lit: 'q'},
		{kind: tokMatch, offset: 1, length: 2}, // eligible to reuse offset 1
	}
	data := encodeTokens(VariantByte, tokens)
	got, err := decodeTokensErr(VariantByte, data)
	if err != nil {
		t.Fatalf("decodeTokens: %v", err)
	}
	want := []byte("pppqqq")
	if !bytes.Equal(got, want) {
		t.Fatalf("decodeTokens = %q, want %q", got, want)
	}
}

func TestDecodeTokensRejectsBadOffset(t *testing.T) {
	// A match as the very first token can never have a valid offset: there
	// is no output yet to copy from.
	tokens := []token{{kind: tokMatch, offset: 1, length: 1}}
	data := encodeTokens(VariantByte, tokens)
	if _, err := decodeTokensErr(VariantByte, data); err != ErrCorrupt {
		t.Fatalf("decodeTokens error = %v, want ErrCorrupt", err)
	}
}

func TestDecodeTokensRejectsTruncatedStream(t *testing.T) {
	data := encodeTokens(VariantByte, []token{{kind: tokLiteral, lit: 'z'}})
	if len(data) == 0 {
		t.Fatal("encodeTokens produced no output")
	}
	if _, err := decodeTokensErr(VariantByte, data[:len(data)-1]); err != ErrCorrupt {
		t.Fatalf("decodeTokens error = %v, want ErrCorrupt", err)
	}
}

func TestDecodeTokensRejectsGarbageHex(t *testing.T) {
	// A short run of zero bytes never lets the coder's state renormalize
	// into range, regardless of variant.
	data := testutil.MustDecodeHex("000000")
	if _, err := decodeTokensErr(VariantByte, data); err != ErrCorrupt {
		t.Fatalf("decodeTokens error = %v, want ErrCorrupt", err)
	}
}

func TestDecodeTokensRejectsReuseBeforeAnyOffset(t *testing.T) {
	// encodeTokens can never legitimately emit the reuse path (has-offset
	// bit 0) as the very first match, since no prior offset exists yet to
	// reuse; this hand-builds the event sequence a corrupt/malicious
	// encoder could still produce, to confirm decodeTokens rejects it
	// with ErrCorrupt rather than an out-of-range panic.
	for _, variant := range []Variant{VariantByte, VariantBitstream} {
		r := newEventRecorder()
		r.emit(ctxIsMatch, 1)
		r.emit(ctxHasOffset, 0) // reuse, with no offset ever established
		encodeUniversal(r, 1, ctxLength)
		data := encodeEvents(variant, r.events)

		if _, err := decodeTokensErr(variant, data); err != ErrCorrupt {
			t.Fatalf("%s: decodeTokens error = %v, want ErrCorrupt", variantName(variant), err)
		}
	}
}
