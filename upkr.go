// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package upkr implements the upkr compressed data format: a small
// adaptive binary-rANS arithmetic coder paired with an LZ-style token
// model, intended for size-constrained environments such as executable
// packers and demoscene intros.
//
// The format has no header, no magic number, and no checksum. A stream is
// self-delimiting: decoding stops at an embedded end-of-stream token. Two
// builds using different Variant values produce mutually incompatible
// streams.
package upkr

import "runtime"

// Error is the wrapper type for errors specific to this package.
type Error string

func (e Error) Error() string { return "upkr: " + string(e) }

var (
	// ErrCorrupt is reported when the compressed input cannot be decoded:
	// the input ended before the decoder's state could renormalize (input
	// underrun), a universal-coder field runs past its reserved contexts,
	// or a decoded match would copy from before the start of the output.
	ErrCorrupt error = Error("compressed stream is corrupted")

	// ErrTooLarge is reported by Compress when the matcher would need to
	// encode an offset or length too large for the 32-bit universal-coder
	// field width reserved by the context table (see DESIGN.md, Open
	// Question 1).
	ErrTooLarge error = Error("match offset or length exceeds the maximum representable value")
)

// errRecover is installed via defer around any decode step that may panic
// with an Error value. It converts that panic into a normal error return.
// A panic with anything other than an Error (in particular a
// runtime.Error, which indicates a bug in this package rather than
// malformed input) is allowed to continue propagating.
func errRecover(err *error) {
	switch ex := recover().(type) {
	case nil:
		// Do nothing.
	case runtime.Error:
		panic(ex)
	case Error:
		*err = ex
	default:
		panic(ex)
	}
}

// Variant selects which rANS renormalization scheme the coder uses. It must
// be fixed for both the encoder and decoder sides of a given deployment;
// streams produced under one Variant cannot be decoded under the other.
type Variant uint8

const (
	// VariantByte renormalizes by admitting/emitting whole bytes. It uses
	// a wider (20-bit) coder state than VariantBitstream and is the
	// default.
	VariantByte Variant = iota

	// VariantBitstream renormalizes one bit at a time, LSB-first. It uses
	// a 16-bit coder state, matching the original reference decoder's use
	// of `u16` as the state type under `UPKR_BITSTREAM`.
	VariantBitstream
)

// DefaultVariant is the Variant used when none is specified.
const DefaultVariant = VariantByte

// DefaultLevel is the compression effort level used by the convenience
// wrappers and by the reference CLI when none is given.
const DefaultLevel = 4

// Compress writes the compressed form of src into dst and returns the
// exact number of bytes the compressed stream requires, regardless of
// whether dst was large enough to hold it.
//
// If the returned size n is greater than len(dst), dst was not (fully)
// written; the caller must allocate a buffer of at least n bytes and call
// Compress again. level selects the matcher's effort, 0 (fastest, worst
// ratio) through 9 (slowest, best ratio); it affects only the size of the
// output, never its ability to round-trip.
func Compress(dst, src []byte, level int) (n int, err error) {
	return CompressVariant(dst, src, level, DefaultVariant)
}

// CompressVariant is Compress with an explicit Variant.
func CompressVariant(dst, src []byte, level int, variant Variant) (n int, err error) {
	defer errRecover(&err)

	tokens := newMatcher(src, level).tokenize()
	out := encodeTokens(variant, tokens)
	copy(dst, out)
	return len(out), nil
}

// Uncompress writes the decompressed form of src into dst and returns the
// exact number of bytes the decompressed data requires, regardless of
// whether dst was large enough to hold it.
//
// If the returned size n is greater than len(dst), dst holds only the
// first len(dst) bytes of output; the caller must allocate a buffer of at
// least n bytes and call Uncompress again. Uncompress returns ErrCorrupt
// if src is not a valid upkr stream.
func Uncompress(dst, src []byte) (n int, err error) {
	return UncompressVariant(dst, src, DefaultVariant)
}

// UncompressVariant is Uncompress with an explicit Variant.
func UncompressVariant(dst, src []byte, variant Variant) (n int, err error) {
	defer errRecover(&err)

	out := decodeTokens(variant, src)
	copy(dst, out)
	return len(out), nil
}

// CompressBytes is a convenience wrapper around Compress that allocates
// and retries as needed, returning the compressed stream directly.
func CompressBytes(src []byte, level int) ([]byte, error) {
	dst := make([]byte, len(src)/2+64)
	n, err := Compress(dst, src, level)
	if err != nil {
		return nil, err
	}
	if n > len(dst) {
		dst = make([]byte, n)
		if _, err := Compress(dst, src, level); err != nil {
			return nil, err
		}
	}
	return dst[:n], nil
}

// UncompressBytes is a convenience wrapper around Uncompress that
// allocates and retries as needed, returning the decompressed data
// directly.
func UncompressBytes(src []byte) ([]byte, error) {
	dst := make([]byte, len(src)*3+64)
	n, err := Uncompress(dst, src)
	if err != nil {
		return nil, err
	}
	if n > len(dst) {
		dst = make([]byte, n)
		if _, err := Uncompress(dst, src); err != nil {
			return nil, err
		}
	}
	return dst[:n], nil
}
