// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

// Package bench compares upkr's compression ratio against a couple of
// well-known general-purpose compressors, as a sanity check that upkr's
// small, context-limited rANS model is actually competitive for the
// small, self-contained inputs it targets.
package bench

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/ulikunitz/xz"

	"github.com/dsnet/upkr"
	"github.com/dsnet/upkr/internal/testutil"
)

// Codec is one compressor under comparison.
type Codec struct {
	Name     string
	Compress func(src []byte) ([]byte, error)
}

// Codecs lists every compressor CompareRatios runs against.
var Codecs = []Codec{
	{Name: "upkr", Compress: func(src []byte) ([]byte, error) {
		return upkr.CompressBytes(src, upkr.DefaultLevel)
	}},
	{Name: "upkr-bitstream", Compress: func(src []byte) ([]byte, error) {
		dst := make([]byte, len(src)/2+64)
		n, err := upkr.CompressVariant(dst, src, upkr.DefaultLevel, upkr.VariantBitstream)
		if err != nil {
			return nil, err
		}
		if n > len(dst) {
			dst = make([]byte, n)
			if _, err := upkr.CompressVariant(dst, src, upkr.DefaultLevel, upkr.VariantBitstream); err != nil {
				return nil, err
			}
		}
		return dst[:n], nil
	}},
	{Name: "flate", Compress: flateCompress},
	{Name: "xz", Compress: xzCompress},
}

func flateCompress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func xzCompress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Ratio is one codec's result against a single input.
type Ratio struct {
	Name           string
	RawSize        int
	CompressedSize int
}

// Rate returns rawSize / compressedSize, the compression ratio.
func (r Ratio) Rate() float64 {
	if r.CompressedSize == 0 {
		return 0
	}
	return float64(r.RawSize) / float64(r.CompressedSize)
}

// LoadCorpus reads a real file from disk as comparison input, via
// testutil.LoadFile. A size of -1 returns the file as is; a positive size
// truncates or (for files smaller than size) replicates the file's
// contents, XOR-masking each successive copy, so a single small fixture
// can still stress the matcher's window at larger sizes.
func LoadCorpus(path string, size int) ([]byte, error) {
	return testutil.LoadFile(path, size)
}

// CompareRatios compresses src with every registered Codec and returns one
// Ratio per codec, in Codecs order. A codec that errors is reported with a
// CompressedSize of 0 rather than aborting the whole comparison.
func CompareRatios(src []byte) []Ratio {
	out := make([]Ratio, len(Codecs))
	for i, c := range Codecs {
		r := Ratio{Name: c.Name, RawSize: len(src)}
		if compressed, err := c.Compress(src); err == nil {
			r.CompressedSize = len(compressed)
		}
		out[i] = r
	}
	return out
}

// FormatReport renders a CompareRatios result as a human-readable table,
// one line per codec.
func FormatReport(w io.Writer, ratios []Ratio) error {
	for _, r := range ratios {
		if r.CompressedSize == 0 {
			if _, err := fmt.Fprintf(w, "%-16s  (failed)\n", r.Name); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(w, "%-16s  %8d -> %8d  (%.3fx)\n",
			r.Name, r.RawSize, r.CompressedSize, r.Rate()); err != nil {
			return err
		}
	}
	return nil
}
