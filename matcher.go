// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

package upkr

import "math/bits"

// minMatchLen is the shortest match the parser will ever consider; a
// shorter repeat is always emitted as literals.
const minMatchLen = 2

// hashBits sizes the match-finder's hash table. 3-byte hashing is the
// standard LZ77 compromise: short enough to find most real matches,
// cheap enough to probe at every position.
const hashBits = 15

// levelToChainLen maps a compression level (0..9) to how many hash-chain
// candidates the matcher will examine at each position. Low levels trade
// match quality for speed; level 9 searches exhaustively enough to make
// optimal-parse-grade decisions in practice.
func levelToChainLen(level int) int {
	switch {
	case level <= 0:
		return 1
	case level >= 9:
		return 1 << 14
	default:
		return 1 << uint(level+3)
	}
}

// matcher turns a byte slice into the token stream encodeTokens consumes.
// It implements the greedy/lazy hash-chain parse described in spec.md §4.5;
// the choices it makes affect only the compression ratio, never the
// correctness of the round trip, so its cost heuristics are free to be
// approximate.
type matcher struct {
	src   []byte
	level int

	head []int32 // hashBits-wide hash -> most recent position with that hash, or -1
	prev []int32 // position -> previous position with the same hash, or -1
}

func newMatcher(src []byte, level int) *matcher {
	return &matcher{src: src, level: level}
}

func (m *matcher) hash(i int) uint32 {
	s := m.src
	h := uint32(s[i])*506832829 ^ uint32(s[i+1])*2654435761 ^ uint32(s[i+2])*2246822519
	return h >> (32 - hashBits)
}

func (m *matcher) insert(i int) {
	h := m.hash(i)
	m.prev[i] = m.head[h]
	m.head[h] = int32(i)
}

// findMatch returns the longest match at position i found by walking up
// to maxChain candidates down the hash chain, along with its offset.
func (m *matcher) findMatch(i, maxChain int) (length, offset int) {
	n := len(m.src)
	cand := m.head[m.hash(i)]
	for cand >= 0 && int(cand) >= i {
		cand = m.prev[cand] // skip i itself (already inserted); sources must precede i
	}
	chain := 0
	for cand >= 0 && chain < maxChain {
		chain++
		l := matchLen(m.src, int(cand), i, n)
		if l > length {
			length = l
			offset = i - int(cand)
		}
		cand = m.prev[cand]
	}
	return length, offset
}

// matchLen returns how many consecutive bytes starting at a and b agree,
// up to the end of src at n. a must be < b; overlapping matches (where the
// copy source and destination ranges overlap, as in a run of one repeated
// byte) are valid and handled naturally since the comparison reads src
// directly rather than a materialized copy.
func matchLen(src []byte, a, b, n int) int {
	l := 0
	for b+l < n && src[a+l] == src[b+l] {
		l++
	}
	return l
}

// matchCost estimates, in bits, the cost of encoding a match of the given
// offset and length, given whether the preceding token was itself a match
// (which forces a fresh offset field) and what the previous match offset
// was (reusing it costs only the has-offset bit instead of a fresh offset
// field).
func matchCost(offset, length int, prevWasMatch bool, prevOffset int) int {
	cost := 1 // is-match bit
	if prevWasMatch || offset != prevOffset {
		if !prevWasMatch {
			cost++ // has-offset bit
		}
		cost += universalCost(offset + 1)
	} else if !prevWasMatch {
		cost++ // has-offset bit, reuse path
	}
	cost += universalCost(length)
	return cost
}

// literalCost is the fixed bit cost of one literal token: one is-match
// bit plus eight literal bits.
const literalCost = 9

// universalCost returns the bit length of n's interleaved universal
// coding, matching encodeUniversal's bit count for the same n.
func universalCost(n int) int {
	k := bits.Len(uint(n)) - 1
	return 1 + 2*k
}

// tokenize runs the parser end to end, returning the token stream for the
// matcher's entire input.
func (m *matcher) tokenize() []token {
	n := len(m.src)
	tokens := make([]token, 0, n/2+1)
	if n < minMatchLen+1 {
		for i := 0; i < n; i++ {
			tokens = append(tokens, token{kind: tokLiteral, lit: m.src[i]})
		}
		return tokens
	}

	m.head = make([]int32, 1<<hashBits)
	for i := range m.head {
		m.head[i] = -1
	}
	m.prev = make([]int32, n)

	chainLen := levelToChainLen(m.level)
	lazy := m.level >= 5

	prevWasMatch := false
	prevOffset := 0

	canHash := func(i int) bool { return i+3 <= n }
	insertedUpTo := 0
	insertOnce := func(i int) {
		if i >= insertedUpTo {
			m.insert(i)
			insertedUpTo = i + 1
		}
	}

	i := 0
	for i < n {
		if canHash(i) {
			insertOnce(i)
		}

		var length, offset int
		if canHash(i) {
			length, offset = m.findMatch(i, chainLen)
		}

		if length >= minMatchLen && lazy && canHash(i+1) {
			insertOnce(i + 1)
			length2, _ := m.findMatch(i+1, chainLen)
			if length2 > length {
				// Defer: emit a literal now, let the better match at i+1
				// be found again on the next iteration.
				tokens = append(tokens, token{kind: tokLiteral, lit: m.src[i]})
				prevWasMatch = false
				i++
				continue
			}
		}

		useMatch := length >= minMatchLen &&
			matchCost(offset, length, prevWasMatch, prevOffset) < length*literalCost

		if useMatch {
			tokens = append(tokens, token{kind: tokMatch, offset: offset, length: length})
			for k := 1; k < length && canHash(i+k); k++ {
				insertOnce(i + k)
			}
			i += length
			prevWasMatch = true
			prevOffset = offset
		} else {
			tokens = append(tokens, token{kind: tokLiteral, lit: m.src[i]})
			prevWasMatch = false
			i++
		}
	}
	return tokens
}
