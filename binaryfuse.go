// Copyright 2020 the Blobloom authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package xorf

import (
	"context"
	"fmt"
	"math"
	"math/bits"
)

// maxSegmentLength is the implementation-defined upper clamp on
// segmentLength. The binary fuse paper leaves this implementation-defined;
// this value is kept to stay bit-compatible with the reference
// construction this package ports (see §9 of the design notes).
const maxSegmentLength = 262144

// arity is fixed at 3 for every filter this package builds. Binary Fuse
// filters of other arities exist in the literature but are out of scope.
const arity = 3

// binaryFuseFilter is the shared implementation behind BinaryFuse8,
// BinaryFuse16 and BinaryFuse32.
type binaryFuseFilter[F fingerprint] struct {
	seed               uint64
	segmentLength      uint32
	segmentLengthMask  uint32
	segmentCountLength uint32
	fingerprints       []F
}

// BinaryFuse8, BinaryFuse16 and BinaryFuse32 are Binary Fuse filters with
// 8-, 16- and 32-bit fingerprints, holding approximately 9.1, 18.1 and 36.3
// bits per key respectively for false positive rates of 2⁻⁸, 2⁻¹⁶ and
// 2⁻³². They are denser and faster to build than the corresponding Xor
// filter, at the cost of occasionally failing to build at all (see
// ErrConstructionFailed).
type (
	BinaryFuse8  = binaryFuseFilter[uint8]
	BinaryFuse16 = binaryFuseFilter[uint16]
	BinaryFuse32 = binaryFuseFilter[uint32]
)

// NewBinaryFuse8 builds a BinaryFuse8 filter containing exactly the given
// keys. keys must not contain duplicates (see package doc); construction
// returns ErrConstructionFailed if the retry cap is exhausted, which
// usually indicates duplicate keys.
func NewBinaryFuse8(ctx context.Context, keys []uint64, opts ...Option) (*BinaryFuse8, error) {
	return buildBinaryFuse[uint8](ctx, keys, opts)
}

// NewBinaryFuse16 is NewBinaryFuse8 for 16-bit fingerprints.
func NewBinaryFuse16(ctx context.Context, keys []uint64, opts ...Option) (*BinaryFuse16, error) {
	return buildBinaryFuse[uint16](ctx, keys, opts)
}

// NewBinaryFuse32 is NewBinaryFuse8 for 32-bit fingerprints.
func NewBinaryFuse32(ctx context.Context, keys []uint64, opts ...Option) (*BinaryFuse32, error) {
	return buildBinaryFuse[uint32](ctx, keys, opts)
}

// Contains reports whether k was one of the keys f was built from. It never
// returns a false negative.
func (f *binaryFuseFilter[F]) Contains(k uint64) bool {
	hash := mix(k, f.seed)
	h0, h1, h2 := binaryFuseHashIndices(hash, f.segmentLength, f.segmentLengthMask, f.segmentCountLength)
	fp := truncate[F](hash)
	return fp == f.fingerprints[h0]^f.fingerprints[h1]^f.fingerprints[h2]
}

// Len returns the number of fingerprint slots in f, not the number of keys
// it was built from.
func (f *binaryFuseFilter[F]) Len() int {
	return len(f.fingerprints)
}

// binaryFuseHashIndices derives the three overlapping-segment slot indices
// a mixed hash maps to, per §4.3.
func binaryFuseHashIndices(hash uint64, segmentLength, segmentLengthMask, segmentCountLength uint32) (h0, h1, h2 uint32) {
	hi, _ := bits.Mul64(hash, uint64(segmentCountLength))
	h0 = uint32(hi)
	h1 = h0 + segmentLength
	h2 = h1 + segmentLength
	h1 ^= uint32(hash>>18) & segmentLengthMask
	h2 ^= uint32(hash) & segmentLengthMask
	return
}

// binaryFuseSegmentLength is calculateSegmentLength in the reference
// construction: a power of two derived from n, clamped to
// [4, maxSegmentLength].
func binaryFuseSegmentLength(n uint32) uint32 {
	if n == 0 {
		return 4
	}
	l := uint32(1) << uint(math.Floor(math.Log(float64(n))/math.Log(3.33)+2.25))
	if l > maxSegmentLength {
		return maxSegmentLength
	}
	return l
}

// binaryFuseSizeFactor computes the overhead factor applied to n to obtain
// the construction capacity. Only meaningful for n > 1; callers must not
// rely on its value otherwise.
func binaryFuseSizeFactor(n uint32) float64 {
	return math.Max(1.125, 0.875+0.25*math.Log(1e6)/math.Log(float64(n)))
}

// binaryFuseLayout computes every size derived from n: the segment length
// and its mask, the segment count, segmentCountLength, and the number of
// fingerprint slots to allocate. See §4.3.
func binaryFuseLayout(n uint32) (segmentLength, segmentLengthMask, segmentCountLength, fpArrayLen uint32) {
	segmentLength = binaryFuseSegmentLength(n)
	segmentLengthMask = segmentLength - 1

	var capacity uint32
	if n > 1 {
		capacity = uint32(math.Round(float64(n) * binaryFuseSizeFactor(n)))
	}

	initSegmentCount := (capacity + segmentLength - 1) / segmentLength
	arrayLen := initSegmentCount * segmentLength
	proposed := (arrayLen + segmentLength - 1) / segmentLength

	var segmentCount uint32
	if proposed < arity {
		segmentCount = 1
	} else {
		segmentCount = proposed - (arity - 1)
	}

	fpArrayLen = (segmentCount + arity - 1) * segmentLength
	segmentCountLength = segmentCount * segmentLength
	return
}

// mod3 maps {0,1,2,3,4} to {0,1,2,0,1}, used to fold the role indices
// found+1, found+2 (which range over 0..4) back into {0,1,2}.
func mod3(x uint8) uint8 {
	if x > 2 {
		x -= 3
	}
	return x
}

// otherTwoBinaryFuseSlots returns the two slots, of a key's three
// (idx1, idx2, idx3), other than the one it was peeled from (role found).
func otherTwoBinaryFuseSlots(idx1, idx2, idx3 uint32, found uint8) (uint32, uint32) {
	var h012 [5]uint32
	h012[1] = idx2
	h012[2] = idx3
	h012[3] = idx1
	h012[4] = idx2
	return h012[found+1], h012[found+2]
}

// buildBinaryFuse implements the bucketed construction of §4.5: bucket
// keys by the top bits of their hash for cache locality, insert with
// duplicate compensation, peel, then back-fill in reverse peel order. It
// is the generic core shared by NewBinaryFuse8/16/32.
func buildBinaryFuse[F fingerprint](ctx context.Context, keys []uint64, opts []Option) (*binaryFuseFilter[F], error) {
	if err := checkDuplicateKeys(keys); err != nil {
		return nil, err
	}
	o := resolveOptions(opts)

	n := uint32(len(keys))
	segmentLength, segmentLengthMask, segmentCountLength, fpArrayLen := binaryFuseLayout(n)

	segmentCount := uint32(0)
	if segmentLength > 0 {
		segmentCount = segmentCountLength / segmentLength
	}

	capacity := fpArrayLen
	alone := make([]uint32, capacity)
	t2count := make([]uint8, capacity)
	t2hash := make([]uint64, capacity)
	reverseH := make([]uint8, n)
	reverseOrder := make([]uint64, n+1)
	reverseOrder[n] = 1

	blockBits := uint(1)
	for (uint32(1) << blockBits) < segmentCount {
		blockBits++
	}
	startPosLen := uint32(1) << blockBits
	startPos := make([]uint64, startPosLen)

	var rngState uint64 = 1
	seed := splitmix64(&rngState)

	var stackSize uint32

	for attempt := 0; ; attempt++ {
		if attempt >= maxBuildAttempts {
			return nil, ErrConstructionFailed
		}
		if attempt > 0 {
			seed = splitmix64(&rngState)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("xorf: %w", ctx.Err())
		default:
		}

		for i := range startPos {
			startPos[i] = (uint64(i) * uint64(n)) >> blockBits
		}
		for i := uint32(0); i < n; i++ {
			reverseOrder[i] = 0
		}
		for _, k := range keys {
			hash := mix(k, seed)
			segIdx := hash >> (64 - blockBits)
			for reverseOrder[startPos[segIdx]] != 0 {
				segIdx++
				segIdx &= (uint64(1) << blockBits) - 1
			}
			reverseOrder[startPos[segIdx]] = hash
			startPos[segIdx]++
		}

		for i := range t2count {
			t2count[i] = 0
			t2hash[i] = 0
		}

		var duplicates uint32
		failed := false
		for i := uint32(0); i < n; i++ {
			hash := reverseOrder[i]
			idx1, idx2, idx3 := binaryFuseHashIndices(hash, segmentLength, segmentLengthMask, segmentCountLength)

			t2count[idx1] += 4
			t2hash[idx1] ^= hash
			t2count[idx2] += 4
			t2count[idx2] ^= 1
			t2hash[idx2] ^= hash
			t2count[idx3] += 4
			t2count[idx3] ^= 2
			t2hash[idx3] ^= hash

			if t2hash[idx1]&t2hash[idx2]&t2hash[idx3] == 0 {
				if (t2hash[idx1] == 0 && t2count[idx1] == 8) ||
					(t2hash[idx2] == 0 && t2count[idx2] == 8) ||
					(t2hash[idx3] == 0 && t2count[idx3] == 8) {
					duplicates++
					t2count[idx1] -= 4
					t2hash[idx1] ^= hash
					t2count[idx2] -= 4
					t2count[idx2] ^= 1
					t2hash[idx2] ^= hash
					t2count[idx3] -= 4
					t2count[idx3] ^= 2
					t2hash[idx3] ^= hash
				}
			}
			failed = failed || t2count[idx1] < 4 || t2count[idx2] < 4 || t2count[idx3] < 4
		}
		if failed {
			continue
		}

		qsize := uint32(0)
		for i := uint32(0); i < capacity; i++ {
			alone[qsize] = i
			if t2count[i]>>2 == 1 {
				qsize++
			}
		}

		stackSize = 0
		for qsize > 0 {
			qsize--
			index := alone[qsize]
			if t2count[index]>>2 != 1 {
				continue
			}

			hash := t2hash[index]
			found := t2count[index] & 3
			reverseH[stackSize] = found
			reverseOrder[stackSize] = hash
			stackSize++

			idx1, idx2, idx3 := binaryFuseHashIndices(hash, segmentLength, segmentLengthMask, segmentCountLength)
			other1, other2 := otherTwoBinaryFuseSlots(idx1, idx2, idx3, found)

			if t2count[other1]>>2 == 2 {
				alone[qsize] = other1
				qsize++
			}
			t2count[other1] -= 4
			t2count[other1] ^= mod3(found + 1)
			t2hash[other1] ^= hash

			if t2count[other2]>>2 == 2 {
				alone[qsize] = other2
				qsize++
			}
			t2count[other2] -= 4
			t2count[other2] ^= mod3(found + 2)
			t2hash[other2] ^= hash
		}

		if stackSize+duplicates == n {
			break
		}
	}

	fp := make([]F, capacity)
	if o.fill == FillRandom {
		fillRandom(fp, seed)
	}
	for i := int(stackSize) - 1; i >= 0; i-- {
		hash := reverseOrder[i]
		idx1, idx2, idx3 := binaryFuseHashIndices(hash, segmentLength, segmentLengthMask, segmentCountLength)
		found := reverseH[i]

		var h012 [5]uint32
		h012[0] = idx1
		h012[1] = idx2
		h012[2] = idx3
		h012[3] = idx1
		h012[4] = idx2

		fp[h012[found]] = truncate[F](hash) ^ fp[h012[found+1]] ^ fp[h012[found+2]]
	}

	return &binaryFuseFilter[F]{
		seed:               seed,
		segmentLength:      segmentLength,
		segmentLengthMask:  segmentLengthMask,
		segmentCountLength: segmentCountLength,
		fingerprints:       fp,
	}, nil
}
