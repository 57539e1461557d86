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
)

// xorFilter is the shared implementation behind Xor8, Xor16 and Xor32. It
// lays fingerprints out in three disjoint blocks of blockLength slots each;
// a key's three slots are one per block. See hashIndices.
type xorFilter[F fingerprint] struct {
	seed         uint64
	blockLength  uint32
	fingerprints []F
}

// Xor8, Xor16 and Xor32 are Xor filters with 8-, 16- and 32-bit
// fingerprints, holding approximately 9.84, 19.68 and 39.4 bits per key
// respectively for false positive rates of 2⁻⁸, 2⁻¹⁶ and 2⁻³².
type (
	Xor8  = xorFilter[uint8]
	Xor16 = xorFilter[uint16]
	Xor32 = xorFilter[uint32]
)

// NewXor8 builds a Xor8 filter containing exactly the given keys. keys must
// not contain duplicates (see package doc). Unlike the Binary Fuse
// constructors, this never fails on duplicate-free input: the only error
// it can return is from ctx being done.
func NewXor8(ctx context.Context, keys []uint64, opts ...Option) (*Xor8, error) {
	return buildXor[uint8](ctx, keys, opts)
}

// NewXor16 is NewXor8 for 16-bit fingerprints.
func NewXor16(ctx context.Context, keys []uint64, opts ...Option) (*Xor16, error) {
	return buildXor[uint16](ctx, keys, opts)
}

// NewXor32 is NewXor8 for 32-bit fingerprints.
func NewXor32(ctx context.Context, keys []uint64, opts ...Option) (*Xor32, error) {
	return buildXor[uint32](ctx, keys, opts)
}

// Contains reports whether k was one of the keys f was built from. It never
// returns a false negative; it may return a false positive with probability
// approximately 2^-(8*sizeof(F)).
func (f *xorFilter[F]) Contains(k uint64) bool {
	hash := mix(k, f.seed)
	h0, h1, h2 := f.hashIndices(hash)
	fp := truncate[F](hash)
	return fp == f.fingerprints[h0]^f.fingerprints[h1]^f.fingerprints[h2]
}

// Len returns the number of fingerprint slots in f (3*blockLength), not the
// number of keys it was built from.
func (f *xorFilter[F]) Len() int {
	return len(f.fingerprints)
}

// hashIndices derives the three slot indices used by hash: one in each of
// the three disjoint blocks [0,B), [B,2B), [2B,3B).
func (f *xorFilter[F]) hashIndices(hash uint64) (h0, h1, h2 uint32) {
	return xorHashIndices(hash, f.blockLength)
}

func xorHashIndices(hash uint64, blockLength uint32) (h0, h1, h2 uint32) {
	h0 = reduce(uint32(rotl64(hash, 0)), blockLength)
	h1 = blockLength + reduce(uint32(rotl64(hash, 21)), blockLength)
	h2 = 2*blockLength + reduce(uint32(rotl64(hash, 42)), blockLength)
	return
}

// xorSlot is the transient per-fingerprint-slot construction state: the xor
// of the hashes of every key currently mapped to this slot, and how many
// keys are currently mapped to it.
type xorSlot struct {
	count uint32
	mask  uint64
}

// xorStacked records a key peeled from the construction graph, in peeling
// order: its mixed hash and the fingerprint slot it will ultimately own.
type xorStacked struct {
	hash  uint64
	index uint32
}

// buildXor implements the peeling-then-back-fill construction of §4.4: it
// is the generic core shared by NewXor8/16/32, parameterized only by the
// width of the stored fingerprint.
func buildXor[F fingerprint](ctx context.Context, keys []uint64, opts []Option) (*xorFilter[F], error) {
	if err := checkDuplicateKeys(keys); err != nil {
		return nil, err
	}
	o := resolveOptions(opts)

	n := uint32(len(keys))
	capacity := uint32(1.23*float64(n)) + 32
	capacity -= capacity % 3
	blockLength := capacity / 3

	H := make([]xorSlot, capacity)
	alone := make([]uint32, capacity)
	stack := make([]xorStacked, 0, n)

	var rngState uint64 = 1
	seed := splitmix64(&rngState)

	// Unlike Binary Fuse construction, this loop is unconditional: on
	// duplicate-free input, peeling a Xor filter's 3-uniform hypergraph
	// always succeeds for some seed, so there is no retry cap and no
	// failure to report. See xor8.rs's own unconditional loop.
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			seed = splitmix64(&rngState)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("xorf: %w", ctx.Err())
		default:
		}

		for i := range H {
			H[i] = xorSlot{}
		}
		for _, k := range keys {
			hash := mix(k, seed)
			h0, h1, h2 := xorHashIndices(hash, blockLength)
			H[h0].count++
			H[h0].mask ^= hash
			H[h1].count++
			H[h1].mask ^= hash
			H[h2].count++
			H[h2].mask ^= hash
		}

		qsize := uint32(0)
		for i := uint32(0); i < capacity; i++ {
			if H[i].count == 1 {
				alone[qsize] = i
				qsize++
			}
		}

		stack = stack[:0]
		for qsize > 0 {
			qsize--
			idx := alone[qsize]
			if H[idx].count == 0 {
				continue // stale queue entry
			}

			hash := H[idx].mask
			stack = append(stack, xorStacked{hash: hash, index: idx})

			other1, other2 := otherTwoXorSlots(hash, blockLength, idx)
			H[other1].count--
			H[other1].mask ^= hash
			if H[other1].count == 1 {
				alone[qsize] = other1
				qsize++
			}
			H[other2].count--
			H[other2].mask ^= hash
			if H[other2].count == 1 {
				alone[qsize] = other2
				qsize++
			}
		}

		if uint32(len(stack)) == n {
			break
		}
	}

	fp := make([]F, capacity)
	if o.fill == FillRandom {
		fillRandom(fp, seed)
	}
	for i := len(stack) - 1; i >= 0; i-- {
		e := stack[i]
		other1, other2 := otherTwoXorSlots(e.hash, blockLength, e.index)
		fp[e.index] = truncate[F](e.hash) ^ fp[other1] ^ fp[other2]
	}

	return &xorFilter[F]{seed: seed, blockLength: blockLength, fingerprints: fp}, nil
}

// otherTwoXorSlots returns the two slots, besides idx, that a key with the
// given hash occupies. idx must be one of the key's three slots; which
// block it belongs to (and is therefore excluded) follows from idx's
// position among the three disjoint block ranges.
func otherTwoXorSlots(hash uint64, blockLength, idx uint32) (uint32, uint32) {
	h0, h1, h2 := xorHashIndices(hash, blockLength)
	switch idx / blockLength {
	case 0:
		return h1, h2
	case 1:
		return h0, h2
	default:
		return h0, h1
	}
}
