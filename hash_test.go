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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMixDistinctKeysDistinctHashes(t *testing.T) {
	t.Parallel()

	const seed = 0x1234
	keys := randomU64(100000, 0x1)
	seen := make(map[uint64]bool, len(keys))
	collisions := 0
	for _, k := range keys {
		h := mix(k, seed)
		if seen[h] {
			collisions++
		}
		seen[h] = true
	}
	// For a fixed seed mix is a bijection on 64-bit values, so distinct
	// keys are not expected to collide at all.
	assert.Less(t, collisions, 2)
}

func TestMixSeedSensitivity(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(0x5))
	for i := 0; i < 1000; i++ {
		k := r.Uint64()
		a, b := mix(k, 1), mix(k, 2)
		assert.NotEqual(t, a, b)
	}
}

func TestSplitmix64ReferenceVector(t *testing.T) {
	t.Parallel()

	// Reference values for the canonical SplitMix64 generator seeded at 0,
	// per the original splitmix64.c by Sebastiano Vigna.
	state := uint64(0)
	want := []uint64{
		0xe220a8397b1dcdaf, 0x6e789e6aa1b965f4, 0x06c45d188009454f, 0xf88bb8a8724c81ec,
	}
	for _, w := range want {
		assert.Equal(t, w, splitmix64(&state))
	}
}

func TestReduceWithinBounds(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(0x99))
	for i := 0; i < 10000; i++ {
		n := r.Uint32()%1000 + 1
		h := r.Uint32()
		assert.Less(t, reduce(h, n), n)
	}
}

func TestReduceZero(t *testing.T) {
	t.Parallel()
	assert.EqualValues(t, 0, reduce(rand.Uint32(), 0))
}

func TestRotl64RoundTrip(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewSource(0x42))
	for i := 0; i < 1000; i++ {
		x := r.Uint64()
		c := uint(r.Intn(64))
		y := rotl64(x, c)
		assert.Equal(t, x, rotl64(y, 64-c))
	}
}

func TestRotl64Identity(t *testing.T) {
	t.Parallel()

	x := uint64(0x0123456789abcdef)
	assert.Equal(t, x, rotl64(x, 0))
	assert.Equal(t, x, rotl64(x, 64))
}

func TestTruncateWidths(t *testing.T) {
	t.Parallel()

	const hash = 0x0123456789abcdef
	assert.Equal(t, uint8(fingerprint64(hash)), truncate[uint8](hash))
	assert.Equal(t, uint16(fingerprint64(hash)), truncate[uint16](hash))
	assert.Equal(t, uint32(fingerprint64(hash)), truncate[uint32](hash))
}
