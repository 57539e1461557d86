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

// mix is MurmurHash3's 64-bit finalizer (fmix64), applied to key+seed.
//
// Copyright 2013, Sébastien Paolacci. Redistributed under the terms of the
// 3-clause BSD license that accompanies the original murmur3 sources.
func mix(key, seed uint64) uint64 {
	k := key + seed
	k ^= k >> 33
	k *= 0xff51afd7ed558ccd
	k ^= k >> 33
	k *= 0xc4ceb9fe1a85ec53
	k ^= k >> 33
	return k
}

// fingerprint64 folds a mixed hash down to the bits used to derive a
// fingerprint of any supported width; callers then truncate to F.
func fingerprint64(hash uint64) uint64 {
	return hash ^ (hash >> 32)
}

// fingerprint is a numeric type supported as a filter's stored slot value.
type fingerprint interface {
	~uint8 | ~uint16 | ~uint32
}

// truncate converts a mixed hash into a stored fingerprint of width F,
// keeping the low bits. It must be used identically during construction
// and querying: it is the only place filter width matters to the builder.
func truncate[F fingerprint](hash uint64) F {
	return F(fingerprint64(hash))
}

// splitmix64 is Sebastiano Vigna's SplitMix64 generator, used only to pick
// retry seeds between construction attempts.
//
// Written in 2015 by Sebastiano Vigna (vigna@acm.org); released to the
// public domain. See http://xoroshiro.di.unimi.it/splitmix64.c.
func splitmix64(state *uint64) uint64 {
	*state += 0x9e3779b97f4a7c15
	z := *state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// reduce maps h into the range [0, n) without a division, the same Lemire
// fast-alternative-to-modulo trick blobloom.reducerange uses to pick a
// block for a key's first hash:
// https://lemire.me/blog/2016/06/27/a-fast-alternative-to-the-modulo-reduction/
func reduce(h, n uint32) uint32 {
	return uint32((uint64(h) * uint64(n)) >> 32)
}

// rotl64 rotates x left by c bits, c taken modulo 64.
func rotl64(x uint64, c uint) uint64 {
	c &= 63
	return (x << c) | (x >> ((64 - c) & 63))
}
