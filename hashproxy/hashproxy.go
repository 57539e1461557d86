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

// Package hashproxy adapts the uint64-keyed filters in xorf to arbitrary
// key types, by hashing each key to a uint64 before it ever reaches a
// filter. It corresponds to xorf's HashProxy in the original Rust crate,
// which is itself generic over a std::hash::Hasher; Go has no equivalent
// trait object, so a HashProxy here is parameterized by a plain hash
// function instead of a hasher type.
package hashproxy

import (
	"context"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/xxh3"

	"github.com/ayazhafiz/xorf"
)

// Filter is the subset of a xorf filter's API a HashProxy needs: query by
// uint64 key and report the number of fingerprint slots. *xorf.Xor8,
// *xorf.Xor16, *xorf.Xor32, *xorf.BinaryFuse8, *xorf.BinaryFuse16 and
// *xorf.BinaryFuse32 all satisfy it.
type Filter interface {
	Contains(uint64) bool
	Len() int
}

// HashFunc maps a key of type T to the uint64 a Filter is built from and
// queried with.
type HashFunc[T any] func(T) uint64

// Builder constructs a Filter from a slice of pre-hashed keys; NewXor8,
// NewXor16, NewXor32, NewBinaryFuse8, NewBinaryFuse16 and NewBinaryFuse32
// all have this shape.
type Builder[F Filter] func(ctx context.Context, keys []uint64, opts ...xorf.Option) (F, error)

// HashProxy exposes a Contains(T) bool query for an arbitrary key type T,
// backed by a Filter over uint64 and a HashFunc that bridges the two. A
// HashProxy is immutable once constructed; its query performance and
// false positive rate depend on both the choice of HashFunc and the
// choice of underlying Filter.
//
// Because a HashProxy only stores the hash function, not the keys
// themselves, it can only be queried with the same key type (and
// effectively the same HashFunc) it was built with.
type HashProxy[T any, F Filter] struct {
	filter F
	hash   HashFunc[T]
}

// Build hashes every key with hash, builds a Filter from the resulting
// uint64s with build, and returns a HashProxy wrapping both. ctx and opts
// are forwarded to build unchanged.
func Build[T any, F Filter](ctx context.Context, keys []T, hash HashFunc[T], build Builder[F], opts ...xorf.Option) (*HashProxy[T, F], error) {
	hashed := make([]uint64, len(keys))
	for i, k := range keys {
		hashed[i] = hash(k)
	}

	filter, err := build(ctx, hashed, opts...)
	if err != nil {
		return nil, err
	}

	return &HashProxy[T, F]{filter: filter, hash: hash}, nil
}

// Contains reports whether key was one of the keys p was built from,
// modulo both the underlying filter's false positive rate and any hash
// collisions introduced by p's HashFunc.
func (p *HashProxy[T, F]) Contains(key T) bool {
	return p.filter.Contains(p.hash(key))
}

// Len returns the number of fingerprint slots in p's underlying filter.
func (p *HashProxy[T, F]) Len() int {
	return p.filter.Len()
}

// HashString hashes a string with xxhash, cespare/xxhash/v2's
// implementation of the streaming-friendly, non-cryptographic XXH64
// algorithm. It is the default HashFunc[string] for HashProxy.
func HashString(s string) uint64 {
	return xxhash.Sum64String(s)
}

// HashBytes is HashString for []byte keys.
func HashBytes(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// HashStringXXH3 hashes a string with zeebo/xxh3, an implementation of
// the newer, typically faster XXH3 algorithm. Use it instead of
// HashString when XXH3's throughput matters more than xxhash's maturity.
func HashStringXXH3(s string) uint64 {
	return xxh3.HashString(s)
}

// HashBytesXXH3 is HashStringXXH3 for []byte keys.
func HashBytesXXH3(b []byte) uint64 {
	return xxh3.Hash(b)
}
