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

// Package xorf implements Xor and Binary Fuse filters.
//
// Xor and Binary Fuse filters are approximate-membership-query data
// structures: if a key has been added to a filter, a lookup of that key
// returns true, but if the key has not been added, there is a small,
// configurable probability that the lookup still returns true (a false
// positive). False negatives are impossible.
//
// Unlike a Bloom filter, a Xor/Binary Fuse filter is built once from a
// complete, duplicate-free set of keys and is immutable afterwards: there
// is no Add, only New. In exchange for giving up incremental construction,
// these filters use fewer bits per key than a Bloom filter at the same
// false positive rate, and a query touches exactly three fingerprint slots
// rather than k.
//
// In this package, keys are represented as uint64 values. Client code that
// has keys of another type should hash them first; see the hashproxy
// subpackage for an adapter that does this.
//
// The package implements two filter families, each available in three
// fingerprint widths (8, 16 and 32 bits):
//
//	Xor8, Xor16, Xor32                   - three-block layout
//	BinaryFuse8, BinaryFuse16, BinaryFuse32 - binary-partitioned fuse graph
//
// Binary Fuse filters are smaller and faster to build than Xor filters of
// the same fingerprint width, at the cost of occasionally failing to build
// (see ErrConstructionFailed); Xor filters always succeed on duplicate-free
// input.
//
// For background, see Graf & Lemire, "Xor Filters: Faster and Smaller Than
// Bloom and Cuckoo Filters" (2020) and Graf & Lemire, "Binary Fuse Filters:
// Fast and Smaller Than Xor Filters" (2022).
package xorf
