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
	"encoding/binary"
	"fmt"
	"unsafe"
)

// Wire layouts for the zero-copy descriptor+fingerprint export of §6. Both
// descriptors are little-endian and need not themselves be aligned; only
// the fingerprint byte slice handed to a *RefFromDMA constructor does.
//
// These Ref types assume a little-endian host, matching the wire format:
// importing a buffer produced on a big-endian machine onto a little-endian
// one (or vice versa) is not supported, the same limitation any filter
// library built around a raw byte-reinterpreting zero-copy view has.
const (
	xorDescriptorSize        = 16 // seed(8) + blockLength(8)
	binaryFuseDescriptorSize = 20 // seed(8) + segmentLength(4) + segmentLengthMask(4) + segmentCountLength(4)
)

// DMACopyDescriptorTo writes f's descriptor, little-endian, into out. It
// panics if out is shorter than the descriptor (16 bytes for a Xor
// filter).
func (f *xorFilter[F]) DMACopyDescriptorTo(out []byte) {
	if len(out) < xorDescriptorSize {
		panic(fmt.Sprintf("xorf: descriptor buffer too small: need %d bytes, got %d", xorDescriptorSize, len(out)))
	}
	binary.LittleEndian.PutUint64(out[0:8], f.seed)
	binary.LittleEndian.PutUint64(out[8:16], uint64(f.blockLength))
}

// DMAFingerprints returns f's fingerprint array reinterpreted as raw
// little-endian bytes, without copying. The returned slice aliases f's
// memory and must not be written through: a write changes f's
// fingerprints.
func (f *xorFilter[F]) DMAFingerprints() []byte {
	return fingerprintBytes(f.fingerprints)
}

// xorFilterRef is a Contains-only Xor filter view whose fingerprints are
// borrowed from caller-supplied memory (e.g. a memory-mapped file or a
// network buffer) instead of owned by the view itself.
type xorFilterRef[F fingerprint] struct {
	seed         uint64
	blockLength  uint32
	fingerprints []F
}

type (
	XorRef8  = xorFilterRef[uint8]
	XorRef16 = xorFilterRef[uint16]
	XorRef32 = xorFilterRef[uint32]
)

// Contains reports whether k was one of the keys the exported filter was
// built from. Same semantics and false positive rate as xorFilter.Contains.
func (f *xorFilterRef[F]) Contains(k uint64) bool {
	hash := mix(k, f.seed)
	h0, h1, h2 := xorHashIndices(hash, f.blockLength)
	fp := truncate[F](hash)
	return fp == f.fingerprints[h0]^f.fingerprints[h1]^f.fingerprints[h2]
}

// Len returns the number of fingerprint slots in f.
func (f *xorFilterRef[F]) Len() int {
	return len(f.fingerprints)
}

func newXorRefFromDMA[F fingerprint](descriptor, fp []byte) *xorFilterRef[F] {
	if len(descriptor) < xorDescriptorSize {
		panic(fmt.Sprintf("xorf: descriptor buffer too small: need %d bytes, got %d", xorDescriptorSize, len(descriptor)))
	}
	seed := binary.LittleEndian.Uint64(descriptor[0:8])
	blockLength := uint32(binary.LittleEndian.Uint64(descriptor[8:16]))
	return &xorFilterRef[F]{
		seed:         seed,
		blockLength:  blockLength,
		fingerprints: bytesToFingerprints[F](fp),
	}
}

// NewXor8RefFromDMA reconstructs a read-only view of a Xor8 filter
// previously exported with DMACopyDescriptorTo/DMAFingerprints. fp must be
// aligned to 1 byte (trivially true) and its length is unconstrained,
// since W=8 imposes no alignment requirement.
func NewXor8RefFromDMA(descriptor, fp []byte) *XorRef8 { return newXorRefFromDMA[uint8](descriptor, fp) }

// NewXor16RefFromDMA is NewXor8RefFromDMA for 16-bit fingerprints. fp must
// be aligned to 2 bytes and have a length that is a multiple of 2.
func NewXor16RefFromDMA(descriptor, fp []byte) *XorRef16 {
	return newXorRefFromDMA[uint16](descriptor, fp)
}

// NewXor32RefFromDMA is NewXor8RefFromDMA for 32-bit fingerprints. fp must
// be aligned to 4 bytes and have a length that is a multiple of 4.
func NewXor32RefFromDMA(descriptor, fp []byte) *XorRef32 {
	return newXorRefFromDMA[uint32](descriptor, fp)
}

// DMACopyDescriptorTo writes f's descriptor, little-endian, into out. It
// panics if out is shorter than the descriptor (20 bytes for a Binary
// Fuse filter).
func (f *binaryFuseFilter[F]) DMACopyDescriptorTo(out []byte) {
	if len(out) < binaryFuseDescriptorSize {
		panic(fmt.Sprintf("xorf: descriptor buffer too small: need %d bytes, got %d", binaryFuseDescriptorSize, len(out)))
	}
	binary.LittleEndian.PutUint64(out[0:8], f.seed)
	binary.LittleEndian.PutUint32(out[8:12], f.segmentLength)
	binary.LittleEndian.PutUint32(out[12:16], f.segmentLengthMask)
	binary.LittleEndian.PutUint32(out[16:20], f.segmentCountLength)
}

// DMAFingerprints returns f's fingerprint array reinterpreted as raw
// little-endian bytes, without copying. See xorFilter.DMAFingerprints for
// the aliasing caveat.
func (f *binaryFuseFilter[F]) DMAFingerprints() []byte {
	return fingerprintBytes(f.fingerprints)
}

// binaryFuseFilterRef is a Contains-only Binary Fuse filter view whose
// fingerprints are borrowed from caller-supplied memory.
type binaryFuseFilterRef[F fingerprint] struct {
	seed               uint64
	segmentLength      uint32
	segmentLengthMask  uint32
	segmentCountLength uint32
	fingerprints       []F
}

type (
	BinaryFuseRef8  = binaryFuseFilterRef[uint8]
	BinaryFuseRef16 = binaryFuseFilterRef[uint16]
	BinaryFuseRef32 = binaryFuseFilterRef[uint32]
)

// Contains reports whether k was one of the keys the exported filter was
// built from.
func (f *binaryFuseFilterRef[F]) Contains(k uint64) bool {
	hash := mix(k, f.seed)
	h0, h1, h2 := binaryFuseHashIndices(hash, f.segmentLength, f.segmentLengthMask, f.segmentCountLength)
	fp := truncate[F](hash)
	return fp == f.fingerprints[h0]^f.fingerprints[h1]^f.fingerprints[h2]
}

// Len returns the number of fingerprint slots in f.
func (f *binaryFuseFilterRef[F]) Len() int {
	return len(f.fingerprints)
}

func newBinaryFuseRefFromDMA[F fingerprint](descriptor, fp []byte) *binaryFuseFilterRef[F] {
	if len(descriptor) < binaryFuseDescriptorSize {
		panic(fmt.Sprintf("xorf: descriptor buffer too small: need %d bytes, got %d", binaryFuseDescriptorSize, len(descriptor)))
	}
	return &binaryFuseFilterRef[F]{
		seed:               binary.LittleEndian.Uint64(descriptor[0:8]),
		segmentLength:      binary.LittleEndian.Uint32(descriptor[8:12]),
		segmentLengthMask:  binary.LittleEndian.Uint32(descriptor[12:16]),
		segmentCountLength: binary.LittleEndian.Uint32(descriptor[16:20]),
		fingerprints:       bytesToFingerprints[F](fp),
	}
}

// NewBinaryFuse8RefFromDMA reconstructs a read-only view of a BinaryFuse8
// filter previously exported with DMACopyDescriptorTo/DMAFingerprints.
func NewBinaryFuse8RefFromDMA(descriptor, fp []byte) *BinaryFuseRef8 {
	return newBinaryFuseRefFromDMA[uint8](descriptor, fp)
}

// NewBinaryFuse16RefFromDMA is NewBinaryFuse8RefFromDMA for 16-bit
// fingerprints. fp must be aligned to 2 bytes and have a length that is a
// multiple of 2.
func NewBinaryFuse16RefFromDMA(descriptor, fp []byte) *BinaryFuseRef16 {
	return newBinaryFuseRefFromDMA[uint16](descriptor, fp)
}

// NewBinaryFuse32RefFromDMA is NewBinaryFuse8RefFromDMA for 32-bit
// fingerprints. fp must be aligned to 4 bytes and have a length that is a
// multiple of 4.
func NewBinaryFuse32RefFromDMA(descriptor, fp []byte) *BinaryFuseRef32 {
	return newBinaryFuseRefFromDMA[uint32](descriptor, fp)
}

// fingerprintBytes reinterprets fp as a byte slice without copying,
// mirroring the unsafe block-reinterpretation setop_amd64.go uses to view
// a Bloom filter's uint32 blocks as uint64 for SIMD-friendly set
// operations.
func fingerprintBytes[F fingerprint](fp []F) []byte {
	if len(fp) == 0 {
		return nil
	}
	width := int(unsafe.Sizeof(fp[0]))
	return unsafe.Slice((*byte)(unsafe.Pointer(&fp[0])), len(fp)*width)
}

// bytesToFingerprints reinterprets b as a slice of F without copying. It
// panics if b is misaligned or its length is not a multiple of
// sizeof(F) — the fatal zero-copy precondition violation of §7.3.
func bytesToFingerprints[F fingerprint](b []byte) []F {
	var zero F
	width := int(unsafe.Sizeof(zero))

	if len(b)%width != 0 {
		panic(fmt.Sprintf("xorf: fingerprint buffer length %d is not a multiple of %d", len(b), width))
	}
	if len(b) == 0 {
		return nil
	}
	if width > 1 {
		if addr := uintptr(unsafe.Pointer(&b[0])); addr%uintptr(width) != 0 {
			panic(fmt.Sprintf("xorf: fingerprint buffer is not aligned to %d bytes", width))
		}
	}
	return unsafe.Slice((*F)(unsafe.Pointer(&b[0])), len(b)/width)
}
