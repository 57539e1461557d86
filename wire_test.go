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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXor8DMARoundTrip(t *testing.T) {
	t.Parallel()

	keys := randomU64(10000, 0x111)
	f, err := NewXor8(context.Background(), keys)
	require.NoError(t, err)

	descriptor := make([]byte, xorDescriptorSize)
	f.DMACopyDescriptorTo(descriptor)
	fp := f.DMAFingerprints()

	ref := NewXor8RefFromDMA(descriptor, fp)
	assert.Equal(t, f.Len(), ref.Len())
	for _, k := range keys {
		assert.True(t, ref.Contains(k))
	}
}

func TestXor16DMARoundTrip(t *testing.T) {
	t.Parallel()

	keys := randomU64(10000, 0x222)
	f, err := NewXor16(context.Background(), keys)
	require.NoError(t, err)

	descriptor := make([]byte, xorDescriptorSize)
	f.DMACopyDescriptorTo(descriptor)
	fp := f.DMAFingerprints()

	ref := NewXor16RefFromDMA(descriptor, fp)
	for _, k := range keys {
		assert.True(t, ref.Contains(k))
	}
}

func TestBinaryFuse8DMARoundTrip(t *testing.T) {
	t.Parallel()

	keys := randomU64(10000, 0x333)
	f, err := NewBinaryFuse8(context.Background(), keys)
	require.NoError(t, err)

	descriptor := make([]byte, binaryFuseDescriptorSize)
	f.DMACopyDescriptorTo(descriptor)
	fp := f.DMAFingerprints()

	ref := NewBinaryFuse8RefFromDMA(descriptor, fp)
	assert.Equal(t, f.Len(), ref.Len())
	for _, k := range keys {
		assert.True(t, ref.Contains(k))
	}
}

func TestBinaryFuse32DMARoundTrip(t *testing.T) {
	t.Parallel()

	keys := randomU64(10000, 0x444)
	f, err := NewBinaryFuse32(context.Background(), keys)
	require.NoError(t, err)

	descriptor := make([]byte, binaryFuseDescriptorSize)
	f.DMACopyDescriptorTo(descriptor)
	fp := f.DMAFingerprints()

	ref := NewBinaryFuse32RefFromDMA(descriptor, fp)
	for _, k := range keys {
		assert.True(t, ref.Contains(k))
	}
}

func TestDMACopyDescriptorToTooSmallPanics(t *testing.T) {
	t.Parallel()

	keys := randomU64(100, 0x555)
	f, err := NewXor8(context.Background(), keys)
	require.NoError(t, err)

	assert.Panics(t, func() {
		f.DMACopyDescriptorTo(make([]byte, xorDescriptorSize-1))
	})
}

func TestMisalignedFingerprintBufferPanics(t *testing.T) {
	t.Parallel()

	keys := randomU64(1000, 0x666)
	f, err := NewXor16(context.Background(), keys)
	require.NoError(t, err)

	descriptor := make([]byte, xorDescriptorSize)
	f.DMACopyDescriptorTo(descriptor)
	fp := f.DMAFingerprints()

	// Misaligning by one byte, or truncating to an odd length, must panic
	// rather than silently misinterpret the buffer: both are fatal
	// zero-copy precondition violations.
	assert.Panics(t, func() {
		NewXor16RefFromDMA(descriptor, fp[1:])
	})
	assert.Panics(t, func() {
		NewXor16RefFromDMA(descriptor, fp[:len(fp)-1])
	})
}

func TestDMAFingerprintsEmptyFilter(t *testing.T) {
	t.Parallel()

	f, err := NewXor8(context.Background(), nil)
	require.NoError(t, err)
	// An empty key set still allocates a minimum capacity, so the
	// fingerprint buffer is non-empty even though no keys were added.
	assert.NotEmpty(t, f.DMAFingerprints())
}
