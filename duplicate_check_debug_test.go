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

//go:build xorf_debug

package xorf

import (
	"errors"
	"testing"
)

// TestCheckDuplicateKeysDebug covers the xorf_debug build's precondition
// check directly: the release build routes [1, 2, 1] through the
// duplicate-compensation logic in buildBinaryFuse instead (see
// TestBinaryFuse8DuplicateKeyScenario), but a debug build rejects the
// duplicate before construction even starts.
func TestCheckDuplicateKeysDebug(t *testing.T) {
	t.Parallel()

	if err := checkDuplicateKeys([]uint64{1, 2, 1}); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("checkDuplicateKeys([1, 2, 1]) = %v, want ErrDuplicateKey", err)
	}
	if err := checkDuplicateKeys([]uint64{1, 2, 3}); err != nil {
		t.Fatalf("checkDuplicateKeys([1, 2, 3]) = %v, want nil", err)
	}
}
