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

import "fmt"

// checkDuplicateKeys is the debug-time precondition check of §7.2. It is
// only compiled into builds tagged xorf_debug; release builds use the
// no-op in duplicate_nocheck.go instead (see there for how each filter
// family then behaves on duplicate keys).
func checkDuplicateKeys(keys []uint64) error {
	seen := make(map[uint64]struct{}, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			return fmt.Errorf("%w: %d", ErrDuplicateKey, k)
		}
		seen[k] = struct{}{}
	}
	return nil
}
