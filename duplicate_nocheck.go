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

//go:build !xorf_debug

package xorf

// checkDuplicateKeys is a no-op in release builds: duplicates are usually
// absorbed by Binary Fuse's insertion-phase duplicate compensation (see
// buildBinaryFuse) or, failing that, make construction fail via the retry
// cap. Xor construction cannot peel a duplicated key and has no retry
// cap, so on such input it keeps retrying until ctx is done.
func checkDuplicateKeys(keys []uint64) error {
	return nil
}
