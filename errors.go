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

import "errors"

// ErrConstructionFailed is returned by the Binary Fuse constructors when the
// retry cap (maxBuildAttempts) is exhausted without peeling the construction
// graph down to all keys. It typically indicates duplicate keys in the
// input, or an input so small that the fuse graph cannot be peeled.
var ErrConstructionFailed = errors.New("xorf: failed to construct binary fuse filter")

// ErrDuplicateKey is returned, only in builds compiled with the xorf_debug
// tag, when the input to a constructor contains the same key twice.
// Duplicate keys are a precondition violation: the caller is responsible
// for de-duplication (see package doc).
var ErrDuplicateKey = errors.New("xorf: duplicate key in constructor input")

const maxBuildAttempts = 1000
