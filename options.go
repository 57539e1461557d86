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

import "math/rand/v2"

// FillPolicy controls how fingerprint slots that are never assigned a key
// during construction are initialized. It affects the false positive rate
// for keys whose fingerprint happens to collide with an unused slot's
// value, but never affects correctness: back-fill computes each assigned
// slot from the current values of the key's other two slots, so every
// member's query equation holds whatever the unassigned slots contain.
type FillPolicy int

const (
	// FillZero leaves unassigned slots at zero. This is the default: it is
	// the cheapest option and the one bit-compatible with the reference
	// construction this package ports.
	FillZero FillPolicy = iota

	// FillRandom fills unassigned slots with pseudo-random bytes, which
	// lowers the false positive rate very slightly for keys whose
	// fingerprint happens to be zero.
	FillRandom
)

// buildOptions holds the options common to every constructor in this
// package. It is assembled from a caller's Option values and never
// exported directly, following the teacher's Config-by-value pattern
// (see blobloom.Config) rather than exposing a mutable builder type.
type buildOptions struct {
	fill FillPolicy
}

// Option configures a filter constructor. See WithFillPolicy.
type Option func(*buildOptions)

// WithFillPolicy selects the fill policy used for fingerprint slots that no
// key is assigned to during construction. The default is FillZero.
func WithFillPolicy(p FillPolicy) Option {
	return func(o *buildOptions) { o.fill = p }
}

func resolveOptions(opts []Option) buildOptions {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// fillRandom overwrites fp, a freshly zero-allocated fingerprint slice,
// with pseudo-random values when the policy requests it.
func fillRandom[F fingerprint](fp []F, seed uint64) {
	r := rand.New(rand.NewPCG(seed, ^seed))
	for i := range fp {
		fp[i] = F(r.Uint64())
	}
}
