// Copyright 2024 The Cockroach Authors
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

package hashdyn

import "github.com/cespare/xxhash/v2"

// The table never hashes anything itself: callers pass a precomputed hash to
// every operation. The helpers below are well distributed defaults. Bucket
// indexing uses the low bits of the hash, so identity hashes of sequential
// integers or pointers should be passed through HashUint64 first.

// HashBytes returns the xxhash of b.
func HashBytes(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// HashString returns the xxhash of s without copying it.
func HashString(s string) uint64 {
	return xxhash.Sum64String(s)
}

// HashUint64 mixes v with the murmur3 64-bit finalizer so that every input
// bit affects the low output bits.
func HashUint64(v uint64) uint64 {
	v ^= v >> 33
	v *= 0xff51afd7ed558ccd
	v ^= v >> 33
	v *= 0xc4ceb9fe1a85ec53
	v ^= v >> 33
	return v
}
