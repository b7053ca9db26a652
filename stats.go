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

// Stats describes the shape of a Table at a point in time.
type Stats struct {
	// Len is the number of elements.
	Len int
	// Buckets is the number of buckets.
	Buckets int
	// EmptyBuckets is the number of buckets with no elements.
	EmptyBuckets int
	// LongestChain is the length of the longest bucket chain.
	LongestChain int
}

// LoadFactor returns the ratio of elements to buckets.
func (s Stats) LoadFactor() float64 {
	if s.Buckets == 0 {
		return 0
	}
	return float64(s.Len) / float64(s.Buckets)
}
