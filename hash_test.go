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

import (
	"strconv"
	"testing"

	"github.com/cespare/xxhash/v2"
	"github.com/stretchr/testify/require"
)

func TestHashBytes(t *testing.T) {
	for _, s := range []string{"", "a", "hello world", strconv.Itoa(1 << 40)} {
		require.Equal(t, xxhash.Sum64([]byte(s)), HashBytes([]byte(s)))
		require.Equal(t, HashBytes([]byte(s)), HashString(s))
	}
}

func TestHashUint64(t *testing.T) {
	require.EqualValues(t, 0, HashUint64(0))
	require.NotEqual(t, HashUint64(1), HashUint64(2))

	// Sequential integers spread evenly over the low bits used for bucket
	// indexing.
	const n = 4096
	var counts [16]int
	for i := uint64(0); i < n; i++ {
		counts[HashUint64(i)&15]++
	}
	for i, c := range counts {
		require.InDelta(t, n/16, c, n/32, "bucket %d", i)
	}
}

type entry struct {
	node Node[*entry]
	key  string
}

func TestHashStringKeys(t *testing.T) {
	tbl := New[*entry]()
	entries := make([]*entry, 1000)
	for i := range entries {
		e := &entry{key: "key-" + strconv.Itoa(i)}
		entries[i] = e
		tbl.Insert(&e.node, e, HashString(e.key))
	}
	requireConsistent(t, tbl)

	for _, e := range entries {
		v, ok := tbl.Search(HashString(e.key), func(o *entry) bool { return o.key == e.key })
		require.True(t, ok)
		require.Same(t, e, v)
	}

	// A well distributed hash keeps chains short at load factor <= 1/2.
	require.Less(t, tbl.Stats().LongestChain, 10)
}
