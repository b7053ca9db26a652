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
	"testing"

	"github.com/stretchr/testify/require"
)

// chainValues walks the chain at head, verifying the prev links and the
// head-points-at-tail convention along the way, and returns the payloads in
// order.
func chainValues(t *testing.T, head *Node[int]) []int {
	t.Helper()
	if head == nil {
		return nil
	}
	var vals []int
	var prev *Node[int]
	for n := head; n != nil; n = n.Next() {
		if prev != nil {
			require.Same(t, prev, n.prev)
		}
		vals = append(vals, n.Data())
		prev = n
	}
	require.Same(t, prev, head.prev)
	return vals
}

func makeNodes(n int) []Node[int] {
	nodes := make([]Node[int], n)
	for i := range nodes {
		nodes[i].data = i
		nodes[i].hash = uint64(i)
	}
	return nodes
}

func TestChainInsert(t *testing.T) {
	nodes := makeNodes(4)
	var head *Node[int]

	chainInsertHead(&head, &nodes[1])
	require.Equal(t, []int{1}, chainValues(t, head))
	chainInsertHead(&head, &nodes[0])
	require.Equal(t, []int{0, 1}, chainValues(t, head))
	chainInsertTail(&head, &nodes[2])
	require.Equal(t, []int{0, 1, 2}, chainValues(t, head))
	chainInsertTail(&head, &nodes[3])
	require.Equal(t, []int{0, 1, 2, 3}, chainValues(t, head))

	var tailFirst *Node[int]
	n := makeNodes(1)
	chainInsertTail(&tailFirst, &n[0])
	require.Equal(t, []int{0}, chainValues(t, tailFirst))
}

func TestChainRemove(t *testing.T) {
	testCases := []struct {
		remove   []int
		expected []int
	}{
		{[]int{0}, []int{1, 2, 3}},
		{[]int{3}, []int{0, 1, 2}},
		{[]int{1}, []int{0, 2, 3}},
		{[]int{1, 2}, []int{0, 3}},
		{[]int{0, 3}, []int{1, 2}},
		{[]int{3, 2, 1}, []int{0}},
		{[]int{0, 1, 2, 3}, nil},
		{[]int{2, 0, 3, 1}, nil},
	}
	for _, c := range testCases {
		t.Run("", func(t *testing.T) {
			nodes := makeNodes(4)
			var head *Node[int]
			for i := range nodes {
				chainInsertTail(&head, &nodes[i])
			}
			for _, i := range c.remove {
				chainRemove(&head, &nodes[i])
				require.Nil(t, nodes[i].next)
				require.Nil(t, nodes[i].prev)
			}
			require.Equal(t, c.expected, chainValues(t, head))
		})
	}
}

func TestChainConcat(t *testing.T) {
	build := func(nodes []Node[int], idx ...int) *Node[int] {
		var head *Node[int]
		for _, i := range idx {
			chainInsertTail(&head, &nodes[i])
		}
		return head
	}

	testCases := []struct {
		first, second []int
	}{
		{nil, nil},
		{[]int{0}, nil},
		{nil, []int{0}},
		{[]int{0}, []int{1}},
		{[]int{0, 1, 2}, []int{3}},
		{[]int{0}, []int{1, 2, 3}},
		{[]int{0, 1}, []int{2, 3}},
	}
	for _, c := range testCases {
		t.Run("", func(t *testing.T) {
			nodes := makeNodes(4)
			a := build(nodes, c.first...)
			b := build(nodes, c.second...)
			chainConcat(&a, b)

			expected := append(append([]int(nil), c.first...), c.second...)
			if len(expected) == 0 {
				expected = nil
			}
			require.Equal(t, expected, chainValues(t, a))
		})
	}
}

func TestNodeAccessors(t *testing.T) {
	tbl := New[string]()
	var n Node[string]
	tbl.Insert(&n, "payload", 0xdeadbeef)
	require.EqualValues(t, 0xdeadbeef, n.Hash())
	require.Equal(t, "payload", n.Data())
	require.Nil(t, n.Next())
	require.Same(t, &n, tbl.Bucket(0xdeadbeef))
}
