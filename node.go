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

// Node is the intrusive link stored in a Table. It is meant to be embedded in
// the caller's record (or allocated alongside it), with the record referenced
// through the payload of type T. The table only ever writes the link fields;
// the caller owns the Node's memory and must remove it from the table before
// reusing or discarding it.
//
// The zero value is an unlinked Node ready for Table.Insert.
type Node[T any] struct {
	// next is nil for the last node of a chain.
	next *Node[T]
	// prev of the chain head points at the chain tail. For every other node
	// it points at the preceding node.
	prev *Node[T]
	hash uint64
	data T
}

// Hash returns the hash value the node was inserted with.
func (n *Node[T]) Hash() uint64 {
	return n.hash
}

// Data returns the payload the node was inserted with.
func (n *Node[T]) Data() T {
	return n.data
}

// Next returns the following node in the bucket chain, or nil if n is the
// last node. Use it to walk the chain returned by Table.Bucket.
func (n *Node[T]) Next() *Node[T] {
	return n.next
}

// A chain is addressed through a pointer to its head slot in the bucket
// array. An empty chain is a nil head. The helpers below are the only code
// that touches next/prev directly.

// chainInsertHead links n at the front of the chain.
func chainInsertHead[T any](head **Node[T], n *Node[T]) {
	first := *head
	if first == nil {
		n.prev = n
		n.next = nil
		*head = n
		return
	}
	n.prev = first.prev
	first.prev = n
	n.next = first
	*head = n
}

// chainInsertTail links n after the current tail of the chain.
func chainInsertTail[T any](head **Node[T], n *Node[T]) {
	first := *head
	if first == nil {
		n.prev = n
		n.next = nil
		*head = n
		return
	}
	tail := first.prev
	n.prev = tail
	n.next = nil
	tail.next = n
	first.prev = n
}

// chainRemove unlinks n, which must be a member of the chain, in O(1).
func chainRemove[T any](head **Node[T], n *Node[T]) {
	first := *head
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		// n is the tail.
		first.prev = n.prev
	}
	if n == first {
		*head = n.next
	} else {
		n.prev.next = n.next
	}
	n.next = nil
	n.prev = nil
}

// chainConcat appends the chain starting at second onto the chain at first.
// second must not be referenced from any other head afterwards.
func chainConcat[T any](first **Node[T], second *Node[T]) {
	if second == nil {
		return
	}
	a := *first
	if a == nil {
		*first = second
		return
	}
	tail := a.prev
	a.prev = second.prev
	tail.next = second
	second.prev = tail
}
