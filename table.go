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

// package hashdyn is a dynamic, intrusive, chained hash table.
//
// # Chaining
//
// The table is an array of 2^N buckets, each the head of a doubly-linked
// chain of Nodes. A node lives in bucket hash&(2^N-1), so the bucket count is
// always a power of two and indexing is a single mask. The table stores only
// the hash of each element, never its key: lookups compare the stored hash
// first and only call the caller's match function on a hash hit, which
// disambiguates both colliding hashes sharing the same low bits and duplicate
// keys.
//
// # Intrusive nodes
//
// The table never allocates per element. The caller embeds a Node[T] in its
// own record (or keeps one alongside it) and passes it to Insert together with
// the payload T, typically a pointer back to the record. Because the caller
// holds the Node, it can later be unlinked in O(1) with RemoveExisting without
// searching its chain.
//
// # Resizing
//
// The table starts with 16 buckets. It doubles when an insertion would push
// the load factor above 1/2 and halves when a removal drops it below 1/8,
// never going below 16 buckets. Resizing is done in a single pass over every
// element, synchronously inside the Insert or Remove that crossed the
// threshold:
//
//   - Growing splits each old bucket i into new buckets i and i+oldCapacity
//     depending on the one additional hash bit exposed by the larger mask.
//     Elements never land anywhere else, so no full rehash is needed.
//   - Shrinking merges old buckets i and i+newCapacity into new bucket i by
//     concatenating their chains.
//
// A resize takes time proportional to the number of elements. Callers that
// cannot tolerate the latency spike should pre-size the table with
// WithInitialCapacity.
//
// A Table is NOT goroutine-safe.
package hashdyn

import (
	"fmt"
	"strings"
	"unsafe"
)

const (
	debug = false

	// minBucketBits is the initial and minimum size of the table expressed as
	// a power of two.
	minBucketBits = 4
)

// Table is a hash table of intrusive Nodes carrying payloads of type T.
// Elements are indexed by a caller supplied hash value and located with a
// caller supplied match function. Duplicate hashes and duplicate keys may
// coexist; lookups return the most recently inserted match.
//
// The zero value for a Table is not usable; use New or Init.
type Table[T any] struct {
	// The allocator to use for the bucket array.
	allocator Allocator[T]
	// buckets holds 2^bucketBits chain heads.
	buckets []*Node[T]
	// bucketBits is the log2 of len(buckets). It is never less than
	// minBucketBits.
	bucketBits uint
	// bucketMask is len(buckets)-1 and maps a hash to its bucket.
	bucketMask uint64
	// The number of nodes linked across all buckets.
	count int
	// initialBits is the bucket bits requested by WithInitialCapacity.
	initialBits uint
}

// New constructs a new empty Table with 16 buckets, or more if
// WithInitialCapacity is specified.
func New[T any](options ...option[T]) *Table[T] {
	t := &Table[T]{}
	t.Init(options...)
	return t
}

// Init initializes a Table in place. It is the allocation-free counterpart of
// New for tables embedded in other structures. Init must not be called on a
// Table that has not been closed.
func (t *Table[T]) Init(options ...option[T]) {
	*t = Table[T]{
		allocator:   defaultAllocator[T]{},
		initialBits: minBucketBits,
	}

	for _, op := range options {
		op.apply(t)
	}

	t.bucketBits = t.initialBits
	t.bucketMask = (uint64(1) << t.bucketBits) - 1
	t.buckets = t.alloc(1 << t.bucketBits)
	t.checkInvariants()
}

// Close releases the bucket array back to the configured allocator. The
// caller is responsible for having removed every node beforehand if their
// memory is going to be reused; Close never touches the nodes themselves. It
// is unnecessary to close a table using the default allocator. It is invalid
// to use a Table after it has been closed, though Close itself is idempotent.
func (t *Table[T]) Close() {
	if t.buckets != nil {
		clear(t.buckets)
		t.allocator.FreeBuckets(t.buckets)
		t.buckets = nil
	}
	t.count = 0
	t.allocator = nil
}

// Insert links n into the table with the given payload and hash. It always
// succeeds; no deduplication is performed. Before linking, the table doubles
// its bucket array if the insertion would push the load factor above 1/2.
//
// n must not currently be linked into any table.
func (t *Table[T]) Insert(n *Node[T], data T, hash uint64) {
	if t.count+1 > len(t.buckets)/2 {
		t.grow()
	}

	n.hash = hash
	n.data = data
	chainInsertHead(&t.buckets[hash&t.bucketMask], n)
	t.count++

	if debug {
		fmt.Printf("insert(%016x): bucket=%d count=%d\n", hash, hash&t.bucketMask, t.count)
	}
	t.checkInvariants()
}

// Remove searches for the first element with the given hash for which match
// returns true, unlinks it and returns its payload. It returns ok=false and
// leaves the table untouched if there is no such element. A successful
// removal may halve the bucket array.
//
// This is faster than calling Bucket followed by RemoveExisting.
func (t *Table[T]) Remove(hash uint64, match func(T) bool) (data T, ok bool) {
	n := t.find(hash, match)
	if n == nil {
		if debug {
			fmt.Printf("remove(%016x): not found\n", hash)
		}
		return data, false
	}
	return t.RemoveExisting(n), true
}

// RemoveExisting unlinks n, which the caller guarantees is present in the
// table, and returns its payload. The node is unlinked in O(1) using its own
// links. Like Remove, it halves the bucket array if the load factor drops
// below 1/8.
func (t *Table[T]) RemoveExisting(n *Node[T]) T {
	chainRemove(&t.buckets[n.hash&t.bucketMask], n)
	t.count--

	if debug {
		fmt.Printf("remove(%016x): bucket=%d count=%d\n", n.hash, n.hash&t.bucketMask, t.count)
	}

	if t.bucketBits > minBucketBits && t.count < len(t.buckets)/8 {
		t.shrink()
	}
	t.checkInvariants()
	return n.data
}

// Bucket returns the head of the chain for the given hash, or nil if the
// bucket is empty. The chain is guaranteed to contain every element with this
// hash but may also contain elements with other hashes. Walk it with
// Node.Next; the table must not be modified during the walk.
func (t *Table[T]) Bucket(hash uint64) *Node[T] {
	return t.buckets[hash&t.bucketMask]
}

// Search returns the payload of the first element with the given hash for
// which match returns true, or ok=false if there is none. When several
// elements match, the most recently inserted one is returned.
func (t *Table[T]) Search(hash uint64, match func(T) bool) (data T, ok bool) {
	if n := t.find(hash, match); n != nil {
		return n.data, true
	}
	return data, false
}

func (t *Table[T]) find(hash uint64, match func(T) bool) *Node[T] {
	for n := t.buckets[hash&t.bucketMask]; n != nil; n = n.next {
		// A bucket holds every hash sharing the same low bits, so compare the
		// full hash before paying for match.
		if n.hash == hash && match(n.data) {
			return n
		}
	}
	return nil
}

// All calls yield sequentially for the payload of every element in the
// table. If yield returns false, iteration stops. The table must not be
// modified during iteration.
func (t *Table[T]) All(yield func(data T) bool) {
	for _, n := range t.buckets {
		for ; n != nil; n = n.next {
			if !yield(n.data) {
				return
			}
		}
	}
}

// Len returns the number of elements in the table.
func (t *Table[T]) Len() int {
	return t.count
}

// Count returns the number of elements in the table. It is equivalent to Len.
func (t *Table[T]) Count() int {
	return t.count
}

// Capacity returns the number of buckets.
func (t *Table[T]) Capacity() int {
	return len(t.buckets)
}

// MemoryUsage returns an estimate of the bytes used by the table: the bucket
// array plus the Nodes of the stored elements. It is meant for capacity
// planning only.
func (t *Table[T]) MemoryUsage() uintptr {
	var n Node[T]
	var p *Node[T]
	return uintptr(len(t.buckets))*unsafe.Sizeof(p) + uintptr(t.count)*unsafe.Sizeof(n)
}

// Stats returns a snapshot of the table shape. It walks every bucket.
func (t *Table[T]) Stats() Stats {
	s := Stats{
		Len:     t.count,
		Buckets: len(t.buckets),
	}
	for _, n := range t.buckets {
		if n == nil {
			s.EmptyBuckets++
			continue
		}
		var l int
		for ; n != nil; n = n.next {
			l++
		}
		s.LongestChain = max(s.LongestChain, l)
	}
	return s
}

func (t *Table[T]) alloc(n int) []*Node[T] {
	b := t.allocator.AllocBuckets(n)
	if len(b) != n {
		panic(fmt.Sprintf("hashdyn: allocator returned %d buckets, expected %d", len(b), n))
	}
	return b
}

// grow doubles the bucket array. Every node of old bucket i moves to new
// bucket i or i+oldCapacity depending on the hash bit newly covered by the
// mask. Nodes are appended so their relative order within a bucket is kept.
func (t *Table[T]) grow() {
	oldBuckets := t.buckets
	oldCapacity := len(oldBuckets)
	newCapacity := oldCapacity << 1
	newMask := uint64(newCapacity - 1)

	if debug {
		fmt.Printf("grow: capacity=%d->%d  count=%d\n", oldCapacity, newCapacity, t.count)
	}

	newBuckets := t.alloc(newCapacity)
	for i := range oldBuckets {
		for n := oldBuckets[i]; n != nil; {
			next := n.next
			chainInsertTail(&newBuckets[n.hash&newMask], n)
			n = next
		}
		oldBuckets[i] = nil
	}
	t.allocator.FreeBuckets(oldBuckets)

	t.buckets = newBuckets
	t.bucketBits++
	t.bucketMask = newMask
}

// shrink halves the bucket array, concatenating old buckets i and
// i+newCapacity into new bucket i.
func (t *Table[T]) shrink() {
	oldBuckets := t.buckets
	oldCapacity := len(oldBuckets)
	newCapacity := oldCapacity >> 1

	if debug {
		fmt.Printf("shrink: capacity=%d->%d  count=%d\n", oldCapacity, newCapacity, t.count)
	}

	newBuckets := t.alloc(newCapacity)
	for i := range newBuckets {
		newBuckets[i] = oldBuckets[i]
		chainConcat(&newBuckets[i], oldBuckets[i+newCapacity])
		oldBuckets[i] = nil
		oldBuckets[i+newCapacity] = nil
	}
	t.allocator.FreeBuckets(oldBuckets)

	t.buckets = newBuckets
	t.bucketBits--
	t.bucketMask = uint64(newCapacity - 1)
}

func (t *Table[T]) checkInvariants() {
	if invariants {
		if t.bucketBits < minBucketBits {
			panic(fmt.Sprintf("invariant failed: bucket bits %d below minimum %d\n%s",
				t.bucketBits, minBucketBits, t.debugString()))
		}
		if t.bucketMask != (uint64(1)<<t.bucketBits)-1 {
			panic(fmt.Sprintf("invariant failed: mask %x does not match bucket bits %d\n%s",
				t.bucketMask, t.bucketBits, t.debugString()))
		}
		if uint64(len(t.buckets)) != t.bucketMask+1 {
			panic(fmt.Sprintf("invariant failed: found %d buckets, but mask is %x\n%s",
				len(t.buckets), t.bucketMask, t.debugString()))
		}
		if t.count > len(t.buckets)/2 {
			panic(fmt.Sprintf("invariant failed: count %d exceeds half of %d buckets\n%s",
				t.count, len(t.buckets), t.debugString()))
		}

		var count int
		for i, head := range t.buckets {
			if head == nil {
				continue
			}
			var prev *Node[T]
			for n := head; n != nil; n = n.next {
				if n.hash&t.bucketMask != uint64(i) {
					panic(fmt.Sprintf("invariant failed: bucket(%d): hash %016x belongs in bucket %d\n%s",
						i, n.hash, n.hash&t.bucketMask, t.debugString()))
				}
				if prev != nil && n.prev != prev {
					panic(fmt.Sprintf("invariant failed: bucket(%d): broken prev link at hash %016x\n%s",
						i, n.hash, t.debugString()))
				}
				prev = n
				count++
			}
			if head.prev != prev {
				panic(fmt.Sprintf("invariant failed: bucket(%d): head does not point at tail\n%s",
					i, t.debugString()))
			}
		}

		if count != t.count {
			panic(fmt.Sprintf("invariant failed: found %d linked nodes, but count is %d\n%s",
				count, t.count, t.debugString()))
		}
	}
}

func (t *Table[T]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "capacity=%d  bits=%d  count=%d\n", len(t.buckets), t.bucketBits, t.count)
	for i, n := range t.buckets {
		if n == nil {
			continue
		}
		fmt.Fprintf(&buf, "  %4d:", i)
		for ; n != nil; n = n.next {
			fmt.Fprintf(&buf, " %016x", n.hash)
		}
		buf.WriteString("\n")
	}
	return buf.String()
}
