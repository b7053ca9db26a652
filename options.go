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

import "math/bits"

// option provide an interface to do work on Table while it is being created.
type option[T any] interface {
	apply(t *Table[T])
}

// Allocator specifies an interface for allocating and releasing the bucket
// array used by a Table. The default allocator utilizes Go's builtin make()
// and allows the GC to reclaim memory.
//
// The allocator must not change over the lifetime of a Table. If the
// allocator is manually managing memory then Table.Close must be called in
// order to ensure the final bucket array is passed to FreeBuckets.
type Allocator[T any] interface {
	// AllocBuckets should return a slice equivalent to make([]*Node[T], n).
	// Returning a slice of any other length is treated as an allocation
	// failure and causes the Table to panic.
	AllocBuckets(n int) []*Node[T]

	// FreeBuckets can optionally release the memory associated with the
	// supplied slice that is guaranteed to have been allocated by
	// AllocBuckets. Every entry of the slice is nil when it is released.
	FreeBuckets(b []*Node[T])
}

type defaultAllocator[T any] struct{}

func (defaultAllocator[T]) AllocBuckets(n int) []*Node[T] {
	return make([]*Node[T], n)
}

func (defaultAllocator[T]) FreeBuckets(b []*Node[T]) {
}

type allocatorOption[T any] struct {
	allocator Allocator[T]
}

func (op allocatorOption[T]) apply(t *Table[T]) {
	t.allocator = op.allocator
}

// WithAllocator is an option to specify the Allocator to use for a Table[T].
func WithAllocator[T any](allocator Allocator[T]) option[T] {
	return allocatorOption[T]{allocator}
}

type initialCapacityOption[T any] struct {
	bits uint
}

func (op initialCapacityOption[T]) apply(t *Table[T]) {
	t.initialBits = op.bits
}

// WithInitialCapacity is an option to pre-size a Table[T] so that n elements
// can be inserted without triggering a grow. The table still shrinks back to
// the minimum bucket count as elements are removed.
func WithInitialCapacity[T any](n int) option[T] {
	b := uint(minBucketBits)
	if n > 0 {
		// Smallest power of two with n <= buckets/2.
		if nb := uint(bits.Len(uint(n-1))) + 1; nb > b {
			b = nb
		}
	}
	return initialCapacityOption[T]{bits: b}
}
