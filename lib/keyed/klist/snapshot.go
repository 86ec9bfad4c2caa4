package klist

import "iter"

// Snapshot is an owned, fixed buffer of items drained from an arbitrary
// sequence. The list validates, inserts and reports exactly the buffered
// items, so a lazy or single-pass source is iterated once and every step of
// a bulk operation sees the same data in the same order.
//
// A Snapshot is consumed by the operation it is passed to: the operation
// takes the buffer on entry and releases it when it returns, whether it
// succeeded or not. On success the emitted delta becomes the last holder of
// the buffered items. A Snapshot is not safe for concurrent use.
type Snapshot[V any] struct {
	items []V
}

// Collect drains seq into a new Snapshot. A nil seq yields an empty Snapshot.
func Collect[V any](seq iter.Seq[V]) *Snapshot[V] {
	s := &Snapshot[V]{}
	if seq == nil {
		return s
	}
	for v := range seq {
		s.items = append(s.items, v)
	}
	return s
}

// SnapshotOf copies items into a new Snapshot.
func SnapshotOf[V any](items ...V) *Snapshot[V] {
	s := &Snapshot[V]{items: make([]V, len(items))}
	copy(s.items, items)
	return s
}

// Len returns the number of buffered items.
func (s *Snapshot[V]) Len() int {
	return len(s.items)
}

// Values iterates the buffered items in order.
func (s *Snapshot[V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range s.items {
			if !yield(v) {
				return
			}
		}
	}
}

// Release drops the buffered items. It is idempotent.
func (s *Snapshot[V]) Release() {
	clear(s.items)
	s.items = nil
}

// take hands the buffer over to the caller and leaves the Snapshot empty.
func (s *Snapshot[V]) take() []V {
	items := s.items
	s.items = nil
	return items
}
