package klist

import (
	"iter"
	"slices"

	"github.com/ValentinKolb/kolist/lib/keyed"
)

// --------------------------------------------------------------------------
// Write Operations (docu see keyed/interface.go)
//
// Every write validates its complete input inside the critical section before
// touching the items or the index, and raises exactly one delta after the
// mutation, still holding the lock. A failed validation leaves the list
// unmodified and raises nothing.
// --------------------------------------------------------------------------

func (l *KeyedList[K, V]) Add(v V) error {
	if isNil(v) {
		return keyed.NewError(keyed.RetCInvalidArgument, msgNilItem)
	}
	k := v.Key()

	l.lock()
	defer l.unlock()

	if _, exists := l.index[k]; exists {
		return keyed.Errorf(keyed.RetCDuplicateKey, msgKeyExists, k)
	}

	at := len(l.items)
	l.items = append(l.items, v)
	l.index[k] = v

	l.dispatch(keyed.Added[V]{Items: []V{v}, StartIndex: at})
	return nil
}

// AddRange appends a copy of items; the caller keeps ownership of the slice.
func (l *KeyedList[K, V]) AddRange(items []V) error {
	if len(items) == 0 {
		return keyed.NewError(keyed.RetCInvalidArgument, msgEmptyRange)
	}
	return l.insertBatch(appendAt, slices.Clone(items))
}

// AddSnapshot appends the buffered items of s and consumes s.
func (l *KeyedList[K, V]) AddSnapshot(s *Snapshot[V]) error {
	if s == nil {
		return keyed.NewError(keyed.RetCInvalidArgument, msgEmptyRange)
	}
	defer s.Release()
	return l.insertBatch(appendAt, s.take())
}

func (l *KeyedList[K, V]) AddSeq(seq iter.Seq[V]) error {
	if seq == nil {
		return keyed.NewError(keyed.RetCInvalidArgument, msgEmptyRange)
	}
	return l.AddSnapshot(Collect(seq))
}

func (l *KeyedList[K, V]) Insert(i int, v V) error {
	if isNil(v) {
		return keyed.NewError(keyed.RetCInvalidArgument, msgNilItem)
	}
	k := v.Key()

	l.lock()
	defer l.unlock()

	if i < 0 || i > len(l.items) {
		return l.errInsertIndex(i)
	}
	if _, exists := l.index[k]; exists {
		return keyed.Errorf(keyed.RetCDuplicateKey, msgKeyExists, k)
	}

	l.items = slices.Insert(l.items, i, v)
	l.index[k] = v

	l.dispatch(keyed.Added[V]{Items: []V{v}, StartIndex: i})
	return nil
}

// InsertRange inserts a copy of items at position i; the caller keeps
// ownership of the slice.
func (l *KeyedList[K, V]) InsertRange(i int, items []V) error {
	if len(items) == 0 {
		return keyed.NewError(keyed.RetCInvalidArgument, msgEmptyRange)
	}
	if i < 0 {
		return keyed.Errorf(keyed.RetCIndexOutOfRange, "insert index %d is negative", i)
	}
	return l.insertBatch(i, slices.Clone(items))
}

// InsertSnapshot inserts the buffered items of s at position i and consumes s.
func (l *KeyedList[K, V]) InsertSnapshot(i int, s *Snapshot[V]) error {
	if s == nil {
		return keyed.NewError(keyed.RetCInvalidArgument, msgEmptyRange)
	}
	defer s.Release()
	if i < 0 {
		return keyed.Errorf(keyed.RetCIndexOutOfRange, "insert index %d is negative", i)
	}
	return l.insertBatch(i, s.take())
}

func (l *KeyedList[K, V]) InsertSeq(i int, seq iter.Seq[V]) error {
	if seq == nil {
		return keyed.NewError(keyed.RetCInvalidArgument, msgEmptyRange)
	}
	return l.InsertSnapshot(i, Collect(seq))
}

func (l *KeyedList[K, V]) Remove(v V) bool {
	if isNil(v) {
		return false
	}
	k := v.Key()

	l.lock()
	defer l.unlock()

	if _, ok := l.index[k]; !ok {
		return false
	}
	i := l.position(k)
	if i < 0 {
		return false
	}

	l.removeAt(i)
	return true
}

func (l *KeyedList[K, V]) RemoveAt(i int) error {
	l.lock()
	defer l.unlock()

	if i < 0 || i >= len(l.items) {
		return l.errIndex(i)
	}

	l.removeAt(i)
	return nil
}

// RemoveRange removes count items starting at i. A count of zero with a
// valid start is a no-op and raises no delta.
func (l *KeyedList[K, V]) RemoveRange(i, count int) error {
	l.lock()
	defer l.unlock()

	if i < 0 || count < 0 || i > len(l.items)-count {
		return keyed.Errorf(keyed.RetCIndexOutOfRange, "range [%d, %d+%d) out of range [0, %d)", i, i, count, len(l.items))
	}
	if count == 0 {
		return nil
	}

	// copy before eviction, slices.Delete zeroes the vacated tail
	removed := slices.Clone(l.items[i : i+count])
	for _, v := range removed {
		delete(l.index, v.Key())
	}
	l.items = slices.Delete(l.items, i, i+count)

	l.dispatch(keyed.Removed[V]{Items: removed, StartIndex: i})
	return nil
}

// Move relocates the item at oldIndex so that it ends up at newIndex. The key
// index is not touched. Moving an item onto its own position is a no-op and
// raises no delta.
func (l *KeyedList[K, V]) Move(oldIndex, newIndex int) error {
	l.lock()
	defer l.unlock()

	if oldIndex < 0 || oldIndex >= len(l.items) {
		return l.errIndex(oldIndex)
	}
	if newIndex < 0 || newIndex >= len(l.items) {
		return l.errIndex(newIndex)
	}
	if oldIndex == newIndex {
		return nil
	}

	item := l.items[oldIndex]
	if oldIndex < newIndex {
		copy(l.items[oldIndex:newIndex], l.items[oldIndex+1:newIndex+1])
	} else {
		copy(l.items[newIndex+1:oldIndex+1], l.items[newIndex:oldIndex])
	}
	l.items[newIndex] = item

	l.dispatch(keyed.Moved[V]{Item: item, NewIndex: newIndex, OldIndex: oldIndex})
	return nil
}

func (l *KeyedList[K, V]) Update(v V) error {
	if isNil(v) {
		return keyed.NewError(keyed.RetCInvalidArgument, msgNilItem)
	}
	k := v.Key()

	l.lock()
	defer l.unlock()

	if _, ok := l.index[k]; !ok {
		return keyed.Errorf(keyed.RetCKeyNotFound, msgKeyNotFound, k)
	}

	l.replaceAt(l.position(k), v)
	return nil
}

// Set replaces the item at position i. The new item may carry a different
// key as long as no other position holds that key.
func (l *KeyedList[K, V]) Set(i int, v V) error {
	if isNil(v) {
		return keyed.NewError(keyed.RetCInvalidArgument, msgNilItem)
	}
	k := v.Key()

	l.lock()
	defer l.unlock()

	if i < 0 || i >= len(l.items) {
		return l.errIndex(i)
	}
	if oldKey := l.items[i].Key(); oldKey != k {
		if _, taken := l.index[k]; taken {
			return keyed.Errorf(keyed.RetCDuplicateKey, msgKeyExists, k)
		}
		delete(l.index, oldKey)
	}

	l.replaceAt(i, v)
	return nil
}

// SetByKey replaces the item stored under k, or appends v when k is absent.
// The key of v must equal k.
func (l *KeyedList[K, V]) SetByKey(k K, v V) error {
	if isNil(v) {
		return keyed.NewError(keyed.RetCInvalidArgument, msgNilItem)
	}
	if vk := v.Key(); vk != k {
		return keyed.Errorf(keyed.RetCInvalidArgument, "item key %v does not match key %v", vk, k)
	}

	l.lock()
	defer l.unlock()

	if _, ok := l.index[k]; ok {
		l.replaceAt(l.position(k), v)
		return nil
	}

	at := len(l.items)
	l.items = append(l.items, v)
	l.index[k] = v

	l.dispatch(keyed.Added[V]{Items: []V{v}, StartIndex: at})
	return nil
}

func (l *KeyedList[K, V]) Clear() {
	l.lock()
	defer l.unlock()

	clear(l.items)
	l.items = l.items[:0]
	clear(l.index)

	l.dispatch(keyed.Reset[V]{})
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// appendAt marks a batch that goes to the end of the list.
const appendAt = -1

// insertBatch validates and inserts batch at position at (or appends it for
// appendAt). The batch is owned by the call and becomes the delta payload.
func (l *KeyedList[K, V]) insertBatch(at int, batch []V) error {
	if len(batch) == 0 {
		return keyed.NewError(keyed.RetCInvalidArgument, msgEmptyRange)
	}
	for i, v := range batch {
		if isNil(v) {
			return keyed.Errorf(keyed.RetCInvalidArgument, "item %d of the batch is nil: %s", i, msgNilItem)
		}
	}

	l.lock()
	defer l.unlock()

	if at == appendAt {
		at = len(l.items)
	} else if at > len(l.items) {
		return l.errInsertIndex(at)
	}

	// against the index and against keys accepted earlier in this batch
	seen := make(map[K]struct{}, len(batch))
	for _, v := range batch {
		k := v.Key()
		if _, exists := l.index[k]; exists {
			return keyed.Errorf(keyed.RetCDuplicateKey, msgKeyExists, k)
		}
		if _, dup := seen[k]; dup {
			return keyed.Errorf(keyed.RetCDuplicateKey, "key %v occurs more than once in the batch", k)
		}
		seen[k] = struct{}{}
	}

	l.items = slices.Insert(l.items, at, batch...)
	for _, v := range batch {
		l.index[v.Key()] = v
	}

	l.dispatch(keyed.Added[V]{Items: batch, StartIndex: at})
	return nil
}

// removeAt removes the item at position i and raises the delta.
// The caller must hold the lock and have validated i.
func (l *KeyedList[K, V]) removeAt(i int) {
	item := l.items[i]
	delete(l.index, item.Key())
	l.items = slices.Delete(l.items, i, i+1)

	l.dispatch(keyed.Removed[V]{Items: []V{item}, StartIndex: i})
}

// replaceAt overwrites position i with v, indexes v under its key and raises
// the delta. The caller must hold the lock and have validated i and the key.
func (l *KeyedList[K, V]) replaceAt(i int, v V) {
	old := l.items[i]
	l.items[i] = v
	l.index[v.Key()] = v

	l.dispatch(keyed.Replaced[V]{NewItem: v, OldItem: old, Index: i})
}

func (l *KeyedList[K, V]) errInsertIndex(i int) *keyed.Error {
	return keyed.Errorf(keyed.RetCIndexOutOfRange, "insert index %d out of range [0, %d]", i, len(l.items))
}
