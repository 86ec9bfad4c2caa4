package klist

import (
	"iter"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/kolist/lib/common"
	"github.com/ValentinKolb/kolist/lib/keyed"
	"github.com/lni/dragonboat/v4/logger"
)

var plog = logger.GetLogger(common.LoggerList)

// KeyedList is the mutex guarded implementation of keyed.IKeyedList.
//
// A single mutex protects the ordered items, the key index and the dispatch
// of the delta raised by a mutation. Handlers therefore run on the mutating
// goroutine inside the critical section and must not call back into the
// same list.
type KeyedList[K comparable, V keyed.Keyed[K]] struct {
	mu    sync.Mutex
	guard reentryGuard
	items []V
	index map[K]V

	// typed subscribers, copy-on-write so registration never needs mu
	subMu  sync.Mutex
	subs   atomic.Pointer[[]subscription[V]]
	nextID atomic.Uint64

	legacy legacyAdapter[V]
}

// New creates an empty list.
func New[K comparable, V keyed.Keyed[K]]() *KeyedList[K, V] {
	return NewWithCapacity[K, V](0)
}

// NewWithCapacity creates an empty list with room for capacity items.
func NewWithCapacity[K comparable, V keyed.Keyed[K]](capacity int) *KeyedList[K, V] {
	capacity = max(capacity, 0)
	l := &KeyedList[K, V]{
		items: make([]V, 0, capacity),
		index: make(map[K]V, capacity),
	}
	l.subs.Store(&[]subscription[V]{})
	l.legacy.init()
	return l
}

// NewFrom creates a list holding items in order. No delta is raised.
// Loading fails on the first nil item or on the first key that was already
// loaded from an earlier position.
func NewFrom[K comparable, V keyed.Keyed[K]](items []V) (*KeyedList[K, V], error) {
	l := NewWithCapacity[K, V](len(items))
	for i, v := range items {
		if isNil(v) {
			return nil, keyed.Errorf(keyed.RetCInvalidArgument, "item %d is nil: %s", i, msgNilItem)
		}
		k := v.Key()
		if _, exists := l.index[k]; exists {
			return nil, keyed.Errorf(keyed.RetCDuplicateKey, msgKeyExists, k)
		}
		l.items = append(l.items, v)
		l.index[k] = v
	}
	return l, nil
}

// NewFromSeq drains seq once and loads the drained items like NewFrom.
func NewFromSeq[K comparable, V keyed.Keyed[K]](seq iter.Seq[V]) (*KeyedList[K, V], error) {
	s := Collect(seq)
	defer s.Release()
	return NewFrom[K, V](s.items)
}

// --------------------------------------------------------------------------
// Locking
// --------------------------------------------------------------------------

func (l *KeyedList[K, V]) lock() {
	l.guard.enter()
	l.mu.Lock()
	l.guard.acquired()
}

func (l *KeyedList[K, V]) unlock() {
	l.guard.released()
	l.mu.Unlock()
}

// --------------------------------------------------------------------------
// Read Operations (docu see keyed/interface.go)
// --------------------------------------------------------------------------

func (l *KeyedList[K, V]) Count() int {
	l.lock()
	defer l.unlock()
	return len(l.items)
}

func (l *KeyedList[K, V]) Get(i int) (V, error) {
	l.lock()
	defer l.unlock()

	if i < 0 || i >= len(l.items) {
		var zero V
		return zero, l.errIndex(i)
	}
	return l.items[i], nil
}

func (l *KeyedList[K, V]) GetByKey(k K) (V, error) {
	l.lock()
	defer l.unlock()

	v, ok := l.index[k]
	if !ok {
		return v, keyed.Errorf(keyed.RetCKeyNotFound, msgKeyNotFound, k)
	}
	return v, nil
}

func (l *KeyedList[K, V]) TryGetValue(k K) (V, bool) {
	l.lock()
	defer l.unlock()

	v, ok := l.index[k]
	return v, ok
}

func (l *KeyedList[K, V]) ContainsKey(k K) bool {
	l.lock()
	defer l.unlock()

	_, ok := l.index[k]
	return ok
}

func (l *KeyedList[K, V]) Contains(v V) bool {
	if isNil(v) {
		return false
	}
	k := v.Key()

	l.lock()
	defer l.unlock()

	_, ok := l.index[k]
	return ok
}

func (l *KeyedList[K, V]) IndexOf(v V) int {
	if isNil(v) {
		return -1
	}
	k := v.Key()

	l.lock()
	defer l.unlock()

	if _, ok := l.index[k]; !ok {
		return -1
	}
	return l.position(k)
}

// --------------------------------------------------------------------------
// Enumeration
//
// Every enumeration copies under the lock and yields from the copy without
// holding it. A range over All, Keys or Values therefore observes the list as
// it was when the range started, may stop early, and may mutate the list from
// the loop body.
// --------------------------------------------------------------------------

func (l *KeyedList[K, V]) Items() []V {
	l.lock()
	defer l.unlock()

	items := make([]V, len(l.items))
	copy(items, l.items)
	return items
}

func (l *KeyedList[K, V]) All() iter.Seq2[int, V] {
	return func(yield func(int, V) bool) {
		for i, v := range l.Items() {
			if !yield(i, v) {
				return
			}
		}
	}
}

func (l *KeyedList[K, V]) Keys() iter.Seq[K] {
	return func(yield func(K) bool) {
		for _, k := range l.keySnapshot() {
			if !yield(k) {
				return
			}
		}
	}
}

func (l *KeyedList[K, V]) Values() iter.Seq[V] {
	return func(yield func(V) bool) {
		for _, v := range l.Items() {
			if !yield(v) {
				return
			}
		}
	}
}

func (l *KeyedList[K, V]) keySnapshot() []K {
	l.lock()
	defer l.unlock()

	keys := make([]K, len(l.items))
	for i, v := range l.items {
		keys[i] = v.Key()
	}
	return keys
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// position returns the current position of the item stored under k, or -1.
// The caller must hold the lock.
func (l *KeyedList[K, V]) position(k K) int {
	for i, v := range l.items {
		if v.Key() == k {
			return i
		}
	}
	return -1
}

func (l *KeyedList[K, V]) errIndex(i int) *keyed.Error {
	return keyed.Errorf(keyed.RetCIndexOutOfRange, "index %d out of range [0, %d)", i, len(l.items))
}

// isNil reports whether v is a nil interface or a nil pointer, map, slice,
// func or chan. Such items have no key and cannot be indexed.
func isNil[V any](v V) bool {
	rv := reflect.ValueOf(any(v))
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}

const (
	msgNilItem     = "nil items cannot be indexed"
	msgEmptyRange  = "items argument is nil or empty"
	msgKeyExists   = "item with key %v already exists in list"
	msgKeyNotFound = "key %v not found"
)
