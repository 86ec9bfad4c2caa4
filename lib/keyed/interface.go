package keyed

import "iter"

// --------------------------------------------------------------------------
// Item Contract
// --------------------------------------------------------------------------

// Keyed is implemented by every item stored in an IKeyedList.
// The key must stay stable while the item is stored; the list never observes
// a key changing in place.
type Keyed[K comparable] interface {
	Key() K
}

// --------------------------------------------------------------------------
// Handler Types
// --------------------------------------------------------------------------

// DeltaHandler receives the typed change stream of a list.
// It is invoked synchronously while the list is locked and must not call back
// into the same list.
type DeltaHandler[V any] func(d Delta[V])

// EventHandler receives the flattened legacy change stream of a list.
// The sender is the list that raised the event.
type EventHandler[V any] func(sender any, e ChangeEvent[V])

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// IKeyedList is an ordered collection that can be indexed both by position
// and by the key embedded in its items. Every structural mutation raises
// exactly one Delta.
//
// All methods are safe for concurrent use. Write operations return a *Error
// (nil on success); read operations return the requested data along with a
// *Error where the read can fail.
type IKeyedList[K comparable, V Keyed[K]] interface {

	// --------------------------------------------------------------------------
	// Read Operations
	// --------------------------------------------------------------------------

	// Count returns the number of items.
	Count() int
	// Get returns the item at position i.
	Get(i int) (value V, err error)
	// GetByKey returns the item stored under key k.
	GetByKey(k K) (value V, err error)
	// TryGetValue returns the item stored under key k and whether it was found.
	TryGetValue(k K) (value V, ok bool)
	// ContainsKey reports whether an item with key k is stored.
	ContainsKey(k K) (ok bool)
	// Contains reports whether an item with the same key as v is stored.
	Contains(v V) (ok bool)
	// IndexOf returns the position of the item sharing v's key, or -1.
	IndexOf(v V) (index int)
	// Items returns a copy of all items in order.
	Items() (items []V)
	// All iterates a snapshot of (position, item) pairs taken when the range starts.
	All() iter.Seq2[int, V]
	// Keys iterates a snapshot of the keys in list order taken when the range starts.
	Keys() iter.Seq[K]
	// Values iterates a snapshot of the items in list order taken when the range starts.
	Values() iter.Seq[V]

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Add appends a single item.
	Add(v V) (err error)
	// AddRange appends all items of a slice as one contiguous block.
	AddRange(items []V) (err error)
	// AddSeq drains seq once and appends the drained items as one contiguous block.
	AddSeq(seq iter.Seq[V]) (err error)
	// Insert places v at position i, shifting later items right.
	Insert(i int, v V) (err error)
	// InsertRange places all items of a slice at position i.
	InsertRange(i int, items []V) (err error)
	// InsertSeq drains seq once and places the drained items at position i.
	InsertSeq(i int, seq iter.Seq[V]) (err error)
	// Remove removes the item sharing v's key. It reports whether one was found.
	Remove(v V) (found bool)
	// RemoveAt removes the item at position i.
	RemoveAt(i int) (err error)
	// RemoveRange removes count items starting at position i.
	RemoveRange(i, count int) (err error)
	// Move relocates the item at oldIndex to newIndex (index after removal).
	Move(oldIndex, newIndex int) (err error)
	// Update replaces the stored item sharing v's key with v.
	Update(v V) (err error)
	// Set replaces the item at position i.
	Set(i int, v V) (err error)
	// SetByKey replaces the item stored under k, or appends v if k is absent.
	SetByKey(k K, v V) (err error)
	// Clear removes all items.
	Clear()

	// --------------------------------------------------------------------------
	// Notification
	// --------------------------------------------------------------------------

	// Subscribe registers a typed change handler and returns a function that
	// removes it again.
	Subscribe(h DeltaHandler[V]) (unsubscribe func())
	// AddCollectionChanged registers a legacy handler under name, replacing any
	// handler registered under the same name.
	AddCollectionChanged(name string, h EventHandler[V])
	// RemoveCollectionChanged removes the legacy handler registered under name.
	RemoveCollectionChanged(name string) (removed bool)

	// --------------------------------------------------------------------------
	// Views
	// --------------------------------------------------------------------------

	// CreateView projects the list through transform, optionally reversed.
	// Implementations without view support return ErrNotImplemented.
	CreateView(transform func(V) any, reverse bool) (view IKeyedView[K, V, any], err error)
}

// IKeyedView is a read-only projection of an IKeyedList produced by a
// transform function, optionally in reverse order. A view keeps its own
// position and key indexes, derives its own Delta stream from the source
// stream and releases its source subscription on Close.
type IKeyedView[K comparable, V Keyed[K], TV any] interface {
	// Source returns the list the view observes.
	Source() IKeyedList[K, V]
	// Count returns the number of projected items.
	Count() int
	// Get returns the projected item at position i.
	Get(i int) (value TV, err error)
	// GetByKey returns the projection of the item stored under key k.
	GetByKey(k K) (value TV, err error)
	// Subscribe registers a handler for the derived change stream.
	Subscribe(h DeltaHandler[TV]) (unsubscribe func())
	// Close detaches the view from its source.
	Close() error
}
