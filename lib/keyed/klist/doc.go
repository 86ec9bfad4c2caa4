// Package klist implements keyed.IKeyedList: an in-memory, ordered list whose
// items are also indexed by the key they carry, raising a typed change delta
// for every structural mutation.
//
// Key Features:
//   - Positional and keyed access over the same items
//   - Single-item and bulk mutations with all-or-nothing validation
//   - Exactly one keyed.Delta per successful mutation, bulk changes reported
//     as one contiguous block
//   - A legacy adapter that flattens deltas into keyed.ChangeEvent values
//   - Thread-safe operations for concurrent access
//
// Implementation Details:
//
//   - Dual Index: The list keeps an ordered slice and a map from key to item.
//     After every completed operation both hold the same items, the map has
//     exactly one entry per position and no key occurs twice. Moves only touch
//     the slice.
//
//   - Validation First: Bulk operations check every incoming item for nil, for
//     a key that is already stored and for a key that occurred earlier in the
//     same batch before anything is mutated. A failed batch leaves the list
//     exactly as it was.
//
//   - Snapshot Buffer: Bulk operations that accept an iter.Seq drain it once
//     into a Snapshot. Validation, insertion and the delta payload all read that
//     buffer, so single-pass or side-effecting sequences behave predictably.
//
//   - Subscribers: Typed subscribers are stored copy-on-write and legacy
//     handlers in an xsync.MapOf, so registration never takes the list lock.
//     The legacy adapter subscribes itself to the typed stream when its first
//     handler is added and unsubscribes when the last one is removed.
//
// Thread Safety:
//
//	One sync.Mutex per list guards every read, write and enumeration as well
//	as the dispatch of the delta a write raises. Operations on one list are
//	linearizable; there is no ordering across lists. Handlers run on the
//	mutating goroutine while the lock is held: a slow handler stalls the list,
//	and a handler that calls back into the same list deadlocks. Building with
//	-tags kolistdebug turns such a re-entrant call into a panic. Consumers
//	that need to react with further list operations should use observe.Queue.
//
//	Enumeration never holds the lock while yielding. Items, All, Keys and
//	Values copy under the lock and iterate the copy, so every range sees one
//	consistent state and may stop early or mutate the list.
//
// Usage Example:
//
//	list := klist.New[string, *Task]()
//	list.AddCollectionChanged("ui", func(sender any, e keyed.ChangeEvent[*Task]) {
//		fmt.Println(e.Action, e.NewStartingIndex, len(e.NewItems))
//	})
//
//	err := list.AddSeq(loadTasks())           // drained once, validated, appended
//	err = list.Move(0, 2)                     // raises keyed.Moved
//	err = list.Update(&Task{ID: "a", Done: true})
//
// Views:
//
//	CreateView declares filtered or mapped projections of a list. The
//	projection algorithm is not implemented; the call fails with
//	keyed.ErrNotImplemented.
package klist
