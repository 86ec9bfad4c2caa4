// Package keyed defines the contracts of an observable collection that is
// indexed both by position (like a slice) and by a key embedded in each item
// (like a map), together with the change notifications it raises.
//
// The package focuses on:
//   - A unified interface (IKeyedList) for dual-indexed list operations
//   - A typed, sealed change variant (Delta) emitted for every mutation
//   - A flattened legacy event shape (ChangeEvent) for older consumers
//   - A structured error taxonomy shared by all implementations
//
// Key Components:
//
//   - Keyed: The capability every stored item exposes. Keys must be comparable
//     and stay stable while the item is stored.
//
//   - IKeyedList Interface: Positional and keyed reads, single and bulk writes,
//     snapshot enumeration and the two subscription points (typed and legacy).
//     Bulk writes are validated completely before anything is mutated.
//
//   - Delta: A tagged variant with the concrete types Added, Removed, Replaced,
//     Moved and Reset. Bulk adds and removes always describe one contiguous
//     block: a start index plus the items of the block.
//
//   - ChangeEvent: One fixed-shape record carrying the action, the new and old
//     items and their starting indices. ToChangeEvent performs the mapping
//     from Delta.
//
//   - IKeyedView: The contract of a derived, independently notifying projection
//     of a list. It is declared for future work; implementations return
//     ErrNotImplemented when asked to create one.
//
//   - Error System: Error wraps a RetCode and a message. The exported sentinels
//     (ErrDuplicateKey, ErrKeyNotFound, ...) match any Error with the same code
//     through errors.Is.
//
// Implementations:
//
//	The package "github.com/ValentinKolb/kolist/lib/keyed/klist" provides the
//	mutex guarded implementation of IKeyedList. Asynchronous and metrics
//	observers live in "github.com/ValentinKolb/kolist/lib/keyed/observe".
//
// Usage Example:
//
//	type Task struct {
//		ID    uuid.UUID
//		Title string
//	}
//
//	func (t *Task) Key() uuid.UUID { return t.ID }
//
//	list := klist.New[uuid.UUID, *Task]()
//	unsubscribe := list.Subscribe(func(d keyed.Delta[*Task]) {
//		switch d := d.(type) {
//		case keyed.Added[*Task]:
//			fmt.Println("added", len(d.Items), "at", d.StartIndex)
//		case keyed.Removed[*Task]:
//			fmt.Println("removed", len(d.Items), "at", d.StartIndex)
//		}
//	})
//	defer unsubscribe()
//
//	if err := list.Add(&Task{ID: uuid.New(), Title: "write docs"}); errors.Is(err, keyed.ErrDuplicateKey) {
//		// key already stored
//	}
package keyed
