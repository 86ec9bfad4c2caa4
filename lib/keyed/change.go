package keyed

import "fmt"

// --------------------------------------------------------------------------
// Actions
// --------------------------------------------------------------------------

// Action identifies the kind of structural change described by a Delta.
type Action int

const (
	ActionAdd Action = iota
	ActionRemove
	ActionReplace
	ActionMove
	ActionReset
)

func (a Action) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionRemove:
		return "remove"
	case ActionReplace:
		return "replace"
	case ActionMove:
		return "move"
	case ActionReset:
		return "reset"
	default:
		return fmt.Sprintf("invalid action %d", int(a))
	}
}

// --------------------------------------------------------------------------
// Typed Delta
// --------------------------------------------------------------------------

// Delta describes one completed mutation of a list. The concrete type is one
// of Added, Removed, Replaced, Moved or Reset; consumers switch on it.
//
// Item slices inside a delta are owned by the delta and never alias the
// list's storage.
type Delta[V any] interface {
	Action() Action
	delta()
}

// Added reports Items inserted as a contiguous block starting at StartIndex.
type Added[V any] struct {
	Items      []V
	StartIndex int
}

// Removed reports Items removed as a contiguous block that started at
// StartIndex before the removal.
type Removed[V any] struct {
	Items      []V
	StartIndex int
}

// Replaced reports that OldItem at Index was overwritten by NewItem.
type Replaced[V any] struct {
	NewItem V
	OldItem V
	Index   int
}

// Moved reports that Item was relocated from OldIndex to NewIndex.
type Moved[V any] struct {
	Item     V
	NewIndex int
	OldIndex int
}

// Reset reports that the whole content of the list was invalidated.
type Reset[V any] struct{}

func (Added[V]) Action() Action    { return ActionAdd }
func (Removed[V]) Action() Action  { return ActionRemove }
func (Replaced[V]) Action() Action { return ActionReplace }
func (Moved[V]) Action() Action    { return ActionMove }
func (Reset[V]) Action() Action    { return ActionReset }

func (Added[V]) delta()    {}
func (Removed[V]) delta()  {}
func (Replaced[V]) delta() {}
func (Moved[V]) delta()    {}
func (Reset[V]) delta()    {}

func (d Added[V]) String() string {
	return fmt.Sprintf("add %d item(s) at %d", len(d.Items), d.StartIndex)
}

func (d Removed[V]) String() string {
	return fmt.Sprintf("remove %d item(s) at %d", len(d.Items), d.StartIndex)
}

func (d Replaced[V]) String() string {
	return fmt.Sprintf("replace item at %d", d.Index)
}

func (d Moved[V]) String() string {
	return fmt.Sprintf("move item %d -> %d", d.OldIndex, d.NewIndex)
}

func (Reset[V]) String() string {
	return "reset"
}

// --------------------------------------------------------------------------
// Legacy Event
// --------------------------------------------------------------------------

// ChangeEvent is the single fixed-shape notification delivered to legacy
// handlers. Fields that do not apply to an action are nil or -1.
type ChangeEvent[V any] struct {
	Action           Action
	NewItems         []V
	OldItems         []V
	NewStartingIndex int
	OldStartingIndex int
}

// ToChangeEvent flattens a typed delta into the legacy event shape.
//
//	Added    -> NewItems, NewStartingIndex
//	Removed  -> OldItems, OldStartingIndex
//	Replaced -> NewItems, OldItems, both indices = Index
//	Moved    -> NewItems = OldItems = [Item], NewStartingIndex, OldStartingIndex
//	Reset    -> no items, both indices -1
func ToChangeEvent[V any](d Delta[V]) ChangeEvent[V] {
	e := ChangeEvent[V]{
		Action:           d.Action(),
		NewStartingIndex: -1,
		OldStartingIndex: -1,
	}
	switch d := d.(type) {
	case Added[V]:
		e.NewItems = d.Items
		e.NewStartingIndex = d.StartIndex
	case Removed[V]:
		e.OldItems = d.Items
		e.OldStartingIndex = d.StartIndex
	case Replaced[V]:
		e.NewItems = []V{d.NewItem}
		e.OldItems = []V{d.OldItem}
		e.NewStartingIndex = d.Index
		e.OldStartingIndex = d.Index
	case Moved[V]:
		items := []V{d.Item}
		e.NewItems = items
		e.OldItems = items
		e.NewStartingIndex = d.NewIndex
		e.OldStartingIndex = d.OldIndex
	}
	return e
}
