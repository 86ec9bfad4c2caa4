package klist

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/ValentinKolb/kolist/lib/keyed"
)

type task struct {
	ID   string
	Done bool
}

func (t *task) Key() string { return t.ID }

// point is a value type item, nil checks must not reject it
type point struct {
	X, Y int
}

func (p point) Key() string { return fmt.Sprintf("%d/%d", p.X, p.Y) }

func tasks(ids ...string) []*task {
	out := make([]*task, len(ids))
	for i, id := range ids {
		out[i] = &task{ID: id}
	}
	return out
}

func keysOf[V keyed.Keyed[string]](l *KeyedList[string, V]) []string {
	return slices.Collect(l.Keys())
}

// --------------------------------------------------------------------------
// Construction
// --------------------------------------------------------------------------

func TestNewFrom(t *testing.T) {
	l, err := NewFrom[string, *task](tasks("a", "b", "c"))
	if err != nil {
		t.Fatalf("NewFrom failed: %v", err)
	}
	if got := keysOf(l); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("Unexpected keys %v", got)
	}
	if v, ok := l.TryGetValue("b"); !ok || v.ID != "b" {
		t.Errorf("Key index not loaded")
	}

	if _, err := NewFrom[string, *task](tasks("a", "b", "a")); !errors.Is(err, keyed.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if _, err := NewFrom[string, *task]([]*task{{ID: "a"}, nil}); !errors.Is(err, keyed.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}

	empty, err := NewFrom[string, *task](nil)
	if err != nil || empty.Count() != 0 {
		t.Errorf("NewFrom(nil) = %v, %v; expected empty list", empty, err)
	}
}

func TestNewFromSeq(t *testing.T) {
	l, err := NewFromSeq[string, *task](slices.Values(tasks("x", "y")))
	if err != nil {
		t.Fatalf("NewFromSeq failed: %v", err)
	}
	if got := keysOf(l); !slices.Equal(got, []string{"x", "y"}) {
		t.Errorf("Unexpected keys %v", got)
	}
}

func TestValueItems(t *testing.T) {
	l := New[string, point]()
	if err := l.AddRange([]point{{1, 2}, {3, 4}}); err != nil {
		t.Fatalf("AddRange failed: %v", err)
	}
	if err := l.Add(point{1, 2}); !errors.Is(err, keyed.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	// the zero value is a valid item for value types
	if err := l.Add(point{}); err != nil {
		t.Errorf("Add(zero value) failed: %v", err)
	}
	if idx := l.IndexOf(point{3, 4}); idx != 1 {
		t.Errorf("IndexOf = %d, expected 1", idx)
	}
}

// --------------------------------------------------------------------------
// Snapshot Buffer
// --------------------------------------------------------------------------

func TestAddSnapshotConsumesBuffer(t *testing.T) {
	l := New[string, *task]()

	var payload []*task
	l.Subscribe(func(d keyed.Delta[*task]) {
		if a, ok := d.(keyed.Added[*task]); ok {
			payload = a.Items
		}
	})

	s := SnapshotOf(tasks("a", "b")...)
	if s.Len() != 2 {
		t.Fatalf("Snapshot holds %d items", s.Len())
	}
	if err := l.AddSnapshot(s); err != nil {
		t.Fatalf("AddSnapshot failed: %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Snapshot not consumed, %d items left", s.Len())
	}
	if len(payload) != 2 || payload[0].ID != "a" || payload[1].ID != "b" {
		t.Errorf("Delta does not own the buffered items: %v", payload)
	}

	// a failed operation consumes the snapshot too
	s = SnapshotOf(tasks("c", "a")...)
	if err := l.AddSnapshot(s); !errors.Is(err, keyed.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Snapshot not released after failure")
	}

	// a consumed snapshot is empty
	if err := l.AddSnapshot(s); !errors.Is(err, keyed.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for an empty snapshot, got %v", err)
	}
	if err := l.AddSnapshot(nil); !errors.Is(err, keyed.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for a nil snapshot, got %v", err)
	}
}

func TestInsertSnapshot(t *testing.T) {
	l, _ := NewFrom[string, *task](tasks("a", "d"))

	s := Collect(slices.Values(tasks("b", "c")))
	if err := l.InsertSnapshot(1, s); err != nil {
		t.Fatalf("InsertSnapshot failed: %v", err)
	}
	if got := keysOf(l); !slices.Equal(got, []string{"a", "b", "c", "d"}) {
		t.Errorf("Unexpected keys %v", got)
	}

	s = SnapshotOf(&task{ID: "e"})
	if err := l.InsertSnapshot(-1, s); !errors.Is(err, keyed.ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange, got %v", err)
	}
	if s.Len() != 0 {
		t.Errorf("Snapshot not released after a rejected index")
	}
}

func TestSnapshotValues(t *testing.T) {
	s := Collect(slices.Values([]int{1, 2, 3}))
	var got []int
	for v := range s.Values() {
		got = append(got, v)
		if v == 2 {
			break
		}
	}
	if !slices.Equal(got, []int{1, 2}) {
		t.Errorf("Unexpected values %v", got)
	}

	s.Release()
	s.Release()
	if s.Len() != 0 {
		t.Errorf("Release did not drop the buffer")
	}
	if Collect[int](nil).Len() != 0 {
		t.Errorf("Collect(nil) should be empty")
	}
}

// --------------------------------------------------------------------------
// Subscribers
// --------------------------------------------------------------------------

func TestSubscribeOrderAndUnsubscribe(t *testing.T) {
	l := New[string, *task]()

	var order []string
	unsubFirst := l.Subscribe(func(keyed.Delta[*task]) { order = append(order, "first") })
	l.Subscribe(func(keyed.Delta[*task]) { order = append(order, "second") })

	_ = l.Add(&task{ID: "a"})
	if !slices.Equal(order, []string{"first", "second"}) {
		t.Errorf("Handlers not called in registration order: %v", order)
	}

	unsubFirst()
	unsubFirst()
	order = nil
	_ = l.Add(&task{ID: "b"})
	if !slices.Equal(order, []string{"second"}) {
		t.Errorf("Unsubscribed handler still called: %v", order)
	}

	// nil handlers are ignored
	l.Subscribe(nil)()
	l.AddCollectionChanged("nil", nil)
	if l.RemoveCollectionChanged("nil") {
		t.Errorf("nil legacy handler should not be registered")
	}
}

func TestSubscribeFromHandler(t *testing.T) {
	l := New[string, *task]()

	var late int
	var once sync.Once
	l.Subscribe(func(keyed.Delta[*task]) {
		once.Do(func() {
			// registration does not take the list lock
			l.Subscribe(func(keyed.Delta[*task]) { late++ })
		})
	})

	_ = l.Add(&task{ID: "a"})
	if late != 0 {
		t.Errorf("Handler registered during dispatch saw the current delta")
	}
	_ = l.Add(&task{ID: "b"})
	if late != 1 {
		t.Errorf("Handler registered during dispatch missed the next delta, got %d", late)
	}
}

func TestLegacyReplaceByName(t *testing.T) {
	l := New[string, *task]()

	var calls []string
	l.AddCollectionChanged("ui", func(any, keyed.ChangeEvent[*task]) { calls = append(calls, "old") })
	l.AddCollectionChanged("ui", func(any, keyed.ChangeEvent[*task]) { calls = append(calls, "new") })

	_ = l.Add(&task{ID: "a"})
	if !slices.Equal(calls, []string{"new"}) {
		t.Errorf("Handler registered under the same name was not replaced: %v", calls)
	}

	if !l.RemoveCollectionChanged("ui") {
		t.Fatalf("RemoveCollectionChanged reported false")
	}
	if n := len(*l.subs.Load()); n != 0 {
		t.Errorf("Legacy adapter still attached, %d typed subscribers", n)
	}
}

func TestLegacyEventShapes(t *testing.T) {
	l, _ := NewFrom[string, *task](tasks("a", "b", "c"))

	var events []keyed.ChangeEvent[*task]
	l.AddCollectionChanged("log", func(_ any, e keyed.ChangeEvent[*task]) {
		events = append(events, e)
	})

	_ = l.Update(&task{ID: "b", Done: true})
	_ = l.RemoveRange(0, 2)
	l.Clear()

	if len(events) != 3 {
		t.Fatalf("Expected 3 events, got %d", len(events))
	}

	replace := events[0]
	if replace.Action != keyed.ActionReplace || replace.NewStartingIndex != 1 || replace.OldStartingIndex != 1 ||
		!replace.NewItems[0].Done || replace.OldItems[0].Done {
		t.Errorf("Unexpected replace event %+v", replace)
	}

	remove := events[1]
	if remove.Action != keyed.ActionRemove || remove.OldStartingIndex != 0 || remove.NewStartingIndex != -1 ||
		len(remove.OldItems) != 2 || remove.NewItems != nil {
		t.Errorf("Unexpected remove event %+v", remove)
	}

	reset := events[2]
	if reset.Action != keyed.ActionReset || reset.NewStartingIndex != -1 || reset.OldStartingIndex != -1 ||
		reset.NewItems != nil || reset.OldItems != nil {
		t.Errorf("Unexpected reset event %+v", reset)
	}
}

// --------------------------------------------------------------------------
// Deltas
// --------------------------------------------------------------------------

func TestDeltaDoesNotAliasStorage(t *testing.T) {
	l := New[string, *task]()

	var added keyed.Added[*task]
	l.Subscribe(func(d keyed.Delta[*task]) {
		if a, ok := d.(keyed.Added[*task]); ok {
			added = a
		}
	})

	batch := tasks("a", "b", "c")
	if err := l.AddRange(batch); err != nil {
		t.Fatalf("AddRange failed: %v", err)
	}
	if err := l.Move(0, 2); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if ids := []string{added.Items[0].ID, added.Items[1].ID, added.Items[2].ID}; !slices.Equal(ids, []string{"a", "b", "c"}) {
		t.Errorf("Delta payload changed after a later Move: %v", ids)
	}
}

func TestClearOnEmptyRaisesReset(t *testing.T) {
	l := New[string, *task]()

	var deltas []keyed.Delta[*task]
	l.Subscribe(func(d keyed.Delta[*task]) { deltas = append(deltas, d) })

	l.Clear()
	if len(deltas) != 1 || deltas[0].Action() != keyed.ActionReset {
		t.Errorf("Expected a single Reset, got %v", deltas)
	}
}

func TestSetByKeyMismatch(t *testing.T) {
	l := New[string, *task]()
	err := l.SetByKey("a", &task{ID: "b"})
	if !errors.Is(err, keyed.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument, got %v", err)
	}
	if l.Count() != 0 {
		t.Errorf("Rejected SetByKey modified the list")
	}
}

// --------------------------------------------------------------------------
// Views
// --------------------------------------------------------------------------

func TestCreateViewNotImplemented(t *testing.T) {
	l := New[string, *task]()

	view, err := CreateView[string, *task, bool](l, func(v *task) bool { return v.Done }, true)
	if view != nil {
		t.Errorf("Expected nil view")
	}
	var kerr *keyed.Error
	if !errors.As(err, &kerr) || kerr.Code != keyed.RetCNotImplemented {
		t.Errorf("Expected NotImplemented, got %v", err)
	}
}

// --------------------------------------------------------------------------
// Concurrency
// --------------------------------------------------------------------------

func TestConcurrentEnumerationDuringMutation(t *testing.T) {
	l := New[string, *task]()
	done := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-done:
				return
			default:
			}
			v := &task{ID: fmt.Sprintf("t%d", i)}
			_ = l.Add(v)
			if i%2 == 0 {
				l.Remove(v)
			}
		}
	}()

	for round := 0; round < 200; round++ {
		seen := map[string]bool{}
		for k := range l.Keys() {
			if seen[k] {
				t.Fatalf("Key %s yielded twice in one range", k)
			}
			seen[k] = true
		}
	}
	close(done)
	wg.Wait()
}

func TestHandlersSeeLinearizedDeltas(t *testing.T) {
	l := New[string, *task]()

	// replaying the delta stream must reproduce the list
	var replay []string
	l.Subscribe(func(d keyed.Delta[*task]) {
		switch d := d.(type) {
		case keyed.Added[*task]:
			ids := make([]string, len(d.Items))
			for i, v := range d.Items {
				ids[i] = v.ID
			}
			replay = slices.Insert(replay, d.StartIndex, ids...)
		case keyed.Removed[*task]:
			replay = slices.Delete(replay, d.StartIndex, d.StartIndex+len(d.Items))
		case keyed.Moved[*task]:
			replay = slices.Delete(replay, d.OldIndex, d.OldIndex+1)
			replay = slices.Insert(replay, d.NewIndex, d.Item.ID)
		case keyed.Replaced[*task]:
			replay[d.Index] = d.NewItem.ID
		case keyed.Reset[*task]:
			replay = nil
		}
	})

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 300; i++ {
				id := fmt.Sprintf("w%d-%d", w, i%20)
				switch i % 5 {
				case 0, 1:
					_ = l.Add(&task{ID: id})
				case 2:
					_ = l.Move(0, l.Count()-1)
				case 3:
					l.Remove(&task{ID: id})
				case 4:
					_ = l.InsertRange(0, tasks(id+"-x", id+"-y"))
				}
			}
		}(w)
	}
	wg.Wait()

	if got := keysOf(l); !slices.Equal(got, replay) {
		t.Errorf("Replayed deltas diverge from the list:\n list:   %v\n replay: %v", got, replay)
	}
}
