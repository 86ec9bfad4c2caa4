package observe

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/kolist/lib/keyed"
	"github.com/ValentinKolb/kolist/lib/keyed/klist"
)

type entry struct {
	ID string
}

func (e *entry) Key() string { return e.ID }

func TestQueueDeliversInOrder(t *testing.T) {
	list := klist.New[string, *entry]()

	var mu sync.Mutex
	var got []int
	q, err := NewQueue[string, *entry](list, func(d keyed.Delta[*entry]) {
		if a, ok := d.(keyed.Added[*entry]); ok {
			mu.Lock()
			got = append(got, a.StartIndex)
			mu.Unlock()
		}
	})
	if err != nil {
		t.Fatalf("NewQueue failed: %v", err)
	}

	const n = 500
	for i := 0; i < n; i++ {
		if err := list.Add(&entry{ID: fmt.Sprintf("e%d", i)}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	_ = q.Close()

	if len(got) != n {
		t.Fatalf("Expected %d deltas, got %d", n, len(got))
	}
	for i, idx := range got {
		if idx != i {
			t.Fatalf("Delta %d has start index %d, deltas out of order", i, idx)
		}
	}
	if q.Delivered() != n {
		t.Errorf("Delivered() = %d, expected %d", q.Delivered(), n)
	}
}

func TestQueueHandlerMayCallBack(t *testing.T) {
	list := klist.New[string, *entry]()

	moved := make(chan struct{})
	q, err := NewQueue[string, *entry](list, func(d keyed.Delta[*entry]) {
		switch d := d.(type) {
		case keyed.Added[*entry]:
			// would deadlock as a synchronous handler
			if d.StartIndex > 0 {
				_ = list.Move(d.StartIndex, 0)
			}
		case keyed.Moved[*entry]:
			close(moved)
		}
	})
	if err != nil {
		t.Fatalf("NewQueue failed: %v", err)
	}
	defer q.Close()

	_ = list.Add(&entry{ID: "a"})
	_ = list.Add(&entry{ID: "b"})

	select {
	case <-moved:
	case <-time.After(5 * time.Second):
		t.Fatalf("Handler did not move the item")
	}
	if first, _ := list.Get(0); first.ID != "b" {
		t.Errorf("Expected b at the front, got %s", first.ID)
	}
}

func TestQueueRecoversPanics(t *testing.T) {
	list := klist.New[string, *entry]()

	q, err := NewQueue[string, *entry](list, func(d keyed.Delta[*entry]) {
		if d.Action() == keyed.ActionReset {
			panic("boom")
		}
	})
	if err != nil {
		t.Fatalf("NewQueue failed: %v", err)
	}

	_ = list.Add(&entry{ID: "a"})
	list.Clear()
	_ = list.Add(&entry{ID: "b"})
	_ = q.Close()

	if q.Panics() != 1 || q.Delivered() != 2 {
		t.Errorf("Panics() = %d, Delivered() = %d; expected 1 and 2", q.Panics(), q.Delivered())
	}
}

func TestQueueClose(t *testing.T) {
	list := klist.New[string, *entry]()

	var count int
	q, _ := NewQueue[string, *entry](list, func(keyed.Delta[*entry]) { count++ })

	_ = list.Add(&entry{ID: "a"})
	_ = q.Close()
	_ = q.Close()

	// no longer subscribed
	_ = list.Add(&entry{ID: "b"})
	if count != 1 {
		t.Errorf("Expected 1 delivered delta, got %d", count)
	}
	if q.Pending() != 0 {
		t.Errorf("Pending() = %d after Close", q.Pending())
	}
}

func TestQueueInvalidArguments(t *testing.T) {
	list := klist.New[string, *entry]()
	if _, err := NewQueue[string, *entry](list, nil); !errors.Is(err, keyed.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for a nil handler, got %v", err)
	}
	if _, err := NewQueue[string, *entry](nil, func(keyed.Delta[*entry]) {}); !errors.Is(err, keyed.ErrInvalidArgument) {
		t.Errorf("Expected ErrInvalidArgument for a nil list, got %v", err)
	}
}
