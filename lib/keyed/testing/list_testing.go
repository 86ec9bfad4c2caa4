package testing

import (
	"errors"
	"fmt"
	"iter"
	"slices"
	"sync"
	"testing"

	"github.com/ValentinKolb/kolist/lib/keyed"
)

// Item is the keyed item used by the conformance suite.
type Item struct {
	ID    string
	Value int
}

func (i *Item) Key() string { return i.ID }

func (i *Item) String() string { return fmt.Sprintf("%s=%d", i.ID, i.Value) }

// ListFactory is a function that creates a new, empty IKeyedList implementation
type ListFactory func() keyed.IKeyedList[string, *Item]

// RunKeyedListTests runs a comprehensive test suite for an IKeyedList implementation.
func RunKeyedListTests(t *testing.T, name string, factory ListFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Add&Get", func(t *testing.T) {
			testAddGet(t, factory())
		})

		t.Run("DuplicateRejection", func(t *testing.T) {
			testDuplicateRejection(t, factory())
		})

		t.Run("BatchAtomicity", func(t *testing.T) {
			testBatchAtomicity(t, factory())
		})

		t.Run("InsertRange", func(t *testing.T) {
			testInsertRange(t, factory())
		})

		t.Run("SinglePassSeq", func(t *testing.T) {
			testSinglePassSeq(t, factory())
		})

		t.Run("InvalidArguments", func(t *testing.T) {
			testInvalidArguments(t, factory())
		})

		t.Run("IndexOutOfRange", func(t *testing.T) {
			testIndexOutOfRange(t, factory())
		})

		t.Run("Events", func(t *testing.T) {
			testEvents(t, factory())
		})

		t.Run("MoveNoOp", func(t *testing.T) {
			testMoveNoOp(t, factory())
		})

		t.Run("RoundTrip", func(t *testing.T) {
			testRoundTrip(t, factory())
		})

		t.Run("Replace", func(t *testing.T) {
			testReplace(t, factory())
		})

		t.Run("RemoveRange", func(t *testing.T) {
			testRemoveRange(t, factory())
		})

		t.Run("Clear", func(t *testing.T) {
			testClear(t, factory())
		})

		t.Run("LegacyFanOut", func(t *testing.T) {
			testLegacyFanOut(t, factory())
		})

		t.Run("Enumeration", func(t *testing.T) {
			testEnumeration(t, factory())
		})

		t.Run("CreateView", func(t *testing.T) {
			testCreateView(t, factory())
		})

		t.Run("ConcurrentDisjointKeys", func(t *testing.T) {
			testConcurrentDisjointKeys(t, factory())
		})

		t.Run("RandomizedInvariants", func(t *testing.T) {
			testRandomizedInvariants(t, factory())
		})
	})
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

func item(id string) *Item {
	return &Item{ID: id}
}

func items(ids ...string) []*Item {
	out := make([]*Item, len(ids))
	for i, id := range ids {
		out[i] = item(id)
	}
	return out
}

// keysOf returns the keys of list in order
func keysOf(list keyed.IKeyedList[string, *Item]) []string {
	return slices.Collect(list.Keys())
}

// requireCode fails the test unless err is a keyed error with the given code
func requireCode(t testing.TB, err error, code keyed.RetCode) {
	t.Helper()
	var kerr *keyed.Error
	if !errors.As(err, &kerr) {
		t.Fatalf("Expected keyed error with code %s, got %v", code, err)
	}
	if kerr.Code != code {
		t.Fatalf("Expected code %s, got %s (%v)", code, kerr.Code, err)
	}
}

// requireKeys fails the test unless list holds exactly the given keys in order
func requireKeys(t testing.TB, list keyed.IKeyedList[string, *Item], want ...string) {
	t.Helper()
	if got := keysOf(list); !slices.Equal(got, want) {
		t.Fatalf("Expected keys %v, got %v", want, got)
	}
}

// CheckInvariants verifies that both indexes of list agree: the count matches
// the number of positions, every item is found under its key at its position
// and no key occurs twice.
func CheckInvariants(t testing.TB, list keyed.IKeyedList[string, *Item]) {
	t.Helper()

	all := list.Items()
	if list.Count() != len(all) {
		t.Fatalf("Count %d does not match %d items", list.Count(), len(all))
	}

	seen := make(map[string]bool, len(all))
	for i, v := range all {
		if seen[v.ID] {
			t.Fatalf("Key %s occurs more than once", v.ID)
		}
		seen[v.ID] = true

		byKey, err := list.GetByKey(v.ID)
		if err != nil || byKey != v {
			t.Fatalf("Item %v at %d not found under its key: %v, %v", v, i, byKey, err)
		}
		if idx := list.IndexOf(v); idx != i {
			t.Fatalf("IndexOf(%v) = %d, expected %d", v, idx, i)
		}
	}
}

// recorder collects the typed deltas of a list
type recorder struct {
	mu     sync.Mutex
	deltas []keyed.Delta[*Item]
}

func record(list keyed.IKeyedList[string, *Item]) (*recorder, func()) {
	r := &recorder{}
	unsubscribe := list.Subscribe(func(d keyed.Delta[*Item]) {
		r.mu.Lock()
		r.deltas = append(r.deltas, d)
		r.mu.Unlock()
	})
	return r, unsubscribe
}

func (r *recorder) all() []keyed.Delta[*Item] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.deltas)
}

func (r *recorder) reset() {
	r.mu.Lock()
	r.deltas = nil
	r.mu.Unlock()
}

// single fails the test unless exactly one delta was recorded and returns it
func (r *recorder) single(t testing.TB) keyed.Delta[*Item] {
	t.Helper()
	all := r.all()
	if len(all) != 1 {
		t.Fatalf("Expected exactly one delta, got %d: %v", len(all), all)
	}
	return all[0]
}

// --------------------------------------------------------------------------
// Test functions
// --------------------------------------------------------------------------

func testAddGet(t *testing.T, list keyed.IKeyedList[string, *Item]) {
	a, b := item("a"), item("b")

	if err := list.Add(a); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := list.Add(b); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	if list.Count() != 2 {
		t.Errorf("Expected count 2, got %d", list.Count())
	}

	got, err := list.Get(1)
	if err != nil || got != b {
		t.Errorf("Get(1) = %v, %v; expected %v", got, err, b)
	}

	got, err = list.GetByKey("a")
	if err != nil || got != a {
		t.Errorf("GetByKey(a) = %v, %v; expected %v", got, err, a)
	}

	if _, err = list.GetByKey("missing"); !errors.Is(err, keyed.ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound for missing key, got %v", err)
	}

	if v, ok := list.TryGetValue("b"); !ok || v != b {
		t.Errorf("TryGetValue(b) = %v, %v", v, ok)
	}
	if _, ok := list.TryGetValue("missing"); ok {
		t.Errorf("TryGetValue should not find a missing key")
	}

	if !list.ContainsKey("a") || list.ContainsKey("missing") {
		t.Errorf("ContainsKey returned unexpected values")
	}

	// lookups are by key, not by identity
	if !list.Contains(&Item{ID: "a", Value: 42}) {
		t.Errorf("Contains should match by key")
	}
	if idx := list.IndexOf(&Item{ID: "b", Value: 42}); idx != 1 {
		t.Errorf("IndexOf should match by key, got %d", idx)
	}
	if idx := list.IndexOf(item("missing")); idx != -1 {
		t.Errorf("IndexOf of a missing key should be -1, got %d", idx)
	}

	CheckInvariants(t, list)
}

func testDuplicateRejection(t *testing.T, list keyed.IKeyedList[string, *Item]) {
	if err := list.AddRange(items("a", "b", "c")); err != nil {
		t.Fatalf("AddRange failed: %v", err)
	}
	before := list.Items()

	rec, unsubscribe := record(list)
	defer unsubscribe()

	if err := list.Add(item("b")); !errors.Is(err, keyed.ErrDuplicateKey) {
		t.Errorf("Add: expected ErrDuplicateKey, got %v", err)
	}
	if err := list.Insert(0, item("c")); !errors.Is(err, keyed.ErrDuplicateKey) {
		t.Errorf("Insert: expected ErrDuplicateKey, got %v", err)
	}

	if !slices.Equal(list.Items(), before) {
		t.Errorf("List changed after rejected duplicates: %v", list.Items())
	}
	if n := len(rec.all()); n != 0 {
		t.Errorf("Rejected duplicates raised %d deltas", n)
	}
	CheckInvariants(t, list)
}

func testBatchAtomicity(t *testing.T, list keyed.IKeyedList[string, *Item]) {
	if err := list.Add(item("c")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	rec, unsubscribe := record(list)
	defer unsubscribe()

	// last item collides with the store
	err := list.AddRange(items("a", "b", "c"))
	requireCode(t, err, keyed.RetCDuplicateKey)
	requireKeys(t, list, "c")

	// collision inside the batch itself
	err = list.AddRange(items("x", "y", "x"))
	requireCode(t, err, keyed.RetCDuplicateKey)
	requireKeys(t, list, "c")

	err = list.InsertRange(0, items("p", "c"))
	requireCode(t, err, keyed.RetCDuplicateKey)

	err = list.AddSeq(slices.Values(items("q", "r", "q")))
	requireCode(t, err, keyed.RetCDuplicateKey)

	err = list.InsertSeq(1, slices.Values([]*Item{item("s"), nil}))
	requireCode(t, err, keyed.RetCInvalidArgument)

	requireKeys(t, list, "c")
	if n := len(rec.all()); n != 0 {
		t.Errorf("Failed batches raised %d deltas", n)
	}
	CheckInvariants(t, list)
}

func testInsertRange(t *testing.T, list keyed.IKeyedList[string, *Item]) {
	if err := list.AddRange(items("a", "d")); err != nil {
		t.Fatalf("AddRange failed: %v", err)
	}

	rec, unsubscribe := record(list)
	defer unsubscribe()

	batch := items("b", "c")
	if err := list.InsertRange(1, batch); err != nil {
		t.Fatalf("InsertRange failed: %v", err)
	}
	requireKeys(t, list, "a", "b", "c", "d")

	added, ok := rec.single(t).(keyed.Added[*Item])
	if !ok {
		t.Fatalf("Expected Added delta, got %T", rec.single(t))
	}
	if added.StartIndex != 1 || !slices.Equal(added.Items, batch) {
		t.Errorf("Unexpected delta %+v", added)
	}

	// the caller's slice is not retained
	batch[0] = item("zzz")
	requireKeys(t, list, "a", "b", "c", "d")

	rec.reset()
	if err := list.InsertSeq(4, slices.Values(items("e", "f"))); err != nil {
		t.Fatalf("InsertSeq at the end failed: %v", err)
	}
	requireKeys(t, list, "a", "b", "c", "d", "e", "f")
	if added := rec.single(t).(keyed.Added[*Item]); added.StartIndex != 4 || len(added.Items) != 2 {
		t.Errorf("Unexpected delta %+v", added)
	}

	if err := list.Insert(0, item("start")); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	requireKeys(t, list, "start", "a", "b", "c", "d", "e", "f")
	CheckInvariants(t, list)
}

func testSinglePassSeq(t *testing.T, list keyed.IKeyedList[string, *Item]) {
	passes := 0
	source := items("a", "b", "c")
	var seq iter.Seq[*Item] = func(yield func(*Item) bool) {
		passes++
		if passes > 1 {
			return // a consumed single-pass source yields nothing
		}
		for _, v := range source {
			if !yield(v) {
				return
			}
		}
	}

	rec, unsubscribe := record(list)
	defer unsubscribe()

	if err := list.AddSeq(seq); err != nil {
		t.Fatalf("AddSeq failed: %v", err)
	}
	if passes != 1 {
		t.Errorf("Sequence was iterated %d times, expected once", passes)
	}
	requireKeys(t, list, "a", "b", "c")

	added := rec.single(t).(keyed.Added[*Item])
	if added.StartIndex != 0 || !slices.Equal(added.Items, source) {
		t.Errorf("Delta does not carry the drained items: %+v", added)
	}

	if err := list.AddSeq(seq); !errors.Is(err, keyed.ErrInvalidArgument) {
		t.Errorf("Draining an exhausted sequence should be rejected as empty, got %v", err)
	}
}

func testInvalidArguments(t *testing.T, list keyed.IKeyedList[string, *Item]) {
	requireCode(t, list.Add(nil), keyed.RetCInvalidArgument)
	requireCode(t, list.Insert(0, nil), keyed.RetCInvalidArgument)
	requireCode(t, list.AddRange(nil), keyed.RetCInvalidArgument)
	requireCode(t, list.AddRange([]*Item{}), keyed.RetCInvalidArgument)
	requireCode(t, list.AddRange([]*Item{item("a"), nil}), keyed.RetCInvalidArgument)
	requireCode(t, list.AddSeq(nil), keyed.RetCInvalidArgument)
	requireCode(t, list.InsertRange(0, nil), keyed.RetCInvalidArgument)
	requireCode(t, list.Update(nil), keyed.RetCInvalidArgument)
	requireCode(t, list.SetByKey("a", item("b")), keyed.RetCInvalidArgument)

	if list.Remove(nil) {
		t.Errorf("Remove(nil) should report false")
	}
	if list.Contains(nil) || list.IndexOf(nil) != -1 {
		t.Errorf("nil items should never be found")
	}
	if list.Count() != 0 {
		t.Errorf("Invalid arguments modified the list: %v", list.Items())
	}
}

func testIndexOutOfRange(t *testing.T, list keyed.IKeyedList[string, *Item]) {
	if err := list.AddRange(items("a", "b")); err != nil {
		t.Fatalf("AddRange failed: %v", err)
	}

	_, err := list.Get(2)
	requireCode(t, err, keyed.RetCIndexOutOfRange)
	_, err = list.Get(-1)
	requireCode(t, err, keyed.RetCIndexOutOfRange)

	requireCode(t, list.Insert(3, item("x")), keyed.RetCIndexOutOfRange)
	requireCode(t, list.Insert(-1, item("x")), keyed.RetCIndexOutOfRange)
	requireCode(t, list.InsertRange(3, items("x")), keyed.RetCIndexOutOfRange)
	requireCode(t, list.RemoveAt(2), keyed.RetCIndexOutOfRange)
	requireCode(t, list.RemoveRange(1, 2), keyed.RetCIndexOutOfRange)
	requireCode(t, list.RemoveRange(-1, 1), keyed.RetCIndexOutOfRange)
	requireCode(t, list.RemoveRange(0, -1), keyed.RetCIndexOutOfRange)
	requireCode(t, list.Move(0, 2), keyed.RetCIndexOutOfRange)
	requireCode(t, list.Move(-1, 0), keyed.RetCIndexOutOfRange)
	requireCode(t, list.Set(2, item("x")), keyed.RetCIndexOutOfRange)

	requireKeys(t, list, "a", "b")
	CheckInvariants(t, list)
}

func testEvents(t *testing.T, list keyed.IKeyedList[string, *Item]) {
	rec, unsubscribe := record(list)
	defer unsubscribe()

	// Add on an empty list
	a := item("A")
	if err := list.Add(a); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	added, ok := rec.single(t).(keyed.Added[*Item])
	if !ok || added.StartIndex != 0 || len(added.Items) != 1 || added.Items[0] != a {
		t.Fatalf("Unexpected delta for Add on empty list: %#v", rec.single(t))
	}

	// RemoveAt(0) on a single item list
	rec.reset()
	if err := list.RemoveAt(0); err != nil {
		t.Fatalf("RemoveAt failed: %v", err)
	}
	removed, ok := rec.single(t).(keyed.Removed[*Item])
	if !ok || removed.StartIndex != 0 || len(removed.Items) != 1 || removed.Items[0] != a {
		t.Fatalf("Unexpected delta for RemoveAt: %#v", rec.single(t))
	}
	if list.Count() != 0 {
		t.Fatalf("List should be empty, has %d items", list.Count())
	}

	// Move(0, 2) on [A, B, C, D]
	all := items("A", "B", "C", "D")
	if err := list.AddRange(all); err != nil {
		t.Fatalf("AddRange failed: %v", err)
	}
	rec.reset()
	if err := list.Move(0, 2); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	requireKeys(t, list, "B", "C", "A", "D")
	moved, ok := rec.single(t).(keyed.Moved[*Item])
	if !ok || moved.Item != all[0] || moved.NewIndex != 2 || moved.OldIndex != 0 {
		t.Fatalf("Unexpected delta for Move: %#v", rec.single(t))
	}

	// and back towards the front
	rec.reset()
	if err := list.Move(3, 0); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	requireKeys(t, list, "D", "B", "C", "A")
	if moved := rec.single(t).(keyed.Moved[*Item]); moved.NewIndex != 0 || moved.OldIndex != 3 {
		t.Errorf("Unexpected delta for Move: %#v", moved)
	}

	// Remove by key reports the stored item and its position
	rec.reset()
	if !list.Remove(&Item{ID: "C", Value: 99}) {
		t.Fatalf("Remove should find C")
	}
	removed = rec.single(t).(keyed.Removed[*Item])
	if removed.StartIndex != 2 || removed.Items[0] != all[2] {
		t.Errorf("Unexpected delta for Remove: %#v", removed)
	}
	if list.Remove(item("C")) {
		t.Errorf("Second Remove should report false")
	}
	CheckInvariants(t, list)
}

func testMoveNoOp(t *testing.T, list keyed.IKeyedList[string, *Item]) {
	if err := list.AddRange(items("a", "b", "c")); err != nil {
		t.Fatalf("AddRange failed: %v", err)
	}

	rec, unsubscribe := record(list)
	defer unsubscribe()

	for i := 0; i < 3; i++ {
		if err := list.Move(i, i); err != nil {
			t.Fatalf("Move(%d, %d) failed: %v", i, i, err)
		}
	}
	requireKeys(t, list, "a", "b", "c")
	if n := len(rec.all()); n != 0 {
		t.Errorf("Move onto the same position raised %d deltas", n)
	}
}

func testRoundTrip(t *testing.T, list keyed.IKeyedList[string, *Item]) {
	for i := 0; i < 50; i++ {
		v := &Item{ID: fmt.Sprintf("item-%d", i), Value: i}
		if err := list.Add(v); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
		got, err := list.GetByKey(v.ID)
		if err != nil || *got != *v {
			t.Fatalf("GetByKey(%s) = %v, %v; expected %v", v.ID, got, err, v)
		}
	}

	for i := 0; i < 50; i += 2 {
		v := &Item{ID: fmt.Sprintf("item-%d", i)}
		if !list.Remove(v) {
			t.Fatalf("Remove(%s) reported false", v.ID)
		}
		if list.Contains(v) {
			t.Fatalf("Contains(%s) after Remove", v.ID)
		}
	}

	if list.Count() != 25 {
		t.Errorf("Expected 25 items, got %d", list.Count())
	}
	CheckInvariants(t, list)
}

func testReplace(t *testing.T, list keyed.IKeyedList[string, *Item]) {
	a, b := item("a"), item("b")
	if err := list.AddRange([]*Item{a, b}); err != nil {
		t.Fatalf("AddRange failed: %v", err)
	}

	rec, unsubscribe := record(list)
	defer unsubscribe()

	// Update by key
	a2 := &Item{ID: "a", Value: 2}
	if err := list.Update(a2); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	replaced, ok := rec.single(t).(keyed.Replaced[*Item])
	if !ok || replaced.NewItem != a2 || replaced.OldItem != a || replaced.Index != 0 {
		t.Fatalf("Unexpected delta for Update: %#v", rec.single(t))
	}
	if got, _ := list.GetByKey("a"); got != a2 {
		t.Errorf("Key index not updated: %v", got)
	}
	requireCode(t, list.Update(item("missing")), keyed.RetCKeyNotFound)

	// Set by position with the same key
	rec.reset()
	b2 := &Item{ID: "b", Value: 2}
	if err := list.Set(1, b2); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if replaced := rec.single(t).(keyed.Replaced[*Item]); replaced.OldItem != b || replaced.Index != 1 {
		t.Errorf("Unexpected delta for Set: %#v", replaced)
	}

	// Set by position with a new key re-keys the position
	rec.reset()
	if err := list.Set(1, item("c")); err != nil {
		t.Fatalf("Set with new key failed: %v", err)
	}
	requireKeys(t, list, "a", "c")
	if list.ContainsKey("b") {
		t.Errorf("Old key still indexed after Set")
	}
	requireCode(t, list.Set(1, item("a")), keyed.RetCDuplicateKey)

	// SetByKey replaces present keys and appends absent ones
	rec.reset()
	a3 := &Item{ID: "a", Value: 3}
	if err := list.SetByKey("a", a3); err != nil {
		t.Fatalf("SetByKey failed: %v", err)
	}
	if _, ok := rec.single(t).(keyed.Replaced[*Item]); !ok {
		t.Errorf("SetByKey on a present key should raise Replaced, got %T", rec.single(t))
	}

	rec.reset()
	d := item("d")
	if err := list.SetByKey("d", d); err != nil {
		t.Fatalf("SetByKey failed: %v", err)
	}
	added, ok := rec.single(t).(keyed.Added[*Item])
	if !ok || added.StartIndex != 2 || added.Items[0] != d {
		t.Errorf("SetByKey on an absent key should raise Added at 2, got %#v", rec.single(t))
	}
	requireKeys(t, list, "a", "c", "d")
	CheckInvariants(t, list)
}

func testRemoveRange(t *testing.T, list keyed.IKeyedList[string, *Item]) {
	all := items("a", "b", "c", "d", "e")
	if err := list.AddRange(all); err != nil {
		t.Fatalf("AddRange failed: %v", err)
	}

	var seen []*Item
	unsubscribe := list.Subscribe(func(d keyed.Delta[*Item]) {
		if r, ok := d.(keyed.Removed[*Item]); ok {
			seen = slices.Clone(r.Items)
		}
	})
	defer unsubscribe()

	rec, unsubscribeRec := record(list)
	defer unsubscribeRec()

	if err := list.RemoveRange(1, 3); err != nil {
		t.Fatalf("RemoveRange failed: %v", err)
	}
	requireKeys(t, list, "a", "e")

	removed := rec.single(t).(keyed.Removed[*Item])
	if removed.StartIndex != 1 || !slices.Equal(removed.Items, all[1:4]) {
		t.Errorf("Unexpected delta: %#v", removed)
	}
	if !slices.Equal(seen, all[1:4]) {
		t.Errorf("Handler did not see the removed values: %v", seen)
	}

	// later mutations must not change a delivered payload
	if err := list.AddRange(items("x", "y", "z")); err != nil {
		t.Fatalf("AddRange failed: %v", err)
	}
	if !slices.Equal(removed.Items, all[1:4]) {
		t.Errorf("Delivered payload changed after a later mutation: %v", removed.Items)
	}

	rec.reset()
	if err := list.RemoveRange(0, 0); err != nil {
		t.Fatalf("Empty RemoveRange failed: %v", err)
	}
	if n := len(rec.all()); n != 0 {
		t.Errorf("Empty RemoveRange raised %d deltas", n)
	}
	CheckInvariants(t, list)
}

func testClear(t *testing.T, list keyed.IKeyedList[string, *Item]) {
	if err := list.AddRange(items("a", "b")); err != nil {
		t.Fatalf("AddRange failed: %v", err)
	}

	rec, unsubscribe := record(list)
	defer unsubscribe()

	list.Clear()
	if _, ok := rec.single(t).(keyed.Reset[*Item]); !ok {
		t.Errorf("Clear should raise Reset, got %T", rec.single(t))
	}
	if list.Count() != 0 || list.ContainsKey("a") {
		t.Errorf("List not empty after Clear")
	}

	// keys are free again
	if err := list.Add(item("a")); err != nil {
		t.Errorf("Add after Clear failed: %v", err)
	}
	CheckInvariants(t, list)
}

func testLegacyFanOut(t *testing.T, list keyed.IKeyedList[string, *Item]) {
	rec, unsubscribe := record(list)
	defer unsubscribe()

	var mu sync.Mutex
	legacy := map[string][]keyed.ChangeEvent[*Item]{}
	handler := func(name string) keyed.EventHandler[*Item] {
		return func(sender any, e keyed.ChangeEvent[*Item]) {
			if sender != any(list) {
				t.Errorf("Legacy handler %s got sender %v", name, sender)
			}
			mu.Lock()
			legacy[name] = append(legacy[name], e)
			mu.Unlock()
		}
	}
	list.AddCollectionChanged("first", handler("first"))
	list.AddCollectionChanged("second", handler("second"))

	a := item("a")
	if err := list.Add(a); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	added := rec.single(t).(keyed.Added[*Item])
	for _, name := range []string{"first", "second"} {
		events := legacy[name]
		if len(events) != 1 {
			t.Fatalf("Legacy handler %s got %d events, expected 1", name, len(events))
		}
		e := events[0]
		if e.Action != keyed.ActionAdd || e.NewStartingIndex != added.StartIndex || e.OldStartingIndex != -1 {
			t.Errorf("Legacy event does not describe the delta: %+v", e)
		}
		if len(e.NewItems) != 1 || e.NewItems[0] != a || e.OldItems != nil {
			t.Errorf("Legacy event carries unexpected items: %+v", e)
		}
	}

	if !list.RemoveCollectionChanged("first") || !list.RemoveCollectionChanged("second") {
		t.Fatalf("RemoveCollectionChanged should report registered handlers")
	}
	if list.RemoveCollectionChanged("second") {
		t.Errorf("Removing an unknown handler should report false")
	}

	if err := list.Add(item("b")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if len(legacy["first"]) != 1 || len(legacy["second"]) != 1 {
		t.Errorf("Legacy handlers received events after removal")
	}
	if n := len(rec.all()); n != 2 {
		t.Errorf("Typed stream should be unaffected, got %d deltas", n)
	}

	// re-attaching works after a full detach
	list.AddCollectionChanged("again", handler("again"))
	if err := list.Move(0, 1); err != nil {
		t.Fatalf("Move failed: %v", err)
	}
	if events := legacy["again"]; len(events) != 1 || events[0].Action != keyed.ActionMove ||
		events[0].NewStartingIndex != 1 || events[0].OldStartingIndex != 0 {
		t.Errorf("Unexpected legacy events after re-attach: %+v", events)
	}
	list.RemoveCollectionChanged("again")
}

func testEnumeration(t *testing.T, list keyed.IKeyedList[string, *Item]) {
	if err := list.AddRange(items("a", "b", "c")); err != nil {
		t.Fatalf("AddRange failed: %v", err)
	}

	// mutate from inside the range: the range sees the starting state
	var visited []string
	for k := range list.Keys() {
		visited = append(visited, k)
		if k == "a" {
			if err := list.Add(item("d")); err != nil {
				t.Fatalf("Add inside range failed: %v", err)
			}
		}
	}
	if !slices.Equal(visited, []string{"a", "b", "c"}) {
		t.Errorf("Range did not iterate a snapshot: %v", visited)
	}

	// a new range observes the current state
	requireKeys(t, list, "a", "b", "c", "d")

	// breaking early releases nothing that could block the list
	for range list.Values() {
		break
	}
	for i, v := range list.All() {
		if i == 1 {
			if v.ID != "b" {
				t.Errorf("All yielded %v at 1", v)
			}
			break
		}
	}
	if err := list.Add(item("e")); err != nil {
		t.Errorf("Add after early break failed: %v", err)
	}

	// the returned copy is detached
	copied := list.Items()
	copied[0] = item("zzz")
	if got, _ := list.Get(0); got.ID != "a" {
		t.Errorf("Items returned the internal slice")
	}
}

func testCreateView(t *testing.T, list keyed.IKeyedList[string, *Item]) {
	view, err := list.CreateView(func(v *Item) any { return v.Value }, false)
	if !errors.Is(err, keyed.ErrNotImplemented) {
		t.Errorf("Expected ErrNotImplemented, got %v", err)
	}
	if view != nil {
		t.Errorf("Expected nil view, got %v", view)
	}
}

func testConcurrentDisjointKeys(t *testing.T, list keyed.IKeyedList[string, *Item]) {
	const workers = 8
	const perWorker = 500

	var wg sync.WaitGroup
	net := make([]int, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				v := item(fmt.Sprintf("w%d-%d", w, i))
				if err := list.Add(v); err != nil {
					t.Errorf("Add(%s) failed: %v", v.ID, err)
					return
				}
				net[w]++
				if i%3 == 0 {
					if !list.Remove(v) {
						t.Errorf("Remove(%s) reported false", v.ID)
						return
					}
					net[w]--
				}
			}
		}(w)
	}
	wg.Wait()

	expected := 0
	for _, n := range net {
		expected += n
	}
	if list.Count() != expected {
		t.Errorf("Expected %d items, got %d", expected, list.Count())
	}
	CheckInvariants(t, list)
}

func testRandomizedInvariants(t *testing.T, list keyed.IKeyedList[string, *Item]) {
	// deterministic pseudo random walk over all operations
	state := uint64(42)
	next := func(n int) int {
		state = state*6364136223846793005 + 1442695040888963407
		return int((state >> 33) % uint64(n))
	}

	for step := 0; step < 2000; step++ {
		count := list.Count()
		id := fmt.Sprintf("k%d", next(64))
		switch next(9) {
		case 0:
			_ = list.Add(item(id))
		case 1:
			_ = list.Insert(next(count+1), item(id))
		case 2:
			_ = list.AddRange(items(id, fmt.Sprintf("k%d", next(64))))
		case 3:
			list.Remove(item(id))
		case 4:
			if count > 0 {
				_ = list.RemoveAt(next(count))
			}
		case 5:
			if count > 0 {
				start := next(count)
				_ = list.RemoveRange(start, next(count-start+1))
			}
		case 6:
			if count > 0 {
				_ = list.Move(next(count), next(count))
			}
		case 7:
			_ = list.SetByKey(id, &Item{ID: id, Value: step})
		case 8:
			if count > 0 {
				_ = list.Set(next(count), item(id))
			}
		}
		CheckInvariants(t, list)
	}
}
