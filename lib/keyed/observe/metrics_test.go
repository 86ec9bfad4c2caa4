package observe

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ValentinKolb/kolist/lib/keyed"
	"github.com/ValentinKolb/kolist/lib/keyed/klist"
)

func TestMetricsRecordsDeltas(t *testing.T) {
	list := klist.New[string, *entry]()

	m, err := NewMetrics[string, *entry]("tasks", list)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	defer m.Close()

	_ = list.AddRange([]*entry{{ID: "a"}, {ID: "b"}, {ID: "c"}})
	_ = list.Move(0, 2)
	_ = list.Update(&entry{ID: "b"})
	_ = list.RemoveRange(0, 2)
	_ = list.Add(&entry{ID: "d"})
	list.Clear()

	checks := map[keyed.Action]uint64{
		keyed.ActionAdd:     2,
		keyed.ActionRemove:  1,
		keyed.ActionReplace: 1,
		keyed.ActionMove:    1,
		keyed.ActionReset:   1,
	}
	for a, want := range checks {
		if got := m.Deltas(a); got != want {
			t.Errorf("Deltas(%s) = %d, expected %d", a, got, want)
		}
	}
	if m.ItemsAdded() != 4 || m.ItemsRemoved() != 2 {
		t.Errorf("ItemsAdded() = %d, ItemsRemoved() = %d; expected 4 and 2", m.ItemsAdded(), m.ItemsRemoved())
	}
	if m.Deltas(keyed.Action(99)) != 0 {
		t.Errorf("Unknown actions should report 0")
	}
}

func TestMetricsWritePrometheus(t *testing.T) {
	list := klist.New[string, *entry]()

	m, err := NewMetrics[string, *entry]("orders", list)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}
	_ = list.Add(&entry{ID: "x"})
	_ = list.Add(&entry{ID: "y"})
	_ = m.Close()
	_ = list.Add(&entry{ID: "z"})

	var buf bytes.Buffer
	m.WritePrometheus(&buf)
	out := buf.String()

	for _, want := range []string{
		`kolist_deltas_total{list="orders",action="add"} 2`,
		`kolist_items_added_total{list="orders"} 2`,
		`kolist_items{list="orders"} 3`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Output misses %q:\n%s", want, out)
		}
	}
}

func TestMetricsInvalidArguments(t *testing.T) {
	list := klist.New[string, *entry]()
	if _, err := NewMetrics[string, *entry]("", list); err == nil {
		t.Errorf("Expected an error for an empty name")
	}
	if _, err := NewMetrics[string, *entry]("x", nil); err == nil {
		t.Errorf("Expected an error for a nil list")
	}
}
