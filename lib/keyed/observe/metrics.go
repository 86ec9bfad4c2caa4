package observe

import (
	"fmt"
	"io"
	"sync"

	"github.com/ValentinKolb/kolist/lib/keyed"
	"github.com/VictoriaMetrics/metrics"
)

// Metrics records the change stream of one list into a VictoriaMetrics set.
//
// Exported series (all labelled with list="<name>"):
//
//	kolist_deltas_total{action="add|remove|replace|move|reset"}
//	kolist_items_added_total
//	kolist_items_removed_total
//	kolist_batch_size        histogram of items per Added/Removed delta
//	kolist_items             gauge, current Count of the list
type Metrics[K comparable, V keyed.Keyed[K]] struct {
	name string
	set  *metrics.Set

	deltas    map[keyed.Action]*metrics.Counter
	added     *metrics.Counter
	removed   *metrics.Counter
	batchSize *metrics.Histogram

	unsubscribe func()
	closeOnce   sync.Once
}

var actions = []keyed.Action{
	keyed.ActionAdd,
	keyed.ActionRemove,
	keyed.ActionReplace,
	keyed.ActionMove,
	keyed.ActionReset,
}

// NewMetrics creates a metrics set for list and subscribes to its change stream.
func NewMetrics[K comparable, V keyed.Keyed[K]](name string, list keyed.IKeyedList[K, V]) (*Metrics[K, V], error) {
	if list == nil {
		return nil, keyed.NewError(keyed.RetCInvalidArgument, "list must not be nil")
	}
	if name == "" {
		return nil, keyed.NewError(keyed.RetCInvalidArgument, "metrics name must not be empty")
	}

	set := metrics.NewSet()
	m := &Metrics[K, V]{
		name:      name,
		set:       set,
		deltas:    make(map[keyed.Action]*metrics.Counter, len(actions)),
		added:     set.NewCounter(seriesName("kolist_items_added_total", name)),
		removed:   set.NewCounter(seriesName("kolist_items_removed_total", name)),
		batchSize: set.NewHistogram(seriesName("kolist_batch_size", name)),
	}
	for _, a := range actions {
		m.deltas[a] = set.NewCounter(seriesName("kolist_deltas_total", name, "action", a.String()))
	}
	set.NewGauge(seriesName("kolist_items", name), func() float64 {
		return float64(list.Count())
	})

	m.unsubscribe = list.Subscribe(m.record)
	return m, nil
}

// record runs inside the list's critical section and only touches atomics.
func (m *Metrics[K, V]) record(d keyed.Delta[V]) {
	if c, ok := m.deltas[d.Action()]; ok {
		c.Inc()
	}
	switch d := d.(type) {
	case keyed.Added[V]:
		m.added.Add(len(d.Items))
		m.batchSize.Update(float64(len(d.Items)))
	case keyed.Removed[V]:
		m.removed.Add(len(d.Items))
		m.batchSize.Update(float64(len(d.Items)))
	}
}

// Deltas returns the number of recorded deltas for action a.
func (m *Metrics[K, V]) Deltas(a keyed.Action) uint64 {
	if c, ok := m.deltas[a]; ok {
		return c.Get()
	}
	return 0
}

// ItemsAdded returns the total number of items reported by Added deltas.
func (m *Metrics[K, V]) ItemsAdded() uint64 { return m.added.Get() }

// ItemsRemoved returns the total number of items reported by Removed deltas.
func (m *Metrics[K, V]) ItemsRemoved() uint64 { return m.removed.Get() }

// WritePrometheus writes all series in Prometheus text format to w.
// It must not be called from a handler of the observed list.
func (m *Metrics[K, V]) WritePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
}

// Close stops recording. Series keep their last values. Close is idempotent.
func (m *Metrics[K, V]) Close() error {
	m.closeOnce.Do(m.unsubscribe)
	return nil
}

func seriesName(metric, list string, labels ...string) string {
	s := fmt.Sprintf("%s{list=%q", metric, list)
	for i := 0; i+1 < len(labels); i += 2 {
		s += fmt.Sprintf(",%s=%q", labels[i], labels[i+1])
	}
	return s + "}"
}
