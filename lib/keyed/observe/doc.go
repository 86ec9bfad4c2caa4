// Package observe provides consumers of the typed change stream of a
// keyed.IKeyedList that do their work outside of the list's critical section.
//
// Queue hands every delta to a handler on a dedicated goroutine. The list side
// only pushes into a lock-free MPSC queue (see util.MPSC), so a slow handler
// never stalls writers and the handler may call back into the list it
// observes. Deltas reach the handler in the order the list raised them.
//
// Metrics counts deltas per action, added and removed items and the batch size
// of bulk changes into a VictoriaMetrics set, and exposes the current item
// count as a gauge. WritePrometheus dumps the set in Prometheus text format.
//
// Usage Example:
//
//	q, _ := observe.NewQueue[string, *Task](list, func(d keyed.Delta[*Task]) {
//		if a, ok := d.(keyed.Added[*Task]); ok {
//			_ = list.Move(a.StartIndex, 0) // allowed, runs outside the lock
//		}
//	})
//	defer q.Close()
//
//	m, _ := observe.NewMetrics[string, *Task]("tasks", list)
//	defer m.Close()
//	m.WritePrometheus(os.Stdout)
package observe
