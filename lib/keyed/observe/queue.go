package observe

import (
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/kolist/lib/common"
	"github.com/ValentinKolb/kolist/lib/keyed"
	"github.com/ValentinKolb/kolist/lib/util"
	"github.com/lni/dragonboat/v4/logger"
)

var plog = logger.GetLogger(common.LoggerObserve)

// Queue forwards the typed change stream of a list to a handler running on
// its own goroutine. Deltas are pushed into a lock-free queue from inside the
// list's critical section and handed to the handler in delta order, outside
// of it. The handler may therefore call back into the list.
type Queue[K comparable, V keyed.Keyed[K]] struct {
	queue       *util.MPSC[keyed.Delta[V]]
	handler     keyed.DeltaHandler[V]
	unsubscribe func()
	done        chan struct{}
	closeOnce   sync.Once

	delivered atomic.Uint64
	panics    atomic.Uint64
}

// NewQueue subscribes to list and starts the consumer goroutine.
func NewQueue[K comparable, V keyed.Keyed[K]](list keyed.IKeyedList[K, V], handler keyed.DeltaHandler[V]) (*Queue[K, V], error) {
	if list == nil || handler == nil {
		return nil, keyed.NewError(keyed.RetCInvalidArgument, "list and handler must not be nil")
	}

	q := &Queue[K, V]{
		queue:   util.NewMPSC[keyed.Delta[V]](),
		handler: handler,
		done:    make(chan struct{}),
	}
	go q.consume()

	q.unsubscribe = list.Subscribe(func(d keyed.Delta[V]) {
		q.queue.Push(d)
	})
	plog.Debugf("delta queue started")
	return q, nil
}

func (q *Queue[K, V]) consume() {
	defer close(q.done)
	for d := range q.queue.Recv() {
		q.deliver(d)
	}
}

// deliver calls the handler for one delta and survives a panicking handler.
func (q *Queue[K, V]) deliver(d keyed.Delta[V]) {
	defer func() {
		if r := recover(); r != nil {
			q.panics.Add(1)
			plog.Errorf("delta handler panicked on %v: %v", d, r)
		}
	}()
	q.handler(d)
	q.delivered.Add(1)
}

// Pending returns the approximate number of deltas not yet handed to the handler.
func (q *Queue[K, V]) Pending() int {
	return q.queue.Len()
}

// Delivered returns the number of deltas the handler completed without panicking.
func (q *Queue[K, V]) Delivered() uint64 {
	return q.delivered.Load()
}

// Panics returns the number of recovered handler panics.
func (q *Queue[K, V]) Panics() uint64 {
	return q.panics.Load()
}

// Close unsubscribes from the list, delivers every delta that was already
// queued and waits for the consumer to finish. It must not be called from
// the handler. Close is idempotent.
func (q *Queue[K, V]) Close() error {
	q.closeOnce.Do(func() {
		q.unsubscribe()
		q.queue.Close()
		<-q.done
		plog.Debugf("delta queue closed after %d deltas", q.delivered.Load())
	})
	return nil
}
