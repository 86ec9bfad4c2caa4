package klist

import (
	"slices"
	"sync"

	"github.com/ValentinKolb/kolist/lib/keyed"
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Typed Change Stream
// --------------------------------------------------------------------------

type subscription[V any] struct {
	id      uint64
	handler keyed.DeltaHandler[V]
}

// Subscribe registers h for the typed change stream. Handlers are called in
// registration order. Registering or unregistering does not take the list
// lock, so it is allowed from inside a handler and takes effect with the next
// delta. The returned function is idempotent.
func (l *KeyedList[K, V]) Subscribe(h keyed.DeltaHandler[V]) func() {
	if h == nil {
		return func() {}
	}
	id := l.nextID.Add(1)

	l.subMu.Lock()
	subs := append(slices.Clone(*l.subs.Load()), subscription[V]{id: id, handler: h})
	l.subs.Store(&subs)
	l.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { l.unsubscribe(id) })
	}
}

func (l *KeyedList[K, V]) unsubscribe(id uint64) {
	l.subMu.Lock()
	defer l.subMu.Unlock()

	subs := slices.DeleteFunc(slices.Clone(*l.subs.Load()), func(s subscription[V]) bool {
		return s.id == id
	})
	l.subs.Store(&subs)
}

// dispatch delivers d to every typed subscriber. The caller must hold the lock.
func (l *KeyedList[K, V]) dispatch(d keyed.Delta[V]) {
	for _, s := range *l.subs.Load() {
		s.handler(d)
	}
}

// --------------------------------------------------------------------------
// Legacy Change Stream
// --------------------------------------------------------------------------

// legacyAdapter re-shapes the typed stream into keyed.ChangeEvent values for
// handlers registered by name. It is attached to the typed stream only while
// at least one legacy handler is registered.
type legacyAdapter[V any] struct {
	mu       sync.Mutex // serializes attach and detach
	handlers *xsync.MapOf[string, keyed.EventHandler[V]]
	detach   func()
}

func (a *legacyAdapter[V]) init() {
	a.handlers = xsync.NewMapOf[string, keyed.EventHandler[V]]()
}

// AddCollectionChanged registers h under name. The order in which different
// legacy handlers see one event is unspecified; every handler sees events in
// delta order.
func (l *KeyedList[K, V]) AddCollectionChanged(name string, h keyed.EventHandler[V]) {
	if h == nil {
		return
	}

	l.legacy.mu.Lock()
	defer l.legacy.mu.Unlock()

	l.legacy.handlers.Store(name, h)
	if l.legacy.detach == nil {
		l.legacy.detach = l.Subscribe(l.notifyLegacy)
		plog.Debugf("legacy adapter attached (first handler %q)", name)
	}
}

func (l *KeyedList[K, V]) RemoveCollectionChanged(name string) bool {
	l.legacy.mu.Lock()
	defer l.legacy.mu.Unlock()

	if _, ok := l.legacy.handlers.LoadAndDelete(name); !ok {
		return false
	}
	if l.legacy.handlers.Size() == 0 && l.legacy.detach != nil {
		l.legacy.detach()
		l.legacy.detach = nil
		plog.Debugf("legacy adapter detached (last handler %q)", name)
	}
	return true
}

// notifyLegacy is the typed handler installed by the adapter.
func (l *KeyedList[K, V]) notifyLegacy(d keyed.Delta[V]) {
	e := keyed.ToChangeEvent(d)
	l.legacy.handlers.Range(func(_ string, h keyed.EventHandler[V]) bool {
		h(l, e)
		return true
	})
}
