//go:build kolistdebug

package klist

import (
	"bytes"
	"runtime"
	"strconv"
	"sync/atomic"
)

// reentryGuard records which goroutine holds the list lock and panics when
// the same goroutine tries to take it again, typically from a change handler.
// Without the guard such a call deadlocks silently.
type reentryGuard struct {
	owner atomic.Int64
}

func (g *reentryGuard) enter() {
	if id := goroutineID(); id != 0 && g.owner.Load() == id {
		plog.Errorf("re-entrant call on goroutine %d", id)
		panic("klist: re-entrant call into a locked list; change handlers must not call back into the list they observe")
	}
}

func (g *reentryGuard) acquired() { g.owner.Store(goroutineID()) }
func (g *reentryGuard) released() { g.owner.Store(0) }

// goroutineID parses the id from the "goroutine N [state]:" stack header.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := bytes.TrimPrefix(buf[:n], []byte("goroutine "))
	if i := bytes.IndexByte(b, ' '); i > 0 {
		b = b[:i]
	}
	id, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
