package ompgort

import (
	"sync"
	"sync/atomic"
)

// Mutex is a scoped-acquisition lock usable both recursively (by the
// same worker) and non-recursively: lock/unlock/try-lock, plus a
// scoped-acquisition form with guaranteed release on all exit paths.
type Mutex struct {
	recursive bool
	mu        sync.Mutex
	cond      *sync.Cond
	held      bool
	owner     int64 // worker id holding the lock, meaningful only while held
	depth     int
}

// NewMutex returns a non-recursive mutex.
func NewMutex() *Mutex {
	m := &Mutex{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// NewRecursiveMutex returns a mutex that the same worker may lock
// multiple times, requiring a matching number of Unlock calls.
func NewRecursiveMutex() *Mutex {
	m := &Mutex{recursive: true}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Lock acquires the mutex for worker id wid, blocking if held by
// another worker. A recursive mutex already held by wid increments its
// depth instead of blocking.
func (m *Mutex) Lock(wid int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for m.held && !(m.recursive && m.owner == wid) {
		m.cond.Wait()
	}
	if m.held && m.recursive && m.owner == wid {
		m.depth++
		return
	}
	m.held = true
	m.owner = wid
	m.depth = 1
}

// Unlock releases one level of the mutex held by wid.
func (m *Mutex) Unlock(wid int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.depth--
	if m.depth > 0 {
		return
	}
	m.held = false
	m.owner = 0
	m.depth = 0
	m.cond.Signal()
}

// TryLock attempts to acquire the mutex without blocking.
func (m *Mutex) TryLock(wid int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.held {
		m.held = true
		m.owner = wid
		m.depth = 1
		return true
	}
	if m.recursive && m.owner == wid {
		m.depth++
		return true
	}
	return false
}

// WithLock runs fn with the mutex held by wid, releasing it on every
// exit path including a panic unwinding through fn.
func (m *Mutex) WithLock(wid int64, fn func()) {
	m.Lock(wid)
	defer m.Unlock(wid)
	fn()
}

// Event is a one-shot latch: Wait blocks until Notify is called exactly
// once; subsequent Waits return immediately.
type Event struct {
	once sync.Once
	ch   chan struct{}
}

// NewEvent returns a ready-to-use, unset Event.
func NewEvent() *Event {
	return &Event{ch: make(chan struct{})}
}

// Notify sets the event. Safe to call more than once; only the first
// call has an effect.
func (e *Event) Notify() {
	e.once.Do(func() { close(e.ch) })
}

// Wait blocks until Notify has been called.
func (e *Event) Wait() {
	<-e.ch
}

// Done reports whether Notify has already been called, without
// blocking.
func (e *Event) Done() bool {
	select {
	case <-e.ch:
		return true
	default:
		return false
	}
}

// AtomicFlag is a single boolean tested and set atomically.
type AtomicFlag struct {
	v int32
}

// TestAndSet returns true iff the flag transitioned false→true.
func (f *AtomicFlag) TestAndSet() bool {
	return atomic.CompareAndSwapInt32(&f.v, 0, 1)
}

// NoClearTestAndSet reads the current value then unconditionally sets
// it, for the "already consumed" fast path where a false reading never
// recurs once true.
func (f *AtomicFlag) NoClearTestAndSet() bool {
	old := atomic.SwapInt32(&f.v, 1)
	return old == 0
}

// IsSet reports the flag's current value.
func (f *AtomicFlag) IsSet() bool {
	return atomic.LoadInt32(&f.v) != 0
}

// Clear resets the flag to false.
func (f *AtomicFlag) Clear() {
	atomic.StoreInt32(&f.v, 0)
}

// AtomicInt is a 64-bit integer with the full complement of atomic
// read-modify-write operations.
type AtomicInt struct {
	v int64
}

func NewAtomicInt(initial int64) *AtomicInt { return &AtomicInt{v: initial} }

func (a *AtomicInt) Get() int64        { return atomic.LoadInt64(&a.v) }
func (a *AtomicInt) Set(n int64)       { atomic.StoreInt64(&a.v, n) }
func (a *AtomicInt) Add(n int64) int64 { return atomic.AddInt64(&a.v, n) }
func (a *AtomicInt) Sub(n int64) int64 { return atomic.AddInt64(&a.v, -n) }

func (a *AtomicInt) And(n int64) int64 {
	for {
		old := atomic.LoadInt64(&a.v)
		next := old & n
		if atomic.CompareAndSwapInt64(&a.v, old, next) {
			return next
		}
	}
}

func (a *AtomicInt) Or(n int64) int64 {
	for {
		old := atomic.LoadInt64(&a.v)
		next := old | n
		if atomic.CompareAndSwapInt64(&a.v, old, next) {
			return next
		}
	}
}

func (a *AtomicInt) Xor(n int64) int64 {
	for {
		old := atomic.LoadInt64(&a.v)
		next := old ^ n
		if atomic.CompareAndSwapInt64(&a.v, old, next) {
			return next
		}
	}
}

func (a *AtomicInt) Exchange(n int64) int64 {
	return atomic.SwapInt64(&a.v, n)
}

// CompareExchangeStrong swaps new in for old if the current value equals
// old, retrying never (a strong CAS never spuriously fails).
func (a *AtomicInt) CompareExchangeStrong(old, new int64) bool {
	return atomic.CompareAndSwapInt64(&a.v, old, new)
}

// CompareExchangeWeak behaves identically to the strong form on this
// platform; Go's CompareAndSwap never fails spuriously.
func (a *AtomicInt) CompareExchangeWeak(old, new int64) bool {
	return a.CompareExchangeStrong(old, new)
}

// namedMutexes is the process-wide registry behind NamedMutex: a mutex
// registered under a name is shared by every team and every parallel
// region in the process, not scoped to one ParallelTask. `atomic` uses
// it under one fixed name; `critical` locks the team mutex instead and
// does not use this registry.
var (
	namedMutexesMu sync.Mutex
	namedMutexes   = map[string]*Mutex{}
)

// NamedMutex returns the process-wide mutex registered under name,
// creating it on first request.
func NamedMutex(name string) *Mutex {
	namedMutexesMu.Lock()
	defer namedMutexesMu.Unlock()
	m, ok := namedMutexes[name]
	if !ok {
		m = NewMutex()
		namedMutexes[name] = m
	}
	return m
}
