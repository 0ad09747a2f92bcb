package ompgort

import "sync"

// threadLocalKey identifies one threadprivate slot: the declared
// name plus the owning worker's thread number.
type threadLocalKey struct {
	name string
	tnum int
}

var (
	threadLocalMu sync.Mutex
	threadLocal   = map[threadLocalKey]any{}
)

// ThreadLocalFor backs `threadprivate`: each worker thread gets its
// own copy of the named value, lazily created by init on that thread's
// first access and returned unchanged on every later access from the
// same thread, persisting across regions on that thread. The generic
// type parameter stands in for the per-declaration type information
// the rewriter itself has no go/types access to; the generated call
// site always supplies it implicitly from init's own return type.
func ThreadLocalFor[T any](w *Worker, name string, init func() T) T {
	key := threadLocalKey{name: name, tnum: w.ThreadNum}
	threadLocalMu.Lock()
	defer threadLocalMu.Unlock()
	if v, ok := threadLocal[key]; ok {
		return v.(T)
	}
	v := init()
	threadLocal[key] = v
	return v
}

// SeedThreadLocal backs `copyin`: unconditionally
// publishes v as thread tnum's binding of name, overwriting any value
// already initialized there. A `parallel` region with a copyin clause
// calls this once per team member, before spawning, with the master's
// own current value of each named threadprivate binding.
func SeedThreadLocal[T any](name string, tnum int, v T) {
	key := threadLocalKey{name: name, tnum: tnum}
	threadLocalMu.Lock()
	defer threadLocalMu.Unlock()
	threadLocal[key] = v
}
