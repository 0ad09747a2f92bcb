package ompgort

import "sync/atomic"

// taskEntry is one node of the append-only task queue: a payload, an
// atomic claim flag, and a next pointer published via CAS.
type taskEntry struct {
	task    *CustomTask
	claimed AtomicFlag
	next    atomic.Pointer[taskEntry]
}

// Claim marks the entry claimed, returning true exactly once.
func (e *taskEntry) Claim() bool { return e.claimed.TestAndSet() }

// TaskQueue is the lock-free, append-only FIFO task queue shared by a
// team: workers claim entries at most once via the per-entry atomic
// flag, and claimed entries remain in the list so a history cursor can
// still traverse them for taskwait.
type TaskQueue struct {
	head atomic.Pointer[taskEntry]
	tail atomic.Pointer[taskEntry]
}

// NewTaskQueue returns an empty queue.
func NewTaskQueue() *TaskQueue {
	q := &TaskQueue{}
	dummy := &taskEntry{}
	q.head.Store(dummy)
	q.tail.Store(dummy)
	return q
}

// Push appends t to the queue's tail using the classic Michael-Scott
// lock-free-queue CAS loop.
func (q *TaskQueue) Push(t *CustomTask) {
	n := &taskEntry{task: t}
	for {
		tail := q.tail.Load()
		next := tail.next.Load()
		if next == nil {
			if tail.next.CompareAndSwap(nil, n) {
				q.tail.CompareAndSwap(tail, n)
				return
			}
		} else {
			q.tail.CompareAndSwap(tail, next)
		}
	}
}

// TaskCursor is a single worker's traversal position in a TaskQueue,
// used both by the barrier drain loop and by taskwait's history replay.
type TaskCursor struct {
	node *taskEntry
}

// NewCursor returns a cursor positioned before the queue's first entry.
func (q *TaskQueue) NewCursor() *TaskCursor {
	return &TaskCursor{node: q.head.Load()}
}

// Next advances to and returns the next entry in insertion order, or nil
// if none is published yet at this position.
func (c *TaskCursor) Next() *taskEntry {
	n := c.node.next.Load()
	if n == nil {
		return nil
	}
	c.node = n
	return n
}

// Drain repeatedly claims and runs entries from cursor until it is
// exhausted, reporting whether anything was claimed this call: while
// the queue has claimable entries, the worker repeatedly claims one,
// runs the callable, and sets the task's completion event.
func (q *TaskQueue) Drain(w *Worker, cursor *TaskCursor) bool {
	claimed := false
	for {
		e := cursor.Next()
		if e == nil {
			return claimed
		}
		if e.Claim() {
			claimed = true
			w.runClaimed(e)
		}
	}
}

// TaskWait is the single-worker variant of the barrier's drain loop:
// it snapshots the current tail as a boundary, drains (claiming
// and running) every entry up to and including that boundary that it
// can still claim, then awaits the completion event of each, re-raising
// any panic a task captured on the calling thread.
func (q *TaskQueue) TaskWait(w *Worker) {
	boundary := q.tail.Load()
	var entries []*taskEntry
	for node := q.head.Load(); node != boundary; {
		next := node.next.Load()
		if next == nil {
			break
		}
		entries = append(entries, next)
		node = next
	}

	for _, e := range entries {
		if e.Claim() {
			w.runClaimed(e)
		}
	}
	for _, e := range entries {
		e.task.Done.Wait()
		if e.task.Err != nil {
			panic(&TaskPanicError{TaskID: e.task.ID, Value: e.task.Err})
		}
	}
}
