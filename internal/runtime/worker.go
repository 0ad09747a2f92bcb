package ompgort

import "sync"

// Worker is the explicit, per-goroutine identity handle threaded through
// every lifted region/task/loop body. Go has no goroutine-local storage
// equivalent to the source runtime's thread-local team/task pointers, so
// every generated function accepts a *Worker as its first parameter
// instead of looking itself up by identity.
type Worker struct {
	ThreadNum int
	Team      *ParallelTask

	mu    sync.Mutex
	stack []Task

	shared *SharedCursor
}

// implicitTask is the bottom stack frame every team worker starts
// with: it reports the worker's own clone of the team's DataEnv rather
// than the team's shared template, since each active thread clones the
// DataEnv on region entry. Without this, every worker of a team would
// read back the same ThreadNum from the team's one shared Env, and
// omp_get_thread_num would not distinguish them.
type implicitTask struct {
	team *ParallelTask
	env  *DataEnv
}

// ICV implements Task.
func (t *implicitTask) ICV() *DataEnv { return t.env }

// NewWorker returns a worker bound to team, its task stack initialized
// with an implicit per-worker task whose DataEnv is team's Env cloned
// and stamped with threadNum.
func NewWorker(threadNum int, team *ParallelTask) *Worker {
	env := team.Env.Clone()
	env.ThreadNum = threadNum
	return &Worker{ThreadNum: threadNum, Team: team, stack: []Task{&implicitTask{team: team, env: env}}}
}

// Current returns the topmost task on the stack, which defines this
// worker's active ICVs.
func (w *Worker) Current() Task {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stack[len(w.stack)-1]
}

// ICV is a convenience for Current().ICV().
func (w *Worker) ICV() *DataEnv { return w.Current().ICV() }

// LockID identifies w as a Mutex owner. It is unique only within the
// team w belongs to; workers of different teams can share an id. Mutex
// compares owner ids only for a recursive mutex, and the process-wide
// NamedMutex mutexes are non-recursive.
func (w *Worker) LockID() int64 { return int64(w.ThreadNum) }

// Push makes t the worker's current task; callers defer the returned
// function to pop it.
func (w *Worker) Push(t Task) func() {
	w.mu.Lock()
	w.stack = append(w.stack, t)
	w.mu.Unlock()
	return func() {
		w.mu.Lock()
		w.stack = w.stack[:len(w.stack)-1]
		w.mu.Unlock()
	}
}

// ClaimShared advances w's position in its team's shared-context list by
// one entry, publishing value there if no other worker of the team has
// reached this position yet, or adopting whichever value the first
// worker to arrive published (shared-context list: "the
// first worker to push wins, others receive the published pointer").
// Every worksharing construct a processor lowers (for, sections,
// single) calls this once per team entry so all workers agree on one
// ForTask/SingleTask/section-counter instance instead of each
// constructing its own independent copy. tag must be identical across
// every worker reaching this construct; a mismatch is diagnosed as
// worker-path divergence rather than silently tolerated.
func (w *Worker) ClaimShared(tag string, value any) (any, error) {
	if w.shared == nil {
		w.shared = w.Team.Shared.NewCursor()
	}
	return w.shared.Push(tag, value)
}

// CopyPrivate publishes v under tag the first time any worker of w's
// team reaches this call, and returns that published value to every
// worker (including the first) — the copy-from/copy-to pair behind
// `single`'s copyprivate clause. Built on ClaimShared's existing
// first-publisher-wins semantics; a type parameter stands in for the
// go/types-backed type recovery an AST-only rewriter doesn't have, so
// the generated call site needs no runtime type assertion of its own.
func CopyPrivate[T any](w *Worker, tag string, v T) T {
	raw, err := w.ClaimShared(tag, v)
	if err != nil {
		panic(err)
	}
	return raw.(T)
}

// runClaimed executes a claimed task queue entry: pushes it as the
// worker's current task, recovers and records any panic on the task
// itself, pops, and notifies the completion event.
func (w *Worker) runClaimed(e *taskEntry) {
	pop := w.Push(e.task)
	func() {
		defer func() {
			if r := recover(); r != nil {
				e.task.Err = r
			}
		}()
		e.task.Fn(w)
	}()
	pop()
	e.task.Done.Notify()
}

var (
	implicitOnce   sync.Once
	implicitWorker *Worker
)

// CurrentImplicit returns the package-level "implicit team of one"
// worker for code running outside any parallel region, lazily
// initialized on first use.
func CurrentImplicit() *Worker {
	implicitOnce.Do(func() {
		env := &DataEnv{TeamSize: 1, ThreadNum: 0, NThreads: []int{1}, RunSchedule: DefaultSchedule()}
		implicitWorker = NewWorker(0, NewParallelTask(env))
	})
	return implicitWorker
}
