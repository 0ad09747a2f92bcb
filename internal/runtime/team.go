package ompgort

import (
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Task is implemented by every entry a worker can push onto its task
// stack; the topmost one defines the worker's active ICVs.
type Task interface {
	ICV() *DataEnv
}

// ParallelTask is the root task owned by one active team: its shared
// context list, task queue, team mutex, and team barrier. Every worker
// of the team carries a pointer to the same ParallelTask at the bottom
// of its task stack.
type ParallelTask struct {
	Env     *DataEnv
	Shared  *SharedList
	Queue   *TaskQueue
	Mutex   *Mutex
	Barrier *Barrier
}

// NewParallelTask creates a team root task for env, ready to accept
// workers.
func NewParallelTask(env *DataEnv) *ParallelTask {
	pt := &ParallelTask{
		Env:    env,
		Shared: NewSharedList(),
		Queue:  NewTaskQueue(),
		Mutex:  NewMutex(),
	}
	pt.Barrier = NewBarrier(pt)
	return pt
}

// ICV implements Task.
func (p *ParallelTask) ICV() *DataEnv { return p.Env }

// SingleTask carries the single atomic "claimed" flag of a `single`
// construct: at most one worker's claim succeeds.
type SingleTask struct {
	Parent  *ParallelTask
	Claimed AtomicFlag
}

// NewSingleTask returns a fresh, unclaimed single-construct task.
func NewSingleTask(parent *ParallelTask) *SingleTask {
	return &SingleTask{Parent: parent}
}

// ICV implements Task.
func (s *SingleTask) ICV() *DataEnv { return s.Parent.Env }

// Claim attempts to become the one worker that executes the single
// region's body, returning true exactly once across the team.
func (s *SingleTask) Claim() bool { return s.Claimed.TestAndSet() }

// BarrierTask represents one worker's arrival at a team barrier: the
// shared event it either notifies (last arrival) or waits on.
type BarrierTask struct {
	Parent *ParallelTask
	Event  *Event
}

// ICV implements Task.
func (b *BarrierTask) ICV() *DataEnv { return b.Parent.Env }

// CustomTask is a user `task` directive instance: a callable plus its
// completion event. Err captures a panic raised
// inside Fn so taskwait can re-raise it on the waiting thread.
type CustomTask struct {
	ID     string
	Parent *ParallelTask
	Fn     func(*Worker)
	Done   *Event
	Err    any
}

// ICV implements Task.
func (c *CustomTask) ICV() *DataEnv { return c.Parent.Env }

// NewCustomTask allocates a task bound to parent's queue with the
// caller-supplied id and an unset completion event. Callers still must Push it onto
// parent.Queue.
func NewCustomTask(id string, parent *ParallelTask, fn func(*Worker)) *CustomTask {
	return &CustomTask{ID: id, Parent: parent, Fn: fn, Done: NewEvent()}
}

// NewTaskID returns a fresh identifier for a `task` directive instance,
// carried in TaskPanicError so a re-raised task panic names which task
// failed.
func NewTaskID() string {
	return uuid.NewString()
}

// RunTeam spawns teamSize-1 additional workers plus runs body on the
// calling goroutine as worker 0, every worker joining the team barrier
// before RunTeam returns. A panic inside body on any worker
// is recovered so that worker still reaches the barrier — the barrier's
// task-drain must run to completion on the surviving workers — and is
// returned as an error from RunTeam once every worker has joined, so
// the panic surfaces on the originator only after the drain.
func (p *ParallelTask) RunTeam(teamSize int, body func(w *Worker)) error {
	if teamSize < 1 {
		teamSize = 1
	}
	var g errgroup.Group
	for i := 1; i < teamSize; i++ {
		i := i
		g.Go(func() error {
			return runTeamMember(NewWorker(i, p), p, teamSize, body)
		})
	}
	err0 := runTeamMember(NewWorker(0, p), p, teamSize, body)
	err := g.Wait()
	if err0 != nil {
		return err0
	}
	return err
}

func runTeamMember(w *Worker, p *ParallelTask, teamSize int, body func(*Worker)) (err error) {
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("ompgort: panic in parallel region: %v", r)
			}
		}()
		body(w)
	}()
	p.Barrier.Wait(w, teamSize)
	return err
}
