package ompgort

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskQueueFIFOOrder(t *testing.T) {
	team := testTeam(1)
	w := NewWorker(0, team)

	var ran []string
	for _, id := range []string{"a", "b", "c"} {
		id := id
		team.Queue.Push(NewCustomTask(id, team, func(*Worker) {
			ran = append(ran, id)
		}))
	}

	claimed := team.Queue.Drain(w, team.Queue.NewCursor())
	assert.True(t, claimed)
	assert.Equal(t, []string{"a", "b", "c"}, ran)
}

// Claimed entries stay in the list for later cursors to traverse, but
// are never run a second time (at-most-one claim).
func TestTaskQueueClaimsAtMostOnce(t *testing.T) {
	team := testTeam(1)
	w := NewWorker(0, team)

	ran := 0
	for i := 0; i < 3; i++ {
		team.Queue.Push(NewCustomTask(NewTaskID(), team, func(*Worker) { ran++ }))
	}

	assert.True(t, team.Queue.Drain(w, team.Queue.NewCursor()))
	assert.False(t, team.Queue.Drain(w, team.Queue.NewCursor()), "second drain claims nothing")
	assert.Equal(t, 3, ran)
}

func TestTaskWaitCompletesSubmittedTasks(t *testing.T) {
	team := testTeam(1)
	w := NewWorker(0, team)

	done := 0
	task := NewCustomTask(NewTaskID(), team, func(*Worker) { done++ })
	team.Queue.Push(task)

	team.Queue.TaskWait(w)

	assert.Equal(t, 1, done)
	assert.True(t, task.Done.Done())
}

// A panic inside a task is captured on the task and re-raised by
// taskwait on the waiting thread, wrapped in *TaskPanicError.
func TestTaskWaitReRaisesTaskPanic(t *testing.T) {
	team := testTeam(1)
	w := NewWorker(0, team)

	task := NewCustomTask("failing", team, func(*Worker) { panic("task blew up") })
	team.Queue.Push(task)

	defer func() {
		r := recover()
		require.NotNil(t, r, "taskwait should re-raise the captured panic")
		tpe, ok := r.(*TaskPanicError)
		require.True(t, ok, "expected *TaskPanicError, got %T", r)
		assert.Equal(t, "failing", tpe.TaskID)
		assert.Equal(t, "task blew up", tpe.Value)
	}()
	team.Queue.TaskWait(w)
}

// The task a worker is running becomes its current task for the
// duration (its ICVs come from the task), then is popped.
func TestRunClaimedPushesTaskOnWorkerStack(t *testing.T) {
	team := testTeam(1)
	w := NewWorker(0, team)

	var duringICV *DataEnv
	team.Queue.Push(NewCustomTask(NewTaskID(), team, func(w *Worker) {
		duringICV = w.ICV()
	}))
	team.Queue.Drain(w, team.Queue.NewCursor())

	assert.Equal(t, team.Env, duringICV, "a custom task reports its team's env")
	assert.NotSame(t, team.Env, w.ICV(), "after the pop the worker is back on its own clone")
}
