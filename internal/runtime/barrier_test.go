package ompgort

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// The barrier is a drain loop, not a count-down latch: a task pushed
// just before a worker arrives is executed by whichever worker reaches
// it, and the rendezvous completes with nothing left in the queue.
func TestBarrierDrainsQueueBeforeRelease(t *testing.T) {
	team := testTeam(2)

	executed := AtomicInt{}
	afterBarrier := make([]int64, 2)
	err := team.RunTeam(2, func(w *Worker) {
		if w.ThreadNum == 0 {
			for i := 0; i < 4; i++ {
				w.Team.Queue.Push(NewCustomTask(NewTaskID(), w.Team, func(*Worker) {
					executed.Add(1)
				}))
			}
		}
		team.Barrier.Wait(w, 2)
		afterBarrier[w.ThreadNum] = executed.Get()
	})

	require.NoError(t, err)
	assert.Equal(t, int64(4), executed.Get())
	assert.Equal(t, int64(4), afterBarrier[0], "worker 0 sees every task done after the barrier")
	assert.Equal(t, int64(4), afterBarrier[1], "worker 1 sees every task done after the barrier")
}

// Tasks submitted by a task running at the barrier re-open the
// rendezvous: nothing leaks past the region.
func TestBarrierReopensForTasksSpawnedDuringDrain(t *testing.T) {
	team := testTeam(2)

	executed := AtomicInt{}
	err := team.RunTeam(2, func(w *Worker) {
		if w.ThreadNum == 0 {
			w.Team.Queue.Push(NewCustomTask(NewTaskID(), w.Team, func(inner *Worker) {
				executed.Add(1)
				// A task running inside the barrier's drain enqueues more work.
				inner.Team.Queue.Push(NewCustomTask(NewTaskID(), inner.Team, func(*Worker) {
					executed.Add(1)
				}))
			}))
		}
		team.Barrier.Wait(w, 2)
	})

	require.NoError(t, err)
	assert.Equal(t, int64(2), executed.Get(), "the nested task must not leak past the region")
}

// Consecutive barriers on the same team don't interfere (generation
// counter, not a one-shot event).
func TestBarrierReusable(t *testing.T) {
	team := testTeam(3)

	var mu sync.Mutex
	trace := map[int]int{}
	err := team.RunTeam(3, func(w *Worker) {
		for round := 0; round < 3; round++ {
			mu.Lock()
			trace[round]++
			mu.Unlock()
			team.Barrier.Wait(w, 3)
		}
	})

	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 3, 1: 3, 2: 3}, trace)
}
