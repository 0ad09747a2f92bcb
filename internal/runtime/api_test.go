package ompgort

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetNumThreads(t *testing.T) {
	defer SetNumThreads(0)

	SetNumThreads(3)
	assert.Equal(t, 3, DefaultNumThreads(8))
	assert.Equal(t, 3, GetMaxThreads(8))
	assert.Equal(t, 3, DefaultTeamSize())

	SetNumThreads(0)
	assert.Equal(t, 8, DefaultNumThreads(8), "unset falls back to the caller's default")
}

func TestScheduleRoundTrip(t *testing.T) {
	defer SetSchedule(DefaultSchedule())

	want := Schedule{Kind: ScheduleGuided, Chunk: 4, Monotonic: true}
	SetSchedule(want)
	assert.Equal(t, want, GetSchedule())
}

func TestMaxActiveLevelsClamped(t *testing.T) {
	defer SetMaxActiveLevels(unboundedLevels)

	SetMaxActiveLevels(2)
	assert.Equal(t, 2, GetMaxActiveLevels())
	SetMaxActiveLevels(-5)
	assert.Equal(t, 0, GetMaxActiveLevels())
}

func TestWorkerIntrospection(t *testing.T) {
	parent := &DataEnv{TeamSize: 1, NThreads: []int{2}, RunSchedule: DefaultSchedule()}
	env := NewRegionEnv(parent, 2, 0, true)
	team := NewParallelTask(env)

	var nums []int
	var inPar []bool
	var levels []int
	err := team.RunTeam(2, func(w *Worker) {
		team.Mutex.WithLock(w.LockID(), func() {
			nums = append(nums, GetThreadNum(w))
			inPar = append(inPar, InParallel(w))
			levels = append(levels, GetLevel(w), GetActiveLevel(w))
		})
	})

	require.NoError(t, err)
	assert.ElementsMatch(t, []int{0, 1}, nums)
	assert.Equal(t, []bool{true, true}, inPar)
	assert.Equal(t, []int{1, 1, 1, 1}, levels)

	gotNum := GetNumThreads(NewWorker(0, team))
	assert.Equal(t, 2, gotNum)
}

func TestWtimeMonotonic(t *testing.T) {
	a := GetWtime()
	b := GetWtime()
	assert.GreaterOrEqual(t, b, a)
	assert.Greater(t, GetWtick(), 0.0)
}
