package ompgort

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Each worker's bottom stack frame is its own clone of the team env,
// stamped with its thread number.
func TestNewWorkerClonesEnvPerThread(t *testing.T) {
	team := testTeam(2)
	w0 := NewWorker(0, team)
	w1 := NewWorker(1, team)

	assert.Equal(t, 0, w0.ICV().ThreadNum)
	assert.Equal(t, 1, w1.ICV().ThreadNum)
	assert.Equal(t, 0, team.Env.ThreadNum, "the team's shared template is untouched")
}

func TestWorkerPushMakesTaskCurrent(t *testing.T) {
	team := testTeam(1)
	w := NewWorker(0, team)
	base := w.ICV()

	pop := w.Push(team)
	assert.Equal(t, team.Env, w.ICV())
	pop()
	assert.Equal(t, base, w.ICV())
}

func TestCurrentImplicitIsTeamOfOne(t *testing.T) {
	w := CurrentImplicit()
	require.NotNil(t, w)
	assert.Same(t, w, CurrentImplicit(), "implicit worker is a singleton")
	assert.Equal(t, 1, w.ICV().TeamSize)
	assert.Equal(t, 0, w.ICV().ThreadNum)
	assert.False(t, InParallel(w))
}

// CopyPrivate hands every worker the first publisher's value.
func TestCopyPrivatePublishesOneValue(t *testing.T) {
	team := testTeam(2)
	w0 := NewWorker(0, team)
	w1 := NewWorker(1, team)

	v0 := CopyPrivate(w0, "copyprivate:seed:5:2", 42)
	v1 := CopyPrivate(w1, "copyprivate:seed:5:2", 7)

	assert.Equal(t, 42, v0)
	assert.Equal(t, 42, v1, "the second worker receives the published value")
}

func TestThreadLocalForPerThreadSlots(t *testing.T) {
	team := testTeam(2)
	w0 := NewWorker(0, team)
	w1 := NewWorker(1, team)

	inits := 0
	get := func(w *Worker) int {
		return ThreadLocalFor(w, "tl-slots", func() int {
			inits++
			return 10 + w.ThreadNum
		})
	}

	assert.Equal(t, 10, get(w0))
	assert.Equal(t, 11, get(w1))
	assert.Equal(t, 10, get(w0), "second access hits the cached slot")
	assert.Equal(t, 2, inits, "one lazy init per thread")
}

func TestSeedThreadLocalOverridesSlot(t *testing.T) {
	team := testTeam(2)
	w1 := NewWorker(1, team)

	SeedThreadLocal("tl-seeded", 1, 99)
	got := ThreadLocalFor(w1, "tl-seeded", func() int { return -1 })
	assert.Equal(t, 99, got, "the seeded value pre-empts lazy init")
}
