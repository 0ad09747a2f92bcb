package ompgort

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTeam(size int) *ParallelTask {
	env := &DataEnv{TeamSize: size, NThreads: []int{size}, RunSchedule: DefaultSchedule()}
	return NewParallelTask(env)
}

// indicesOf replays every chunk a scheduler hands out through the same
// inner loop the generated code runs.
func indicesOf(ls *LoopScheduler, step int64) []int64 {
	var out []int64
	for {
		c, ok := ls.Next()
		if !ok {
			return out
		}
		if step > 0 {
			for i := c.Start; i < c.Stop; i += step {
				out = append(out, i)
			}
		} else {
			for i := c.Start; i > c.Stop; i += step {
				out = append(out, i)
			}
		}
	}
}

// Static assignment over range(11) with 2 workers: worker 0 gets 0..5,
// worker 1 gets 6..10.
func TestStaticScheduleHalves(t *testing.T) {
	ft := NewForTask(testTeam(2), ScheduleStatic, 1, 0, 11, 1, 0, 2)

	assert.Equal(t, []int64{0, 1, 2, 3, 4, 5}, indicesOf(ft.Scheduler(0), 1))
	assert.Equal(t, []int64{6, 7, 8, 9, 10}, indicesOf(ft.Scheduler(1), 1))
}

// Static with chunk 1 interleaves: worker 0 gets evens, worker 1 odds.
func TestStaticScheduleChunkOneInterleaves(t *testing.T) {
	ft := NewForTask(testTeam(2), ScheduleStatic, 1, 0, 11, 1, 1, 2)

	assert.Equal(t, []int64{0, 2, 4, 6, 8, 10}, indicesOf(ft.Scheduler(0), 1))
	assert.Equal(t, []int64{1, 3, 5, 7, 9}, indicesOf(ft.Scheduler(1), 1))
}

func TestStaticScheduleNegativeStep(t *testing.T) {
	ft := NewForTask(testTeam(1), ScheduleStatic, 1, 10, 0, -1, 0, 1)

	got := indicesOf(ft.Scheduler(0), -1)
	assert.Equal(t, []int64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}, got)
}

// Dynamic chunks claimed concurrently by a team cover the iteration
// space exactly once.
func TestDynamicScheduleCoversExactlyOnce(t *testing.T) {
	const iters = 1000
	ft := NewForTask(testTeam(4), ScheduleDynamic, 1, 0, iters, 1, 7, 4)

	var mu sync.Mutex
	seen := map[int64]int{}
	var wg sync.WaitGroup
	for tn := 0; tn < 4; tn++ {
		wg.Add(1)
		go func(tn int) {
			defer wg.Done()
			for _, i := range indicesOf(ft.Scheduler(tn), 1) {
				mu.Lock()
				seen[i]++
				mu.Unlock()
			}
		}(tn)
	}
	wg.Wait()

	require.Len(t, seen, iters)
	for i, n := range seen {
		assert.Equal(t, 1, n, "iteration %d claimed %d times", i, n)
	}
}

func TestGuidedScheduleCoversExactlyOnce(t *testing.T) {
	const iters = 500
	ft := NewForTask(testTeam(3), ScheduleGuided, 1, 0, iters, 1, 2, 3)

	var mu sync.Mutex
	seen := map[int64]int{}
	var wg sync.WaitGroup
	for tn := 0; tn < 3; tn++ {
		wg.Add(1)
		go func(tn int) {
			defer wg.Done()
			for _, i := range indicesOf(ft.Scheduler(tn), 1) {
				mu.Lock()
				seen[i]++
				mu.Unlock()
			}
		}(tn)
	}
	wg.Wait()

	require.Len(t, seen, iters)
	for i, n := range seen {
		assert.Equal(t, 1, n, "iteration %d claimed %d times", i, n)
	}
}

// Guided chunk sizes never drop below the requested minimum:
// q = max(ceil(R/team_size), chunk).
func TestGuidedScheduleRespectsMinimumChunk(t *testing.T) {
	ft := NewForTask(testTeam(2), ScheduleGuided, 1, 0, 100, 1, 5, 2)

	ls := ft.Scheduler(0)
	for {
		c, ok := ls.Next()
		if !ok {
			break
		}
		size := c.Stop - c.Start
		// The final chunk may be clamped at the boundary.
		if c.Stop != 100 {
			assert.GreaterOrEqual(t, size, int64(5))
		}
	}
}

func TestForTaskDefaultChunkIsCeilDiv(t *testing.T) {
	ft := NewForTask(testTeam(2), ScheduleStatic, 1, 0, 11, 1, 0, 2)
	assert.Equal(t, int64(6), ft.Chunk)

	ft = NewForTask(testTeam(4), ScheduleDynamic, 1, 0, 11, 1, 0, 4)
	assert.Equal(t, int64(1), ft.Chunk, "dynamic defaults to chunk 1")
}

func TestOrderedGateSerializesBySequence(t *testing.T) {
	g := NewOrderedGate()

	var mu sync.Mutex
	var order []int64
	var wg sync.WaitGroup
	// Start in reverse so the gate, not goroutine launch order, decides.
	for seq := int64(4); seq >= 0; seq-- {
		wg.Add(1)
		go func(seq int64) {
			defer wg.Done()
			g.Enter(seq)
			mu.Lock()
			order = append(order, seq)
			mu.Unlock()
			g.Exit(seq)
		}(seq)
	}
	wg.Wait()

	assert.Equal(t, []int64{0, 1, 2, 3, 4}, order)
}
