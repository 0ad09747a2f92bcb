package ompgort

import "sync"

// Barrier is a cooperative task-drain rendezvous, deliberately not a
// bare count-down latch: a worker that arrives
// first keeps claiming and running entries from the team queue instead
// of blocking, and the rendezvous itself re-opens if new tasks appear
// while a worker is waiting to be released.
type Barrier struct {
	team *ParallelTask

	mu         sync.Mutex
	cond       *sync.Cond
	count      int
	generation int
}

// NewBarrier returns a barrier coupled to team's task queue.
func NewBarrier(team *ParallelTask) *Barrier {
	b := &Barrier{team: team}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Wait drains claimable task-queue entries, rendezvous with the rest of
// a teamSize-worker team, and repeats if tasks were added while this
// worker waited for release.
func (b *Barrier) Wait(w *Worker, teamSize int) {
	cursor := b.team.Queue.NewCursor()
	for {
		b.team.Queue.Drain(w, cursor)

		b.mu.Lock()
		gen := b.generation
		b.count++
		if b.count == teamSize {
			b.count = 0
			b.generation++
			b.mu.Unlock()
			b.cond.Broadcast()
		} else {
			for gen == b.generation {
				b.cond.Wait()
			}
			b.mu.Unlock()
		}

		if !b.team.Queue.Drain(w, cursor) {
			return
		}
		// New work appeared after release: rejoin the rendezvous so
		// every worker observes the same final barrier state.
	}
}
