package ompgort

import "runtime"

// Chunk is a contiguous half-open iteration range [Start, Stop) assigned
// to a worker as one unit.
type Chunk struct {
	Start, Stop int64
}

// ForTask records one work-sharing loop's scheduling state, shared by
// every worker in the team that executes it: loop
// kind, collapse depth, chunk size, iteration step, and — for
// dynamic/guided — the per-team monotonic shared counter.
type ForTask struct {
	Parent   *ParallelTask
	Kind     ScheduleKind
	Collapse int
	Start    int64
	Stop     int64
	Step     int64
	Chunk    int64
	TeamSize int

	counter *AtomicInt // nil for ScheduleStatic
}

// NewForTask resolves chunk (<=0 meaning "use the strategy's default")
// and seeds the shared atomic counter: for dynamic, one chunk before
// start, so the first Add lands exactly on start; for guided, at start
// itself, since a guided claim reads the counter as the first
// unclaimed iteration.
func NewForTask(parent *ParallelTask, kind ScheduleKind, collapse int, start, stop, step, chunk int64, teamSize int) *ForTask {
	if teamSize < 1 {
		teamSize = 1
	}
	if chunk <= 0 {
		if kind == ScheduleStatic || kind == ScheduleAuto {
			chunk = ceilDiv(iterCount(start, stop, step), int64(teamSize))
		} else {
			chunk = 1
		}
		if chunk <= 0 {
			chunk = 1
		}
	}
	ft := &ForTask{
		Parent: parent, Kind: kind, Collapse: collapse,
		Start: start, Stop: stop, Step: step, Chunk: chunk, TeamSize: teamSize,
	}
	if kind == ScheduleGuided {
		ft.counter = NewAtomicInt(start)
	} else if kind != ScheduleStatic && kind != ScheduleAuto {
		ft.counter = NewAtomicInt(start - chunk*step)
	}
	return ft
}

// ICV implements Task.
func (f *ForTask) ICV() *DataEnv { return f.Parent.Env }

// Scheduler returns threadNum's private chunk iterator over this
// ForTask's iteration space.
func (f *ForTask) Scheduler(threadNum int) *LoopScheduler {
	ls := &LoopScheduler{
		kind: f.Kind, start: f.Start, stop: f.Stop, step: f.Step,
		chunkSize: f.Chunk, teamSize: f.TeamSize, counter: f.counter,
	}
	if ls.kind == ScheduleStatic || ls.kind == ScheduleAuto {
		ls.nextStatic = f.Start + int64(threadNum)*f.Chunk*f.Step
	}
	return ls
}

// LoopScheduler hands out chunks to one worker, implementing the
// static, dynamic, and guided strategies.
type LoopScheduler struct {
	kind              ScheduleKind
	start, stop, step int64
	chunkSize         int64
	teamSize          int
	counter           *AtomicInt
	nextStatic        int64
}

// Next returns the worker's next chunk, or ok=false once its share of
// the iteration space is exhausted.
func (ls *LoopScheduler) Next() (Chunk, bool) {
	switch ls.kind {
	case ScheduleStatic, ScheduleAuto:
		return ls.nextStaticChunk()
	case ScheduleGuided:
		return ls.nextGuidedChunk()
	default: // dynamic, runtime (resolved to a concrete kind upstream)
		return ls.nextDynamicChunk()
	}
}

func (ls *LoopScheduler) exhausted(c int64) bool {
	if ls.step > 0 {
		return c >= ls.stop
	}
	return c <= ls.stop
}

func (ls *LoopScheduler) clamp(e int64) int64 {
	if ls.step > 0 && e > ls.stop {
		return ls.stop
	}
	if ls.step < 0 && e < ls.stop {
		return ls.stop
	}
	return e
}

// nextStaticChunk implements the static contract: each
// worker's first chunk starts at thread_num*chunk with stride
// team_size*chunk, terminating when the chunk start crosses stop.
func (ls *LoopScheduler) nextStaticChunk() (Chunk, bool) {
	s := ls.nextStatic
	if ls.exhausted(s) {
		return Chunk{}, false
	}
	e := ls.clamp(s + ls.chunkSize*ls.step)
	ls.nextStatic = s + int64(ls.teamSize)*ls.chunkSize*ls.step
	return Chunk{Start: s, Stop: e}, true
}

// nextDynamicChunk implements the dynamic contract: each
// request advances the shared counter by chunk and claims the resulting
// range.
func (ls *LoopScheduler) nextDynamicChunk() (Chunk, bool) {
	c := ls.counter.Add(ls.chunkSize * ls.step)
	if ls.exhausted(c) {
		return Chunk{}, false
	}
	return Chunk{Start: c, Stop: ls.clamp(c + ls.chunkSize*ls.step)}, true
}

// nextGuidedChunk implements the guided contract: remaining
// iterations divided by team size, floored at chunk, advanced via CAS
// retry on contention.
func (ls *LoopScheduler) nextGuidedChunk() (Chunk, bool) {
	for {
		c := ls.counter.Get()
		if ls.exhausted(c) {
			return Chunk{}, false
		}
		remaining := iterCount(c, ls.stop, ls.step)
		q := ceilDiv(remaining, int64(ls.teamSize))
		if q < ls.chunkSize {
			q = ls.chunkSize
		}
		next := ls.clamp(c + q*ls.step)
		if ls.counter.CompareExchangeStrong(c, next) {
			return Chunk{Start: c, Stop: next}, true
		}
	}
}

func iterCount(start, stop, step int64) int64 {
	if step == 0 {
		return 0
	}
	if step > 0 {
		if stop <= start {
			return 0
		}
		return (stop - start + step - 1) / step
	}
	if stop >= start {
		return 0
	}
	return (start - stop - step - 1) / (-step)
}

func ceilDiv(a, b int64) int64 {
	if b <= 0 {
		return a
	}
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

// OrderedGate enforces the per-iteration total order of an `ordered`
// region inside an otherwise parallel loop: Enter
// blocks until seq's turn arrives, Exit advances the turn to seq+1.
type OrderedGate struct {
	next *AtomicInt
}

// NewOrderedGate returns a gate whose first turn is iteration 0.
func NewOrderedGate() *OrderedGate { return &OrderedGate{next: NewAtomicInt(0)} }

// Enter blocks the calling worker until it is iteration seq's turn.
func (g *OrderedGate) Enter(seq int64) {
	for g.next.Get() != seq {
		runtime.Gosched()
	}
}

// Exit releases the gate to iteration seq+1.
func (g *OrderedGate) Exit(seq int64) {
	g.next.CompareExchangeStrong(seq, seq+1)
}
