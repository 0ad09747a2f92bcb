package ompgort

import (
	"runtime"
	"sync"
	"time"
)

// global holds the process-wide runtime settings exposed through the
// omp_* API: the pieces of GlobalICV/DataEnv that are
// set once from outside any parallel region and read by every thread.
var global = struct {
	mu               sync.Mutex
	numThreads       int
	maxActiveLevels  int
	schedule         Schedule
	dynamic          bool
	start            time.Time
}{
	numThreads:      0, // 0 means "use GOMAXPROCS", resolved lazily
	maxActiveLevels: unboundedLevels,
	schedule:        DefaultSchedule(),
}

func init() {
	global.start = time.Time{}
}

// SetNumThreads sets the default team size used by a subsequent
// parallel region that does not itself specify num_threads
// (omp_set_num_threads).
func SetNumThreads(n int) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.numThreads = n
}

// DefaultNumThreads returns the process-wide default team size, or
// fallback if none has been set.
func DefaultNumThreads(fallback int) int {
	global.mu.Lock()
	defer global.mu.Unlock()
	if global.numThreads > 0 {
		return global.numThreads
	}
	return fallback
}

// DefaultTeamSize returns the team size a `parallel` region with no
// num_threads clause uses: the process-wide default if
// SetNumThreads has been called, otherwise GOMAXPROCS. Generated code
// calls this directly so it never needs to import the stdlib `runtime`
// package alongside `ompgort`.
func DefaultTeamSize() int {
	return DefaultNumThreads(runtime.GOMAXPROCS(0))
}

// DefaultLeagueSize returns the league size a `teams` region with no
// num_teams clause uses (OMP_NUM_TEAMS): 0 is
// "implementation-defined", resolved to GOMAXPROCS the same way
// DefaultTeamSize resolves an unset OMP_NUM_THREADS.
func DefaultLeagueSize() int {
	if cfg := LoadEnvConfig(); cfg.NumTeams > 0 {
		return cfg.NumTeams
	}
	return runtime.GOMAXPROCS(0)
}

// GetNumThreads returns the team size of the parallel region w is
// currently executing in (omp_get_num_threads).
func GetNumThreads(w *Worker) int {
	return w.ICV().TeamSize
}

// GetThreadNum returns w's rank within its current team
// (omp_get_thread_num).
func GetThreadNum(w *Worker) int {
	return w.ICV().ThreadNum
}

// GetMaxThreads returns the team size a parallel region entered right
// now would use (omp_get_max_threads).
func GetMaxThreads(fallback int) int {
	return DefaultNumThreads(fallback)
}

// InParallel reports whether w is currently inside an active parallel
// region (omp_in_parallel).
func InParallel(w *Worker) bool {
	return w.ICV().ActiveLevels > 0
}

// GetLevel returns the nesting depth of parallel regions enclosing w,
// active or not (omp_get_level).
func GetLevel(w *Worker) int {
	return w.ICV().Levels
}

// GetActiveLevel returns the nesting depth of active parallel regions
// enclosing w (omp_get_active_level).
func GetActiveLevel(w *Worker) int {
	return w.ICV().ActiveLevels
}

// SetSchedule sets the process-wide runtime schedule consulted by a
// `schedule(runtime)` work-sharing loop (omp_set_schedule).
func SetSchedule(s Schedule) {
	global.mu.Lock()
	defer global.mu.Unlock()
	global.schedule = s
}

// GetSchedule returns the process-wide runtime schedule
// (omp_get_schedule).
func GetSchedule() Schedule {
	global.mu.Lock()
	defer global.mu.Unlock()
	return global.schedule
}

// SetMaxActiveLevels bounds how many levels of parallel region nesting
// may actually run in parallel (omp_set_max_active_levels); deeper
// regions still execute, serialized to a team of one.
func SetMaxActiveLevels(n int) {
	global.mu.Lock()
	defer global.mu.Unlock()
	if n < 0 {
		n = 0
	}
	global.maxActiveLevels = n
}

// GetMaxActiveLevels returns the current bound (omp_get_max_active_levels).
func GetMaxActiveLevels() int {
	global.mu.Lock()
	defer global.mu.Unlock()
	return global.maxActiveLevels
}

// GetWtime returns elapsed wall-clock seconds since the first GetWtime
// call in the process (omp_get_wtime):
// an arbitrary but fixed epoch, matching the source API's contract that
// only differences between two calls are meaningful.
func GetWtime() float64 {
	global.mu.Lock()
	if global.start.IsZero() {
		global.start = time.Now()
	}
	epoch := global.start
	global.mu.Unlock()
	return time.Since(epoch).Seconds()
}

// GetWtick returns the clock resolution assumed for GetWtime
// (omp_get_wtick). Go's monotonic clock has nanosecond resolution.
func GetWtick() float64 {
	return time.Nanosecond.Seconds()
}
