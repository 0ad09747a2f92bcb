package ompgort

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// ScheduleKind names a work-sharing loop strategy.
type ScheduleKind int

const (
	ScheduleStatic ScheduleKind = iota
	ScheduleDynamic
	ScheduleGuided
	ScheduleAuto
	ScheduleRuntime
)

func (k ScheduleKind) String() string {
	switch k {
	case ScheduleStatic:
		return "static"
	case ScheduleDynamic:
		return "dynamic"
	case ScheduleGuided:
		return "guided"
	case ScheduleAuto:
		return "auto"
	case ScheduleRuntime:
		return "runtime"
	default:
		return "unknown"
	}
}

// Schedule is a kind plus its chunk size and monotonicity, the parsed
// form of OMP_SCHEDULE ("kind[,chunk]" with an optional "monotonic:" /
// "nonmonotonic:" modifier).
type Schedule struct {
	Kind      ScheduleKind
	Chunk     int // -1 means "use the strategy's default"
	Monotonic bool
}

// DefaultSchedule is the ICV default: static, monotonic, chunk=-1.
func DefaultSchedule() Schedule {
	return Schedule{Kind: ScheduleStatic, Chunk: -1, Monotonic: true}
}

// EnvConfig is the process-wide configuration parsed from the OMP_*
// environment variables on startup. Numeric caps absent from the
// environment fall back to a large sentinel rather than being left at
// zero, so an unset limit means "effectively unbounded".
type EnvConfig struct {
	NThreads         []int
	Schedule         Schedule
	MaxActiveLevels  int
	ThreadLimit      int
	NumTeams         int
	DefaultDevice    int
	StackSize        string
	WaitPolicyActive bool
}

const unboundedLevels = 1 << 30

// LoadEnvConfig reads the OMP_* environment variables, applying the
// documented defaults when a variable is unset. A variable
// that is set but not castable to its ICV's type is fatal: the panic
// carries an *ICVTypeError and surfaces on region entry, the first
// point the configuration is consulted.
func LoadEnvConfig() *EnvConfig {
	cfg := &EnvConfig{
		NThreads:         []int{runtime.NumCPU()},
		Schedule:         DefaultSchedule(),
		MaxActiveLevels:  unboundedLevels,
		ThreadLimit:      unboundedLevels,
		NumTeams:         0,
		DefaultDevice:    0,
		StackSize:        "",
		WaitPolicyActive: true,
	}

	if v := os.Getenv("OMP_NUM_THREADS"); v != "" {
		list, err := parseIntList(v)
		if err != nil {
			panic(&ICVTypeError{Var: "OMP_NUM_THREADS", Value: v, Want: "positive integer list"})
		}
		cfg.NThreads = list
	}
	if v := os.Getenv("OMP_SCHEDULE"); v != "" {
		sched, ok := ParseSchedule(v)
		if !ok {
			panic(&ICVTypeError{Var: "OMP_SCHEDULE", Value: v, Want: "schedule kind[,chunk]"})
		}
		cfg.Schedule = sched
	}
	cfg.MaxActiveLevels = envInt("OMP_MAX_ACTIVE_LEVELS", cfg.MaxActiveLevels)
	cfg.ThreadLimit = envInt("OMP_THREAD_LIMIT", cfg.ThreadLimit)
	cfg.NumTeams = envInt("OMP_NUM_TEAMS", cfg.NumTeams)
	cfg.DefaultDevice = envInt("OMP_DEFAULT_DEVICE", cfg.DefaultDevice)
	if v := os.Getenv("OMP_STACKSIZE"); v != "" {
		cfg.StackSize = v
	}
	if v := os.Getenv("OMP_WAIT_POLICY"); v != "" {
		cfg.WaitPolicyActive = strings.EqualFold(v, "active")
	}

	return cfg
}

func envInt(name string, fallback int) int {
	v := os.Getenv(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(&ICVTypeError{Var: name, Value: v, Want: "integer"})
	}
	return n
}

func parseIntList(v string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%q is not a positive integer", part)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty list")
	}
	return out, nil
}

// ParseSchedule parses an OMP_SCHEDULE-style string: "kind[,chunk]"
// optionally prefixed with "monotonic:" or "nonmonotonic:".
func ParseSchedule(v string) (Schedule, bool) {
	s := strings.TrimSpace(v)
	monotonic := true
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "nonmonotonic:") {
		monotonic = false
		s = s[len("nonmonotonic:"):]
	} else if strings.HasPrefix(lower, "monotonic:") {
		s = s[len("monotonic:"):]
	}

	parts := strings.SplitN(s, ",", 2)
	kindStr := strings.ToLower(strings.TrimSpace(parts[0]))
	var kind ScheduleKind
	switch kindStr {
	case "static":
		kind = ScheduleStatic
	case "dynamic":
		kind = ScheduleDynamic
	case "guided":
		kind = ScheduleGuided
	case "auto":
		kind = ScheduleAuto
	case "runtime":
		kind = ScheduleRuntime
	default:
		return Schedule{}, false
	}

	chunk := -1
	if len(parts) == 2 {
		if n, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil && n > 0 {
			chunk = n
		}
	}

	return Schedule{Kind: kind, Chunk: chunk, Monotonic: monotonic}, true
}
