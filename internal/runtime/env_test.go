package ompgort

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSchedule(t *testing.T) {
	cases := []struct {
		in   string
		want Schedule
		ok   bool
	}{
		{"static", Schedule{Kind: ScheduleStatic, Chunk: -1, Monotonic: true}, true},
		{"dynamic,8", Schedule{Kind: ScheduleDynamic, Chunk: 8, Monotonic: true}, true},
		{"guided, 4", Schedule{Kind: ScheduleGuided, Chunk: 4, Monotonic: true}, true},
		{"nonmonotonic:dynamic,2", Schedule{Kind: ScheduleDynamic, Chunk: 2, Monotonic: false}, true},
		{"monotonic:static", Schedule{Kind: ScheduleStatic, Chunk: -1, Monotonic: true}, true},
		{"AUTO", Schedule{Kind: ScheduleAuto, Chunk: -1, Monotonic: true}, true},
		{"runtime", Schedule{Kind: ScheduleRuntime, Chunk: -1, Monotonic: true}, true},
		{"fastest", Schedule{}, false},
		{"", Schedule{}, false},
	}
	for _, tc := range cases {
		got, ok := ParseSchedule(tc.in)
		assert.Equal(t, tc.ok, ok, "ParseSchedule(%q)", tc.in)
		if tc.ok {
			assert.Equal(t, tc.want, got, "ParseSchedule(%q)", tc.in)
		}
	}
}

func TestLoadEnvConfigDefaults(t *testing.T) {
	for _, v := range []string{
		"OMP_NUM_THREADS", "OMP_SCHEDULE", "OMP_MAX_ACTIVE_LEVELS",
		"OMP_THREAD_LIMIT", "OMP_NUM_TEAMS", "OMP_DEFAULT_DEVICE",
		"OMP_STACKSIZE", "OMP_WAIT_POLICY",
	} {
		t.Setenv(v, "")
	}

	cfg := LoadEnvConfig()
	require.NotEmpty(t, cfg.NThreads)
	assert.Equal(t, DefaultSchedule(), cfg.Schedule)
	assert.Equal(t, 0, cfg.NumTeams)
	assert.True(t, cfg.WaitPolicyActive)
}

func TestLoadEnvConfigReadsVariables(t *testing.T) {
	t.Setenv("OMP_NUM_THREADS", "4,2")
	t.Setenv("OMP_SCHEDULE", "dynamic,16")
	t.Setenv("OMP_MAX_ACTIVE_LEVELS", "3")
	t.Setenv("OMP_THREAD_LIMIT", "64")
	t.Setenv("OMP_NUM_TEAMS", "2")
	t.Setenv("OMP_WAIT_POLICY", "passive")

	cfg := LoadEnvConfig()
	assert.Equal(t, []int{4, 2}, cfg.NThreads)
	assert.Equal(t, Schedule{Kind: ScheduleDynamic, Chunk: 16, Monotonic: true}, cfg.Schedule)
	assert.Equal(t, 3, cfg.MaxActiveLevels)
	assert.Equal(t, 64, cfg.ThreadLimit)
	assert.Equal(t, 2, cfg.NumTeams)
	assert.False(t, cfg.WaitPolicyActive)
}

// A set-but-malformed variable is fatal with an *ICVTypeError, not
// silently defaulted (runtime type errors are fatal on region
// entry).
func TestLoadEnvConfigRejectsMalformedValues(t *testing.T) {
	t.Setenv("OMP_NUM_THREADS", "two")
	assert.PanicsWithError(t, `ompgort: OMP_NUM_THREADS="two" is not a valid positive integer list`, func() {
		LoadEnvConfig()
	})
	t.Setenv("OMP_NUM_THREADS", "")

	t.Setenv("OMP_SCHEDULE", "fastest")
	assert.Panics(t, func() { LoadEnvConfig() })
	t.Setenv("OMP_SCHEDULE", "")

	t.Setenv("OMP_THREAD_LIMIT", "lots")
	assert.Panics(t, func() { LoadEnvConfig() })
}
