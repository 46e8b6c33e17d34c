package statusagg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cray-HPE/bos-sub000/internal/types"
)

func TestCompute_PercentagesAndErrorSummary(t *testing.T) {
	now := time.Now().UTC()
	start := now.Add(-time.Hour)
	sess := types.Session{Status: types.SessionStatus{Status: types.SessionRunning, StartTime: &start}}

	owned := []types.Component{
		{ID: "x1", Status: types.ComponentStatus{Phase: types.PhasePoweringOn, Status: types.StatusStable}},
		{ID: "x2", Status: types.ComponentStatus{Phase: types.PhaseNone, Status: types.StatusStable}},
		{ID: "x3", Status: types.ComponentStatus{Phase: types.PhaseConfiguring, Status: types.StatusFailed}, Error: "cfs timeout"},
		{ID: "x4", Status: types.ComponentStatus{Phase: types.PhaseConfiguring, Status: types.StatusFailed}, Error: "cfs timeout"},
	}

	got := Compute(sess, owned, nil, now)
	require.Equal(t, 4, got.ManagedComponentsCount)
	assert.Equal(t, 25.0, got.PercentPoweringOn)
	assert.Equal(t, 25.0, got.PercentNone)
	assert.Equal(t, 50.0, got.PercentConfiguring)
	assert.Equal(t, 50.0, got.PercentSuccessful)
	assert.Equal(t, 50.0, got.PercentFailed)
	assert.Equal(t, 0.0, got.PercentStaged)

	require.Contains(t, got.ErrorSummary, "cfs timeout")
	assert.Equal(t, 2, got.ErrorSummary["cfs timeout"].Count)
	assert.Equal(t, "x3,x4", got.ErrorSummary["cfs timeout"].List)

	require.NotNil(t, got.Timing.Duration)
	assert.Equal(t, time.Hour, *got.Timing.Duration)
}

func TestCompute_NoOwnedComponentsStillReportsStaged(t *testing.T) {
	now := time.Now().UTC()
	sess := types.Session{Status: types.SessionStatus{Status: types.SessionPending}}

	staged := []types.Component{{ID: "x1"}}
	got := Compute(sess, nil, staged, now)
	assert.Equal(t, 1, got.ManagedComponentsCount)
	assert.Equal(t, 100.0, got.PercentStaged)
	assert.Equal(t, 0.0, got.PercentPoweringOn)
}

func TestCompute_PercentagesUseCombinedOwnedAndStagedCount(t *testing.T) {
	now := time.Now().UTC()
	sess := types.Session{Status: types.SessionStatus{Status: types.SessionRunning}}

	owned := []types.Component{
		{ID: "x1", Status: types.ComponentStatus{Phase: types.PhaseNone, Status: types.StatusStable}},
		{ID: "x2", Status: types.ComponentStatus{Phase: types.PhaseNone, Status: types.StatusStable}},
	}
	staged := []types.Component{{ID: "x3"}, {ID: "x4"}}

	got := Compute(sess, owned, staged, now)
	require.Equal(t, 4, got.ManagedComponentsCount)
	assert.Equal(t, 50.0, got.PercentNone, "percentages must divide by owned+staged, not owned alone")
	assert.Equal(t, 50.0, got.PercentSuccessful)
	assert.Equal(t, 50.0, got.PercentStaged)
}

func TestCompute_ZeroComponentsSkipsPercentages(t *testing.T) {
	now := time.Now().UTC()
	sess := types.Session{Status: types.SessionStatus{Status: types.SessionComplete}}
	got := Compute(sess, nil, nil, now)
	assert.Equal(t, 0, got.ManagedComponentsCount)
	assert.Empty(t, got.ErrorSummary)
}

func TestTruncatedList_CapsAtMaxWithEllipsis(t *testing.T) {
	xnames := make([]string, maxErrorListXnames+5)
	for i := range xnames {
		xnames[i] = "x" + string(rune('a'+i))
	}
	got := truncatedList(xnames)
	assert.Contains(t, got, "...")
}

func TestComputeTiming_EndTimeSetUsesFixedDuration(t *testing.T) {
	start := time.Now().UTC().Add(-2 * time.Hour)
	end := start.Add(90 * time.Minute)
	sess := types.Session{Status: types.SessionStatus{StartTime: &start, EndTime: &end}}

	got := computeTiming(sess, time.Now().UTC())
	require.NotNil(t, got.Duration)
	assert.Equal(t, 90*time.Minute, *got.Duration)
}

func TestComputeTiming_NoStartTimeReturnsZeroValue(t *testing.T) {
	sess := types.Session{}
	got := computeTiming(sess, time.Now().UTC())
	assert.Nil(t, got.Duration)
	assert.Nil(t, got.StartTime)
}
