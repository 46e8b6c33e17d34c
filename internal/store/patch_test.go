package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cray-HPE/bos-sub000/internal/types"
)

func TestApplyComponentPatch_FieldMerge(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	existing := types.Component{ID: "x1", Enabled: true}

	artifacts := types.BootArtifacts{Kernel: "k", Initrd: "i", KernelParameters: "p"}
	errMsg := "boom"
	patch := types.ComponentPatch{
		ID:    "x1",
		Error: &errMsg,
		DesiredState: &types.DesiredStatePatch{
			BootArtifacts: &artifacts,
		},
	}

	out := ApplyComponentPatch(existing, patch, now)
	require.Equal(t, artifacts, out.DesiredState.BootArtifacts)
	assert.Equal(t, "boom", out.Error)
	assert.True(t, out.Enabled, "enabled untouched by patch should be preserved")
	require.NotNil(t, out.DesiredState.LastUpdated)
	assert.Equal(t, now, *out.DesiredState.LastUpdated)
}

func TestApplyComponentPatch_EventStatsResetOnPhaseToNone(t *testing.T) {
	now := time.Now().UTC()
	existing := types.Component{
		ID:         "x1",
		Status:     types.ComponentStatus{Phase: types.PhasePoweringOn},
		EventStats: types.EventStats{PowerOnAttempts: 4},
	}
	none := types.PhaseNone
	patch := types.ComponentPatch{
		ID:     "x1",
		Status: &types.ComponentStatusPatch{Phase: &none},
	}

	out := ApplyComponentPatch(existing, patch, now)
	assert.Equal(t, types.EventStats{}, out.EventStats, "phase change to none resets event stats")
}

func TestApplyComponentPatch_ActualStateClearedOnPoweringOffToNone(t *testing.T) {
	now := time.Now().UTC()
	existing := types.Component{
		ID:          "x1",
		Status:      types.ComponentStatus{Phase: types.PhasePoweringOff},
		ActualState: types.ActualState{BootArtifacts: types.BootArtifacts{Kernel: "k"}},
	}
	none := types.PhaseNone
	patch := types.ComponentPatch{
		ID:     "x1",
		Status: &types.ComponentStatusPatch{Phase: &none},
	}

	out := ApplyComponentPatch(existing, patch, now)
	assert.True(t, out.ActualState.BootArtifacts.Empty())
}

func TestApplyComponentPatch_ActualStateClear(t *testing.T) {
	now := time.Now().UTC()
	existing := types.Component{
		ID:          "x1",
		ActualState: types.ActualState{BootArtifacts: types.BootArtifacts{Kernel: "k"}, BSSToken: "tok"},
	}
	patch := types.ComponentPatch{
		ID:          "x1",
		ActualState: &types.ActualStatePatch{Clear: true},
	}

	out := ApplyComponentPatch(existing, patch, now)
	assert.True(t, out.ActualState.BootArtifacts.Empty())
	assert.Empty(t, out.ActualState.BSSToken)
	require.NotNil(t, out.ActualState.LastUpdated)
}
