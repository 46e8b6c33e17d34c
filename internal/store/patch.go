package store

import (
	"time"

	"github.com/Cray-HPE/bos-sub000/internal/types"
)

// ApplyComponentPatch merges patch into existing per spec §4.1's rules:
// deep merge of nested state sections, last-writer-wins per field,
// event_stats reset on any phase change, and actual_state cleared when a
// phase change lands on none from powering_off. now stamps last_updated
// on every section the patch touched.
func ApplyComponentPatch(existing types.Component, patch types.ComponentPatch, now time.Time) types.Component {
	out := existing
	phaseChanged := false

	if patch.Enabled != nil {
		out.Enabled = *patch.Enabled
	}
	if patch.DesiredState != nil {
		applyDesiredPatch(&out.DesiredState, patch.DesiredState, now)
	}
	if patch.StagedState != nil {
		applyStagedPatch(&out.StagedState, patch.StagedState, now)
	}
	if patch.ActualState != nil {
		applyActualPatch(&out.ActualState, patch.ActualState, now)
	}
	if patch.LastAction != nil {
		la := *patch.LastAction
		la.LastUpdated = &now
		out.LastAction = la
	}
	if patch.EventStats != nil {
		out.EventStats = *patch.EventStats
	}
	if patch.RetryPolicy != nil {
		out.RetryPolicy = *patch.RetryPolicy
	}
	if patch.Error != nil {
		out.Error = *patch.Error
	}
	if patch.Session != nil {
		out.Session = *patch.Session
	}

	if patch.Status != nil {
		if patch.Status.Phase != nil && *patch.Status.Phase != existing.Status.Phase {
			phaseChanged = true
		}
		if patch.Status.Phase != nil {
			out.Status.Phase = *patch.Status.Phase
		}
		if patch.Status.Status != nil {
			out.Status.Status = *patch.Status.Status
		}
		if patch.Status.StatusOverride != nil {
			out.Status.StatusOverride = *patch.Status.StatusOverride
		}
	}

	if phaseChanged && out.Status.Phase == types.PhaseNone {
		out.EventStats = types.EventStats{}
	}
	if phaseChanged && existing.Status.Phase == types.PhasePoweringOff && out.Status.Phase == types.PhaseNone {
		out.ActualState = types.ActualState{}
	}

	return out
}

func applyDesiredPatch(d *types.DesiredState, p *types.DesiredStatePatch, now time.Time) {
	if p.BootArtifacts != nil {
		d.BootArtifacts = *p.BootArtifacts
	}
	if p.Configuration != nil {
		d.Configuration = *p.Configuration
	}
	if p.BSSToken != nil {
		d.BSSToken = *p.BSSToken
	}
	d.LastUpdated = &now
}

func applyStagedPatch(s *types.StagedState, p *types.StagedStatePatch, now time.Time) {
	applyDesiredPatch(&s.DesiredState, &p.DesiredStatePatch, now)
	if p.Session != nil {
		s.Session = *p.Session
	}
}

func applyActualPatch(a *types.ActualState, p *types.ActualStatePatch, now time.Time) {
	if p.Clear {
		*a = types.ActualState{LastUpdated: &now}
		return
	}
	if p.BootArtifacts != nil {
		a.BootArtifacts = *p.BootArtifacts
	}
	if p.BSSToken != nil {
		a.BSSToken = *p.BSSToken
	}
	a.LastUpdated = &now
}
