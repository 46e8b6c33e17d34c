package operator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Cray-HPE/bos-sub000/internal/clients"
	"github.com/Cray-HPE/bos-sub000/internal/config"
	"github.com/Cray-HPE/bos-sub000/internal/store"
	"github.com/Cray-HPE/bos-sub000/internal/types"
)

// Status runs independently of the actor operators, computing each
// component's phase and status from freshly queried PCS power state and
// CFS configuration state (spec §4.4).
type Status struct {
	Components *store.ComponentStore
	PCS        *clients.PCS
	CFS        *clients.CFS
	Now        func() time.Time
}

func (s *Status) Name() string { return "status" }

func (s *Status) RunOnce(ctx context.Context, opts config.Options) error {
	now := s.now()
	enabled := true
	components, err := s.Components.List(ctx, store.Filter{Enabled: &enabled})
	if err != nil {
		return fmt.Errorf("status: list: %w", err)
	}
	if len(components) == 0 {
		return nil
	}

	xnames := make([]string, len(components))
	for i, c := range components {
		xnames[i] = c.ID
	}

	powerByXname := map[string]clients.PowerState{}
	for start := 0; start < len(xnames); start += opts.MaxComponentBatchSize {
		end := start + opts.MaxComponentBatchSize
		if end > len(xnames) {
			end = len(xnames)
		}
		states, err := s.PCS.PowerStatus(ctx, xnames[start:end])
		if err != nil {
			return fmt.Errorf("status: pcs power-status: %w", err)
		}
		for _, st := range states {
			powerByXname[st.Xname] = st
		}
	}

	cfsByID := map[string]clients.CFSComponent{}
	cfsComponents, err := s.CFS.Components(ctx, xnames)
	if err != nil {
		return fmt.Errorf("status: cfs components: %w", err)
	}
	for _, cc := range cfsComponents {
		cfsByID[cc.ID] = cc
	}

	patches := map[string]types.ComponentPatch{}
	for _, c := range components {
		patch := computeStatus(c, powerByXname[c.ID], hasPower(powerByXname, c.ID), cfsByID[c.ID], hasCFS(cfsByID, c.ID), opts, now)
		if patch != nil {
			patches[c.ID] = *patch
		}
	}
	return s.Components.BatchedUpdate(ctx, patches)
}

func (s *Status) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func hasPower(m map[string]clients.PowerState, id string) bool {
	_, ok := m[id]
	return ok
}

func hasCFS(m map[string]clients.CFSComponent, id string) bool {
	_, ok := m[id]
	return ok
}

// computeStatus implements the per-component state machine of spec
// §4.4's table. Returns nil if nothing about the component's status
// needs to change.
func computeStatus(c types.Component, power clients.PowerState, havePower bool, cfs clients.CFSComponent, haveCFS bool, opts config.Options, now time.Time) *types.ComponentPatch {
	newStatus := c.Status
	var disable *bool
	var errMsg *string
	var failLastAction bool

	setTrue := true
	setErr := func(msg string) { errMsg = &msg }

	switch {
	case !havePower:
		newStatus.StatusOverride = "on_hold"
		disable = &setTrue
		setErr("Component information was not returned by pcs")

	case !haveCFS:
		newStatus.StatusOverride = "on_hold"
		disable = &setTrue
		setErr("Component information was not returned by cfs")

	// PCS's per-xname error overrides powerState (spec §4.3 "action
	// semantics"): the xname is marked failed and, for error classes
	// matching disable_based_on_error_xname_on_off, disabled.
	case power.Error != "":
		newStatus.StatusOverride = "failed"
		setErr(power.Error)
		if matchesDisableOnError(power.Error, opts.DisableBasedOnErrorXnameOnOff) {
			disable = &setTrue
		}

	case c.Status.Status == types.StatusFailed:
		newStatus.StatusOverride = "failed"
		disable = &setTrue

	case power.PowerState == "off" && c.DesiredState.BootArtifacts.Empty():
		newStatus.Phase = types.PhaseNone
		disable = &setTrue

	case power.PowerState == "off" && c.LastAction.Action == "power-on" && elapsedSince(c.LastAction.LastUpdated, now) > opts.MaxPowerOnWaitTime:
		newStatus.Phase = types.PhasePoweringOn
		failLastAction = true

	case power.PowerState == "off":
		newStatus.Phase = types.PhasePoweringOn

	case power.PowerState != "off" && c.DesiredState.BootArtifacts.Empty():
		newStatus.Phase = types.PhasePoweringOff

	case power.PowerState != "off" && artifactsMatch(c) && cfs.DesiredConfig != c.DesiredState.Configuration && c.DesiredState.Configuration != "":
		newStatus.Phase = types.PhaseConfiguring

	case power.PowerState != "off" && artifactsMatch(c) && c.DesiredState.Configuration == "":
		newStatus.Phase = types.PhaseNone
		disable = &setTrue

	case power.PowerState != "off" && artifactsMatch(c) && cfs.ConfigurationStatus == clients.CFSStatusConfigured:
		newStatus.Phase = types.PhaseNone
		disable = &setTrue

	case power.PowerState != "off" && artifactsMatch(c) && cfs.ConfigurationStatus == clients.CFSStatusFailed:
		newStatus.Phase = types.PhaseConfiguring
		newStatus.StatusOverride = "failed"
		disable = &setTrue
		setErr("cfs configuration failed")

	case power.PowerState != "off" && artifactsMatch(c) && cfs.ConfigurationStatus == clients.CFSStatusPending:
		newStatus.Phase = types.PhaseConfiguring

	case power.PowerState != "off" && artifactsMatch(c):
		newStatus.Phase = types.PhaseConfiguring
		newStatus.StatusOverride = "failed"
		disable = &setTrue
		setErr("cfs is not reporting a valid configuration status")

	case power.PowerState != "off" && c.LastAction.Action == "power-on" && elapsedSince(c.LastAction.LastUpdated, now) < opts.MaxBootWaitTime:
		newStatus.Phase = types.PhasePoweringOn

	default:
		newStatus.Phase = types.PhasePoweringOff
	}

	unchanged := newStatus == c.Status && disable == nil && errMsg == nil && !failLastAction
	if unchanged {
		return nil
	}

	patch := &types.ComponentPatch{ID: c.ID}
	patch.Status = &types.ComponentStatusPatch{
		Phase:          &newStatus.Phase,
		Status:         statusFor(newStatus, disable),
		StatusOverride: overridePtr(newStatus.StatusOverride),
	}
	if disable != nil {
		f := false
		patch.Enabled = &f
	}
	if errMsg != nil {
		patch.Error = errMsg
	}
	if failLastAction {
		la := c.LastAction
		la.Failed = true
		patch.LastAction = &la
	}
	return patch
}

func elapsedSince(t *time.Time, now time.Time) time.Duration {
	if t == nil {
		return 0
	}
	return now.Sub(*t)
}

func artifactsMatch(c types.Component) bool {
	return c.ActualState.BootArtifacts.Equal(c.DesiredState.BootArtifacts)
}

func statusFor(status types.ComponentStatus, disable *bool) *types.Status {
	if disable == nil {
		return nil
	}
	var s types.Status
	switch status.StatusOverride {
	case "failed", "on_hold":
		s = types.StatusFailed
	default:
		s = types.StatusStable
	}
	return &s
}

func overridePtr(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

// matchesDisableOnError reports whether a PCS error message matches one
// of the configured disable_based_on_error_xname_on_off substrings.
func matchesDisableOnError(msg string, substrings []string) bool {
	for _, s := range substrings {
		if s != "" && strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// disableOnErrorPatch builds the patch an operator applies when PCS
// reports a per-xname error ahead of a power transition: the error is
// copied to c.error, last_action is marked failed, and the component is
// additionally disabled if the error matches substrings.
func disableOnErrorPatch(id, errMsg string, substrings []string, action string) types.ComponentPatch {
	msg := errMsg
	patch := types.ComponentPatch{
		ID:         id,
		Error:      &msg,
		LastAction: &types.LastAction{Action: action, Failed: true},
	}
	if matchesDisableOnError(errMsg, substrings) {
		f := false
		patch.Enabled = &f
	}
	return patch
}
