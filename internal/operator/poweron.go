package operator

import (
	"context"
	"fmt"
	"time"

	"github.com/Cray-HPE/bos-sub000/internal/clients"
	"github.com/Cray-HPE/bos-sub000/internal/config"
	"github.com/Cray-HPE/bos-sub000/internal/retrypolicy"
	"github.com/Cray-HPE/bos-sub000/internal/store"
	"github.com/Cray-HPE/bos-sub000/internal/types"
)

// PowerOn drives components whose desired boot artifacts are set but
// whose actual artifacts don't yet match, issuing PCS power-on
// transitions (spec §4.3 "PowerOnOperator").
type PowerOn struct {
	Components *store.ComponentStore
	PCS        *clients.PCS
	HSM        *clients.HSM
	Backoff    *retrypolicy.Calculator
	Now        func() time.Time
}

func (p *PowerOn) Name() string { return "power-on" }

func (p *PowerOn) RunOnce(ctx context.Context, opts config.Options) error {
	now := p.now()
	enabled := true
	candidates, err := p.Components.List(ctx, store.Filter{Enabled: &enabled, Phase: types.PhasePoweringOn})
	if err != nil {
		return fmt.Errorf("power-on: list: %w", err)
	}

	var ready []types.Component
	for _, c := range candidates {
		if c.DesiredState.BootArtifacts.Empty() {
			continue
		}
		if c.ActualState.BootArtifacts.Equal(c.DesiredState.BootArtifacts) {
			continue
		}
		if !p.Backoff.Ready(c.LastAction.LastUpdated, c.EventStats.PowerOnAttempts, retryPolicyOf(c, opts), now) {
			continue
		}
		ready = append(ready, c)
	}
	if len(ready) == 0 {
		return nil
	}

	locked, err := p.HSM.LockedNodes(ctx)
	if err != nil {
		return fmt.Errorf("power-on: hsm locked-nodes: %w", err)
	}
	unlocked := ready[:0]
	for _, c := range ready {
		if !locked[c.ID] {
			unlocked = append(unlocked, c)
		}
	}
	ready = unlocked
	if len(ready) == 0 {
		return nil
	}

	xnames := make([]string, len(ready))
	for i, c := range ready {
		xnames[i] = c.ID
	}
	states, err := p.PCS.PowerStatus(ctx, xnames)
	if err != nil {
		return fmt.Errorf("power-on: pcs power-status: %w", err)
	}
	stateByXname := make(map[string]clients.PowerState, len(states))
	for _, s := range states {
		stateByXname[s.Xname] = s
	}

	var toPowerOn []string
	patches := map[string]types.ComponentPatch{}
	for _, c := range ready {
		ps, ok := stateByXname[c.ID]
		if !ok {
			continue
		}
		if ps.Error != "" {
			patches[c.ID] = disableOnErrorPatch(c.ID, ps.Error, opts.DisableBasedOnErrorXnameOnOff, p.Name())
			continue
		}
		if ps.PowerState != "off" {
			continue
		}
		toPowerOn = append(toPowerOn, c.ID)
	}

	if len(toPowerOn) > 0 {
		if _, err := p.PCS.Transition(ctx, clients.TransitionOn, toPowerOn, int(opts.MaxPowerOnWaitTime.Minutes())); err != nil {
			return fmt.Errorf("power-on: pcs transition: %w", err)
		}
	}

	for _, id := range toPowerOn {
		patches[id] = types.ComponentPatch{
			ID:         id,
			LastAction: &types.LastAction{Action: p.Name(), Failed: false},
			EventStats: bumpPowerOnAttempts(ready, id),
		}
	}
	return p.Components.BatchedUpdate(ctx, patches)
}

func (p *PowerOn) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}

func retryPolicyOf(c types.Component, opts config.Options) int {
	if c.RetryPolicy > 0 {
		return c.RetryPolicy
	}
	return opts.DefaultRetryPolicy
}

func bumpPowerOnAttempts(components []types.Component, id string) *types.EventStats {
	for _, c := range components {
		if c.ID == id {
			stats := c.EventStats
			stats.PowerOnAttempts++
			return &stats
		}
	}
	return &types.EventStats{PowerOnAttempts: 1}
}
