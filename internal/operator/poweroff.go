package operator

import (
	"context"
	"fmt"
	"time"

	"github.com/Cray-HPE/bos-sub000/internal/clients"
	"github.com/Cray-HPE/bos-sub000/internal/config"
	"github.com/Cray-HPE/bos-sub000/internal/store"
	"github.com/Cray-HPE/bos-sub000/internal/types"
)

// PowerOffGraceful issues a soft power-off to components whose desired
// state is off (or which need a power cycle for reboot) while they are
// still on, up to the configured graceful-attempt threshold (spec §4.3
// "PowerOffGracefulOperator").
type PowerOffGraceful struct {
	Components *store.ComponentStore
	PCS        *clients.PCS
	HSM        *clients.HSM
	Now        func() time.Time
}

func (p *PowerOffGraceful) Name() string { return "power-off-graceful" }

func (p *PowerOffGraceful) RunOnce(ctx context.Context, opts config.Options) error {
	enabled := true
	candidates, err := p.Components.List(ctx, store.Filter{Enabled: &enabled, Phase: types.PhasePoweringOff})
	if err != nil {
		return fmt.Errorf("power-off-graceful: list: %w", err)
	}

	var targets []types.Component
	for _, c := range candidates {
		if c.EventStats.PowerOffGracefulAttempts >= opts.GracefulPowerOffAttemptThreshold {
			continue
		}
		targets = append(targets, c)
	}
	if len(targets) == 0 {
		return nil
	}

	locked, err := p.HSM.LockedNodes(ctx)
	if err != nil {
		return fmt.Errorf("power-off-graceful: hsm locked-nodes: %w", err)
	}
	unlocked := targets[:0]
	for _, c := range targets {
		if !locked[c.ID] {
			unlocked = append(unlocked, c)
		}
	}
	targets = unlocked
	if len(targets) == 0 {
		return nil
	}

	xnames := make([]string, len(targets))
	for i, c := range targets {
		xnames[i] = c.ID
	}
	states, err := p.PCS.PowerStatus(ctx, xnames)
	if err != nil {
		return fmt.Errorf("power-off-graceful: pcs power-status: %w", err)
	}
	stateByXname := make(map[string]clients.PowerState, len(states))
	for _, s := range states {
		stateByXname[s.Xname] = s
	}

	patches := map[string]types.ComponentPatch{}
	var toPowerOff []string
	for _, c := range targets {
		ps, ok := stateByXname[c.ID]
		if ok {
			if ps.Error != "" {
				patches[c.ID] = disableOnErrorPatch(c.ID, ps.Error, opts.DisableBasedOnErrorXnameOnOff, p.Name())
				continue
			}
			if ps.PowerState == "off" {
				continue
			}
		}
		toPowerOff = append(toPowerOff, c.ID)
	}
	if len(toPowerOff) == 0 {
		return p.Components.BatchedUpdate(ctx, patches)
	}

	if _, err := p.PCS.Transition(ctx, clients.TransitionSoftOff, toPowerOff, int(opts.MaxPowerOffWaitTime.Minutes())); err != nil {
		return fmt.Errorf("power-off-graceful: pcs transition: %w", err)
	}

	for _, c := range targets {
		found := false
		for _, id := range toPowerOff {
			if id == c.ID {
				found = true
				break
			}
		}
		if !found {
			continue
		}
		stats := c.EventStats
		stats.PowerOffGracefulAttempts++
		patches[c.ID] = types.ComponentPatch{
			ID:         c.ID,
			LastAction: &types.LastAction{Action: p.Name(), Failed: false},
			EventStats: &stats,
		}
	}
	return p.Components.BatchedUpdate(ctx, patches)
}

// PowerOffForceful escalates components that have exhausted graceful
// attempts and remain on past max_power_off_wait_time (spec §4.3
// "PowerOffForcefulOperator").
type PowerOffForceful struct {
	Components *store.ComponentStore
	PCS        *clients.PCS
	HSM        *clients.HSM
	Now        func() time.Time
}

func (p *PowerOffForceful) Name() string { return "power-off-forceful" }

func (p *PowerOffForceful) RunOnce(ctx context.Context, opts config.Options) error {
	now := p.now()
	enabled := true
	candidates, err := p.Components.List(ctx, store.Filter{Enabled: &enabled, Phase: types.PhasePoweringOff})
	if err != nil {
		return fmt.Errorf("power-off-forceful: list: %w", err)
	}

	var targets []types.Component
	for _, c := range candidates {
		if c.EventStats.PowerOffGracefulAttempts < opts.GracefulPowerOffAttemptThreshold {
			continue
		}
		if c.LastAction.LastUpdated != nil && now.Sub(*c.LastAction.LastUpdated) < opts.MaxPowerOffWaitTime {
			continue
		}
		targets = append(targets, c)
	}
	if len(targets) == 0 {
		return nil
	}

	locked, err := p.HSM.LockedNodes(ctx)
	if err != nil {
		return fmt.Errorf("power-off-forceful: hsm locked-nodes: %w", err)
	}
	unlocked := targets[:0]
	for _, c := range targets {
		if !locked[c.ID] {
			unlocked = append(unlocked, c)
		}
	}
	targets = unlocked
	if len(targets) == 0 {
		return nil
	}

	xnames := make([]string, len(targets))
	for i, c := range targets {
		xnames[i] = c.ID
	}
	if _, err := p.PCS.Transition(ctx, clients.TransitionForceOff, xnames, int(opts.MaxPowerOffWaitTime.Minutes())); err != nil {
		return fmt.Errorf("power-off-forceful: pcs transition: %w", err)
	}

	patches := map[string]types.ComponentPatch{}
	for _, c := range targets {
		stats := c.EventStats
		stats.PowerOffForcefulAttempts++
		patches[c.ID] = types.ComponentPatch{
			ID:         c.ID,
			LastAction: &types.LastAction{Action: p.Name(), Failed: false},
			EventStats: &stats,
		}
	}
	return p.Components.BatchedUpdate(ctx, patches)
}

func (p *PowerOffForceful) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}
