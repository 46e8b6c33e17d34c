package operator

import (
	"context"
	"fmt"

	"github.com/Cray-HPE/bos-sub000/internal/clients"
	"github.com/Cray-HPE/bos-sub000/internal/config"
	"github.com/Cray-HPE/bos-sub000/internal/store"
	"github.com/Cray-HPE/bos-sub000/internal/types"
)

// Configuring issues CFS PATCH requests for components whose boot
// artifacts already match desired and which have a non-empty
// configuration not yet handed to CFS (spec §4.3 "ConfiguringOperator").
type Configuring struct {
	Components *store.ComponentStore
	CFS        *clients.CFS
}

func (op *Configuring) Name() string { return "configuring" }

func (op *Configuring) RunOnce(ctx context.Context, opts config.Options) error {
	enabled := true
	candidates, err := op.Components.List(ctx, store.Filter{Enabled: &enabled, Phase: types.PhaseConfiguring})
	if err != nil {
		return fmt.Errorf("configuring: list: %w", err)
	}

	bySession := map[string][]types.Component{}
	for _, c := range candidates {
		if c.DesiredState.Configuration == "" {
			continue
		}
		if !c.ActualState.BootArtifacts.Equal(c.DesiredState.BootArtifacts) {
			continue
		}
		bySession[sessionGroupKey(c)] = append(bySession[sessionGroupKey(c)], c)
	}

	patches := map[string]types.ComponentPatch{}
	for _, group := range bySession {
		ids := make([]string, len(group))
		for i, c := range group {
			ids[i] = c.ID
		}
		if err := op.CFS.PatchDesiredConfig(ctx, ids, group[0].DesiredState.Configuration, group[0].Session); err != nil {
			return fmt.Errorf("configuring: cfs patch: %w", err)
		}
		for _, c := range group {
			patches[c.ID] = types.ComponentPatch{
				ID:         c.ID,
				LastAction: &types.LastAction{Action: op.Name(), Failed: false},
			}
		}
	}
	return op.Components.BatchedUpdate(ctx, patches)
}

// sessionGroupKey groups components by (session, configuration) so a
// single CFS patch request can cover every component sharing both.
func sessionGroupKey(c types.Component) string {
	return c.Session + "\x00" + c.DesiredState.Configuration
}
