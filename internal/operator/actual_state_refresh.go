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

// ActualStateRefresh reconciles actual_state against what BSS currently
// reports for a node. BSS is the source of truth for bss_token; the
// boot_artifacts triple a token represents is recovered from the cache
// session-setup populated when it resolved the manifest, so a node
// reporting a token in common use doesn't force a second manifest read.
type ActualStateRefresh struct {
	Components *store.ComponentStore
	BSS        *clients.BSS
	Cache      *store.BootArtifactCache
	Now        func() time.Time
}

func (a *ActualStateRefresh) Name() string { return "actual-state-refresh" }

func (a *ActualStateRefresh) RunOnce(ctx context.Context, _ config.Options) error {
	enabled := true
	components, err := a.Components.List(ctx, store.Filter{Enabled: &enabled})
	if err != nil {
		return fmt.Errorf("actual-state-refresh: list: %w", err)
	}

	patches := map[string]types.ComponentPatch{}
	for _, c := range components {
		if c.DesiredState.BootArtifacts.Empty() {
			continue
		}
		if c.ActualState.BSSToken == c.DesiredState.BSSToken && !c.ActualState.BootArtifacts.Empty() {
			continue
		}

		params, err := a.BSS.BootParams(ctx, c.ID)
		if err != nil {
			continue
		}
		token := clients.TokenFor(params.Kernel, params.Params)
		if token != c.DesiredState.BSSToken {
			continue
		}

		artifacts, ok, err := a.Cache.Get(ctx, token)
		if err != nil {
			return fmt.Errorf("actual-state-refresh: %s: cache get: %w", c.ID, err)
		}
		if !ok {
			continue
		}

		now := a.now()
		patches[c.ID] = types.ComponentPatch{
			ID: c.ID,
			ActualState: &types.ActualStatePatch{
				BootArtifacts: &artifacts,
				BSSToken:      &token,
			},
			LastAction: &types.LastAction{Action: c.LastAction.Action, LastUpdated: &now, Failed: c.LastAction.Failed},
		}
	}
	if len(patches) == 0 {
		return nil
	}
	return a.Components.BatchedUpdate(ctx, patches)
}

func (a *ActualStateRefresh) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now().UTC()
}
