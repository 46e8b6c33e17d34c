package operator

import (
	"context"
	"fmt"
	"time"

	"github.com/Cray-HPE/bos-sub000/internal/config"
	"github.com/Cray-HPE/bos-sub000/internal/store"
	"github.com/Cray-HPE/bos-sub000/internal/types"
)

// ActualStateCleanup clears a component's actual_state once it has gone
// stale past component_actual_state_ttl, forcing re-observation on the
// next status pass (spec §4.3 "ActualStateCleanupOperator").
type ActualStateCleanup struct {
	Components *store.ComponentStore
	Now        func() time.Time
}

func (a *ActualStateCleanup) Name() string { return "actual-state-cleanup" }

func (a *ActualStateCleanup) RunOnce(ctx context.Context, opts config.Options) error {
	now := a.now()
	enabled := true
	components, err := a.Components.List(ctx, store.Filter{Enabled: &enabled})
	if err != nil {
		return fmt.Errorf("actual-state-cleanup: list: %w", err)
	}

	patches := map[string]types.ComponentPatch{}
	for _, c := range components {
		if c.ActualState.LastUpdated == nil {
			continue
		}
		if now.Sub(*c.ActualState.LastUpdated) < opts.ComponentActualStateTTL {
			continue
		}
		patches[c.ID] = types.ComponentPatch{
			ID:          c.ID,
			ActualState: &types.ActualStatePatch{Clear: true},
		}
	}
	return a.Components.BatchedUpdate(ctx, patches)
}

func (a *ActualStateCleanup) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now().UTC()
}
