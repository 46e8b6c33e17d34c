package operator

import (
	"context"
	"fmt"
	"time"

	"github.com/Cray-HPE/bos-sub000/internal/store"
	"github.com/Cray-HPE/bos-sub000/internal/types"
)

// ApplyStagedResult partitions the requested xnames by outcome, per
// spec §4.3 "ApplyStagedOperator".
type ApplyStagedResult struct {
	Succeeded []string
	Failed    []string
	Ignored   []string
}

// ApplyStaged is called on request, not polled: it promotes staged_state
// to desired_state for the requested xnames. No binary in this module
// calls it; there is no REST handler here.
type ApplyStaged struct {
	Components *store.ComponentStore
	Sessions   *store.SessionStore
	Now        func() time.Time
}

func (a *ApplyStaged) Apply(ctx context.Context, xnames []string) (ApplyStagedResult, error) {
	comps, err := a.Components.MGet(ctx, xnames)
	if err != nil {
		return ApplyStagedResult{}, fmt.Errorf("apply-staged: mget: %w", err)
	}

	var result ApplyStagedResult
	patches := map[string]types.ComponentPatch{}
	for _, id := range xnames {
		c, ok := comps[id]
		if !ok || c.StagedState.Session == "" {
			result.Ignored = append(result.Ignored, id)
			continue
		}

		sess, found, err := a.Sessions.GetByName(ctx, c.StagedState.Session)
		if err != nil {
			return result, fmt.Errorf("apply-staged: session lookup: %w", err)
		}
		if !found {
			result.Failed = append(result.Failed, id)
			continue
		}

		artifacts := c.StagedState.BootArtifacts
		switch sess.Operation {
		case types.OperationShutdown:
			if !artifacts.Empty() {
				result.Failed = append(result.Failed, id)
				continue
			}
		case types.OperationBoot, types.OperationReboot:
			if artifacts.Kernel == "" || artifacts.Initrd == "" || artifacts.KernelParameters == "" {
				result.Failed = append(result.Failed, id)
				continue
			}
		default:
			result.Failed = append(result.Failed, id)
			continue
		}

		conf := c.StagedState.Configuration
		token := c.StagedState.BSSToken
		session := c.StagedState.Session
		patch := types.ComponentPatch{
			ID: id,
			DesiredState: &types.DesiredStatePatch{
				BootArtifacts: &artifacts,
				Configuration: &conf,
				BSSToken:      &token,
			},
			Session: &session,
			StagedState: &types.StagedStatePatch{
				DesiredStatePatch: types.DesiredStatePatch{
					BootArtifacts: &types.BootArtifacts{},
					Configuration: strPtr(""),
					BSSToken:      strPtr(""),
				},
				Session: strPtr(""),
			},
		}
		if sess.Operation == types.OperationReboot {
			patch.ActualState = &types.ActualStatePatch{Clear: true}
		}
		patches[id] = patch
		result.Succeeded = append(result.Succeeded, id)
	}

	if len(patches) > 0 {
		if err := a.Components.BatchedUpdate(ctx, patches); err != nil {
			return result, fmt.Errorf("apply-staged: batched update: %w", err)
		}
	}
	return result, nil
}

func strPtr(s string) *string { return &s }
