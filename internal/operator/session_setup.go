package operator

import (
	"context"
	"fmt"
	"time"

	"github.com/Cray-HPE/bos-sub000/internal/boserrors"
	"github.com/Cray-HPE/bos-sub000/internal/clients"
	"github.com/Cray-HPE/bos-sub000/internal/config"
	"github.com/Cray-HPE/bos-sub000/internal/imageresolver"
	"github.com/Cray-HPE/bos-sub000/internal/limit"
	"github.com/Cray-HPE/bos-sub000/internal/store"
	"github.com/Cray-HPE/bos-sub000/internal/types"
)

// SessionSetup expands pending sessions into per-component desired (or
// staged) state, per spec §4.2.
type SessionSetup struct {
	Sessions   *store.SessionStore
	Components *store.ComponentStore
	Templates  *store.TemplateStore
	HSM        *clients.HSM
	Tenants    *clients.TenantAuthority
	Resolver   *imageresolver.Resolver
	Cache      *store.BootArtifactCache
	Now        func() time.Time
}

// bssTokenTTL bounds how long a resolved boot_artifacts triple stays
// reachable by its bss_token; comfortably longer than any single boot
// attempt should take.
const bssTokenTTL = 24 * time.Hour

func (s *SessionSetup) Name() string { return "session-setup" }

func (s *SessionSetup) RunOnce(ctx context.Context, _ config.Options) error {
	sessions, err := s.Sessions.List(ctx, store.SessionFilter{Status: types.SessionPending}, s.now())
	if err != nil {
		return fmt.Errorf("session-setup: list pending sessions: %w", err)
	}
	for _, sess := range sessions {
		if err := s.setup(ctx, sess); err != nil {
			sess.Status.Status = types.SessionComplete
			sess.Status.Error = err.Error()
			now := s.now()
			sess.Status.EndTime = &now
			_ = s.Sessions.Put(ctx, sess)
		}
	}
	return nil
}

func (s *SessionSetup) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *SessionSetup) setup(ctx context.Context, sess types.Session) error {
	tmpl, err := s.Templates.Get(ctx, sess.TemplateName, sess.Tenant)
	if err != nil {
		return boserrors.New(boserrors.KindMissingReferent, "session-setup.setup", err)
	}

	var claimSet map[string]bool
	if sess.Tenant != "" {
		claimSet, err = s.Tenants.ClaimSet(ctx, sess.Tenant)
		if err != nil {
			return err
		}
	}

	universe := map[string]bool{}
	bootSetOf := map[string]string{}
	for bsName, bs := range tmpl.BootSets {
		ids, err := s.expandBootSet(ctx, bs)
		if err != nil {
			return err
		}
		for _, id := range ids {
			universe[id] = true
			bootSetOf[id] = bsName
		}
	}
	var universeList []string
	for id := range universe {
		universeList = append(universeList, id)
	}

	selected := universeList
	if sess.Limit != "" {
		expr := limit.Parse(sess.Limit)
		selected = limit.Apply(expr, universeList, func(term string) []string {
			return s.resolveLimitTerm(ctx, term, universeList)
		})
	}

	if sess.Tenant != "" {
		filtered := selected[:0]
		for _, id := range selected {
			if claimSet[id] {
				filtered = append(filtered, id)
			}
		}
		selected = filtered
	}

	if !sess.IncludeDisabled {
		selected, err = s.dropDisabled(ctx, selected)
		if err != nil {
			return err
		}
	}

	selected, err = s.dropLocked(ctx, selected)
	if err != nil {
		return err
	}

	patches := map[string]types.ComponentPatch{}
	for _, id := range selected {
		bsName, ok := bootSetOf[id]
		if !ok {
			continue
		}
		bs := tmpl.BootSets[bsName]
		patch, err := s.componentPatch(ctx, sess, tmpl, bsName, bs, id)
		if err != nil {
			return fmt.Errorf("session-setup: %s: %w", id, err)
		}
		patches[id] = patch
	}
	if err := s.Components.BatchedUpdate(ctx, patches); err != nil {
		return fmt.Errorf("session-setup: batched update: %w", err)
	}

	joined := ""
	for i, id := range selected {
		if i > 0 {
			joined += ","
		}
		joined += id
	}
	sess.Components = joined
	sess.Status.Status = types.SessionRunning
	now := s.now()
	sess.Status.StartTime = &now
	return s.Sessions.Put(ctx, sess)
}

func (s *SessionSetup) expandBootSet(ctx context.Context, bs types.BootSet) ([]string, error) {
	ids := map[string]bool{}
	for _, id := range bs.NodeList {
		ids[id] = true
	}
	if len(bs.NodeGroups) > 0 {
		groups, err := s.HSM.Groups(ctx, bs.NodeGroups)
		if err != nil {
			return nil, err
		}
		for _, g := range groups {
			for _, id := range g.Members.IDs {
				ids[id] = true
			}
		}
	}
	if len(bs.NodeRolesGroups) > 0 {
		members, err := s.HSM.RolesGroups(ctx, bs.NodeRolesGroups)
		if err != nil {
			return nil, err
		}
		for _, m := range members {
			ids[m.ID] = true
		}
	}
	out := make([]string, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	return out, nil
}

// resolveLimitTerm treats a limit term as an xname if it's a member of
// universe, else as an HSM group label to expand.
func (s *SessionSetup) resolveLimitTerm(ctx context.Context, term string, universe []string) []string {
	for _, id := range universe {
		if id == term {
			return []string{term}
		}
	}
	groups, err := s.HSM.Groups(ctx, []string{term})
	if err != nil || len(groups) == 0 {
		return nil
	}
	return groups[0].Members.IDs
}

func (s *SessionSetup) dropDisabled(ctx context.Context, ids []string) ([]string, error) {
	comps, err := s.Components.MGet(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if c, ok := comps[id]; ok && !c.Enabled {
			continue
		}
		out = append(out, id)
	}
	return out, nil
}

// dropLocked excludes xnames HSM reports as locked, matching the
// Python source's lock check ahead of session expansion.
func (s *SessionSetup) dropLocked(ctx context.Context, ids []string) ([]string, error) {
	locked, err := s.HSM.LockedNodes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !locked[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *SessionSetup) componentPatch(ctx context.Context, sess types.Session, tmpl types.SessionTemplate, bsName string, bs types.BootSet, id string) (types.ComponentPatch, error) {
	patch := types.ComponentPatch{ID: id}

	var artifacts types.BootArtifacts
	var configuration string
	var token string

	switch sess.Operation {
	case types.OperationBoot, types.OperationReboot:
		resolved, err := s.Resolver.Resolve(ctx, bs, sess.Name)
		if err != nil {
			return patch, err
		}
		artifacts = resolved
		if tmpl.EnableCFS {
			configuration = tmpl.EffectiveConfiguration(bsName)
		}
		token = clients.TokenFor(artifacts.Kernel, artifacts.KernelParameters)
		if s.Cache != nil {
			if err := s.Cache.Put(ctx, token, artifacts, bssTokenTTL); err != nil {
				return patch, fmt.Errorf("cache boot artifacts: %w", err)
			}
		}
	case types.OperationShutdown:
		artifacts = types.BootArtifacts{}
		configuration = ""
	default:
		return patch, fmt.Errorf("unknown operation %q", sess.Operation)
	}

	if sess.Stage {
		patch.StagedState = &types.StagedStatePatch{
			DesiredStatePatch: types.DesiredStatePatch{
				BootArtifacts: &artifacts,
				Configuration: &configuration,
				BSSToken:      &token,
			},
			Session: &sess.Name,
		}
		return patch, nil
	}

	patch.DesiredState = &types.DesiredStatePatch{
		BootArtifacts: &artifacts,
		Configuration: &configuration,
		BSSToken:      &token,
	}
	patch.Session = &sess.Name
	empty := ""
	patch.Error = &empty
	if sess.Operation == types.OperationReboot {
		patch.ActualState = &types.ActualStatePatch{BSSToken: &empty}
	}
	return patch, nil
}
