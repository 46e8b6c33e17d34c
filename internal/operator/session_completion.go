package operator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Cray-HPE/bos-sub000/internal/config"
	"github.com/Cray-HPE/bos-sub000/internal/store"
	"github.com/Cray-HPE/bos-sub000/internal/types"
)

// SessionCompletion flips a running session to complete once every
// component it owns has reached a terminal phase (spec §4.3
// "SessionCompletionOperator").
type SessionCompletion struct {
	Sessions   *store.SessionStore
	Components *store.ComponentStore
	Now        func() time.Time
}

func (s *SessionCompletion) Name() string { return "session-completion" }

func (s *SessionCompletion) RunOnce(ctx context.Context, opts config.Options) error {
	now := s.now()
	running, err := s.Sessions.List(ctx, store.SessionFilter{Status: types.SessionRunning}, now)
	if err != nil {
		return fmt.Errorf("session-completion: list: %w", err)
	}

	for _, sess := range running {
		ids := splitComponents(sess.Components)
		if len(ids) == 0 {
			continue
		}
		comps, err := s.Components.MGet(ctx, ids)
		if err != nil {
			return fmt.Errorf("session-completion: mget: %w", err)
		}
		allTerminal := true
		for _, id := range ids {
			c, ok := comps[id]
			if !ok || c.Status.Phase != types.PhaseNone {
				allTerminal = false
				break
			}
		}
		if !allTerminal {
			continue
		}

		sess.Status.Status = types.SessionComplete
		sess.Status.EndTime = &now
		if err := s.Sessions.Put(ctx, sess); err != nil {
			return fmt.Errorf("session-completion: put session: %w", err)
		}

		if opts.DisableComponentsOnCompletion {
			patches := map[string]types.ComponentPatch{}
			f := false
			for _, id := range ids {
				patches[id] = types.ComponentPatch{ID: id, Enabled: &f}
			}
			if err := s.Components.BatchedUpdate(ctx, patches); err != nil {
				return fmt.Errorf("session-completion: disable components: %w", err)
			}
		}
	}
	return nil
}

func (s *SessionCompletion) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func splitComponents(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, ",")
}
