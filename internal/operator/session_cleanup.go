package operator

import (
	"context"
	"fmt"
	"time"

	"github.com/Cray-HPE/bos-sub000/internal/config"
	"github.com/Cray-HPE/bos-sub000/internal/store"
	"github.com/Cray-HPE/bos-sub000/internal/types"
)

// SessionCleanup deletes completed sessions whose end_time is older
// than cleanup_completed_session_ttl (spec §4.3 "SessionCleanupOperator").
type SessionCleanup struct {
	Sessions *store.SessionStore
	Now      func() time.Time
}

func (s *SessionCleanup) Name() string { return "session-cleanup" }

func (s *SessionCleanup) RunOnce(ctx context.Context, opts config.Options) error {
	now := s.now()
	minAge := opts.CleanupCompletedSessionTTL
	complete, err := s.Sessions.List(ctx, store.SessionFilter{Status: types.SessionComplete, MinAge: &minAge}, now)
	if err != nil {
		return fmt.Errorf("session-cleanup: list: %w", err)
	}
	for _, sess := range complete {
		if sess.Status.EndTime == nil || now.Sub(*sess.Status.EndTime) < opts.CleanupCompletedSessionTTL {
			continue
		}
		if err := s.Sessions.Delete(ctx, sess.Name, sess.Tenant); err != nil {
			return fmt.Errorf("session-cleanup: delete %s: %w", sess.Name, err)
		}
	}
	return nil
}

func (s *SessionCleanup) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}
