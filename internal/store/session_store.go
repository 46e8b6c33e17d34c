package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Cray-HPE/bos-sub000/internal/types"
)

// SessionStore persists types.Session, tenant-aware keyed by name.
type SessionStore struct {
	kv KV
}

func NewSessionStore(kv KV) *SessionStore { return &SessionStore{kv: kv} }

func (s *SessionStore) Get(ctx context.Context, name, tenant string) (types.Session, error) {
	raw, err := s.kv.Get(ctx, TenantKey(name, tenant))
	if err != nil {
		return types.Session{}, err
	}
	var sess types.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return types.Session{}, err
	}
	return sess, nil
}

func (s *SessionStore) Put(ctx context.Context, sess types.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.kv.Put(ctx, TenantKey(sess.Name, sess.Tenant), raw)
}

func (s *SessionStore) Delete(ctx context.Context, name, tenant string) error {
	return s.kv.Delete(ctx, TenantKey(name, tenant))
}

// SessionFilter selects sessions for List (the GET/DELETE /sessions
// query parameters of spec §6.1).
type SessionFilter struct {
	MinAge *time.Duration
	MaxAge *time.Duration
	Status types.SessionState
}

func (f SessionFilter) match(sess types.Session, now time.Time) bool {
	if f.Status != "" && sess.Status.Status != f.Status {
		return false
	}
	age := sessionAge(sess, now)
	if f.MinAge != nil && age < *f.MinAge {
		return false
	}
	if f.MaxAge != nil && age > *f.MaxAge {
		return false
	}
	return true
}

func sessionAge(sess types.Session, now time.Time) time.Duration {
	if sess.Status.StartTime == nil {
		return 0
	}
	return now.Sub(*sess.Status.StartTime)
}

// GetByName scans for a session by name alone, tenant-agnostic. Used
// where only the bare session name is on hand, such as a component's
// staged_state.session, which doesn't carry the owning tenant.
func (s *SessionStore) GetByName(ctx context.Context, name string) (types.Session, bool, error) {
	it, err := s.kv.Iter(ctx, "", nil)
	if err != nil {
		return types.Session{}, false, err
	}
	defer it.Close()

	for {
		_, raw, ok, err := it.Next(ctx)
		if err != nil {
			return types.Session{}, false, err
		}
		if !ok {
			break
		}
		var sess types.Session
		if err := json.Unmarshal(raw, &sess); err != nil {
			continue
		}
		if sess.Name == name {
			return sess, true, nil
		}
	}
	return types.Session{}, false, nil
}

// List scans every session (tenant-agnostic; callers filter by tenant
// membership separately since tenant keys are opaque hashes, not
// prefixes) and returns those matching f.
func (s *SessionStore) List(ctx context.Context, f SessionFilter, now time.Time) ([]types.Session, error) {
	it, err := s.kv.Iter(ctx, "", nil)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []types.Session
	for {
		_, raw, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		var sess types.Session
		if err := json.Unmarshal(raw, &sess); err != nil {
			continue
		}
		if sess.Name == "" {
			continue // not a session record
		}
		if f.match(sess, now) {
			out = append(out, sess)
		}
	}
	return out, nil
}
