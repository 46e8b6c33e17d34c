package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Cray-HPE/bos-sub000/internal/types"
)

// ComponentStore persists types.Component, global (not tenant-scoped),
// keyed by xname.
type ComponentStore struct {
	kv  KV
	now func() time.Time
}

func NewComponentStore(kv KV) *ComponentStore {
	return &ComponentStore{kv: kv, now: time.Now}
}

func (s *ComponentStore) Get(ctx context.Context, id string) (types.Component, error) {
	raw, err := s.kv.Get(ctx, id)
	if err != nil {
		return types.Component{}, err
	}
	var c types.Component
	if err := json.Unmarshal(raw, &c); err != nil {
		return types.Component{}, err
	}
	return c, nil
}

func (s *ComponentStore) Put(ctx context.Context, c types.Component) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.kv.Put(ctx, c.ID, raw)
}

func (s *ComponentStore) Delete(ctx context.Context, id string) error {
	return s.kv.Delete(ctx, id)
}

// MGet fetches exactly the requested ids, skipping ones not found.
func (s *ComponentStore) MGet(ctx context.Context, ids []string) (map[string]types.Component, error) {
	raws, err := s.kv.MGet(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]types.Component, len(raws))
	for id, raw := range raws {
		var c types.Component
		if err := json.Unmarshal(raw, &c); err != nil {
			continue
		}
		out[id] = c
	}
	return out, nil
}

// Filter selects which components List/Iterate returns.
type Filter struct {
	IDs           []string
	Enabled       *bool
	Session       string
	StagedSession string
	Phase         types.Phase
	Status        types.Status
}

func (f Filter) match(c types.Component) bool {
	if f.Enabled != nil && c.Enabled != *f.Enabled {
		return false
	}
	if f.Session != "" && c.Session != f.Session {
		return false
	}
	if f.StagedSession != "" && c.StagedState.Session != f.StagedSession {
		return false
	}
	if f.Phase != "" && c.Status.Phase != f.Phase {
		return false
	}
	if f.Status != "" && c.Status.Status != f.Status {
		return false
	}
	return true
}

// List returns every component matching f, in lexical xname order.
// Chunking for a bounded batch size is the caller's responsibility (spec
// §5: max_component_batch_size pages larger populations).
func (s *ComponentStore) List(ctx context.Context, f Filter) ([]types.Component, error) {
	it, err := s.kv.Iter(ctx, "", f.IDs)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []types.Component
	for {
		_, raw, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		var c types.Component
		if err := json.Unmarshal(raw, &c); err != nil {
			continue
		}
		if f.match(c) {
			out = append(out, c)
		}
	}
	return out, nil
}

// BatchedUpdate applies a patch per xname, re-reading each component
// first (the store provides per-key atomicity, not cross-key
// transactions, so this is read-modify-write per key, not a single
// atomic multi-key operation).
func (s *ComponentStore) BatchedUpdate(ctx context.Context, patches map[string]types.ComponentPatch) error {
	if len(patches) == 0 {
		return nil
	}
	ids := make([]string, 0, len(patches))
	for id := range patches {
		ids = append(ids, id)
	}
	existing, err := s.MGet(ctx, ids)
	if err != nil {
		return err
	}

	now := s.now().UTC()
	writes := make(map[string][]byte, len(patches))
	var errs error
	for id, patch := range patches {
		cur, ok := existing[id]
		if !ok {
			errs = errors.Join(errs, ErrNotFound)
			continue
		}
		merged := ApplyComponentPatch(cur, patch, now)
		raw, err := json.Marshal(merged)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		writes[id] = raw
	}
	if len(writes) > 0 {
		if err := s.kv.MPut(ctx, writes); err != nil {
			errs = errors.Join(errs, err)
		}
	}
	return errs
}
