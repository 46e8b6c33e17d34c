package store

import (
	"context"
	"encoding/json"

	"github.com/Cray-HPE/bos-sub000/internal/types"
)

// TemplateStore persists types.SessionTemplate, tenant-aware keyed by
// name. Callers wire in a KV instance scoped to the session_templates
// logical database (spec §6.3); it must not share a keyspace with
// ComponentStore or SessionStore.
type TemplateStore struct {
	kv KV
}

func NewTemplateStore(kv KV) *TemplateStore { return &TemplateStore{kv: kv} }

func (s *TemplateStore) Get(ctx context.Context, name, tenant string) (types.SessionTemplate, error) {
	raw, err := s.kv.Get(ctx, TenantKey(name, tenant))
	if err != nil {
		return types.SessionTemplate{}, err
	}
	var t types.SessionTemplate
	if err := json.Unmarshal(raw, &t); err != nil {
		return types.SessionTemplate{}, err
	}
	return t, nil
}

func (s *TemplateStore) Put(ctx context.Context, t types.SessionTemplate) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return err
	}
	return s.kv.Put(ctx, TenantKey(t.Name, t.Tenant), raw)
}

func (s *TemplateStore) Delete(ctx context.Context, name, tenant string) error {
	return s.kv.Delete(ctx, TenantKey(name, tenant))
}

func (s *TemplateStore) List(ctx context.Context) ([]types.SessionTemplate, error) {
	it, err := s.kv.Iter(ctx, "", nil)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var out []types.SessionTemplate
	for {
		_, raw, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		var t types.SessionTemplate
		if err := json.Unmarshal(raw, &t); err != nil {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}
