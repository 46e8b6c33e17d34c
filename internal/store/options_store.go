package store

import (
	"context"
	"encoding/json"

	"dario.cat/mergo"

	"github.com/Cray-HPE/bos-sub000/internal/config"
)

// optionsKey is the single well-known key the options entity lives at
// (spec §3: "Options (single well-known key)").
const optionsKey = "options"

// OptionsStore persists the singleton config.Options record that
// overrides code-level defaults. Callers wire in a KV instance scoped to
// the options logical database.
type OptionsStore struct {
	kv KV
}

func NewOptionsStore(kv KV) *OptionsStore { return &OptionsStore{kv: kv} }

// Load returns config.Defaults() overlaid with whatever fields are
// present in the stored record. Missing fields keep their default,
// because the stored record may only set a subset (spec §3: "Defaults
// are code-level; DB entries override selectively").
func (s *OptionsStore) Load(ctx context.Context) (config.Options, error) {
	defaults := config.Defaults()
	raw, err := s.kv.Get(ctx, optionsKey)
	if err != nil {
		if err == ErrNotFound {
			return defaults, nil
		}
		return defaults, err
	}

	var stored config.Options
	if err := json.Unmarshal(raw, &stored); err != nil {
		return defaults, err
	}
	// Only fields actually set in the stored record should win; a
	// blank field in stored must fall through to the code-level
	// default rather than zeroing it out.
	if err := mergo.Merge(&stored, defaults); err != nil {
		return defaults, err
	}
	return stored, nil
}

func (s *OptionsStore) Save(ctx context.Context, opts config.Options) error {
	raw, err := json.Marshal(opts)
	if err != nil {
		return err
	}
	return s.kv.Put(ctx, optionsKey, raw)
}
