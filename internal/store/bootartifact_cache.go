package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Cray-HPE/bos-sub000/internal/types"
)

// bssTokenEntry is the cache record for one bss_token -> boot artifacts
// mapping, with an absolute expiry so reads past TTL are treated as
// misses without a separate reaper.
type bssTokenEntry struct {
	Artifacts types.BootArtifacts `json:"artifacts"`
	ExpiresAt time.Time           `json:"expires_at"`
}

// BootArtifactCache maps bss_token -> boot_artifacts (spec §3's ancillary
// cache), letting a bare bss_token observed on a node be translated back
// into the artifacts it represents. Callers wire in a KV instance scoped
// to the bss_tokens_boot_artifacts logical database.
type BootArtifactCache struct {
	kv  KV
	now func() time.Time
}

func NewBootArtifactCache(kv KV) *BootArtifactCache {
	return &BootArtifactCache{kv: kv, now: time.Now}
}

func (c *BootArtifactCache) Put(ctx context.Context, token string, artifacts types.BootArtifacts, ttl time.Duration) error {
	entry := bssTokenEntry{Artifacts: artifacts, ExpiresAt: c.now().Add(ttl)}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.kv.Put(ctx, token, raw)
}

// Get returns the cached artifacts for token, or ok=false if absent or
// expired.
func (c *BootArtifactCache) Get(ctx context.Context, token string) (artifacts types.BootArtifacts, ok bool, err error) {
	raw, err := c.kv.Get(ctx, token)
	if err != nil {
		if err == ErrNotFound {
			return types.BootArtifacts{}, false, nil
		}
		return types.BootArtifacts{}, false, err
	}
	var entry bssTokenEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return types.BootArtifacts{}, false, err
	}
	if c.now().After(entry.ExpiresAt) {
		return types.BootArtifacts{}, false, nil
	}
	return entry.Artifacts, true, nil
}
