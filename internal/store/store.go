// Package store is the thin, tenant-aware abstraction over a key/value
// database spec §4.1 describes. It assumes atomic per-key get/set/delete;
// no multi-key transaction is required because the reconciliation model
// tolerates stale reads (operators write only diffs and re-run next
// pass).
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

// ErrNotFound is returned by Get/GetAndDelete when a key has no entry.
var ErrNotFound = errors.New("store: not found")

// KV is the raw, opaque-value key/value contract every backend
// implements. Values are JSON-encoded by the typed layer above this
// package, not by KV itself.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	GetAndDelete(ctx context.Context, key string) ([]byte, error)

	MGet(ctx context.Context, keys []string) (map[string][]byte, error)
	MPut(ctx context.Context, values map[string][]byte) error

	// Iter yields (key, value) pairs in lexical key order. startAfter, if
	// non-empty, skips keys lexically <= it. If keys is non-empty, Iter
	// is restricted to exactly those keys (still yielded in lexical
	// order) instead of scanning the whole keyspace.
	Iter(ctx context.Context, startAfter string, keys []string) (Iterator, error)
}

// Iterator is a lazy sequence of key/value pairs.
type Iterator interface {
	Next(ctx context.Context) (key string, value []byte, ok bool, err error)
	Close() error
}

// TenantKey computes the tenant-aware key of spec §3: H(tenant) xor
// H(name), hex-encoded. The empty tenant is permitted and represents the
// default tenant; it is not special-cased, so its hash is mixed in like
// any other tenant's.
func TenantKey(name, tenant string) string {
	hn := sha256.Sum256([]byte(name))
	ht := sha256.Sum256([]byte(tenant))
	out := make([]byte, len(hn))
	for i := range hn {
		out[i] = hn[i] ^ ht[i]
	}
	return hex.EncodeToString(out)
}
