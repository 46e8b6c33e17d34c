// Package redisstore is the store.KV backend used in production,
// grounded on the Python source's own Redis-backed persistence
// (src/bos/server/redis_db_utils.go-equivalent) and on the go-redis
// client used elsewhere in the example pack for service state.
package redisstore

import (
	"context"
	"sort"

	"github.com/go-redis/redis/v8"

	"github.com/Cray-HPE/bos-sub000/internal/store"
)

// Store adapts a single Redis logical database (selected by DB index at
// client construction, matching spec §6.3's "set of logical databases")
// to store.KV.
type Store struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Store {
	return &Store{rdb: rdb}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	v, err := s.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, store.ErrNotFound
	}
	return v, err
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	return s.rdb.Set(ctx, key, value, 0).Err()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

func (s *Store) GetAndDelete(ctx context.Context, key string) ([]byte, error) {
	v, err := s.rdb.GetDel(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, store.ErrNotFound
	}
	return v, err
}

func (s *Store) MGet(ctx context.Context, keys []string) (map[string][]byte, error) {
	if len(keys) == 0 {
		return map[string][]byte{}, nil
	}
	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(keys))
	for i, v := range vals {
		if v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		out[keys[i]] = []byte(s)
	}
	return out, nil
}

func (s *Store) MPut(ctx context.Context, values map[string][]byte) error {
	if len(values) == 0 {
		return nil
	}
	pipe := s.rdb.TxPipeline()
	for k, v := range values {
		pipe.Set(ctx, k, v, 0)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Iter scans the full keyspace (or the requested key subset) and returns
// it sorted lexically client-side: Redis SCAN makes no ordering
// guarantee, so true laziness is traded for the ordering spec §4.1
// requires. Acceptable at BOS's scale (tens of thousands of components).
func (s *Store) Iter(ctx context.Context, startAfter string, keys []string) (store.Iterator, error) {
	var selected []string
	if len(keys) > 0 {
		selected = keys
	} else {
		var cursor uint64
		for {
			batch, next, err := s.rdb.Scan(ctx, cursor, "", 1000).Result()
			if err != nil {
				return nil, err
			}
			selected = append(selected, batch...)
			cursor = next
			if cursor == 0 {
				break
			}
		}
	}
	sort.Strings(selected)
	if startAfter != "" {
		filtered := selected[:0]
		for _, k := range selected {
			if k > startAfter {
				filtered = append(filtered, k)
			}
		}
		selected = filtered
	}

	values, err := s.MGet(ctx, selected)
	if err != nil {
		return nil, err
	}
	ordered := make([]string, 0, len(values))
	for _, k := range selected {
		if _, ok := values[k]; ok {
			ordered = append(ordered, k)
		}
	}

	return &iterator{keys: ordered, values: values}, nil
}

type iterator struct {
	keys   []string
	values map[string][]byte
	pos    int
}

func (it *iterator) Next(_ context.Context) (string, []byte, bool, error) {
	if it.pos >= len(it.keys) {
		return "", nil, false, nil
	}
	k := it.keys[it.pos]
	it.pos++
	return k, it.values[k], true, nil
}

func (it *iterator) Close() error { return nil }
