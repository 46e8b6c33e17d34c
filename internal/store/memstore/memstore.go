// Package memstore is an in-memory store.KV implementation used by
// operator and store tests in place of a live database.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/Cray-HPE/bos-sub000/internal/store"
)

// Store is a goroutine-safe, in-memory store.KV.
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func New() *Store {
	return &Store{data: make(map[string][]byte)}
}

func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (s *Store) Put(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(value))
	copy(cp, value)
	s.data[key] = cp
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

func (s *Store) GetAndDelete(ctx context.Context, key string) ([]byte, error) {
	v, err := s.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	_ = s.Delete(ctx, key)
	return v, nil
}

func (s *Store) MGet(_ context.Context, keys []string) (map[string][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]byte, len(keys))
	for _, k := range keys {
		if v, ok := s.data[k]; ok {
			cp := make([]byte, len(v))
			copy(cp, v)
			out[k] = cp
		}
	}
	return out, nil
}

func (s *Store) MPut(_ context.Context, values map[string][]byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		cp := make([]byte, len(v))
		copy(cp, v)
		s.data[k] = cp
	}
	return nil
}

func (s *Store) Iter(_ context.Context, startAfter string, keys []string) (store.Iterator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var selected []string
	if len(keys) > 0 {
		for _, k := range keys {
			if _, ok := s.data[k]; ok {
				selected = append(selected, k)
			}
		}
	} else {
		for k := range s.data {
			if startAfter == "" || k > startAfter {
				selected = append(selected, k)
			}
		}
	}
	sort.Strings(selected)

	values := make([][]byte, len(selected))
	for i, k := range selected {
		v := s.data[k]
		cp := make([]byte, len(v))
		copy(cp, v)
		values[i] = cp
	}

	return &iterator{keys: selected, values: values}, nil
}

type iterator struct {
	keys   []string
	values [][]byte
	pos    int
}

func (it *iterator) Next(_ context.Context) (string, []byte, bool, error) {
	if it.pos >= len(it.keys) {
		return "", nil, false, nil
	}
	k, v := it.keys[it.pos], it.values[it.pos]
	it.pos++
	return k, v, true, nil
}

func (it *iterator) Close() error { return nil }
