package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cray-HPE/bos-sub000/internal/store"
)

func TestStore_PutGetDelete(t *testing.T) {
	ctx := context.Background()
	s := New()

	require.NoError(t, s.Put(ctx, "k1", []byte("v1")))
	got, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got))

	require.NoError(t, s.Delete(ctx, "k1"))
	_, err = s.Get(ctx, "k1")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestStore_Get_MissingKeyReturnsErrNotFound(t *testing.T) {
	_, err := New().Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestStore_GetAndDelete_RemovesAfterRead(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Put(ctx, "k1", []byte("v1")))

	got, err := s.GetAndDelete(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got))

	_, err = s.Get(ctx, "k1")
	assert.True(t, errors.Is(err, store.ErrNotFound))
}

func TestStore_MGet_SkipsMissingKeys(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Put(ctx, "k1", []byte("v1")))

	got, err := s.MGet(ctx, []string{"k1", "missing"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"k1": []byte("v1")}, got)
}

func TestStore_MPut_WritesAllValues(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.MPut(ctx, map[string][]byte{"k1": []byte("v1"), "k2": []byte("v2")}))

	got, err := s.MGet(ctx, []string{"k1", "k2"})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestStore_Put_CopiesValueSoCallerMutationDoesNotLeak(t *testing.T) {
	ctx := context.Background()
	s := New()
	buf := []byte("original")
	require.NoError(t, s.Put(ctx, "k1", buf))
	buf[0] = 'X'

	got, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "original", string(got))
}

func TestStore_Iter_ReturnsAllKeysInLexicalOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Put(ctx, "c", []byte("3")))
	require.NoError(t, s.Put(ctx, "a", []byte("1")))
	require.NoError(t, s.Put(ctx, "b", []byte("2")))

	it, err := s.Iter(ctx, "", nil)
	require.NoError(t, err)

	var keys []string
	for {
		k, _, ok, err := it.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		keys = append(keys, k)
	}
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestStore_Iter_StartAfterExcludesUpToAndIncludingThatKey(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Put(ctx, "a", []byte("1")))
	require.NoError(t, s.Put(ctx, "b", []byte("2")))
	require.NoError(t, s.Put(ctx, "c", []byte("3")))

	it, err := s.Iter(ctx, "a", nil)
	require.NoError(t, err)

	var keys []string
	for {
		k, _, ok, err := it.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		keys = append(keys, k)
	}
	assert.Equal(t, []string{"b", "c"}, keys)
}

func TestStore_Iter_RestrictsToRequestedKeySubset(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Put(ctx, "a", []byte("1")))
	require.NoError(t, s.Put(ctx, "b", []byte("2")))
	require.NoError(t, s.Put(ctx, "c", []byte("3")))

	it, err := s.Iter(ctx, "", []string{"a", "c", "missing"})
	require.NoError(t, err)

	var keys []string
	for {
		k, _, ok, err := it.Next(ctx)
		require.NoError(t, err)
		if !ok {
			break
		}
		keys = append(keys, k)
	}
	assert.Equal(t, []string{"a", "c"}, keys)
}

func TestIterator_CloseIsANoOp(t *testing.T) {
	it, err := New().Iter(context.Background(), "", nil)
	require.NoError(t, err)
	assert.NoError(t, it.Close())
}
