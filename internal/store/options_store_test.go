package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cray-HPE/bos-sub000/internal/config"
	"github.com/Cray-HPE/bos-sub000/internal/store/memstore"
)

func TestOptionsStore_Load_ReturnsDefaultsWhenUnset(t *testing.T) {
	ctx := context.Background()
	s := NewOptionsStore(memstore.New())

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, config.Defaults(), got)
}

func TestOptionsStore_Load_OverlaysOnlyFieldsActuallySet(t *testing.T) {
	ctx := context.Background()
	s := NewOptionsStore(memstore.New())

	partial := config.Options{PollingFrequency: 30 * time.Second}
	require.NoError(t, s.Save(ctx, partial))

	got, err := s.Load(ctx)
	require.NoError(t, err)

	defaults := config.Defaults()
	assert.Equal(t, 30*time.Second, got.PollingFrequency, "explicitly stored field wins")
	assert.Equal(t, defaults.MaxBootWaitTime, got.MaxBootWaitTime, "unset field falls through to the default")
	assert.Equal(t, defaults.DefaultRetryPolicy, got.DefaultRetryPolicy)
}

func TestOptionsStore_SaveThenLoad_RoundTripsFullRecord(t *testing.T) {
	ctx := context.Background()
	s := NewOptionsStore(memstore.New())

	full := config.Defaults()
	full.PollingFrequency = 5 * time.Second
	full.RejectNids = true
	require.NoError(t, s.Save(ctx, full))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, full, got)
}
