package operator

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cray-HPE/bos-sub000/internal/config"
	"github.com/Cray-HPE/bos-sub000/internal/metrics"
	"github.com/Cray-HPE/bos-sub000/internal/store"
	"github.com/Cray-HPE/bos-sub000/internal/store/memstore"
	"github.com/Cray-HPE/bos-sub000/internal/types"
)

func TestMetricsSnapshot_PopulatesGaugesByPhaseAndStatus(t *testing.T) {
	ctx := context.Background()

	componentStore := store.NewComponentStore(memstore.New())
	require.NoError(t, componentStore.Put(ctx, types.Component{ID: "x1", Status: types.ComponentStatus{Phase: types.PhaseNone}}))
	require.NoError(t, componentStore.Put(ctx, types.Component{ID: "x2", Status: types.ComponentStatus{Phase: types.PhasePoweringOn}}))
	require.NoError(t, componentStore.Put(ctx, types.Component{ID: "x3", Status: types.ComponentStatus{Phase: types.PhasePoweringOn}}))

	sessionStore := store.NewSessionStore(memstore.New())
	require.NoError(t, sessionStore.Put(ctx, types.Session{Name: "s1", Status: types.SessionStatus{Status: types.SessionRunning}}))

	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	op := &MetricsSnapshot{Components: componentStore, Sessions: sessionStore, Metrics: m}
	require.NoError(t, op.RunOnce(ctx, config.Defaults()))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.ComponentsByPhase.WithLabelValues("none")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.ComponentsByPhase.WithLabelValues("powering_on")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.ComponentsByPhase.WithLabelValues("powering_off")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.SessionsByStatus.WithLabelValues("running")))
}
