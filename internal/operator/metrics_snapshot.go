package operator

import (
	"context"
	"fmt"
	"time"

	"github.com/Cray-HPE/bos-sub000/internal/config"
	"github.com/Cray-HPE/bos-sub000/internal/metrics"
	"github.com/Cray-HPE/bos-sub000/internal/store"
	"github.com/Cray-HPE/bos-sub000/internal/types"
)

// MetricsSnapshot refreshes the gauges that describe the current
// population shape (components by phase, sessions by status), so
// dashboards see a live count rather than only the per-pass counters
// the Pool itself records.
type MetricsSnapshot struct {
	Components *store.ComponentStore
	Sessions   *store.SessionStore
	Metrics    *metrics.Metrics
	Now        func() time.Time
}

func (m *MetricsSnapshot) Name() string { return "metrics-snapshot" }

var allPhases = []types.Phase{types.PhaseNone, types.PhasePoweringOn, types.PhasePoweringOff, types.PhaseConfiguring}
var allSessionStates = []types.SessionState{types.SessionPending, types.SessionRunning, types.SessionComplete}

func (m *MetricsSnapshot) RunOnce(ctx context.Context, _ config.Options) error {
	components, err := m.Components.List(ctx, store.Filter{})
	if err != nil {
		return fmt.Errorf("metrics-snapshot: list components: %w", err)
	}
	byPhase := map[types.Phase]int{}
	for _, c := range components {
		byPhase[c.Status.Phase]++
	}
	for _, phase := range allPhases {
		label := string(phase)
		if label == "" {
			label = "none"
		}
		m.Metrics.ComponentsByPhase.WithLabelValues(label).Set(float64(byPhase[phase]))
	}

	sessions, err := m.Sessions.List(ctx, store.SessionFilter{}, m.now())
	if err != nil {
		return fmt.Errorf("metrics-snapshot: list sessions: %w", err)
	}
	byStatus := map[types.SessionState]int{}
	for _, sess := range sessions {
		byStatus[sess.Status.Status]++
	}
	for _, status := range allSessionStates {
		m.Metrics.SessionsByStatus.WithLabelValues(string(status)).Set(float64(byStatus[status]))
	}
	return nil
}

func (m *MetricsSnapshot) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now().UTC()
}
