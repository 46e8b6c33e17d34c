package operator

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/Cray-HPE/bos-sub000/internal/config"
	"github.com/Cray-HPE/bos-sub000/internal/metrics"
)

type countingOperator struct {
	name  string
	runs  int32
	failN int32
}

func (c *countingOperator) Name() string { return c.name }

func (c *countingOperator) RunOnce(ctx context.Context, opts config.Options) error {
	n := atomic.AddInt32(&c.runs, 1)
	if n <= c.failN {
		return errors.New("boom")
	}
	return nil
}

func TestPool_RunsOperatorsUntilCancelled(t *testing.T) {
	op := &countingOperator{name: "counter"}
	loadOpts := func(ctx context.Context) (config.Options, error) {
		opts := config.Defaults()
		opts.PollingFrequency = time.Millisecond
		return opts, nil
	}
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	pool := NewPool(logr.Discard(), loadOpts, op).WithMetrics(m)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := pool.Run(ctx)
	assert.NoError(t, err)
	assert.Greater(t, atomic.LoadInt32(&op.runs), int32(1))
	assert.Greater(t, testutil.ToFloat64(m.OperatorPassesTotal.WithLabelValues("counter")), float64(0))
}

func TestPool_RecordsErrorsAndContinues(t *testing.T) {
	op := &countingOperator{name: "flaky", failN: 2}
	loadOpts := func(ctx context.Context) (config.Options, error) {
		opts := config.Defaults()
		opts.PollingFrequency = time.Millisecond
		return opts, nil
	}
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	pool := NewPool(logr.Discard(), loadOpts, op).WithMetrics(m)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_ = pool.Run(ctx)

	assert.Greater(t, testutil.ToFloat64(m.OperatorErrorsTotal.WithLabelValues("flaky", "pass_error")), float64(0))
}
