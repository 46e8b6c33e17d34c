// Package operator implements the reconciliation loop family from spec
// §4.3: session setup, the per-purpose reconciliation operators, the
// status operator, and the housekeeping operators, each running its own
// independent polling loop over a shared store. The pool that starts
// them all follows the errgroup-of-long-running-services pattern from
// cmd/tinkerbell/cmd.go.
package operator

import (
	"context"
	"errors"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/Cray-HPE/bos-sub000/internal/config"
	"github.com/Cray-HPE/bos-sub000/internal/metrics"
)

// Operator is one independently-scheduled reconciliation pass.
type Operator interface {
	// Name identifies the operator in logs, metrics, and last_action
	// records.
	Name() string
	// RunOnce executes a single pass against the current options.
	RunOnce(ctx context.Context, opts config.Options) error
}

// Pool runs a fixed set of operators, each on its own timer, until ctx
// is cancelled. Per spec §7: "the core never raises out of an operator
// loop... every caught exception is logged and the loop continues after
// a minimum sleep of 5 seconds."
type Pool struct {
	operators   []Operator
	loadOptions func(ctx context.Context) (config.Options, error)
	log         logr.Logger
	metrics     *metrics.Metrics
}

const minErrorSleep = 5 * time.Second

func NewPool(log logr.Logger, loadOptions func(ctx context.Context) (config.Options, error), operators ...Operator) *Pool {
	return &Pool{operators: operators, loadOptions: loadOptions, log: log}
}

// WithMetrics attaches a Metrics instance every loop iteration records
// pass counts, durations, and errors against. Optional: a Pool with no
// metrics attached simply skips recording.
func (p *Pool) WithMetrics(m *metrics.Metrics) *Pool {
	p.metrics = m
	return p
}

// Run starts every operator's loop concurrently and blocks until ctx is
// cancelled. A failed pass is logged and its loop continues, so no
// operator ends Run early.
func (p *Pool) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, op := range p.operators {
		op := op
		g.Go(func() error {
			p.runLoop(ctx, op)
			return nil
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (p *Pool) runLoop(ctx context.Context, op Operator) {
	log := p.log.WithName(op.Name())
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		opts, err := p.loadOptions(ctx)
		if err != nil {
			log.Error(err, "loading options")
			sleep(ctx, minErrorSleep)
			continue
		}

		start := time.Now()
		err = op.RunOnce(ctx, opts)
		elapsed := time.Since(start)
		if p.metrics != nil {
			p.metrics.OperatorPassesTotal.WithLabelValues(op.Name()).Inc()
			p.metrics.OperatorPassDuration.WithLabelValues(op.Name()).Observe(elapsed.Seconds())
		}
		if err != nil {
			log.Error(err, "operator pass failed")
			if p.metrics != nil {
				p.metrics.OperatorErrorsTotal.WithLabelValues(op.Name(), "pass_error").Inc()
			}
			sleep(ctx, minErrorSleep)
			continue
		}

		remaining := opts.PollingFrequency - elapsed
		if remaining < 0 {
			remaining = 0
		}
		sleep(ctx, remaining)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
