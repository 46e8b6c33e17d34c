// Package httpclient builds the shared, rate-limited, retrying HTTP
// client every BOS external client (HSM, PCS, CFS, IMS, S3, BSS, tenant
// lookups) is constructed around. The rate limiting follows
// r3e-network-service_layer's golang.org/x/time/rate wrapper; the retry
// loop uses avast/retry-go/v4 rather than the hand-rolled backoff loop
// that pack repo favors, since retry-go already threads context
// cancellation and jitter correctly for the one-shot-request case BOS
// needs (per-component retry gating is a separate concern, handled by
// internal/retrypolicy).
package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"golang.org/x/time/rate"
)

// Config tunes both axes: how fast requests may be issued, and how a
// single request is retried on transient failure.
type Config struct {
	RequestsPerSecond float64
	Burst             int
	MaxAttempts       uint
	RetryDelay        time.Duration
	Timeout           time.Duration
}

func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 50,
		Burst:             100,
		MaxAttempts:       3,
		RetryDelay:        200 * time.Millisecond,
		Timeout:           30 * time.Second,
	}
}

// Client wraps an *http.Client with a token-bucket limiter gating
// outbound requests and a bounded retry loop around transient failures
// (5xx, connection errors). 4xx responses are returned to the caller
// unretried since they indicate a request, not a transport, problem.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	cfg     Config
}

func New(cfg Config) *Client {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultConfig().RequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RequestsPerSecond * 2)
	}
	return &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		cfg:     cfg,
	}
}

// Do issues req, waiting for rate-limiter admission and retrying
// transient failures up to cfg.MaxAttempts. newReq must build a fresh
// *http.Request each attempt since a consumed request body cannot be
// replayed.
func (c *Client) Do(ctx context.Context, newReq func(ctx context.Context) (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	err := retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(err)
			}
			req, err := newReq(ctx)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			r, err := c.http.Do(req)
			if err != nil {
				return err
			}
			if r.StatusCode >= 500 {
				body, _ := io.ReadAll(io.LimitReader(r.Body, 4096))
				r.Body.Close()
				return fmt.Errorf("server error %d: %s", r.StatusCode, string(body))
			}
			resp = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.cfg.MaxAttempts),
		retry.Delay(c.cfg.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	return resp, err
}
