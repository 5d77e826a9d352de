package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"rolesync/pkg/platform/circuit"
	"rolesync/pkg/platform/sentinel"
)

// BreakerClient wraps a Client with a circuit breaker. After repeated
// registry outages it fails fast instead of holding every command on a
// timing-out upstream, probing periodically for recovery.
type BreakerClient struct {
	inner   Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewBreaker(inner Client, breaker *circuit.Breaker, logger *slog.Logger) *BreakerClient {
	return &BreakerClient{inner: inner, breaker: breaker, logger: logger}
}

func (c *BreakerClient) Product(ctx context.Context, token, id string) (Product, error) {
	if !c.breaker.Allow() {
		return Product{}, fmt.Errorf("registry circuit open: %w", sentinel.ErrUnavailable)
	}
	p, err := c.inner.Product(ctx, token, id)
	c.record(ctx, err)
	return p, err
}

func (c *BreakerClient) Products(ctx context.Context, token string) ([]Product, error) {
	if !c.breaker.Allow() {
		return nil, fmt.Errorf("registry circuit open: %w", sentinel.ErrUnavailable)
	}
	ps, err := c.inner.Products(ctx, token)
	c.record(ctx, err)
	return ps, err
}

// record feeds the call outcome to the breaker. A not-found answer is a
// healthy upstream, only unavailability counts against it.
func (c *BreakerClient) record(ctx context.Context, err error) {
	if errors.Is(err, context.Canceled) {
		// The caller went away; says nothing about upstream health.
		return
	}
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.WarnContext(ctx, "registry circuit opened", "breaker", c.breaker.Name())
		}
		return
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "registry circuit closed", "breaker", c.breaker.Name())
	}
}
