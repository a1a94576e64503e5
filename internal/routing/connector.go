package routing

import (
	"context"
	"fmt"

	"github.com/hyprnote/stt-gateway/internal/adapter"
	"github.com/hyprnote/stt-gateway/internal/resilience"
)

// Connect is whatever the caller needs to do to establish a session against
// one resolved provider — dialing the listen client and returning a handle
// the caller keeps using, or an error judged by IsRetryableError.
type Connect[T any] func(ctx context.Context, kind adapter.Kind, a adapter.Adapter) (T, error)

// Connector drives an ordered provider chain with one CircuitBreaker per
// provider, generalizing internal/resilience.FallbackGroup from a flat
// primary/fallback list to the spec's language+quality scoring chain. A
// provider whose connect error is non-retryable (per IsRetryableError) short
// circuits the whole attempt instead of falling through.
type Connector[T any] struct {
	registry adapter.Registry
	group    *resilience.FallbackGroup[adapter.Kind]
	cfg      resilience.FallbackConfig
}

// NewConnector builds a Connector over chain, the ordered provider list
// returned by Chain/SelectProvider. chain must be non-empty.
func NewConnector[T any](registry adapter.Registry, chain []adapter.Kind, cfg resilience.FallbackConfig) (*Connector[T], error) {
	if len(chain) == 0 {
		return nil, fmt.Errorf("routing: empty provider chain")
	}
	group := resilience.NewFallbackGroup(chain[0], string(chain[0]), cfg)
	for _, kind := range chain[1:] {
		group.AddFallback(string(kind), kind)
	}
	return &Connector[T]{registry: registry, group: group, cfg: cfg}, nil
}

// Connect tries each provider in chain order via connect, stopping at the
// first success. A non-retryable error is surfaced immediately without
// trying the remaining providers; a retryable error falls through exactly
// like resilience.FallbackGroup would for any other provider type.
func (c *Connector[T]) Connect(ctx context.Context, connect Connect[T]) (T, error) {
	var lastNonRetryable error
	result, err := resilience.ExecuteWithResult(c.group, func(kind adapter.Kind) (T, error) {
		if lastNonRetryable != nil {
			var zero T
			return zero, lastNonRetryable
		}
		a, ok := c.registry[kind]
		if !ok {
			var zero T
			return zero, fmt.Errorf("routing: no adapter registered for %v", kind)
		}
		v, connErr := connect(ctx, kind, a)
		if connErr != nil && !IsRetryableError(connErr.Error()) {
			lastNonRetryable = connErr
		}
		return v, connErr
	})
	if lastNonRetryable != nil {
		var zero T
		return zero, lastNonRetryable
	}
	return result, err
}
