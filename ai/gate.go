package ai

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Gate bounds the number of in-flight requests to one host and, when
// configured, their rate. A Gate is safe for concurrent use.
type Gate struct {
	sem     *semaphore.Weighted
	limiter *rate.Limiter
}

// NewGate builds a Gate from cfg.MaxInFlight and cfg.RequestsPerSecond.
func NewGate(cfg *Config) *Gate {
	inFlight := cfg.MaxInFlight
	if inFlight < 1 {
		inFlight = 1
	}
	g := &Gate{sem: semaphore.NewWeighted(int64(inFlight))}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		g.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return g
}

// Enter blocks until a request slot is free and the rate limit allows a
// request. The returned function must be called to free the slot.
func (g *Gate) Enter(ctx context.Context) (func(), error) {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			g.sem.Release(1)
			return nil, err
		}
	}
	return func() { g.sem.Release(1) }, nil
}
