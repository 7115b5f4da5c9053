package ai

import "context"

// Transport performs a single embedding request against a remote service.
// Implementations must be thread-safe for concurrent use.
//
// A Transport makes exactly one attempt per call. Retry, input halving and
// degradation are layered on top by the embedding package.
type Transport interface {
	// Embed returns the vector for text.
	// HTTP failures are reported as *StatusError; failures to reach the
	// host at all wrap ErrUnreachable.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Name identifies the transport in logs and metrics, e.g. "ollama".
	Name() string
}

// Pinger is implemented by transports that can cheaply check that their
// host is reachable before a long run starts.
type Pinger interface {
	Ping(ctx context.Context) error
}
