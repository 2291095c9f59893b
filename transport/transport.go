package transport

import (
	"context"
	"errors"
	"fmt"

	"speedbet/config"
	"speedbet/graphql"
	"speedbet/observability"

	log "github.com/sirupsen/logrus"
)

// Mode identifies which transport variant a session is using
type Mode string

const (
	ModeReal      Mode = "real"
	ModeSimulated Mode = "simulated"
	// ModeFallback is the simulated transport chosen because the service was unreachable
	ModeFallback Mode = "fallback"
)

// Identity identifies the chain and application a session talks to
type Identity struct {
	ChainID string `json:"chainId"`
	AppID   string `json:"appId"`
}

// Transport sends GraphQL documents to the arena application
type Transport interface {
	// Initialize verifies the service is reachable. Safe to call repeatedly.
	Initialize(ctx context.Context) error

	// Connect initializes if needed and marks the session connected
	Connect(ctx context.Context) (Identity, error)

	// Disconnect marks the session disconnected. Safe to call repeatedly.
	Disconnect()

	// IsConnected reports whether Query and Mutate may be called
	IsConnected() bool

	// Query executes a read-only document
	Query(ctx context.Context, document string, vars graphql.Variables) (*graphql.Response, error)

	// Mutate executes a state-changing document
	Mutate(ctx context.Context, document string, vars graphql.Variables) (*graphql.Response, error)

	// Mode returns the variant in use
	Mode() Mode
}

// Open selects the transport variant for the configuration.
// Demo mode always yields the simulated transport. Otherwise the service is
// probed and, if unreachable, the simulated transport is used in fallback mode
// unless fallback is disabled.
func Open(ctx context.Context, cfg *config.Config) (Transport, error) {
	identity := Identity{ChainID: cfg.ChainID, AppID: cfg.AppID}
	metrics := observability.GetMetrics()

	if cfg.DemoMode {
		log.Info("Running in demo mode, chain features are simulated")
		sim := NewSimulatedTransport(identity)
		if err := sim.Initialize(ctx); err != nil {
			return nil, err
		}
		metrics.RecordTransportSelection(string(sim.Mode()))
		return sim, nil
	}

	real := NewHTTPTransport(cfg)
	if err := real.Initialize(ctx); err != nil {
		if !cfg.FallbackToSimulated {
			return nil, fmt.Errorf("chain service unavailable: %w", err)
		}

		log.WithFields(log.Fields{
			"endpoint": cfg.GraphQLEndpoint(),
			"error":    err,
		}).Warn("Chain service unavailable, falling back to simulated transport")

		sim := NewSimulatedTransport(identity, WithFallbackReason(err))
		if err := sim.Initialize(ctx); err != nil {
			return nil, err
		}
		metrics.RecordTransportSelection(string(sim.Mode()))
		return sim, nil
	}

	metrics.RecordTransportSelection(string(real.Mode()))
	return real, nil
}

// FallbackReason returns why the transport fell back to simulated data, nil otherwise
func FallbackReason(t Transport) error {
	if sim, ok := t.(*SimulatedTransport); ok {
		return sim.FallbackReason()
	}
	return nil
}

// outcomeOf classifies an error for metrics
func outcomeOf(err error) string {
	var (
		connErr      *ConnectionError
		transportErr *TransportError
		gqlErr       *GraphQLError
	)
	switch {
	case err == nil:
		return observability.OutcomeSuccess
	case errors.As(err, &connErr):
		return observability.OutcomeConnection
	case errors.As(err, &transportErr):
		return observability.OutcomeTransportError
	case errors.As(err, &gqlErr):
		return observability.OutcomeGraphQLError
	default:
		return observability.OutcomeError
	}
}
