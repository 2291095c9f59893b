package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"speedbet/graphql"
	"speedbet/models"
	"speedbet/observability"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// DefaultMutationDelay mimics network latency for simulated mutations
const DefaultMutationDelay = 500 * time.Millisecond

// SimulatedTransport serves canned arena data without a chain service
type SimulatedTransport struct {
	identity       Identity
	mode           Mode
	fallbackReason error
	mutationDelay  time.Duration
	metrics        *observability.MetricsProvider

	mu        sync.Mutex
	connected bool
}

// SimulatedOption configures a SimulatedTransport
type SimulatedOption func(*SimulatedTransport)

// WithMutationDelay overrides the simulated mutation latency
func WithMutationDelay(d time.Duration) SimulatedOption {
	return func(t *SimulatedTransport) {
		t.mutationDelay = d
	}
}

// WithFallbackReason marks the transport as a fallback for an unreachable service
func WithFallbackReason(reason error) SimulatedOption {
	return func(t *SimulatedTransport) {
		t.mode = ModeFallback
		t.fallbackReason = reason
	}
}

// NewSimulatedTransport creates a simulated transport for the given identity
func NewSimulatedTransport(identity Identity, opts ...SimulatedOption) *SimulatedTransport {
	t := &SimulatedTransport{
		identity:      identity,
		mode:          ModeSimulated,
		mutationDelay: DefaultMutationDelay,
		metrics:       observability.GetMetrics(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *SimulatedTransport) Mode() Mode {
	return t.mode
}

// FallbackReason returns the error that caused the fallback, nil for plain demo mode
func (t *SimulatedTransport) FallbackReason() error {
	return t.fallbackReason
}

func (t *SimulatedTransport) Initialize(ctx context.Context) error {
	return nil
}

func (t *SimulatedTransport) Connect(ctx context.Context) (Identity, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.connected {
		t.connected = true
		log.WithFields(log.Fields{
			"chainId": t.identity.ChainID,
			"mode":    t.mode,
		}).Info("Connected to simulated chain service")
	}
	return t.identity, nil
}

func (t *SimulatedTransport) Disconnect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = false
}

func (t *SimulatedTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

// Query answers every document with the same canned snapshot
func (t *SimulatedTransport) Query(ctx context.Context, document string, vars graphql.Variables) (*graphql.Response, error) {
	if !t.IsConnected() {
		return nil, &ConnectionError{Op: observability.KindQuery}
	}
	done := t.metrics.MeasureGraphQLRequest(observability.KindQuery, string(t.mode))

	log.WithField("document", summarize(document)).Debug("Simulating query")

	data, err := json.Marshal(t.snapshot(vars))
	if err != nil {
		done(observability.OutcomeError)
		return nil, fmt.Errorf("failed to encode simulated data: %w", err)
	}
	done(observability.OutcomeSuccess)
	return &graphql.Response{Data: data}, nil
}

// Mutate waits the simulated latency and reports success with a fake tx hash
func (t *SimulatedTransport) Mutate(ctx context.Context, document string, vars graphql.Variables) (*graphql.Response, error) {
	if !t.IsConnected() {
		return nil, &ConnectionError{Op: observability.KindMutation}
	}
	done := t.metrics.MeasureGraphQLRequest(observability.KindMutation, string(t.mode))

	log.WithField("document", summarize(document)).Debug("Simulating mutation")

	if t.mutationDelay > 0 {
		timer := time.NewTimer(t.mutationDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			done(observability.OutcomeError)
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	data, err := json.Marshal(map[string]any{
		"success": true,
		"txHash":  "demo_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:10],
	})
	if err != nil {
		done(observability.OutcomeError)
		return nil, fmt.Errorf("failed to encode simulated result: %w", err)
	}
	done(observability.OutcomeSuccess)
	return &graphql.Response{Data: data}, nil
}

func (t *SimulatedTransport) snapshot(vars graphql.Variables) map[string]any {
	asset := models.AssetBTC
	if v, ok := vars["asset"].(string); ok && v != "" {
		asset = models.NormalizeAsset(v)
	}

	return map[string]any{
		"chainId":      t.identity.ChainID,
		"queueLength":  3,
		"totalDuels":   47,
		"totalVolume":  "2350000000",
		"totalFees":    "58750000",
		"feeBps":       250,
		"minBet":       "1",
		"maxBet":       "100",
		"paused":       false,
		"platformInfo": simulatedPlatformInfo(t.identity.ChainID),
		"leaderboard":  simulatedLeaderboard,
		"playerStats":  simulatedPlayerStats,
		"recentDuels":  simulatedRecentDuels,
		"activeDuels":  []any{},
		"queue":        []any{},
		"price":        simulatedPrice(asset),
		"btcPrice":     simulatedPrice(models.AssetBTC),
		"ethPrice":     simulatedPrice(models.AssetETH),
	}
}

func summarize(document string) string {
	document = strings.Join(strings.Fields(document), " ")
	if len(document) > 50 {
		return document[:50]
	}
	return document
}
