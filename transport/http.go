package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"speedbet/config"
	"speedbet/graphql"
	"speedbet/observability"

	log "github.com/sirupsen/logrus"
)

// HTTPTransport talks to a live chain service over GraphQL-over-HTTP
type HTTPTransport struct {
	endpoint string
	identity Identity
	client   *http.Client
	metrics  *observability.MetricsProvider

	mu          sync.Mutex
	initialized bool
	connected   bool
}

// NewHTTPTransport creates a transport for the configured application endpoint
func NewHTTPTransport(cfg *config.Config) *HTTPTransport {
	return &HTTPTransport{
		endpoint: cfg.GraphQLEndpoint(),
		identity: Identity{ChainID: cfg.ChainID, AppID: cfg.AppID},
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		metrics: observability.GetMetrics(),
	}
}

// Endpoint returns the URL requests are POSTed to
func (t *HTTPTransport) Endpoint() string {
	return t.endpoint
}

func (t *HTTPTransport) Mode() Mode {
	return ModeReal
}

// Initialize probes the endpoint with a chain id query
func (t *HTTPTransport) Initialize(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.initializeLocked(ctx)
}

func (t *HTTPTransport) initializeLocked(ctx context.Context) error {
	if t.initialized {
		return nil
	}

	resp, err := t.do(ctx, "initialize", graphql.NewRequest(graphql.GetChainID, nil))
	if err != nil {
		return fmt.Errorf("failed to reach chain service: %w", err)
	}

	var data struct {
		ChainID string `json:"chainId"`
	}
	if err := resp.Decode(&data); err != nil {
		return fmt.Errorf("failed to verify chain id: %w", err)
	}

	t.initialized = true
	log.WithFields(log.Fields{
		"endpoint": t.endpoint,
		"chainId":  data.ChainID,
	}).Info("Chain service connected")
	return nil
}

func (t *HTTPTransport) Connect(ctx context.Context) (Identity, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.connected {
		return t.identity, nil
	}
	if err := t.initializeLocked(ctx); err != nil {
		return Identity{}, err
	}

	t.connected = true
	log.WithFields(log.Fields{
		"chainId": t.identity.ChainID,
		"appId":   t.identity.AppID,
	}).Info("Connected to application")
	return t.identity, nil
}

func (t *HTTPTransport) Disconnect() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.connected {
		log.Info("Disconnected from chain service")
	}
	t.connected = false
}

func (t *HTTPTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

func (t *HTTPTransport) Query(ctx context.Context, document string, vars graphql.Variables) (*graphql.Response, error) {
	return t.execute(ctx, observability.KindQuery, document, vars)
}

func (t *HTTPTransport) Mutate(ctx context.Context, document string, vars graphql.Variables) (*graphql.Response, error) {
	return t.execute(ctx, observability.KindMutation, document, vars)
}

func (t *HTTPTransport) execute(ctx context.Context, kind, document string, vars graphql.Variables) (resp *graphql.Response, err error) {
	if !t.IsConnected() {
		return nil, &ConnectionError{Op: kind}
	}

	done := t.metrics.MeasureGraphQLRequest(kind, string(ModeReal))
	defer func() { done(outcomeOf(err)) }()

	resp, err = t.do(ctx, kind, graphql.NewRequest(document, vars))
	if err != nil {
		log.WithFields(log.Fields{
			"kind":  kind,
			"error": err,
		}).Error("GraphQL request failed")
		return nil, err
	}
	return resp, nil
}

// do POSTs a request and maps failures to the transport error taxonomy
func (t *HTTPTransport) do(ctx context.Context, op string, request graphql.Request) (*graphql.Response, error) {
	body, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	log.WithFields(log.Fields{
		"op":       op,
		"endpoint": t.endpoint,
	}).Debug("Sending GraphQL request")

	httpResp, err := t.client.Do(req)
	if err != nil {
		return nil, &ConnectionError{Op: op, Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, httpResp.Body)
		return nil, &TransportError{
			StatusCode: httpResp.StatusCode,
			Status:     http.StatusText(httpResp.StatusCode),
		}
	}

	var resp graphql.Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if resp.HasErrors() {
		log.WithFields(log.Fields{
			"op":     op,
			"errors": resp.Messages(),
		}).Warn("GraphQL errors")
		return nil, newGraphQLError(&resp)
	}

	return &resp, nil
}
