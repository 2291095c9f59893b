package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"speedbet/config"
	"speedbet/graphql"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeService serves the application endpoint and records the requests it receives
type fakeService struct {
	server   *httptest.Server
	requests chan graphql.Request
	calls    atomic.Int32
}

func newFakeService(t *testing.T, respond func(req graphql.Request) (int, string)) (*fakeService, *config.Config) {
	t.Helper()

	cfg := config.NewTestConfig()
	fs := &fakeService{requests: make(chan graphql.Request, 16)}

	r := chi.NewRouter()
	r.Post("/chains/{chainID}/applications/{appID}", func(w http.ResponseWriter, req *http.Request) {
		fs.calls.Add(1)
		assert.Equal(t, cfg.ChainID, chi.URLParam(req, "chainID"))
		assert.Equal(t, cfg.AppID, chi.URLParam(req, "appID"))
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))

		var body graphql.Request
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		select {
		case fs.requests <- body:
		default:
		}

		status, payload := respond(body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	})

	fs.server = httptest.NewServer(r)
	t.Cleanup(fs.server.Close)

	cfg.ServiceURL = fs.server.URL
	return fs, cfg
}

func okChainID(req graphql.Request) (int, string) {
	return http.StatusOK, `{"data": {"chainId": "test-chain"}}`
}

func TestHTTPTransport_QueryRequiresConnection(t *testing.T) {
	t.Parallel()

	fs, cfg := newFakeService(t, okChainID)
	tr := NewHTTPTransport(cfg)

	_, err := tr.Query(context.Background(), graphql.GetQueueLength, nil)
	require.Error(t, err)

	var connErr *ConnectionError
	assert.True(t, errors.As(err, &connErr))
	assert.Equal(t, int32(0), fs.calls.Load())
}

func TestHTTPTransport_ConnectAndQuery(t *testing.T) {
	t.Parallel()

	fs, cfg := newFakeService(t, func(req graphql.Request) (int, string) {
		if req.Query == graphql.GetChainID {
			return okChainID(req)
		}
		return http.StatusOK, `{"data": {"queueLength": 3}}`
	})
	tr := NewHTTPTransport(cfg)

	identity, err := tr.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfg.ChainID, identity.ChainID)
	assert.Equal(t, cfg.AppID, identity.AppID)
	assert.True(t, tr.IsConnected())
	assert.Equal(t, ModeReal, tr.Mode())

	probe := <-fs.requests
	assert.Equal(t, graphql.GetChainID, probe.Query)

	resp, err := tr.Query(context.Background(), graphql.GetLeaderboard, graphql.Variables{"limit": 10})
	require.NoError(t, err)
	assert.JSONEq(t, `3`, string(resp.Field("queueLength")))

	sent := <-fs.requests
	assert.Equal(t, graphql.GetLeaderboard, sent.Query)
	assert.EqualValues(t, 10, sent.Variables["limit"])

	// Connecting again does not probe again
	_, err = tr.Connect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), fs.calls.Load())

	tr.Disconnect()
	tr.Disconnect()
	assert.False(t, tr.IsConnected())
}

func TestHTTPTransport_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "non 2xx becomes transport error",
			status: http.StatusNotFound,
			body:   `not found`,
			check: func(t *testing.T, err error) {
				var te *TransportError
				require.True(t, errors.As(err, &te))
				assert.Equal(t, 404, te.StatusCode)
				assert.Equal(t, "Not Found", te.Status)
				assert.Equal(t, "HTTP 404: Not Found", te.Error())
			},
		},
		{
			name:   "errors envelope becomes graphql error",
			status: http.StatusOK,
			body:   `{"data": null, "errors": [{"message": "Insufficient balance"}, {"message": "second"}]}`,
			check: func(t *testing.T, err error) {
				var ge *GraphQLError
				require.True(t, errors.As(err, &ge))
				assert.Equal(t, "Insufficient balance", ge.Error())
				assert.Len(t, ge.Errors, 2)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, cfg := newFakeService(t, func(req graphql.Request) (int, string) {
				if req.Query == graphql.GetChainID {
					return okChainID(req)
				}
				return tt.status, tt.body
			})
			tr := NewHTTPTransport(cfg)
			_, err := tr.Connect(context.Background())
			require.NoError(t, err)

			_, err = tr.Mutate(context.Background(), graphql.LeaveQueue, nil)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestHTTPTransport_InitializeFailure(t *testing.T) {
	t.Parallel()

	_, cfg := newFakeService(t, func(req graphql.Request) (int, string) {
		return http.StatusServiceUnavailable, ``
	})
	tr := NewHTTPTransport(cfg)

	_, err := tr.Connect(context.Background())
	require.Error(t, err)
	assert.False(t, tr.IsConnected())

	var te *TransportError
	assert.True(t, errors.As(err, &te))
}

func TestHTTPTransport_UnreachableIsConnectionError(t *testing.T) {
	t.Parallel()

	cfg := config.NewTestConfig()
	cfg.ServiceURL = "http://127.0.0.1:1"
	cfg.RequestTimeout = time.Second
	tr := NewHTTPTransport(cfg)

	err := tr.Initialize(context.Background())
	require.Error(t, err)
	assert.True(t, IsConnection(err))
}

func TestOpen_SelectsMode(t *testing.T) {
	t.Parallel()

	t.Run("demo mode is simulated", func(t *testing.T) {
		t.Parallel()
		cfg := config.NewTestConfig()
		cfg.DemoMode = true

		tr, err := Open(context.Background(), cfg)
		require.NoError(t, err)
		assert.Equal(t, ModeSimulated, tr.Mode())
		assert.NoError(t, FallbackReason(tr))
	})

	t.Run("reachable service is real", func(t *testing.T) {
		t.Parallel()
		_, cfg := newFakeService(t, okChainID)

		tr, err := Open(context.Background(), cfg)
		require.NoError(t, err)
		assert.Equal(t, ModeReal, tr.Mode())
	})

	t.Run("unreachable service falls back observably", func(t *testing.T) {
		t.Parallel()
		_, cfg := newFakeService(t, func(req graphql.Request) (int, string) {
			return http.StatusBadGateway, ``
		})

		tr, err := Open(context.Background(), cfg)
		require.NoError(t, err)
		assert.Equal(t, ModeFallback, tr.Mode())

		reason := FallbackReason(tr)
		require.Error(t, reason)
		var te *TransportError
		assert.True(t, errors.As(reason, &te))
	})

	t.Run("fallback disabled surfaces the error", func(t *testing.T) {
		t.Parallel()
		_, cfg := newFakeService(t, func(req graphql.Request) (int, string) {
			return http.StatusBadGateway, ``
		})
		cfg.FallbackToSimulated = false

		tr, err := Open(context.Background(), cfg)
		require.Error(t, err)
		assert.Nil(t, tr)
	})
}
