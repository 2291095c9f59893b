package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"speedbet/models"
	"speedbet/service"
	"speedbet/session"
	"speedbet/toast"
	"speedbet/transport"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	router  http.Handler
	svc     *service.MockArenaService
	session *session.Session
	toaster *toast.Toaster
}

func newTestAPI(t *testing.T, tr transport.Transport) *testAPI {
	t.Helper()
	if tr == nil {
		tr = transport.NewSimulatedTransport(transport.Identity{ChainID: "chain", AppID: "app"})
	}
	svc := new(service.MockArenaService)
	s := session.New(svc)
	toaster := toast.NewToaster()
	return &testAPI{
		router:  NewRouter(NewHandler(s, svc, tr, toaster), []string{"*"}),
		svc:     svc,
		session: s,
		toaster: toaster,
	}
}

func (a *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(rec.Body).Decode(v))
}

func TestStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "precondition", err: transport.NewPreconditionError("submit prediction", "no active duel"), want: http.StatusBadRequest},
		{name: "connection", err: &transport.ConnectionError{Op: "query"}, want: http.StatusServiceUnavailable},
		{name: "transport", err: &transport.TransportError{StatusCode: 500, Status: "Internal Server Error"}, want: http.StatusBadGateway},
		{name: "graphql", err: &transport.GraphQLError{Message: "duel not active"}, want: http.StatusUnprocessableEntity},
		{name: "wrapped graphql", err: fmt.Errorf("failed to join queue: %w", &transport.GraphQLError{Message: "x"}), want: http.StatusUnprocessableEntity},
		{name: "other", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	t.Run("simulated", func(t *testing.T) {
		t.Parallel()
		api := newTestAPI(t, nil)

		rec := api.do(t, http.MethodGet, "/healthz", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var body map[string]interface{}
		decodeBody(t, rec, &body)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "simulated", body["mode"])
	})

	t.Run("fallback is degraded", func(t *testing.T) {
		t.Parallel()
		tr := transport.NewSimulatedTransport(transport.Identity{},
			transport.WithFallbackReason(&transport.ConnectionError{Op: "initialize", Err: errors.New("connection refused")}))
		api := newTestAPI(t, tr)

		rec := api.do(t, http.MethodGet, "/healthz", "")
		var body map[string]interface{}
		decodeBody(t, rec, &body)
		assert.Equal(t, "degraded", body["status"])
		assert.Equal(t, "fallback", body["mode"])
		assert.Contains(t, body["fallbackReason"], "connection refused")
	})
}

func TestJoinQueueEndpoint(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, nil)
	api.svc.On("JoinQueue", mock.Anything, "BTC", decimal.RequireFromString("5")).
		Return(&service.MutationResult{Success: true, TxHash: "demo_123"}, nil)
	api.svc.On("GetQueueLength", mock.Anything).Return(int64(2), nil)

	rec := api.do(t, http.MethodPost, "/queue", `{"asset": "btc", "betAmount": "5"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool                   `json:"success"`
		TxHash  string                 `json:"txHash"`
		Session models.SessionSnapshot `json:"session"`
	}
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "demo_123", resp.TxHash)
	assert.True(t, resp.Session.IsQueued)
	assert.Equal(t, "BTC", resp.Session.Asset)
	assert.Equal(t, int64(2), resp.Session.QueueCount)
}

func TestJoinQueueEndpoint_BadRequests(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantToasts int
	}{
		{name: "malformed body", body: `{`, wantToasts: 0},
		{name: "bad amount", body: `{"asset": "BTC", "betAmount": "lots"}`, wantToasts: 0},
		{name: "zero amount", body: `{"asset": "BTC", "betAmount": "0"}`, wantToasts: 1},
		{name: "missing asset", body: `{"betAmount": "5"}`, wantToasts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			api := newTestAPI(t, nil)

			rec := api.do(t, http.MethodPost, "/queue", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Len(t, api.toaster.List(), tt.wantToasts)
			api.svc.AssertNotCalled(t, "JoinQueue", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestLeaveQueueEndpoint_ServiceError(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, nil)
	api.svc.On("LeaveQueue", mock.Anything).
		Return(nil, fmt.Errorf("failed to leave queue: %w", &transport.TransportError{StatusCode: 500, Status: "Internal Server Error"}))

	rec := api.do(t, http.MethodDelete, "/queue", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	var body ErrorResponse
	decodeBody(t, rec, &body)
	assert.Equal(t, http.StatusBadGateway, body.Code)
	assert.Contains(t, body.Message, "HTTP 500")

	toasts := api.toaster.List()
	require.Len(t, toasts, 1)
	assert.Equal(t, toast.TypeError, toasts[0].Type)
}

func TestSubmitPredictionEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("no duel", func(t *testing.T) {
		t.Parallel()
		api := newTestAPI(t, nil)
		rec := api.do(t, http.MethodPost, "/predictions", `{"direction": "up"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		api.svc.AssertNotCalled(t, "SubmitPrediction", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("invalid direction", func(t *testing.T) {
		t.Parallel()
		api := newTestAPI(t, nil)
		rec := api.do(t, http.MethodPost, "/predictions", `{"direction": "sideways"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReadEndpoints(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, nil)
	api.svc.On("GetLeaderboard", mock.Anything, 2).Return(&service.LeaderboardResult{
		Entries: []models.LeaderboardEntry{{Rank: 1, Player: "0xa"}, {Rank: 2, Player: "0xb"}},
	}, nil)
	api.svc.On("GetLeaderboard", mock.Anything, maxLimit).Return(&service.LeaderboardResult{}, nil)
	api.svc.On("GetRecentDuels", mock.Anything, 10).Return([]models.Duel{{ID: "1"}}, nil)
	api.svc.On("GetDuel", mock.Anything, models.ID("404")).Return(nil, nil)
	api.svc.On("GetDuel", mock.Anything, models.ID("7")).Return(&models.Duel{ID: "7", Status: models.DuelStatusActive}, nil)
	api.svc.On("GetPlayerStats", mock.Anything, "0xa").Return(&models.PlayerStats{Wins: 3}, nil)
	api.svc.On("GetPrice", mock.Anything, "ETH").Return(&models.PriceData{Asset: "ETH", Price: decimal.RequireFromString("3480")}, nil)
	api.svc.On("GetPlatformInfo", mock.Anything).Return(nil, &transport.ConnectionError{Op: "query"})

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{path: "/leaderboard?limit=2", wantStatus: http.StatusOK, wantBody: `"count":2`},
		{path: "/leaderboard?limit=1000", wantStatus: http.StatusOK, wantBody: `"limit":100`},
		{path: "/duels/recent", wantStatus: http.StatusOK, wantBody: `"count":1`},
		{path: "/duels/404", wantStatus: http.StatusNotFound},
		{path: "/duels/7", wantStatus: http.StatusOK, wantBody: `"status":"Active"`},
		{path: "/players/0xa/stats", wantStatus: http.StatusOK, wantBody: `"wins":3`},
		{path: "/prices/eth", wantStatus: http.StatusOK, wantBody: `"asset":"ETH"`},
		{path: "/platform", wantStatus: http.StatusServiceUnavailable},
		{path: "/session", wantStatus: http.StatusOK, wantBody: `"phase":"idle"`},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := api.do(t, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantBody != "" {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestBalanceEndpoints(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, nil)
	api.svc.On("Deposit", mock.Anything, decimal.RequireFromString("1000")).
		Return(&service.MutationResult{Success: true, TxHash: "demo_d"}, nil)

	rec := api.do(t, http.MethodPost, "/balance/deposit", `{"amount": "1000"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "demo_d")
	require.Len(t, api.toaster.List(), 1)
	assert.Equal(t, toast.TypeSuccess, api.toaster.List()[0].Type)

	rec = api.do(t, http.MethodPost, "/balance/withdraw", `{"amount": "-5"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	api.svc.AssertNotCalled(t, "Withdraw", mock.Anything, mock.Anything)
}

func TestToastEndpoints(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, nil)
	id := api.toaster.Show(toast.Options{Type: toast.TypeInfo, Title: "Welcome"})

	rec := api.do(t, http.MethodGet, "/toasts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome")

	rec = api.do(t, http.MethodDelete, fmt.Sprintf("/toasts/%d", id), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, api.toaster.List())

	rec = api.do(t, http.MethodDelete, "/toasts/999", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodDelete, "/toasts/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDuelEndpoint_RefreshesSessionDuel(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, nil)
	ctx := context.Background()

	api.svc.On("GetQueueLength", mock.Anything).Return(int64(0), nil)
	api.svc.On("GetPrice", mock.Anything, models.AssetBTC).Return(nil, nil)
	api.svc.On("GetRecentDuels", mock.Anything, session.DefaultListLimit).Return([]models.Duel{{ID: "5"}}, nil)
	api.svc.On("GetLeaderboard", mock.Anything, session.DefaultListLimit).Return(&service.LeaderboardResult{}, nil)

	live := &models.Duel{ID: "5", Asset: models.AssetBTC, Status: models.DuelStatusActive, StartPrice: decimal.RequireFromString("67250")}
	api.session.HandleNotification(ctx, models.Notification{DuelStarted: live})
	require.Equal(t, models.PhaseInDuel, api.session.Snapshot().Phase)

	settled := live.Clone()
	settled.Status = models.DuelStatusResolved
	settled.Winner = "0xa"
	api.svc.On("GetDuel", mock.Anything, models.ID("5")).Return(settled, nil)

	rec := api.do(t, http.MethodGet, "/duels/5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"winner":"0xa"`)

	snap := api.session.Snapshot()
	assert.Equal(t, models.PhaseResolving, snap.Phase)
	assert.Equal(t, "0xa", snap.CurrentDuel.Winner)
	api.session.Reset(ctx)
}

func TestGetPriceEndpoint_UpdatesSessionPrice(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, nil)
	api.svc.On("GetPrice", mock.Anything, models.AssetBTC).
		Return(&models.PriceData{Asset: models.AssetBTC, Price: decimal.RequireFromString("67400.75")}, nil)

	rec := api.do(t, http.MethodGet, "/prices/btc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "67400.75", api.session.Snapshot().CurrentPrice.String())
}

func TestSetSessionPriceEndpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantPrice  string
	}{
		{name: "external price", body: `{"price": "3481.5"}`, wantStatus: http.StatusOK, wantPrice: "3481.5"},
		{name: "not a number", body: `{"price": "high"}`, wantStatus: http.StatusBadRequest, wantPrice: "0"},
		{name: "negative", body: `{"price": "-1"}`, wantStatus: http.StatusBadRequest, wantPrice: "0"},
		{name: "malformed body", body: `{`, wantStatus: http.StatusBadRequest, wantPrice: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			api := newTestAPI(t, nil)

			rec := api.do(t, http.MethodPut, "/session/price", tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantPrice, api.session.Snapshot().CurrentPrice.String())
		})
	}
}

func TestQueueAndBalanceEndpoints(t *testing.T) {
	t.Parallel()
	api := newTestAPI(t, nil)
	api.svc.On("GetQueue", mock.Anything).Return([]models.QueueEntry{
		{Player: "0xa", Asset: models.AssetBTC, BetAmount: decimal.NewFromInt(5)},
	}, int64(1), nil)
	api.svc.On("GetPlayerBalance", mock.Anything, "0xa").Return(decimal.RequireFromString("1250.5"), nil)
	api.svc.On("GetPlayerBalance", mock.Anything, "0xdown").Return(decimal.Zero, &transport.ConnectionError{Op: "query"})

	rec := api.do(t, http.MethodGet, "/queue", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var queue struct {
		Queue       []models.QueueEntry `json:"queue"`
		QueueLength int64               `json:"queueLength"`
	}
	decodeBody(t, rec, &queue)
	require.Len(t, queue.Queue, 1)
	assert.Equal(t, "0xa", queue.Queue[0].Player)
	assert.Equal(t, int64(1), queue.QueueLength)

	rec = api.do(t, http.MethodGet, "/players/0xa/balance", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"balance":"1250.5"`)

	rec = api.do(t, http.MethodGet, "/players/0xdown/balance", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestAdminMutationEndpoints(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		setup      func(svc *service.MockArenaService)
		wantStatus int
		wantToast  toast.Type
	}{
		{
			name:   "cancel duel",
			method: http.MethodPost,
			path:   "/duels/12/cancel",
			setup: func(svc *service.MockArenaService) {
				svc.On("CancelDuel", mock.Anything, models.ID("12")).
					Return(&service.MutationResult{Success: true, TxHash: "demo_c"}, nil)
			},
			wantStatus: http.StatusOK,
			wantToast:  toast.TypeInfo,
		},
		{
			name:   "resolve duel",
			method: http.MethodPost,
			path:   "/duels/12/resolve",
			body:   `{"endPrice": "67300.5"}`,
			setup: func(svc *service.MockArenaService) {
				svc.On("ResolveDuel", mock.Anything, models.ID("12"), decimal.RequireFromString("67300.5")).
					Return(&service.MutationResult{Success: true, TxHash: "demo_r"}, nil)
			},
			wantStatus: http.StatusOK,
			wantToast:  toast.TypeInfo,
		},
		{
			name:       "resolve without end price",
			method:     http.MethodPost,
			path:       "/duels/12/resolve",
			body:       `{}`,
			setup:      func(svc *service.MockArenaService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:   "update price",
			method: http.MethodPost,
			path:   "/prices/eth",
			body:   `{"price": "3490"}`,
			setup: func(svc *service.MockArenaService) {
				svc.On("UpdatePrice", mock.Anything, models.AssetETH, decimal.RequireFromString("3490")).
					Return(&service.MutationResult{Success: true}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:   "update price rejected for non-oracle",
			method: http.MethodPost,
			path:   "/prices/eth",
			body:   `{"price": "3490"}`,
			setup: func(svc *service.MockArenaService) {
				svc.On("UpdatePrice", mock.Anything, models.AssetETH, decimal.RequireFromString("3490")).
					Return(nil, &transport.GraphQLError{Message: "Only oracle can update prices"})
			},
			wantStatus: http.StatusUnprocessableEntity,
			wantToast:  toast.TypeError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			api := newTestAPI(t, nil)
			tt.setup(api.svc)

			rec := api.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, rec.Code)

			toasts := api.toaster.List()
			if tt.wantToast == "" {
				assert.Empty(t, toasts)
			} else {
				require.Len(t, toasts, 1)
				assert.Equal(t, tt.wantToast, toasts[0].Type)
			}
			api.svc.AssertExpectations(t)
		})
	}
}
