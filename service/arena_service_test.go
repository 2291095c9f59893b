package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"speedbet/graphql"
	"speedbet/models"
	"speedbet/transport"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func dataResponse(data string) *graphql.Response {
	return &graphql.Response{Data: json.RawMessage(data)}
}

func TestArenaService_JoinQueueNormalizesVariables(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		asset     string
		betAmount decimal.Decimal
		wantVars  graphql.Variables
	}{
		{
			name:      "lower case asset and integer amount",
			asset:     "btc",
			betAmount: decimal.NewFromInt(5),
			wantVars:  graphql.Variables{"asset": "BTC", "betAmount": "5"},
		},
		{
			name:      "padded asset and large amount",
			asset:     " eth ",
			betAmount: decimal.NewFromInt(100000000),
			wantVars:  graphql.Variables{"asset": "ETH", "betAmount": "100000000"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockTransport := new(MockTransport)
			mockTransport.On("Mutate", mock.Anything, graphql.JoinQueue, tt.wantVars).
				Return(dataResponse(`{"joinQueue": true}`), nil)

			svc := NewArenaService(mockTransport)
			result, err := svc.JoinQueue(context.Background(), tt.asset, tt.betAmount)
			require.NoError(t, err)
			assert.True(t, result.Success)

			mockTransport.AssertExpectations(t)
		})
	}
}

func TestArenaService_SubmitPredictionVariables(t *testing.T) {
	t.Parallel()

	mockTransport := new(MockTransport)
	mockTransport.On("Mutate", mock.Anything, graphql.SubmitPrediction, graphql.Variables{"duelId": "12", "direction": "Up"}).
		Return(dataResponse(`{"success": true, "txHash": "demo_abc"}`), nil)

	svc := NewArenaService(mockTransport)
	result, err := svc.SubmitPrediction(context.Background(), "12", models.DirectionUp)
	require.NoError(t, err)
	assert.Equal(t, "demo_abc", result.TxHash)

	mockTransport.AssertExpectations(t)
}

func TestArenaService_AdminMutationVariables(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		document string
		wantVars graphql.Variables
		call     func(svc ArenaService) (*MutationResult, error)
	}{
		{
			name:     "update price normalizes asset",
			document: graphql.UpdatePrice,
			wantVars: graphql.Variables{"asset": "ETH", "price": "3480.25"},
			call: func(svc ArenaService) (*MutationResult, error) {
				return svc.UpdatePrice(context.Background(), " eth", decimal.RequireFromString("3480.25"))
			},
		},
		{
			name:     "cancel duel",
			document: graphql.CancelDuel,
			wantVars: graphql.Variables{"duelId": "12"},
			call: func(svc ArenaService) (*MutationResult, error) {
				return svc.CancelDuel(context.Background(), "12")
			},
		},
		{
			name:     "resolve duel",
			document: graphql.ResolveDuel,
			wantVars: graphql.Variables{"duelId": "12", "endPrice": "67300.5"},
			call: func(svc ArenaService) (*MutationResult, error) {
				return svc.ResolveDuel(context.Background(), "12", decimal.RequireFromString("67300.50"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mockTransport := new(MockTransport)
			mockTransport.On("Mutate", mock.Anything, tt.document, tt.wantVars).
				Return(dataResponse(`{"success": true, "txHash": "demo_admin"}`), nil)

			result, err := tt.call(NewArenaService(mockTransport))
			require.NoError(t, err)
			assert.True(t, result.Success)
			assert.Equal(t, "demo_admin", result.TxHash)

			mockTransport.AssertExpectations(t)
		})
	}
}

func TestArenaService_GetQueue(t *testing.T) {
	t.Parallel()

	t.Run("entries and length", func(t *testing.T) {
		t.Parallel()
		mockTransport := new(MockTransport)
		mockTransport.On("Query", mock.Anything, graphql.GetQueue, graphql.Variables(nil)).
			Return(dataResponse(`{"queueLength": "2", "queue": [
				{"player": "0xa", "asset": "BTC", "betAmount": "5", "joinedAt": 1700000000},
				{"player": "0xb", "asset": "ETH", "betAmount": 10, "joinedAt": "1700000005"}
			]}`), nil)

		entries, length, err := NewArenaService(mockTransport).GetQueue(context.Background())
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, int64(2), length)
		assert.Equal(t, "0xb", entries[1].Player)
		assert.Equal(t, "10", entries[1].BetAmount.String())
		assert.Equal(t, models.FlexInt(1700000005), entries[1].JoinedAt)
	})

	t.Run("length defaults to entry count", func(t *testing.T) {
		t.Parallel()
		mockTransport := new(MockTransport)
		mockTransport.On("Query", mock.Anything, graphql.GetQueue, graphql.Variables(nil)).
			Return(dataResponse(`{"queue": [{"player": "0xa", "asset": "BTC", "betAmount": "5"}]}`), nil)

		_, length, err := NewArenaService(mockTransport).GetQueue(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(1), length)
	})
}

func TestArenaService_GetPlayerBalance(t *testing.T) {
	t.Parallel()

	mockTransport := new(MockTransport)
	mockTransport.On("Query", mock.Anything, graphql.GetPlayerBalance, graphql.Variables{"player": "0xa"}).
		Return(dataResponse(`{"playerBalance": "1250.5"}`), nil)
	mockTransport.On("Query", mock.Anything, graphql.GetPlayerBalance, graphql.Variables{"player": "0xdown"}).
		Return(nil, &transport.ConnectionError{Op: "query"})

	svc := NewArenaService(mockTransport)

	balance, err := svc.GetPlayerBalance(context.Background(), "0xa")
	require.NoError(t, err)
	assert.Equal(t, "1250.5", balance.String())

	_, err = svc.GetPlayerBalance(context.Background(), "0xdown")
	var connErr *transport.ConnectionError
	assert.ErrorAs(t, err, &connErr)
	assert.Contains(t, err.Error(), "failed to get player balance")
}

func TestArenaService_MutationErrorIsWrapped(t *testing.T) {
	t.Parallel()

	gqlErr := &transport.GraphQLError{Message: "Already in queue"}
	mockTransport := new(MockTransport)
	mockTransport.On("Mutate", mock.Anything, graphql.LeaveQueue, graphql.Variables(nil)).Return(nil, gqlErr)

	svc := NewArenaService(mockTransport)
	_, err := svc.LeaveQueue(context.Background())
	require.Error(t, err)

	var target *transport.GraphQLError
	assert.True(t, errors.As(err, &target))
	assert.Contains(t, err.Error(), "failed to leave queue")
}

func TestArenaService_GetDuel(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()
		mockTransport := new(MockTransport)
		mockTransport.On("Query", mock.Anything, graphql.GetDuel, graphql.Variables{"id": "9"}).
			Return(dataResponse(`{"duel": {"id": "9", "status": "ACTIVE", "asset": "BTC", "betAmount": "5", "startPrice": "65000"}}`), nil)

		duel, err := NewArenaService(mockTransport).GetDuel(context.Background(), "9")
		require.NoError(t, err)
		require.NotNil(t, duel)
		assert.Equal(t, models.DuelStatusActive, duel.Status)
		assert.Equal(t, "65000", duel.StartPrice.String())
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		mockTransport := new(MockTransport)
		mockTransport.On("Query", mock.Anything, graphql.GetDuel, graphql.Variables{"id": "404"}).
			Return(dataResponse(`{"duel": null}`), nil)

		duel, err := NewArenaService(mockTransport).GetDuel(context.Background(), "404")
		require.NoError(t, err)
		assert.Nil(t, duel)
	})
}

func TestArenaService_GetQueueLength(t *testing.T) {
	t.Parallel()

	mockTransport := new(MockTransport)
	mockTransport.On("Query", mock.Anything, graphql.GetQueueLength, graphql.Variables(nil)).
		Return(dataResponse(`{"queueLength": 4}`), nil).Once()
	mockTransport.On("Query", mock.Anything, graphql.GetQueueLength, graphql.Variables(nil)).
		Return(dataResponse(`{}`), nil).Once()

	svc := NewArenaService(mockTransport)

	length, err := svc.GetQueueLength(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), length)

	_, err = svc.GetQueueLength(context.Background())
	assert.Error(t, err)
}

func TestArenaService_OverSimulatedTransport(t *testing.T) {
	t.Parallel()

	sim := transport.NewSimulatedTransport(transport.Identity{ChainID: "demo"}, transport.WithMutationDelay(0))
	_, err := sim.Connect(context.Background())
	require.NoError(t, err)
	svc := NewArenaService(sim)
	ctx := context.Background()

	board, err := svc.GetLeaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, board.Entries, 5)
	for i, entry := range board.Entries {
		assert.Equal(t, i+1, entry.Rank)
	}
	require.NotNil(t, board.PlayerStats)
	assert.Equal(t, models.FlexInt(70), board.PlayerStats.WinRate)
	assert.Len(t, board.RecentDuels, 5)

	length, err := svc.GetQueueLength(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), length)

	info, err := svc.GetPlatformInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.FlexInt(47), info.TotalDuels)

	prices, err := svc.GetAllPrices(ctx)
	require.NoError(t, err)
	assert.Contains(t, prices, models.AssetBTC)
	assert.Contains(t, prices, models.AssetETH)

	active, err := svc.GetActiveDuels(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)

	result, err := svc.Deposit(ctx, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.NotEmpty(t, result.TxHash)
}
