package service

import (
	"context"

	"speedbet/graphql"
	"speedbet/models"
	"speedbet/transport"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockTransport is a mock implementation of transport.Transport
type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Initialize(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockTransport) Connect(ctx context.Context) (transport.Identity, error) {
	args := m.Called(ctx)
	return args.Get(0).(transport.Identity), args.Error(1)
}

func (m *MockTransport) Disconnect() {
	m.Called()
}

func (m *MockTransport) IsConnected() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockTransport) Query(ctx context.Context, document string, vars graphql.Variables) (*graphql.Response, error) {
	args := m.Called(ctx, document, vars)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*graphql.Response), args.Error(1)
}

func (m *MockTransport) Mutate(ctx context.Context, document string, vars graphql.Variables) (*graphql.Response, error) {
	args := m.Called(ctx, document, vars)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*graphql.Response), args.Error(1)
}

func (m *MockTransport) Mode() transport.Mode {
	args := m.Called()
	return args.Get(0).(transport.Mode)
}

// MockArenaService is a mock implementation of ArenaService
type MockArenaService struct {
	mock.Mock
}

func (m *MockArenaService) GetPlatformInfo(ctx context.Context) (*models.PlatformInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlatformInfo), args.Error(1)
}

func (m *MockArenaService) GetChainID(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockArenaService) GetQueue(ctx context.Context) ([]models.QueueEntry, int64, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]models.QueueEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockArenaService) GetQueueLength(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockArenaService) GetDuel(ctx context.Context, id models.ID) (*models.Duel, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Duel), args.Error(1)
}

func (m *MockArenaService) GetActiveDuels(ctx context.Context) ([]models.Duel, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Duel), args.Error(1)
}

func (m *MockArenaService) GetRecentDuels(ctx context.Context, limit int) ([]models.Duel, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Duel), args.Error(1)
}

func (m *MockArenaService) GetPlayerStats(ctx context.Context, player string) (*models.PlayerStats, error) {
	args := m.Called(ctx, player)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlayerStats), args.Error(1)
}

func (m *MockArenaService) GetPlayerBalance(ctx context.Context, player string) (decimal.Decimal, error) {
	args := m.Called(ctx, player)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockArenaService) GetLeaderboard(ctx context.Context, limit int) (*LeaderboardResult, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*LeaderboardResult), args.Error(1)
}

func (m *MockArenaService) GetPrice(ctx context.Context, asset string) (*models.PriceData, error) {
	args := m.Called(ctx, asset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PriceData), args.Error(1)
}

func (m *MockArenaService) GetAllPrices(ctx context.Context) (map[string]models.PriceData, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]models.PriceData), args.Error(1)
}

func (m *MockArenaService) JoinQueue(ctx context.Context, asset string, betAmount decimal.Decimal) (*MutationResult, error) {
	args := m.Called(ctx, asset, betAmount)
	return mutationResult(args)
}

func (m *MockArenaService) LeaveQueue(ctx context.Context) (*MutationResult, error) {
	args := m.Called(ctx)
	return mutationResult(args)
}

func (m *MockArenaService) SubmitPrediction(ctx context.Context, duelID models.ID, direction models.Direction) (*MutationResult, error) {
	args := m.Called(ctx, duelID, direction)
	return mutationResult(args)
}

func (m *MockArenaService) Deposit(ctx context.Context, amount decimal.Decimal) (*MutationResult, error) {
	args := m.Called(ctx, amount)
	return mutationResult(args)
}

func (m *MockArenaService) Withdraw(ctx context.Context, amount decimal.Decimal) (*MutationResult, error) {
	args := m.Called(ctx, amount)
	return mutationResult(args)
}

func (m *MockArenaService) UpdatePrice(ctx context.Context, asset string, price decimal.Decimal) (*MutationResult, error) {
	args := m.Called(ctx, asset, price)
	return mutationResult(args)
}

func (m *MockArenaService) CancelDuel(ctx context.Context, duelID models.ID) (*MutationResult, error) {
	args := m.Called(ctx, duelID)
	return mutationResult(args)
}

func (m *MockArenaService) ResolveDuel(ctx context.Context, duelID models.ID, endPrice decimal.Decimal) (*MutationResult, error) {
	args := m.Called(ctx, duelID, endPrice)
	return mutationResult(args)
}

func mutationResult(args mock.Arguments) (*MutationResult, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MutationResult), args.Error(1)
}
