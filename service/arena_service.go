package service

import (
	"context"
	"encoding/json"
	"fmt"

	"speedbet/graphql"
	"speedbet/models"
	"speedbet/transport"

	"github.com/shopspring/decimal"
)

type arenaService struct {
	transport transport.Transport
}

// NewArenaService creates a new arena service over a transport
func NewArenaService(t transport.Transport) ArenaService {
	return &arenaService{transport: t}
}

func (s *arenaService) GetPlatformInfo(ctx context.Context) (*models.PlatformInfo, error) {
	resp, err := s.transport.Query(ctx, graphql.GetPlatformInfo, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get platform info: %w", err)
	}

	var info models.PlatformInfo
	found, err := decodeField(resp, "platformInfo", &info)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("platform info missing from response")
	}
	return &info, nil
}

func (s *arenaService) GetChainID(ctx context.Context) (string, error) {
	resp, err := s.transport.Query(ctx, graphql.GetChainID, nil)
	if err != nil {
		return "", fmt.Errorf("failed to get chain id: %w", err)
	}

	var chainID string
	if _, err := decodeField(resp, "chainId", &chainID); err != nil {
		return "", err
	}
	return chainID, nil
}

func (s *arenaService) GetQueue(ctx context.Context) ([]models.QueueEntry, int64, error) {
	resp, err := s.transport.Query(ctx, graphql.GetQueue, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get queue: %w", err)
	}

	var (
		entries []models.QueueEntry
		length  models.FlexInt
	)
	if _, err := decodeField(resp, "queue", &entries); err != nil {
		return nil, 0, err
	}
	found, err := decodeField(resp, "queueLength", &length)
	if err != nil {
		return nil, 0, err
	}
	if !found {
		length = models.FlexInt(len(entries))
	}
	return entries, int64(length), nil
}

func (s *arenaService) GetQueueLength(ctx context.Context) (int64, error) {
	resp, err := s.transport.Query(ctx, graphql.GetQueueLength, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}

	var length models.FlexInt
	found, err := decodeField(resp, "queueLength", &length)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("queue length missing from response")
	}
	return int64(length), nil
}

func (s *arenaService) GetDuel(ctx context.Context, id models.ID) (*models.Duel, error) {
	resp, err := s.transport.Query(ctx, graphql.GetDuel, graphql.Variables{"id": id.String()})
	if err != nil {
		return nil, fmt.Errorf("failed to get duel %s: %w", id, err)
	}

	var duel models.Duel
	found, err := decodeField(resp, "duel", &duel)
	if err != nil || !found {
		return nil, err
	}
	return &duel, nil
}

func (s *arenaService) GetActiveDuels(ctx context.Context) ([]models.Duel, error) {
	resp, err := s.transport.Query(ctx, graphql.GetActiveDuels, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get active duels: %w", err)
	}

	var duels []models.Duel
	if _, err := decodeField(resp, "activeDuels", &duels); err != nil {
		return nil, err
	}
	return duels, nil
}

func (s *arenaService) GetRecentDuels(ctx context.Context, limit int) ([]models.Duel, error) {
	resp, err := s.transport.Query(ctx, graphql.GetRecentDuels, graphql.Variables{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("failed to get recent duels: %w", err)
	}

	var duels []models.Duel
	if _, err := decodeField(resp, "recentDuels", &duels); err != nil {
		return nil, err
	}
	return duels, nil
}

func (s *arenaService) GetPlayerStats(ctx context.Context, player string) (*models.PlayerStats, error) {
	resp, err := s.transport.Query(ctx, graphql.GetPlayerStats, graphql.Variables{"player": player})
	if err != nil {
		return nil, fmt.Errorf("failed to get player stats: %w", err)
	}

	var stats models.PlayerStats
	found, err := decodeField(resp, "playerStats", &stats)
	if err != nil || !found {
		return nil, err
	}
	return &stats, nil
}

func (s *arenaService) GetPlayerBalance(ctx context.Context, player string) (decimal.Decimal, error) {
	resp, err := s.transport.Query(ctx, graphql.GetPlayerBalance, graphql.Variables{"player": player})
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get player balance: %w", err)
	}

	var balance decimal.Decimal
	if _, err := decodeField(resp, "playerBalance", &balance); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

func (s *arenaService) GetLeaderboard(ctx context.Context, limit int) (*LeaderboardResult, error) {
	resp, err := s.transport.Query(ctx, graphql.GetLeaderboard, graphql.Variables{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard: %w", err)
	}

	result := &LeaderboardResult{}
	if _, err := decodeField(resp, "leaderboard", &result.Entries); err != nil {
		return nil, err
	}
	models.AssignRanks(result.Entries)

	var stats models.PlayerStats
	found, err := decodeField(resp, "playerStats", &stats)
	if err != nil {
		return nil, err
	}
	if found {
		result.PlayerStats = &stats
	}
	if _, err := decodeField(resp, "recentDuels", &result.RecentDuels); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *arenaService) GetPrice(ctx context.Context, asset string) (*models.PriceData, error) {
	asset = models.NormalizeAsset(asset)
	resp, err := s.transport.Query(ctx, graphql.GetPrice, graphql.Variables{"asset": asset})
	if err != nil {
		return nil, fmt.Errorf("failed to get %s price: %w", asset, err)
	}

	var price models.PriceData
	found, err := decodeField(resp, "price", &price)
	if err != nil || !found {
		return nil, err
	}
	return &price, nil
}

func (s *arenaService) GetAllPrices(ctx context.Context) (map[string]models.PriceData, error) {
	resp, err := s.transport.Query(ctx, graphql.GetAllPrices, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get prices: %w", err)
	}

	prices := make(map[string]models.PriceData)
	for field, asset := range map[string]string{"btcPrice": models.AssetBTC, "ethPrice": models.AssetETH} {
		var price models.PriceData
		found, err := decodeField(resp, field, &price)
		if err != nil {
			return nil, err
		}
		if found {
			prices[asset] = price
		}
	}
	return prices, nil
}

func (s *arenaService) JoinQueue(ctx context.Context, asset string, betAmount decimal.Decimal) (*MutationResult, error) {
	return s.mutate(ctx, "join queue", graphql.JoinQueue, graphql.Variables{
		"asset":     models.NormalizeAsset(asset),
		"betAmount": models.FormatAmount(betAmount),
	})
}

func (s *arenaService) LeaveQueue(ctx context.Context) (*MutationResult, error) {
	return s.mutate(ctx, "leave queue", graphql.LeaveQueue, nil)
}

func (s *arenaService) SubmitPrediction(ctx context.Context, duelID models.ID, direction models.Direction) (*MutationResult, error) {
	return s.mutate(ctx, "submit prediction", graphql.SubmitPrediction, graphql.Variables{
		"duelId":    duelID.String(),
		"direction": string(direction),
	})
}

func (s *arenaService) Deposit(ctx context.Context, amount decimal.Decimal) (*MutationResult, error) {
	return s.mutate(ctx, "deposit", graphql.Deposit, graphql.Variables{"amount": models.FormatAmount(amount)})
}

func (s *arenaService) Withdraw(ctx context.Context, amount decimal.Decimal) (*MutationResult, error) {
	return s.mutate(ctx, "withdraw", graphql.Withdraw, graphql.Variables{"amount": models.FormatAmount(amount)})
}

func (s *arenaService) UpdatePrice(ctx context.Context, asset string, price decimal.Decimal) (*MutationResult, error) {
	return s.mutate(ctx, "update price", graphql.UpdatePrice, graphql.Variables{
		"asset": models.NormalizeAsset(asset),
		"price": models.FormatAmount(price),
	})
}

func (s *arenaService) CancelDuel(ctx context.Context, duelID models.ID) (*MutationResult, error) {
	return s.mutate(ctx, "cancel duel", graphql.CancelDuel, graphql.Variables{"duelId": duelID.String()})
}

func (s *arenaService) ResolveDuel(ctx context.Context, duelID models.ID, endPrice decimal.Decimal) (*MutationResult, error) {
	return s.mutate(ctx, "resolve duel", graphql.ResolveDuel, graphql.Variables{
		"duelId":   duelID.String(),
		"endPrice": models.FormatAmount(endPrice),
	})
}

func (s *arenaService) mutate(ctx context.Context, op, document string, vars graphql.Variables) (*MutationResult, error) {
	resp, err := s.transport.Mutate(ctx, document, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}

	result := &MutationResult{Data: resp.Data, Success: true}

	// The simulated service reports {success, txHash}; the chain returns the operation result
	var receipt struct {
		Success *bool  `json:"success"`
		TxHash  string `json:"txHash"`
	}
	if len(resp.Data) > 0 && json.Unmarshal(resp.Data, &receipt) == nil {
		if receipt.Success != nil {
			result.Success = *receipt.Success
		}
		result.TxHash = receipt.TxHash
	}
	return result, nil
}

// decodeField unmarshals one top-level data field into v, reporting whether it was present
func decodeField(resp *graphql.Response, field string, v any) (bool, error) {
	raw := resp.Field(field)
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", field, err)
	}
	return true, nil
}
