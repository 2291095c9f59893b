package service

import (
	"context"
	"encoding/json"

	"speedbet/models"

	"github.com/shopspring/decimal"
)

// MutationResult is the outcome of a state-changing operation
type MutationResult struct {
	// Data is the raw mutation payload as returned by the service
	Data    json.RawMessage
	Success bool
	TxHash  string
}

// LeaderboardResult holds the leaderboard and anything the service returned alongside it
type LeaderboardResult struct {
	Entries []models.LeaderboardEntry

	// Set only when the response carried them (the simulated service does)
	PlayerStats *models.PlayerStats
	RecentDuels []models.Duel
}

// ArenaService defines the typed operations of the arena application
type ArenaService interface {
	// GetPlatformInfo returns fee, bet limits and global counters
	GetPlatformInfo(ctx context.Context) (*models.PlatformInfo, error)

	// GetChainID returns the chain the application runs on
	GetChainID(ctx context.Context) (string, error)

	// GetQueue returns the matchmaking queue and its length
	GetQueue(ctx context.Context) ([]models.QueueEntry, int64, error)

	// GetQueueLength returns the number of players waiting
	GetQueueLength(ctx context.Context) (int64, error)

	// GetDuel returns a duel by ID, nil when it does not exist
	GetDuel(ctx context.Context, id models.ID) (*models.Duel, error)

	// GetActiveDuels returns all duels currently in play
	GetActiveDuels(ctx context.Context) ([]models.Duel, error)

	// GetRecentDuels returns completed duels, newest first
	GetRecentDuels(ctx context.Context, limit int) ([]models.Duel, error)

	// GetPlayerStats returns a player's record, nil when unknown
	GetPlayerStats(ctx context.Context, player string) (*models.PlayerStats, error)

	// GetPlayerBalance returns a player's deposited balance
	GetPlayerBalance(ctx context.Context, player string) (decimal.Decimal, error)

	// GetLeaderboard returns the top players
	GetLeaderboard(ctx context.Context, limit int) (*LeaderboardResult, error)

	// GetPrice returns the oracle price of an asset, nil when not published
	GetPrice(ctx context.Context, asset string) (*models.PriceData, error)

	// GetAllPrices returns the prices of all supported assets keyed by symbol
	GetAllPrices(ctx context.Context) (map[string]models.PriceData, error)

	// JoinQueue enters the matchmaking queue for an asset with a bet
	JoinQueue(ctx context.Context, asset string, betAmount decimal.Decimal) (*MutationResult, error)

	// LeaveQueue leaves the matchmaking queue
	LeaveQueue(ctx context.Context) (*MutationResult, error)

	// SubmitPrediction records the player's prediction for a duel
	SubmitPrediction(ctx context.Context, duelID models.ID, direction models.Direction) (*MutationResult, error)

	// Deposit adds funds to the player's balance
	Deposit(ctx context.Context, amount decimal.Decimal) (*MutationResult, error)

	// Withdraw removes funds from the player's balance
	Withdraw(ctx context.Context, amount decimal.Decimal) (*MutationResult, error)

	// UpdatePrice publishes an oracle price (oracle only)
	UpdatePrice(ctx context.Context, asset string, price decimal.Decimal) (*MutationResult, error)

	// CancelDuel cancels a duel (admin or timeout)
	CancelDuel(ctx context.Context, duelID models.ID) (*MutationResult, error)

	// ResolveDuel settles a duel at the given end price
	ResolveDuel(ctx context.Context, duelID models.ID, endPrice decimal.Decimal) (*MutationResult, error)
}
