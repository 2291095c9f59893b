package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// PlayerStats represents a player's aggregated duel record
type PlayerStats struct {
	Wins         FlexInt         `json:"wins"`
	Losses       FlexInt         `json:"losses"`
	WinRate      FlexInt         `json:"winRate"`
	WinStreak    FlexInt         `json:"winStreak"`
	BestStreak   FlexInt         `json:"bestStreak"`
	TotalWagered decimal.Decimal `json:"totalWagered"`
	TotalWon     decimal.Decimal `json:"totalWon"`
}

// UnmarshalJSON accepts both the camelCase fields of the service and the
// snake_case fields of older payloads.
func (s *PlayerStats) UnmarshalJSON(b []byte) error {
	var aux struct {
		Wins              FlexInt             `json:"wins"`
		Losses            FlexInt             `json:"losses"`
		WinRate           *FlexInt            `json:"winRate"`
		WinRateSnake      *FlexInt            `json:"win_rate"`
		WinStreak         *FlexInt            `json:"winStreak"`
		WinStreakSnake    *FlexInt            `json:"win_streak"`
		BestStreak        *FlexInt            `json:"bestStreak"`
		BestStreakSnake   *FlexInt            `json:"best_streak"`
		TotalWagered      decimal.NullDecimal `json:"totalWagered"`
		TotalWageredSnake decimal.NullDecimal `json:"total_wagered"`
		TotalWon          decimal.NullDecimal `json:"totalWon"`
		TotalWonSnake     decimal.NullDecimal `json:"total_won"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	s.Wins = aux.Wins
	s.Losses = aux.Losses
	s.WinStreak = firstInt(aux.WinStreak, aux.WinStreakSnake)
	s.BestStreak = firstInt(aux.BestStreak, aux.BestStreakSnake)
	s.TotalWagered = firstDecimal(aux.TotalWagered, aux.TotalWageredSnake)
	s.TotalWon = firstDecimal(aux.TotalWon, aux.TotalWonSnake)

	if aux.WinRate == nil && aux.WinRateSnake == nil {
		s.WinRate = WinRate(s.Wins, s.Losses)
	} else {
		s.WinRate = firstInt(aux.WinRate, aux.WinRateSnake)
	}
	return nil
}

// WinRate returns the integer win percentage, 0 when no duels were played
func WinRate(wins, losses FlexInt) FlexInt {
	total := wins + losses
	if total == 0 {
		return 0
	}
	return wins * 100 / total
}

// LeaderboardEntry represents one ranked player
type LeaderboardEntry struct {
	Rank       int             `json:"rank"`
	Player     string          `json:"player"`
	Wins       FlexInt         `json:"wins"`
	Losses     FlexInt         `json:"losses"`
	WinRate    FlexInt         `json:"winRate"`
	TotalWon   decimal.Decimal `json:"totalWon"`
	BestStreak FlexInt         `json:"bestStreak"`
}

// UnmarshalJSON accepts the flat entry shape as well as {player, stats: {...}}
func (e *LeaderboardEntry) UnmarshalJSON(b []byte) error {
	var aux struct {
		Rank   FlexInt      `json:"rank"`
		Player string       `json:"player"`
		Stats  *PlayerStats `json:"stats"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	stats := aux.Stats
	if stats == nil {
		stats = &PlayerStats{}
		if err := json.Unmarshal(b, stats); err != nil {
			return err
		}
	}

	*e = LeaderboardEntry{
		Rank:       int(aux.Rank),
		Player:     aux.Player,
		Wins:       stats.Wins,
		Losses:     stats.Losses,
		WinRate:    stats.WinRate,
		TotalWon:   stats.TotalWon,
		BestStreak: stats.BestStreak,
	}
	return nil
}

// AssignRanks fills in list positions for entries the service sent without a rank
func AssignRanks(entries []LeaderboardEntry) {
	for i := range entries {
		if entries[i].Rank == 0 {
			entries[i].Rank = i + 1
		}
	}
}

// PlatformInfo represents the contract's global parameters and counters
type PlatformInfo struct {
	ChainID     string          `json:"chainId"`
	FeeBps      FlexInt         `json:"feeBps"`
	MinBet      decimal.Decimal `json:"minBet"`
	MaxBet      decimal.Decimal `json:"maxBet"`
	Paused      bool            `json:"paused"`
	TotalVolume decimal.Decimal `json:"totalVolume"`
	TotalFees   decimal.Decimal `json:"totalFees"`
	TotalDuels  FlexInt         `json:"totalDuels"`
	QueueLength FlexInt         `json:"queueLength"`
}

// PriceData represents an oracle price for an asset
type PriceData struct {
	Asset     string          `json:"asset"`
	Price     decimal.Decimal `json:"price"`
	Timestamp FlexInt         `json:"timestamp"`
}

func firstInt(values ...*FlexInt) FlexInt {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return 0
}

func firstDecimal(values ...decimal.NullDecimal) decimal.Decimal {
	for _, v := range values {
		if v.Valid {
			return v.Decimal
		}
	}
	return decimal.Zero
}
