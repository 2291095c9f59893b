package transport

import "time"

type simulatedStats struct {
	Wins       int    `json:"wins"`
	Losses     int    `json:"losses"`
	WinRate    int    `json:"win_rate"`
	TotalWon   string `json:"total_won"`
	BestStreak int    `json:"best_streak"`
}

type simulatedLeader struct {
	Player string         `json:"player"`
	Stats  simulatedStats `json:"stats"`
}

var simulatedLeaderboard = []simulatedLeader{
	{Player: "0xa1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b0", Stats: simulatedStats{Wins: 18, Losses: 6, WinRate: 75, TotalWon: "540000000", BestStreak: 7}},
	{Player: "0xf9e8d7c6b5a4f3e2d1c0b9a8f7e6d5c4b3a2f1e0", Stats: simulatedStats{Wins: 15, Losses: 8, WinRate: 65, TotalWon: "380000000", BestStreak: 5}},
	{Player: "0x1234abcd5678ef901234abcd5678ef901234abcd", Stats: simulatedStats{Wins: 12, Losses: 9, WinRate: 57, TotalWon: "290000000", BestStreak: 4}},
	{Player: "0xdeadbeef1234567890abcdef1234567890abcdef", Stats: simulatedStats{Wins: 10, Losses: 10, WinRate: 50, TotalWon: "200000000", BestStreak: 3}},
	{Player: "0xcafe0123babe4567face89ab0def1234cdef5678", Stats: simulatedStats{Wins: 8, Losses: 11, WinRate: 42, TotalWon: "150000000", BestStreak: 3}},
}

var simulatedPlayerStats = map[string]any{
	"wins":          7,
	"losses":        3,
	"win_rate":      70,
	"win_streak":    3,
	"best_streak":   5,
	"total_won":     180000000,
	"total_wagered": 250000000,
}

type simulatedDuel struct {
	ID        string `json:"id"`
	Opponent  string `json:"opponent"`
	Asset     string `json:"asset"`
	BetAmount int64  `json:"bet_amount"`
	Winner    string `json:"winner"`
}

var simulatedRecentDuels = []simulatedDuel{
	{ID: "47", Opponent: "0xf9e8d7c6b5a4f3e2d1c0b9a8f7e6d5c4b3a2f1e0", Asset: "BTC", BetAmount: 25000000, Winner: "You"},
	{ID: "45", Opponent: "0x1234abcd5678ef901234abcd5678ef901234abcd", Asset: "ETH", BetAmount: 10000000, Winner: "You"},
	{ID: "42", Opponent: "0xdeadbeef1234567890abcdef1234567890abcdef", Asset: "BTC", BetAmount: 50000000, Winner: "Opponent"},
	{ID: "39", Opponent: "0xa1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b0", Asset: "ETH", BetAmount: 10000000, Winner: "You"},
	{ID: "36", Opponent: "0xcafe0123babe4567face89ab0def1234cdef5678", Asset: "BTC", BetAmount: 25000000, Winner: "You"},
}

var simulatedPrices = map[string]string{
	"BTC": "67250.00",
	"ETH": "3480.00",
}

func simulatedPlatformInfo(chainID string) map[string]any {
	return map[string]any{
		"chainId":     chainID,
		"feeBps":      250,
		"minBet":      "1",
		"maxBet":      "100",
		"paused":      false,
		"totalVolume": "2350000000",
		"totalFees":   "58750000",
		"totalDuels":  47,
		"queueLength": 3,
	}
}

func simulatedPrice(asset string) map[string]any {
	price, ok := simulatedPrices[asset]
	if !ok {
		return nil
	}
	return map[string]any{
		"asset":     asset,
		"price":     price,
		"timestamp": time.Now().UnixMicro(),
	}
}
