package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DuelDuration is how long a duel runs once both players are matched
const DuelDuration = 60 * time.Second

// DuelStatus represents the lifecycle state of a duel on chain
type DuelStatus string

const (
	DuelStatusPending               DuelStatus = "Pending"
	DuelStatusWaitingForPlayers     DuelStatus = "WaitingForPlayers"
	DuelStatusWaitingForPredictions DuelStatus = "WaitingForPredictions"
	DuelStatusActive                DuelStatus = "Active"
	DuelStatusResolved              DuelStatus = "Resolved"
	DuelStatusCancelled             DuelStatus = "Cancelled"
)

var duelStatuses = map[string]DuelStatus{
	"pending":                 DuelStatusPending,
	"waitingforplayers":       DuelStatusWaitingForPlayers,
	"waiting_for_players":     DuelStatusWaitingForPlayers,
	"waitingforpredictions":   DuelStatusWaitingForPredictions,
	"waiting_for_predictions": DuelStatusWaitingForPredictions,
	"active":                  DuelStatusActive,
	"resolved":                DuelStatusResolved,
	"cancelled":               DuelStatusCancelled,
}

// ParseDuelStatus maps any casing the service uses ("ACTIVE", "Active") to a DuelStatus.
// Unknown values are returned unchanged.
func ParseDuelStatus(s string) DuelStatus {
	if status, ok := duelStatuses[strings.ToLower(strings.TrimSpace(s))]; ok {
		return status
	}
	return DuelStatus(s)
}

func (s *DuelStatus) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("invalid duel status %s: %w", b, err)
	}
	*s = ParseDuelStatus(raw)
	return nil
}

// IsLive reports whether the duel still occupies its players
func (s DuelStatus) IsLive() bool {
	return s == DuelStatusActive || s == DuelStatusPending || s == DuelStatusWaitingForPredictions
}

// Direction is a player's prediction of the price move
type Direction string

const (
	DirectionUp   Direction = "Up"
	DirectionDown Direction = "Down"
)

// ParseDirection accepts "up"/"down" in any casing
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return DirectionUp, nil
	case "down":
		return DirectionDown, nil
	default:
		return "", fmt.Errorf("invalid direction %q: must be Up or Down", s)
	}
}

// Supported assets
const (
	AssetBTC = "BTC"
	AssetETH = "ETH"
)

// NormalizeAsset upper-cases an asset symbol the way the contract expects it
func NormalizeAsset(asset string) string {
	return strings.ToUpper(strings.TrimSpace(asset))
}

// Duel represents a head-to-head price prediction duel
type Duel struct {
	ID           ID              `json:"id"`
	Player1      string          `json:"player1,omitempty"`
	Player2      string          `json:"player2,omitempty"`
	Asset        string          `json:"asset,omitempty"`
	BetAmount    decimal.Decimal `json:"betAmount"`
	Status       DuelStatus      `json:"status,omitempty"`
	CreatedAt    FlexInt         `json:"createdAt,omitempty"`
	StartedAt    FlexInt         `json:"startedAt,omitempty"`
	StartPrice   decimal.Decimal `json:"startPrice"`
	EndPrice     decimal.Decimal `json:"endPrice"`
	P1Prediction Direction       `json:"p1Prediction,omitempty"`
	P2Prediction Direction       `json:"p2Prediction,omitempty"`
	Winner       string          `json:"winner,omitempty"`

	// Opponent is only set on history rows
	Opponent string `json:"opponent,omitempty"`
}

// UnmarshalJSON decodes onto the existing value, so decoding a partial payload
// into a populated Duel merges the payload over it.
func (d *Duel) UnmarshalJSON(b []byte) error {
	type alias Duel
	if err := json.Unmarshal(b, (*alias)(d)); err != nil {
		return err
	}

	var extra struct {
		BetAmount decimal.NullDecimal `json:"bet_amount"`
	}
	if err := json.Unmarshal(b, &extra); err != nil {
		return err
	}
	if extra.BetAmount.Valid {
		d.BetAmount = extra.BetAmount.Decimal
	}
	return nil
}

// Involves checks if a player takes part in the duel
func (d *Duel) Involves(player string) bool {
	if player == "" {
		return false
	}
	return strings.EqualFold(d.Player1, player) || strings.EqualFold(d.Player2, player)
}

// Clone returns an independent copy of the duel
func (d *Duel) Clone() *Duel {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

// QueueEntry represents a player waiting in the matchmaking queue
type QueueEntry struct {
	Player    string          `json:"player"`
	Asset     string          `json:"asset"`
	BetAmount decimal.Decimal `json:"betAmount"`
	JoinedAt  FlexInt         `json:"joinedAt"`
}
