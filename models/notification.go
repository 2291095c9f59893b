package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// NewBlock identifies the block that triggered a notification
type NewBlock struct {
	Height int64 `json:"height"`
}

// NotificationReason explains why a notification was delivered
type NotificationReason struct {
	NewBlock *NewBlock `json:"NewBlock,omitempty"`
}

// Notification is a chain update delivered to the session.
// Delivery is at-least-once and unordered.
type Notification struct {
	Reason NotificationReason `json:"reason"`
	Data   json.RawMessage    `json:"data,omitempty"`

	MatchFound  *Duel `json:"matchFound,omitempty"`
	DuelStarted *Duel `json:"duelStarted,omitempty"`

	// DuelResolved is kept raw so it can be merged over the current duel
	DuelResolved json.RawMessage `json:"duelResolved,omitempty"`
}

// Counters is the payload the notification poller delivers in Data
type Counters struct {
	QueueLength FlexInt `json:"queueLength"`
	TotalDuels  FlexInt `json:"totalDuels"`
}

// Counters decodes Data as queue counters, returning false when it does not carry them
func (n Notification) Counters() (Counters, bool) {
	var c Counters
	if len(n.Data) == 0 {
		return c, false
	}
	if err := json.Unmarshal(n.Data, &c); err != nil {
		return c, false
	}
	return c, true
}

// SessionPhase is the client-side duel lifecycle state
type SessionPhase string

const (
	PhaseIdle      SessionPhase = "idle"
	PhaseQueued    SessionPhase = "queued"
	PhaseInDuel    SessionPhase = "in_duel"
	PhaseResolving SessionPhase = "resolving"
)

// SessionSnapshot is a consistent copy of the local session state
type SessionSnapshot struct {
	Phase         SessionPhase       `json:"phase"`
	Connected     bool               `json:"connected"`
	TransportMode string             `json:"transportMode"`
	IsQueued      bool               `json:"isQueued"`
	InDuel        bool               `json:"inDuel"`
	QueueCount    int64              `json:"queueCount"`
	TimeRemaining int                `json:"timeRemaining"`
	CurrentPrice  decimal.Decimal    `json:"currentPrice"`
	StartPrice    decimal.Decimal    `json:"startPrice"`
	CurrentDuel   *Duel              `json:"currentDuel"`
	Leaderboard   []LeaderboardEntry `json:"leaderboard"`
	RecentDuels   []Duel             `json:"recentDuels"`
	UserStats     *PlayerStats       `json:"userStats"`
	Platform      *PlatformInfo      `json:"platform,omitempty"`
	Asset         string             `json:"asset,omitempty"`
	BetAmount     decimal.Decimal    `json:"betAmount"`
}
