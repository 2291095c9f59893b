package cmd

import (
	"context"
	"testing"
	"time"

	"speedbet/events"
	"speedbet/models"
	"speedbet/service"
	"speedbet/session"
	"speedbet/toast"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const (
	localPlayer = "0xa1b2c3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8a9b0"
	opponent    = "0xf9e8d7c6b5a4f3e2d1c0b9a8f7e6d5c4b3a2f1e0"
)

func newTestReactions(svc *service.MockArenaService, player string) (*reactions, *toast.Toaster, *session.Session) {
	s := session.New(svc, session.WithPlayer(player), session.WithTickInterval(time.Hour))
	toaster := toast.NewToaster()
	return newReactions(s, toaster, 10*time.Millisecond), toaster, s
}

func TestReactions_DuelResolvedToasts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		player    string
		duel      models.Duel
		wantType  toast.Type
		wantTitle string
	}{
		{name: "win", player: localPlayer, duel: models.Duel{ID: "1", Status: models.DuelStatusResolved, Winner: localPlayer}, wantType: toast.TypeSuccess, wantTitle: "You won!"},
		{name: "win ignores address case", player: localPlayer, duel: models.Duel{ID: "1", Status: models.DuelStatusResolved, Winner: "0XA1B2C3D4E5F6A7B8C9D0E1F2A3B4C5D6E7F8A9B0"}, wantType: toast.TypeSuccess, wantTitle: "You won!"},
		{name: "loss", player: localPlayer, duel: models.Duel{ID: "1", Status: models.DuelStatusResolved, Winner: opponent}, wantType: toast.TypeError, wantTitle: "You lost"},
		{name: "draw", player: localPlayer, duel: models.Duel{ID: "1", Status: models.DuelStatusResolved}, wantType: toast.TypeInfo, wantTitle: "Duel resolved"},
		{name: "cancelled", player: localPlayer, duel: models.Duel{ID: "1", Status: models.DuelStatusCancelled}, wantType: toast.TypeWarning, wantTitle: "Duel cancelled"},
		{name: "unknown player", player: "", duel: models.Duel{ID: "1", Status: models.DuelStatusResolved, Winner: opponent}, wantType: toast.TypeInfo, wantTitle: "Duel resolved"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, toaster, _ := newTestReactions(new(service.MockArenaService), tt.player)

			duel := tt.duel
			r.onDuelResolved(context.Background(), events.DuelResolvedEvent{Duel: &duel})

			toasts := toaster.List()
			require.Len(t, toasts, 1)
			assert.Equal(t, tt.wantType, toasts[0].Type)
			assert.Equal(t, tt.wantTitle, toasts[0].Title)
			assert.Equal(t, toast.DefaultDuration, toasts[0].Duration)
		})
	}
}

func TestReactions_QueueLeft(t *testing.T) {
	t.Parallel()
	r, toaster, _ := newTestReactions(new(service.MockArenaService), localPlayer)

	r.onQueueLeft(context.Background(), events.QueueLeftEvent{WasQueued: false})
	assert.Empty(t, toaster.List())

	r.onQueueLeft(context.Background(), events.QueueLeftEvent{WasQueued: true})
	require.Len(t, toaster.List(), 1)
	assert.Equal(t, "Left queue", toaster.List()[0].Title)
}

func TestReactions_MatchFound(t *testing.T) {
	t.Parallel()
	r, toaster, _ := newTestReactions(new(service.MockArenaService), localPlayer)

	r.onMatchFound(context.Background(), events.MatchFoundEvent{Duel: &models.Duel{
		ID:         "9",
		Asset:      models.AssetETH,
		StartPrice: decimal.RequireFromString("3480.25"),
	}})

	toasts := toaster.List()
	require.Len(t, toasts, 1)
	assert.Equal(t, toast.TypeInfo, toasts[0].Type)
	assert.Contains(t, toasts[0].Message, "Duel #9 on ETH started at 3480.25")
}

func TestReactions_QueueJoinedPollsForMatch(t *testing.T) {
	t.Parallel()
	svc := new(service.MockArenaService)
	svc.On("JoinQueue", mock.Anything, "BTC", mock.Anything).
		Return(&service.MutationResult{Success: true, TxHash: "demo_q"}, nil)
	svc.On("GetQueueLength", mock.Anything).Return(int64(1), nil).Maybe()
	svc.On("GetActiveDuels", mock.Anything).Return([]models.Duel{{
		ID:         "5",
		Player1:    opponent,
		Player2:    localPlayer,
		Asset:      models.AssetBTC,
		BetAmount:  decimal.NewFromInt(5),
		Status:     models.DuelStatusActive,
		StartPrice: decimal.RequireFromString("67250"),
	}}, nil)

	r, toaster, s := newTestReactions(svc, localPlayer)
	ctx, cancel := context.WithCancel(context.Background())

	_, err := s.JoinQueue(ctx, "BTC", decimal.NewFromInt(5))
	require.NoError(t, err)

	r.onQueueJoined(ctx, events.QueueJoinedEvent{Asset: "BTC", BetAmount: decimal.NewFromInt(5), TxHash: "demo_q"})
	// Polling continues after the joining request is done
	cancel()

	assert.Eventually(t, func() bool {
		return s.Snapshot().Phase == models.PhaseInDuel
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, models.ID("5"), s.Snapshot().CurrentDuel.ID)

	toasts := toaster.List()
	require.NotEmpty(t, toasts)
	assert.Equal(t, "Joined queue", toasts[0].Title)

	r.stopPolling()
	r.stopPolling()
	s.Reset(context.Background())
}
