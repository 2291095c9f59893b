package cmd

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"speedbet/events"
	"speedbet/models"
	"speedbet/session"
	"speedbet/toast"

	log "github.com/sirupsen/logrus"
)

// reactions turns session events into toasts and drives match polling
type reactions struct {
	session      *session.Session
	toaster      *toast.Toaster
	pollInterval time.Duration

	mu       sync.Mutex
	stopPoll func()
}

func newReactions(s *session.Session, toaster *toast.Toaster, pollInterval time.Duration) *reactions {
	return &reactions{
		session:      s,
		toaster:      toaster,
		pollInterval: pollInterval,
	}
}

// subscribe registers the handlers on the bus
func (r *reactions) subscribe(bus *events.Bus) {
	bus.Subscribe(events.EventTypeQueueJoined, r.onQueueJoined)
	bus.Subscribe(events.EventTypeQueueLeft, r.onQueueLeft)
	bus.Subscribe(events.EventTypeMatchFound, r.onMatchFound)
	bus.Subscribe(events.EventTypePredictionSubmitted, r.onPredictionSubmitted)
	bus.Subscribe(events.EventTypeDuelResolved, r.onDuelResolved)
	bus.Subscribe(events.EventTypeSessionReset, func(ctx context.Context, _ events.Event) {
		r.stopPolling()
	})
}

func (r *reactions) onQueueJoined(ctx context.Context, event events.Event) {
	e, ok := event.(events.QueueJoinedEvent)
	if !ok {
		return
	}
	r.toaster.Success("Joined queue", fmt.Sprintf("Searching for an opponent: %s for %s", e.Asset, models.FormatAmount(e.BetAmount)))

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopPoll != nil {
		r.stopPoll()
	}
	// The poll outlives the request that joined the queue
	r.stopPoll = r.session.PollForMatch(context.WithoutCancel(ctx), r.pollInterval)
}

func (r *reactions) onQueueLeft(ctx context.Context, event events.Event) {
	r.stopPolling()
	if e, ok := event.(events.QueueLeftEvent); ok && e.WasQueued {
		r.toaster.Info("Left queue", "You are no longer searching for a match")
	}
}

func (r *reactions) onMatchFound(ctx context.Context, event events.Event) {
	r.stopPolling()
	e, ok := event.(events.MatchFoundEvent)
	if !ok || e.Duel == nil {
		return
	}
	r.toaster.Info("Match found!", fmt.Sprintf("Duel #%s on %s started at %s. Submit your prediction.",
		e.Duel.ID, e.Duel.Asset, models.FormatAmount(e.Duel.StartPrice)))
}

func (r *reactions) onPredictionSubmitted(ctx context.Context, event events.Event) {
	if e, ok := event.(events.PredictionSubmittedEvent); ok {
		r.toaster.Success("Prediction submitted", fmt.Sprintf("You predicted %s", e.Direction))
	}
}

func (r *reactions) onDuelResolved(ctx context.Context, event events.Event) {
	e, ok := event.(events.DuelResolvedEvent)
	if !ok || e.Duel == nil {
		return
	}

	player := r.session.Player()
	switch {
	case e.Duel.Status == models.DuelStatusCancelled:
		r.toaster.Warning("Duel cancelled", fmt.Sprintf("Duel #%s was cancelled and bets refunded", e.Duel.ID))
	case e.Duel.Winner == "":
		r.toaster.Info("Duel resolved", fmt.Sprintf("Duel #%s ended in a draw", e.Duel.ID))
	case player != "" && strings.EqualFold(e.Duel.Winner, player):
		r.toaster.Success("You won!", fmt.Sprintf("Duel #%s settled at %s", e.Duel.ID, models.FormatAmount(e.Duel.EndPrice)))
	case player != "":
		r.toaster.Error("You lost", fmt.Sprintf("Duel #%s settled at %s", e.Duel.ID, models.FormatAmount(e.Duel.EndPrice)))
	default:
		r.toaster.Info("Duel resolved", fmt.Sprintf("Duel #%s won by %s", e.Duel.ID, e.Duel.Winner))
	}
}

func (r *reactions) stopPolling() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopPoll != nil {
		r.stopPoll()
		r.stopPoll = nil
		log.Debug("Match polling stopped")
	}
}
