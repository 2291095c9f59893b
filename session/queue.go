package session

import (
	"context"
	"fmt"
	"time"

	"speedbet/events"
	"speedbet/models"
	"speedbet/service"
	"speedbet/transport"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// JoinQueue enters matchmaking for asset with betAmount.
// The asset is sent upper-cased and the amount as a decimal string.
func (s *Session) JoinQueue(ctx context.Context, asset string, betAmount decimal.Decimal) (*service.MutationResult, error) {
	asset = models.NormalizeAsset(asset)
	if asset == "" {
		return nil, transport.NewPreconditionError("join queue", "asset is required")
	}
	if !betAmount.IsPositive() {
		return nil, transport.NewPreconditionError("join queue", "bet amount must be positive")
	}

	s.mu.Lock()
	inDuel := s.phase == models.PhaseInDuel
	s.mu.Unlock()
	if inDuel {
		return nil, transport.NewPreconditionError("join queue", "already in a duel")
	}

	result, err := s.service.JoinQueue(ctx, asset, betAmount)
	if err != nil {
		log.WithFields(log.Fields{
			"asset":     asset,
			"betAmount": betAmount.String(),
			"error":     err,
		}).Error("Failed to join queue")
		return nil, err
	}
	if !result.Success {
		return nil, fmt.Errorf("join queue was rejected by the service")
	}

	batch := events.NewBatch(s.bus)
	s.mu.Lock()
	s.asset = asset
	s.betAmount = betAmount
	// A match may have been delivered while the mutation was in flight
	if s.phase == models.PhaseIdle || s.phase == models.PhaseResolving {
		s.cancelGraceLocked()
		s.currentDuel = nil
		s.setPhaseLocked(models.PhaseQueued)
	}
	batch.Publish(events.QueueJoinedEvent{Asset: asset, BetAmount: betAmount, TxHash: result.TxHash})
	s.mu.Unlock()
	batch.Flush(ctx)

	s.FetchQueueCount(ctx)

	log.WithFields(log.Fields{
		"asset":     asset,
		"betAmount": betAmount.String(),
		"txHash":    result.TxHash,
	}).Info("Joined queue")
	return result, nil
}

// LeaveQueue leaves matchmaking. It succeeds when the session is not queued.
func (s *Session) LeaveQueue(ctx context.Context) (*service.MutationResult, error) {
	result, err := s.service.LeaveQueue(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to leave queue")
		return nil, err
	}

	batch := events.NewBatch(s.bus)
	s.mu.Lock()
	wasQueued := s.phase == models.PhaseQueued
	if wasQueued {
		s.setPhaseLocked(models.PhaseIdle)
	}
	batch.Publish(events.QueueLeftEvent{WasQueued: wasQueued})
	s.mu.Unlock()
	batch.Flush(ctx)

	s.FetchQueueCount(ctx)

	log.WithField("wasQueued", wasQueued).Info("Left queue")
	return result, nil
}

// SubmitPrediction sends the player's prediction for the current duel.
// It does not change local state; the outcome arrives as a resolution.
func (s *Session) SubmitPrediction(ctx context.Context, direction models.Direction) (*service.MutationResult, error) {
	s.mu.Lock()
	duel := s.currentDuel.Clone()
	s.mu.Unlock()

	if duel == nil {
		return nil, transport.NewPreconditionError("submit prediction", "no active duel")
	}

	result, err := s.service.SubmitPrediction(ctx, duel.ID, direction)
	if err != nil {
		log.WithFields(log.Fields{
			"duelId":    duel.ID,
			"direction": direction,
			"error":     err,
		}).Error("Failed to submit prediction")
		return nil, err
	}

	if s.bus != nil {
		s.bus.Emit(ctx, events.PredictionSubmittedEvent{DuelID: duel.ID, Direction: direction})
	}
	log.WithFields(log.Fields{
		"duelId":    duel.ID,
		"direction": direction,
	}).Info("Prediction submitted")
	return result, nil
}

// PollForMatch checks for an active duel right away and then every interval
// while the session is queued. Polling ends on a match, when the session
// leaves the queue, or when the returned stop function is called.
func (s *Session) PollForMatch(ctx context.Context, interval time.Duration) func() {
	if interval <= 0 {
		interval = DefaultMatchPollInterval
	}
	ctx, cancel := context.WithCancel(ctx)

	go func() {
		defer cancel()
		timer := time.NewTimer(0)
		defer timer.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}

			if !s.isQueued() || s.pollForMatchOnce(ctx) {
				return
			}
			timer.Reset(interval)
		}
	}()

	return cancel
}

func (s *Session) isQueued() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase == models.PhaseQueued
}

// pollForMatchOnce reports whether polling should stop
func (s *Session) pollForMatchOnce(ctx context.Context) bool {
	duels, err := s.service.GetActiveDuels(ctx)
	if ctx.Err() != nil {
		return true
	}
	if err != nil {
		log.WithError(err).Error("Error polling for match")
		return false
	}

	duel := pickDuel(duels, s.player)
	if duel == nil {
		s.FetchQueueCount(ctx)
		return false
	}

	batch := events.NewBatch(s.bus)
	s.mu.Lock()
	if s.phase != models.PhaseQueued {
		s.mu.Unlock()
		return true
	}
	if !s.acceptsStartLocked(duel) {
		s.mu.Unlock()
		s.FetchQueueCount(ctx)
		return false
	}
	s.enterDuelLocked(duel, batch)
	s.mu.Unlock()
	batch.Flush(ctx)

	log.WithField("duelId", duel.ID).Info("Match found")
	return true
}

// pickDuel returns the first duel involving player, or the first duel when player is unknown
func pickDuel(duels []models.Duel, player string) *models.Duel {
	for i := range duels {
		if player == "" || duels[i].Involves(player) {
			return &duels[i]
		}
	}
	return nil
}
