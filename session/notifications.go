package session

import (
	"context"

	"speedbet/models"
	"speedbet/notifier"

	log "github.com/sirupsen/logrus"
)

// SetupNotifications subscribes the session to n and returns the unsubscribe function
func (s *Session) SetupNotifications(ctx context.Context, n notifier.Notifier) (func(), error) {
	return n.Subscribe(ctx, func(notification models.Notification) {
		s.HandleNotification(ctx, notification)
	})
}

// HandleNotification routes one notification. Every notification refreshes
// the queue count whether or not it carries a duel payload, and the price
// while a duel is live.
func (s *Session) HandleNotification(ctx context.Context, n models.Notification) {
	fields := log.Fields{}
	if n.Reason.NewBlock != nil {
		fields["height"] = n.Reason.NewBlock.Height
	}
	log.WithFields(fields).Debug("Notification received")

	switch {
	case n.DuelStarted != nil:
		s.handleDuelStarted(ctx, n.DuelStarted)
	case len(n.DuelResolved) > 0 && string(n.DuelResolved) != "null":
		s.handleDuelResolved(ctx, n.DuelResolved)
	case n.MatchFound != nil:
		s.handleDuelStarted(ctx, n.MatchFound)
	}

	s.FetchQueueCount(ctx)
	s.refreshDuelPrice(ctx)
}
