package notifier

import (
	"context"
	"fmt"

	"speedbet/config"
	"speedbet/graphql"
	"speedbet/models"
	"speedbet/transport"
)

// Callback receives notifications. Delivery is at-least-once and unordered.
type Callback func(n models.Notification)

// Notifier delivers chain notifications to a subscriber
type Notifier interface {
	// Subscribe starts delivering notifications to callback until the returned
	// unsubscribe function is called or ctx is done. Unsubscribe is idempotent.
	Subscribe(ctx context.Context, callback Callback) (unsubscribe func(), err error)
}

// Querier is the part of a transport the poller needs
type Querier interface {
	Query(ctx context.Context, document string, vars graphql.Variables) (*graphql.Response, error)
}

// New creates the notifier selected by configuration.
// Push notifiers only make sense against a real service, so a simulated
// transport always gets the poller.
func New(cfg *config.Config, t transport.Transport) (Notifier, error) {
	if t.Mode() != transport.ModeReal {
		return NewPoller(t, cfg.PollInterval), nil
	}

	switch cfg.NotifierType {
	case config.NotifierPoll, "":
		return NewPoller(t, cfg.PollInterval), nil
	case config.NotifierWebSocket:
		return NewWebSocketNotifier(WebSocketURL(cfg.ServiceURL), cfg.ChainID), nil
	case config.NotifierNATS:
		return NewNATSNotifier(cfg.NATSServers, cfg.NATSSubject), nil
	default:
		return nil, fmt.Errorf("unknown notifier type: %s", cfg.NotifierType)
	}
}

// stopOnCancel calls stop when ctx ends unless done is closed first.
// The returned channel is closed once the watcher has returned.
func stopOnCancel(ctx context.Context, done <-chan struct{}, stop func()) <-chan struct{} {
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-ctx.Done():
			stop()
		case <-done:
		}
	}()
	return exited
}
