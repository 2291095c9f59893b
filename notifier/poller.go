package notifier

import (
	"context"
	"sync"
	"time"

	"speedbet/graphql"
	"speedbet/models"
	"speedbet/observability"

	log "github.com/sirupsen/logrus"
)

// DefaultPollInterval is how often the poller queries the chain service
const DefaultPollInterval = 3 * time.Second

// Poller emulates push notifications by querying queue counters on a fixed interval.
// Failed cycles are logged and polling continues; there is no backoff.
type Poller struct {
	querier  Querier
	interval time.Duration
	now      func() time.Time
	metrics  *observability.MetricsProvider
}

// NewPoller creates a poller; a non-positive interval uses DefaultPollInterval
func NewPoller(querier Querier, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		querier:  querier,
		interval: interval,
		now:      time.Now,
		metrics:  observability.GetMetrics(),
	}
}

// Subscribe starts the polling loop. The first poll happens one interval after subscribing.
func (p *Poller) Subscribe(ctx context.Context, callback Callback) (func(), error) {
	ctx, cancel := context.WithCancel(ctx)
	ticker := time.NewTicker(p.interval)

	log.WithField("interval", p.interval).Info("Notification subscription registered (polling mode)")

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				log.Debug("Notification poller stopped")
				return
			case <-ticker.C:
				p.poll(ctx, callback)
			}
		}
	}()

	// Return cleanup function
	var once sync.Once
	return func() {
		once.Do(cancel)
	}, nil
}

func (p *Poller) poll(ctx context.Context, callback Callback) {
	resp, err := p.querier.Query(ctx, graphql.GetCounters, nil)
	if ctx.Err() != nil {
		// Unsubscribed while the query was in flight
		return
	}
	if err != nil {
		p.metrics.RecordPollCycle(observability.OutcomeError)
		log.WithError(err).Warn("Notification poll failed")
		return
	}
	p.metrics.RecordPollCycle(observability.OutcomeSuccess)

	if resp == nil || len(resp.Data) == 0 || string(resp.Data) == "null" {
		return
	}

	p.metrics.RecordNotificationReceived(observability.SourcePoll)
	callback(models.Notification{
		Reason: models.NotificationReason{
			NewBlock: &models.NewBlock{Height: p.now().UnixMilli()},
		},
		Data: resp.Data,
	})
}
