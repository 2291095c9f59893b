package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"speedbet/models"
	"speedbet/observability"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

const (
	natsReconnectDelay       = 2 * time.Second
	natsMaxReconnectAttempts = 10
)

// connectNATS opens a NATS connection with logging reconnect handlers
func connectNATS(servers, name string) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name(name),
		nats.MaxReconnects(natsMaxReconnectAttempts),
		nats.ReconnectWait(natsReconnectDelay),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.WithError(err).Error("NATS disconnected with error")
			} else {
				log.Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			fields := log.Fields{"error": err}
			if sub != nil {
				fields["subject"] = sub.Subject
			}
			log.WithFields(fields).Error("NATS async error")
		}),
	}

	nc, err := nats.Connect(servers, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.WithField("servers", servers).Info("Connected to NATS")
	return nc, nil
}

// NATSNotifier receives notifications relayed on a NATS subject as JSON.
// Messages that fail to decode are logged and skipped.
type NATSNotifier struct {
	servers string
	subject string
	metrics *observability.MetricsProvider
}

// NewNATSNotifier creates a notifier listening on subject
func NewNATSNotifier(servers, subject string) *NATSNotifier {
	return &NATSNotifier{
		servers: servers,
		subject: subject,
		metrics: observability.GetMetrics(),
	}
}

func (n *NATSNotifier) Subscribe(ctx context.Context, callback Callback) (func(), error) {
	nc, err := connectNATS(n.servers, "speedbet-notifier-"+uuid.NewString()[:8])
	if err != nil {
		return nil, err
	}

	var (
		stateMu sync.Mutex
		stopped bool
	)
	sub, err := nc.Subscribe(n.subject, func(msg *nats.Msg) {
		notification, err := decodeNATSMessage(msg.Data)
		if err != nil {
			log.WithFields(log.Fields{
				"subject": msg.Subject,
				"error":   err,
			}).Error("Failed to process message")
			return
		}

		stateMu.Lock()
		done := stopped
		stateMu.Unlock()
		if done {
			return
		}

		n.metrics.RecordNotificationReceived(observability.SourceNATS)
		callback(notification)
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", n.subject, err)
	}
	log.WithField("subject", n.subject).Info("Notification subscription registered (nats mode)")

	var once sync.Once
	done := make(chan struct{})
	unsubscribe := func() {
		once.Do(func() {
			close(done)
			stateMu.Lock()
			stopped = true
			stateMu.Unlock()

			if err := sub.Unsubscribe(); err != nil {
				log.WithFields(log.Fields{
					"subject": n.subject,
					"error":   err,
				}).Error("Failed to unsubscribe")
			}
			nc.Close()
			log.Info("NATS connection closed")
		})
	}

	stopOnCancel(ctx, done, unsubscribe)

	return unsubscribe, nil
}

func decodeNATSMessage(data []byte) (models.Notification, error) {
	var n models.Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return models.Notification{}, fmt.Errorf("invalid notification: %w", err)
	}
	return n, nil
}

// NATSPublisher publishes notifications for NATSNotifier subscribers
type NATSPublisher struct {
	nc      *nats.Conn
	subject string
}

// NewNATSPublisher connects a publisher for subject
func NewNATSPublisher(servers, subject string) (*NATSPublisher, error) {
	nc, err := connectNATS(servers, "speedbet-relay")
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{nc: nc, subject: subject}, nil
}

// Publish sends a notification to the subject
func (p *NATSPublisher) Publish(ctx context.Context, n models.Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish message to subject %s: %w", p.subject, err)
	}

	log.WithFields(log.Fields{
		"subject": p.subject,
		"size":    len(data),
	}).Debug("Published message to NATS")
	return nil
}

// Flush waits until published messages reached the server
func (p *NATSPublisher) Flush() error {
	return p.nc.Flush()
}

// Close closes the publisher connection
func (p *NATSPublisher) Close() {
	p.nc.Close()
}

// Relay forwards every notification from source to the publisher so that many
// clients can share one chain poller. It returns the source's unsubscribe function.
func Relay(ctx context.Context, source Notifier, publisher *NATSPublisher) (func(), error) {
	return source.Subscribe(ctx, func(n models.Notification) {
		if err := publisher.Publish(ctx, n); err != nil {
			log.WithError(err).Error("Failed to relay notification")
		}
	})
}
