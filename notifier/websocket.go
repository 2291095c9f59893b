package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"speedbet/graphql"
	"speedbet/models"
	"speedbet/observability"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// graphql-transport-ws message types
const (
	wsProtocol          = "graphql-transport-ws"
	msgConnectionInit   = "connection_init"
	msgConnectionAck    = "connection_ack"
	msgSubscribe        = "subscribe"
	msgNext             = "next"
	msgError            = "error"
	msgComplete         = "complete"
	msgPing             = "ping"
	msgPong             = "pong"
	defaultHandshakeTTL = 10 * time.Second
)

type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WebSocketNotifier receives notifications from the service's GraphQL subscription endpoint.
// A dropped connection ends the subscription; it is not re-established.
type WebSocketNotifier struct {
	url     string
	chainID string
	dialer  *websocket.Dialer
	metrics *observability.MetricsProvider
}

// WebSocketURL derives the subscription endpoint from the service base URL
func WebSocketURL(serviceURL string) string {
	u := strings.TrimRight(serviceURL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}

// NewWebSocketNotifier creates a notifier subscribing to chainID's notifications at url
func NewWebSocketNotifier(url, chainID string) *WebSocketNotifier {
	return &WebSocketNotifier{
		url:     url,
		chainID: chainID,
		dialer: &websocket.Dialer{
			HandshakeTimeout: defaultHandshakeTTL,
			Subprotocols:     []string{wsProtocol},
		},
		metrics: observability.GetMetrics(),
	}
}

func (n *WebSocketNotifier) Subscribe(ctx context.Context, callback Callback) (func(), error) {
	conn, resp, err := n.dialer.DialContext(ctx, n.url, nil)
	if err != nil {
		if resp != nil {
			body, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			return nil, fmt.Errorf("failed to dial %s: %s: %s", n.url, resp.Status, strings.TrimSpace(string(body)))
		}
		return nil, fmt.Errorf("failed to dial %s: %w", n.url, err)
	}

	sub := &wsSubscription{
		conn:     conn,
		id:       uuid.NewString(),
		callback: callback,
		metrics:  n.metrics,
		done:     make(chan struct{}),
	}

	if err := sub.handshake(n.chainID); err != nil {
		conn.Close()
		return nil, err
	}

	log.WithFields(log.Fields{
		"url":     n.url,
		"chainId": n.chainID,
	}).Info("Notification subscription registered (websocket mode)")

	go sub.read()
	stopOnCancel(ctx, sub.done, sub.stop)

	return sub.stop, nil
}

type wsSubscription struct {
	conn     *websocket.Conn
	id       string
	callback Callback
	metrics  *observability.MetricsProvider

	writeMu  sync.Mutex
	stopOnce sync.Once
	stopped  bool
	stateMu  sync.Mutex
	done     chan struct{}
}

func (s *wsSubscription) handshake(chainID string) error {
	if err := s.write(wsMessage{Type: msgConnectionInit, Payload: json.RawMessage(`{}`)}); err != nil {
		return fmt.Errorf("failed to send connection_init: %w", err)
	}

	_ = s.conn.SetReadDeadline(time.Now().Add(defaultHandshakeTTL))
	for {
		var msg wsMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			return fmt.Errorf("failed waiting for connection_ack: %w", err)
		}
		if msg.Type == msgConnectionAck {
			break
		}
		if msg.Type == msgPing {
			if err := s.write(wsMessage{Type: msgPong}); err != nil {
				return err
			}
		}
	}
	_ = s.conn.SetReadDeadline(time.Time{})

	payload, err := json.Marshal(graphql.NewRequest(graphql.NotificationsSubscription, graphql.Variables{"chainId": chainID}))
	if err != nil {
		return fmt.Errorf("failed to encode subscription: %w", err)
	}
	if err := s.write(wsMessage{ID: s.id, Type: msgSubscribe, Payload: payload}); err != nil {
		return fmt.Errorf("failed to send subscribe: %w", err)
	}
	return nil
}

func (s *wsSubscription) read() {
	defer close(s.done)

	for {
		var msg wsMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if !s.isStopped() {
				log.WithError(err).Warn("Notification websocket closed")
			}
			return
		}

		switch msg.Type {
		case msgNext:
			notification, err := decodeSubscriptionPayload(msg.Payload)
			if err != nil {
				log.WithError(err).Warn("Failed to decode notification")
				continue
			}
			if s.isStopped() {
				return
			}
			s.metrics.RecordNotificationReceived(observability.SourceWebSocket)
			s.callback(notification)
		case msgPing:
			if err := s.write(wsMessage{Type: msgPong}); err != nil {
				log.WithError(err).Warn("Failed to answer websocket ping")
			}
		case msgError:
			log.WithField("payload", string(msg.Payload)).Error("Notification subscription rejected")
			return
		case msgComplete:
			log.Info("Notification subscription completed by server")
			return
		}
	}
}

// decodeSubscriptionPayload extracts the notification from a next message's {data: {notifications: ...}}
func decodeSubscriptionPayload(payload json.RawMessage) (models.Notification, error) {
	var envelope struct {
		Data struct {
			Notifications json.RawMessage `json:"notifications"`
		} `json:"data"`
		Errors []graphql.Error `json:"errors"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return models.Notification{}, fmt.Errorf("invalid subscription payload: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return models.Notification{}, fmt.Errorf("subscription error: %s", envelope.Errors[0].Message)
	}
	if len(envelope.Data.Notifications) == 0 {
		return models.Notification{}, fmt.Errorf("subscription payload has no notifications field")
	}

	var n models.Notification
	if err := json.Unmarshal(envelope.Data.Notifications, &n); err != nil {
		return models.Notification{}, fmt.Errorf("invalid notification: %w", err)
	}
	return n, nil
}

func (s *wsSubscription) write(msg wsMessage) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(msg)
}

func (s *wsSubscription) isStopped() bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.stopped
}

func (s *wsSubscription) stop() {
	s.stopOnce.Do(func() {
		s.stateMu.Lock()
		s.stopped = true
		s.stateMu.Unlock()

		if err := s.write(wsMessage{ID: s.id, Type: msgComplete}); err != nil {
			log.WithError(err).Debug("Failed to send complete")
		}
		s.writeMu.Lock()
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		s.writeMu.Unlock()
		s.conn.Close()
	})
}
