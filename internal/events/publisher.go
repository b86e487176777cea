package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// SubjectHandoff is the NATS subject for human hand-off notifications.
const SubjectHandoff = "support.escalation"

// HandoffEvent is emitted whenever a query is escalated to a human, whether
// by the keyword filter or by the model's sentinel token. Downstream agents
// (ticketing, on-call paging) subscribe to it; the chat flow never depends
// on delivery.
type HandoffEvent struct {
	SessionID string `json:"session_id"`
	Query     string `json:"query"`
	Reason    string `json:"reason"` // "keyword" or "model_token"
	Timestamp string `json:"timestamp"`
}

type Publisher struct {
	conn   *nats.Conn
	logger *slog.Logger
}

func NewPublisher(url, token string, logger *slog.Logger) (*Publisher, error) {
	opts := []nats.Option{
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(60),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Info("nats reconnected")
		}),
	}
	if token != "" {
		opts = append(opts, nats.Token(token))
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	return &Publisher{conn: nc, logger: logger}, nil
}

// PublishHandoff fires a hand-off notification. Safe to call on a nil
// publisher; the service runs without a broker.
func (p *Publisher) PublishHandoff(sessionID, query, reason string) error {
	if p == nil {
		return nil
	}
	evt := HandoffEvent{
		SessionID: sessionID,
		Query:     query,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal hand-off event: %w", err)
	}
	return p.conn.Publish(SubjectHandoff, payload)
}

func (p *Publisher) Close() {
	if p == nil {
		return
	}
	p.conn.Close()
}
