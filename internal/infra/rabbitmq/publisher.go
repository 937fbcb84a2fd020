package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// DefaultExchange receives every quiz event, routed by event type.
const DefaultExchange = "quiz.events"

// Envelope is the JSON body of every published message.
type Envelope struct {
	Type       string    `json:"type"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher sends events to a durable topic exchange. A channel or connection
// closed by the broker is reopened on the next Publish.
type Publisher struct {
	url      string
	exchange string
	logger   *slog.Logger
	now      func() time.Time

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
	closed  bool
}

// NewPublisher dials url and declares exchange, defaulting to DefaultExchange.
func NewPublisher(url, exchange string, logger *slog.Logger) (*Publisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{
		url:      url,
		exchange: exchange,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.connectLocked(); err != nil {
		if p.conn != nil {
			p.conn.Close()
		}
		return nil, err
	}
	logger.Info("event publisher ready", "exchange", exchange)
	return p, nil
}

// connectLocked (re)opens whatever part of the connection is gone. p.mu must be held.
func (p *Publisher) connectLocked() error {
	if p.conn == nil || p.conn.IsClosed() {
		conn, err := amqp.Dial(p.url)
		if err != nil {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}
		p.conn = conn
	}
	channel, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	err = channel.ExchangeDeclare(
		p.exchange, // name
		"topic",    // type
		true,       // durable
		false,      // auto-deleted
		false,      // internal
		false,      // no-wait
		nil,        // arguments
	)
	if err != nil {
		channel.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}
	p.channel = channel
	go p.watch(channel, channel.NotifyClose(make(chan *amqp.Error, 1)))
	return nil
}

// watch drops channel once the broker closes it so the next Publish redials.
func (p *Publisher) watch(channel *amqp.Channel, closed <-chan *amqp.Error) {
	reason, ok := <-closed
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.channel != channel {
		return
	}
	p.channel = nil
	if ok && reason != nil {
		p.logger.Warn("rabbitmq channel closed", "code", reason.Code, "reason", reason.Reason)
	} else {
		p.logger.Warn("rabbitmq channel closed")
	}
}

func (p *Publisher) Publish(ctx context.Context, eventType string, payload any) error {
	msg, err := newMessage(eventType, payload, p.now())
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("publish %s: publisher closed", eventType)
	}
	if p.channel == nil || p.channel.IsClosed() {
		if err := p.connectLocked(); err != nil {
			return fmt.Errorf("reconnect for %s: %w", eventType, err)
		}
		p.logger.InfoContext(ctx, "rabbitmq channel reopened", "exchange", p.exchange)
	}
	if err := p.channel.PublishWithContext(ctx, p.exchange, eventType, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	p.logger.DebugContext(ctx, "event published", "event", eventType)
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			p.logger.Warn("close rabbitmq channel", "error", err)
		}
	}
	if p.conn != nil && !p.conn.IsClosed() {
		if err := p.conn.Close(); err != nil {
			return fmt.Errorf("close rabbitmq connection: %w", err)
		}
	}
	return nil
}

func newMessage(eventType string, payload any, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(Envelope{Type: eventType, Payload: payload, OccurredAt: now})
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    now,
		Type:         eventType,
		Body:         body,
		Headers: amqp.Table{
			"event_type": eventType,
		},
	}, nil
}
