package notify

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mmynk/claimflow/internal/models"
)

// Publisher is the part of *amqp.Channel the sink uses.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// message is the JSON body published for each notification.
type message struct {
	AccountID string `json:"account_id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	ClaimID   string `json:"claim_id,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// AMQPSink publishes notifications to a topic exchange with routing key
// "notification.<type>".
type AMQPSink struct {
	exchange string

	mu sync.Mutex
	ch Publisher

	conn    *amqp.Connection
	channel *amqp.Channel
}

// NewAMQPSink creates a sink publishing through ch.
func NewAMQPSink(ch Publisher, exchange string) *AMQPSink {
	return &AMQPSink{ch: ch, exchange: exchange}
}

// DialAMQP connects to url and declares a durable topic exchange.
func DialAMQP(url, exchange string) (*AMQPSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	sink := NewAMQPSink(ch, exchange)
	sink.conn = conn
	sink.channel = ch
	return sink, nil
}

// Notify publishes n as a persistent JSON message.
func (s *AMQPSink) Notify(ctx context.Context, n models.Notification) error {
	body, err := json.Marshal(message{
		AccountID: n.AccountID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		ClaimID:   n.ClaimID,
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		MessageId:    uuid.New().String(),
		Timestamp:    time.Unix(n.CreatedAt, 0),
		DeliveryMode: amqp.Persistent,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ch.PublishWithContext(ctx, s.exchange, "notification."+n.Type, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

// Close closes the channel and connection opened by DialAMQP.
func (s *AMQPSink) Close() error {
	var errs []error
	if s.channel != nil {
		errs = append(errs, s.channel.Close())
	}
	if s.conn != nil {
		errs = append(errs, s.conn.Close())
	}
	return errors.Join(errs...)
}
