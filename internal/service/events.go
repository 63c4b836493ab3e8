package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/beginner-catalog/catalog-service-go/internal/config"
	"github.com/beginner-catalog/catalog-service-go/internal/metrics"
	"github.com/beginner-catalog/catalog-service-go/pkg/logger"
)

// Routing keys of the domain events.
const (
	EventWeightsUpdated = "bci.weights.updated"
	EventRecalculated   = "bci.recalculated"
	EventVideoScored    = "video.scored"
)

const publishConfirmTimeout = 5 * time.Second

// Event is the envelope of every published message.
type Event struct {
	ID         uuid.UUID   `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Data       interface{} `json:"data"`
}

// VideoScoredData is the payload of EventVideoScored.
type VideoScoredData struct {
	VideoID  string `json:"videoId"`
	Pathway  string `json:"pathway"`
	Score    int    `json:"score"`
	Previous int    `json:"previous"`
}

// EventPublisher sends domain events to interested consumers.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, data interface{}) error
	Close() error
}

// NoopPublisher discards every event. It is used when no broker is configured.
type NoopPublisher struct{}

// Publish implements EventPublisher.
func (NoopPublisher) Publish(context.Context, string, interface{}) error { return nil }

// Close implements EventPublisher.
func (NoopPublisher) Close() error { return nil }

// RabbitPublisher publishes events to a RabbitMQ topic exchange with
// publisher confirms.
type RabbitPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  config.RabbitMQConfig
	mu      sync.Mutex
}

// NewRabbitPublisher connects to RabbitMQ and declares the events exchange.
func NewRabbitPublisher(cfg config.RabbitMQConfig) (*RabbitPublisher, error) {
	p := &RabbitPublisher{config: cfg}

	if err := p.connect(); err != nil {
		return nil, err
	}

	return p, nil
}

func (p *RabbitPublisher) connect() error {
	conn, err := amqp.Dial(p.config.URL())
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to enable publisher confirms: %w", err)
	}

	if err := ch.ExchangeDeclare(
		p.config.Exchange, // name
		"topic",           // type
		true,              // durable
		false,             // auto-deleted
		false,             // internal
		false,             // no-wait
		nil,               // arguments
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	p.conn = conn
	p.channel = ch

	logger.L().Info("Connected to RabbitMQ", zap.String("exchange", p.config.Exchange))

	return nil
}

// Publish sends one event and waits for the broker to confirm that message.
// A confirmation that arrives after Publish gave up is matched to its own
// delivery tag and never to a later message.
func (p *RabbitPublisher) Publish(ctx context.Context, routingKey string, data interface{}) error {
	p.mu.Lock()
	ch := p.channel
	p.mu.Unlock()

	if ch == nil {
		return errors.New("channel is not initialized")
	}

	event := Event{
		ID:         uuid.New(),
		Type:       routingKey,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}

	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	confirmation, err := ch.PublishWithDeferredConfirmWithContext(
		ctx,
		p.config.Exchange, // exchange
		routingKey,        // routing key
		false,             // mandatory
		false,             // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.OccurredAt,
			MessageId:    event.ID.String(),
			Type:         routingKey,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	if confirmation == nil {
		return errors.New("channel is not in confirm mode")
	}

	waitCtx, cancel := context.WithTimeout(ctx, publishConfirmTimeout)
	defer cancel()

	acked, err := confirmation.WaitContext(waitCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("timeout waiting for publish confirmation of tag %d: %w", confirmation.DeliveryTag, err)
		}
		return fmt.Errorf("waiting for publish confirmation: %w", err)
	}
	if !acked {
		return fmt.Errorf("message with tag %d was not acknowledged by broker", confirmation.DeliveryTag)
	}

	logger.L().Debug("Published event",
		zap.String("eventId", event.ID.String()),
		zap.String("routingKey", routingKey),
	)

	return nil
}

// Close closes the channel and the connection.
func (p *RabbitPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	if p.channel != nil {
		if err := p.channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing publisher: %w", errors.Join(errs...))
	}

	logger.L().Info("RabbitMQ publisher closed")
	return nil
}

// IsHealthy reports whether the connection is usable.
func (p *RabbitPublisher) IsHealthy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.conn != nil && !p.conn.IsClosed() && p.channel != nil
}

// notifier publishes events on behalf of a service. Failures are logged and
// counted, never returned; the state change they describe is already durable.
type notifier struct {
	publisher EventPublisher
	metrics   *metrics.Metrics
	log       *zap.Logger
}

func newNotifier(publisher EventPublisher, m *metrics.Metrics, log *zap.Logger) notifier {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return notifier{publisher: publisher, metrics: m, log: log}
}

func (n notifier) notify(ctx context.Context, routingKey string, data interface{}) {
	err := n.publisher.Publish(ctx, routingKey, data)
	n.metrics.EventPublished(routingKey, err)
	if err != nil {
		n.log.Warn("Failed to publish event",
			zap.String("routingKey", routingKey),
			zap.Error(err),
		)
	}
}
