// Package events publishes trip events to RabbitMQ.
//
// Events are sent after the owning transaction commits, one JSON message per
// event on a durable topic exchange. Routing keys are "trip.<kind>", so a
// consumer interested only in lifecycle changes binds "trip.status_changed".
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/pkordes/trip-planner/internal/domain"
)

const (
	// ExchangeName is the topic exchange every trip event is published to.
	ExchangeName = "trips"
	exchangeKind = "topic"
	routingRoot  = "trip."
)

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// Publisher sends trip events to the trips exchange.
type Publisher struct {
	mu   sync.Mutex
	conn *amqp.Connection
	ch   channel
	log  *slog.Logger
}

// Dial connects to the broker at url, opens a channel and declares the
// exchange.
func Dial(url string, log *slog.Logger) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("events.Dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("events.Dial: open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		ExchangeName,
		exchangeKind,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("events.Dial: declare exchange: %w", err)
	}
	p := newPublisher(ch, log)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, log *slog.Logger) *Publisher {
	return &Publisher{ch: ch, log: log}
}

// RoutingKey returns the routing key for an event kind.
func RoutingKey(kind domain.EventKind) string {
	return routingRoot + string(kind)
}

// Publish sends one event as a persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, e domain.TripEvent) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("events.Publisher.Publish: marshal: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx,
		ExchangeName,
		RoutingKey(e.Kind),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			Timestamp:    e.OccurredAt,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("events.Publisher.Publish: %w", err)
	}
	p.log.DebugContext(ctx, "event published", "routing_key", RoutingKey(e.Kind), "trip_id", e.TripID)
	return nil
}

// Close releases the channel and the connection.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if p.ch != nil {
		err = p.ch.Close()
	}
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// LogPublisher writes events to the log instead of a broker. Used when no
// AMQP_URL is configured.
type LogPublisher struct {
	log *slog.Logger
}

// NewLogPublisher constructs a LogPublisher.
func NewLogPublisher(log *slog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

// Publish logs the event at info level.
func (p *LogPublisher) Publish(ctx context.Context, e domain.TripEvent) error {
	p.log.InfoContext(ctx, "trip event",
		"kind", string(e.Kind),
		"trip_id", e.TripID,
		"occurred_at", e.OccurredAt.Format(time.RFC3339),
	)
	return nil
}
