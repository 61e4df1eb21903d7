// Package events publishes reservation lifecycle changes to Kafka for
// downstream consumers (order mailers, analytics). Publishing is optional:
// with no brokers configured the publisher is nil and services skip emission.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

const (
	TypeReservationCreated   = "reservation.created"
	TypeReservationExpired   = "reservation.expired"
	TypeReservationConsumed  = "reservation.consumed"
	TypeReservationCancelled = "reservation.cancelled"
)

// ReservationEvent is the wire payload for a single lifecycle transition.
type ReservationEvent struct {
	Type          string    `json:"type"`
	ReservationID string    `json:"reservation_id"`
	ProductID     string    `json:"product_id"`
	Quantity      int       `json:"quantity"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type Publisher struct {
	writer *kafka.Writer
	logger zerolog.Logger
}

// NewPublisher returns a Kafka publisher, or nil when no brokers are
// configured.
func NewPublisher(brokers []string, topic string, logger zerolog.Logger) *Publisher {
	if len(brokers) == 0 {
		return nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	return &Publisher{
		writer: writer,
		logger: logger,
	}
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	return p.writer.Close()
}

// PublishReservationEvent emits a single lifecycle event keyed by product so
// per-product ordering is preserved across partitions.
func (p *Publisher) PublishReservationEvent(ctx context.Context, evt ReservationEvent) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal reservation event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(evt.ProductID),
		Value: data,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish reservation event: %w", err)
	}

	p.logger.Debug().
		Str("type", evt.Type).
		Str("reservation_id", evt.ReservationID).
		Msg("published reservation event")
	return nil
}
