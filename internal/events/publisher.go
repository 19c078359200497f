package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cx-tal-miterani/flight-booking-flow/shared/models"
	"github.com/segmentio/kafka-go"
)

const (
	TypeBookingConfirmed = "booking.confirmed"

	headerEventType = "event-type"
)

var ErrPublisherClosed = errors.New("publisher is closed")

// BookingConfirmedEvent is the message published once a booking is stored
type BookingConfirmedEvent struct {
	Type       string                     `json:"type"`
	OccurredAt time.Time                  `json:"occurredAt"`
	Booking    models.BookingConfirmation `json:"booking"`
}

// Publisher announces booking lifecycle events to other systems
type Publisher interface {
	PublishBookingConfirmed(ctx context.Context, booking models.BookingConfirmation) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a Kafka topic, keyed by PNR so every event
// of one booking lands on the same partition.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	mu     sync.RWMutex
	closed bool
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  5,
		BatchTimeout: 10 * time.Millisecond,
		Logger:       kafka.LoggerFunc(func(msg string, args ...any) {}),
		ErrorLogger:  kafka.LoggerFunc(log.Printf),
	}
	return newKafkaPublisher(writer, topic), nil
}

func newKafkaPublisher(w messageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic}
}

func (p *KafkaPublisher) PublishBookingConfirmed(ctx context.Context, booking models.BookingConfirmation) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	if booking.PNR == "" {
		return fmt.Errorf("booking has no PNR")
	}

	event := BookingConfirmedEvent{
		Type:       TypeBookingConfirmed,
		OccurredAt: booking.BookedAt,
		Booking:    booking,
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	msg := kafka.Message{
		Key:     []byte(booking.PNR),
		Value:   value,
		Time:    booking.BookedAt,
		Headers: []kafka.Header{{Key: headerEventType, Value: []byte(TypeBookingConfirmed)}},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}

// NopPublisher drops every event; used when no brokers are configured
type NopPublisher struct{}

func (NopPublisher) PublishBookingConfirmed(ctx context.Context, booking models.BookingConfirmation) error {
	return nil
}

func (NopPublisher) Close() error { return nil }

// NewPublisher returns a Kafka publisher, or a NopPublisher when brokers is empty
func NewPublisher(brokers []string, topic string) (Publisher, error) {
	if len(brokers) == 0 {
		log.Printf("No Kafka brokers configured, booking events will not be published")
		return NopPublisher{}, nil
	}
	return NewKafkaPublisher(brokers, topic)
}
