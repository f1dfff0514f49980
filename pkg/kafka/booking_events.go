package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"staybook/pkg/model"

	"github.com/google/uuid"
)

const (
	EventTypeBookingStatusChanged = "booking.status_changed"
	BookingEventSchemaVersion     = "1"
)

// BookingEventPublisher emits model.BookingStatusEvent messages keyed by
// booking id.
type BookingEventPublisher struct {
	publisher Publisher
	source    string
	now       func() time.Time
}

func NewBookingEventPublisher(publisher Publisher, source string) *BookingEventPublisher {
	return &BookingEventPublisher{publisher: publisher, source: source, now: time.Now}
}

func (p *BookingEventPublisher) PublishStatusChange(ctx context.Context, booking *model.Booking, reason string) error {
	if booking == nil || booking.ID == "" {
		return ErrInvalidMessage
	}

	event := model.BookingStatusEvent{
		EventID:       uuid.NewString(),
		BookingID:     booking.ID,
		UserID:        booking.UserID,
		Status:        booking.Status,
		PaymentStatus: booking.PaymentStatus,
		Reason:        reason,
		OccurredAt:    p.now().UTC(),
	}

	msg := NewMessage().
		WithKey(booking.ID).
		WithValue(event).
		WithEventID(event.EventID).
		WithEventType(EventTypeBookingStatusChanged).
		WithSchemaVersion(BookingEventSchemaVersion).
		WithSource(p.source).
		Build()

	return p.publisher.Publish(ctx, msg)
}

// NopPublisher discards messages. Used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Message) error { return nil }

// BookingStatusHandler decodes status events and passes them to onEvent.
// Undecodable or foreign messages are permanent failures.
func BookingStatusHandler(onEvent func(ctx context.Context, event model.BookingStatusEvent) error) MessageHandler {
	return func(ctx context.Context, msg Message) error {
		if t := msg.GetEventType(); t != "" && t != EventTypeBookingStatusChanged {
			return NewPermanentError("unexpected event type", fmt.Errorf("%q", t))
		}

		var event model.BookingStatusEvent
		if err := msg.DecodeValue(&event); err != nil {
			return NewPermanentError("invalid booking status event", err)
		}
		if event.BookingID == "" {
			return NewPermanentError("invalid booking status event", errors.New("missing bookingId"))
		}

		if err := onEvent(ctx, event); err != nil {
			return NewTransientError("booking status event handling failed", err)
		}
		return nil
	}
}
