// Package events announces booking lifecycle transitions on the message bus.
package events

import (
	"context"
	"staybook/pkg/kafka"
	"staybook/pkg/logger"
	"staybook/pkg/middleware"
	"staybook/pkg/model"
	"time"
)

const (
	BookingReserved  = "booking.reserved"
	BookingConfirmed = "booking.confirmed"
	BookingCancelled = "booking.cancelled"
	BookingExpired   = "booking.expired"

	schemaVersion = "1"
	source        = "bookings"
)

type BookingEvent struct {
	BookingID    string              `json:"booking_id"`
	HotelID      string              `json:"hotel_id"`
	RoomID       string              `json:"room_id"`
	UserID       string              `json:"user_id"`
	Status       model.BookingStatus `json:"status"`
	RoomsCount   int                 `json:"rooms_count"`
	Amount       float64             `json:"amount"`
	CheckInDate  string              `json:"check_in_date"`
	CheckOutDate string              `json:"check_out_date"`
	OccurredAt   time.Time           `json:"occurred_at"`
}

// Publisher is called after a transition has committed. Implementations
// must not block the caller on delivery failures.
type Publisher interface {
	Publish(ctx context.Context, eventType string, b *model.Booking)
}

type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, *model.Booking) {}

type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type KafkaPublisher struct {
	producer messagePublisher
	log      *logger.Logger
	now      func() time.Time
}

func NewKafkaPublisher(producer messagePublisher, log *logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, log: log, now: time.Now}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType string, b *model.Booking) {
	msg, err := kafka.NewMessage().
		WithKey(b.ID).
		WithEventType(eventType).
		WithSchemaVersion(schemaVersion).
		WithSource(source).
		WithCorrelationID(middleware.RequestIDFromContext(ctx)).
		WithValue(BookingEvent{
			BookingID:    b.ID,
			HotelID:      b.HotelID,
			RoomID:       b.RoomID,
			UserID:       b.UserID,
			Status:       b.Status,
			RoomsCount:   b.RoomsCount,
			Amount:       b.Amount,
			CheckInDate:  b.CheckInDate.Format(time.DateOnly),
			CheckOutDate: b.CheckOutDate.Format(time.DateOnly),
			OccurredAt:   p.now().UTC(),
		}).
		Build()
	if err != nil {
		p.log.Error("Failed to build booking event", "booking_id", b.ID, "event_type", eventType, "error", err)
		return
	}

	if err := p.producer.Publish(context.WithoutCancel(ctx), msg); err != nil {
		p.log.Warn("Failed to publish booking event", "booking_id", b.ID, "event_type", eventType, "error", err)
	}
}
