package model

import (
	"time"
)

type BookingStatus string

const (
	BookingReserved        BookingStatus = "RESERVED"
	BookingGuestsAdded     BookingStatus = "GUESTS_ADDED"
	BookingPaymentsPending BookingStatus = "PAYMENTS_PENDING"
	BookingConfirmed       BookingStatus = "CONFIRMED"
	BookingCancelled       BookingStatus = "CANCELLED"
	BookingExpired         BookingStatus = "EXPIRED"
)

// PreConfirmed reports whether the status still holds capacity as reserved
// and is subject to expiry.
func (s BookingStatus) PreConfirmed() bool {
	switch s {
	case BookingReserved, BookingGuestsAdded, BookingPaymentsPending:
		return true
	}
	return false
}

type Booking struct {
	ID               string        `json:"id" bson:"_id"`
	HotelID          string        `json:"hotel_id" bson:"hotel_id"`
	RoomID           string        `json:"room_id" bson:"room_id"`
	UserID           string        `json:"user_id" bson:"user_id"`
	CheckInDate      time.Time     `json:"check_in_date" bson:"check_in_date"`
	CheckOutDate     time.Time     `json:"check_out_date" bson:"check_out_date"`
	RoomsCount       int           `json:"rooms_count" bson:"rooms_count"`
	Amount           float64       `json:"amount" bson:"amount"`
	Status           BookingStatus `json:"status" bson:"status"`
	PaymentSessionID string        `json:"payment_session_id,omitempty" bson:"payment_session_id,omitempty"`
	Guests           []Guest       `json:"guests,omitempty" bson:"-"`
	CreatedAt        time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time     `json:"updated_at" bson:"updated_at"`
}

// ExpiresAt is the instant after which an unconfirmed booking lapses.
func (b *Booking) ExpiresAt(expiry time.Duration) time.Time {
	return b.CreatedAt.Add(expiry)
}

// IsExpired reports whether an unconfirmed booking is past its window at now.
func (b *Booking) IsExpired(now time.Time, expiry time.Duration) bool {
	return b.Status.PreConfirmed() && now.After(b.ExpiresAt(expiry))
}

type Guest struct {
	ID        string    `json:"id" bson:"_id"`
	BookingID string    `json:"booking_id" bson:"booking_id"`
	UserID    string    `json:"user_id" bson:"user_id"`
	Name      string    `json:"name" bson:"name" validate:"required,min=1,max=100"`
	Gender    string    `json:"gender" bson:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	Age       int       `json:"age" bson:"age" validate:"gte=0,lte=130"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// BookingRequest is the wire form of a reservation request; dates are YYYY-MM-DD.
type BookingRequest struct {
	HotelID      string `json:"hotel_id" validate:"required,max=64"`
	RoomID       string `json:"room_id" validate:"required,max=64"`
	CheckInDate  string `json:"check_in_date" validate:"required,datetime=2006-01-02"`
	CheckOutDate string `json:"check_out_date" validate:"required,datetime=2006-01-02"`
	RoomsCount   int    `json:"rooms_count"`
}

// BookingInput is a parsed BookingRequest.
type BookingInput struct {
	HotelID    string
	RoomID     string
	CheckIn    time.Time
	CheckOut   time.Time
	RoomsCount int
}

type GuestRequest struct {
	Name   string `json:"name" validate:"required,min=1,max=100"`
	Gender string `json:"gender" validate:"omitempty,oneof=MALE FEMALE OTHER"`
	Age    int    `json:"age" validate:"gte=0,lte=130"`
}

type PaymentSessionResponse struct {
	BookingID  string `json:"booking_id"`
	SessionID  string `json:"session_id"`
	SessionURL string `json:"session_url"`
}

type BookingStatusResponse struct {
	ID     string        `json:"id"`
	Status BookingStatus `json:"status"`
}

type HotelReport struct {
	HotelID        string    `json:"hotel_id"`
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	BookingCount   int64     `json:"booking_count"`
	TotalRevenue   float64   `json:"total_revenue"`
	AverageRevenue float64   `json:"average_revenue"`
}
