package model

import "time"

// Inventory holds the capacity counters of one room on one calendar date.
// Dates are stored at UTC midnight.
type Inventory struct {
	ID            string    `json:"id" bson:"_id"`
	HotelID       string    `json:"hotel_id" bson:"hotel_id"`
	RoomID        string    `json:"room_id" bson:"room_id"`
	City          string    `json:"city" bson:"city"`
	Date          time.Time `json:"date" bson:"date"`
	TotalCount    int       `json:"total_count" bson:"total_count"`
	ReservedCount int       `json:"reserved_count" bson:"reserved_count"`
	BookedCount   int       `json:"booked_count" bson:"booked_count"`
	BasePrice     float64   `json:"base_price" bson:"base_price"`
	SurgeFactor   float64   `json:"surge_factor" bson:"surge_factor"`
	Closed        bool      `json:"closed" bson:"closed"`
	LockVersion   int64     `json:"-" bson:"lock_version"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// InventoryID is the natural key of a record: one per (room, date).
func InventoryID(roomID string, date time.Time) string {
	return roomID + "_" + date.UTC().Format(time.DateOnly)
}

// Available returns the sellable units for the day. Closed days sell nothing.
func (i *Inventory) Available() int {
	if i.Closed {
		return 0
	}
	return max(0, i.TotalCount-i.ReservedCount-i.BookedCount)
}

// Occupancy is the booked share of total capacity.
func (i *Inventory) Occupancy() float64 {
	if i.TotalCount <= 0 {
		return 0
	}
	return float64(i.BookedCount) / float64(i.TotalCount)
}

// Consistent reports whether the counters satisfy the capacity invariant.
func (i *Inventory) Consistent() bool {
	return i.ReservedCount >= 0 && i.BookedCount >= 0 && i.ReservedCount+i.BookedCount <= i.TotalCount
}

// InventoryUpdateRequest is the owner override applied to a date range.
type InventoryUpdateRequest struct {
	StartDate   string   `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string   `json:"end_date" validate:"required,datetime=2006-01-02"`
	Closed      *bool    `json:"closed,omitempty"`
	SurgeFactor *float64 `json:"surge_factor,omitempty" validate:"omitempty,gt=0,lte=10"`
}

// InventoryUpdate is a parsed InventoryUpdateRequest.
type InventoryUpdate struct {
	StartDate   time.Time
	EndDate     time.Time
	Closed      *bool
	SurgeFactor *float64
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysInclusive counts the calendar days in [start, end].
func DaysInclusive(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	return int(Day(end).Sub(Day(start)).Hours()/24) + 1
}
