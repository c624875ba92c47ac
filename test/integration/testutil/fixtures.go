//go:build integration

package testutil

import (
	"staybook/pkg/model"
	"testing"
	"time"
)

type HotelFixture struct {
	Hotel model.Hotel
	Room  model.Room
	Start time.Time
	Days  int
}

func NewHotelFixture(owner string, totalCount int) *HotelFixture {
	return &HotelFixture{
		Hotel: model.Hotel{ID: "hotel-it-1", OwnerID: owner, Name: "Integration Inn", City: "goa", Active: true},
		Room:  model.Room{ID: "room-it-1", HotelID: "hotel-it-1", Type: "DELUXE", BasePrice: 120, TotalCount: totalCount},
		Start: model.Day(time.Now()).AddDate(0, 0, 30),
		Days:  14,
	}
}

func (f *HotelFixture) Day(i int) time.Time {
	return f.Start.AddDate(0, 0, i)
}

// Seed writes the hotel, the room and one open inventory record per day.
func (f *HotelFixture) Seed(t *testing.T, m *MongoHelper) {
	t.Helper()
	m.Insert(t, HotelsCollection, f.Hotel)
	m.Insert(t, RoomsCollection, f.Room)

	now := time.Now().UTC()
	docs := make([]any, 0, f.Days)
	for i := 0; i < f.Days; i++ {
		d := f.Day(i)
		docs = append(docs, model.Inventory{
			ID:          model.InventoryID(f.Room.ID, d),
			HotelID:     f.Hotel.ID,
			RoomID:      f.Room.ID,
			City:        f.Hotel.City,
			Date:        d,
			TotalCount:  f.Room.TotalCount,
			BasePrice:   f.Room.BasePrice,
			SurgeFactor: 1,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	m.Insert(t, InventoryCollection, docs...)
}

func (f *HotelFixture) Request(from, to, rooms int) map[string]any {
	return map[string]any{
		"hotel_id":       f.Hotel.ID,
		"room_id":        f.Room.ID,
		"check_in_date":  f.Day(from).Format(time.DateOnly),
		"check_out_date": f.Day(to).Format(time.DateOnly),
		"rooms_count":    rooms,
	}
}
