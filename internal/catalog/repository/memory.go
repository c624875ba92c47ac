package repository

import (
	"context"
	catalogerrors "staybook/internal/catalog/errors"
	"sort"
	"staybook/pkg/model"
	"sync"
)

type MemoryCatalogRepository struct {
	mu     sync.RWMutex
	hotels map[string]model.Hotel
	rooms  map[string]model.Room
}

func NewMemoryCatalogRepository() *MemoryCatalogRepository {
	return &MemoryCatalogRepository{
		hotels: make(map[string]model.Hotel),
		rooms:  make(map[string]model.Room),
	}
}

// PutHotel seeds or replaces a hotel.
func (r *MemoryCatalogRepository) PutHotel(h model.Hotel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hotels[h.ID] = h
}

// PutRoom seeds or replaces a room.
func (r *MemoryCatalogRepository) PutRoom(room model.Room) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[room.ID] = room
}

func (r *MemoryCatalogRepository) FindHotelByID(ctx context.Context, id string) (*model.Hotel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.hotels[id]
	if !ok {
		return nil, catalogerrors.ErrHotelNotFound
	}
	return &h, nil
}

func (r *MemoryCatalogRepository) FindRoomByID(ctx context.Context, id string) (*model.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, catalogerrors.ErrRoomNotFound
	}
	return &room, nil
}

func (r *MemoryCatalogRepository) FindRoomsByHotel(ctx context.Context, hotelID string) ([]*model.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var rooms []*model.Room
	for _, room := range r.rooms {
		if room.HotelID == hotelID {
			room := room
			rooms = append(rooms, &room)
		}
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms, nil
}
