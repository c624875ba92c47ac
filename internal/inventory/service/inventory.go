package service

import (
	"context"
	"errors"
	"fmt"
	catalogerrors "staybook/internal/catalog/errors"
	catalogrepo "staybook/internal/catalog/repository"
	"staybook/internal/inventory/locker"
	"staybook/internal/inventory/repository"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/model"
	"staybook/pkg/sanitizer"
	"time"
)

// RangeFunc runs with the range locked and a transaction open. Returning an
// error aborts the transaction.
type RangeFunc func(ctx context.Context, lr *LockedRange) error

type InventoryService interface {
	// WithAvailableInventory locks every day of q, requires each day to exist,
	// be open and have at least roomsCount free units, then runs fn in the
	// same atomic scope. Fails with RoomUnavailable and no mutation otherwise.
	WithAvailableInventory(ctx context.Context, q RangeQuery, roomsCount int, fn RangeFunc) error
	// WithLockedRange locks every day of q and requires each to exist, without
	// checking free capacity.
	WithLockedRange(ctx context.Context, q RangeQuery, fn RangeFunc) error
	Confirm(ctx context.Context, q RangeQuery, roomsCount int) error
	Release(ctx context.Context, q RangeQuery, roomsCount int, hold Hold) error
	UpdateInventory(ctx context.Context, roomID string, update *model.InventoryUpdate, requester string) error
	GetInventoryByRoom(ctx context.Context, roomID string, start, end time.Time, requester string) ([]*model.Inventory, error)
	InitializeRoomForYear(ctx context.Context, roomID string, requester string) (int64, error)
	InitializeHotel(ctx context.Context, hotelID string, requester string) (int64, error)
	DeleteAllForRoom(ctx context.Context, roomID string, requester string) (int64, error)
}

type inventoryService struct {
	repo    repository.InventoryRepository
	catalog catalogrepo.CatalogRepository
	locks   *locker.Locker
	cfg     *config.Config
	now     func() time.Time
}

func NewInventoryService(
	repo repository.InventoryRepository,
	catalog catalogrepo.CatalogRepository,
	locks *locker.Locker,
	cfg *config.Config,
) InventoryService {
	return &inventoryService{
		repo:    repo,
		catalog: catalog,
		locks:   locks,
		cfg:     cfg,
		now:     time.Now,
	}
}

func (s *inventoryService) WithAvailableInventory(ctx context.Context, q RangeQuery, roomsCount int, fn RangeFunc) error {
	if roomsCount <= 0 {
		return apperrors.InvalidRoomsCount(roomsCount)
	}
	return s.withRange(ctx, q, func(ctx context.Context, lr *LockedRange) error {
		if short := unavailableDates(lr.records, roomsCount); len(short) > 0 {
			return roomUnavailable(short, roomsCount)
		}
		return fn(ctx, lr)
	})
}

func (s *inventoryService) WithLockedRange(ctx context.Context, q RangeQuery, fn RangeFunc) error {
	return s.withRange(ctx, q, fn)
}

func (s *inventoryService) Confirm(ctx context.Context, q RangeQuery, roomsCount int) error {
	return s.withRange(ctx, q, func(ctx context.Context, lr *LockedRange) error {
		return lr.Confirm(ctx, roomsCount)
	})
}

func (s *inventoryService) Release(ctx context.Context, q RangeQuery, roomsCount int, hold Hold) error {
	return s.withRange(ctx, q, func(ctx context.Context, lr *LockedRange) error {
		return lr.Release(ctx, roomsCount, hold)
	})
}

func (s *inventoryService) withRange(ctx context.Context, q RangeQuery, fn RangeFunc) error {
	q.Start, q.End = model.Day(q.Start), model.Day(q.End)
	if err := s.validateRange(q); err != nil {
		return err
	}

	unlock, err := s.locks.Lock(ctx, locker.RangeKeys(q.RoomID, q.Start, q.End)...)
	if err != nil {
		return apperrors.Timeout("Timed out waiting for inventory lock")
	}
	defer unlock()

	return s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
		records, err := s.repo.FindAndLockRange(ctx, q.RoomID, q.Start, q.End)
		if err != nil {
			return apperrors.Internal("Failed to load inventory", err)
		}
		if missing := missingDates(records, q); len(missing) > 0 {
			return apperrors.RoomUnavailable("Inventory is not open for every requested date", map[string]any{
				"missing_dates": missing,
			})
		}
		return fn(ctx, &LockedRange{repo: s.repo, records: records})
	})
}

func (s *inventoryService) validateRange(q RangeQuery) error {
	if q.RoomID == "" {
		return apperrors.InvalidInput("Room ID cannot be empty")
	}
	if q.Start.After(q.End) {
		return apperrors.InvalidDateRange("start date must not be after end date")
	}
	if days, max := model.DaysInclusive(q.Start, q.End), s.cfg.InventoryHorizonDays+1; days > max {
		return apperrors.InvalidDateRange(fmt.Sprintf("date range spans %d days, at most %d allowed", days, max))
	}
	return nil
}

func missingDates(records []*model.Inventory, q RangeQuery) []string {
	have := make(map[string]struct{}, len(records))
	for _, rec := range records {
		have[rec.Date.UTC().Format(time.DateOnly)] = struct{}{}
	}
	var missing []string
	for d := q.Start; !d.After(q.End); d = d.AddDate(0, 0, 1) {
		key := d.Format(time.DateOnly)
		if _, ok := have[key]; !ok {
			missing = append(missing, key)
		}
	}
	return missing
}

func (s *inventoryService) UpdateInventory(ctx context.Context, roomID string, update *model.InventoryUpdate, requester string) error {
	if update == nil || (update.Closed == nil && update.SurgeFactor == nil) {
		return apperrors.InvalidInput("Nothing to update: provide closed and/or surge_factor")
	}
	if update.SurgeFactor != nil && *update.SurgeFactor <= 0 {
		return apperrors.InvalidInput("surge_factor must be positive")
	}
	if _, _, err := s.ownedRoom(ctx, roomID, requester); err != nil {
		return err
	}

	q := RangeQuery{RoomID: roomID, Start: update.StartDate, End: update.EndDate}
	err := s.withRange(ctx, q, func(ctx context.Context, lr *LockedRange) error {
		return lr.apply(ctx, func(rec *model.Inventory) {
			if update.Closed != nil {
				rec.Closed = *update.Closed
			}
			if update.SurgeFactor != nil {
				rec.SurgeFactor = *update.SurgeFactor
			}
		})
	})
	if err != nil {
		s.cfg.Log.Warn("Failed to update inventory", "room_id", roomID, "error", err)
		return err
	}

	s.cfg.Log.Info("Inventory updated",
		"room_id", roomID,
		"start_date", model.Day(update.StartDate),
		"end_date", model.Day(update.EndDate),
		"closed", update.Closed,
		"surge_factor", update.SurgeFactor,
	)
	return nil
}

func (s *inventoryService) GetInventoryByRoom(ctx context.Context, roomID string, start, end time.Time, requester string) ([]*model.Inventory, error) {
	if _, _, err := s.ownedRoom(ctx, roomID, requester); err != nil {
		return nil, err
	}
	if start.After(end) {
		return nil, apperrors.InvalidDateRange("start date must not be after end date")
	}
	records, err := s.repo.FindByRoom(ctx, roomID, start, end)
	if err != nil {
		s.cfg.Log.Error("Failed to list inventory", "room_id", roomID, "error", err)
		return nil, apperrors.Internal("Failed to retrieve inventory", err)
	}
	return records, nil
}

// InitializeRoomForYear opens one record per day from today through today
// plus the configured horizon, both inclusive. Days that already have a
// record are left untouched.
func (s *inventoryService) InitializeRoomForYear(ctx context.Context, roomID string, requester string) (int64, error) {
	room, hotel, err := s.ownedRoom(ctx, roomID, requester)
	if err != nil {
		return 0, err
	}
	if !hotel.Active {
		return 0, apperrors.Conflict("Hotel must be active before its inventory can be opened")
	}

	created, err := s.openRoom(ctx, hotel, room)
	if err != nil {
		return 0, err
	}
	s.cfg.Log.Info("Inventory initialized", "room_id", roomID, "hotel_id", hotel.ID, "created_days", created)
	return created, nil
}

// InitializeHotel opens the inventory of every room of an active hotel, as
// on hotel activation. Rooms that are already open keep their records.
func (s *inventoryService) InitializeHotel(ctx context.Context, hotelID string, requester string) (int64, error) {
	hotel, err := s.ownedHotel(ctx, hotelID, requester)
	if err != nil {
		return 0, err
	}
	if !hotel.Active {
		return 0, apperrors.Conflict("Hotel must be active before its inventory can be opened")
	}

	rooms, err := s.catalog.FindRoomsByHotel(ctx, hotel.ID)
	if err != nil {
		s.cfg.Log.Error("Failed to list rooms", "hotel_id", hotelID, "error", err)
		return 0, apperrors.Internal("Failed to retrieve rooms", err)
	}

	var total int64
	for _, room := range rooms {
		created, err := s.openRoom(ctx, hotel, room)
		if err != nil {
			return total, err
		}
		total += created
	}

	s.cfg.Log.Info("Hotel inventory initialized", "hotel_id", hotel.ID, "rooms", len(rooms), "created_days", total)
	return total, nil
}

func (s *inventoryService) openRoom(ctx context.Context, hotel *model.Hotel, room *model.Room) (int64, error) {
	today := model.Day(s.now())
	last := today.AddDate(0, 0, s.cfg.InventoryHorizonDays)
	now := s.now().UTC().Truncate(time.Millisecond)

	records := make([]*model.Inventory, 0, s.cfg.InventoryHorizonDays+1)
	for d := today; !d.After(last); d = d.AddDate(0, 0, 1) {
		records = append(records, &model.Inventory{
			ID:          model.InventoryID(room.ID, d),
			HotelID:     hotel.ID,
			RoomID:      room.ID,
			City:        sanitizer.NormalizeCity(hotel.City),
			Date:        d,
			TotalCount:  room.TotalCount,
			BasePrice:   room.BasePrice,
			SurgeFactor: 1,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	created, err := s.repo.CreateMissing(ctx, records)
	if err != nil {
		s.cfg.Log.Error("Failed to initialize inventory", "room_id", room.ID, "error", err)
		return 0, apperrors.Internal("Failed to initialize inventory", err)
	}
	return created, nil
}

func (s *inventoryService) DeleteAllForRoom(ctx context.Context, roomID string, requester string) (int64, error) {
	if _, _, err := s.ownedRoom(ctx, roomID, requester); err != nil {
		return 0, err
	}
	deleted, err := s.repo.DeleteByRoom(ctx, roomID)
	if err != nil {
		s.cfg.Log.Error("Failed to delete inventory", "room_id", roomID, "error", err)
		return 0, apperrors.Internal("Failed to delete inventory", err)
	}
	s.cfg.Log.Info("Inventory deleted", "room_id", roomID, "deleted_days", deleted)
	return deleted, nil
}

func (s *inventoryService) ownedRoom(ctx context.Context, roomID, requester string) (*model.Room, *model.Hotel, error) {
	room, err := s.catalog.FindRoomByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrRoomNotFound) {
			return nil, nil, apperrors.NotFoundWithID("Room", roomID)
		}
		return nil, nil, apperrors.Internal("Failed to retrieve room", err)
	}
	hotel, err := s.catalog.FindHotelByID(ctx, room.HotelID)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrHotelNotFound) {
			return nil, nil, apperrors.NotFoundWithID("Hotel", room.HotelID)
		}
		return nil, nil, apperrors.Internal("Failed to retrieve hotel", err)
	}
	if hotel.OwnerID != requester {
		return nil, nil, apperrors.NotOwner("Hotel", hotel.ID)
	}
	return room, hotel, nil
}

func (s *inventoryService) ownedHotel(ctx context.Context, hotelID, requester string) (*model.Hotel, error) {
	if hotelID == "" {
		return nil, apperrors.InvalidInput("Hotel ID cannot be empty")
	}
	hotel, err := s.catalog.FindHotelByID(ctx, hotelID)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrHotelNotFound) {
			return nil, apperrors.NotFoundWithID("Hotel", hotelID)
		}
		return nil, apperrors.Internal("Failed to retrieve hotel", err)
	}
	if hotel.OwnerID != requester {
		return nil, apperrors.NotOwner("Hotel", hotel.ID)
	}
	return hotel, nil
}
