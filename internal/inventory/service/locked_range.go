package service

import (
	"context"
	"fmt"
	"staybook/internal/inventory/repository"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/model"
	"time"
)

// Hold selects which counter a release gives back.
type Hold int

const (
	// HoldReserved returns units held pending payment (expiry).
	HoldReserved Hold = iota
	// HoldBooked returns units of a confirmed booking (cancellation).
	HoldBooked
)

func (h Hold) String() string {
	if h == HoldBooked {
		return "booked"
	}
	return "reserved"
}

// RangeQuery addresses the records of one room over [Start, End], inclusive.
type RangeQuery struct {
	RoomID string
	Start  time.Time
	End    time.Time
}

// LockedRange is the set of records held under row locks and the current
// transaction. It is only valid inside the callback that received it.
type LockedRange struct {
	repo    repository.InventoryRepository
	records []*model.Inventory
}

// Records returns copies of the locked records in ascending date order.
func (lr *LockedRange) Records() []model.Inventory {
	out := make([]model.Inventory, len(lr.records))
	for i, rec := range lr.records {
		out[i] = *rec
	}
	return out
}

// Reserve holds n more units on every locked day.
func (lr *LockedRange) Reserve(ctx context.Context, n int) error {
	if n <= 0 {
		return apperrors.InvalidRoomsCount(n)
	}
	if short := unavailableDates(lr.records, n); len(short) > 0 {
		return roomUnavailable(short, n)
	}
	return lr.apply(ctx, func(rec *model.Inventory) {
		rec.ReservedCount += n
	})
}

// Confirm moves n units from reserved to booked on every locked day. When a
// day holds fewer than n reserved units the remainder must fit in its free
// capacity, otherwise nothing changes.
func (lr *LockedRange) Confirm(ctx context.Context, n int) error {
	if n <= 0 {
		return apperrors.InvalidRoomsCount(n)
	}
	var short []string
	for _, rec := range lr.records {
		if remainder := n - min(rec.ReservedCount, n); remainder > rec.Available() {
			short = append(short, rec.Date.Format(time.DateOnly))
		}
	}
	if len(short) > 0 {
		return roomUnavailable(short, n)
	}
	return lr.apply(ctx, func(rec *model.Inventory) {
		fromReserved := min(max(rec.ReservedCount, 0), n)
		rec.ReservedCount -= fromReserved
		rec.BookedCount += n
	})
}

// Release gives back n units of the chosen hold, never going below zero.
func (lr *LockedRange) Release(ctx context.Context, n int, hold Hold) error {
	if n <= 0 {
		return apperrors.InvalidRoomsCount(n)
	}
	return lr.apply(ctx, func(rec *model.Inventory) {
		switch hold {
		case HoldBooked:
			rec.BookedCount = max(0, rec.BookedCount-n)
		default:
			rec.ReservedCount = max(0, rec.ReservedCount-n)
		}
	})
}

func (lr *LockedRange) apply(ctx context.Context, mutate func(rec *model.Inventory)) error {
	next := make([]*model.Inventory, len(lr.records))
	for i, rec := range lr.records {
		c := *rec
		mutate(&c)
		if !c.Consistent() {
			return apperrors.Internal("Inventory counters out of bounds",
				fmt.Errorf("record %s: reserved=%d booked=%d total=%d", c.ID, c.ReservedCount, c.BookedCount, c.TotalCount))
		}
		next[i] = &c
	}
	if err := lr.repo.Save(ctx, next); err != nil {
		return apperrors.Internal("Failed to save inventory", err)
	}
	lr.records = next
	return nil
}

func unavailableDates(records []*model.Inventory, n int) []string {
	var dates []string
	for _, rec := range records {
		if rec.Available() < n {
			dates = append(dates, rec.Date.Format(time.DateOnly))
		}
	}
	return dates
}

func roomUnavailable(dates []string, n int) *apperrors.AppError {
	return apperrors.RoomUnavailable("Room is not available for the requested dates", map[string]any{
		"unavailable_dates": dates,
		"rooms_count":       n,
	})
}
