package service

import (
	"context"
	"errors"
	catalogrepo "staybook/internal/catalog/repository"
	"staybook/internal/inventory/locker"
	"staybook/internal/inventory/repository"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/model"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

const (
	testOwner = "owner-1"
	testHotel = "hotel-1"
	testRoom  = "room-1"
)

var day0 = time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

type fixture struct {
	svc     *inventoryService
	repo    repository.InventoryRepository
	catalog *catalogrepo.MemoryCatalogRepository
}

func newFixture(t *testing.T, total int, days int) *fixture {
	t.Helper()

	cfg := &config.Config{
		Log:                  logger.Discard(),
		InventoryHorizonDays: 365,
	}
	repo := repository.NewMemoryInventoryRepository()
	cat := catalogrepo.NewMemoryCatalogRepository()
	cat.PutHotel(model.Hotel{ID: testHotel, OwnerID: testOwner, Name: "Seaside", City: "Goa", Active: true})
	cat.PutRoom(model.Room{ID: testRoom, HotelID: testHotel, Type: "DELUXE", BasePrice: 100, TotalCount: total})

	svc := NewInventoryService(repo, cat, locker.New(), cfg).(*inventoryService)
	svc.now = func() time.Time { return day0.Add(9 * time.Hour) }

	if days > 0 {
		cfg.InventoryHorizonDays = days - 1
		if _, err := svc.InitializeRoomForYear(context.Background(), testRoom, testOwner); err != nil {
			t.Fatalf("failed to seed inventory: %v", err)
		}
		cfg.InventoryHorizonDays = 365
	}
	return &fixture{svc: svc, repo: repo, catalog: cat}
}

func (f *fixture) records(t *testing.T, start, end time.Time) []*model.Inventory {
	t.Helper()
	recs, err := f.repo.FindByRoom(context.Background(), testRoom, start, end)
	if err != nil {
		t.Fatalf("FindByRoom: %v", err)
	}
	return recs
}

func rangeOf(from, to int) RangeQuery {
	return RangeQuery{RoomID: testRoom, Start: day0.AddDate(0, 0, from), End: day0.AddDate(0, 0, to)}
}

func reserve(ctx context.Context, svc InventoryService, q RangeQuery, n int) error {
	return svc.WithAvailableInventory(ctx, q, n, func(ctx context.Context, lr *LockedRange) error {
		return lr.Reserve(ctx, n)
	})
}

func TestInitializeRoomForYear(t *testing.T) {
	f := newFixture(t, 5, 0)
	f.svc.cfg.InventoryHorizonDays = 30

	created, err := f.svc.InitializeRoomForYear(context.Background(), testRoom, testOwner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created != 31 {
		t.Errorf("expected 31 created days, got %d", created)
	}

	recs := f.records(t, day0, day0.AddDate(0, 0, 40))
	if len(recs) != 31 {
		t.Fatalf("expected 31 records, got %d", len(recs))
	}
	if last := recs[len(recs)-1]; !last.Date.Equal(day0.AddDate(0, 0, 30)) {
		t.Errorf("expected last date %s, got %s", day0.AddDate(0, 0, 30), last.Date)
	}
	first := recs[0]
	if !first.Date.Equal(day0) {
		t.Errorf("expected first date %s, got %s", day0, first.Date)
	}
	if first.TotalCount != 5 || first.BasePrice != 100 || first.SurgeFactor != 1 || first.Closed {
		t.Errorf("unexpected seeded record: %+v", first)
	}
	if first.City != "goa" || first.HotelID != testHotel {
		t.Errorf("expected hotel fields copied, got %+v", first)
	}

	again, err := f.svc.InitializeRoomForYear(context.Background(), testRoom, testOwner)
	if err != nil {
		t.Fatalf("unexpected error on re-init: %v", err)
	}
	if again != 0 {
		t.Errorf("expected re-init to keep existing days, created %d", again)
	}
}

func TestInitializeRoomForYear_CoversSameDateNextYear(t *testing.T) {
	f := newFixture(t, 2, 0)
	f.svc.cfg.InventoryHorizonDays = 366
	// 2028 is a leap year: the same date a year out is 366 days away.
	f.svc.now = func() time.Time { return time.Date(2027, time.March, 1, 8, 0, 0, 0, time.UTC) }

	if _, err := f.svc.InitializeRoomForYear(context.Background(), testRoom, testOwner); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	nextYear := time.Date(2028, time.March, 1, 0, 0, 0, 0, time.UTC)
	q := RangeQuery{RoomID: testRoom, Start: nextYear, End: nextYear}
	if err := reserve(context.Background(), f.svc, q, 1); err != nil {
		t.Fatalf("expected a stay one year out to be bookable, got %v", err)
	}
}

func TestInitializeHotel(t *testing.T) {
	f := newFixture(t, 2, 0)
	f.catalog.PutRoom(model.Room{ID: "room-2", HotelID: testHotel, Type: "SUITE", BasePrice: 250, TotalCount: 1})
	f.catalog.PutRoom(model.Room{ID: "room-other", HotelID: "hotel-2", Type: "SUITE", BasePrice: 80, TotalCount: 4})
	ctx := context.Background()

	// room-1 already has its first four days.
	f.svc.cfg.InventoryHorizonDays = 3
	if _, err := f.svc.InitializeRoomForYear(ctx, testRoom, testOwner); err != nil {
		t.Fatalf("seed: %v", err)
	}
	closed := true
	if err := f.svc.UpdateInventory(ctx, testRoom, &model.InventoryUpdate{StartDate: day0, EndDate: day0, Closed: &closed}, testOwner); err != nil {
		t.Fatalf("close day: %v", err)
	}
	f.svc.cfg.InventoryHorizonDays = 9

	created, err := f.svc.InitializeHotel(ctx, testHotel, testOwner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created != 6+10 {
		t.Errorf("expected 16 created days, got %d", created)
	}

	recs := f.records(t, day0, day0.AddDate(0, 0, 30))
	if len(recs) != 10 {
		t.Fatalf("expected 10 records for %s, got %d", testRoom, len(recs))
	}
	if !recs[0].Closed {
		t.Errorf("expected existing day to keep its settings, got %+v", recs[0])
	}
	suite, err := f.repo.FindByRoom(ctx, "room-2", day0, day0.AddDate(0, 0, 30))
	if err != nil {
		t.Fatalf("FindByRoom: %v", err)
	}
	if len(suite) != 10 || suite[0].BasePrice != 250 || suite[0].TotalCount != 1 {
		t.Errorf("unexpected room-2 inventory: %d records, first %+v", len(suite), suite[0])
	}
	other, _ := f.repo.FindByRoom(ctx, "room-other", day0, day0.AddDate(0, 0, 30))
	if len(other) != 0 {
		t.Errorf("expected rooms of other hotels untouched, got %d records", len(other))
	}
}

func TestInitializeHotel_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(f *fixture)
		hotelID   string
		requester string
		wantCode  string
	}{
		{"empty id", nil, "", testOwner, apperrors.CodeInvalidInput},
		{"unknown hotel", nil, "missing", testOwner, apperrors.CodeNotFound},
		{"not the owner", nil, testHotel, "someone-else", apperrors.CodeNotOwner},
		{
			name: "inactive hotel",
			setup: func(f *fixture) {
				f.catalog.PutHotel(model.Hotel{ID: testHotel, OwnerID: testOwner, Active: false})
			},
			hotelID:   testHotel,
			requester: testOwner,
			wantCode:  apperrors.CodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 2, 0)
			if tt.setup != nil {
				tt.setup(f)
			}
			_, err := f.svc.InitializeHotel(context.Background(), tt.hotelID, tt.requester)
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Fatalf("expected code %s, got %v", tt.wantCode, err)
			}
			if got := f.records(t, day0, day0.AddDate(0, 0, 30)); len(got) != 0 {
				t.Errorf("expected no inventory created, got %d", len(got))
			}
		})
	}
}

func TestInitializeRoomForYear_Rejections(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(f *fixture)
		roomID    string
		requester string
		wantCode  string
	}{
		{
			name:      "unknown room",
			roomID:    "missing",
			requester: testOwner,
			wantCode:  apperrors.CodeNotFound,
		},
		{
			name:      "not the owner",
			roomID:    testRoom,
			requester: "someone-else",
			wantCode:  apperrors.CodeNotOwner,
		},
		{
			name: "inactive hotel",
			setup: func(f *fixture) {
				f.catalog.PutHotel(model.Hotel{ID: testHotel, OwnerID: testOwner, Active: false})
			},
			roomID:    testRoom,
			requester: testOwner,
			wantCode:  apperrors.CodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 2, 0)
			if tt.setup != nil {
				tt.setup(f)
			}
			_, err := f.svc.InitializeRoomForYear(context.Background(), tt.roomID, tt.requester)
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Fatalf("expected code %s, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestWithAvailableInventory_ReserveAndRelease(t *testing.T) {
	f := newFixture(t, 3, 10)
	ctx := context.Background()
	q := rangeOf(2, 4)

	if err := reserve(ctx, f.svc, q, 2); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	for _, rec := range f.records(t, q.Start, q.End) {
		if rec.ReservedCount != 2 {
			t.Errorf("%s: expected reserved 2, got %d", rec.ID, rec.ReservedCount)
		}
	}
	outside := f.records(t, day0.AddDate(0, 0, 5), day0.AddDate(0, 0, 5))[0]
	if outside.ReservedCount != 0 {
		t.Errorf("day outside the range must be untouched, got reserved %d", outside.ReservedCount)
	}

	if err := f.svc.Release(ctx, q, 2, HoldReserved); err != nil {
		t.Fatalf("release: %v", err)
	}
	for _, rec := range f.records(t, q.Start, q.End) {
		if rec.ReservedCount != 0 || rec.BookedCount != 0 {
			t.Errorf("%s: expected counters restored, got %+v", rec.ID, rec)
		}
	}
}

func TestWithAvailableInventory_SecondBookingRejected(t *testing.T) {
	f := newFixture(t, 2, 10)
	ctx := context.Background()
	q := rangeOf(0, 2)

	if err := reserve(ctx, f.svc, q, 2); err != nil {
		t.Fatalf("first reserve: %v", err)
	}

	err := reserve(ctx, f.svc, q, 1)
	if !apperrors.HasCode(err, apperrors.CodeRoomUnavailable) {
		t.Fatalf("expected RoomUnavailable, got %v", err)
	}
	for _, rec := range f.records(t, q.Start, q.End) {
		if rec.ReservedCount != 2 {
			t.Errorf("%s: rejected request must not mutate, reserved=%d", rec.ID, rec.ReservedCount)
		}
	}
}

func TestWithAvailableInventory_PartialShortageIsAllOrNothing(t *testing.T) {
	f := newFixture(t, 2, 10)
	ctx := context.Background()

	if err := reserve(ctx, f.svc, rangeOf(3, 3), 2); err != nil {
		t.Fatalf("seed reserve: %v", err)
	}

	err := reserve(ctx, f.svc, rangeOf(1, 4), 1)
	appErr := apperrors.AsAppError(err)
	if appErr == nil || appErr.Code != apperrors.CodeRoomUnavailable {
		t.Fatalf("expected RoomUnavailable, got %v", err)
	}
	dates, _ := appErr.Details["unavailable_dates"].([]string)
	if len(dates) != 1 || dates[0] != "2026-03-13" {
		t.Errorf("expected only 2026-03-13 reported, got %v", dates)
	}
	for _, rec := range f.records(t, day0.AddDate(0, 0, 1), day0.AddDate(0, 0, 2)) {
		if rec.ReservedCount != 0 {
			t.Errorf("%s: expected no partial reservation, got %d", rec.ID, rec.ReservedCount)
		}
	}
}

func TestWithAvailableInventory_MissingAndClosedDays(t *testing.T) {
	t.Run("missing day", func(t *testing.T) {
		f := newFixture(t, 2, 3)
		err := reserve(context.Background(), f.svc, rangeOf(1, 5), 1)
		appErr := apperrors.AsAppError(err)
		if appErr == nil || appErr.Code != apperrors.CodeRoomUnavailable {
			t.Fatalf("expected RoomUnavailable, got %v", err)
		}
		missing, _ := appErr.Details["missing_dates"].([]string)
		if len(missing) != 3 {
			t.Errorf("expected 3 missing dates, got %v", missing)
		}
	})

	t.Run("closed day", func(t *testing.T) {
		f := newFixture(t, 2, 5)
		closed := true
		err := f.svc.UpdateInventory(context.Background(), testRoom, &model.InventoryUpdate{
			StartDate: day0.AddDate(0, 0, 2),
			EndDate:   day0.AddDate(0, 0, 2),
			Closed:    &closed,
		}, testOwner)
		if err != nil {
			t.Fatalf("close day: %v", err)
		}
		if err := reserve(context.Background(), f.svc, rangeOf(1, 3), 1); !apperrors.HasCode(err, apperrors.CodeRoomUnavailable) {
			t.Fatalf("expected RoomUnavailable on closed day, got %v", err)
		}
	})
}

func TestWithAvailableInventory_ValidatesBeforeLocking(t *testing.T) {
	f := newFixture(t, 2, 5)
	var calls int32
	fn := func(ctx context.Context, lr *LockedRange) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}

	tests := []struct {
		name     string
		q        RangeQuery
		n        int
		wantCode string
	}{
		{"start after end", rangeOf(3, 1), 1, apperrors.CodeInvalidDateRange},
		{"zero rooms", rangeOf(0, 1), 0, apperrors.CodeInvalidRoomsCount},
		{"negative rooms", rangeOf(0, 1), -2, apperrors.CodeInvalidRoomsCount},
		{"beyond horizon", rangeOf(0, 400), 1, apperrors.CodeInvalidDateRange},
		{"no room", RangeQuery{Start: day0, End: day0}, 1, apperrors.CodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.svc.WithAvailableInventory(context.Background(), tt.q, tt.n, fn)
			if !apperrors.HasCode(err, tt.wantCode) {
				t.Fatalf("expected code %s, got %v", tt.wantCode, err)
			}
		})
	}
	if calls != 0 {
		t.Errorf("callback must not run for rejected input, ran %d times", calls)
	}
	if f.svc.locks.Size() != 0 {
		t.Errorf("expected no live locks, got %d", f.svc.locks.Size())
	}
}

func TestWithAvailableInventory_CallbackErrorRollsBack(t *testing.T) {
	f := newFixture(t, 3, 5)
	boom := errors.New("booking insert failed")

	err := f.svc.WithAvailableInventory(context.Background(), rangeOf(0, 2), 2, func(ctx context.Context, lr *LockedRange) error {
		if err := lr.Reserve(ctx, 2); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	for _, rec := range f.records(t, day0, day0.AddDate(0, 0, 2)) {
		if rec.ReservedCount != 0 {
			t.Errorf("%s: expected rollback, reserved=%d", rec.ID, rec.ReservedCount)
		}
	}
}

func TestWithAvailableInventory_NoOversellUnderContention(t *testing.T) {
	const total = 5
	f := newFixture(t, total, 10)
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		success int32
		refused int32
	)
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// Overlapping windows so every request shares day 3.
			q := rangeOf(i%3, 3+i%4)
			err := reserve(ctx, f.svc, q, 1)
			switch {
			case err == nil:
				atomic.AddInt32(&success, 1)
			case apperrors.HasCode(err, apperrors.CodeRoomUnavailable):
				atomic.AddInt32(&refused, 1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if success != total {
		t.Errorf("expected exactly %d successful reservations, got %d", total, success)
	}
	if success+refused != 40 {
		t.Errorf("expected every request answered, got %d", success+refused)
	}
	for _, rec := range f.records(t, day0, day0.AddDate(0, 0, 9)) {
		if !rec.Consistent() {
			t.Errorf("%s: counters out of bounds: %+v", rec.ID, rec)
		}
	}
	if f.svc.locks.Size() != 0 {
		t.Errorf("expected every lock released, got %d", f.svc.locks.Size())
	}
}

func TestConfirmAndCancelRoundTrip(t *testing.T) {
	f := newFixture(t, 2, 5)
	ctx := context.Background()
	q := rangeOf(0, 1)

	if err := reserve(ctx, f.svc, q, 1); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := f.svc.Confirm(ctx, q, 1); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	for _, rec := range f.records(t, q.Start, q.End) {
		if rec.ReservedCount != 0 || rec.BookedCount != 1 {
			t.Errorf("%s: expected reserved 0 booked 1, got %+v", rec.ID, rec)
		}
	}

	if err := f.svc.Release(ctx, q, 1, HoldBooked); err != nil {
		t.Fatalf("release booked: %v", err)
	}
	for _, rec := range f.records(t, q.Start, q.End) {
		if rec.BookedCount != 0 {
			t.Errorf("%s: expected booked 0, got %d", rec.ID, rec.BookedCount)
		}
	}
}

func TestConfirm_WithoutReservationNeedsFreeCapacity(t *testing.T) {
	f := newFixture(t, 1, 5)
	ctx := context.Background()

	if err := reserve(ctx, f.svc, rangeOf(1, 1), 1); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := f.svc.Confirm(ctx, rangeOf(1, 1), 1); err != nil {
		t.Fatalf("confirm day 1: %v", err)
	}

	// Day 0 has a free unit, day 1 is already sold.
	err := f.svc.Confirm(ctx, rangeOf(0, 1), 1)
	if !apperrors.HasCode(err, apperrors.CodeRoomUnavailable) {
		t.Fatalf("expected RoomUnavailable, got %v", err)
	}
	if rec := f.records(t, day0, day0)[0]; rec.BookedCount != 0 {
		t.Errorf("expected no change on day 0, got booked %d", rec.BookedCount)
	}
}

func TestRelease_ClampsAtZero(t *testing.T) {
	f := newFixture(t, 2, 3)
	if err := f.svc.Release(context.Background(), rangeOf(0, 2), 5, HoldReserved); err != nil {
		t.Fatalf("release: %v", err)
	}
	for _, rec := range f.records(t, day0, day0.AddDate(0, 0, 2)) {
		if rec.ReservedCount != 0 {
			t.Errorf("%s: expected 0, got %d", rec.ID, rec.ReservedCount)
		}
	}
}

func TestUpdateInventory(t *testing.T) {
	f := newFixture(t, 2, 5)
	ctx := context.Background()
	surge := 1.5
	update := &model.InventoryUpdate{StartDate: day0.AddDate(0, 0, 1), EndDate: day0.AddDate(0, 0, 2), SurgeFactor: &surge}

	if err := f.svc.UpdateInventory(ctx, testRoom, update, "intruder"); !apperrors.HasCode(err, apperrors.CodeNotOwner) {
		t.Fatalf("expected NotOwner, got %v", err)
	}
	if rec := f.records(t, day0.AddDate(0, 0, 1), day0.AddDate(0, 0, 1))[0]; rec.SurgeFactor != 1 {
		t.Fatalf("non-owner update must not apply, surge=%v", rec.SurgeFactor)
	}

	if err := f.svc.UpdateInventory(ctx, testRoom, update, testOwner); err != nil {
		t.Fatalf("owner update: %v", err)
	}
	for _, rec := range f.records(t, day0, day0.AddDate(0, 0, 3)) {
		want := 1.0
		if !rec.Date.Before(update.StartDate) && !rec.Date.After(update.EndDate) {
			want = surge
		}
		if rec.SurgeFactor != want {
			t.Errorf("%s: expected surge %v, got %v", rec.ID, want, rec.SurgeFactor)
		}
	}

	if err := f.svc.UpdateInventory(ctx, testRoom, &model.InventoryUpdate{StartDate: day0, EndDate: day0}, testOwner); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected InvalidInput for empty update, got %v", err)
	}
}

func TestGetInventoryByRoomAndDelete(t *testing.T) {
	f := newFixture(t, 2, 5)
	ctx := context.Background()

	recs, err := f.svc.GetInventoryByRoom(ctx, testRoom, day0, day0.AddDate(0, 0, 30), testOwner)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(recs) != 5 {
		t.Errorf("expected 5 records, got %d", len(recs))
	}
	if _, err := f.svc.GetInventoryByRoom(ctx, testRoom, day0, day0, "intruder"); !apperrors.HasCode(err, apperrors.CodeNotOwner) {
		t.Errorf("expected NotOwner, got %v", err)
	}

	deleted, err := f.svc.DeleteAllForRoom(ctx, testRoom, testOwner)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted != 5 {
		t.Errorf("expected 5 deleted, got %d", deleted)
	}
	if got := f.records(t, day0, day0.AddDate(0, 0, 30)); len(got) != 0 {
		t.Errorf("expected no records left, got %d", len(got))
	}
}
