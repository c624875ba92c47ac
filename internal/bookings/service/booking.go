package service

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "staybook/internal/bookings/errors"
	"staybook/internal/bookings/events"
	"staybook/internal/bookings/repository"
	"staybook/internal/bookings/validator"
	catalogerrors "staybook/internal/catalog/errors"
	catalogrepo "staybook/internal/catalog/repository"
	invservice "staybook/internal/inventory/service"
	"staybook/internal/inventory/locker"
	"staybook/internal/payments"
	"staybook/internal/pricing"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/model"
	"sync"
	"time"

	"github.com/google/uuid"
)

type BookingService interface {
	InitializeBooking(ctx context.Context, req *model.BookingRequest, requester string) (*model.Booking, error)
	AddGuests(ctx context.Context, bookingID string, guests []model.GuestRequest, requester string) (*model.Booking, error)
	InitiatePayment(ctx context.Context, bookingID string, requester string) (*model.PaymentSessionResponse, error)
	// CapturePayment applies a verified processor event. It never fails the
	// caller: problems are logged for reconciliation.
	CapturePayment(ctx context.Context, event payments.Event)
	CancelBooking(ctx context.Context, bookingID string, requester string) error

	GetBooking(ctx context.Context, bookingID string, requester string) (*model.Booking, error)
	GetBookingStatus(ctx context.Context, bookingID string, requester string) (*model.BookingStatusResponse, error)
	GetMyBookings(ctx context.Context, requester string, limit int, offset int64) ([]*model.Booking, int64, error)
	GetAllBookingsForHotel(ctx context.Context, hotelID string, requester string, limit int, offset int64) ([]*model.Booking, int64, error)
	GetHotelReport(ctx context.Context, hotelID string, start, end time.Time, requester string) (*model.HotelReport, error)
}

const (
	leasePollMin = 20 * time.Millisecond
	leasePollMax = 250 * time.Millisecond
)

type Dependencies struct {
	Repo      repository.BookingRepository
	Guests    repository.GuestRepository
	Inventory invservice.InventoryService
	Catalog   catalogrepo.CatalogRepository
	Pricing   *pricing.Engine
	Gateway   payments.Gateway
	Publisher events.Publisher
	Validator *validator.BookingValidator
	Locks     *locker.Locker

	// BookingLocks serializes a booking across service instances. Nil keeps
	// the lock in process.
	BookingLocks repository.BookingLockRepository
}

type bookingService struct {
	repo      repository.BookingRepository
	guests    repository.GuestRepository
	inventory invservice.InventoryService
	catalog   catalogrepo.CatalogRepository
	pricing   *pricing.Engine
	gateway   payments.Gateway
	publisher events.Publisher
	validator *validator.BookingValidator
	locks     *locker.Locker
	leases    repository.BookingLockRepository
	cfg       *config.Config
	now       func() time.Time
}

func NewBookingService(deps Dependencies, cfg *config.Config) BookingService {
	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	leases := deps.BookingLocks
	if leases == nil {
		leases = repository.NewMemoryBookingLockRepository()
	}
	return &bookingService{
		repo:      deps.Repo,
		guests:    deps.Guests,
		inventory: deps.Inventory,
		catalog:   deps.Catalog,
		pricing:   deps.Pricing,
		gateway:   deps.Gateway,
		publisher: publisher,
		validator: deps.Validator,
		locks:     deps.Locks,
		leases:    leases,
		cfg:       cfg,
		now:       time.Now,
	}
}

func (s *bookingService) InitializeBooking(ctx context.Context, req *model.BookingRequest, requester string) (*model.Booking, error) {
	input, err := s.validator.ParseRequest(req)
	if err != nil {
		return nil, validationError("Invalid booking request", err)
	}
	if input.CheckIn.After(input.CheckOut) {
		return nil, apperrors.InvalidDateRange("check-in date cannot be after check-out date")
	}
	if input.RoomsCount <= 0 {
		return nil, apperrors.InvalidRoomsCount(input.RoomsCount)
	}

	hotel, room, err := s.hotelRoom(ctx, input.HotelID, input.RoomID)
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Initializing booking",
		"hotel_id", hotel.ID,
		"room_id", room.ID,
		"check_in", input.CheckIn.Format(time.DateOnly),
		"check_out", input.CheckOut.Format(time.DateOnly),
		"rooms_count", input.RoomsCount,
	)

	now := s.now().UTC()
	booking := &model.Booking{
		ID:           uuid.NewString(),
		HotelID:      hotel.ID,
		RoomID:       room.ID,
		UserID:       requester,
		CheckInDate:  model.Day(input.CheckIn),
		CheckOutDate: model.Day(input.CheckOut),
		RoomsCount:   input.RoomsCount,
		Status:       model.BookingReserved,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.inventory.WithAvailableInventory(ctx, rangeOf(booking), booking.RoomsCount,
		func(ctx context.Context, lr *invservice.LockedRange) error {
			booking.Amount = s.pricing.Total(lr.Records(), booking.CheckInDate, booking.CheckOutDate, booking.RoomsCount, now)
			if err := lr.Reserve(ctx, booking.RoomsCount); err != nil {
				return err
			}
			if err := s.repo.Create(ctx, booking); err != nil {
				return apperrors.Internal("Failed to create booking", err)
			}
			return nil
		})
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeRoomUnavailable) {
			s.cfg.Log.Warn("Not enough inventory for booking request",
				"hotel_id", hotel.ID,
				"room_id", room.ID,
				"rooms_count", booking.RoomsCount,
			)
		} else {
			s.cfg.Log.Error("Failed to initialize booking", "room_id", room.ID, "error", err)
		}
		return nil, err
	}

	s.cfg.Log.Info("Booking initialized", "id", booking.ID, "amount", booking.Amount)
	s.publisher.Publish(ctx, events.BookingReserved, booking)
	return booking, nil
}

func (s *bookingService) AddGuests(ctx context.Context, bookingID string, guests []model.GuestRequest, requester string) (*model.Booking, error) {
	if err := s.validator.NormalizeGuests(guests); err != nil {
		return nil, validationError("Invalid guests", err)
	}

	var result *model.Booking
	err := s.withOwnedBooking(ctx, bookingID, requester, func(ctx context.Context, b *model.Booking) error {
		if b.Status != model.BookingReserved && b.Status != model.BookingGuestsAdded {
			return apperrors.IllegalStateTransition(string(b.Status), string(model.BookingGuestsAdded))
		}

		now := s.now().UTC()
		records := make([]*model.Guest, len(guests))
		for i, g := range guests {
			records[i] = &model.Guest{
				ID:        uuid.NewString(),
				BookingID: b.ID,
				UserID:    requester,
				Name:      g.Name,
				Gender:    g.Gender,
				Age:       g.Age,
				CreatedAt: now,
			}
		}

		err := s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
			if err := s.guests.CreateMany(ctx, records); err != nil {
				return apperrors.Internal("Failed to save guests", err)
			}
			return s.transition(ctx, b, model.BookingGuestsAdded)
		})
		if err != nil {
			return err
		}

		all, err := s.guests.FindByBooking(ctx, b.ID)
		if err != nil {
			return apperrors.Internal("Failed to load guests", err)
		}
		b.Guests = all
		result = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Guests added to booking", "id", bookingID, "added", len(guests))
	return result, nil
}

func (s *bookingService) InitiatePayment(ctx context.Context, bookingID string, requester string) (*model.PaymentSessionResponse, error) {
	var snapshot model.Booking
	err := s.withOwnedBooking(ctx, bookingID, requester, func(_ context.Context, b *model.Booking) error {
		if !b.Status.PreConfirmed() {
			return apperrors.IllegalStateTransition(string(b.Status), string(model.BookingPaymentsPending))
		}
		snapshot = *b
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The processor is called without any lock held; the session is attached
	// afterwards only if the booking has not moved on.
	session, err := s.gateway.CreateCheckoutSession(ctx, payments.CheckoutRequest{
		BookingID:   snapshot.ID,
		CustomerID:  requester,
		Amount:      snapshot.Amount,
		ProductName: fmt.Sprintf("Booking %s", snapshot.ID),
		Description: fmt.Sprintf("%d room(s), %s to %s", snapshot.RoomsCount,
			snapshot.CheckInDate.Format(time.DateOnly), snapshot.CheckOutDate.Format(time.DateOnly)),
		SuccessURL: s.cfg.FrontendURL + "/payments/success",
		CancelURL:  s.cfg.FrontendURL + "/payments/failure",
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create checkout session", "id", snapshot.ID, "error", err)
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.PaymentGateway("Failed to create checkout session", err)
	}

	// A retry replaces the attached session, so the previous one must stop
	// being payable before it is forgotten.
	if previous := snapshot.PaymentSessionID; previous != "" && previous != session.ID {
		if err := s.gateway.ExpireSession(ctx, previous); err != nil {
			s.cfg.Log.Error("Failed to expire previous checkout session",
				"id", snapshot.ID,
				"session_id", previous,
				"error", err,
			)
			s.discardSession(ctx, session.ID)
			if errors.Is(err, payments.ErrSessionCompleted) {
				return nil, apperrors.PaymentGateway("Previous payment session has already been paid", err)
			}
			return nil, apperrors.PaymentGateway("Failed to expire previous payment session", err)
		}
	}

	err = s.withOwnedBooking(ctx, bookingID, requester, func(ctx context.Context, b *model.Booking) error {
		if !b.Status.PreConfirmed() {
			return apperrors.IllegalStateTransition(string(b.Status), string(model.BookingPaymentsPending))
		}
		if b.PaymentSessionID != snapshot.PaymentSessionID {
			return apperrors.Conflict("Another payment session was opened for this booking")
		}
		if err := s.repo.AttachPaymentSession(ctx, b.ID, b.Status, session.ID); err != nil {
			return s.casError(err, b, model.BookingPaymentsPending)
		}
		return nil
	})
	if err != nil {
		s.discardSession(ctx, session.ID)
		return nil, err
	}

	s.cfg.Log.Info("Payment initiated", "id", bookingID, "session_id", session.ID)
	return &model.PaymentSessionResponse{
		BookingID:  bookingID,
		SessionID:  session.ID,
		SessionURL: session.URL,
	}, nil
}

// discardSession expires a session that was never attached to a booking.
func (s *bookingService) discardSession(ctx context.Context, sessionID string) {
	if err := s.gateway.ExpireSession(ctx, sessionID); err != nil {
		s.cfg.Log.Warn("Failed to expire unattached checkout session", "session_id", sessionID, "error", err)
	}
}

func (s *bookingService) CapturePayment(ctx context.Context, event payments.Event) {
	if event.Type != payments.EventCheckoutCompleted {
		s.cfg.Log.Debug("Ignoring payment event", "event_id", event.ID, "type", event.Type)
		return
	}
	if event.SessionID == "" {
		s.cfg.Log.Error("Payment event without checkout session", "event_id", event.ID)
		return
	}

	found, err := s.repo.FindByPaymentSessionID(ctx, event.SessionID)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			s.cfg.Log.Error("No booking for payment session", "event_id", event.ID, "session_id", event.SessionID)
			return
		}
		s.cfg.Log.Error("Failed to resolve payment session", "event_id", event.ID, "error", err)
		return
	}

	var confirmed *model.Booking
	err = s.withBooking(ctx, found.ID, func(ctx context.Context, b *model.Booking) error {
		switch {
		case b.Status == model.BookingConfirmed:
			s.cfg.Log.Info("Booking already confirmed", "id", b.ID, "event_id", event.ID)
			return nil
		case b.Status == model.BookingCancelled:
			s.cfg.Log.Warn("Payment captured for cancelled booking", "id", b.ID, "event_id", event.ID)
			return nil
		case b.Status == model.BookingExpired:
			if err := s.reacquire(ctx, b); err != nil {
				s.cfg.Log.Error("Payment captured for expired booking, manual reconciliation required",
					"id", b.ID,
					"session_id", event.SessionID,
					"error", err,
				)
				return nil
			}
		default:
			err := s.inventory.WithLockedRange(ctx, rangeOf(b), func(ctx context.Context, lr *invservice.LockedRange) error {
				if err := lr.Confirm(ctx, b.RoomsCount); err != nil {
					return err
				}
				return s.transition(ctx, b, model.BookingConfirmed)
			})
			if err != nil {
				return err
			}
		}
		confirmed = b
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to capture payment", "id", found.ID, "event_id", event.ID, "error", err)
		return
	}
	if confirmed != nil {
		s.cfg.Log.Info("Booking confirmed", "id", confirmed.ID, "event_id", event.ID)
		s.publisher.Publish(ctx, events.BookingConfirmed, confirmed)
	}
}

// reacquire confirms a booking whose hold lapsed before the payment arrived,
// if the capacity is still free.
func (s *bookingService) reacquire(ctx context.Context, b *model.Booking) error {
	return s.inventory.WithAvailableInventory(ctx, rangeOf(b), b.RoomsCount, func(ctx context.Context, lr *invservice.LockedRange) error {
		if err := lr.Reserve(ctx, b.RoomsCount); err != nil {
			return err
		}
		if err := lr.Confirm(ctx, b.RoomsCount); err != nil {
			return err
		}
		return s.transition(ctx, b, model.BookingConfirmed)
	})
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID string, requester string) error {
	var cancelled *model.Booking
	err := s.withOwnedBooking(ctx, bookingID, requester, func(ctx context.Context, b *model.Booking) error {
		if b.Status != model.BookingConfirmed {
			return apperrors.IllegalStateTransition(string(b.Status), string(model.BookingCancelled))
		}
		err := s.inventory.WithLockedRange(ctx, rangeOf(b), func(ctx context.Context, lr *invservice.LockedRange) error {
			if err := lr.Release(ctx, b.RoomsCount, invservice.HoldBooked); err != nil {
				return err
			}
			return s.transition(ctx, b, model.BookingCancelled)
		})
		if err != nil {
			return err
		}
		cancelled = b
		return nil
	})
	if err != nil {
		return err
	}

	s.cfg.Log.Info("Booking cancelled", "id", cancelled.ID, "room_id", cancelled.RoomID)
	s.publisher.Publish(ctx, events.BookingCancelled, cancelled)

	if cancelled.PaymentSessionID == "" {
		s.cfg.Log.Warn("Cancelled booking has no payment session to refund", "id", cancelled.ID)
		return nil
	}
	if err := s.gateway.Refund(ctx, cancelled.PaymentSessionID); err != nil {
		s.cfg.Log.Error("Refund failed", "id", cancelled.ID, "session_id", cancelled.PaymentSessionID, "error", err)
		return apperrors.RefundProcessing(cancelled.ID, err)
	}
	s.cfg.Log.Info("Refund initiated", "id", cancelled.ID, "session_id", cancelled.PaymentSessionID)
	return nil
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID string, requester string) (*model.Booking, error) {
	b, err := s.findOwned(ctx, bookingID, requester)
	if err != nil {
		return nil, err
	}
	guests, err := s.guests.FindByBooking(ctx, b.ID)
	if err != nil {
		return nil, apperrors.Internal("Failed to load guests", err)
	}
	b.Guests = guests
	return s.project(b), nil
}

func (s *bookingService) GetBookingStatus(ctx context.Context, bookingID string, requester string) (*model.BookingStatusResponse, error) {
	b, err := s.findOwned(ctx, bookingID, requester)
	if err != nil {
		return nil, err
	}
	return &model.BookingStatusResponse{ID: b.ID, Status: s.project(b).Status}, nil
}

func (s *bookingService) GetMyBookings(ctx context.Context, requester string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if requester == "" {
		return nil, 0, apperrors.Unauthorized("Authentication required")
	}
	return s.list(ctx,
		func(ctx context.Context) (int64, error) { return s.repo.CountByUser(ctx, requester) },
		func(ctx context.Context) ([]*model.Booking, error) {
			return s.repo.FindByUser(ctx, requester, limit, offset)
		},
	)
}

func (s *bookingService) GetAllBookingsForHotel(ctx context.Context, hotelID string, requester string, limit int, offset int64) ([]*model.Booking, int64, error) {
	if _, err := s.ownedHotel(ctx, hotelID, requester); err != nil {
		return nil, 0, err
	}
	s.cfg.Log.Info("Listing bookings for hotel", "hotel_id", hotelID)
	return s.list(ctx,
		func(ctx context.Context) (int64, error) { return s.repo.CountByHotel(ctx, hotelID) },
		func(ctx context.Context) ([]*model.Booking, error) {
			return s.repo.FindByHotel(ctx, hotelID, limit, offset)
		},
	)
}

func (s *bookingService) GetHotelReport(ctx context.Context, hotelID string, start, end time.Time, requester string) (*model.HotelReport, error) {
	start, end = model.Day(start), model.Day(end)
	if start.After(end) {
		return nil, apperrors.InvalidDateRange("report start date cannot be after end date")
	}
	if _, err := s.ownedHotel(ctx, hotelID, requester); err != nil {
		return nil, err
	}

	s.cfg.Log.Info("Generating hotel report", "hotel_id", hotelID,
		"start", start.Format(time.DateOnly), "end", end.Format(time.DateOnly))

	count, revenue, err := s.repo.ConfirmedRevenue(ctx, hotelID, start, end.AddDate(0, 0, 1))
	if err != nil {
		s.cfg.Log.Error("Failed to aggregate revenue", "hotel_id", hotelID, "error", err)
		return nil, apperrors.Internal("Failed to generate report", err)
	}

	report := &model.HotelReport{
		HotelID:      hotelID,
		StartDate:    start,
		EndDate:      end,
		BookingCount: count,
		TotalRevenue: pricing.RoundCents(revenue),
	}
	if count > 0 {
		report.AverageRevenue = pricing.RoundCents(revenue / float64(count))
	}
	return report, nil
}

func (s *bookingService) list(
	ctx context.Context,
	countFn func(ctx context.Context) (int64, error),
	findFn func(ctx context.Context) ([]*model.Booking, error),
) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = countFn(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = findFn(ctx)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	for i, b := range bookings {
		bookings[i] = s.project(b)
	}
	return bookings, count, nil
}

// withBooking runs fn with the booking lock held on a freshly loaded copy.
func (s *bookingService) withBooking(ctx context.Context, id string, fn func(ctx context.Context, b *model.Booking) error) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}
	unlock, err := s.locks.Lock(ctx, locker.BookingKey(id))
	if err != nil {
		return apperrors.Timeout("Timed out waiting for booking lock")
	}
	defer unlock()

	release, err := s.lease(ctx, locker.BookingKey(id))
	if err != nil {
		return err
	}
	defer release()

	b, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	return fn(ctx, b)
}

// lease takes the shared lock on key, polling while another instance holds
// it. The caller must already hold the in-process lock for key.
func (s *bookingService) lease(ctx context.Context, key string) (func(), error) {
	ttl := s.cfg.BookingLockTTL
	if ttl <= 0 {
		ttl = config.DefaultBookingLockTTL
	}
	owner := uuid.NewString()
	wait := leasePollMin

	for {
		err := s.leases.Create(ctx, &model.BookingLock{
			ID:        key,
			Owner:     owner,
			ExpiresAt: time.Now().UTC().Add(ttl),
		})
		if err == nil {
			break
		}
		if !errors.Is(err, bookingserrors.ErrLockHeld) {
			return nil, apperrors.Internal("Failed to acquire booking lock", err)
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, apperrors.Timeout("Timed out waiting for booking lock")
		case <-timer.C:
		}
		wait = min(wait*2, leasePollMax)
	}

	return func() {
		if err := s.leases.Delete(context.WithoutCancel(ctx), key, owner); err != nil {
			s.cfg.Log.Warn("Failed to release booking lock", "lock_id", key, "error", err)
		}
	}, nil
}

// withOwnedBooking is withBooking for mutations by the booking's owner. A
// booking past its payment window is expired first and fn is not called.
func (s *bookingService) withOwnedBooking(ctx context.Context, id, requester string, fn func(ctx context.Context, b *model.Booking) error) error {
	var expired *model.Booking
	err := s.withBooking(ctx, id, func(ctx context.Context, b *model.Booking) error {
		if err := checkOwner(b, requester); err != nil {
			return err
		}
		if b.IsExpired(s.now(), s.cfg.BookingExpiry) {
			if err := s.expire(ctx, b); err != nil {
				return err
			}
			expired = b
			return apperrors.BookingExpired(b.ID)
		}
		return fn(ctx, b)
	})
	if expired != nil {
		s.publisher.Publish(ctx, events.BookingExpired, expired)
	}
	return err
}

// expire gives back the reserved units of a lapsed booking. Must be called
// with the booking lock held.
func (s *bookingService) expire(ctx context.Context, b *model.Booking) error {
	err := s.inventory.WithLockedRange(ctx, rangeOf(b), func(ctx context.Context, lr *invservice.LockedRange) error {
		if err := lr.Release(ctx, b.RoomsCount, invservice.HoldReserved); err != nil {
			return err
		}
		return s.transition(ctx, b, model.BookingExpired)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to expire booking", "id", b.ID, "error", err)
		return err
	}
	s.cfg.Log.Info("Booking expired", "id", b.ID, "created_at", b.CreatedAt)
	return nil
}

func (s *bookingService) transition(ctx context.Context, b *model.Booking, to model.BookingStatus) error {
	if err := s.repo.UpdateStatus(ctx, b.ID, b.Status, to); err != nil {
		return s.casError(err, b, to)
	}
	b.Status = to
	b.UpdatedAt = s.now().UTC()
	return nil
}

func (s *bookingService) casError(err error, b *model.Booking, to model.BookingStatus) error {
	switch {
	case errors.Is(err, bookingserrors.ErrStatusConflict):
		return apperrors.IllegalStateTransition(string(b.Status), string(to))
	case errors.Is(err, bookingserrors.ErrDuplicateSession):
		return apperrors.Conflict("Payment session is already attached to another booking")
	}
	return apperrors.Internal("Failed to update booking", err)
}

func (s *bookingService) find(ctx context.Context, id string) (*model.Booking, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return b, nil
}

func (s *bookingService) findOwned(ctx context.Context, id, requester string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}
	b, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(b, requester); err != nil {
		return nil, err
	}
	return b, nil
}

// project reports a lapsed booking as EXPIRED without persisting anything.
func (s *bookingService) project(b *model.Booking) *model.Booking {
	if b.IsExpired(s.now(), s.cfg.BookingExpiry) {
		b.Status = model.BookingExpired
	}
	return b
}

func (s *bookingService) hotelRoom(ctx context.Context, hotelID, roomID string) (*model.Hotel, *model.Room, error) {
	hotel, err := s.catalog.FindHotelByID(ctx, hotelID)
	if err != nil {
		return nil, nil, catalogError(err, "Hotel", hotelID)
	}
	room, err := s.catalog.FindRoomByID(ctx, roomID)
	if err != nil {
		return nil, nil, catalogError(err, "Room", roomID)
	}
	if room.HotelID != hotel.ID {
		return nil, nil, apperrors.NotFoundWithID("Room", roomID)
	}
	return hotel, room, nil
}

func (s *bookingService) ownedHotel(ctx context.Context, hotelID, requester string) (*model.Hotel, error) {
	if hotelID == "" {
		return nil, apperrors.InvalidInput("Hotel ID cannot be empty")
	}
	hotel, err := s.catalog.FindHotelByID(ctx, hotelID)
	if err != nil {
		return nil, catalogError(err, "Hotel", hotelID)
	}
	if hotel.OwnerID != requester {
		return nil, apperrors.NotOwner("Hotel", hotelID)
	}
	return hotel, nil
}

func catalogError(err error, resource, id string) error {
	if errors.Is(err, catalogerrors.ErrHotelNotFound) || errors.Is(err, catalogerrors.ErrRoomNotFound) {
		return apperrors.NotFoundWithID(resource, id)
	}
	return apperrors.Internal(fmt.Sprintf("Failed to retrieve %s", resource), err)
}

func checkOwner(b *model.Booking, requester string) error {
	if requester == "" || b.UserID != requester {
		return apperrors.NotOwner("Booking", b.ID)
	}
	return nil
}

func rangeOf(b *model.Booking) invservice.RangeQuery {
	return invservice.RangeQuery{RoomID: b.RoomID, Start: b.CheckInDate, End: b.CheckOutDate}
}

func validationError(message string, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return apperrors.Validation(message, map[string]any{"errors": verrs})
	}
	return apperrors.Validation(message, map[string]any{"error": err.Error()})
}
