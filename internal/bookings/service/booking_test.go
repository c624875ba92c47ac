package service

import (
	"context"
	"errors"
	"fmt"
	"staybook/internal/bookings/repository"
	"staybook/internal/bookings/validator"
	catalogrepo "staybook/internal/catalog/repository"
	"staybook/internal/inventory/locker"
	invrepo "staybook/internal/inventory/repository"
	invservice "staybook/internal/inventory/service"
	"staybook/internal/payments"
	"staybook/internal/pricing"
	"staybook/pkg/config"
	apperrors "staybook/pkg/errors"
	"staybook/pkg/logger"
	"staybook/pkg/model"
	"sync"
	"testing"
	"time"
)

const (
	guestUser = "user-1"
	otherUser = "user-2"
	owner     = "owner-1"
	hotelID   = "hotel-1"
	roomID    = "room-1"
)

var day0 = time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

type mockGateway struct {
	mu                sync.Mutex
	createSessionFunc func(ctx context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error)
	refundFunc        func(ctx context.Context, sessionID string) error
	expireFunc        func(ctx context.Context, sessionID string) error
	requests          []payments.CheckoutRequest
	refunds           []string
	expired           []string
	sessions          int
}

func (m *mockGateway) CreateCheckoutSession(ctx context.Context, req payments.CheckoutRequest) (*payments.CheckoutSession, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.sessions++
	n := m.sessions
	m.mu.Unlock()

	if m.createSessionFunc != nil {
		return m.createSessionFunc(ctx, req)
	}
	id := fmt.Sprintf("cs_test_%d", n)
	return &payments.CheckoutSession{ID: id, URL: "https://checkout.test/" + id}, nil
}

func (m *mockGateway) ExpireSession(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	m.expired = append(m.expired, sessionID)
	m.mu.Unlock()

	if m.expireFunc != nil {
		return m.expireFunc(ctx, sessionID)
	}
	return nil
}

func (m *mockGateway) Refund(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	m.refunds = append(m.refunds, sessionID)
	m.mu.Unlock()

	if m.refundFunc != nil {
		return m.refundFunc(ctx, sessionID)
	}
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, b *model.Booking) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType+":"+b.ID)
}

func (p *recordingPublisher) count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if len(e) > len(eventType) && e[:len(eventType)+1] == eventType+":" {
			n++
		}
	}
	return n
}

type fixture struct {
	svc       *bookingService
	repo      *repository.MemoryBookingRepository
	inventory invrepo.InventoryRepository
	gateway   *mockGateway
	publisher *recordingPublisher
	locks     *locker.Locker
	leases    *repository.MemoryBookingLockRepository
	now       time.Time
}

func newFixture(t *testing.T, total int) *fixture {
	t.Helper()

	cfg := &config.Config{
		Log:                  logger.Discard(),
		InventoryHorizonDays: 365,
		BookingExpiry:        10 * time.Minute,
		BookingLockTTL:       30 * time.Second,
		FrontendURL:          "https://app.test",
	}

	cat := catalogrepo.NewMemoryCatalogRepository()
	cat.PutHotel(model.Hotel{ID: hotelID, OwnerID: owner, Name: "Seaside", City: "goa", Active: true})
	cat.PutRoom(model.Room{ID: roomID, HotelID: hotelID, Type: "DELUXE", BasePrice: 100, TotalCount: total})
	cat.PutHotel(model.Hotel{ID: "hotel-2", OwnerID: "owner-2", Name: "Hillside", City: "ooty", Active: true})
	cat.PutRoom(model.Room{ID: "room-2", HotelID: "hotel-2", Type: "STANDARD", BasePrice: 80, TotalCount: total})

	invRepo := invrepo.NewMemoryInventoryRepository()
	var seed []*model.Inventory
	for i := 0; i < 10; i++ {
		d := day0.AddDate(0, 0, i)
		seed = append(seed, &model.Inventory{
			ID:          model.InventoryID(roomID, d),
			HotelID:     hotelID,
			RoomID:      roomID,
			City:        "goa",
			Date:        d,
			TotalCount:  total,
			BasePrice:   100,
			SurgeFactor: 1,
		})
	}
	if _, err := invRepo.CreateMissing(context.Background(), seed); err != nil {
		t.Fatalf("failed to seed inventory: %v", err)
	}

	locks := locker.New()
	gateway := &mockGateway{}
	publisher := &recordingPublisher{}
	repo := repository.NewMemoryBookingRepository()
	leases := repository.NewMemoryBookingLockRepository()

	f := &fixture{
		repo:      repo,
		inventory: invRepo,
		gateway:   gateway,
		publisher: publisher,
		locks:     locks,
		leases:    leases,
		now:       day0.Add(9 * time.Hour),
	}
	f.svc = NewBookingService(Dependencies{
		Repo:      repo,
		Guests:    repository.NewMemoryGuestRepository(),
		Inventory: invservice.NewInventoryService(invRepo, cat, locks, cfg),
		Catalog:   cat,
		Pricing:   pricing.NewEngine(0, pricing.BaseStage()),
		Gateway:   gateway,
		Publisher: publisher,
		Validator: validator.NewBookingValidator(),
		Locks:     locks,

		BookingLocks: leases,
	}, cfg).(*bookingService)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func request(from, to, rooms int) *model.BookingRequest {
	return &model.BookingRequest{
		HotelID:      hotelID,
		RoomID:       roomID,
		CheckInDate:  day0.AddDate(0, 0, from).Format(time.DateOnly),
		CheckOutDate: day0.AddDate(0, 0, to).Format(time.DateOnly),
		RoomsCount:   rooms,
	}
}

func (f *fixture) book(t *testing.T, from, to, rooms int) *model.Booking {
	t.Helper()
	b, err := f.svc.InitializeBooking(context.Background(), request(from, to, rooms), guestUser)
	if err != nil {
		t.Fatalf("InitializeBooking: %v", err)
	}
	return b
}

func (f *fixture) pay(t *testing.T, b *model.Booking) string {
	t.Helper()
	resp, err := f.svc.InitiatePayment(context.Background(), b.ID, guestUser)
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}
	return resp.SessionID
}

func (f *fixture) confirm(t *testing.T, b *model.Booking) string {
	t.Helper()
	session := f.pay(t, b)
	f.svc.CapturePayment(context.Background(), payments.Event{
		ID: "evt_" + session, Type: payments.EventCheckoutCompleted, SessionID: session,
	})
	if got := f.status(t, b.ID); got != model.BookingConfirmed {
		t.Fatalf("status after capture = %s, want CONFIRMED", got)
	}
	return session
}

func (f *fixture) status(t *testing.T, id string) model.BookingStatus {
	t.Helper()
	b, err := f.repo.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	return b.Status
}

// counters returns reserved and booked units for day offset i.
func (f *fixture) counters(t *testing.T, i int) (int, int) {
	t.Helper()
	d := day0.AddDate(0, 0, i)
	recs, err := f.inventory.FindByRoom(context.Background(), roomID, d, d)
	if err != nil || len(recs) != 1 {
		t.Fatalf("FindByRoom(%s) = %v, %v", d.Format(time.DateOnly), recs, err)
	}
	return recs[0].ReservedCount, recs[0].BookedCount
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if !apperrors.HasCode(err, code) {
		t.Fatalf("error = %v, want code %s", err, code)
	}
}

func TestInitializeBooking_ReservesAndPrices(t *testing.T) {
	f := newFixture(t, 5)

	b := f.book(t, 1, 3, 2)

	if b.Status != model.BookingReserved {
		t.Errorf("status = %s, want RESERVED", b.Status)
	}
	// two billable nights at 100, two rooms
	if b.Amount != 400 {
		t.Errorf("amount = %.2f, want 400", b.Amount)
	}
	if b.UserID != guestUser || b.HotelID != hotelID {
		t.Errorf("booking owner/hotel = %s/%s", b.UserID, b.HotelID)
	}
	for i := 1; i <= 3; i++ {
		if reserved, booked := f.counters(t, i); reserved != 2 || booked != 0 {
			t.Errorf("day %d reserved=%d booked=%d, want 2/0", i, reserved, booked)
		}
	}
	if reserved, _ := f.counters(t, 4); reserved != 0 {
		t.Errorf("day 4 reserved=%d, want 0", reserved)
	}
	if f.publisher.count("booking.reserved") != 1 {
		t.Errorf("events = %v, want one booking.reserved", f.publisher.events)
	}
}

func TestInitializeBooking_SameDay(t *testing.T) {
	f := newFixture(t, 5)

	b := f.book(t, 2, 2, 1)

	if b.Amount != 100 {
		t.Errorf("amount = %.2f, want 100", b.Amount)
	}
	if reserved, _ := f.counters(t, 2); reserved != 1 {
		t.Errorf("reserved = %d, want 1", reserved)
	}
}

func TestInitializeBooking_Rejections(t *testing.T) {
	tests := []struct {
		name string
		req  *model.BookingRequest
		code string
	}{
		{"check-in after check-out", request(3, 1, 1), apperrors.CodeInvalidDateRange},
		{"zero rooms", request(1, 2, 0), apperrors.CodeInvalidRoomsCount},
		{"negative rooms", request(1, 2, -1), apperrors.CodeInvalidRoomsCount},
		{"malformed date", &model.BookingRequest{HotelID: hotelID, RoomID: roomID, CheckInDate: "10/03/2026", CheckOutDate: "2026-03-12", RoomsCount: 1}, apperrors.CodeValidation},
		{"missing hotel id", &model.BookingRequest{RoomID: roomID, CheckInDate: "2026-03-11", CheckOutDate: "2026-03-12", RoomsCount: 1}, apperrors.CodeValidation},
		{"unknown hotel", &model.BookingRequest{HotelID: "nope", RoomID: roomID, CheckInDate: "2026-03-11", CheckOutDate: "2026-03-12", RoomsCount: 1}, apperrors.CodeNotFound},
		{"room of another hotel", &model.BookingRequest{HotelID: hotelID, RoomID: "room-2", CheckInDate: "2026-03-11", CheckOutDate: "2026-03-12", RoomsCount: 1}, apperrors.CodeNotFound},
		{"more rooms than exist", request(1, 2, 6), apperrors.CodeRoomUnavailable},
		{"days without inventory", request(8, 12, 1), apperrors.CodeRoomUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 5)

			_, err := f.svc.InitializeBooking(context.Background(), tt.req, guestUser)

			assertCode(t, err, tt.code)
			for i := 0; i < 10; i++ {
				if reserved, _ := f.counters(t, i); reserved != 0 {
					t.Errorf("day %d reserved=%d after rejected request", i, reserved)
				}
			}
			if f.locks.Size() != 0 {
				t.Errorf("locks held after return: %d", f.locks.Size())
			}
		})
	}
}

func TestInitializeBooking_CapacityOfTwo(t *testing.T) {
	f := newFixture(t, 2)

	f.book(t, 1, 2, 1)
	f.book(t, 1, 2, 1)

	_, err := f.svc.InitializeBooking(context.Background(), request(1, 2, 1), guestUser)
	assertCode(t, err, apperrors.CodeRoomUnavailable)

	// an adjacent stay is unaffected
	f.book(t, 3, 4, 2)
}

func TestInitializeBooking_SameDaySellsOut(t *testing.T) {
	f := newFixture(t, 2)

	f.book(t, 5, 5, 2)

	_, err := f.svc.InitializeBooking(context.Background(), request(5, 5, 1), guestUser)
	assertCode(t, err, apperrors.CodeRoomUnavailable)
}

func TestInitializeBooking_ConcurrentRequestsNeverOversell(t *testing.T) {
	f := newFixture(t, 3)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.InitializeBooking(context.Background(), request(1, 4, 1), guestUser)
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			if !apperrors.HasCode(err, apperrors.CodeRoomUnavailable) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 3 {
		t.Errorf("succeeded = %d, want 3", succeeded)
	}
	for i := 1; i <= 4; i++ {
		if reserved, _ := f.counters(t, i); reserved != 3 {
			t.Errorf("day %d reserved=%d, want 3", i, reserved)
		}
	}
}

func TestAddGuests(t *testing.T) {
	f := newFixture(t, 5)
	b := f.book(t, 1, 2, 1)

	got, err := f.svc.AddGuests(context.Background(), b.ID, []model.GuestRequest{
		{Name: "  Asha   Rao ", Gender: "f", Age: 31},
		{Name: "Ravi Rao", Gender: "MALE", Age: 34},
	}, guestUser)
	if err != nil {
		t.Fatalf("AddGuests: %v", err)
	}
	if got.Status != model.BookingGuestsAdded {
		t.Errorf("status = %s, want GUESTS_ADDED", got.Status)
	}
	if len(got.Guests) != 2 || got.Guests[0].Name != "Asha Rao" || got.Guests[0].Gender != "FEMALE" {
		t.Errorf("guests = %+v", got.Guests)
	}

	// a second call appends
	got, err = f.svc.AddGuests(context.Background(), b.ID, []model.GuestRequest{{Name: "Mira", Age: 6}}, guestUser)
	if err != nil {
		t.Fatalf("second AddGuests: %v", err)
	}
	if len(got.Guests) != 3 {
		t.Errorf("guests after append = %d, want 3", len(got.Guests))
	}
}

func TestAddGuests_Rejections(t *testing.T) {
	f := newFixture(t, 5)
	b := f.book(t, 1, 2, 1)

	_, err := f.svc.AddGuests(context.Background(), b.ID, []model.GuestRequest{{Name: "Asha"}}, otherUser)
	assertCode(t, err, apperrors.CodeNotOwner)

	_, err = f.svc.AddGuests(context.Background(), b.ID, nil, guestUser)
	assertCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.AddGuests(context.Background(), b.ID, []model.GuestRequest{{Name: "Asha", Age: 200}}, guestUser)
	assertCode(t, err, apperrors.CodeValidation)

	_, err = f.svc.AddGuests(context.Background(), "missing", []model.GuestRequest{{Name: "Asha"}}, guestUser)
	assertCode(t, err, apperrors.CodeNotFound)

	f.pay(t, b)
	_, err = f.svc.AddGuests(context.Background(), b.ID, []model.GuestRequest{{Name: "Asha"}}, guestUser)
	assertCode(t, err, apperrors.CodeIllegalStateTransition)
}

func TestLazyExpiry_ReleasesReservedUnits(t *testing.T) {
	f := newFixture(t, 5)
	b := f.book(t, 1, 3, 2)

	f.advance(11 * time.Minute)

	_, err := f.svc.AddGuests(context.Background(), b.ID, []model.GuestRequest{{Name: "Asha"}}, guestUser)
	assertCode(t, err, apperrors.CodeBookingExpired)

	if got := f.status(t, b.ID); got != model.BookingExpired {
		t.Errorf("status = %s, want EXPIRED", got)
	}
	for i := 1; i <= 3; i++ {
		if reserved, _ := f.counters(t, i); reserved != 0 {
			t.Errorf("day %d reserved=%d, want 0", i, reserved)
		}
	}
	if f.publisher.count("booking.expired") != 1 {
		t.Errorf("events = %v, want one booking.expired", f.publisher.events)
	}

	// expired is terminal
	_, err = f.svc.InitiatePayment(context.Background(), b.ID, guestUser)
	assertCode(t, err, apperrors.CodeIllegalStateTransition)
	if f.publisher.count("booking.expired") != 1 {
		t.Errorf("expiry published twice: %v", f.publisher.events)
	}
}

func TestLazyExpiry_NotBeforeWindow(t *testing.T) {
	f := newFixture(t, 5)
	b := f.book(t, 1, 2, 1)

	f.advance(10 * time.Minute)

	if _, err := f.svc.InitiatePayment(context.Background(), b.ID, guestUser); err != nil {
		t.Fatalf("InitiatePayment at the window edge: %v", err)
	}
}

func TestReadsReportExpiryWithoutPersisting(t *testing.T) {
	f := newFixture(t, 5)
	b := f.book(t, 1, 2, 1)
	f.advance(11 * time.Minute)

	status, err := f.svc.GetBookingStatus(context.Background(), b.ID, guestUser)
	if err != nil {
		t.Fatalf("GetBookingStatus: %v", err)
	}
	if status.Status != model.BookingExpired {
		t.Errorf("projected status = %s, want EXPIRED", status.Status)
	}
	if got := f.status(t, b.ID); got != model.BookingReserved {
		t.Errorf("stored status = %s, want RESERVED", got)
	}
	if reserved, _ := f.counters(t, 1); reserved != 1 {
		t.Errorf("reserved = %d, want 1", reserved)
	}
}

func TestInitiatePayment(t *testing.T) {
	f := newFixture(t, 5)
	b := f.book(t, 1, 3, 1)

	resp, err := f.svc.InitiatePayment(context.Background(), b.ID, guestUser)
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}
	if resp.SessionURL == "" || resp.SessionID == "" {
		t.Errorf("response = %+v", resp)
	}

	req := f.gateway.requests[0]
	if req.Amount != 200 || req.BookingID != b.ID || req.CustomerID != guestUser {
		t.Errorf("checkout request = %+v", req)
	}
	if req.SuccessURL != "https://app.test/payments/success" || req.CancelURL != "https://app.test/payments/failure" {
		t.Errorf("redirect urls = %s, %s", req.SuccessURL, req.CancelURL)
	}

	stored, _ := f.repo.FindByID(context.Background(), b.ID)
	if stored.Status != model.BookingPaymentsPending || stored.PaymentSessionID != resp.SessionID {
		t.Errorf("stored = %s/%s", stored.Status, stored.PaymentSessionID)
	}

	// a retry replaces the session
	again, err := f.svc.InitiatePayment(context.Background(), b.ID, guestUser)
	if err != nil {
		t.Fatalf("retry InitiatePayment: %v", err)
	}
	if again.SessionID == resp.SessionID {
		t.Errorf("retry reused session %s", again.SessionID)
	}
	if len(f.gateway.expired) != 1 || f.gateway.expired[0] != resp.SessionID {
		t.Errorf("expired sessions = %v, want [%s]", f.gateway.expired, resp.SessionID)
	}
	stored, _ = f.repo.FindByID(context.Background(), b.ID)
	if stored.PaymentSessionID != again.SessionID {
		t.Errorf("attached session = %s, want %s", stored.PaymentSessionID, again.SessionID)
	}
}

func TestInitiatePayment_RetryAfterPreviousSessionPaid(t *testing.T) {
	f := newFixture(t, 5)
	b := f.book(t, 1, 2, 1)

	first, err := f.svc.InitiatePayment(context.Background(), b.ID, guestUser)
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}

	// the customer paid the first session but the webhook has not arrived yet
	f.gateway.expireFunc = func(_ context.Context, sessionID string) error {
		if sessionID == first.SessionID {
			return payments.ErrSessionCompleted
		}
		return nil
	}
	_, err = f.svc.InitiatePayment(context.Background(), b.ID, guestUser)

	assertCode(t, err, apperrors.CodePaymentGateway)
	stored, _ := f.repo.FindByID(context.Background(), b.ID)
	if stored.PaymentSessionID != first.SessionID {
		t.Errorf("attached session = %s, want %s", stored.PaymentSessionID, first.SessionID)
	}
	if len(f.gateway.expired) != 2 || f.gateway.expired[1] != "cs_test_2" {
		t.Errorf("expired sessions = %v, want the unattached cs_test_2 discarded", f.gateway.expired)
	}
	if f.locks.Size() != 0 {
		t.Errorf("locks held after return: %d", f.locks.Size())
	}

	f.svc.CapturePayment(context.Background(), payments.Event{
		ID: "evt_first", Type: payments.EventCheckoutCompleted, SessionID: first.SessionID,
	})
	if got := f.status(t, b.ID); got != model.BookingConfirmed {
		t.Errorf("status = %s, want CONFIRMED", got)
	}
}

func TestInitiatePayment_PreviousSessionNotExpired(t *testing.T) {
	f := newFixture(t, 5)
	b := f.book(t, 1, 2, 1)
	first, err := f.svc.InitiatePayment(context.Background(), b.ID, guestUser)
	if err != nil {
		t.Fatalf("InitiatePayment: %v", err)
	}
	f.gateway.expireFunc = func(_ context.Context, sessionID string) error {
		if sessionID == first.SessionID {
			return errors.New("connection reset")
		}
		return nil
	}

	_, err = f.svc.InitiatePayment(context.Background(), b.ID, guestUser)

	assertCode(t, err, apperrors.CodePaymentGateway)
	stored, _ := f.repo.FindByID(context.Background(), b.ID)
	if stored.PaymentSessionID != first.SessionID {
		t.Errorf("attached session = %s, want %s", stored.PaymentSessionID, first.SessionID)
	}
}

func TestInitiatePayment_GatewayFailure(t *testing.T) {
	f := newFixture(t, 5)
	f.gateway.createSessionFunc = func(context.Context, payments.CheckoutRequest) (*payments.CheckoutSession, error) {
		return nil, errors.New("connection reset")
	}
	b := f.book(t, 1, 2, 1)

	_, err := f.svc.InitiatePayment(context.Background(), b.ID, guestUser)

	assertCode(t, err, apperrors.CodePaymentGateway)
	if got := f.status(t, b.ID); got != model.BookingReserved {
		t.Errorf("status = %s, want RESERVED", got)
	}
	if f.locks.Size() != 0 {
		t.Errorf("locks held after return: %d", f.locks.Size())
	}
}

func TestInitiatePayment_NotOwner(t *testing.T) {
	f := newFixture(t, 5)
	b := f.book(t, 1, 2, 1)

	_, err := f.svc.InitiatePayment(context.Background(), b.ID, otherUser)

	assertCode(t, err, apperrors.CodeNotOwner)
	if len(f.gateway.requests) != 0 {
		t.Errorf("gateway called for non-owner")
	}
}

func TestCapturePayment_IsIdempotent(t *testing.T) {
	f := newFixture(t, 5)
	b := f.book(t, 1, 2, 2)
	session := f.confirm(t, b)

	f.svc.CapturePayment(context.Background(), payments.Event{
		ID: "evt_retry", Type: payments.EventCheckoutCompleted, SessionID: session,
	})

	for i := 1; i <= 2; i++ {
		if reserved, booked := f.counters(t, i); reserved != 0 || booked != 2 {
			t.Errorf("day %d reserved=%d booked=%d, want 0/2", i, reserved, booked)
		}
	}
	if f.publisher.count("booking.confirmed") != 1 {
		t.Errorf("events = %v, want one booking.confirmed", f.publisher.events)
	}
}

func TestCapturePayment_LatePaymentWithinHold(t *testing.T) {
	f := newFixture(t, 5)
	b := f.book(t, 1, 2, 1)
	session := f.pay(t, b)

	// payment completes after the window but before anything expired the booking
	f.advance(15 * time.Minute)
	f.svc.CapturePayment(context.Background(), payments.Event{
		ID: "evt_late", Type: payments.EventCheckoutCompleted, SessionID: session,
	})

	if got := f.status(t, b.ID); got != model.BookingConfirmed {
		t.Errorf("status = %s, want CONFIRMED", got)
	}
	if reserved, booked := f.counters(t, 1); reserved != 0 || booked != 1 {
		t.Errorf("reserved=%d booked=%d, want 0/1", reserved, booked)
	}
}

func TestCapturePayment_ExpiredBooking(t *testing.T) {
	t.Run("capacity still free", func(t *testing.T) {
		f := newFixture(t, 2)
		b := f.book(t, 1, 2, 1)
		session := f.pay(t, b)
		f.advance(11 * time.Minute)
		assertCode(t, f.svc.CancelBooking(context.Background(), b.ID, guestUser), apperrors.CodeBookingExpired)

		f.svc.CapturePayment(context.Background(), payments.Event{
			ID: "evt_1", Type: payments.EventCheckoutCompleted, SessionID: session,
		})

		if got := f.status(t, b.ID); got != model.BookingConfirmed {
			t.Errorf("status = %s, want CONFIRMED", got)
		}
		if reserved, booked := f.counters(t, 1); reserved != 0 || booked != 1 {
			t.Errorf("reserved=%d booked=%d, want 0/1", reserved, booked)
		}
	})

	t.Run("capacity taken", func(t *testing.T) {
		f := newFixture(t, 2)
		b := f.book(t, 1, 2, 1)
		session := f.pay(t, b)
		f.advance(11 * time.Minute)
		assertCode(t, f.svc.CancelBooking(context.Background(), b.ID, guestUser), apperrors.CodeBookingExpired)
		f.book(t, 1, 2, 2)

		f.svc.CapturePayment(context.Background(), payments.Event{
			ID: "evt_1", Type: payments.EventCheckoutCompleted, SessionID: session,
		})

		if got := f.status(t, b.ID); got != model.BookingExpired {
			t.Errorf("status = %s, want EXPIRED", got)
		}
		if reserved, booked := f.counters(t, 1); reserved != 2 || booked != 0 {
			t.Errorf("reserved=%d booked=%d, want 2/0", reserved, booked)
		}
	})
}

func TestCapturePayment_IgnoredEvents(t *testing.T) {
	f := newFixture(t, 5)
	b := f.book(t, 1, 2, 1)
	session := f.pay(t, b)

	events := []payments.Event{
		{ID: "evt_1", Type: "payment_intent.created", SessionID: session},
		{ID: "evt_2", Type: payments.EventCheckoutCompleted},
		{ID: "evt_3", Type: payments.EventCheckoutCompleted, SessionID: "cs_unknown"},
	}
	for _, evt := range events {
		f.svc.CapturePayment(context.Background(), evt)
	}

	if got := f.status(t, b.ID); got != model.BookingPaymentsPending {
		t.Errorf("status = %s, want PAYMENTS_PENDING", got)
	}
	if reserved, booked := f.counters(t, 1); reserved != 1 || booked != 0 {
		t.Errorf("reserved=%d booked=%d, want 1/0", reserved, booked)
	}
}

func TestCancelBooking_RefundsExactlyOnce(t *testing.T) {
	f := newFixture(t, 5)
	b := f.book(t, 1, 3, 2)
	session := f.confirm(t, b)

	if err := f.svc.CancelBooking(context.Background(), b.ID, guestUser); err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}

	if got := f.status(t, b.ID); got != model.BookingCancelled {
		t.Errorf("status = %s, want CANCELLED", got)
	}
	for i := 1; i <= 3; i++ {
		if reserved, booked := f.counters(t, i); reserved != 0 || booked != 0 {
			t.Errorf("day %d reserved=%d booked=%d, want 0/0", i, reserved, booked)
		}
	}

	err := f.svc.CancelBooking(context.Background(), b.ID, guestUser)
	assertCode(t, err, apperrors.CodeIllegalStateTransition)

	if len(f.gateway.refunds) != 1 || f.gateway.refunds[0] != session {
		t.Errorf("refunds = %v, want [%s]", f.gateway.refunds, session)
	}
	if f.publisher.count("booking.cancelled") != 1 {
		t.Errorf("events = %v, want one booking.cancelled", f.publisher.events)
	}
}

func TestCancelBooking_RefundFailureKeepsCancellation(t *testing.T) {
	f := newFixture(t, 5)
	f.gateway.refundFunc = func(context.Context, string) error { return errors.New("card_declined") }
	b := f.book(t, 1, 2, 1)
	f.confirm(t, b)

	err := f.svc.CancelBooking(context.Background(), b.ID, guestUser)

	assertCode(t, err, apperrors.CodeRefundProcessing)
	if got := f.status(t, b.ID); got != model.BookingCancelled {
		t.Errorf("status = %s, want CANCELLED", got)
	}
	if _, booked := f.counters(t, 1); booked != 0 {
		t.Errorf("booked = %d, want 0", booked)
	}
}

func TestCancelBooking_IllegalStates(t *testing.T) {
	f := newFixture(t, 5)

	reserved := f.book(t, 1, 2, 1)
	assertCode(t, f.svc.CancelBooking(context.Background(), reserved.ID, guestUser), apperrors.CodeIllegalStateTransition)

	pending := f.book(t, 3, 4, 1)
	f.pay(t, pending)
	assertCode(t, f.svc.CancelBooking(context.Background(), pending.ID, guestUser), apperrors.CodeIllegalStateTransition)

	confirmed := f.book(t, 5, 6, 1)
	f.confirm(t, confirmed)
	assertCode(t, f.svc.CancelBooking(context.Background(), confirmed.ID, otherUser), apperrors.CodeNotOwner)

	if len(f.gateway.refunds) != 0 {
		t.Errorf("refunds = %v, want none", f.gateway.refunds)
	}
}

func TestGetBooking(t *testing.T) {
	f := newFixture(t, 5)
	b := f.book(t, 1, 2, 1)
	if _, err := f.svc.AddGuests(context.Background(), b.ID, []model.GuestRequest{{Name: "Asha"}}, guestUser); err != nil {
		t.Fatalf("AddGuests: %v", err)
	}

	got, err := f.svc.GetBooking(context.Background(), b.ID, guestUser)
	if err != nil {
		t.Fatalf("GetBooking: %v", err)
	}
	if got.ID != b.ID || len(got.Guests) != 1 {
		t.Errorf("booking = %+v", got)
	}

	_, err = f.svc.GetBooking(context.Background(), b.ID, otherUser)
	assertCode(t, err, apperrors.CodeNotOwner)

	_, err = f.svc.GetBooking(context.Background(), "", guestUser)
	assertCode(t, err, apperrors.CodeInvalidInput)
}

func TestGetMyBookings(t *testing.T) {
	f := newFixture(t, 5)
	f.book(t, 1, 2, 1)
	f.book(t, 3, 4, 1)
	if _, err := f.svc.InitializeBooking(context.Background(), request(5, 6, 1), otherUser); err != nil {
		t.Fatalf("InitializeBooking: %v", err)
	}

	bookings, total, err := f.svc.GetMyBookings(context.Background(), guestUser, 10, 0)
	if err != nil {
		t.Fatalf("GetMyBookings: %v", err)
	}
	if total != 2 || len(bookings) != 2 {
		t.Errorf("got %d bookings of %d, want 2 of 2", len(bookings), total)
	}

	page, total, err := f.svc.GetMyBookings(context.Background(), guestUser, 1, 1)
	if err != nil {
		t.Fatalf("GetMyBookings page: %v", err)
	}
	if total != 2 || len(page) != 1 {
		t.Errorf("page = %d of %d, want 1 of 2", len(page), total)
	}
}

func TestGetAllBookingsForHotel(t *testing.T) {
	f := newFixture(t, 5)
	f.book(t, 1, 2, 1)

	bookings, total, err := f.svc.GetAllBookingsForHotel(context.Background(), hotelID, owner, 10, 0)
	if err != nil {
		t.Fatalf("GetAllBookingsForHotel: %v", err)
	}
	if total != 1 || len(bookings) != 1 {
		t.Errorf("got %d of %d, want 1 of 1", len(bookings), total)
	}

	_, _, err = f.svc.GetAllBookingsForHotel(context.Background(), hotelID, guestUser, 10, 0)
	assertCode(t, err, apperrors.CodeNotOwner)

	_, _, err = f.svc.GetAllBookingsForHotel(context.Background(), "hotel-9", owner, 10, 0)
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestGetHotelReport(t *testing.T) {
	f := newFixture(t, 5)
	f.confirm(t, f.book(t, 1, 2, 1)) // 100
	f.confirm(t, f.book(t, 3, 5, 1)) // 200
	f.book(t, 6, 7, 1)               // not confirmed

	report, err := f.svc.GetHotelReport(context.Background(), hotelID, day0, day0, owner)
	if err != nil {
		t.Fatalf("GetHotelReport: %v", err)
	}
	if report.BookingCount != 2 || report.TotalRevenue != 300 || report.AverageRevenue != 150 {
		t.Errorf("report = %+v, want 2 / 300 / 150", report)
	}

	empty, err := f.svc.GetHotelReport(context.Background(), hotelID, day0.AddDate(0, 0, 1), day0.AddDate(0, 0, 2), owner)
	if err != nil {
		t.Fatalf("GetHotelReport empty window: %v", err)
	}
	if empty.BookingCount != 0 || empty.AverageRevenue != 0 {
		t.Errorf("empty report = %+v", empty)
	}

	_, err = f.svc.GetHotelReport(context.Background(), hotelID, day0, day0, guestUser)
	assertCode(t, err, apperrors.CodeNotOwner)

	_, err = f.svc.GetHotelReport(context.Background(), hotelID, day0.AddDate(0, 0, 2), day0, owner)
	assertCode(t, err, apperrors.CodeInvalidDateRange)
}

func TestBookingLock_ReleasedAfterEachOperation(t *testing.T) {
	f := newFixture(t, 5)
	b := f.book(t, 1, 2, 1)
	f.confirm(t, b)
	if err := f.svc.CancelBooking(context.Background(), b.ID, guestUser); err != nil {
		t.Fatalf("CancelBooking: %v", err)
	}
	assertCode(t, f.svc.CancelBooking(context.Background(), b.ID, guestUser), apperrors.CodeIllegalStateTransition)

	if f.leases.Size() != 0 {
		t.Errorf("booking locks left behind: %d", f.leases.Size())
	}
}

func TestBookingLock_HeldByAnotherInstance(t *testing.T) {
	f := newFixture(t, 5)
	b := f.book(t, 1, 2, 1)
	f.confirm(t, b)
	key := locker.BookingKey(b.ID)
	held := &model.BookingLock{ID: key, Owner: "instance-2", ExpiresAt: time.Now().Add(time.Minute)}
	if err := f.leases.Create(context.Background(), held); err != nil {
		t.Fatalf("Create: %v", err)
	}

	t.Run("gives up when the request ends", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
		defer cancel()

		assertCode(t, f.svc.CancelBooking(ctx, b.ID, guestUser), apperrors.CodeTimeout)
		if got := f.status(t, b.ID); got != model.BookingConfirmed {
			t.Errorf("status = %s, want CONFIRMED", got)
		}
		if f.locks.Size() != 0 {
			t.Errorf("in-process locks held after return: %d", f.locks.Size())
		}
	})

	t.Run("proceeds once the holder releases", func(t *testing.T) {
		go func() {
			time.Sleep(40 * time.Millisecond)
			_ = f.leases.Delete(context.Background(), key, "instance-2")
		}()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		if err := f.svc.CancelBooking(ctx, b.ID, guestUser); err != nil {
			t.Fatalf("CancelBooking: %v", err)
		}
		if got := f.status(t, b.ID); got != model.BookingCancelled {
			t.Errorf("status = %s, want CANCELLED", got)
		}
		if f.leases.Size() != 0 {
			t.Errorf("booking locks left behind: %d", f.leases.Size())
		}
	})
}
