package repository

import (
	"context"
	"sort"
	bookingserrors "staybook/internal/bookings/errors"
	mongotx "staybook/pkg/db/mongo"
	"staybook/pkg/model"
	"sync"
	"time"
)

// MemoryBookingRepository keeps bookings in process for tests and local runs.
type MemoryBookingRepository struct {
	mu        sync.RWMutex
	bookings  map[string]model.Booking
	txManager mongotx.TransactionManager
}

func NewMemoryBookingRepository() *MemoryBookingRepository {
	return &MemoryBookingRepository{
		bookings:  make(map[string]model.Booking),
		txManager: mongotx.NewPassthroughTransactionManager(),
	}
}

func (r *MemoryBookingRepository) Create(_ context.Context, booking *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.bookings[booking.ID]; exists {
		return bookingserrors.ErrAlreadyExists
	}
	b := *booking
	b.Guests = nil
	r.bookings[b.ID] = b
	return nil
}

func (r *MemoryBookingRepository) FindByID(_ context.Context, id string) (*model.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.bookings[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	return &b, nil
}

func (r *MemoryBookingRepository) FindByPaymentSessionID(_ context.Context, sessionID string) (*model.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if sessionID == "" {
		return nil, bookingserrors.ErrNotFound
	}
	for _, b := range r.bookings {
		if b.PaymentSessionID == sessionID {
			return &b, nil
		}
	}
	return nil, bookingserrors.ErrNotFound
}

func (r *MemoryBookingRepository) compareAndSet(id string, from model.BookingStatus, mutate func(b *model.Booking) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.bookings[id]
	if !ok || b.Status != from {
		return bookingserrors.ErrStatusConflict
	}
	if err := mutate(&b); err != nil {
		return err
	}
	b.UpdatedAt = time.Now().UTC()
	r.bookings[id] = b
	return nil
}

func (r *MemoryBookingRepository) UpdateStatus(_ context.Context, id string, from, to model.BookingStatus) error {
	return r.compareAndSet(id, from, func(b *model.Booking) error {
		b.Status = to
		return nil
	})
}

func (r *MemoryBookingRepository) AttachPaymentSession(_ context.Context, id string, from model.BookingStatus, sessionID string) error {
	return r.compareAndSet(id, from, func(b *model.Booking) error {
		for otherID, other := range r.bookings {
			if otherID != id && other.PaymentSessionID == sessionID {
				return bookingserrors.ErrDuplicateSession
			}
		}
		b.Status = model.BookingPaymentsPending
		b.PaymentSessionID = sessionID
		return nil
	})
}

func (r *MemoryBookingRepository) filter(match func(b model.Booking) bool) []*model.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []*model.Booking{}
	for _, b := range r.bookings {
		if match(b) {
			c := b
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func page(all []*model.Booking, limit int, offset int64) []*model.Booking {
	if offset >= int64(len(all)) {
		return []*model.Booking{}
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all
}

func (r *MemoryBookingRepository) FindByUser(_ context.Context, userID string, limit int, offset int64) ([]*model.Booking, error) {
	return page(r.filter(func(b model.Booking) bool { return b.UserID == userID }), limit, offset), nil
}

func (r *MemoryBookingRepository) CountByUser(_ context.Context, userID string) (int64, error) {
	return int64(len(r.filter(func(b model.Booking) bool { return b.UserID == userID }))), nil
}

func (r *MemoryBookingRepository) FindByHotel(_ context.Context, hotelID string, limit int, offset int64) ([]*model.Booking, error) {
	return page(r.filter(func(b model.Booking) bool { return b.HotelID == hotelID }), limit, offset), nil
}

func (r *MemoryBookingRepository) CountByHotel(_ context.Context, hotelID string) (int64, error) {
	return int64(len(r.filter(func(b model.Booking) bool { return b.HotelID == hotelID }))), nil
}

func (r *MemoryBookingRepository) ConfirmedRevenue(_ context.Context, hotelID string, from, to time.Time) (int64, float64, error) {
	var (
		count   int64
		revenue float64
	)
	for _, b := range r.filter(func(b model.Booking) bool {
		return b.HotelID == hotelID && b.Status == model.BookingConfirmed &&
			!b.CreatedAt.Before(from) && b.CreatedAt.Before(to)
	}) {
		count++
		revenue += b.Amount
	}
	return count, revenue, nil
}

func (r *MemoryBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}

type MemoryGuestRepository struct {
	mu     sync.RWMutex
	guests map[string][]model.Guest
}

func NewMemoryGuestRepository() *MemoryGuestRepository {
	return &MemoryGuestRepository{guests: make(map[string][]model.Guest)}
}

func (r *MemoryGuestRepository) CreateMany(_ context.Context, guests []*model.Guest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, g := range guests {
		r.guests[g.BookingID] = append(r.guests[g.BookingID], *g)
	}
	return nil
}

func (r *MemoryGuestRepository) FindByBooking(_ context.Context, bookingID string) ([]model.Guest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Guest, len(r.guests[bookingID]))
	copy(out, r.guests[bookingID])
	return out, nil
}
