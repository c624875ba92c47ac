package repository

import (
	"context"
	"fmt"
	bookingserrors "staybook/internal/bookings/errors"
	"staybook/pkg/config"
	"staybook/pkg/model"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const BookingLocksCollectionName = "Booking_locks"

// BookingLockRepository stores advisory booking locks. Create returns
// ErrLockHeld while another owner holds an unexpired lock with the same ID.
type BookingLockRepository interface {
	Create(ctx context.Context, lock *model.BookingLock) error
	// Delete removes the lock only if owner still holds it.
	Delete(ctx context.Context, lockID, owner string) error
}

type mongoBookingLockRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoBookingLockRepository(cfg *config.Config) BookingLockRepository {
	return &mongoBookingLockRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(BookingLocksCollectionName),
	}
}

func (r *mongoBookingLockRepository) Create(ctx context.Context, lock *model.BookingLock) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	lock.CreatedAt = time.Now().UTC()
	_, err := r.collection.InsertOne(ctx, lock)
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to create booking lock: %w", err)
	}

	// The TTL monitor runs about once a minute, so a lease that lapsed
	// recently may still be stored.
	res, err := r.collection.DeleteOne(ctx, bson.M{
		"_id":        lock.ID,
		"expires_at": bson.M{"$lte": lock.CreatedAt},
	})
	if err != nil {
		return fmt.Errorf("failed to clear expired booking lock: %w", err)
	}
	if res.DeletedCount == 0 {
		return bookingserrors.ErrLockHeld
	}
	if _, err := r.collection.InsertOne(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrLockHeld
		}
		return fmt.Errorf("failed to create booking lock: %w", err)
	}
	return nil
}

func (r *mongoBookingLockRepository) Delete(ctx context.Context, lockID, owner string) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": lockID, "owner": owner}); err != nil {
		return fmt.Errorf("failed to delete booking lock: %w", err)
	}
	return nil
}

// MemoryBookingLockRepository is the single-process BookingLockRepository.
type MemoryBookingLockRepository struct {
	mu    sync.Mutex
	locks map[string]model.BookingLock
	now   func() time.Time
}

func NewMemoryBookingLockRepository() *MemoryBookingLockRepository {
	return &MemoryBookingLockRepository{
		locks: make(map[string]model.BookingLock),
		now:   time.Now,
	}
}

func (r *MemoryBookingLockRepository) Create(_ context.Context, lock *model.BookingLock) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	if held, ok := r.locks[lock.ID]; ok && !held.Expired(now) {
		return bookingserrors.ErrLockHeld
	}
	lock.CreatedAt = now
	r.locks[lock.ID] = *lock
	return nil
}

func (r *MemoryBookingLockRepository) Delete(_ context.Context, lockID, owner string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if held, ok := r.locks[lockID]; ok && held.Owner == owner {
		delete(r.locks, lockID)
	}
	return nil
}

// Size reports how many locks are stored.
func (r *MemoryBookingLockRepository) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.locks)
}
