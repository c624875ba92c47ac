package repository

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "staybook/internal/bookings/errors"
	"staybook/pkg/config"
	mongotx "staybook/pkg/db/mongo"
	"staybook/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Bookings"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id string) (*model.Booking, error)
	FindByPaymentSessionID(ctx context.Context, sessionID string) (*model.Booking, error)
	// UpdateStatus moves the booking from status from to status to, failing
	// with ErrStatusConflict when it is no longer in from.
	UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus) error
	// AttachPaymentSession is UpdateStatus that also records the session.
	AttachPaymentSession(ctx context.Context, id string, from model.BookingStatus, sessionID string) error
	FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	FindByHotel(ctx context.Context, hotelID string, limit int, offset int64) ([]*model.Booking, error)
	CountByHotel(ctx context.Context, hotelID string) (int64, error)
	// ConfirmedRevenue sums confirmed bookings of hotelID created in [from, to).
	ConfirmedRevenue(ctx context.Context, hotelID string, from, to time.Time) (count int64, revenue float64, err error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoBookingRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoBookingRepository(cfg *config.Config) BookingRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoBookingRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoBookingRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if mongo.SessionFromContext(ctx) != nil {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}

func (r *mongoBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if _, err := r.collection.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *mongoBookingRepository) findOne(ctx context.Context, filter bson.M) (*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var booking model.Booking
	if err := r.collection.FindOne(ctx, filter).Decode(&booking); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, bookingserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

func (r *mongoBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoBookingRepository) FindByPaymentSessionID(ctx context.Context, sessionID string) (*model.Booking, error) {
	if sessionID == "" {
		return nil, bookingserrors.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"payment_session_id": sessionID})
}

func (r *mongoBookingRepository) compareAndSet(ctx context.Context, id string, from model.BookingStatus, set bson.M) error {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	set["updated_at"] = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": set},
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return bookingserrors.ErrDuplicateSession
		}
		return fmt.Errorf("failed to update booking: %w", err)
	}
	if result.MatchedCount == 0 {
		return bookingserrors.ErrStatusConflict
	}
	return nil
}

func (r *mongoBookingRepository) UpdateStatus(ctx context.Context, id string, from, to model.BookingStatus) error {
	return r.compareAndSet(ctx, id, from, bson.M{"status": to})
}

func (r *mongoBookingRepository) AttachPaymentSession(ctx context.Context, id string, from model.BookingStatus, sessionID string) error {
	return r.compareAndSet(ctx, id, from, bson.M{
		"status":             model.BookingPaymentsPending,
		"payment_session_id": sessionID,
	})
}

func (r *mongoBookingRepository) findMany(ctx context.Context, filter bson.M, limit int, offset int64) ([]*model.Booking, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(offset)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := []*model.Booking{}
	if err = cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

func (r *mongoBookingRepository) count(ctx context.Context, filter bson.M) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	n, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return n, nil
}

func (r *mongoBookingRepository) FindByUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, error) {
	return r.findMany(ctx, bson.M{"user_id": userID}, limit, offset)
}

func (r *mongoBookingRepository) CountByUser(ctx context.Context, userID string) (int64, error) {
	return r.count(ctx, bson.M{"user_id": userID})
}

func (r *mongoBookingRepository) FindByHotel(ctx context.Context, hotelID string, limit int, offset int64) ([]*model.Booking, error) {
	return r.findMany(ctx, bson.M{"hotel_id": hotelID}, limit, offset)
}

func (r *mongoBookingRepository) CountByHotel(ctx context.Context, hotelID string) (int64, error) {
	return r.count(ctx, bson.M{"hotel_id": hotelID})
}

func (r *mongoBookingRepository) ConfirmedRevenue(ctx context.Context, hotelID string, from, to time.Time) (int64, float64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"hotel_id":   hotelID,
			"status":     model.BookingConfirmed,
			"created_at": bson.M{"$gte": from, "$lt": to},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":     nil,
			"count":   bson.M{"$sum": 1},
			"revenue": bson.M{"$sum": "$amount"},
		}}},
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to aggregate revenue: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Count   int64   `bson:"count"`
		Revenue float64 `bson:"revenue"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return 0, 0, fmt.Errorf("failed to decode revenue: %w", err)
	}
	if len(rows) == 0 {
		return 0, 0, nil
	}
	return rows[0].Count, rows[0].Revenue, nil
}

func (r *mongoBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
