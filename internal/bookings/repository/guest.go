package repository

import (
	"context"
	"fmt"
	"staybook/pkg/config"
	"staybook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const GuestsCollectionName = "Guests"

type GuestRepository interface {
	CreateMany(ctx context.Context, guests []*model.Guest) error
	FindByBooking(ctx context.Context, bookingID string) ([]model.Guest, error)
}

type mongoGuestRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoGuestRepository(cfg *config.Config) GuestRepository {
	return &mongoGuestRepository{
		cfg:        cfg,
		collection: cfg.Client.Mongo.Database(cfg.MongoDatabaseName).Collection(GuestsCollectionName),
	}
}

func (r *mongoGuestRepository) CreateMany(ctx context.Context, guests []*model.Guest) error {
	if len(guests) == 0 {
		return nil
	}
	if mongo.SessionFromContext(ctx) == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.WriteTimeout)
		defer cancel()
	}

	docs := make([]any, len(guests))
	for i, g := range guests {
		docs[i] = g
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to create guests: %w", err)
	}
	return nil
}

func (r *mongoGuestRepository) FindByBooking(ctx context.Context, bookingID string) ([]model.Guest, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"booking_id": bookingID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find guests: %w", err)
	}
	defer cursor.Close(ctx)

	guests := []model.Guest{}
	if err := cursor.All(ctx, &guests); err != nil {
		return nil, fmt.Errorf("failed to decode guests: %w", err)
	}
	return guests, nil
}

