package mongo

import (
	"context"
	"fmt"
	bookingsrepo "staybook/internal/bookings/repository"
	catalogrepo "staybook/internal/catalog/repository"
	inventoryrepo "staybook/internal/inventory/repository"
	"staybook/internal/migrations/mongo/validators"
	"staybook/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Collection struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

var (
	InventoryIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "room_id", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("room_date_unique"),
		},
		{Keys: bson.D{{Key: "hotel_id", Value: 1}, {Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "city", Value: 1}, {Key: "date", Value: 1}}},
	}

	BookingsIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "payment_session_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true).SetName("payment_session_unique"),
		},
		{Keys: bson.D{{Key: "hotel_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "hotel_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
	}

	GuestsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "booking_id", Value: 1}, {Key: "created_at", Value: 1}}},
	}

	// Lapsed leases are also cleared on contention; the TTL index only
	// keeps the collection small.
	BookingLocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("expires_at_ttl"),
		},
	}

	RoomsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "hotel_id", Value: 1}}},
	}

	HotelsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "city", Value: 1}, {Key: "active", Value: 1}}},
	}
)

func Collections() []Collection {
	return []Collection{
		{Name: inventoryrepo.CollectionName, Indexes: InventoryIndexes, Validator: validators.InventoryValidator},
		{Name: bookingsrepo.CollectionName, Indexes: BookingsIndexes, Validator: validators.BookingValidator},
		{Name: bookingsrepo.GuestsCollectionName, Indexes: GuestsIndexes, Validator: validators.GuestValidator},
		{Name: bookingsrepo.BookingLocksCollectionName, Indexes: BookingLocksIndexes, Validator: validators.BookingLockValidator},
		{Name: catalogrepo.HotelsCollectionName, Indexes: HotelsIndexes, Validator: validators.HotelValidator},
		{Name: catalogrepo.RoomsCollectionName, Indexes: RoomsIndexes, Validator: validators.RoomValidator},
	}
}

func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	for _, def := range Collections() {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "count", len(models))
	return nil
}
