package repository

import (
	"context"
	"fmt"
	"staybook/pkg/config"
	mongotx "staybook/pkg/db/mongo"
	"staybook/pkg/model"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Inventory"
)

type InventoryRepository interface {
	// FindAndLockRange returns the records of roomID within [start, end]
	// sorted by date, after taking a write lock on each of them in the
	// current transaction.
	FindAndLockRange(ctx context.Context, roomID string, start, end time.Time) ([]*model.Inventory, error)
	FindByRoom(ctx context.Context, roomID string, start, end time.Time) ([]*model.Inventory, error)
	Save(ctx context.Context, records []*model.Inventory) error
	CreateMissing(ctx context.Context, records []*model.Inventory) (int64, error)
	DeleteByRoom(ctx context.Context, roomID string) (int64, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoInventoryRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoInventoryRepository(cfg *config.Config) InventoryRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoInventoryRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

// withTimeout bounds ctx unless it carries a session; a session context
// cannot be wrapped without leaving the transaction.
func (r *mongoInventoryRepository) withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if mongo.SessionFromContext(ctx) != nil {
		return ctx, func() {}
	}

	deadline, hasDeadline := ctx.Deadline()
	if hasDeadline && time.Until(deadline) < timeout {
		return context.WithDeadline(ctx, deadline)
	}
	return context.WithTimeout(ctx, timeout)
}

func rangeFilter(roomID string, start, end time.Time) bson.M {
	return bson.M{
		"room_id": roomID,
		"date": bson.M{
			"$gte": model.Day(start),
			"$lte": model.Day(end),
		},
	}
}

func (r *mongoInventoryRepository) FindAndLockRange(ctx context.Context, roomID string, start, end time.Time) ([]*model.Inventory, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	filter := rangeFilter(roomID, start, end)

	// Touching every row makes concurrent transactions over the same days
	// conflict on write, which is Mongo's closest thing to SELECT ... FOR UPDATE.
	if _, err := r.collection.UpdateMany(ctx, filter, bson.M{"$inc": bson.M{"lock_version": 1}}); err != nil {
		return nil, fmt.Errorf("failed to lock inventory range: %w", err)
	}

	return r.find(ctx, filter)
}

func (r *mongoInventoryRepository) FindByRoom(ctx context.Context, roomID string, start, end time.Time) ([]*model.Inventory, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	return r.find(ctx, rangeFilter(roomID, start, end))
}

func (r *mongoInventoryRepository) find(ctx context.Context, filter bson.M) ([]*model.Inventory, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find inventory: %w", err)
	}
	defer cursor.Close(ctx)

	var records []*model.Inventory
	if err = cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode inventory: %w", err)
	}
	return records, nil
}

func (r *mongoInventoryRepository) Save(ctx context.Context, records []*model.Inventory) error {
	if len(records) == 0 {
		return nil
	}
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	now := time.Now().UTC().Truncate(time.Millisecond)
	writes := make([]mongo.WriteModel, 0, len(records))
	for _, rec := range records {
		rec.UpdatedAt = now
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": rec.ID}).
			SetUpdate(bson.M{"$set": bson.M{
				"reserved_count": rec.ReservedCount,
				"booked_count":   rec.BookedCount,
				"closed":         rec.Closed,
				"surge_factor":   rec.SurgeFactor,
				"updated_at":     now,
			}}))
	}

	result, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true))
	if err != nil {
		return fmt.Errorf("failed to save inventory: %w", err)
	}
	if result.MatchedCount != int64(len(records)) {
		return fmt.Errorf("failed to save inventory: matched %d of %d records", result.MatchedCount, len(records))
	}
	return nil
}

func (r *mongoInventoryRepository) CreateMissing(ctx context.Context, records []*model.Inventory) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	writes := make([]mongo.WriteModel, 0, len(records))
	for _, rec := range records {
		writes = append(writes, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": rec.ID}).
			SetUpdate(bson.M{"$setOnInsert": rec}).
			SetUpsert(true))
	}

	result, err := r.collection.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("failed to initialize inventory: %w", err)
	}
	return result.UpsertedCount, nil
}

func (r *mongoInventoryRepository) DeleteByRoom(ctx context.Context, roomID string) (int64, error) {
	ctx, cancel := r.withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteMany(ctx, bson.M{"room_id": roomID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete inventory: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *mongoInventoryRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
