//go:build integration

package testutil

import (
	"context"
	"staybook/pkg/model"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultMongoURI     = "mongodb://localhost:27017/?replicaSet=rs0"
	DefaultDatabaseName = "staybook"
	ConnectionTimeout   = 10 * time.Second

	InventoryCollection    = "Inventory"
	BookingsCollection     = "Bookings"
	GuestsCollection       = "Guests"
	BookingLocksCollection = "Booking_locks"
	HotelsCollection       = "Hotels"
	RoomsCollection        = "Rooms"
)

type MongoHelper struct {
	Client   *mongo.Client
	Database *mongo.Database
	DBName   string
}

func NewMongoHelper(t *testing.T, mongoURI, dbName string) *MongoHelper {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}

	return &MongoHelper{
		Client:   client,
		Database: client.Database(dbName),
		DBName:   dbName,
	}
}

func (m *MongoHelper) Close(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		t.Logf("warning: failed to disconnect from MongoDB: %v", err)
	}
}

// CleanDatabase empties every collection the service writes. Collections are
// kept so their validators and indexes survive.
func (m *MongoHelper) CleanDatabase(t *testing.T) {
	t.Helper()
	for _, name := range []string{InventoryCollection, BookingsCollection, GuestsCollection, BookingLocksCollection, HotelsCollection, RoomsCollection} {
		m.CleanCollection(t, name)
	}
}

func (m *MongoHelper) CleanCollection(t *testing.T, collectionName string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := m.Database.Collection(collectionName).DeleteMany(ctx, bson.M{}); err != nil {
		t.Fatalf("failed to clean collection %s: %v", collectionName, err)
	}
}

func (m *MongoHelper) Insert(t *testing.T, collectionName string, docs ...any) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := m.Database.Collection(collectionName).InsertMany(ctx, docs); err != nil {
		t.Fatalf("failed to insert into %s: %v", collectionName, err)
	}
}

// Inventory returns the stored record of roomID on day.
func (m *MongoHelper) Inventory(t *testing.T, roomID string, day time.Time) model.Inventory {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var rec model.Inventory
	err := m.Database.Collection(InventoryCollection).
		FindOne(ctx, bson.M{"_id": model.InventoryID(roomID, day)}).
		Decode(&rec)
	if err != nil {
		t.Fatalf("failed to load inventory %s/%s: %v", roomID, day.Format(time.DateOnly), err)
	}
	return rec
}

func (m *MongoHelper) Booking(t *testing.T, id string) model.Booking {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var b model.Booking
	if err := m.Database.Collection(BookingsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		t.Fatalf("failed to load booking %s: %v", id, err)
	}
	return b
}

// AttachSession puts a booking into PAYMENTS_PENDING without going through
// the payment processor.
func (m *MongoHelper) AttachSession(t *testing.T, bookingID, sessionID string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := m.Database.Collection(BookingsCollection).UpdateOne(ctx,
		bson.M{"_id": bookingID},
		bson.M{"$set": bson.M{"status": model.BookingPaymentsPending, "payment_session_id": sessionID}},
	)
	if err != nil {
		t.Fatalf("failed to attach session to %s: %v", bookingID, err)
	}
}
