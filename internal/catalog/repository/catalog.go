// Package repository gives read-only access to hotels and rooms. Their CRUD
// lives in another service; reservations only need ownership and capacity.
package repository

import (
	"context"
	"errors"
	"fmt"
	catalogerrors "staybook/internal/catalog/errors"
	"staybook/pkg/config"
	"staybook/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	HotelsCollectionName = "Hotels"
	RoomsCollectionName  = "Rooms"
)

type CatalogRepository interface {
	FindHotelByID(ctx context.Context, id string) (*model.Hotel, error)
	FindRoomByID(ctx context.Context, id string) (*model.Room, error)
	FindRoomsByHotel(ctx context.Context, hotelID string) ([]*model.Room, error)
}

type mongoCatalogRepository struct {
	cfg    *config.Config
	hotels *mongo.Collection
	rooms  *mongo.Collection
}

func NewMongoCatalogRepository(cfg *config.Config) CatalogRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoCatalogRepository{
		cfg:    cfg,
		hotels: db.Collection(HotelsCollectionName),
		rooms:  db.Collection(RoomsCollectionName),
	}
}

func (r *mongoCatalogRepository) FindHotelByID(ctx context.Context, id string) (*model.Hotel, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var hotel model.Hotel
	if err := r.hotels.FindOne(ctx, bson.M{"_id": id}).Decode(&hotel); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, catalogerrors.ErrHotelNotFound
		}
		return nil, fmt.Errorf("failed to find hotel: %w", err)
	}
	return &hotel, nil
}

func (r *mongoCatalogRepository) FindRoomByID(ctx context.Context, id string) (*model.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var room model.Room
	if err := r.rooms.FindOne(ctx, bson.M{"_id": id}).Decode(&room); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, catalogerrors.ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to find room: %w", err)
	}
	return &room, nil
}


func (r *mongoCatalogRepository) FindRoomsByHotel(ctx context.Context, hotelID string) ([]*model.Room, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.rooms.Find(ctx, bson.M{"hotel_id": hotelID}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find rooms: %w", err)
	}
	defer cursor.Close(ctx)

	var rooms []*model.Room
	if err := cursor.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("failed to decode rooms: %w", err)
	}
	return rooms, nil
}
