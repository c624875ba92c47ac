package validators

import "go.mongodb.org/mongo-driver/bson"

// InventoryValidator enforces non-negative counters. The reserved + booked
// <= total bound spans fields, so it is an $expr next to the schema.
var InventoryValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"hotel_id",
			"room_id",
			"date",
			"total_count",
			"reserved_count",
			"booked_count",
			"base_price",
			"surge_factor",
			"closed",
		},
		"properties": bson.M{
			"_id":            bson.M{"bsonType": "string"},
			"hotel_id":       bson.M{"bsonType": "string"},
			"room_id":        bson.M{"bsonType": "string"},
			"city":           bson.M{"bsonType": "string"},
			"date":           bson.M{"bsonType": "date"},
			"total_count":    bson.M{"bsonType": integer, "minimum": 0},
			"reserved_count": bson.M{"bsonType": integer, "minimum": 0},
			"booked_count":   bson.M{"bsonType": integer, "minimum": 0},
			"base_price":     bson.M{"bsonType": "double", "minimum": 0},
			"surge_factor":   bson.M{"bsonType": "double", "exclusiveMinimum": true, "minimum": 0},
			"closed":         bson.M{"bsonType": "bool"},
			"lock_version":   bson.M{"bsonType": integer},
		},
	},
	"$expr": bson.M{
		"$lte": bson.A{
			bson.M{"$add": bson.A{"$reserved_count", "$booked_count"}},
			"$total_count",
		},
	},
}
