package validators

import "go.mongodb.org/mongo-driver/bson"

var HotelValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"owner_id", "name", "city", "active"},
		"properties": bson.M{
			"owner_id": bson.M{"bsonType": "string", "minLength": 1},
			"name":     bson.M{"bsonType": "string", "minLength": 1, "maxLength": 200},
			"city":     bson.M{"bsonType": "string", "minLength": 1},
			"active":   bson.M{"bsonType": "bool"},
		},
	},
}

var RoomValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"hotel_id", "type", "base_price", "total_count"},
		"properties": bson.M{
			"hotel_id":    bson.M{"bsonType": "string", "minLength": 1},
			"type":        bson.M{"bsonType": "string", "minLength": 1},
			"base_price":  bson.M{"bsonType": []string{"double", "int", "long"}, "minimum": 0},
			"total_count": bson.M{"bsonType": integer, "minimum": 0},
		},
	},
}
