package validators

import "go.mongodb.org/mongo-driver/bson"

var integer = []string{"int", "long"}

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"hotel_id",
			"room_id",
			"user_id",
			"check_in_date",
			"check_out_date",
			"rooms_count",
			"amount",
			"status",
			"created_at",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "string",
			},

			"hotel_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"room_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 64,
			},

			"user_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"check_in_date": bson.M{
				"bsonType": "date",
			},

			"check_out_date": bson.M{
				"bsonType": "date",
			},

			"rooms_count": bson.M{
				"bsonType": integer,
				"minimum":  1,
			},

			"amount": bson.M{
				"bsonType": "double",
				"minimum":  0,
			},

			"status": bson.M{
				"bsonType": "string",
				"enum": []string{
					"RESERVED",
					"GUESTS_ADDED",
					"PAYMENTS_PENDING",
					"CONFIRMED",
					"CANCELLED",
					"EXPIRED",
				},
			},

			"payment_session_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},

			"created_at": bson.M{
				"bsonType": "date",
			},
		},
	},
}

var GuestValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"booking_id", "user_id", "name", "created_at"},
		"properties": bson.M{
			"booking_id": bson.M{"bsonType": "string"},
			"user_id":    bson.M{"bsonType": "string"},
			"name": bson.M{
				"bsonType":  "string",
				"minLength": 1,
				"maxLength": 100,
			},
			"gender": bson.M{
				"bsonType": "string",
				"enum":     []string{"", "MALE", "FEMALE", "OTHER"},
			},
			"age": bson.M{
				"bsonType": integer,
				"minimum":  0,
				"maximum":  130,
			},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}

var BookingLockValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{"_id", "owner", "expires_at", "created_at"},
		"properties": bson.M{
			"_id": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
			"owner": bson.M{
				"bsonType":  "string",
				"minLength": 1,
			},
			"expires_at": bson.M{"bsonType": "date"},
			"created_at": bson.M{"bsonType": "date"},
		},
	},
}
